package nctl

import (
	"errors"
	"fmt"
)

// DependencyNotFoundError is returned by Resolve for a token that has
// not been registered, and by ResolveAndRegister when a dependency
// is neither registered nor declared.
type DependencyNotFoundError struct {
	Token Token
	// Path is the chain of components being constructed when the
	// missing dependency was needed.  It is empty for Resolve.
	Path []Token
}

func (e *DependencyNotFoundError) Error() string {
	return "dependency not found for token: " + TokenName(e.Token)
}

func (e *DependencyNotFoundError) details() string {
	if len(e.Path) == 0 {
		return ""
	}
	return "required by " + tokenPath(e.Path)
}

// CyclicDependencyError is returned by ResolveAndRegister when a
// component depends, directly or indirectly, on itself.
type CyclicDependencyError struct {
	Path []Token
}

func (e *CyclicDependencyError) Error() string {
	return "cyclic dependency: " + tokenPath(e.Path)
}

// InvalidComponentError reports a constructor that cannot be used.
type InvalidComponentError struct {
	Constructor interface{}
	Reason      string
}

func (e *InvalidComponentError) Error() string {
	return fmt.Sprintf("invalid component %T: %s", e.Constructor, e.Reason)
}

// ConstructionError wraps an error returned by a constructor.
type ConstructionError struct {
	Token Token
	Path  []Token
	Err   error
}

func (e *ConstructionError) Error() string {
	return "construct " + TokenName(e.Token) + ": " + e.Err.Error()
}

func (e *ConstructionError) Unwrap() error { return e.Err }

func (e *ConstructionError) details() string {
	if len(e.Path) <= 1 {
		return ""
	}
	return "while resolving " + tokenPath(e.Path)
}

type detailer interface {
	details() string
}

// DetailedError transforms errors into strings.  If the error came
// from ResolveAndRegister or Load, the resolution path that led to
// the failure is included.
func DetailedError(err error) string {
	if err == nil {
		return ""
	}
	var d detailer
	if errors.As(err, &d) {
		if s := d.details(); s != "" {
			return err.Error() + "\n\n" + s
		}
	}
	return err.Error()
}

// IsNotFound is true if err is (or wraps) a DependencyNotFoundError
func IsNotFound(err error) bool {
	var nf *DependencyNotFoundError
	return errors.As(err, &nf)
}
