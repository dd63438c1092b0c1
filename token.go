package nctl

import (
	"reflect"
	"strings"

	"github.com/muir/reflectutils"
)

// Token identifies an injectable component.  It is the type of the
// component: the first return type of its constructor, or the type
// it was registered under.
type Token = reflect.Type

// TokenOf returns the Token for T.  T may be an interface type:
//
//	nctl.TokenOf[nlog.BasicLogger]()
func TokenOf[T any]() Token {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// TokenName renders a token for error messages and logs.
func TokenName(t Token) string {
	if t == nil {
		return "<nil>"
	}
	return reflectutils.TypeName(t)
}

func tokenPath(tokens []Token) string {
	names := make([]string, len(tokens))
	for i, t := range tokens {
		names[i] = TokenName(t)
	}
	return strings.Join(names, " -> ")
}
