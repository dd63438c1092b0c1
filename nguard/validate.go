package nguard

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/muir/nctl/nreply"
	"github.com/pkg/errors"
)

// StructValidator validates request models with `validate:"..."`
// struct tags.  Field names in messages come from the json tag.
type StructValidator struct {
	validate *validator.Validate
}

// NewStructValidator is a constructor suitable for an nctl.Manifest
func NewStructValidator() *StructValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return field.Name
		default:
			return name
		}
	})
	return &StructValidator{validate: v}
}

// Validate returns a 400 describing the first failing field.  Data
// that is not a struct (or pointer to one) is a programming error and
// is not reported as a client error.
func (s *StructValidator) Validate(data interface{}) error {
	err := s.validate.Struct(data)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return errors.Wrap(err, "struct validator")
	}
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		return nreply.BadRequest(fieldMessage(fieldErrors[0]))
	}
	return nreply.BadRequest()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Invalid " + fe.Field() + " format"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// Credentials is the request model for registering and logging in
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var (
	emailRE         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	passwordCharsRE = regexp.MustCompile(`^[A-Za-z\d]{6,}$`)
	letterRE        = regexp.MustCompile(`[A-Za-z]`)
	digitRE         = regexp.MustCompile(`\d`)
)

// RegisterValidator checks Credentials for a new account: a plausible
// email address and a password of at least six letters and digits
// with at least one of each.
type RegisterValidator struct{}

// NewRegisterValidator is a constructor suitable for an nctl.Manifest
func NewRegisterValidator() *RegisterValidator { return &RegisterValidator{} }

func (RegisterValidator) Validate(data interface{}) error {
	var c Credentials
	switch d := data.(type) {
	case Credentials:
		c = d
	case *Credentials:
		if d == nil {
			return nreply.BadRequest()
		}
		c = *d
	default:
		return errors.Errorf("register validator cannot validate %T", data)
	}
	if !emailRE.MatchString(c.Email) {
		return nreply.BadRequest("Invalid email format")
	}
	if len(c.Password) <= 5 {
		return nreply.BadRequest("Password must be longer than 5 characters")
	}
	if !passwordCharsRE.MatchString(c.Password) || !letterRE.MatchString(c.Password) || !digitRE.MatchString(c.Password) {
		return nreply.BadRequest("Password must contain at least one letter and one number")
	}
	return nil
}
