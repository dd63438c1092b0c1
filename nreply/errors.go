package nreply

import (
	"net/http"

	"github.com/pkg/errors"
)

// ApplicationError is an error that knows the HTTP status it should
// produce.  Its Message is safe to send to clients.
type ApplicationError struct {
	StatusCode int
	Message    string
}

func (err *ApplicationError) Error() string {
	return err.Message
}

// NewError creates an ApplicationError
func NewError(statusCode int, message string) *ApplicationError {
	return &ApplicationError{StatusCode: statusCode, Message: message}
}

// NotFound is a 404.  The default message is "Not Found".
func NotFound(message ...string) *ApplicationError {
	return NewError(http.StatusNotFound, pick(message, "Not Found"))
}

// InvalidCredentials is a 401 with the message "Invalid credentials"
func InvalidCredentials() *ApplicationError {
	return NewError(http.StatusUnauthorized, "Invalid credentials")
}

// AlreadyExists is a 409.  The default message is "Already exists".
func AlreadyExists(message ...string) *ApplicationError {
	return NewError(http.StatusConflict, pick(message, "Already exists"))
}

// BadRequest is a 400.  The default message is "Bad Request".
func BadRequest(message ...string) *ApplicationError {
	return NewError(http.StatusBadRequest, pick(message, "Bad Request"))
}

// MethodNotAllowed is a 405 with the message "Method Not Allowed"
func MethodNotAllowed() *ApplicationError {
	return NewError(http.StatusMethodNotAllowed, "Method Not Allowed")
}

// PayloadTooLarge is a 413 with the message "Payload Too Large"
func PayloadTooLarge() *ApplicationError {
	return NewError(http.StatusRequestEntityTooLarge, "Payload Too Large")
}

func pick(message []string, dflt string) string {
	if len(message) > 0 && message[0] != "" {
		return message[0]
	}
	return dflt
}

// ReturnCode associates an HTTP return code with an error.  The
// error's own message becomes the client-visible message unless code
// is 500 or more, in which case only the status text is sent.  If err
// is nil, then nil is returned.
func ReturnCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return returnCode{
		cause: err,
		code:  code,
	}
}

type returnCode struct {
	cause error
	code  int
}

func (err returnCode) Cause() error  { return err.cause }
func (err returnCode) Unwrap() error { return err.cause }
func (err returnCode) Error() string { return err.cause.Error() }

// Unauthorized annotates an error as giving 401 HTTP return code
func Unauthorized(err error) error {
	return ReturnCode(err, http.StatusUnauthorized)
}

// Forbidden annotates an error as giving 403 HTTP return code
func Forbidden(err error) error {
	return ReturnCode(err, http.StatusForbidden)
}

// GetReturnCode finds the HTTP status associated with an error.
// Errors without one are 500.
func GetReturnCode(err error) int {
	code, _ := classify(err)
	return code
}

// Message returns the message that may be sent to a client for err.
// Unclassified errors are "Internal Server Error": their details
// are not leaked.
func Message(err error) string {
	_, msg := classify(err)
	return msg
}

// classify walks the chain from the outside in.  The first
// ApplicationError or ReturnCode annotation found decides the status.
// A ReturnCode of 500 or more reports only the status text.
func classify(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch t := e.(type) {
		case *ApplicationError:
			return t.StatusCode, t.Message
		case returnCode:
			if t.code >= http.StatusInternalServerError {
				return t.code, serverErrorText(t.code)
			}
			return t.code, t.Error()
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

func serverErrorText(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return http.StatusText(http.StatusInternalServerError)
}
