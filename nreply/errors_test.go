package nreply_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/muir/nctl/nreply"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNamedErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{nreply.NotFound("User not found"), 404, "User not found"},
		{nreply.NotFound(), 404, "Not Found"},
		{nreply.InvalidCredentials(), 401, "Invalid credentials"},
		{nreply.AlreadyExists("User already exists"), 409, "User already exists"},
		{nreply.BadRequest(), 400, "Bad Request"},
		{nreply.BadRequest("Invalid email format"), 400, "Invalid email format"},
		{nreply.MethodNotAllowed(), 405, "Method Not Allowed"},
		{nreply.PayloadTooLarge(), 413, "Payload Too Large"},
		{nreply.Forbidden(fmt.Errorf("nope")), 403, "nope"},
		{nreply.Unauthorized(fmt.Errorf("who")), 401, "who"},
		{fmt.Errorf("secret detail"), 500, "Internal Server Error"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, nreply.GetReturnCode(tc.err), tc.msg)
		assert.Equal(t, tc.msg, nreply.Message(tc.err))
	}
}

func TestReturnCodeThroughWrapping(t *testing.T) {
	t.Parallel()
	err := errors.Wrap(nreply.ReturnCode(fmt.Errorf("gone"), http.StatusGone), "lookup")
	assert.Equal(t, http.StatusGone, nreply.GetReturnCode(err))
	err = fmt.Errorf("service: %w", nreply.NotFound("User not found"))
	assert.Equal(t, 404, nreply.GetReturnCode(err))
	assert.Equal(t, "User not found", nreply.Message(err))
	assert.Nil(t, nreply.ReturnCode(nil, 400))
}

type dbError struct{ msg string }

func (e dbError) Error() string { return e.msg }

func TestServerReturnCodeHidesCause(t *testing.T) {
	t.Parallel()
	err := nreply.ReturnCode(dbError{"db password hunter2"}, http.StatusInternalServerError)
	assert.Equal(t, 500, nreply.GetReturnCode(err))
	assert.Equal(t, "Internal Server Error", nreply.Message(err))

	err = errors.Wrap(nreply.ReturnCode(dbError{"db password hunter2"}, http.StatusServiceUnavailable), "query")
	assert.Equal(t, 503, nreply.GetReturnCode(err))
	assert.Equal(t, "Service Unavailable", nreply.Message(err))

	assert.Equal(t, "Internal Server Error", nreply.Message(nreply.ReturnCode(dbError{"x"}, 599)))
}

func TestOuterReturnCodeWins(t *testing.T) {
	t.Parallel()
	err := nreply.ReturnCode(nreply.NotFound(), http.StatusBadRequest)
	assert.Equal(t, 400, nreply.GetReturnCode(err))
	assert.Equal(t, "Not Found", nreply.Message(err))

	err = fmt.Errorf("outer: %w", nreply.ReturnCode(nreply.BadRequest("Bad email"), http.StatusConflict))
	assert.Equal(t, 409, nreply.GetReturnCode(err))

	err = errors.Wrap(nreply.NotFound("User not found"), "lookup")
	assert.Equal(t, 404, nreply.GetReturnCode(err))
}
