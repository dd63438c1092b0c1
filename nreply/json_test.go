package nreply_test

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/muir/nctl/nlog"
	"github.com/muir/nctl/nreply"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONResponse(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	err := nreply.JSON(w).Status(http.StatusCreated).Body(map[string]string{"email": "a@b.c"}).Send()
	require.NoError(t, err)
	assert.Equal(t, 201, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"email":"a@b.c"}`, w.Body.String())
}

func TestJSONResponseMarshalFailure(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	err := nreply.JSON(w).Body(make(chan int)).Send()
	require.Error(t, err)
	assert.Equal(t, 0, w.Body.Len())
}

func TestWriteError(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := nlog.FromStd(log.New(&buf, "", 0))
	r := httptest.NewRequest("GET", "/x", nil)

	w := httptest.NewRecorder()
	nreply.WriteError(w, logger, r, nreply.AlreadyExists("User already exists"))
	assert.Equal(t, 409, w.Code)
	assert.Equal(t, `{"message":"User already exists"}`, w.Body.String())
	assert.Empty(t, buf.String())

	w = httptest.NewRecorder()
	nreply.WriteError(w, logger, r, fmt.Errorf("db password is hunter2"))
	assert.Equal(t, 500, w.Code)
	assert.Equal(t, `{"message":"Internal Server Error"}`, w.Body.String())
	assert.Contains(t, buf.String(), "hunter2")
}
