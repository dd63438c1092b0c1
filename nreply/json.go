package nreply

import (
	"encoding/json"
	"net/http"

	"github.com/muir/nctl/nlog"
)

// ContentTypeJSON is the default route content type
const ContentTypeJSON = "application/json"

// JSONResponse builds a JSON response.  The default status is 200.
//
//	return nreply.JSON(w).Status(http.StatusCreated).Body(user).Send()
type JSONResponse struct {
	w      http.ResponseWriter
	status int
	body   interface{}
}

// JSON starts a JSONResponse for w
func JSON(w http.ResponseWriter) *JSONResponse {
	return &JSONResponse{w: w, status: http.StatusOK}
}

// Status sets the HTTP status
func (r *JSONResponse) Status(status int) *JSONResponse {
	r.status = status
	return r
}

// Body sets the value to be encoded
func (r *JSONResponse) Body(body interface{}) *JSONResponse {
	r.body = body
	return r
}

// Send encodes the body and writes the response.  Encoding happens
// before anything is written so that a marshal failure can still be
// turned into an error response.
func (r *JSONResponse) Send() error {
	enc, err := json.Marshal(r.body)
	if err != nil {
		return err
	}
	r.w.Header().Set("Content-Type", ContentTypeJSON)
	r.w.WriteHeader(r.status)
	_, err = r.w.Write(enc)
	return err
}

// ErrorBody is what WriteError sends
type ErrorBody struct {
	Message string `json:"message"`
}

// WriteError writes err as {"message": ...} with the status from
// GetReturnCode.  Unclassified errors are logged with their details
// and reported to the client only as "Internal Server Error".
func WriteError(w http.ResponseWriter, log nlog.BasicLogger, r *http.Request, err error) {
	code, msg := classify(err)
	if code >= 500 {
		fields := map[string]interface{}{
			"error": err.Error(),
		}
		if r != nil {
			fields["method"] = r.Method
			fields["uri"] = r.URL.String()
		}
		if stack := RecoverStack(err); stack != "" {
			fields["stack"] = stack
		}
		log.Error("request failed", fields)
	}
	enc, _ := json.Marshal(ErrorBody{Message: msg})
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(code)
	if _, werr := w.Write(enc); werr != nil {
		log.Warn("cannot write response", map[string]interface{}{
			"error": werr.Error(),
		})
	}
}
