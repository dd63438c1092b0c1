package nroute

import (
	"strings"

	"github.com/muir/nctl"
	"github.com/muir/nctl/nreply"
)

// HTTP verbs that routes may be declared with
const (
	GET    = "GET"
	POST   = "POST"
	PUT    = "PUT"
	PATCH  = "PATCH"
	DELETE = "DELETE"
)

var verbs = map[string]struct{}{
	GET:    {},
	POST:   {},
	PUT:    {},
	PATCH:  {},
	DELETE: {},
}

// Controller is implemented by anything that handles requests.  Routes
// is called once, when the controller is registered with a Router.
// It returns the controller's routing table; it should not depend on
// request state.
type Controller interface {
	Routes() []Route
}

// Route declares that a controller method handles a verb and path
// pattern.  Patterns are split on "/"; segments that start with ":"
// are placeholders that capture the matching request segment.
//
// Routes are values.  The modifier methods return modified copies so
// that they can be chained:
//
//	nroute.Get("/get-user/:id", "GetUserByID").Path(0, "id").Secured(nctl.TokenOf[*nguard.JWTSecurity]())
//
// The handler method receives the bound parameters by position and
// then, as its last two parameters, the http.ResponseWriter and the
// *http.Request.  It may return nothing or an error.
type Route struct {
	Verb    string
	Pattern string
	// Handler is the name of the controller method
	Handler string
	// Controller is filled in when the route is registered
	Controller  nctl.Token
	ContentType string
	Bindings    []ParameterBinding
	// Security, if set, is the token of an Authenticator
	Security nctl.Token
}

func newRoute(verb string, pattern string, handler string) Route {
	return Route{
		Verb:        verb,
		Pattern:     pattern,
		Handler:     handler,
		ContentType: nreply.ContentTypeJSON,
	}
}

// Get declares a GET route
func Get(pattern string, handler string) Route { return newRoute(GET, pattern, handler) }

// Post declares a POST route
func Post(pattern string, handler string) Route { return newRoute(POST, pattern, handler) }

// Put declares a PUT route
func Put(pattern string, handler string) Route { return newRoute(PUT, pattern, handler) }

// Patch declares a PATCH route
func Patch(pattern string, handler string) Route { return newRoute(PATCH, pattern, handler) }

// Delete declares a DELETE route
func Delete(pattern string, handler string) Route { return newRoute(DELETE, pattern, handler) }

// Handle declares a route for any of the supported verbs.  The verb
// is case-insensitive.
func Handle(verb string, pattern string, handler string) Route {
	return newRoute(strings.ToUpper(verb), pattern, handler)
}

// WithContentType overrides the response Content-Type that is set
// before the handler runs.  The default is application/json.
func (r Route) WithContentType(contentType string) Route {
	if contentType == "" {
		contentType = nreply.ContentTypeJSON
	}
	r.ContentType = contentType
	return r
}

func (r Route) bind(b ParameterBinding) Route {
	bindings := make([]ParameterBinding, len(r.Bindings), len(r.Bindings)+1)
	copy(bindings, r.Bindings)
	r.Bindings = append(bindings, b)
	return r
}

// Path binds handler argument index to the path placeholder ":name"
func (r Route) Path(index int, name string) Route {
	return r.bind(ParameterBinding{Index: index, Kind: BindPath, Name: name})
}

// Query binds handler argument index to the map of query parameters
func (r Route) Query(index int) Route {
	return r.bind(ParameterBinding{Index: index, Kind: BindQuery})
}

// Body binds handler argument index to the JSON-decoded request body
func (r Route) Body(index int) Route {
	return r.bind(ParameterBinding{Index: index, Kind: BindBody})
}

// Valid binds handler argument index to the JSON-decoded request body
// after it has been accepted by the Validator registered under
// validator.  It may be combined with Body on the same index and may
// be repeated to apply more than one validator.
func (r Route) Valid(index int, validator nctl.Token) Route {
	return r.bind(ParameterBinding{Index: index, Kind: BindValidBody, Validator: validator})
}

// Secured requires the Authenticator registered under authenticator
// to accept the request before anything else happens.
func (r Route) Secured(authenticator nctl.Token) Route {
	r.Security = authenticator
	return r
}

// String is for logs and errors
func (r Route) String() string {
	if r.Controller != nil {
		return r.Verb + " " + r.Pattern + " (" + nctl.TokenName(r.Controller) + "." + r.Handler + ")"
	}
	return r.Verb + " " + r.Pattern + " (" + r.Handler + ")"
}
