/*

Package nroute dispatches HTTP requests to controller methods.

A controller is any value, resolved from an nctl.Registry, that
implements Controller.  Its Routes method returns a static table that
says which method handles which verb and path and where each of the
method's arguments comes from:

	func (c *UserController) Routes() []nroute.Route {
		return []nroute.Route{
			nroute.Post("/register", "Register").
				Valid(0, nctl.TokenOf[*nguard.RegisterValidator]()),
			nroute.Get("/users/:id", "GetUser").
				Path(0, "id").
				Secured(nctl.TokenOf[*nguard.JWTSecurity]()),
		}
	}

	func (c *UserController) GetUser(id string, w http.ResponseWriter, r *http.Request) error

Handler methods receive their bound arguments by position followed by
the http.ResponseWriter and the *http.Request.  They may return an
error.

Matching

Patterns and request paths are split on "/" with empty segments
dropped.  A route matches when the segment counts are equal and every
literal segment is equal; ":name" segments capture.  The table is
scanned in registration order and the first route that matches both
the path and the verb is used.  If only the path matches some route
the response is 405 with an Allow header.  If nothing matches the
path the request is passed on untouched.

Errors

Every failure while handling a matched request, including failed
authentication, a rejected body, an error returned by the handler, or
a panic, is written with nreply.WriteError: application errors keep
their status and message and everything else is a 500 "Internal Server
Error".

*/
package nroute
