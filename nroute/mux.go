package nroute

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// BindMux adds every route in the table to router.  Gorilla does the
// matching and the captures come from mux.Vars; everything after
// matching is the same pipeline that ServeHTTP uses.
//
// Routes registered after BindMux is called are not added.  If router
// has no MethodNotAllowedHandler, one is set that sends the same JSON
// 405 as ServeHTTP.  If it has no NotFoundHandler, the Router's
// fallback is used.
func (rt *Router) BindMux(router *mux.Router) {
	for _, cr := range rt.snapshot() {
		cr := cr
		router.HandleFunc(muxPattern(cr.segments), func(w http.ResponseWriter, r *http.Request) {
			rt.serve(w, r, cr, mux.Vars(r))
		}).Methods(cr.Verb).Name(cr.String())
	}
	if router.MethodNotAllowedHandler == nil {
		router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := match(rt.snapshot(), r.Method, splitPath(r.URL))
			rt.methodNotAllowed(w, r, m.allowed)
		})
	}
	if router.NotFoundHandler == nil {
		router.NotFoundHandler = rt.fallback
	}
}

// muxPattern converts ":name" placeholders into gorilla's "{name}"
func muxPattern(segments []string) string {
	if len(segments) == 0 {
		return "/"
	}
	converted := make([]string, len(segments))
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") {
			seg = "{" + seg[1:] + "}"
		}
		converted[i] = seg
	}
	return "/" + strings.Join(converted, "/")
}
