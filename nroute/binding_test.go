package nroute_test

import (
	"io"
	"net/http"
	"testing"

	"github.com/muir/nctl"
	"github.com/muir/nctl/nroute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tableController struct {
	routes []nroute.Route
}

func (c *tableController) Routes() []nroute.Route { return c.routes }

func (c *tableController) NoArgs(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (c *tableController) OneString(s string, w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, "other="+s)
}

func (c *tableController) TwoBodies(a testUser, b testUser, w http.ResponseWriter, r *http.Request) {}

func (c *tableController) WrongTail(r *http.Request, w http.ResponseWriter) {}

func (c *tableController) ReturnsString(w http.ResponseWriter, r *http.Request) string { return "" }

func (c *tableController) IntQuery(q map[string]int, w http.ResponseWriter, r *http.Request) {}

type queryKey string

func (c *tableController) KeyedQuery(q map[queryKey]string, w http.ResponseWriter, r *http.Request) {}

type queryMap map[string]string

func (c *tableController) NamedQuery(q queryMap, w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, "a="+q["a"])
}

func (c *tableController) Variadic(w http.ResponseWriter, r *http.Request, more ...string) {}

func (c *tableController) unexported(w http.ResponseWriter, r *http.Request) {}

func TestRegistrationChecks(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		route nroute.Route
		want  string
	}{
		{"multiple bodies", nroute.Post("/x", "TwoBodies").Body(0).Body(1), "more than one argument is bound to the request body"},
		{"body and validator on different indexes", nroute.Post("/x", "TwoBodies").Body(0).Valid(1, nctl.TokenOf[*rejectAll]()), "more than one argument"},
		{"missing method", nroute.Get("/x", "Nope"), "no exported method Nope"},
		{"unexported method", nroute.Get("/x", "unexported"), "no exported method"},
		{"bad verb", nroute.Handle("TRACE", "/x", "NoArgs"), `unsupported verb "TRACE"`},
		{"relative pattern", nroute.Get("x", "NoArgs"), "must start with /"},
		{"duplicate placeholder", nroute.Get("/x/:id/:id", "OneString").Path(0, "id"), "appears more than once"},
		{"unknown placeholder", nroute.Get("/x/:id", "OneString").Path(0, "name"), ":name which is not in the pattern"},
		{"unbound argument", nroute.Get("/x/:id", "OneString"), "takes 3 arguments"},
		{"gap in indexes", nroute.Post("/x/:id", "TwoBodies").Path(0, "id").Body(2), "leaves handler arguments unbound"},
		{"index past the end", nroute.Post("/x/:id", "TwoBodies").Path(0, "id").Body(5), "index 5 leaves"},
		{"wrong tail", nroute.Get("/x", "WrongTail"), "must be http.ResponseWriter and *http.Request"},
		{"bad return", nroute.Get("/x", "ReturnsString"), "may only return error"},
		{"bad query type", nroute.Get("/x", "IntQuery").Query(0), "not map[string]string"},
		{"named query key", nroute.Get("/x", "KeyedQuery").Query(0), "not map[string]string"},
		{"variadic", nroute.Get("/x", "Variadic"), "may not be variadic"},
		{"double binding", nroute.Get("/x/:id", "OneString").Path(0, "id").Query(0), "bound more than once"},
		{"negative index", nroute.Get("/x/:id", "OneString").Path(-1, "id"), "negative index"},
		{"unregistered validator", nroute.Post("/x", "OneString").Valid(0, nctl.TokenOf[*rejectAll]()), "dependency not found"},
		{"not a validator", nroute.Post("/x", "OneString").Valid(0, nctl.TokenOf[*tableController]()), "does not implement"},
		{"unregistered security", nroute.Get("/x", "NoArgs").Secured(nctl.TokenOf[*echoController]()), "dependency not found"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			reg := nctl.NewRegistry()
			nctl.Provide(reg, &tableController{routes: []nroute.Route{tc.route}})
			rt := nroute.NewRouter(reg)
			err := rt.Register(nctl.TokenOf[*tableController]())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
			assert.Empty(t, rt.Routes(), "nothing is added when registration fails")
		})
	}
}

func TestNamedQueryMap(t *testing.T) {
	t.Parallel()
	reg := nctl.NewRegistry()
	nctl.Provide(reg, &tableController{routes: []nroute.Route{
		nroute.Get("/q", "NamedQuery").Query(0),
	}})
	rt := nroute.NewRouter(reg)
	require.NoError(t, rt.Register(nctl.TokenOf[*tableController]()))
	w := do(rt, "GET", "/q?a=b", "")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "a=b", w.Body.String())
}

func TestMultipleBodiesSentinel(t *testing.T) {
	t.Parallel()
	reg := nctl.NewRegistry()
	nctl.Provide(reg, &tableController{routes: []nroute.Route{
		nroute.Post("/ok", "NoArgs"),
		nroute.Post("/x", "TwoBodies").Body(0).Body(1),
	}})
	rt := nroute.NewRouter(reg)
	err := rt.Register(nctl.TokenOf[*tableController]())
	assert.ErrorIs(t, err, nroute.ErrMultipleBodies)
	assert.Contains(t, err.Error(), "POST /x")
	assert.Empty(t, rt.Routes())
}

func TestBodyAndValidOnSameIndex(t *testing.T) {
	t.Parallel()
	reg, _ := newRegistry(t)
	ctrl := &bodyController{}
	nctl.Provide(reg, ctrl)
	rt := nroute.NewRouter(reg)
	require.NoError(t, rt.Register(nctl.TokenOf[*bodyController]()))
	require.Len(t, rt.Routes(), 1)
	assert.Len(t, rt.Routes()[0].Bindings, 2)

	w := do(rt, "POST", "/accounts", `{"email":"bad"}`)
	assert.Equal(t, 400, w.Code)
	assert.JSONEq(t, `{"message":"Invalid email format"}`, w.Body.String())
	assert.False(t, ctrl.invoked)
}

type bodyController struct {
	invoked bool
}

func (c *bodyController) Routes() []nroute.Route {
	return []nroute.Route{
		nroute.Post("/accounts", "Create").Body(0).Valid(0, nctl.TokenOf[*rejectAll]()),
	}
}

func (c *bodyController) Create(u testUser, w http.ResponseWriter, r *http.Request) {
	c.invoked = true
}

func TestRouteModifiersCopy(t *testing.T) {
	t.Parallel()
	base := nroute.Get("/x/:id", "OneString").Path(0, "id")
	a := base.Query(1)
	b := base.Body(1)
	assert.Len(t, base.Bindings, 1)
	assert.Equal(t, nroute.BindQuery, a.Bindings[1].Kind)
	assert.Equal(t, nroute.BindBody, b.Bindings[1].Kind)
	assert.Equal(t, "application/json", base.ContentType)
	assert.Equal(t, "text/html", base.WithContentType("text/html").ContentType)
	assert.Equal(t, "application/json", base.ContentType)
	assert.Equal(t, "GET /x/:id (OneString)", base.String())
	assert.Equal(t, "PATCH", nroute.Handle("patch", "/x", "NoArgs").Verb)
	assert.Equal(t, "valid-body", nroute.BindValidBody.String())
}
