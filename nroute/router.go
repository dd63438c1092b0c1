package nroute

import (
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/muir/nctl"
	"github.com/muir/nctl/nlog"
	"github.com/muir/nctl/nreply"
	"github.com/pkg/errors"
)

// DefaultMaxBodyBytes limits how much of a request body is buffered
const DefaultMaxBodyBytes int64 = 1 << 20

// Observation describes one dispatched request.  It is passed to the
// observer set with WithObserver.
type Observation struct {
	Verb string
	// Pattern is the matched route's pattern
	Pattern  string
	Status   int
	Duration time.Duration
}

// Router holds the route table for a set of controllers and
// dispatches requests to them.  Controllers are looked up in the
// Registry on every request; the table itself is built by Register.
//
// Router is safe for concurrent use, including calls to Register
// while requests are being served.
type Router struct {
	registry     *nctl.Registry
	lock         sync.RWMutex
	routes       []*compiledRoute
	log          nlog.BasicLogger
	fallback     http.Handler
	maxBodyBytes int64
	observer     func(Observation)
}

// RouterOpt are functional arguments for NewRouter
type RouterOpt func(*Router)

// WithLogger sets the logger for dispatch failures
func WithLogger(log nlog.BasicLogger) RouterOpt {
	return func(rt *Router) {
		rt.log = log
	}
}

// WithFallback sets what ServeHTTP does when no route matches the
// path.  The default is http.NotFound.
func WithFallback(h http.Handler) RouterOpt {
	return func(rt *Router) {
		rt.fallback = h
	}
}

// WithMaxBodyBytes limits the size of request bodies that are bound
// to handler arguments.  Larger bodies get a 413.
func WithMaxBodyBytes(n int64) RouterOpt {
	return func(rt *Router) {
		rt.maxBodyBytes = n
	}
}

// WithObserver registers a callback that is invoked after each
// request that matched a route's path.
func WithObserver(f func(Observation)) RouterOpt {
	return func(rt *Router) {
		rt.observer = f
	}
}

// NewRouter creates a Router that resolves controllers, authenticators,
// and validators from reg.
func NewRouter(reg *nctl.Registry, opts ...RouterOpt) *Router {
	rt := &Router{
		registry:     reg,
		log:          nlog.NoLogger(),
		fallback:     http.NotFoundHandler(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Register resolves the controller from the Registry (constructing it
// if it was declared but not yet built), checks its routes, and
// appends them to the route table.  Routes are matched in the order
// they were registered.  Nothing is added if any route is invalid.
func (rt *Router) Register(controllerToken nctl.Token) error {
	instance, err := rt.registry.ResolveToken(controllerToken)
	if err != nil {
		return err
	}
	controller, ok := instance.(Controller)
	if !ok {
		return errors.Errorf("%s does not implement nroute.Controller", nctl.TokenName(controllerToken))
	}
	declared := controller.Routes()
	compiled := make([]*compiledRoute, 0, len(declared))
	for _, route := range declared {
		cr, err := compile(route, controllerToken, instance, rt.registry)
		if err != nil {
			route.Controller = controllerToken
			return errors.Wrap(err, route.String())
		}
		compiled = append(compiled, cr)
	}

	rt.lock.Lock()
	defer rt.lock.Unlock()
	for _, cr := range compiled {
		for _, existing := range rt.routes {
			if existing.Verb == cr.Verb && existing.shape() == cr.shape() {
				rt.log.Warn("route is shadowed by an earlier route", map[string]interface{}{
					"route":   cr.String(),
					"earlier": existing.String(),
				})
				break
			}
		}
		rt.routes = append(rt.routes, cr)
	}
	return nil
}

// MustRegister is Register but panics on error
func (rt *Router) MustRegister(controllerTokens ...nctl.Token) *Router {
	for _, token := range controllerTokens {
		if err := rt.Register(token); err != nil {
			panic(nctl.DetailedError(err))
		}
	}
	return rt
}

// Routes returns a copy of the route table
func (rt *Router) Routes() []Route {
	rt.lock.RLock()
	defer rt.lock.RUnlock()
	routes := make([]Route, len(rt.routes))
	for i, cr := range rt.routes {
		routes[i] = cr.Route
	}
	return routes
}

func (rt *Router) snapshot() []*compiledRoute {
	rt.lock.RLock()
	defer rt.lock.RUnlock()
	return rt.routes
}

// ServeHTTP dispatches to the matching route or to the fallback
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.Handle(w, r, func() { rt.fallback.ServeHTTP(w, r) })
}

// Middleware wraps next: requests that do not match any route's path
// are passed through.
func (rt *Router) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rt.Handle(w, r, func() { next.ServeHTTP(w, r) })
	})
}

// Handle dispatches the request.  If no route's pattern matches the
// path, next is called and nothing is written.  If some pattern
// matches but not for this verb, the response is a 405.
func (rt *Router) Handle(w http.ResponseWriter, r *http.Request, next func()) {
	m := match(rt.snapshot(), r.Method, splitPath(r.URL))
	switch {
	case m.route != nil:
		rt.serve(w, r, m.route, m.params)
	case m.first != nil:
		start := time.Now()
		rt.methodNotAllowed(w, r, m.allowed)
		rt.observe(r, m.first, http.StatusMethodNotAllowed, start)
	default:
		next()
	}
}

func (rt *Router) methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed []string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	nreply.WriteError(w, rt.log, r, nreply.MethodNotAllowed())
}

func (rt *Router) observe(r *http.Request, cr *compiledRoute, status int, start time.Time) {
	if rt.observer == nil {
		return
	}
	rt.observer(Observation{
		Verb:     strings.ToUpper(r.Method),
		Pattern:  cr.Pattern,
		Status:   status,
		Duration: time.Since(start),
	})
}

// serve runs the whole per-request pipeline.  Any failure, from
// security through the handler itself (including a panic), is turned
// into an error response in one place.
func (rt *Router) serve(w http.ResponseWriter, r *http.Request, cr *compiledRoute, params map[string]string) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w}
	err := nreply.CatchPanic(rt.log, func() error {
		return rt.dispatch(sw, r, cr, params)
	})
	if err != nil {
		if sw.wrote {
			rt.log.Error("handler failed after writing its response", map[string]interface{}{
				"error": err.Error(),
				"route": cr.String(),
			})
		} else {
			nreply.WriteError(sw, rt.log, r, err)
		}
	}
	rt.observe(r, cr, sw.statusCode(), start)
}

func (rt *Router) dispatch(w http.ResponseWriter, r *http.Request, cr *compiledRoute, params map[string]string) error {
	controller, err := rt.registry.Resolve(cr.Controller)
	if err != nil {
		return err
	}

	if cr.Security != nil {
		authenticator, err := resolveAs[Authenticator](rt.registry, cr.Security)
		if err != nil {
			return err
		}
		if err := authenticator.Authenticate(r); err != nil {
			return err
		}
	}

	w.Header().Set("Content-Type", cr.ContentType)

	args := make([]reflect.Value, cr.numArgs+2)
	for _, p := range cr.paths {
		v := reflect.New(p.typ).Elem()
		if err := p.setter(v, params[p.name]); err != nil {
			return nreply.BadRequest("Invalid path parameter " + p.name)
		}
		args[p.index] = v
	}
	if len(cr.queries) > 0 {
		q := reflect.ValueOf(queryMap(r))
		for _, qa := range cr.queries {
			args[qa.index] = q.Convert(qa.typ)
		}
	}
	if cr.body != nil {
		v, err := rt.readBody(w, r, cr.body)
		if err != nil {
			return err
		}
		args[cr.body.index] = v
	}
	args[cr.numArgs] = reflect.ValueOf(w)
	args[cr.numArgs+1] = reflect.ValueOf(r)

	if err := r.Context().Err(); err != nil {
		return errors.Wrap(err, "request abandoned before handler")
	}

	method := reflect.ValueOf(controller).MethodByName(cr.Handler)
	if !method.IsValid() {
		return errors.Errorf("%s has no method %s", nctl.TokenName(cr.Controller), cr.Handler)
	}
	out := method.Call(args)
	if cr.returnsError && !out[0].IsNil() {
		return out[0].Interface().(error)
	}
	return nil
}

// readBody buffers the whole body, decodes it as JSON into a new value
// of the argument's type, and runs the validators.
func (rt *Router) readBody(w http.ResponseWriter, r *http.Request, ba *bodyArg) (reflect.Value, error) {
	var body io.Reader = r.Body
	if rt.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, rt.maxBodyBytes)
	}
	buf, err := io.ReadAll(body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return reflect.Value{}, nreply.PayloadTooLarge()
		}
		return reflect.Value{}, errors.Wrap(err, "read request body")
	}
	ptr := reflect.New(ba.typ)
	if err := json.Unmarshal(buf, ptr.Interface()); err != nil {
		return reflect.Value{}, errors.Wrap(err, "decode request body")
	}
	v := ptr.Elem()
	for _, token := range ba.validators {
		validator, err := resolveAs[Validator](rt.registry, token)
		if err != nil {
			return reflect.Value{}, err
		}
		if err := validator.Validate(v.Interface()); err != nil {
			return reflect.Value{}, err
		}
	}
	return v, nil
}

func resolveAs[T any](reg *nctl.Registry, token nctl.Token) (T, error) {
	var zero T
	instance, err := reg.ResolveToken(token)
	if err != nil {
		return zero, err
	}
	t, ok := instance.(T)
	if !ok {
		return zero, errors.Errorf("%s is a %T", nctl.TokenName(token), instance)
	}
	return t, nil
}

// statusWriter remembers if anything has been written so that a late
// error does not produce a second response.
type statusWriter struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wrote {
		w.status = status
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.status = http.StatusOK
		w.wrote = true
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Unwrap lets http.ResponseController reach the underlying writer
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
