package nroute

import (
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/muir/nctl"
	"github.com/muir/nctl/nreply"
	"github.com/muir/reflectutils"
	"github.com/pkg/errors"
)

// BindingKind says where a handler argument comes from
type BindingKind int

const (
	// BindPath fills the argument from a ":name" path segment.  The
	// argument may be any type that can be parsed from a string.
	BindPath BindingKind = iota
	// BindQuery fills the argument with the query parameters as a
	// map[string]string.  Repeated keys keep their last value.
	BindQuery
	// BindBody fills the argument by decoding the JSON request body
	BindBody
	// BindValidBody is BindBody plus a Validator
	BindValidBody
)

func (k BindingKind) String() string {
	switch k {
	case BindPath:
		return "path"
	case BindQuery:
		return "query"
	case BindBody:
		return "body"
	case BindValidBody:
		return "valid-body"
	default:
		return fmt.Sprintf("BindingKind(%d)", int(k))
	}
}

// ParameterBinding describes how one handler argument is populated
type ParameterBinding struct {
	Index int
	Kind  BindingKind
	// Name is the path placeholder for BindPath
	Name string
	// Validator is the token of a Validator for BindValidBody
	Validator nctl.Token
}

// Authenticator guards routes declared with Secured.  A non-nil
// return aborts the request; it should normally be an
// *nreply.ApplicationError such as nreply.InvalidCredentials().
type Authenticator interface {
	Authenticate(r *http.Request) error
}

// Validator checks a decoded request body before the handler sees it.
// The data is the decoded value, of the handler's parameter type.
type Validator interface {
	Validate(data interface{}) error
}

var (
	// ErrMultipleBodies is returned when a route binds the request body
	// to more than one argument
	ErrMultipleBodies = errors.New("more than one argument is bound to the request body")

	authenticatorType  = reflect.TypeOf((*Authenticator)(nil)).Elem()
	validatorType      = reflect.TypeOf((*Validator)(nil)).Elem()
	responseWriterType = reflect.TypeOf((*http.ResponseWriter)(nil)).Elem()
	requestType        = reflect.TypeOf(&http.Request{})
	errorType          = reflect.TypeOf((*error)(nil)).Elem()
	stringMapType      = reflect.TypeOf(map[string]string(nil))
)

type pathArg struct {
	index  int
	name   string
	typ    reflect.Type
	setter func(target reflect.Value, value string) error
}

type queryArg struct {
	index int
	typ   reflect.Type
}

type bodyArg struct {
	index      int
	typ        reflect.Type
	validators []nctl.Token
}

// compiledRoute is a Route that has been checked against its
// controller and is ready to dispatch.
type compiledRoute struct {
	Route
	segments     []string
	paths        []pathArg
	queries      []queryArg
	body         *bodyArg
	numArgs      int
	returnsError bool
}

// compile checks a route against the controller instance that will
// handle it.  Everything that can be checked without a request is
// checked here.
func compile(route Route, token nctl.Token, controller interface{}, reg *nctl.Registry) (*compiledRoute, error) {
	route.Controller = token
	if _, ok := verbs[route.Verb]; !ok {
		return nil, errors.Errorf("unsupported verb %q", route.Verb)
	}
	if !strings.HasPrefix(route.Pattern, "/") {
		return nil, errors.Errorf("pattern %q must start with /", route.Pattern)
	}
	if route.ContentType == "" {
		route.ContentType = nreply.ContentTypeJSON
	}
	cr := &compiledRoute{
		Route:    route,
		segments: splitPattern(route.Pattern),
	}
	placeholders := make(map[string]struct{})
	for _, seg := range cr.segments {
		if strings.HasPrefix(seg, ":") {
			if _, dup := placeholders[seg[1:]]; dup {
				return nil, errors.Errorf("placeholder %s appears more than once", seg)
			}
			placeholders[seg[1:]] = struct{}{}
		}
	}

	method := reflect.ValueOf(controller).MethodByName(route.Handler)
	if !method.IsValid() {
		return nil, errors.Errorf("%s has no exported method %s", nctl.TokenName(token), route.Handler)
	}
	mt := method.Type()
	if mt.IsVariadic() {
		return nil, errors.Errorf("handler %s may not be variadic", route.Handler)
	}

	byIndex := make(map[int][]ParameterBinding)
	for _, b := range route.Bindings {
		if b.Index < 0 {
			return nil, errors.Errorf("binding %s has negative index", b.Kind)
		}
		byIndex[b.Index] = append(byIndex[b.Index], b)
	}
	cr.numArgs = len(byIndex)
	indexes := make([]int, 0, len(byIndex))
	for i := range byIndex {
		if i >= cr.numArgs {
			return nil, errors.Errorf("binding index %d leaves handler arguments unbound", i)
		}
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	if mt.NumIn() != cr.numArgs+2 {
		return nil, errors.Errorf("handler %s takes %d arguments but %d are bound plus the writer and request",
			route.Handler, mt.NumIn(), cr.numArgs)
	}
	if !responseWriterType.AssignableTo(mt.In(cr.numArgs)) || mt.In(cr.numArgs+1) != requestType {
		return nil, errors.Errorf("the last two arguments of handler %s must be http.ResponseWriter and *http.Request",
			route.Handler)
	}
	switch {
	case mt.NumOut() == 0:
	case mt.NumOut() == 1 && mt.Out(0) == errorType:
		cr.returnsError = true
	default:
		return nil, errors.Errorf("handler %s may only return error", route.Handler)
	}

	for _, i := range indexes {
		if err := cr.compileIndex(i, byIndex[i], mt.In(i), placeholders, reg); err != nil {
			return nil, err
		}
	}
	if route.Security != nil {
		if err := checkResolvable(reg, route.Security, authenticatorType); err != nil {
			return nil, errors.Wrap(err, "security")
		}
	}
	return cr, nil
}

func (cr *compiledRoute) compileIndex(i int, bindings []ParameterBinding, typ reflect.Type, placeholders map[string]struct{}, reg *nctl.Registry) error {
	kind := bindings[0].Kind
	isBody := func(k BindingKind) bool { return k == BindBody || k == BindValidBody }
	for _, b := range bindings[1:] {
		if !(isBody(kind) && isBody(b.Kind)) {
			return errors.Errorf("argument %d is bound more than once (%s and %s)", i, kind, b.Kind)
		}
	}
	switch {
	case kind == BindPath:
		name := bindings[0].Name
		if _, ok := placeholders[name]; !ok {
			return errors.Errorf("argument %d is bound to :%s which is not in the pattern", i, name)
		}
		setter, err := reflectutils.MakeStringSetter(typ)
		if err != nil {
			return errors.Wrapf(err, "argument %d (:%s)", i, name)
		}
		cr.paths = append(cr.paths, pathArg{index: i, name: name, typ: typ, setter: setter})
	case kind == BindQuery:
		if typ.Kind() != reflect.Map || !stringMapType.ConvertibleTo(typ) {
			return errors.Errorf("argument %d is bound to the query but is %s, not map[string]string", i, typ)
		}
		cr.queries = append(cr.queries, queryArg{index: i, typ: typ})
	case isBody(kind):
		if cr.body != nil {
			return errors.Wrapf(ErrMultipleBodies, "arguments %d and %d", cr.body.index, i)
		}
		body := &bodyArg{index: i, typ: typ}
		for _, b := range bindings {
			if b.Kind != BindValidBody {
				continue
			}
			if b.Validator == nil {
				return errors.Errorf("argument %d has a validator binding with no validator", i)
			}
			if err := checkResolvable(reg, b.Validator, validatorType); err != nil {
				return errors.Wrapf(err, "argument %d validator", i)
			}
			body.validators = append(body.validators, b.Validator)
		}
		cr.body = body
	default:
		return errors.Errorf("argument %d has unknown binding %s", i, kind)
	}
	return nil
}

func checkResolvable(reg *nctl.Registry, token nctl.Token, iface reflect.Type) error {
	instance, err := reg.ResolveToken(token)
	if err != nil {
		return err
	}
	if instance == nil || !reflect.TypeOf(instance).Implements(iface) {
		return errors.Errorf("%s does not implement %s", nctl.TokenName(token), iface)
	}
	return nil
}

// shape is the pattern with placeholder names removed.  Two routes
// with the same shape match exactly the same paths.
func (cr *compiledRoute) shape() string {
	parts := make([]string, len(cr.segments))
	for i, seg := range cr.segments {
		if strings.HasPrefix(seg, ":") {
			seg = ":"
		}
		parts[i] = seg
	}
	return strings.Join(parts, "/")
}

// matchPath compares request segments to the pattern.  Placeholders
// match any segment and capture it.
func (cr *compiledRoute) matchPath(segments []string) (map[string]string, bool) {
	if len(segments) != len(cr.segments) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range cr.segments {
		if strings.HasPrefix(seg, ":") {
			if params == nil {
				params = make(map[string]string)
			}
			params[seg[1:]] = segments[i]
			continue
		}
		if seg != segments[i] {
			return nil, false
		}
	}
	return params, true
}
