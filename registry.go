package nctl

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/muir/nctl/nlog"
)

// Registry holds one instance per Token.  Instances are either
// registered directly or constructed by ResolveAndRegister from
// declared constructors.
//
// A Registry is safe for concurrent use.  Applications normally
// populate it once at startup and only read from it afterwards.
type Registry struct {
	lock         sync.Mutex // guards the maps and order
	instances    map[Token]interface{}
	order        []Token
	constructors map[Token]*constructor
	buildLock    sync.Mutex // held while ResolveAndRegister runs
	log          nlog.BasicLogger
}

// RegistryOpt are functional arguments for NewRegistry
type RegistryOpt func(*Registry)

// WithLogger sets the logger used to report construction.  The
// default discards everything.
func WithLogger(log nlog.BasicLogger) RegistryOpt {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry creates an empty Registry
func NewRegistry(opts ...RegistryOpt) *Registry {
	r := &Registry{
		instances:    make(map[Token]interface{}),
		constructors: make(map[Token]*constructor),
		log:          nlog.NoLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register stores instance under token unless token already has an
// instance.  The first registration wins; later ones are ignored.
func (r *Registry) Register(token Token, instance interface{}) {
	if token == nil {
		panic("nctl: Register with nil token")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.instances[token]; ok {
		return
	}
	r.instances[token] = instance
	r.order = append(r.order, token)
}

// Resolve returns the instance registered for token.  It never
// constructs anything: if nothing is registered the error is a
// *DependencyNotFoundError.
func (r *Registry) Resolve(token Token) (interface{}, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	instance, ok := r.instances[token]
	if !ok {
		return nil, &DependencyNotFoundError{Token: token}
	}
	return instance, nil
}

// Has reports if token has a registered instance
func (r *Registry) Has(token Token) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	_, ok := r.instances[token]
	return ok
}

// Tokens returns the registered tokens in registration order
func (r *Registry) Tokens() []Token {
	r.lock.Lock()
	defer r.lock.Unlock()
	t := make([]Token, len(r.order))
	copy(t, r.order)
	return t
}

// Declare records constructors so that ResolveAndRegister can build
// the tokens they provide on demand.  Nothing is constructed.  If two
// constructors provide the same token, the first one declared wins.
func (r *Registry) Declare(components ...Component) error {
	parsed := make([]*constructor, 0, len(components))
	for _, comp := range components {
		c, err := parseConstructor(comp.Constructor)
		if err != nil {
			return err
		}
		c.role = comp.Role
		parsed = append(parsed, c)
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, c := range parsed {
		if _, ok := r.constructors[c.token]; ok {
			continue
		}
		r.constructors[c.token] = c
	}
	return nil
}

func (r *Registry) declared(token Token) *constructor {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.constructors[token]
}

// ResolveAndRegister constructs and registers the component provided
// by the constructor function.  If its token is already registered
// this does nothing.  Otherwise each parameter of the constructor is
// resolved: registered instances are used as-is and declared
// constructors are invoked recursively.  The constructor is then
// called with the dependencies in parameter order and its result
// registered.
//
// Constructors must not call back into ResolveAndRegister.
func (r *Registry) ResolveAndRegister(constructorFunc interface{}) error {
	c, err := parseConstructor(constructorFunc)
	if err != nil {
		return err
	}
	if d := r.declared(c.token); d != nil {
		c.role = d.role
	}
	r.buildLock.Lock()
	defer r.buildLock.Unlock()
	return r.build(c, nil)
}

// ResolveToken is ResolveAndRegister for a token that has been
// declared or registered.
func (r *Registry) ResolveToken(token Token) (interface{}, error) {
	if !r.Has(token) {
		c := r.declared(token)
		if c == nil {
			return nil, &DependencyNotFoundError{Token: token}
		}
		err := func() error {
			r.buildLock.Lock()
			defer r.buildLock.Unlock()
			return r.build(c, nil)
		}()
		if err != nil {
			return nil, err
		}
	}
	return r.Resolve(token)
}

func (r *Registry) build(c *constructor, path []Token) error {
	if r.Has(c.token) {
		return nil
	}
	for _, p := range path {
		if p == c.token {
			cycle := make([]Token, len(path)+1)
			copy(cycle, path)
			cycle[len(path)] = c.token
			return &CyclicDependencyError{Path: cycle}
		}
	}
	path = append(path[:len(path):len(path)], c.token)

	args := make([]reflect.Value, len(c.params))
	for i, param := range c.params {
		if !r.Has(param) {
			dep := r.declared(param)
			if dep == nil {
				return &DependencyNotFoundError{Token: param, Path: path}
			}
			if err := r.build(dep, path); err != nil {
				return err
			}
		}
		instance, err := r.Resolve(param)
		if err != nil {
			return err
		}
		v, err := valueFor(instance, param)
		if err != nil {
			return err
		}
		args[i] = v
	}

	instance, err := c.call(args)
	if err != nil {
		return &ConstructionError{Token: c.token, Path: path, Err: err}
	}
	r.Register(c.token, instance)
	fields := map[string]interface{}{
		"token": TokenName(c.token),
	}
	if c.role != "" {
		fields["role"] = string(c.role)
	}
	r.log.Debug("loaded", fields)
	return nil
}

func valueFor(instance interface{}, token Token) (reflect.Value, error) {
	if instance == nil {
		return reflect.Zero(token), nil
	}
	v := reflect.ValueOf(instance)
	if !v.Type().AssignableTo(token) {
		return reflect.Value{}, fmt.Errorf("instance registered for %s has type %s",
			TokenName(token), TokenName(v.Type()))
	}
	return v, nil
}

// Load is the replacement for scanning source trees for injectable
// components: every component in the manifest is declared and then
// constructed (along with its dependencies) in manifest order.
func (r *Registry) Load(manifest Manifest) error {
	if err := r.Declare(manifest...); err != nil {
		return err
	}
	for _, comp := range manifest {
		if err := r.ResolveAndRegister(comp.Constructor); err != nil {
			return err
		}
	}
	return nil
}

// Provide registers v under the token for T.
func Provide[T any](r *Registry, v T) {
	r.Register(TokenOf[T](), v)
}

// Get resolves the instance registered for T.
func Get[T any](r *Registry) (T, error) {
	var zero T
	instance, err := r.Resolve(TokenOf[T]())
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}
	t, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("instance registered for %s has type %T", TokenName(TokenOf[T]()), instance)
	}
	return t, nil
}

// MustGet is Get but panics on error.  It is meant for use during
// startup.
func MustGet[T any](r *Registry) T {
	t, err := Get[T](r)
	if err != nil {
		panic(DetailedError(err))
	}
	return t
}
