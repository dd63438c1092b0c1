package nctl

import (
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// constructor holds what ResolveAndRegister needs to know about a
// constructor function.  Supported signatures:
//
//	func(Dep1, Dep2, ...) T
//	func(Dep1, Dep2, ...) (T, error)
type constructor struct {
	fn           reflect.Value
	token        Token
	params       []Token
	returnsError bool
	role         Role
}

func parseConstructor(fn interface{}) (*constructor, error) {
	if fn == nil {
		return nil, &InvalidComponentError{Constructor: fn, Reason: "constructor is nil"}
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, &InvalidComponentError{Constructor: fn, Reason: "constructor must be a function"}
	}
	if v.IsNil() {
		return nil, &InvalidComponentError{Constructor: fn, Reason: "constructor is a nil function"}
	}
	if t.IsVariadic() {
		return nil, &InvalidComponentError{Constructor: fn, Reason: "constructor may not be variadic"}
	}
	c := &constructor{fn: v}
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errorType {
			return nil, &InvalidComponentError{Constructor: fn, Reason: "second return value must be error"}
		}
		c.returnsError = true
	default:
		return nil, &InvalidComponentError{Constructor: fn, Reason: "constructor must return T or (T, error)"}
	}
	c.token = t.Out(0)
	if c.token == errorType {
		return nil, &InvalidComponentError{Constructor: fn, Reason: "constructor may not provide error"}
	}
	c.params = make([]Token, t.NumIn())
	for i := range c.params {
		c.params[i] = t.In(i)
	}
	return c, nil
}

// call invokes the constructor.  args must line up with c.params.
func (c *constructor) call(args []reflect.Value) (interface{}, error) {
	out := c.fn.Call(args)
	if c.returnsError && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}
