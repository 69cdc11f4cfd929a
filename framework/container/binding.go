package container

import (
	"fmt"
	"reflect"
)

// ── Constructor descriptors ───────────────────────────────────────────────────
//
// Go has no runtime access to constructor parameter names, so constructible
// types register an explicit descriptor instead: the ordered parameter list
// (name, dependency identifier, optional default) plus a build function. The
// resolver only ever walks descriptors — it never guesses from type metadata.

// Param describes a single constructor parameter.
type Param struct {
	// Name is the parameter name — the key caller overrides are matched
	// against in Make and Call.
	Name string

	// Abstract is the identifier auto-wired when no override is supplied.
	// Empty for plain value parameters.
	Abstract string

	// Default is used when the parameter is neither overridden nor
	// auto-wirable. Only consulted when HasDefault is true.
	Default    any
	HasDefault bool

	// rtype is set by Constructor() so the parameter can be auto-wired
	// through the container's type index.
	rtype reflect.Type
}

// Dep declares a parameter auto-wired from another identifier.
func Dep(name, abstract string) Param {
	return Param{Name: name, Abstract: abstract}
}

// Value declares a plain parameter with a default, overridable by name.
func Value(name string, def any) Param {
	return Param{Name: name, Default: def, HasDefault: true}
}

// Required declares a plain parameter with no type and no default: it must
// be supplied through overrides or resolution fails.
func Required(name string) Param {
	return Param{Name: name}
}

// WithDefault returns a copy of p carrying a fallback value, used when the
// declared dependency is not resolvable and no override is present.
func (p Param) WithDefault(def any) Param {
	p.Default = def
	p.HasDefault = true
	return p
}

// Descriptor is the construction recipe for a concrete type.
type Descriptor struct {
	// Params lists the constructor parameters in declaration order.
	Params []Param

	// New builds the instance from the resolved argument list, which has
	// exactly len(Params) entries in the same order.
	New func(args []any) (any, error)

	// produces is the constructed Go type when known (set by Constructor),
	// used to feed the container's type index.
	produces reflect.Type
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Constructor derives a Descriptor from an ordinary Go constructor via
// reflection. Supported signatures, as in the rest of the ecosystem:
//
//	func(deps...) T
//	func(deps...) (T, error)
//
// Parameter types are mapped to identifiers through the container's type
// index at resolve time; names, if given, are matched positionally and make
// the corresponding parameters overridable:
//
//	c.Describe("svc.Analyzer", container.Constructor(NewAnalyzer, "quotes", "logger"))
//
// Invalid constructors are programmer errors and panic at registration time.
func Constructor(fn any, names ...string) Descriptor {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		panic(fmt.Sprintf("container: Constructor requires a function, got %T", fn))
	}
	if t.IsVariadic() {
		panic(fmt.Sprintf("container: Constructor does not support variadic functions (%s)", t))
	}
	numOut := t.NumOut()
	if numOut == 0 || numOut > 2 {
		panic(fmt.Sprintf("container: constructor must return T or (T, error), got %d values (%s)", numOut, t))
	}
	returnsErr := false
	if numOut == 2 {
		if !t.Out(1).Implements(errorType) {
			panic(fmt.Sprintf("container: constructor's second return value must be error (%s)", t))
		}
		returnsErr = true
	}
	if len(names) > t.NumIn() {
		panic(fmt.Sprintf("container: Constructor got %d names for %d parameters (%s)", len(names), t.NumIn(), t))
	}

	params := make([]Param, t.NumIn())
	for i := range params {
		params[i].rtype = t.In(i)
		if i < len(names) {
			params[i].Name = names[i]
		}
	}

	return Descriptor{
		Params:   params,
		produces: t.Out(0),
		New: func(args []any) (any, error) {
			in := make([]reflect.Value, len(args))
			for i, arg := range args {
				rv, ok := coerce(arg, t.In(i))
				if !ok {
					return nil, fmt.Errorf("argument %d: %T is not assignable to %s", i, arg, t.In(i))
				}
				in[i] = rv
			}
			out := v.Call(in)
			if returnsErr && !out[1].IsNil() {
				return nil, out[1].Interface().(error)
			}
			return out[0].Interface(), nil
		},
	}
}

// coerce converts an any value to a reflect.Value of type t, allowing
// assignable and convertible values plus typed zero values for nil.
func coerce(v any, t reflect.Type) (reflect.Value, bool) {
	if v == nil {
		switch t.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map,
			reflect.Ptr, reflect.Slice, reflect.UnsafePointer:
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, true
	}
	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), true
	}
	return reflect.Value{}, false
}
