package container

import (
	"fmt"
	"reflect"
)

// ── Method injection ──────────────────────────────────────────────────────────

// Method names a method on a receiver for Call — Laravel's [$object, 'method'].
// Params optionally declares the parameter names, positionally, so overrides
// can be matched by name; Go reflection does not expose them.
type Method struct {
	Receiver any
	Name     string
	Params   []string
}

// Func pairs a function value with declared parameter names for Call.
type Func struct {
	Fn     any
	Params []string
}

var containerType = reflect.TypeOf((*Container)(nil))

// Call invokes a function or method, resolving each parameter the same way
// constructor injection does. For every parameter, in order:
//
//  1. a caller override matched by declared name wins;
//  2. otherwise the parameter's type is auto-wired through the container
//     (type index, *Container self-injection, or the package-qualified key);
//  3. otherwise, when exactly one override value is assignable to the
//     parameter's type, that value is used — more than one candidate is
//     ambiguous and fails rather than guessing.
//
// The target may be a plain func, a Func carrying parameter names, or a
// Method on a receiver:
//
//	// Laravel: $app->call([$report, 'render'], ['extra' => 'value'])
//	out, err := c.Call(container.Method{Receiver: report, Name: "Render"}, map[string]any{"extra": "value"})
//
// Call returns the target's first non-error return value (nil if none) and
// its trailing error, if it declares one. Resolution failures are reported
// as the usual typed errors before the target is ever invoked.
func (c *Container) Call(target any, overrides map[string]any) (any, error) {
	fn, names, label, err := callable(target)
	if err != nil {
		return nil, err
	}

	t := fn.Type()
	args := make([]reflect.Value, t.NumIn())
	used := make(map[string]bool, len(overrides))

	for i := 0; i < t.NumIn(); i++ {
		pt := t.In(i)
		name := ""
		if i < len(names) {
			name = names[i]
		}

		// Overrides beat auto-wiring.
		if name != "" {
			if v, ok := overrides[name]; ok {
				rv, ok := coerce(v, pt)
				if !ok {
					return nil, &ConstructionError{
						Identifier: label,
						Cause:      fmt.Errorf("override [%s]: %T is not assignable to %s", name, v, pt),
					}
				}
				args[i] = rv
				used[name] = true
				continue
			}
		}

		// The container injects itself.
		if pt == containerType {
			args[i] = reflect.ValueOf(c)
			continue
		}

		// Auto-wire by type.
		if id, ok := c.identifierFor(pt); ok {
			v, err := c.Get(id)
			if err != nil {
				return nil, err
			}
			rv, ok := coerce(v, pt)
			if !ok {
				return nil, &ConstructionError{
					Identifier: label,
					Cause:      fmt.Errorf("[%s] resolved to %T, want %s", id, v, pt),
				}
			}
			args[i] = rv
			continue
		}

		// Last resort: a single unambiguous override by type.
		if rv, ok := singleAssignable(overrides, used, pt); ok {
			args[i] = rv
			continue
		}

		return nil, &UnresolvableParameterError{Identifier: label, Param: paramLabel(name, i)}
	}

	out, err := invokeValues(fn, args)
	if err != nil {
		return nil, &ConstructionError{Identifier: label, Cause: err}
	}
	return splitResults(out)
}

// identifierFor maps a parameter type to a resolvable identifier: the type
// index first, then the package-qualified type key.
func (c *Container) identifierFor(t reflect.Type) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if id, ok := c.types[t]; ok {
		key := c.canonical(id)
		if c.resolvable(key) {
			return key, true
		}
	}
	if key := typeKeyFor(t); key != "" {
		key = c.canonical(key)
		if c.resolvable(key) {
			return key, true
		}
	}
	return "", false
}

// callable reduces a Call target to an invokable reflect.Value, its declared
// parameter names, and a label for diagnostics.
func callable(target any) (reflect.Value, []string, string, error) {
	switch t := target.(type) {
	case Method:
		rv := reflect.ValueOf(t.Receiver)
		if !rv.IsValid() {
			panic("container: Call on a nil receiver")
		}
		m := rv.MethodByName(t.Name)
		if !m.IsValid() {
			label := fmt.Sprintf("%T.%s", t.Receiver, t.Name)
			return reflect.Value{}, nil, "", &NotFoundError{Identifier: label}
		}
		return m, t.Params, fmt.Sprintf("%T.%s", t.Receiver, t.Name), nil
	case Func:
		fn, names, label, err := callable(t.Fn)
		if err != nil {
			return fn, names, label, err
		}
		return fn, t.Params, label, nil
	default:
		rv := reflect.ValueOf(target)
		if !rv.IsValid() || rv.Kind() != reflect.Func {
			panic(fmt.Sprintf("container: Call target must be a func or Method, got %T", target))
		}
		return rv, nil, rv.Type().String(), nil
	}
}

// singleAssignable finds the one override value assignable to t among those
// not already consumed by name matching. Zero or several candidates → no match.
func singleAssignable(overrides map[string]any, used map[string]bool, t reflect.Type) (reflect.Value, bool) {
	var match reflect.Value
	found := false
	for name, v := range overrides {
		if used[name] {
			continue
		}
		rv, ok := coerce(v, t)
		if !ok {
			continue
		}
		if found {
			return reflect.Value{}, false // ambiguous
		}
		match = rv
		found = true
	}
	return match, found
}

// invokeValues calls fn with args, converting panics into errors.
func invokeValues(fn reflect.Value, args []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = &panicError{value: r}
		}
	}()
	return fn.Call(args), nil
}

// splitResults separates a trailing error return from the payload and
// returns the first remaining value, matching Laravel's single-result call.
func splitResults(out []reflect.Value) (any, error) {
	var err error
	if n := len(out); n > 0 && out[n-1].Type().Implements(errorType) {
		if !out[n-1].IsNil() {
			err = out[n-1].Interface().(error)
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return nil, err
	}
	return out[0].Interface(), err
}
