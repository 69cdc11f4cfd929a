package container

import (
	"fmt"
	"strings"
)

// ── Error taxonomy ────────────────────────────────────────────────────────────
//
// Every resolution failure is reported synchronously to the caller as one of
// the typed errors below. The container never substitutes a nil value for a
// failed resolution and never retries: the binding graph is static per call,
// so a retry without a configuration change would fail identically.

// NotFoundError is returned when an identifier has no binding and cannot be
// auto-wired — an unbound interface, or a concrete name the container has no
// descriptor for. It signals a misconfigured object graph.
type NotFoundError struct {
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("container: no binding registered for [%s] and it is not a known constructible type", e.Identifier)
}

// UnresolvableParameterError is returned when a constructor or callable
// parameter could not be satisfied by an override, auto-wiring, or a default.
type UnresolvableParameterError struct {
	Identifier string // the type or callable being constructed
	Param      string // parameter name, or "#n" when unnamed
}

func (e *UnresolvableParameterError) Error() string {
	return fmt.Sprintf("container: cannot resolve parameter [%s] of [%s]: no override, binding, or default value", e.Param, e.Identifier)
}

// CircularDependencyError is returned when the active resolution chain
// revisits an identifier already under construction.
type CircularDependencyError struct {
	Chain []string // the full path, ending at the repeated identifier
}

func (e *CircularDependencyError) Error() string {
	if len(e.Chain) == 0 {
		return "container: circular dependency detected"
	}
	return fmt.Sprintf("container: circular dependency detected: %s", strings.Join(e.Chain, " -> "))
}

// ConstructionError wraps an error raised by the constructor or factory
// itself during invocation — propagated, never swallowed.
type ConstructionError struct {
	Identifier string
	Cause      error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("container: constructing [%s]: %v", e.Identifier, e.Cause)
}

// Unwrap returns the underlying constructor error.
func (e *ConstructionError) Unwrap() error {
	return e.Cause
}

// panicError carries a non-error panic value recovered from a constructor.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// paramLabel names a parameter for diagnostics: its declared name, or the
// positional "#n" when the descriptor left it unnamed.
func paramLabel(name string, index int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("#%d", index)
}
