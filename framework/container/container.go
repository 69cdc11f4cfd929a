package container

import (
	"fmt"
	"reflect"
	"sync"
)

// ── Binding strategies ────────────────────────────────────────────────────────

// Factory is a function that builds a concrete value from the container.
// A non-nil error aborts the resolution with a ConstructionError.
type Factory func(c *Container) (any, error)

// strategy is the tagged variant a binding target is reduced to at
// registration time, so the resolver never type-branches on live values.
type strategy uint8

const (
	strategyConcrete strategy = iota // resolve another identifier (or self)
	strategyFactory                  // invoke a factory closure
)

// binding holds one registry entry. Pre-built values registered with
// Instance() live in the instances map instead.
type binding struct {
	strategy  strategy
	concrete  string // target identifier; equals the key for self-bindings
	factory   Factory
	singleton bool
}

// extender wraps an already-resolved instance with decorator logic.
type extender func(instance any, c *Container) any

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the IoC container — mirrors Laravel's Illuminate\Container\Container.
//
// It supports:
//   - Bind / Singleton / Instance / Alias
//   - Constructor descriptors with auto-wired parameters (Describe / Constructor)
//   - Get / Make (with caller overrides) / Call (method injection)
//   - Tags (group multiple abstractions under one tag)
//   - Extend (decorate / wrap resolved instances)
//   - Contextual binding (when A needs B, give it C)
//   - Rebound callbacks
//   - Resolved event callbacks
type Container struct {
	mu sync.RWMutex

	// abstract → binding
	bindings map[string]*binding

	// abstract → pre-built value registered with Instance()
	instances map[string]any

	// abstract → lazily produced singleton (the singleton cache)
	resolved map[string]any

	// abstract → construction recipe for a concrete type
	descriptors map[string]*Descriptor

	// Go type → abstract, for auto-wiring reflective descriptors and Call
	types map[reflect.Type]string

	// alias → abstract (canonical key)
	aliases map[string]string

	// abstract → extender funcs
	extenders map[string][]extender

	// tag → []abstract
	tags map[string][]string

	// contextual: when[concrete][abstract] = factory
	contextual map[string]map[string]Factory

	// rebound callbacks: abstract → []func(any)
	reboundCallbacks map[string][]func(any)

	// resolved callbacks: []func(abstract, instance)
	afterResolving []func(string, any)
}

// New creates an empty container.
func New() *Container {
	c := &Container{
		bindings:         make(map[string]*binding),
		instances:        make(map[string]any),
		resolved:         make(map[string]any),
		descriptors:      make(map[string]*Descriptor),
		types:            make(map[reflect.Type]string),
		aliases:          make(map[string]string),
		extenders:        make(map[string][]extender),
		tags:             make(map[string][]string),
		contextual:       make(map[string]map[string]Factory),
		reboundCallbacks: make(map[string][]func(any)),
	}
	// Bind the container to itself — like Laravel's $app->instance()
	c.Instance("container", c)
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient binding (new instance each Get).
//
// The optional target decides the construction strategy:
//
//	// Self-binding — the identifier names a concrete type registered
//	// with Describe(); Laravel: $app->bind(Foo::class)
//	c.Bind("report.Builder")
//
//	// Interface → implementation; Laravel: $app->bind(Repo::class, EloquentRepo::class)
//	c.Bind("repo.Quotes", "repo.MemoryQuotes")
//
//	// Factory closure; Laravel: $app->bind(Repo::class, fn($app) => ...)
//	c.Bind("repo.Quotes", func(c *container.Container) (any, error) {
//	    return NewMemoryQuotes(), nil
//	})
//
// Binding an identifier that already holds an Instance() registration is a
// no-op: explicit instances win until the registry is cleared with Forget.
func (c *Container) Bind(abstract string, target ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bind(abstract, target, false)
}

// Singleton registers a binding whose result is cached after first resolution.
//
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache($app))
//	c.Singleton("cache", func(c *container.Container) (any, error) {
//	    cfg, err := container.Resolve[*config.Config](c, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return cache.New(cfg), nil
//	})
func (c *Container) Singleton(abstract string, target ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bind(abstract, target, true)
}

// Instance registers a pre-built value as a singleton. Unlike Bind, it always
// overwrites any prior registration for the identifier.
//
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", value)
func (c *Container) Instance(abstract string, value any) {
	c.mu.Lock()
	key := c.canonical(abstract)
	delete(c.bindings, key)
	delete(c.resolved, key)
	c.instances[key] = value
	if t := reflect.TypeOf(value); t != nil {
		c.types[t] = key
	}
	c.mu.Unlock()
	c.fireRebound(abstract, value)
}

// bind is the internal registration helper (must hold mu.Lock).
func (c *Container) bind(abstract string, target []any, singleton bool) {
	key := c.canonical(abstract)

	// Explicit Instance registrations win over later plain bindings;
	// Forget or Flush first to displace one.
	if _, ok := c.instances[key]; ok {
		return
	}

	// Drop a stale singleton so it's rebuilt with the new binding
	wasResolved := c.resolved[key] != nil
	delete(c.resolved, key)

	c.bindings[key] = newBinding(key, target, singleton)

	if wasResolved {
		c.mu.Unlock()
		if v, err := c.Get(abstract); err == nil {
			c.fireRebound(abstract, v)
		}
		c.mu.Lock()
	}
}

// newBinding reduces a registration target to its strategy variant.
// Unsupported targets are programmer errors and panic at registration time.
func newBinding(key string, target []any, singleton bool) *binding {
	b := &binding{strategy: strategyConcrete, concrete: key, singleton: singleton}

	if len(target) > 1 {
		panic(fmt.Sprintf("container: Bind(%q) accepts at most one target, got %d", key, len(target)))
	}
	if len(target) == 0 || target[0] == nil {
		return b // self-binding
	}

	switch t := target[0].(type) {
	case string:
		b.concrete = t
	case Factory:
		b.strategy = strategyFactory
		b.factory = t
	case func(*Container) (any, error):
		b.strategy = strategyFactory
		b.factory = t
	case func(*Container) any:
		b.strategy = strategyFactory
		b.factory = func(c *Container) (any, error) { return t(c), nil }
	default:
		panic(fmt.Sprintf("container: unsupported binding target %T for [%s]", target[0], key))
	}
	return b
}

// Describe registers the construction recipe for a concrete type: its
// constructor parameters, in declaration order, and a build function. A
// described identifier is auto-resolvable even without a Bind call.
//
//	c.Describe("report.Builder", container.Descriptor{
//	    Params: []container.Param{
//	        container.Dep("quotes", "repo.Quotes"),
//	        container.Value("limit", 10),
//	    },
//	    New: func(args []any) (any, error) {
//	        return NewBuilder(args[0].(QuoteRepository), args[1].(int)), nil
//	    },
//	})
func (c *Container) Describe(identifier string, d Descriptor) {
	if d.New == nil {
		panic(fmt.Sprintf("container: Describe(%q) requires a New function", identifier))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(identifier)
	desc := d
	c.descriptors[key] = &desc
	if d.produces != nil {
		c.types[d.produces] = key
	}
}

// MapType associates a Go type with an abstract identifier so reflective
// descriptors and Call can auto-wire parameters of that type. Pass a nil
// interface pointer for interfaces:
//
//	c.MapType((*QuoteRepository)(nil), "repo.Quotes")
func (c *Container) MapType(prototype any, identifier string) {
	t := reflect.TypeOf(prototype)
	if t == nil {
		panic("container: MapType requires a non-nil prototype")
	}
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Interface {
		t = t.Elem()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types[t] = c.canonical(identifier)
}

// Alias registers an alternative name for an abstract.
//
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("cache", "cacheManager")
func (c *Container) Alias(abstract, alias string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if abstract == alias {
		panic(fmt.Sprintf("container: [%s] is aliased to itself", abstract))
	}
	c.aliases[alias] = c.canonical(abstract)
}

// ── Contextual Binding ────────────────────────────────────────────────────────

// When starts a contextual binding chain.
//
//	// Laravel: $app->when(PhotoController::class)->needs(Filesystem::class)->give(fn() => new S3)
//	c.When("PhotoController").Needs("Filesystem").Give(func(c *container.Container) (any, error) {
//	    return filesystem.NewS3(), nil
//	})
func (c *Container) When(concrete string) *ContextualBuilder {
	return &ContextualBuilder{container: c, concrete: concrete}
}

// getContextual returns the contextual factory for (concrete, abstract), or nil.
func (c *Container) getContextual(concrete, abstract string) Factory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.contextual[concrete]; ok {
		if f, ok := m[abstract]; ok {
			return f
		}
	}
	return nil
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates the resolved instance of an abstract.
//
//	// Laravel: $app->extend(Logger::class, fn($logger, $app) => new TimestampLogger($logger))
//	c.Extend("logger", func(instance any, c *container.Container) any {
//	    return logging.NewTimestampWrapper(instance.(*Logger))
//	})
func (c *Container) Extend(abstract string, fn extender) {
	c.mu.Lock()
	key := c.canonical(abstract)
	c.extenders[key] = append(c.extenders[key], fn)

	// If already resolved, apply the new extender now and refire rebound
	if inst, ok := c.instances[key]; ok {
		extended := fn(inst, c)
		c.instances[key] = extended
		c.mu.Unlock()
		c.fireRebound(abstract, extended)
		return
	}
	if inst, ok := c.resolved[key]; ok {
		extended := fn(inst, c)
		c.resolved[key] = extended
		c.mu.Unlock()
		c.fireRebound(abstract, extended)
		return
	}
	c.mu.Unlock()
}

// applyExtenders runs the registered extenders for key over instance.
func (c *Container) applyExtenders(key string, instance any) any {
	c.mu.RLock()
	exts := c.extenders[key]
	c.mu.RUnlock()
	for _, ext := range exts {
		instance = ext(instance, c)
	}
	return instance
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag associates multiple abstracts under a named group.
//
//	// Laravel: $app->tag([CpuReport::class, MemoryReport::class], 'reports')
//	c.Tag([]string{"CpuReport", "MemoryReport"}, "reports")
func (c *Container) Tag(abstracts []string, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], abstracts...)
}

// Tagged resolves all abstracts registered under a tag. The first resolution
// failure aborts the whole call.
//
//	// Laravel: $app->tagged('reports')
//	reports, err := c.Tagged("reports")
func (c *Container) Tagged(tag string) ([]any, error) {
	c.mu.RLock()
	abstracts := c.tags[tag]
	c.mu.RUnlock()

	result := make([]any, 0, len(abstracts))
	for _, abs := range abstracts {
		v, err := c.Get(abs)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Has reports whether an identifier can be resolved: it has a binding, an
// instance registration, or a Descriptor that makes it auto-resolvable.
// A totally unknown identifier returns false.
//
//	// Laravel: $app->bound(UserRepository::class)
func (c *Container) Has(abstract string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolvable(c.canonical(abstract))
}

// resolvable reports whether key can be resolved (must hold mu).
func (c *Container) resolvable(key string) bool {
	if _, ok := c.instances[key]; ok {
		return true
	}
	if _, ok := c.bindings[key]; ok {
		return true
	}
	_, ok := c.descriptors[key]
	return ok
}

// IsSingleton reports whether the identifier is singleton-scoped: either a
// singleton binding or an Instance registration. Unbound and transient
// identifiers return false.
func (c *Container) IsSingleton(abstract string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := c.canonical(abstract)
	if _, ok := c.instances[key]; ok {
		return true
	}
	if b, ok := c.bindings[key]; ok {
		return b.singleton
	}
	return false
}

// Resolved returns true if the abstract has been resolved at least once.
//
//	// Laravel: $app->resolved(Cache::class)
func (c *Container) Resolved(abstract string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := c.canonical(abstract)
	if _, ok := c.instances[key]; ok {
		return true
	}
	_, ok := c.resolved[key]
	return ok
}

// Forget removes all registrations for an abstract: binding, instance and
// cached singleton. Descriptors survive — they describe how a type is built,
// not whether it is bound.
//
//	// Laravel: $app->forgetInstance(Cache::class)
func (c *Container) Forget(abstract string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	delete(c.bindings, key)
	delete(c.instances, key)
	delete(c.resolved, key)
}

// Flush resets the entire container.
func (c *Container) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings = make(map[string]*binding)
	c.instances = make(map[string]any)
	c.resolved = make(map[string]any)
	c.descriptors = make(map[string]*Descriptor)
	c.types = make(map[reflect.Type]string)
	c.aliases = make(map[string]string)
	c.extenders = make(map[string][]extender)
	c.tags = make(map[string][]string)
	c.contextual = make(map[string]map[string]Factory)
}

// Bindings returns a copy of all registered abstract keys (for debugging).
func (c *Container) Bindings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.bindings)+len(c.instances))
	for k := range c.bindings {
		out = append(out, k)
	}
	for k := range c.instances {
		if _, already := c.bindings[k]; !already {
			out = append(out, k)
		}
	}
	return out
}

// canonical resolves an alias to its canonical key (must hold mu).
func (c *Container) canonical(abstract string) string {
	if target, ok := c.aliases[abstract]; ok {
		return target
	}
	return abstract
}

// canonicalKey is the lock-taking variant used by the resolver.
func (c *Container) canonicalKey(abstract string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.canonical(abstract)
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// Rebinding registers a callback to be called whenever an abstract is re-bound.
//
//	// Laravel: $app->rebinding(UserRepository::class, fn($app, $repo) => ...)
func (c *Container) Rebinding(abstract string, cb func(any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reboundCallbacks[abstract] = append(c.reboundCallbacks[abstract], cb)
}

// AfterResolving registers a callback fired after any abstract is resolved.
//
//	// Laravel: $app->afterResolving(fn($object, $app) => ...)
func (c *Container) AfterResolving(cb func(abstract string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

func (c *Container) fireRebound(abstract string, instance any) {
	c.mu.RLock()
	cbs := c.reboundCallbacks[abstract]
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(instance)
	}
}

func (c *Container) fireAfterResolving(abstract string, instance any) {
	c.mu.RLock()
	cbs := c.afterResolving
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(abstract, instance)
	}
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, useful as a stable
// abstract key when working with interfaces.
//
//	key := container.TypeKey((*UserRepository)(nil))  // "main.UserRepository"
//	c.Singleton(key, factory)
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return typeKeyFor(t)
}

// typeKeyFor derives the package-qualified key for a reflect.Type, or ""
// when the type has no name (func, anonymous struct, ...).
func typeKeyFor(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return ""
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve is a generic helper that calls Get and type-asserts the result.
//
//	// Instead of: v, err := c.Get("db"); db := v.(*sql.DB)
//	// Write:      db, err := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c *Container, abstract string) (T, error) {
	var zero T
	v, err := c.Get(abstract)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: Resolve[%T]: [%s] resolved to %T", zero, abstract, v)
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on failure — for bootstrap code
// where a missing binding is unrecoverable.
func MustResolve[T any](c *Container, abstract string) T {
	v, err := Resolve[T](c, abstract)
	if err != nil {
		panic(err)
	}
	return v
}
