// Package container provides a Laravel-compatible IoC (Inversion of Control)
// container and Service Provider system for Go.
//
// # Overview
//
// The container manages the instantiation and lifecycle of your application's
// dependencies. It supports transient bindings, singletons, pre-built
// instances, constructor descriptors with recursive auto-wiring, caller
// overrides, method injection, aliases, tags, contextual bindings, and
// extension (decoration).
//
// It mirrors the public API of Laravel's Illuminate\Container\Container as
// closely as Go's type system allows. Because Go exposes no constructor
// metadata at runtime, auto-wiring is driven by explicit descriptors: each
// constructible type registers its parameter list once, and the resolver
// walks those descriptors depth-first, building each unresolved node exactly
// once.
//
// # Container Lifecycle
//
//  1. Create: c := container.New()
//  2. Register providers: registry.Register(&MyProvider{})
//  3. Boot: registry.Boot()        — safe to resolve everything after this
//  4. Resolve and use services
//
// # Bindings
//
//	// Transient — new instance every Get()
//	// Laravel: $app->bind(Foo::class, fn($app) => new Foo)
//	c.Bind("foo", func(c *container.Container) (any, error) { return &Foo{}, nil })
//
//	// Singleton — created once, reused
//	// Laravel: $app->singleton(Cache::class, fn($app) => new RedisCache)
//	c.Singleton("cache", func(c *container.Container) (any, error) {
//	    cfg, err := container.Resolve[*Config](c, "config")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return cache.New(cfg), nil
//	})
//
//	// Pre-built value — always wins over later Bind calls
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", myConfig)
//
//	// Interface → implementation
//	// Laravel: $app->bind(Repo::class, EloquentRepo::class)
//	c.Bind("repo.Quotes", "repo.MemoryQuotes")
//
// # Auto-wiring
//
// A concrete type becomes constructible by registering a descriptor. The
// Constructor helper derives one from an ordinary Go constructor; names make
// parameters overridable by callers:
//
//	c.Describe("svc.Analyzer", container.Constructor(NewAnalyzer, "quotes", "logger"))
//	c.MapType((*QuoteRepository)(nil), "repo.Quotes")
//
// Described identifiers resolve even without a Bind call, and their
// dependencies resolve recursively: resolving the root of a graph builds the
// whole graph or fails atomically with a typed error (NotFoundError,
// UnresolvableParameterError, CircularDependencyError, ConstructionError).
//
// # Resolving
//
//	// Laravel: $app->make(Cache::class)
//	raw, err := c.Get("cache")
//
//	// Generic (preferred — no type assertion required)
//	cache, err := container.Resolve[*RedisCache](c, "cache")
//
//	// With caller overrides — beat auto-wiring for the outermost step only
//	// Laravel: $app->make(Report::class, ['limit' => 50])
//	report, err := c.Make("report.Builder", map[string]any{"limit": 50})
//
// # Method Injection
//
//	// Laravel: $app->call([$report, 'render'], ['extra' => 'value'])
//	out, err := c.Call(container.Method{Receiver: report, Name: "Render"},
//	    map[string]any{"extra": "value"})
//
// # Contextual Binding
//
//	// Laravel: $app->when(PhotoController::class)
//	//              ->needs(Filesystem::class)
//	//              ->give(fn() => new S3Filesystem)
//	c.When("ReportController").
//	    Needs("repo.Quotes").
//	    Give(func(c *container.Container) (any, error) { return &CachedQuotes{}, nil })
//
// # Tags
//
//	// Laravel: $app->tag([CpuReport::class, MemReport::class], 'reports')
//	c.Tag([]string{"CpuReport", "MemReport"}, "reports")
//	reports, err := c.Tagged("reports")
//
// # Extend / Decorate
//
//	// Laravel: $app->extend(Logger::class, fn($logger, $app) => new TimestampLogger($logger))
//	c.Extend("logger", func(instance any, c *container.Container) any {
//	    return &TimestampLogger{Inner: instance.(*Logger)}
//	})
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) {
//	    app.Singleton("mailer", func(c *container.Container) (any, error) {
//	        cfg, err := container.Resolve[*config.Config](c, "config")
//	        if err != nil {
//	            return nil, err
//	        }
//	        return mail.NewSMTP(cfg.Mail), nil
//	    })
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot()
//
// # Concurrency
//
// Registration and resolution are safe for concurrent use: the registry and
// singleton cache are guarded by a single RWMutex taken per access, never
// across recursive calls. Resolution itself is synchronous and CPU-bound —
// it performs no I/O and either completes or fails deterministically.
package container
