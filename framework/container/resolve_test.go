package container_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ksfraser/go-container/framework/container"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type QuoteRepository interface {
	Quote(symbol string) float64
}

type memoryQuotes struct {
	quotes map[string]float64
}

func (m *memoryQuotes) Quote(symbol string) float64 { return m.quotes[symbol] }

func newMemoryQuotes() *memoryQuotes {
	return &memoryQuotes{quotes: map[string]float64{"ACME": 42.5}}
}

// clock has no constructor parameters — the auto-wiring base case.
type clock struct{}

func newClock() *clock { return &clock{} }

type analyzer struct {
	repo   QuoteRepository
	window int
}

// nested chain: alpha → beta → gamma
type gamma struct{}
type beta struct{ g *gamma }
type alpha struct{ b *beta }

// newTestContainer registers the shared descriptors used across the tests.
func newTestContainer() *container.Container {
	c := container.New()
	c.Describe("memoryQuotes", container.Constructor(newMemoryQuotes))
	c.Describe("clock", container.Constructor(newClock))
	return c
}

// ── Singleton identity ────────────────────────────────────────────────────────

func TestGet_SingletonReturnsSameInstance(t *testing.T) {
	c := newTestContainer()
	c.Singleton("svc.Clock", "clock")

	first := container.MustResolve[*clock](c, "svc.Clock")
	second := container.MustResolve[*clock](c, "svc.Clock")

	if first != second {
		t.Error("singleton binding should return the same instance on every Get")
	}
}

func TestGet_TransientReturnsFreshInstance(t *testing.T) {
	c := newTestContainer()
	c.Bind("svc.Clock", "clock")

	first := container.MustResolve[*clock](c, "svc.Clock")
	second := container.MustResolve[*clock](c, "svc.Clock")

	if first == second {
		t.Error("transient binding should return a fresh instance on every Get")
	}
}

// ── Instance precedence ───────────────────────────────────────────────────────

func TestInstance_WinsOverLaterBind(t *testing.T) {
	c := newTestContainer()

	original := newClock()
	c.Instance("svc.Clock", original)
	c.Bind("svc.Clock", "clock") // must be a no-op

	got := container.MustResolve[*clock](c, "svc.Clock")
	if got != original {
		t.Error("a later Bind must not displace an explicit Instance registration")
	}
}

func TestInstance_OverwritesPriorBinding(t *testing.T) {
	c := newTestContainer()
	c.Bind("svc.Clock", "clock")

	replacement := newClock()
	c.Instance("svc.Clock", replacement)

	got := container.MustResolve[*clock](c, "svc.Clock")
	if got != replacement {
		t.Error("Instance must overwrite a prior binding for the identifier")
	}
}

func TestForget_AllowsRebindingOverInstance(t *testing.T) {
	c := newTestContainer()
	original := newClock()
	c.Instance("svc.Clock", original)

	c.Forget("svc.Clock")
	c.Bind("svc.Clock", "clock")

	got := container.MustResolve[*clock](c, "svc.Clock")
	if got == original {
		t.Error("after Forget, Bind should take effect again")
	}
}

// ── Auto-wiring without registration ──────────────────────────────────────────

func TestGet_DescribedTypeResolvesWithoutBinding(t *testing.T) {
	c := newTestContainer()

	// "clock" has a descriptor but no Bind call
	got, err := c.Get("clock")
	if err != nil {
		t.Fatalf("Get(clock): %v", err)
	}
	if _, ok := got.(*clock); !ok {
		t.Errorf("Get(clock): got %T, want *clock", got)
	}
}

// ── Nested resolution ─────────────────────────────────────────────────────────

func TestGet_NestedChainIsFullyConstructed(t *testing.T) {
	c := container.New()
	c.Describe("gamma", container.Constructor(func() *gamma { return &gamma{} }))
	c.Describe("beta", container.Descriptor{
		Params: []container.Param{container.Dep("g", "gamma")},
		New: func(args []any) (any, error) {
			return &beta{g: args[0].(*gamma)}, nil
		},
	})
	c.Describe("alpha", container.Descriptor{
		Params: []container.Param{container.Dep("b", "beta")},
		New: func(args []any) (any, error) {
			return &alpha{b: args[0].(*beta)}, nil
		},
	})
	c.Bind("alpha")
	c.Bind("beta")
	c.Bind("gamma")

	a := container.MustResolve[*alpha](c, "alpha")
	if a.b == nil {
		t.Fatal("alpha.b should be constructed")
	}
	if a.b.g == nil {
		t.Fatal("alpha.b.g should be constructed — the whole chain, not just the top")
	}
}

// ── Override scoping ──────────────────────────────────────────────────────────

func TestMake_OverrideBeatsDefault(t *testing.T) {
	c := container.New()
	c.Describe("widget", container.Descriptor{
		Params: []container.Param{container.Value("field", "default")},
		New: func(args []any) (any, error) {
			return args[0].(string), nil
		},
	})

	got, err := c.Make("widget", map[string]any{"field": "override"})
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if got.(string) != "override" {
		t.Errorf("Make with override: got %q, want %q", got, "override")
	}

	plain, err := c.Get("widget")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if plain.(string) != "default" {
		t.Errorf("Get without override: got %q, want %q", plain, "default")
	}

	empty, err := c.Make("widget", nil)
	if err != nil {
		t.Fatalf("Make(nil overrides): %v", err)
	}
	if empty.(string) != "default" {
		t.Errorf("Make without override: got %q, want %q", empty, "default")
	}
}

func TestMake_AutoWiringBeatsDefault(t *testing.T) {
	c := newTestContainer()
	c.Singleton("repo.Quotes", "memoryQuotes")
	c.Describe("svc.Analyzer", container.Descriptor{
		Params: []container.Param{
			container.Dep("repo", "repo.Quotes").WithDefault(nil),
			container.Value("window", 14),
		},
		New: func(args []any) (any, error) {
			repo, _ := args[0].(QuoteRepository)
			return &analyzer{repo: repo, window: args[1].(int)}, nil
		},
	})

	a := container.MustResolve[*analyzer](c, "svc.Analyzer")
	if a.repo == nil {
		t.Error("bound dependency should beat the declared default")
	}
	if a.window != 14 {
		t.Errorf("window: got %d, want default 14", a.window)
	}
}

func TestMake_DefaultUsedWhenDependencyUnresolvable(t *testing.T) {
	c := container.New()
	c.Describe("svc.Analyzer", container.Descriptor{
		Params: []container.Param{
			container.Dep("repo", "repo.Quotes").WithDefault(nil), // unbound
			container.Value("window", 14),
		},
		New: func(args []any) (any, error) {
			repo, _ := args[0].(QuoteRepository)
			return &analyzer{repo: repo, window: args[1].(int)}, nil
		},
	})

	a := container.MustResolve[*analyzer](c, "svc.Analyzer")
	if a.repo != nil {
		t.Error("unresolvable dependency with a default should fall back to the default")
	}
}

func TestMake_OverridesDoNotLeakIntoNestedSteps(t *testing.T) {
	c := container.New()
	c.Describe("inner", container.Descriptor{
		Params: []container.Param{container.Value("label", "inner-default")},
		New: func(args []any) (any, error) {
			return args[0].(string), nil
		},
	})
	c.Describe("outer", container.Descriptor{
		Params: []container.Param{
			container.Dep("label", "inner"),
		},
		New: func(args []any) (any, error) {
			return args[0].(string), nil
		},
	})

	// "label" is overridden on the outermost step only: the outer parameter
	// takes it verbatim and the inner descriptor never sees it.
	got, err := c.Make("outer", map[string]any{"label": "outer-override"})
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if got.(string) != "outer-override" {
		t.Errorf("outer: got %q, want %q", got, "outer-override")
	}

	inner, err := c.Get("inner")
	if err != nil {
		t.Fatalf("Get(inner): %v", err)
	}
	if inner.(string) != "inner-default" {
		t.Errorf("inner: got %q, want its own default %q", inner, "inner-default")
	}
}

// ── Make vs the singleton cache ───────────────────────────────────────────────

func TestMake_BypassesSingletonCacheReadButWrites(t *testing.T) {
	c := newTestContainer()
	c.Singleton("svc.Clock", "clock")

	cached := container.MustResolve[*clock](c, "svc.Clock")

	fresh, err := c.Make("svc.Clock", nil)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if fresh.(*clock) == cached {
		t.Error("Make should bypass the singleton cache read and build anew")
	}

	// ... but the fresh instance is written back to the cache
	again := container.MustResolve[*clock](c, "svc.Clock")
	if again != fresh.(*clock) {
		t.Error("Make should still write the singleton cache")
	}
}

func TestMake_InstanceBindingReturnsStoredValue(t *testing.T) {
	c := container.New()
	original := newClock()
	c.Instance("svc.Clock", original)

	got, err := c.Make("svc.Clock", map[string]any{"ignored": true})
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if got.(*clock) != original {
		t.Error("an Instance registration has no construction path — Make returns the stored value")
	}
}

// ── Interface mapping ─────────────────────────────────────────────────────────

func TestGet_InterfaceMappingResolvesConcrete(t *testing.T) {
	c := newTestContainer()

	// memoryQuotes itself is never bound — auto-wired via its descriptor
	c.Bind("repo.Quotes", "memoryQuotes")

	v, err := c.Get("repo.Quotes")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	repo, ok := v.(QuoteRepository)
	if !ok {
		t.Fatalf("resolved value %T does not satisfy QuoteRepository", v)
	}
	if _, ok := v.(*memoryQuotes); !ok {
		t.Errorf("resolved value is %T, want *memoryQuotes", v)
	}
	if got := repo.Quote("ACME"); got != 42.5 {
		t.Errorf("Quote(ACME): got %v, want 42.5", got)
	}
}

func TestGet_SingletonInterfaceMappingCachesUnderAbstract(t *testing.T) {
	c := newTestContainer()
	c.Singleton("repo.Quotes", "memoryQuotes")

	first := container.MustResolve[*memoryQuotes](c, "repo.Quotes")
	second := container.MustResolve[*memoryQuotes](c, "repo.Quotes")
	if first != second {
		t.Error("singleton mapping should cache under the abstract identifier")
	}

	// the concrete identifier itself was never singleton-bound
	direct := container.MustResolve[*memoryQuotes](c, "memoryQuotes")
	if direct == first {
		t.Error("resolving the unbound concrete directly should construct fresh")
	}
}

// ── Unknown identifiers ───────────────────────────────────────────────────────

func TestGet_UnknownIdentifierFailsWithNotFound(t *testing.T) {
	c := container.New()

	_, err := c.Get(`Totally\Unknown\Class`)
	if err == nil {
		t.Fatal("Get on an unknown identifier should fail")
	}
	var nf *container.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %T, want *NotFoundError", err)
	}
	if nf.Identifier != `Totally\Unknown\Class` {
		t.Errorf("Identifier: got %q", nf.Identifier)
	}
	if c.Has(`Totally\Unknown\Class`) {
		t.Error("Has should be false for an unknown identifier")
	}
}

func TestGet_SelfBindingWithoutDescriptorFailsWithNotFound(t *testing.T) {
	c := container.New()
	c.Bind("svc.Ghost") // self-binding, but nothing describes how to build it

	_, err := c.Get("svc.Ghost")
	var nf *container.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want *NotFoundError", err)
	}
}

// ── Unresolvable parameters ───────────────────────────────────────────────────

func TestGet_RequiredParameterWithoutOverrideFails(t *testing.T) {
	c := container.New()
	c.Describe("svc.Mailer", container.Descriptor{
		Params: []container.Param{container.Required("dsn")},
		New: func(args []any) (any, error) {
			return args[0], nil
		},
	})

	_, err := c.Get("svc.Mailer")
	var up *container.UnresolvableParameterError
	if !errors.As(err, &up) {
		t.Fatalf("got %v, want *UnresolvableParameterError", err)
	}
	if up.Param != "dsn" || up.Identifier != "svc.Mailer" {
		t.Errorf("error fields: got (%q, %q)", up.Identifier, up.Param)
	}

	// ... while an override satisfies it
	got, err := c.Make("svc.Mailer", map[string]any{"dsn": "smtp://localhost"})
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if got.(string) != "smtp://localhost" {
		t.Errorf("got %q", got)
	}
}

// ── Circular dependencies ─────────────────────────────────────────────────────

func TestGet_CircularDependencyIsDetected(t *testing.T) {
	c := container.New()
	c.Describe("svc.A", container.Descriptor{
		Params: []container.Param{container.Dep("b", "svc.B")},
		New:    func(args []any) (any, error) { return "a", nil },
	})
	c.Describe("svc.B", container.Descriptor{
		Params: []container.Param{container.Dep("a", "svc.A")},
		New:    func(args []any) (any, error) { return "b", nil },
	})

	_, err := c.Get("svc.A")
	var cd *container.CircularDependencyError
	if !errors.As(err, &cd) {
		t.Fatalf("got %v, want *CircularDependencyError", err)
	}
	want := []string{"svc.A", "svc.B", "svc.A"}
	if len(cd.Chain) != len(want) {
		t.Fatalf("chain: got %v, want %v", cd.Chain, want)
	}
	for i := range want {
		if cd.Chain[i] != want[i] {
			t.Fatalf("chain: got %v, want %v", cd.Chain, want)
		}
	}
}

func TestGet_SelfCycleThroughMappingIsDetected(t *testing.T) {
	c := container.New()
	c.Bind("svc.A", "svc.B")
	c.Bind("svc.B", "svc.A")

	_, err := c.Get("svc.A")
	var cd *container.CircularDependencyError
	if !errors.As(err, &cd) {
		t.Fatalf("got %v, want *CircularDependencyError", err)
	}
}

// ── Construction failures ─────────────────────────────────────────────────────

func TestGet_FactoryErrorPropagates(t *testing.T) {
	boom := fmt.Errorf("dial quotes feed: connection refused")
	c := container.New()
	c.Bind("repo.Quotes", func(c *container.Container) (any, error) {
		return nil, boom
	})

	_, err := c.Get("repo.Quotes")
	var ce *container.ConstructionError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want *ConstructionError", err)
	}
	if !errors.Is(err, boom) {
		t.Error("ConstructionError should wrap the factory's error")
	}
}

func TestGet_ConstructorPanicBecomesError(t *testing.T) {
	c := container.New()
	c.Describe("svc.Flaky", container.Descriptor{
		New: func(args []any) (any, error) {
			panic("corrupt state")
		},
	})

	_, err := c.Get("svc.Flaky")
	var ce *container.ConstructionError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want *ConstructionError", err)
	}
}

func TestGet_FailedDependencyAbortsTheWholeGraph(t *testing.T) {
	c := container.New()
	built := false
	c.Bind("repo.Quotes", func(c *container.Container) (any, error) {
		return nil, fmt.Errorf("unavailable")
	})
	c.Describe("svc.Analyzer", container.Descriptor{
		Params: []container.Param{container.Dep("repo", "repo.Quotes")},
		New: func(args []any) (any, error) {
			built = true
			return &analyzer{}, nil
		},
	})

	if _, err := c.Get("svc.Analyzer"); err == nil {
		t.Fatal("resolution should fail when a dependency fails")
	}
	if built {
		t.Error("nothing may be partially constructed after a dependency failure")
	}
}

// ── Aliases ───────────────────────────────────────────────────────────────────

func TestAlias_ResolvesThroughCanonicalKey(t *testing.T) {
	c := newTestContainer()
	c.Singleton("repo.Quotes", "memoryQuotes")
	c.Alias("repo.Quotes", "quotes")

	viaAlias := container.MustResolve[*memoryQuotes](c, "quotes")
	direct := container.MustResolve[*memoryQuotes](c, "repo.Quotes")
	if viaAlias != direct {
		t.Error("alias and canonical key should share the singleton")
	}
	if !c.Has("quotes") {
		t.Error("Has should see through aliases")
	}
}

// ── Contextual bindings ───────────────────────────────────────────────────────

func TestContextual_GiveOverridesGlobalBinding(t *testing.T) {
	c := newTestContainer()
	c.Singleton("repo.Quotes", "memoryQuotes")

	special := &memoryQuotes{quotes: map[string]float64{"ACME": 99.0}}
	c.When("svc.Analyzer").Needs("repo.Quotes").GiveValue(special)

	c.Describe("svc.Analyzer", container.Descriptor{
		Params: []container.Param{container.Dep("repo", "repo.Quotes")},
		New: func(args []any) (any, error) {
			return &analyzer{repo: args[0].(QuoteRepository)}, nil
		},
	})

	a := container.MustResolve[*analyzer](c, "svc.Analyzer")
	if a.repo.Quote("ACME") != 99.0 {
		t.Error("contextual binding should win inside svc.Analyzer's construction")
	}

	// the global binding is untouched elsewhere
	global := container.MustResolve[*memoryQuotes](c, "repo.Quotes")
	if global.Quote("ACME") != 42.5 {
		t.Error("contextual binding must not leak into direct resolution")
	}
}
