package container_test

import (
	"errors"
	"testing"

	"github.com/ksfraser/go-container/framework/container"
)

// ── Constructor ───────────────────────────────────────────────────────────────

func TestConstructor_AutoWiresParamsThroughTypeIndex(t *testing.T) {
	c := container.New()
	c.Describe("memoryQuotes", container.Constructor(newMemoryQuotes))
	c.Singleton("repo.Quotes", "memoryQuotes")
	c.MapType((*QuoteRepository)(nil), "repo.Quotes")

	c.Describe("svc.Analyzer", container.Constructor(
		func(repo QuoteRepository) *analyzer {
			return &analyzer{repo: repo, window: 14}
		},
	))

	a := container.MustResolve[*analyzer](c, "svc.Analyzer")
	if a.repo == nil {
		t.Fatal("constructor parameter should be auto-wired via the type index")
	}
	if a.repo.Quote("ACME") != 42.5 {
		t.Errorf("Quote(ACME): got %v", a.repo.Quote("ACME"))
	}
}

func TestConstructor_ProducedTypeFeedsTheTypeIndex(t *testing.T) {
	c := container.New()
	c.Describe("clock", container.Constructor(newClock))

	// a later constructor can depend on *clock by type, no MapType needed
	c.Describe("svc.Stamper", container.Constructor(
		func(cl *clock) string {
			if cl == nil {
				return "missing"
			}
			return "stamped"
		},
	))

	got := container.MustResolve[string](c, "svc.Stamper")
	if got != "stamped" {
		t.Errorf("got %q, want stamped", got)
	}
}

func TestConstructor_NamesMakeParamsOverridable(t *testing.T) {
	c := container.New()
	c.Describe("svc.Window", container.Constructor(
		func(window int) int { return window },
		"window",
	))

	got, err := c.Make("svc.Window", map[string]any{"window": 30})
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if got.(int) != 30 {
		t.Errorf("got %v, want 30", got)
	}
}

func TestConstructor_ErrorReturnPropagates(t *testing.T) {
	boom := errors.New("no data dir")
	c := container.New()
	c.Describe("svc.Store", container.Constructor(
		func() (*clock, error) { return nil, boom },
	))

	_, err := c.Get("svc.Store")
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped %v", err, boom)
	}
}

func TestConstructor_RejectsInvalidSignatures(t *testing.T) {
	cases := []struct {
		name string
		fn   any
	}{
		{"not a function", 42},
		{"variadic", func(xs ...int) int { return 0 }},
		{"no returns", func() {}},
		{"three returns", func() (int, int, error) { return 0, 0, nil }},
		{"second return not error", func() (int, int) { return 0, 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Constructor(%s) should panic", tc.name)
				}
			}()
			container.Constructor(tc.fn)
		})
	}
}

func TestConstructor_TooManyNamesPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("more names than parameters should panic")
		}
	}()
	container.Constructor(func(a int) int { return a }, "a", "b")
}

// ── Param helpers ─────────────────────────────────────────────────────────────

func TestParam_WithDefaultCopies(t *testing.T) {
	base := container.Dep("repo", "repo.Quotes")
	withDef := base.WithDefault(nil)

	if base.HasDefault {
		t.Error("WithDefault must not mutate the receiver")
	}
	if !withDef.HasDefault {
		t.Error("WithDefault should set HasDefault on the copy")
	}
}
