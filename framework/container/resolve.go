package container

// ── Resolution ────────────────────────────────────────────────────────────────

// resolution is the transient per-call state: the chain of identifiers
// currently mid-construction (for cycle detection and contextual lookup) and
// the caller overrides, which apply to the outermost construction step only.
// It never outlives the Get/Make/Call that created it.
type resolution struct {
	chain     []string
	overrides map[string]any

	// fresh skips singleton-cache reads until the outermost build, so Make
	// always produces through the normal construction path. Writes to the
	// cache still happen.
	fresh bool
}

// active reports whether key is already mid-construction on this call.
func (r *resolution) active(key string) bool {
	for _, id := range r.chain {
		if id == key {
			return true
		}
	}
	return false
}

// enter pushes key onto the construction chain; leave pops it.
func (r *resolution) enter(key string) { r.chain = append(r.chain, key) }
func (r *resolution) leave()           { r.chain = r.chain[:len(r.chain)-1] }

// outermost consumes the caller overrides: the first construction step takes
// them, every deeper step resolves normally.
func (r *resolution) outermost() map[string]any {
	ov := r.overrides
	r.overrides = nil
	r.fresh = false
	return ov
}

// Get resolves an abstract from the container, reading and populating the
// singleton cache as the binding's scope dictates.
//
//	// Laravel: $app->make(UserRepository::class)
//	repo, err := c.Get("repo.Quotes")
func (c *Container) Get(abstract string) (any, error) {
	return c.resolve(abstract, &resolution{})
}

// Make resolves an abstract like Get but always produces through the normal
// construction path — the singleton cache is not read for the requested
// identifier (it is still written) — and applies the caller overrides to the
// outermost construction step. Overridden parameters are used verbatim;
// everything else is resolved normally.
//
//	// Laravel: $app->make(ReportBuilder::class, ['limit' => 50])
//	report, err := c.Make("report.Builder", map[string]any{"limit": 50})
func (c *Container) Make(abstract string, overrides map[string]any) (any, error) {
	return c.resolve(abstract, &resolution{overrides: overrides, fresh: true})
}

// resolve is the recursive resolver. Locks are taken per access, never held
// across recursive calls.
func (c *Container) resolve(abstract string, res *resolution) (any, error) {
	c.mu.RLock()
	key := c.canonical(abstract)

	// Pre-built instances are returned as-is — no construction step exists.
	if v, ok := c.instances[key]; ok {
		c.mu.RUnlock()
		return v, nil
	}

	// Singleton cache, unless the caller demanded a fresh build.
	if !res.fresh {
		if v, ok := c.resolved[key]; ok {
			c.mu.RUnlock()
			return v, nil
		}
	}

	b := c.bindings[key]
	c.mu.RUnlock()

	// Revisiting an identifier already mid-construction is a cycle.
	if res.active(key) {
		chain := make([]string, len(res.chain), len(res.chain)+1)
		copy(chain, res.chain)
		return nil, &CircularDependencyError{Chain: append(chain, key)}
	}

	// Contextual binding: the identifier currently being built may have
	// asked for a specific implementation of this abstract.
	if n := len(res.chain); n > 0 {
		if f := c.getContextual(res.chain[n-1], key); f != nil {
			return c.runFactory(key, f, false, res)
		}
	}

	if b == nil {
		// Unbound — auto-wire when a descriptor declares the identifier
		// as a constructible concrete type.
		if d := c.descriptor(key); d != nil {
			return c.build(key, d, false, res)
		}
		return nil, &NotFoundError{Identifier: abstract}
	}

	if b.strategy == strategyFactory {
		return c.runFactory(key, b.factory, b.singleton, res)
	}

	// Concrete strategy: an interface → implementation mapping, or a
	// self-binding of a described type.
	if b.concrete != key {
		res.enter(key)
		v, err := c.resolve(b.concrete, res)
		res.leave()
		if err != nil {
			return nil, err
		}
		return c.finalize(key, v, b.singleton), nil
	}

	d := c.descriptor(key)
	if d == nil {
		return nil, &NotFoundError{Identifier: abstract}
	}
	return c.build(key, d, b.singleton, res)
}

// descriptor looks up the construction recipe for key.
func (c *Container) descriptor(key string) *Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.descriptors[key]
}

// build constructs key from its descriptor: overrides beat auto-wiring,
// auto-wiring beats defaults, defaults are the last resort before failure.
func (c *Container) build(key string, d *Descriptor, singleton bool, res *resolution) (any, error) {
	overrides := res.outermost()

	res.enter(key)
	defer res.leave()

	args := make([]any, len(d.Params))
	for i, p := range d.Params {
		if p.Name != "" {
			if v, ok := overrides[p.Name]; ok {
				args[i] = v
				continue
			}
		}
		if dep, ok := c.dependencyKey(p); ok {
			v, err := c.resolve(dep, res)
			if err != nil {
				return nil, err
			}
			args[i] = v
			continue
		}
		if p.HasDefault {
			args[i] = p.Default
			continue
		}
		return nil, &UnresolvableParameterError{Identifier: key, Param: paramLabel(p.Name, i)}
	}

	v, err := invoke(func() (any, error) { return d.New(args) })
	if err != nil {
		return nil, &ConstructionError{Identifier: key, Cause: err}
	}
	return c.finalize(key, v, singleton), nil
}

// dependencyKey maps a parameter to the identifier it auto-wires from, when
// that identifier is actually resolvable. Declared-but-unresolvable
// dependencies fall through to the parameter's default.
func (c *Container) dependencyKey(p Param) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if p.Abstract != "" {
		key := c.canonical(p.Abstract)
		return key, c.resolvable(key)
	}
	if p.rtype != nil {
		if id, ok := c.types[p.rtype]; ok {
			key := c.canonical(id)
			if c.resolvable(key) {
				return key, true
			}
		}
		if key := typeKeyFor(p.rtype); key != "" && c.resolvable(c.canonical(key)) {
			return c.canonical(key), true
		}
	}
	return "", false
}

// runFactory executes a factory, optionally caching the result.
func (c *Container) runFactory(key string, f Factory, singleton bool, res *resolution) (any, error) {
	res.enter(key)
	v, err := invoke(func() (any, error) { return f(c) })
	res.leave()
	if err != nil {
		return nil, &ConstructionError{Identifier: key, Cause: err}
	}
	return c.finalize(key, v, singleton), nil
}

// finalize applies extenders, populates the singleton cache, and fires the
// resolved callbacks. Every successful construction funnels through here.
func (c *Container) finalize(key string, v any, singleton bool) any {
	v = c.applyExtenders(key, v)

	if singleton {
		c.mu.Lock()
		c.resolved[key] = v
		c.mu.Unlock()
	}

	c.fireAfterResolving(key, v)
	return v
}

// invoke runs a construction step, converting panics into errors so a
// misbehaving constructor fails the resolution instead of the process.
func invoke(fn func() (any, error)) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = &panicError{value: r}
		}
	}()
	return fn()
}
