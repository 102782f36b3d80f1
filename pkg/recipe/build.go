package recipe

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/nodechain/pkg/dsl"
)

// Built holds the definitions produced from a recipe.
type Built struct {
	Nodes   map[string]*dsl.Node
	Chains  map[string]*dsl.Chain
	Targets []string
}

// Target returns the definition registered under name.
func (b *Built) Target(name string) (dsl.Input, bool) {
	if n, ok := b.Nodes[name]; ok {
		return n, true
	}
	if c, ok := b.Chains[name]; ok {
		return c, true
	}
	return nil, false
}

// Created lists the concrete paths produced for one target.
type Created struct {
	Target string   `json:"target"`
	Paths  []string `json:"paths"`
}

// Materialize creates every target in order.
func (b *Built) Materialize(ctx context.Context, s *dsl.Session) ([]Created, error) {
	out := make([]Created, 0, len(b.Targets))
	for _, name := range b.Targets {
		def, _ := b.Target(name)
		c := Created{Target: name}
		switch v := def.(type) {
		case *dsl.Node:
			h, err := v.Materialize(ctx, s)
			if err != nil {
				return out, fmt.Errorf("target %q: %w", name, err)
			}
			c.Paths = []string{h.Path()}
		case *dsl.Chain:
			handles, err := v.Handles(ctx, s)
			if err != nil {
				return out, fmt.Errorf("target %q: %w", name, err)
			}
			for _, h := range handles {
				c.Paths = append(c.Paths, h.Path())
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// SortedNodes returns the named nodes ordered by name.
func (b *Built) SortedNodes() []*dsl.Node {
	out := make([]*dsl.Node, 0, len(b.Nodes))
	for _, k := range slices.Sorted(maps.Keys(b.Nodes)) {
		out = append(out, b.Nodes[k])
	}
	return out
}

// SortedChains returns the named chains ordered by name.
func (b *Built) SortedChains() []*dsl.Chain {
	out := make([]*dsl.Chain, 0, len(b.Chains))
	for _, k := range slices.Sorted(maps.Keys(b.Chains)) {
		out = append(out, b.Chains[k])
	}
	return out
}

type builder struct {
	r        *Recipe
	reg      *dsl.Registry
	out      *Built
	visiting map[string]bool
	used     map[string]bool
}

// Build resolves every reference and returns the definitions. External nodes in chains are
// wrapped through reg when it is not nil.
func (r *Recipe) Build(reg *dsl.Registry) (*Built, error) {
	b := &builder{
		r:        r,
		reg:      reg,
		out:      &Built{Nodes: make(map[string]*dsl.Node), Chains: make(map[string]*dsl.Chain)},
		visiting: make(map[string]bool),
		used:     make(map[string]bool),
	}

	for _, name := range slices.Sorted(maps.Keys(r.Nodes)) {
		if _, err := b.node(name); err != nil {
			return nil, err
		}
	}
	for _, name := range slices.Sorted(maps.Keys(r.Chains)) {
		if _, err := b.chain(name); err != nil {
			return nil, err
		}
	}

	b.out.Targets = slices.Clone(r.Targets)
	if len(b.out.Targets) == 0 {
		for _, name := range slices.Sorted(maps.Keys(b.all())) {
			if !b.used[name] {
				b.out.Targets = append(b.out.Targets, name)
			}
		}
	}
	return b.out, nil
}

func (b *builder) all() map[string]struct{} {
	names := make(map[string]struct{}, len(b.r.Nodes)+len(b.r.Chains))
	for k := range b.r.Nodes {
		names[k] = struct{}{}
	}
	for k := range b.r.Chains {
		names[k] = struct{}{}
	}
	return names
}

func (b *builder) enter(name string) error {
	if b.visiting[name] {
		return fmt.Errorf("reference cycle through %q", name)
	}
	b.visiting[name] = true
	return nil
}

func (b *builder) node(name string) (*dsl.Node, error) {
	if n, ok := b.out.Nodes[name]; ok {
		return n, nil
	}
	spec, ok := b.r.Nodes[name]
	if !ok {
		return nil, fmt.Errorf("unknown node %q", name)
	}
	if err := b.enter(name); err != nil {
		return nil, err
	}
	defer delete(b.visiting, name)

	n, err := b.fromSpec(name, spec)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", name, err)
	}
	b.out.Nodes[name] = n
	return n, nil
}

func (b *builder) fromSpec(key string, spec NodeSpec) (*dsl.Node, error) {
	var parent dsl.Parent = dsl.Path(spec.Parent)
	if isRef(spec.Parent) {
		ref := strings.TrimPrefix(spec.Parent, RefPrefix)
		p, err := b.node(ref)
		if err != nil {
			return nil, fmt.Errorf("parent: %w", err)
		}
		b.used[ref] = true
		parent = p
	}

	inputs, err := b.inputs(spec.Inputs)
	if err != nil {
		return nil, err
	}

	name := spec.Name
	if name == "" {
		name = key
	}
	return dsl.NewNode(parent, spec.Type,
		dsl.WithName(name),
		dsl.WithParams(spec.Params),
		dsl.WithInputs(inputs...),
	), nil
}

func (b *builder) chain(name string) (*dsl.Chain, error) {
	if c, ok := b.out.Chains[name]; ok {
		return c, nil
	}
	spec, ok := b.r.Chains[name]
	if !ok {
		return nil, fmt.Errorf("unknown chain %q", name)
	}
	if err := b.enter(name); err != nil {
		return nil, err
	}
	defer delete(b.visiting, name)

	elements := make([]dsl.Element, 0, len(spec.Elements))
	for i, raw := range spec.Elements {
		el, err := b.element(name, i, raw)
		if err != nil {
			return nil, fmt.Errorf("chain %q element %d: %w", name, i, err)
		}
		elements = append(elements, el)
	}

	inputs, err := b.inputs(spec.Inputs)
	if err != nil {
		return nil, fmt.Errorf("chain %q: %w", name, err)
	}

	opts := []dsl.ChainOption{
		dsl.WithChainInputs(inputs...),
		dsl.WithNamePrefix(spec.NamePrefix),
		dsl.WithSharedParams(spec.Params),
	}
	if b.reg != nil {
		opts = append(opts, dsl.WithRegistry(b.reg))
	}
	c := dsl.NewChain(elements, opts...)
	b.out.Chains[name] = c
	return c, nil
}

func (b *builder) element(chain string, i int, raw any) (dsl.Element, error) {
	switch v := raw.(type) {
	case string:
		if !isRef(v) {
			return nil, fmt.Errorf("element %q must be a reference", v)
		}
		return b.ref(strings.TrimPrefix(v, RefPrefix))
	case map[string]any:
		var spec NodeSpec
		if err := decode(v, &spec); err != nil {
			return nil, fmt.Errorf("failed to decode inline node: %w", err)
		}
		if err := spec.validate(); err != nil {
			return nil, err
		}
		return b.fromSpec(fmt.Sprintf("%s_%d", chain, i), spec)
	default:
		return nil, fmt.Errorf("invalid element type %T", raw)
	}
}

func (b *builder) ref(name string) (refTarget, error) {
	b.used[name] = true
	if _, ok := b.r.Nodes[name]; ok {
		return b.node(name)
	}
	if _, ok := b.r.Chains[name]; ok {
		return b.chain(name)
	}
	return nil, fmt.Errorf("unknown reference %q", RefPrefix+name)
}

// refTarget is satisfied by *dsl.Node and *dsl.Chain.
type refTarget interface {
	dsl.Input
	dsl.Element
}

func (b *builder) inputs(raw []any) ([]dsl.Input, error) {
	out := make([]dsl.Input, 0, len(raw))
	for slot, v := range raw {
		switch s := v.(type) {
		case nil:
			out = append(out, nil)
		case string:
			if s == "~" || s == "" {
				out = append(out, nil)
				continue
			}
			if !isRef(s) {
				return nil, fmt.Errorf("input %d: %q must be a reference or ~", slot, s)
			}
			t, err := b.ref(strings.TrimPrefix(s, RefPrefix))
			if err != nil {
				return nil, fmt.Errorf("input %d: %w", slot, err)
			}
			out = append(out, t)
		default:
			return nil, fmt.Errorf("input %d: invalid type %T", slot, v)
		}
	}
	return out, nil
}
