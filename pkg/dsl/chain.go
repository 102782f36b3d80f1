package dsl

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/aretw0/nodechain/pkg/domain"
)

// Chain is an immutable, ordered sequence of nodes that are wired one into the next.
//
// Nested chains are spliced in place when the chain is flattened. Chain-level inputs feed
// the first flattened node only. Flattening and materialization are both memoized per
// Chain object.
type Chain struct {
	elements   []Element
	inputs     []Input
	namePrefix string
	shared     Parameters
	registry   *Registry

	flattenOnce sync.Once
	flat        []*Node
	flatErr     error

	mu           sync.Mutex
	materialized bool
	// copies holds the creation copy of each flattened element, kept across failed attempts.
	copies []*Node
}

// ChainOption configures a Chain at construction time.
type ChainOption func(*Chain)

// WithChainInputs sets the inputs applied to the first flattened node.
func WithChainInputs(inputs ...Input) ChainOption {
	return func(c *Chain) {
		c.inputs = slices.Clone(inputs)
	}
}

// WithNamePrefix records a prefix for the names of the chain's nodes.
func WithNamePrefix(prefix string) ChainOption {
	return func(c *Chain) {
		c.namePrefix = prefix
	}
}

// WithSharedParams records parameters common to every node of the chain.
func WithSharedParams(m map[string]any) ChainOption {
	return func(c *Chain) {
		c.shared = NewParameters(m)
	}
}

// WithRegistry makes flatten wrap External elements through r, so that a node created by a
// definition is reused as that very definition.
func WithRegistry(r *Registry) ChainOption {
	return func(c *Chain) {
		c.registry = r
	}
}

// NewChain declares a chain. No host interaction occurs.
func NewChain(elements []Element, opts ...ChainOption) *Chain {
	c := &Chain{elements: slices.Clone(elements)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Flatten expands nested chains in place and wraps external nodes into definitions.
// The result is computed once; every call returns the same slice, which must not be modified.
func (c *Chain) Flatten() ([]*Node, error) {
	c.flattenOnce.Do(func() {
		c.flat, c.flatErr = c.flatten()
	})
	return c.flat, c.flatErr
}

func (c *Chain) flatten() ([]*Node, error) {
	out := make([]*Node, 0, len(c.elements))
	for i, el := range c.elements {
		switch v := el.(type) {
		case *Node:
			if v == nil {
				return nil, fmt.Errorf("element %d: nil node: %w", i, domain.ErrInvalidElement)
			}
			out = append(out, v)
		case *Chain:
			if v == nil {
				return nil, fmt.Errorf("element %d: nil chain: %w", i, domain.ErrInvalidElement)
			}
			nested, err := v.Flatten()
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, nested...)
		case External:
			if v.Handle == nil {
				return nil, fmt.Errorf("element %d: nil handle: %w", i, domain.ErrInvalidElement)
			}
			out = append(out, c.wrap(v.Handle))
		default:
			return nil, fmt.Errorf("element %d: %w", i, domain.ErrInvalidElement)
		}
	}
	return out, nil
}

func (c *Chain) wrap(h domain.Handle) *Node {
	if c.registry != nil {
		return c.registry.Wrap(h)
	}
	parent, name := domain.SplitPath(h.Path())
	return NewNode(Path(parent), h.TypeName(), WithName(name), WithHandle(h))
}

// Materialize creates every node of the chain in order and returns the copies used for
// creation. Each node after the first receives its predecessor in input slot 0; the first
// node receives the chain inputs merged under its own. The result is memoized and must not
// be modified. After a failure, a retry reuses the copies already made, so only the nodes
// that were not created yet reach the host.
func (c *Chain) Materialize(ctx context.Context, s *Session) ([]*Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.materialized {
		return c.copies, nil
	}

	flat, err := c.Flatten()
	if err != nil {
		return nil, err
	}

	var prev domain.Handle
	for i, el := range flat {
		if i == len(c.copies) {
			var cp *Node
			switch {
			case i == 0 && len(c.inputs) > 0:
				cp = el.withInputs(Merge(el.inputs, c.inputs))
			case prev != nil:
				cp = el.Copy(External{Handle: prev})
			default:
				cp = el.Copy()
			}
			c.copies = append(c.copies, cp)
		}

		h, err := c.copies[i].Materialize(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("chain element %d %s: %w", i, el, err)
		}
		prev = h
	}

	c.materialized = true
	return c.copies, nil
}

// Copy returns an independent chain whose first node has extra merged over its inputs.
// Every other element is copied as well. External elements are kept as they are.
func (c *Chain) Copy(extra ...Input) *Chain {
	out := &Chain{
		elements:   make([]Element, 0, len(c.elements)),
		inputs:     slices.Clone(c.inputs),
		namePrefix: c.namePrefix,
		shared:     c.shared.Clone(),
		registry:   c.registry,
	}
	pending := extra
	for _, el := range c.elements {
		switch v := el.(type) {
		case *Node:
			if v == nil {
				out.elements = append(out.elements, el)
				continue
			}
			out.elements = append(out.elements, v.Copy(pending...))
			pending = nil
		case *Chain:
			if v == nil {
				out.elements = append(out.elements, el)
				continue
			}
			out.elements = append(out.elements, v.Copy(pending...))
			if v.Len() > 0 {
				pending = nil
			}
		default:
			out.elements = append(out.elements, el)
			if pending != nil {
				out.inputs = Merge(pending, out.inputs)
				pending = nil
			}
		}
	}
	if pending != nil {
		out.inputs = Merge(pending, out.inputs)
	}
	return out
}

// At returns the flattened node at index i. Negative indices count from the end.
func (c *Chain) At(i int) (*Node, error) {
	flat, err := c.Flatten()
	if err != nil {
		return nil, err
	}
	if i < 0 {
		i += len(flat)
	}
	if i < 0 || i >= len(flat) {
		return nil, fmt.Errorf("index %d of %d: %w", i, len(flat), domain.ErrOutOfRange)
	}
	return flat[i], nil
}

// ByName returns the first flattened node whose requested name is name.
func (c *Chain) ByName(name string) (*Node, error) {
	flat, err := c.Flatten()
	if err != nil {
		return nil, err
	}
	for _, n := range flat {
		if n.name == name {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, domain.ErrNameNotFound)
}

// Slice returns a new chain over flattened nodes [lo, hi). Negative bounds count from the
// end and out-of-range bounds are clamped. Chain inputs are not carried over.
func (c *Chain) Slice(lo, hi int) (*Chain, error) {
	flat, err := c.Flatten()
	if err != nil {
		return nil, err
	}
	lo, hi = clampBound(lo, len(flat)), clampBound(hi, len(flat))
	if hi < lo {
		hi = lo
	}
	elements := make([]Element, 0, hi-lo)
	for _, n := range flat[lo:hi] {
		elements = append(elements, n)
	}
	return &Chain{
		elements:   elements,
		namePrefix: c.namePrefix,
		shared:     c.shared.Clone(),
		registry:   c.registry,
	}, nil
}

func clampBound(i, n int) int {
	if i < 0 {
		i += n
	}
	return min(max(i, 0), n)
}

// Len returns the number of flattened nodes. A chain that cannot be flattened also reports 0;
// call Flatten to tell an invalid chain from an empty one.
func (c *Chain) Len() int {
	flat, err := c.Flatten()
	if err != nil {
		return 0
	}
	return len(flat)
}

// All iterates over the flattened nodes. It yields nothing for a chain that cannot be
// flattened; call Flatten first to see the error.
func (c *Chain) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		flat, _ := c.Flatten()
		for _, n := range flat {
			if !yield(n) {
				return
			}
		}
	}
}

// FirstNode materializes the chain and returns its first concrete node.
func (c *Chain) FirstNode(ctx context.Context, s *Session) (domain.Handle, error) {
	created, err := c.Materialize(ctx, s)
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, domain.ErrEmptyChain
	}
	return created[0].Materialize(ctx, s)
}

// LastNode materializes the chain and returns its last concrete node.
func (c *Chain) LastNode(ctx context.Context, s *Session) (domain.Handle, error) {
	created, err := c.Materialize(ctx, s)
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, domain.ErrEmptyChain
	}
	return created[len(created)-1].Materialize(ctx, s)
}

// Handles materializes the chain and returns every concrete node in order.
func (c *Chain) Handles(ctx context.Context, s *Session) ([]domain.Handle, error) {
	created, err := c.Materialize(ctx, s)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Handle, 0, len(created))
	for _, n := range created {
		h, err := n.Materialize(ctx, s)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// HandleSeq materializes the chain and iterates over its concrete nodes.
func (c *Chain) HandleSeq(ctx context.Context, s *Session) (iter.Seq[domain.Handle], error) {
	handles, err := c.Handles(ctx, s)
	if err != nil {
		return nil, err
	}
	return slices.Values(handles), nil
}

// Elements returns a copy of the declared elements.
func (c *Chain) Elements() []Element {
	return slices.Clone(c.elements)
}

// Inputs returns a copy of the chain-level inputs.
func (c *Chain) Inputs() []Input {
	return slices.Clone(c.inputs)
}

// NamePrefix returns the recorded name prefix.
func (c *Chain) NamePrefix() string {
	return c.namePrefix
}

// SharedParams returns the recorded shared parameters.
func (c *Chain) SharedParams() Parameters {
	return c.shared
}
