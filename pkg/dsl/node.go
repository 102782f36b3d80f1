package dsl

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/nodechain/pkg/domain"
)

// Node is an immutable definition of one prospective host node.
//
// Nodes have identity semantics: materializing the same *Node twice yields the same concrete
// node, while two structurally identical definitions yield two independent concrete nodes.
type Node struct {
	parent  Parent
	typeTag string
	name    string
	params  Parameters
	inputs  []Input
	root    bool

	mu     sync.Mutex
	handle domain.Handle
}

// NodeOption configures a Node at construction time.
type NodeOption func(*Node)

// WithName sets the requested node name. The host may uniquify it.
func WithName(name string) NodeOption {
	return func(n *Node) {
		n.name = name
	}
}

// WithInputs sets the ordered input slots. Use nil for a sparse slot.
func WithInputs(inputs ...Input) NodeOption {
	return func(n *Node) {
		n.inputs = slices.Clone(inputs)
	}
}

// WithParams adds every entry of m to the node parameters.
func WithParams(m map[string]any) NodeOption {
	return func(n *Node) {
		for k, v := range m {
			n.params = n.params.With(k, v)
		}
	}
}

// WithParam sets a single parameter.
func WithParam(key string, value any) NodeOption {
	return func(n *Node) {
		n.params = n.params.With(key, value)
	}
}

// WithHandle marks the node as already materialized to h.
func WithHandle(h domain.Handle) NodeOption {
	return func(n *Node) {
		n.handle = h
	}
}

// NewNode declares a node of typeTag under parent. No host interaction occurs.
func NewNode(parent Parent, typeTag string, opts ...NodeOption) *Node {
	n := &Node{
		parent:  parent,
		typeTag: typeTag,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Materialize creates the concrete host node, or returns the one created earlier.
// Only success is cached: a failed attempt can be retried.
func (n *Node) Materialize(ctx context.Context, s *Session) (domain.Handle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.handle != nil {
		return n.handle, nil
	}

	var (
		h   domain.Handle
		err error
	)
	if n.root {
		h, err = n.lookupRoot(ctx, s)
	} else {
		h, err = n.create(ctx, s)
	}
	if err != nil {
		return nil, err
	}
	n.handle = h
	return h, nil
}

func (n *Node) lookupRoot(ctx context.Context, s *Session) (domain.Handle, error) {
	h, err := s.host.LookupNode(ctx, domain.RootPath)
	if err != nil {
		return nil, fmt.Errorf("lookup root: %w", err)
	}
	s.registry.Register(h, n)
	return h, nil
}

func (n *Node) create(ctx context.Context, s *Session) (domain.Handle, error) {
	if err := n.validateInputs(); err != nil {
		return nil, err
	}

	start := time.Now()

	parent, err := n.resolveParentHandle(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", n, err)
	}

	// Inputs are resolved before the node exists, so a fatal input leaves nothing behind.
	sources := make([]domain.Handle, len(n.inputs))
	for slot, in := range n.inputs {
		if in == nil {
			continue
		}
		src, err := resolveInput(ctx, s, in)
		if err != nil {
			return nil, fmt.Errorf("node %s input %d: %w", n, slot, err)
		}
		sources[slot] = src
	}

	h, err := s.host.CreateChild(ctx, parent, n.typeTag, n.name)
	if err != nil {
		return nil, fmt.Errorf("create %s under %s: %w", n.typeTag, parent.Path(), err)
	}

	if n.params.Len() > 0 {
		if err := s.host.SetParameters(ctx, h, n.params.Map()); err != nil {
			s.logger.Warn("failed to set parameters", "node", h.Path(), "err", err)
			if s.hooks.OnParameterError != nil {
				s.hooks.OnParameterError(ctx, domain.NewFailureEvent(domain.EventParameterError, h, -1, err))
			}
		}
	}

	for slot, src := range sources {
		if src == nil {
			continue
		}
		if err := s.host.ConnectInput(ctx, h, slot, src); err != nil {
			s.logger.Warn("failed to connect input", "node", h.Path(), "slot", slot, "err", err)
			if s.hooks.OnConnectError != nil {
				s.hooks.OnConnectError(ctx, domain.NewFailureEvent(domain.EventConnectError, h, slot, err))
			}
		}
	}

	s.registry.Register(h, n)

	took := time.Since(start)
	s.logger.Debug("node created", "node", h.Path(), "type", h.TypeName(), "took", took)
	if s.hooks.OnNodeCreated != nil {
		s.hooks.OnNodeCreated(ctx, domain.NewNodeEvent(h, took))
	}
	return h, nil
}

// validateInputs rejects unusable input variants before the host is touched.
func (n *Node) validateInputs() error {
	for slot, in := range n.inputs {
		switch v := in.(type) {
		case nil:
		case *Node:
			if v == nil {
				return fmt.Errorf("node %s input %d: nil node: %w", n, slot, domain.ErrInvalidInput)
			}
		case *Chain:
			if v == nil {
				return fmt.Errorf("node %s input %d: nil chain: %w", n, slot, domain.ErrInvalidInput)
			}
		case External:
			if v.Handle == nil {
				return fmt.Errorf("node %s input %d: nil handle: %w", n, slot, domain.ErrInvalidInput)
			}
		}
	}
	return nil
}

// resolveInput turns one non-sparse input slot into a concrete handle.
func resolveInput(ctx context.Context, s *Session, in Input) (domain.Handle, error) {
	switch v := in.(type) {
	case *Node:
		return v.Materialize(ctx, s)
	case *Chain:
		return v.LastNode(ctx, s)
	case External:
		return v.Handle, nil
	default:
		return nil, fmt.Errorf("%T: %w", in, domain.ErrInvalidInput)
	}
}

// Copy returns a fresh, unmaterialized definition with the same parent, type and name, an
// independent parameter mapping and extra merged over the original inputs.
func (n *Node) Copy(extra ...Input) *Node {
	return &Node{
		parent:  n.parent,
		typeTag: n.typeTag,
		name:    n.name,
		params:  n.params.Clone(),
		inputs:  Merge(extra, n.inputs),
	}
}

// withInputs is Copy with the input list replaced outright.
func (n *Node) withInputs(inputs []Input) *Node {
	c := n.Copy()
	c.inputs = inputs
	return c
}

// Parent returns the parent reference. The root definition has none.
func (n *Node) Parent() Parent {
	return n.parent
}

// Type returns the host node type tag.
func (n *Node) Type() string {
	return n.typeTag
}

// Name returns the requested name, or "" to let the host choose.
func (n *Node) Name() string {
	return n.name
}

// Params returns the parameter mapping.
func (n *Node) Params() Parameters {
	return n.params
}

// Inputs returns a copy of the input slots.
func (n *Node) Inputs() []Input {
	return slices.Clone(n.inputs)
}

// Handle returns the concrete node if the definition has been materialized.
func (n *Node) Handle() domain.Handle {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.handle
}

// Path returns the concrete path once materialized, or the expected path otherwise.
// Expected paths ignore host name uniquification.
func (n *Node) Path() string {
	if h := n.Handle(); h != nil {
		return h.Path()
	}
	return n.expectedPath()
}

func (n *Node) expectedPath() string {
	if n.root {
		return domain.RootPath
	}
	name := n.name
	if name == "" {
		name = n.typeTag
	}
	switch p := n.parent.(type) {
	case Path:
		return domain.JoinPath(string(p), name)
	case *Node:
		if p != nil {
			return domain.JoinPath(p.expectedPath(), name)
		}
	case External:
		if p.Handle != nil {
			return domain.JoinPath(p.Handle.Path(), name)
		}
	}
	return name
}

// String never takes the memo lock, so it is safe to use while materializing.
func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.typeTag, n.expectedPath())
}
