package dsl

import (
	"context"
	"fmt"

	"github.com/aretw0/nodechain/pkg/domain"
)

// newRoot builds the sentinel definition for the host's topmost node.
func newRoot() *Node {
	return &Node{typeTag: domain.RootType, root: true}
}

// IsRoot reports whether n stands for the host's topmost node.
func (n *Node) IsRoot() bool {
	return n.root
}

// ResolveParent returns the definition n will be created under.
//
// Path parents are looked up on the host and wrapped, so a missing path fails with
// domain.ErrNotFound. External parents are wrapped through the session registry. The root
// definition resolves to itself, which ends every resolution chain.
func (n *Node) ResolveParent(ctx context.Context, s *Session) (*Node, error) {
	if n.root {
		return n, nil
	}
	switch p := n.parent.(type) {
	case Path:
		return s.Lookup(ctx, string(p))
	case *Node:
		if p == nil {
			return nil, fmt.Errorf("nil parent definition: %w", domain.ErrInvalidParent)
		}
		return p, nil
	case External:
		if p.Handle == nil {
			return nil, fmt.Errorf("nil parent handle: %w", domain.ErrInvalidParent)
		}
		return s.Wrap(p.Handle), nil
	default:
		return nil, domain.ErrInvalidParent
	}
}

// resolveParentHandle yields the concrete parent without going through the registry for
// paths and external handles.
func (n *Node) resolveParentHandle(ctx context.Context, s *Session) (domain.Handle, error) {
	switch p := n.parent.(type) {
	case Path:
		if p == "" || p == domain.RootPath {
			return s.Root().Materialize(ctx, s)
		}
		h, err := s.host.LookupNode(ctx, string(p))
		if err != nil {
			return nil, fmt.Errorf("parent %q: %w", string(p), err)
		}
		return h, nil
	case *Node:
		if p == nil {
			return nil, fmt.Errorf("nil parent definition: %w", domain.ErrInvalidParent)
		}
		return p.Materialize(ctx, s)
	case External:
		if p.Handle == nil {
			return nil, fmt.Errorf("nil parent handle: %w", domain.ErrInvalidParent)
		}
		return p.Handle, nil
	default:
		return nil, domain.ErrInvalidParent
	}
}
