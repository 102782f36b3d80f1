package ports

import (
	"context"

	"github.com/aretw0/nodechain/pkg/domain"
)

// Host is the narrow binding to the host application's scene graph.
// Every operation is synchronous and fallible; the core never assumes atomicity across calls.
type Host interface {
	// LookupNode resolves an absolute path to a concrete node.
	// Returns domain.ErrNotFound (wrapped or bare) if nothing lives at path.
	LookupNode(ctx context.Context, path string) (domain.Handle, error)

	// CreateChild creates a node of typeTag under parent.
	// An empty name lets the host pick a default; a taken name may be uniquified by the host.
	CreateChild(ctx context.Context, parent domain.Handle, typeTag, name string) (domain.Handle, error)

	// SetParameters applies the parameters in bulk. Partial application on error is allowed.
	SetParameters(ctx context.Context, node domain.Handle, params map[string]any) error

	// ConnectInput wires the output of source into input slot of node.
	ConnectInput(ctx context.Context, node domain.Handle, slot int, source domain.Handle) error
}

// Resettable is implemented by hosts whose scene can be wiped between call batches.
type Resettable interface {
	Reset(ctx context.Context) error
}
