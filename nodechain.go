package nodechain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/nodechain/internal/logging"
	"github.com/aretw0/nodechain/pkg/domain"
	"github.com/aretw0/nodechain/pkg/dsl"
	"github.com/aretw0/nodechain/pkg/observability"
	"github.com/aretw0/nodechain/pkg/ports"
)

// Engine is the high-level entry point for the library.
// It owns a session on one host and builds definitions bound to the session registry.
type Engine struct {
	session  *dsl.Session
	registry *dsl.Registry
	hooks    domain.LifecycleHooks
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRegistry shares an identifier registry between engines.
func WithRegistry(r *dsl.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithMetrics records materialization into m, alongside any lifecycle hooks.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New initializes an Engine on host.
func New(host ports.Host, opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.registry == nil {
		eng.registry = dsl.NewRegistry()
	}

	hooks := eng.hooks
	if eng.metrics != nil {
		hooks = observability.Chain(hooks, eng.metrics.Hooks())
	}

	eng.session = dsl.NewSession(host,
		dsl.WithLogger(eng.logger),
		dsl.WithHooks(hooks),
		dsl.WithSessionRegistry(eng.registry),
	)
	return eng
}

// Session returns the underlying session.
func (e *Engine) Session() *dsl.Session {
	return e.session
}

// Registry returns the identifier registry.
func (e *Engine) Registry() *dsl.Registry {
	return e.registry
}

// Metrics returns the metrics set with WithMetrics, or nil.
func (e *Engine) Metrics() *observability.Metrics {
	return e.metrics
}

// Root returns the definition of the scene root.
func (e *Engine) Root() *dsl.Node {
	return e.session.Root()
}

// Node declares a node definition. It is a shorthand for dsl.NewNode.
func (e *Engine) Node(parent dsl.Parent, typeTag string, opts ...dsl.NodeOption) *dsl.Node {
	return dsl.NewNode(parent, typeTag, opts...)
}

// Chain declares a chain whose external elements are wrapped through the engine registry.
func (e *Engine) Chain(elements ...dsl.Element) *dsl.Chain {
	return dsl.NewChain(elements, dsl.WithRegistry(e.registry))
}

// ChainWith declares a chain with options. The engine registry is applied first, so an
// explicit dsl.WithRegistry wins.
func (e *Engine) ChainWith(elements []dsl.Element, opts ...dsl.ChainOption) *dsl.Chain {
	return dsl.NewChain(elements, append([]dsl.ChainOption{dsl.WithRegistry(e.registry)}, opts...)...)
}

// Wrap returns the definition standing for an existing host node.
func (e *Engine) Wrap(h domain.Handle) *dsl.Node {
	return e.session.Wrap(h)
}

// Lookup wraps the host node at path.
func (e *Engine) Lookup(ctx context.Context, path string) (*dsl.Node, error) {
	return e.session.Lookup(ctx, path)
}

// Materialize creates def in the host and returns the concrete nodes, in chain order for
// chains. Definitions are memoized, so repeated calls return the same nodes.
func (e *Engine) Materialize(ctx context.Context, def dsl.Input) ([]domain.Handle, error) {
	switch v := def.(type) {
	case *dsl.Node:
		h, err := v.Materialize(ctx, e.session)
		if err != nil {
			return nil, err
		}
		return []domain.Handle{h}, nil
	case *dsl.Chain:
		return v.Handles(ctx, e.session)
	case dsl.External:
		if v.Handle == nil {
			return nil, fmt.Errorf("nil external handle: %w", domain.ErrInvalidInput)
		}
		return []domain.Handle{v.Handle}, nil
	default:
		return nil, fmt.Errorf("cannot materialize %T: %w", def, domain.ErrInvalidInput)
	}
}

// Reset forgets every materialized definition and wipes the host scene if it supports it.
func (e *Engine) Reset(ctx context.Context) error {
	return e.session.Reset(ctx)
}
