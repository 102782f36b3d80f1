package dsl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/nodechain/internal/logging"
	"github.com/aretw0/nodechain/pkg/domain"
	"github.com/aretw0/nodechain/pkg/ports"
)

// Session binds definitions to a live host: it owns the identifier registry, the logger
// and the lifecycle hooks used while materializing.
type Session struct {
	host     ports.Host
	registry *Registry
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the structured logger used for warnings and debug traces.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHooks registers lifecycle hooks.
func WithHooks(hooks domain.LifecycleHooks) SessionOption {
	return func(s *Session) {
		s.hooks = hooks
	}
}

// WithSessionRegistry shares an existing registry instead of creating a new one.
func WithSessionRegistry(r *Registry) SessionOption {
	return func(s *Session) {
		if r != nil {
			s.registry = r
		}
	}
}

// NewSession creates a session on top of host.
func NewSession(host ports.Host, opts ...SessionOption) *Session {
	s := &Session{
		host:   host,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	s.logger = s.logger.With("component", "dsl")
	return s
}

// Host returns the host binding.
func (s *Session) Host() ports.Host {
	return s.host
}

// Registry returns the identifier registry.
func (s *Session) Registry() *Registry {
	return s.registry
}

// Root returns the definition of the host's topmost node.
func (s *Session) Root() *Node {
	return s.registry.Root()
}

// Wrap returns the definition for an existing host node (see Registry.Wrap).
func (s *Session) Wrap(h domain.Handle) *Node {
	return s.registry.Wrap(h)
}

// Lookup finds the host node at path and wraps it.
func (s *Session) Lookup(ctx context.Context, path string) (*Node, error) {
	if path == "" || path == domain.RootPath {
		return s.Root(), nil
	}
	h, err := s.host.LookupNode(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", path, err)
	}
	return s.registry.Wrap(h), nil
}

// Reset clears the registry and, when the host supports it, wipes the host scene.
func (s *Session) Reset(ctx context.Context) error {
	s.registry.Clear()
	if r, ok := s.host.(ports.Resettable); ok {
		if err := r.Reset(ctx); err != nil {
			return fmt.Errorf("reset host: %w", err)
		}
	}
	s.logger.Debug("session reset", "generation", s.registry.Generation())
	return nil
}
