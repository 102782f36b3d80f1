package dsl

import (
	"sync"

	"github.com/aretw0/nodechain/pkg/domain"
)

type entry struct {
	node *Node
	gen  uint64
}

// Registry maps concrete host nodes back to the definition that produced them.
//
// Entries are never evicted implicitly: whoever owns the host session must call Clear when
// the host scene is reset, or Forget when a single node is deleted. Safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	gen     uint64
	entries map[domain.Handle]entry
	root    *Node
}

// NewRegistry creates an empty registry with a fresh root definition.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[domain.Handle]entry),
		root:    newRoot(),
	}
}

// Root returns the definition standing for the host's topmost node.
func (r *Registry) Root() *Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.root
}

// Register records n as the origin of h, replacing any previous entry.
func (r *Registry) Register(h domain.Handle, n *Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[h] = entry{node: n, gen: r.gen}
}

// Lookup returns the definition registered for h in the current generation.
func (r *Registry) Lookup(h domain.Handle) (*Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[h]
	if !ok || e.gen != r.gen {
		return nil, false
	}
	return e.node, true
}

// Wrap returns the definition for h, creating and registering one if h is unknown.
//
// A handle produced by materializing a definition always wraps back to that very
// definition. Unknown handles get a pre-materialized definition whose parent is the
// handle's parent path (or the root definition for top-level nodes).
func (r *Registry) Wrap(h domain.Handle) *Node {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[h]; ok && e.gen == r.gen {
		return e.node
	}

	path := h.Path()
	if path == domain.RootPath {
		r.entries[h] = entry{node: r.root, gen: r.gen}
		return r.root
	}

	parentPath, name := domain.SplitPath(path)
	var parent Parent = Path(parentPath)
	if parentPath == domain.RootPath {
		parent = r.root
	}

	n := NewNode(parent, h.TypeName(), WithName(name), WithHandle(h))
	r.entries[h] = entry{node: n, gen: r.gen}
	return n
}

// Forget drops the entry for h, if any.
func (r *Registry) Forget(h domain.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, h)
}

// Clear drops every entry, replaces the root definition and starts a new generation.
// Definitions materialized before Clear keep their (now stale) handles.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.entries = make(map[domain.Handle]entry)
	r.root = newRoot()
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Generation returns the number of times the registry has been cleared.
func (r *Registry) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}
