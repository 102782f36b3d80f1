package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/nodechain/pkg/domain"
)

// Ref is a handle to a node of the in-memory host. It is a comparable value.
type Ref struct {
	path string
	typ  string
}

// Path returns the absolute node path.
func (r Ref) Path() string { return r.path }

// TypeName returns the node type.
func (r Ref) TypeName() string { return r.typ }

func (r Ref) String() string { return r.path }

type record struct {
	ref      Ref
	params   map[string]any
	inputs   map[int]Ref
	children []string
}

// Host implements ports.Host over an in-memory scene graph.
// It starts with the conventional top-level networks /obj, /out and /mat.
// Safe for concurrent use.
type Host struct {
	mu      sync.RWMutex
	nodes   map[string]*record
	created int

	paramFailures   map[string]error
	connectFailures map[string]error
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithParameterFailure makes SetParameters fail with err for every node of typeTag.
func WithParameterFailure(typeTag string, err error) HostOption {
	return func(h *Host) {
		h.paramFailures[typeTag] = err
	}
}

// WithConnectFailure makes ConnectInput fail with err for every node of typeTag.
func WithConnectFailure(typeTag string, err error) HostOption {
	return func(h *Host) {
		h.connectFailures[typeTag] = err
	}
}

// NewHost creates a new in-memory host.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		paramFailures:   make(map[string]error),
		connectFailures: make(map[string]error),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.seed()
	return h
}

func (h *Host) seed() {
	h.nodes = make(map[string]*record)
	h.nodes[domain.RootPath] = newRecord(domain.RootPath, domain.RootType)
	for name, typ := range map[string]string{"obj": "objnet", "out": "ropnet", "mat": "matnet"} {
		path := domain.JoinPath(domain.RootPath, name)
		h.nodes[path] = newRecord(path, typ)
	}
	h.nodes[domain.RootPath].children = []string{"/mat", "/obj", "/out"}
	h.created = 0
}

func newRecord(path, typ string) *record {
	return &record{
		ref:    Ref{path: path, typ: typ},
		params: make(map[string]any),
		inputs: make(map[int]Ref),
	}
}

// LookupNode resolves path to a node.
func (h *Host) LookupNode(ctx context.Context, path string) (domain.Handle, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rec, ok := h.nodes[normalize(path)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	return rec.ref, nil
}

// CreateChild creates a node under parent. Empty names default to the type followed by a
// counter; taken names get their numeric suffix bumped.
func (h *Host) CreateChild(ctx context.Context, parent domain.Handle, typeTag, name string) (domain.Handle, error) {
	if typeTag == "" {
		return nil, fmt.Errorf("empty node type")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	prec, ok := h.nodes[parent.Path()]
	if !ok {
		return nil, fmt.Errorf("parent %s: %w", parent.Path(), domain.ErrNotFound)
	}

	if name == "" {
		name = typeTag + "1"
	}
	name = h.uniqueName(prec.ref.path, name)

	path := domain.JoinPath(prec.ref.path, name)
	rec := newRecord(path, typeTag)
	h.nodes[path] = rec
	prec.children = append(prec.children, name)
	h.created++
	return rec.ref, nil
}

func (h *Host) uniqueName(parent, name string) string {
	if _, taken := h.nodes[domain.JoinPath(parent, name)]; !taken {
		return name
	}
	base := strings.TrimRight(name, "0123456789")
	n, _ := strconv.Atoi(name[len(base):])
	for {
		n++
		candidate := base + strconv.Itoa(n)
		if _, taken := h.nodes[domain.JoinPath(parent, candidate)]; !taken {
			return candidate
		}
	}
}

// SetParameters stores the parameters on node.
func (h *Host) SetParameters(ctx context.Context, node domain.Handle, params map[string]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec, ok := h.nodes[node.Path()]
	if !ok {
		return fmt.Errorf("%s: %w", node.Path(), domain.ErrNotFound)
	}
	if err := h.paramFailures[rec.ref.typ]; err != nil {
		return err
	}
	maps.Copy(rec.params, params)
	return nil
}

// ConnectInput records source as input slot of node.
func (h *Host) ConnectInput(ctx context.Context, node domain.Handle, slot int, source domain.Handle) error {
	if slot < 0 {
		return fmt.Errorf("negative input slot %d", slot)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	rec, ok := h.nodes[node.Path()]
	if !ok {
		return fmt.Errorf("%s: %w", node.Path(), domain.ErrNotFound)
	}
	src, ok := h.nodes[source.Path()]
	if !ok {
		return fmt.Errorf("source %s: %w", source.Path(), domain.ErrNotFound)
	}
	if err := h.connectFailures[rec.ref.typ]; err != nil {
		return err
	}
	rec.inputs[slot] = src.ref
	return nil
}

// Reset wipes every node created since construction.
func (h *Host) Reset(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seed()
	return nil
}

// Params returns a copy of the parameters stored on path.
func (h *Host) Params(path string) (map[string]any, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rec, ok := h.nodes[normalize(path)]
	if !ok {
		return nil, false
	}
	return maps.Clone(rec.params), true
}

// Input returns the node connected to slot of path.
func (h *Host) Input(path string, slot int) (domain.Handle, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rec, ok := h.nodes[normalize(path)]
	if !ok {
		return nil, false
	}
	ref, ok := rec.inputs[slot]
	if !ok {
		return nil, false
	}
	return ref, true
}

// Inputs returns the connected input paths of path, indexed by slot.
// Unconnected slots below the highest connected one are empty strings.
func (h *Host) Inputs(path string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rec, ok := h.nodes[normalize(path)]
	if !ok || len(rec.inputs) == 0 {
		return nil
	}
	out := make([]string, slices.Max(slices.Collect(maps.Keys(rec.inputs)))+1)
	for slot, ref := range rec.inputs {
		out[slot] = ref.path
	}
	return out
}

// Children returns the child names of path in creation order.
func (h *Host) Children(path string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rec, ok := h.nodes[normalize(path)]
	if !ok {
		return nil
	}
	return slices.Clone(rec.children)
}

// Paths returns every node path in sorted order.
func (h *Host) Paths() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Sorted(maps.Keys(h.nodes))
}

// Created returns how many nodes CreateChild has made since the last reset.
func (h *Host) Created() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.created
}

func normalize(path string) string {
	if path == "" {
		return domain.RootPath
	}
	if len(path) > 1 {
		return strings.TrimRight(path, "/")
	}
	return path
}
