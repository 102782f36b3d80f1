package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"runtime/debug"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/nodechain/pkg/domain"
)

// Function is a dispatchable operation. Arguments arrive as strings because they usually
// come from a command line or a subprocess boundary.
type Function func(ctx context.Context, args []string) (map[string]any, error)

// Result is the envelope returned by every call, whatever the outcome.
type Result struct {
	Success   bool           `json:"success"`
	Result    map[string]any `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	Traceback string         `json:"traceback,omitempty"`
}

// Line renders r as a single JSON line without the trailing newline.
func (r Result) Line() string {
	data, err := json.Marshal(r)
	if err != nil {
		data, _ = json.Marshal(Result{Success: false, Error: fmt.Sprintf("unencodable result: %v", err)})
	}
	return string(data)
}

// ParseResult decodes a line produced by Result.Line.
func ParseResult(line []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(line, &r); err != nil {
		return Result{}, fmt.Errorf("invalid result line: %w", err)
	}
	return r, nil
}

// Message wraps a plain message into a result payload.
func Message(msg string) map[string]any {
	return map[string]any{"message": msg}
}

// Entry describes one registered function.
type Entry struct {
	Module      string
	Name        string
	Description string
	fn          Function
}

// QualifiedName returns "module.name".
func (e Entry) QualifiedName() string {
	return e.Module + "." + e.Name
}

// FuncOption configures a registered function.
type FuncOption func(*Entry)

// WithDescription documents a function for listings and MCP tool metadata.
func WithDescription(desc string) FuncOption {
	return func(e *Entry) {
		e.Description = desc
	}
}

// Registry manages the available functions, grouped by module.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Register adds a function to the registry.
// If a function with the same module and name exists, it is overwritten.
func (r *Registry) Register(module, name string, fn Function, opts ...FuncOption) {
	e := Entry{Module: module, Name: name, fn: fn}
	for _, opt := range opts {
		opt(&e)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.QualifiedName()] = e
}

// Lookup returns the entry for module.name.
func (r *Registry) Lookup(module, name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[module+"."+name]
	return e, ok
}

// Entries returns every registered function ordered by qualified name.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, k := range slices.Sorted(maps.Keys(r.entries)) {
		out = append(out, r.entries[k])
	}
	return out
}

// Execute looks up a function and runs it, returning its raw payload.
// Returns domain.ErrUnknownFunction if it is not registered.
func (r *Registry) Execute(ctx context.Context, module, name string, args []string) (map[string]any, error) {
	e, ok := r.Lookup(module, name)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", module, name, domain.ErrUnknownFunction)
	}
	return e.fn(ctx, args)
}

// Call runs a function and folds every outcome, panics included, into a Result.
func (r *Registry) Call(ctx context.Context, module, name string, args []string) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Result{
				Success:   false,
				Error:     fmt.Sprintf("panic: %v", p),
				Traceback: string(debug.Stack()),
			}
		}
	}()

	payload, err := r.Execute(ctx, module, name, args)
	if err != nil {
		return Result{Success: false, Error: err.Error(), Traceback: errorChain(err)}
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return Result{Success: true, Result: payload}
}

// errorChain lists every wrapped error from outermost to innermost, one per line.
func errorChain(err error) string {
	var b strings.Builder
	for e := err; e != nil; e = errors.Unwrap(e) {
		fmt.Fprintf(&b, "%T: %s\n", e, e)
	}
	return b.String()
}
