package dsl

import (
	"fmt"
	"iter"
	"maps"
	"reflect"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Parameters is an immutable, order-independent mapping of host parameter names to values.
// Values are passed to the host untouched; numbers, strings and booleans are expected.
// The zero value is an empty mapping.
type Parameters struct {
	m map[string]any
}

// NewParameters copies m into a new Parameters value.
func NewParameters(m map[string]any) Parameters {
	if len(m) == 0 {
		return Parameters{}
	}
	return Parameters{m: maps.Clone(m)}
}

// Len returns the number of parameters.
func (p Parameters) Len() int {
	return len(p.m)
}

// Get returns the value stored under key.
func (p Parameters) Get(key string) (any, bool) {
	v, ok := p.m[key]
	return v, ok
}

// Keys returns the parameter names in sorted order.
func (p Parameters) Keys() []string {
	return slices.Sorted(maps.Keys(p.m))
}

// All iterates over the parameters in key order.
func (p Parameters) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range p.Keys() {
			if !yield(k, p.m[k]) {
				return
			}
		}
	}
}

// Map returns a mutable copy of the parameters.
func (p Parameters) Map() map[string]any {
	out := make(map[string]any, len(p.m))
	maps.Copy(out, p.m)
	return out
}

// Clone returns an equal Parameters value that shares no storage with p.
func (p Parameters) Clone() Parameters {
	return Parameters{m: p.Map()}
}

// With returns a copy of p with key set to value.
func (p Parameters) With(key string, value any) Parameters {
	m := p.Map()
	m[key] = value
	return Parameters{m: m}
}

// Equal reports whether both mappings hold the same keys and values.
func (p Parameters) Equal(o Parameters) bool {
	if len(p.m) != len(o.m) {
		return false
	}
	for k, v := range p.m {
		ov, ok := o.m[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

// Hash returns a hash consistent with Equal for the supported value kinds.
func (p Parameters) Hash() uint64 {
	d := xxhash.New()
	for k, v := range p.All() {
		_, _ = fmt.Fprintf(d, "%s=%T:%v;", k, v, v)
	}
	return d.Sum64()
}

// String renders the parameters as k=v pairs in key order.
func (p Parameters) String() string {
	buf := make([]byte, 0, 16*len(p.m))
	buf = append(buf, '{')
	first := true
	for k, v := range p.All() {
		if !first {
			buf = append(buf, ' ')
		}
		first = false
		buf = fmt.Appendf(buf, "%s=%v", k, v)
	}
	return string(append(buf, '}'))
}
