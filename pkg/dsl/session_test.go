package dsl_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/nodechain/pkg/adapters/memory"
	"github.com/aretw0/nodechain/pkg/domain"
	"github.com/aretw0/nodechain/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Lookup(t *testing.T) {
	ctx := context.Background()
	_, s := newSession(t)

	root, err := s.Lookup(ctx, "/")
	require.NoError(t, err)
	assert.Same(t, s.Root(), root)

	obj, err := s.Lookup(ctx, "/obj")
	require.NoError(t, err)
	assert.Equal(t, "/obj", obj.Path())

	_, err = s.Lookup(ctx, "/missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSession_Reset(t *testing.T) {
	ctx := context.Background()
	host, s := newSession(t)

	d := dsl.NewNode(dsl.Path("/obj"), "geo", dsl.WithName("g"))
	_, err := d.Materialize(ctx, s)
	require.NoError(t, err)
	require.Equal(t, 1, host.Created())

	require.NoError(t, s.Reset(ctx))
	assert.Equal(t, 0, host.Created())
	assert.Equal(t, 0, s.Registry().Len())
	assert.Equal(t, uint64(1), s.Registry().Generation())

	fresh := dsl.NewNode(dsl.Path("/obj"), "geo", dsl.WithName("g"))
	h, err := fresh.Materialize(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "/obj/g", h.Path(), "host scene was wiped")
}

func TestSession_SharedRegistry(t *testing.T) {
	reg := dsl.NewRegistry()
	a := dsl.NewSession(memory.NewHost(), dsl.WithSessionRegistry(reg))
	b := dsl.NewSession(memory.NewHost(), dsl.WithSessionRegistry(reg))

	assert.Same(t, a.Registry(), b.Registry())
	assert.Same(t, a.Root(), b.Root())
}

func TestSession_ConcurrentMaterialize(t *testing.T) {
	ctx := context.Background()
	host, s := newSession(t)

	geo := dsl.NewNode(dsl.Path("/obj"), "geo", dsl.WithName("g"))
	ch := dsl.NewChain([]dsl.Element{
		dsl.NewNode(geo, "box"),
		dsl.NewNode(geo, "xform"),
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ch.Materialize(ctx, s)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, host.Created(), "concurrent callers never double-create")
}
