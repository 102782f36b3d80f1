package nodechain_test

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/nodechain"
	"github.com/aretw0/nodechain/pkg/adapters/memory"
	"github.com/aretw0/nodechain/pkg/domain"
	"github.com/aretw0/nodechain/pkg/dsl"
	"github.com/aretw0/nodechain/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Materialize(t *testing.T) {
	ctx := context.Background()
	host := memory.NewHost()
	eng := nodechain.New(host)

	geo := eng.Node(dsl.Path("/obj"), "geo", dsl.WithName("hero"))
	body := eng.Chain(
		eng.Node(geo, "box", dsl.WithParam("size", 2)),
		eng.Node(geo, "xform", dsl.WithName("lift")),
	)

	handles, err := eng.Materialize(ctx, body)
	require.NoError(t, err)
	require.Len(t, handles, 2)
	assert.Equal(t, "/obj/hero/box1", handles[0].Path())
	assert.Equal(t, "/obj/hero/lift", handles[1].Path())
	assert.Equal(t, []string{"/obj/hero/box1"}, host.Inputs("/obj/hero/lift"))

	again, err := eng.Materialize(ctx, body)
	require.NoError(t, err)
	assert.Equal(t, handles, again)
	assert.Equal(t, 3, host.Created())

	single, err := eng.Materialize(ctx, geo)
	require.NoError(t, err)
	assert.Equal(t, "/obj/hero", single[0].Path())

	ext, err := eng.Materialize(ctx, dsl.Existing(handles[0]))
	require.NoError(t, err)
	assert.Equal(t, handles[0], ext[0])

	_, err = eng.Materialize(ctx, dsl.External{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = eng.Materialize(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEngine_ChainWrapsThroughRegistry(t *testing.T) {
	ctx := context.Background()
	eng := nodechain.New(memory.NewHost())

	obj, err := eng.Lookup(ctx, "/obj")
	require.NoError(t, err)

	c := eng.Chain(dsl.Existing(obj.Handle()))
	first, err := c.At(0)
	require.NoError(t, err)
	assert.Same(t, eng.Wrap(obj.Handle()), first)
	assert.Same(t, obj, first)
}

func TestEngine_MetricsAndHooks(t *testing.T) {
	ctx := context.Background()
	metrics := observability.NewMetrics()

	var created []string
	eng := nodechain.New(memory.NewHost(),
		nodechain.WithMetrics(metrics),
		nodechain.WithLifecycleHooks(domain.LifecycleHooks{
			OnNodeCreated: func(_ context.Context, e *domain.NodeEvent) {
				created = append(created, e.Path)
			},
		}),
	)
	assert.Same(t, metrics, eng.Metrics())

	_, err := eng.Materialize(ctx, eng.Node(dsl.Path("/obj"), "geo", dsl.WithName("g")))
	require.NoError(t, err)
	assert.Equal(t, []string{"/obj/g"}, created)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `nodechain_nodes_created_total{type="geo"} 1`)
}

func TestEngine_SharedRegistryAndReset(t *testing.T) {
	ctx := context.Background()
	reg := dsl.NewRegistry()
	host := memory.NewHost()
	a := nodechain.New(host, nodechain.WithRegistry(reg))
	b := nodechain.New(host, nodechain.WithRegistry(reg))
	assert.Same(t, a.Root(), b.Root())

	n := a.Node(dsl.Path("/obj"), "geo")
	hs, err := a.Materialize(ctx, n)
	require.NoError(t, err)

	got, ok := b.Registry().Lookup(hs[0])
	require.True(t, ok)
	assert.Same(t, n, got)

	require.NoError(t, b.Reset(ctx))
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 0, host.Created())
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, nodechain.Version)
	assert.NotContains(t, nodechain.Version, "\n")
}
