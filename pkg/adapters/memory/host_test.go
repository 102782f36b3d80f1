package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/nodechain/pkg/adapters/memory"
	"github.com/aretw0/nodechain/pkg/domain"
	"github.com/aretw0/nodechain/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryHost_Contract(t *testing.T) {
	host := memory.NewHost()
	ports.RunHostContract(t, host)
}

func TestMemoryHost_NamingAndReset(t *testing.T) {
	ctx := context.Background()
	host := memory.NewHost()

	obj, err := host.LookupNode(ctx, "/obj")
	require.NoError(t, err)
	assert.Equal(t, "objnet", obj.TypeName())

	a, err := host.CreateChild(ctx, obj, "geo", "")
	require.NoError(t, err)
	b, err := host.CreateChild(ctx, obj, "geo", "")
	require.NoError(t, err)
	c, err := host.CreateChild(ctx, obj, "geo", "geo1")
	require.NoError(t, err)

	assert.Equal(t, "/obj/geo1", a.Path())
	assert.Equal(t, "/obj/geo2", b.Path())
	assert.Equal(t, "/obj/geo3", c.Path())
	assert.Equal(t, []string{"geo1", "geo2", "geo3"}, host.Children("/obj"))
	assert.Equal(t, 3, host.Created())

	require.NoError(t, host.Reset(ctx))
	assert.Equal(t, 0, host.Created())
	assert.Empty(t, host.Children("/obj"))
	_, err = host.LookupNode(ctx, "/obj/geo1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryHost_InputsAndParams(t *testing.T) {
	ctx := context.Background()
	host := memory.NewHost()

	obj, _ := host.LookupNode(ctx, "/obj")
	a, _ := host.CreateChild(ctx, obj, "null", "a")
	m, _ := host.CreateChild(ctx, obj, "merge", "m")

	require.NoError(t, host.ConnectInput(ctx, m, 2, a))
	assert.Equal(t, []string{"", "", "/obj/a"}, host.Inputs("/obj/m"))

	src, ok := host.Input("/obj/m", 2)
	require.True(t, ok)
	assert.True(t, src == a)

	require.NoError(t, host.SetParameters(ctx, a, map[string]any{"tx": 1}))
	params, ok := host.Params("/obj/a")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"tx": 1}, params)
}

func TestMemoryHost_FailureInjection(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	host := memory.NewHost(
		memory.WithParameterFailure("box", boom),
		memory.WithConnectFailure("xform", boom),
	)

	obj, _ := host.LookupNode(ctx, "/obj")
	box, _ := host.CreateChild(ctx, obj, "box", "")
	xf, _ := host.CreateChild(ctx, obj, "xform", "")

	assert.ErrorIs(t, host.SetParameters(ctx, box, map[string]any{"sizex": 1}), boom)
	assert.ErrorIs(t, host.ConnectInput(ctx, xf, 0, box), boom)
	assert.NoError(t, host.SetParameters(ctx, xf, map[string]any{"ty": 1}))
}
