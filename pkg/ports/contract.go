package ports

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/nodechain/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunHostContract runs a suite of tests to verify that a Host implementation
// adheres to the defined interface contract. The host must start with an empty
// scene below its root.
func RunHostContract(t *testing.T, host Host) {
	ctx := context.Background()

	t.Run("Lookup Root", func(t *testing.T) {
		root, err := host.LookupNode(ctx, domain.RootPath)
		require.NoError(t, err)
		assert.Equal(t, domain.RootPath, root.Path())
	})

	t.Run("Lookup Non-Existent", func(t *testing.T) {
		_, err := host.LookupNode(ctx, "/contract/missing")
		assert.True(t, errors.Is(err, domain.ErrNotFound), "expected ErrNotFound, got %v", err)
	})

	t.Run("Create And Lookup", func(t *testing.T) {
		root, err := host.LookupNode(ctx, domain.RootPath)
		require.NoError(t, err)

		geo, err := host.CreateChild(ctx, root, "geo", "contract_geo")
		require.NoError(t, err)
		assert.Equal(t, "/contract_geo", geo.Path())
		assert.Equal(t, "geo", geo.TypeName())

		found, err := host.LookupNode(ctx, geo.Path())
		require.NoError(t, err)
		assert.True(t, found == geo, "lookup must return a handle comparable to the created one")
	})

	t.Run("Create Uniquifies Names", func(t *testing.T) {
		root, err := host.LookupNode(ctx, domain.RootPath)
		require.NoError(t, err)

		a, err := host.CreateChild(ctx, root, "geo", "contract_dup")
		require.NoError(t, err)
		b, err := host.CreateChild(ctx, root, "geo", "contract_dup")
		require.NoError(t, err)
		assert.NotEqual(t, a.Path(), b.Path())
	})

	t.Run("Create Default Name", func(t *testing.T) {
		root, err := host.LookupNode(ctx, domain.RootPath)
		require.NoError(t, err)

		n, err := host.CreateChild(ctx, root, "null", "")
		require.NoError(t, err)
		_, name := domain.SplitPath(n.Path())
		assert.NotEmpty(t, name)
	})

	t.Run("Parameters And Inputs", func(t *testing.T) {
		geo, err := host.LookupNode(ctx, "/contract_geo")
		require.NoError(t, err)

		box, err := host.CreateChild(ctx, geo, "box", "box1")
		require.NoError(t, err)
		xform, err := host.CreateChild(ctx, geo, "xform", "xform1")
		require.NoError(t, err)

		assert.NoError(t, host.SetParameters(ctx, box, map[string]any{"sizex": 2.0}))
		assert.NoError(t, host.ConnectInput(ctx, xform, 0, box))
	})
}
