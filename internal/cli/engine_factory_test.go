package cli

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/nodechain/internal/logging"
	"github.com/aretw0/nodechain/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sceneRecipe = `
nodes:
  geo: {parent: /obj, type: geo, name: hero}
chains:
  body:
    elements:
      - {parent: "@geo", type: box, name: shape}
      - {parent: "@geo", type: xform, name: lift}
targets: [body]
`

func writeRecipe(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sceneRecipe), 0o644))
	return path
}

func TestNewRuntime(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory", func(t *testing.T) {
		rt, err := NewRuntime(ctx, Options{}, logging.NewNop())
		require.NoError(t, err)
		defer rt.Close()
		assert.Nil(t, rt.Locker)
		_, ok := rt.Functions.Lookup("nodechain", "build_recipe")
		assert.True(t, ok)
	})

	t.Run("Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		rt, err := NewRuntime(ctx, Options{Host: HostRedis, RedisAddr: mr.Addr()}, logging.NewNop())
		require.NoError(t, err)
		defer rt.Close()
		assert.NotNil(t, rt.Locker)
		assert.True(t, mr.Exists("nodechain:scene:node:/obj"))
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := NewRuntime(ctx, Options{Host: "maya"}, logging.NewNop())
		assert.Error(t, err)
	})
}

func TestBuildAndGraph(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rt, err := NewRuntime(ctx, Options{Host: HostRedis, RedisAddr: mr.Addr(), Debug: true}, logging.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	path := writeRecipe(t)
	var out bytes.Buffer
	created, err := Build(ctx, rt, path, &out, false)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, []string{"/obj/hero/shape", "/obj/hero/lift"}, created[0].Paths)
	assert.Contains(t, out.String(), "| body | 2 | `/obj/hero/lift` |")
	assert.False(t, mr.Exists("nodechain:lock:dispatch"), "batch lock is released")

	diagram, err := Graph(path, created[0].Paths)
	require.NoError(t, err)
	assert.Contains(t, diagram, "graph LR")
	assert.Contains(t, diagram, "class ")
}

func TestExec(t *testing.T) {
	ctx := context.Background()
	rt, err := NewRuntime(ctx, Options{}, logging.NewNop())
	require.NoError(t, err)

	var out bytes.Buffer
	ok := Exec(ctx, rt, "nodechain", "create_node", []string{"/obj", "geo", "g"}, &out)
	assert.True(t, ok)
	res, err := registry.ParseResult(bytes.TrimSpace(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "/obj/g", res.Result["path"])
	assert.Equal(t, 1, bytes.Count(out.Bytes(), []byte("\n")), "exactly one line")

	out.Reset()
	assert.False(t, Exec(ctx, rt, "nodechain", "missing", nil, &out))
	res, err = registry.ParseResult(bytes.TrimSpace(out.Bytes()))
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestServe(t *testing.T) {
	rt, err := NewRuntime(context.Background(), Options{}, logging.NewNop())
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var out bytes.Buffer
	go func() { done <- Serve(ctx, rt, l, &out) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + l.Addr().String() + "/healthz")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
