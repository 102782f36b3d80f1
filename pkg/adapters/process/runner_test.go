package process_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/nodechain/pkg/adapters/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// script writes an executable shell script and returns its path.
func script(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell fixtures need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "bridge.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestClient_Call(t *testing.T) {
	t.Run("Parses Result Line", func(t *testing.T) {
		bin := script(t, `echo "loading scene..."
echo '{"success":true,"result":{"args":"'"$*"'"}}'`)
		c := process.NewClient(process.BridgeConfig{Binary: bin, Args: []string{"--host", "memory"}})

		res, err := c.Call(context.Background(), "nodechain", "ping", "a", "b")
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "--host memory exec nodechain ping a b", res.Result["args"])
	})

	t.Run("Failure Envelope With Exit Status", func(t *testing.T) {
		bin := script(t, `echo '{"success":false,"error":"boom","traceback":"trace"}'
exit 1`)
		res, err := process.NewClient(process.BridgeConfig{Binary: bin}).Call(context.Background(), "m", "f")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "boom", res.Error)
		assert.Equal(t, "trace", res.Traceback)
	})

	t.Run("Crash Without Result", func(t *testing.T) {
		bin := script(t, `echo "Something went terribly wrong" >&2
exit 123`)
		_, err := process.NewClient(process.BridgeConfig{Binary: bin}).Call(context.Background(), "m", "f")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exit status 123")
		assert.Contains(t, err.Error(), "Something went terribly wrong")
	})

	t.Run("No Result Line", func(t *testing.T) {
		bin := script(t, `echo "not json"`)
		_, err := process.NewClient(process.BridgeConfig{Binary: bin}).Call(context.Background(), "m", "f")
		assert.ErrorIs(t, err, process.ErrNoResult)
	})

	t.Run("Missing Binary", func(t *testing.T) {
		_, err := process.NewClient(process.BridgeConfig{Binary: "/nonexistent/nodechain"}).Call(context.Background(), "m", "f")
		assert.Error(t, err)
	})

	t.Run("Environment", func(t *testing.T) {
		bin := script(t, `echo '{"success":true,"result":{"scene":"'"$NODECHAIN_SCENE"'"}}'`)
		c := process.NewClient(process.BridgeConfig{
			Binary:      bin,
			Environment: map[string]string{"NODECHAIN_SCENE": "shot010"},
		})
		res, err := c.Call(context.Background(), "m", "f")
		require.NoError(t, err)
		assert.Equal(t, "shot010", res.Result["scene"])
	})
}

func TestClient_Timeout(t *testing.T) {
	bin := script(t, `exec sleep 5`)
	c := process.NewClient(process.BridgeConfig{
		Binary:  bin,
		Timeout: 200 * time.Millisecond,
		Grace:   time.Second,
	})

	start := time.Now()
	_, err := c.Call(context.Background(), "m", "f")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("Missing File Uses Defaults", func(t *testing.T) {
		cfg, err := process.LoadConfig(filepath.Join(dir, "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, process.DefaultConfig(), cfg)
	})

	t.Run("YAML", func(t *testing.T) {
		path := filepath.Join(dir, "bridge.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
binary: /opt/scene/bin/nodechain
args: ["--host", "redis"]
env:
  NODECHAIN_SCENE: shot010
timeout: 30s
`), 0o644))

		cfg, err := process.LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "/opt/scene/bin/nodechain", cfg.Binary)
		assert.Equal(t, []string{"--host", "redis"}, cfg.Args)
		assert.Equal(t, "shot010", cfg.Environment["NODECHAIN_SCENE"])
		assert.Equal(t, 30*time.Second, cfg.Timeout)
		assert.Equal(t, 5*time.Second, cfg.Grace)
	})

	t.Run("JSON", func(t *testing.T) {
		path := filepath.Join(dir, "bridge.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"args": ["--debug"]}`), 0o644))

		cfg, err := process.LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, process.DefaultBinary, cfg.Binary)
		assert.Equal(t, []string{"--debug"}, cfg.Args)
	})

	t.Run("Invalid", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("args: [unclosed"), 0o644))
		_, err := process.LoadConfig(path)
		assert.Error(t, err)
	})
}

func TestClient_Command(t *testing.T) {
	c := process.NewClient(process.BridgeConfig{Args: []string{"--debug"}})
	assert.Equal(t, []string{"--debug", "exec", "mod", "fn", "x"}, c.Command("mod", "fn", []string{"x"}))
	assert.Equal(t, process.DefaultBinary, c.Config().Binary)
}
