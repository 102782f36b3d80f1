package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/nodechain/pkg/adapters/redis"
	"github.com/aretw0/nodechain/pkg/registry"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *registry.Registry {
	reg := registry.NewRegistry()
	reg.Register("test", "echo", func(_ context.Context, args []string) (map[string]any, error) {
		return map[string]any{"args": args}, nil
	}, registry.WithDescription("Echo the arguments"))
	reg.Register("test", "fail", func(context.Context, []string) (map[string]any, error) {
		return nil, errors.New("boom")
	})
	return reg
}

func call(t *testing.T, h http.Handler, path, body string) (*httptest.ResponseRecorder, registry.Result) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var res registry.Result
	if w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	}
	return w, res
}

func TestCall(t *testing.T) {
	h := NewHandler(testRegistry())

	t.Run("Success", func(t *testing.T) {
		w, res := call(t, h, "/call/test/echo", `{"args": ["a", "b"]}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, res.Success)
		assert.Equal(t, []any{"a", "b"}, res.Result["args"])
	})

	t.Run("Empty Body", func(t *testing.T) {
		w, res := call(t, h, "/call/test/echo", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, res.Success)
	})

	t.Run("Failure Envelope", func(t *testing.T) {
		w, res := call(t, h, "/call/test/fail", `{}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, res.Success)
		assert.Equal(t, "boom", res.Error)
		assert.NotEmpty(t, res.Traceback)
	})

	t.Run("Unknown Function", func(t *testing.T) {
		w, res := call(t, h, "/call/test/missing", `{}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.False(t, res.Success)
	})

	t.Run("Bad Body", func(t *testing.T) {
		w, _ := call(t, h, "/call/test/echo", `{"args": "not-a-list"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListFunctions(t *testing.T) {
	h := NewHandler(testRegistry())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/functions", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var out []FunctionInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, FunctionInfo{Module: "test", Name: "echo", Description: "Echo the arguments"}, out[0])
}

func TestHealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("nodechain_nodes_created_total 0\n"))
	})
	h := NewHandler(testRegistry(), WithMetricsHandler(metrics))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "nodechain_nodes_created_total")
}

func TestCall_SerializedByLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	locker := redis.NewLocker(client, "test:", redis.WithRetryInterval(5*time.Millisecond))

	var active, peak atomic.Int32
	reg := registry.NewRegistry()
	reg.Register("test", "slow", func(context.Context, []string) (map[string]any, error) {
		n := active.Add(1)
		defer active.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return nil, nil
	})
	h := NewHandler(reg, WithLocker(locker, time.Second))

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, res := call(t, h, "/call/test/slow", `{}`)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.True(t, res.Success)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
}
