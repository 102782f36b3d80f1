package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/nodechain"
	"github.com/aretw0/nodechain/internal/presentation/graph"
	"github.com/aretw0/nodechain/internal/presentation/tui"
	httpAdapter "github.com/aretw0/nodechain/pkg/adapters/http"
	mcpAdapter "github.com/aretw0/nodechain/pkg/adapters/mcp"
	"github.com/aretw0/nodechain/pkg/adapters/process"
	"github.com/aretw0/nodechain/pkg/recipe"
	"github.com/aretw0/nodechain/pkg/registry"
)

// LockTTL bounds how long one call batch may hold the scene.
const LockTTL = 30 * time.Second

// Build materializes a recipe and writes a summary to w. Pretty output renders the summary
// as markdown for a terminal.
func Build(ctx context.Context, rt *Runtime, path string, w io.Writer, pretty bool) ([]recipe.Created, error) {
	r, err := recipe.Load(path)
	if err != nil {
		return nil, err
	}
	built, err := r.Build(rt.Engine.Registry())
	if err != nil {
		return nil, err
	}

	if rt.Locker != nil {
		unlock, err := rt.Locker.Lock(ctx, httpAdapter.BatchLockKey, LockTTL)
		if err != nil {
			return nil, err
		}
		defer unlock(context.WithoutCancel(ctx))
	}

	created, err := built.Materialize(ctx, rt.Engine.Session())
	if err != nil {
		return created, err
	}

	md := tui.SummaryMarkdown(created)
	if pretty {
		out, err := tui.NewRenderer()(md)
		if err == nil {
			md = out
		}
	}
	fmt.Fprint(w, md)
	return created, nil
}

// Graph renders the definitions of a recipe as a Mermaid diagram. When created is not empty,
// those paths are highlighted.
func Graph(path string, created []string) (string, error) {
	r, err := recipe.Load(path)
	if err != nil {
		return "", err
	}
	built, err := r.Build(nil)
	if err != nil {
		return "", err
	}
	var overlay *graph.GraphOverlay
	if len(created) > 0 {
		overlay = &graph.GraphOverlay{CreatedPaths: created}
	}
	return graph.GenerateMermaid(built.SortedNodes(), built.SortedChains(), overlay), nil
}

// Exec runs one dispatch function and prints its result as a single JSON line.
// It reports whether the call succeeded.
func Exec(ctx context.Context, rt *Runtime, module, function string, args []string, w io.Writer) bool {
	if rt.Locker != nil {
		unlock, err := rt.Locker.Lock(ctx, httpAdapter.BatchLockKey, LockTTL)
		if err != nil {
			fmt.Fprintln(w, registry.Result{Success: false, Error: err.Error()}.Line())
			return false
		}
		defer unlock(context.WithoutCancel(ctx))
	}

	res := rt.Functions.Call(ctx, module, function, args)
	fmt.Fprintln(w, res.Line())
	return res.Success
}

// Serve runs the HTTP bridge on l until ctx is done.
func Serve(ctx context.Context, rt *Runtime, l net.Listener, out io.Writer) error {
	opts := []httpAdapter.Option{
		httpAdapter.WithLogger(rt.Logger),
		httpAdapter.WithMetricsHandler(rt.Metrics.Handler()),
	}
	if rt.Locker != nil {
		opts = append(opts, httpAdapter.WithLocker(rt.Locker, LockTTL))
	}
	srv := &http.Server{
		Handler:           httpAdapter.NewHandler(rt.Functions, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(out, "Serving nodechain on %s", l.Addr())
		serverErrors <- srv.Serve(l)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		printSystemMessage(out, "Server stopped gracefully")
		return nil
	}
}

// ServeMCP runs the MCP bridge over stdio.
func ServeMCP(rt *Runtime) error {
	opts := []mcpAdapter.Option{mcpAdapter.WithLogger(rt.Logger)}
	if rt.Locker != nil {
		opts = append(opts, mcpAdapter.WithLocker(rt.Locker, LockTTL))
	}
	return mcpAdapter.NewServer(rt.Functions, nodechain.Version, opts...).ServeStdio()
}

// Call runs a function in another process through the bridge described by cfgPath and
// prints the result line. It reports whether the call succeeded.
func Call(ctx context.Context, cfgPath, module, function string, args []string, w io.Writer) (bool, error) {
	cfg, err := process.LoadConfig(cfgPath)
	if err != nil {
		return false, err
	}
	res, err := process.NewClient(cfg).Call(ctx, module, function, args...)
	if err != nil {
		return false, err
	}
	fmt.Fprintln(w, res.Line())
	return res.Success, nil
}
