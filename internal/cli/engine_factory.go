package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/nodechain"
	"github.com/aretw0/nodechain/internal/functions"
	"github.com/aretw0/nodechain/pkg/adapters/memory"
	"github.com/aretw0/nodechain/pkg/adapters/redis"
	"github.com/aretw0/nodechain/pkg/observability"
	"github.com/aretw0/nodechain/pkg/ports"
	"github.com/aretw0/nodechain/pkg/registry"
	backend "github.com/redis/go-redis/v9"
)

// Host backends accepted by --host.
const (
	HostMemory = "memory"
	HostRedis  = "redis"
)

// Options holds the persistent CLI flags.
type Options struct {
	Host          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	Debug         bool
}

// Runtime is everything a command needs: the engine, the dispatch registry bound to it,
// and, for shared hosts, a locker serializing call batches.
type Runtime struct {
	Engine    *nodechain.Engine
	Functions *registry.Registry
	Metrics   *observability.Metrics
	Locker    ports.DistributedLocker
	Logger    *slog.Logger
	closers   []func() error
}

// Close releases the host connection.
func (r *Runtime) Close() error {
	var errs []string
	for _, c := range r.closers {
		if err := c(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close: %s", strings.Join(errs, "; "))
	}
	return nil
}

// NewRuntime opens the host selected by opts and builds an engine on top of it.
func NewRuntime(ctx context.Context, opts Options, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{
		Functions: registry.NewRegistry(),
		Metrics:   observability.NewMetrics(),
		Logger:    logger,
	}

	var host ports.Host
	switch opts.Host {
	case "", HostMemory:
		host = memory.NewHost()
	case HostRedis:
		prefix := opts.RedisPrefix
		if prefix == "" {
			prefix = "nodechain:"
		}
		client := backend.NewClient(&backend.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		rh := redis.NewFromClient(client, redis.WithPrefix(prefix+"scene:"))
		if err := rh.Init(ctx); err != nil {
			client.Close()
			return nil, fmt.Errorf("error initializing redis host at %s: %w", opts.RedisAddr, err)
		}
		host = rh
		rt.Locker = redis.NewLocker(client, prefix)
		rt.closers = append(rt.closers, rh.Close)
	default:
		return nil, fmt.Errorf("unknown host %q (want %s or %s)", opts.Host, HostMemory, HostRedis)
	}

	engineOpts := []nodechain.Option{
		nodechain.WithLogger(logger),
		nodechain.WithMetrics(rt.Metrics),
	}
	if opts.Debug {
		engineOpts = append(engineOpts, nodechain.WithLifecycleHooks(createDebugHooks(logger)))
	}
	rt.Engine = nodechain.New(host, engineOpts...)

	functions.Register(rt.Functions, rt.Engine.Session())
	return rt, nil
}
