package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/nodechain/pkg/domain"
	"github.com/aretw0/nodechain/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Ref is a handle to a node stored in Redis. It is a comparable value.
type Ref struct {
	path string
	typ  string
}

// Path returns the absolute node path.
func (r Ref) Path() string { return r.path }

// TypeName returns the node type.
func (r Ref) TypeName() string { return r.typ }

// Host implements ports.Host with the scene graph stored in Redis, so that several
// processes can drive the same scene.
//
// Layout, relative to the prefix:
//
//	node:<path>      hash, field "type"
//	children:<path>  list of child names in creation order
//	params:<path>    hash of JSON-encoded parameter values
//	inputs:<path>    hash of slot -> source path
//	index            set of every node path
type Host struct {
	client *backend.Client
	prefix string
}

// Option configures a Host.
type Option func(*Host)

// WithPrefix sets the key prefix for the scene.
func WithPrefix(prefix string) Option {
	return func(h *Host) {
		h.prefix = prefix
	}
}

// New creates a Redis host connected to address.
func New(address, password string, db int, opts ...Option) *Host {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis host from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Host {
	h := &Host{
		client: client,
		prefix: "nodechain:scene:",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var (
	_ ports.Host       = (*Host)(nil)
	_ ports.Resettable = (*Host)(nil)
)

func (h *Host) nodeKey(path string) string     { return h.prefix + "node:" + path }
func (h *Host) childrenKey(path string) string { return h.prefix + "children:" + path }
func (h *Host) paramsKey(path string) string   { return h.prefix + "params:" + path }
func (h *Host) inputsKey(path string) string   { return h.prefix + "inputs:" + path }
func (h *Host) indexKey() string               { return h.prefix + "index" }

// Init creates the root and the conventional top-level networks if they are missing.
func (h *Host) Init(ctx context.Context) error {
	if _, err := h.claim(ctx, domain.RootPath, domain.RootType); err != nil {
		return err
	}
	for _, n := range []struct{ name, typ string }{{"obj", "objnet"}, {"out", "ropnet"}, {"mat", "matnet"}} {
		path := domain.JoinPath(domain.RootPath, n.name)
		ok, err := h.claim(ctx, path, n.typ)
		if err != nil {
			return err
		}
		if ok {
			if err := h.client.RPush(ctx, h.childrenKey(domain.RootPath), n.name).Err(); err != nil {
				return fmt.Errorf("failed to link %s: %w", path, err)
			}
		}
	}
	return nil
}

// claim atomically creates the node record at path. It reports false if path is taken.
func (h *Host) claim(ctx context.Context, path, typ string) (bool, error) {
	ok, err := h.client.HSetNX(ctx, h.nodeKey(path), "type", typ).Result()
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if ok {
		if err := h.client.SAdd(ctx, h.indexKey(), path).Err(); err != nil {
			return false, fmt.Errorf("failed to index %s: %w", path, err)
		}
	}
	return ok, nil
}

// LookupNode resolves path to a node.
func (h *Host) LookupNode(ctx context.Context, path string) (domain.Handle, error) {
	if path == "" {
		path = domain.RootPath
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	typ, err := h.client.HGet(ctx, h.nodeKey(path), "type").Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			if path == domain.RootPath {
				return Ref{path: domain.RootPath, typ: domain.RootType}, nil
			}
			return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lookup %s: %w", path, err)
	}
	return Ref{path: path, typ: typ}, nil
}

// CreateChild creates a node under parent, bumping the numeric suffix of taken names.
func (h *Host) CreateChild(ctx context.Context, parent domain.Handle, typeTag, name string) (domain.Handle, error) {
	if typeTag == "" {
		return nil, fmt.Errorf("empty node type")
	}
	pref, err := h.LookupNode(ctx, parent.Path())
	if err != nil {
		return nil, fmt.Errorf("parent: %w", err)
	}

	if name == "" {
		name = typeTag + "1"
	}
	base := strings.TrimRight(name, "0123456789")
	n, _ := strconv.Atoi(name[len(base):])

	candidate := name
	for {
		path := domain.JoinPath(pref.Path(), candidate)
		ok, err := h.claim(ctx, path, typeTag)
		if err != nil {
			return nil, err
		}
		if ok {
			if err := h.client.RPush(ctx, h.childrenKey(pref.Path()), candidate).Err(); err != nil {
				return nil, fmt.Errorf("failed to link %s: %w", path, err)
			}
			return Ref{path: path, typ: typeTag}, nil
		}
		n++
		candidate = base + strconv.Itoa(n)
	}
}

func (h *Host) exists(ctx context.Context, path string) error {
	if path == domain.RootPath {
		return nil
	}
	n, err := h.client.Exists(ctx, h.nodeKey(path)).Result()
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	return nil
}

// SetParameters stores every parameter as a JSON value.
func (h *Host) SetParameters(ctx context.Context, node domain.Handle, params map[string]any) error {
	if err := h.exists(ctx, node.Path()); err != nil {
		return err
	}
	if len(params) == 0 {
		return nil
	}
	values := make(map[string]any, len(params))
	for k, v := range params {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode parameter %s: %w", k, err)
		}
		values[k] = string(data)
	}
	if err := h.client.HSet(ctx, h.paramsKey(node.Path()), values).Err(); err != nil {
		return fmt.Errorf("failed to set parameters on %s: %w", node.Path(), err)
	}
	return nil
}

// ConnectInput records source as input slot of node.
func (h *Host) ConnectInput(ctx context.Context, node domain.Handle, slot int, source domain.Handle) error {
	if slot < 0 {
		return fmt.Errorf("negative input slot %d", slot)
	}
	if err := h.exists(ctx, node.Path()); err != nil {
		return err
	}
	if err := h.exists(ctx, source.Path()); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := h.client.HSet(ctx, h.inputsKey(node.Path()), strconv.Itoa(slot), source.Path()).Err(); err != nil {
		return fmt.Errorf("failed to connect %s: %w", node.Path(), err)
	}
	return nil
}

// Params returns the decoded parameters of path.
func (h *Host) Params(ctx context.Context, path string) (map[string]any, error) {
	raw, err := h.client.HGetAll(ctx, h.paramsKey(path)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read parameters of %s: %w", path, err)
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal([]byte(v), &val); err != nil {
			return nil, fmt.Errorf("failed to decode parameter %s: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}

// Inputs returns the source paths connected to path, by slot.
func (h *Host) Inputs(ctx context.Context, path string) (map[int]string, error) {
	raw, err := h.client.HGetAll(ctx, h.inputsKey(path)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs of %s: %w", path, err)
	}
	out := make(map[int]string, len(raw))
	for k, v := range raw {
		slot, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("corrupt input slot %q on %s", k, path)
		}
		out[slot] = v
	}
	return out, nil
}

// Children returns the child names of path in creation order.
func (h *Host) Children(ctx context.Context, path string) ([]string, error) {
	names, err := h.client.LRange(ctx, h.childrenKey(path), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list children of %s: %w", path, err)
	}
	return names, nil
}

// Reset deletes the whole scene and recreates the top-level networks.
func (h *Host) Reset(ctx context.Context) error {
	paths, err := h.client.SMembers(ctx, h.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to list scene: %w", err)
	}

	pipe := h.client.Pipeline()
	for _, p := range paths {
		pipe.Del(ctx, h.nodeKey(p), h.childrenKey(p), h.paramsKey(p), h.inputsKey(p))
	}
	pipe.Del(ctx, h.indexKey(), h.childrenKey(domain.RootPath))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to wipe scene: %w", err)
	}
	return h.Init(ctx)
}

// Close closes the redis client.
func (h *Host) Close() error {
	return h.client.Close()
}
