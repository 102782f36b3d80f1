// Package functions holds the dispatch functions the CLI and the bridges expose.
package functions

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/nodechain/pkg/domain"
	"github.com/aretw0/nodechain/pkg/dsl"
	"github.com/aretw0/nodechain/pkg/recipe"
	"github.com/aretw0/nodechain/pkg/registry"
	"gopkg.in/yaml.v3"
)

// Module is the dispatch module the built-in functions are registered under.
const Module = "nodechain"

// Register adds the built-in functions, bound to s, to reg.
func Register(reg *registry.Registry, s *dsl.Session) {
	f := &builtins{session: s}
	reg.Register(Module, "ping", f.ping,
		registry.WithDescription("Check that the scene host answers."))
	reg.Register(Module, "reset", f.reset,
		registry.WithDescription("Forget every definition and wipe the host scene."))
	reg.Register(Module, "describe", f.describe,
		registry.WithDescription("Describe the node at a path: describe <path>."))
	reg.Register(Module, "create_node", f.createNode,
		registry.WithDescription("Create one node: create_node <parent> <type> [name] [key=value...]."))
	reg.Register(Module, "create_chain", f.createChain,
		registry.WithDescription("Create a chain of nodes wired in sequence: create_chain <parent> <type>..."))
	reg.Register(Module, "build_recipe", f.buildRecipe,
		registry.WithDescription("Materialize a YAML recipe: build_recipe <path>."))
}

type builtins struct {
	session *dsl.Session
}

func (f *builtins) ping(ctx context.Context, _ []string) (map[string]any, error) {
	if _, err := f.session.Lookup(ctx, domain.RootPath); err != nil {
		return nil, err
	}
	return registry.Message("pong"), nil
}

func (f *builtins) reset(ctx context.Context, _ []string) (map[string]any, error) {
	if err := f.session.Reset(ctx); err != nil {
		return nil, err
	}
	return registry.Message("scene reset"), nil
}

func (f *builtins) describe(ctx context.Context, args []string) (map[string]any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("describe: expected <path>, got %d arguments", len(args))
	}
	h, err := f.session.Host().LookupNode(ctx, args[0])
	if err != nil {
		return nil, err
	}

	out := map[string]any{
		"path": h.Path(),
		"type": h.TypeName(),
	}
	if n, ok := f.session.Registry().Lookup(h); ok {
		out["definition"] = n.String()
		out["registered"] = true
		if params := n.Params().Map(); len(params) > 0 {
			out["params"] = params
		}
	} else {
		out["registered"] = false
	}
	return out, nil
}

func (f *builtins) createNode(ctx context.Context, args []string) (map[string]any, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("create_node: expected <parent> <type> [name] [key=value...]")
	}
	parent, typeTag, rest := args[0], args[1], args[2:]

	var opts []dsl.NodeOption
	if len(rest) > 0 && !strings.Contains(rest[0], "=") {
		opts = append(opts, dsl.WithName(rest[0]))
		rest = rest[1:]
	}
	params, err := parseParams(rest)
	if err != nil {
		return nil, err
	}
	opts = append(opts, dsl.WithParams(params))

	h, err := dsl.NewNode(dsl.Path(parent), typeTag, opts...).Materialize(ctx, f.session)
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": h.Path(), "type": h.TypeName()}, nil
}

func (f *builtins) createChain(ctx context.Context, args []string) (map[string]any, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("create_chain: expected <parent> <type>...")
	}
	parent := dsl.Path(args[0])
	elements := make([]dsl.Element, 0, len(args)-1)
	for _, typeTag := range args[1:] {
		elements = append(elements, dsl.NewNode(parent, typeTag))
	}

	c := dsl.NewChain(elements, dsl.WithRegistry(f.session.Registry()))
	handles, err := c.Handles(ctx, f.session)
	if err != nil {
		return nil, err
	}
	paths := make([]any, 0, len(handles))
	for _, h := range handles {
		paths = append(paths, h.Path())
	}
	return map[string]any{"paths": paths}, nil
}

func (f *builtins) buildRecipe(ctx context.Context, args []string) (map[string]any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("build_recipe: expected <path>, got %d arguments", len(args))
	}
	r, err := recipe.Load(args[0])
	if err != nil {
		return nil, err
	}
	built, err := r.Build(f.session.Registry())
	if err != nil {
		return nil, err
	}
	created, err := built.Materialize(ctx, f.session)
	if err != nil {
		return nil, err
	}

	targets := make(map[string]any, len(created))
	for _, c := range created {
		paths := make([]any, 0, len(c.Paths))
		for _, p := range c.Paths {
			paths = append(paths, p)
		}
		targets[c.Target] = paths
	}
	return map[string]any{"targets": targets}, nil
}

// parseParams turns key=value pairs into parameters. Values are read as YAML scalars,
// so "size=2" gives an int and "label=box" a string.
func parseParams(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", p)
		}
		var val any
		if err := yaml.Unmarshal([]byte(v), &val); err != nil {
			return nil, fmt.Errorf("parameter %s: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}
