/*
Package nodechain is a declarative builder for graphs of scene nodes.

Nodes and chains of nodes are described up front as lightweight definitions and only turned
into concrete host nodes when something asks for them. Materialization is lazy and memoized:
every definition creates its host node at most once, however many downstream definitions
depend on it, so diamonds of shared upstream work are built a single time.

# Concept

A Node definition names a parent (an absolute path, another definition, or an existing host
node), a node type, an optional name, parameters, and a sparse list of inputs. A Chain is an
ordered sequence of definitions; when materialized, each element after the first is fed its
predecessor in input slot 0, and nested chains are flattened in place.

The host scene graph sits behind ports.Host. This repository ships an in-memory host for
tests and embedding, and a Redis host that lets several processes share one scene.

# Usage

	eng := nodechain.New(memory.NewHost())

	geo := eng.Node(dsl.Path("/obj"), "geo", dsl.WithName("hero"))
	body := eng.Chain(
		eng.Node(geo, "box", dsl.WithParam("size", 2)),
		eng.Node(geo, "xform", dsl.WithName("lift")),
		eng.Node(geo, "subdivide"),
	)

	nodes, err := eng.Materialize(ctx, body)

Calling Materialize again returns the same host nodes without touching the host.

# Recipes

Graphs can also be declared in YAML and built with pkg/recipe, or driven remotely through
the dispatch registry exposed by the nodechain CLI (exec, serve and mcp subcommands).
*/
package nodechain
