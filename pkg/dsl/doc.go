/*
Package dsl provides a Go DSL for declaring node graphs that are materialized lazily into a
host scene graph.

Definitions are immutable value objects. A Node describes one prospective host node (parent,
type, optional name, parameters, ordered inputs); a Chain describes an ordered sequence of
nodes, nested chains or existing host nodes that are wired one into the next. Nothing touches
the host until Materialize is called with a Session, and each definition object produces its
concrete node exactly once.

Example usage:

	package main

	import (
		"context"

		"github.com/aretw0/nodechain/pkg/adapters/memory"
		"github.com/aretw0/nodechain/pkg/dsl"
	)

	func main() {
		s := dsl.NewSession(memory.NewHost())

		geo := dsl.NewNode(dsl.Path("/obj"), "geo", dsl.WithName("g"))
		shape := dsl.NewChain([]dsl.Element{
			dsl.NewNode(geo, "box", dsl.WithParam("sizex", 2)),
			dsl.NewNode(geo, "xform", dsl.WithParam("ty", 1)),
			dsl.NewNode(geo, "subdivide"),
		})

		// box -> xform -> subdivide, all created under /obj/g
		nodes, err := shape.Materialize(context.Background(), s)
		if err != nil {
			panic(err)
		}
		_ = nodes
	}

Parents, inputs and chain elements are closed sets of variants (see Parent, Input and
Element). A nil Input is a sparse slot: the corresponding host input is left unconnected
while later slots keep their positions.
*/
package dsl
