package nodechain_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/nodechain"
	"github.com/aretw0/nodechain/pkg/adapters/memory"
	"github.com/aretw0/nodechain/pkg/dsl"
)

// ExampleNew shows a diamond: one upstream chain feeding two branches merged back together.
// The upstream chain is created once although both branches depend on it.
func ExampleNew() {
	ctx := context.Background()
	host := memory.NewHost()
	eng := nodechain.New(host)

	geo := eng.Node(dsl.Path("/obj"), "geo", dsl.WithName("diamond"))
	base := eng.Chain(
		eng.Node(geo, "box", dsl.WithName("source")),
		eng.Node(geo, "xform", dsl.WithName("center")),
	)
	left := eng.Node(geo, "xform", dsl.WithName("left"), dsl.WithInputs(base))
	right := eng.Node(geo, "xform", dsl.WithName("right"), dsl.WithInputs(base))
	merge := eng.Node(geo, "merge", dsl.WithName("combine"), dsl.WithInputs(left, right))

	if _, err := eng.Materialize(ctx, merge); err != nil {
		log.Fatal(err)
	}

	fmt.Println(host.Inputs("/obj/diamond/combine"))
	fmt.Println(host.Inputs("/obj/diamond/left"), host.Inputs("/obj/diamond/right"))
	fmt.Println(host.Created())
	// Output:
	// [/obj/diamond/left /obj/diamond/right]
	// [/obj/diamond/center] [/obj/diamond/center]
	// 6
}
