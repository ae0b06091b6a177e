package circulation_test

import (
	"fmt"

	"github.com/matzehuels/giftgraph/pkg/circulation"
	"github.com/matzehuels/giftgraph/pkg/gift"
)

func ExampleBuild() {
	users := []gift.User{{ID: "u1", Name: "Alice"}, {ID: "u2", Name: "Bob"}}
	gifts := []gift.Gift{
		{ID: "g1", SenderID: "u1", ReceiverID: "u2", Tips: 2},
		{ID: "g2", SenderID: "u1", ReceiverID: "u2"},
		{ID: "g3", SenderID: "u2", ReceiverID: "u1"},
	}

	g := circulation.Build(users, gifts)
	for _, e := range g.Edges {
		fmt.Printf("%s -> %s weight=%.1f\n", e.From, e.To, e.Weight)
	}
	fmt.Println("nodes:", len(g.Nodes))
	// Output:
	// u1 -> u2 weight=3.0
	// u2 -> u1 weight=1.0
	// nodes: 2
}
