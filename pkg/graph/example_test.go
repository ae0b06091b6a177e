package graph_test

import (
	"fmt"

	"github.com/matzehuels/giftgraph/pkg/circulation"
	"github.com/matzehuels/giftgraph/pkg/gift"
	"github.com/matzehuels/giftgraph/pkg/graph"
)

func ExampleMarshalGraph() {
	users := []gift.User{{ID: "u1", Name: "Alice"}, {ID: "u2", Name: "Bob"}}
	gifts := []gift.Gift{{ID: "g1", SenderID: "u1", ReceiverID: "u2"}}

	data, _ := graph.MarshalGraph(circulation.Build(users, gifts))
	fmt.Print(string(data))
	// Output:
	// {
	//   "nodes": [
	//     {
	//       "id": "u1",
	//       "label": "Alice",
	//       "radius": 24
	//     },
	//     {
	//       "id": "u2",
	//       "label": "Bob",
	//       "radius": 24
	//     }
	//   ],
	//   "edges": [
	//     {
	//       "from": "u1",
	//       "to": "u2",
	//       "weight": 1,
	//       "stroke_width": 2
	//     }
	//   ]
	// }
}
