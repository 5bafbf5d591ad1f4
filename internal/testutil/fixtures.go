package testutil

import (
	"github.com/roach88/tristore/internal/triple"
)

// Nodes and predicates shared by fixture graphs.
var (
	Alice = triple.NamedNode("ex:alice")
	Bob   = triple.NamedNode("ex:bob")
	Carol = triple.NamedNode("ex:carol")

	HasName triple.Predicate = "ex:has_name"
	HasAge  triple.Predicate = "ex:has_age"
	Knows   triple.Predicate = "foaf:knows"
)

// People returns the three-fact graph:
//
//	(alice, has_name, "Alice")
//	(alice, has_age, 30)
//	(bob, has_name, "Bob")
func People() []triple.Triple {
	return []triple.Triple{
		triple.NewAt(Alice, HasName, triple.String("Alice"), Epoch),
		triple.NewAt(Alice, HasAge, triple.Integer(30), Epoch),
		triple.NewAt(Bob, HasName, triple.String("Bob"), Epoch),
	}
}

// Edge returns (from, p, to) with a node-valued object.
func Edge(from triple.NodeID, p triple.Predicate, to triple.NodeID) triple.Triple {
	return triple.NewAt(from, p, triple.NodeValue(to), Epoch)
}

// Chain links nodes[i] to nodes[i+1] with p.
func Chain(p triple.Predicate, nodes ...triple.NodeID) []triple.Triple {
	var out []triple.Triple
	for i := 0; i+1 < len(nodes); i++ {
		out = append(out, Edge(nodes[i], p, nodes[i+1]))
	}
	return out
}
