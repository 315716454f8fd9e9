package expr

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

var (
	// ErrOutOfRange is raised when an ID does not name a node of the graph.
	ErrOutOfRange = errors.New("expr: node id out of range")
	// ErrForwardReference is raised when a node refers to itself or to a
	// node that has not been recorded yet.
	ErrForwardReference = errors.New("expr: forward reference")
	// ErrFrozen is raised when appending to a graph whose session has ended.
	ErrFrozen = errors.New("expr: graph is frozen")
)

// Graph is the ordered, append-only trace of one recording session. The node
// with ID i is stored at index i. A Graph handed out by the recorder is frozen
// and behaves as an immutable value.
type Graph struct {
	nodes  []Node
	frozen bool
}

// NewGraph returns an empty, appendable graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Append assigns the next sequential ID to n, stores it and returns the ID.
// Only Assignment nodes keep the Target they were given, which must name an
// earlier slot; every other node writes its own slot. Append panics if the
// graph is frozen or if any argument or target refers forward.
func (g *Graph) Append(n Node) ID {
	if g.frozen {
		panic(fmt.Errorf("append %s node: %w", n.Kind, ErrFrozen))
	}
	id := ID(len(g.nodes))
	for _, a := range n.Args {
		if a < 0 || a >= id {
			panic(fmt.Errorf("node %s argument %s: %w", id, a, ErrForwardReference))
		}
	}
	n.ID = id
	if n.Kind != Assignment {
		n.Target = id
	} else if n.Target < 0 || n.Target >= id {
		panic(fmt.Errorf("node %s target %s: %w", id, n.Target, ErrForwardReference))
	}
	n.Args = slices.Clone(n.Args)
	g.nodes = append(g.nodes, n)
	return id
}

// Freeze makes the graph immutable. Further appends panic.
func (g *Graph) Freeze() {
	g.frozen = true
}

// Frozen reports whether Freeze has been called.
func (g Graph) Frozen() bool {
	return g.frozen
}

// Size returns the number of recorded nodes.
func (g Graph) Size() int {
	return len(g.nodes)
}

// Node returns the node with the given ID, or panics with ErrOutOfRange.
// A panic here means a stale handle or a handle from another graph.
func (g Graph) Node(id ID) Node {
	n, ok := g.Lookup(id)
	if !ok {
		panic(fmt.Errorf("lookup %s in graph of size %d: %w", id, len(g.nodes), ErrOutOfRange))
	}
	return n
}

// Lookup returns the node with the given ID and whether it exists.
func (g Graph) Lookup(id ID) (Node, bool) {
	if id < 0 || int(id) >= len(g.nodes) {
		return Node{}, false
	}
	return g.nodes[id].clone(), true
}

// Nodes returns a deep copy of the node list in ID order. Changing the
// returned nodes never affects the graph.
func (g Graph) Nodes() []Node {
	return g.filter(func(Node) bool { return true })
}

// Constants returns all compile-time constant nodes.
func (g Graph) Constants() []Node {
	return g.filter(Node.IsConstant)
}

// Arithmetic returns all unary and binary arithmetic nodes.
func (g Graph) Arithmetic() []Node {
	return g.filter(Node.IsArithmetic)
}

// Arguments resolves the operands of n against this graph.
func (g Graph) Arguments(n Node) []Node {
	return lo.Map(n.Args, func(id ID, _ int) Node { return g.Node(id) })
}

// Users returns every node that directly depends on id.
func (g Graph) Users(id ID) []Node {
	return g.filter(func(n Node) bool { return n.DependsOn(id) })
}

// Roots returns the nodes whose results no other node reads, in ID order.
func (g Graph) Roots() []Node {
	used := make([]bool, len(g.nodes))
	for _, n := range g.nodes {
		for _, a := range n.Args {
			if int(a) < len(used) {
				used[a] = true
			}
		}
	}
	return g.filter(func(n Node) bool { return !used[n.ID] })
}

// filter returns copies of the nodes satisfying keep, in ID order.
func (g Graph) filter(keep func(Node) bool) []Node {
	return lo.FilterMap(g.nodes, func(n Node, _ int) (Node, bool) {
		if !keep(n) {
			return Node{}, false
		}
		return n.clone(), true
	})
}
