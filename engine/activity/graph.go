// Package activity implements a thin activity-graph DSL: a small state
// machine of tasks and branching gates, loaded from TOML, walked one step
// at a time by Advance.
package activity

import (
	"fmt"

	toml "github.com/pelletier/go-toml"
)

// Kind is one of the node kinds the graph supports.
type Kind string

const (
	Start          Kind = "start"
	End            Kind = "end"
	TaskCustom     Kind = "task_custom"
	TaskSystem     Kind = "task_system"
	XorGate        Kind = "xor_gate"
	XorSwitchGate  Kind = "xor_switch_gate"
	XorEventGate   Kind = "xor_event_gate"
)

// Node is one vertex of the graph, as loaded from TOML.
type Node struct {
	ID    string `toml:"id"`
	Kind  Kind   `toml:"kind"`
	Next  []string `toml:"next"`
	Label string `toml:"label"`
}

// Graph is a parsed activity graph: a node table plus the id of its
// single Start node.
type Graph struct {
	Start string
	Nodes map[string]*Node
}

type graphDoc struct {
	Start string `toml:"start"`
	Nodes []Node `toml:"nodes"`
}

// Load parses a TOML-encoded activity graph.
func Load(data []byte) (*Graph, error) {
	var doc graphDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("activity: parse graph: %w", err)
	}
	if doc.Start == "" {
		return nil, fmt.Errorf("activity: graph has no start node")
	}
	g := &Graph{Start: doc.Start, Nodes: make(map[string]*Node, len(doc.Nodes))}
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if n.ID == "" {
			return nil, fmt.Errorf("activity: node at index %d has no id", i)
		}
		g.Nodes[n.ID] = n
	}
	if _, ok := g.Nodes[g.Start]; !ok {
		return nil, fmt.Errorf("activity: start node %q not found", g.Start)
	}
	return g, nil
}

// Validate checks that every edge in the graph points at a node that
// actually exists, and that every non-End node has at least one outgoing
// edge.
func (g *Graph) Validate() error {
	for id, n := range g.Nodes {
		if n.Kind != End && len(n.Next) == 0 {
			return fmt.Errorf("activity: node %q (%s) has no outgoing edges", id, n.Kind)
		}
		for _, next := range n.Next {
			if _, ok := g.Nodes[next]; !ok {
				return fmt.Errorf("activity: node %q references unknown node %q", id, next)
			}
		}
	}
	return nil
}
