// Package hierarchy builds class-hierarchy graphs from recovered records.
package hierarchy

import (
	"github.com/zboralski/lattice"

	"github.com/gitmesam/pythia/internal/rtti"
)

// Link is one resolved child/parent relationship.
type Link struct {
	Class  string `json:"class"`
	Parent string `json:"parent,omitempty"` // empty for root classes
}

// Links pairs every recovered class with its parent's name, resolved through
// the vftable parent pointers. A parent outside the recovered set yields an
// empty parent name.
func Links(items []rtti.Record) []Link {
	byVA := make(map[uint32]*rtti.Vftable)
	var order []*rtti.Vftable
	for _, it := range items {
		if v, ok := it.(*rtti.Vftable); ok {
			byVA[v.Addr] = v
			order = append(order, v)
		}
	}

	links := make([]Link, 0, len(order))
	for _, v := range order {
		l := Link{Class: v.ClassName}
		if p, ok := byVA[v.ParentClass]; ok && v.ParentClass != 0 {
			l.Parent = p.ClassName
		}
		links = append(links, l)
	}
	return links
}

// BuildClassGraph constructs a lattice.Graph over the recovered classes.
// Each class becomes a node; each resolved parent link becomes an edge from
// child to parent. Classes whose parent was not recovered stay as roots.
func BuildClassGraph(items []rtti.Record) *lattice.Graph {
	g := &lattice.Graph{}
	for _, l := range Links(items) {
		g.Nodes = append(g.Nodes, l.Class)
		if l.Parent == "" {
			continue
		}
		g.Edges = append(g.Edges, lattice.Edge{
			Caller: l.Class,
			Callee: l.Parent,
		})
	}
	g.Dedup()
	return g
}
