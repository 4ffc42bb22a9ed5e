// Package render produces Graphviz DOT output from recovered class data.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gitmesam/pythia/internal/rtti"
)

// ClassgraphDOT renders the recovered class hierarchy, one node per class
// labeled with its name and instance size, edges pointing child to parent.
// maxNodes limits rendered classes (0 = all), keeping the busiest parents.
func ClassgraphDOT(vftables []*rtti.Vftable, title string, maxNodes int) string {
	byVA := make(map[uint32]*rtti.Vftable, len(vftables))
	for _, v := range vftables {
		byVA[v.Addr] = v
	}

	// Rank classes by child count so a node cap keeps the largest subtrees.
	children := make(map[string]int)
	for _, v := range vftables {
		if p, ok := byVA[v.ParentClass]; ok && v.ParentClass != 0 {
			children[p.ClassName]++
		}
	}
	ranked := make([]*rtti.Vftable, len(vftables))
	copy(ranked, vftables)
	sort.SliceStable(ranked, func(i, j int) bool {
		return children[ranked[i].ClassName] > children[ranked[j].ClassName]
	})
	if maxNodes > 0 && len(ranked) > maxNodes {
		ranked = ranked[:maxNodes]
	}
	keep := make(map[string]bool, len(ranked))
	for _, v := range ranked {
		keep[v.ClassName] = true
	}

	var b strings.Builder
	b.WriteString("digraph classes {\n")
	b.WriteString("  rankdir=BT;\n")
	b.WriteString("  node [shape=box, fontname=\"monospace\"];\n")
	if title != "" {
		fmt.Fprintf(&b, "  label=%q;\n", title)
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].ClassName < ranked[j].ClassName })
	for _, v := range ranked {
		fmt.Fprintf(&b, "  %s [label=\"%s\\n%d bytes\"];\n",
			dotID(v.ClassName), dotEscape(truncLabel(v.ClassName, 48)), v.InstanceSize)
	}
	for _, v := range ranked {
		p, ok := byVA[v.ParentClass]
		if !ok || v.ParentClass == 0 || !keep[p.ClassName] {
			continue
		}
		fmt.Fprintf(&b, "  %s -> %s;\n", dotID(v.ClassName), dotID(p.ClassName))
	}
	b.WriteString("}\n")
	return b.String()
}
