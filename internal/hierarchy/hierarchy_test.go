package hierarchy

import (
	"testing"

	"github.com/gitmesam/pythia/internal/rtti"
)

func sampleItems() []rtti.Record {
	parent := &rtti.Vftable{Addr: 0x401000, ClassName: "TObject"}
	child := &rtti.Vftable{Addr: 0x401100, ClassName: "TWidget", ParentClass: 0x401000}
	orphan := &rtti.Vftable{Addr: 0x401200, ClassName: "TStray", ParentClass: 0x409999}
	mt := &rtti.MethodTable{Addr: 0x401300}
	return []rtti.Record{parent, child, orphan, mt}
}

func TestLinks(t *testing.T) {
	links := Links(sampleItems())
	if len(links) != 3 {
		t.Fatalf("got %d links, want 3 (method table skipped)", len(links))
	}
	want := map[string]string{
		"TObject": "",
		"TWidget": "TObject",
		"TStray":  "", // parent VA not recovered
	}
	for _, l := range links {
		if want[l.Class] != l.Parent {
			t.Errorf("link %s -> %q, want %q", l.Class, l.Parent, want[l.Class])
		}
	}
}

func TestBuildClassGraph(t *testing.T) {
	g := BuildClassGraph(sampleItems())
	if len(g.Nodes) != 3 {
		t.Errorf("nodes = %v, want 3 classes", g.Nodes)
	}
	if len(g.Edges) != 1 {
		t.Fatalf("edges = %v, want 1", g.Edges)
	}
	e := g.Edges[0]
	if e.Caller != "TWidget" || e.Callee != "TObject" {
		t.Errorf("edge = %+v, want TWidget -> TObject", e)
	}
}
