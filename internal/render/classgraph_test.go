package render

import (
	"strings"
	"testing"

	"github.com/gitmesam/pythia/internal/rtti"
)

func TestClassgraphDOT(t *testing.T) {
	vfts := []*rtti.Vftable{
		{Addr: 0x401000, ClassName: "TObject", InstanceSize: 8},
		{Addr: 0x401100, ClassName: "TWidget", InstanceSize: 48, ParentClass: 0x401000},
	}
	dot := ClassgraphDOT(vfts, "sample.exe", 0)

	for _, want := range []string{
		"digraph classes",
		`label="sample.exe"`,
		"TObject\\n8 bytes",
		"TWidget\\n48 bytes",
		"c_TWidget -> c_TObject;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
}

func TestClassgraphDOTMaxNodes(t *testing.T) {
	vfts := []*rtti.Vftable{
		{Addr: 0x401000, ClassName: "TObject", InstanceSize: 8},
		{Addr: 0x401100, ClassName: "TWidget", InstanceSize: 48, ParentClass: 0x401000},
		{Addr: 0x401200, ClassName: "TStray", InstanceSize: 16},
	}
	dot := ClassgraphDOT(vfts, "", 2)

	// TObject has a child, so the cap keeps it and drops a leaf.
	if !strings.Contains(dot, "c_TObject") {
		t.Errorf("busy parent dropped:\n%s", dot)
	}
	if strings.Count(dot, "label=\"T") != 2 {
		t.Errorf("want 2 rendered classes:\n%s", dot)
	}
}

func TestDotID(t *testing.T) {
	if got := dotID("TWidget"); got != "c_TWidget" {
		t.Errorf("dotID(TWidget) = %q, want c_TWidget", got)
	}
	if got := dotID("TList<System.Integer>"); strings.ContainsAny(got, "<>.") {
		t.Errorf("dotID = %q, want sanitized identifier", got)
	}
	// Names that differ only in stripped punctuation must not collide.
	if dotID("TList<System.Integer>") == dotID("TList.System<Integer>") {
		t.Error("dotID collided on punctuation-only difference")
	}
}

func TestTruncLabel(t *testing.T) {
	if got := truncLabel("TVeryLongClassName", 10); got != "TVeryLo..." {
		t.Errorf("truncLabel = %q, want TVeryLo...", got)
	}
	if got := truncLabel("Short", 10); got != "Short" {
		t.Errorf("truncLabel = %q, want unchanged", got)
	}
}
