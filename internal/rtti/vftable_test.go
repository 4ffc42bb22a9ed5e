package rtti

import (
	"errors"
	"testing"
)

func TestParseVftableLegacy(t *testing.T) {
	b := newBuilder(testLoad, 0x1000)
	va := b.writeVftable(0x100, ProfileLegacy, "TWidget", 0x400)
	b.putU32(0x100+vmtFieldTable, b.va(0x500))
	b.putU32(0x100+vmtMethodTable, b.va(0x600))

	v, err := ParseVftable(b.section("CODE", SectionCode), va, ProfileLegacy)
	if err != nil {
		t.Fatal(err)
	}
	if v.ClassName != "TWidget" {
		t.Errorf("ClassName = %q, want TWidget", v.ClassName)
	}
	if v.InstanceSize != 0x30 {
		t.Errorf("InstanceSize = %d, want 48", v.InstanceSize)
	}
	if v.FieldTable != b.va(0x500) || v.MethodTable != b.va(0x600) {
		t.Errorf("table pointers = 0x%08x, 0x%08x", v.FieldTable, v.MethodTable)
	}
	if v.Equals != 0 || v.ToString != 0 {
		t.Error("legacy vftable should not carry modern slots")
	}
}

func TestParseVftableModern(t *testing.T) {
	b := newBuilder(testLoad, 0x1000)
	va := b.writeVftable(0x100, ProfileModern, "TThing", 0x400)
	b.putU32(0x100+vmtEquals, 0xdeadbeef)
	b.putU32(0x100+vmtToString, 0xcafebabe)

	v, err := ParseVftable(b.section("CODE", SectionCode), va, ProfileModern)
	if err != nil {
		t.Fatal(err)
	}
	if v.Equals != 0xdeadbeef || v.ToString != 0xcafebabe {
		t.Errorf("modern slots = 0x%08x, 0x%08x", v.Equals, v.ToString)
	}
}

func TestParseVftableRejects(t *testing.T) {
	tests := []struct {
		name string
		poke func(b *builder)
	}{
		{"broken self pointer", func(b *builder) {
			b.putU32(0x100+vmtSelfPtr, b.va(0x100)+ProfileLegacy.Distance+4)
		}},
		{"out-of-section table pointer", func(b *builder) {
			b.putU32(0x100+vmtDynamicTable, 0x10)
		}},
		{"null name pointer", func(b *builder) {
			b.putU32(0x100+vmtClassName, 0)
		}},
		{"implausible name", func(b *builder) {
			b.putU8(0x401, '#')
		}},
		{"empty name", func(b *builder) {
			b.putU8(0x400, 0)
		}},
		{"zero instance size", func(b *builder) {
			b.putU32(0x100+vmtInstanceSize, 0)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBuilder(testLoad, 0x1000)
			va := b.writeVftable(0x100, ProfileLegacy, "TWidget", 0x400)
			tt.poke(b)
			_, err := ParseVftable(b.section("CODE", SectionCode), va, ProfileLegacy)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestParseVftableOutOfSection(t *testing.T) {
	b := newBuilder(testLoad, 0x1000)
	s := b.section("CODE", SectionCode)
	if _, err := ParseVftable(s, testLoad+0x2000, ProfileLegacy); err == nil {
		t.Fatal("expected error for VA outside section")
	}
	// Metadata block straddling the section end.
	if _, err := ParseVftable(s, testLoad+0xFF0, ProfileLegacy); err == nil {
		t.Fatal("expected error for truncated block")
	}
}
