package rtti

import (
	"errors"
	"testing"
)

func TestParseTypeInfoClass(t *testing.T) {
	b := newBuilder(testLoad, 0x1000)
	va := b.writeClassTypeInfo(0x100, "TWidget", "Widgets", b.va(0x800), b.va(0x900))

	ti, err := ParseTypeInfo(b.section("CODE", SectionCode), va, ProfileLegacy)
	if err != nil {
		t.Fatal(err)
	}
	if ti.TypeKind != TkClass {
		t.Errorf("TypeKind = %v, want Class", ti.TypeKind)
	}
	if ti.Name != "TWidget" || ti.UnitName != "Widgets" {
		t.Errorf("Name = %q, UnitName = %q", ti.Name, ti.UnitName)
	}
	if ti.ClassType != b.va(0x800) || ti.ParentInfo != b.va(0x900) {
		t.Errorf("ClassType = 0x%08x, ParentInfo = 0x%08x", ti.ClassType, ti.ParentInfo)
	}
}

func TestParseTypeInfoDynArray(t *testing.T) {
	b := newBuilder(testLoad, 0x1000)
	off := 0x100
	b.putU8(off, byte(TkDynArray))
	n := b.putShortString(off+1, "TIntArray")
	p := off + 1 + n
	b.putU32(p, 4)             // element size
	b.putU32(p+4, b.va(0x800)) // element type cell
	b.putU32(p+8, 3)           // varInteger
	b.putU32(p+12, b.va(0x804))
	s := b.section("CODE", SectionCode)

	ti, err := ParseTypeInfo(s, b.va(off), ProfileModern)
	if err != nil {
		t.Fatal(err)
	}
	if ti.ElemSize != 4 || ti.ElemType != b.va(0x800) || ti.ElemType2 != b.va(0x804) {
		t.Errorf("dynarray payload = %+v", ti)
	}

	// Legacy layouts stop before the second element type cell.
	ti, err = ParseTypeInfo(s, b.va(off), ProfileLegacy)
	if err != nil {
		t.Fatal(err)
	}
	if ti.ElemType2 != 0 {
		t.Errorf("legacy ElemType2 = 0x%08x, want 0", ti.ElemType2)
	}
}

func TestParseTypeInfoHeaderOnlyTags(t *testing.T) {
	b := newBuilder(testLoad, 0x1000)
	off := 0x100
	b.putU8(off, byte(TkInteger))
	b.putShortString(off+1, "Integer")

	ti, err := ParseTypeInfo(b.section("CODE", SectionCode), b.va(off), ProfileLegacy)
	if err != nil {
		t.Fatal(err)
	}
	if ti.TypeKind != TkInteger || ti.Name != "Integer" {
		t.Errorf("got %v %q", ti.TypeKind, ti.Name)
	}
	if len(ti.candidates()) != 0 {
		t.Error("header-only tag should expose no candidates")
	}
}

func TestParseTypeInfoRejects(t *testing.T) {
	tests := []struct {
		name string
		poke func(b *builder, off int)
	}{
		{"unknown tag", func(b *builder, off int) {
			b.putU8(off, byte(TkProcedure)+1)
		}},
		{"implausible name", func(b *builder, off int) {
			b.putU8(off+1, 2)
			b.putU8(off+2, 0xFF)
			b.putU8(off+3, 0xFE)
		}},
		{"out-of-section parent cell", func(b *builder, off int) {
			// Rewrite as class info whose parent cell is a junk VA.
			b.writeClassTypeInfo(off, "TWidget", "Widgets", 0, 0x10)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBuilder(testLoad, 0x1000)
			off := 0x100
			b.putU8(off, byte(TkInteger))
			b.putShortString(off+1, "Integer")
			tt.poke(b, off)
			_, err := ParseTypeInfo(b.section("CODE", SectionCode), b.va(off), ProfileLegacy)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestTypeKindString(t *testing.T) {
	if TkDynArray.String() != "DynArray" {
		t.Errorf("TkDynArray = %q", TkDynArray.String())
	}
	if TypeKind(99).String() != "TypeKind(99)" {
		t.Errorf("unknown kind = %q", TypeKind(99).String())
	}
}
