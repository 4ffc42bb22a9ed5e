package rtti

import "fmt"

// TypeKind is the discriminant tag at the head of a type descriptor.
type TypeKind uint8

const (
	TkUnknown TypeKind = iota
	TkInteger
	TkChar
	TkEnumeration
	TkFloat
	TkString
	TkSet
	TkClass
	TkMethod
	TkWChar
	TkLString
	TkWString
	TkVariant
	TkArray
	TkRecord
	TkInterface
	TkInt64
	TkDynArray
	TkUString
	TkClassRef
	TkPointer
	TkProcedure
)

var typeKindNames = [...]string{
	"Unknown", "Integer", "Char", "Enumeration", "Float", "String", "Set",
	"Class", "Method", "WChar", "LString", "WString", "Variant", "Array",
	"Record", "Interface", "Int64", "DynArray", "UString", "ClassRef",
	"Pointer", "Procedure",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return fmt.Sprintf("TypeKind(%d)", uint8(k))
}

// TypeInfo is a recovered type descriptor: a tag byte, a short-string name
// and a tag-specific payload. Only the class and dynamic-array payloads carry
// pointers worth following; other tags are recorded header-only.
type TypeInfo struct {
	Addr     uint32   `json:"va"`
	TypeKind TypeKind `json:"type_kind"`
	Name     string   `json:"name"`

	// Class payload (TkClass).
	ClassType  uint32 `json:"class_type,omitempty"`  // class reference of the described class
	ParentInfo uint32 `json:"parent_info,omitempty"` // cell holding the parent descriptor VA
	PropCount  uint16 `json:"prop_count,omitempty"`
	UnitName   string `json:"unit_name,omitempty"`

	// Dynamic-array payload (TkDynArray).
	ElemSize  uint32 `json:"elem_size,omitempty"`
	ElemType  uint32 `json:"elem_type,omitempty"`   // cell; element type when managed
	VarType   uint32 `json:"var_type,omitempty"`    // OLE variant type of the element
	ElemType2 uint32 `json:"elem_type_2,omitempty"` // cell; element type regardless of management
}

func (t *TypeInfo) VA() uint32       { return t.Addr }
func (t *TypeInfo) Kind() RecordKind { return KindTypeInfo }

func (t *TypeInfo) candidates() []candidate {
	var out []candidate
	if t.ClassType != 0 {
		out = append(out, candidate{va: t.ClassType, kind: KindVftable, classRef: true})
	}
	for _, cell := range []uint32{t.ParentInfo, t.ElemType, t.ElemType2} {
		if cell != 0 {
			out = append(out, candidate{va: cell, kind: KindTypeInfo, indirect: true})
		}
	}
	return out
}

// ParseTypeInfo validates the bytes at va as a type descriptor.
func ParseTypeInfo(s *Section, va uint32, p Profile) (*TypeInfo, error) {
	base, err := s.OffsetFromVA(va)
	if err != nil {
		return nil, invalidf(va, KindTypeInfo, "out of section")
	}
	tag, err := s.ReadU8(base)
	if err != nil {
		return nil, invalidf(va, KindTypeInfo, "truncated")
	}
	if TypeKind(tag) > TkProcedure {
		return nil, invalidf(va, KindTypeInfo, "unknown tag %d", tag)
	}

	name, n, err := readShortString(s, base+1)
	if err != nil {
		return nil, invalidf(va, KindTypeInfo, "truncated name")
	}
	if !validName(name) {
		return nil, invalidf(va, KindTypeInfo, "implausible name %q", name)
	}

	t := &TypeInfo{Addr: va, TypeKind: TypeKind(tag), Name: name}
	payload := base + 1 + n

	switch t.TypeKind {
	case TkClass:
		if err := t.parseClassData(s, payload); err != nil {
			return nil, err
		}
	case TkDynArray:
		if err := t.parseDynArrayData(s, payload, p); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// parseClassData reads the TkClass payload:
//
//	+0x00: ClassType  u32
//	+0x04: ParentInfo u32 (cell)
//	+0x08: PropCount  u16
//	+0x0a: UnitName   short string
func (t *TypeInfo) parseClassData(s *Section, off int) error {
	var err error
	if t.ClassType, err = s.ReadU32(off); err != nil {
		return invalidf(t.Addr, KindTypeInfo, "truncated class payload")
	}
	if t.ParentInfo, err = s.ReadU32(off + 4); err != nil {
		return invalidf(t.Addr, KindTypeInfo, "truncated class payload")
	}
	if t.PropCount, err = s.ReadU16(off + 8); err != nil {
		return invalidf(t.Addr, KindTypeInfo, "truncated class payload")
	}
	for _, ptr := range []uint32{t.ClassType, t.ParentInfo} {
		if ptr != 0 && !s.ContainsVA(ptr) {
			return invalidf(t.Addr, KindTypeInfo, "class pointer 0x%08x out of section", ptr)
		}
	}
	unit, _, err := readShortString(s, off+10)
	if err != nil {
		return invalidf(t.Addr, KindTypeInfo, "truncated unit name")
	}
	if !validName(unit) {
		return invalidf(t.Addr, KindTypeInfo, "implausible unit name %q", unit)
	}
	t.UnitName = unit
	return nil
}

// parseDynArrayData reads the TkDynArray payload:
//
//	+0x00: ElemSize  u32
//	+0x04: ElemType  u32 (cell; nil for unmanaged elements)
//	+0x08: VarType   u32
//	+0x0c: ElemType2 u32 (cell; modern layouts)
func (t *TypeInfo) parseDynArrayData(s *Section, off int, p Profile) error {
	var err error
	if t.ElemSize, err = s.ReadU32(off); err != nil {
		return invalidf(t.Addr, KindTypeInfo, "truncated dynarray payload")
	}
	if t.ElemType, err = s.ReadU32(off + 4); err != nil {
		return invalidf(t.Addr, KindTypeInfo, "truncated dynarray payload")
	}
	if t.VarType, err = s.ReadU32(off + 8); err != nil {
		return invalidf(t.Addr, KindTypeInfo, "truncated dynarray payload")
	}
	if p.modern() {
		if t.ElemType2, err = s.ReadU32(off + 12); err != nil {
			return invalidf(t.Addr, KindTypeInfo, "truncated dynarray payload")
		}
	}
	if t.ElemSize == 0 || t.ElemSize > 0x10000 {
		return invalidf(t.Addr, KindTypeInfo, "implausible element size %d", t.ElemSize)
	}
	for _, ptr := range []uint32{t.ElemType, t.ElemType2} {
		if ptr != 0 && !s.ContainsVA(ptr) {
			return invalidf(t.Addr, KindTypeInfo, "element type pointer 0x%08x out of section", ptr)
		}
	}
	return nil
}
