package rtti

// TableLayout distinguishes the two physical encodings of method and field
// tables. The layout is detected structurally per table, not assumed from the
// profile: mixed executables (packages built against older RTL units) carry
// both encodings.
type TableLayout int

const (
	LayoutContiguous TableLayout = iota // legacy: variable-size entries in line
	LayoutIndirect                      // modern: table of pointers to entries
)

func (l TableLayout) String() string {
	if l == LayoutContiguous {
		return "contiguous"
	}
	return "indirect"
}

// maxTableEntries rejects candidate tables whose count field is garbage.
const maxTableEntries = 0x4000

// Method is one recovered method descriptor.
type Method struct {
	Code uint32 `json:"code"` // entry point VA; may live in another section
	Name string `json:"name"`
}

// MethodTable enumerates the published methods of one class.
type MethodTable struct {
	Addr    uint32      `json:"va"`
	Layout  TableLayout `json:"layout"`
	Methods []Method    `json:"methods"`
}

func (m *MethodTable) VA() uint32       { return m.Addr }
func (m *MethodTable) Kind() RecordKind { return KindMethodTable }

// Method entries point at code, not at further records.
func (m *MethodTable) candidates() []candidate { return nil }

// ParseMethodTable validates the bytes at va as a method table, trying the
// legacy contiguous layout first and falling back to the modern indirect one.
func ParseMethodTable(s *Section, va uint32, p Profile) (*MethodTable, error) {
	base, err := s.OffsetFromVA(va)
	if err != nil {
		return nil, invalidf(va, KindMethodTable, "out of section")
	}
	count, err := s.ReadU16(base)
	if err != nil {
		return nil, invalidf(va, KindMethodTable, "truncated")
	}
	if count == 0 || count > maxTableEntries {
		return nil, invalidf(va, KindMethodTable, "implausible entry count %d", count)
	}

	if mt, err := parseContiguousMethods(s, va, base+2, int(count)); err == nil {
		return mt, nil
	}
	return parseIndirectMethods(s, va, base+2, int(count))
}

// parseContiguousMethods reads legacy entries laid out in line:
//
//	+0x00: Size u16 (full entry length; >= header + name)
//	+0x02: Code u32
//	+0x06: Name short string
func parseContiguousMethods(s *Section, va uint32, off, count int) (*MethodTable, error) {
	mt := &MethodTable{Addr: va, Layout: LayoutContiguous}
	for i := 0; i < count; i++ {
		size, err := s.ReadU16(off)
		if err != nil {
			return nil, invalidf(va, KindMethodTable, "entry %d truncated", i)
		}
		code, err := s.ReadU32(off + 2)
		if err != nil {
			return nil, invalidf(va, KindMethodTable, "entry %d truncated", i)
		}
		name, n, err := readShortString(s, off+6)
		if err != nil {
			return nil, invalidf(va, KindMethodTable, "entry %d name truncated", i)
		}
		// Entries may carry parameter metadata after the name, so the
		// declared size can exceed the minimum but never undercut it.
		if int(size) < 6+n {
			return nil, invalidf(va, KindMethodTable, "entry %d size %d below minimum %d", i, size, 6+n)
		}
		if code == 0 || !validName(name) {
			return nil, invalidf(va, KindMethodTable, "entry %d implausible", i)
		}
		mt.Methods = append(mt.Methods, Method{Code: code, Name: name})
		off += int(size)
	}
	return mt, nil
}

// parseIndirectMethods reads the modern layout: an array of pointers, each
// referencing a {Code u32, Name short string} descriptor elsewhere in the
// section.
func parseIndirectMethods(s *Section, va uint32, off, count int) (*MethodTable, error) {
	mt := &MethodTable{Addr: va, Layout: LayoutIndirect}
	for i := 0; i < count; i++ {
		ptr, err := s.ReadU32(off + i*4)
		if err != nil {
			return nil, invalidf(va, KindMethodTable, "entry %d truncated", i)
		}
		ent, err := s.OffsetFromVA(ptr)
		if err != nil {
			return nil, invalidf(va, KindMethodTable, "entry %d pointer 0x%08x out of section", i, ptr)
		}
		code, err := s.ReadU32(ent)
		if err != nil {
			return nil, invalidf(va, KindMethodTable, "entry %d descriptor truncated", i)
		}
		name, _, err := readShortString(s, ent+4)
		if err != nil {
			return nil, invalidf(va, KindMethodTable, "entry %d descriptor name truncated", i)
		}
		if code == 0 || !validName(name) {
			return nil, invalidf(va, KindMethodTable, "entry %d implausible", i)
		}
		mt.Methods = append(mt.Methods, Method{Code: code, Name: name})
	}
	return mt, nil
}
