package rtti

// Field is one recovered field descriptor.
type Field struct {
	Offset uint32 `json:"offset"` // byte offset within the instance
	Name   string `json:"name"`

	// Legacy layout: index into the fieldtypes sub-table.
	TypeIndex uint16 `json:"type_index,omitempty"`
	// Modern layout: cell holding the field's type descriptor VA.
	TypeRef uint32 `json:"type_ref,omitempty"`
}

// FieldTable enumerates the published fields of one class. The legacy layout
// references field types indirectly through a fieldtypes sub-table of class
// reference cells; the modern layout embeds a type descriptor cell per entry.
type FieldTable struct {
	Addr   uint32      `json:"va"`
	Layout TableLayout `json:"layout"`
	Fields []Field     `json:"fields"`

	// Legacy only: the fieldtypes sub-table VA and its class reference cells.
	FieldTypes uint32   `json:"field_types,omitempty"`
	ClassCells []uint32 `json:"class_cells,omitempty"`
}

func (f *FieldTable) VA() uint32       { return f.Addr }
func (f *FieldTable) Kind() RecordKind { return KindFieldTable }

func (f *FieldTable) candidates() []candidate {
	var out []candidate
	// Legacy: each fieldtypes cell holds a class reference to follow.
	for _, cell := range f.ClassCells {
		if cell != 0 {
			out = append(out, candidate{va: cell, kind: KindVftable, indirect: true, classRef: true})
		}
	}
	// Modern: each entry references its type descriptor through a cell.
	for _, fld := range f.Fields {
		if fld.TypeRef != 0 {
			out = append(out, candidate{va: fld.TypeRef, kind: KindTypeInfo, indirect: true})
		}
	}
	return out
}

// ParseFieldTable validates the bytes at va as a field table, trying the
// legacy layout first and falling back to the modern one.
func ParseFieldTable(s *Section, va uint32, p Profile) (*FieldTable, error) {
	base, err := s.OffsetFromVA(va)
	if err != nil {
		return nil, invalidf(va, KindFieldTable, "out of section")
	}
	count, err := s.ReadU16(base)
	if err != nil {
		return nil, invalidf(va, KindFieldTable, "truncated")
	}
	if count == 0 || count > maxTableEntries {
		return nil, invalidf(va, KindFieldTable, "implausible entry count %d", count)
	}

	if ft, err := parseLegacyFields(s, va, base+2, int(count)); err == nil {
		return ft, nil
	}
	return parseModernFields(s, va, base+2, int(count))
}

// parseLegacyFields reads the legacy layout:
//
//	+0x00: FieldTypes u32 (-> sub-table: count u16, then class reference cells)
//	+0x04: entries, each {Offset u32, TypeIndex u16, Name short string}
func parseLegacyFields(s *Section, va uint32, off, count int) (*FieldTable, error) {
	ft := &FieldTable{Addr: va, Layout: LayoutContiguous}

	var err error
	if ft.FieldTypes, err = s.ReadU32(off); err != nil {
		return nil, invalidf(va, KindFieldTable, "truncated fieldtypes pointer")
	}
	sub, err := s.OffsetFromVA(ft.FieldTypes)
	if err != nil {
		return nil, invalidf(va, KindFieldTable, "fieldtypes pointer 0x%08x out of section", ft.FieldTypes)
	}
	typeCount, err := s.ReadU16(sub)
	if err != nil || typeCount == 0 || typeCount > maxTableEntries {
		return nil, invalidf(va, KindFieldTable, "implausible fieldtypes count")
	}
	for i := 0; i < int(typeCount); i++ {
		cell, err := s.ReadU32(sub + 2 + i*4)
		if err != nil {
			return nil, invalidf(va, KindFieldTable, "fieldtypes cell %d truncated", i)
		}
		if cell != 0 && !s.ContainsVA(cell) {
			return nil, invalidf(va, KindFieldTable, "fieldtypes cell 0x%08x out of section", cell)
		}
		ft.ClassCells = append(ft.ClassCells, cell)
	}

	off += 4
	for i := 0; i < count; i++ {
		fldOff, err := s.ReadU32(off)
		if err != nil {
			return nil, invalidf(va, KindFieldTable, "entry %d truncated", i)
		}
		idx, err := s.ReadU16(off + 4)
		if err != nil {
			return nil, invalidf(va, KindFieldTable, "entry %d truncated", i)
		}
		name, n, err := readShortString(s, off+6)
		if err != nil {
			return nil, invalidf(va, KindFieldTable, "entry %d name truncated", i)
		}
		if fldOff >= maxInstanceSize || int(idx) >= int(typeCount) || !validName(name) {
			return nil, invalidf(va, KindFieldTable, "entry %d implausible", i)
		}
		ft.Fields = append(ft.Fields, Field{Offset: fldOff, TypeIndex: idx, Name: name})
		off += 6 + n
	}
	return ft, nil
}

// parseModernFields reads the modern layout: entries laid out in line, each
// {TypeRef u32 (cell), Offset u32, Name short string}.
func parseModernFields(s *Section, va uint32, off, count int) (*FieldTable, error) {
	ft := &FieldTable{Addr: va, Layout: LayoutIndirect}
	for i := 0; i < count; i++ {
		ref, err := s.ReadU32(off)
		if err != nil {
			return nil, invalidf(va, KindFieldTable, "entry %d truncated", i)
		}
		fldOff, err := s.ReadU32(off + 4)
		if err != nil {
			return nil, invalidf(va, KindFieldTable, "entry %d truncated", i)
		}
		name, n, err := readShortString(s, off+8)
		if err != nil {
			return nil, invalidf(va, KindFieldTable, "entry %d name truncated", i)
		}
		if ref != 0 && !s.ContainsVA(ref) {
			return nil, invalidf(va, KindFieldTable, "entry %d type ref 0x%08x out of section", i, ref)
		}
		if fldOff >= maxInstanceSize || !validName(name) {
			return nil, invalidf(va, KindFieldTable, "entry %d implausible", i)
		}
		ft.Fields = append(ft.Fields, Field{Offset: fldOff, TypeRef: ref, Name: name})
		off += 8 + n
	}
	return ft, nil
}
