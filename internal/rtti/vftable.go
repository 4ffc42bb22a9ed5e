package rtti

// VMT metadata slot offsets, relative to the vftable start. The slots are
// identical across layout generations; only the distance to the first virtual
// method slot differs (modern layouts insert Equals/GetHashCode/ToString).
//
//	+0x00: SelfPtr      (vftable VA + profile distance)
//	+0x04: IntfTable
//	+0x08: AutoTable
//	+0x0c: InitTable
//	+0x10: TypeInfo
//	+0x14: FieldTable
//	+0x18: MethodTable
//	+0x1c: DynamicTable
//	+0x20: ClassName    (-> short string)
//	+0x24: InstanceSize
//	+0x28: Parent       (-> cell holding parent class reference)
const (
	vmtSelfPtr      = 0x00
	vmtIntfTable    = 0x04
	vmtAutoTable    = 0x08
	vmtInitTable    = 0x0C
	vmtTypeInfo     = 0x10
	vmtFieldTable   = 0x14
	vmtMethodTable  = 0x18
	vmtDynamicTable = 0x1C
	vmtClassName    = 0x20
	vmtInstanceSize = 0x24
	vmtParent       = 0x28
	vmtEquals       = 0x2C // modern only
	vmtGetHashCode  = 0x30 // modern only
	vmtToString     = 0x34 // modern only
)

// maxInstanceSize rejects candidates whose instance size field is garbage.
const maxInstanceSize = 1 << 24

// Vftable is a recovered class virtual method table.
type Vftable struct {
	Addr         uint32 `json:"va"`
	ClassName    string `json:"class_name"`
	InstanceSize uint32 `json:"instance_size"`

	SelfPtr      uint32 `json:"self_ptr"`
	IntfTable    uint32 `json:"intf_table,omitempty"`
	AutoTable    uint32 `json:"auto_table,omitempty"`
	InitTable    uint32 `json:"init_table,omitempty"`
	TypeInfo     uint32 `json:"typeinfo,omitempty"`
	FieldTable   uint32 `json:"field_table,omitempty"`
	MethodTable  uint32 `json:"method_table,omitempty"`
	DynamicTable uint32 `json:"dynamic_table,omitempty"`
	NamePtr      uint32 `json:"name_ptr"`
	Parent       uint32 `json:"parent,omitempty"` // cell holding the parent class reference

	// Modern layouts only; virtual slots for the TObject protocol methods.
	Equals      uint32 `json:"equals,omitempty"`
	GetHashCode uint32 `json:"get_hash_code,omitempty"`
	ToString    uint32 `json:"to_string,omitempty"`

	// ParentClass is the parent vftable VA once the Parent cell has been
	// dereferenced and the class reference rebased; 0 for root classes.
	// Filled in by the resolver, not the validator.
	ParentClass uint32 `json:"parent_class,omitempty"`
}

func (v *Vftable) VA() uint32       { return v.Addr }
func (v *Vftable) Kind() RecordKind { return KindVftable }

func (v *Vftable) candidates() []candidate {
	var out []candidate
	if v.FieldTable != 0 {
		out = append(out, candidate{va: v.FieldTable, kind: KindFieldTable})
	}
	if v.MethodTable != 0 {
		out = append(out, candidate{va: v.MethodTable, kind: KindMethodTable})
	}
	if v.TypeInfo != 0 {
		out = append(out, candidate{va: v.TypeInfo, kind: KindTypeInfo})
	}
	if v.Parent != 0 {
		out = append(out, candidate{va: v.Parent, kind: KindVftable, indirect: true, classRef: true})
	}
	return out
}

// ParseVftable validates the bytes at va as a VMT metadata block. Pointer
// slots must be zero or within the section; the class name must resolve to a
// plausible identifier.
func ParseVftable(s *Section, va uint32, p Profile) (*Vftable, error) {
	base, err := s.OffsetFromVA(va)
	if err != nil {
		return nil, invalidf(va, KindVftable, "out of section")
	}
	if base+int(p.Distance) > s.Size() {
		return nil, invalidf(va, KindVftable, "truncated metadata block")
	}

	word := func(slot int) uint32 {
		w, _ := s.ReadU32(base + slot)
		return w
	}

	v := &Vftable{
		Addr:         va,
		SelfPtr:      word(vmtSelfPtr),
		IntfTable:    word(vmtIntfTable),
		AutoTable:    word(vmtAutoTable),
		InitTable:    word(vmtInitTable),
		TypeInfo:     word(vmtTypeInfo),
		FieldTable:   word(vmtFieldTable),
		MethodTable:  word(vmtMethodTable),
		DynamicTable: word(vmtDynamicTable),
		NamePtr:      word(vmtClassName),
		InstanceSize: word(vmtInstanceSize),
		Parent:       word(vmtParent),
	}

	if v.SelfPtr != va+p.Distance {
		return nil, invalidf(va, KindVftable, "self pointer 0x%08x != 0x%08x", v.SelfPtr, va+p.Distance)
	}

	tables := []uint32{v.IntfTable, v.AutoTable, v.InitTable, v.TypeInfo,
		v.FieldTable, v.MethodTable, v.DynamicTable, v.Parent}
	for _, t := range tables {
		if t != 0 && !s.ContainsVA(t) {
			return nil, invalidf(va, KindVftable, "table pointer 0x%08x out of section", t)
		}
	}

	if v.InstanceSize == 0 || v.InstanceSize >= maxInstanceSize {
		return nil, invalidf(va, KindVftable, "implausible instance size %d", v.InstanceSize)
	}
	if v.NamePtr == 0 {
		return nil, invalidf(va, KindVftable, "null class name pointer")
	}
	v.ClassName, err = readName(s, v.NamePtr, KindVftable)
	if err != nil {
		return nil, err
	}

	if p.modern() {
		v.Equals = word(vmtEquals)
		v.GetHashCode = word(vmtGetHashCode)
		v.ToString = word(vmtToString)
	}

	return v, nil
}
