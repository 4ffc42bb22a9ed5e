package rtti

import "encoding/binary"

// builder assembles synthetic section images for tests.
type builder struct {
	load uint32
	data []byte
}

func newBuilder(load uint32, size int) *builder {
	return &builder{load: load, data: make([]byte, size)}
}

func (b *builder) section(name string, flags SectionFlag) *Section {
	return &Section{Name: name, Flags: flags, LoadAddress: b.load, Data: b.data}
}

func (b *builder) va(off int) uint32 { return b.load + uint32(off) }

func (b *builder) putU8(off int, v byte)    { b.data[off] = v }
func (b *builder) putU16(off int, v uint16) { binary.LittleEndian.PutUint16(b.data[off:], v) }
func (b *builder) putU32(off int, v uint32) { binary.LittleEndian.PutUint32(b.data[off:], v) }

// putShortString writes a Pascal short string and returns bytes written.
func (b *builder) putShortString(off int, s string) int {
	b.data[off] = byte(len(s))
	copy(b.data[off+1:], s)
	return 1 + len(s)
}

// writeVftable lays down a minimal valid vftable at off with its class name
// short string at nameOff. Table slots default to zero; callers poke in
// field/method/typeinfo/parent pointers as needed.
func (b *builder) writeVftable(off int, p Profile, name string, nameOff int) uint32 {
	va := b.va(off)
	b.putU32(off+vmtSelfPtr, va+p.Distance)
	b.putU32(off+vmtClassName, b.va(nameOff))
	b.putU32(off+vmtInstanceSize, 0x30)
	b.putShortString(nameOff, name)
	return va
}

// writeClassTypeInfo lays down a TkClass type descriptor at off.
func (b *builder) writeClassTypeInfo(off int, name, unit string, classType, parentCell uint32) uint32 {
	va := b.va(off)
	b.putU8(off, byte(TkClass))
	n := b.putShortString(off+1, name)
	p := off + 1 + n
	b.putU32(p, classType)
	b.putU32(p+4, parentCell)
	b.putU16(p+8, 0)
	b.putShortString(p+10, unit)
	return va
}
