package pex

import (
	"debug/pe"
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

// Resource type IDs used by Delphi executables.
const (
	RTRCData = 10 // RT_RCDATA
)

// Resource directory layout (all offsets relative to the .rsrc section):
//
//	directory:   16-byte header, NumberOfNamedEntries and NumberOfIdEntries
//	             at +12 and +14, followed by 8-byte entries
//	entry:       {NameOrID u32, Offset u32}; high bit of NameOrID selects a
//	             name string, high bit of Offset selects a subdirectory
//	name string: {Length u16, UTF-16LE chars}
//	data entry:  {DataRVA u32, Size u32, CodePage u32, Reserved u32}
const (
	resDirHeaderSize = 16
	resEntrySize     = 8
	highBit          = 0x80000000
)

// maxDirDepth bounds directory recursion. A well-formed resource tree is
// type/name/language, three levels; anything deeper is a malformed or hostile
// image whose entries loop back into their own directories.
const maxDirDepth = 3

// ResourceData finds an RT_* resource by type ID and name and returns its raw
// bytes. The first language variant is taken.
func (f *File) ResourceData(typeID uint32, name string) ([]byte, error) {
	var rsrc *pe.Section
	for _, s := range f.PE.Sections {
		if s.Name == ".rsrc" {
			rsrc = s
			break
		}
	}
	if rsrc == nil {
		return nil, ErrNoResources
	}
	data, err := rsrc.Data()
	if err != nil {
		return nil, fmt.Errorf("pex: read .rsrc: %w", err)
	}

	w := &rsrcWalker{data: data, sectionRVA: rsrc.VirtualAddress}

	typeDir, err := w.findByID(0, typeID)
	if err != nil {
		return nil, err
	}
	nameDir, err := w.findByName(typeDir, name)
	if err != nil {
		return nil, err
	}
	dataOff, err := w.firstEntry(nameDir)
	if err != nil {
		return nil, err
	}
	return w.dataEntry(dataOff)
}

type rsrcWalker struct {
	data       []byte
	sectionRVA uint32
}

func (w *rsrcWalker) u16(off uint32) (uint16, error) {
	if int(off)+2 > len(w.data) {
		return 0, fmt.Errorf("pex: resource offset 0x%x out of range", off)
	}
	return binary.LittleEndian.Uint16(w.data[off : off+2]), nil
}

func (w *rsrcWalker) u32(off uint32) (uint32, error) {
	if int(off)+4 > len(w.data) {
		return 0, fmt.Errorf("pex: resource offset 0x%x out of range", off)
	}
	return binary.LittleEndian.Uint32(w.data[off : off+4]), nil
}

// entries returns the entry offsets of the directory at dir.
func (w *rsrcWalker) entries(dir uint32) ([]uint32, error) {
	named, err := w.u16(dir + 12)
	if err != nil {
		return nil, err
	}
	ids, err := w.u16(dir + 14)
	if err != nil {
		return nil, err
	}
	total := int(named) + int(ids)
	if total > 0x10000 {
		return nil, fmt.Errorf("pex: implausible resource entry count %d", total)
	}
	offs := make([]uint32, total)
	for i := range offs {
		offs[i] = dir + resDirHeaderSize + uint32(i)*resEntrySize
	}
	return offs, nil
}

// subdirectory unmasks an entry's offset field, requiring the directory bit.
func (w *rsrcWalker) subdirectory(entry uint32) (uint32, error) {
	off, err := w.u32(entry + 4)
	if err != nil {
		return 0, err
	}
	if off&highBit == 0 {
		return 0, fmt.Errorf("pex: expected subdirectory at entry 0x%x", entry)
	}
	return off &^ uint32(highBit), nil
}

func (w *rsrcWalker) findByID(dir, id uint32) (uint32, error) {
	offs, err := w.entries(dir)
	if err != nil {
		return 0, err
	}
	for _, e := range offs {
		nameOrID, err := w.u32(e)
		if err != nil {
			return 0, err
		}
		if nameOrID&highBit == 0 && nameOrID == id {
			return w.subdirectory(e)
		}
	}
	return 0, fmt.Errorf("%w: type %d", ErrResourceNotFound, id)
}

func (w *rsrcWalker) findByName(dir uint32, name string) (uint32, error) {
	offs, err := w.entries(dir)
	if err != nil {
		return 0, err
	}
	for _, e := range offs {
		nameOrID, err := w.u32(e)
		if err != nil {
			return 0, err
		}
		if nameOrID&highBit == 0 {
			continue
		}
		got, err := w.nameString(nameOrID &^ uint32(highBit))
		if err != nil {
			return 0, err
		}
		if got == name {
			return w.subdirectory(e)
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrResourceNotFound, name)
}

func (w *rsrcWalker) nameString(off uint32) (string, error) {
	n, err := w.u16(off)
	if err != nil {
		return "", err
	}
	if int(off)+2+int(n)*2 > len(w.data) {
		return "", fmt.Errorf("pex: resource name at 0x%x out of range", off)
	}
	u := make([]uint16, n)
	for i := range u {
		u[i] = binary.LittleEndian.Uint16(w.data[off+2+uint32(i)*2:])
	}
	return string(utf16.Decode(u)), nil
}

// firstEntry returns the data-entry offset of the first leaf under dir.
func (w *rsrcWalker) firstEntry(dir uint32) (uint32, error) {
	return w.firstEntryAt(dir, 0)
}

func (w *rsrcWalker) firstEntryAt(dir uint32, depth int) (uint32, error) {
	if depth > maxDirDepth {
		return 0, fmt.Errorf("pex: resource directory nested deeper than %d levels", maxDirDepth)
	}
	offs, err := w.entries(dir)
	if err != nil {
		return 0, err
	}
	if len(offs) == 0 {
		return 0, fmt.Errorf("%w: empty directory", ErrResourceNotFound)
	}
	off, err := w.u32(offs[0] + 4)
	if err != nil {
		return 0, err
	}
	if off&highBit != 0 {
		// One more directory level (usually language); descend.
		return w.firstEntryAt(off&^uint32(highBit), depth+1)
	}
	return off, nil
}

func (w *rsrcWalker) dataEntry(off uint32) ([]byte, error) {
	rva, err := w.u32(off)
	if err != nil {
		return nil, err
	}
	size, err := w.u32(off + 4)
	if err != nil {
		return nil, err
	}
	if rva < w.sectionRVA {
		return nil, fmt.Errorf("pex: resource data RVA 0x%x below section", rva)
	}
	start := rva - w.sectionRVA
	if int(start)+int(size) > len(w.data) {
		return nil, fmt.Errorf("pex: resource data at 0x%x truncated", start)
	}
	return w.data[start : start+size], nil
}
