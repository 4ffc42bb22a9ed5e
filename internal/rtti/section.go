// Package rtti recovers Delphi runtime type metadata from stripped PE code
// sections: vftables, type descriptors, field tables and method tables.
package rtti

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrOutOfRange = errors.New("rtti: offset out of range")

// SectionFlag mirrors the PE characteristics bits the analysis cares about.
type SectionFlag uint32

const (
	SectionCode            SectionFlag = 0x00000020 // IMAGE_SCN_CNT_CODE
	SectionInitializedData SectionFlag = 0x00000040 // IMAGE_SCN_CNT_INITIALIZED_DATA
)

// Section is a read-only view of one mapped image region. Instances are
// produced by the pex loader, or constructed directly when analysing a single
// region handed over by an external tool.
type Section struct {
	Name        string      `json:"name"`
	Flags       SectionFlag `json:"flags"`
	LoadAddress uint32      `json:"load_address"`
	Data        []byte      `json:"-"`
}

func (s *Section) Size() int { return len(s.Data) }

func (s *Section) IsCode() bool { return s.Flags&SectionCode != 0 }

func (s *Section) IsData() bool { return s.Flags&SectionInitializedData != 0 }

// ContainsVA reports whether va falls inside this section's mapped range.
func (s *Section) ContainsVA(va uint32) bool {
	return va >= s.LoadAddress && uint64(va) < uint64(s.LoadAddress)+uint64(len(s.Data))
}

// OffsetFromVA translates a virtual address into a byte offset.
func (s *Section) OffsetFromVA(va uint32) (int, error) {
	if !s.ContainsVA(va) {
		return 0, fmt.Errorf("%w: VA 0x%08x not in section %s", ErrOutOfRange, va, s.Name)
	}
	return int(va - s.LoadAddress), nil
}

// ReadU32 reads a little-endian 32-bit word at the given byte offset.
func (s *Section) ReadU32(off int) (uint32, error) {
	if off < 0 || off+4 > len(s.Data) {
		return 0, fmt.Errorf("%w: u32 at offset 0x%x", ErrOutOfRange, off)
	}
	return binary.LittleEndian.Uint32(s.Data[off : off+4]), nil
}

// ReadU16 reads a little-endian 16-bit word at the given byte offset.
func (s *Section) ReadU16(off int) (uint16, error) {
	if off < 0 || off+2 > len(s.Data) {
		return 0, fmt.Errorf("%w: u16 at offset 0x%x", ErrOutOfRange, off)
	}
	return binary.LittleEndian.Uint16(s.Data[off : off+2]), nil
}

// ReadU8 reads one byte at the given offset.
func (s *Section) ReadU8(off int) (uint8, error) {
	if off < 0 || off >= len(s.Data) {
		return 0, fmt.Errorf("%w: u8 at offset 0x%x", ErrOutOfRange, off)
	}
	return s.Data[off], nil
}

// DerefU32 reads the 32-bit word stored at a virtual address.
func (s *Section) DerefU32(va uint32) (uint32, error) {
	off, err := s.OffsetFromVA(va)
	if err != nil {
		return 0, err
	}
	return s.ReadU32(off)
}
