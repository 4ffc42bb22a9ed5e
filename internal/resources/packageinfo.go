package resources

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrBadPackageInfo = errors.New("resources: malformed PACKAGEINFO")

// Unit flag bits from the contains table.
const (
	UnitMainUnit    = 0x01
	UnitPackageUnit = 0x02
	UnitWeakUnit    = 0x04
	UnitOrgWeakUnit = 0x08
	UnitImplicit    = 0x10
)

// Unit is one entry from the PACKAGEINFO contains table.
type Unit struct {
	Flags byte   `json:"flags"`
	Name  string `json:"name"`
}

// PackageInfo describes what the executable was linked from: the packages it
// requires and the units it contains.
type PackageInfo struct {
	Flags    uint32   `json:"flags"`
	Requires []string `json:"requires,omitempty"`
	Contains []Unit   `json:"contains,omitempty"`
}

// maxPackageEntries rejects blobs whose count fields are garbage.
const maxPackageEntries = 10000

// ParsePackageInfo decodes a PACKAGEINFO resource blob:
//
//	+0x00: Flags         u32
//	+0x04: RequiresCount u32, then that many NUL-terminated names
//	 ....: ContainsCount u32, then that many {flags u8, NUL-terminated name}
func ParsePackageInfo(data []byte) (*PackageInfo, error) {
	r := &blobReader{data: data}

	flags, err := r.u32()
	if err != nil {
		return nil, err
	}
	pi := &PackageInfo{Flags: flags}

	reqCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	if reqCount > maxPackageEntries {
		return nil, fmt.Errorf("%w: requires count %d", ErrBadPackageInfo, reqCount)
	}
	for i := uint32(0); i < reqCount; i++ {
		name, err := r.cstring()
		if err != nil {
			return nil, err
		}
		pi.Requires = append(pi.Requires, name)
	}

	conCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	if conCount > maxPackageEntries {
		return nil, fmt.Errorf("%w: contains count %d", ErrBadPackageInfo, conCount)
	}
	for i := uint32(0); i < conCount; i++ {
		f, err := r.u8()
		if err != nil {
			return nil, err
		}
		name, err := r.cstring()
		if err != nil {
			return nil, err
		}
		pi.Contains = append(pi.Contains, Unit{Flags: f, Name: name})
	}

	return pi, nil
}

type blobReader struct {
	data []byte
	off  int
}

func (r *blobReader) u8() (byte, error) {
	if r.off >= len(r.data) {
		return 0, fmt.Errorf("%w: truncated at 0x%x", ErrBadPackageInfo, r.off)
	}
	b := r.data[r.off]
	r.off++
	return b, nil
}

func (r *blobReader) u32() (uint32, error) {
	if r.off+4 > len(r.data) {
		return 0, fmt.Errorf("%w: truncated at 0x%x", ErrBadPackageInfo, r.off)
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

func (r *blobReader) cstring() (string, error) {
	start := r.off
	for r.off < len(r.data) {
		if r.data[r.off] == 0 {
			s := string(r.data[start:r.off])
			r.off++
			return s, nil
		}
		r.off++
	}
	return "", fmt.Errorf("%w: unterminated string at 0x%x", ErrBadPackageInfo, start)
}
