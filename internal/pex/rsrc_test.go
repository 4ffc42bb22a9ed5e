package pex

import (
	"encoding/binary"
	"errors"
	"testing"
	"unicode/utf16"
)

// buildRsrc assembles a minimal resource section:
// root -> RT_RCDATA -> "DVCLAL" -> language 0x409 -> payload.
func buildRsrc(sectionRVA uint32, payload []byte) []byte {
	data := make([]byte, 0x200)
	u16 := func(off int, v uint16) { binary.LittleEndian.PutUint16(data[off:], v) }
	u32 := func(off int, v uint32) { binary.LittleEndian.PutUint32(data[off:], v) }

	// Root directory: one ID entry for type RT_RCDATA.
	u16(14, 1)
	u32(16, RTRCData)
	u32(20, 0x20|highBit)

	// Type directory: one named entry.
	u16(0x20+12, 1)
	u32(0x20+16, 0x60|highBit)
	u32(0x20+20, 0x40|highBit)

	// Name directory: one language entry pointing at the data entry.
	u16(0x40+14, 1)
	u32(0x40+16, 0x409)
	u32(0x40+20, 0x80)

	// Name string "DVCLAL" in UTF-16LE.
	name := utf16.Encode([]rune("DVCLAL"))
	u16(0x60, uint16(len(name)))
	for i, c := range name {
		u16(0x62+i*2, c)
	}

	// Data entry and payload.
	u32(0x80, sectionRVA+0x100)
	u32(0x84, uint32(len(payload)))
	copy(data[0x100:], payload)
	return data
}

func TestRsrcWalker(t *testing.T) {
	payload := []byte("license-blob-16b")
	w := &rsrcWalker{data: buildRsrc(0x7000, payload), sectionRVA: 0x7000}

	typeDir, err := w.findByID(0, RTRCData)
	if err != nil {
		t.Fatal(err)
	}
	nameDir, err := w.findByName(typeDir, "DVCLAL")
	if err != nil {
		t.Fatal(err)
	}
	dataOff, err := w.firstEntry(nameDir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := w.dataEntry(dataOff)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}
}

func TestRsrcWalkerNotFound(t *testing.T) {
	w := &rsrcWalker{data: buildRsrc(0x7000, []byte("x")), sectionRVA: 0x7000}

	if _, err := w.findByID(0, 99); !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("findByID = %v, want ErrResourceNotFound", err)
	}
	typeDir, err := w.findByID(0, RTRCData)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.findByName(typeDir, "PACKAGEINFO"); !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("findByName = %v, want ErrResourceNotFound", err)
	}
}

func TestRsrcWalkerSelfReferencingDirectory(t *testing.T) {
	// A directory whose first entry claims to be a subdirectory at offset 0,
	// pointing back at itself. The walk must error out, not recurse forever.
	data := make([]byte, 0x40)
	binary.LittleEndian.PutUint16(data[14:], 1)
	binary.LittleEndian.PutUint32(data[16:], 0x409)
	binary.LittleEndian.PutUint32(data[20:], highBit|0)

	w := &rsrcWalker{data: data, sectionRVA: 0x7000}
	if _, err := w.firstEntry(0); err == nil {
		t.Fatal("expected error for self-referencing directory")
	}
}

func TestRsrcWalkerTruncated(t *testing.T) {
	w := &rsrcWalker{data: []byte{0, 1, 2}, sectionRVA: 0x7000}
	if _, err := w.findByID(0, RTRCData); err == nil {
		t.Error("expected error for truncated directory")
	}
}
