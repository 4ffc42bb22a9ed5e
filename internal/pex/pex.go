// Package pex provides PE loading helpers for 32-bit Delphi executables.
package pex

import (
	"debug/pe"
	"errors"
	"fmt"
	"os"

	"github.com/gitmesam/pythia/internal/rtti"
)

var (
	ErrNotPE            = errors.New("pex: not a PE file")
	ErrNot32Bit         = errors.New("pex: not a 32-bit PE")
	ErrNotX86           = errors.New("pex: not x86 (IMAGE_FILE_MACHINE_I386)")
	ErrNoResources      = errors.New("pex: no resource section")
	ErrResourceNotFound = errors.New("pex: resource not found")
)

// File wraps a debug/pe.File with convenience methods for Delphi analysis.
type File struct {
	PE        *pe.File
	ImageBase uint32

	raw *os.File
}

// Open opens a PE file and validates it is a 32-bit x86 image. The recovery
// heuristics assume 4-byte pointers throughout; 64-bit images are rejected
// rather than misparsed.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pex: open: %w", err)
	}

	pf, err := pe.NewFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrNotPE, err)
	}

	opt, ok := pf.OptionalHeader.(*pe.OptionalHeader32)
	if !ok {
		f.Close()
		return nil, ErrNot32Bit
	}
	if pf.Machine != pe.IMAGE_FILE_MACHINE_I386 {
		f.Close()
		return nil, ErrNotX86
	}

	return &File{PE: pf, ImageBase: opt.ImageBase, raw: f}, nil
}

// Close releases resources.
func (f *File) Close() error {
	f.PE.Close()
	return f.raw.Close()
}

// Sections returns all image sections as analysis section views, with the
// code/initialized-data characteristics bits carried over and load addresses
// rebased to the image base.
func (f *File) Sections() ([]*rtti.Section, error) {
	var out []*rtti.Section
	for _, s := range f.PE.Sections {
		data, err := s.Data()
		if err != nil {
			return nil, fmt.Errorf("pex: read section %s: %w", s.Name, err)
		}
		// Raw data can be padded past the in-memory size; trim so VA
		// containment reflects the mapped image.
		if s.VirtualSize > 0 && uint32(len(data)) > s.VirtualSize {
			data = data[:s.VirtualSize]
		}
		out = append(out, &rtti.Section{
			Name:        s.Name,
			Flags:       rtti.SectionFlag(s.Characteristics),
			LoadAddress: f.ImageBase + s.VirtualAddress,
			Data:        data,
		})
	}
	return out, nil
}
