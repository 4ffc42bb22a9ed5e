package rtti

import (
	"github.com/apex/log"
	"github.com/xyproto/env/v2"
)

var debugScan = env.Bool("PYTHIA_DEBUG_SCAN")

// screenWords is the number of 32-bit words after the self pointer that must
// each be zero or an in-section VA before a match is accepted. This bounds
// the false-positive rate without full structural knowledge; the vftable
// validator performs the thorough check later.
const screenWords = 5

// ScanSection hunts for vftable candidates in one code section under a given
// profile. Every vftable embeds a pointer to its own virtual method slots, a
// fixed distance from its start, which gives a signature-free fingerprint:
// the word at offset i must equal load_address + i + distance.
func ScanSection(s *Section, p Profile) []uint32 {
	var found []uint32
	distance := int(p.Distance)
	ptrSize := p.PointerSize
	if ptrSize <= 0 {
		ptrSize = 4
	}
	stride := p.Alignment
	if stride <= 0 {
		stride = ptrSize
	}

	for i := 0; i+distance < s.Size(); i += stride {
		ptr, err := s.ReadU32(i)
		if err != nil {
			break
		}
		va := s.LoadAddress + uint32(i)
		if va+p.Distance != ptr {
			continue
		}

		ok := true
		for j := 1; j <= screenWords; j++ {
			w, err := s.ReadU32(i + j*ptrSize)
			if err != nil || (w != 0 && !s.ContainsVA(w)) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		if debugScan {
			log.WithFields(log.Fields{
				"section": s.Name,
				"profile": p.Name,
			}).Debugf("potential vftable at 0x%08x", va)
		}
		found = append(found, va)
	}
	return found
}
