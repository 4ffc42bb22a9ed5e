// Package disasm provides x86 disassembly previews for recovered methods.
package disasm

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// Inst is a decoded x86 instruction with address and raw bytes.
type Inst struct {
	Addr uint32
	Raw  []byte
	Size int
	Text string
}

// Options controls disassembly behavior.
type Options struct {
	BaseAddr uint32 // VA of the first byte in Data
	MaxInsts int    // maximum instructions to decode; 0 = defaultMaxInsts
}

const defaultMaxInsts = 16

func (o Options) effectiveMax() int {
	if o.MaxInsts > 0 {
		return o.MaxInsts
	}
	return defaultMaxInsts
}

// Disassemble decodes 32-bit x86 instructions from a byte region, stopping
// at the instruction cap, the end of data, or a return. Undecodable bytes
// are emitted as "db" lines one byte at a time.
func Disassemble(data []byte, opts Options) []Inst {
	max := opts.effectiveMax()
	var result []Inst
	off := 0
	for len(result) < max && off < len(data) {
		addr := opts.BaseAddr + uint32(off)
		inst, err := x86asm.Decode(data[off:], 32)
		if err != nil || inst.Len == 0 {
			result = append(result, Inst{
				Addr: addr,
				Raw:  data[off : off+1],
				Size: 1,
				Text: fmt.Sprintf("db 0x%02x", data[off]),
			})
			off++
			continue
		}
		result = append(result, Inst{
			Addr: addr,
			Raw:  data[off : off+inst.Len],
			Size: inst.Len,
			Text: x86asm.IntelSyntax(inst, uint64(addr), nil),
		})
		off += inst.Len
		if inst.Op == x86asm.RET {
			break
		}
	}
	return result
}

// Format renders instructions as stable text output, one per line:
// <addr>  <hex bytes>  <disasm>
func Format(insts []Inst) string {
	var b strings.Builder
	for _, in := range insts {
		hex := make([]string, len(in.Raw))
		for i, c := range in.Raw {
			hex[i] = fmt.Sprintf("%02x", c)
		}
		fmt.Fprintf(&b, "%08x  %-24s  %s\n", in.Addr, strings.Join(hex, " "), in.Text)
	}
	return b.String()
}
