package disasm

import (
	"strings"
	"testing"
)

func TestDisassembleProlog(t *testing.T) {
	// push ebp; mov ebp, esp; ret
	code := []byte{0x55, 0x8B, 0xEC, 0xC3}
	insts := Disassemble(code, Options{BaseAddr: 0x00402000})

	if len(insts) != 3 {
		t.Fatalf("decoded %d instructions, want 3", len(insts))
	}
	if insts[0].Addr != 0x00402000 || insts[1].Addr != 0x00402001 {
		t.Errorf("addresses = 0x%08x, 0x%08x", insts[0].Addr, insts[1].Addr)
	}
	if !strings.HasPrefix(insts[0].Text, "push") {
		t.Errorf("inst 0 = %q, want push", insts[0].Text)
	}
	if !strings.HasPrefix(insts[1].Text, "mov") {
		t.Errorf("inst 1 = %q, want mov", insts[1].Text)
	}
	if !strings.HasPrefix(insts[2].Text, "ret") {
		t.Errorf("inst 2 = %q, want ret", insts[2].Text)
	}
}

func TestDisassembleStopsAtRet(t *testing.T) {
	// ret followed by more code; the preview stops at the return.
	code := []byte{0xC3, 0x90, 0x90}
	insts := Disassemble(code, Options{BaseAddr: 0x00402000})
	if len(insts) != 1 {
		t.Fatalf("decoded %d instructions, want 1", len(insts))
	}
}

func TestDisassembleMaxInsts(t *testing.T) {
	code := make([]byte, 64) // nop sled would decode forever without the cap
	for i := range code {
		code[i] = 0x90
	}
	insts := Disassemble(code, Options{BaseAddr: 0x00402000, MaxInsts: 4})
	if len(insts) != 4 {
		t.Fatalf("decoded %d instructions, want 4", len(insts))
	}
}

func TestDisassembleUndecodableBytes(t *testing.T) {
	insts := Disassemble([]byte{0xFF}, Options{BaseAddr: 0x00402000})
	if len(insts) != 1 || !strings.HasPrefix(insts[0].Text, "db ") {
		t.Fatalf("insts = %+v, want one db line", insts)
	}
}

func TestFormat(t *testing.T) {
	out := Format([]Inst{{Addr: 0x00402000, Raw: []byte{0x55}, Size: 1, Text: "push ebp"}})
	if !strings.Contains(out, "00402000") || !strings.Contains(out, "push ebp") {
		t.Errorf("Format = %q", out)
	}
}
