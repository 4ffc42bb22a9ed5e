package main

import (
	"flag"
	"fmt"

	"github.com/gitmesam/pythia/internal/disasm"
	"github.com/gitmesam/pythia/internal/rtti"
)

func cmdMethods(args []string) error {
	fs := flag.NewFlagSet("methods", flag.ExitOnError)
	file := fs.String("file", "", "path to PE executable")
	profile := fs.String("profile", "", "force a layout profile")
	maxInsts := fs.Int("max-insts", 8, "instructions to preview per method")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	pf, res, err := runAnalysis(*file, *profile, 0)
	if err != nil {
		return err
	}
	defer pf.Close()

	// Map method table VAs back to their owning class for labeling.
	owner := make(map[uint32]string)
	for _, v := range res.Vftables() {
		if v.MethodTable != 0 {
			owner[v.MethodTable] = v.ClassName
		}
	}

	sections := append(res.CodeSections, res.DataSections...)
	for _, it := range res.Items {
		mt, ok := it.(*rtti.MethodTable)
		if !ok {
			continue
		}
		class := owner[mt.Addr]
		if class == "" {
			class = fmt.Sprintf("table_%08x", mt.Addr)
		}
		for _, m := range mt.Methods {
			body := methodBytes(sections, m.Code)
			if body == nil {
				continue
			}
			fmt.Printf("%s.%s @ 0x%08x\n", class, m.Name, m.Code)
			insts := disasm.Disassemble(body, disasm.Options{
				BaseAddr: m.Code,
				MaxInsts: *maxInsts,
			})
			fmt.Print(disasm.Format(insts))
			fmt.Println()
		}
	}
	return nil
}

// methodBytes returns the section bytes starting at a method entry point, or
// nil when the VA is not mapped by any known section.
func methodBytes(sections []*rtti.Section, va uint32) []byte {
	for _, s := range sections {
		if off, err := s.OffsetFromVA(va); err == nil {
			return s.Data[off:]
		}
	}
	return nil
}
