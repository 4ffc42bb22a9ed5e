package main

import (
	"flag"
	"fmt"
)

func cmdSections(args []string) error {
	fs := flag.NewFlagSet("sections", flag.ExitOnError)
	file := fs.String("file", "", "path to PE executable")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	pf, sections, err := loadSections(*file)
	if err != nil {
		return err
	}
	defer pf.Close()

	fmt.Printf("image base 0x%08x, %d section(s)\n", pf.ImageBase, len(sections))
	for _, s := range sections {
		kind := ""
		if s.IsCode() {
			kind += "code "
		}
		if s.IsData() {
			kind += "data "
		}
		fmt.Printf("  %-8s  VA=0x%08x  size=0x%08x  %s\n", s.Name, s.LoadAddress, s.Size(), kind)
	}
	return nil
}
