package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/gitmesam/pythia/internal/pex"
	"github.com/gitmesam/pythia/internal/resources"
)

func cmdResources(args []string) error {
	fs := flag.NewFlagSet("resources", flag.ExitOnError)
	file := fs.String("file", "", "path to PE executable")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	pf, err := pex.Open(*file)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer pf.Close()

	data, err := pf.ResourceData(pex.RTRCData, "DVCLAL")
	switch {
	case errors.Is(err, pex.ErrResourceNotFound) || errors.Is(err, pex.ErrNoResources):
		fmt.Println("license: no DVCLAL resource")
	case err != nil:
		return err
	default:
		if name, ok := resources.DetectLicense(data); ok {
			fmt.Printf("license: Delphi %s\n", name)
		} else {
			fmt.Printf("license: unknown DVCLAL blob (% x)\n", data)
		}
	}

	data, err = pf.ResourceData(pex.RTRCData, "PACKAGEINFO")
	switch {
	case errors.Is(err, pex.ErrResourceNotFound) || errors.Is(err, pex.ErrNoResources):
		fmt.Println("packages: no PACKAGEINFO resource")
		return nil
	case err != nil:
		return err
	}

	pi, err := resources.ParsePackageInfo(data)
	if err != nil {
		return err
	}
	fmt.Printf("package flags: 0x%08x\n", pi.Flags)
	fmt.Printf("requires (%d):\n", len(pi.Requires))
	for _, r := range pi.Requires {
		fmt.Printf("  %s\n", r)
	}
	fmt.Printf("contains (%d):\n", len(pi.Contains))
	for _, u := range pi.Contains {
		fmt.Printf("  [%02x] %s\n", u.Flags, u.Name)
	}
	return nil
}
