package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/apex/log"

	"github.com/gitmesam/pythia/internal/delfmt"
	"github.com/gitmesam/pythia/internal/output"
	"github.com/gitmesam/pythia/internal/pex"
	"github.com/gitmesam/pythia/internal/resources"
	"github.com/gitmesam/pythia/internal/rtti"
)

// loadSections opens a PE file and returns its section views.
func loadSections(path string) (*pex.File, []*rtti.Section, error) {
	pf, err := pex.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}
	sections, err := pf.Sections()
	if err != nil {
		pf.Close()
		return nil, nil, err
	}
	return pf, sections, nil
}

// runAnalysis performs the full pipeline shared by the analyse, graph and
// methods commands.
func runAnalysis(path, profile string, maxPasses int) (*pex.File, *rtti.Result, error) {
	pf, sections, err := loadSections(path)
	if err != nil {
		return nil, nil, err
	}
	opts := delfmt.Options{
		Mode:         delfmt.ModeBestEffort,
		ForceProfile: profile,
		MaxPasses:    maxPasses,
	}
	res, err := rtti.Analyse(sections, rtti.DefaultProfiles(), opts)
	if err != nil {
		pf.Close()
		return nil, nil, fmt.Errorf("analyse: %w", err)
	}
	return pf, res, nil
}

func cmdAnalyse(args []string) error {
	fs := flag.NewFlagSet("analyse", flag.ExitOnError)
	file := fs.String("file", "", "path to PE executable")
	profile := fs.String("profile", "", "force a layout profile (delphi_legacy, delphi_modern)")
	maxPasses := fs.Int("max-passes", 0, "resolution pass cap")
	jsonOut := fs.Bool("json", false, "output report as JSON to stdout")
	outDir := fs.String("out", "", "directory for report.json/classes.json")
	verbose := fs.Bool("V", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	pf, res, err := runAnalysis(*file, *profile, *maxPasses)
	if err != nil {
		return err
	}
	defer pf.Close()

	rep := output.BuildReport(*file, res)
	attachResources(pf, rep)

	if *outDir != "" {
		if err := output.WriteReportJSON(*outDir, rep); err != nil {
			return err
		}
		if err := output.WriteClassesJSON(*outDir, rep.Classes); err != nil {
			return err
		}
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	printReport(rep)
	return nil
}

// attachResources enriches a report with license and package metadata when
// the corresponding resources exist. Their absence is only worth a note.
func attachResources(pf *pex.File, rep *output.Report) {
	if data, err := pf.ResourceData(pex.RTRCData, "DVCLAL"); err == nil {
		if name, ok := resources.DetectLicense(data); ok {
			rep.License = name
		} else {
			log.Warnf("unknown DVCLAL license blob (%d bytes)", len(data))
		}
	} else {
		log.Debug("no DVCLAL resource found")
	}
	if data, err := pf.ResourceData(pex.RTRCData, "PACKAGEINFO"); err == nil {
		pi, err := resources.ParsePackageInfo(data)
		if err != nil {
			log.Warnf("malformed PACKAGEINFO: %v", err)
		} else {
			rep.PackageInfo = pi
		}
	} else {
		log.Debug("no PACKAGEINFO resource found")
	}
}

func printReport(rep *output.Report) {
	if rep.Profile != nil {
		fmt.Printf("profile:  %s (%s)\n", rep.Profile.Name, rep.Profile.Description)
	}
	if rep.License != "" {
		fmt.Printf("license:  Delphi %s\n", rep.License)
	}
	if rep.PackageInfo != nil {
		fmt.Printf("units:    %d contained, %d required\n",
			len(rep.PackageInfo.Contains), len(rep.PackageInfo.Requires))
	}
	fmt.Printf("records:  %d in %d pass(es)\n", rep.Records, rep.Passes)
	fmt.Printf("classes:  %d\n", len(rep.Classes))
	for _, c := range rep.Classes {
		parent := ""
		if c.Parent != "" {
			parent = " : " + c.Parent
		}
		fmt.Printf("  %08x  %s%s  (%d bytes, %d methods, %d fields)\n",
			c.VA, c.Name, parent, c.InstanceSize, c.Methods, c.Fields)
	}
	for _, d := range rep.Diags {
		fmt.Printf("diag: %s\n", d)
	}
}
