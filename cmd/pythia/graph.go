package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/gitmesam/pythia/internal/hierarchy"
	"github.com/gitmesam/pythia/internal/output"
	"github.com/gitmesam/pythia/internal/render"
)

func cmdGraph(args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	file := fs.String("file", "", "path to PE executable")
	profile := fs.String("profile", "", "force a layout profile")
	maxNodes := fs.Int("max-nodes", 0, "limit rendered classes (0 = all)")
	jsonOut := fs.Bool("json", false, "emit the graph as JSON instead of DOT")
	outDir := fs.String("out", "", "directory for classes.dot")

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

	if *jsonOut {
		g := hierarchy.BuildClassGraph(res.Items)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	}

	dot := render.ClassgraphDOT(res.Vftables(), *file, *maxNodes)
	if *outDir != "" {
		return output.WriteDOT(*outDir, dot)
	}
	fmt.Print(dot)
	return nil
}
