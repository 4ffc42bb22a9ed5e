// Package output writes pythia analysis results to files.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gitmesam/pythia/internal/delfmt"
	"github.com/gitmesam/pythia/internal/hierarchy"
	"github.com/gitmesam/pythia/internal/resources"
	"github.com/gitmesam/pythia/internal/rtti"
)

// ClassEntry is the flattened per-class view written to classes.json.
type ClassEntry struct {
	VA           uint32 `json:"va"`
	Name         string `json:"name"`
	Parent       string `json:"parent,omitempty"`
	InstanceSize uint32 `json:"instance_size"`
	Methods      int    `json:"methods"`
	Fields       int    `json:"fields"`
}

// Report aggregates everything one analysis run produced, including the
// optional resource metadata enrichment.
type Report struct {
	File        string                 `json:"file"`
	Profile     *rtti.Profile          `json:"profile,omitempty"`
	Classes     []ClassEntry           `json:"classes"`
	Records     int                    `json:"records"`
	Passes      int                    `json:"passes"`
	License     string                 `json:"license,omitempty"`
	PackageInfo *resources.PackageInfo `json:"package_info,omitempty"`
	Diags       []delfmt.Diag          `json:"diagnostics,omitempty"`
}

// BuildReport flattens an analysis result into a Report.
func BuildReport(file string, res *rtti.Result) *Report {
	rep := &Report{
		File:    file,
		Profile: res.Profile,
		Records: len(res.Items),
		Passes:  res.Passes,
		Diags:   res.Diags,
	}

	methods := make(map[uint32]int)
	fields := make(map[uint32]int)
	for _, it := range res.Items {
		switch r := it.(type) {
		case *rtti.MethodTable:
			methods[r.Addr] = len(r.Methods)
		case *rtti.FieldTable:
			fields[r.Addr] = len(r.Fields)
		}
	}

	links := hierarchy.Links(res.Items)
	for i, v := range res.Vftables() {
		rep.Classes = append(rep.Classes, ClassEntry{
			VA:           v.Addr,
			Name:         v.ClassName,
			Parent:       links[i].Parent,
			InstanceSize: v.InstanceSize,
			Methods:      methods[v.MethodTable],
			Fields:       fields[v.FieldTable],
		})
	}
	return rep
}

// WriteReportJSON writes the analysis report to report.json.
func WriteReportJSON(dir string, rep *Report) error {
	return writeJSON(filepath.Join(dir, "report.json"), rep)
}

// WriteClassesJSON writes the per-class entries to classes.json.
func WriteClassesJSON(dir string, classes []ClassEntry) error {
	return writeJSON(filepath.Join(dir, "classes.json"), classes)
}

// WriteDOT writes a rendered graph to classes.dot.
func WriteDOT(dir, dot string) error {
	return os.WriteFile(filepath.Join(dir, "classes.dot"), []byte(dot), 0644)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: mkdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("output: encode %s: %w", path, err)
	}
	return nil
}
