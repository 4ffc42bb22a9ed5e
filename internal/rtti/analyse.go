package rtti

import (
	"errors"
	"fmt"
	"strings"

	"github.com/apex/log"

	"github.com/gitmesam/pythia/internal/delfmt"
)

var (
	// ErrAmbiguousProfile means more than one layout generation produced
	// vftable candidates; the caller must name one explicitly.
	ErrAmbiguousProfile = errors.New("rtti: multiple profiles match")

	// ErrObjectsInMultipleSections means vftable candidates were found in
	// more than one code section, which the per-section object graph
	// assumption cannot handle.
	ErrObjectsInMultipleSections = errors.New("rtti: objects in more than one section")

	ErrUnknownProfile = errors.New("rtti: unknown profile")
)

// Result is the accumulated outcome of one analysis run. It is read-only
// once Analyse returns.
type Result struct {
	Profile      *Profile      `json:"profile,omitempty"`
	Items        []Record      `json:"items"`
	CodeSections []*Section    `json:"code_sections"`
	DataSections []*Section    `json:"data_sections"`
	Passes       int           `json:"passes"`
	Diags        []delfmt.Diag `json:"diagnostics,omitempty"`
}

// Vftables returns the recovered vftables in discovery order.
func (r *Result) Vftables() []*Vftable {
	var out []*Vftable
	for _, it := range r.Items {
		if v, ok := it.(*Vftable); ok {
			out = append(out, v)
		}
	}
	return out
}

// Analyse scans the given sections for vftables under each profile, settles
// on the uniquely matching profile, then resolves the transitive closure of
// reachable records from the accepted vftables.
//
// Fatal conditions (profile ambiguity, objects in multiple sections) return
// an error. Finding nothing is not fatal: the result is empty and carries a
// diagnostic.
func Analyse(sections []*Section, profiles []Profile, opts delfmt.Options) (*Result, error) {
	var diags delfmt.Diags
	res := &Result{}
	for _, s := range sections {
		if s.IsCode() {
			res.CodeSections = append(res.CodeSections, s)
		}
		if s.IsData() {
			res.DataSections = append(res.DataSections, s)
		}
	}
	log.Debugf("found %d code section(s), %d data section(s)",
		len(res.CodeSections), len(res.DataSections))

	if opts.ForceProfile != "" {
		p, ok := FindProfile(profiles, opts.ForceProfile)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, opts.ForceProfile)
		}
		profiles = []Profile{p}
	}

	// Scan every code section under every profile. The single-winner check
	// runs over candidate counts summed across the whole run, so the result
	// does not depend on section order.
	type hit struct {
		section *Section
		vas     []uint32
	}
	hits := make([][]hit, len(profiles))
	counts := make([]int, len(profiles))
	for pi, p := range profiles {
		for _, s := range res.CodeSections {
			vas := ScanSection(s, p)
			if len(vas) == 0 {
				continue
			}
			log.WithFields(log.Fields{
				"section": s.Name,
				"profile": p.Name,
			}).Debugf("%d vftable candidate(s)", len(vas))
			hits[pi] = append(hits[pi], hit{section: s, vas: vas})
			counts[pi] += len(vas)
		}
	}

	var winners []int
	for pi := range profiles {
		if counts[pi] > 0 {
			winners = append(winners, pi)
		}
	}
	// A forced profile is the sole entry in profiles; it wins outright, even
	// with zero candidates, since the caller overrode detection.
	chosenIdx := 0
	if opts.ForceProfile == "" {
		switch {
		case len(winners) == 0:
			diags.Add(0, delfmt.DiagNoProfile, "no recognizable Delphi layout found")
			res.Diags = diags.Items()
			return res, nil
		case len(winners) > 1:
			var names []string
			for _, pi := range winners {
				names = append(names, fmt.Sprintf("%s (%d)", profiles[pi].Name, counts[pi]))
			}
			return nil, fmt.Errorf("%w: %s", ErrAmbiguousProfile, strings.Join(names, ", "))
		}
		chosenIdx = winners[0]
	}

	chosen := profiles[chosenIdx]
	res.Profile = &chosen
	log.Infof("using profile %s: %s", chosen.Name, chosen.Description)

	if len(hits[chosenIdx]) == 0 {
		res.Diags = diags.Items()
		return res, nil
	}
	if len(hits[chosenIdx]) > 1 {
		var names []string
		for _, h := range hits[chosenIdx] {
			names = append(names, h.section.Name)
		}
		return nil, fmt.Errorf("%w: %s", ErrObjectsInMultipleSections, strings.Join(names, ", "))
	}

	objects := hits[chosenIdx][0]
	log.Infof("analysing section %s (%d candidate vftables)",
		objects.section.Name, len(objects.vas))

	r := newResolver(objects.section, chosen, &diags, opts.EffectiveMaxPasses())
	for _, va := range objects.vas {
		r.seed(candidate{va: va, kind: KindVftable})
	}
	r.run()

	res.Items = r.items
	res.Passes = r.passes
	res.Diags = diags.Items()
	log.Infof("recovered %d record(s) in %d pass(es)", len(res.Items), res.Passes)
	return res, nil
}
