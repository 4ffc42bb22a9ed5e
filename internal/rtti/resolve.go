package rtti

import (
	"sort"

	"github.com/apex/log"

	"github.com/gitmesam/pythia/internal/delfmt"
)

// kindOrder fixes the dispatch order within a pass so runs are reproducible.
var kindOrder = [...]RecordKind{KindVftable, KindTypeInfo, KindMethodTable, KindFieldTable}

// resolver expands the record graph from seed candidates to a fixpoint. All
// state is owned by one resolver per run; nothing is shared or global.
type resolver struct {
	section *Section
	profile Profile

	visited map[RecordKind]map[uint32]struct{}
	pending map[RecordKind]map[uint32]struct{}
	items   []Record
	diags   *delfmt.Diags

	maxPasses int
	passes    int
}

func newResolver(s *Section, p Profile, diags *delfmt.Diags, maxPasses int) *resolver {
	r := &resolver{
		section:   s,
		profile:   p,
		visited:   make(map[RecordKind]map[uint32]struct{}),
		pending:   make(map[RecordKind]map[uint32]struct{}),
		diags:     diags,
		maxPasses: maxPasses,
	}
	for _, k := range kindOrder {
		r.visited[k] = make(map[uint32]struct{})
		r.pending[k] = make(map[uint32]struct{})
	}
	return r
}

// resolveCandidate turns a candidate into the VA to dispatch, applying the
// pointer-to-pointer rule (one extra in-section dereference) and rebasing
// class references by the profile distance. A dereference landing outside the
// section discards the candidate; that is routine, not an error.
func (r *resolver) resolveCandidate(c candidate) (uint32, bool) {
	va := c.va
	if c.indirect {
		target, err := r.section.DerefU32(va)
		if err != nil || target == 0 {
			return 0, false
		}
		va = target
	}
	if c.classRef {
		if va < r.profile.Distance {
			return 0, false
		}
		va -= r.profile.Distance
	}
	if !r.section.ContainsVA(va) {
		return 0, false
	}
	return va, true
}

// enqueue adds a VA to a kind's candidate set unless it was already parsed.
func (r *resolver) enqueue(va uint32, kind RecordKind) {
	if _, seen := r.visited[kind][va]; seen {
		return
	}
	r.pending[kind][va] = struct{}{}
}

func (r *resolver) seed(c candidate) {
	if va, ok := r.resolveCandidate(c); ok {
		r.enqueue(va, c.kind)
	}
}

func (r *resolver) pendingEmpty() bool {
	for _, k := range kindOrder {
		if len(r.pending[k]) > 0 {
			return false
		}
	}
	return true
}

// run repeats passes until a pass adds no new candidates or the pass cap is
// hit. The cap is the sole termination guarantee against malformed pointer
// cycles; hitting it yields a diagnostic and the partial result, since
// partial recovery is still useful to an analyst.
func (r *resolver) run() {
	for pass := 1; ; pass++ {
		if r.pendingEmpty() {
			return
		}
		if pass > r.maxPasses {
			r.diags.Addf(0, delfmt.DiagPassLimit,
				"resolution stopped after %d passes with candidates outstanding", r.maxPasses)
			log.Warnf("pass limit %d exceeded, returning partial result", r.maxPasses)
			return
		}
		r.passes = pass
		for _, kind := range kindOrder {
			r.runKind(kind)
		}
	}
}

func (r *resolver) runKind(kind RecordKind) {
	take := make([]uint32, 0, len(r.pending[kind]))
	for va := range r.pending[kind] {
		take = append(take, va)
	}
	r.pending[kind] = make(map[uint32]struct{})
	sort.Slice(take, func(i, j int) bool { return take[i] < take[j] })

	for _, va := range take {
		if _, seen := r.visited[kind][va]; seen {
			continue
		}
		r.visited[kind][va] = struct{}{}

		rec, err := parseRecord(r.section, va, kind, r.profile)
		if err != nil {
			// Expected for scanner false positives and dangling pointers.
			log.Debugf("could not validate %s at 0x%08x: %v", kind, va, err)
			continue
		}
		r.items = append(r.items, rec)
		r.follow(rec)
	}
}

// follow enqueues a validated record's outgoing references. Vftables also get
// their parent link rebased to the parent vftable VA for hierarchy building.
func (r *resolver) follow(rec Record) {
	v, isVftable := rec.(*Vftable)
	for _, c := range rec.candidates() {
		resolved, ok := r.resolveCandidate(c)
		if !ok {
			continue
		}
		if isVftable && c.classRef && c.va == v.Parent {
			v.ParentClass = resolved
		}
		r.enqueue(resolved, c.kind)
	}
}
