// Package delfmt provides shared types and diagnostics for Delphi metadata recovery.
package delfmt

import "fmt"

// DiagKind classifies a diagnostic message.
type DiagKind string

const (
	DiagNoProfile  DiagKind = "no_profile"
	DiagPassLimit  DiagKind = "pass_limit"
	DiagInvalid    DiagKind = "invalid"
	DiagTruncated  DiagKind = "truncated"
	DiagNoResource DiagKind = "no_resource"
)

// Diag records a non-fatal issue encountered during analysis.
type Diag struct {
	VA   uint32   `json:"va"`
	Kind DiagKind `json:"kind"`
	Msg  string   `json:"msg"`
}

func (d Diag) String() string {
	return fmt.Sprintf("[%s] 0x%08x: %s", d.Kind, d.VA, d.Msg)
}

// Diags accumulates diagnostics.
type Diags struct {
	items []Diag
}

func (d *Diags) Add(va uint32, kind DiagKind, msg string) {
	d.items = append(d.items, Diag{VA: va, Kind: kind, Msg: msg})
}

func (d *Diags) Addf(va uint32, kind DiagKind, format string, args ...any) {
	d.items = append(d.items, Diag{VA: va, Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

func (d *Diags) Items() []Diag { return d.items }
func (d *Diags) Len() int      { return len(d.items) }

// Mode controls error handling behavior.
type Mode int

const (
	ModeStrict     Mode = iota // first structural error returns error
	ModeBestEffort             // continue, accumulate diags
)

// Options controls analysis behavior across packages.
type Options struct {
	Mode         Mode
	ForceProfile string // explicit profile name; skips disambiguation
	MaxPasses    int    // resolution pass cap; 0 = use default
}

// DefaultMaxPasses bounds the resolver against malformed pointer cycles.
const DefaultMaxPasses = 16

func (o Options) EffectiveMaxPasses() int {
	if o.MaxPasses > 0 {
		return o.MaxPasses
	}
	return DefaultMaxPasses
}
