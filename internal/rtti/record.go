package rtti

import "fmt"

// RecordKind identifies one of the four recoverable record types.
type RecordKind int

const (
	KindVftable RecordKind = iota
	KindTypeInfo
	KindMethodTable
	KindFieldTable
)

func (k RecordKind) String() string {
	switch k {
	case KindVftable:
		return "vftable"
	case KindTypeInfo:
		return "typeinfo"
	case KindMethodTable:
		return "methodtable"
	case KindFieldTable:
		return "fieldtable"
	default:
		return fmt.Sprintf("RecordKind(%d)", int(k))
	}
}

// Record is a parsed, validated structure at a specific VA. Records are
// immutable once validated; ownership lies with the analysis Result.
type Record interface {
	VA() uint32
	Kind() RecordKind

	// candidates lists the follow-on VAs this record exposes. Indirect
	// candidates hold the address of a cell containing the real target and
	// need one in-section dereference before dispatch.
	candidates() []candidate
}

// candidate is a VA suspected, but not yet confirmed, to lead to a record.
type candidate struct {
	va       uint32
	kind     RecordKind
	indirect bool // value is a cell address holding the target VA
	classRef bool // target is a class reference; subtract the profile distance
}

// ValidationError reports that the bytes at a VA do not form a valid record
// of the requested kind. This is an expected, frequent outcome: scanner
// candidates include false positives and the pointer graph includes garbage.
type ValidationError struct {
	Va     uint32
	Kind   RecordKind
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rtti: not a valid %s at 0x%08x: %s", e.Kind, e.Va, e.Reason)
}

func invalidf(va uint32, kind RecordKind, format string, args ...any) error {
	return &ValidationError{Va: va, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// parseRecord dispatches a kind to its validator. The switch is exhaustive
// over RecordKind so a new kind cannot be added without a validator.
func parseRecord(s *Section, va uint32, kind RecordKind, p Profile) (Record, error) {
	switch kind {
	case KindVftable:
		return ParseVftable(s, va, p)
	case KindTypeInfo:
		return ParseTypeInfo(s, va, p)
	case KindMethodTable:
		return ParseMethodTable(s, va, p)
	case KindFieldTable:
		return ParseFieldTable(s, va, p)
	default:
		return nil, fmt.Errorf("rtti: unknown record kind %d", int(kind))
	}
}

// readShortString reads a Pascal short string (length byte + bytes) at off.
// Returns the value and the total bytes consumed.
func readShortString(s *Section, off int) (string, int, error) {
	n, err := s.ReadU8(off)
	if err != nil {
		return "", 0, err
	}
	if off+1+int(n) > s.Size() {
		return "", 0, fmt.Errorf("%w: short string at 0x%x", ErrOutOfRange, off)
	}
	return string(s.Data[off+1 : off+1+int(n)]), 1 + int(n), nil
}

// validName reports whether a recovered name looks like a Delphi identifier.
// Generic instantiations carry qualified names such as
// "TList<System.Classes.TComponent>", so the tail accepts punctuation used in
// unit-qualified generic parameters.
func validName(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	if !(c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')) {
		return false
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_' || c == '.' || c == '<' || c == '>' || c == ',' || c == '@' || c == '$' || c == ':':
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// readName reads a short string at a VA and checks it is a plausible
// identifier. Shared by the vftable and typeinfo validators.
func readName(s *Section, va uint32, kind RecordKind) (string, error) {
	off, err := s.OffsetFromVA(va)
	if err != nil {
		return "", invalidf(va, kind, "name pointer out of section")
	}
	name, _, err := readShortString(s, off)
	if err != nil {
		return "", invalidf(va, kind, "truncated name")
	}
	if !validName(name) {
		return "", invalidf(va, kind, "implausible name %q", name)
	}
	return name, nil
}
