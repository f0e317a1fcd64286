// Package ferr defines the error taxonomy shared by every component of the
// font toolkit: container decoding, font-record parsing, registry I/O, and
// query resolution all report failures through the same small set of kinds
// so that callers can type-switch once regardless of which layer failed.
package ferr

import "fmt"

// Kind classifies an Error. Callers that care about the failure mode should
// switch on Kind rather than comparing error strings.
type Kind int

const (
	// KindUnsupportedContainer means the input's magic bytes were not
	// recognized as OTF/TTF/TTC/WOFF/WOFF2.
	KindUnsupportedContainer Kind = iota
	// KindCorruptContainer means the magic was recognized but the
	// container's internal offsets, lengths, or checksums are inconsistent.
	KindCorruptContainer
	// KindParseError means a specific OpenType table failed to parse.
	KindParseError
	// KindMissingTable means a required table (cmap, head, hhea, hmtx) is
	// absent.
	KindMissingTable
	// KindEmptyFamily means a query was attempted with an empty family
	// string.
	KindEmptyFamily
	// KindIoError means a filesystem operation failed during search or
	// cache spill.
	KindIoError
	// KindNotFound means the resolver produced no unique match.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedContainer:
		return "unsupported container"
	case KindCorruptContainer:
		return "corrupt container"
	case KindParseError:
		return "parse error"
	case KindMissingTable:
		return "missing table"
	case KindEmptyFamily:
		return "empty family"
	case KindIoError:
		return "io error"
	case KindNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by this module's packages.
// Table and Path are populated only when relevant to Kind.
type Error struct {
	Kind  Kind
	Table string // populated for KindParseError / KindMissingTable
	Path  string // populated for KindIoError
	Err   error  // wrapped cause, if any
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindParseError:
		return fmt.Sprintf("font: parse error in %q table: %v", e.Table, e.Err)
	case KindMissingTable:
		return fmt.Sprintf("font: missing required %q table", e.Table)
	case KindIoError:
		return fmt.Sprintf("font: io error on %q: %v", e.Path, e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("font: %s: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("font: %s", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a bare Error of the given kind with no wrapped cause.
func New(kind Kind) *Error { return &Error{Kind: kind} }

// Wrap builds an Error of the given kind wrapping err.
func Wrap(kind Kind, err error) *Error { return &Error{Kind: kind, Err: err} }

// ParseError builds a KindParseError naming the offending table.
func ParseError(table string, err error) *Error {
	return &Error{Kind: KindParseError, Table: table, Err: err}
}

// MissingTable builds a KindMissingTable naming the absent table.
func MissingTable(table string) *Error {
	return &Error{Kind: KindMissingTable, Table: table}
}

// IoError builds a KindIoError naming the offending path.
func IoError(path string, err error) *Error {
	return &Error{Kind: KindIoError, Path: path, Err: err}
}

// Is reports whether err (or any error it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
