// Package key defines the canonical font identity used to index and query
// the registry, plus the width string/number codec spec.md §4.A describes.
//
// FontKey equality, hashing, and ordering must be deterministic and stable
// across processes: family comparison folds case after NFC normalization,
// and variation axes are canonicalized (sorted by tag) at construction time
// so two keys built from the same axes in different orders compare equal.
package key

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Weight is an OpenType-style weight class, 1..1000 (default 400).
type Weight int

// DefaultWeight is used when a FontKey omits a weight.
const DefaultWeight Weight = 400

// String names the nearest named weight bucket, mirroring the teacher
// repo's font.Weight.String() bucketing.
func (w Weight) String() string {
	switch {
	case w <= 100:
		return "thin"
	case w <= 200:
		return "extra-light"
	case w <= 300:
		return "light"
	case w <= 400:
		return "normal"
	case w <= 500:
		return "medium"
	case w <= 600:
		return "semi-bold"
	case w <= 700:
		return "bold"
	case w <= 800:
		return "extra-bold"
	default:
		return "black"
	}
}

// Stretch is an OpenType width class, 1..9 (default 5 = "normal").
type Stretch int

// DefaultStretch is used when a FontKey omits a stretch.
const DefaultStretch Stretch = 5

// String returns the canonical alias for s; a value outside 1..9 yields
// "normal".
func (s Stretch) String() string {
	n, ok := numberToStr[int(s)]
	if !ok {
		return "normal"
	}
	return n
}

var strToNumber = map[string]int{
	"ultracondensed": 1,
	"extracondensed": 2,
	"condensed":      3,
	"semicondensed":  4,
	"normal":         5,
	"semiexpanded":   6,
	"expanded":       7,
	"extraexpanded":  8,
	"ultraexpanded":  9,
}

var numberToStr = map[int]string{
	1: "ultra-condensed",
	2: "extra-condensed",
	3: "condensed",
	4: "semi-condensed",
	5: "normal",
	6: "semi-expanded",
	7: "expanded",
	8: "extra-expanded",
	9: "ultra-expanded",
}

// foldWidthAlias normalizes a width alias for lookup: lowercase and strip
// interior hyphens, so "Ultra-Condensed", "ultra condensed", and
// "ultracondensed" all match.
func foldWidthAlias(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// StrWidthToNumber maps a named stretch alias (case-insensitive, hyphens
// ignored) to its OpenType width class 1..9. Unknown input yields 5.
func StrWidthToNumber(s string) Stretch {
	if n, ok := strToNumber[foldWidthAlias(s)]; ok {
		return Stretch(n)
	}
	return DefaultStretch
}

// NumberWidthToStr maps an OpenType width class to its canonical alias.
// Out-of-range input yields "normal".
func NumberWidthToStr(n int) string {
	return Stretch(n).String()
}

// Axis is a 4-byte OpenType variation axis tag, e.g. "wght" or "ital".
type Axis string

// Upper returns the axis tag uppercased, the canonical form used for
// equality/hash/ordering per spec.md §3.
func (a Axis) Upper() Axis { return Axis(strings.ToUpper(string(a))) }

// Variation is one (axis, value) pair in a FontKey's variation list.
type Variation struct {
	Axis  Axis
	Value float32
}

// FontKey is the canonical identity used to index and query the registry.
//
// Two keys are equal iff: Family compares equal case-insensitively after
// NFC normalization; Weight, Italic, and Stretch compare equal; and
// Variations compare equal as multisets after axis-tag uppercasing. Use
// Normalize to obtain a key in canonical form before storing it in a map or
// comparing it with Equal.
type FontKey struct {
	Family     string
	Weight     Weight
	Italic     bool
	Stretch    Stretch
	Variations []Variation
}

// New builds a FontKey with spec-mandated defaults (weight 400, stretch 5,
// italic false) and an empty variation list, then normalizes it.
func New(family string) FontKey {
	return FontKey{Family: family, Weight: DefaultWeight, Stretch: DefaultStretch}.Normalize()
}

// Normalize returns k in canonical form: variations sorted by uppercased
// axis tag, and zero-valued Weight/Stretch replaced by their defaults.
// Family is left exactly as given (no NFC normalization or case change);
// comparisons fold it through foldFamily instead.
func (k FontKey) Normalize() FontKey {
	out := k
	if out.Weight == 0 {
		out.Weight = DefaultWeight
	}
	if out.Stretch == 0 {
		out.Stretch = DefaultStretch
	}
	out.Variations = append([]Variation(nil), k.Variations...)
	for i := range out.Variations {
		out.Variations[i].Axis = out.Variations[i].Axis.Upper()
	}
	sort.Slice(out.Variations, func(i, j int) bool {
		return out.Variations[i].Axis < out.Variations[j].Axis
	})
	return out
}

// foldFamily is the canonical comparison form of a family name: NFC
// normalization followed by case folding.
func foldFamily(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// FamilyEqual reports whether a and b name the same family under the
// case-insensitive, NFC-normalized comparison spec.md §3 mandates.
func FamilyEqual(a, b string) bool {
	return foldFamily(a) == foldFamily(b)
}

// Equal reports whether k and other denote the same canonical identity.
// Both keys are normalized before comparison, so callers need not call
// Normalize themselves.
func (k FontKey) Equal(other FontKey) bool {
	a, b := k.Normalize(), other.Normalize()
	if !FamilyEqual(a.Family, b.Family) {
		return false
	}
	if a.Weight != b.Weight || a.Italic != b.Italic || a.Stretch != b.Stretch {
		return false
	}
	if len(a.Variations) != len(b.Variations) {
		return false
	}
	for i := range a.Variations {
		if a.Variations[i] != b.Variations[i] {
			return false
		}
	}
	return true
}

// Digest returns a stable string uniquely identifying k's canonical form,
// suitable as a map key or a cache-spill filename stem (see registry's
// <digest>.bin naming in spec.md §6). It is deterministic across processes
// for equal keys.
func (k FontKey) Digest() string {
	n := k.Normalize()
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%d|%t|%d", foldFamily(n.Family), n.Weight, n.Italic, n.Stretch)
	for _, v := range n.Variations {
		fmt.Fprintf(&b, "|%s=%g", v.Axis, v.Value)
	}
	return b.String()
}

// Query is a partial identity used to search the registry (spec.md §4.E/
// §4.F). Unlike FontKey, every field beyond Family is optional and tracked
// explicitly via a pointer: FontKey itself cannot represent "don't care"
// because it is used as a Go map key (registry.Registry indexes by
// FontKey), which rules out pointer fields there, and because its zero
// value is itself meaningful (Weight 0 normalizes to 400, Stretch 0 to 5).
// A Query is never stored; it is built, resolved, and discarded.
type Query struct {
	Family     string
	Weight     *Weight
	Italic     *bool
	Stretch    *Stretch
	Variations []Variation // empty: no variation filter
}

// NewQuery builds a Query for family with every other field unset.
func NewQuery(family string) Query { return Query{Family: family} }

// WithWeight returns a copy of q with an exact-or-nearest weight filter.
func (q Query) WithWeight(w Weight) Query { q.Weight = &w; return q }

// WithItalic returns a copy of q with an italic/roman filter.
func (q Query) WithItalic(italic bool) Query { q.Italic = &italic; return q }

// WithStretch returns a copy of q with an exact-or-nearest stretch filter.
func (q Query) WithStretch(s Stretch) Query { q.Stretch = &s; return q }

// WithVariations returns a copy of q with a variation multiset filter
// (consulted only by exact match, per spec.md §4.F).
func (q Query) WithVariations(vs []Variation) Query {
	q.Variations = append([]Variation(nil), vs...)
	return q
}

// AsQuery converts a fully-populated FontKey into a Query with every field
// present, for callers (such as ExactMatch on a key obtained from a prior
// Query) that already hold a concrete identity rather than a partial one.
func (k FontKey) AsQuery() Query {
	n := k.Normalize()
	w, i, s := n.Weight, n.Italic, n.Stretch
	return Query{Family: n.Family, Weight: &w, Italic: &i, Stretch: &s, Variations: n.Variations}
}

func (k FontKey) String() string {
	style := "normal"
	if k.Italic {
		style = "italic"
	}
	return fmt.Sprintf("%s %d %s %s", k.Family, k.Weight, style, k.Stretch)
}
