// Package query implements component F of the font toolkit: the staged
// filter pipeline that narrows a partial FontKey down to at most one
// registered font, plus the exact-match variant that bypasses every
// relaxation stage.
package query

import (
	"sort"

	"github.com/textkit/fonttk/key"
)

// Candidate is the minimal view the resolver needs of a registered font:
// its canonical key plus every alternate family name recorded in its name
// table. Ref is opaque to this package and is returned unchanged so the
// caller (the registry) can map a surviving candidate back to its record.
type Candidate struct {
	Key         key.FontKey
	FamilyNames []string
	Ref         any
}

// Resolve runs the §4.F staged pipeline over candidates and returns the
// single surviving one, or ok=false if zero or more than one remain after
// every stage. A stage whose corresponding Query field is nil (not
// provided) is skipped entirely rather than filtering toward some default,
// per spec.md §4.F's "Family is mandatory; other fields are optional
// filters."
func Resolve(candidates []Candidate, q key.Query) (Candidate, bool) {
	s := filterFamily(candidates, q.Family)
	if len(s) == 0 {
		return Candidate{}, false
	}
	if len(s) == 1 {
		return s[0], true
	}

	if q.Weight != nil {
		s = narrowWeight(s, *q.Weight)
		if len(s) == 1 {
			return s[0], true
		}
	}

	if q.Italic != nil {
		s = narrowItalic(s, *q.Italic)
		if len(s) == 1 {
			return s[0], true
		}
	}

	if q.Stretch != nil {
		s = narrowStretch(s, *q.Stretch)
		if len(s) == 1 {
			return s[0], true
		}
	}
	if len(s) == 1 {
		return s[0], true
	}
	return Candidate{}, false
}

// ExactMatch returns the candidate matching every field q provides,
// bypassing every relaxation stage: a provided field must match exactly,
// and a field left nil is not checked at all (so a fully-populated Query,
// e.g. from FontKey.AsQuery, behaves as a true exact match, while a
// partial one still narrows without relaxing). ok is false if zero or more
// than one candidate satisfies every provided field.
func ExactMatch(candidates []Candidate, q key.Query) (Candidate, bool) {
	var result Candidate
	found := false
	for _, c := range candidates {
		if !matchesFamily(c.FamilyNames, q.Family) {
			continue
		}
		if q.Weight != nil && c.Key.Weight != *q.Weight {
			continue
		}
		if q.Italic != nil && c.Key.Italic != *q.Italic {
			continue
		}
		if q.Stretch != nil && c.Key.Stretch != *q.Stretch {
			continue
		}
		if len(q.Variations) > 0 && !variationsEqual(c.Key.Variations, q.Variations) {
			continue
		}
		if found {
			return Candidate{}, false
		}
		result, found = c, true
	}
	return result, found
}

func matchesFamily(names []string, family string) bool {
	for _, name := range names {
		if key.FamilyEqual(name, family) {
			return true
		}
	}
	return false
}

// FilterFamily returns every candidate whose family name, or any alternate
// family name, matches family under the same case-insensitive NFC-folded
// comparison as Resolve's first stage (§4.F stage 1). Exposed standalone
// for callers like query_font_info (§4.E) that want the full family-matched
// candidate set rather than Resolve's uniquely-narrowed winner.
func FilterFamily(candidates []Candidate, family string) []Candidate {
	return filterFamily(candidates, family)
}

func filterFamily(candidates []Candidate, family string) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if matchesFamily(c.FamilyNames, family) {
			out = append(out, c)
		}
	}
	return out
}

// variationsEqual reports whether a and b denote the same variation
// multiset, axis tags compared case-insensitively, independent of order.
func variationsEqual(a, b []key.Variation) bool {
	if len(a) != len(b) {
		return false
	}
	na, nb := sortedVariations(a), sortedVariations(b)
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}

func sortedVariations(vs []key.Variation) []key.Variation {
	out := append([]key.Variation(nil), vs...)
	for i := range out {
		out[i].Axis = out[i].Axis.Upper()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Axis < out[j].Axis })
	return out
}

// narrowWeight keeps exact weight matches; if none survive, it reverts to
// the input set and keeps whichever are numerically closest to target,
// ties breaking toward the lighter weight.
func narrowWeight(s []Candidate, target key.Weight) []Candidate {
	var exact []Candidate
	for _, c := range s {
		if c.Key.Weight == target {
			exact = append(exact, c)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	best := s[0]
	bestDist := weightDist(s[0].Key.Weight, target)
	var nearest []Candidate
	for _, c := range s {
		d := weightDist(c.Key.Weight, target)
		switch {
		case d < bestDist, d == bestDist && c.Key.Weight < best.Key.Weight:
			best, bestDist = c, d
		}
	}
	for _, c := range s {
		if weightDist(c.Key.Weight, target) == bestDist && (c.Key.Weight == best.Key.Weight) {
			nearest = append(nearest, c)
		}
	}
	if len(nearest) > 0 {
		return nearest
	}
	return s
}

func weightDist(a, b key.Weight) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

func narrowItalic(s []Candidate, want bool) []Candidate {
	var out []Candidate
	for _, c := range s {
		if c.Key.Italic == want {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return s
	}
	return out
}

// narrowStretch keeps exact stretch matches; if none survive, keeps the
// candidates minimizing the absolute stretch distance, ties breaking
// toward the narrower (smaller numeric) stretch.
func narrowStretch(s []Candidate, target key.Stretch) []Candidate {
	var exact []Candidate
	for _, c := range s {
		if c.Key.Stretch == target {
			exact = append(exact, c)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	best := s[0]
	bestDist := stretchDist(s[0].Key.Stretch, target)
	for _, c := range s {
		d := stretchDist(c.Key.Stretch, target)
		if d < bestDist || (d == bestDist && c.Key.Stretch < best.Key.Stretch) {
			best, bestDist = c, d
		}
	}
	var nearest []Candidate
	for _, c := range s {
		if stretchDist(c.Key.Stretch, target) == bestDist && c.Key.Stretch == best.Key.Stretch {
			nearest = append(nearest, c)
		}
	}
	if len(nearest) > 0 {
		return nearest
	}
	return s
}

func stretchDist(a, b key.Stretch) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}
