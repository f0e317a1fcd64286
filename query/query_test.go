package query

import (
	"testing"

	"github.com/textkit/fonttk/key"
)

func mk(family string, weight key.Weight, italic bool, stretch key.Stretch) Candidate {
	k := key.FontKey{Family: family, Weight: weight, Italic: italic, Stretch: stretch}.Normalize()
	return Candidate{Key: k, FamilyNames: []string{family}}
}

func TestResolveUniqueFamily(t *testing.T) {
	cands := []Candidate{mk("Open Sans", 400, false, 5)}
	got, ok := Resolve(cands, key.NewQuery("open sans"))
	if !ok {
		t.Fatal("expected a match")
	}
	if got.Key.Family != "Open Sans" {
		t.Fatalf("got family %q", got.Key.Family)
	}
}

func TestResolveEmptyFamilyFails(t *testing.T) {
	cands := []Candidate{mk("Open Sans", 400, false, 5)}
	if _, ok := Resolve(cands, key.NewQuery("")); ok {
		t.Fatal("empty family query should never match")
	}
}

func TestResolveWeightExactThenNearest(t *testing.T) {
	cands := []Candidate{
		mk("X", 400, false, 5),
		mk("X", 700, false, 5),
	}
	got, ok := Resolve(cands, key.NewQuery("x").WithWeight(700))
	if !ok || got.Key.Weight != 700 {
		t.Fatalf("exact weight match failed: %+v ok=%v", got, ok)
	}

	// No exact 600 weight present; 700 (dist 100) beats 400 (dist 200).
	got, ok = Resolve(cands, key.NewQuery("x").WithWeight(600))
	if !ok || got.Key.Weight != 700 {
		t.Fatalf("nearest-weight fallback failed: %+v ok=%v", got, ok)
	}
}

func TestResolveWeightFarOutOfRangePicksHeaviest(t *testing.T) {
	cands := []Candidate{
		mk("X", 100, false, 5),
		mk("X", 400, false, 5),
		mk("X", 900, false, 5),
	}
	got, ok := Resolve(cands, key.NewQuery("x").WithWeight(2000))
	if !ok || got.Key.Weight != 900 {
		t.Fatalf("expected heaviest weight 900, got %+v ok=%v", got, ok)
	}
}

func TestResolveWeightTieBreaksLighter(t *testing.T) {
	cands := []Candidate{
		mk("X", 300, false, 5),
		mk("X", 500, false, 5),
	}
	// target 400: both are distance 100 away; tie should favor the lighter (300).
	got, ok := Resolve(cands, key.NewQuery("x").WithWeight(400))
	if !ok || got.Key.Weight != 300 {
		t.Fatalf("expected tie-break toward lighter weight 300, got %+v ok=%v", got, ok)
	}
}

func TestResolveItalicRevertsWhenEmpty(t *testing.T) {
	cands := []Candidate{mk("X", 400, false, 5), mk("X", 400, false, 5)}

	// Both candidates share weight 400 and stretch 5 (the defaults), and
	// neither is italic: the italic filter must revert to its 2-candidate
	// input rather than emptying it, leaving the query ambiguous.
	q := key.NewQuery("x").WithItalic(true)
	_, ok := Resolve(cands, q)
	if ok {
		t.Fatal("expected the italic filter to revert without uniquely resolving")
	}
}

func TestResolveUnsetFieldsAreNotFiltered(t *testing.T) {
	// A query that only names the family must not silently narrow by
	// weight/italic/stretch when those fields are left unset: two otherwise
	// distinct candidates sharing a family should remain ambiguous.
	cands := []Candidate{
		mk("X", 300, false, 3),
		mk("X", 900, true, 8),
	}
	if _, ok := Resolve(cands, key.NewQuery("x")); ok {
		t.Fatal("expected an unset-filter query over two distinct weights to stay ambiguous")
	}

	// Naming only italic should narrow by that field alone, not implicitly
	// filter weight/stretch toward zero.
	got, ok := Resolve(cands, key.NewQuery("x").WithItalic(true))
	if !ok || got.Key.Weight != 900 {
		t.Fatalf("expected the italic filter alone to resolve to the italic candidate, got %+v ok=%v", got, ok)
	}
}

func TestResolveStretchNearestNarrower(t *testing.T) {
	cands := []Candidate{
		mk("X", 400, false, 3),
		mk("X", 400, false, 7),
	}
	// target 5: both are distance 2; tie should favor narrower (3).
	got, ok := Resolve(cands, key.NewQuery("x").WithWeight(400).WithStretch(5))
	if !ok || got.Key.Stretch != 3 {
		t.Fatalf("expected tie-break toward narrower stretch 3, got %+v ok=%v", got, ok)
	}
}

func TestResolveAmbiguousFails(t *testing.T) {
	// Two candidates identical under every filter stage never narrow to one.
	cands := []Candidate{
		mk("X", 400, false, 3),
		mk("X", 400, false, 3),
	}
	q := key.NewQuery("x").WithWeight(400).WithStretch(3)
	if _, ok := Resolve(cands, q); ok {
		t.Fatal("expected an ambiguous query (two indistinguishable candidates) to fail")
	}
}

func TestResolveAlternateFamilyNameMatches(t *testing.T) {
	cands := []Candidate{
		{Key: key.FontKey{Family: "思源黑体"}.Normalize(), FamilyNames: []string{"思源黑体", "Source Han Sans"}},
	}
	got, ok := Resolve(cands, key.NewQuery("source han sans"))
	if !ok || got.Key.Family != "思源黑体" {
		t.Fatalf("expected CJK font to resolve via its English alternate name, got %+v ok=%v", got, ok)
	}
}

func TestExactMatchBypassesRelaxation(t *testing.T) {
	cands := []Candidate{mk("X", 400, false, 5)}
	if _, ok := ExactMatch(cands, key.FontKey{Family: "x", Weight: 700}.Normalize().AsQuery()); ok {
		t.Fatal("exact match must not relax weight")
	}
	got, ok := ExactMatch(cands, key.FontKey{Family: "x", Weight: 400}.Normalize().AsQuery())
	if !ok || got.Key.Weight != 400 {
		t.Fatalf("expected an exact match, got %+v ok=%v", got, ok)
	}
}

func TestExactMatchPartialQueryStillNarrows(t *testing.T) {
	// An ExactMatch query that only names italic should behave like Resolve
	// with only that field set: no relaxation, but also no implicit
	// filtering on the fields it left unset.
	cands := []Candidate{
		mk("X", 300, false, 3),
		mk("X", 900, true, 8),
	}
	got, ok := ExactMatch(cands, key.NewQuery("x").WithItalic(true))
	if !ok || got.Key.Weight != 900 {
		t.Fatalf("expected the italic-only exact query to resolve to the italic candidate, got %+v ok=%v", got, ok)
	}
}

func TestExactMatchVariationsAreMultisetCompared(t *testing.T) {
	withVariations := func(k key.FontKey, vs ...key.Variation) Candidate {
		k.Variations = vs
		k = k.Normalize()
		return Candidate{Key: k, FamilyNames: []string{k.Family}}
	}
	k := key.FontKey{Family: "X", Weight: 400, Stretch: 5}
	cands := []Candidate{
		withVariations(k, key.Variation{Axis: "wght", Value: 400}, key.Variation{Axis: "wdth", Value: 100}),
	}
	q := key.NewQuery("x").WithWeight(400).WithStretch(5).WithVariations([]key.Variation{
		{Axis: "WDTH", Value: 100}, {Axis: "WGHT", Value: 400},
	})
	if _, ok := ExactMatch(cands, q); !ok {
		t.Fatal("expected variation multiset match independent of axis order/case")
	}
}
