package text

import "testing"

// fakeFace is a minimal Face for testing the measurement pipeline without
// a real font: every rune in glyphs maps to a fixed advance, everything
// else is reported missing.
type fakeFace struct {
	unitsPerEm           int
	ascender, descender  int
	lineGap              int
	glyphs               map[rune]int // rune -> advance in font units
}

func (f *fakeFace) GlyphIndex(r rune) (uint16, bool) {
	if _, ok := f.glyphs[r]; !ok {
		return 0, false
	}
	return uint16(r), true
}

func (f *fakeFace) AdvanceWidth(gid uint16) int {
	return f.glyphs[rune(gid)]
}

func (f *fakeFace) UnitsPerEm() int { return f.unitsPerEm }
func (f *fakeFace) Ascender() int   { return f.ascender }
func (f *fakeFace) Descender() int  { return f.descender }
func (f *fakeFace) LineGap() int    { return f.lineGap }

func newFakeFace() *fakeFace {
	glyphs := make(map[rune]int)
	for _, r := range "Helo Wrd" {
		glyphs[r] = 500
	}
	return &fakeFace{unitsPerEm: 2048, ascender: 1900, descender: -500, lineGap: 0, glyphs: glyphs}
}

func TestMeasureBasicWidth(t *testing.T) {
	face := newFakeFace()
	m, err := Measure(face, "Hello")
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if m.HasMissing {
		t.Fatal("expected no missing glyphs for an all-mapped string")
	}
	got := m.Width(16, 0)
	want := float64(len("Hello")) * 500 * 16 / 2048
	if got != want {
		t.Fatalf("Width() = %v, want %v", got, want)
	}
}

func TestMeasureMissingGlyph(t *testing.T) {
	face := newFakeFace()
	m, err := Measure(face, "Hi!")
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if !m.HasMissing {
		t.Fatal("expected HasMissing for a string containing an unmapped rune ('!')")
	}
}

func TestMeasureUnitsPerEmZeroIsError(t *testing.T) {
	face := &fakeFace{unitsPerEm: 0}
	if _, err := Measure(face, "x"); err == nil {
		t.Fatal("expected an error when unitsPerEm is zero")
	}
}

func TestMeasureHardBreakZeroAdvance(t *testing.T) {
	face := newFakeFace()
	m, err := Measure(face, "He\nlo")
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	var sawHardBreak bool
	for _, c := range m.Clusters {
		if c.HardBreak {
			sawHardBreak = true
			if c.AdvanceUnits != 0 {
				t.Fatalf("hard break cluster should have zero advance, got %d", c.AdvanceUnits)
			}
		}
	}
	if !sawHardBreak {
		t.Fatal("expected a hard-break cluster for the embedded newline")
	}
}

func TestHeightUsesLineHeightOverride(t *testing.T) {
	face := newFakeFace()
	m, _ := Measure(face, "x")
	override := 99.0
	if got := m.Height(16, &override); got != 99.0 {
		t.Fatalf("Height() = %v, want override 99", got)
	}
	derived := m.Height(16, nil)
	want := float64(1900-(-500)+0) * 16 / 2048
	if derived != want {
		t.Fatalf("Height() = %v, want %v", derived, want)
	}
}

func TestAppendConcatenatesAndRederivesMissing(t *testing.T) {
	face := newFakeFace()
	a, _ := Measure(face, "He")
	b, _ := Measure(face, "!!")
	out := a.Append(b)
	if len(out.Clusters) != len(a.Clusters)+len(b.Clusters) {
		t.Fatalf("Append cluster count = %d, want %d", len(out.Clusters), len(a.Clusters)+len(b.Clusters))
	}
	if !out.HasMissing {
		t.Fatal("expected HasMissing after appending a metrics object with missing glyphs")
	}
}

func TestReplaceFallbackOnlySubstitutesMissingClusters(t *testing.T) {
	face := newFakeFace()
	primary, _ := Measure(face, "H!o")

	fallbackFace := newFakeFace()
	fallbackFace.glyphs['!'] = 700
	fallback, _ := Measure(fallbackFace, "H!o")

	merged := primary.Replace(fallback, true)
	if merged.HasMissing {
		t.Fatal("expected the fallback merge to resolve the missing glyph")
	}
	if merged.Clusters[1].AdvanceUnits != 700 {
		t.Fatalf("expected cluster 1 to take the fallback's advance 700, got %d", merged.Clusters[1].AdvanceUnits)
	}
	if merged.Clusters[0].AdvanceUnits != primary.Clusters[0].AdvanceUnits {
		t.Fatal("non-missing clusters should be kept from the primary metrics")
	}
}

func TestReplaceWithoutFallbackSubstitutesWholesale(t *testing.T) {
	face := newFakeFace()
	a, _ := Measure(face, "He")
	b, _ := Measure(face, "lo")
	out := a.Replace(b, false)
	if out != b {
		t.Fatal("Replace(other, false) should return other unchanged")
	}
}
