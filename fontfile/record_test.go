package fontfile

import (
	"testing"

	"github.com/textkit/fonttk/internal/testfont"
)

func openTestFont(t *testing.T) *Record {
	t.Helper()
	data := testfont.Build(testfont.Default())
	r, err := Open(data, "test.ttf", 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return r
}

func TestOpenParsesMetrics(t *testing.T) {
	r := openTestFont(t)
	if r.UnitsPerEm() != 1000 {
		t.Errorf("UnitsPerEm() = %d, want 1000", r.UnitsPerEm())
	}
	if r.Ascender() != 800 {
		t.Errorf("Ascender() = %d, want 800", r.Ascender())
	}
	if r.Descender() != -200 {
		t.Errorf("Descender() = %d, want -200", r.Descender())
	}
	if r.LineGap() != 0 {
		t.Errorf("LineGap() = %d, want 0", r.LineGap())
	}
	if r.NumGlyphs() != 2 {
		t.Errorf("NumGlyphs() = %d, want 2", r.NumGlyphs())
	}
}

func TestKeyClassification(t *testing.T) {
	r := openTestFont(t)
	k := r.Key()
	if k.Family != "Test Sans" {
		t.Errorf("Family = %q, want %q", k.Family, "Test Sans")
	}
	if k.Weight != 400 {
		t.Errorf("Weight = %d, want 400", k.Weight)
	}
	if k.Italic {
		t.Error("expected Italic=false")
	}
	if k.Stretch != 5 {
		t.Errorf("Stretch = %d, want 5 (normal)", k.Stretch)
	}
}

func TestKeyClassificationItalicBold(t *testing.T) {
	opts := testfont.Default()
	opts.Weight = 700
	opts.WidthClass = 7
	opts.Italic = true
	r, err := Open(testfont.Build(opts), "bold-italic.ttf", 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	k := r.Key()
	if k.Weight != 700 || !k.Italic || k.Stretch != 7 {
		t.Fatalf("got weight=%d italic=%v stretch=%d, want 700/true/7", k.Weight, k.Italic, k.Stretch)
	}
}

func TestHasGlyphMatchesGlyphPath(t *testing.T) {
	r := openTestFont(t)

	if !r.HasGlyph('A') {
		t.Fatal("expected HasGlyph('A')=true")
	}
	if _, ok := r.GlyphPath('A'); !ok {
		t.Fatal("expected GlyphPath('A') ok=true")
	}

	if r.HasGlyph('Z') {
		t.Fatal("expected HasGlyph('Z')=false (unmapped rune)")
	}
	if _, ok := r.GlyphPath('Z'); ok {
		t.Fatal("expected GlyphPath('Z') ok=false")
	}
}

func TestGlyphIndexAndAdvanceWidth(t *testing.T) {
	r := openTestFont(t)
	gid, ok := r.GlyphIndex('A')
	if !ok || gid != 1 {
		t.Fatalf("GlyphIndex('A') = %d,%v, want 1,true", gid, ok)
	}
	if adv := r.AdvanceWidth(gid); adv != 600 {
		t.Fatalf("AdvanceWidth(1) = %d, want 600", adv)
	}
}

func TestGlyphPathIsNonEmptyTriangle(t *testing.T) {
	r := openTestFont(t)
	p, ok := r.GlyphPath('A')
	if !ok {
		t.Fatal("expected a glyph path for 'A'")
	}
	if p.Empty() {
		t.Fatal("expected a non-empty outline")
	}
	minX, minY, maxX, maxY, ok := p.Bounds()
	if !ok {
		t.Fatal("expected Bounds ok=true")
	}
	if minX != 100 || minY != 0 || maxX != 300 || maxY != 200 {
		t.Fatalf("Bounds() = (%v,%v,%v,%v), want (100,0,300,200)", minX, minY, maxX, maxY)
	}
}

func TestUnderlineMetricsAbsentWithoutPostTable(t *testing.T) {
	r := openTestFont(t)
	if _, _, ok := r.UnderlineMetrics(); ok {
		t.Fatal("expected ok=false: the synthetic font builds no post table")
	}
}

func TestFamilyNamesIncludesClassificationFamily(t *testing.T) {
	r := openTestFont(t)
	names := r.FamilyNames()
	var found bool
	for _, n := range names {
		if n == "Test Sans" {
			found = true
		}
	}
	if !found {
		t.Fatalf("FamilyNames() = %v, expected to contain %q", names, "Test Sans")
	}
}

func TestLocalizedFamilyNamesKeyedByMacLanguage(t *testing.T) {
	r := openTestFont(t)
	names := r.LocalizedFamilyNames()
	if len(names) == 0 {
		t.Fatal("expected at least one localized family name entry")
	}
	for tag, v := range names {
		if v != "Test Sans" {
			t.Fatalf("name[%q] = %q, want %q", tag, v, "Test Sans")
		}
	}
	if names["mac-0"] != "Test Sans" {
		t.Fatalf("name[%q] = %q, want %q (Mac platform, language 0)", "mac-0", names["mac-0"], "Test Sans")
	}
}

func TestMeasureDelegatesToTextPackage(t *testing.T) {
	r := openTestFont(t)
	m, err := r.Measure("A")
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if m.HasMissing {
		t.Fatal("expected no missing glyphs for 'A'")
	}
}

func TestBitmapDelegatesToRasterPackage(t *testing.T) {
	r := openTestFont(t)
	bmp, ok := r.Bitmap('A', 16, 0)
	if !ok {
		t.Fatal("expected ok=true rasterizing 'A'")
	}
	if bmp.Width == 0 || bmp.Height == 0 {
		t.Fatalf("expected a non-zero-sized bitmap, got %dx%d", bmp.Width, bmp.Height)
	}

	if _, ok := r.Bitmap('Z', 16, 0); ok {
		t.Fatal("expected ok=false rasterizing an unmapped rune")
	}
}

func TestPathAndIndexAccessors(t *testing.T) {
	r := openTestFont(t)
	if r.Path() != "test.ttf" {
		t.Fatalf("Path() = %q, want %q", r.Path(), "test.ttf")
	}
	if r.Index() != 0 {
		t.Fatalf("Index() = %d, want 0", r.Index())
	}
}
