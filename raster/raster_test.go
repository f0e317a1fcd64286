package raster

import (
	"testing"

	"github.com/textkit/fonttk/outline"
)

// fakeFace serves a single fixed glyph path for rune 'A' (a 1000x1000
// unit square covering the full em) and reports no glyph for anything
// else, exercising both the hit and miss paths of Rasterize.
type fakeFace struct{}

func (fakeFace) GlyphPath(c rune) (*outline.Path, bool) {
	if c != 'A' {
		return nil, false
	}
	p := &outline.Path{}
	p.MoveTo(0, 0)
	p.LineTo(1000, 0)
	p.LineTo(1000, 1000)
	p.LineTo(0, 1000)
	p.ClosePath()
	return p, true
}

func (fakeFace) GlyphIndex(c rune) (uint16, bool) {
	if c != 'A' {
		return 0, false
	}
	return 1, true
}

func (fakeFace) AdvanceWidth(gid uint16) int { return 1200 }
func (fakeFace) UnitsPerEm() int             { return 1000 }
func (fakeFace) Ascender() int               { return 800 }
func (fakeFace) Descender() int              { return -200 }

func TestRasterizeMissingGlyphReturnsFalse(t *testing.T) {
	if _, ok := Rasterize(fakeFace{}, 'Z', 16, 0); ok {
		t.Fatal("expected ok=false for a rune with no glyph")
	}
}

func TestRasterizeDimensionsScaleWithFontSize(t *testing.T) {
	bmp, ok := Rasterize(fakeFace{}, 'A', 16, 0)
	if !ok {
		t.Fatal("expected ok=true for a mapped glyph")
	}
	// A 1000-unit square at 1000 units/em and fontSize 16 scales to a
	// 16x16 device-pixel box.
	if bmp.Width != 16 || bmp.Height != 16 {
		t.Fatalf("Width,Height = %d,%d, want 16,16", bmp.Width, bmp.Height)
	}
	if bmp.Advance != 1200*16.0/1000.0 {
		t.Fatalf("Advance = %v, want %v", bmp.Advance, 1200*16.0/1000.0)
	}
}

func TestRasterizeCoverageIsFullyOpaqueInsideSquare(t *testing.T) {
	bmp, ok := Rasterize(fakeFace{}, 'A', 16, 0)
	if !ok {
		t.Fatal("expected ok=true")
	}
	// Center pixel of a filled square should be fully covered.
	idx := (bmp.Height/2)*bmp.Width + bmp.Width/2
	if bmp.Coverage[idx] != 255 {
		t.Fatalf("center coverage = %d, want 255", bmp.Coverage[idx])
	}
}

func TestRasterizeCoverageIsEmptyOutsideSquare(t *testing.T) {
	// A glyph that doesn't fill its bounding box (a right triangle with its
	// right angle at the Y-up origin) should leave a corner uncovered: the
	// top-right one, opposite the hypotenuse.
	face := triangleFace{}
	bmp, ok := Rasterize(face, 'A', 16, 0)
	if !ok {
		t.Fatal("expected ok=true")
	}
	corner := bmp.Width - 1 // top-right pixel
	if bmp.Coverage[corner] != 0 {
		t.Fatalf("top-right coverage = %d, want 0 (outside the triangle)", bmp.Coverage[corner])
	}
}

type triangleFace struct{}

func (triangleFace) GlyphPath(c rune) (*outline.Path, bool) {
	p := &outline.Path{}
	p.MoveTo(0, 0)
	p.LineTo(1000, 0)
	p.LineTo(0, 1000)
	p.ClosePath()
	return p, true
}
func (triangleFace) GlyphIndex(c rune) (uint16, bool) { return 1, true }
func (triangleFace) AdvanceWidth(gid uint16) int      { return 1000 }
func (triangleFace) UnitsPerEm() int                  { return 1000 }
func (triangleFace) Ascender() int                    { return 800 }
func (triangleFace) Descender() int                   { return -200 }

func TestRasterizeStrokeBufferOnlyWhenRequested(t *testing.T) {
	bmp, _ := Rasterize(fakeFace{}, 'A', 16, 0)
	if bmp.Stroke != nil {
		t.Fatal("expected nil Stroke buffer when strokeWidth is 0")
	}
	bmp, _ = Rasterize(fakeFace{}, 'A', 16, 2)
	if bmp.Stroke == nil {
		t.Fatal("expected a non-nil Stroke buffer when strokeWidth > 0")
	}
	if len(bmp.Stroke) != bmp.Width*bmp.Height {
		t.Fatalf("Stroke buffer length = %d, want %d", len(bmp.Stroke), bmp.Width*bmp.Height)
	}
}

func TestRasterizeEmptyPathYieldsZeroSizedBitmap(t *testing.T) {
	bmp, ok := Rasterize(emptyFace{}, 'A', 16, 0)
	if !ok {
		t.Fatal("expected ok=true for a glyph with an empty (whitespace) outline")
	}
	if bmp.Width != 0 || bmp.Height != 0 {
		// whitespace glyphs have no bounds; Rasterize should return early
		// with a zero-value dimension bitmap rather than panicking.
		t.Fatalf("expected a zero-sized bitmap for an empty path, got %dx%d", bmp.Width, bmp.Height)
	}
}

type emptyFace struct{}

func (emptyFace) GlyphPath(c rune) (*outline.Path, bool) { return &outline.Path{}, true }
func (emptyFace) GlyphIndex(c rune) (uint16, bool)       { return 1, true }
func (emptyFace) AdvanceWidth(gid uint16) int            { return 500 }
func (emptyFace) UnitsPerEm() int                        { return 1000 }
func (emptyFace) Ascender() int                          { return 800 }
func (emptyFace) Descender() int                        { return -200 }
