// Package raster implements component H of the font toolkit: rasterizing
// a single glyph's outline into an 8-bit coverage bitmap at a given pixel
// size, with an optional stroke pass. This is the optional downstream
// consumer spec.md §1/§6 sketches without specifying internals. No
// glyph-specific rasterizer appears anywhere in the retrieval pack (every
// example repo that touches glyph geometry stops at path/outline
// extraction or PDF embedding), but golang.org/x/image/vector's general
// 2-D vector rasterizer does, so glyph geometry is flattened here and
// filled through that rasterizer rather than a hand-rolled one (see
// DESIGN.md).
package raster

import (
	"math"

	"github.com/textkit/fonttk/outline"
)

// Face is the subset of fontfile.Record the rasterizer needs.
type Face interface {
	GlyphPath(c rune) (*outline.Path, bool)
	GlyphIndex(c rune) (uint16, bool)
	AdvanceWidth(gid uint16) int
	UnitsPerEm() int
	Ascender() int
	Descender() int
}

// Bitmap is a rasterized glyph per spec.md §3: an 8-bit coverage buffer,
// the origin offsets needed to place it relative to the glyph's drawing
// origin, and an optional identically-sized stroke buffer.
type Bitmap struct {
	Width, Height int
	Coverage      []byte // row-major, no padding, values 0..255
	XMin, YMax    float64
	Stroke        []byte // nil unless strokeWidth > 0 was requested

	Advance   float64
	Ascender  float64
	Descender float64
}

// Rasterize implements spec.md §4.H: it scales the glyph's outline by
// fontSize/unitsPerEm, translates it to a non-negative integer bounding
// box, and fills it with a non-zero-winding scanline rasterizer. When
// strokeWidth > 0, a second coverage buffer is produced by thickening
// every outline edge into a strokeWidth-wide quad and filling those quads
// through the same rasterizer, matching a typical stroke-then-fill
// pipeline. ok is false iff the font has no glyph for c (mirrors
// fontfile.Record.GlyphPath).
func Rasterize(face Face, c rune, fontSize, strokeWidth float64) (*Bitmap, bool) {
	path, ok := face.GlyphPath(c)
	if !ok {
		return nil, false
	}
	scale := fontSize / float64(face.UnitsPerEm())

	scaled := path.Clone()
	scaled.Scale(scale)

	xMin, yMinUp, xMax, yMaxUp, hasBounds := scaled.Bounds()
	bmp := &Bitmap{
		XMin:      xMin,
		YMax:      yMaxUp,
		Ascender:  float64(face.Ascender()) * scale,
		Descender: float64(face.Descender()) * scale,
	}
	if gid, ok := face.GlyphIndex(c); ok {
		bmp.Advance = float64(face.AdvanceWidth(gid)) * scale
	}
	if !hasBounds {
		return bmp, true
	}

	width := int(math.Ceil(xMax - xMin))
	height := int(math.Ceil(yMaxUp - yMinUp))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	bmp.Width, bmp.Height = width, height

	// flipY converts Y-up (font/outline convention) to Y-down (row-major
	// pixel buffer convention, row 0 = top), then translate so the glyph's
	// top-left corner sits at pixel (0,0).
	raster := scaled.Clone()
	flipY(raster)
	raster.Translate(-xMin, yMaxUp)

	contours := flatten(raster)
	bmp.Coverage = rasterizeContours(contours, width, height)

	if strokeWidth > 0 {
		quads := strokeContours(contours, strokeWidth/2)
		bmp.Stroke = rasterizeContours(quads, width, height)
	}
	return bmp, true
}

func flipY(p *outline.Path) {
	for i := range p.Commands {
		args := p.Commands[i].Args
		for j := 1; j < len(args); j += 2 {
			args[j] = -args[j]
		}
	}
}
