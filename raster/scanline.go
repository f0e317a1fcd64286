package raster

import (
	"image"
	"math"

	"golang.org/x/image/math/f32"
	"golang.org/x/image/vector"

	"github.com/textkit/fonttk/outline"
)

type point struct{ x, y float64 }

// bezierSteps is the number of line segments each quadratic/cubic curve is
// flattened into before scanline filling.
const bezierSteps = 8

// flatten turns p's move/line/quad/cubic/close command stream into closed
// polygons (one per subpath). Every subpath is treated as implicitly
// closed, matching how an outline's contours fill regardless of whether
// an explicit Close command trails them.
func flatten(p *outline.Path) [][]point {
	var contours [][]point
	var cur []point
	var start, last point
	flush := func() {
		if len(cur) > 1 {
			contours = append(contours, cur)
		}
		cur = nil
	}
	for _, c := range p.Commands {
		switch c.Verb {
		case outline.MoveTo:
			flush()
			start = point{c.Args[0], c.Args[1]}
			last = start
			cur = append(cur, start)
		case outline.LineTo:
			last = point{c.Args[0], c.Args[1]}
			cur = append(cur, last)
		case outline.QuadTo:
			ctrl := point{c.Args[0], c.Args[1]}
			end := point{c.Args[2], c.Args[3]}
			for i := 1; i <= bezierSteps; i++ {
				t := float64(i) / bezierSteps
				cur = append(cur, quadAt(last, ctrl, end, t))
			}
			last = end
		case outline.CubicTo:
			c1 := point{c.Args[0], c.Args[1]}
			c2 := point{c.Args[2], c.Args[3]}
			end := point{c.Args[4], c.Args[5]}
			for i := 1; i <= bezierSteps; i++ {
				t := float64(i) / bezierSteps
				cur = append(cur, cubicAt(last, c1, c2, end, t))
			}
			last = end
		case outline.Close:
			if len(cur) > 0 && cur[len(cur)-1] != start {
				cur = append(cur, start)
			}
			flush()
			last = start
		}
	}
	flush()
	return contours
}

func quadAt(p0, c, p1 point, t float64) point {
	u := 1 - t
	x := u*u*p0.x + 2*u*t*c.x + t*t*p1.x
	y := u*u*p0.y + 2*u*t*c.y + t*t*p1.y
	return point{x, y}
}

func cubicAt(p0, c1, c2, p1 point, t float64) point {
	u := 1 - t
	x := u*u*u*p0.x + 3*u*u*t*c1.x + 3*u*t*t*c2.x + t*t*t*p1.x
	y := u*u*u*p0.y + 3*u*u*t*c1.y + 3*u*t*t*c2.y + t*t*t*p1.y
	return point{x, y}
}

// rasterizeContours anti-aliases contours (each an implicitly-closed
// polygon in pixel space) into a row-major 8-bit coverage buffer using
// golang.org/x/image/vector's non-zero-winding rasterizer. Overlapping
// same-orientation polygons (e.g. adjacent stroke quads) union rather than
// cancel, which is what strokeContours's consistent per-edge winding relies
// on for the stroke pass.
func rasterizeContours(contours [][]point, width, height int) []byte {
	dst := image.NewAlpha(image.Rect(0, 0, width, height))
	if width <= 0 || height <= 0 {
		return dst.Pix
	}
	z := vector.NewRasterizer(width, height)
	for _, c := range contours {
		if len(c) == 0 {
			continue
		}
		z.MoveTo(f32.Vec2{float32(c[0].x), float32(c[0].y)})
		for _, p := range c[1:] {
			z.LineTo(f32.Vec2{float32(p.x), float32(p.y)})
		}
		z.ClosePath()
	}
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return dst.Pix
}

// strokeContours thickens every edge of contours into a quad extending
// halfWidth to each side of the edge (2*halfWidth wide), the geometry
// Rasterize fills with rasterizeContours to produce the stroke buffer.
func strokeContours(contours [][]point, halfWidth float64) [][]point {
	var quads [][]point
	for _, c := range contours {
		n := len(c)
		for i := 0; i < n; i++ {
			a := c[i]
			b := c[(i+1)%n]
			dx, dy := b.x-a.x, b.y-a.y
			length := math.Hypot(dx, dy)
			if length == 0 {
				continue
			}
			nx, ny := -dy/length*halfWidth, dx/length*halfWidth
			quads = append(quads, []point{
				{a.x + nx, a.y + ny},
				{b.x + nx, b.y + ny},
				{b.x - nx, b.y - ny},
				{a.x - nx, a.y - ny},
			})
		}
	}
	return quads
}
