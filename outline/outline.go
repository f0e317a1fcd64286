// Package outline implements component D of the font toolkit: a
// resolution-independent glyph outline represented as a sequence of move/
// line/quad/cubic/close commands, with scale/translate transforms and SVG
// path serialization.
package outline

import (
	"strconv"
	"strings"
)

// Verb identifies the kind of a Command.
type Verb int

const (
	MoveTo Verb = iota
	LineTo
	QuadTo
	CubicTo
	Close
)

// Command is one drawing instruction. Args holds the on-curve/off-curve
// point coordinates for the verb: 2 floats for MoveTo/LineTo, 4 for QuadTo
// (control, end), 6 for CubicTo (control1, control2, end), none for Close.
type Command struct {
	Verb Verb
	Args []float64
}

// Path accumulates a single glyph's outline in font design units (the
// units-per-em coordinate space of its source font) until the caller
// Scales it into the units it needs.
type Path struct {
	Commands []Command
}

func (p *Path) MoveTo(x, y float64) {
	p.Commands = append(p.Commands, Command{Verb: MoveTo, Args: []float64{x, y}})
}

func (p *Path) LineTo(x, y float64) {
	p.Commands = append(p.Commands, Command{Verb: LineTo, Args: []float64{x, y}})
}

func (p *Path) QuadTo(cx, cy, x, y float64) {
	p.Commands = append(p.Commands, Command{Verb: QuadTo, Args: []float64{cx, cy, x, y}})
}

func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	p.Commands = append(p.Commands, Command{Verb: CubicTo, Args: []float64{c1x, c1y, c2x, c2y, x, y}})
}

func (p *Path) ClosePath() {
	p.Commands = append(p.Commands, Command{Verb: Close})
}

// Empty reports whether the path has no drawing commands (e.g. a space).
func (p *Path) Empty() bool { return len(p.Commands) == 0 }

// Clone returns a deep copy of p, safe to Scale/Translate independently of
// the original (used by raster.Rasterize, which needs two independently
// transformed copies of the same source outline).
func (p *Path) Clone() *Path {
	out := &Path{Commands: make([]Command, len(p.Commands))}
	for i, c := range p.Commands {
		out.Commands[i] = Command{Verb: c.Verb, Args: append([]float64(nil), c.Args...)}
	}
	return out
}

// Scale multiplies every coordinate in place by f (e.g. 1/unitsPerEm to
// convert to em-relative units, or a pixel size after that).
func (p *Path) Scale(f float64) {
	for i := range p.Commands {
		args := p.Commands[i].Args
		for j := range args {
			args[j] *= f
		}
	}
}

// Translate adds (dx, dy) to every coordinate pair in place.
func (p *Path) Translate(dx, dy float64) {
	for i := range p.Commands {
		args := p.Commands[i].Args
		for j := 0; j+1 < len(args); j += 2 {
			args[j] += dx
			args[j+1] += dy
		}
	}
}

// Bounds returns the axis-aligned bounding box of every coordinate the
// path touches. ok is false for an empty path.
func (p *Path) Bounds() (minX, minY, maxX, maxY float64, ok bool) {
	first := true
	for _, c := range p.Commands {
		for j := 0; j+1 < len(c.Args); j += 2 {
			x, y := c.Args[j], c.Args[j+1]
			if first {
				minX, minY, maxX, maxY = x, y, x, y
				first = false
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	return minX, minY, maxX, maxY, !first
}

// String renders the path as an SVG path "d" attribute value per spec.md
// §4.D: M/L/Q/C/z commands, single-space-separated tokens, explicit
// command letters (a run of same-verb commands still repeats the
// letter), numbers trimmed of trailing zeros with no decimal point for
// integers.
func (p *Path) String() string {
	tokens := make([]string, 0, len(p.Commands)*3)
	for _, c := range p.Commands {
		switch c.Verb {
		case MoveTo:
			tokens = append(tokens, "M", fnum(c.Args[0]), fnum(c.Args[1]))
		case LineTo:
			tokens = append(tokens, "L", fnum(c.Args[0]), fnum(c.Args[1]))
		case QuadTo:
			tokens = append(tokens, "Q", fnum(c.Args[0]), fnum(c.Args[1]), fnum(c.Args[2]), fnum(c.Args[3]))
		case CubicTo:
			tokens = append(tokens, "C",
				fnum(c.Args[0]), fnum(c.Args[1]), fnum(c.Args[2]), fnum(c.Args[3]), fnum(c.Args[4]), fnum(c.Args[5]))
		case Close:
			tokens = append(tokens, "z")
		}
	}
	return strings.Join(tokens, " ")
}

func fnum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
