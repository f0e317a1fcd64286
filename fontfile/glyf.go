package fontfile

import (
	"encoding/binary"

	"github.com/textkit/fonttk/ferr"
	"github.com/textkit/fonttk/outline"
)

const maxCompositeDepth = 8

// glyphOutline decodes glyph gid's outline from the glyf table, resolving
// composite glyph references up to maxCompositeDepth deep.
func (r *Record) glyphOutline(gid uint16) (*outline.Path, error) {
	return r.glyphOutlineDepth(gid, 0)
}

func (r *Record) glyphOutlineDepth(gid uint16, depth int) (*outline.Path, error) {
	if depth > maxCompositeDepth {
		return nil, ferr.Wrap(ferr.KindParseError, errBadGlyf)
	}
	if int(gid)+1 >= len(r.loca) {
		return nil, ferr.Wrap(ferr.KindParseError, errGlyphRange)
	}
	start, end := r.loca[gid], r.loca[gid+1]
	p := &outline.Path{}
	if end <= start {
		return p, nil // empty glyph, e.g. space
	}
	glyf, ok := r.dir.table(r.data, tagGlyf)
	if !ok || int64(end) > int64(len(glyf)) {
		return nil, ferr.MissingTable("glyf")
	}
	body := glyf[start:end]
	if len(body) < 10 {
		return nil, ferr.Wrap(ferr.KindCorruptContainer, errBadGlyf)
	}
	numContours := int16(binary.BigEndian.Uint16(body[0:2]))
	if numContours >= 0 {
		return decodeSimpleGlyph(body, int(numContours))
	}
	return r.decodeCompositeGlyph(body, depth)
}

func decodeSimpleGlyph(body []byte, numContours int) (*outline.Path, error) {
	off := 10
	if off+2*numContours > len(body) {
		return nil, ferr.Wrap(ferr.KindCorruptContainer, errBadGlyf)
	}
	endPts := make([]int, numContours)
	for i := range endPts {
		endPts[i] = int(binary.BigEndian.Uint16(body[off+2*i:]))
	}
	off += 2 * numContours
	numPoints := 0
	if numContours > 0 {
		numPoints = endPts[numContours-1] + 1
	}
	if off+2 > len(body) {
		return nil, ferr.Wrap(ferr.KindCorruptContainer, errBadGlyf)
	}
	instrLen := int(binary.BigEndian.Uint16(body[off : off+2]))
	off += 2 + instrLen

	flags := make([]byte, numPoints)
	for i := 0; i < numPoints; {
		if off >= len(body) {
			return nil, ferr.Wrap(ferr.KindCorruptContainer, errBadGlyf)
		}
		f := body[off]
		off++
		flags[i] = f
		i++
		if f&0x08 != 0 { // REPEAT_FLAG
			if off >= len(body) {
				return nil, ferr.Wrap(ferr.KindCorruptContainer, errBadGlyf)
			}
			repeat := int(body[off])
			off++
			for r := 0; r < repeat && i < numPoints; r++ {
				flags[i] = f
				i++
			}
		}
	}

	xs := make([]int, numPoints)
	x := 0
	for i := 0; i < numPoints; i++ {
		f := flags[i]
		switch {
		case f&0x02 != 0: // X_SHORT_VECTOR
			if off >= len(body) {
				return nil, ferr.Wrap(ferr.KindCorruptContainer, errBadGlyf)
			}
			d := int(body[off])
			off++
			if f&0x10 == 0 {
				d = -d
			}
			x += d
		case f&0x10 == 0: // not same, full int16 delta
			if off+2 > len(body) {
				return nil, ferr.Wrap(ferr.KindCorruptContainer, errBadGlyf)
			}
			x += int(int16(binary.BigEndian.Uint16(body[off:])))
			off += 2
		}
		xs[i] = x
	}
	ys := make([]int, numPoints)
	y := 0
	for i := 0; i < numPoints; i++ {
		f := flags[i]
		switch {
		case f&0x04 != 0: // Y_SHORT_VECTOR
			if off >= len(body) {
				return nil, ferr.Wrap(ferr.KindCorruptContainer, errBadGlyf)
			}
			d := int(body[off])
			off++
			if f&0x20 == 0 {
				d = -d
			}
			y += d
		case f&0x20 == 0:
			if off+2 > len(body) {
				return nil, ferr.Wrap(ferr.KindCorruptContainer, errBadGlyf)
			}
			y += int(int16(binary.BigEndian.Uint16(body[off:])))
			off += 2
		}
		ys[i] = y
	}

	p := &outline.Path{}
	start := 0
	for _, e := range endPts {
		emitContour(p, flags[start:e+1], xs[start:e+1], ys[start:e+1])
		start = e + 1
	}
	return p, nil
}

// emitContour converts one contour's on/off-curve points into quadratic
// Bezier path commands, synthesizing the implied on-curve midpoints between
// consecutive off-curve points the way the TrueType outline format permits.
func emitContour(p *outline.Path, flags []byte, xs, ys []int) {
	n := len(flags)
	if n == 0 {
		return
	}
	onCurve := func(i int) bool { return flags[i%n]&0x01 != 0 }
	px := func(i int) float64 { return float64(xs[i%n]) }
	py := func(i int) float64 { return float64(ys[i%n]) }
	mid := func(i, j int) (float64, float64) { return (px(i) + px(j)) / 2, (py(i) + py(j)) / 2 }

	start := 0
	for !onCurve(start) && start < n {
		start++
	}
	var sx, sy float64
	if start == n {
		// all points off-curve: start at the midpoint of the first pair.
		sx, sy = mid(0, 1)
		start = 0
	} else {
		sx, sy = px(start), py(start)
	}
	p.MoveTo(sx, sy)

	i := start
	for k := 0; k < n; k++ {
		cur := i + 1
		if onCurve(cur) {
			p.LineTo(px(cur), py(cur))
			i = cur
			continue
		}
		next := cur + 1
		var ex, ey float64
		if onCurve(next) {
			ex, ey = px(next), py(next)
			i = next
			k++
		} else {
			ex, ey = mid(cur, next)
			i = cur
		}
		p.QuadTo(px(cur), py(cur), ex, ey)
	}
	p.ClosePath()
}

func (r *Record) decodeCompositeGlyph(body []byte, depth int) (*outline.Path, error) {
	p := &outline.Path{}
	off := 10
	for {
		if off+4 > len(body) {
			return nil, ferr.Wrap(ferr.KindCorruptContainer, errBadGlyf)
		}
		flags := binary.BigEndian.Uint16(body[off:])
		compGid := binary.BigEndian.Uint16(body[off+2:])
		off += 4

		var dx, dy float64
		argWords := flags&0x0001 != 0
		argsAreXY := flags&0x0002 != 0
		if argWords {
			if off+4 > len(body) {
				return nil, ferr.Wrap(ferr.KindCorruptContainer, errBadGlyf)
			}
			if argsAreXY {
				dx = float64(int16(binary.BigEndian.Uint16(body[off:])))
				dy = float64(int16(binary.BigEndian.Uint16(body[off+2:])))
			}
			off += 4
		} else {
			if off+2 > len(body) {
				return nil, ferr.Wrap(ferr.KindCorruptContainer, errBadGlyf)
			}
			if argsAreXY {
				dx = float64(int8(body[off]))
				dy = float64(int8(body[off+1]))
			}
			off += 2
		}

		a, b, c, d := 1.0, 0.0, 0.0, 1.0
		switch {
		case flags&0x0008 != 0: // WE_HAVE_A_SCALE
			if off+2 > len(body) {
				return nil, ferr.Wrap(ferr.KindCorruptContainer, errBadGlyf)
			}
			a = f2dot14(body[off:])
			d = a
			off += 2
		case flags&0x0040 != 0: // WE_HAVE_AN_X_AND_Y_SCALE
			if off+4 > len(body) {
				return nil, ferr.Wrap(ferr.KindCorruptContainer, errBadGlyf)
			}
			a = f2dot14(body[off:])
			d = f2dot14(body[off+2:])
			off += 4
		case flags&0x0080 != 0: // WE_HAVE_A_TWO_BY_TWO
			if off+8 > len(body) {
				return nil, ferr.Wrap(ferr.KindCorruptContainer, errBadGlyf)
			}
			a = f2dot14(body[off:])
			b = f2dot14(body[off+2:])
			c = f2dot14(body[off+4:])
			d = f2dot14(body[off+6:])
			off += 8
		}

		sub, err := r.glyphOutlineDepth(compGid, depth+1)
		if err != nil {
			return nil, err
		}
		for _, cmd := range sub.Commands {
			args := make([]float64, len(cmd.Args))
			for i := 0; i+1 < len(cmd.Args); i += 2 {
				x, y := cmd.Args[i], cmd.Args[i+1]
				args[i] = a*x + c*y + dx
				args[i+1] = b*x + d*y + dy
			}
			p.Commands = append(p.Commands, outline.Command{Verb: cmd.Verb, Args: args})
		}

		if flags&0x0020 == 0 { // MORE_COMPONENTS
			break
		}
	}
	return p, nil
}

func f2dot14(b []byte) float64 {
	v := int16(binary.BigEndian.Uint16(b))
	return float64(v) / 16384.0
}
