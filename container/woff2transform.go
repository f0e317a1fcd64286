package container

import "encoding/binary"

// point is a reconstructed glyf outline vertex prior to re-encoding as a
// standard TrueType simple glyph.
type point struct {
	x, y    int
	onCurve bool
}

// reconstructGlyfLoca undoes the WOFF2 transformed-glyf/loca encoding
// (W3C WOFF2 §5.1), producing standard glyf and loca tables. The streams
// are, in order: per-glyph contour counts, per-contour point counts, one
// flag byte per point, triplet-encoded point deltas, composite glyph data,
// a presence bitmap + explicit bboxes, and instruction bytes.
func reconstructGlyfLoca(data []byte) (glyfOut, locaOut []byte, err error) {
	r := newBreader(data)
	_ = r.ReadUint32() // version, always 0
	numGlyphs := int(r.ReadUint16())
	indexFormat := r.ReadUint16()
	nContourStreamSize := r.ReadUint32()
	nPointsStreamSize := r.ReadUint32()
	flagStreamSize := r.ReadUint32()
	glyphStreamSize := r.ReadUint32()
	compositeStreamSize := r.ReadUint32()
	bboxStreamSize := r.ReadUint32()
	instructionStreamSize := r.ReadUint32()
	if r.EOF() {
		return nil, nil, errTooShort
	}

	off := r.pos
	take := func(n uint32) ([]byte, error) {
		if off+int(n) > len(data) {
			return nil, errTableOverflow
		}
		b := data[off : off+int(n)]
		off += int(n)
		return b, nil
	}
	nContourStream, err := take(nContourStreamSize)
	if err != nil {
		return nil, nil, err
	}
	nPointsStream, err := take(nPointsStreamSize)
	if err != nil {
		return nil, nil, err
	}
	flagStream, err := take(flagStreamSize)
	if err != nil {
		return nil, nil, err
	}
	glyphStream, err := take(glyphStreamSize)
	if err != nil {
		return nil, nil, err
	}
	compositeStream, err := take(compositeStreamSize)
	if err != nil {
		return nil, nil, err
	}
	bboxStream, err := take(bboxStreamSize)
	if err != nil {
		return nil, nil, err
	}
	instructionStream, err := take(instructionStreamSize)
	if err != nil {
		return nil, nil, err
	}

	bitmapLen := (numGlyphs + 7) / 8
	if bitmapLen > len(bboxStream) {
		return nil, nil, errTableOverflow
	}
	bbox := &bitReader{b: bboxStream[:bitmapLen]}
	bboxRest := newBreader(bboxStream[bitmapLen:])

	contourR := newBreader(nContourStream)
	pointsR := newBreader(nPointsStream)
	flagIdx, glyphIdx, compIdx := 0, 0, 0

	loca := make([]uint32, numGlyphs+1)
	hasInstr := make([]bool, numGlyphs)
	glyf := newBwriter()

	for gi := 0; gi < numGlyphs; gi++ {
		nContour := contourR.ReadInt16()
		hasExplicitBBox := bbox.Read()
		start := glyf.Len()

		switch {
		case nContour == 0:
			// empty glyph; loca entry has zero length.
		case nContour > 0:
			endPts := make([]uint16, nContour)
			total := 0
			for c := 0; c < int(nContour); c++ {
				n := int(read255UInt16(pointsR))
				total += n
				endPts[c] = uint16(total - 1)
			}
			flags := make([]uint8, total)
			for i := range flags {
				if flagIdx >= len(flagStream) {
					return nil, nil, errTableOverflow
				}
				flags[i] = flagStream[flagIdx]
				flagIdx++
			}
			pts, consumed, perr := decodeTriplets(flags, glyphStream[glyphIdx:], total)
			if perr != nil {
				return nil, nil, perr
			}
			glyphIdx += consumed

			instrLen := read255UInt16FromSlice(glyphStream, &glyphIdx)

			minX, minY, maxX, maxY := boundsOf(pts)
			if hasExplicitBBox {
				minX = int(bboxRest.ReadInt16())
				minY = int(bboxRest.ReadInt16())
				maxX = int(bboxRest.ReadInt16())
				maxY = int(bboxRest.ReadInt16())
			}

			glyf.WriteInt16(int16(nContour))
			glyf.WriteInt16(int16(minX))
			glyf.WriteInt16(int16(minY))
			glyf.WriteInt16(int16(maxX))
			glyf.WriteInt16(int16(maxY))
			for _, e := range endPts {
				glyf.WriteUint16(e)
			}
			glyf.WriteUint16(instrLen)
			writeSimpleGlyphFlagsAndCoords(glyf, pts)
			hasInstr[gi] = true
			// actual instruction bytes are spliced in after this loop by
			// spliceInstructions, once loca offsets are final.
		default: // composite glyph, nContour == -1
			minX := int(bboxRest.ReadInt16())
			minY := int(bboxRest.ReadInt16())
			maxX := int(bboxRest.ReadInt16())
			maxY := int(bboxRest.ReadInt16())
			glyf.WriteInt16(-1)
			glyf.WriteInt16(int16(minX))
			glyf.WriteInt16(int16(minY))
			glyf.WriteInt16(int16(maxX))
			glyf.WriteInt16(int16(maxY))

			more := true
			haveInstructions := false
			for more {
				if compIdx+4 > len(compositeStream) {
					return nil, nil, errTableOverflow
				}
				flags := binary.BigEndian.Uint16(compositeStream[compIdx:])
				argWords := flags&0x0001 != 0
				haveScale := flags&0x0008 != 0
				haveXYScale := flags&0x0040 != 0
				haveMatrix := flags&0x0080 != 0
				more = flags&0x0020 != 0
				haveInstructions = flags&0x0100 != 0

				n := 4
				if argWords {
					n += 4
				} else {
					n += 2
				}
				if haveScale {
					n += 2
				} else if haveXYScale {
					n += 4
				} else if haveMatrix {
					n += 8
				}
				if compIdx+n > len(compositeStream) {
					return nil, nil, errTableOverflow
				}
				glyf.WriteBytes(compositeStream[compIdx : compIdx+n])
				compIdx += n
			}
			if haveInstructions {
				instrLen := read255UInt16FromSlice(glyphStream, &glyphIdx)
				glyf.WriteUint16(instrLen)
				hasInstr[gi] = true
			}
		}
		loca[gi] = start
	}
	loca[numGlyphs] = glyf.Len()

	glyfOut, err = spliceInstructions(glyf.Bytes(), loca, nContourForEachGlyph(nContourStream, numGlyphs), hasInstr, instructionStream)
	if err != nil {
		return nil, nil, err
	}

	if indexFormat == 0 {
		locaOut = make([]byte, 2*(numGlyphs+1))
		for i, off := range loca {
			binary.BigEndian.PutUint16(locaOut[2*i:], uint16(off/2))
		}
	} else {
		locaOut = make([]byte, 4*(numGlyphs+1))
		for i, off := range loca {
			binary.BigEndian.PutUint32(locaOut[4*i:], off)
		}
	}
	return glyfOut, locaOut, nil
}

func nContourForEachGlyph(stream []byte, numGlyphs int) []int16 {
	r := newBreader(stream)
	out := make([]int16, numGlyphs)
	for i := range out {
		out[i] = r.ReadInt16()
	}
	return out
}

// spliceInstructions rewrites glyf, inserting each glyph's instruction
// bytes (read sequentially from instructionStream, in glyph order) at the
// instructionLength field reconstructGlyfLoca already wrote: right after
// the fixed header for a simple glyph, or at the tail of the glyph body
// for a composite one. loca is updated in place since glyph lengths grow.
func spliceInstructions(glyf []byte, loca []uint32, nContour []int16, hasInstr []bool, instructionStream []byte) ([]byte, error) {
	out := newBwriter()
	instrPos := 0
	newLoca := make([]uint32, len(loca))
	for gi := 0; gi < len(nContour); gi++ {
		start, end := loca[gi], loca[gi+1]
		newLoca[gi] = out.Len()
		body := glyf[start:end]
		if !hasInstr[gi] || len(body) == 0 {
			out.WriteBytes(body)
			continue
		}

		splitAt := len(body) - 2
		if nContour[gi] > 0 {
			splitAt = 10 + 2*int(nContour[gi])
		}
		if splitAt+2 > len(body) || splitAt < 0 {
			return nil, errTableOverflow
		}
		instrLen := int(binary.BigEndian.Uint16(body[splitAt : splitAt+2]))
		if instrPos+instrLen > len(instructionStream) {
			return nil, errTableOverflow
		}
		out.WriteBytes(body[:splitAt+2])
		out.WriteBytes(instructionStream[instrPos : instrPos+instrLen])
		instrPos += instrLen
		out.WriteBytes(body[splitAt+2:])
	}
	newLoca[len(nContour)] = out.Len()
	copy(loca, newLoca)
	return out.Bytes(), nil
}

func read255UInt16FromSlice(b []byte, idx *int) uint16 {
	if *idx >= len(b) {
		return 0
	}
	code := b[*idx]
	*idx++
	switch code {
	case 253:
		if *idx+2 > len(b) {
			*idx = len(b)
			return 0
		}
		v := uint16(b[*idx])<<8 | uint16(b[*idx+1])
		*idx += 2
		return v
	case 255:
		if *idx >= len(b) {
			return 0
		}
		v := uint16(b[*idx]) + 253
		*idx++
		return v
	case 254:
		if *idx >= len(b) {
			return 0
		}
		v := uint16(b[*idx]) + 253*2
		*idx++
		return v
	default:
		return uint16(code)
	}
}

func boundsOf(pts []point) (minX, minY, maxX, maxY int) {
	if len(pts) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = pts[0].x, pts[0].y
	maxX, maxY = pts[0].x, pts[0].y
	for _, p := range pts[1:] {
		if p.x < minX {
			minX = p.x
		}
		if p.x > maxX {
			maxX = p.x
		}
		if p.y < minY {
			minY = p.y
		}
		if p.y > maxY {
			maxY = p.y
		}
	}
	return
}

// decodeTriplets decodes n points' (dx, dy, onCurve) from the WOFF2 triplet
// point-coordinate encoding (W3C WOFF2 §5.2), accumulating dx/dy into
// running x/y coordinates. This is the canonical WOFF2 decode table: flag
// ranges select how many following bytes encode each point's delta and how
// the sign is folded into the flag's low bit.
func decodeTriplets(flags []uint8, in []byte, n int) ([]point, int, error) {
	pts := make([]point, n)
	x, y := 0, 0
	idx := 0
	for i := 0; i < n; i++ {
		flag := flags[i]
		onCurve := flag&0x80 == 0
		f := flag & 0x7f
		var nBytes int
		switch {
		case f < 84:
			nBytes = 1
		case f < 120:
			nBytes = 2
		case f < 124:
			nBytes = 3
		default:
			nBytes = 4
		}
		if idx+nBytes > len(in) {
			return nil, 0, errTableOverflow
		}
		var dx, dy int
		switch {
		case f < 10:
			dx = 0
			dy = withSign(flag, (int(f&14)<<7)+int(in[idx]))
		case f < 20:
			dx = withSign(flag, (int((f-10)&14)<<7)+int(in[idx]))
			dy = 0
		case f < 84:
			b0 := int(f - 20)
			b1 := int(in[idx])
			dx = withSign(flag, 1+(b0&0x30)+(b1>>4))
			dy = withSign(flag>>1, 1+((b0&0x0c)<<2)+(b1&0xf))
		case f < 120:
			b0 := int(f - 84)
			dx = withSign(flag, 1+((b0/12)<<8)+int(in[idx]))
			dy = withSign(flag>>1, 1+(((b0%12)>>2)<<8)+int(in[idx+1]))
		case f < 124:
			dx = withSign(flag, (int(in[idx])<<4)+(int(in[idx+1])>>4))
			dy = withSign(flag>>1, (int(in[idx+1]&0xf)<<8)+int(in[idx+2]))
		default:
			dx = withSign(flag, (int(in[idx])<<8)+int(in[idx+1]))
			dy = withSign(flag>>1, (int(in[idx+2])<<8)+int(in[idx+3]))
		}
		idx += nBytes
		x += dx
		y += dy
		pts[i] = point{x: x, y: y, onCurve: onCurve}
	}
	return pts, idx, nil
}

func withSign(flag uint8, base int) int {
	if flag&1 != 0 {
		return base
	}
	return -base
}

// writeSimpleGlyphFlagsAndCoords appends a standard TrueType simple-glyph
// flags array followed by packed x/y coordinate deltas, re-deriving the
// SHORT_VECTOR / SAME-sign bits from the reconstructed absolute points.
func writeSimpleGlyphFlagsAndCoords(w *bwriter, pts []point) {
	type enc struct {
		flag   byte
		dx, dy int
	}
	encs := make([]enc, len(pts))
	prevX, prevY := 0, 0
	for i, p := range pts {
		dx := p.x - prevX
		dy := p.y - prevY
		prevX, prevY = p.x, p.y
		var flag byte
		if p.onCurve {
			flag |= 0x01
		}
		if dx == 0 {
			flag |= 0x10 // X_IS_SAME
		} else if dx > -256 && dx < 256 {
			flag |= 0x02 // X_SHORT_VECTOR
			if dx > 0 {
				flag |= 0x10
			}
		}
		if dy == 0 {
			flag |= 0x20 // Y_IS_SAME
		} else if dy > -256 && dy < 256 {
			flag |= 0x04 // Y_SHORT_VECTOR
			if dy > 0 {
				flag |= 0x20
			}
		}
		encs[i] = enc{flag: flag, dx: dx, dy: dy}
	}
	for _, e := range encs {
		w.WriteByte(e.flag)
	}
	for _, e := range encs {
		if e.flag&0x02 != 0 {
			v := e.dx
			if v < 0 {
				v = -v
			}
			w.WriteByte(byte(v))
		} else if e.flag&0x10 == 0 {
			w.WriteInt16(int16(e.dx))
		}
	}
	for _, e := range encs {
		if e.flag&0x04 != 0 {
			v := e.dy
			if v < 0 {
				v = -v
			}
			w.WriteByte(byte(v))
		} else if e.flag&0x20 == 0 {
			w.WriteInt16(int16(e.dy))
		}
	}
}

// reconstructHmtx rebuilds the hmtx table from the transformed stream plus
// the glyf/loca tables' xMin values (W3C WOFF2 §5.3). When the transform's
// flag bits omit a left side bearing array, lsb is taken to equal xMin.
func reconstructHmtx(data, glyf, loca []byte, numGlyphs, numHMetrics int) ([]byte, error) {
	if len(data) < 1 {
		return nil, errTooShort
	}
	flags := data[0]
	r := newBreader(data[1:])
	advances := make([]uint16, numHMetrics)
	for i := range advances {
		advances[i] = r.ReadUint16()
	}
	hasLsbHead := flags&0x01 != 0
	hasLsbTail := flags&0x02 != 0

	lsb := make([]int16, numGlyphs)
	if hasLsbHead {
		for i := 0; i < numHMetrics; i++ {
			lsb[i] = r.ReadInt16()
		}
	}
	if hasLsbTail {
		for i := numHMetrics; i < numGlyphs; i++ {
			lsb[i] = r.ReadInt16()
		}
	}
	if r.EOF() {
		return nil, errTableOverflow
	}

	xMins, err := glyfXMins(glyf, loca, numGlyphs)
	if err != nil {
		return nil, err
	}
	if !hasLsbHead {
		for i := 0; i < numHMetrics && i < numGlyphs; i++ {
			lsb[i] = int16(xMins[i])
		}
	}
	if !hasLsbTail {
		for i := numHMetrics; i < numGlyphs; i++ {
			lsb[i] = int16(xMins[i])
		}
	}

	out := newBwriter()
	for i := 0; i < numGlyphs; i++ {
		if i < numHMetrics {
			out.WriteUint16(advances[i])
		}
		out.WriteInt16(lsb[i])
	}
	return out.Bytes(), nil
}

func glyfXMins(glyf, loca []byte, numGlyphs int) ([]int, error) {
	longLoca := len(loca) == 4*(numGlyphs+1)
	offsets := make([]uint32, numGlyphs+1)
	for i := range offsets {
		if longLoca {
			if 4*i+4 > len(loca) {
				return nil, errTableOverflow
			}
			offsets[i] = binary.BigEndian.Uint32(loca[4*i:])
		} else {
			if 2*i+2 > len(loca) {
				return nil, errTableOverflow
			}
			offsets[i] = uint32(binary.BigEndian.Uint16(loca[2*i:])) * 2
		}
	}
	xMins := make([]int, numGlyphs)
	for i := 0; i < numGlyphs; i++ {
		start, end := offsets[i], offsets[i+1]
		if end <= start || int(start)+4 > len(glyf) {
			xMins[i] = 0
			continue
		}
		xMins[i] = int(int16(binary.BigEndian.Uint16(glyf[start+2 : start+4])))
	}
	return xMins, nil
}
