// Package testfont builds minimal, hand-assembled single-glyph TrueType
// binaries for use by this module's own test suites. It is not part of
// the public API; it exists so fontfile/registry/container tests can
// exercise the real table parsers without shipping a binary font fixture.
package testfont

import "encoding/binary"

// Options configures the synthetic font Build produces.
type Options struct {
	Family        string
	Weight        uint16 // OS/2 usWeightClass
	WidthClass    uint16 // OS/2 usWidthClass, 1..9
	Italic        bool
	UnitsPerEm    uint16
	Ascender      int16
	Descender     int16
	GlyphAdvance  uint16 // advance width of the one real glyph (gid 1)
	MappedRune    rune   // the single rune the cmap maps to gid 1
}

// Default returns a reasonable baseline: "Test Sans", weight 400, width 5
// (normal), roman, 1000 units/em, the rune 'A' mapped to a 3-point glyph.
func Default() Options {
	return Options{
		Family:       "Test Sans",
		Weight:       400,
		WidthClass:   5,
		UnitsPerEm:   1000,
		Ascender:     800,
		Descender:    -200,
		GlyphAdvance: 600,
		MappedRune:   'A',
	}
}

// Build assembles a single-font sfnt (TrueType version tag 0x00010000)
// containing head, hhea, maxp, OS/2, name, cmap, hmtx, loca and glyf
// tables sufficient for fontfile.Open to parse metrics, cmap lookup, hmtx
// advances and a one-contour glyph outline for opts.MappedRune.
func Build(opts Options) []byte {
	glyf := buildGlyf()
	loca := buildLoca(len(glyf))
	head := buildHead(opts)
	hhea := buildHhea(opts)
	maxp := buildMaxp()
	os2 := buildOS2(opts)
	name := buildName(opts.Family)
	cmap := buildCmap(opts.MappedRune)
	hmtx := buildHmtx(opts.GlyphAdvance)

	tables := []struct {
		tag  string
		data []byte
	}{
		{"head", head},
		{"hhea", hhea},
		{"maxp", maxp},
		{"OS/2", os2},
		{"name", name},
		{"cmap", cmap},
		{"hmtx", hmtx},
		{"loca", loca},
		{"glyf", glyf},
	}

	numTables := len(tables)
	headerLen := 12 + 16*numTables
	offset := headerLen
	type placed struct {
		tag    string
		data   []byte
		offset int
	}
	var placedTables []placed
	for _, t := range tables {
		placedTables = append(placedTables, placed{t.tag, t.data, offset})
		offset += len(t.data)
		if len(t.data)%4 != 0 {
			offset += 4 - len(t.data)%4 // pad to 4-byte boundary
		}
	}

	buf := make([]byte, offset)
	binary.BigEndian.PutUint32(buf[0:4], 0x00010000)
	binary.BigEndian.PutUint16(buf[4:6], uint16(numTables))

	recOff := 12
	for _, p := range placedTables {
		copy(buf[recOff:recOff+4], p.tag)
		binary.BigEndian.PutUint32(buf[recOff+4:recOff+8], 0)
		binary.BigEndian.PutUint32(buf[recOff+8:recOff+12], uint32(p.offset))
		binary.BigEndian.PutUint32(buf[recOff+12:recOff+16], uint32(len(p.data)))
		copy(buf[p.offset:p.offset+len(p.data)], p.data)
		recOff += 16
	}
	return buf
}

func buildHead(o Options) []byte {
	b := make([]byte, 54)
	binary.BigEndian.PutUint16(b[18:20], o.UnitsPerEm)
	var macStyle uint16
	if o.Italic {
		macStyle |= 0x02
	}
	binary.BigEndian.PutUint16(b[44:46], macStyle)
	binary.BigEndian.PutUint16(b[50:52], 0) // indexToLocFormat: short
	return b
}

func buildHhea(o Options) []byte {
	b := make([]byte, 36)
	binary.BigEndian.PutUint16(b[4:6], uint16(o.Ascender))
	binary.BigEndian.PutUint16(b[6:8], uint16(o.Descender))
	binary.BigEndian.PutUint16(b[8:10], 0) // lineGap
	binary.BigEndian.PutUint16(b[34:36], 2) // numberOfHMetrics
	return b
}

func buildMaxp() []byte {
	b := make([]byte, 6)
	binary.BigEndian.PutUint32(b[0:4], 0x00005000)
	binary.BigEndian.PutUint16(b[4:6], 2) // numGlyphs
	return b
}

func buildOS2(o Options) []byte {
	b := make([]byte, 72)
	binary.BigEndian.PutUint16(b[4:6], o.Weight)
	binary.BigEndian.PutUint16(b[6:8], o.WidthClass)
	var fsSel uint16
	if o.Italic {
		fsSel |= 0x0001
	}
	binary.BigEndian.PutUint16(b[62:64], fsSel)
	return b
}

func buildName(family string) []byte {
	type rec struct {
		platformID, encodingID, languageID, nameID uint16
		value                                      string
	}
	recs := []rec{{1, 0, 0, 1, family}, {1, 0, 0, 16, family}}

	header := make([]byte, 6)
	binary.BigEndian.PutUint16(header[0:2], 0)
	binary.BigEndian.PutUint16(header[2:4], uint16(len(recs)))

	var strs []byte
	var entries []byte
	for _, r := range recs {
		off := len(strs)
		entry := make([]byte, 12)
		binary.BigEndian.PutUint16(entry[0:2], r.platformID)
		binary.BigEndian.PutUint16(entry[2:4], r.encodingID)
		binary.BigEndian.PutUint16(entry[4:6], r.languageID)
		binary.BigEndian.PutUint16(entry[6:8], r.nameID)
		binary.BigEndian.PutUint16(entry[8:10], uint16(len(r.value)))
		binary.BigEndian.PutUint16(entry[10:12], uint16(off))
		entries = append(entries, entry...)
		strs = append(strs, []byte(r.value)...)
	}
	binary.BigEndian.PutUint16(header[4:6], uint16(6+len(entries)))

	out := append([]byte{}, header...)
	out = append(out, entries...)
	out = append(out, strs...)
	return out
}

// buildCmap builds a format-4 Windows-Unicode subtable mapping mapped to
// glyph 1 via a single segment, every other code point falling through
// to HasGlyph()==false.
func buildCmap(mapped rune) []byte {
	code := uint16(mapped)
	const segCount = 1
	sub := make([]byte, 14+5*2*segCount)
	binary.BigEndian.PutUint16(sub[0:2], 4)                       // format
	binary.BigEndian.PutUint16(sub[2:4], uint16(len(sub)))        // length
	binary.BigEndian.PutUint16(sub[4:6], 0)                       // language
	binary.BigEndian.PutUint16(sub[6:8], segCount*2)              // segCountX2
	binary.BigEndian.PutUint16(sub[8:10], 2)                      // searchRange
	binary.BigEndian.PutUint16(sub[10:12], 0)                     // entrySelector
	binary.BigEndian.PutUint16(sub[12:14], 0)                     // rangeShift
	endCodesOff := 14
	startCodesOff := endCodesOff + 2*segCount + 2
	idDeltaOff := startCodesOff + 2*segCount
	idRangeOff := idDeltaOff + 2*segCount
	binary.BigEndian.PutUint16(sub[endCodesOff:endCodesOff+2], code)
	binary.BigEndian.PutUint16(sub[startCodesOff:startCodesOff+2], code)
	binary.BigEndian.PutUint16(sub[idDeltaOff:idDeltaOff+2], uint16(int16(1-int32(code))))
	binary.BigEndian.PutUint16(sub[idRangeOff:idRangeOff+2], 0)

	header := make([]byte, 4+8)
	binary.BigEndian.PutUint16(header[0:2], 0) // version
	binary.BigEndian.PutUint16(header[2:4], 1) // numTables
	binary.BigEndian.PutUint16(header[4:6], 3) // platformID
	binary.BigEndian.PutUint16(header[6:8], 1) // encodingID
	binary.BigEndian.PutUint32(header[8:12], uint32(len(header)))

	return append(header, sub...)
}

func buildHmtx(glyphAdvance uint16) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint16(b[0:2], 500) // gid0 (.notdef) advance
	binary.BigEndian.PutUint16(b[2:4], 0)   // gid0 lsb
	binary.BigEndian.PutUint16(b[4:6], glyphAdvance)
	binary.BigEndian.PutUint16(b[6:8], 50)
	return b
}

// buildGlyf returns the glyf table's single real glyph (gid 1): a
// 3-point, one-contour simple glyph with all-on-curve, all-short-vector,
// all-positive deltas, padded to an even length for loca's short format.
func buildGlyf() []byte {
	body := make([]byte, 0, 24)
	header := make([]byte, 10)
	binary.BigEndian.PutUint16(header[0:2], 1) // numberOfContours
	body = append(body, header...)

	endPts := make([]byte, 2)
	binary.BigEndian.PutUint16(endPts, 2) // last point index (3 points: 0,1,2)
	body = append(body, endPts...)

	body = append(body, 0, 0) // instructionLength = 0

	const onCurveShortPositiveXY = 0x01 | 0x02 | 0x10 | 0x04 | 0x20
	body = append(body, onCurveShortPositiveXY, onCurveShortPositiveXY, onCurveShortPositiveXY)

	body = append(body, 100, 0, 200) // x deltas
	body = append(body, 0, 200, 0)   // y deltas

	if len(body)%2 != 0 {
		body = append(body, 0)
	}
	return body
}

func buildLoca(glyf1Len int) []byte {
	b := make([]byte, 6)
	binary.BigEndian.PutUint16(b[0:2], 0)                     // gid0 start (empty glyph)
	binary.BigEndian.PutUint16(b[2:4], 0)                     // gid0 end / gid1 start
	binary.BigEndian.PutUint16(b[4:6], uint16(glyf1Len/2))    // gid1 end (short format: units of 2 bytes)
	return b
}
