package fontfile

import "encoding/binary"

type hmtxTable struct {
	advances []uint16 // length numberOfHMetrics; last value repeats for remaining glyphs
	lsb      []int16  // length numGlyphs
}

func parseHmtx(data []byte, dir tableDir, numberOfHMetrics uint16, numGlyphs int) hmtxTable {
	t, ok := dir.table(data, tagHmtx)
	if !ok {
		return hmtxTable{}
	}
	n := int(numberOfHMetrics)
	advances := make([]uint16, 0, n)
	lsb := make([]int16, 0, numGlyphs)
	off := 0
	for i := 0; i < n && off+4 <= len(t); i++ {
		advances = append(advances, binary.BigEndian.Uint16(t[off:off+2]))
		lsb = append(lsb, int16(binary.BigEndian.Uint16(t[off+2:off+4])))
		off += 4
	}
	for i := n; i < numGlyphs && off+2 <= len(t); i++ {
		lsb = append(lsb, int16(binary.BigEndian.Uint16(t[off:off+2])))
		off += 2
	}
	return hmtxTable{advances: advances, lsb: lsb}
}

// Advance returns the advance width of glyph gid, falling back to the last
// entry in the advances array per the hmtx "monospace tail" convention.
func (h hmtxTable) Advance(gid uint16) int {
	if len(h.advances) == 0 {
		return 0
	}
	i := int(gid)
	if i >= len(h.advances) {
		i = len(h.advances) - 1
	}
	return int(h.advances[i])
}

func (h hmtxTable) LeftSideBearing(gid uint16) int {
	if int(gid) >= len(h.lsb) {
		return 0
	}
	return int(h.lsb[gid])
}

func parseLoca(data []byte, dir tableDir, numGlyphs int, longFormat bool) []uint32 {
	t, ok := dir.table(data, tagLoca)
	if !ok {
		return nil
	}
	n := numGlyphs + 1
	offsets := make([]uint32, 0, n)
	if longFormat {
		for i := 0; i < n && 4*i+4 <= len(t); i++ {
			offsets = append(offsets, binary.BigEndian.Uint32(t[4*i:4*i+4]))
		}
	} else {
		for i := 0; i < n && 2*i+2 <= len(t); i++ {
			offsets = append(offsets, uint32(binary.BigEndian.Uint16(t[2*i:2*i+2]))*2)
		}
	}
	return offsets
}
