package fontfile

import (
	"encoding/binary"

	"github.com/textkit/fonttk/ferr"
)

// cmapTable maps runes to glyph indices via whichever of the standard
// format 4 (BMP) or format 12 (full Unicode) subtables the font offers,
// preferring a Windows/Unicode (3,1) or (3,10) or (0,*) subtable.
type cmapTable struct {
	seg4  []segment4 // format 4, set when the chosen subtable is format 4
	groups12 []group12
}

type segment4 struct {
	startCode, endCode uint16
	idDelta            int16
	idRangeOffset      uint16
	idRangeBase        int // absolute byte offset of this segment's idRangeOffset field
	data               []byte
}

type group12 struct {
	startChar, endChar, startGlyph uint32
}

func parseCmap(data []byte, dir tableDir) (cmapTable, error) {
	t, ok := dir.table(data, tagCmap)
	if !ok || len(t) < 4 {
		return cmapTable{}, ferr.MissingTable("cmap")
	}
	numTables := binary.BigEndian.Uint16(t[2:4])

	bestOffset := -1
	bestFormat := uint16(0)
	pick := func(platform, encoding uint16, offset uint32) int {
		switch {
		case platform == 3 && encoding == 10:
			return 4
		case platform == 3 && encoding == 1:
			return 3
		case platform == 0:
			return 2
		case platform == 3 && encoding == 0:
			return 1
		default:
			return 0
		}
	}
	bestScore := -1
	for i := uint16(0); i < numTables; i++ {
		recOff := 4 + 8*int(i)
		if recOff+8 > len(t) {
			break
		}
		platform := binary.BigEndian.Uint16(t[recOff : recOff+2])
		encoding := binary.BigEndian.Uint16(t[recOff+2 : recOff+4])
		offset := binary.BigEndian.Uint32(t[recOff+4 : recOff+8])
		score := pick(platform, encoding, offset)
		if int(offset) >= len(t) {
			continue
		}
		if score > bestScore {
			bestScore = score
			bestOffset = int(offset)
			bestFormat = binary.BigEndian.Uint16(t[offset : offset+2])
		}
	}
	if bestOffset < 0 {
		return cmapTable{}, ferr.Wrap(ferr.KindMissingTable, errBadCmap)
	}

	sub := t[bestOffset:]
	switch bestFormat {
	case 4:
		segs, err := parseFormat4(sub)
		if err != nil {
			return cmapTable{}, err
		}
		return cmapTable{seg4: segs}, nil
	case 12:
		groups, err := parseFormat12(sub)
		if err != nil {
			return cmapTable{}, err
		}
		return cmapTable{groups12: groups}, nil
	default:
		return cmapTable{}, ferr.Wrap(ferr.KindUnsupportedContainer, errBadCmap)
	}
}

func parseFormat4(t []byte) ([]segment4, error) {
	if len(t) < 14 {
		return nil, ferr.Wrap(ferr.KindCorruptContainer, errShort)
	}
	segCountX2 := binary.BigEndian.Uint16(t[6:8])
	segCount := int(segCountX2 / 2)
	endCodesOff := 14
	startCodesOff := endCodesOff + int(segCountX2) + 2 // +2 for reservedPad
	idDeltaOff := startCodesOff + int(segCountX2)
	idRangeOff := idDeltaOff + int(segCountX2)
	if idRangeOff+int(segCountX2) > len(t) {
		return nil, ferr.Wrap(ferr.KindCorruptContainer, errShort)
	}
	segs := make([]segment4, segCount)
	for i := 0; i < segCount; i++ {
		segs[i] = segment4{
			endCode:       binary.BigEndian.Uint16(t[endCodesOff+2*i:]),
			startCode:     binary.BigEndian.Uint16(t[startCodesOff+2*i:]),
			idDelta:       int16(binary.BigEndian.Uint16(t[idDeltaOff+2*i:])),
			idRangeOffset: binary.BigEndian.Uint16(t[idRangeOff+2*i:]),
			idRangeBase:   idRangeOff + 2*i,
			data:          t,
		}
	}
	return segs, nil
}

func parseFormat12(t []byte) ([]group12, error) {
	if len(t) < 16 {
		return nil, ferr.Wrap(ferr.KindCorruptContainer, errShort)
	}
	numGroups := binary.BigEndian.Uint32(t[12:16])
	groups := make([]group12, 0, numGroups)
	off := 16
	for i := uint32(0); i < numGroups; i++ {
		if off+12 > len(t) {
			break
		}
		groups = append(groups, group12{
			startChar:  binary.BigEndian.Uint32(t[off : off+4]),
			endChar:    binary.BigEndian.Uint32(t[off+4 : off+8]),
			startGlyph: binary.BigEndian.Uint32(t[off+8 : off+12]),
		})
		off += 12
	}
	return groups, nil
}

// Lookup returns the glyph index for r, or ok=false if the font has no
// mapping for it.
func (c cmapTable) Lookup(r rune) (uint16, bool) {
	u := uint32(r)
	if c.groups12 != nil {
		for _, g := range c.groups12 {
			if u >= g.startChar && u <= g.endChar {
				return uint16(g.startGlyph + (u - g.startChar)), true
			}
		}
		return 0, false
	}
	if u > 0xFFFF {
		return 0, false
	}
	code := uint16(u)
	for _, s := range c.seg4 {
		if code < s.startCode || code > s.endCode {
			continue
		}
		if s.idRangeOffset == 0 {
			gid := uint16(int32(code) + int32(s.idDelta))
			if gid == 0 {
				return 0, false
			}
			return gid, true
		}
		glyphOff := s.idRangeBase + int(s.idRangeOffset) + 2*int(code-s.startCode)
		if glyphOff+2 > len(s.data) {
			return 0, false
		}
		gid := binary.BigEndian.Uint16(s.data[glyphOff : glyphOff+2])
		if gid == 0 {
			return 0, false
		}
		return uint16(int32(gid) + int32(s.idDelta)), true
	}
	return 0, false
}
