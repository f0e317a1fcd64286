// Package fontfile implements component C of the font toolkit: parsing a
// single raw OpenType/TrueType sfnt buffer (already stripped of any WOFF/
// WOFF2 container by the container package) into the tables a Record needs
// — head, hhea, maxp, cmap, hmtx, glyf/loca, name, OS/2, and post.
//
// A Record owns the font's raw bytes and holds parsed views over slices of
// those same bytes. Unlike languages with a borrow checker, Go's garbage
// collector keeps the backing array alive for as long as anything points
// into it, so there is no self-referential-struct hazard to design around:
// Record simply embeds both the owned []byte and the slices carved from it.
package fontfile

import (
	"encoding/binary"

	"github.com/textkit/fonttk/ferr"
)

type tableDir struct {
	entries map[uint32]tableEntry
}

type tableEntry struct {
	offset, length uint32
}

func (d tableDir) table(data []byte, tag uint32) ([]byte, bool) {
	e, ok := d.entries[tag]
	if !ok {
		return nil, false
	}
	if int64(e.offset)+int64(e.length) > int64(len(data)) {
		return nil, false
	}
	return data[e.offset : e.offset+e.length], true
}

const (
	tagHead = 0x68656164
	tagHhea = 0x68686561
	tagMaxp = 0x6d617870
	tagCmap = 0x636d6170
	tagHmtx = 0x686d7478
	tagLoca = 0x6c6f6361
	tagGlyf = 0x676c7966
	tagName = 0x6e616d65
	tagOS2  = 0x4f532f32
	tagPost = 0x706f7374
)

// parseTableDir reads a single sfnt's 12-byte offset table plus its table
// directory entries, starting at the given byte offset within data (0 for
// a plain OTF/TTF, an entry from the ttcf header for a collection member).
func parseTableDir(data []byte, base uint32) (tableDir, error) {
	if int64(base)+12 > int64(len(data)) {
		return tableDir{}, ferr.Wrap(ferr.KindCorruptContainer, errShort)
	}
	numTables := binary.BigEndian.Uint16(data[base+4 : base+6])
	dir := tableDir{entries: make(map[uint32]tableEntry, numTables)}
	recStart := base + 12
	for i := uint16(0); i < numTables; i++ {
		recOff := recStart + 16*uint32(i)
		if int64(recOff)+16 > int64(len(data)) {
			return tableDir{}, ferr.Wrap(ferr.KindCorruptContainer, errShort)
		}
		rec := data[recOff : recOff+16]
		tag := binary.BigEndian.Uint32(rec[0:4])
		dir.entries[tag] = tableEntry{
			offset: binary.BigEndian.Uint32(rec[8:12]),
			length: binary.BigEndian.Uint32(rec[12:16]),
		}
	}
	return dir, nil
}

// headTable holds the subset of the head table a Record needs.
type headTable struct {
	unitsPerEm      uint16
	indexToLocLong  bool
	macStyle        uint16
}

func parseHead(data []byte, dir tableDir) (headTable, error) {
	t, ok := dir.table(data, tagHead)
	if !ok || len(t) < 54 {
		return headTable{}, ferr.MissingTable("head")
	}
	return headTable{
		unitsPerEm:     binary.BigEndian.Uint16(t[18:20]),
		macStyle:       binary.BigEndian.Uint16(t[44:46]),
		indexToLocLong: int16(binary.BigEndian.Uint16(t[50:52])) != 0,
	}, nil
}

type hheaTable struct {
	ascender, descender, lineGap int16
	numberOfHMetrics             uint16
}

func parseHhea(data []byte, dir tableDir) (hheaTable, error) {
	t, ok := dir.table(data, tagHhea)
	if !ok || len(t) < 36 {
		return hheaTable{}, ferr.MissingTable("hhea")
	}
	return hheaTable{
		ascender:         int16(binary.BigEndian.Uint16(t[4:6])),
		descender:        int16(binary.BigEndian.Uint16(t[6:8])),
		lineGap:          int16(binary.BigEndian.Uint16(t[8:10])),
		numberOfHMetrics: binary.BigEndian.Uint16(t[34:36]),
	}, nil
}

func parseNumGlyphs(data []byte, dir tableDir) (int, error) {
	t, ok := dir.table(data, tagMaxp)
	if !ok || len(t) < 6 {
		return 0, ferr.MissingTable("maxp")
	}
	return int(binary.BigEndian.Uint16(t[4:6])), nil
}

// os2Table holds the OS/2 fields a Record's classification layer needs.
type os2Table struct {
	present            bool
	usWeightClass      uint16
	usWidthClass       uint16
	fsSelection        uint16
	sTypoAscender      int16
	sTypoDescender     int16
	useTypoMetrics     bool
}

const fsSelectionItalic = 0x0001
const fsSelectionUseTypoMetrics = 0x0080

func parseOS2(data []byte, dir tableDir) os2Table {
	t, ok := dir.table(data, tagOS2)
	if !ok || len(t) < 72 {
		return os2Table{}
	}
	fsSel := binary.BigEndian.Uint16(t[62:64])
	var ascender, descender int16
	if len(t) >= 72 {
		ascender = int16(binary.BigEndian.Uint16(t[68:70]))
		descender = int16(binary.BigEndian.Uint16(t[70:72]))
	}
	return os2Table{
		present:        true,
		usWeightClass:  binary.BigEndian.Uint16(t[4:6]),
		usWidthClass:   binary.BigEndian.Uint16(t[6:8]),
		fsSelection:    fsSel,
		sTypoAscender:  ascender,
		sTypoDescender: descender,
		useTypoMetrics: fsSel&fsSelectionUseTypoMetrics != 0,
	}
}

type postTable struct {
	present             bool
	underlinePosition   int16
	underlineThickness  int16
}

func parsePost(data []byte, dir tableDir) postTable {
	t, ok := dir.table(data, tagPost)
	if !ok || len(t) < 16 {
		return postTable{}
	}
	return postTable{
		present:            true,
		underlinePosition:  int16(binary.BigEndian.Uint16(t[8:10])),
		underlineThickness: int16(binary.BigEndian.Uint16(t[10:12])),
	}
}
