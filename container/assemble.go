package container

import (
	"encoding/binary"
	"sort"
)

// assembleSfnt writes a standard sfnt offset table plus table records for
// the given tags/table bodies (in arbitrary input order; they are written
// sorted by tag, the order OpenType requires), padding every table to a
// 4-byte boundary and computing the head table's checksumAdjustment field.
// This is the common tail of both the WOFF1 and WOFF2 decoders.
func assembleSfnt(flavor uint32, tags []uint32, tableData [][]byte) ([]byte, error) {
	type entry struct {
		tag  uint32
		data []byte
	}
	entries := make([]entry, len(tags))
	for i, t := range tags {
		entries[i] = entry{tag: t, data: tableData[i]}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	numTables := uint16(len(entries))
	searchRange, entrySelector, rangeShift := binarySearchParams(numTables)

	header := make([]byte, 12)
	binary.BigEndian.PutUint32(header[0:4], flavor)
	binary.BigEndian.PutUint16(header[4:6], numTables)
	binary.BigEndian.PutUint16(header[6:8], searchRange)
	binary.BigEndian.PutUint16(header[8:10], entrySelector)
	binary.BigEndian.PutUint16(header[10:12], rangeShift)

	recordsStart := len(header)
	recordsLen := 16 * int(numTables)
	out := make([]byte, recordsStart+recordsLen)
	copy(out, header)

	offset := uint32(recordsStart + recordsLen)
	headOffset := -1
	for i, e := range entries {
		padded := pad4(e.data)
		rec := out[recordsStart+16*i:]
		binary.BigEndian.PutUint32(rec[0:4], e.tag)
		binary.BigEndian.PutUint32(rec[4:8], calcChecksum(padded))
		binary.BigEndian.PutUint32(rec[8:12], offset)
		binary.BigEndian.PutUint32(rec[12:16], uint32(len(e.data)))

		if e.tag == tagHead {
			headOffset = int(offset)
		}
		out = append(out, padded...)
		offset += uint32(len(padded))
	}

	if headOffset >= 0 && headOffset+12 <= len(out) {
		binary.BigEndian.PutUint32(out[headOffset+8:headOffset+12], 0)
		adjustment := 0xB1B0AFBA - calcChecksum(out)
		binary.BigEndian.PutUint32(out[headOffset+8:headOffset+12], adjustment)
	}
	return out, nil
}

const tagHead = 0x68656164 // "head"

func pad4(b []byte) []byte {
	n := (4 - len(b)%4) % 4
	if n == 0 {
		return b
	}
	out := make([]byte, len(b)+n)
	copy(out, b)
	return out
}

func calcChecksum(b []byte) uint32 {
	var sum uint32
	for i := 0; i+4 <= len(b); i += 4 {
		sum += binary.BigEndian.Uint32(b[i : i+4])
	}
	if rem := len(b) % 4; rem != 0 {
		var last [4]byte
		copy(last[:], b[len(b)-rem:])
		sum += binary.BigEndian.Uint32(last[:])
	}
	return sum
}

func binarySearchParams(numTables uint16) (searchRange, entrySelector, rangeShift uint16) {
	sr := uint16(1)
	for sr*2 <= numTables {
		sr *= 2
		entrySelector++
	}
	searchRange = sr * 16
	rangeShift = numTables*16 - searchRange
	return
}
