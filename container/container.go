// Package container implements component B of the font toolkit: detecting
// a font binary's container format by its magic bytes and decoding it down
// to one or more raw OpenType/TrueType byte buffers that the fontfile
// package can parse directly.
//
// Detection is by magic byte, never by file extension (spec.md §6):
// "OTTO"/0x00010000/"true" pass through as a single OpenType font, "ttcf"
// is a TrueType Collection, "wOFF" is WOFF1 (zlib per-table), and "wOF2" is
// WOFF2 (brotli, with transformed glyf/loca/hmtx tables).
package container

import (
	"encoding/binary"

	"github.com/textkit/fonttk/ferr"
)

// Kind identifies which container format was detected.
type Kind int

const (
	// KindSingle is a bare OTF/TTF font: the input bytes are already a
	// complete sfnt and need no further decoding.
	KindSingle Kind = iota
	// KindCollection is a TrueType Collection (ttcf): the input bytes are
	// the whole container, to be parsed with an index per logical font.
	KindCollection
)

// Decoded is the result of Decode: either a single sfnt buffer (KindSingle),
// or the original ttcf buffer plus its logical font count (KindCollection).
type Decoded struct {
	Kind Kind
	// Data holds the bytes to hand to an OpenType table parser: the
	// reconstructed raw sfnt for WOFF/WOFF2 inputs, or the original bytes
	// unchanged for OTF/TTF/TTC inputs.
	Data []byte
	// NumFonts is the number of logical fonts in Data. 1 for KindSingle,
	// the ttcf header's numFonts for KindCollection.
	NumFonts int
}

const (
	tagOTTO = 0x4f54544f
	tagTrue = 0x74727565 // "true"
	tag1_0  = 0x00010000
	tagTTC  = 0x74746366 // "ttcf"
	tagWOFF = 0x774f4646 // "wOFF"
	tagWOF2 = 0x774f4632 // "wOF2"
)

// Decode detects data's container format and returns one decoded result per
// the rules in spec.md §4.B. It never consults a file extension.
func Decode(data []byte) (*Decoded, error) {
	if len(data) < 4 {
		return nil, ferr.Wrap(ferr.KindCorruptContainer, errTooShort)
	}
	magic := binary.BigEndian.Uint32(data[:4])
	switch magic {
	case tagOTTO, tagTrue, tag1_0:
		return &Decoded{Kind: KindSingle, Data: data, NumFonts: 1}, nil
	case tagTTC:
		n, err := ttcNumFonts(data)
		if err != nil {
			return nil, err
		}
		return &Decoded{Kind: KindCollection, Data: data, NumFonts: n}, nil
	case tagWOFF:
		raw, err := decodeWOFF1(data)
		if err != nil {
			return nil, err
		}
		return Decode(raw)
	case tagWOF2:
		raw, err := decodeWOFF2(data)
		if err != nil {
			return nil, err
		}
		return Decode(raw)
	default:
		return nil, ferr.New(ferr.KindUnsupportedContainer)
	}
}

func ttcNumFonts(data []byte) (int, error) {
	if len(data) < 12 {
		return 0, ferr.Wrap(ferr.KindCorruptContainer, errTooShort)
	}
	n := int(binary.BigEndian.Uint32(data[8:12]))
	if n <= 0 || 12+4*n > len(data) {
		return 0, ferr.Wrap(ferr.KindCorruptContainer, errBadOffsetTable)
	}
	return n, nil
}
