package container

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/dsnet/compress/brotli"

	"github.com/textkit/fonttk/ferr"
)

// woff2KnownTags is the WOFF2 builtin table-tag directory (W3C WOFF2 §6.1),
// indexed by the low 6 bits of a table directory entry's flag byte. Index
// 63 means "tag follows explicitly as 4 raw bytes" instead of a table entry
// here.
var woff2KnownTags = [63]uint32{
	0x636d6170, 0x68656164, 0x68686561, 0x686d7478, // cmap head hhea hmtx
	0x6d617870, 0x6e616d65, 0x4f532f32, 0x706f7374, // maxp name OS/2 post
	0x63767420, 0x6670676d, 0x676c7966, 0x6c6f6361, // cvt  fpgm glyf loca
	0x70726570, 0x43464620, 0x564f5247, 0x45424454, // prep CFF  VORG EBDT
	0x45424c43, 0x67617370, 0x68646d78, 0x6b65726e, // EBLC gasp hdmx kern
	0x4c545348, 0x50434c54, 0x56444d58, 0x76686561, // LTSH PCLT VDMX vhea
	0x766d7478, 0x42415345, 0x47444546, 0x47504f53, // vmtx BASE GDEF GPOS
	0x47535542, 0x45425343, 0x4a535446, 0x4d415448, // GSUB EBSC JSTF MATH
	0x43424454, 0x43424c43, 0x434f4c52, 0x4350414c, // CBDT CBLC COLR CPAL
	0x53564720, 0x73626978, 0x61636e74, 0x61766172, // SVG  sbix acnt avar
	0x62646174, 0x626c6f63, 0x62736c6e, 0x63766172, // bdat bloc bsln cvar
	0x66647363, 0x66656174, 0x666d7478, 0x66766172, // fdsc feat fmtx fvar
	0x67766172, 0x68737479, 0x6a757374, 0x6c636172, // gvar hsty just lcar
	0x6d6f7274, 0x6d6f7278, 0x6f706264, 0x70726f70, // mort morx opbd prop
	0x7472616b, 0x5a617066, 0x53696c66, 0x476c6174, // trak Zapf Silf Glat
	0x476c6f63, 0x46656174, 0x53696c6c, // Gloc Feat Sill
}

const tagGlyf = 0x676c7966
const tagLoca = 0x6c6f6361
const tagHmtx = 0x686d7478
const tagDSIG = 0x44534947

type woff2TableEntry struct {
	tag             uint32
	origLength      uint32
	transformVersion int
	transformLength  uint32
	hasTransform     bool
}

// decodeWOFF2 decompresses a WOFF2 container to a raw sfnt buffer, undoing
// the glyf/loca/hmtx transforms where present (W3C WOFF2 §5, §6). Adapted
// from the header-parsing/table-directory/brotli-stream structure used by
// the reference WOFF2 decoder in the retrieval pack; the triplet-coordinate
// glyph reconstruction in woff2transform.go is grounded the same way.
func decodeWOFF2(data []byte) ([]byte, error) {
	r := newBreader(data)
	signature := r.ReadUint32()
	flavor := r.ReadUint32()
	_ = r.ReadUint32() // length
	numTables := r.ReadUint16()
	_ = r.ReadUint16() // reserved
	_ = r.ReadUint32() // totalSfntSize
	_ = r.ReadUint32() // totalCompressedSize
	_, _ = r.ReadUint16(), r.ReadUint16() // major/minor version
	_, _ = r.ReadUint32(), r.ReadUint32() // metaOffset, metaLength
	_ = r.ReadUint32() // metaOrigLength
	_, _ = r.ReadUint32(), r.ReadUint32() // privOffset, privLength
	if r.EOF() {
		return nil, ferr.Wrap(ferr.KindCorruptContainer, errTooShort)
	}
	if signature != tagWOF2 {
		return nil, ferr.Wrap(ferr.KindCorruptContainer, errBadSignature)
	}
	if flavor == tagTTC {
		return nil, ferr.Wrap(ferr.KindUnsupportedContainer, errUnsupportedFlav)
	}

	entries := make([]woff2TableEntry, numTables)
	for i := range entries {
		flags := r.ReadByte()
		idx := int(flags & 0x3F)
		var tag uint32
		if idx == 63 {
			tag = r.ReadUint32()
		} else if idx < len(woff2KnownTags) {
			tag = woff2KnownTags[idx]
		}
		origLength, err := readUintBase128(r)
		if err != nil {
			return nil, ferr.Wrap(ferr.KindCorruptContainer, err)
		}
		e := woff2TableEntry{tag: tag, origLength: origLength}
		transformVersion := int(flags>>6) & 0x3
		needsTransform := tag == tagGlyf || tag == tagLoca
		if tag == tagHmtx {
			needsTransform = transformVersion == 1
		} else if needsTransform {
			needsTransform = transformVersion == 0
		} else {
			needsTransform = false
		}
		if needsTransform {
			tl, err := readUintBase128(r)
			if err != nil {
				return nil, ferr.Wrap(ferr.KindCorruptContainer, err)
			}
			e.hasTransform = true
			e.transformVersion = transformVersion
			e.transformLength = tl
		}
		entries[i] = e
	}
	if r.EOF() {
		return nil, ferr.Wrap(ferr.KindCorruptContainer, errTableOverflow)
	}

	compressedStream := data[r.pos:]
	br, err := brotli.NewReader(bytes.NewReader(compressedStream), nil)
	if err != nil {
		return nil, ferr.Wrap(ferr.KindCorruptContainer, err)
	}
	defer br.Close()

	raw := make([][]byte, len(entries))
	for i, e := range entries {
		n := e.origLength
		if e.hasTransform {
			n = e.transformLength
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, ferr.Wrap(ferr.KindCorruptContainer, err)
		}
		raw[i] = buf
	}

	byTag := make(map[uint32][]byte, len(entries))
	for i, e := range entries {
		if e.tag == tagDSIG {
			continue
		}
		byTag[e.tag] = raw[i]
	}

	// glyf/loca are reconstructed together first since hmtx reconstruction
	// depends on their output; table directory order does not guarantee
	// hmtx appears after glyf in the stream.
	for i, e := range entries {
		if e.hasTransform && e.tag == tagLoca {
			delete(byTag, tagLoca)
		}
		if e.hasTransform && e.tag == tagGlyf {
			glyfOut, locaOut, err := reconstructGlyfLoca(raw[i])
			if err != nil {
				return nil, ferr.Wrap(ferr.KindCorruptContainer, err)
			}
			byTag[tagGlyf] = glyfOut
			byTag[tagLoca] = locaOut
		}
	}
	for i, e := range entries {
		if !e.hasTransform || e.tag != tagHmtx {
			continue
		}
		numGlyphs, numHMetrics, err := hmtxParamsFrom(byTag)
		if err != nil {
			return nil, ferr.Wrap(ferr.KindCorruptContainer, err)
		}
		hmtxOut, err := reconstructHmtx(raw[i], byTag[tagGlyf], byTag[tagLoca], numGlyphs, numHMetrics)
		if err != nil {
			return nil, ferr.Wrap(ferr.KindCorruptContainer, err)
		}
		byTag[tagHmtx] = hmtxOut
	}

	tags := make([]uint32, 0, len(byTag))
	tableData := make([][]byte, 0, len(byTag))
	for _, e := range entries {
		if e.tag == tagDSIG {
			continue
		}
		if _, ok := byTag[e.tag]; !ok {
			continue
		}
		dup := false
		for _, t := range tags {
			if t == e.tag {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		tags = append(tags, e.tag)
		tableData = append(tableData, byTag[e.tag])
	}

	return assembleSfnt(flavor, tags, tableData)
}

// hmtxParamsFrom reads numGlyphs (maxp) and numberOfHMetrics (hhea) from
// tables already placed in byTag, both of which precede hmtx in every valid
// WOFF2 stream ordering used by real encoders.
func hmtxParamsFrom(byTag map[uint32][]byte) (numGlyphs, numHMetrics int, err error) {
	const tagMaxp = 0x6d617870
	const tagHhea = 0x68686561
	maxp, ok := byTag[tagMaxp]
	if !ok || len(maxp) < 6 {
		return 0, 0, errTransform
	}
	hhea, ok := byTag[tagHhea]
	if !ok || len(hhea) < 36 {
		return 0, 0, errTransform
	}
	numGlyphs = int(binary.BigEndian.Uint16(maxp[4:6]))
	numHMetrics = int(binary.BigEndian.Uint16(hhea[34:36]))
	return numGlyphs, numHMetrics, nil
}
