package fontfile

import (
	"bytes"
	"fmt"

	gofont "github.com/go-text/typesetting/font"

	"github.com/textkit/fonttk/ferr"
	"github.com/textkit/fonttk/key"
	"github.com/textkit/fonttk/outline"
	"github.com/textkit/fonttk/raster"
	"github.com/textkit/fonttk/text"
)

// Record owns a single logical font's bytes (already unwrapped from any
// WOFF/WOFF2 container) plus the parsed views built over them: sfnt
// table offsets, cmap, hmtx, loca. A go-text/typesetting face is parsed
// once while opening, only to derive the font's FontKey (family/weight/
// italic/stretch), and is not kept on the Record. Everything that walks
// glyf/hmtx/cmap directly for measurement
// or outline extraction uses this package's own table parser instead,
// since the pack's golang.org/x/image/font/sfnt snapshot has no cmap or
// TrueType glyf support (see DESIGN.md).
type Record struct {
	data []byte
	path string
	index int

	dir  tableDir
	head headTable
	hhea hheaTable
	os2  os2Table
	post postTable
	cmap cmapTable
	hmtx hmtxTable
	loca []uint32

	numGlyphs int
	names     []nameRecord

	key key.FontKey
}

// Open parses a single raw sfnt buffer (post container-decoding) at the
// given collection index (0 for a non-collection font) into a Record.
func Open(data []byte, path string, index int) (*Record, error) {
	base := uint32(0)
	if index > 0 || looksLikeTTC(data) {
		off, err := ttcMemberOffset(data, index)
		if err != nil {
			return nil, err
		}
		base = off
	}

	dir, err := parseTableDir(data, base)
	if err != nil {
		return nil, err
	}
	head, err := parseHead(data, dir)
	if err != nil {
		return nil, err
	}
	hhea, err := parseHhea(data, dir)
	if err != nil {
		return nil, err
	}
	numGlyphs, err := parseNumGlyphs(data, dir)
	if err != nil {
		return nil, err
	}
	cmap, err := parseCmap(data, dir)
	if err != nil {
		return nil, err
	}
	loca := parseLoca(data, dir, numGlyphs, head.indexToLocLong)
	hmtx := parseHmtx(data, dir, hhea.numberOfHMetrics, numGlyphs)
	os2 := parseOS2(data, dir)
	post := parsePost(data, dir)
	names := parseName(data, dir)

	r := &Record{
		data:      data,
		path:      path,
		index:     index,
		dir:       dir,
		head:      head,
		hhea:      hhea,
		os2:       os2,
		post:      post,
		cmap:      cmap,
		hmtx:      hmtx,
		loca:      loca,
		numGlyphs: numGlyphs,
		names:     names,
	}
	r.key = r.classify()
	return r, nil
}

func looksLikeTTC(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "ttcf"
}

func ttcMemberOffset(data []byte, index int) (uint32, error) {
	if len(data) < 16 {
		return 0, ferr.Wrap(ferr.KindCorruptContainer, errShort)
	}
	n := int(be32(data[8:12]))
	if index < 0 || index >= n {
		return 0, ferr.Wrap(ferr.KindNotFound, errShort)
	}
	entryOff := 12 + 4*index
	if entryOff+4 > len(data) {
		return 0, ferr.Wrap(ferr.KindCorruptContainer, errShort)
	}
	return be32(data[entryOff : entryOff+4]), nil
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// classify derives this font's canonical FontKey. Family/weight/style/
// stretch come first from go-text/typesetting/font's Describe(), the same
// name-table and OS/2-driven classification the teacher's font package
// used (font/loader.go extractInfo); parseOS2/parseName above are used
// only as a fallback when go-text cannot parse the face (e.g. a font this
// self-written table reader accepts but go-text's stricter parser rejects).
func (r *Record) classify() key.FontKey {
	family, weight, stretch, italic, ok := describeWithGoText(r.data, r.index)
	if !ok {
		family, ok = nameByID(r.names, 1)
		if !ok {
			family, _ = nameByID(r.names, 16)
		}
		weight = int(r.os2.usWeightClass)
		if weight == 0 {
			if r.head.macStyle&0x01 != 0 {
				weight = 700
			} else {
				weight = 400
			}
		}
		stretch = widthClassToStretch(int(r.os2.usWidthClass))
		italic = r.os2.present && r.os2.fsSelection&fsSelectionItalic != 0
		if !r.os2.present {
			italic = r.head.macStyle&0x02 != 0
		}
	}
	if family == "" {
		family = "unknown"
	}
	k := key.New(family)
	k.Weight = key.Weight(weight)
	k.Italic = italic
	k.Stretch = key.Stretch(stretch)
	return k.Normalize()
}

func describeWithGoText(data []byte, index int) (family string, weight int, stretch int, italic bool, ok bool) {
	defer func() { recover() }() // go-text panics on some malformed inputs; fall back silently
	var face *gofont.Face
	var err error
	if looksLikeTTC(data) {
		faces, parseErr := gofont.ParseTTC(bytes.NewReader(data))
		if parseErr != nil || index >= len(faces) {
			return "", 0, 0, false, false
		}
		face = faces[index]
	} else {
		face, err = gofont.ParseTTF(bytes.NewReader(data))
		if err != nil {
			return "", 0, 0, false, false
		}
	}
	if face == nil || face.Font == nil {
		return "", 0, 0, false, false
	}
	desc := face.Font.Describe()
	italic = desc.Aspect.Style == gofont.StyleItalic
	weight = int(desc.Aspect.Weight)
	if weight == 0 {
		weight = 400
	}
	stretch = stretchFromGoText(float32(desc.Aspect.Stretch))
	return desc.Family, weight, stretch, italic, true
}

func stretchFromGoText(v float32) int {
	switch {
	case v <= 0:
		return 5
	case v <= 0.5625:
		return 1
	case v <= 0.6875:
		return 2
	case v <= 0.8125:
		return 3
	case v <= 0.9375:
		return 4
	case v <= 1.0625:
		return 5
	case v <= 1.1875:
		return 6
	case v <= 1.375:
		return 7
	case v <= 1.75:
		return 8
	default:
		return 9
	}
}

func widthClassToStretch(usWidthClass int) int {
	if usWidthClass < 1 || usWidthClass > 9 {
		return 5
	}
	return usWidthClass
}

// Key returns this font's canonical identity.
func (r *Record) Key() key.FontKey { return r.key }

// Path returns the filesystem path this font was loaded from, or "" for a
// font registered directly from an in-memory buffer.
func (r *Record) Path() string { return r.path }

// Index returns the collection member index (0 for non-collection fonts).
func (r *Record) Index() int { return r.index }

// Buffer returns the font's raw bytes (the single-font sfnt buffer, not
// the original WOFF/WOFF2 container it may have arrived in).
func (r *Record) Buffer() []byte { return r.data }

// UnitsPerEm returns the font's design grid resolution (head.unitsPerEm).
func (r *Record) UnitsPerEm() int { return int(r.head.unitsPerEm) }

// Ascender and Descender return the font's vertical metrics in font units,
// preferring OS/2 sTypo{Ascender,Descender} when USE_TYPO_METRICS is set,
// falling back to hhea otherwise (matches common platform text-layout
// behavior for which metrics to trust).
func (r *Record) Ascender() int {
	if r.os2.present && r.os2.useTypoMetrics {
		return int(r.os2.sTypoAscender)
	}
	return int(r.hhea.ascender)
}

func (r *Record) Descender() int {
	if r.os2.present && r.os2.useTypoMetrics {
		return int(r.os2.sTypoDescender)
	}
	return int(r.hhea.descender)
}

func (r *Record) LineGap() int { return int(r.hhea.lineGap) }

// UnderlineMetrics returns the post table's underline position/thickness
// in font units. ok is false when the font has no post table.
func (r *Record) UnderlineMetrics() (position, thickness int, ok bool) {
	if !r.post.present {
		return 0, 0, false
	}
	return int(r.post.underlinePosition), int(r.post.underlineThickness), true
}

// NumGlyphs returns the font's glyph count (maxp.numGlyphs).
func (r *Record) NumGlyphs() int { return r.numGlyphs }

// HasGlyph reports whether the font's cmap maps r to a (nonzero) glyph.
func (r *Record) HasGlyph(c rune) bool {
	_, ok := r.cmap.Lookup(c)
	return ok
}

// GlyphIndex returns the glyph index cmap maps rune c to.
func (r *Record) GlyphIndex(c rune) (uint16, bool) {
	return r.cmap.Lookup(c)
}

// AdvanceWidth returns a glyph's advance width in font units.
func (r *Record) AdvanceWidth(gid uint16) int {
	return r.hmtx.Advance(gid)
}

// GlyphPath returns the rune's outline in font design units, or ok=false
// if the font has no glyph for it.
func (r *Record) GlyphPath(c rune) (*outline.Path, bool) {
	gid, ok := r.cmap.Lookup(c)
	if !ok {
		return nil, false
	}
	p, err := r.glyphOutline(gid)
	if err != nil {
		return nil, false
	}
	return p, true
}

// Bitmap implements spec.md §4.H's optional rasterization operation,
// rendering c at fontSize with an optional stroke pass of strokeWidth.
// ok is false iff the font has no glyph for c.
func (r *Record) Bitmap(c rune, fontSize, strokeWidth float64) (*raster.Bitmap, bool) {
	return raster.Rasterize(r, c, fontSize, strokeWidth)
}

// Measure implements spec.md §4.C's measure(text) on a single font,
// delegating to the text package's full normalize/bidi/cluster pipeline
// with r as the sole (non-fallback) face.
func (r *Record) Measure(s string) (*text.Metrics, error) {
	return text.Measure(r, s)
}

// FamilyNames returns every localized family name recorded in the font's
// name table (nameID 1 and 16, every language present), deduplicated. The
// query resolver matches a family filter against all of these, not just
// the classification family returned by Key().
func (r *Record) FamilyNames() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	add(r.key.Family)
	for _, n := range r.names {
		if n.nameID == 1 || n.nameID == 16 {
			add(n.value)
		}
	}
	return out
}

// windowsLangTags maps a handful of common Windows name-table languageIDs
// (platform 3) to their BCP-47 tags. Far from exhaustive; unrecognized IDs
// fall back to a "mac-<id>"/"win-0x<id>" placeholder tag in
// LocalizedFamilyNames so no name is ever dropped for lack of a mapping.
var windowsLangTags = map[uint16]string{
	0x0409: "en-US", 0x0809: "en-GB", 0x040C: "fr-FR", 0x0407: "de-DE",
	0x0410: "it-IT", 0x040A: "es-ES", 0x0411: "ja-JP", 0x0804: "zh-CN",
	0x0404: "zh-TW", 0x0412: "ko-KR", 0x0419: "ru-RU", 0x0416: "pt-BR",
}

// LocalizedFamilyNames returns nameID 1/16 family names keyed by a
// best-effort BCP-47 language tag, for callers (e.g. registry.FontInfo)
// that want to present a per-language family name rather than just the
// classification family.
func (r *Record) LocalizedFamilyNames() map[string]string {
	out := make(map[string]string)
	for _, n := range r.names {
		if n.nameID != 1 && n.nameID != 16 {
			continue
		}
		var tag string
		switch n.platformID {
		case 3:
			if t, ok := windowsLangTags[n.languageID]; ok {
				tag = t
			} else {
				tag = fmt.Sprintf("win-0x%04x", n.languageID)
			}
		case 1:
			tag = fmt.Sprintf("mac-%d", n.languageID)
		default:
			tag = fmt.Sprintf("plat%d-%d", n.platformID, n.languageID)
		}
		if _, exists := out[tag]; !exists {
			out[tag] = n.value
		}
	}
	return out
}
