package text

import (
	"unicode"

	"github.com/go-text/typesetting/language"
	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/bidi"
	"golang.org/x/text/unicode/norm"

	"github.com/textkit/fonttk/ferr"
)

// Face is the subset of fontfile.Record the text engine needs. Declared
// as an interface here (rather than importing fontfile directly, which
// itself imports this package) so any concrete record type, or a test
// fake, can be measured.
type Face interface {
	GlyphIndex(r rune) (uint16, bool)
	AdvanceWidth(gid uint16) int
	UnitsPerEm() int
	Ascender() int
	Descender() int
	LineGap() int
}

// Measure implements spec.md §4.G steps 2-6: NFC-normalize, bidi-resolve
// at paragraph level, iterate grapheme clusters, and accumulate hmtx
// advances from face for each cluster's representative glyph (its first
// rune). A hard line break is preserved as a zero-advance cluster
// boundary rather than folded into a neighboring cluster.
func Measure(face Face, text string) (*Metrics, error) {
	if face.UnitsPerEm() <= 0 {
		return nil, ferr.MissingTable("head")
	}
	normalized := norm.NFC.String(text)

	levels := bidiLevels(normalized)

	m := &Metrics{
		Source:     normalized,
		UnitsPerEm: face.UnitsPerEm(),
		Ascender:   face.Ascender(),
		Descender:  face.Descender(),
		LineGap:    face.LineGap(),
	}

	gr := uniseg.NewGraphemes(normalized)
	for gr.Next() {
		start, end := gr.Positions()
		clusterText := gr.Str()
		runes := gr.Runes()
		var rep rune
		if len(runes) > 0 {
			rep = runes[0]
		}

		c := Cluster{
			Text:      clusterText,
			StartByte: start,
			EndByte:   end,
			BidiLevel: levelAt(levels, start),
			HardBreak: isHardBreak(rep),
		}
		if !c.HardBreak {
			gid, ok := face.GlyphIndex(rep)
			if !ok {
				c.Missing = true
			} else {
				c.GlyphID = gid
				c.AdvanceUnits = face.AdvanceWidth(gid)
			}
		}
		m.Clusters = append(m.Clusters, c)
	}
	m.recomputeMissing()
	return m, nil
}

func isHardBreak(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}

// bidiLevels resolves paragraph-level embedding levels for s using the
// Unicode Bidi Algorithm (golang.org/x/text/unicode/bidi), returning one
// level per byte offset in s. A resolution failure (e.g. unsupported
// input) yields an all-LTR level map rather than an error, since per-
// cluster bidi level is advisory metadata, not something measure() can
// fail on.
func bidiLevels(s string) []int {
	levels := make([]int, len(s)+1)
	var p bidi.Paragraph
	if _, err := p.SetString(s); err != nil {
		return levels
	}
	ordering, err := p.Order()
	if err != nil {
		return levels
	}
	for i := 0; i < ordering.NumRuns(); i++ {
		run := ordering.Run(i)
		start, end := run.Pos()
		lvl := 0
		if run.Direction() == bidi.RightToLeft {
			lvl = 1
		}
		for b := start; b < end && b < len(levels); b++ {
			levels[b] = lvl
		}
	}
	return levels
}

func levelAt(levels []int, byteOffset int) int {
	if byteOffset < 0 || byteOffset >= len(levels) {
		return 0
	}
	return levels[byteOffset]
}

// ScriptOf classifies r's Unicode script, grounded on the same
// unicode.In-based dispatch the teacher's shaping layer used, adapted to
// return a go-text/typesetting/language.Script for any caller that wants
// per-run script boundaries out of Metrics' clusters.
func ScriptOf(r rune) language.Script {
	switch {
	case unicode.In(r, unicode.Han):
		return language.Han
	case unicode.In(r, unicode.Hiragana):
		return language.Hiragana
	case unicode.In(r, unicode.Katakana):
		return language.Katakana
	case unicode.In(r, unicode.Latin):
		return language.Latin
	case unicode.In(r, unicode.Greek):
		return language.Greek
	case unicode.In(r, unicode.Cyrillic):
		return language.Cyrillic
	case unicode.In(r, unicode.Arabic):
		return language.Arabic
	case unicode.In(r, unicode.Hebrew):
		return language.Hebrew
	default:
		return language.Common
	}
}
