package text

import "unicode"

// SplitByWidth implements spec.md §4.G step 7: returns the longest prefix
// of m (by cluster) ending at an allowed line-break opportunity whose
// width is ≤ maxWidth, and the remaining suffix. If no break opportunity
// fits, it returns the longest prefix that fits at all, breaking mid-word
// as a last resort; if even the first cluster doesn't fit, the prefix
// still contains that one cluster (a single glyph is never dropped).
//
// Break opportunities are approximated at whitespace boundaries and after
// CJK characters, per UAX #14's default rule that any two non-CJK letters
// are a "must not break" pair while CJK ideographs may break against
// almost anything; this mirrors the simplified breaking rules the
// teacher's layout/inline/linebreak.go used before shaping-level justify.
func (m *Metrics) SplitByWidth(fontSize, letterSpacing, maxWidth float64) (*Metrics, *Metrics) {
	if len(m.Clusters) == 0 {
		return m, nil
	}
	scale := fontSize / float64(m.UnitsPerEm)

	width := 0.0
	lastBreak := -1
	for i, c := range m.Clusters {
		if c.HardBreak {
			return m.sliceAt(i+1, i+1)
		}
		cw := float64(c.AdvanceUnits)*scale + letterSpacing
		if width+cw > maxWidth && i > 0 {
			if lastBreak >= 0 {
				return m.sliceAt(lastBreak+1, lastBreak+1)
			}
			return m.sliceAt(i, i)
		}
		width += cw
		if canBreakAfter(m.Clusters, i) {
			lastBreak = i
		}
	}
	return m, nil
}

func canBreakAfter(clusters []Cluster, i int) bool {
	if i >= len(clusters)-1 {
		return true
	}
	cur := firstRune(clusters[i].Text)
	next := firstRune(clusters[i+1].Text)
	if unicode.IsSpace(cur) || unicode.IsSpace(next) {
		return true
	}
	if isCJK(cur) || isCJK(next) {
		return true
	}
	return false
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

// sliceAt splits m's clusters at [0:headEnd) and [tailStart:), trimming a
// single leading break-causing whitespace cluster from the tail so callers
// don't re-measure the space that caused the break.
func (m *Metrics) sliceAt(headEnd, tailStart int) (*Metrics, *Metrics) {
	head := &Metrics{
		Source:     m.Source,
		Clusters:   append([]Cluster{}, m.Clusters[:headEnd]...),
		UnitsPerEm: m.UnitsPerEm,
		Ascender:   m.Ascender,
		Descender:  m.Descender,
		LineGap:    m.LineGap,
	}
	head.recomputeMissing()

	if tailStart >= len(m.Clusters) {
		return head, nil
	}
	if tailStart < len(m.Clusters) && unicode.IsSpace(firstRune(m.Clusters[tailStart].Text)) {
		tailStart++
	}
	tail := &Metrics{
		Source:     m.Source,
		Clusters:   append([]Cluster{}, m.Clusters[tailStart:]...),
		UnitsPerEm: m.UnitsPerEm,
		Ascender:   m.Ascender,
		Descender:  m.Descender,
		LineGap:    m.LineGap,
	}
	tail.recomputeMissing()
	return head, tail
}
