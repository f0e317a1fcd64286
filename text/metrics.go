// Package text implements component G of the font toolkit: the
// measurement state machine that turns a string and a resolved font into
// a TextMetrics artifact — normalized, clustered into grapheme-extended
// units, tagged with a per-cluster bidi level, and advance-accumulated
// from hmtx. Measure does not split the text into runs by script;
// ScriptOf classifies a single rune's script for callers that need it.
package text

// Cluster is one grapheme-extended unit of measured text (spec.md
// glossary: "Cluster"). AdvanceUnits is the representative glyph's hmtx
// advance width in the source font's design units; font size and letter
// spacing are applied at read time, not stored.
type Cluster struct {
	Text         string
	StartByte    int
	EndByte      int
	GlyphID      uint16
	Missing      bool
	AdvanceUnits int
	BidiLevel    int
	HardBreak    bool // a hard line break (e.g. "\n") with zero advance
}

// Metrics is the immutable-after-construction measured-text artifact
// spec.md §3 describes, except for Append and Replace.
type Metrics struct {
	Source     string
	Clusters   []Cluster
	UnitsPerEm int
	Ascender   int
	Descender  int
	LineGap    int
	HasMissing bool
}

func (m *Metrics) recomputeMissing() {
	for _, c := range m.Clusters {
		if c.Missing {
			m.HasMissing = true
			return
		}
	}
	m.HasMissing = false
}

// Width returns the text's total advance at fontSize with letterSpacing
// added after every cluster (CSS letter-spacing convention), both in the
// same unit as fontSize.
func (m *Metrics) Width(fontSize, letterSpacing float64) float64 {
	if m.UnitsPerEm == 0 {
		return 0
	}
	scale := fontSize / float64(m.UnitsPerEm)
	var w float64
	for _, c := range m.Clusters {
		if c.HardBreak {
			continue
		}
		w += float64(c.AdvanceUnits)*scale + letterSpacing
	}
	return w
}

// Height returns lineHeight when provided, else the font-derived line
// height (ascender - descender + lineGap) scaled to fontSize.
func (m *Metrics) Height(fontSize float64, lineHeight *float64) float64 {
	if lineHeight != nil {
		return *lineHeight
	}
	if m.UnitsPerEm == 0 {
		return 0
	}
	scale := fontSize / float64(m.UnitsPerEm)
	return float64(m.Ascender-m.Descender+m.LineGap) * scale
}

// Append concatenates other's clusters after m's and re-derives
// HasMissing. Ascender/Descender/LineGap/UnitsPerEm are kept from m (the
// metrics built from the primary font), matching spec.md's "derived from
// the first resolved font" rule.
func (m *Metrics) Append(other *Metrics) *Metrics {
	out := &Metrics{
		Source:     m.Source + other.Source,
		Clusters:   append(append([]Cluster{}, m.Clusters...), other.Clusters...),
		UnitsPerEm: m.UnitsPerEm,
		Ascender:   m.Ascender,
		Descender:  m.Descender,
		LineGap:    m.LineGap,
	}
	out.recomputeMissing()
	return out
}

// Replace substitutes m with other. When fallback is true, only clusters
// m marked Missing are taken from other (matched by position; other must
// have the same cluster count as m); all other clusters keep m's values.
// This implements the fallback-font merge spec.md §4.G describes.
func (m *Metrics) Replace(other *Metrics, fallback bool) *Metrics {
	if !fallback {
		return other
	}
	out := &Metrics{
		Source:     m.Source,
		Clusters:   append([]Cluster{}, m.Clusters...),
		UnitsPerEm: m.UnitsPerEm,
		Ascender:   m.Ascender,
		Descender:  m.Descender,
		LineGap:    m.LineGap,
	}
	for i := range out.Clusters {
		if !out.Clusters[i].Missing {
			continue
		}
		if i >= len(other.Clusters) {
			continue
		}
		oc := other.Clusters[i]
		if oc.Missing {
			continue
		}
		out.Clusters[i] = oc
	}
	out.recomputeMissing()
	return out
}
