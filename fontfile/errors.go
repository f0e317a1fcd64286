package fontfile

import "errors"

var (
	errShort       = errors.New("fontfile: data too short for table")
	errBadCmap     = errors.New("fontfile: unsupported or corrupt cmap")
	errBadGlyf     = errors.New("fontfile: corrupt glyf outline")
	errGlyphRange  = errors.New("fontfile: glyph index out of range")
)
