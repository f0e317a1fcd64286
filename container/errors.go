package container

import "errors"

var (
	errTooShort        = errors.New("container: data too short")
	errBadOffsetTable  = errors.New("container: inconsistent offset table")
	errBadSignature    = errors.New("container: bad signature")
	errLengthMismatch  = errors.New("container: declared length does not match data")
	errUnsupportedFlav = errors.New("container: unsupported flavor (font collection in WOFF2)")
	errTableOverflow   = errors.New("container: table directory overflows data")
	errChecksum        = errors.New("container: table checksum mismatch")
	errTransform       = errors.New("container: unsupported table transform")
)
