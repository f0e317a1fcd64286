package fontfile

import "encoding/binary"

// nameRecord is one entry of the name table's string storage, decoded to
// UTF-8 eagerly since every platform/encoding this parser recognizes is
// either ASCII or UTF-16BE.
type nameRecord struct {
	platformID, encodingID, languageID, nameID uint16
	value                                      string
}

func parseName(data []byte, dir tableDir) []nameRecord {
	t, ok := dir.table(data, tagName)
	if !ok || len(t) < 6 {
		return nil
	}
	count := binary.BigEndian.Uint16(t[2:4])
	stringOffset := binary.BigEndian.Uint16(t[4:6])
	records := make([]nameRecord, 0, count)
	for i := uint16(0); i < count; i++ {
		recOff := 6 + 12*int(i)
		if recOff+12 > len(t) {
			break
		}
		rec := t[recOff : recOff+12]
		platformID := binary.BigEndian.Uint16(rec[0:2])
		encodingID := binary.BigEndian.Uint16(rec[2:4])
		languageID := binary.BigEndian.Uint16(rec[4:6])
		nameID := binary.BigEndian.Uint16(rec[6:8])
		length := binary.BigEndian.Uint16(rec[8:10])
		off := binary.BigEndian.Uint16(rec[10:12])
		start := int(stringOffset) + int(off)
		end := start + int(length)
		if start < 0 || end > len(t) {
			continue
		}
		raw := t[start:end]
		var value string
		if platformID == 1 && encodingID == 0 {
			value = string(raw) // Mac Roman; ASCII subset good enough here
		} else {
			value = utf16BEToString(raw)
		}
		records = append(records, nameRecord{platformID, encodingID, languageID, nameID, value})
	}
	return records
}

func utf16BEToString(b []byte) string {
	n := len(b) / 2
	units := make([]uint16, n)
	for i := 0; i < n; i++ {
		units[i] = binary.BigEndian.Uint16(b[2*i:])
	}
	return string(utf16Decode(units))
}

func utf16Decode(units []uint16) []rune {
	var out []rune
	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case u >= 0xD800 && u <= 0xDBFF && i+1 < len(units) && units[i+1] >= 0xDC00 && units[i+1] <= 0xDFFF:
			r := (rune(u-0xD800) << 10) + rune(units[i+1]-0xDC00) + 0x10000
			out = append(out, r)
			i++
		default:
			out = append(out, rune(u))
		}
	}
	return out
}

// nameByID returns the first record matching nameID, preferring Windows
// Unicode (platform 3) English-US (language 0x409) entries.
func nameByID(records []nameRecord, nameID uint16) (string, bool) {
	best := ""
	bestScore := -1
	for _, r := range records {
		if r.nameID != nameID {
			continue
		}
		score := 0
		if r.platformID == 3 {
			score += 2
		}
		if r.languageID == 0x409 {
			score += 1
		}
		if score > bestScore {
			bestScore = score
			best = r.value
		}
	}
	return best, bestScore >= 0
}
