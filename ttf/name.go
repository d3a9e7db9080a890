package ttf

import "unicode/utf16"

// parseFullName scans a name table for the full font name (nameID 4),
// preferring a Windows-platform Unicode record (UTF-16BE) and falling back
// to a Macintosh-platform one (single-byte, treated as Latin-1/ASCII).
func parseFullName(data []byte) string {
	if len(data) < 6 {
		return ""
	}
	count := int(be16(data, 2))
	stringOffset := int(be16(data, 4))

	var macName string
	for i := 0; i < count; i++ {
		base := 6 + i*12
		if base+12 > len(data) {
			break
		}
		platformID := be16(data, base)
		nameID := be16(data, base+6)
		length := int(be16(data, base+8))
		offset := int(be16(data, base+10))
		if nameID != 4 {
			continue
		}
		start := stringOffset + offset
		if start < 0 || start+length > len(data) {
			continue
		}
		raw := data[start : start+length]

		if platformID == 3 || platformID == 0 {
			if name, ok := decodeUTF16BE(raw); ok {
				return name
			}
		} else if macName == "" {
			macName = string(raw)
		}
	}
	return macName
}

func decodeUTF16BE(raw []byte) (string, bool) {
	if len(raw)%2 != 0 {
		return "", false
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = be16(raw, i*2)
	}
	return string(utf16.Decode(units)), true
}
