package naming

import "strings"

const fallbackStem = "output"

// SanitizeStem replaces characters that are invalid in filenames on common
// platforms, strips NUL bytes, and trims leading/trailing dots and spaces.
func SanitizeStem(stem string) string {
	stem = strings.ReplaceAll(stem, "\x00", "")
	stem = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, stem)
	stem = strings.Trim(stem, ". ")
	if stem == "" {
		return fallbackStem
	}
	return stem
}
