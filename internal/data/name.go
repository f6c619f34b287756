package data

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// maxNameRunes bounds labels drawn next to map icons.
const maxNameRunes = 32

// NormalizeName prepares a host display name for the map: NFC composed,
// full-width ASCII folded to half-width, control characters dropped,
// surrounding space trimmed and the result capped at maxNameRunes.
func NormalizeName(s string) string {
	if s == "" {
		return ""
	}
	s = width.Fold.String(norm.NFC.String(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxNameRunes {
		s = string(r[:maxNameRunes])
	}
	return s
}
