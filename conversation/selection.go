package conversation

import (
	"strings"
	"unicode"

	"github.com/Purnavu-12/Gram-Sahayak-sub001/collab"
)

// ParseSchemeSelection resolves a user's reply against the candidate list.
// Scheme names are matched case-insensitively as substrings of the reply;
// failing that, a leading ordinal number is read as a 1-based index. The
// second return value is false when nothing matches.
func ParseSchemeSelection(text string, schemes []collab.Scheme) (int, bool) {
	if len(schemes) == 0 {
		return 0, false
	}

	lower := strings.ToLower(strings.TrimSpace(text))
	for i, scheme := range schemes {
		if name := strings.ToLower(scheme.Name); name != "" && strings.Contains(lower, name) {
			return i, true
		}
	}

	if n, ok := leadingOrdinal(lower); ok && n >= 1 && n <= len(schemes) {
		return n - 1, true
	}
	return 0, false
}

// leadingOrdinal reads a number from the start of the reply ("2", "2.",
// "2nd option").
func leadingOrdinal(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && unicode.IsDigit(rune(s[end])) {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n := 0
	for _, r := range s[:end] {
		n = n*10 + int(r-'0')
	}
	return n, true
}
