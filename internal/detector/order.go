package detector

import "strings"

// compareIDs orders message ids in arrival sequence. Decimal ids (Chatwork)
// compare numerically; anything else compares shorter-first, then
// lexicographically, which is correct for fixed-width ids such as ULIDs.
func compareIDs(a, b string) int {
	if a == b {
		return 0
	}
	if isDigits(a) && isDigits(b) {
		a = strings.TrimLeft(a, "0")
		b = strings.TrimLeft(b, "0")
	}
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
