package broker

import "strings"

// fuzzyScore returns a similarity in [0,1] between query and candidate,
// case-insensitive: 1 for equal strings, the shorter-to-longer length
// ratio when one contains the other, and otherwise the common-prefix
// length over the longer length. No fuzzy-match library appears anywhere
// in the example pack, so this is a small stdlib scorer rather than an
// external dependency — see DESIGN.md. Both InstrumentSearch
// implementations keep every candidate scoring 0.5 or more, so matches
// well below 0.95 are returned.
func fuzzyScore(query, candidate string) float64 {
	q := strings.ToUpper(strings.TrimSpace(query))
	c := strings.ToUpper(strings.TrimSpace(candidate))
	if q == "" || c == "" {
		return 0
	}
	if q == c {
		return 1
	}
	if strings.Contains(c, q) || strings.Contains(q, c) {
		shorter, longer := q, c
		if len(c) < len(q) {
			shorter, longer = c, q
		}
		return float64(len(shorter)) / float64(len(longer))
	}

	matches := prefixOverlap(q, c)
	maxLen := len(q)
	if len(c) > maxLen {
		maxLen = len(c)
	}
	if maxLen == 0 {
		return 0
	}
	return float64(matches) / float64(maxLen)
}

func prefixOverlap(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
