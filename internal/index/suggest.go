package index

import "fmt"

// Suggest finds the indexed label closest to input within a small edit
// distance and returns a "did you mean" hint, or "" when nothing is
// close enough. Used when free-text input is rejected.
func (ix *Index) Suggest(input string) string {
	const maxDist = 3

	best := ""
	bestDist := maxDist + 1
	for _, ref := range ix.order {
		label := ix.labelByRef[ref]
		if d := levenshtein(input, label); d < bestDist {
			bestDist = d
			best = label
		}
	}
	if bestDist <= maxDist {
		return fmt.Sprintf("did you mean %q?", best)
	}
	return ""
}

// levenshtein computes the edit distance between two strings using a
// single-row DP.
func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr := make([]int, lb+1)
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			ins := curr[j-1] + 1
			del := prev[j] + 1
			sub := prev[j-1] + cost
			curr[j] = min(ins, min(del, sub))
		}
		prev = curr
	}
	return prev[lb]
}
