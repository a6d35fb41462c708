// Copyright (C) 2026 Lumina Home
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

// Levenshtein computes the edit distance between two strings in runes.
//
// Description:
//
//	Standard dynamic-programming edit distance with unit-cost insertions,
//	deletions, and substitutions. Uses two rolling rows sized to the
//	shorter input for memory efficiency — the full matrix is never
//	materialized. Operating on runes keeps the distance consistent with
//	the rune-based length gates in the fuzzy phase for non-ASCII queries.
//
// Short circuits:
//
//	Levenshtein(a, a) == 0
//	Levenshtein(a, "") == utf8.RuneCountInString(a)
//
// Thread Safety: Stateless. Safe for concurrent use.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Keep rb the shorter input so the rows are as small as possible.
	if len(rb) > len(ra) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}
