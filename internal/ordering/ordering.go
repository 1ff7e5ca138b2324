// Package ordering implements the shared gapped-rank algorithm used for
// stage positions and intra-stage card ranks.
//
// Ranks are plain integers spaced Gap apart (10, 20, 30, ...). Gapped
// numbering lets a single-item drag usually be expressed as one row
// update: the moved item takes the midpoint between its new neighbours.
// When the gap between neighbours is exhausted the caller falls back to
// Renumber, which rewrites the whole scope and is always correct at the
// cost of one write per item.
package ordering

// Gap is the spacing between consecutive ranks after a renumber.
const Gap = 10

// Renumber returns fresh ranks for n items in display order:
// (index+1)*Gap. Ranks are strictly increasing and never zero or
// negative, so they always sit above a zero-position sentinel.
func Renumber(n int) []int {
	ranks := make([]int, n)
	for i := range ranks {
		ranks[i] = (i + 1) * Gap
	}
	return ranks
}

// Append returns a rank strictly above maxRank for an item added at the
// end of a scope. Pass the scope's current highest rank, or 0 for an
// empty scope.
func Append(maxRank int) int {
	if maxRank < 0 {
		maxRank = 0
	}
	return maxRank + Gap
}

// Between returns the midpoint rank for an item dropped between two
// neighbours. ok is false when no integer lies strictly between prev and
// next, in which case the caller must renumber the scope. Use prev = 0
// for a drop at the head of the scope.
func Between(prev, next int) (rank int, ok bool) {
	if next-prev < 2 {
		return 0, false
	}
	return prev + (next-prev)/2, true
}
