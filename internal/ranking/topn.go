package ranking

import "sort"

// SelectTopN pairs candidates with scores and keeps the n best. Ties keep
// input order. n <= 0 yields an empty list.
func SelectTopN(candidates []string, scores ScoreVector, n int) (RankedList, error) {
	if len(candidates) != len(scores) {
		return nil, ErrLengthMismatch
	}
	list := make(RankedList, len(candidates))
	for i, c := range candidates {
		list[i] = Scored{Path: c, Score: scores[i]}
	}
	return list.Top(n), nil
}

// Top returns a new list with the n highest-scoring entries, stable on ties.
func (l RankedList) Top(n int) RankedList {
	if n <= 0 {
		return RankedList{}
	}
	sorted := make(RankedList, len(l))
	copy(sorted, l)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
