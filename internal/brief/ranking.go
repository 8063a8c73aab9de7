package brief

import (
	"sort"
)

// RankThreads orders threads by importance weight descending, then
// urgency score descending, then latest message descending, then id
// ascending. The id tie-break makes the order total, so any permutation
// of the same input ranks identically. The input slice is not modified.
func RankThreads(threads []EmailThread) []EmailThread {
	out := make([]EmailThread, len(threads))
	copy(out, threads)

	sort.Slice(out, func(i, j int) bool {
		if wi, wj := out[i].Importance.Weight(), out[j].Importance.Weight(); wi != wj {
			return wi > wj
		}
		if out[i].UrgencyScore != out[j].UrgencyScore {
			return out[i].UrgencyScore > out[j].UrgencyScore
		}
		if !out[i].LastMessageDate.Equal(out[j].LastMessageDate) {
			return out[i].LastMessageDate.After(out[j].LastMessageDate)
		}
		return out[i].ID < out[j].ID
	})

	return out
}

// TopThreads returns the length-min(n, len) prefix of an already ranked
// list. The returned slice aliases the input; callers treat it as
// read-only.
func TopThreads(ranked []EmailThread, n int) []EmailThread {
	if n < 0 {
		n = 0
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}
