package app

import (
	"sort"

	"quizforge/internal/domain"
)

// Rerank sorts entries descending by score and assigns ranks 1..N by sorted
// position. The sort is stable so tied scores keep their insertion order,
// producing a strict ordinal ranking. Reranking an already-ranked list is a
// no-op, and the input slice is never mutated.
func Rerank(entries []domain.LeaderboardEntry) []domain.LeaderboardEntry {
	ranked := make([]domain.LeaderboardEntry, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
