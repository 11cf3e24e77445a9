package usecase

import (
	"sort"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
)

const defaultRRFK = 60

type fusedCandidate struct {
	id    domain.ExpenseID
	score float64
}

// fuseRankedRRF combines ranked identifier lists with Reciprocal Rank
// Fusion: each identifier at 1-based rank r in a list contributes
// 1/(k+r) to its total. Identifiers absent from a list contribute nothing
// from it, and empty lists are no-ops, so fusing any mix of empty and
// non-empty inputs never fails. The output is sorted by score descending
// with ties broken by identifier for determinism.
func fuseRankedRRF(lists [][]domain.ExpenseID, k int) []fusedCandidate {
	if k <= 0 {
		k = defaultRRFK
	}

	scores := make(map[domain.ExpenseID]float64)
	for _, list := range lists {
		for rank, id := range list {
			scores[id] += 1.0 / float64(k+rank+1)
		}
	}

	out := make([]fusedCandidate, 0, len(scores))
	for id, score := range scores {
		out = append(out, fusedCandidate{id: id, score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].id < out[j].id
	})

	return out
}
