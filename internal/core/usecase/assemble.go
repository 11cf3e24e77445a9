package usecase

import (
	"log/slog"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
)

const defaultEvidenceLimit = 15

// assembleEvidence resolves fused identifiers back into full records using
// the union of the matchers' detail maps, preserving fused order and
// truncating to limit. A fused id missing from every detail map signals an
// identifier-space mismatch between matchers; the record is logged and
// dropped rather than surfaced as a partial row.
func assembleEvidence(fused []fusedCandidate, details map[domain.ExpenseID]domain.Expense, limit int) []domain.Expense {
	if limit <= 0 {
		limit = defaultEvidenceLimit
	}

	out := make([]domain.Expense, 0, min(limit, len(fused)))
	for _, candidate := range fused {
		if len(out) == limit {
			break
		}
		row, ok := details[candidate.id]
		if !ok {
			slog.Warn("fused id unresolvable in detail maps, dropping",
				"expense_id", string(candidate.id))
			continue
		}
		out = append(out, row)
	}
	return out
}
