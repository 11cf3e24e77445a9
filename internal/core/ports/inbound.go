package ports

import (
	"context"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
)

// ExpenseAuditor is the inbound contract for hybrid retrieval and narrative
// generation over the expense corpus.
type ExpenseAuditor interface {
	// Audit retrieves evidence for the question per the plan and generates
	// the auditor narrative.
	Audit(ctx context.Context, question string, plan domain.SearchPlan) (*domain.Answer, error)
	// Retrieve runs only the retrieval engine: matchers, fusion, assembly.
	Retrieve(ctx context.Context, question string, plan domain.SearchPlan) (domain.EvidenceSet, error)
}

// ExpenseIngestor is the inbound contract for loading one year of expense
// data into both stores.
type ExpenseIngestor interface {
	IngestYear(ctx context.Context, year int) (domain.IngestReport, error)
}
