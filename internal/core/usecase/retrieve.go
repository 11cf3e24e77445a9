package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/ports"
)

const defaultCandidateLimit = 10

// RetrieveUseCase is the hybrid retrieval engine: it fans the activated
// matchers out concurrently, waits for all of them, fuses their ranked
// lists with RRF and assembles the bounded evidence set.
type RetrieveUseCase struct {
	expenses ports.ExpenseStore
	graph    ports.GraphStore
}

func NewRetrieveUseCase(expenses ports.ExpenseStore, graph ports.GraphStore) *RetrieveUseCase {
	return &RetrieveUseCase{
		expenses: expenses,
		graph:    graph,
	}
}

// matcher is one activated strategy: a named, independently failing query
// producing rows in rank order.
type matcher struct {
	name string
	run  func(context.Context) ([]domain.Expense, error)
}

type matcherOutcome struct {
	result domain.RankedResult
	err    error
}

// Retrieve executes the plan. queryEmbedding may be nil when the semantic
// strategy is inactive; if the semantic strategy is active without an
// embedding it is reported as failed rather than aborting the request.
// Matcher failures degrade to empty contributions; only plan validation
// errors and caller cancellation abort.
func (uc *RetrieveUseCase) Retrieve(
	ctx context.Context,
	queryEmbedding []float32,
	plan domain.SearchPlan,
) (domain.EvidenceSet, error) {
	if err := plan.Validate(); err != nil {
		return domain.EvidenceSet{}, err
	}
	if !plan.Active() {
		return domain.EvidenceSet{}, nil
	}

	candidateLimit := plan.CandidateLimit
	if candidateLimit <= 0 {
		candidateLimit = defaultCandidateLimit
	}

	matchers := uc.buildMatchers(queryEmbedding, plan, candidateLimit)
	outcomes := make([]matcherOutcome, len(matchers))

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range matchers {
		g.Go(func() error {
			rows, err := m.run(gctx)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Warn("retrieval strategy failed",
					"strategy", m.name, "error", err)
				outcomes[i] = matcherOutcome{err: err}
				return nil
			}
			outcomes[i] = matcherOutcome{result: domain.NewRankedResult(rows)}
			return nil
		})
	}
	// Barrier: fusion starts only after every matcher finished. On
	// cancellation no partial fused result is emitted.
	if err := g.Wait(); err != nil {
		return domain.EvidenceSet{}, err
	}

	lists := make([][]domain.ExpenseID, 0, len(outcomes))
	details := make(map[domain.ExpenseID]domain.Expense)
	reports := make([]domain.StrategyReport, len(outcomes))
	for i, outcome := range outcomes {
		reports[i] = domain.StrategyReport{
			Strategy: matchers[i].name,
			Hits:     len(outcome.result.IDs),
		}
		if outcome.err != nil {
			reports[i].Failed = true
			reports[i].Error = outcome.err.Error()
			continue
		}
		lists = append(lists, outcome.result.IDs)
		for id, row := range outcome.result.Details {
			if _, ok := details[id]; !ok {
				details[id] = row
			}
		}
	}

	fused := fuseRankedRRF(lists, plan.RRFK)
	return domain.EvidenceSet{
		Items:      assembleEvidence(fused, details, plan.EvidenceLimit),
		Strategies: reports,
	}, nil
}

func (uc *RetrieveUseCase) buildMatchers(
	queryEmbedding []float32,
	plan domain.SearchPlan,
	limit int,
) []matcher {
	matchers := make([]matcher, 0, len(plan.Lexical)+2)

	for _, q := range plan.Lexical {
		matchers = append(matchers, matcher{
			name: "lexical:" + string(q.Field),
			run: func(ctx context.Context) ([]domain.Expense, error) {
				return uc.expenses.SearchLexical(ctx, q, limit)
			},
		})
	}

	if plan.Semantic {
		matchers = append(matchers, matcher{
			name: "semantic",
			run: func(ctx context.Context) ([]domain.Expense, error) {
				if len(queryEmbedding) == 0 {
					return nil, fmt.Errorf("query embedding unavailable")
				}
				return uc.expenses.SearchSemantic(ctx, queryEmbedding, limit)
			},
		})
	}

	if plan.Graph != nil {
		query := *plan.Graph
		matchers = append(matchers, matcher{
			name: "graph:" + string(query.Pattern),
			run: func(ctx context.Context) ([]domain.Expense, error) {
				return uc.graph.SearchPatterns(ctx, query, limit)
			},
		})
	}

	return matchers
}
