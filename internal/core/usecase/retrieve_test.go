package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
)

type expenseStoreFake struct {
	lexicalRows map[domain.LexicalField][]domain.Expense
	lexicalErr  error

	semanticRows []domain.Expense
	semanticErr  error

	lastLimit int
}

func (f *expenseStoreFake) SearchLexical(_ context.Context, q domain.LexicalQuery, limit int) ([]domain.Expense, error) {
	f.lastLimit = limit
	if f.lexicalErr != nil {
		return nil, f.lexicalErr
	}
	return f.lexicalRows[q.Field], nil
}

func (f *expenseStoreFake) SearchSemantic(_ context.Context, _ []float32, limit int) ([]domain.Expense, error) {
	f.lastLimit = limit
	if f.semanticErr != nil {
		return nil, f.semanticErr
	}
	return f.semanticRows, nil
}

func (f *expenseStoreFake) InsertExpenses(context.Context, []domain.Expense, [][]float32) error {
	return nil
}

type graphStoreFake struct {
	rows []domain.Expense
	err  error
}

func (f *graphStoreFake) SearchPatterns(context.Context, domain.GraphQuery, int) ([]domain.Expense, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *graphStoreFake) UpsertExpenses(context.Context, []domain.Expense) error { return nil }

func expense(deputy, cnpj string, amount float64) domain.Expense {
	return domain.Expense{
		DeputyName:   deputy,
		SupplierName: "ACME",
		SupplierCNPJ: cnpj,
		Amount:       amount,
	}
}

func TestRetrieveInactivePlanYieldsEmptySet(t *testing.T) {
	uc := NewRetrieveUseCase(&expenseStoreFake{}, &graphStoreFake{})

	set, err := uc.Retrieve(context.Background(), nil, domain.SearchPlan{})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !set.Empty() || len(set.Strategies) != 0 {
		t.Fatalf("expected empty set for inactive plan, got %+v", set)
	}
}

func TestRetrieveInvalidGraphPatternFailsFast(t *testing.T) {
	uc := NewRetrieveUseCase(&expenseStoreFake{}, &graphStoreFake{})

	_, err := uc.Retrieve(context.Background(), nil, domain.SearchPlan{
		Graph: &domain.GraphQuery{Pattern: "shortest_path"},
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRetrieveIsolatesMatcherFailure(t *testing.T) {
	semantic := expense("Deputy B", "222", 200)
	store := &expenseStoreFake{
		lexicalErr:   errors.New("connection refused"),
		semanticRows: []domain.Expense{semantic},
	}
	uc := NewRetrieveUseCase(store, &graphStoreFake{})

	set, err := uc.Retrieve(context.Background(), []float32{0.1}, domain.SearchPlan{
		Lexical:  []domain.LexicalQuery{{Field: domain.LexicalDeputyName, Term: "Deputy"}},
		Semantic: true,
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(set.Items) != 1 || set.Items[0].DeputyName != "Deputy B" {
		t.Fatalf("expected semantic result to survive lexical failure, got %+v", set.Items)
	}
	if len(set.Strategies) != 2 {
		t.Fatalf("expected 2 strategy reports, got %d", len(set.Strategies))
	}
	var lexical, semanticReport domain.StrategyReport
	for _, r := range set.Strategies {
		switch r.Strategy {
		case "lexical:deputy_name":
			lexical = r
		case "semantic":
			semanticReport = r
		}
	}
	if !lexical.Failed || lexical.Error == "" {
		t.Fatalf("expected lexical strategy reported failed, got %+v", lexical)
	}
	if semanticReport.Failed || semanticReport.Hits != 1 {
		t.Fatalf("expected semantic strategy reported 1 hit, got %+v", semanticReport)
	}
}

func TestRetrieveAllStrategiesFailYieldsEmptyNotError(t *testing.T) {
	store := &expenseStoreFake{
		lexicalErr:  errors.New("pg down"),
		semanticErr: errors.New("pg down"),
	}
	graph := &graphStoreFake{err: errors.New("neo4j down")}
	uc := NewRetrieveUseCase(store, graph)

	set, err := uc.Retrieve(context.Background(), []float32{0.1}, domain.SearchPlan{
		Lexical:  []domain.LexicalQuery{{Field: domain.LexicalSupplierCNPJ, Term: "123"}},
		Semantic: true,
		Graph:    &domain.GraphQuery{Pattern: domain.PatternHighValue, MinAmount: 1000},
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !set.Empty() {
		t.Fatalf("expected empty evidence, got %d items", len(set.Items))
	}
	for _, r := range set.Strategies {
		if !r.Failed {
			t.Fatalf("expected every strategy reported failed, got %+v", r)
		}
	}
}

func TestRetrieveConsensusRanksSharedExpenseFirst(t *testing.T) {
	shared := expense("Deputy A", "111", 100)
	store := &expenseStoreFake{
		lexicalRows: map[domain.LexicalField][]domain.Expense{
			domain.LexicalDeputyName: {expense("Deputy C", "333", 300), shared},
		},
		semanticRows: []domain.Expense{shared, expense("Deputy B", "222", 200)},
	}
	uc := NewRetrieveUseCase(store, &graphStoreFake{})

	set, err := uc.Retrieve(context.Background(), []float32{0.1}, domain.SearchPlan{
		Lexical:  []domain.LexicalQuery{{Field: domain.LexicalDeputyName, Term: "Deputy"}},
		Semantic: true,
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(set.Items) != 3 {
		t.Fatalf("expected 3 fused items, got %d", len(set.Items))
	}
	if set.Items[0].ID() != shared.ID() {
		t.Fatalf("expected shared expense ranked first, got %+v", set.Items[0])
	}
}

func TestRetrieveSemanticWithoutEmbeddingIsReportedFailed(t *testing.T) {
	uc := NewRetrieveUseCase(&expenseStoreFake{}, &graphStoreFake{})

	set, err := uc.Retrieve(context.Background(), nil, domain.SearchPlan{Semantic: true})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(set.Strategies) != 1 || !set.Strategies[0].Failed {
		t.Fatalf("expected semantic strategy reported failed, got %+v", set.Strategies)
	}
}

func TestRetrieveCancellationAbortsWithoutPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &expenseStoreFake{semanticErr: context.Canceled}
	uc := NewRetrieveUseCase(store, &graphStoreFake{})

	_, err := uc.Retrieve(ctx, []float32{0.1}, domain.SearchPlan{Semantic: true})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetrieveAppliesCandidateLimitDefault(t *testing.T) {
	store := &expenseStoreFake{}
	uc := NewRetrieveUseCase(store, &graphStoreFake{})

	_, err := uc.Retrieve(context.Background(), []float32{0.1}, domain.SearchPlan{Semantic: true})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if store.lastLimit != defaultCandidateLimit {
		t.Fatalf("expected default candidate limit %d, got %d", defaultCandidateLimit, store.lastLimit)
	}
}
