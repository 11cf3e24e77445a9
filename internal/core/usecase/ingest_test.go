package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
)

type sourceFake struct {
	deputies []domain.Deputy
	expenses map[int][]domain.Expense
	fetchErr map[int]error
}

func (f *sourceFake) FetchDeputies(_ context.Context, limit int) ([]domain.Deputy, error) {
	if limit < len(f.deputies) {
		return f.deputies[:limit], nil
	}
	return f.deputies, nil
}

func (f *sourceFake) FetchExpenses(_ context.Context, deputy domain.Deputy, _ int) ([]domain.Expense, error) {
	if err := f.fetchErr[deputy.ID]; err != nil {
		return nil, err
	}
	return f.expenses[deputy.ID], nil
}

type writerStoreFake struct {
	expenseStoreFake
	inserted   []domain.Expense
	embeddings [][]float32
}

func (f *writerStoreFake) InsertExpenses(_ context.Context, rows []domain.Expense, embeddings [][]float32) error {
	f.inserted = append(f.inserted, rows...)
	f.embeddings = append(f.embeddings, embeddings...)
	return nil
}

type writerGraphFake struct {
	graphStoreFake
	upserted []domain.Expense
}

func (f *writerGraphFake) UpsertExpenses(_ context.Context, rows []domain.Expense) error {
	f.upserted = append(f.upserted, rows...)
	return nil
}

func TestIngestYearCleansAndStoresRows(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	source := &sourceFake{
		deputies: []domain.Deputy{{ID: 1, Name: "Deputy A", Party: "XY"}},
		expenses: map[int][]domain.Expense{
			1: {
				{DeputyName: "Deputy A", SupplierName: "ACME", SupplierCNPJ: "12.345.678/0001-90", Description: "locação de veículos", Amount: 1500.50, Date: date},
				{DeputyName: "Deputy A", SupplierName: "No CNPJ", SupplierCNPJ: "", Amount: 10},
				{DeputyName: "Deputy A", SupplierName: "Zero", SupplierCNPJ: "111", Amount: 0},
			},
		},
	}
	store := &writerStoreFake{}
	graph := &writerGraphFake{}
	uc := NewIngestUseCase(source, store, graph, &embedderFake{}, 0)

	report, err := uc.IngestYear(context.Background(), 2025)
	if err != nil {
		t.Fatalf("IngestYear() error = %v", err)
	}
	if report.Expenses != 1 || report.Skipped != 2 {
		t.Fatalf("report = %+v, want 1 stored and 2 skipped", report)
	}
	if len(store.inserted) != 1 || len(graph.upserted) != 1 {
		t.Fatalf("expected row stored in both stores, got pg=%d graph=%d", len(store.inserted), len(graph.upserted))
	}
	if store.inserted[0].SupplierCNPJ != "12345678000190" {
		t.Fatalf("expected sanitized CNPJ, got %q", store.inserted[0].SupplierCNPJ)
	}
	if len(store.embeddings) != 1 {
		t.Fatalf("expected one embedding per stored row, got %d", len(store.embeddings))
	}
}

func TestIngestYearSkipsDeputyOnFetchFailure(t *testing.T) {
	source := &sourceFake{
		deputies: []domain.Deputy{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}},
		expenses: map[int][]domain.Expense{
			2: {{DeputyName: "B", SupplierName: "ACME", SupplierCNPJ: "999", Amount: 50}},
		},
		fetchErr: map[int]error{1: errors.New("api timeout")},
	}
	store := &writerStoreFake{}
	uc := NewIngestUseCase(source, store, &writerGraphFake{}, &embedderFake{}, 0)

	report, err := uc.IngestYear(context.Background(), 2025)
	if err != nil {
		t.Fatalf("IngestYear() error = %v", err)
	}
	if report.Expenses != 1 {
		t.Fatalf("expected the healthy deputy's expense stored, got %d", report.Expenses)
	}
}

func TestSanitizeCNPJ(t *testing.T) {
	cases := map[string]string{
		"12.345.678/0001-90": "12345678000190",
		"  12345678000190 ":  "12345678000190",
		"":                   "",
		"n/a":                "",
	}
	for in, want := range cases {
		if got := sanitizeCNPJ(in); got != want {
			t.Fatalf("sanitizeCNPJ(%q) = %q, want %q", in, got, want)
		}
	}
}
