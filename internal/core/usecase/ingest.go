package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/ports"
)

const embedBatchSize = 64

// IngestUseCase loads one year of expense data: fetch from the open-data
// API, clean, embed descriptions, write rows to the relational store and
// mirror them into the graph.
type IngestUseCase struct {
	source      ports.ExpenseSource
	expenses    ports.ExpenseStore
	graph       ports.GraphStore
	embedder    ports.Embedder
	deputyLimit int
}

func NewIngestUseCase(
	source ports.ExpenseSource,
	expenses ports.ExpenseStore,
	graph ports.GraphStore,
	embedder ports.Embedder,
	deputyLimit int,
) *IngestUseCase {
	if deputyLimit <= 0 {
		deputyLimit = 50
	}
	return &IngestUseCase{
		source:      source,
		expenses:    expenses,
		graph:       graph,
		embedder:    embedder,
		deputyLimit: deputyLimit,
	}
}

func (uc *IngestUseCase) IngestYear(ctx context.Context, year int) (domain.IngestReport, error) {
	report := domain.IngestReport{Year: year}

	deputies, err := uc.source.FetchDeputies(ctx, uc.deputyLimit)
	if err != nil {
		return report, fmt.Errorf("fetch deputies: %w", err)
	}
	report.Deputies = len(deputies)

	batch := make([]domain.Expense, 0, embedBatchSize)
	for _, deputy := range deputies {
		rows, err := uc.source.FetchExpenses(ctx, deputy, year)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			slog.Warn("fetch expenses failed, skipping deputy",
				"deputy", deputy.Name, "error", err)
			continue
		}
		for _, row := range rows {
			cleaned, ok := cleanExpense(row)
			if !ok {
				report.Skipped++
				continue
			}
			batch = append(batch, cleaned)
			if len(batch) == embedBatchSize {
				if err := uc.flush(ctx, batch); err != nil {
					return report, err
				}
				report.Expenses += len(batch)
				batch = batch[:0]
			}
		}
	}
	if len(batch) > 0 {
		if err := uc.flush(ctx, batch); err != nil {
			return report, err
		}
		report.Expenses += len(batch)
	}

	slog.Info("ingestion finished",
		"year", year,
		"deputies", report.Deputies,
		"expenses", report.Expenses,
		"skipped", report.Skipped,
	)
	return report, nil
}

func (uc *IngestUseCase) flush(ctx context.Context, batch []domain.Expense) error {
	texts := make([]string, len(batch))
	for i, row := range batch {
		texts[i] = row.Description
	}
	embeddings, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed descriptions: %w", err)
	}
	if err := uc.expenses.InsertExpenses(ctx, batch, embeddings); err != nil {
		return fmt.Errorf("insert expenses: %w", err)
	}
	if err := uc.graph.UpsertExpenses(ctx, batch); err != nil {
		return fmt.Errorf("upsert graph expenses: %w", err)
	}
	return nil
}

// cleanExpense normalizes a raw API row. CNPJ formatting characters are
// stripped; rows without a deputy, a supplier identifier or a positive
// amount cannot be fingerprinted consistently and are skipped.
func cleanExpense(row domain.Expense) (domain.Expense, bool) {
	row.DeputyName = strings.TrimSpace(row.DeputyName)
	row.SupplierName = strings.TrimSpace(row.SupplierName)
	row.SupplierCNPJ = sanitizeCNPJ(row.SupplierCNPJ)
	if row.DeputyName == "" || row.SupplierCNPJ == "" || row.Amount <= 0 {
		return domain.Expense{}, false
	}
	return row, true
}

// sanitizeCNPJ strips the usual 00.000.000/0000-00 formatting down to the
// bare digits used as the supplier identifier everywhere in the system.
func sanitizeCNPJ(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
