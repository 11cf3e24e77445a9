package ports

import (
	"context"
	"io"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
)

// ExpenseStore is the relational store: lexical and vector-similarity
// queries over the expense corpus, plus batch writes used by ingestion.
type ExpenseStore interface {
	// SearchLexical performs a case-insensitive partial match on the field
	// selected by the query, most recent expenses first. An empty term
	// yields an empty result, not an error.
	SearchLexical(ctx context.Context, query domain.LexicalQuery, limit int) ([]domain.Expense, error)
	// SearchSemantic returns rows ordered by ascending cosine distance from
	// the precomputed query embedding. Rows without an embedding are
	// excluded. The matcher never computes embeddings itself.
	SearchSemantic(ctx context.Context, embedding []float32, limit int) ([]domain.Expense, error)
	// InsertExpenses stores cleaned rows with their description embeddings.
	InsertExpenses(ctx context.Context, rows []domain.Expense, embeddings [][]float32) error
}

// GraphStore runs the predefined relationship-traversal patterns against the
// labeled graph and mirrors ingested expenses into it.
type GraphStore interface {
	SearchPatterns(ctx context.Context, query domain.GraphQuery, limit int) ([]domain.Expense, error)
	UpsertExpenses(ctx context.Context, rows []domain.Expense) error
}

// Embedder builds vectors for expense descriptions and audit questions.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// AnswerGenerator turns an ordered evidence set into the auditor narrative.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, evidence []domain.Expense) (string, error)
}

// MessageQueue publishes/consumes ingestion jobs.
type MessageQueue interface {
	PublishIngestRequested(ctx context.Context, year int) error
	SubscribeIngestRequested(ctx context.Context, handler func(context.Context, int) error) error
}

// ExpenseSource is the open-data API the ingestion pipeline reads from.
type ExpenseSource interface {
	FetchDeputies(ctx context.Context, limit int) ([]domain.Deputy, error)
	FetchExpenses(ctx context.Context, deputy domain.Deputy, year int) ([]domain.Expense, error)
}

// EvidenceExporter writes an assembled evidence set as a downloadable
// artifact.
type EvidenceExporter interface {
	Export(w io.Writer, question string, items []domain.Expense) error
}
