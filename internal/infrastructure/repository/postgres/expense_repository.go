package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
)

// EmbeddingDimension matches the text-embedding-3-small model.
const EmbeddingDimension = 1536

// ExpenseRepository serves the lexical and semantic matchers from the
// pgvector-enabled expense table and takes ingestion writes.
type ExpenseRepository struct {
	db *sql.DB
}

func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ExpenseRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	query := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS expenses (
	id BIGSERIAL PRIMARY KEY,
	deputy_name TEXT NOT NULL,
	deputy_party TEXT,
	supplier_name TEXT NOT NULL,
	supplier_cnpj TEXT NOT NULL,
	description TEXT,
	amount NUMERIC NOT NULL,
	expense_date DATE,
	description_embedding vector(%d)
);

CREATE INDEX IF NOT EXISTS idx_expenses_deputy_name ON expenses(LOWER(deputy_name));
CREATE INDEX IF NOT EXISTS idx_expenses_supplier_cnpj ON expenses(supplier_cnpj);
CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(expense_date DESC);

CREATE INDEX IF NOT EXISTS idx_expenses_embedding
ON expenses USING hnsw (description_embedding vector_cosine_ops);
`, EmbeddingDimension)
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const expenseColumns = `deputy_name, deputy_party, supplier_name, supplier_cnpj, description, amount, expense_date`

// SearchLexical matches the selected entity field case-insensitively,
// most recent expenses first. An empty term is an absent filter, not an
// error.
func (r *ExpenseRepository) SearchLexical(ctx context.Context, query domain.LexicalQuery, limit int) ([]domain.Expense, error) {
	term := strings.TrimSpace(query.Term)
	if term == "" {
		return nil, nil
	}

	var column string
	switch query.Field {
	case domain.LexicalDeputyName:
		column = "deputy_name"
	case domain.LexicalSupplierCNPJ:
		column = "supplier_cnpj"
	default:
		return nil, domain.WrapErrorf(domain.ErrInvalidInput, "unknown lexical field %q", string(query.Field))
	}

	stmt := fmt.Sprintf(`
SELECT %s
FROM expenses
WHERE %s ILIKE $1
ORDER BY expense_date DESC NULLS LAST, id DESC
LIMIT $2
`, expenseColumns, column)

	rows, err := r.db.QueryContext(ctx, stmt, "%"+term+"%", limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStoreUnavailable, "lexical search", err)
	}
	defer rows.Close()

	return scanExpenses(rows, false)
}

// SearchSemantic orders rows by cosine distance from the precomputed query
// embedding; rows without an embedding are excluded rather than treated as
// infinitely distant.
func (r *ExpenseRepository) SearchSemantic(ctx context.Context, embedding []float32, limit int) ([]domain.Expense, error) {
	stmt := fmt.Sprintf(`
SELECT %s, description_embedding <=> $1 AS distance
FROM expenses
WHERE description_embedding IS NOT NULL
ORDER BY description_embedding <=> $1
LIMIT $2
`, expenseColumns)

	rows, err := r.db.QueryContext(ctx, stmt, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStoreUnavailable, "semantic search", err)
	}
	defer rows.Close()

	return scanExpenses(rows, true)
}

func (r *ExpenseRepository) InsertExpenses(ctx context.Context, expenses []domain.Expense, embeddings [][]float32) error {
	if len(expenses) != len(embeddings) {
		return fmt.Errorf("insert expenses: %d rows but %d embeddings", len(expenses), len(embeddings))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt := fmt.Sprintf(`
INSERT INTO expenses (%s, description_embedding)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, expenseColumns)

	for i, e := range expenses {
		var date any
		if !e.Date.IsZero() {
			date = e.Date
		}
		var vector any
		if len(embeddings[i]) > 0 {
			vector = pgvector.NewVector(embeddings[i])
		}
		if _, err := tx.ExecContext(ctx, stmt,
			e.DeputyName, e.DeputyParty, e.SupplierName, e.SupplierCNPJ,
			e.Description, e.Amount, date, vector,
		); err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert tx: %w", err)
	}
	return nil
}

func scanExpenses(rows *sql.Rows, withDistance bool) ([]domain.Expense, error) {
	var out []domain.Expense
	for rows.Next() {
		var (
			e     domain.Expense
			party sql.NullString
			desc  sql.NullString
			date  sql.NullTime
		)
		dest := []any{&e.DeputyName, &party, &e.SupplierName, &e.SupplierCNPJ, &desc, &e.Amount, &date}
		if withDistance {
			dest = append(dest, &e.Distance)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.DeputyParty = party.String
		e.Description = desc.String
		if date.Valid {
			e.Date = date.Time
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}
