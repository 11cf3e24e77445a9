package neo4j

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
)

// PatternStore answers the predefined relationship-traversal patterns over the
// (:Deputy)-[:PAID]->(:Supplier) graph and mirrors ingested expenses into it.
type PatternStore struct {
	client   neo4j.DriverWithContext
	database string
}

func NewPatternStore(uri, username, password, database string) (*PatternStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if database == "" {
		database = "neo4j"
	}
	return &PatternStore{client: driver, database: database}, nil
}

func (s *PatternStore) VerifyConnectivity(ctx context.Context) error {
	return s.client.VerifyConnectivity(ctx)
}

func (s *PatternStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// EnsureIndexes creates the lookup indexes the traversal patterns rely on.
func (s *PatternStore) EnsureIndexes(ctx context.Context) error {
	session := s.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	indexes := []string{
		"CREATE INDEX deputy_name IF NOT EXISTS FOR (d:Deputy) ON (d.name)",
		"CREATE INDEX supplier_cnpj IF NOT EXISTS FOR (s:Supplier) ON (s.cnpj)",
		"CREATE INDEX paid_amount IF NOT EXISTS FOR ()-[r:PAID]-() ON (r.amount)",
	}
	for _, stmt := range indexes {
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("create graph index: %w", err)
		}
	}
	return nil
}

// SearchPatterns runs one of the closed pattern set. Aggregate patterns
// (supplier_deputies, deputy_suppliers) return per-pair rollups with TxCount
// and TotalPaid set; high_value returns individual transactions.
func (s *PatternStore) SearchPatterns(ctx context.Context, query domain.GraphQuery, limit int) ([]domain.Expense, error) {
	stmt, params, err := buildPatternQuery(query, limit)
	if err != nil {
		return nil, err
	}

	session := s.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, stmt, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrStoreUnavailable, fmt.Sprintf("graph pattern %s", query.Pattern), err)
	}

	records := result.([]*db.Record)
	out := make([]domain.Expense, 0, len(records))
	for _, record := range records {
		out = append(out, expenseFromRecord(record))
	}
	return out, nil
}

func buildPatternQuery(query domain.GraphQuery, limit int) (string, map[string]any, error) {
	switch query.Pattern {
	case domain.PatternSupplierDeputies:
		stmt := `
MATCH (d:Deputy)-[r:PAID]->(s:Supplier {cnpj: $cnpj})
RETURN d.name AS deputy_name, d.party AS deputy_party,
       s.name AS supplier_name, s.cnpj AS supplier_cnpj,
       count(r) AS tx_count, sum(r.amount) AS total_paid
ORDER BY total_paid DESC
LIMIT $limit
`
		return stmt, map[string]any{
			"cnpj":  strings.TrimSpace(query.SupplierCNPJ),
			"limit": limit,
		}, nil

	case domain.PatternDeputySuppliers:
		stmt := `
MATCH (d:Deputy)-[r:PAID]->(s:Supplier)
WHERE toLower(d.name) CONTAINS toLower($deputy)
RETURN d.name AS deputy_name, d.party AS deputy_party,
       s.name AS supplier_name, s.cnpj AS supplier_cnpj,
       count(r) AS tx_count, sum(r.amount) AS total_paid
ORDER BY total_paid DESC
LIMIT $limit
`
		return stmt, map[string]any{
			"deputy": strings.TrimSpace(query.DeputyName),
			"limit":  limit,
		}, nil

	case domain.PatternHighValue:
		stmt := `
MATCH (d:Deputy)-[r:PAID]->(s:Supplier)
WHERE r.amount >= $min
RETURN d.name AS deputy_name, d.party AS deputy_party,
       s.name AS supplier_name, s.cnpj AS supplier_cnpj,
       r.description AS description, r.amount AS amount, r.date AS date
ORDER BY r.amount DESC
LIMIT $limit
`
		return stmt, map[string]any{
			"min":   query.MinAmount,
			"limit": limit,
		}, nil

	default:
		return "", nil, domain.WrapErrorf(domain.ErrInvalidInput, "unknown graph pattern %q", string(query.Pattern))
	}
}

func expenseFromRecord(record *db.Record) domain.Expense {
	var e domain.Expense
	e.DeputyName = stringValue(record, "deputy_name")
	e.DeputyParty = stringValue(record, "deputy_party")
	e.SupplierName = stringValue(record, "supplier_name")
	e.SupplierCNPJ = stringValue(record, "supplier_cnpj")
	e.Description = stringValue(record, "description")
	e.Amount = floatValue(record, "amount")
	e.TxCount = intValue(record, "tx_count")
	e.TotalPaid = floatValue(record, "total_paid")
	if raw, found := record.Get("date"); found {
		switch v := raw.(type) {
		case string:
			if t, err := time.Parse("2006-01-02", v); err == nil {
				e.Date = t
			}
		case time.Time:
			e.Date = v
		}
	}
	return e
}

func stringValue(record *db.Record, key string) string {
	if raw, found := record.Get(key); found {
		if s, ok := raw.(string); ok {
			return s
		}
	}
	return ""
}

func floatValue(record *db.Record, key string) float64 {
	raw, found := record.Get(key)
	if !found {
		return 0
	}
	switch v := raw.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func intValue(record *db.Record, key string) int64 {
	if raw, found := record.Get(key); found {
		if v, ok := raw.(int64); ok {
			return v
		}
	}
	return 0
}

// UpsertExpenses mirrors cleaned rows into the graph. Nodes merge on their
// identity key so repeated ingestion stays idempotent at the node level;
// every row adds one PAID relationship.
func (s *PatternStore) UpsertExpenses(ctx context.Context, rows []domain.Expense) error {
	if len(rows) == 0 {
		return nil
	}

	session := s.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		batch := make([]map[string]any, 0, len(rows))
		for _, e := range rows {
			var date any
			if !e.Date.IsZero() {
				date = e.Date.Format("2006-01-02")
			}
			batch = append(batch, map[string]any{
				"deputy_name":   e.DeputyName,
				"deputy_party":  e.DeputyParty,
				"supplier_name": e.SupplierName,
				"supplier_cnpj": e.SupplierCNPJ,
				"description":   e.Description,
				"amount":        e.Amount,
				"date":          date,
			})
		}

		stmt := `
UNWIND $rows AS row
MERGE (d:Deputy {name: row.deputy_name})
SET d.party = row.deputy_party
MERGE (s:Supplier {cnpj: row.supplier_cnpj})
SET s.name = row.supplier_name
CREATE (d)-[:PAID {description: row.description, amount: row.amount, date: row.date}]->(s)
`
		_, err := tx.Run(ctx, stmt, map[string]any{"rows": batch})
		return nil, err
	})
	if err != nil {
		return domain.WrapError(domain.ErrStoreUnavailable, "graph upsert", err)
	}
	return nil
}
