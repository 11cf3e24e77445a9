package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// ExpenseID is the fusion key: the single canonical identifier shared by all
// retrieval strategies. Every matcher reduces its rows to Expense values and
// derives the id from the same fingerprint, so ranked lists from different
// stores always refer to the same identifier space.
type ExpenseID string

// Expense is one parliamentary expense record. Aggregate rows produced by the
// graph fan-out patterns reuse the same shape with TxCount/TotalPaid set and
// Amount/Date zeroed, which keeps their fingerprints disjoint from
// transaction-level ids.
type Expense struct {
	DeputyName   string    `json:"deputy_name"`
	DeputyParty  string    `json:"deputy_party,omitempty"`
	SupplierName string    `json:"supplier_name"`
	SupplierCNPJ string    `json:"supplier_cnpj"`
	Description  string    `json:"description,omitempty"`
	Amount       float64   `json:"amount"`
	Date         time.Time `json:"date,omitzero"`

	// Distance is populated by the semantic matcher for observability.
	Distance float64 `json:"distance,omitempty"`

	// TxCount and TotalPaid are populated by the aggregating graph patterns.
	TxCount   int64   `json:"tx_count,omitempty"`
	TotalPaid float64 `json:"total_paid,omitempty"`
}

// ID returns the deterministic fingerprint of the record: sha256 over the
// identifying fields, truncated to 16 hex characters.
func (e Expense) ID() ExpenseID {
	date := ""
	if !e.Date.IsZero() {
		date = e.Date.UTC().Format("2006-01-02")
	}
	amount := ""
	if e.Amount != 0 {
		amount = fmt.Sprintf("%.2f", e.Amount)
	}
	raw := strings.Join([]string{e.DeputyName, e.SupplierCNPJ, amount, date}, "|")
	sum := sha256.Sum256([]byte(raw))
	return ExpenseID(hex.EncodeToString(sum[:])[:16])
}

// IsAggregate reports whether the record is a fan-out aggregate rather than a
// single transaction.
func (e Expense) IsAggregate() bool {
	return e.TxCount > 0
}

// RankedResult is the uniform output shape of one matcher: identifiers in
// rank order plus the full rows it already fetched, keyed by id.
type RankedResult struct {
	IDs     []ExpenseID
	Details map[ExpenseID]Expense
}

// NewRankedResult builds a RankedResult from rows already in rank order,
// deduplicating repeated identifiers in first-seen order.
func NewRankedResult(rows []Expense) RankedResult {
	res := RankedResult{
		IDs:     make([]ExpenseID, 0, len(rows)),
		Details: make(map[ExpenseID]Expense, len(rows)),
	}
	for _, row := range rows {
		id := row.ID()
		if _, seen := res.Details[id]; seen {
			continue
		}
		res.IDs = append(res.IDs, id)
		res.Details[id] = row
	}
	return res
}
