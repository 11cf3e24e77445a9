package domain

import "strings"

// LexicalField selects which entity column a lexical probe matches against.
type LexicalField string

const (
	LexicalDeputyName   LexicalField = "deputy_name"
	LexicalSupplierCNPJ LexicalField = "supplier_cnpj"
)

// LexicalQuery is one partial-match probe against the relational store.
type LexicalQuery struct {
	Field LexicalField `json:"field"`
	Term  string       `json:"term"`
}

// GraphPattern enumerates the closed set of relationship-traversal queries.
type GraphPattern string

const (
	// PatternSupplierDeputies: which deputies paid this supplier (fan-out
	// from a supplier CNPJ, aggregated per deputy).
	PatternSupplierDeputies GraphPattern = "supplier_deputies"
	// PatternDeputySuppliers: which suppliers did this deputy pay (fan-out
	// from a deputy name substring, aggregated per supplier).
	PatternDeputySuppliers GraphPattern = "deputy_suppliers"
	// PatternHighValue: individual transactions at or above a minimum amount.
	PatternHighValue GraphPattern = "high_value"
)

// GraphQuery configures the graph-pattern matcher. Exactly one parameter is
// meaningful per pattern.
type GraphQuery struct {
	Pattern      GraphPattern `json:"pattern"`
	SupplierCNPJ string       `json:"supplier_cnpj,omitempty"`
	DeputyName   string       `json:"deputy_name,omitempty"`
	MinAmount    float64      `json:"min_amount,omitempty"`
}

// SearchPlan declares which retrieval strategies a request activates and with
// what parameters. The strategy set is closed: explicit optional fields,
// never a dynamic map.
type SearchPlan struct {
	Lexical  []LexicalQuery `json:"lexical,omitempty"`
	Semantic bool           `json:"semantic,omitempty"`
	Graph    *GraphQuery    `json:"graph,omitempty"`

	// CandidateLimit caps each matcher's ranked list.
	CandidateLimit int `json:"candidate_limit,omitempty"`
	// EvidenceLimit caps the assembled evidence set.
	EvidenceLimit int `json:"evidence_limit,omitempty"`
	// RRFK is the rank-fusion constant; zero means the default of 60.
	RRFK int `json:"rrf_k,omitempty"`
}

// Active reports whether the plan activates at least one strategy.
func (p SearchPlan) Active() bool {
	return len(p.Lexical) > 0 || p.Semantic || p.Graph != nil
}

// Validate fails fast on caller misuse. An empty lexical term is not an
// error (that matcher just returns nothing); a malformed graph query is.
func (p SearchPlan) Validate() error {
	for _, q := range p.Lexical {
		switch q.Field {
		case LexicalDeputyName, LexicalSupplierCNPJ:
		default:
			return WrapErrorf(ErrInvalidInput, "unknown lexical field %q", string(q.Field))
		}
	}
	if p.Graph == nil {
		return nil
	}
	switch p.Graph.Pattern {
	case PatternSupplierDeputies:
		if strings.TrimSpace(p.Graph.SupplierCNPJ) == "" {
			return WrapErrorf(ErrInvalidInput, "pattern %s requires supplier_cnpj", p.Graph.Pattern)
		}
	case PatternDeputySuppliers:
		if strings.TrimSpace(p.Graph.DeputyName) == "" {
			return WrapErrorf(ErrInvalidInput, "pattern %s requires deputy_name", p.Graph.Pattern)
		}
	case PatternHighValue:
		if p.Graph.MinAmount <= 0 {
			return WrapErrorf(ErrInvalidInput, "pattern %s requires a positive min_amount", p.Graph.Pattern)
		}
	default:
		return WrapErrorf(ErrInvalidInput, "unknown graph pattern %q", string(p.Graph.Pattern))
	}
	return nil
}

// StrategyReport records the outcome of one activated matcher so callers can
// tell which strategies contributed to the fused result.
type StrategyReport struct {
	Strategy string `json:"strategy"`
	Hits     int    `json:"hits"`
	Failed   bool   `json:"failed,omitempty"`
	Error    string `json:"error,omitempty"`
}

// EvidenceSet is the retrieval engine's output: assembled records in fused
// order plus the per-strategy reports.
type EvidenceSet struct {
	Items      []Expense        `json:"items"`
	Strategies []StrategyReport `json:"strategies"`
}

// Empty reports whether no strategy produced evidence.
func (s EvidenceSet) Empty() bool {
	return len(s.Items) == 0
}

// Answer is the user-facing result of an audit question.
type Answer struct {
	Text       string           `json:"text"`
	Evidence   []Expense        `json:"evidence"`
	Strategies []StrategyReport `json:"strategies"`
}
