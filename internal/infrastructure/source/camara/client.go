package camara

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
)

const (
	defaultBaseURL = "https://dadosabertos.camara.leg.br/api/v2"

	maxAttempts = 3
)

// Client reads deputies and their expenses from the Chamber of Deputies open
// data API. Requests are rate limited to stay under the API's throttling.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retryDelay time.Duration
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRequestsPerSecond overrides the default of 2 requests per second.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

func New(options ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
		retryDelay: 2 * time.Second,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

type deputyPayload struct {
	ID           int    `json:"id"`
	Nome         string `json:"nome"`
	SiglaPartido string `json:"siglaPartido"`
}

type expensePayload struct {
	TipoDespesa       string  `json:"tipoDespesa"`
	ValorLiquido      float64 `json:"valorLiquido"`
	NomeFornecedor    string  `json:"nomeFornecedor"`
	CNPJCPFFornecedor string  `json:"cnpjCpfFornecedor"`
	DataDocumento     string  `json:"dataDocumento"`
}

func (c *Client) FetchDeputies(ctx context.Context, limit int) ([]domain.Deputy, error) {
	params := url.Values{}
	params.Set("itens", strconv.Itoa(limit))
	params.Set("ordem", "ASC")
	params.Set("ordenarPor", "nome")

	var payload struct {
		Dados []deputyPayload `json:"dados"`
	}
	if err := c.getJSON(ctx, "/deputados", params, &payload); err != nil {
		return nil, fmt.Errorf("fetch deputies: %w", err)
	}

	deputies := make([]domain.Deputy, 0, len(payload.Dados))
	for _, d := range payload.Dados {
		deputies = append(deputies, domain.Deputy{
			ID:    d.ID,
			Name:  d.Nome,
			Party: d.SiglaPartido,
		})
	}
	return deputies, nil
}

func (c *Client) FetchExpenses(ctx context.Context, deputy domain.Deputy, year int) ([]domain.Expense, error) {
	params := url.Values{}
	params.Set("ano", strconv.Itoa(year))
	params.Set("ordem", "ASC")
	params.Set("ordenarPor", "ano")

	var payload struct {
		Dados []expensePayload `json:"dados"`
	}
	path := fmt.Sprintf("/deputados/%d/despesas", deputy.ID)
	if err := c.getJSON(ctx, path, params, &payload); err != nil {
		return nil, fmt.Errorf("fetch expenses for deputy %d: %w", deputy.ID, err)
	}

	expenses := make([]domain.Expense, 0, len(payload.Dados))
	for _, e := range payload.Dados {
		expenses = append(expenses, domain.Expense{
			DeputyName:   deputy.Name,
			DeputyParty:  deputy.Party,
			SupplierName: e.NomeFornecedor,
			SupplierCNPJ: e.CNPJCPFFornecedor,
			Description:  e.TipoDespesa,
			Amount:       e.ValorLiquido,
			Date:         parseDocumentDate(e.DataDocumento),
		})
	}
	return expenses, nil
}

// parseDocumentDate accepts both plain dates and the timestamped variant the
// API sometimes returns. Unparseable values come back as the zero time.
func parseDocumentDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = c.doOnce(ctx, endpoint, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if attempt < maxAttempts {
			timer := time.NewTimer(c.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return lastErr
			case <-timer.C:
			}
		}
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("camara request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("camara status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode camara response: %w", err)
	}
	return nil
}
