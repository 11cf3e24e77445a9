package camara

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := New(
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
		WithRequestsPerSecond(1000),
	)
	client.retryDelay = time.Millisecond
	return client
}

func TestFetchDeputiesMapsPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/deputados" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("itens"); got != "50" {
			t.Fatalf("expected itens=50, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"dados":[
			{"id":204554,"nome":"João Silva","siglaPartido":"PT"},
			{"id":178912,"nome":"Maria Souza","siglaPartido":"MD"}
		]}`))
	})

	deputies, err := client.FetchDeputies(context.Background(), 50)
	if err != nil {
		t.Fatalf("FetchDeputies() error = %v", err)
	}
	if len(deputies) != 2 {
		t.Fatalf("expected 2 deputies, got %d", len(deputies))
	}
	if deputies[0].ID != 204554 || deputies[0].Name != "João Silva" || deputies[0].Party != "PT" {
		t.Fatalf("unexpected deputy mapping: %+v", deputies[0])
	}
}

func TestFetchExpensesMapsPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/deputados/204554/despesas" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("ano"); got != "2025" {
			t.Fatalf("expected ano=2025, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"dados":[{
			"tipoDespesa":"LOCAÇÃO OU FRETAMENTO DE VEÍCULOS AUTOMOTORES",
			"valorLiquido":65000.00,
			"nomeFornecedor":"LUX CARS LTDA",
			"cnpjCpfFornecedor":"12345678000190",
			"dataDocumento":"2025-03-10"
		}]}`))
	})

	deputy := domain.Deputy{ID: 204554, Name: "João Silva", Party: "PT"}
	expenses, err := client.FetchExpenses(context.Background(), deputy, 2025)
	if err != nil {
		t.Fatalf("FetchExpenses() error = %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(expenses))
	}
	e := expenses[0]
	if e.DeputyName != "João Silva" || e.DeputyParty != "PT" {
		t.Fatalf("expected deputy fields carried onto the expense, got %+v", e)
	}
	if e.Amount != 65000 || e.SupplierCNPJ != "12345678000190" {
		t.Fatalf("unexpected expense mapping: %+v", e)
	}
	if !e.Date.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v", e.Date)
	}
}

func TestFetchDeputiesRetriesServerErrors(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"dados":[{"id":1,"nome":"A","siglaPartido":"B"}]}`))
	})

	deputies, err := client.FetchDeputies(context.Background(), 10)
	if err != nil {
		t.Fatalf("FetchDeputies() error = %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if len(deputies) != 1 {
		t.Fatalf("expected 1 deputy after retries, got %d", len(deputies))
	}
}

func TestParseDocumentDate(t *testing.T) {
	cases := map[string]time.Time{
		"2025-03-10":          time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		"2025-03-10T00:00:00": time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		"":                    {},
		"10/03/2025":          {},
	}
	for in, want := range cases {
		if got := parseDocumentDate(in); !got.Equal(want) {
			t.Fatalf("parseDocumentDate(%q) = %v, want %v", in, got, want)
		}
	}
}
