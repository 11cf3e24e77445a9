package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/ports"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/observability/metrics"
)

const serviceName = "auditor-api"

type Router struct {
	auditor  ports.ExpenseAuditor
	queue    ports.MessageQueue
	exporter ports.EvidenceExporter
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	auditor ports.ExpenseAuditor,
	queue ports.MessageQueue,
	exporter ports.EvidenceExporter,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		auditor:  auditor,
		queue:    queue,
		exporter: exporter,
		metrics:  serverMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/audit", rt.audit)
	mux.HandleFunc("/v1/audit/export", rt.exportEvidence)
	mux.HandleFunc("/v1/ingest", rt.requestIngest)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type auditRequest struct {
	Question string            `json:"question"`
	Plan     domain.SearchPlan `json:"plan"`
}

func (rt *Router) audit(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAuditRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	answer, err := rt.auditor.Audit(r.Context(), req.Question, req.Plan)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordAudit(serviceName, *answer, time.Since(start))
	}
	writeJSON(w, http.StatusOK, answer)
}

// exportEvidence runs retrieval only and streams the assembled evidence as a
// spreadsheet attachment.
func (rt *Router) exportEvidence(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAuditRequest(w, r)
	if !ok {
		return
	}

	evidence, err := rt.auditor.Retrieve(r.Context(), req.Question, req.Plan)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="evidencias.xlsx"`)
	if err := rt.exporter.Export(w, req.Question, evidence.Items); err != nil {
		// Headers are already out; the truncated body is the best we can do.
		writeError(w, fmt.Errorf("export evidence: %w", err))
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordExportDownload(serviceName)
	}
}

func (rt *Router) requestIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Year int `json:"year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Year < 2008 || req.Year > time.Now().Year() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "year out of range"})
		return
	}

	err := rt.queue.PublishIngestRequested(r.Context(), req.Year)
	if rt.metrics != nil {
		rt.metrics.RecordIngestPublish(serviceName, err)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"year": req.Year, "status": "queued"})
}

func decodeAuditRequest(w http.ResponseWriter, r *http.Request) (auditRequest, bool) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return auditRequest{}, false
	}

	var req auditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return auditRequest{}, false
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return auditRequest{}, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
