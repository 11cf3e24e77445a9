package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/tavs-coelho/aprendizadodemaquina/internal/core/domain"
	"github.com/tavs-coelho/aprendizadodemaquina/internal/infrastructure/resilience"
)

// statusForError maps the error taxonomy onto HTTP statuses: caller misuse is
// a 400, infrastructure trouble a 503, everything else a 500.
func statusForError(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNoEvidence):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrStoreUnavailable),
		domain.IsKind(err, domain.ErrTemporary),
		resilience.IsCircuitOpen(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
}
