package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/BorisDmv/blog-api/internal/apperrors"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondFailure maps err to its status. Only messages the error kind marks
// as public reach the client; internal causes go to the log.
func respondFailure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindInternal {
		logger.Error(fallback, "path", r.URL.Path, "error", err)
	} else {
		logger.Debug("request failed", "path", r.URL.Path, "kind", kind.String(), "error", err)
	}
	respondError(w, apperrors.HTTPStatus(kind), apperrors.PublicMessage(err, fallback))
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, "invalid body", err)
	}
	return nil
}

func Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
