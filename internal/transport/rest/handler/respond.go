package handler

import (
	"encoding/json"
	"errors"
	"growdoctor/internal/apperr"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	message := "internal error"
	var appErr *apperr.Error
	if kind != apperr.KindInternal && errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		logger.Error("http.failed", "path", r.URL.Path, "kind", kind, "err", err)
	}

	writeJSON(w, status, ErrorResponse{
		Status:  "error",
		Error:   string(kind),
		Message: message,
	})
}
