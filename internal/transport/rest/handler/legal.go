package handler

import (
	"growdoctor/internal/service"
	"net/http"
	"strings"
)

// LegalHandler serves the localized disclaimer and privacy texts
type LegalHandler struct {
	svc *service.DiagnoseService
}

func NewLegalHandler(svc *service.DiagnoseService) *LegalHandler {
	return &LegalHandler{svc: svc}
}

// Legal handles GET /legal
func (h *LegalHandler) Legal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lang := q.Get("lang")
	if lang == "" {
		lang = q.Get("language")
	}
	if lang == "" {
		lang = q.Get("locale")
	}
	if lang == "" {
		// first tag of "en-US,en;q=0.9"
		lang, _, _ = strings.Cut(r.Header.Get("Accept-Language"), ",")
		lang, _, _ = strings.Cut(lang, ";")
	}
	writeJSON(w, http.StatusOK, h.svc.Legal(lang))
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
