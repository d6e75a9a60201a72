package handler

import (
	"errors"
	"growdoctor/internal/apperr"
	"growdoctor/internal/model"
	"growdoctor/internal/service"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
)

// form fields beyond the image are tiny; this bounds their share of the body
const formOverhead = 1 << 20

// DiagnoseHandler handles photo submissions
type DiagnoseHandler struct {
	svc          *service.DiagnoseService
	maxBytes     int64
	allowedTypes map[string]bool
	logger       *slog.Logger
}

// NewDiagnoseHandler creates a new diagnose handler. An empty allowedTypes
// accepts any image/* type.
func NewDiagnoseHandler(svc *service.DiagnoseService, maxBytes int64, allowedTypes []string, logger *slog.Logger) *DiagnoseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	types := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		types[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return &DiagnoseHandler{svc: svc, maxBytes: maxBytes, allowedTypes: types, logger: logger}
}

// Diagnose handles POST /diagnose
func (h *DiagnoseHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	req, err := h.parse(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp, err := h.svc.Diagnose(r.Context(), *req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *DiagnoseHandler) parse(w http.ResponseWriter, r *http.Request) (*model.DiagnoseRequest, error) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+formOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, formError(err)
	}
	defer r.MultipartForm.RemoveAll()

	age, err := formBool(r, "age_confirmed")
	if err != nil {
		return nil, err
	}
	force, err := formBool(r, "force")
	if err != nil {
		return nil, err
	}

	req := &model.DiagnoseRequest{
		Language:      firstValue(r, "lang", "language", "locale"),
		AgeConfirmed:  age,
		PhotoPosition: strings.TrimSpace(r.FormValue("photo_position")),
		ShotType:      strings.TrimSpace(r.FormValue("shot_type")),
		ClientID:      strings.TrimSpace(r.FormValue("client_id")),
		Force:         force,
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, apperr.New(apperr.KindMissingImage, "the image field is required")
		}
		return nil, formError(err)
	}
	defer file.Close()

	if h.maxBytes > 0 && header.Size > h.maxBytes {
		return nil, tooLarge()
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, formError(err)
	}
	if h.maxBytes > 0 && int64(len(data)) > h.maxBytes {
		return nil, tooLarge()
	}

	contentType := mediaType(header.Header.Get("Content-Type"), data)
	if len(data) > 0 && !h.allowed(contentType) {
		return nil, apperr.New(apperr.KindUnsupportedMediaType, "unsupported image type "+contentType)
	}
	req.Image = data
	req.ContentType = contentType
	return req, nil
}

func (h *DiagnoseHandler) allowed(contentType string) bool {
	if len(h.allowedTypes) == 0 {
		return strings.HasPrefix(contentType, "image/")
	}
	return h.allowedTypes[contentType]
}

// mediaType trusts a declared image/* type and sniffs anything else
func mediaType(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		mt = strings.ToLower(mt)
		if strings.HasPrefix(mt, "image/") {
			return mt
		}
	}
	if len(data) == 0 {
		return "image/jpeg"
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

func formError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return tooLarge()
	}
	return apperr.Wrap(apperr.KindInvalidForm, "expected a multipart/form-data body", err)
}

func tooLarge() error {
	return apperr.New(apperr.KindFileTooLarge, "the uploaded image is too large")
}

func firstValue(r *http.Request, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r.FormValue(k)); v != "" {
			return v
		}
	}
	return ""
}

// formBool accepts the usual HTML form spellings; a missing field is false
func formBool(r *http.Request, key string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(r.FormValue(key))) {
	case "", "false", "0", "no", "n", "off":
		return false, nil
	case "true", "1", "yes", "y", "on":
		return true, nil
	}
	return false, apperr.New(apperr.KindInvalidForm, key+" must be a boolean")
}
