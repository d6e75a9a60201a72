package service

import (
	"context"
	"errors"
	"growdoctor/internal/apperr"
	"growdoctor/internal/cache"
	"growdoctor/internal/diagnosis"
	"growdoctor/internal/i18n"
	"growdoctor/internal/metrics"
	"growdoctor/internal/model"
	"log/slog"
	"strings"
	"time"
)

type requestIDKey struct{}

// WithRequestID attaches the request id used in logs and progress events
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id set by WithRequestID, or ""
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// DiagnoseService runs the photo diagnosis flow: age gate, cache, model call, normalization
type DiagnoseService struct {
	vision      VisionClient
	pipeline    *diagnosis.Pipeline
	cache       cache.DiagnosisCache
	catalog     *i18n.Catalog
	metrics     *metrics.Metrics
	broadcaster Broadcaster
	timeout     time.Duration
	logger      *slog.Logger
}

// NewDiagnoseService creates a new diagnose service; m may be nil
func NewDiagnoseService(
	vision VisionClient,
	pipeline *diagnosis.Pipeline,
	c cache.DiagnosisCache,
	catalog *i18n.Catalog,
	m *metrics.Metrics,
	timeout time.Duration,
	logger *slog.Logger,
) *DiagnoseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiagnoseService{
		vision:   vision,
		pipeline: pipeline,
		cache:    c,
		catalog:  catalog,
		metrics:  m,
		timeout:  timeout,
		logger:   logger,
	}
}

// SetBroadcaster sets the progress event sink
func (s *DiagnoseService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Language resolves a raw lang/language/locale value to a supported code
func (s *DiagnoseService) Language(raw string) string {
	return s.catalog.NormalizeLang(raw)
}

// Legal returns the legal block for a raw language value
func (s *DiagnoseService) Legal(rawLang string) model.LegalResponse {
	lang := s.Language(rawLang)
	return model.LegalResponse{
		Status:   "ok",
		Language: lang,
		Legal:    s.catalog.Legal(lang),
	}
}

func (s *DiagnoseService) publish(clientID, msgType string, ev ProgressEvent) {
	if s.broadcaster == nil || clientID == "" {
		return
	}
	s.broadcaster.SendToClient(clientID, msgType, ev)
}

// Diagnose answers one photo submission. Repeated submissions of the same photo
// in the same language are served from the cache unless req.Force is set.
func (s *DiagnoseService) Diagnose(ctx context.Context, req model.DiagnoseRequest) (*model.DiagnoseResponse, error) {
	lang := s.Language(req.Language)
	reqID := RequestID(ctx)
	log := s.logger.With("request_id", reqID, "lang", lang)

	if !req.AgeConfirmed {
		s.metrics.Diagnosis(string(apperr.KindAgeNotConfirmed))
		return nil, apperr.New(apperr.KindAgeNotConfirmed, s.catalog.Text(lang, i18n.KeyAgeNotConfirmed))
	}
	if len(req.Image) == 0 {
		s.metrics.Diagnosis(string(apperr.KindEmptyImage))
		return nil, apperr.New(apperr.KindEmptyImage, "the uploaded image is empty")
	}

	hash := cache.ImageHash(req.Image)
	key := hash + ":" + lang
	position := orUnknown(req.PhotoPosition)
	shot := orUnknown(req.ShotType)
	event := ProgressEvent{RequestID: reqID, ImageHash: hash, Language: lang}
	log = log.With("image_hash", hash)

	s.publish(req.ClientID, EventDiagnosisStarted, event)

	resp := &model.DiagnoseResponse{
		Status:             "ok",
		ImageHash:          hash,
		Language:           lang,
		Legal:              s.catalog.Legal(lang),
		DebugPhotoPosition: position,
		DebugShotType:      shot,
	}

	if !req.Force {
		cached, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			// a broken cache degrades to a fresh analysis
			s.metrics.CacheLookup("error")
			log.Warn("diagnose.cache_get_failed", "err", err)
		case cached != nil:
			s.metrics.CacheLookup("hit")
			s.metrics.Diagnosis("cached")
			log.Info("diagnose.cache_hit")
			resp.AlreadyAnalyzed = true
			resp.Result = *cached
			event.Severity = string(cached.SeverityIndicator)
			s.publish(req.ClientID, EventDiagnosisCached, event)
			return resp, nil
		default:
			s.metrics.CacheLookup("miss")
		}
	} else {
		s.metrics.CacheLookup("bypass")
		log.Info("diagnose.cache_bypass")
	}

	text, err := s.analyze(ctx, VisionRequest{
		RequestID:     reqID,
		Image:         req.Image,
		MimeType:      req.ContentType,
		Language:      lang,
		PhotoPosition: position,
		ShotType:      shot,
	}, log)
	if err != nil {
		kind := apperr.KindOf(err)
		s.metrics.Diagnosis(string(kind))
		event.Error = string(kind)
		s.publish(req.ClientID, EventDiagnosisFailed, event)
		return nil, err
	}

	d, rep := s.pipeline.Process(text, lang)
	s.metrics.Normalization(rep, d)

	if ctx.Err() != nil {
		// the client is gone; a result computed for nobody is not stored
		log.Info("diagnose.canceled", "stage", "normalize")
		s.metrics.Diagnosis(string(apperr.KindCanceled))
		return nil, apperr.Wrap(apperr.KindCanceled, "request canceled", ctx.Err())
	}

	if err := s.cache.Put(ctx, key, d); err != nil {
		log.Warn("diagnose.cache_put_failed", "err", err)
	}

	log.Info("diagnose.completed",
		"severity", d.SeverityIndicator,
		"category", d.Category,
		"confidence", d.Confidence,
		"fertilizing_allowed", d.FertilizingAllowed,
		"forced", req.Force)
	s.metrics.Diagnosis("fresh")

	resp.Result = d
	event.Severity = string(d.SeverityIndicator)
	s.publish(req.ClientID, EventDiagnosisCompleted, event)
	return resp, nil
}

// analyze calls the model under the configured timeout and classifies failures
func (s *DiagnoseService) analyze(ctx context.Context, req VisionRequest, log *slog.Logger) (string, error) {
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	provider := ProviderName(s.vision)
	log.Info("vision.request", "provider", provider, "bytes", len(req.Image), "mime", req.MimeType)

	start := time.Now()
	text, err := s.vision.Analyze(callCtx, req)
	elapsed := time.Since(start)

	if err == nil {
		s.metrics.Upstream(provider, "ok", elapsed)
		if strings.TrimSpace(text) == "" {
			log.Warn("vision.empty_response", "provider", provider)
		}
		return text, nil
	}

	switch {
	case ctx.Err() != nil:
		err = apperr.Wrap(apperr.KindCanceled, "request canceled", err)
	case apperr.IsUpstream(err):
	case errors.Is(err, context.DeadlineExceeded):
		err = apperr.Wrap(apperr.KindUpstreamTimeout, provider+" did not answer in time", err)
	default:
		err = apperr.Wrap(apperr.KindUpstreamUnavailable, provider+" request failed", err)
	}
	kind := apperr.KindOf(err)
	s.metrics.Upstream(provider, string(kind), elapsed)
	log.Error("vision.failed", "provider", provider, "kind", kind, "duration", elapsed, "err", err)
	return "", err
}
