package diagnosis

import (
	"growdoctor/internal/model"
	"log/slog"
)

// Options configure a Pipeline; zero values select the defaults
type Options struct {
	Thresholds    *Thresholds
	Keywords      *Keywords
	UselessValues []string
}

// Report describes how a raw model text was turned into a Diagnosis
type Report struct {
	Extracted        bool
	Legacy           bool
	SchemaViolations []string
	Outcome          Outcome
}

// Pipeline chains extraction, legacy adaptation, normalization and the safety rules
type Pipeline struct {
	normalizer *Normalizer
	engine     *Engine
	schema     *SchemaChecker
	logger     *slog.Logger
}

func NewPipeline(texts Texts, opts Options, logger *slog.Logger) (*Pipeline, error) {
	th := DefaultThresholds()
	if opts.Thresholds != nil {
		th = *opts.Thresholds
	}
	schema, err := NewSchemaChecker()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		normalizer: NewNormalizer(texts, th, opts.UselessValues),
		engine:     NewEngine(texts, th, opts.Keywords),
		schema:     schema,
		logger:     logger,
	}, nil
}

// Engine exposes the rule engine, mainly for inspection of its tables
func (p *Pipeline) Engine() *Engine { return p.engine }

// Normalize runs legacy adaptation, field normalization and the safety rules on a raw object
func (p *Pipeline) Normalize(raw map[string]any, lang string) model.Diagnosis {
	d, _ := p.normalize(raw, lang)
	return d
}

func (p *Pipeline) normalize(raw map[string]any, lang string) (model.Diagnosis, Outcome) {
	flat := AdaptLegacy(raw)
	d := p.normalizer.Normalize(flat, lang)
	return p.engine.Apply(d, lang)
}

// Process turns raw assistant text into a safe diagnosis. It never fails;
// unusable text yields the fallback diagnosis.
func (p *Pipeline) Process(text, lang string) (model.Diagnosis, Report) {
	raw := Extract(text)
	rep := Report{Extracted: len(raw) > 0}

	if rep.Extracted {
		rep.Legacy = IsLegacy(raw)
		rep.SchemaViolations = p.schema.Check(raw)
	}

	var d model.Diagnosis
	d, rep.Outcome = p.normalize(raw, lang)

	switch {
	case !rep.Extracted:
		p.logger.Warn("diagnosis.extract_failed", "text_len", len(text))
	case len(rep.SchemaViolations) > 0:
		p.logger.Info("diagnosis.schema_drift",
			"violations", len(rep.SchemaViolations),
			"first", rep.SchemaViolations[0],
			"legacy", rep.Legacy)
	}
	p.logger.Debug("diagnosis.rules_applied",
		"severity_rule", rep.Outcome.SeverityRule,
		"fertilizer_veto", rep.Outcome.FertilizerVeto,
		"expert_forced", rep.Outcome.ExpertForced,
		"dropped_alternatives", rep.Outcome.DroppedAlternatives,
		"keywords", rep.Outcome.MatchedKeywords)
	return d, rep
}
