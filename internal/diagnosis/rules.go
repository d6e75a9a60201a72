package diagnosis

import (
	"growdoctor/internal/model"
	"strings"
)

// Rule names, reported in Outcome and used as metric labels
const (
	RuleSevereKeyword   = "severe_keyword"
	RuleModerateKeyword = "moderate_keyword"
	RuleLowImageQuality = "low_image_quality"
	RuleUncertain       = "uncertain"
	RuleModelStated     = "model_stated"
	RuleDefault         = "default"

	VetoBlockingCategory = "blocking_category"
	VetoBlockingKeyword  = "blocking_keyword"
	VetoUncertain        = "uncertain"
	VetoSevere           = "severe"
	VetoLowImageQuality  = "low_image_quality"
	VetoLowConfidence    = "low_confidence"
	VetoNotNutrient      = "not_nutrient_issue"
	VetoModelDeclined    = "model_declined"
)

// Categories for which fertilizing never helps
var blockingCategories = map[string]struct{}{
	model.CategoryLockout:             {},
	model.CategoryPHImbalance:         {},
	model.CategoryOverwatering:        {},
	model.CategoryUnderwatering:       {},
	model.CategoryRootZone:            {},
	model.CategoryEnvironmentalStress: {},
}

var nutrientCategories = map[string]struct{}{
	model.CategoryNutrientDeficiency: {},
	model.CategoryNutrientExcess:     {},
}

// facts is what the decision tables look at
type facts struct {
	category      string
	confidence    int
	imageQuality  int
	uncertain     bool
	modelSeverity model.Severity
	modelAllows   bool
	severity      model.Severity

	severeTerm   string
	moderateTerm string
	blockTerm    string
}

type severityRule struct {
	name   string
	when   func(facts) bool
	result func(facts) model.Severity
}

type fertilizerVeto struct {
	name string
	when func(facts) bool
}

// Outcome records which rows of the decision tables fired
type Outcome struct {
	SeverityRule        string
	FertilizerVeto      string
	ExpertForced        bool
	DroppedAlternatives int
	MatchedKeywords     []string
}

// Engine applies the safety decision tables to a normalized diagnosis
type Engine struct {
	texts      Texts
	thresholds Thresholds
	keywords   *Keywords
	severity   []severityRule
	vetoes     []fertilizerVeto
}

func fixed(s model.Severity) func(facts) model.Severity {
	return func(facts) model.Severity { return s }
}

// NewEngine builds the decision tables; a nil kw selects the embedded keyword tables
func NewEngine(texts Texts, th Thresholds, kw *Keywords) *Engine {
	if kw == nil {
		kw = DefaultKeywords()
	}
	e := &Engine{texts: texts, thresholds: th, keywords: kw}

	// first match wins
	e.severity = []severityRule{
		{RuleSevereKeyword, func(f facts) bool { return f.severeTerm != "" }, fixed(model.SeverityRed)},
		{RuleModerateKeyword, func(f facts) bool { return f.moderateTerm != "" }, fixed(model.SeverityYellow)},
		{RuleLowImageQuality, func(f facts) bool { return f.imageQuality < th.LowImageQuality }, fixed(model.SeverityYellow)},
		{RuleUncertain, func(f facts) bool { return f.uncertain }, fixed(model.SeverityYellow)},
		{RuleModelStated, func(f facts) bool { return f.modelSeverity.Valid() }, func(f facts) model.Severity { return f.modelSeverity }},
		{RuleDefault, func(facts) bool { return true }, fixed(model.SeverityYellow)},
	}

	// first applicable veto supplies the reason
	e.vetoes = []fertilizerVeto{
		{VetoBlockingCategory, func(f facts) bool { _, ok := blockingCategories[f.category]; return ok }},
		{VetoBlockingKeyword, func(f facts) bool { return f.blockTerm != "" }},
		{VetoUncertain, func(f facts) bool { return f.uncertain }},
		{VetoSevere, func(f facts) bool { return f.severity == model.SeverityRed }},
		{VetoLowImageQuality, func(f facts) bool { return f.imageQuality < th.FertilizerMinImageQuality }},
		{VetoLowConfidence, func(f facts) bool { return f.confidence < th.FertilizerMinConfidence }},
		{VetoNotNutrient, func(f facts) bool { _, ok := nutrientCategories[f.category]; return !ok }},
		{VetoModelDeclined, func(f facts) bool { return !f.modelAllows }},
	}
	return e
}

// SeverityRules lists the severity table in evaluation order
func (e *Engine) SeverityRules() []string {
	names := make([]string, len(e.severity))
	for i, r := range e.severity {
		names[i] = r.name
	}
	return names
}

// FertilizerVetoes lists the veto table in evaluation order
func (e *Engine) FertilizerVetoes() []string {
	names := make([]string, len(e.vetoes))
	for i, v := range e.vetoes {
		names[i] = v.name
	}
	return names
}

func (e *Engine) text(lang, key string) string {
	if e.texts == nil {
		return key
	}
	return e.texts.Text(lang, key)
}

// scanText is the free text the keyword tables are matched against
func scanText(d model.Diagnosis) string {
	parts := make([]string, 0, 3+len(d.VisibleSymptoms)+len(d.PossibleCauses))
	parts = append(parts, d.MainProblem, d.Category)
	parts = append(parts, d.VisibleSymptoms...)
	parts = append(parts, d.PossibleCauses...)
	parts = append(parts, d.Fertilizer.Recommendation)
	return strings.Join(parts, " \n ")
}

func (e *Engine) facts(d model.Diagnosis) facts {
	text := scanText(d)
	f := facts{
		category:      d.Category,
		confidence:    d.Confidence,
		imageQuality:  d.ImageQualityScore,
		uncertain:     d.IsUncertain,
		modelSeverity: d.SeverityIndicator,
		modelAllows:   d.FertilizingAllowed,
	}
	f.severeTerm, _ = e.keywords.Severe.Match(text)
	f.moderateTerm, _ = e.keywords.Moderate.Match(text)
	f.blockTerm, _ = e.keywords.FertilizerBlock.Match(text)
	return f
}

// Apply derives severity, expert escalation, fertilizer permission and the
// filtered alternatives. Running it on its own output changes nothing.
func (e *Engine) Apply(d model.Diagnosis, lang string) (model.Diagnosis, Outcome) {
	var out Outcome
	f := e.facts(d)
	for _, t := range []string{f.severeTerm, f.moderateTerm, f.blockTerm} {
		if t != "" {
			out.MatchedKeywords = append(out.MatchedKeywords, t)
		}
	}

	for _, r := range e.severity {
		if r.when(f) {
			d.SeverityIndicator = r.result(f)
			out.SeverityRule = r.name
			break
		}
	}
	f.severity = d.SeverityIndicator

	if d.SeverityIndicator == model.SeverityRed {
		out.ExpertForced = !d.ExpertRecommended
		d.ExpertRecommended = true
		if d.ExpertReason == "" {
			d.ExpertReason = e.text(lang, PhraseExpertReasonSevere)
		}
	}

	d = e.applyFertilizer(d, f, lang, &out)

	kept := make([]model.Alternative, 0, len(d.Alternatives))
	for _, a := range d.Alternatives {
		if a.Confidence < e.thresholds.AlternativeMinConfidence {
			out.DroppedAlternatives++
			continue
		}
		kept = append(kept, a)
	}
	d.Alternatives = kept
	return d, out
}

func (e *Engine) applyFertilizer(d model.Diagnosis, f facts, lang string, out *Outcome) model.Diagnosis {
	veto := ""
	for _, v := range e.vetoes {
		if v.when(f) {
			veto = v.name
			break
		}
	}
	out.FertilizerVeto = veto

	if veto == "" {
		d.FertilizingAllowed = true
		d.Fertilizer.Allowed = true
		return d
	}

	// the model's own reason only explains a "no" it gave itself
	if f.modelAllows {
		d.Fertilizer.Reason = ""
		d.Fertilizer.Advisory = ""
	}
	d.FertilizingAllowed = false
	d.Fertilizer.Allowed = false
	if d.Fertilizer.Reason == "" {
		d.Fertilizer.Reason = e.text(lang, phraseFertilizerReasonPrefix+veto)
	}
	if d.Fertilizer.Advisory == "" {
		d.Fertilizer.Advisory = e.text(lang, PhraseFertilizerAdvisory)
	}
	return d
}
