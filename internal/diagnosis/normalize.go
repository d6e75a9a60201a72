package diagnosis

import (
	"growdoctor/internal/model"
	"strings"
)

// Accepted raw keys per field. The German name the prompt asks for comes first,
// the canonical output name second, so normalized output re-normalizes to itself.
var (
	keysMainProblem       = []string{"hauptproblem", "main_problem", "problem"}
	keysCategory          = []string{"kategorie", "category"}
	keysConfidence        = []string{"wahrscheinlichkeit", "confidence", "probability"}
	keysDescription       = []string{"beschreibung", "description"}
	keysAffectedParts     = []string{"betroffene_teile", "affected_parts"}
	keysVisibleSymptoms   = []string{"sichtbare_symptome", "visible_symptoms", "symptoms"}
	keysPossibleCauses    = []string{"moegliche_ursachen", "possible_causes", "causes"}
	keysImmediateActions  = []string{"sofort_massnahmen", "immediate_actions"}
	keysPrevention        = []string{"vorbeugung", "prevention"}
	keysImageQuality      = []string{"bildqualitaet_score", "image_quality_score"}
	keysImageQualityNote  = []string{"hinweis_bildqualitaet", "image_quality_note"}
	keysIsUncertain       = []string{"ist_unsicher", "is_uncertain"}
	keysUncertaintyReason = []string{"unsicher_hinweis", "uncertainty_reason"}
	keysExpert            = []string{"profi_empfohlen", "expert_recommended"}
	keysExpertReason      = []string{"profi_grund", "expert_reason"}
	keysFertAllowed       = []string{"duengen_erlaubt", "fertilizing_allowed"}
	keysFertilizer        = []string{"duengung", "fertilizer"}
	keysSeverity          = []string{"ampel", "severity_indicator", "severity"}
	keysAlternatives      = []string{"alternativen", "alternatives"}

	keysFertObjAllowed        = []string{"erlaubt", "allowed"}
	keysFertObjReason         = []string{"grund", "reason"}
	keysFertObjAdvisory       = []string{"hinweis", "advisory"}
	keysFertObjRecommendation = []string{"empfehlung", "recommendation"}
)

// Normalizer coerces a raw model object into a Diagnosis. Normalize is total.
type Normalizer struct {
	texts      Texts
	thresholds Thresholds
	useless    map[string]struct{}
}

// NewNormalizer builds a normalizer; a nil useless list selects DefaultUselessValues
func NewNormalizer(texts Texts, th Thresholds, useless []string) *Normalizer {
	if useless == nil {
		useless = DefaultUselessValues
	}
	set := make(map[string]struct{}, len(useless))
	for _, u := range useless {
		set[uselessKey(u)] = struct{}{}
	}
	return &Normalizer{texts: texts, thresholds: th, useless: set}
}

func uselessKey(s string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(s)), ".!")
}

func (n *Normalizer) isUseless(s string) bool {
	k := uselessKey(s)
	if k == "" {
		return true
	}
	_, ok := n.useless[k]
	return ok
}

func (n *Normalizer) text(lang, key string) string {
	if n.texts == nil {
		return key
	}
	return n.texts.Text(lang, key)
}

func str(raw map[string]any, keys []string) string {
	v, _ := lookup(raw, keys...)
	return toString(v)
}

func list(raw map[string]any, keys []string) []string {
	v, _ := lookup(raw, keys...)
	return toStringList(v)
}

// Normalize maps raw onto the canonical contract. Severity is left as the model
// stated it (or empty); the rule engine derives the final value.
func (n *Normalizer) Normalize(raw map[string]any, lang string) model.Diagnosis {
	if raw == nil {
		raw = map[string]any{}
	}
	d := model.Diagnosis{
		Category:         normalizeCategory(str(raw, keysCategory)),
		Description:      str(raw, keysDescription),
		AffectedParts:    list(raw, keysAffectedParts),
		VisibleSymptoms:  list(raw, keysVisibleSymptoms),
		PossibleCauses:   list(raw, keysPossibleCauses),
		ImmediateActions: list(raw, keysImmediateActions),
		Prevention:       list(raw, keysPrevention),
		ImageQualityNote: str(raw, keysImageQualityNote),
		ExpertReason:     str(raw, keysExpertReason),
	}

	fellBack := false
	d.MainProblem = str(raw, keysMainProblem)
	if n.isUseless(d.MainProblem) {
		d.MainProblem = n.text(lang, PhraseFallbackMainProblem)
		fellBack = true
	}

	d.Confidence = n.thresholds.DefaultConfidence
	if v, ok := lookup(raw, keysConfidence...); ok {
		if c, ok := boundedInt(v, 0, 100); ok {
			d.Confidence = c
		}
	}
	// main_problem is never empty here, so a zero confidence would contradict it
	if d.Confidence < 1 {
		d.Confidence = 1
	}

	d.ImageQualityScore = n.thresholds.DefaultImageQuality
	if v, ok := lookup(raw, keysImageQuality...); ok {
		if q, ok := boundedInt(v, 0, 100); ok {
			d.ImageQualityScore = q
		}
	}

	uncertain, _ := lookup(raw, keysIsUncertain...)
	d.IsUncertain = toBool(uncertain, false)
	d.UncertaintyReason = str(raw, keysUncertaintyReason)
	if fellBack {
		d.IsUncertain = true
	}
	if d.IsUncertain && d.UncertaintyReason == "" {
		d.UncertaintyReason = n.text(lang, PhraseFallbackUncertaintyReason)
	}

	expert, _ := lookup(raw, keysExpert...)
	d.ExpertRecommended = toBool(expert, false)

	d.Fertilizer = n.fertilizer(raw)
	d.FertilizingAllowed = d.Fertilizer.Allowed

	d.SeverityIndicator = parseSeverity(str(raw, keysSeverity))
	d.Alternatives = n.alternatives(raw)
	return d
}

// fertilizer resolves the sub-object; the top-level flag wins over the object's own flag
func (n *Normalizer) fertilizer(raw map[string]any) model.FertilizerAdvice {
	fv, _ := lookup(raw, keysFertilizer...)
	obj := toObject(fv)
	if obj == nil {
		obj = map[string]any{}
	}

	allowed := true
	if v, ok := lookup(raw, keysFertAllowed...); ok {
		allowed = toBool(v, true)
	} else if v, ok := lookup(obj, keysFertObjAllowed...); ok {
		allowed = toBool(v, true)
	}

	return model.FertilizerAdvice{
		Allowed:        allowed,
		Reason:         str(obj, keysFertObjReason),
		Advisory:       str(obj, keysFertObjAdvisory),
		Recommendation: str(obj, keysFertObjRecommendation),
	}
}

func (n *Normalizer) alternatives(raw map[string]any) []model.Alternative {
	out := []model.Alternative{}
	v, _ := lookup(raw, keysAlternatives...)
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		obj := toObject(item)
		if obj == nil {
			continue
		}
		problem := str(obj, keysMainProblem)
		if n.isUseless(problem) {
			continue
		}
		alt := model.Alternative{
			Problem:  problem,
			Category: normalizeCategory(str(obj, keysCategory)),
		}
		if cv, ok := lookup(obj, keysConfidence...); ok {
			if c, ok := boundedInt(cv, 0, 100); ok {
				alt.Confidence = c
			}
		}
		out = append(out, alt)
	}
	return out
}
