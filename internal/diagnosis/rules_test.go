package diagnosis

import (
	"growdoctor/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestEngine() *Engine {
	return NewEngine(keyTexts{}, DefaultThresholds(), nil)
}

// healthyDeficiency is a clean, confident nutrient deficiency nothing should veto
func healthyDeficiency() model.Diagnosis {
	return model.Diagnosis{
		MainProblem:        "Stickstoffmangel",
		Category:           model.CategoryNutrientDeficiency,
		Confidence:         90,
		VisibleSymptoms:    []string{"Untere Blätter vergilben"},
		PossibleCauses:     []string{"Zu wenig Stickstoff im Substrat"},
		ImageQualityScore:  85,
		FertilizingAllowed: true,
		Fertilizer:         model.FertilizerAdvice{Allowed: true},
		SeverityIndicator:  model.SeverityGreen,
		Alternatives:       []model.Alternative{},
	}
}

func TestEngineTables(t *testing.T) {
	e := newTestEngine()
	assert.Equal(t, []string{
		RuleSevereKeyword, RuleModerateKeyword, RuleLowImageQuality, RuleUncertain, RuleModelStated, RuleDefault,
	}, e.SeverityRules())
	assert.Equal(t, []string{
		VetoBlockingCategory, VetoBlockingKeyword, VetoUncertain, VetoSevere,
		VetoLowImageQuality, VetoLowConfidence, VetoNotNutrient, VetoModelDeclined,
	}, e.FertilizerVetoes())
}

func TestEngineCleanDeficiency(t *testing.T) {
	d, out := newTestEngine().Apply(healthyDeficiency(), "de")

	assert.Equal(t, model.SeverityGreen, d.SeverityIndicator)
	assert.Equal(t, RuleModelStated, out.SeverityRule)
	assert.True(t, d.FertilizingAllowed)
	assert.True(t, d.Fertilizer.Allowed)
	assert.Empty(t, out.FertilizerVeto)
	assert.False(t, d.ExpertRecommended)
}

func TestEngineSeverity(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*model.Diagnosis)
		expected model.Severity
		rule     string
	}{
		{
			name:     "severe keyword overrides model green",
			mutate:   func(d *model.Diagnosis) { d.VisibleSymptoms = append(d.VisibleSymptoms, "Grauer Schimmel an den Buds") },
			expected: model.SeverityRed,
			rule:     RuleSevereKeyword,
		},
		{
			name:     "moderate keyword",
			mutate:   func(d *model.Diagnosis) { d.PossibleCauses = []string{"pH zu niedrig"} },
			expected: model.SeverityYellow,
			rule:     RuleModerateKeyword,
		},
		{
			name:     "moderate keyword glued to a reading",
			mutate:   func(d *model.Diagnosis) { d.PossibleCauses = []string{"Gemessen pH5.8 im Ablauf"} },
			expected: model.SeverityYellow,
			rule:     RuleModerateKeyword,
		},
		{
			name:     "low image quality",
			mutate:   func(d *model.Diagnosis) { d.ImageQualityScore = 59 },
			expected: model.SeverityYellow,
			rule:     RuleLowImageQuality,
		},
		{
			name:     "uncertain",
			mutate:   func(d *model.Diagnosis) { d.IsUncertain = true },
			expected: model.SeverityYellow,
			rule:     RuleUncertain,
		},
		{
			name:     "model red kept",
			mutate:   func(d *model.Diagnosis) { d.SeverityIndicator = model.SeverityRed },
			expected: model.SeverityRed,
			rule:     RuleModelStated,
		},
		{
			name:     "missing model value",
			mutate:   func(d *model.Diagnosis) { d.SeverityIndicator = "" },
			expected: model.SeverityYellow,
			rule:     RuleDefault,
		},
		{
			name:     "invalid model value",
			mutate:   func(d *model.Diagnosis) { d.SeverityIndicator = "purple" },
			expected: model.SeverityYellow,
			rule:     RuleDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := healthyDeficiency()
			tt.mutate(&in)
			d, out := newTestEngine().Apply(in, "de")
			assert.Equal(t, tt.expected, d.SeverityIndicator)
			assert.Equal(t, tt.rule, out.SeverityRule)
		})
	}
}

func TestEngineRedForcesExpert(t *testing.T) {
	in := healthyDeficiency()
	in.MainProblem = "Botrytis (Knospenfäule)"

	d, out := newTestEngine().Apply(in, "en")

	assert.Equal(t, model.SeverityRed, d.SeverityIndicator)
	assert.True(t, d.ExpertRecommended)
	assert.Equal(t, "en:"+PhraseExpertReasonSevere, d.ExpertReason)
	assert.True(t, out.ExpertForced)
	assert.False(t, d.FertilizingAllowed)
	assert.Equal(t, VetoSevere, out.FertilizerVeto)
}

func TestEngineKeepsModelExpertReason(t *testing.T) {
	in := healthyDeficiency()
	in.SeverityIndicator = model.SeverityRed
	in.ExpertRecommended = true
	in.ExpertReason = "Bitte Growshop fragen"

	d, out := newTestEngine().Apply(in, "de")
	assert.Equal(t, "Bitte Growshop fragen", d.ExpertReason)
	assert.False(t, out.ExpertForced)
}

func TestEngineFertilizerVetoes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Diagnosis)
		veto   string
	}{
		{"blocking category", func(d *model.Diagnosis) { d.Category = model.CategoryLockout }, VetoBlockingCategory},
		{"blocking keyword", func(d *model.Diagnosis) { d.PossibleCauses = []string{"Staunässe im Wurzelbereich"} }, VetoBlockingKeyword},
		{"blocking keyword glued to a reading", func(d *model.Diagnosis) { d.PossibleCauses = []string{"EC2.4 im Substrat"} }, VetoBlockingKeyword},
		{"uncertain", func(d *model.Diagnosis) { d.IsUncertain = true }, VetoUncertain},
		{"severe", func(d *model.Diagnosis) { d.SeverityIndicator = model.SeverityRed }, VetoSevere},
		{"low image quality", func(d *model.Diagnosis) { d.ImageQualityScore = 69 }, VetoLowImageQuality},
		{"low confidence", func(d *model.Diagnosis) { d.Confidence = 79 }, VetoLowConfidence},
		{"not a nutrient issue", func(d *model.Diagnosis) { d.Category = model.CategoryPest }, VetoNotNutrient},
		{"model declined", func(d *model.Diagnosis) { d.FertilizingAllowed = false; d.Fertilizer.Allowed = false }, VetoModelDeclined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := healthyDeficiency()
			tt.mutate(&in)
			d, out := newTestEngine().Apply(in, "de")

			assert.Equal(t, tt.veto, out.FertilizerVeto)
			assert.False(t, d.FertilizingAllowed)
			assert.False(t, d.Fertilizer.Allowed)
			assert.Equal(t, "de:fertilizer_reason_"+tt.veto, d.Fertilizer.Reason)
			assert.Equal(t, "de:"+PhraseFertilizerAdvisory, d.Fertilizer.Advisory)
		})
	}
}

func TestEngineVetoReplacesPermissiveModelText(t *testing.T) {
	in := healthyDeficiency()
	in.Category = model.CategoryLockout
	in.Fertilizer.Reason = "Mangel, also düngen"
	in.Fertilizer.Advisory = "Volle Dosis"

	d, _ := newTestEngine().Apply(in, "de")
	assert.Equal(t, "de:fertilizer_reason_"+VetoBlockingCategory, d.Fertilizer.Reason)
	assert.Equal(t, "de:"+PhraseFertilizerAdvisory, d.Fertilizer.Advisory)
}

func TestEngineKeepsModelTextWhenModelDeclined(t *testing.T) {
	in := healthyDeficiency()
	in.FertilizingAllowed = false
	in.Fertilizer = model.FertilizerAdvice{Reason: "Erst pH prüfen", Advisory: "Nur Wasser geben"}

	d, _ := newTestEngine().Apply(in, "de")
	assert.Equal(t, "Erst pH prüfen", d.Fertilizer.Reason)
	assert.Equal(t, "Nur Wasser geben", d.Fertilizer.Advisory)
}

func TestEngineFiltersAlternatives(t *testing.T) {
	in := healthyDeficiency()
	in.Alternatives = []model.Alternative{
		{Problem: "Magnesiummangel", Category: model.CategoryNutrientDeficiency, Confidence: 45},
		{Problem: "Lichtbrand", Category: model.CategoryEnvironmentalStress, Confidence: 44},
		{Problem: "Überdüngung", Category: model.CategoryNutrientExcess, Confidence: 10},
	}

	d, out := newTestEngine().Apply(in, "de")
	assert.Equal(t, []model.Alternative{in.Alternatives[0]}, d.Alternatives)
	assert.Equal(t, 2, out.DroppedAlternatives)
}

func TestEngineCustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.FertilizerMinConfidence = 95
	e := NewEngine(keyTexts{}, th, nil)

	_, out := e.Apply(healthyDeficiency(), "de")
	assert.Equal(t, VetoLowConfidence, out.FertilizerVeto)
}

func TestEngineIsIdempotent(t *testing.T) {
	e := newTestEngine()
	in := healthyDeficiency()
	in.Category = model.CategoryOverwatering
	in.MainProblem = "Wurzelfäule"

	once, _ := e.Apply(in, "de")
	twice, _ := e.Apply(once, "de")
	assert.Equal(t, once, twice)
}
