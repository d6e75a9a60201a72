package diagnosis

import (
	"encoding/json"
	"growdoctor/internal/model"
	"testing"

	"github.com/stretchr/testify/require"
)

// keyTexts echoes the phrase key so tests can see which phrase was chosen
type keyTexts struct{}

func (keyTexts) Text(lang, key string) string { return lang + ":" + key }

// roundTrip turns a normalized diagnosis back into a raw object, the way a client would see it
func roundTrip(t *testing.T, d model.Diagnosis) map[string]any {
	t.Helper()
	b, err := json.Marshal(d)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	return raw
}

// assertInvariants checks the properties every normalized diagnosis must hold
func assertInvariants(t *testing.T, d model.Diagnosis, th Thresholds) {
	t.Helper()
	require.NotEmpty(t, d.MainProblem)
	require.GreaterOrEqual(t, d.Confidence, 1)
	require.LessOrEqual(t, d.Confidence, 100)
	require.GreaterOrEqual(t, d.ImageQualityScore, 0)
	require.LessOrEqual(t, d.ImageQualityScore, 100)
	require.True(t, d.SeverityIndicator.Valid(), "severity %q", d.SeverityIndicator)
	require.Contains(t, model.Categories, d.Category)
	require.Equal(t, d.FertilizingAllowed, d.Fertilizer.Allowed)
	if d.SeverityIndicator == model.SeverityRed {
		require.True(t, d.ExpertRecommended)
		require.NotEmpty(t, d.ExpertReason)
	}
	if !d.FertilizingAllowed {
		require.NotEmpty(t, d.Fertilizer.Reason)
		require.NotEmpty(t, d.Fertilizer.Advisory)
	}
	if d.IsUncertain {
		require.NotEmpty(t, d.UncertaintyReason)
	}
	for _, a := range d.Alternatives {
		require.GreaterOrEqual(t, a.Confidence, th.AlternativeMinConfidence)
		require.NotEmpty(t, a.Problem)
	}
	require.NotNil(t, d.AffectedParts)
	require.NotNil(t, d.VisibleSymptoms)
	require.NotNil(t, d.PossibleCauses)
	require.NotNil(t, d.ImmediateActions)
	require.NotNil(t, d.Prevention)
	require.NotNil(t, d.Alternatives)
}
