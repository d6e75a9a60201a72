package service

import (
	"context"
	"growdoctor/internal/config"
)

const stubResponse = `{
  "hauptproblem": "Leichter Stickstoffmangel",
  "kategorie": "nutrient_deficiency",
  "wahrscheinlichkeit": 72,
  "beschreibung": "Die unteren Blätter hellen gleichmäßig auf, die Blattadern bleiben zuletzt grün.",
  "betroffene_teile": ["untere Blätter"],
  "sichtbare_symptome": ["gleichmäßige Aufhellung", "beginnende Vergilbung"],
  "moegliche_ursachen": ["zu geringe Stickstoffgabe", "Substrat ausgelaugt"],
  "sofort_massnahmen": ["Düngeplan prüfen", "Entwicklung der neuen Triebe beobachten"],
  "vorbeugung": ["Nährstoffgaben an die Wachstumsphase anpassen"],
  "bildqualitaet_score": 80,
  "hinweis_bildqualitaet": "",
  "ist_unsicher": false,
  "unsicher_hinweis": "",
  "profi_empfohlen": false,
  "profi_grund": "",
  "duengen_erlaubt": true,
  "ampel": "gelb",
  "alternativen": [{"problem": "Natürliche Seneszenz", "kategorie": "healthy", "wahrscheinlichkeit": 40}]
}`

// StubVision returns a fixed response without calling any model, for local development
type StubVision struct {
	response string
}

// NewStubVision returns a stub answering with response, or a canned diagnosis when empty
func NewStubVision(response string) *StubVision {
	if response == "" {
		response = stubResponse
	}
	return &StubVision{response: response}
}

func (v *StubVision) Name() string { return config.ProviderStub }

func (v *StubVision) Analyze(ctx context.Context, req VisionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return v.response, nil
}
