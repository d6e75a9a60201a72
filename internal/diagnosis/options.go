package diagnosis

// Texts resolves localized phrases; *i18n.Catalog satisfies it
type Texts interface {
	Text(lang, key string) string
}

// Phrase keys looked up through Texts
const (
	PhraseFallbackMainProblem       = "fallback_main_problem"
	PhraseFallbackUncertaintyReason = "fallback_uncertainty_reason"
	PhraseExpertReasonSevere        = "expert_reason_severe"
	PhraseFertilizerAdvisory        = "fertilizer_advisory"
	phraseFertilizerReasonPrefix    = "fertilizer_reason_"
)

// Thresholds are the numeric knobs of normalization and the safety rules
type Thresholds struct {
	DefaultConfidence         int
	DefaultImageQuality       int
	AlternativeMinConfidence  int
	LowImageQuality           int
	FertilizerMinImageQuality int
	FertilizerMinConfidence   int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		DefaultConfidence:         50,
		DefaultImageQuality:       50,
		AlternativeMinConfidence:  45,
		LowImageQuality:           60,
		FertilizerMinImageQuality: 70,
		FertilizerMinConfidence:   80,
	}
}

// DefaultUselessValues are main_problem values that carry no diagnosis
var DefaultUselessValues = []string{
	"unbekannt",
	"unknown",
	"n/a",
	"na",
	"none",
	"null",
	"keine angabe",
	"keine",
	"nicht erkennbar",
	"not specified",
	"-",
	"--",
	"?",
}
