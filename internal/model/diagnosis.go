package model

// Severity is the traffic-light summary shown to the user
type Severity string

const (
	SeverityGreen  Severity = "green"
	SeverityYellow Severity = "yellow"
	SeverityRed    Severity = "red"
)

// Valid reports whether s is one of the three traffic-light values
func (s Severity) Valid() bool {
	switch s {
	case SeverityGreen, SeverityYellow, SeverityRed:
		return true
	}
	return false
}

// Category codes of the closed diagnosis vocabulary
const (
	CategoryNutrientDeficiency  = "nutrient_deficiency"
	CategoryNutrientExcess      = "nutrient_excess"
	CategoryLockout             = "lockout"
	CategoryPHImbalance         = "ph_imbalance"
	CategoryOverwatering        = "overwatering"
	CategoryUnderwatering       = "underwatering"
	CategoryRootZone            = "root_zone"
	CategoryEnvironmentalStress = "environmental_stress"
	CategoryPest                = "pest"
	CategoryFungal              = "fungal"
	CategoryBacterial           = "bacterial"
	CategoryViral               = "viral"
	CategoryHealthy             = "healthy"
	CategoryUnclear             = "unclear"
)

// Categories lists every category code, fallback last
var Categories = []string{
	CategoryNutrientDeficiency,
	CategoryNutrientExcess,
	CategoryLockout,
	CategoryPHImbalance,
	CategoryOverwatering,
	CategoryUnderwatering,
	CategoryRootZone,
	CategoryEnvironmentalStress,
	CategoryPest,
	CategoryFungal,
	CategoryBacterial,
	CategoryViral,
	CategoryHealthy,
	CategoryUnclear,
}

// FertilizerAdvice is the fertilizer recommendation sub-object
type FertilizerAdvice struct {
	Allowed        bool   `json:"allowed" bson:"allowed"`
	Reason         string `json:"reason" bson:"reason"`
	Advisory       string `json:"advisory" bson:"advisory"`
	Recommendation string `json:"recommendation" bson:"recommendation"`
}

// Alternative is a secondary diagnosis the model considered
type Alternative struct {
	Problem    string `json:"problem" bson:"problem"`
	Category   string `json:"category" bson:"category"`
	Confidence int    `json:"confidence" bson:"confidence"`
}

// Diagnosis is the normalized contract returned to clients
type Diagnosis struct {
	MainProblem        string           `json:"main_problem" bson:"mainProblem"`
	Category           string           `json:"category" bson:"category"`
	Confidence         int              `json:"confidence" bson:"confidence"`
	Description        string           `json:"description" bson:"description"`
	AffectedParts      []string         `json:"affected_parts" bson:"affectedParts"`
	VisibleSymptoms    []string         `json:"visible_symptoms" bson:"visibleSymptoms"`
	PossibleCauses     []string         `json:"possible_causes" bson:"possibleCauses"`
	ImmediateActions   []string         `json:"immediate_actions" bson:"immediateActions"`
	Prevention         []string         `json:"prevention" bson:"prevention"`
	ImageQualityScore  int              `json:"image_quality_score" bson:"imageQualityScore"`
	ImageQualityNote   string           `json:"image_quality_note" bson:"imageQualityNote"`
	IsUncertain        bool             `json:"is_uncertain" bson:"isUncertain"`
	UncertaintyReason  string           `json:"uncertainty_reason" bson:"uncertaintyReason"`
	ExpertRecommended  bool             `json:"expert_recommended" bson:"expertRecommended"`
	ExpertReason       string           `json:"expert_reason" bson:"expertReason"`
	FertilizingAllowed bool             `json:"fertilizing_allowed" bson:"fertilizingAllowed"`
	Fertilizer         FertilizerAdvice `json:"fertilizer" bson:"fertilizer"`
	SeverityIndicator  Severity         `json:"severity_indicator" bson:"severityIndicator"`
	Alternatives       []Alternative    `json:"alternatives" bson:"alternatives"`
}
