package diagnosis

import (
	"growdoctor/internal/model"
	"strings"
)

var foldReplacer = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
	" ", "_", "-", "_", "/", "_",
)

// foldLabel lowercases and transliterates a free-text label for vocabulary lookups
func foldLabel(s string) string {
	return foldReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}

type categorySynonym struct {
	term string
	code string
}

// categorySynonyms is scanned in order for labels that are not exact codes; earlier entries win
var categorySynonyms = []categorySynonym{
	{"lockout", model.CategoryLockout},
	{"lock_out", model.CategoryLockout},
	{"blockade", model.CategoryLockout},
	{"ph", model.CategoryPHImbalance},
	{"ueberwaesserung", model.CategoryOverwatering},
	{"overwater", model.CategoryOverwatering},
	{"staunaesse", model.CategoryOverwatering},
	{"zu_viel_wasser", model.CategoryOverwatering},
	{"unterwaesserung", model.CategoryUnderwatering},
	{"underwater", model.CategoryUnderwatering},
	{"wassermangel", model.CategoryUnderwatering},
	{"trockenheit", model.CategoryUnderwatering},
	{"wurzel", model.CategoryRootZone},
	{"root", model.CategoryRootZone},
	{"ueberduengung", model.CategoryNutrientExcess},
	{"ueberschuss", model.CategoryNutrientExcess},
	{"toxizitaet", model.CategoryNutrientExcess},
	{"toxicity", model.CategoryNutrientExcess},
	{"excess", model.CategoryNutrientExcess},
	{"nutrient_burn", model.CategoryNutrientExcess},
	{"duengerbrand", model.CategoryNutrientExcess},
	{"mangel", model.CategoryNutrientDeficiency},
	{"deficiency", model.CategoryNutrientDeficiency},
	{"naehrstoff", model.CategoryNutrientDeficiency},
	{"nutrient", model.CategoryNutrientDeficiency},
	{"umwelt", model.CategoryEnvironmentalStress},
	{"environment", model.CategoryEnvironmentalStress},
	{"stress", model.CategoryEnvironmentalStress},
	{"hitze", model.CategoryEnvironmentalStress},
	{"kaelte", model.CategoryEnvironmentalStress},
	{"licht", model.CategoryEnvironmentalStress},
	{"schaedling", model.CategoryPest},
	{"pest", model.CategoryPest},
	{"insekt", model.CategoryPest},
	{"milben", model.CategoryPest},
	{"mite", model.CategoryPest},
	{"thrips", model.CategoryPest},
	{"virus", model.CategoryViral},
	{"viral", model.CategoryViral},
	{"bakter", model.CategoryBacterial},
	{"bacteri", model.CategoryBacterial},
	{"pilz", model.CategoryFungal},
	{"fung", model.CategoryFungal},
	{"schimmel", model.CategoryFungal},
	{"mold", model.CategoryFungal},
	{"mould", model.CategoryFungal},
	{"mehltau", model.CategoryFungal},
	{"mildew", model.CategoryFungal},
	{"gesund", model.CategoryHealthy},
	{"healthy", model.CategoryHealthy},
}

var categoryCodes = func() map[string]struct{} {
	m := make(map[string]struct{}, len(model.Categories))
	for _, c := range model.Categories {
		m[c] = struct{}{}
	}
	return m
}()

// normalizeCategory maps a free-text category onto the closed vocabulary, falling back to "unclear"
func normalizeCategory(raw string) string {
	label := foldLabel(raw)
	if label == "" {
		return model.CategoryUnclear
	}
	if _, ok := categoryCodes[label]; ok {
		return label
	}
	for _, syn := range categorySynonyms {
		if syn.term == "ph" {
			if label == "ph" || strings.HasPrefix(label, "ph_") || strings.Contains(label, "_ph_") || strings.HasSuffix(label, "_ph") {
				return syn.code
			}
			continue
		}
		if strings.Contains(label, syn.term) {
			return syn.code
		}
	}
	return model.CategoryUnclear
}

// parseSeverity reads a traffic-light value in English or German; unknown values yield ""
func parseSeverity(raw string) model.Severity {
	switch foldLabel(raw) {
	case "green", "gruen":
		return model.SeverityGreen
	case "yellow", "gelb", "amber", "orange":
		return model.SeverityYellow
	case "red", "rot":
		return model.SeverityRed
	}
	return ""
}
