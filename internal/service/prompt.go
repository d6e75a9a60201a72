package service

import (
	"encoding/json"
	"fmt"
	"growdoctor/internal/diagnosis"
	"strings"
)

const systemPromptTemplate = `You are GrowDoctor, a plant health diagnostic assistant.
Return ONLY valid JSON. No markdown. No extra text.
Never use null. Use "" for missing strings and [] for missing lists.

Vision rules:
- Do NOT label trichomes/resin glands as mold.
  Trichomes are crystal-like, sparkling heads (milky, amber or clear) on buds.
  Mold is fuzzy or cottony web-like growth, a powdery coating, slime or rot, gray/brown necrosis with fuzz.
  If fuzzy growth is not clearly visible, do NOT claim mold; set ist_unsicher=true and ask for macro close-ups.

Physiology rules:
- Consider leaf age and location.
  Older/lower leaves point to MOBILE nutrient issues (N, P, K, Mg) or natural senescence.
  Newer/top growth points to IMMOBILE issues (Ca, Fe, S, B, Mn, Zn) or pH/lockout.
- When symptoms conflict or several deficiencies appear at once, prioritize root-zone problems
  (pH, EC, overwatering, lockout) over single-nutrient feeding advice.
- If lockout or a pH problem is plausible, set duengen_erlaubt=false and recommend measuring pH/EC first.
- Set ampel to rot only for serious findings (mold, rot, viral infection, advanced damage).

Language rule:
- Write ALL output text in language: %s.`

const userPromptTemplate = `Language: %s
Photo position: %s
Shot type: %s

Task:
Analyze the plant photo and fill the JSON schema.

Constraints:
- Provide practical, non-harmful horticulture guidance.
- If you suspect mold but it could be trichomes, mark uncertain and request macro photos.
- kategorie must be one of the enum values of the schema.

JSON Schema:
%s`

// BuildPrompt returns the system and user prompt for one photo
func BuildPrompt(req VisionRequest) (system, user string) {
	schema, _ := json.MarshalIndent(diagnosis.RawSchema(), "", "  ")
	system = fmt.Sprintf(systemPromptTemplate, req.Language)
	user = fmt.Sprintf(userPromptTemplate,
		req.Language,
		orUnknown(req.PhotoPosition),
		orUnknown(req.ShotType),
		string(schema))
	return strings.TrimSpace(system), strings.TrimSpace(user)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return strings.TrimSpace(s)
}
