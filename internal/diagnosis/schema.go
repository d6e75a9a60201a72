package diagnosis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "diagnosis-raw.json"

func stringList() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

func percent() map[string]any {
	return map[string]any{"type": "integer", "minimum": 0, "maximum": 100}
}

// RawSchema is the JSON schema the model is asked to produce. Keys are German, as in the prompt.
func RawSchema() map[string]any {
	categories := make([]any, 0, len(categoryCodes))
	for c := range categoryCodes {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].(string) < categories[j].(string) })

	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"required": []any{
			"hauptproblem", "kategorie", "wahrscheinlichkeit", "beschreibung",
			"sichtbare_symptome", "moegliche_ursachen", "sofort_massnahmen",
			"bildqualitaet_score", "ist_unsicher", "duengen_erlaubt", "ampel",
		},
		"properties": map[string]any{
			"hauptproblem":          map[string]any{"type": "string"},
			"kategorie":             map[string]any{"type": "string", "enum": categories},
			"wahrscheinlichkeit":    percent(),
			"beschreibung":          map[string]any{"type": "string"},
			"betroffene_teile":      stringList(),
			"sichtbare_symptome":    stringList(),
			"moegliche_ursachen":    stringList(),
			"sofort_massnahmen":     stringList(),
			"vorbeugung":            stringList(),
			"bildqualitaet_score":   percent(),
			"hinweis_bildqualitaet": map[string]any{"type": "string"},
			"ist_unsicher":          map[string]any{"type": "boolean"},
			"unsicher_hinweis":      map[string]any{"type": "string"},
			"profi_empfohlen":       map[string]any{"type": "boolean"},
			"profi_grund":           map[string]any{"type": "string"},
			"duengen_erlaubt":       map[string]any{"type": "boolean"},
			"duengung": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"erlaubt":    map[string]any{"type": "boolean"},
					"grund":      map[string]any{"type": "string"},
					"hinweis":    map[string]any{"type": "string"},
					"empfehlung": map[string]any{"type": "string"},
				},
			},
			"ampel": map[string]any{"type": "string", "enum": []any{"gruen", "gelb", "rot"}},
			"alternativen": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"problem", "wahrscheinlichkeit"},
					"properties": map[string]any{
						"problem":            map[string]any{"type": "string"},
						"kategorie":          map[string]any{"type": "string"},
						"wahrscheinlichkeit": percent(),
					},
				},
			},
		},
	}
}

// SchemaChecker reports how far a raw model output drifts from RawSchema.
// It never rejects anything; normalization is the only enforcement.
type SchemaChecker struct {
	schema *jsonschema.Schema
}

// NewSchemaChecker compiles RawSchema
func NewSchemaChecker() (*SchemaChecker, error) {
	b, err := json.Marshal(RawSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &SchemaChecker{schema: s}, nil
}

// Check returns one message per violation, empty when raw conforms
func (c *SchemaChecker) Check(raw map[string]any) []string {
	err := c.schema.Validate(raw)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	var out []string
	for _, e := range ve.BasicOutput().Errors {
		if e.Error == "" || strings.HasPrefix(e.Error, "doesn't validate with") {
			continue
		}
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		out = append(out, loc+": "+e.Error)
	}
	if len(out) == 0 {
		out = []string{ve.Error()}
	}
	return out
}
