package diagnosis

import (
	"encoding/json"
	"strings"
)

// Extract recovers a JSON object from model text. It tries the whole text first,
// then the span from the first '{' to the last '}'. Anything else yields an empty map.
func Extract(rawText string) map[string]any {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return map[string]any{}
	}

	if m, ok := decodeObject(text); ok {
		return m
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if m, ok := decodeObject(text[start : end+1]); ok {
			return m
		}
	}

	return map[string]any{}
}

func decodeObject(s string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}
