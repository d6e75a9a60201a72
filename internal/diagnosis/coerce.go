package diagnosis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// lookup returns the first non-nil value among keys
func lookup(raw map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// toNumber accepts JSON numbers, Go numerics and numeric strings ("72", "72.5", "72,5", "72%")
func toNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case int32:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		s = strings.Replace(s, ",", ".", 1)
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// boundedInt rounds v and clamps it into [lo, hi]; ok is false when v is not numeric
func boundedInt(v any, lo, hi int) (int, bool) {
	f, ok := toNumber(v)
	if !ok {
		return 0, false
	}
	f = math.Round(f)
	if f < float64(lo) {
		return lo, true
	}
	if f > float64(hi) {
		return hi, true
	}
	return int(f), true
}

// toString stringifies scalars and trims; nil becomes "" and compound values are JSON-encoded
func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	}
}

// toStringList keeps only real lists, dropping blank and compound elements
func toStringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			switch item.(type) {
			case nil, map[string]any, []any:
				continue
			}
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, item := range t {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

var (
	trueWords  = map[string]struct{}{"true": {}, "1": {}, "yes": {}, "y": {}, "ja": {}, "on": {}}
	falseWords = map[string]struct{}{"false": {}, "0": {}, "no": {}, "n": {}, "nein": {}, "off": {}}
)

// toBool accepts native booleans, 0/1 numbers and common string encodings; anything else is def
func toBool(v any, def bool) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		if t == 1 {
			return true
		}
		if t == 0 {
			return false
		}
		return def
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		if _, ok := trueWords[s]; ok {
			return true
		}
		if _, ok := falseWords[s]; ok {
			return false
		}
	}
	return def
}

// toObject returns v as a JSON object, or nil when it is not one
func toObject(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}
