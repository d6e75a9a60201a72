package diagnosis

import "sort"

// legacySection describes a nested object of the older response revision and
// how its members map onto flat keys. Renames are applied in order, so when two
// members feed the same flat key the one listed first wins. Members without a
// rename keep their name.
type legacySection struct {
	key    string
	rename []memberRename
}

type memberRename struct {
	from, to string
}

var legacySections = []legacySection{
	{key: "analyse"},
	{key: "diagnose"},
	{key: "qualitaet", rename: []memberRename{
		{"score", "bildqualitaet_score"},
		{"hinweis", "hinweis_bildqualitaet"},
	}},
	{key: "empfehlung", rename: []memberRename{
		{"duengen", "duengen_erlaubt"},
		{"profi", "profi_empfohlen"},
		{"grund", "profi_grund"},
		{"sofort", "sofort_massnahmen"},
		{"massnahmen", "sofort_massnahmen"},
		{"vorbeugen", "vorbeugung"},
		{"duengung_info", "duengung"},
	}},
	{key: "unsicherheit", rename: []memberRename{
		{"unsicher", "ist_unsicher"},
		{"hinweis", "unsicher_hinweis"},
		{"grund", "unsicher_hinweis"},
	}},
}

func (sec legacySection) renamed(member string) bool {
	for _, r := range sec.rename {
		if r.from == member {
			return true
		}
	}
	return false
}

// AdaptLegacy lifts the members of nested revision objects into the flat schema.
// Flat keys already present are never overwritten and the input map is not modified.
// The result depends only on the input, never on map iteration order.
func AdaptLegacy(raw map[string]any) map[string]any {
	if !IsLegacy(raw) {
		return raw
	}

	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	lift := func(flat string, v any) {
		if existing, ok := out[flat]; ok && existing != nil {
			return
		}
		out[flat] = v
	}

	for _, sec := range legacySections {
		obj := toObject(raw[sec.key])
		if obj == nil {
			continue
		}
		for _, r := range sec.rename {
			if v, ok := obj[r.from]; ok {
				lift(r.to, v)
			}
		}

		rest := make([]string, 0, len(obj))
		for member := range obj {
			if !sec.renamed(member) {
				rest = append(rest, member)
			}
		}
		sort.Strings(rest)
		for _, member := range rest {
			lift(member, obj[member])
		}
	}
	return out
}

// IsLegacy reports whether raw carries any nested revision object
func IsLegacy(raw map[string]any) bool {
	for _, sec := range legacySections {
		if toObject(raw[sec.key]) != nil {
			return true
		}
	}
	return false
}
