package diagnosis

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var embeddedKeywords []byte

type term struct {
	text     string
	midStart bool
	midEnd   bool
}

func parseTerm(raw string) (term, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	t := term{}
	if strings.HasPrefix(s, "*") {
		t.midStart = true
		s = s[1:]
	}
	if strings.HasSuffix(s, "*") {
		t.midEnd = true
		s = s[:len(s)-1]
	}
	t.text = strings.TrimSpace(s)
	return t, t.text != ""
}

// in reports whether the term occurs in text, which must already be lowercased
func (t term) in(text string) bool {
	for from := 0; from < len(text); {
		idx := strings.Index(text[from:], t.text)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(t.text)
		if (t.midStart || boundaryBefore(text, start)) && (t.midEnd || boundaryAfter(text, end)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return false
}

func (t term) String() string {
	s := t.text
	if t.midStart {
		s = "*" + s
	}
	if t.midEnd {
		s += "*"
	}
	return s
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wordBreak reports whether a word ends between prev and next.
// A switch between letters and digits counts, so "ph" is found in "ph6".
func wordBreak(prev, next rune) bool {
	if !isWordRune(prev) || !isWordRune(next) {
		return true
	}
	return unicode.IsDigit(prev) != unicode.IsDigit(next)
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:i])
	next, _ := utf8.DecodeRuneInString(s[i:])
	return wordBreak(prev, next)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:i])
	next, _ := utf8.DecodeRuneInString(s[i:])
	return wordBreak(prev, next)
}

// KeywordSet is an ordered list of glob terms
type KeywordSet struct {
	terms []term
}

// NewKeywordSet parses glob terms, skipping blanks
func NewKeywordSet(raw ...string) KeywordSet {
	ks := KeywordSet{}
	for _, r := range raw {
		if t, ok := parseTerm(r); ok {
			ks.terms = append(ks.terms, t)
		}
	}
	return ks
}

// Match returns the first term found in text, case-insensitively
func (ks KeywordSet) Match(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, t := range ks.terms {
		if t.in(lower) {
			return t.String(), true
		}
	}
	return "", false
}

// Len is the number of terms
func (ks KeywordSet) Len() int { return len(ks.terms) }

// Keywords groups the three keyword tables used by the rule engine
type Keywords struct {
	Severe          KeywordSet
	Moderate        KeywordSet
	FertilizerBlock KeywordSet
}

type keywordFile struct {
	Severe          []string `yaml:"severe"`
	Moderate        []string `yaml:"moderate"`
	FertilizerBlock []string `yaml:"fertilizer_block"`
}

// ParseKeywords reads a keyword YAML document
func ParseKeywords(data []byte) (*Keywords, error) {
	var f keywordFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse keywords: %w", err)
	}
	kw := &Keywords{
		Severe:          NewKeywordSet(f.Severe...),
		Moderate:        NewKeywordSet(f.Moderate...),
		FertilizerBlock: NewKeywordSet(f.FertilizerBlock...),
	}
	if kw.Severe.Len() == 0 {
		return nil, fmt.Errorf("parse keywords: severe table is empty")
	}
	return kw, nil
}

// LoadKeywords reads keywords from path, or the embedded tables when path is empty
func LoadKeywords(path string) (*Keywords, error) {
	if path == "" {
		return ParseKeywords(embeddedKeywords)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keywords %s: %w", path, err)
	}
	return ParseKeywords(data)
}

// DefaultKeywords returns the embedded tables
func DefaultKeywords() *Keywords {
	kw, err := ParseKeywords(embeddedKeywords)
	if err != nil {
		panic(err)
	}
	return kw
}
