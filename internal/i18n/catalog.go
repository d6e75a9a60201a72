// Package i18n resolves user-facing strings by language with a fixed fallback chain.
package i18n

import (
	_ "embed"
	"fmt"
	"growdoctor/internal/model"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales.yaml
var embeddedLocales []byte

// Text keys shared with the HTTP layer
const (
	KeyDisclaimerTitle = "disclaimer_title"
	KeyDisclaimerBody  = "disclaimer_body"
	KeyPrivacyTitle    = "privacy_title"
	KeyPrivacyBody     = "privacy_body"
	KeyAlreadyAnalyzed = "already_analyzed"
	KeyAgeNotConfirmed = "age_not_confirmed"
)

type localeFile struct {
	Default   string                       `yaml:"default"`
	Supported []string                     `yaml:"supported"`
	Texts     map[string]map[string]string `yaml:"texts"`
}

// Catalog holds the translation tables
type Catalog struct {
	defaultLang string
	supported   map[string]struct{}
	order       []string
	texts       map[string]map[string]string
}

// Load parses the embedded locale tables
func Load() (*Catalog, error) {
	return Parse(embeddedLocales)
}

// MustLoad is Load for package-level initialization; the embedded file is fixed at build time
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from a YAML locale document
func Parse(data []byte) (*Catalog, error) {
	var f localeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse locales: %w", err)
	}
	if f.Default == "" {
		return nil, fmt.Errorf("parse locales: default language missing")
	}
	if _, ok := f.Texts[f.Default]; !ok {
		return nil, fmt.Errorf("parse locales: no texts for default language %q", f.Default)
	}

	c := &Catalog{
		defaultLang: f.Default,
		supported:   map[string]struct{}{f.Default: {}},
		order:       []string{f.Default},
		texts:       f.Texts,
	}
	for _, lang := range f.Supported {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if _, dup := c.supported[lang]; dup || lang == "" {
			continue
		}
		c.supported[lang] = struct{}{}
		c.order = append(c.order, lang)
	}
	return c, nil
}

// Default returns the fallback language
func (c *Catalog) Default() string {
	return c.defaultLang
}

// Supported returns the supported language codes, default first
func (c *Catalog) Supported() []string {
	return append([]string(nil), c.order...)
}

// NormalizeLang reduces "en-US" / "en_US" / " EN " to "en" and maps unsupported codes to the default
func (c *Catalog) NormalizeLang(raw string) string {
	l := strings.ToLower(strings.TrimSpace(raw))
	if l == "" {
		return c.defaultLang
	}
	l = strings.ReplaceAll(l, "_", "-")
	l, _, _ = strings.Cut(l, "-")
	if _, ok := c.supported[l]; ok {
		return l
	}
	return c.defaultLang
}

// Text looks key up in lang, then in the default language, then returns the key itself
func (c *Catalog) Text(lang, key string) string {
	if table, ok := c.texts[c.NormalizeLang(lang)]; ok {
		if s, ok := table[key]; ok && s != "" {
			return s
		}
	}
	if s, ok := c.texts[c.defaultLang][key]; ok && s != "" {
		return s
	}
	return key
}

// Legal builds the legal block for lang
func (c *Catalog) Legal(lang string) model.Legal {
	return model.Legal{
		DisclaimerTitle: c.Text(lang, KeyDisclaimerTitle),
		DisclaimerBody:  c.Text(lang, KeyDisclaimerBody),
		PrivacyTitle:    c.Text(lang, KeyPrivacyTitle),
		PrivacyBody:     c.Text(lang, KeyPrivacyBody),
		AlreadyAnalyzed: c.Text(lang, KeyAlreadyAnalyzed),
	}
}
