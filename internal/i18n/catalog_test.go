package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLang(t *testing.T) {
	c := MustLoad()

	tests := []struct {
		raw  string
		want string
	}{
		{"", "de"},
		{"en", "en"},
		{"en-US", "en"},
		{"en_GB", "en"},
		{" FR ", "fr"},
		{"cs", "cs"},
		{"ja", "de"},
		{"klingon-KL", "de"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, c.NormalizeLang(tt.raw))
		})
	}
}

func TestText(t *testing.T) {
	c := MustLoad()

	t.Run("supported language", func(t *testing.T) {
		assert.Equal(t, "Important notice", c.Text("en", KeyDisclaimerTitle))
		assert.Equal(t, "Avis important", c.Text("fr-FR", KeyDisclaimerTitle))
	})

	t.Run("unsupported language falls back to default", func(t *testing.T) {
		assert.Equal(t, "Wichtiger Hinweis", c.Text("ja", KeyDisclaimerTitle))
		assert.Equal(t, "Wichtiger Hinweis", c.Text("", KeyDisclaimerTitle))
	})

	t.Run("supported language without table falls back to default", func(t *testing.T) {
		assert.Equal(t, "Datenschutz", c.Text("pl", KeyPrivacyTitle))
	})

	t.Run("missing key in supported language falls back to default", func(t *testing.T) {
		assert.Equal(t, c.Text("de", "fertilizer_advisory"), c.Text("fr", "fertilizer_advisory"))
	})

	t.Run("unknown key returns the key", func(t *testing.T) {
		assert.Equal(t, "no_such_key", c.Text("en", "no_such_key"))
		assert.Equal(t, "no_such_key", c.Text("xx", "no_such_key"))
	})
}

func TestLegal(t *testing.T) {
	c := MustLoad()
	legal := c.Legal("en")
	assert.Equal(t, "Important notice", legal.DisclaimerTitle)
	assert.Equal(t, "Privacy", legal.PrivacyTitle)
	assert.Equal(t, "This image has already been analyzed.", legal.AlreadyAnalyzed)
	assert.NotEmpty(t, legal.DisclaimerBody)
	assert.NotEmpty(t, legal.PrivacyBody)
}

func TestParse(t *testing.T) {
	t.Run("missing default", func(t *testing.T) {
		_, err := Parse([]byte("supported: [en]\ntexts:\n  en:\n    a: b\n"))
		require.Error(t, err)
	})

	t.Run("default without table", func(t *testing.T) {
		_, err := Parse([]byte("default: en\ntexts:\n  de:\n    a: b\n"))
		require.Error(t, err)
	})

	t.Run("default is always supported", func(t *testing.T) {
		c, err := Parse([]byte("default: en\nsupported: [de, DE, ' ']\ntexts:\n  en:\n    a: b\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"en", "de"}, c.Supported())
		assert.Equal(t, "b", c.Text("de", "a"))
	})
}
