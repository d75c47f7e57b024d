package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLanguageCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Two-letter ids pass through
		{"en", "en"},
		{"de", "de"},
		{"fr", "fr"},
		// ISO 639-2 codes
		{"eng", "en"},
		{"deu", "de"},
		// Locales
		{"en-US", "en"},
		{"en_GB", "en"},
		{"de-AT", "de"},
		// English names
		{"english", "en"},
		{"English", "en"},
		{"ENGLISH", "en"},
		{"German", "de"},
		{"Japanese", "ja"},
		{"farsi", "fa"},
		{"Mandarin", "zh"},
		// Edge cases
		{"", ""},
		{"  en  ", "en"},
		{"en\x00", "en"},
		{"not a language", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, LanguageCode(tt.input))
		})
	}
}

func TestCatalogLanguage(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"English", "en"},
		{"eng", "en"},
		{" zh ", "zh"},
		{"", ""},
		// Unrecognized ids are sent as written.
		{"not a language", "not a language"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CatalogLanguage(tt.input))
		})
	}
}
