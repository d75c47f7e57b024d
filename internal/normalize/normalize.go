// Package normalize turns loosely written filter values into the forms the
// catalog expects.
package normalize

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// catalogLanguages are the languages resolvable by English name.
//
//nolint:gochecknoglobals // Static lookup table for language normalization
var catalogLanguages = []string{
	"af", "am", "ar", "bg", "bn", "bo", "bs", "ca", "cs", "cy", "da", "de",
	"el", "en", "eo", "es", "et", "eu", "fa", "fi", "fr", "ga", "gd", "gl",
	"gu", "he", "hi", "hr", "hu", "hy", "id", "is", "it", "ja", "jv", "ka",
	"kk", "km", "kn", "ko", "la", "lo", "lt", "lv", "mk", "ml", "mn", "mr",
	"ms", "my", "ne", "nl", "no", "pa", "pl", "pt", "ro", "ru", "si", "sk",
	"sl", "sq", "sr", "su", "sv", "sw", "ta", "te", "th", "tl", "tr", "uk",
	"ur", "uz", "vi", "yi", "zh", "zu",
}

//nolint:gochecknoglobals // Built once from catalogLanguages
var languageNames = buildLanguageNames()

func buildLanguageNames() map[string]string {
	namer := display.English.Languages()
	names := make(map[string]string, len(catalogLanguages)+4)
	for _, code := range catalogLanguages {
		if name := namer.Name(language.MustParse(code)); name != "" {
			names[strings.ToLower(name)] = code
		}
	}
	// Names people use that are not the English display name.
	names["farsi"] = "fa"
	names["filipino"] = "tl"
	names["mandarin"] = "zh"
	names["cantonese"] = "zh"
	return names
}

// LanguageCode converts a language id, an ISO 639-2 code, a locale such as
// "en_GB" or an English language name to a two-letter language id.
// Returns "" for unrecognized values.
func LanguageCode(raw string) string {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "\x00", ""))
	if s == "" {
		return ""
	}

	if code, ok := languageNames[strings.ToLower(s)]; ok {
		return code
	}

	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No || base.String() == "und" {
		return ""
	}
	return base.String()
}

// CatalogLanguage returns the language id to send to the catalog for raw:
// the normalized id when raw is recognized, raw unchanged otherwise.
func CatalogLanguage(raw string) string {
	if code := LanguageCode(raw); code != "" {
		return code
	}
	return strings.TrimSpace(raw)
}
