// Package lang validates spoken-language hints passed to speech recognition.
package lang

import (
	"fmt"
	"strings"
)

// validLanguages contains ISO 639-1 codes accepted by both the OpenAI
// transcription API and whisper.cpp. Not exhaustive, but covers the
// languages with usable recognition quality.
var validLanguages = map[string]string{
	"ar": "Arabic",
	"ca": "Catalan",
	"cs": "Czech",
	"da": "Danish",
	"de": "German",
	"el": "Greek",
	"en": "English",
	"es": "Spanish",
	"fa": "Persian",
	"fi": "Finnish",
	"fr": "French",
	"he": "Hebrew",
	"hi": "Hindi",
	"hu": "Hungarian",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"nl": "Dutch",
	"no": "Norwegian",
	"pl": "Polish",
	"pt": "Portuguese",
	"ro": "Romanian",
	"ru": "Russian",
	"sv": "Swedish",
	"th": "Thai",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"vi": "Vietnamese",
	"zh": "Chinese",
}

// Language is a validated language hint. The zero value means auto-detect.
type Language struct {
	code string // normalized, e.g. "en" or "pt-br"
}

// Compile-time interface compliance check.
var _ fmt.Stringer = Language{}

// English is the default hint for captions.
var English = Language{code: "en"}

// Normalize lowercases a code and uses hyphen separators.
// Accepts: "pt-BR", "pt_BR", "PT-BR", "pt-br" -> "pt-br"
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(code, "_", "-"))
}

// Parse validates a language code. Empty input (or "auto") returns the
// zero Language. Locales such as "pt-BR" are accepted when their base
// language is known.
func Parse(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "auto") {
		return Language{}, nil
	}
	normalized := Normalize(s)
	base, _, _ := strings.Cut(normalized, "-")
	if _, ok := validLanguages[base]; !ok {
		return Language{}, fmt.Errorf("invalid language code %q (use ISO 639-1 codes like 'en', 'fr', 'pt-BR'): %w",
			s, ErrInvalid)
	}
	return Language{code: normalized}, nil
}

// MustParse parses a language code, panicking if invalid.
// Use only for constants and tests.
func MustParse(s string) Language {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the normalized code, or "" for auto-detect.
func (l Language) String() string {
	return l.code
}

// IsZero reports whether the language is auto-detect.
func (l Language) IsZero() bool {
	return l.code == ""
}

// BaseCode returns the ISO 639-1 part of the code ("pt-br" -> "pt").
// Recognition backends only accept base codes.
func (l Language) BaseCode() string {
	base, _, _ := strings.Cut(l.code, "-")
	return base
}

// DisplayName returns the English name of the base language, or "auto-detect".
func (l Language) DisplayName() string {
	if l.IsZero() {
		return "auto-detect"
	}
	return validLanguages[l.BaseCode()]
}
