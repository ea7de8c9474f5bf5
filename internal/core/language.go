package core

import (
	"fmt"
	"strings"

	"github.com/akowalczyk/voxtask/pkg/models"
)

// LanguageOption describes one supported transcription language.
type LanguageOption struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Emoji string `json:"emoji"`
}

// LanguageOptions maps selection keys to the supported Whisper languages.
var LanguageOptions = map[string]LanguageOption{
	"US": {Code: "en", Label: "English (US)", Emoji: "\U0001f1fa\U0001f1f8"},
	"PL": {Code: "pl", Label: "Polski", Emoji: "\U0001f1f5\U0001f1f1"},
	"UA": {Code: "uk", Label: "Українська", Emoji: "\U0001f1fa\U0001f1e6"},
}

// FallbackLanguageKey is used when neither the session nor the account
// expresses a usable preference.
const FallbackLanguageKey = "US"

// languageCodeToKey maps lowercase language codes back to selection keys.
var languageCodeToKey = func() map[string]string {
	m := make(map[string]string, len(LanguageOptions))
	for key, option := range LanguageOptions {
		m[strings.ToLower(option.Code)] = key
	}
	return m
}()

// LanguageSelection is a resolved language choice stored in a session.
type LanguageSelection struct {
	Key  string
	Code string
}

// DeriveDefaultLanguageKey resolves the default language key for an account
// from its configured whisper language, accepting either a selection key
// ("PL") or a language code ("pl").
func DeriveDefaultLanguageKey(account *models.AccountSettings) string {
	preferred := strings.TrimSpace(account.WhisperLanguage)
	if preferred == "" {
		return FallbackLanguageKey
	}

	if _, ok := LanguageOptions[strings.ToUpper(preferred)]; ok {
		return strings.ToUpper(preferred)
	}
	if key, ok := languageCodeToKey[strings.ToLower(preferred)]; ok {
		return key
	}

	return FallbackLanguageKey
}

// EnsureLanguageSelection normalizes a possibly stale session selection,
// falling back to the account default when neither the key nor the code is
// recognized.
func EnsureLanguageSelection(account *models.AccountSettings, current LanguageSelection) LanguageSelection {
	if option, ok := LanguageOptions[current.Key]; ok {
		return LanguageSelection{Key: current.Key, Code: option.Code}
	}
	if key, ok := languageCodeToKey[strings.ToLower(current.Code)]; ok {
		return LanguageSelection{Key: key, Code: LanguageOptions[key].Code}
	}

	key := DeriveDefaultLanguageKey(account)
	return LanguageSelection{Key: key, Code: LanguageOptions[key].Code}
}

// UpdateLanguageSelection validates a user-chosen language key and returns
// the normalized selection.
func UpdateLanguageSelection(languageKey string) (LanguageSelection, error) {
	key := strings.ToUpper(strings.TrimSpace(languageKey))
	option, ok := LanguageOptions[key]
	if !ok {
		return LanguageSelection{}, fmt.Errorf("unsupported language key: %s", languageKey)
	}
	return LanguageSelection{Key: key, Code: option.Code}, nil
}
