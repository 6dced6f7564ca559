package config

import "log/slog"

const (
	LangEN = "en"
	LangES = "es"
)

func SupportedLanguages() []string {
	return []string{LangEN, LangES}
}

func IsSupportedLanguage(lang string) bool {
	return lang == LangEN || lang == LangES
}

// GetLocaleConfig maps a language to a supported locale, falling back to English.
func GetLocaleConfig(lang string) string {
	switch lang {
	case LangEN:
		return LangEN
	case LangES:
		return LangES
	default:
		slog.Warn("unsupported language, falling back to english", "language", lang)
		return LangEN
	}
}
