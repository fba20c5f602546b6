package locale

import "strings"

const (
	LanguagePolish  = "pl"
	LanguageEnglish = "en"
)

// Preference 描述某种语言的区域设置
type Preference struct {
	Language string
	Locale   string
	// ContentLanguage 用于 Content-Language 响应头
	ContentLanguage string
}

func NormalizeLanguage(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "pl") {
		return LanguagePolish
	}
	if strings.HasPrefix(trimmed, "en") {
		return LanguageEnglish
	}
	return ""
}

// LanguageFromAcceptLanguage 按 Accept-Language 中最先出现的受支持语言判断
func LanguageFromAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if normalized := NormalizeLanguage(tag); normalized != "" {
			return normalized
		}
	}
	return ""
}

func PreferenceForLanguage(language string) Preference {
	normalized := NormalizeLanguage(language)
	if normalized == LanguageEnglish {
		return Preference{Language: LanguageEnglish, Locale: "en_US", ContentLanguage: "en-US"}
	}
	return Preference{Language: LanguagePolish, Locale: "pl_PL", ContentLanguage: "pl-PL"}
}
