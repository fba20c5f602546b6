package locale

// Pick returns the text matching the request language, defaulting to Polish.
func Pick(language, english, polish string) string {
	if NormalizeLanguage(language) == LanguageEnglish {
		if english != "" {
			return english
		}
		return polish
	}
	if polish != "" {
		return polish
	}
	return english
}
