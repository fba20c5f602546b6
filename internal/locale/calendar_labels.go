package locale

var (
	polishMonths = [12]string{
		"Styczeń", "Luty", "Marzec", "Kwiecień", "Maj", "Czerwiec",
		"Lipiec", "Sierpień", "Wrzesień", "Październik", "Listopad", "Grudzień",
	}
	englishMonths = [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}

	// 周一开头，与月视图列顺序一致
	polishWeekdays  = [7]string{"Pn", "Wt", "Śr", "Cz", "Pt", "So", "Nd"}
	englishWeekdays = [7]string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}
)

// MonthName 返回 0-11 月份的名称，越界时返回空字符串
func MonthName(language string, month int) string {
	if month < 0 || month > 11 {
		return ""
	}
	return Pick(language, englishMonths[month], polishMonths[month])
}

// WeekdayHeaders 返回月视图表头
func WeekdayHeaders(language string) []string {
	headers := polishWeekdays
	if NormalizeLanguage(language) == LanguageEnglish {
		headers = englishWeekdays
	}
	return headers[:]
}
