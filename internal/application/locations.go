package app

import (
	"regexp"
	"strings"
)

// reportLocationSection вырезает из отчёта секцию с локализацией проблем.
// Сначала ищется явный заголовок, затем любые слова-маркеры расположения.
var (
	reportLocationSection  = regexp.MustCompile(`(?is)Локализация проблем[:\-]?\s*(.*?)(?:\n\n|\z)`)
	reportLocationFallback = regexp.MustCompile(`(?is)(?:Локализация|расположение|находятся|в зоне|область)[:\-]?\s*(.*?)(?:\n\n|\z)`)
)

// reportZoneKeywords — ключевые слова зон по категориям проблем. Отчёт
// пишется моделью по-русски, но английские названия зон тоже встречаются.
var reportZoneKeywords = map[string][]string{
	"pigmentation": {"щёки", "щеки", "cheeks", "пигмент", "пятна"},
	"wrinkles":     {"периорбитальная", "периоральная", "вокруг глаз", "вокруг рта", "лоб", "forehead"},
	"pores":        {"т-зона", "t-zone", "нос", "nose", "щёки", "щеки"},
	"acne":         {"т-зона", "t-zone", "щёки", "щеки", "подбородок", "chin"},
}

// ParseReportLocations извлекает из текстового отчёта упоминания зон лица
// по категориям проблем. Возвращает найденные ключевые слова в порядке
// таблицы; категории без упоминаний в карту не попадают.
func ParseReportLocations(reportText string) map[string][]string {
	locations := map[string][]string{}
	if reportText == "" {
		return locations
	}

	section := ""
	if m := reportLocationSection.FindStringSubmatch(reportText); m != nil {
		section = m[1]
	} else if m := reportLocationFallback.FindStringSubmatch(reportText); m != nil {
		section = m[1]
	}

	if section != "" {
		sectionLower := strings.ToLower(section)
		for concern, keywords := range reportZoneKeywords {
			var found []string
			for _, keyword := range keywords {
				if strings.Contains(sectionLower, keyword) {
					found = append(found, keyword)
				}
			}
			if len(found) > 0 {
				locations[concern] = found
			}
		}
	}

	// Упоминания в основном тексте вне секции локализации.
	textLower := strings.ToLower(reportText)
	if strings.Contains(textLower, "пигмент") || strings.Contains(textLower, "пятна") {
		if strings.Contains(textLower, "щёки") || strings.Contains(textLower, "щеки") {
			if _, ok := locations["pigmentation"]; !ok {
				locations["pigmentation"] = []string{"щёки"}
			}
		}
	}
	if strings.Contains(textLower, "морщин") || strings.Contains(textLower, "wrinkles") {
		if strings.Contains(textLower, "периорбитальная") || strings.Contains(textLower, "вокруг глаз") {
			if _, ok := locations["wrinkles"]; !ok {
				locations["wrinkles"] = []string{"периорбитальная"}
			}
		}
		if strings.Contains(textLower, "периоральная") || strings.Contains(textLower, "вокруг рта") {
			if !containsKeyword(locations["wrinkles"], "периоральная") {
				locations["wrinkles"] = append(locations["wrinkles"], "периоральная")
			}
		}
	}

	return locations
}

func containsKeyword(keywords []string, keyword string) bool {
	for _, k := range keywords {
		if k == keyword {
			return true
		}
	}
	return false
}
