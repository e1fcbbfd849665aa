package i18n

import "strings"

// StaticTranslator implements domain.Translator over a compiled-in table.
// Lookup order: exact locale, then its base language ("pt-BR" falls back to
// "pt"), then the key itself verbatim. Delivery never blocks on a missing
// translation.
type StaticTranslator struct {
	tables map[string]map[string]string
}

// New returns the translator with the built-in locale tables.
func New() *StaticTranslator {
	return &StaticTranslator{tables: builtinTables}
}

// Translate resolves key for locale, passing the key through when no
// translation exists.
func (t *StaticTranslator) Translate(key, locale string) string {
	if key == "" {
		return key
	}
	locale = strings.ToLower(locale)
	if table, ok := t.tables[locale]; ok {
		if s, ok := table[key]; ok {
			return s
		}
	}
	if base, _, found := strings.Cut(locale, "-"); found {
		if table, ok := t.tables[base]; ok {
			if s, ok := table[key]; ok {
				return s
			}
		}
	}
	if table, ok := t.tables["en"]; ok {
		if s, ok := table[key]; ok {
			return s
		}
	}
	return key
}

var builtinTables = map[string]map[string]string{
	"en": {
		"alert.title.frost":      "Frost warning",
		"alert.title.heat":       "Heat warning",
		"alert.title.drought":    "Drought warning",
		"alert.title.heavy_rain": "Heavy rain warning",
		"alert.title.wind":       "Strong wind warning",
		"alert.title.hail":       "Hail warning",
		"alert.title.custom":     "Threshold alert",
		"recommendation.title":   "Daily farm recommendation",
	},
	"es": {
		"alert.title.frost":      "Alerta de helada",
		"alert.title.heat":       "Alerta de calor",
		"alert.title.drought":    "Alerta de sequía",
		"alert.title.heavy_rain": "Alerta de lluvia intensa",
		"alert.title.wind":       "Alerta de viento fuerte",
		"alert.title.hail":       "Alerta de granizo",
		"alert.title.custom":     "Alerta de umbral",
		"recommendation.title":   "Recomendación diaria para la finca",
	},
	"vi": {
		"alert.title.frost":      "Cảnh báo sương giá",
		"alert.title.heat":       "Cảnh báo nắng nóng",
		"alert.title.drought":    "Cảnh báo hạn hán",
		"alert.title.heavy_rain": "Cảnh báo mưa lớn",
		"alert.title.wind":       "Cảnh báo gió mạnh",
		"alert.title.hail":       "Cảnh báo mưa đá",
		"alert.title.custom":     "Cảnh báo ngưỡng",
		"recommendation.title":   "Khuyến nghị hằng ngày cho trang trại",
	},
}
