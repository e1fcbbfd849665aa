package i18n

import "testing"

func TestStaticTranslator_Translate(t *testing.T) {
	tr := New()

	t.Run("Exact Locale", func(t *testing.T) {
		got := tr.Translate("alert.title.frost", "es")
		if got != "Alerta de helada" {
			t.Errorf("expected Spanish translation, got %q", got)
		}
	})

	t.Run("Regional Falls Back To Base Language", func(t *testing.T) {
		got := tr.Translate("alert.title.heat", "es-MX")
		if got != "Alerta de calor" {
			t.Errorf("expected base-language fallback, got %q", got)
		}
	})

	t.Run("Unknown Locale Falls Back To English", func(t *testing.T) {
		got := tr.Translate("alert.title.wind", "de")
		if got != "Strong wind warning" {
			t.Errorf("expected English fallback, got %q", got)
		}
	})

	t.Run("Missing Key Passes Through Verbatim", func(t *testing.T) {
		key := "temperature -1.0 below min 2.0"
		if got := tr.Translate(key, "vi"); got != key {
			t.Errorf("expected verbatim pass-through, got %q", got)
		}
	})

	t.Run("Empty Key", func(t *testing.T) {
		if got := tr.Translate("", "en"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}
