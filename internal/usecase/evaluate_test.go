package usecase

import (
	"math"
	"testing"
	"time"

	"github.com/user/agro-alert/internal/domain"
)

func f(v float64) *float64 { return &v }

func TestEvaluate(t *testing.T) {
	t.Run("Value Below Min Breaches", func(t *testing.T) {
		rule := domain.AlertRule{
			RuleType:   domain.RuleFrost,
			Thresholds: domain.Thresholds{Temperature: &domain.Band{Min: f(2.0)}},
		}
		reading := domain.Reading{Temperature: f(-1.0), Timestamp: time.Now()}

		verdict := Evaluate(rule, reading)

		if !verdict.Breached {
			t.Fatal("expected a breach")
		}
		if len(verdict.Violations) != 1 {
			t.Fatalf("expected 1 violation, got %d", len(verdict.Violations))
		}
		v := verdict.Violations[0]
		if v.Quantity != domain.QuantityTemperature || v.Kind != BoundMin || v.Bound != 2.0 {
			t.Errorf("unexpected violation: %+v", v)
		}
		if got, want := v.String(), "temperature -1.0 below min 2.0"; got != want {
			t.Errorf("violation text: got %q, want %q", got, want)
		}
	})

	t.Run("Value Above Max Breaches", func(t *testing.T) {
		rule := domain.AlertRule{
			Thresholds: domain.Thresholds{WindSpeed: &domain.Band{Max: f(60.0)}},
		}
		reading := domain.Reading{WindSpeedKmh: f(75.0)}

		verdict := Evaluate(rule, reading)

		if !verdict.Breached {
			t.Fatal("expected a breach")
		}
		if verdict.Violations[0].Kind != BoundMax {
			t.Errorf("expected max violation, got %+v", verdict.Violations[0])
		}
	})

	t.Run("Value Exactly On Bound Does Not Breach", func(t *testing.T) {
		rule := domain.AlertRule{
			Thresholds: domain.Thresholds{
				Temperature: &domain.Band{Min: f(0.0), Max: f(35.0)},
			},
		}
		for _, value := range []float64{0.0, 35.0} {
			verdict := Evaluate(rule, domain.Reading{Temperature: f(value)})
			if verdict.Breached {
				t.Errorf("value %.1f on bound should not breach", value)
			}
		}
	})

	t.Run("Multiple Quantities Breach Together", func(t *testing.T) {
		rule := domain.AlertRule{
			Thresholds: domain.Thresholds{
				Temperature: &domain.Band{Max: f(30.0)},
				Humidity:    &domain.Band{Min: f(40.0)},
			},
		}
		reading := domain.Reading{Temperature: f(38.0), Humidity: f(20.0)}

		verdict := Evaluate(rule, reading)

		if len(verdict.Violations) != 2 {
			t.Fatalf("expected 2 violations, got %d", len(verdict.Violations))
		}
	})

	t.Run("Unmeasured Quantity Is Skipped", func(t *testing.T) {
		rule := domain.AlertRule{
			Thresholds: domain.Thresholds{Humidity: &domain.Band{Min: f(40.0)}},
		}
		verdict := Evaluate(rule, domain.Reading{Temperature: f(10.0)})

		if verdict.Breached {
			t.Error("missing measurement must not breach")
		}
	})

	t.Run("NaN Reading Never Breaches", func(t *testing.T) {
		rule := domain.AlertRule{
			Thresholds: domain.Thresholds{Temperature: &domain.Band{Min: f(2.0)}},
		}
		verdict := Evaluate(rule, domain.Reading{Temperature: f(math.NaN())})

		if verdict.Breached {
			t.Error("NaN measurement must not breach")
		}
	})

	t.Run("Malformed Band Is Reported Not Evaluated", func(t *testing.T) {
		rule := domain.AlertRule{
			Thresholds: domain.Thresholds{
				Temperature: &domain.Band{Min: f(10.0), Max: f(5.0)},
				Humidity:    &domain.Band{Min: f(40.0)},
			},
		}
		reading := domain.Reading{Temperature: f(7.0), Humidity: f(20.0)}

		verdict := Evaluate(rule, reading)

		if len(verdict.Malformed) != 1 || verdict.Malformed[0] != domain.QuantityTemperature {
			t.Errorf("expected temperature flagged malformed, got %v", verdict.Malformed)
		}
		if len(verdict.Violations) != 1 || verdict.Violations[0].Quantity != domain.QuantityHumidity {
			t.Errorf("expected only humidity to breach, got %v", verdict.Violations)
		}
	})

	t.Run("Empty Thresholds Never Breach", func(t *testing.T) {
		verdict := Evaluate(domain.AlertRule{}, domain.Reading{Temperature: f(-40.0)})
		if verdict.Breached {
			t.Error("rule without thresholds must not breach")
		}
	})
}
