package usecase

import (
	"fmt"
	"math"

	"github.com/user/agro-alert/internal/domain"
)

// BoundKind says which side of a band a violation crossed.
type BoundKind string

const (
	BoundMin BoundKind = "min"
	BoundMax BoundKind = "max"
)

// Violation describes one quantity that fell outside its band.
type Violation struct {
	Quantity domain.Quantity
	Value    float64
	Bound    float64
	Kind     BoundKind
}

func (v Violation) String() string {
	dir := "below"
	if v.Kind == BoundMax {
		dir = "above"
	}
	return fmt.Sprintf("%s %.1f %s %s %.1f", v.Quantity, v.Value, dir, v.Kind, v.Bound)
}

// Verdict is the result of evaluating one rule against one reading.
type Verdict struct {
	Breached   bool
	Violations []Violation
	// Malformed lists quantities whose band has min > max. Such bands never
	// breach; callers surface them as a data-quality warning.
	Malformed []domain.Quantity
}

// Evaluate decides whether a rule's thresholds are breached by a reading.
// Pure: no I/O, no mutation, never panics. Comparisons are strict, so a
// value exactly on a bound does not breach. Quantities without a band, or
// unmeasured in the reading, are skipped. A rule with no thresholds at all
// never breaches.
func Evaluate(rule domain.AlertRule, reading domain.Reading) Verdict {
	var v Verdict
	checkBand(&v, domain.QuantityTemperature, rule.Thresholds.Temperature, reading)
	checkBand(&v, domain.QuantityHumidity, rule.Thresholds.Humidity, reading)
	checkBand(&v, domain.QuantityPrecipitation, rule.Thresholds.Precipitation, reading)
	checkBand(&v, domain.QuantityWindSpeed, rule.Thresholds.WindSpeed, reading)
	v.Breached = len(v.Violations) > 0
	return v
}

func checkBand(v *Verdict, q domain.Quantity, band *domain.Band, reading domain.Reading) {
	if band == nil {
		return
	}
	if band.Malformed() {
		v.Malformed = append(v.Malformed, q)
		return
	}
	value, ok := reading.Value(q)
	if !ok || math.IsNaN(value) {
		return
	}
	if band.Min != nil && !math.IsNaN(*band.Min) && value < *band.Min {
		v.Violations = append(v.Violations, Violation{Quantity: q, Value: value, Bound: *band.Min, Kind: BoundMin})
		return
	}
	if band.Max != nil && !math.IsNaN(*band.Max) && value > *band.Max {
		v.Violations = append(v.Violations, Violation{Quantity: q, Value: value, Bound: *band.Max, Kind: BoundMax})
	}
}
