package domain

import "time"

// Reading is one snapshot of environmental measurements for a location.
// Pointer fields distinguish "unmeasured" from zero; an unmeasured quantity
// can never breach a rule. Readings are immutable once fetched.
type Reading struct {
	LocationID      string    `json:"location_id"`
	Temperature     *float64  `json:"temperature,omitempty"`
	Humidity        *float64  `json:"humidity,omitempty"`
	PrecipitationMm *float64  `json:"precipitation_mm,omitempty"`
	WindSpeedKmh    *float64  `json:"wind_speed_kmh,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Value returns the measured value for a quantity, or false if unmeasured.
func (r Reading) Value(q Quantity) (float64, bool) {
	var p *float64
	switch q {
	case QuantityTemperature:
		p = r.Temperature
	case QuantityHumidity:
		p = r.Humidity
	case QuantityPrecipitation:
		p = r.PrecipitationMm
	case QuantityWindSpeed:
		p = r.WindSpeedKmh
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}
