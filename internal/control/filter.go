package control

import "math"

// BandFilter holds the last accepted reading of one analog sensor.
// A new raw reading replaces it only when it moves further than the band
// away from the accepted value; smaller wobble is ignored.
type BandFilter struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Update feeds one raw reading and returns the filtered value.
// The first finite reading is always accepted. Non-finite readings are
// dropped, so a filter that never saw a good reading reports NaN.
func (f BandFilter) Update(raw, band float64) BandFilter {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return f
	}
	if !f.Valid || math.Abs(raw-f.Value) > band {
		return BandFilter{Value: raw, Valid: true}
	}
	return f
}

// Reading returns the accepted value, or NaN before the first accepted reading.
func (f BandFilter) Reading() float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Value
}
