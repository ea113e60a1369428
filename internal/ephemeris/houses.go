package ephemeris

import "fmt"

// HouseOf returns the 1-based house whose cyclic half-open interval
// [cusps[i], cusps[i+1 mod 12]) contains the longitude. An interval whose end is
// numerically at or below its start wraps past 360°.
func HouseOf(longitude float64, cusps []float64) (int, error) {
	if len(cusps) != 12 {
		return 0, fmt.Errorf("%w: got %d cusps, want 12", ErrInvalidCusps, len(cusps))
	}
	deg := Normalize(longitude)
	for i := 0; i < 12; i++ {
		start := Normalize(cusps[i])
		end := Normalize(cusps[(i+1)%12])
		if end <= start {
			end += 360
		}
		if (start <= deg && deg < end) || deg+360 < end {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: longitude %.6f", ErrInvalidCusps, deg)
}
