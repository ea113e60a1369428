package ephemeris

import "math"

// AspectKind is a named target separation with its tolerance window.
type AspectKind struct {
	Name  string
	Angle float64
	Orb   float64
}

// Matches reports whether a separation falls within Angle ± Orb.
func (k AspectKind) Matches(separation float64) bool {
	return math.Abs(separation-k.Angle) <= k.Orb
}

// DefaultAspectKinds returns the seven aspect kinds. The orbs never overlap.
func DefaultAspectKinds() []AspectKind {
	return []AspectKind{
		{Name: "conjunction", Angle: 0, Orb: 10},
		{Name: "semisextile", Angle: 30, Orb: 2},
		{Name: "sextile", Angle: 60, Orb: 6},
		{Name: "square", Angle: 90, Orb: 8},
		{Name: "trine", Angle: 120, Orb: 8},
		{Name: "quincunx", Angle: 150, Orb: 2},
		{Name: "opposition", Angle: 180, Orb: 10},
	}
}

// Aspect is a matched relationship between two distinct bodies. Body1 precedes Body2
// in catalog order.
type Aspect struct {
	Body1 string
	Body2 string
	Kind  string
	Angle float64 // separation in [0, 180], unrounded
	Sign1 Sign
	Sign2 Sign
}

// AngularSeparation returns the smallest angle between two longitudes, in [0, 180].
func AngularSeparation(a, b float64) float64 {
	d := Normalize(math.Abs(a - b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// ComputeAspects checks every unordered pair of positions once, outer index before
// inner, and records each kind whose window contains the pair's separation.
// A pair is never deduplicated: overlapping windows would yield one aspect per match.
func ComputeAspects(positions []Position, kinds []AspectKind) []Aspect {
	aspects := []Aspect{}
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			p1, p2 := positions[i], positions[j]
			sep := AngularSeparation(p1.Longitude, p2.Longitude)
			for _, k := range kinds {
				if !k.Matches(sep) {
					continue
				}
				aspects = append(aspects, Aspect{
					Body1: p1.Body,
					Body2: p2.Body,
					Kind:  k.Name,
					Angle: sep,
					Sign1: p1.Sign,
					Sign2: p2.Sign,
				})
			}
		}
	}
	return aspects
}
