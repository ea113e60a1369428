package ephemeris

import "math"

// Sign is one of the twelve 30° segments of the ecliptic, starting at 0° Aries.
type Sign int

const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

var signNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer",
	"Leo", "Virgo", "Libra", "Scorpio",
	"Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// AllSigns returns the twelve signs in ecliptic order.
func AllSigns() []Sign {
	signs := make([]Sign, 12)
	for i := range signs {
		signs[i] = Sign(i)
	}
	return signs
}

func (s Sign) String() string {
	if s < Aries || s > Pisces {
		return "Unknown"
	}
	return signNames[s]
}

// ParseSign maps a sign name back to its Sign.
func ParseSign(name string) (Sign, bool) {
	for i, n := range signNames {
		if n == name {
			return Sign(i), true
		}
	}
	return 0, false
}

// Normalize maps any angle in degrees into [0, 360).
func Normalize(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	// math.Mod of a tiny negative value can round back up to exactly 360.
	if d >= 360 {
		d = 0
	}
	return d
}

// SignOf returns the sign containing the longitude. Boundaries are half-open,
// so 30.0 is Taurus.
func SignOf(longitude float64) Sign {
	idx := int(Normalize(longitude) / 30)
	if idx > 11 {
		idx = 11
	}
	return Sign(idx)
}

// Rulers maps each sign to its ruling body's name, indexed by Sign.
type Rulers [12]string

// DefaultRulers returns the modern rulership table.
func DefaultRulers() Rulers {
	return Rulers{
		Aries:       "Mars",
		Taurus:      "Venus",
		Gemini:      "Mercury",
		Cancer:      "Moon",
		Leo:         "Sun",
		Virgo:       "Mercury",
		Libra:       "Venus",
		Scorpio:     "Pluto",
		Sagittarius: "Jupiter",
		Capricorn:   "Saturn",
		Aquarius:    "Uranus",
		Pisces:      "Neptune",
	}
}

// Of returns the ruler of s.
func (r Rulers) Of(s Sign) string {
	return r[s]
}
