package oracle

import (
	"math"

	"github.com/soniakeys/unit"

	"nebles/almanac/internal/ephemeris"
)

const (
	// lightTimeDays is the light travel time for one AU, in days.
	lightTimeDays = 0.0057755183
	// aberration is the constant of annual aberration in degrees times one AU.
	aberration = 20.4898 / 3600
	j2000      = 2451545.0
)

type vec3 struct{ x, y, z float64 }

func spherical(lon, lat, r float64) vec3 {
	sl, cl := math.Sincos(lon)
	sb, cb := math.Sincos(lat)
	return vec3{r * cb * cl, r * cb * sl, r * sb}
}

// earthFunc matches V87Planet.Position and Position2000 for the Earth.
type earthFunc func(jde float64) (unit.Angle, unit.Angle, float64)

// geocentric turns a heliocentric ephemeris into a geocentric ecliptic longitude in
// degrees, correcting the body's position for light time. The frame is whatever
// frame earth and body share.
func geocentric(earth earthFunc, jde float64, body func(jde float64) vec3) float64 {
	L0, B0, R0 := earth(jde)
	e := spherical(L0.Rad(), B0.Rad(), R0)

	var tau, lon float64
	for i := 0; i < 3; i++ {
		b := body(jde - tau)
		dx, dy, dz := b.x-e.x, b.y-e.y, b.z-e.z
		lon = math.Atan2(dy, dx) * 180 / math.Pi
		tau = lightTimeDays * math.Sqrt(dx*dx+dy*dy+dz*dz)
	}
	return lon
}

// precession is the general precession in longitude from J2000 to jde, in degrees.
func precession(jde float64) float64 {
	t := (jde - j2000) / 36525
	return (5029.0966*t + 1.11113*t*t) / 3600
}

// deltaT returns TT minus UT in seconds, after the Espenak and Meeus polynomials.
func deltaT(jd float64) float64 {
	y := 2000 + (jd-j2000)/365.25
	switch {
	case y >= 2005 && y < 2050:
		t := y - 2000
		return 62.92 + 0.32217*t + 0.005589*t*t
	case y >= 1986 && y < 2005:
		t := y - 2000
		return 63.86 + 0.3345*t - 0.060374*t*t + 0.0017275*t*t*t +
			0.000651814*t*t*t*t + 0.00002373599*t*t*t*t*t
	case y >= 1961 && y < 1986:
		t := y - 1975
		return 45.45 + 1.067*t - t*t/260 - t*t*t/718
	case y >= 1941 && y < 1961:
		t := y - 1950
		return 29.07 + 0.407*t - t*t/233 + t*t*t/2547
	case y >= 1920 && y < 1941:
		t := y - 1920
		return 21.20 + 0.84493*t - 0.076100*t*t + 0.0020936*t*t*t
	case y >= 1900 && y < 1920:
		t := y - 1900
		return -2.79 + 1.494119*t - 0.0598939*t*t + 0.0061966*t*t*t - 0.000197*t*t*t*t
	case y >= 2050 && y < 2150:
		u := (y - 1820) / 100
		return -20 + 32*u*u - 0.5628*(2150-y)
	}
	u := (y - 1820) / 100
	return -20 + 32*u*u
}

// wrap180 maps a longitude difference into (-180, 180].
func wrap180(d float64) float64 {
	d = ephemeris.Normalize(d + 180)
	if d == 0 {
		return 180
	}
	return d - 180
}
