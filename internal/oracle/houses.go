package oracle

import (
	"context"
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/nutation"

	"nebles/almanac/internal/ephemeris"
)

const deg = math.Pi / 180

// HouseCusps returns the Placidus cusps for houses 1 through 12 at jd and loc.
func (o *Oracle) HouseCusps(ctx context.Context, jd float64, loc ephemeris.Location) ([12]float64, error) {
	if err := ctx.Err(); err != nil {
		return [12]float64{}, err
	}
	if err := checkRange(jd); err != nil {
		return [12]float64{}, err
	}
	if err := loc.Validate(); err != nil {
		return [12]float64{}, err
	}

	jde := jd + deltaT(jd)/86400
	dpsi, deps := nutation.Nutation(jde)
	eps := (nutation.MeanObliquity(jde) + deps).Deg()
	ramc := ephemeris.Normalize(siderealTime(jd) + dpsi.Deg()*math.Cos(eps*deg) + loc.Longitude)

	cusps, err := placidus(ramc, eps, loc.Latitude)
	if err != nil {
		o.log.Warn().Err(err).Float64("latitude", loc.Latitude).Msg("house cusps undefined")
		return [12]float64{}, err
	}
	return cusps, nil
}

// siderealTime is the mean sidereal time at Greenwich in degrees.
func siderealTime(jd float64) float64 {
	t := (jd - j2000) / 36525
	return ephemeris.Normalize(280.46061837 + 360.98564736629*(jd-j2000) +
		0.000387933*t*t - t*t*t/38710000)
}

// placidus divides the diurnal and nocturnal semi-arcs in thirds. ramc, eps and lat
// are in degrees; the result starts at the ascendant.
func placidus(ramc, eps, lat float64) ([12]float64, error) {
	var cusps [12]float64
	if math.Abs(lat) >= 90-eps {
		return cusps, fmt.Errorf("%w: Placidus houses undefined at latitude %.4f", ephemeris.ErrEphemerisUnavailable, lat)
	}

	mc := eclipticFromRA(ramc, eps)
	asc := ephemeris.Normalize(math.Atan2(math.Cos(ramc*deg),
		-(math.Sin(ramc*deg)*math.Cos(eps*deg)+math.Tan(lat*deg)*math.Sin(eps*deg)))/deg)

	c11, err := semiArcCusp(ramc, eps, lat, 1.0/3, true)
	if err != nil {
		return cusps, err
	}
	c12, err := semiArcCusp(ramc, eps, lat, 2.0/3, true)
	if err != nil {
		return cusps, err
	}
	c2, err := semiArcCusp(ramc, eps, lat, 2.0/3, false)
	if err != nil {
		return cusps, err
	}
	c3, err := semiArcCusp(ramc, eps, lat, 1.0/3, false)
	if err != nil {
		return cusps, err
	}

	for i, c := range []float64{asc, c2, c3, mc + 180, c11 + 180, c12 + 180, asc + 180, c2 + 180, c3 + 180, mc, c11, c12} {
		cusps[i] = ephemeris.Normalize(c)
	}
	return cusps, nil
}

// semiArcCusp finds the ecliptic point that has covered fraction f of its semi-arc
// from the meridian. Above the horizon the arc runs east from the upper meridian;
// below it runs west from the lower meridian.
func semiArcCusp(ramc, eps, lat, f float64, above bool) (float64, error) {
	tanLat := math.Tan(lat * deg)
	ra := func(ad float64) float64 {
		if above {
			return ramc + f*(90+ad)
		}
		return ramc + 180 - f*(90-ad)
	}

	lon := eclipticFromRA(ra(0), eps)
	for i := 0; i < 50; i++ {
		dec := math.Asin(math.Sin(eps*deg) * math.Sin(lon*deg))
		x := tanLat * math.Tan(dec)
		if math.Abs(x) > 1 {
			return 0, fmt.Errorf("%w: Placidus cusp does not converge at latitude %.4f", ephemeris.ErrEphemerisUnavailable, lat)
		}
		next := eclipticFromRA(ra(math.Asin(x)/deg), eps)
		if math.Abs(wrap180(next-lon)) < 1e-9 {
			return next, nil
		}
		lon = next
	}
	return lon, nil
}

// eclipticFromRA returns the longitude of the ecliptic point with right ascension ra.
func eclipticFromRA(ra, eps float64) float64 {
	return ephemeris.Normalize(math.Atan2(math.Sin(ra*deg), math.Cos(ra*deg)*math.Cos(eps*deg)) / deg)
}
