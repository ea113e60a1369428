// Package oracle resolves geocentric ecliptic longitudes and Placidus house cusps
// from VSOP87 data files, the lunar theory of Meeus, and osculating orbital elements
// for the minor bodies.
package oracle

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	pp "github.com/soniakeys/meeus/v3/planetposition"
	"github.com/soniakeys/meeus/v3/pluto"

	"nebles/almanac/internal/ephemeris"
)

// Supported date range, in UT Julian days.
var (
	MinJD = julian.CalendarGregorianToJD(1000, 1, 1)
	MaxJD = julian.CalendarGregorianToJD(3000, 1, 1)
)

// vsopFiles names the VSOP87B file suffix for each planet index.
var vsopFiles = map[int]string{
	pp.Mercury: "VSOP87B.mer",
	pp.Venus:   "VSOP87B.ven",
	pp.Earth:   "VSOP87B.ear",
	pp.Mars:    "VSOP87B.mar",
	pp.Jupiter: "VSOP87B.jup",
	pp.Saturn:  "VSOP87B.sat",
	pp.Uranus:  "VSOP87B.ura",
	pp.Neptune: "VSOP87B.nep",
}

var planetIndex = map[ephemeris.BodyCode]int{
	ephemeris.CodeMercury: pp.Mercury,
	ephemeris.CodeVenus:   pp.Venus,
	ephemeris.CodeMars:    pp.Mars,
	ephemeris.CodeJupiter: pp.Jupiter,
	ephemeris.CodeSaturn:  pp.Saturn,
	ephemeris.CodeUranus:  pp.Uranus,
	ephemeris.CodeNeptune: pp.Neptune,
}

// Oracle implements ephemeris.Oracle.
type Oracle struct {
	dir     string
	planets map[int]*pp.V87Planet
	minor   map[ephemeris.BodyCode]Elements
	log     *zerolog.Logger
}

// Open loads the VSOP87B files and minor-body elements found in dir. A missing or
// unreadable data file makes the oracle unavailable.
func Open(dir string, log *zerolog.Logger) (*Oracle, error) {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	o := &Oracle{
		dir:     dir,
		planets: make(map[int]*pp.V87Planet, len(vsopFiles)),
		log:     log,
	}
	for idx, name := range vsopFiles {
		p, err := pp.LoadPlanetPath(idx, dir)
		if err != nil {
			return nil, fmt.Errorf("%w: loading %s: %w", ephemeris.ErrEphemerisUnavailable, filepath.Join(dir, name), err)
		}
		o.planets[idx] = p
	}

	minor, source, err := LoadElements(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ephemeris.ErrEphemerisUnavailable, err)
	}
	o.minor = minor
	log.Debug().Str("dir", dir).Str("elements", source).Int("minor_bodies", len(minor)).Msg("ephemeris loaded")
	return o, nil
}

// Dir returns the directory the data files were read from.
func (o *Oracle) Dir() string {
	return o.dir
}

// BodyPosition returns the apparent geocentric longitude of date and its daily motion.
func (o *Oracle) BodyPosition(ctx context.Context, jd float64, code ephemeris.BodyCode) (ephemeris.BodyState, error) {
	if err := ctx.Err(); err != nil {
		return ephemeris.BodyState{}, err
	}
	if err := checkRange(jd); err != nil {
		return ephemeris.BodyState{}, err
	}

	lon, err := o.longitude(code, jd)
	if err != nil {
		return ephemeris.BodyState{}, err
	}
	before, err := o.longitude(code, jd-0.5)
	if err != nil {
		return ephemeris.BodyState{}, err
	}
	after, err := o.longitude(code, jd+0.5)
	if err != nil {
		return ephemeris.BodyState{}, err
	}
	return ephemeris.BodyState{
		Longitude: ephemeris.Normalize(lon),
		Speed:     wrap180(after - before),
	}, nil
}

func checkRange(jd float64) error {
	if jd < MinJD || jd > MaxJD || math.IsNaN(jd) {
		return fmt.Errorf("%w: %w: jd %.1f not in [%.1f, %.1f]",
			ephemeris.ErrEphemerisUnavailable, ephemeris.ErrDateOutOfRange, jd, MinJD, MaxJD)
	}
	return nil
}

// longitude dispatches on the body code. jd is UT; theories take dynamical time.
func (o *Oracle) longitude(code ephemeris.BodyCode, jd float64) (float64, error) {
	jde := jd + deltaT(jd)/86400
	dpsi, _ := nutation.Nutation(jde)
	earth := o.planets[pp.Earth]

	switch code {
	case ephemeris.CodeSun:
		L, _, R := earth.Position(jde)
		return L.Deg() + 180 + dpsi.Deg() - aberration/R, nil
	case ephemeris.CodeMoon:
		lambda, _, _ := moonposition.Position(jde)
		return lambda.Deg() + dpsi.Deg(), nil
	case ephemeris.CodeTrueNode:
		return moonposition.TrueNode(jde).Deg() + dpsi.Deg(), nil
	case ephemeris.CodePluto:
		lon := geocentric(earth.Position2000, jde, func(t float64) vec3 {
			l, b, r := pluto.Heliocentric(t)
			return spherical(l.Rad(), b.Rad(), r)
		})
		return lon + precession(jde) + dpsi.Deg(), nil
	}

	if idx, ok := planetIndex[code]; ok {
		planet := o.planets[idx]
		lon := geocentric(earth.Position, jde, func(t float64) vec3 {
			L, B, R := planet.Position(t)
			return spherical(L.Rad(), B.Rad(), R)
		})
		return lon + dpsi.Deg(), nil
	}

	if el, ok := o.minor[code]; ok {
		lon := geocentric(earth.Position2000, jde, el.Heliocentric)
		return lon + precession(jde) + dpsi.Deg(), nil
	}

	return 0, fmt.Errorf("%w: no theory for body code %s", ephemeris.ErrEphemerisUnavailable, code)
}
