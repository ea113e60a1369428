package oracle

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"nebles/almanac/internal/ephemeris"
)

// ElementsFile is the name of the optional override table in the ephemeris directory.
const ElementsFile = "asteroids.toml"

//go:embed elements.toml
var defaultElements string

// gauss is the Gaussian gravitational constant in degrees per day.
const gauss = 0.9856076686

var minorCodes = map[string]ephemeris.BodyCode{
	"chiron": ephemeris.CodeChiron,
	"ceres":  ephemeris.CodeCeres,
	"pallas": ephemeris.CodePallas,
	"juno":   ephemeris.CodeJuno,
	"vesta":  ephemeris.CodeVesta,
}

// Elements are osculating heliocentric elements referred to the J2000 ecliptic.
type Elements struct {
	Name         string  `toml:"name"`
	A            float64 `toml:"semi_major_axis"`
	E            float64 `toml:"eccentricity"`
	I            float64 `toml:"inclination"`
	Node         float64 `toml:"ascending_node"`
	Peri         float64 `toml:"perihelion_arg"`
	PerihelionJD float64 `toml:"perihelion_jd"`
}

type elementsTable struct {
	Bodies []Elements `toml:"body"`
}

// Validate rejects orbits the two-body propagation cannot handle.
func (el Elements) Validate() error {
	if el.A <= 0 {
		return fmt.Errorf("%s: semi_major_axis must be positive, got %v", el.Name, el.A)
	}
	if el.E < 0 || el.E >= 1 {
		return fmt.Errorf("%s: eccentricity must be in [0, 1), got %v", el.Name, el.E)
	}
	return nil
}

// MeanMotion returns the mean daily motion in degrees.
func (el Elements) MeanMotion() float64 {
	return gauss / math.Pow(el.A, 1.5)
}

// Heliocentric returns the body's rectangular heliocentric coordinates in AU at jde.
func (el Elements) Heliocentric(jde float64) vec3 {
	m := math.Remainder(el.MeanMotion()*(jde-el.PerihelionJD), 360) * math.Pi / 180
	ea := eccentricAnomaly(m, el.E)
	sh, ch := math.Sincos(ea / 2)
	nu := 2 * math.Atan2(math.Sqrt(1+el.E)*sh, math.Sqrt(1-el.E)*ch)
	r := el.A * (1 - el.E*math.Cos(ea))

	node := el.Node * math.Pi / 180
	incl := el.I * math.Pi / 180
	u := el.Peri*math.Pi/180 + nu

	su, cu := math.Sincos(u)
	sn, cn := math.Sincos(node)
	si, ci := math.Sincos(incl)
	return vec3{
		x: r * (cn*cu - sn*su*ci),
		y: r * (sn*cu + cn*su*ci),
		z: r * su * si,
	}
}

// eccentricAnomaly solves Kepler's equation M = E - e sin E by Newton iteration.
func eccentricAnomaly(m, e float64) float64 {
	ea := m
	if e > 0.8 {
		ea = math.Pi
	}
	for i := 0; i < 50; i++ {
		d := (ea - e*math.Sin(ea) - m) / (1 - e*math.Cos(ea))
		ea -= d
		if math.Abs(d) < 1e-12 {
			break
		}
	}
	return ea
}

// LoadElements reads asteroids.toml from dir when present and falls back to the
// embedded table otherwise. Every minor body must be covered. It also returns the
// source the table came from.
func LoadElements(dir string) (map[ephemeris.BodyCode]Elements, string, error) {
	path := filepath.Join(dir, ElementsFile)
	data, err := os.ReadFile(path)
	source := path
	switch {
	case errors.Is(err, fs.ErrNotExist):
		data, source = []byte(defaultElements), "embedded"
	case err != nil:
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}

	els, err := parseElements(string(data))
	if err != nil {
		return nil, "", fmt.Errorf("parsing %s elements: %w", source, err)
	}
	return els, source, nil
}

func parseElements(data string) (map[ephemeris.BodyCode]Elements, error) {
	var table elementsTable
	if _, err := toml.Decode(data, &table); err != nil {
		return nil, err
	}

	els := make(map[ephemeris.BodyCode]Elements, len(table.Bodies))
	for _, el := range table.Bodies {
		code, ok := minorCodes[strings.ToLower(el.Name)]
		if !ok {
			return nil, fmt.Errorf("unknown minor body %q", el.Name)
		}
		if err := el.Validate(); err != nil {
			return nil, err
		}
		els[code] = el
	}
	for name, code := range minorCodes {
		if _, ok := els[code]; !ok {
			return nil, fmt.Errorf("missing elements for %s", name)
		}
	}
	return els, nil
}
