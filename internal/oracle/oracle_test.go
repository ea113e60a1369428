package oracle

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nebles/almanac/internal/ephemeris"
)

func approx(a, b, tol float64) bool {
	return math.Abs(wrap180(a-b)) <= tol
}

func TestPlacidusEquator(t *testing.T) {
	cusps, err := placidus(0, 23.4393, 0)
	if err != nil {
		t.Fatalf("placidus: %v", err)
	}
	checks := []struct {
		house int
		want  float64
	}{
		{1, 90},
		{4, 180},
		{7, 270},
		{10, 0},
		{11, 32.18},
		{5, 212.18},
	}
	for _, c := range checks {
		if got := cusps[c.house-1]; !approx(got, c.want, 0.05) {
			t.Errorf("cusp %d = %.4f, want %.2f", c.house, got, c.want)
		}
	}
}

func TestPlacidusLondonAscendant(t *testing.T) {
	cusps, err := placidus(0, 23.4393, 51.5)
	if err != nil {
		t.Fatalf("placidus: %v", err)
	}
	if !approx(cusps[0], 116.57, 0.05) {
		t.Errorf("ascendant = %.4f, want ~116.57", cusps[0])
	}
	if !approx(cusps[9], 0, 1e-9) {
		t.Errorf("midheaven = %.4f, want 0", cusps[9])
	}
}

func TestPlacidusCuspsWrapOnce(t *testing.T) {
	for _, lat := range []float64{-45, 0, 37.9, 51.5, 60} {
		for ramc := 0.0; ramc < 360; ramc += 15 {
			cusps, err := placidus(ramc, 23.44, lat)
			if err != nil {
				t.Fatalf("lat %v ramc %v: %v", lat, ramc, err)
			}
			total := 0.0
			for i := range cusps {
				arc := ephemeris.Normalize(cusps[(i+1)%12] - cusps[i])
				if arc <= 0 {
					t.Errorf("lat %v ramc %v: empty house %d", lat, ramc, i+1)
				}
				total += arc
			}
			if math.Abs(total-360) > 1e-6 {
				t.Errorf("lat %v ramc %v: arcs sum to %.4f, want 360", lat, ramc, total)
			}
			for lon := 0.5; lon < 360; lon += 7 {
				if _, err := ephemeris.HouseOf(lon, cusps[:]); err != nil {
					t.Errorf("lat %v ramc %v: HouseOf(%v): %v", lat, ramc, lon, err)
				}
			}
		}
	}
}

func TestPlacidusPolar(t *testing.T) {
	_, err := placidus(120, 23.44, 70)
	if !errors.Is(err, ephemeris.ErrEphemerisUnavailable) {
		t.Fatalf("err = %v, want ErrEphemerisUnavailable", err)
	}
}

func TestSiderealTime(t *testing.T) {
	// Meeus example 12.a: 1987 April 10, 0h UT.
	got := siderealTime(2446895.5)
	if !approx(got, 197.693195, 1e-4) {
		t.Errorf("siderealTime = %.6f, want 197.693195", got)
	}
}

func TestDeltaT(t *testing.T) {
	tests := []struct {
		year     int
		min, max float64
	}{
		{1900, -5, 0},
		{1950, 27, 31},
		{2000, 63, 65},
		{2024, 68, 76},
	}
	for _, tt := range tests {
		jd := ephemeris.JulianDay(time.Date(tt.year, 1, 1, 0, 0, 0, 0, time.UTC))
		if got := deltaT(jd); got < tt.min || got > tt.max {
			t.Errorf("deltaT(%d) = %.2f, want in [%v, %v]", tt.year, got, tt.min, tt.max)
		}
	}
}

func TestWrap180(t *testing.T) {
	tests := map[float64]float64{
		0:    0,
		359:  -1,
		-359: 1,
		180:  180,
		-180: 180,
		90.5: 90.5,
	}
	for in, want := range tests {
		if got := wrap180(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("wrap180(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestCheckRange(t *testing.T) {
	if err := checkRange(ephemeris.JulianDay(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))); err != nil {
		t.Errorf("2024: %v", err)
	}
	err := checkRange(MinJD - 1)
	if !errors.Is(err, ephemeris.ErrDateOutOfRange) || !errors.Is(err, ephemeris.ErrEphemerisUnavailable) {
		t.Errorf("before range: err = %v", err)
	}
	if err := checkRange(MaxJD + 1); !errors.Is(err, ephemeris.ErrDateOutOfRange) {
		t.Errorf("after range: err = %v", err)
	}
}

func TestOpenMissingFiles(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"), nil)
	if !errors.Is(err, ephemeris.ErrEphemerisUnavailable) {
		t.Fatalf("err = %v, want ErrEphemerisUnavailable", err)
	}
}

// TestOracleWithData runs against real VSOP87B files when ALMANAC_TEST_EPHE points at them.
func TestOracleWithData(t *testing.T) {
	dir := os.Getenv("ALMANAC_TEST_EPHE")
	if dir == "" {
		t.Skip("ALMANAC_TEST_EPHE not set")
	}
	o, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	jd := ephemeris.JulianDay(time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC))

	sun, err := o.BodyPosition(ctx, jd, ephemeris.CodeSun)
	if err != nil {
		t.Fatalf("sun: %v", err)
	}
	if sun.Longitude < 0 || sun.Longitude > 1 {
		t.Errorf("sun longitude = %.4f, want just past the equinox", sun.Longitude)
	}
	if sun.Speed < 0.9 || sun.Speed > 1.1 {
		t.Errorf("sun speed = %.4f", sun.Speed)
	}

	node, err := o.BodyPosition(ctx, jd, ephemeris.CodeTrueNode)
	if err != nil {
		t.Fatalf("node: %v", err)
	}
	if node.Longitude < 10 || node.Longitude > 20 {
		t.Errorf("true node = %.4f, want in early Aries", node.Longitude)
	}

	for code := ephemeris.CodeSun; code <= ephemeris.CodeVesta; code++ {
		state, err := o.BodyPosition(ctx, jd, code)
		if err != nil {
			t.Errorf("%s: %v", code, err)
			continue
		}
		if state.Longitude < 0 || state.Longitude >= 360 {
			t.Errorf("%s: longitude %v out of range", code, state.Longitude)
		}
	}

	cusps, err := o.HouseCusps(ctx, jd, ephemeris.Location{Latitude: 51.5, Longitude: -0.12})
	if err != nil {
		t.Fatalf("HouseCusps: %v", err)
	}
	for i, c := range cusps {
		if c < 0 || c >= 360 {
			t.Errorf("cusp %d = %v", i+1, c)
		}
	}
}
