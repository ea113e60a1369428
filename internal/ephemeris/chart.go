package ephemeris

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// Location is an observer's geographic position in degrees, east and north positive.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks both coordinates are in range.
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %.6f outside [-90, 90]", ErrInvalidLocation, l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %.6f outside [-180, 180]", ErrInvalidLocation, l.Longitude)
	}
	return nil
}

// Query describes one calculation. Houses are computed only when TimeKnown is set
// and a Location is supplied; otherwise only signs and aspects are produced.
type Query struct {
	Time      time.Time
	Location  *Location
	TimeKnown bool
}

// WantsHouses reports whether the query asks for house placement.
func (q Query) WantsHouses() bool {
	return q.TimeKnown && q.Location != nil
}

// BodyState is what the oracle reports for one body at one instant.
type BodyState struct {
	Longitude float64 // ecliptic longitude of date, degrees
	Speed     float64 // degrees per day, negative when retrograde
}

// Oracle resolves body positions and house cusps. Implementations may read data files
// and must fail with an error wrapping ErrEphemerisUnavailable when they cannot answer.
type Oracle interface {
	BodyPosition(ctx context.Context, jd float64, code BodyCode) (BodyState, error)
	HouseCusps(ctx context.Context, jd float64, loc Location) ([12]float64, error)
}

// Position is one body's placement in a chart.
type Position struct {
	Body       string
	Longitude  float64 // [0, 360)
	Degree     float64 // [0, 30)
	Minute     float64 // [0, 60), minute of the degree
	Sign       Sign
	Speed      float64
	Retrograde bool
	House      int // 1..12, 0 when houses were not computed
}

// NewPosition derives degree, minute, sign and retrograde flag from a longitude and speed.
func NewPosition(body string, longitude, speed float64) Position {
	lon := Normalize(longitude)
	return Position{
		Body:       body,
		Longitude:  lon,
		Degree:     math.Mod(lon, 30),
		Minute:     math.Mod(lon, 1) * 60,
		Sign:       SignOf(lon),
		Speed:      speed,
		Retrograde: speed < 0,
	}
}

// Chart is the full result of one calculation.
type Chart struct {
	Query     Query
	JulianDay float64
	Positions []Position
	Cusps     []float64 // nil when houses were not computed
	Aspects   []Aspect
}

// Position looks a body up by name.
func (c *Chart) Position(body string) (Position, bool) {
	for _, p := range c.Positions {
		if p.Body == body {
			return p, true
		}
	}
	return Position{}, false
}

// HasHouses reports whether house cusps were computed.
func (c *Chart) HasHouses() bool {
	return c.Cusps != nil
}

// JulianDay converts a civil instant to a UT Julian day. The time is taken in UTC and
// the hour carries minutes and seconds as a fraction.
func JulianDay(t time.Time) float64 {
	t = t.UTC()
	hour := float64(t.Hour()) +
		float64(t.Minute())/60 +
		(float64(t.Second())+float64(t.Nanosecond())/1e9)/3600
	return julian.CalendarGregorianToJD(t.Year(), int(t.Month()), float64(t.Day())+hour/24)
}
