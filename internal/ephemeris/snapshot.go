package ephemeris

import (
	"math"
	"time"
)

// PositionEntry is one body's row in a snapshot.
type PositionEntry struct {
	Longitude  float64 `json:"longitude"`
	Degree     float64 `json:"degree"`
	Minute     float64 `json:"minute"`
	Zodiac     string  `json:"zodiac"`
	Retrograde bool    `json:"retrograde"`
	House      *int    `json:"house"`
}

// AspectEntry is one aspect in a snapshot.
type AspectEntry struct {
	Body1  string  `json:"body1"`
	Body2  string  `json:"body2"`
	Aspect string  `json:"aspect"`
	Angle  float64 `json:"angle"`
	Sign1  string  `json:"sign1"`
	Sign2  string  `json:"sign2"`
}

// SignEntry is the block for one sign in focus. Positions, aspects and cusps are the
// same in every block; only the sign and its ruler differ.
type SignEntry struct {
	ZodiacSign  string                 `json:"zodiac_sign"`
	FocusPlanet string                 `json:"focus_planet"`
	Positions   Ordered[PositionEntry] `json:"positions"`
	Aspects     []AspectEntry          `json:"aspects"`
	HouseCusps  []float64              `json:"house_cusps"`
}

// Snapshot is the persisted document for one run.
type Snapshot struct {
	TimeUTC      string             `json:"time_utc"`
	ZodiacRulers Ordered[string]    `json:"zodiac_rulers"`
	Data         Ordered[SignEntry] `json:"data"`

	// Time is the query instant; it names the output file and is not serialized.
	Time time.Time `json:"-"`
}

// Entry returns the block for one sign.
func (s *Snapshot) Entry(sign Sign) (SignEntry, bool) {
	return s.Data.Get(sign.String())
}

// FormatTimeUTC renders t as ISO-8601 in UTC with a trailing Z, keeping microseconds
// only when they are non-zero.
func FormatTimeUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.999999") + "Z"
}

// BuildSnapshot assembles the twelve sign blocks from a chart. Values are rounded as
// documented: longitude, degree and cusps to 6 places, minute and angle to 2.
func BuildSnapshot(chart *Chart, rulers Rulers) *Snapshot {
	var positions Ordered[PositionEntry]
	for _, p := range chart.Positions {
		entry := PositionEntry{
			Longitude:  round(p.Longitude, 6),
			Degree:     round(p.Degree, 6),
			Minute:     round(p.Minute, 2),
			Zodiac:     p.Sign.String(),
			Retrograde: p.Retrograde,
		}
		if chart.HasHouses() && p.House > 0 {
			h := p.House
			entry.House = &h
		}
		positions.Set(p.Body, entry)
	}

	aspects := make([]AspectEntry, 0, len(chart.Aspects))
	for _, a := range chart.Aspects {
		aspects = append(aspects, AspectEntry{
			Body1:  a.Body1,
			Body2:  a.Body2,
			Aspect: a.Kind,
			Angle:  round(a.Angle, 2),
			Sign1:  a.Sign1.String(),
			Sign2:  a.Sign2.String(),
		})
	}

	var cusps []float64
	if chart.HasHouses() {
		cusps = make([]float64, len(chart.Cusps))
		for i, c := range chart.Cusps {
			cusps[i] = round(c, 6)
		}
	}

	snap := &Snapshot{
		TimeUTC: FormatTimeUTC(chart.Query.Time),
		Time:    chart.Query.Time.UTC(),
	}
	for _, sign := range AllSigns() {
		snap.ZodiacRulers.Set(sign.String(), rulers.Of(sign))
		snap.Data.Set(sign.String(), SignEntry{
			ZodiacSign:  sign.String(),
			FocusPlanet: rulers.Of(sign),
			Positions:   positions,
			Aspects:     aspects,
			HouseCusps:  cusps,
		})
	}
	return snap
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
