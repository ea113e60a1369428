package ephemeris

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Config holds the static tables a Calculator works from. They are read-only once
// the calculator is built.
type Config struct {
	Bodies      []Body
	AspectKinds []AspectKind
	Rulers      Rulers
	Logger      *zerolog.Logger
}

// DefaultConfig returns the 17-body catalog, the seven aspect kinds and the modern rulers.
func DefaultConfig() *Config {
	nop := zerolog.Nop()
	return &Config{
		Bodies:      DefaultBodies(),
		AspectKinds: DefaultAspectKinds(),
		Rulers:      DefaultRulers(),
		Logger:      &nop,
	}
}

// Sink receives a finished snapshot. It may write a file, collect in memory or send
// it elsewhere.
type Sink interface {
	Write(ctx context.Context, snap *Snapshot) error
}

// Calculator computes charts from an Oracle.
type Calculator struct {
	oracle Oracle
	bodies []Body
	kinds  []AspectKind
	rulers Rulers
	log    *zerolog.Logger
}

// New builds a Calculator. A nil config means DefaultConfig.
func New(oracle Oracle, config *Config) *Calculator {
	def := DefaultConfig()
	if config == nil {
		config = def
	}
	c := &Calculator{
		oracle: oracle,
		bodies: append([]Body(nil), config.Bodies...),
		kinds:  append([]AspectKind(nil), config.AspectKinds...),
		rulers: config.Rulers,
		log:    config.Logger,
	}
	if len(c.bodies) == 0 {
		c.bodies = def.Bodies
	}
	if len(c.kinds) == 0 {
		c.kinds = def.AspectKinds
	}
	if c.rulers == (Rulers{}) {
		c.rulers = def.Rulers
	}
	if c.log == nil {
		c.log = def.Logger
	}
	return c
}

// Bodies returns a copy of the catalog in enumeration order.
func (c *Calculator) Bodies() []Body {
	return append([]Body(nil), c.bodies...)
}

// AspectKinds returns a copy of the aspect table.
func (c *Calculator) AspectKinds() []AspectKind {
	return append([]AspectKind(nil), c.kinds...)
}

// Rulers returns the sign rulership table.
func (c *Calculator) Rulers() Rulers {
	return c.rulers
}

// ComputePositions resolves every body, derives opposite points, places bodies in
// houses when the query asks for them and finds all aspects. Any oracle failure
// aborts the whole chart.
func (c *Calculator) ComputePositions(ctx context.Context, q Query) (*Chart, error) {
	if q.Location != nil {
		if err := q.Location.Validate(); err != nil {
			return nil, err
		}
	}

	jd := JulianDay(q.Time)
	positions := make([]Position, 0, len(c.bodies))
	index := make(map[string]int, len(c.bodies))

	for _, b := range c.bodies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var pos Position
		if b.Derived() {
			i, ok := index[b.OppositeOf]
			if !ok {
				return nil, fmt.Errorf("body %s: opposite point of %s which is not resolved before it", b.Name, b.OppositeOf)
			}
			src := positions[i]
			pos = NewPosition(b.Name, src.Longitude+180, src.Speed)
			pos.Retrograde = src.Retrograde
		} else {
			state, err := c.oracle.BodyPosition(ctx, jd, b.Code)
			if err != nil {
				c.log.Error().Err(err).Str("body", b.Name).Str("step", "positions").Float64("jd", jd).Msg("resolving body")
				return nil, fmt.Errorf("resolving %s: %w", b.Name, unavailable(err))
			}
			pos = NewPosition(b.Name, state.Longitude, state.Speed)
		}

		index[b.Name] = len(positions)
		positions = append(positions, pos)
		c.log.Debug().
			Str("body", b.Name).
			Float64("longitude", pos.Longitude).
			Str("sign", pos.Sign.String()).
			Bool("retrograde", pos.Retrograde).
			Msg("resolved body")
	}

	chart := &Chart{
		Query:     q,
		JulianDay: jd,
		Positions: positions,
	}

	if q.WantsHouses() {
		cusps, err := c.oracle.HouseCusps(ctx, jd, *q.Location)
		if err != nil {
			c.log.Error().Err(err).Str("step", "houses").Float64("jd", jd).Msg("computing house cusps")
			return nil, fmt.Errorf("computing house cusps: %w", unavailable(err))
		}
		chart.Cusps = make([]float64, 12)
		for i, cusp := range cusps {
			chart.Cusps[i] = Normalize(cusp)
		}
		for i := range chart.Positions {
			if !c.bodies[i].InHouses {
				continue
			}
			house, err := HouseOf(chart.Positions[i].Longitude, chart.Cusps)
			if err != nil {
				return nil, fmt.Errorf("placing %s: %w", chart.Positions[i].Body, err)
			}
			chart.Positions[i].House = house
		}
	}

	chart.Aspects = ComputeAspects(chart.Positions, c.kinds)
	c.log.Info().
		Int("bodies", len(chart.Positions)).
		Int("aspects", len(chart.Aspects)).
		Bool("houses", chart.HasHouses()).
		Msg("calculated positions, signs, retrograde status, aspects and houses")
	return chart, nil
}

// Run computes a chart, assembles its snapshot and hands it to the sink.
func (c *Calculator) Run(ctx context.Context, q Query, sink Sink) (*Chart, *Snapshot, error) {
	chart, err := c.ComputePositions(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	snap := BuildSnapshot(chart, c.rulers)
	if sink != nil {
		if err := sink.Write(ctx, snap); err != nil {
			c.log.Error().Err(err).Str("step", "write").Msg("saving snapshot")
			return chart, nil, err
		}
	}
	return chart, snap, nil
}

// unavailable makes sure an oracle failure is classified as ErrEphemerisUnavailable
// while keeping the original cause inspectable.
func unavailable(err error) error {
	if errors.Is(err, ErrEphemerisUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrEphemerisUnavailable, err)
}
