// Package synthetic generates deterministic event fixtures for trying
// the pipeline without a production database.
package synthetic

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/okian/timefold/internal/domain/matrix"
	"github.com/okian/timefold/internal/domain/model"
)

// Constants for amount generation ranges.
const (
	avgPerformerMin    = 3.0
	avgPerformerRange  = 4.0
	highPerformerMin   = 7.0
	highPerformerRange = 2.0
	lowPerformerMin    = 0.1
	lowPerformerRange  = 2.9
	wideRangeMin       = 0.1
	wideRange          = 9.9
	performerBands     = 4
)

// Config controls fixture generation. The seed fixes every random draw,
// so two runs with equal configs produce identical fixtures.
type Config struct {
	Seed            int64
	Entities        int
	EventsPerEntity int
	// Events carry knowledge dates in [Start, End).
	Start time.Time
	End   time.Time
	// Colors is the categorical choice pool.
	Colors []string
	// PositiveRate is the share of positive labels, in [0, 1].
	PositiveRate float64
}

func (c Config) withDefaults() Config {
	if c.Entities <= 0 {
		c.Entities = 100
	}
	if c.EventsPerEntity <= 0 {
		c.EventsPerEntity = 20
	}
	if c.Start.IsZero() {
		c.Start = time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if c.End.IsZero() || !c.End.After(c.Start) {
		c.End = c.Start.AddDate(5, 0, 0)
	}
	if len(c.Colors) == 0 {
		c.Colors = []string{"red", "green", "blue"}
	}
	if c.PositiveRate <= 0 || c.PositiveRate > 1 {
		c.PositiveRate = 0.3
	}
	return c
}

// Rows generates the event rows of the fixture.
func Rows(cfg Config) []model.Row {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // fixtures must be reproducible

	span := cfg.End.Sub(cfg.Start)
	rows := make([]model.Row, 0, cfg.Entities*cfg.EventsPerEntity)
	for e := 0; e < cfg.Entities; e++ {
		entityID := entityID(e)
		for i := 0; i < cfg.EventsPerEntity; i++ {
			rows = append(rows, model.Row{
				EntityID:      entityID,
				KnowledgeDate: cfg.Start.Add(time.Duration(rng.Int63n(int64(span)))).Truncate(24 * time.Hour),
				Quantities:    map[string]float64{"amount": variedAmount(rng)},
				Attributes:    map[string]string{"color": cfg.Colors[rng.Intn(len(cfg.Colors))]},
			})
		}
	}
	return rows
}

// Labels draws one label per (entity, as-of date) at the configured
// positive rate.
func Labels(cfg Config, asOfDates []time.Time) matrix.Labels {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed + 1)) //nolint:gosec // fixtures must be reproducible

	labels := make(matrix.Labels, cfg.Entities*len(asOfDates))
	for e := 0; e < cfg.Entities; e++ {
		entityID := entityID(e)
		for _, asOf := range asOfDates {
			v := rng.Float64() < cfg.PositiveRate
			labels[matrix.LabelKey{EntityID: entityID, AsOf: asOf}] = &v
		}
	}
	return labels
}

func entityID(i int) string {
	return fmt.Sprintf("entity_%04d", i)
}

// variedAmount draws from one of several performer bands so the
// aggregates see a realistic, skewed distribution.
func variedAmount(rng *rand.Rand) float64 {
	switch rng.Intn(performerBands) {
	case 0:
		return avgPerformerMin + rng.Float64()*avgPerformerRange
	case 1:
		return highPerformerMin + rng.Float64()*highPerformerRange
	case 2:
		return lowPerformerMin + rng.Float64()*lowPerformerRange
	default:
		return wideRangeMin + rng.Float64()*wideRange
	}
}
