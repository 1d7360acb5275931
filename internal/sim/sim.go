// Package sim drives repeated encounter resolution for one terrain and
// streams the per-encounter totals.
package sim

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/encountersim/internal/game/encounter"
)

// ErrUnknownTerrain is returned by Run when the terrain has no column in the
// main table.
var ErrUnknownTerrain = encounter.ErrUnknownTerrain

// Resolver is the part of encounter.Resolver a simulation needs.
type Resolver interface {
	TerrainIndex(terrain string) (int, bool)
	ResolveOnce(terrain string) int
}

// Summary aggregates one run.
type Summary struct {
	RunID      uuid.UUID
	Terrain    string
	Encounters int
	Sum        int
	Min        int
	Max        int
	Zeroes     int
}

// Mean returns the average total, or 0 for an empty run.
func (s Summary) Mean() float64 {
	if s.Encounters == 0 {
		return 0
	}
	return float64(s.Sum) / float64(s.Encounters)
}

func (s *Summary) add(total int) {
	if s.Encounters == 0 || total < s.Min {
		s.Min = total
	}
	if s.Encounters == 0 || total > s.Max {
		s.Max = total
	}
	s.Encounters++
	s.Sum += total
	if total == 0 {
		s.Zeroes++
	}
}

// Simulator runs batches of encounters.
type Simulator struct {
	resolver Resolver
	logger   *zap.Logger
}

// NewSimulator creates a Simulator.
//
// Precondition: resolver and logger must be non-nil.
func NewSimulator(resolver Resolver, logger *zap.Logger) *Simulator {
	if resolver == nil {
		panic("sim.NewSimulator: resolver must not be nil")
	}
	if logger == nil {
		panic("sim.NewSimulator: logger must not be nil")
	}
	return &Simulator{resolver: resolver, logger: logger}
}

// Run resolves n encounters on terrain, writing each total to w on its own line.
//
// Precondition: n >= 0.
// Postcondition: Returns ErrUnknownTerrain before writing anything when the
// terrain is not in the main table. On cancellation or a write failure the
// returned Summary covers the encounters already written.
func (s *Simulator) Run(ctx context.Context, terrain string, n int, w io.Writer) (Summary, error) {
	sum := Summary{RunID: uuid.New(), Terrain: terrain}
	if n < 0 {
		return sum, fmt.Errorf("encounter count must be >= 0, got %d", n)
	}
	if _, ok := s.resolver.TerrainIndex(terrain); !ok {
		return sum, fmt.Errorf("%w: %s", ErrUnknownTerrain, terrain)
	}

	start := time.Now()
	log := s.logger.With(zap.Stringer("run_id", sum.RunID), zap.String("terrain", terrain))
	log.Info("simulation started", zap.Int("encounters", n))

	buf := make([]byte, 0, 16)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			log.Warn("simulation cancelled", zap.Int("completed", sum.Encounters))
			return sum, err
		}
		total := s.resolver.ResolveOnce(terrain)
		buf = strconv.AppendInt(buf[:0], int64(total), 10)
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return sum, fmt.Errorf("writing encounter %d: %w", i+1, err)
		}
		sum.add(total)
	}

	log.Info("simulation finished",
		zap.Int("encounters", sum.Encounters),
		zap.Int("min", sum.Min),
		zap.Int("max", sum.Max),
		zap.Float64("mean", sum.Mean()),
		zap.Int("zeroes", sum.Zeroes),
		zap.Duration("elapsed", time.Since(start)),
	)
	return sum, nil
}
