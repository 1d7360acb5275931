// Package encounter resolves random wilderness encounters into a total
// effective hit dice (EHD) value by chaining terrain, subtable and monster
// lookups.
package encounter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/encountersim/internal/game/dice"
	"github.com/cory-johannsen/encountersim/internal/game/table"
)

// ErrUnknownTerrain is returned when the terrain table has no such column.
var ErrUnknownTerrain = errors.New("unknown terrain")

// Tables bundles the lookup tables an encounter is rolled against.
type Tables struct {
	// Terrain has one column per terrain; cells name subtables.
	Terrain *table.Table
	// Subtable has one column per subtable; cells name monsters.
	Subtable *table.Table
	// Monsters has one row per monster.
	Monsters *table.Table
}

// Columns locates the fields read from the monster database.
type Columns struct {
	Number  int // number appearing, dice notation
	HitDice int // hit dice as a real number
	EHD     int // effective hit dice per monster
}

// DefaultColumns returns the monster database layout of the stock tables.
func DefaultColumns() Columns {
	return Columns{Number: 1, HitDice: 12, EHD: 13}
}

// Hooks can refine names after the built-in fixups. Returning "" keeps the
// name unchanged.
type Hooks interface {
	SubtableFixup(terrain, sub string) string
	MonsterFixup(name string) string
}

// Status classifies how a resolution ended.
type Status int

const (
	StatusMonster Status = iota
	StatusNPC
	StatusUnknownSubtable
	StatusUnknownMonster
	StatusNoEntry
)

func (s Status) String() string {
	switch s {
	case StatusMonster:
		return "monster"
	case StatusNPC:
		return "npc"
	case StatusUnknownSubtable:
		return "unknown subtable"
	case StatusUnknownMonster:
		return "unknown monster"
	case StatusNoEntry:
		return "no entry"
	default:
		return "unknown"
	}
}

// Outcome records every intermediate value of one resolution.
type Outcome struct {
	Terrain  string
	Subtable string
	Monster  string
	Status   Status
	Number   int     // number appearing, or entourage value for NPCs
	EHD      int     // EHD per monster, or base level for NPCs
	HitDice  float64 // hit dice number from the monster database
	Sweep    bool    // sweep attack correction applied
	Total    int
}

// Resolver rolls encounters against a fixed set of tables.
//
// A Resolver is not safe for concurrent use when its hooks are not.
type Resolver struct {
	tables Tables
	cols   Columns
	rules  Rules
	hooks  Hooks
	roller *dice.Roller
	logger *zap.Logger

	entourageCount dice.Expression
	entourageUnit  dice.Expression
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRules replaces DefaultRules.
func WithRules(rules Rules) Option {
	return func(r *Resolver) { r.rules = rules }
}

// WithColumns replaces DefaultColumns.
func WithColumns(cols Columns) Option {
	return func(r *Resolver) { r.cols = cols }
}

// WithHooks installs name hooks run after the built-in fixups.
func WithHooks(h Hooks) Option {
	return func(r *Resolver) { r.hooks = h }
}

// NewResolver creates a Resolver.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns an error if a table is missing or the monster
// database is narrower than the configured columns.
func NewResolver(tables Tables, roller *dice.Roller, logger *zap.Logger, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		tables: tables,
		cols:   DefaultColumns(),
		rules:  DefaultRules(),
		roller: roller,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.rules.Validate(); err != nil {
		return nil, fmt.Errorf("encounter: invalid rules: %w", err)
	}
	if tables.Terrain == nil || tables.Subtable == nil || tables.Monsters == nil {
		return nil, errors.New("encounter: terrain, subtable and monster tables are required")
	}
	widest := max(r.cols.Number, r.cols.HitDice, r.cols.EHD)
	if min(r.cols.Number, r.cols.HitDice, r.cols.EHD) < 1 || widest > tables.Monsters.NumCols() {
		return nil, fmt.Errorf("encounter: monster columns %+v out of range 1-%d", r.cols, tables.Monsters.NumCols())
	}
	r.entourageCount = dice.Parse(r.rules.EntourageCount)
	r.entourageUnit = dice.Parse(r.rules.EntourageUnit)
	return r, nil
}

// TerrainIndex returns the terrain table column for terrain.
func (r *Resolver) TerrainIndex(terrain string) (int, bool) {
	return r.tables.Terrain.ColIndex(terrain)
}

// ResolveOnce rolls one encounter on terrain and returns its total EHD.
// Failures are logged and yield 0 so a simulation run can continue.
func (r *Resolver) ResolveOnce(terrain string) int {
	out, err := r.Resolve(terrain)
	if err != nil {
		r.logger.Warn("encounter resolution failed",
			zap.String("terrain", terrain),
			zap.Error(err),
		)
		return 0
	}
	return out.Total
}

// Resolve rolls one encounter on terrain.
//
// Postcondition: Unknown subtables and monsters are reported through
// Outcome.Status with a zero total and no error. Returns ErrUnknownTerrain or
// a wrapped table.ErrNoEntry otherwise.
func (r *Resolver) Resolve(terrain string) (Outcome, error) {
	out := Outcome{Terrain: terrain}
	col, ok := r.TerrainIndex(terrain)
	if !ok {
		return out, fmt.Errorf("%w: %q", ErrUnknownTerrain, terrain)
	}

	sub, err := r.tables.Terrain.RandomEntryInColumn(r.roller.Source(), col)
	if err != nil {
		out.Status = StatusNoEntry
		return out, fmt.Errorf("rolling subtable for %s: %w", terrain, err)
	}
	sub = r.rules.SubtableFixup(terrain, sub)
	if r.hooks != nil {
		if hooked := r.hooks.SubtableFixup(terrain, sub); hooked != "" {
			sub = hooked
		}
	}
	return r.resolveSubtable(out, sub)
}

// ResolveSubtable rolls one encounter on the named subtable.
func (r *Resolver) ResolveSubtable(name string) (Outcome, error) {
	return r.resolveSubtable(Outcome{}, name)
}

func (r *Resolver) resolveSubtable(out Outcome, name string) (Outcome, error) {
	out.Subtable = name
	col, ok := r.tables.Subtable.ColIndex(name)
	if !ok {
		r.logger.Warn("unknown subtable", zap.String("subtable", name))
		out.Status = StatusUnknownSubtable
		return out, nil
	}

	monster, err := r.tables.Subtable.RandomEntryInColumn(r.roller.Source(), col)
	if err != nil {
		out.Status = StatusNoEntry
		return out, fmt.Errorf("rolling monster on %s: %w", name, err)
	}
	monster = r.rules.MonsterFixup(r.roller, monster)
	if r.hooks != nil {
		if hooked := r.hooks.MonsterFixup(monster); hooked != "" {
			monster = hooked
		}
	}
	return r.resolveMonster(out, monster), nil
}

// ResolveMonster rolls the encounter value of the named monster or NPC type.
func (r *Resolver) ResolveMonster(name string) Outcome {
	return r.resolveMonster(Outcome{}, name)
}

func (r *Resolver) resolveMonster(out Outcome, name string) Outcome {
	out.Monster = name
	if level, ok := r.rules.NPCLevels[name]; ok {
		out.Status = StatusNPC
		out.EHD = level
		out.Number = r.entourage()
		out.Total = level + out.Number
		r.logger.Debug("npc encounter",
			zap.String("npc", name),
			zap.Int("level", level),
			zap.Int("entourage", out.Number),
		)
		return out
	}

	mons := r.tables.Monsters
	row, ok := mons.RowIndex(name)
	if !ok {
		r.logger.Warn("unknown monster", zap.String("monster", name))
		out.Status = StatusUnknownMonster
		return out
	}

	out.Status = StatusMonster
	out.Number = r.roller.Roll(dice.Parse(mons.Entry(row, r.cols.Number))).Total()
	out.EHD = r.rules.EHDFixup(name, atoi(mons.Entry(row, r.cols.EHD)))
	if out.EHD == 0 {
		r.logger.Warn("monster with null EHD", zap.String("monster", name))
	}
	out.HitDice = atof(mons.Entry(row, r.cols.HitDice))

	out.Total = out.Number * out.EHD
	if out.HitDice <= 1.0 {
		out.Sweep = true
		out.Total = floorDiv(out.Total, 4)
	}
	r.logger.Debug("monster encounter",
		zap.String("monster", name),
		zap.Int("number", out.Number),
		zap.Int("ehd", out.EHD),
		zap.Float64("hit_dice", out.HitDice),
		zap.Bool("sweep", out.Sweep),
		zap.Int("total", out.Total),
	)
	return out
}

// entourage rolls the number of followers, then each follower's value.
func (r *Resolver) entourage() int {
	total := 0
	n := r.roller.Roll(r.entourageCount).Total()
	for i := 0; i < n; i++ {
		total += r.roller.Roll(r.entourageUnit).Total()
	}
	return total
}

// atoi converts a table cell to an int; blanks and junk are 0.
func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// atof converts a table cell to a float; blanks and junk are 0.
func atof(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func floorDiv(n, d int) int {
	q := n / d
	if n%d != 0 && n < 0 {
		q--
	}
	return q
}
