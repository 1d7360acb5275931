package encounter

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/encountersim/internal/game/dice"
)

// Variant specializes a generic subtable label per terrain.
type Variant struct {
	ByTerrain map[string]string `yaml:"by_terrain"`
	Default   string            `yaml:"default"`
}

// RollRange maps die faces Min..Max (inclusive) to a specific monster.
type RollRange struct {
	Min  int    `yaml:"min"`
	Max  int    `yaml:"max"`
	Name string `yaml:"name"`
}

// RollFixup resolves a monster family by rolling a die.
type RollFixup struct {
	Die    int         `yaml:"die"`
	Ranges []RollRange `yaml:"ranges"`
}

// Rules holds the fixed correction tables applied during resolution.
type Rules struct {
	Subtables      map[string]Variant   `yaml:"subtables"`
	MonsterRolls   map[string]RollFixup `yaml:"monster_rolls"`
	MonsterAliases map[string]string    `yaml:"monster_aliases"`
	NPCLevels      map[string]int       `yaml:"npc_levels"`
	EntourageCount string               `yaml:"entourage_count"`
	EntourageUnit  string               `yaml:"entourage_unit"`
	EHDOverrides   map[string]int       `yaml:"ehd_overrides"`
}

// DefaultRules returns the built-in OD&D wilderness fixups.
func DefaultRules() Rules {
	return Rules{
		Subtables: map[string]Variant{
			"Men": {
				ByTerrain: map[string]string{
					"Mountain": "Men Mountain",
					"Desert":   "Men Desert",
					"River":    "Men Water",
				},
				Default: "Men Typical",
			},
		},
		MonsterRolls: map[string]RollFixup{
			"Giant": {Die: 10, Ranges: []RollRange{
				{1, 6, "Giant, Hill"},
				{7, 7, "Giant, Stone"},
				{8, 8, "Giant, Frost"},
				{9, 9, "Giant, Fire"},
				{10, 10, "Giant, Cloud"},
			}},
			"Dragon": {Die: 6, Ranges: []RollRange{
				{1, 1, "Dragon, White"},
				{2, 2, "Dragon, Black"},
				{3, 3, "Dragon, Green"},
				{4, 4, "Dragon, Blue"},
				{5, 5, "Dragon, Red"},
				{6, 6, "Dragon, Gold"},
			}},
		},
		MonsterAliases: map[string]string{
			"Giant Snake":  "Giant Snake, Constrictor",
			"Giant Beetle": "Giant Beetle, Bombardier",
			"Giant Ant":    "Giant Ant, Worker",
			"Sea Monster":  "Sea Monster, Small",
			"Hydra":        "Hydra, 10 Heads",
			"Roc":          "Roc, Small",
		},
		NPCLevels: map[string]int{
			"Wizard":           11,
			"Necromancer":      10,
			"Lord":             9,
			"Superhero":        8,
			"Patriarch":        8,
			"Evil High Priest": 8,
		},
		EntourageCount: "2d6",
		EntourageUnit:  "1d4",
		EHDOverrides: map[string]int{
			"Dragon, Gold": 40,
		},
	}
}

// LoadRules reads a YAML rules file. Sections missing from the file keep
// their DefaultRules values.
//
// Postcondition: Returns validated Rules or a non-nil error.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("reading rules file %s: %w", path, err)
	}
	return LoadRulesFromBytes(data)
}

// LoadRulesFromBytes parses rules YAML over DefaultRules.
func LoadRulesFromBytes(data []byte) (Rules, error) {
	rules := DefaultRules()
	var file Rules
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Rules{}, fmt.Errorf("parsing rules YAML: %w", err)
	}
	if file.Subtables != nil {
		rules.Subtables = file.Subtables
	}
	if file.MonsterRolls != nil {
		rules.MonsterRolls = file.MonsterRolls
	}
	if file.MonsterAliases != nil {
		rules.MonsterAliases = file.MonsterAliases
	}
	if file.NPCLevels != nil {
		rules.NPCLevels = file.NPCLevels
	}
	if file.EntourageCount != "" {
		rules.EntourageCount = file.EntourageCount
	}
	if file.EntourageUnit != "" {
		rules.EntourageUnit = file.EntourageUnit
	}
	if file.EHDOverrides != nil {
		rules.EHDOverrides = file.EHDOverrides
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, fmt.Errorf("validating rules: %w", err)
	}
	return rules, nil
}

// Validate checks that every roll fixup covers its die exactly and that NPC
// levels and entourage dice are usable.
//
// Postcondition: Returns nil if valid, or an error listing all violations.
func (r Rules) Validate() error {
	var errs []string
	for _, name := range sortedKeys(r.MonsterRolls) {
		if err := r.MonsterRolls[name].validate(); err != nil {
			errs = append(errs, fmt.Sprintf("monster_rolls[%q]: %v", name, err))
		}
	}
	for _, name := range sortedKeys(r.NPCLevels) {
		if r.NPCLevels[name] <= 0 {
			errs = append(errs, fmt.Sprintf("npc_levels[%q] must be > 0, got %d", name, r.NPCLevels[name]))
		}
	}
	for _, name := range sortedKeys(r.Subtables) {
		if r.Subtables[name].Default == "" {
			errs = append(errs, fmt.Sprintf("subtables[%q].default must not be empty", name))
		}
	}
	if len(r.NPCLevels) > 0 {
		if dice.Parse(r.EntourageCount).Count == 0 {
			errs = append(errs, fmt.Sprintf("entourage_count %q is not dice notation", r.EntourageCount))
		}
		if dice.Parse(r.EntourageUnit).Count == 0 {
			errs = append(errs, fmt.Sprintf("entourage_unit %q is not dice notation", r.EntourageUnit))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func (f RollFixup) validate() error {
	if f.Die < 1 {
		return fmt.Errorf("die must be >= 1, got %d", f.Die)
	}
	covered := make([]int, f.Die+1)
	for _, rr := range f.Ranges {
		if rr.Name == "" {
			return fmt.Errorf("range %d-%d has no name", rr.Min, rr.Max)
		}
		if rr.Min < 1 || rr.Max > f.Die || rr.Min > rr.Max {
			return fmt.Errorf("range %d-%d outside 1-%d", rr.Min, rr.Max, f.Die)
		}
		for face := rr.Min; face <= rr.Max; face++ {
			covered[face]++
		}
	}
	for face := 1; face <= f.Die; face++ {
		if covered[face] != 1 {
			return fmt.Errorf("face %d covered %d times, want exactly once", face, covered[face])
		}
	}
	return nil
}

// pick returns the name assigned to face.
func (f RollFixup) pick(face int) string {
	for _, rr := range f.Ranges {
		if face >= rr.Min && face <= rr.Max {
			return rr.Name
		}
	}
	return ""
}

// SubtableFixup specializes a generic subtable label for terrain.
func (r Rules) SubtableFixup(terrain, sub string) string {
	v, ok := r.Subtables[sub]
	if !ok {
		return sub
	}
	if specific, ok := v.ByTerrain[terrain]; ok {
		return specific
	}
	return v.Default
}

// MonsterFixup resolves a generic monster name to a specific one, rolling on
// roller for families that need it.
func (r Rules) MonsterFixup(roller *dice.Roller, name string) string {
	if f, ok := r.MonsterRolls[name]; ok {
		if picked := f.pick(roller.D(f.Die)); picked != "" {
			return picked
		}
	}
	if alias, ok := r.MonsterAliases[name]; ok {
		return alias
	}
	return name
}

// EHDFixup fills in known values for monsters tabulated with zero EHD.
func (r Rules) EHDFixup(name string, ehd int) int {
	if ehd != 0 {
		return ehd
	}
	if v, ok := r.EHDOverrides[name]; ok {
		return v
	}
	return ehd
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
