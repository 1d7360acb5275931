package encounter_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/encountersim/internal/game/dice"
	"github.com/cory-johannsen/encountersim/internal/game/encounter"
	"github.com/cory-johannsen/encountersim/internal/game/table"
)

const contentDir = "../../../content"

func loadContent(t *testing.T) encounter.Tables {
	t.Helper()
	store := table.DirStore{Dir: filepath.Join(contentDir, "tables")}
	ctx := context.Background()
	var out encounter.Tables
	var err error
	out.Terrain, err = store.Load(ctx, "WildMainTable")
	require.NoError(t, err)
	out.Subtable, err = store.Load(ctx, "WildSubTable")
	require.NoError(t, err)
	out.Monsters, err = store.Load(ctx, "MonsterDatabase")
	require.NoError(t, err)
	return out
}

// monsterNames lists every name MonsterFixup can produce from name.
func monsterNames(rules encounter.Rules, name string) []string {
	if f, ok := rules.MonsterRolls[name]; ok {
		names := make([]string, 0, len(f.Ranges))
		for _, rr := range f.Ranges {
			names = append(names, rr.Name)
		}
		return names
	}
	if alias, ok := rules.MonsterAliases[name]; ok {
		return []string{alias}
	}
	return []string{name}
}

func TestContent_EveryTerrainEntryNamesASubtable(t *testing.T) {
	tables := loadContent(t)
	rules := encounter.DefaultRules()
	for j := 1; j <= tables.Terrain.NumCols(); j++ {
		terrain := tables.Terrain.ColName(j)
		for i := 1; i <= tables.Terrain.NumRows(); i++ {
			entry := tables.Terrain.Entry(i, j)
			if entry == table.NullEntry {
				continue
			}
			sub := rules.SubtableFixup(terrain, entry)
			_, ok := tables.Subtable.ColIndex(sub)
			assert.True(t, ok, "%s row %d: subtable %q missing", terrain, i, sub)
		}
	}
}

func TestContent_EverySubtableEntryResolves(t *testing.T) {
	tables := loadContent(t)
	rules := encounter.DefaultRules()
	for j := 1; j <= tables.Subtable.NumCols(); j++ {
		for i := 1; i <= tables.Subtable.NumRows(); i++ {
			entry := tables.Subtable.Entry(i, j)
			if entry == table.NullEntry {
				continue
			}
			for _, name := range monsterNames(rules, entry) {
				if _, npc := rules.NPCLevels[name]; npc {
					continue
				}
				_, ok := tables.Monsters.RowIndex(name)
				assert.True(t, ok, "%s: monster %q missing", tables.Subtable.ColName(j), name)
			}
		}
	}
}

func TestContent_MonsterRowsAreUsable(t *testing.T) {
	tables := loadContent(t)
	rules := encounter.DefaultRules()
	cols := encounter.DefaultColumns()
	for i := 1; i <= tables.Monsters.NumRows(); i++ {
		name := tables.Monsters.RowName(i)
		expr := dice.Parse(tables.Monsters.Entry(i, cols.Number))
		assert.Positive(t, expr.Min(), "%s: number appearing %q", name, tables.Monsters.Entry(i, cols.Number))
		ehd := tables.Monsters.Entry(i, cols.EHD)
		if ehd == table.NullEntry {
			assert.Positive(t, rules.EHDFixup(name, 0), "%s: null EHD without override", name)
		}
	}
}

func TestContent_ExampleRulesFileMatchesDefaults(t *testing.T) {
	rules, err := encounter.LoadRules(filepath.Join(contentDir, "rules.yaml"))
	require.NoError(t, err)
	assert.Equal(t, encounter.DefaultRules(), rules)
}
