package table_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/encountersim/internal/game/dice"
	"github.com/cory-johannsen/encountersim/internal/game/dice/dicetest"
	"github.com/cory-johannsen/encountersim/internal/game/table"
)

func sampleTable() *table.Table {
	return table.New([][]string{
		{"", "Clear", "Woods", "Swamp"},
		{"1", "Men", "-", "-"},
		{"2", "-", "Flyer", "-"},
		{"3", "Animal", "Animal", "-"},
	})
}

func TestTable_Dimensions(t *testing.T) {
	tbl := sampleTable()
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, 3, tbl.NumCols())
	assert.Equal(t, "2", tbl.RowName(2))
	assert.Equal(t, "Woods", tbl.ColName(2))
	assert.Equal(t, "Flyer", tbl.Entry(2, 2))
}

func TestTable_HeaderOnly(t *testing.T) {
	tbl := table.New([][]string{{"", "A"}})
	assert.Equal(t, 0, tbl.NumRows())
	assert.Equal(t, 1, tbl.NumCols())
	_, err := tbl.RandomEntryInColumn(dicetest.NewScriptedSource(), 1)
	assert.ErrorIs(t, err, table.ErrNoEntry)
}

func TestTable_Indexes(t *testing.T) {
	tbl := sampleTable()

	j, ok := tbl.ColIndex("Swamp")
	assert.True(t, ok)
	assert.Equal(t, 3, j)

	i, ok := tbl.RowIndex("3")
	assert.True(t, ok)
	assert.Equal(t, 3, i)

	j, ok = tbl.ColIndex("Desert")
	assert.False(t, ok)
	assert.Less(t, j, 1)

	i, ok = tbl.RowIndex("")
	assert.False(t, ok, "header cell is not a row name")
	assert.Equal(t, table.NotFound, i)
}

func TestRandomEntryInColumn_SkipsNull(t *testing.T) {
	tbl := sampleTable()
	// draws land on row 1 (null), row 1 (null), row 2 (Flyer)
	src := dicetest.NewScriptedSource(1, 1, 2)
	got, err := tbl.RandomEntryInColumn(src, 2)
	require.NoError(t, err)
	assert.Equal(t, "Flyer", got)
	assert.Equal(t, 0, src.Remaining())
}

func TestRandomEntryInRow_SkipsNull(t *testing.T) {
	tbl := sampleTable()
	src := dicetest.NewScriptedSource(3, 2, 1)
	got, err := tbl.RandomEntryInRow(src, 1)
	require.NoError(t, err)
	assert.Equal(t, "Men", got)
}

func TestRandomEntry_AllNullFails(t *testing.T) {
	tbl := sampleTable()
	src := dice.NewSeededSource(3)

	_, err := tbl.RandomEntryInColumn(src, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, table.ErrNoEntry)
	assert.Contains(t, err.Error(), "column 3")

	allNull := table.New([][]string{{"", "A", "B"}, {"x", "-", "-"}})
	_, err = allNull.RandomEntryInRow(src, 1)
	assert.ErrorIs(t, err, table.ErrNoEntry)
	assert.Contains(t, err.Error(), "row 1")
}

func genGrid(t *rapid.T) [][]string {
	rows := rapid.IntRange(1, 12).Draw(t, "rows")
	cols := rapid.IntRange(1, 12).Draw(t, "cols")
	cell := rapid.SampledFrom([]string{"-", "-", "Orc", "Troll", "Men"})
	grid := make([][]string, rows+1)
	grid[0] = make([]string, cols+1)
	for j := 1; j <= cols; j++ {
		grid[0][j] = "c" + strings.Repeat("x", j)
	}
	for i := 1; i <= rows; i++ {
		grid[i] = make([]string, cols+1)
		grid[i][0] = "r" + strings.Repeat("x", i)
		for j := 1; j <= cols; j++ {
			grid[i][j] = cell.Draw(t, "cell")
		}
	}
	return grid
}

// Random selection never yields the null marker, and fails only when the
// column holds nothing but nulls.
func TestProperty_RandomEntryInColumn(t *testing.T) {
	src := dice.NewSeededSource(11)
	rapid.Check(t, func(t *rapid.T) {
		grid := genGrid(t)
		tbl := table.New(grid)
		col := rapid.IntRange(1, tbl.NumCols()).Draw(t, "col")

		hasValue := false
		for i := 1; i <= tbl.NumRows(); i++ {
			hasValue = hasValue || grid[i][col] != table.NullEntry
		}

		got, err := tbl.RandomEntryInColumn(src, col)
		if hasValue {
			require.NoError(t, err)
			assert.NotEqual(t, table.NullEntry, got)
		} else {
			assert.ErrorIs(t, err, table.ErrNoEntry)
		}
	})
}

func TestProperty_RandomEntryInRow(t *testing.T) {
	src := dice.NewSeededSource(12)
	rapid.Check(t, func(t *rapid.T) {
		grid := genGrid(t)
		tbl := table.New(grid)
		row := rapid.IntRange(1, tbl.NumRows()).Draw(t, "row")

		hasValue := false
		for j := 1; j <= tbl.NumCols(); j++ {
			hasValue = hasValue || grid[row][j] != table.NullEntry
		}

		got, err := tbl.RandomEntryInRow(src, row)
		if hasValue {
			require.NoError(t, err)
			assert.NotEqual(t, table.NullEntry, got)
		} else {
			assert.ErrorIs(t, err, table.ErrNoEntry)
		}
	})
}

// Every header resolves to its own index; unknown names resolve to NotFound.
func TestProperty_IndexLookup(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tbl := table.New(genGrid(t))
		for j := 1; j <= tbl.NumCols(); j++ {
			got, ok := tbl.ColIndex(tbl.ColName(j))
			require.True(t, ok)
			require.Equal(t, j, got)
		}
		for i := 1; i <= tbl.NumRows(); i++ {
			got, ok := tbl.RowIndex(tbl.RowName(i))
			require.True(t, ok)
			require.Equal(t, i, got)
		}
		missing := rapid.StringMatching(`[A-Z][a-z]{2,8}`).Draw(t, "missing")
		got, ok := tbl.ColIndex(missing)
		require.False(t, ok)
		require.Less(t, got, 1)
		got, ok = tbl.RowIndex(missing)
		require.False(t, ok)
		require.Less(t, got, 1)
	})
}

func TestFromRecords(t *testing.T) {
	_, err := table.FromRecords(nil)
	assert.ErrorIs(t, err, table.ErrEmpty)

	_, err = table.FromRecords([][]string{{"", "a", "b"}, {"x", "1"}})
	assert.ErrorIs(t, err, table.ErrNotRectangular)

	tbl, err := table.FromRecords([][]string{{"", "a"}, {"x", "1"}})
	require.NoError(t, err)
	assert.Equal(t, "1", tbl.Entry(1, 1))
}

const monsterCSV = `Monster,Number,EHD
"Giant, Hill",1d8,13
Orc,10d10,1
`

func TestReadCSV_QuotedNames(t *testing.T) {
	tbl, err := table.ReadCSV(strings.NewReader(monsterCSV))
	require.NoError(t, err)
	i, ok := tbl.RowIndex("Giant, Hill")
	require.True(t, ok)
	assert.Equal(t, "1d8", tbl.Entry(i, 1))
	assert.Equal(t, 2, tbl.NumRows())
}

func TestReadCSV_Ragged(t *testing.T) {
	_, err := table.ReadCSV(strings.NewReader("a,b,c\nx,1\n"))
	assert.ErrorIs(t, err, table.ErrNotRectangular)
}

func TestDirStore_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Monsters.csv"), []byte(monsterCSV), 0644))

	store := table.DirStore{Dir: dir}
	tbl, err := store.Load(context.Background(), "Monsters")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumCols())

	_, err = store.Load(context.Background(), "Missing")
	assert.Error(t, err)
}

func TestRecords_IsCopy(t *testing.T) {
	tbl := sampleTable()
	recs := tbl.Records()
	recs[1][1] = "changed"
	assert.Equal(t, "Men", tbl.Entry(1, 1))
}
