// Package table provides rectangular text lookup tables with named rows and
// columns and uniform random selection over non-null cells.
//
// Row and column numbering is 1-indexed; index 0 holds the header names.
package table

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/encountersim/internal/game/dice"
)

// NullEntry marks an empty cell.
const NullEntry = "-"

// NotFound is the index returned by RowIndex and ColIndex on a miss.
const NotFound = -1

// MaxAttempts bounds the rejection sampling in RandomEntryInRow and
// RandomEntryInColumn.
const MaxAttempts = 1000

// ErrNoEntry is returned when random selection finds no non-null cell within
// MaxAttempts draws.
var ErrNoEntry = errors.New("no non-null entry found")

// Table is an immutable rectangular grid of strings.
//
// Invariant: every row has the same length; there is at least one row.
type Table struct {
	cells [][]string
}

// New wraps a grid. The grid is not copied and must not be modified afterwards.
//
// Precondition: grid is non-empty and rectangular (use FromRecords to check).
func New(grid [][]string) *Table {
	return &Table{cells: grid}
}

// NumRows returns the number of data rows, excluding the header row.
func (t *Table) NumRows() int {
	return len(t.cells) - 1
}

// NumCols returns the number of data columns, excluding the header column.
func (t *Table) NumCols() int {
	if len(t.cells) == 0 {
		return 0
	}
	return len(t.cells[0]) - 1
}

// RowName returns the header of row i.
func (t *Table) RowName(i int) string {
	return t.cells[i][0]
}

// ColName returns the header of column j.
func (t *Table) ColName(j int) string {
	return t.cells[0][j]
}

// RowIndex returns the 1-based index of the first row named name.
//
// Postcondition: returns (NotFound, false) when no row matches.
func (t *Table) RowIndex(name string) (int, bool) {
	for i := 1; i < len(t.cells); i++ {
		if t.cells[i][0] == name {
			return i, true
		}
	}
	return NotFound, false
}

// ColIndex returns the 1-based index of the first column named name.
//
// Postcondition: returns (NotFound, false) when no column matches.
func (t *Table) ColIndex(name string) (int, bool) {
	if len(t.cells) == 0 {
		return NotFound, false
	}
	for j := 1; j < len(t.cells[0]); j++ {
		if t.cells[0][j] == name {
			return j, true
		}
	}
	return NotFound, false
}

// Entry returns the cell at (row, col). Out-of-range indices panic.
func (t *Table) Entry(row, col int) string {
	return t.cells[row][col]
}

// RandomEntryInRow draws a uniformly random non-null cell from row, redrawing
// whenever a null cell comes up.
//
// Postcondition: the result is never NullEntry; ErrNoEntry after MaxAttempts misses.
func (t *Table) RandomEntryInRow(src dice.Source, row int) (string, error) {
	return t.sample(src, t.NumCols(), func(j int) string { return t.cells[row][j] },
		func() error { return fmt.Errorf("row %d: %w after %d attempts", row, ErrNoEntry, MaxAttempts) })
}

// RandomEntryInColumn draws a uniformly random non-null cell from col,
// redrawing whenever a null cell comes up.
//
// Postcondition: the result is never NullEntry; ErrNoEntry after MaxAttempts misses.
func (t *Table) RandomEntryInColumn(src dice.Source, col int) (string, error) {
	return t.sample(src, t.NumRows(), func(i int) string { return t.cells[i][col] },
		func() error { return fmt.Errorf("column %d: %w after %d attempts", col, ErrNoEntry, MaxAttempts) })
}

func (t *Table) sample(src dice.Source, n int, cell func(int) string, exhausted func() error) (string, error) {
	if n < 1 {
		return "", exhausted()
	}
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if entry := cell(dice.D(src, n)); entry != NullEntry {
			return entry, nil
		}
	}
	return "", exhausted()
}
