package table

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrNotRectangular is returned when loaded records have differing lengths.
var ErrNotRectangular = errors.New("table is not rectangular")

// ErrEmpty is returned when loaded records contain no header row.
var ErrEmpty = errors.New("table has no header row")

// Store loads tables by name.
type Store interface {
	Load(ctx context.Context, name string) (*Table, error)
}

// FromRecords validates records and wraps them in a Table.
//
// Postcondition: returns ErrEmpty for no records and ErrNotRectangular when
// any row length differs from the header row.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	width := len(records[0])
	for i, rec := range records {
		if len(rec) != width {
			return nil, fmt.Errorf("row %d has %d cells, header has %d: %w", i, len(rec), width, ErrNotRectangular)
		}
	}
	return New(records), nil
}

// ReadCSV reads a whole CSV document into a Table.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	// Row length is checked by FromRecords so the error names the table shape.
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return FromRecords(records)
}

// LoadCSV reads the CSV file at path into a Table.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("loading table %s: %w", path, err)
	}
	return t, nil
}

// DirStore loads tables from <Dir>/<name>.csv.
type DirStore struct {
	Dir string
}

// Load reads the named CSV table.
func (s DirStore) Load(_ context.Context, name string) (*Table, error) {
	return LoadCSV(filepath.Join(s.Dir, name+".csv"))
}

// Records returns a copy of the underlying grid, headers included.
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.cells))
	for i, row := range t.cells {
		out[i] = append([]string(nil), row...)
	}
	return out
}
