package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/encountersim/internal/game/table"
)

// ErrTableNotFound is returned when a lookup table name is not stored.
var ErrTableNotFound = errors.New("table not found")

// TableRepository stores lookup tables cell by cell. It satisfies table.Store.
type TableRepository struct {
	db *pgxpool.Pool
}

// NewTableRepository creates a TableRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewTableRepository(db *pgxpool.Pool) *TableRepository {
	return &TableRepository{db: db}
}

// Save stores t under name, replacing any table already stored there.
//
// Postcondition: Load(ctx, name) returns a table with the same cells.
func (r *TableRepository) Save(ctx context.Context, name string, t *table.Table) error {
	records := t.Records()
	height := len(records)
	width := 0
	if height > 0 {
		width = len(records[0])
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`INSERT INTO lookup_tables (name, height, width)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE
		 SET height = EXCLUDED.height, width = EXCLUDED.width, updated_at = NOW()`,
		name, height, width,
	); err != nil {
		return fmt.Errorf("upserting table %s: %w", name, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM lookup_cells WHERE table_name = $1`, name); err != nil {
		return fmt.Errorf("clearing cells of %s: %w", name, err)
	}

	rows := make([][]any, 0, height*width)
	for i, rec := range records {
		for j, v := range rec {
			rows = append(rows, []any{name, i, j, v})
		}
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"lookup_cells"},
		[]string{"table_name", "row_idx", "col_idx", "value"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("copying cells of %s: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing table %s: %w", name, err)
	}
	return nil
}

// Load reads the named table.
//
// Postcondition: Returns the table, or an error wrapping ErrTableNotFound.
func (r *TableRepository) Load(ctx context.Context, name string) (*table.Table, error) {
	var height, width int
	err := r.db.QueryRow(ctx,
		`SELECT height, width FROM lookup_tables WHERE name = $1`,
		name,
	).Scan(&height, &width)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
		}
		return nil, fmt.Errorf("querying table %s: %w", name, err)
	}

	grid := make([][]string, height)
	for i := range grid {
		grid[i] = make([]string, width)
	}

	rows, err := r.db.Query(ctx,
		`SELECT row_idx, col_idx, value FROM lookup_cells WHERE table_name = $1`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("querying cells of %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var i, j int
		var v string
		if err := rows.Scan(&i, &j, &v); err != nil {
			return nil, fmt.Errorf("scanning cell of %s: %w", name, err)
		}
		if i < 0 || i >= height || j < 0 || j >= width {
			return nil, fmt.Errorf("cell (%d,%d) of %s outside %dx%d", i, j, name, height, width)
		}
		grid[i][j] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cells of %s: %w", name, err)
	}

	t, err := table.FromRecords(grid)
	if err != nil {
		return nil, fmt.Errorf("rebuilding table %s: %w", name, err)
	}
	return t, nil
}

// List returns the stored table names in alphabetical order.
func (r *TableRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT name FROM lookup_tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return names, nil
}

// Delete removes the named table and its cells.
//
// Postcondition: Returns ErrTableNotFound if nothing was stored under name.
func (r *TableRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM lookup_tables WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting table %s: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return nil
}
