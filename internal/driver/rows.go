package driver

import (
	"github.com/jackc/pgx/v5"

	"github.com/vantigo/teamdb/internal/errs"
)

// Rows is an abstraction over a tenant query result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row. Returns false when no more rows exist
	// or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// WrapPgxRows adapts pgx.Rows to the Rows interface. Shared by the
// self-hosted and supavisor drivers.
func WrapPgxRows(rows pgx.Rows) Rows {
	return &pgxRows{rows: rows}
}

type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool             { return r.rows.Next() }
func (r *pgxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *pgxRows) Close()                 { r.rows.Close() }
func (r *pgxRows) Err() error             { return r.rows.Err() }

func (r *pgxRows) Columns() ([]string, error) {
	descs := r.rows.FieldDescriptions()
	cols := make([]string, len(descs))
	for i, d := range descs {
		cols[i] = d.Name
	}
	return cols, nil
}

// RowsWithCleanup returns rows whose Close also runs cleanup. Used when a
// result set must keep its scoped connection alive until the caller has
// finished iterating.
func RowsWithCleanup(rows Rows, cleanup func()) Rows {
	return &cleanupRows{Rows: rows, cleanup: cleanup}
}

type cleanupRows struct {
	Rows
	cleanup func()
}

func (r *cleanupRows) Close() {
	r.Rows.Close()
	if r.cleanup != nil {
		r.cleanup()
		r.cleanup = nil
	}
}

// MemoryRows is an in-memory Rows implementation used by the stub driver
// and by tests that feed canned catalog results to the schema engine.
type MemoryRows struct {
	Name []string // column names
	Data [][]any  // row values, one slice per row

	idx int // 1-based position after Next
	err error
}

// NewMemoryRows builds a MemoryRows over the given columns and row data.
func NewMemoryRows(columns []string, data [][]any) *MemoryRows {
	return &MemoryRows{Name: columns, Data: data}
}

func (r *MemoryRows) Next() bool {
	if r.idx >= len(r.Data) {
		return false
	}
	r.idx++
	return true
}

func (r *MemoryRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.Data) {
		return errs.New(errs.ErrKindQueryFailed, "scan called without next")
	}
	row := r.Data[r.idx-1]
	if len(dest) != len(row) {
		return errs.Newf(errs.ErrKindQueryFailed,
			"scan destination count %d does not match column count %d", len(dest), len(row))
	}
	for i, src := range row {
		if err := assign(dest[i], src); err != nil {
			r.err = err
			return err
		}
	}
	return nil
}

func (r *MemoryRows) Columns() ([]string, error) { return r.Name, nil }
func (r *MemoryRows) Close()                     {}
func (r *MemoryRows) Err() error                 { return r.err }

// assign copies src into the typed destination pointer. Only the types the
// introspection queries and data previews produce are supported.
func assign(dest, src any) error {
	switch d := dest.(type) {
	case *string:
		if s, ok := src.(string); ok {
			*d = s
			return nil
		}
	case **string:
		switch s := src.(type) {
		case nil:
			*d = nil
			return nil
		case string:
			v := s
			*d = &v
			return nil
		case *string:
			*d = s
			return nil
		}
	case *bool:
		if b, ok := src.(bool); ok {
			*d = b
			return nil
		}
	case *int:
		switch n := src.(type) {
		case int:
			*d = n
			return nil
		case int64:
			*d = int(n)
			return nil
		}
	case **int:
		switch n := src.(type) {
		case nil:
			*d = nil
			return nil
		case int:
			v := n
			*d = &v
			return nil
		case *int:
			*d = n
			return nil
		}
	case *[]string:
		if ss, ok := src.([]string); ok {
			*d = ss
			return nil
		}
	case *any:
		*d = src
		return nil
	}
	return errs.Newf(errs.ErrKindQueryFailed,
		"cannot scan %T into %T", src, dest)
}

// ScanRows reads all remaining rows into column-name-keyed maps.
// It always closes the Rows — callers do not call Close() afterwards.
func ScanRows(rows Rows) ([]map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read column names", err)
	}

	result := make([]map[string]any, 0)
	for rows.Next() {
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}
		if err := rows.Scan(destPtrs...); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan row", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = dest[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "error during row iteration", err)
	}
	return result, nil
}
