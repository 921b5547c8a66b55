package dataset

import (
	"fmt"

	"jobsight/internal/errors"
)

// Table is an ordered set of named columns over string cells. The empty
// string is the null cell. The pipeline is CSV-native end to end, so string
// cells round-trip checkpoints losslessly; numeric work parses on demand.
type Table struct {
	cols  []string
	cells map[string][]string
	rows  int
}

// New creates an empty table with the given column order
func New(columns []string) (*Table, error) {
	t := &Table{
		cols:  make([]string, 0, len(columns)),
		cells: make(map[string][]string, len(columns)),
	}
	for _, col := range columns {
		if col == "" {
			return nil, fmt.Errorf("column name must not be empty")
		}
		if _, exists := t.cells[col]; exists {
			return nil, fmt.Errorf("duplicate column name: %s", col)
		}
		t.cols = append(t.cols, col)
		t.cells[col] = []string{}
	}
	return t, nil
}

// NumRows returns the number of rows
func (t *Table) NumRows() int {
	return t.rows
}

// Columns returns the column names in order
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

// HasColumn reports whether the table has a column with the given name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.cells[name]
	return ok
}

// RequireColumns fails with a contract violation naming the first missing
// column. Enrichers call this before touching any row.
func (t *Table) RequireColumns(names ...string) error {
	for _, name := range names {
		if !t.HasColumn(name) {
			return errors.NewMissingColumnError(name)
		}
	}
	return nil
}

// Column returns a copy of the named column's cells
func (t *Table) Column(name string) ([]string, error) {
	cells, ok := t.cells[name]
	if !ok {
		return nil, errors.NewMissingColumnError(name)
	}
	out := make([]string, len(cells))
	copy(out, cells)
	return out, nil
}

// Value returns the cell at (row, column); missing columns and out-of-range
// rows read as the null cell.
func (t *Table) Value(row int, name string) string {
	cells, ok := t.cells[name]
	if !ok || row < 0 || row >= len(cells) {
		return ""
	}
	return cells[row]
}

// AppendRow adds one row; the value count must match the column count
func (t *Table) AppendRow(values []string) error {
	if len(values) != len(t.cols) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.cols))
	}
	for i, col := range t.cols {
		t.cells[col] = append(t.cells[col], values[i])
	}
	t.rows++
	return nil
}

// AddColumn appends a new column; its length must equal the row count
func (t *Table) AddColumn(name string, values []string) error {
	if name == "" {
		return fmt.Errorf("column name must not be empty")
	}
	if _, exists := t.cells[name]; exists {
		return fmt.Errorf("column already exists: %s", name)
	}
	if len(values) != t.rows {
		return fmt.Errorf("column %s has %d values, table has %d rows", name, len(values), t.rows)
	}
	cells := make([]string, len(values))
	copy(cells, values)
	t.cols = append(t.cols, name)
	t.cells[name] = cells
	return nil
}

// SetColumn replaces the values of an existing column, or appends the
// column when absent; the length must equal the row count
func (t *Table) SetColumn(name string, values []string) error {
	if _, exists := t.cells[name]; !exists {
		return t.AddColumn(name, values)
	}
	if len(values) != t.rows {
		return fmt.Errorf("column %s has %d values, table has %d rows", name, len(values), t.rows)
	}
	cells := make([]string, len(values))
	copy(cells, values)
	t.cells[name] = cells
	return nil
}

// SetValue overwrites the cell at (row, column)
func (t *Table) SetValue(row int, name, value string) error {
	cells, ok := t.cells[name]
	if !ok {
		return errors.NewMissingColumnError(name)
	}
	if row < 0 || row >= len(cells) {
		return fmt.Errorf("row %d out of range (%d rows)", row, len(cells))
	}
	cells[row] = value
	return nil
}

// Clone creates a deep copy of the table
func (t *Table) Clone() *Table {
	clone := &Table{
		cols:  make([]string, len(t.cols)),
		cells: make(map[string][]string, len(t.cols)),
		rows:  t.rows,
	}
	copy(clone.cols, t.cols)
	for col, cells := range t.cells {
		copied := make([]string, len(cells))
		copy(copied, cells)
		clone.cells[col] = copied
	}
	return clone
}

// Row returns the values of one row in column order
func (t *Table) Row(row int) []string {
	out := make([]string, len(t.cols))
	for i, col := range t.cols {
		out[i] = t.cells[col][row]
	}
	return out
}

// Select returns a new table holding only the named columns, in the given
// order. A missing column is an error.
func (t *Table) Select(columns []string) (*Table, error) {
	out, err := New(nil)
	if err != nil {
		return nil, err
	}
	out.rows = t.rows
	for _, col := range columns {
		cells, ok := t.cells[col]
		if !ok {
			return nil, errors.NewMissingColumnError(col)
		}
		if out.HasColumn(col) {
			continue
		}
		copied := make([]string, len(cells))
		copy(copied, cells)
		out.cols = append(out.cols, col)
		out.cells[col] = copied
	}
	return out, nil
}

// SelectExisting is Select restricted to the columns actually present;
// used for category views of partial runs.
func (t *Table) SelectExisting(columns []string) *Table {
	present := make([]string, 0, len(columns))
	for _, col := range columns {
		if t.HasColumn(col) {
			present = append(present, col)
		}
	}
	out, _ := t.Select(present)
	return out
}

// Join inner-joins two tables on a key column whose values must be unique in
// both. Columns of other (key excluded) are appended; a duplicate column name
// is an error, callers namespace their columns upstream.
func (t *Table) Join(other *Table, key string) (*Table, error) {
	if err := t.RequireColumns(key); err != nil {
		return nil, err
	}
	if err := other.RequireColumns(key); err != nil {
		return nil, err
	}

	otherIndex := make(map[string]int, other.rows)
	for row := 0; row < other.rows; row++ {
		k := other.Value(row, key)
		if _, dup := otherIndex[k]; dup {
			return nil, fmt.Errorf("join key %s is not unique: %q", key, k)
		}
		otherIndex[k] = row
	}

	joined := t.Clone()
	matches := make([]int, 0, t.rows)
	keep := make([]bool, t.rows)
	for row := 0; row < t.rows; row++ {
		idx, ok := otherIndex[t.Value(row, key)]
		if ok {
			keep[row] = true
			matches = append(matches, idx)
		}
	}

	joined = joined.filterRows(keep)
	for _, col := range other.cols {
		if col == key {
			continue
		}
		if joined.HasColumn(col) {
			return nil, fmt.Errorf("join would duplicate column: %s", col)
		}
		cells := make([]string, 0, len(matches))
		for _, idx := range matches {
			cells = append(cells, other.cells[col][idx])
		}
		if err := joined.AddColumn(col, cells); err != nil {
			return nil, err
		}
	}
	return joined, nil
}

// filterRows keeps the rows flagged true
func (t *Table) filterRows(keep []bool) *Table {
	out := &Table{
		cols:  make([]string, len(t.cols)),
		cells: make(map[string][]string, len(t.cols)),
	}
	copy(out.cols, t.cols)
	kept := 0
	for _, flag := range keep {
		if flag {
			kept++
		}
	}
	for col, cells := range t.cells {
		filtered := make([]string, 0, kept)
		for row, flag := range keep {
			if flag {
				filtered = append(filtered, cells[row])
			}
		}
		out.cells[col] = filtered
	}
	out.rows = kept
	return out
}

// Filter returns a new table with the rows the predicate accepts. Enrichers
// never filter; this serves the cleaning stage only.
func (t *Table) Filter(pred func(row int) bool) *Table {
	keep := make([]bool, t.rows)
	for row := 0; row < t.rows; row++ {
		keep[row] = pred(row)
	}
	return t.filterRows(keep)
}
