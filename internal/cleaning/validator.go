package cleaning

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jobsight/internal/dataset"
	"jobsight/internal/errors"
)

// ColumnCheck compares the table's columns against an expected set
type ColumnCheck struct {
	Missing []string `json:"missing,omitempty"`
	Extra   []string `json:"extra,omitempty"`
}

// MissingStats counts empty cells in one column
type MissingStats struct {
	Column  string  `json:"column"`
	Missing int     `json:"missing"`
	Percent float64 `json:"percent"`
}

// ValidationReport summarizes the contract checks on a cleaned table.
// It is written as JSON next to the exported artifacts.
type ValidationReport struct {
	GeneratedAt   time.Time      `json:"generated_at"`
	Rows          int            `json:"rows"`
	Columns       ColumnCheck    `json:"columns"`
	MissingCells  []MissingStats `json:"missing_cells"`
	DuplicateRows int            `json:"duplicate_rows"`
	KeyColumn     string         `json:"key_column"`
	KeyValid      bool           `json:"key_valid"`
}

// ValidateColumns reports columns missing from the table and columns present
// beyond the expected set. Extra columns are informational, not an error.
func ValidateColumns(t *dataset.Table, expected []string) ColumnCheck {
	expectedSet := make(map[string]struct{}, len(expected))
	check := ColumnCheck{}
	for _, col := range expected {
		expectedSet[col] = struct{}{}
		if !t.HasColumn(col) {
			check.Missing = append(check.Missing, col)
		}
	}
	for _, col := range t.Columns() {
		if _, ok := expectedSet[col]; !ok {
			check.Extra = append(check.Extra, col)
		}
	}
	return check
}

// CheckMissing counts empty cells per column, in column order
func CheckMissing(t *dataset.Table) []MissingStats {
	rows := t.NumRows()
	stats := make([]MissingStats, 0, len(t.Columns()))
	for _, col := range t.Columns() {
		missing := 0
		for row := 0; row < rows; row++ {
			if strings.TrimSpace(t.Value(row, col)) == "" {
				missing++
			}
		}
		percent := 0.0
		if rows > 0 {
			percent = float64(missing) / float64(rows) * 100
		}
		stats = append(stats, MissingStats{Column: col, Missing: missing, Percent: percent})
	}
	return stats
}

// CheckDuplicates counts whole-row duplicates beyond the first occurrence
func CheckDuplicates(t *dataset.Table) int {
	seen := make(map[string]struct{}, t.NumRows())
	dups := 0
	for row := 0; row < t.NumRows(); row++ {
		key := strings.Join(t.Row(row), "\x1f")
		if _, dup := seen[key]; dup {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

// RequireKey verifies that the key column exists and its values are non-null
// and unique. A violation is fatal: every downstream view joins on this key.
func RequireKey(t *dataset.Table, key string) error {
	if err := t.RequireColumns(key); err != nil {
		return err
	}
	seen := make(map[string]int, t.NumRows())
	for row := 0; row < t.NumRows(); row++ {
		value := strings.TrimSpace(t.Value(row, key))
		if value == "" {
			return errors.NewContractError(
				fmt.Sprintf("key column %q has an empty value at row %d", key, row), nil).
				WithContext("column", key)
		}
		if prev, dup := seen[value]; dup {
			return errors.NewContractError(
				fmt.Sprintf("key column %q has duplicate value %q (rows %d and %d)", key, value, prev, row), nil).
				WithContext("column", key).
				WithContext("value", value)
		}
		seen[value] = row
	}
	return nil
}

// Validate runs every check against the expected column set and key
func Validate(t *dataset.Table, expected []string, key string) (*ValidationReport, error) {
	report := &ValidationReport{
		GeneratedAt:   time.Now().UTC(),
		Rows:          t.NumRows(),
		Columns:       ValidateColumns(t, expected),
		MissingCells:  CheckMissing(t),
		DuplicateRows: CheckDuplicates(t),
		KeyColumn:     key,
	}
	if len(report.Columns.Missing) > 0 {
		return report, errors.NewMissingColumnError(report.Columns.Missing[0])
	}
	if err := RequireKey(t, key); err != nil {
		return report, err
	}
	report.KeyValid = true
	return report, nil
}

// WriteJSON saves the report, creating the parent directory if needed
func (r *ValidationReport) WriteJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to create directory for %s", path), err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.NewStorageError("failed to encode validation report", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to write validation report to %s", path), err)
	}
	return nil
}
