package dataset

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"jobsight/internal/errors"
)

// RequiredColumns is the input contract for a raw job-postings dataset.
// Loading fails fast when any of these is missing after header normalization.
var RequiredColumns = []string{
	"job_id", "company_name", "industry", "job_title",
	"skills_required", "tools_preferred", "experience_level",
	"employment_type", "location", "salary_range", "posted_date",
	"company_size",
}

// Load reads a raw dataset from a CSV or XLSX file, normalizes header names
// and enforces the required-column contract.
func Load(path string, logger *slog.Logger) (*Table, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var table *Table
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		table, err = ReadCSV(path)
	case ".xlsx":
		table, err = ReadXLSX(path)
	default:
		return nil, errors.NewConfigError(fmt.Sprintf("unsupported input format: %s", filepath.Ext(path)), nil)
	}
	if err != nil {
		return nil, err
	}

	table, err = NormalizeHeaders(table)
	if err != nil {
		return nil, err
	}

	if err := table.RequireColumns(RequiredColumns...); err != nil {
		return nil, err
	}

	logger.Info("dataset loaded",
		slog.String("path", path),
		slog.Int("rows", table.NumRows()),
		slog.Int("columns", len(table.Columns())))

	return table, nil
}

// NormalizeHeaders rewrites column names into snake_case form: trimmed,
// lower-cased, with spaces, dashes and dots mapped to underscores.
func NormalizeHeaders(t *Table) (*Table, error) {
	normalized := make([]string, 0, len(t.cols))
	seen := make(map[string]string, len(t.cols))
	for _, col := range t.cols {
		name := CleanColumnName(col)
		if prev, dup := seen[name]; dup {
			return nil, errors.NewContractError(
				fmt.Sprintf("columns %q and %q normalize to the same name %q", prev, col, name), nil)
		}
		seen[name] = col
		normalized = append(normalized, name)
	}

	out := &Table{
		cols:  normalized,
		cells: make(map[string][]string, len(t.cols)),
		rows:  t.rows,
	}
	for i, col := range t.cols {
		cells := make([]string, len(t.cells[col]))
		copy(cells, t.cells[col])
		out.cells[normalized[i]] = cells
	}
	return out, nil
}

// CleanColumnName normalizes a single header name
func CleanColumnName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	replacer := strings.NewReplacer(" ", "_", "-", "_", ".", "_")
	return replacer.Replace(name)
}
