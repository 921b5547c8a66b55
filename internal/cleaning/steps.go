package cleaning

import (
	"context"
	"log/slog"
	"strings"

	"jobsight/internal/config"
	"jobsight/internal/dataset"
)

// Op is one cleaning step. Steps never mutate their input; they return a new
// table plus a report of what changed.
type Op interface {
	Name() string
	Apply(t *dataset.Table) (*dataset.Table, OpReport, error)
}

// OpReport records the effect of a single step
type OpReport struct {
	Operation   string `json:"operation"`
	RowsRemoved int    `json:"rows_removed"`
	CellsFilled int    `json:"cells_filled"`
	CellsEdited int    `json:"cells_edited"`
}

// Report aggregates the step reports of one cleaning run
type Report struct {
	RowsIn  int        `json:"rows_in"`
	RowsOut int        `json:"rows_out"`
	Steps   []OpReport `json:"steps"`
}

// RemoveDuplicates drops whole-row duplicates, keeping the first occurrence
type RemoveDuplicates struct{}

func (RemoveDuplicates) Name() string { return "remove_duplicates" }

func (RemoveDuplicates) Apply(t *dataset.Table) (*dataset.Table, OpReport, error) {
	seen := make(map[string]struct{}, t.NumRows())
	out := t.Filter(func(row int) bool {
		key := strings.Join(t.Row(row), "\x1f")
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
	return out, OpReport{
		Operation:   "remove_duplicates",
		RowsRemoved: t.NumRows() - out.NumRows(),
	}, nil
}

// DropMissing removes rows where any of the named columns is empty
type DropMissing struct {
	Columns []string
}

func (DropMissing) Name() string { return "drop_missing" }

func (s DropMissing) Apply(t *dataset.Table) (*dataset.Table, OpReport, error) {
	if err := t.RequireColumns(s.Columns...); err != nil {
		return nil, OpReport{}, err
	}
	out := t.Filter(func(row int) bool {
		for _, col := range s.Columns {
			if strings.TrimSpace(t.Value(row, col)) == "" {
				return false
			}
		}
		return true
	})
	return out, OpReport{
		Operation:   "drop_missing",
		RowsRemoved: t.NumRows() - out.NumRows(),
	}, nil
}

// FillMissing replaces empty cells in the named columns with a fixed value
type FillMissing struct {
	Columns []string
	Value   string
}

func (FillMissing) Name() string { return "fill_missing" }

func (s FillMissing) Apply(t *dataset.Table) (*dataset.Table, OpReport, error) {
	if err := t.RequireColumns(s.Columns...); err != nil {
		return nil, OpReport{}, err
	}
	out := t.Clone()
	filled := 0
	for _, col := range s.Columns {
		for row := 0; row < out.NumRows(); row++ {
			if strings.TrimSpace(out.Value(row, col)) == "" {
				if err := out.SetValue(row, col, s.Value); err != nil {
					return nil, OpReport{}, err
				}
				filled++
			}
		}
	}
	return out, OpReport{Operation: "fill_missing", CellsFilled: filled}, nil
}

// StandardizeText trims the named columns and collapses inner whitespace
// runs to a single space. Columns absent from the table are skipped so the
// same step list serves CSV and XLSX inputs with optional columns.
type StandardizeText struct {
	Columns []string
}

func (StandardizeText) Name() string { return "standardize_text" }

func (s StandardizeText) Apply(t *dataset.Table) (*dataset.Table, OpReport, error) {
	out := t.Clone()
	edited := 0
	for _, col := range s.Columns {
		if !out.HasColumn(col) {
			continue
		}
		for row := 0; row < out.NumRows(); row++ {
			cell := out.Value(row, col)
			cleaned := strings.Join(strings.Fields(cell), " ")
			if cleaned == cell {
				continue
			}
			if err := out.SetValue(row, col, cleaned); err != nil {
				return nil, OpReport{}, err
			}
			edited++
		}
	}
	return out, OpReport{Operation: "standardize_text", CellsEdited: edited}, nil
}

// Steps builds the standard cleaning sequence from configuration:
// standardize text first so duplicate detection sees canonical cells, then
// deduplicate, then drop rows missing required cells.
func Steps(cfg config.CleaningConfig) []Op {
	return []Op{
		StandardizeText{Columns: cfg.StandardizeColumns},
		RemoveDuplicates{},
		DropMissing{Columns: cfg.RequiredCellColumns},
	}
}

// Apply runs the steps in order and returns the cleaned table with a
// combined report
func Apply(ctx context.Context, t *dataset.Table, steps []Op, logger *slog.Logger) (*dataset.Table, Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	report := Report{RowsIn: t.NumRows()}
	current := t
	for _, step := range steps {
		next, opReport, err := step.Apply(current)
		if err != nil {
			return nil, report, err
		}
		logger.InfoContext(ctx, "cleaning step completed",
			slog.String("operation", step.Name()),
			slog.Int("rows_removed", opReport.RowsRemoved),
			slog.Int("cells_filled", opReport.CellsFilled),
			slog.Int("cells_edited", opReport.CellsEdited))
		report.Steps = append(report.Steps, opReport)
		current = next
	}
	report.RowsOut = current.NumRows()
	return current, report, nil
}
