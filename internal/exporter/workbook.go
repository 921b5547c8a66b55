package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"jobsight/internal/errors"
	"jobsight/internal/pipeline"
)

// ExportWorkbook writes the enriched table and every category view as one
// Excel workbook: a sheet per category plus a sheet with the full table.
// Excel sheet order follows the canonical category order.
func (e *Exporter) ExportWorkbook(ctx context.Context, artifacts Artifacts) error {
	if artifacts.Enriched == nil {
		return errors.NewValidationError("workbook export requires an enriched table")
	}

	workbook := excelize.NewFile()
	defer workbook.Close()

	workbook.SetSheetName(workbook.GetSheetName(0), "enriched")
	if err := artifacts.Enriched.WriteWorkbookSheet(workbook, "enriched"); err != nil {
		return err
	}

	for _, category := range pipeline.ViewCategories() {
		view, ok := artifacts.Views[category]
		if !ok {
			continue
		}
		if err := view.WriteWorkbookSheet(workbook, category); err != nil {
			return err
		}
	}

	path := filepath.Join(e.paths.OutputDir, WorkbookFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to create directory for %s", path), err)
	}
	if err := workbook.SaveAs(path); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to save workbook %s", path), err)
	}

	e.logger.InfoContext(ctx, "workbook exported",
		slog.String("path", path),
		slog.Int("sheets", 1+len(artifacts.Views)))
	return nil
}
