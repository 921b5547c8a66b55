package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"jobsight/internal/errors"
)

// FormatFloat serializes a float the way tables store numeric cells: minimal
// digits, no exponent.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatInt serializes an integer cell
func FormatInt(v int) string {
	return strconv.Itoa(v)
}

// ReadCSVFrom reads a table from CSV; the first record is the header
func ReadCSVFrom(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewParsingError("CSV input is empty", nil)
	}
	if err != nil {
		return nil, errors.NewParsingError("failed to read CSV header", err)
	}

	// strip a UTF-8 BOM written for spreadsheet compatibility
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	table, err := New(header)
	if err != nil {
		return nil, errors.NewParsingError("invalid CSV header", err)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParsingError("failed to read CSV record", err)
		}
		if err := table.AppendRow(record); err != nil {
			return nil, errors.NewParsingError("malformed CSV record", err)
		}
	}
	return table, nil
}

// WriteCSVTo writes the table as CSV, optionally prefixed with a UTF-8 BOM
func (t *Table) WriteCSVTo(w io.Writer, bom bool) error {
	if bom {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(t.cols); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for row := 0; row < t.rows; row++ {
		if err := writer.Write(t.Row(row)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", row, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCSV reads a table from a CSV file
func ReadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer file.Close()
	return ReadCSVFrom(file)
}

// WriteCSV writes the table to a CSV file, creating parent directories
func (t *Table) WriteCSV(path string, bom bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to create %s", path), err)
	}
	defer file.Close()
	if err := t.WriteCSVTo(file, bom); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}

// ReadXLSX reads a table from the first sheet of an Excel workbook
func ReadXLSX(path string) (*Table, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.NewParsingError("workbook has no sheets", nil)
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, errors.NewParsingError("failed to read sheet rows", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewParsingError("workbook sheet is empty", nil)
	}

	table, err := New(rows[0])
	if err != nil {
		return nil, errors.NewParsingError("invalid workbook header", err)
	}
	width := len(rows[0])
	for _, row := range rows[1:] {
		// excelize drops trailing empty cells; pad back to header width
		for len(row) < width {
			row = append(row, "")
		}
		if err := table.AppendRow(row[:width]); err != nil {
			return nil, errors.NewParsingError("malformed workbook row", err)
		}
	}
	return table, nil
}

// WriteXLSX writes the table as a single-sheet Excel workbook
func (t *Table) WriteXLSX(path, sheet string) error {
	workbook := excelize.NewFile()
	defer workbook.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	workbook.SetSheetName(workbook.GetSheetName(0), sheet)

	if err := writeSheet(workbook, sheet, t); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory", err)
	}
	if err := workbook.SaveAs(path); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to save %s", path), err)
	}
	return nil
}

// writeSheet streams a table into one sheet of an open workbook
func writeSheet(workbook *excelize.File, sheet string, t *Table) error {
	writer, err := workbook.NewStreamWriter(sheet)
	if err != nil {
		return errors.NewStorageError("failed to create stream writer", err)
	}

	header := make([]interface{}, len(t.cols))
	for i, col := range t.cols {
		header[i] = col
	}
	if err := writer.SetRow("A1", header); err != nil {
		return errors.NewStorageError("failed to write header row", err)
	}

	for row := 0; row < t.rows; row++ {
		values := t.Row(row)
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, row+2)
		if err := writer.SetRow(cell, cells); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to write row %d", row), err)
		}
	}
	if err := writer.Flush(); err != nil {
		return errors.NewStorageError("failed to flush sheet", err)
	}
	return nil
}

// WriteWorkbookSheet adds the table as a named sheet to an open workbook
func (t *Table) WriteWorkbookSheet(workbook *excelize.File, sheet string) error {
	if _, err := workbook.NewSheet(sheet); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to create sheet %s", sheet), err)
	}
	return writeSheet(workbook, sheet, t)
}

func trimBOM(s string) string {
	if len(s) >= 3 && s[0] == 0xEF && s[1] == 0xBB && s[2] == 0xBF {
		return s[3:]
	}
	return s
}
