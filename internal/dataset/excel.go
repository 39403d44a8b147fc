package dataset

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
)

// maxExcelSerial is 9999-12-31, the last date a workbook can hold.
const maxExcelSerial = 2958465

// ReadExcel reads the first worksheet of an xlsx workbook. Cells are read
// unformatted so numbers keep full precision, and date serials in the Date
// column are rendered as ISO dates.
func ReadExcel(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("%w: open workbook: %w", ErrUnreadable, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, nil
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("%w: read sheet %s: %w", ErrUnreadable, sheets[0], err)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	table := fromRows(rows)
	convertDateSerials(table, date1904)
	return table, nil
}

// convertDateSerials rewrites numeric Date cells in place. Text dates are left
// for the evaluator to parse.
func convertDateSerials(t Table, date1904 bool) {
	pos := -1
	for i, name := range t.Header {
		if name == models.ColDate {
			pos = i
			break
		}
	}
	if pos < 0 {
		return
	}

	for _, row := range t.Rows {
		if pos >= len(row) {
			continue
		}
		serial, err := strconv.ParseFloat(row[pos], 64)
		if err != nil || math.IsNaN(serial) || serial <= 0 || serial > maxExcelSerial {
			continue
		}
		ts, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			continue
		}
		row[pos] = formatExcelTime(ts.Round(time.Second))
	}
}

func formatExcelTime(ts time.Time) string {
	if ts.Hour() == 0 && ts.Minute() == 0 && ts.Second() == 0 {
		return ts.Format("2006-01-02")
	}
	return ts.Format("2006-01-02 15:04:05")
}

// FromValues converts a Google Sheets value range into a Table.
func FromValues(values [][]interface{}) Table {
	rows := make([][]string, 0, len(values))
	for _, row := range values {
		cells := make([]string, len(row))
		for i, cell := range row {
			if cell == nil {
				continue
			}
			cells[i] = fmt.Sprint(cell)
		}
		rows = append(rows, cells)
	}
	return fromRows(rows)
}

// fromRows treats the first non-empty row as header and drops blank rows,
// the same way the CSV reader skips blank lines.
func fromRows(rows [][]string) Table {
	var table Table
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		if table.Header == nil {
			table.Header = normalizeHeader(row)
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
