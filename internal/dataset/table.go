// Package dataset turns delimited text, Excel workbooks and sheet ranges into
// the typed farmer, BMC and field team tables.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for uploads that are neither CSV nor Excel.
	ErrUnsupportedFormat = errors.New("unsupported file type")
	// ErrUnreadable wraps failures to parse the file container itself.
	ErrUnreadable = errors.New("unreadable file")
)

// Table is an untyped grid: one header row plus data rows of raw cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Head returns a copy of the table limited to the first n rows.
func (t Table) Head(n int) Table {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return Table{Header: t.Header, Rows: t.Rows[:n]}
}

// Read picks a reader from the file extension.
func Read(filename string, r io.Reader) (Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx", ".xlsm":
		return ReadExcel(r)
	default:
		return Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		out[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}
	return out
}
