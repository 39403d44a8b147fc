package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ReadCSV reads a comma separated table whose first non-blank line is the header.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("%w: read csv header: %w", ErrUnreadable, err)
	}

	table := Table{Header: normalizeHeader(header)}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("%w: read csv record: %w", ErrUnreadable, err)
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}
