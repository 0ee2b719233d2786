package gmns2graph

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Table is an in-memory tabular file: a header with named columns and rows
// of raw string cells. Cells keep whatever the source carried; typed access
// happens at the call site.
type Table struct {
	header  []string
	columns map[string]int
	rows    [][]string
}

// ReadCSVTable loads a comma-separated file with a header row
func ReadCSVTable(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "can not open table file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "can not parse CSV file '%s'", path)
	}
	if len(records) == 0 {
		return nil, errors.Errorf("file '%s' has no header row", path)
	}
	return NewTable(records[0], records[1:]), nil
}

// NewTable builds a table from a header and rows
func NewTable(header []string, rows [][]string) *Table {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	return &Table{header: header, columns: columns, rows: rows}
}

// HasColumn reports whether the table has a column with the given name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// NumRows returns the number of data rows
func (t *Table) NumRows() int {
	return len(t.rows)
}

// Header returns the column names in file order
func (t *Table) Header() []string {
	return t.header
}

// Value returns the raw cell at the given row for the named column. Missing
// column or short row yields the empty string.
func (t *Table) Value(row int, column string) string {
	idx, ok := t.columns[column]
	if !ok || row < 0 || row >= len(t.rows) || idx >= len(t.rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.rows[row][idx])
}

// FloatValue parses the cell as a number; an empty cell comes back as nil
func (t *Table) FloatValue(row int, column string) (*float64, error) {
	raw := t.Value(row, column)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "row %d: column '%s' is not numeric", row, column)
	}
	return &v, nil
}

// IntValue parses the cell as an integer
func (t *Table) IntValue(row int, column string) (int64, error) {
	raw := t.Value(row, column)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "row %d: column '%s' is not an integer", row, column)
	}
	return v, nil
}
