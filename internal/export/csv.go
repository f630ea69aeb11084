package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// BOM is the UTF-8 byte order mark written before CSV content so
// spreadsheet software detects the encoding.
const BOM = "\ufeff"

// Column maps a record to one CSV field.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// Table is an ordered set of columns.
type Table[T any] []Column[T]

// Headers returns the header row.
func (t Table[T]) Headers() []string {
	h := make([]string, len(t))
	for i, c := range t {
		h[i] = c.Header
	}
	return h
}

// WriteCSV writes a BOM, the header row and one row per record.
func (t Table[T]) WriteCSV(w io.Writer, rows []T) error {
	if _, err := io.WriteString(w, BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers()); err != nil {
		return err
	}
	rec := make([]string, len(t))
	for _, row := range rows {
		for i, c := range t {
			rec[i] = c.Value(row)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Bytes renders the CSV document in memory.
func (t Table[T]) Bytes(rows []T) ([]byte, error) {
	var b strings.Builder
	if err := t.WriteCSV(&b, rows); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// Filename returns "<prefix>-YYYY-MM-DD.csv" for the date of t.
func Filename(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%s.csv", prefix, t.Format("2006-01-02"))
}
