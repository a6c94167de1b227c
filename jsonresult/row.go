package jsonresult

import (
	"database/sql"
	"fmt"
	"github.com/pkg/errors"
	"strconv"
	"strings"
	"time"
)

// Rows is the subset of *sql.Rows that SerializeRows needs, so callers can pass anything with the
// same shape (including fakes in tests).
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}

var (
	_ Rows = (*sql.Rows)(nil)
)

// Serialized is the outcome of serializing a query's result set to JSON.
type Serialized struct {
	ColumnNames []string
	RowCount    int
	DataJSON    string
}

// SerializeRows consumes rows to completion and renders them as a JSON array of row objects, one
// object per row keyed by column name. SQL NULL becomes JSON null; values the driver reports as
// numeric or boolean are emitted unquoted, everything else is quoted and escaped via Escape.
//
// DataJSON is "[]" for a result set with zero rows.
func SerializeRows(rows Rows) (*Serialized, error) {
	columnNames, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "can't read column names")
	}

	var b strings.Builder
	b.WriteByte('[')

	rowCount := 0
	values := make([]any, len(columnNames))
	ptrs := make([]any, len(columnNames))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if rowCount > 0 {
			b.WriteByte(',')
		}
		rowCount++

		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "can't scan row")
		}

		b.WriteByte('{')
		for i, col := range columnNames {
			if i > 0 {
				b.WriteByte(',')
			}

			b.WriteByte('"')
			b.WriteString(Escape(col))
			b.WriteString(`":`)
			writeValueJSON(&b, values[i])
		}
		b.WriteByte('}')
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error while iterating rows")
	}

	b.WriteByte(']')

	return &Serialized{
		ColumnNames: columnNames,
		RowCount:    rowCount,
		DataJSON:    b.String(),
	}, nil
}

// writeValueJSON appends the JSON representation of a single scanned column value to b.
func writeValueJSON(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case []byte:
		b.WriteByte('"')
		b.WriteString(Escape(string(val)))
		b.WriteByte('"')
	case string:
		b.WriteByte('"')
		b.WriteString(Escape(val))
		b.WriteByte('"')
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case float64:
		b.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case time.Time:
		b.WriteByte('"')
		b.WriteString(Escape(val.Format(time.RFC3339Nano)))
		b.WriteByte('"')
	default:
		b.WriteByte('"')
		b.WriteString(Escape(fmt.Sprint(val)))
		b.WriteByte('"')
	}
}
