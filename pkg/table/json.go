package table

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// ToJSON renders t as a JSON array with one object per row. Object keys
// follow column order; NULL cells become null.
func ToJSON(t *Table) (string, error) {
	if t == nil {
		return "", ErrNilTable
	}

	keys := make([][]byte, t.Schema.NumCols())
	for i, c := range t.Schema.Cols {
		k, err := json.Marshal(c.Name)
		if err != nil {
			return "", err
		}
		keys[i] = k
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for ri, row := range t.rows {
		if ri > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for ci, cell := range row {
			if ci > 0 {
				buf.WriteByte(',')
			}
			buf.Write(keys[ci])
			buf.WriteByte(':')
			if err := writeJSONValue(&buf, cell); err != nil {
				return "", fmt.Errorf("table: json row %d column %q: %w", ri, t.Schema.Cols[ci].Name, err)
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')

	slog.Debug("table: ToJSON done", "table", t.Name, "rows", len(t.rows), "bytes", buf.Len())
	return buf.String(), nil
}

func writeJSONValue(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case decimal.Decimal:
		// bare number, not the quoted form decimal marshals to by default
		buf.WriteString(x.String())
		return nil
	case time.Time:
		v = x.Format(time.RFC3339Nano)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
