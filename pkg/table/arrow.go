package table

import (
	"fmt"
	"log/slog"
	"math/big"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/shopspring/decimal"
)

// FromArrow copies an Arrow record into a new Table named name.
func FromArrow(name string, rec arrow.Record) (*Table, error) {
	if rec == nil {
		return nil, ErrNilRecord
	}

	schema := rec.Schema()
	cols := make([]Column, rec.NumCols())
	for i, f := range schema.Fields() {
		ct, err := arrowColumnType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Name, err)
		}
		cols[i] = Column{
			Name:     f.Name,
			Type:     ct,
			Nullable: f.Nullable || rec.Column(i).NullN() > 0,
		}
	}

	t := NewTable(name, Schema{Cols: cols})
	n := int(rec.NumRows())
	t.rows = make([][]any, 0, n)
	for r := 0; r < n; r++ {
		row := make([]any, len(cols))
		for c, arr := range rec.Columns() {
			row[c] = arrowValue(arr, r)
		}
		t.rows = append(t.rows, row)
	}

	slog.Debug("table: FromArrow done", "table", name, "rows", n, "cols", len(cols))
	return t, nil
}

func arrowColumnType(dt arrow.DataType) (ColumnType, error) {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.UINT8, arrow.UINT16:
		return ColInt32, nil
	case arrow.INT64, arrow.UINT32:
		return ColInt64, nil
	case arrow.UINT64, arrow.DECIMAL128:
		return ColDecimal, nil
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return ColFloat64, nil
	case arrow.BOOL:
		return ColBool, nil
	case arrow.STRING, arrow.LARGE_STRING:
		return ColText, nil
	case arrow.BINARY, arrow.LARGE_BINARY:
		return ColBytes, nil
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return ColTime, nil
	default:
		return 0, fmt.Errorf("%w: arrow %s", ErrUnsupportedType, dt)
	}
}

// arrowValue returns the canonical cell value at pos. The column type was
// already validated by arrowColumnType.
func arrowValue(col arrow.Array, pos int) any {
	if col.IsNull(pos) {
		return nil
	}

	switch a := col.(type) {
	case *array.Int8:
		return int32(a.Value(pos))
	case *array.Int16:
		return int32(a.Value(pos))
	case *array.Int32:
		return a.Value(pos)
	case *array.Uint8:
		return int32(a.Value(pos))
	case *array.Uint16:
		return int32(a.Value(pos))
	case *array.Int64:
		return a.Value(pos)
	case *array.Uint32:
		return int64(a.Value(pos))
	case *array.Uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(a.Value(pos)), 0)
	case *array.Float16:
		return float64(a.Value(pos).Float32())
	case *array.Float32:
		return float64(a.Value(pos))
	case *array.Float64:
		return a.Value(pos)
	case *array.Boolean:
		return a.Value(pos)
	case *array.String:
		return a.Value(pos)
	case *array.LargeString:
		return a.Value(pos)
	case *array.Binary:
		return cloneBytes(a.Value(pos))
	case *array.LargeBinary:
		return cloneBytes(a.Value(pos))
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(pos).ToTime(unit).UTC()
	case *array.Date32:
		return a.Value(pos).ToTime()
	case *array.Date64:
		return a.Value(pos).ToTime()
	case *array.Decimal128:
		scale := a.DataType().(*arrow.Decimal128Type).Scale
		return decimal.NewFromBigInt(a.Value(pos).BigInt(), -scale)
	default:
		return nil
	}
}

func cloneBytes(b []byte) []byte {
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
