// Package table holds an in-memory table model (typed columns, ordered rows)
// and conversions from it into records, dictionaries and JSON.
package table

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"iter"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var (
	ErrNilTable        = errors.New("table: nil table")
	ErrNilAction       = errors.New("table: nil row action")
	ErrNilRecord       = errors.New("table: nil arrow record")
	ErrColumnNotFound  = errors.New("table: column not found")
	ErrSchemaMismatch  = errors.New("table: schema/values mismatch")
	ErrNullNotAllowed  = errors.New("table: NULL in non-nullable column")
	ErrCoerce          = errors.New("table: cannot coerce value")
	ErrUnsupportedType = errors.New("table: unsupported type")
)

// Table is an ordered set of rows over a fixed schema. A nil cell is NULL.
type Table struct {
	Name   string
	Schema Schema

	rows [][]any
}

func NewTable(name string, schema Schema) *Table {
	return &Table{Name: name, Schema: schema}
}

func (t *Table) NumRows() int { return len(t.rows) }

// AddRow appends one row. Values are coerced to the column types; the row is
// rejected as a whole if any cell fails.
func (t *Table) AddRow(values ...any) error {
	if len(values) != t.Schema.NumCols() {
		return fmt.Errorf("%w: got %d values for %d columns", ErrSchemaMismatch, len(values), t.Schema.NumCols())
	}
	row := make([]any, len(values))
	for i, col := range t.Schema.Cols {
		v, err := coerceCell(col, values[i])
		if err != nil {
			return err
		}
		row[i] = v
	}
	t.rows = append(t.rows, row)
	return nil
}

// Row returns an accessor for row i. It panics if i is out of range, like a slice index.
func (t *Table) Row(i int) Row {
	_ = t.rows[i]
	return Row{t: t, idx: i}
}

// All iterates rows in order.
func (t *Table) All() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		if t == nil {
			return
		}
		for i := range t.rows {
			if !yield(i, Row{t: t, idx: i}) {
				return
			}
		}
	}
}

// column resolves a column name or returns ErrColumnNotFound.
func (t *Table) column(name string) (int, error) {
	idx := t.Schema.Index(name)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %q in table %q", ErrColumnNotFound, name, t.Name)
	}
	return idx, nil
}

// Row is a read/write view of one table row.
type Row struct {
	t   *Table
	idx int
}

func (r Row) Index() int { return r.idx }

func (r Row) Len() int { return len(r.t.rows[r.idx]) }

// At returns the cell at column position i (nil for NULL).
func (r Row) At(i int) any { return r.t.rows[r.idx][i] }

func (r Row) Get(name string) (any, error) {
	ci, err := r.t.column(name)
	if err != nil {
		return nil, err
	}
	return r.t.rows[r.idx][ci], nil
}

// Lookup reports the cell value and whether it is present. Unknown columns
// and NULL cells both report false.
func (r Row) Lookup(name string) (any, bool) {
	v, err := r.Get(name)
	if err != nil || v == nil {
		return nil, false
	}
	return v, true
}

// Set writes a cell, coercing v to the column type.
func (r Row) Set(name string, v any) error {
	ci, err := r.t.column(name)
	if err != nil {
		return err
	}
	cv, err := coerceCell(r.t.Schema.Cols[ci], v)
	if err != nil {
		return err
	}
	r.t.rows[r.idx][ci] = cv
	return nil
}

// SetAt writes the cell at column position i, coercing v to the column type.
func (r Row) SetAt(i int, v any) error {
	if i < 0 || i >= r.Len() {
		return fmt.Errorf("%w: index %d in table %q", ErrColumnNotFound, i, r.t.Name)
	}
	cv, err := coerceCell(r.t.Schema.Cols[i], v)
	if err != nil {
		return err
	}
	r.t.rows[r.idx][i] = cv
	return nil
}

// Values returns a copy of the row cells.
func (r Row) Values() []any {
	out := make([]any, len(r.t.rows[r.idx]))
	copy(out, r.t.rows[r.idx])
	return out
}

// Map returns the row keyed by column name.
func (r Row) Map() map[string]any {
	out := make(map[string]any, r.Len())
	for i, c := range r.t.Schema.Cols {
		out[c.Name] = r.t.rows[r.idx][i]
	}
	return out
}

func (r Row) Int64(name string) (int64, error) {
	v, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	return cast.ToInt64E(v)
}

func (r Row) Float64(name string) (float64, error) {
	v, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64(), nil
	}
	return cast.ToFloat64E(v)
}

func (r Row) String(name string) (string, error) {
	v, err := r.Get(name)
	if err != nil {
		return "", err
	}
	switch x := v.(type) {
	case uuid.UUID:
		return x.String(), nil
	case decimal.Decimal:
		return x.String(), nil
	}
	return cast.ToStringE(v)
}

func (r Row) Bool(name string) (bool, error) {
	v, err := r.Get(name)
	if err != nil {
		return false, err
	}
	return cast.ToBoolE(v)
}

// ---- cell coercion ----

// coerceCell converts v to the canonical Go type of col.
func coerceCell(col Column, v any) (any, error) {
	v, err := driverValue(v)
	if err != nil {
		return nil, fmt.Errorf("%w: column %q: %w", ErrCoerce, col.Name, err)
	}
	if v == nil {
		if !col.Nullable {
			return nil, fmt.Errorf("%w: %q", ErrNullNotAllowed, col.Name)
		}
		return nil, nil
	}

	var out any
	switch col.Type {
	case ColInt32:
		var n int64
		n, err = asInt64(v)
		if err == nil && (n < math.MinInt32 || n > math.MaxInt32) {
			err = fmt.Errorf("%d overflows int32", n)
		}
		out = int32(n)
	case ColInt64:
		out, err = asInt64(v)
	case ColBool:
		out, err = cast.ToBoolE(v)
	case ColFloat64:
		out, err = cast.ToFloat64E(v)
	case ColText:
		out, err = cast.ToStringE(v)
	case ColBytes:
		out, err = asBytes(v)
	case ColTime:
		out, err = cast.ToTimeE(v)
	case ColUUID:
		out, err = asUUID(v)
	case ColDecimal:
		out, err = asDecimal(v)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, col.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: column %q (%s) from %T: %w", ErrCoerce, col.Name, col.Type, v, err)
	}
	return out, nil
}

// driverValue unwraps driver.Valuer cells (pgtype and friends) into plain
// values. uuid and decimal are Valuers too but are already canonical.
func driverValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}
	switch v.(type) {
	case uuid.UUID, decimal.Decimal, time.Time:
		return v, nil
	}
	if vr, ok := v.(driver.Valuer); ok {
		return vr.Value()
	}
	return v, nil
}

// asInt64 is cast.ToInt64E without silent wraparound or truncation.
func asInt64(v any) (int64, error) {
	switch x := v.(type) {
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", x)
		}
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", x)
		}
	case float32:
		return floatToInt64(float64(x))
	case float64:
		return floatToInt64(x)
	}
	return cast.ToInt64E(v)
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%v is not an int64", f)
	}
	return int64(f), nil
}

func asBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		cp := make([]byte, len(x))
		copy(cp, x)
		return cp, nil
	case string:
		return []byte(x), nil
	}
	return nil, fmt.Errorf("unable to cast %#v of type %T to []byte", v, v)
}

func asUUID(v any) (uuid.UUID, error) {
	switch x := v.(type) {
	case uuid.UUID:
		return x, nil
	case [16]byte:
		return uuid.UUID(x), nil
	case string:
		return uuid.Parse(x)
	case []byte:
		if len(x) == 16 {
			return uuid.FromBytes(x)
		}
		return uuid.ParseBytes(x)
	}
	return uuid.Nil, fmt.Errorf("unable to cast %#v of type %T to uuid", v, v)
}

func asDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case string:
		return decimal.NewFromString(x)
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	}
	return decimal.Zero, fmt.Errorf("unable to cast %#v of type %T to decimal", v, v)
}
