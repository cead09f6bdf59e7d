package table

import (
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTagName is the struct tag consulted for a field's column name.
const DefaultTagName = "col"

// Options controls how columns are matched to record fields.
type Options struct {
	// MatchCase requires column and field names to match exactly.
	MatchCase bool
	// TagName overrides DefaultTagName.
	TagName string
}

var scannerType = reflect.TypeFor[sql.Scanner]()

// HasRows reports whether t is non-nil and has at least one row.
func HasRows(t *Table) bool {
	return t != nil && len(t.rows) > 0
}

// ToList maps every row onto a new R, matching columns to fields by name.
func ToList[R any](t *Table) ([]R, error) {
	return ToListWith[R](t, Options{})
}

func ToListWith[R any](t *Table, opts Options) ([]R, error) {
	if t == nil {
		return nil, ErrNilTable
	}

	out := make([]R, 0, len(t.rows))
	for i := range t.rows {
		var rec R
		if err := decode(opts, Row{t: t, idx: i}.Map(), &rec); err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrCoerce, i, err)
		}
		out = append(out, rec)
	}

	slog.Debug("table: ToList done", "table", t.Name, "rows", len(out))
	return out, nil
}

// ToDictionary maps each row's keyColumn value to its valueColumn value.
// Duplicate keys resolve to the last row carrying them. A NULL key is an
// ErrCoerce.
func ToDictionary[K comparable, V any](t *Table, keyColumn, valueColumn string) (map[K]V, error) {
	if t == nil {
		return nil, ErrNilTable
	}
	ki, err := t.column(keyColumn)
	if err != nil {
		return nil, err
	}
	vi, err := t.column(valueColumn)
	if err != nil {
		return nil, err
	}

	out := make(map[K]V, len(t.rows))
	for i, row := range t.rows {
		var (
			k K
			v V
		)
		if row[ki] == nil {
			return nil, fmt.Errorf("%w: row %d key %q is NULL", ErrCoerce, i, keyColumn)
		}
		if err := decode(Options{}, row[ki], &k); err != nil {
			return nil, fmt.Errorf("%w: row %d key %q: %w", ErrCoerce, i, keyColumn, err)
		}
		if err := decode(Options{}, row[vi], &v); err != nil {
			return nil, fmt.Errorf("%w: row %d value %q: %w", ErrCoerce, i, valueColumn, err)
		}
		out[k] = v
	}

	slog.Debug("table: ToDictionary done", "table", t.Name, "rows", len(t.rows), "keys", len(out))
	return out, nil
}

// ForEach calls fn once per row, in row order.
func ForEach(t *Table, fn func(Row)) error {
	if t == nil {
		return ErrNilTable
	}
	if fn == nil {
		return ErrNilAction
	}
	for _, r := range t.All() {
		fn(r)
	}
	return nil
}

// rangeHook rejects numeric values that do not fit the target field, and
// non-integral floats bound for integer fields. mapstructure itself wraps
// and truncates.
func rangeHook(from reflect.Value, to reflect.Value) (any, error) {
	data := from.Interface()
	target := reflect.New(to.Type()).Elem()

	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch from.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if target.OverflowInt(from.Int()) {
				return nil, fmt.Errorf("%d overflows %s", from.Int(), to.Type())
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			u := from.Uint()
			if u > math.MaxInt64 || target.OverflowInt(int64(u)) {
				return nil, fmt.Errorf("%d overflows %s", u, to.Type())
			}
		case reflect.Float32, reflect.Float64:
			f := from.Float()
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 || target.OverflowInt(int64(f)) {
				return nil, fmt.Errorf("%v does not fit %s", f, to.Type())
			}
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		switch from.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n := from.Int()
			if n < 0 || target.OverflowUint(uint64(n)) {
				return nil, fmt.Errorf("%d overflows %s", n, to.Type())
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			if target.OverflowUint(from.Uint()) {
				return nil, fmt.Errorf("%d overflows %s", from.Uint(), to.Type())
			}
		case reflect.Float32, reflect.Float64:
			f := from.Float()
			if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 || target.OverflowUint(uint64(f)) {
				return nil, fmt.Errorf("%v does not fit %s", f, to.Type())
			}
		}

	case reflect.Float32:
		switch from.Kind() {
		case reflect.Float64:
			f := from.Float()
			if !math.IsInf(f, 0) && !math.IsNaN(f) && target.OverflowFloat(f) {
				return nil, fmt.Errorf("%v overflows %s", f, to.Type())
			}
		}
	}
	return data, nil
}

// decode runs mapstructure with weak typing plus hooks for sql.Scanner
// targets, RFC3339 strings and TextUnmarshaler targets.
func decode(opts Options, input any, out any) error {
	tag := opts.TagName
	if tag == "" {
		tag = DefaultTagName
	}
	match := strings.EqualFold
	if opts.MatchCase {
		match = func(a, b string) bool { return a == b }
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			cellHook,
			rangeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		WeaklyTypedInput: true,
		TagName:          tag,
		MatchName:        match,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// cellHook renders uuid and decimal cells into strings and numbers, and
// fills targets whose pointer implements sql.Scanner (pgtype values,
// uuid.UUID, decimal.Decimal) through Scan.
func cellHook(from reflect.Value, to reflect.Value) (any, error) {
	if from.Type() == to.Type() {
		return from.Interface(), nil
	}
	switch x := from.Interface().(type) {
	case uuid.UUID:
		if to.Kind() == reflect.String {
			return x.String(), nil
		}
	case decimal.Decimal:
		switch to.Kind() {
		case reflect.String:
			return x.String(), nil
		case reflect.Float32, reflect.Float64:
			return x.InexactFloat64(), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if !x.IsInteger() || !x.BigInt().IsInt64() {
				return nil, fmt.Errorf("decimal %s is not an int64", x)
			}
			return x.IntPart(), nil
		}
	}
	if !reflect.PointerTo(to.Type()).Implements(scannerType) {
		return from.Interface(), nil
	}

	src, err := driverValue(from.Interface())
	if err != nil {
		return nil, err
	}
	// database/sql hands Scan int64/float64 only.
	switch x := src.(type) {
	case int:
		src = int64(x)
	case int32:
		src = int64(x)
	case float32:
		src = float64(x)
	}

	ptr := reflect.New(to.Type())
	if err := ptr.Interface().(sql.Scanner).Scan(src); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}
