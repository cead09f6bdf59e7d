package table

import (
	"fmt"
	"strings"
)

type ColumnType uint8

const (
	ColInt32 ColumnType = iota
	ColInt64
	ColBool
	ColFloat64
	ColText  // UTF-8
	ColBytes // opaque bytes
	ColTime
	ColUUID
	ColDecimal
)

func (c ColumnType) String() string {
	switch c {
	case ColInt32:
		return "INT32"
	case ColInt64:
		return "INT64"
	case ColBool:
		return "BOOL"
	case ColFloat64:
		return "FLOAT64"
	case ColText:
		return "TEXT"
	case ColBytes:
		return "BYTES"
	case ColTime:
		return "TIMESTAMP"
	case ColUUID:
		return "UUID"
	case ColDecimal:
		return "DECIMAL"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(c))
	}
}

type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

type Schema struct {
	Cols []Column
}

func (s Schema) NumCols() int { return len(s.Cols) }

// Index returns the position of the named column, or -1.
// An exact match wins over a case-insensitive one.
func (s Schema) Index(name string) int {
	for i, c := range s.Cols {
		if c.Name == name {
			return i
		}
	}
	for i, c := range s.Cols {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// Names returns the column names in declaration order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Cols))
	for i, c := range s.Cols {
		out[i] = c.Name
	}
	return out
}
