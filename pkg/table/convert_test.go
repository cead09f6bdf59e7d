package table

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type personRecord struct {
	Id     int
	Name   string
	Salary float64
}

func TestHasRows(t *testing.T) {
	require.False(t, HasRows(nil))

	empty := NewTable("empty", Schema{Cols: []Column{{Name: "id", Type: ColInt64}}})
	require.False(t, HasRows(empty))

	require.True(t, HasRows(makePeopleTable(t)))
}

func TestToList_People(t *testing.T) {
	tbl := makePeopleTable(t)

	people, err := ToList[personRecord](tbl)
	require.NoError(t, err)
	require.Equal(t, []personRecord{
		{Id: 1, Name: "Alice", Salary: 5000},
		{Id: 2, Name: "Bob", Salary: 7500},
		{Id: 3, Name: "Charlie", Salary: 9000},
	}, people)
}

func TestToList_EmptyTable(t *testing.T) {
	tbl := NewTable("empty", makePeopleTable(t).Schema)

	people, err := ToList[personRecord](tbl)
	require.NoError(t, err)
	require.NotNil(t, people)
	require.Len(t, people, 0)
}

func TestToList_NullsAndUnmatched(t *testing.T) {
	tbl := makePeopleTable(t)
	require.NoError(t, tbl.AddRow(4, nil, nil))

	type partial struct {
		Name  string
		Extra string // no such column
	}

	got, err := ToList[partial](tbl)
	require.NoError(t, err)
	require.Len(t, got, 4)
	require.Equal(t, partial{Name: "Alice"}, got[0])
	require.Equal(t, partial{}, got[3])
}

func TestToList_TagsAndCase(t *testing.T) {
	tbl := makePeopleTable(t)

	type tagged struct {
		ID   int64  `col:"Id"`
		NAME string // matches "Name" only when case is ignored
		Pay  string `col:"salary"`
	}

	got, err := ToList[tagged](tbl)
	require.NoError(t, err)
	require.Equal(t, tagged{ID: 1, NAME: "Alice", Pay: "5000"}, got[0])

	strict, err := ToListWith[tagged](tbl, Options{MatchCase: true})
	require.NoError(t, err)
	require.Equal(t, tagged{ID: 1}, strict[0])

	type custom struct {
		Who string `json:"Name"`
	}
	viaJSONTag, err := ToListWith[custom](tbl, Options{TagName: "json"})
	require.NoError(t, err)
	require.Equal(t, "Bob", viaJSONTag[1].Who)
}

func TestToList_ScannerFields(t *testing.T) {
	tbl := makePeopleTable(t)
	require.NoError(t, tbl.AddRow(4, nil, 100.25))

	type pgPerson struct {
		ID     pgtype.Int8 `col:"Id"`
		Name   pgtype.Text
		Salary decimal.Decimal
	}

	got, err := ToList[pgPerson](tbl)
	require.NoError(t, err)
	require.Len(t, got, 4)

	require.Equal(t, pgtype.Int8{Int64: 1, Valid: true}, got[0].ID)
	require.Equal(t, pgtype.Text{String: "Alice", Valid: true}, got[0].Name)
	require.True(t, decimal.NewFromInt(5000).Equal(got[0].Salary))

	require.False(t, got[3].Name.Valid)
	require.True(t, decimal.RequireFromString("100.25").Equal(got[3].Salary))
}

func TestToList_RichColumns(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tbl := NewTable("orders", Schema{Cols: []Column{
		{Name: "id", Type: ColUUID},
		{Name: "ref", Type: ColUUID},
		{Name: "placed", Type: ColTime},
		{Name: "placed_text", Type: ColText},
		{Name: "amount", Type: ColDecimal},
		{Name: "payload", Type: ColBytes},
	}})
	require.NoError(t, tbl.AddRow(id, id, ts, ts.Format(time.RFC3339), "19.99", []byte{1, 2}))

	type order struct {
		ID         uuid.UUID `col:"id"`
		Ref        string    `col:"ref"`
		Placed     time.Time `col:"placed"`
		PlacedText time.Time `col:"placed_text"`
		Amount     float64   `col:"amount"`
		Payload    []byte    `col:"payload"`
	}

	got, err := ToList[order](tbl)
	require.NoError(t, err)
	require.Equal(t, id, got[0].ID)
	require.Equal(t, id.String(), got[0].Ref)
	require.True(t, ts.Equal(got[0].Placed))
	require.True(t, ts.Equal(got[0].PlacedText))
	require.InDelta(t, 19.99, got[0].Amount, 1e-9)
	require.Equal(t, []byte{1, 2}, got[0].Payload)
}

func TestToList_CoerceError(t *testing.T) {
	tbl := NewTable("t", Schema{Cols: []Column{{Name: "Id", Type: ColText}}})
	require.NoError(t, tbl.AddRow("1"))
	require.NoError(t, tbl.AddRow("not-a-number"))

	_, err := ToList[personRecord](tbl)
	require.ErrorIs(t, err, ErrCoerce)
	require.Contains(t, err.Error(), "row 1")
}

// oneCell builds a single-row table with column "K".
func oneCell(t *testing.T, typ ColumnType, v any) *Table {
	t.Helper()
	tbl := NewTable("one", Schema{Cols: []Column{{Name: "K", Type: typ}}})
	require.NoError(t, tbl.AddRow(v))
	return tbl
}

func TestToList_NumericNarrowing(t *testing.T) {
	tests := []struct {
		name    string
		tbl     *Table
		run     func(*Table) (any, error)
		want    any
		wantErr bool
	}{
		{
			name: "int8 fits",
			tbl:  oneCell(t, ColInt64, 127),
			run:  firstK[int8],
			want: int8(127),
		},
		{
			name:    "int8 overflow",
			tbl:     oneCell(t, ColInt64, 300),
			run:     firstK[int8],
			wantErr: true,
		},
		{
			name:    "int32 field from large int64",
			tbl:     oneCell(t, ColInt64, int64(1)<<40),
			run:     firstK[int32],
			wantErr: true,
		},
		{
			name:    "uint from negative",
			tbl:     oneCell(t, ColInt64, -1),
			run:     firstK[uint],
			wantErr: true,
		},
		{
			name:    "uint8 overflow",
			tbl:     oneCell(t, ColInt32, 256),
			run:     firstK[uint8],
			wantErr: true,
		},
		{
			name: "int from integral float",
			tbl:  oneCell(t, ColFloat64, 5000.0),
			run:  firstK[int],
			want: 5000,
		},
		{
			name:    "int from fractional float",
			tbl:     oneCell(t, ColFloat64, 5000.7),
			run:     firstK[int],
			wantErr: true,
		},
		{
			name:    "float32 overflow",
			tbl:     oneCell(t, ColFloat64, 1e300),
			run:     firstK[float32],
			wantErr: true,
		},
		{
			name:    "int from fractional decimal",
			tbl:     oneCell(t, ColDecimal, "1.5"),
			run:     firstK[int],
			wantErr: true,
		},
		{
			name: "int from integral decimal",
			tbl:  oneCell(t, ColDecimal, "42"),
			run:  firstK[int],
			want: 42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.run(tt.tbl)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrCoerce)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

type kRecord[T any] struct{ K T }

// firstK maps the table onto kRecord[T] and returns the first K.
func firstK[T any](tbl *Table) (any, error) {
	got, err := ToList[kRecord[T]](tbl)
	if err != nil {
		return nil, err
	}
	return got[0].K, nil
}

func TestToDictionary_Narrowing(t *testing.T) {
	tbl := NewTable("d", Schema{Cols: []Column{
		{Name: "K", Type: ColInt64},
		{Name: "V", Type: ColInt64},
	}})
	require.NoError(t, tbl.AddRow(1, 300))

	_, err := ToDictionary[int64, int8](tbl, "K", "V")
	require.ErrorIs(t, err, ErrCoerce)

	_, err = ToDictionary[int8, int64](tbl, "V", "K")
	require.ErrorIs(t, err, ErrCoerce)
}

func TestToDictionary(t *testing.T) {
	tbl := makePeopleTable(t)

	byID, err := ToDictionary[int, string](tbl, "Id", "Name")
	require.NoError(t, err)
	require.Equal(t, map[int]string{1: "Alice", 2: "Bob", 3: "Charlie"}, byID)

	byName, err := ToDictionary[string, float64](tbl, "name", "salary")
	require.NoError(t, err)
	require.Equal(t, map[string]float64{"Alice": 5000, "Bob": 7500, "Charlie": 9000}, byName)

	idAsText, err := ToDictionary[string, int64](tbl, "Id", "Id")
	require.NoError(t, err)
	require.Equal(t, int64(3), idAsText["3"])
}

func TestToDictionary_DuplicateKeysLastWins(t *testing.T) {
	tbl := makePeopleTable(t)
	require.NoError(t, tbl.AddRow(2, "Robert", 8000))

	got, err := ToDictionary[int, string](tbl, "Id", "Name")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "Robert", got[2])
}

func TestToDictionary_NullValue(t *testing.T) {
	tbl := makePeopleTable(t)
	require.NoError(t, tbl.AddRow(4, nil, nil))

	got, err := ToDictionary[int, pgtype.Text](tbl, "Id", "Name")
	require.NoError(t, err)
	require.True(t, got[1].Valid)
	require.False(t, got[4].Valid)
}

func TestToDictionary_NullKey(t *testing.T) {
	tbl := NewTable("d", Schema{Cols: []Column{
		{Name: "K", Type: ColInt64, Nullable: true},
		{Name: "V", Type: ColText},
	}})
	require.NoError(t, tbl.AddRow(nil, "a"))
	require.NoError(t, tbl.AddRow(0, "b"))
	require.NoError(t, tbl.AddRow(300, "c"))

	got, err := ToDictionary[int, string](tbl, "K", "V")
	require.ErrorIs(t, err, ErrCoerce)
	require.Contains(t, err.Error(), "row 0")
	require.Nil(t, got)
}

func TestToDictionary_MissingColumn(t *testing.T) {
	tbl := makePeopleTable(t)

	_, err := ToDictionary[int, string](tbl, "Key", "Name")
	require.ErrorIs(t, err, ErrColumnNotFound)
	require.Contains(t, err.Error(), `"Key"`)

	_, err = ToDictionary[int, string](tbl, "Id", "Value")
	require.ErrorIs(t, err, ErrColumnNotFound)
}

func TestForEach(t *testing.T) {
	tbl := makePeopleTable(t)

	var seen []int
	err := ForEach(tbl, func(r Row) {
		seen = append(seen, r.Index())
		s, err := r.Float64("Salary")
		require.NoError(t, err)
		require.NoError(t, r.Set("Salary", s*2))
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, seen)

	people, err := ToList[personRecord](tbl)
	require.NoError(t, err)
	require.Equal(t, 10000.0, people[0].Salary)
	require.Equal(t, 18000.0, people[2].Salary)

	require.ErrorIs(t, ForEach(tbl, nil), ErrNilAction)
}

func TestNilTable(t *testing.T) {
	calls := 0

	_, err := ToList[personRecord](nil)
	require.ErrorIs(t, err, ErrNilTable)

	_, err = ToJSON(nil)
	require.ErrorIs(t, err, ErrNilTable)

	_, err = ToDictionary[int, string](nil, "Id", "Name")
	require.ErrorIs(t, err, ErrNilTable)

	err = ForEach(nil, func(Row) { calls++ })
	require.ErrorIs(t, err, ErrNilTable)
	require.Zero(t, calls)
}
