package frame_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/frame"
)

func TestFromMapInfersDTypes(t *testing.T) {
	f, err := frame.FromMap(map[string][]any{
		"c": {"x", "y", nil},
		"a": {1, 2, 3},
		"b": {1.1, 2.1, 2.2},
		"d": {true, false, nil},
		"e": {time.Unix(0, 0), nil, time.Unix(10, 0)},
	})
	require.NoError(t, err)

	require.Equal(t, []string{"a", "b", "c", "d", "e"}, f.Names())
	require.Equal(t, map[string]frame.DType{
		"a": frame.Int64,
		"b": frame.Float64,
		"c": frame.Object,
		"d": frame.Bool,
		"e": frame.Datetime,
	}, f.DTypes())
	require.Equal(t, 3, f.NumRows())
	require.Equal(t, 5, f.NumCols())
}

func TestNewNormalizesMissingMarkers(t *testing.T) {
	f, err := frame.New(
		frame.Column{Name: "f", DType: frame.Float64, Values: []any{math.NaN(), 1.5, frame.Missing}},
		frame.Column{Name: "i", DType: frame.Int32, Values: []any{int32(4), nil, 6}},
	)
	require.NoError(t, err)

	column, ok := f.Column("f")
	require.True(t, ok)
	require.Equal(t, []any{nil, 1.5, nil}, column.Values)

	column, _ = f.Column("i")
	require.Equal(t, []any{int64(4), nil, int64(6)}, column.Values)
}

func TestNewRejectsInvalidFrames(t *testing.T) {
	scenarios := []struct {
		name    string
		columns []frame.Column
		code    contract.ErrorCode
	}{
		{
			name: "uneven lengths",
			columns: []frame.Column{
				{Name: "a", DType: frame.Int64, Values: []any{1, 2}},
				{Name: "b", DType: frame.Int64, Values: []any{1}},
			},
			code: contract.ErrorCodeColumnMismatch,
		},
		{
			name: "duplicate names",
			columns: []frame.Column{
				{Name: "a", DType: frame.Int64, Values: []any{1}},
				{Name: "a", DType: frame.Int64, Values: []any{1}},
			},
			code: contract.ErrorCodeColumnMismatch,
		},
		{
			name:    "unknown dtype",
			columns: []frame.Column{{Name: "a", DType: "complex64", Values: []any{1}}},
			code:    contract.ErrorCodeUnsupportedType,
		},
		{
			name:    "overflow",
			columns: []frame.Column{{Name: "a", DType: frame.Int8, Values: []any{300}}},
			code:    contract.ErrorCodeInvalidParameterValue,
		},
		{
			name:    "non integral",
			columns: []frame.Column{{Name: "a", DType: frame.Int64, Values: []any{1.5}}},
			code:    contract.ErrorCodeInvalidParameterValue,
		},
		{
			name: "datetime before 1678",
			columns: []frame.Column{{
				Name: "a", DType: frame.Datetime, Values: []any{time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC)},
			}},
			code: contract.ErrorCodeInvalidParameterValue,
		},
		{
			name:    "datetime string after 2262",
			columns: []frame.Column{{Name: "a", DType: frame.Datetime, Values: []any{"2300-01-01T00:00:00Z"}}},
			code:    contract.ErrorCodeInvalidParameterValue,
		},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.name, func(t *testing.T) {
			_, err := frame.New(scenario.columns...)
			require.Error(t, err)
			require.Equal(t, scenario.code, contract.CodeOf(err))
		})
	}
}

func TestSelectAndEqual(t *testing.T) {
	f, err := frame.FromMap(map[string][]any{"a": {1, 2}, "b": {"x", "y"}})
	require.NoError(t, err)

	selected, err := f.Select("b", "a")
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, selected.Names())
	require.False(t, f.Equal(selected))

	again, err := selected.Select("a", "b")
	require.NoError(t, err)
	require.True(t, f.Equal(again))

	_, err = f.Select("z")
	require.Equal(t, contract.ErrorCodeColumnMismatch, contract.CodeOf(err))

	require.Equal(t, map[string]any{"a": int64(2), "b": "y"}, f.Row(1))
}

func TestDatetimeNormalization(t *testing.T) {
	local := time.Date(2023, 4, 10, 12, 0, 0, 123, time.FixedZone("X", 3600))

	f, err := frame.New(frame.Column{
		Name:   "ts",
		DType:  frame.Datetime,
		Values: []any{local, "2023-04-10T11:00:00.000000123Z", local.UnixNano()},
	})
	require.NoError(t, err)

	column, _ := f.Column("ts")
	for _, value := range column.Values {
		ts, ok := value.(time.Time)
		require.True(t, ok)
		require.True(t, ts.Equal(local))
		require.Equal(t, time.UTC, ts.Location())
	}
}
