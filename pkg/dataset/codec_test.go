package dataset_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/dataset"
	"github.com/mlopslite/mlopslite/pkg/frame"
)

func posInf() float64 {
	return math.Inf(1)
}

func TestToCanonicalColumnMismatch(t *testing.T) {
	t.Parallel()

	data := mustFrame(t,
		frame.Column{Name: "a", DType: frame.Int64, Values: []any{1}},
		frame.Column{Name: "b", DType: frame.Int64, Values: []any{2}},
	)

	scenarios := []struct {
		name  string
		types map[string]frame.Primitive
	}{
		{name: "missing column", types: map[string]frame.Primitive{"a": frame.PrimitiveInt}},
		{name: "extra column", types: map[string]frame.Primitive{
			"a": frame.PrimitiveInt, "b": frame.PrimitiveInt, "c": frame.PrimitiveStr,
		}},
		{name: "renamed column", types: map[string]frame.Primitive{"a": frame.PrimitiveInt, "z": frame.PrimitiveInt}},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.name, func(t *testing.T) {
			t.Parallel()

			_, err := dataset.ToCanonical(data, scenario.types)
			require.Error(t, err)
			require.Equal(t, contract.ErrorCodeColumnMismatch, contract.CodeOf(err))
		})
	}
}

func TestToCanonicalCoercesValues(t *testing.T) {
	t.Parallel()

	data := mustFrame(t,
		frame.Column{Name: "n", DType: frame.Int16, Values: []any{int16(4), nil}},
		frame.Column{Name: "o", DType: frame.Object, Values: []any{"7", 1.5}},
	)

	canonical, err := dataset.ToCanonical(data, map[string]frame.Primitive{
		"n": frame.PrimitiveFloat,
		"o": frame.PrimitiveStr,
	})
	require.NoError(t, err)
	require.Equal(t, dataset.Canonical{
		"n": {float64(4), nil},
		"o": {"7", "1.5"},
	}, canonical)

	encoded, err := dataset.EncodeCanonical(canonical)
	require.NoError(t, err)
	require.Equal(t, "{\n  \"n\": [\n    4,\n    null\n  ],\n  \"o\": [\n    \"7\",\n    \"1.5\"\n  ]\n}", string(encoded))
}

func TestToCanonicalRejectsUint64BeyondInt64(t *testing.T) {
	t.Parallel()

	fits := mustFrame(t, frame.Column{Name: "u", DType: frame.Uint64, Values: []any{uint64(math.MaxInt64)}})
	canonical, err := dataset.ToCanonical(fits, map[string]frame.Primitive{"u": frame.PrimitiveInt})
	require.NoError(t, err)
	require.Equal(t, dataset.Canonical{"u": {int64(math.MaxInt64)}}, canonical)

	large := mustFrame(t, frame.Column{Name: "u", DType: frame.Uint64, Values: []any{uint64(math.MaxInt64) + 1}})
	_, err = dataset.ToCanonical(large, map[string]frame.Primitive{"u": frame.PrimitiveInt})
	require.Equal(t, contract.ErrorCodeUnsupportedType, contract.CodeOf(err))

	_, err = dataset.New(large, "counters", "")
	require.Equal(t, contract.ErrorCodeUnsupportedType, contract.CodeOf(err))
}

func TestFromCanonicalColumnMismatch(t *testing.T) {
	t.Parallel()

	_, err := dataset.FromCanonical(
		dataset.Canonical{"a": {int64(1)}},
		[]dataset.ColumnSchema{
			{ColumnName: "a", OriginalType: frame.Int64, ConvertedType: frame.PrimitiveInt},
			{ColumnName: "b", OriginalType: frame.Int64, ConvertedType: frame.PrimitiveInt},
		},
	)
	require.Error(t, err)
	require.Equal(t, contract.ErrorCodeColumnMismatch, contract.CodeOf(err))
}

func TestDecodeCanonicalKeepsLargeIntegers(t *testing.T) {
	t.Parallel()

	canonical, err := dataset.DecodeCanonical([]byte(`{"big": [9007199254740993, null]}`))
	require.NoError(t, err)

	data, err := dataset.FromCanonical(canonical, []dataset.ColumnSchema{
		{ColumnName: "big", OriginalType: frame.Int64, ConvertedType: frame.PrimitiveInt},
	})
	require.NoError(t, err)

	column, ok := data.Column("big")
	require.True(t, ok)
	require.Equal(t, []any{int64(9007199254740993), nil}, column.Values)
}
