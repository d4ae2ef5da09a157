package dataset_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/dataset"
	"github.com/mlopslite/mlopslite/pkg/frame"
	"github.com/mlopslite/mlopslite/pkg/utils"
)

func TestProfile(t *testing.T) {
	t.Parallel()

	stamp := time.Unix(0, 1000).UTC()

	scenarios := []struct {
		name     string
		column   frame.Column
		expected dataset.ColumnSchema
	}{
		{
			name:   "integers with repeats",
			column: frame.Column{Name: "a", DType: frame.Int64, Values: []any{int64(3), int64(1), int64(3), nil}},
			expected: dataset.ColumnSchema{
				ColumnName: "a", OriginalType: frame.Int64, ConvertedType: frame.PrimitiveInt,
				NullCount: 1, UniqueCount: 2, MinValue: utils.PtrTo(1.0), MaxValue: utils.PtrTo(3.0),
			},
		},
		{
			name:   "all missing floats",
			column: frame.Column{Name: "f", DType: frame.Float64, Values: []any{nil, nil}},
			expected: dataset.ColumnSchema{
				ColumnName: "f", OriginalType: frame.Float64, ConvertedType: frame.PrimitiveFloat,
				NullCount: 2,
			},
		},
		{
			name:   "booleans have no range",
			column: frame.Column{Name: "b", DType: frame.Bool, Values: []any{true, true, false}},
			expected: dataset.ColumnSchema{
				ColumnName: "b", OriginalType: frame.Bool, ConvertedType: frame.PrimitiveBool,
				UniqueCount: 2,
			},
		},
		{
			name:   "datetimes count as integers",
			column: frame.Column{Name: "t", DType: frame.Datetime, Values: []any{stamp, stamp}},
			expected: dataset.ColumnSchema{
				ColumnName: "t", OriginalType: frame.Datetime, ConvertedType: frame.PrimitiveInt,
				UniqueCount: 1, MinValue: utils.PtrTo(1000.0), MaxValue: utils.PtrTo(1000.0),
			},
		},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.name, func(t *testing.T) {
			t.Parallel()

			column := mustFrame(t, scenario.column).Columns()[0]

			schema, err := dataset.Profile(column)
			require.NoError(t, err)
			require.True(t, scenario.expected.Equal(schema), "got %+v", schema)
		})
	}
}

func TestProfileUnsupportedType(t *testing.T) {
	t.Parallel()

	_, err := dataset.Profile(frame.Column{Name: "c", DType: "complex128", Values: []any{}})
	require.Error(t, err)
	require.Equal(t, contract.ErrorCodeUnsupportedType, contract.CodeOf(err))
}
