package dataset_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/dataset"
	"github.com/mlopslite/mlopslite/pkg/frame"
)

func mustFrame(t *testing.T, columns ...frame.Column) *frame.Frame {
	t.Helper()

	data, err := frame.New(columns...)
	require.NoError(t, err)

	return data
}

func TestNewProfilesColumns(t *testing.T) {
	t.Parallel()

	data := mustFrame(t,
		frame.Column{Name: "a", DType: frame.Int64, Values: []any{1, 2, 3}},
		frame.Column{Name: "b", DType: frame.Float64, Values: []any{1.1, 2.1, 2.2}},
		frame.Column{Name: "c", DType: frame.Object, Values: []any{"x", "y", nil}},
	)

	ds, err := dataset.New(data, "sample", "three columns")
	require.NoError(t, err)

	meta := ds.Metadata
	require.False(t, meta.Registered())
	require.Equal(t, 3, meta.SizeRows)
	require.Equal(t, 3, meta.SizeCols)
	require.Len(t, meta.Hash, 32)
	require.Equal(t, []string{"a", "b", "c"}, meta.ColumnNames())
	require.Equal(t, map[string]frame.Primitive{
		"a": frame.PrimitiveInt,
		"b": frame.PrimitiveFloat,
		"c": frame.PrimitiveStr,
	}, meta.ConvertedTypes())

	c, ok := meta.Column("c")
	require.True(t, ok)
	require.Equal(t, 1, c.NullCount)
	require.Equal(t, 2, c.UniqueCount)
	require.Nil(t, c.MinValue)
	require.Nil(t, c.MaxValue)

	b, ok := meta.Column("b")
	require.True(t, ok)
	require.InDelta(t, 1.1, *b.MinValue, 1e-12)
	require.InDelta(t, 2.2, *b.MaxValue, 1e-12)
}

func TestNewRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	scenarios := []struct {
		name    string
		data    *frame.Frame
		dsName  string
		errCode contract.ErrorCode
	}{
		{
			name:    "empty name",
			data:    mustFrame(t, frame.Column{Name: "a", DType: frame.Int64, Values: []any{1}}),
			dsName:  "",
			errCode: contract.ErrorCodeInvalidParameterValue,
		},
		{
			name:    "no columns",
			data:    mustFrame(t),
			dsName:  "empty",
			errCode: contract.ErrorCodeInvalidParameterValue,
		},
		{
			name:    "infinite float",
			data:    mustFrame(t, frame.Column{Name: "a", DType: frame.Float64, Values: []any{1.0, posInf()}}),
			dsName:  "inf",
			errCode: contract.ErrorCodeInvalidParameterValue,
		},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.name, func(t *testing.T) {
			t.Parallel()

			_, err := dataset.New(scenario.data, scenario.dsName, "")
			require.Error(t, err)
			require.Equal(t, scenario.errCode, contract.CodeOf(err))
		})
	}
}

func TestHashDependsOnContentOnly(t *testing.T) {
	t.Parallel()

	first := mustFrame(t,
		frame.Column{Name: "x", DType: frame.Int32, Values: []any{1, 2}},
		frame.Column{Name: "y", DType: frame.Object, Values: []any{"a", "b"}},
	)
	// Same converted content under a wider storage type and another column order.
	second := mustFrame(t,
		frame.Column{Name: "y", DType: frame.Object, Values: []any{"a", "b"}},
		frame.Column{Name: "x", DType: frame.Int64, Values: []any{int64(1), int64(2)}},
	)
	changed := mustFrame(t,
		frame.Column{Name: "x", DType: frame.Int64, Values: []any{1, 3}},
		frame.Column{Name: "y", DType: frame.Object, Values: []any{"a", "b"}},
	)

	a, err := dataset.New(first, "one", "first description")
	require.NoError(t, err)

	b, err := dataset.New(second, "two", "another description")
	require.NoError(t, err)

	c, err := dataset.New(changed, "one", "first description")
	require.NoError(t, err)

	require.Equal(t, a.Metadata.Hash, b.Metadata.Hash)
	require.NotEqual(t, a.Metadata.Hash, c.Metadata.Hash)
}

func TestRestoreKeepsOriginalTypes(t *testing.T) {
	t.Parallel()

	stamp := time.Date(2024, 3, 1, 12, 30, 0, 123, time.UTC)
	data := mustFrame(t,
		frame.Column{Name: "when", DType: frame.Datetime, Values: []any{stamp, nil}},
		frame.Column{Name: "small", DType: frame.Uint8, Values: []any{uint8(7), uint8(255)}},
		frame.Column{Name: "ratio", DType: frame.Float32, Values: []any{float32(0.5), nil}},
		frame.Column{Name: "flag", DType: frame.Bool, Values: []any{true, false}},
	)

	ds, err := dataset.New(data, "typed", "")
	require.NoError(t, err)

	when, _ := ds.Metadata.Column("when")
	require.Equal(t, frame.PrimitiveInt, when.ConvertedType)
	require.Equal(t, frame.Datetime, when.OriginalType)

	restored, err := dataset.Restore(ds.Metadata, ds.Encoded())
	require.NoError(t, err)
	require.True(t, data.Equal(restored.Data))
	require.Equal(t, data.DTypes(), restored.Data.DTypes())

	column, _ := restored.Data.Column("when")
	require.True(t, stamp.Equal(column.Values[0].(time.Time)))

	_, err = frame.New(frame.Column{
		Name: "when", DType: frame.Datetime, Values: []any{time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC)},
	})
	require.Equal(t, contract.ErrorCodeInvalidParameterValue, contract.CodeOf(err))
}

func TestRoundTripProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		rows := rapid.IntRange(0, 25).Draw(t, "rows")

		nullable := func(gen *rapid.Generator[any], label string) []any {
			values := make([]any, rows)
			for i := range values {
				if rapid.Bool().Draw(t, label+"_null") {
					continue
				}

				values[i] = gen.Draw(t, label)
			}

			return values
		}

		ints := rapid.Map(rapid.Int64(), func(v int64) any { return v })
		floats := rapid.Map(rapid.Float64Range(-1e9, 1e9), func(v float64) any { return v })
		bools := rapid.Map(rapid.Bool(), func(v bool) any { return v })
		strs := rapid.Map(rapid.StringMatching(`[a-zA-Z0-9 _.-]{0,12}`), func(v string) any { return v })
		times := rapid.Map(rapid.Int64Range(0, 4102444800000000000), func(v int64) any { return time.Unix(0, v).UTC() })

		data, err := frame.New(
			frame.Column{Name: "i", DType: frame.Int64, Values: nullable(ints, "i")},
			frame.Column{Name: "f", DType: frame.Float64, Values: nullable(floats, "f")},
			frame.Column{Name: "b", DType: frame.Bool, Values: nullable(bools, "b")},
			frame.Column{Name: "s", DType: frame.Object, Values: nullable(strs, "s")},
			frame.Column{Name: "t", DType: frame.Datetime, Values: nullable(times, "t")},
		)
		require.NoError(t, err)

		ds, err := dataset.New(data, "generated", "")
		require.NoError(t, err)

		restored, err := dataset.Restore(ds.Metadata, ds.Encoded())
		require.NoError(t, err)
		require.True(t, data.Equal(restored.Data))

		again, err := dataset.New(restored.Data, "generated", "")
		require.NoError(t, err)
		require.Equal(t, ds.Metadata.Hash, again.Metadata.Hash)
	})
}
