package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mlopslite/mlopslite/pkg/contract"
	"github.com/mlopslite/mlopslite/pkg/digest"
	"github.com/mlopslite/mlopslite/pkg/frame"
)

// Canonical is the column oriented portable form of a dataset. Every value is
// an int64, float64, bool or string matching the column's primitive type, or
// nil for a missing value.
type Canonical map[string][]any

// ToCanonical coerces every column of data to the primitive given in types.
// The key set of types must equal the frame's column set.
func ToCanonical(data *frame.Frame, types map[string]frame.Primitive) (Canonical, error) {
	if err := checkColumnSet(data.Names(), keys(types)); err != nil {
		return nil, err
	}

	canonical := make(Canonical, data.NumCols())

	for _, column := range data.Columns() {
		primitive := types[column.Name]
		values := make([]any, len(column.Values))

		for i, value := range column.Values {
			if frame.IsMissing(value) {
				continue
			}

			if large, ok := value.(uint64); ok && primitive == frame.PrimitiveInt && large > math.MaxInt64 {
				return nil, contract.Errorf(
					contract.ErrorCodeUnsupportedType,
					"column %q row %d: %s value %d exceeds the portable int range (max %d)",
					column.Name, i, column.DType, large, int64(math.MaxInt64),
				)
			}

			coerced, err := coerce(primitive, value)
			if err != nil {
				return nil, contract.NewErrorWith(
					contract.ErrorCodeInvalidParameterValue,
					fmt.Sprintf("column %q row %d cannot be converted to %s", column.Name, i, primitive),
					err,
				)
			}

			values[i] = coerced
		}

		canonical[column.Name] = values
	}

	return canonical, nil
}

func coerce(primitive frame.Primitive, value any) (any, error) {
	switch primitive {
	case frame.PrimitiveInt:
		return frame.AsInt64(value)
	case frame.PrimitiveFloat:
		f, err := frame.AsFloat64(value)
		if err != nil {
			return nil, err
		}

		if math.IsInf(f, 0) {
			return nil, fmt.Errorf("infinite value %v has no portable form", f)
		}

		return f, nil
	case frame.PrimitiveBool:
		return frame.AsBool(value)
	case frame.PrimitiveStr:
		return frame.AsString(value), nil
	default:
		return nil, contract.Errorf(contract.ErrorCodeUnsupportedType, "unknown primitive type %q", primitive)
	}
}

// FromCanonical rebuilds a frame restoring every column's original storage type.
// Columns come back in the order of the given schemas.
func FromCanonical(canonical Canonical, columns []ColumnSchema) (*frame.Frame, error) {
	names := make([]string, 0, len(columns))
	for _, column := range columns {
		names = append(names, column.ColumnName)
	}

	if err := checkColumnSet(keys(canonical), names); err != nil {
		return nil, err
	}

	restored := make([]frame.Column, 0, len(columns))
	for _, column := range columns {
		restored = append(restored, frame.Column{
			Name:   column.ColumnName,
			DType:  column.OriginalType,
			Values: canonical[column.ColumnName],
		})
	}

	return frame.New(restored...)
}

// EncodeCanonical renders the canonical form with sorted keys and stable whitespace.
func EncodeCanonical(canonical Canonical) ([]byte, error) {
	return digest.Encode(canonical)
}

// DecodeCanonical parses an encoded canonical form. Numbers are kept as
// json.Number so large integers survive.
func DecodeCanonical(encoded []byte) (Canonical, error) {
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()

	var canonical Canonical
	if err := decoder.Decode(&canonical); err != nil {
		return nil, fmt.Errorf("failed to decode canonical dataset: %w", err)
	}

	return canonical, nil
}

func checkColumnSet(actual, expected []string) error {
	expectedSet := make(map[string]struct{}, len(expected))
	for _, name := range expected {
		expectedSet[name] = struct{}{}
	}

	actualSet := make(map[string]struct{}, len(actual))
	for _, name := range actual {
		actualSet[name] = struct{}{}
	}

	var missing, extra []string

	for name := range expectedSet {
		if _, ok := actualSet[name]; !ok {
			missing = append(missing, name)
		}
	}

	for name := range actualSet {
		if _, ok := expectedSet[name]; !ok {
			extra = append(extra, name)
		}
	}

	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}

	sort.Strings(missing)
	sort.Strings(extra)

	return contract.Errorf(
		contract.ErrorCodeColumnMismatch,
		"column set mismatch: missing [%s], unexpected [%s]",
		strings.Join(missing, ", "),
		strings.Join(extra, ", "),
	)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}
