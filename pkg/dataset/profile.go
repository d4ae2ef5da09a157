package dataset

import (
	"time"

	"github.com/mlopslite/mlopslite/pkg/frame"
)

// ColumnSchema describes one column of a registered dataset.
type ColumnSchema struct {
	ColumnName    string          `json:"column_name"`
	OriginalType  frame.DType     `json:"original_type"`
	ConvertedType frame.Primitive `json:"converted_type"`
	NullCount     int             `json:"null_count"`
	UniqueCount   int             `json:"unique_count"`
	MinValue      *float64        `json:"min_value"`
	MaxValue      *float64        `json:"max_value"`
}

// Profile computes the schema and descriptive statistics of a column.
// Min and max are only set for numeric primitives with at least one value.
func Profile(column frame.Column) (ColumnSchema, error) {
	converted, err := frame.Translate(column.DType)
	if err != nil {
		return ColumnSchema{}, err
	}

	schema := ColumnSchema{
		ColumnName:    column.Name,
		OriginalType:  column.DType,
		ConvertedType: converted,
	}

	seen := make(map[any]struct{}, len(column.Values))

	for _, value := range column.Values {
		if frame.IsMissing(value) {
			schema.NullCount++

			continue
		}

		seen[uniqueKey(value)] = struct{}{}

		if !converted.IsNumeric() {
			continue
		}

		number, err := frame.AsFloat64(value)
		if err != nil {
			return ColumnSchema{}, err
		}

		if schema.MinValue == nil || number < *schema.MinValue {
			schema.MinValue = &number
		}

		if schema.MaxValue == nil || number > *schema.MaxValue {
			schema.MaxValue = &number
		}
	}

	schema.UniqueCount = len(seen)

	return schema, nil
}

func uniqueKey(value any) any {
	if ts, ok := value.(time.Time); ok {
		return ts.UnixNano()
	}

	return value
}

// Equal compares two schemas including statistics.
func (c ColumnSchema) Equal(other ColumnSchema) bool {
	return c.ColumnName == other.ColumnName &&
		c.OriginalType == other.OriginalType &&
		c.ConvertedType == other.ConvertedType &&
		c.NullCount == other.NullCount &&
		c.UniqueCount == other.UniqueCount &&
		floatPtrEqual(c.MinValue, other.MinValue) &&
		floatPtrEqual(c.MaxValue, other.MaxValue)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}
