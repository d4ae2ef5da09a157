package frame

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mlopslite/mlopslite/pkg/contract"
)

type missingValue struct{}

func (missingValue) String() string { return "<missing>" }

// Missing is an explicit missing marker. nil and float NaN are treated the same way.
//
//nolint:gochecknoglobals
var Missing = missingValue{}

func IsMissing(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case missingValue:
		return true
	case float64:
		return math.IsNaN(v)
	case float32:
		return math.IsNaN(float64(v))
	default:
		return false
	}
}

// Column is a named, typed sequence of values.
type Column struct {
	Name   string
	DType  DType
	Values []any
}

// Len returns the number of values in the column.
func (c Column) Len() int {
	return len(c.Values)
}

// Frame is an ordered set of equally sized columns. Values are normalized on
// construction: missing markers become nil, integers int64, unsigned integers
// uint64, floats float64, datetimes UTC time.Time and object values strings.
type Frame struct {
	columns []Column
	index   map[string]int
	rows    int
}

func New(columns ...Column) (*Frame, error) {
	frame := &Frame{
		columns: make([]Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}

	for i, column := range columns {
		if column.Name == "" {
			return nil, contract.Errorf(contract.ErrorCodeInvalidParameterValue, "column %d has an empty name", i)
		}

		if _, ok := frame.index[column.Name]; ok {
			return nil, contract.Errorf(contract.ErrorCodeColumnMismatch, "duplicate column %q", column.Name)
		}

		if i == 0 {
			frame.rows = column.Len()
		} else if column.Len() != frame.rows {
			return nil, contract.Errorf(
				contract.ErrorCodeColumnMismatch,
				"column %q has %d values, expected %d", column.Name, column.Len(), frame.rows,
			)
		}

		normalized, err := normalizeColumn(column)
		if err != nil {
			return nil, err
		}

		frame.index[column.Name] = len(frame.columns)
		frame.columns = append(frame.columns, normalized)
	}

	return frame, nil
}

// FromMap builds a frame from a column mapping, inferring each column's dtype.
// Columns are ordered by name since map iteration order is not stable.
func FromMap(data map[string][]any) (*Frame, error) {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}

	sort.Strings(names)

	columns := make([]Column, 0, len(names))
	for _, name := range names {
		columns = append(columns, Column{Name: name, DType: InferDType(data[name]), Values: data[name]})
	}

	return New(columns...)
}

// InferDType picks the narrowest dtype able to hold all non-missing values.
//
//nolint:cyclop
func InferDType(values []any) DType {
	var ints, floats, bools, times, others int

	for _, value := range values {
		if IsMissing(value) {
			continue
		}

		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			ints++
		case float32, float64:
			floats++
		case bool:
			bools++
		case time.Time:
			times++
		default:
			others++
		}
	}

	switch {
	case others > 0:
		return Object
	case bools > 0 && ints+floats+times == 0:
		return Bool
	case times > 0 && ints+floats+bools == 0:
		return Datetime
	case floats > 0 && bools+times == 0:
		return Float64
	case ints > 0 && bools+times == 0:
		return Int64
	default:
		return Object
	}
}

func normalizeColumn(column Column) (Column, error) {
	if column.DType.Kind() == 0 {
		return Column{}, contract.Errorf(
			contract.ErrorCodeUnsupportedType,
			"column %q: storage type %q has no primitive mapping", column.Name, column.DType,
		)
	}

	values := make([]any, len(column.Values))

	for i, value := range column.Values {
		normalized, err := NormalizeValue(column.DType, value)
		if err != nil {
			return Column{}, contract.NewErrorWith(
				contract.ErrorCodeInvalidParameterValue,
				fmt.Sprintf("column %q row %d", column.Name, i),
				err,
			)
		}

		values[i] = normalized
	}

	return Column{Name: column.Name, DType: column.DType, Values: values}, nil
}

func (f *Frame) NumRows() int {
	return f.rows
}

func (f *Frame) NumCols() int {
	return len(f.columns)
}

func (f *Frame) Names() []string {
	names := make([]string, len(f.columns))
	for i, column := range f.columns {
		names[i] = column.Name
	}

	return names
}

// Columns returns the columns in order. The value slices are shared with the frame.
func (f *Frame) Columns() []Column {
	columns := make([]Column, len(f.columns))
	copy(columns, f.columns)

	return columns
}

func (f *Frame) Column(name string) (Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return Column{}, false
	}

	return f.columns[i], true
}

func (f *Frame) DTypes() map[string]DType {
	dtypes := make(map[string]DType, len(f.columns))
	for _, column := range f.columns {
		dtypes[column.Name] = column.DType
	}

	return dtypes
}

// Row returns the values of row i keyed by column name.
func (f *Frame) Row(i int) map[string]any {
	row := make(map[string]any, len(f.columns))
	for _, column := range f.columns {
		row[column.Name] = column.Values[i]
	}

	return row
}

// Select returns a frame with only the named columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	columns := make([]Column, 0, len(names))

	for _, name := range names {
		column, ok := f.Column(name)
		if !ok {
			return nil, contract.Errorf(contract.ErrorCodeColumnMismatch, "column %q not found", name)
		}

		columns = append(columns, column)
	}

	return New(columns...)
}

// Equal reports whether both frames have the same columns, dtypes and values in the same order.
func (f *Frame) Equal(other *Frame) bool {
	if f.rows != other.rows || len(f.columns) != len(other.columns) {
		return false
	}

	for i, column := range f.columns {
		otherColumn := other.columns[i]
		if column.Name != otherColumn.Name || column.DType != otherColumn.DType {
			return false
		}

		for j, value := range column.Values {
			if !valuesEqual(value, otherColumn.Values[j]) {
				return false
			}
		}
	}

	return true
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)

		return ok && ta.Equal(tb)
	}

	return a == b
}
