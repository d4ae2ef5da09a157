package frame

import (
	"fmt"

	"github.com/mlopslite/mlopslite/pkg/contract"
)

// DType is the native storage type of a column.
type DType string

const (
	Int8     DType = "int8"
	Int16    DType = "int16"
	Int32    DType = "int32"
	Int64    DType = "int64"
	Uint8    DType = "uint8"
	Uint16   DType = "uint16"
	Uint32   DType = "uint32"
	Uint64   DType = "uint64"
	Float32  DType = "float32"
	Float64  DType = "float64"
	Bool     DType = "bool"
	Datetime DType = "datetime64[ns]"
	Object   DType = "object"
)

// Kind returns the single character kind code of the dtype, or 0 when the
// dtype is not known.
func (d DType) Kind() byte {
	switch d {
	case Int8, Int16, Int32, Int64:
		return 'i'
	case Uint8, Uint16, Uint32, Uint64:
		return 'u'
	case Float32, Float64:
		return 'f'
	case Bool:
		return '?'
	case Datetime:
		return 'M'
	case Object:
		return 'O'
	default:
		return 0
	}
}

// Primitive is the portable type a column is converted to for hashing and storage.
type Primitive string

const (
	PrimitiveInt   Primitive = "int"
	PrimitiveFloat Primitive = "float"
	PrimitiveBool  Primitive = "bool"
	PrimitiveStr   Primitive = "str"
)

func (p Primitive) IsNumeric() bool {
	return p == PrimitiveInt || p == PrimitiveFloat
}

func (p Primitive) Valid() bool {
	switch p {
	case PrimitiveInt, PrimitiveFloat, PrimitiveBool, PrimitiveStr:
		return true
	default:
		return false
	}
}

//nolint:gochecknoglobals
var kindToPrimitive = map[byte]Primitive{
	'i': PrimitiveInt,
	'u': PrimitiveInt,
	'?': PrimitiveBool,
	'f': PrimitiveFloat,
	'M': PrimitiveInt,
	'O': PrimitiveStr,
}

// Translate maps a native dtype to its portable primitive.
func Translate(dtype DType) (Primitive, error) {
	primitive, ok := kindToPrimitive[dtype.Kind()]
	if !ok {
		return "", contract.NewError(
			contract.ErrorCodeUnsupportedType,
			fmt.Sprintf("column storage type %q has no primitive mapping", dtype),
		)
	}

	return primitive, nil
}

// NativeFor returns the widest native dtype for a primitive. Datetime columns
// translate to int and cannot be recovered from the primitive alone.
func NativeFor(primitive Primitive) (DType, error) {
	switch primitive {
	case PrimitiveInt:
		return Int64, nil
	case PrimitiveFloat:
		return Float64, nil
	case PrimitiveBool:
		return Bool, nil
	case PrimitiveStr:
		return Object, nil
	default:
		return "", contract.NewError(
			contract.ErrorCodeUnsupportedType,
			fmt.Sprintf("unknown primitive type %q", primitive),
		)
	}
}

// ParseDType validates a dtype name coming from outside the process.
func ParseDType(name string) (DType, error) {
	dtype := DType(name)
	if dtype.Kind() == 0 {
		return "", contract.NewError(
			contract.ErrorCodeUnsupportedType,
			fmt.Sprintf("column storage type %q has no primitive mapping", name),
		)
	}

	return dtype, nil
}
