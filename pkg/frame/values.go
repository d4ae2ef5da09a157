package frame

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

//nolint:gochecknoglobals
var intBits = map[DType]int{Int8: 8, Int16: 16, Int32: 32, Int64: 64, Uint8: 8, Uint16: 16, Uint32: 32, Uint64: 64}

// NormalizeValue converts value to the Go representation used for dtype.
//
//nolint:cyclop
func NormalizeValue(dtype DType, value any) (any, error) {
	if IsMissing(value) {
		return nil, nil
	}

	switch dtype.Kind() {
	case 'i':
		v, err := AsInt64(value)
		if err != nil {
			return nil, err
		}

		if bits := intBits[dtype]; bits < 64 {
			limit := int64(1) << (bits - 1)
			if v < -limit || v >= limit {
				return nil, fmt.Errorf("value %d overflows %s", v, dtype)
			}
		}

		return v, nil
	case 'u':
		v, err := AsUint64(value)
		if err != nil {
			return nil, err
		}

		if bits := intBits[dtype]; bits < 64 && v >= uint64(1)<<bits {
			return nil, fmt.Errorf("value %d overflows %s", v, dtype)
		}

		return v, nil
	case 'f':
		v, err := AsFloat64(value)
		if err != nil {
			return nil, err
		}

		if math.IsNaN(v) {
			return nil, nil
		}

		if dtype == Float32 {
			return float64(float32(v)), nil
		}

		return v, nil
	case '?':
		return AsBool(value)
	case 'M':
		return AsTime(value)
	case 'O':
		return AsString(value), nil
	default:
		return nil, fmt.Errorf("unsupported dtype %q", dtype)
	}
}

//nolint:cyclop
func AsInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return uintToInt64(uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return uintToInt64(v)
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	case bool:
		if v {
			return 1, nil
		}

		return 0, nil
	case time.Time:
		return unixNanos(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}

		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid number %q: %w", v, err)
		}

		return floatToInt64(f)
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q: %w", v, err)
		}

		return i, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int", value)
	}
}

func uintToInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("value %d overflows int64", v)
	}

	return int64(v), nil
}

func floatToInt64(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("value %v is not integral", v)
	}

	if v < math.MinInt64 || v >= math.MaxInt64 {
		return 0, fmt.Errorf("value %v overflows int64", v)
	}

	return int64(v), nil
}

func AsUint64(value any) (uint64, error) {
	switch v := value.(type) {
	case uint:
		return uint64(v), nil
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint64:
		return v, nil
	case json.Number:
		u, err := strconv.ParseUint(v.String(), 10, 64)
		if err == nil {
			return u, nil
		}
	case string:
		u, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid unsigned integer %q: %w", v, err)
		}

		return u, nil
	}

	i, err := AsInt64(value)
	if err != nil {
		return 0, err
	}

	if i < 0 {
		return 0, fmt.Errorf("value %d is negative", i)
	}

	return uint64(i), nil
}

//nolint:cyclop
func AsFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}

		return 0, nil
	case time.Time:
		nanos, err := unixNanos(v)

		return float64(nanos), err
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid number %q: %w", v, err)
		}

		return f, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid float %q: %w", v, err)
		}

		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float", value)
	}
}

func AsBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("invalid boolean %q: %w", v, err)
		}

		return b, nil
	default:
		f, err := AsFloat64(value)
		if err != nil {
			return false, fmt.Errorf("cannot convert %T to bool", value)
		}

		return f != 0, nil
	}
}

// unixNanos fails for instants outside the int64 nanosecond range, roughly
// years 1678 to 2262, where UnixNano wraps.
func unixNanos(t time.Time) (int64, error) {
	nanos := t.UnixNano()
	if !time.Unix(0, nanos).Equal(t) {
		return 0, fmt.Errorf("datetime %s is outside the nanosecond range", t.UTC().Format(time.RFC3339Nano))
	}

	return nanos, nil
}

// AsTime accepts time.Time, RFC 3339 strings and integer nanoseconds since the epoch.
func AsTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		if _, err := unixNanos(v); err != nil {
			return time.Time{}, err
		}

		return v.UTC(), nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid datetime %q: %w", v, err)
		}

		if _, err := unixNanos(t); err != nil {
			return time.Time{}, err
		}

		return t.UTC(), nil
	default:
		nanos, err := AsInt64(value)
		if err != nil {
			return time.Time{}, fmt.Errorf("cannot convert %T to datetime", value)
		}

		return time.Unix(0, nanos).UTC(), nil
	}
}

func AsString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
