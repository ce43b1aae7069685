package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrWrongType is returned when a value cannot represent the requested type.
var ErrWrongType = errors.New("wrong type")

// ToInt64 converts decoded JSON/YAML scalars to an int64. Floats must be
// integral and strings must parse as base-10 integers.
func ToInt64(val any) (int64, error) {
	switch v := val.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint:
		return ToInt64(uint64(v))
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrWrongType, v)
		}
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrWrongType, v)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if v >= math.MaxInt64 || v < math.MinInt64 {
			return 0, fmt.Errorf("%w: %v overflows int64", ErrWrongType, v)
		}
		return int64(v), nil
	case float32:
		return ToInt64(float64(v))
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrWrongType, v.String())
		}
		return ToInt64(f)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrWrongType, v)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %T is not an integer", ErrWrongType, val)
	}
}

// ToFloat64 converts decoded JSON/YAML scalars to a float64.
func ToFloat64(val any) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrWrongType, v.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrWrongType, v)
		}
		return f, nil
	default:
		i, err := ToInt64(val)
		if err != nil {
			return 0, fmt.Errorf("%w: %T is not a number", ErrWrongType, val)
		}
		return float64(i), nil
	}
}

// ToString accepts strings only. Use ToText for values that may legitimately
// arrive as numbers or booleans.
func ToString(val any) (string, error) {
	switch v := val.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("%w: %T is not a string", ErrWrongType, val)
	}
}

// ToText renders any scalar as text. Maps and slices are rejected.
func ToText(val any) (string, error) {
	switch v := val.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case map[string]any, []any:
		return "", fmt.Errorf("%w: %T is not a scalar", ErrWrongType, val)
	default:
		if i, err := ToInt64(val); err == nil {
			return strconv.FormatInt(i, 10), nil
		}
		return "", fmt.Errorf("%w: %T is not a scalar", ErrWrongType, val)
	}
}

// ToBool converts bool, 0/1 numbers and "true"/"false"/"1"/"0" strings.
func ToBool(val any) (bool, error) {
	switch v := val.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true":
			return true, nil
		case "0", "false":
			return false, nil
		}
		return false, fmt.Errorf("%w: %q is not a boolean", ErrWrongType, v)
	default:
		i, err := ToInt64(val)
		if err != nil || (i != 0 && i != 1) {
			return false, fmt.Errorf("%w: %v is not a boolean", ErrWrongType, val)
		}
		return i == 1, nil
	}
}
