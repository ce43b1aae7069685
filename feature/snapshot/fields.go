package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleet-manager/core/reconcile"
	"fleet-manager/core/utils"

	"gorm.io/datatypes"
)

var (
	errMissing = errors.New("required field is missing")
	errEmpty   = errors.New("must not be empty")
)

// timeLayouts are the accepted timestamp encodings. Values without a zone
// are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// fields reads typed values out of one snapshot row. Every failure is a
// *reconcile.FieldError naming the row index and field.
type fields struct {
	row   reconcile.Row
	index int
}

func (f fields) fail(name string, err error) error {
	return &reconcile.FieldError{Index: f.index, Field: name, Err: err}
}

// value returns the raw value and whether it is present and non-null.
func (f fields) value(name string) (any, bool) {
	v, ok := f.row[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (f fields) id(name string) (int64, error) {
	n, err := f.int64(name)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, f.fail(name, fmt.Errorf("identifier must be positive, got %d", n))
	}
	return n, nil
}

func (f fields) optID(name string) (*int64, error) {
	if _, ok := f.value(name); !ok {
		return nil, nil
	}
	n, err := f.id(name)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (f fields) int64(name string) (int64, error) {
	v, ok := f.value(name)
	if !ok {
		return 0, f.fail(name, errMissing)
	}
	n, err := utils.ToInt64(v)
	if err != nil {
		return 0, f.fail(name, err)
	}
	return n, nil
}

func (f fields) float(name string) (float64, error) {
	v, ok := f.value(name)
	if !ok {
		return 0, f.fail(name, errMissing)
	}
	n, err := utils.ToFloat64(v)
	if err != nil {
		return 0, f.fail(name, err)
	}
	return n, nil
}

func (f fields) bool(name string) (bool, error) {
	v, ok := f.value(name)
	if !ok {
		return false, f.fail(name, errMissing)
	}
	b, err := utils.ToBool(v)
	if err != nil {
		return false, f.fail(name, err)
	}
	return b, nil
}

// name reads a required, non-blank string.
func (f fields) name(field string) (string, error) {
	v, ok := f.value(field)
	if !ok {
		return "", f.fail(field, errMissing)
	}
	s, err := utils.ToString(v)
	if err != nil {
		return "", f.fail(field, err)
	}
	if strings.TrimSpace(s) == "" {
		return "", f.fail(field, errEmpty)
	}
	return s, nil
}

// text reads a required scalar rendered as text.
func (f fields) text(name string) (string, error) {
	v, ok := f.value(name)
	if !ok {
		return "", f.fail(name, errMissing)
	}
	s, err := utils.ToText(v)
	if err != nil {
		return "", f.fail(name, err)
	}
	return s, nil
}

// optText reads an optional string; absent and null both yield def.
func (f fields) optText(name, def string) (string, error) {
	if _, ok := f.value(name); !ok {
		return def, nil
	}
	return f.text(name)
}

func (f fields) optString(name string) (*string, error) {
	v, ok := f.value(name)
	if !ok {
		return nil, nil
	}
	s, err := utils.ToString(v)
	if err != nil {
		return nil, f.fail(name, err)
	}
	return &s, nil
}

// color reads an optional display colour, falling back to def when absent
// or blank.
func (f fields) color(name, def string) (string, error) {
	s, err := f.optText(name, def)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return s, nil
}

func (f fields) time(name string) (time.Time, error) {
	v, ok := f.value(name)
	if !ok {
		return time.Time{}, f.fail(name, errMissing)
	}
	t, err := parseTime(v)
	if err != nil {
		return time.Time{}, f.fail(name, err)
	}
	return t, nil
}

func (f fields) optTime(name string) (*time.Time, error) {
	v, ok := f.value(name)
	if !ok {
		return nil, nil
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseTime(v)
	if err != nil {
		return nil, f.fail(name, err)
	}
	return &t, nil
}

// object reads a JSON object given either inline or as an encoded string.
// The result is re-encoded with sorted keys.
func (f fields) object(name string) (datatypes.JSON, error) {
	v, ok := f.value(name)
	if !ok {
		return nil, f.fail(name, errMissing)
	}

	var obj map[string]any
	switch val := v.(type) {
	case map[string]any:
		obj = val
	case string:
		dec := json.NewDecoder(strings.NewReader(val))
		dec.UseNumber()
		if err := dec.Decode(&obj); err != nil || obj == nil {
			return nil, f.fail(name, fmt.Errorf("%w: not a JSON object", utils.ErrWrongType))
		}
	default:
		return nil, f.fail(name, fmt.Errorf("%w: %T is not an object", utils.ErrWrongType, v))
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, f.fail(name, err)
	}
	return datatypes.JSON(raw), nil
}

func parseTime(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val.UTC(), nil
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q is not a timestamp", utils.ErrWrongType, val)
	default:
		return time.Time{}, fmt.Errorf("%w: %T is not a timestamp", utils.ErrWrongType, v)
	}
}
