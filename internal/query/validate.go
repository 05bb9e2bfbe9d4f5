package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError names the offending field and why it was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate coerces value to the constraint kind and checks its rules.
// It returns the coerced value so callers can bind it to SQL directly.
func Validate(value any, name string, c Constraint) (any, error) {
	v, err := coerce(value, name, c)
	if err != nil {
		return nil, err
	}
	if c.Rules == "" {
		return v, nil
	}
	if err := validate.Var(v, c.Rules); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) && len(ves) > 0 {
			return nil, &ValidationError{Field: name, Message: ruleMessage(ves[0])}
		}
		return nil, invalid(name, "is invalid")
	}
	return v, nil
}

func coerce(value any, name string, c Constraint) (any, error) {
	switch c.Kind {
	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, invalid(name, "must be a string")
		}
		return s, nil
	case KindInt:
		return toInt(value, name)
	case KindFloat:
		f, err := toFloat(value, name)
		if err != nil {
			return nil, err
		}
		if c.Precision > 0 {
			p := math.Pow10(c.Precision)
			f = math.Round(f*p) / p
		}
		return f, nil
	case KindTime:
		return toTime(value, name)
	case KindBool:
		b, err := toBool(value, name)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return value, nil
	}
}

func toInt(value any, name string) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, invalid(name, "must be an integer")
		}
		return int64(v), nil
	case json.Number:
		return toInt(string(v), name)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, invalid(name, "must be an integer")
		}
		return i, nil
	default:
		return 0, invalid(name, "must be an integer")
	}
}

func toFloat(value any, name string) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return toFloat(string(v), name)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, invalid(name, "must be a number")
		}
		return f, nil
	default:
		return 0, invalid(name, "must be a number")
	}
}

func toTime(value any, name string) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
		if err != nil {
			return time.Time{}, invalid(name, "must be an RFC3339 timestamp")
		}
		return t.UTC(), nil
	default:
		return time.Time{}, invalid(name, "must be an RFC3339 timestamp")
	}
}

func toBool(value any, name string) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, invalid(name, "must be a boolean")
}

func ruleMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "min":
		if isString {
			return "length must be at least " + fe.Param()
		}
		return "must be greater than or equal to " + fe.Param()
	case "max":
		if isString {
			return "length must be less than or equal to " + fe.Param()
		}
		return "must be less than or equal to " + fe.Param()
	case "stringid":
		return "fails to match the required pattern"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

// ValidateBoolean returns nil when value is absent.
func ValidateBoolean(value any, name string) (*bool, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []string:
		if len(v) == 0 {
			return nil, nil
		}
		if len(v) > 1 {
			return nil, invalid(name, "must be a boolean")
		}
		value = v[0]
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	b, err := toBool(value, name)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ValidateFields checks a set of provided values against schema.
// Unless partial, every required attribute must be present. In a partial
// update an explicit null clears a Nullable attribute (the key is kept with
// a nil value); on other attributes null means "unchanged".
// Fields are visited in sorted order so the first error is stable.
func ValidateFields(s Schema, values map[string]any, partial bool) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for _, name := range sortedKeys(s) {
		c := s[name]
		v, ok := values[name]
		if ok && v == nil && partial && c.Nullable {
			out[name] = nil
			continue
		}
		if !ok || v == nil {
			if c.Required && !partial {
				return nil, invalid(name, "is required")
			}
			continue
		}
		coerced, err := Validate(v, name, c)
		if err != nil {
			return nil, err
		}
		out[name] = coerced
	}
	for name := range values {
		if _, ok := s[name]; !ok {
			return nil, invalid(name, "is not allowed")
		}
	}
	return out, nil
}

// Pick keeps only the keys of values declared by s.
func Pick(values map[string]any, s Schema) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if _, ok := s[k]; ok {
			out[k] = v
		}
	}
	return out
}
