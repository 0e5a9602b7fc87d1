// Package facts turns raw dict-shaped provider payloads into typed fact
// objects. Extractors never fail: absent or malformed fields become nil.
package facts

import (
	"strconv"
	"strings"
	"time"
)

// ToInt coerces string, float, bool, and integer encodings of a number.
// Returns nil for anything non-coercible.
func ToInt(v any) *int {
	switch x := v.(type) {
	case int:
		return &x
	case int64:
		i := int(x)
		return &i
	case float64:
		i := int(x)
		return &i
	case bool:
		i := 0
		if x {
			i = 1
		}
		return &i
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		if i, err := strconv.Atoi(s); err == nil {
			return &i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			i := int(f)
			return &i
		}
	}
	return nil
}

// ToFloat coerces string, integer, and float encodings. Nil otherwise.
func ToFloat(v any) *float64 {
	switch x := v.(type) {
	case float64:
		return &x
	case float32:
		f := float64(x)
		return &f
	case int:
		f := float64(x)
		return &f
	case int64:
		f := float64(x)
		return &f
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}
	return nil
}

// ToBool coerces bool, numeric, and common string encodings of a truth
// value. Nil for anything unrecognized.
func ToBool(v any) *bool {
	switch x := v.(type) {
	case bool:
		return &x
	case int:
		b := x != 0
		return &b
	case int64:
		b := x != 0
		return &b
	case float64:
		b := x != 0
		return &b
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "yes", "y":
			b := true
			return &b
		case "false", "0", "no", "n":
			b := false
			return &b
		}
	}
	return nil
}

// ToString returns the trimmed string form of a scalar, or "" for nil
// and non-scalar values.
func ToString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

// ParseDate parses an ISO calendar day (optionally with a time suffix)
// into a UTC date-only time. Nil when unparseable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02", s[:10], time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// DateString renders a date-only time as its ISO calendar day.
func DateString(t time.Time) string {
	return t.Format("2006-01-02")
}

func getMap(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
