// Package confval coerces raw configuration values, as decoded from TOML
// or set programmatically, into the types the ConfigStore port promises.
// Every function returns the zero value for a missing or mistyped input.
package confval

import "time"

func String(v any) string {
	s, _ := v.(string)
	return s
}

// Int accepts TOML's int64 as well as int and whole float64s.
func Int(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	return 0
}

func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}

// Strings keeps the string elements of an array, dropping anything else.
func Strings(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		return filter[string](s)
	}
	return nil
}

// Duration reads "90s"-style strings and integer seconds.
func Duration(v any) time.Duration {
	switch d := v.(type) {
	case time.Duration:
		return d
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0
		}
		return parsed
	case int, int64:
		return time.Duration(Int(d)) * time.Second
	}
	return 0
}

// Tables reads an array of tables such as [[channels]].
func Tables(v any) []map[string]any {
	switch t := v.(type) {
	case []map[string]any:
		return t
	case []any:
		return filter[map[string]any](t)
	}
	return nil
}

func filter[T any](items []any) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if typed, ok := item.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}
