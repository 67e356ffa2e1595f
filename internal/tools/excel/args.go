package excel

import "fmt"

// arguments wraps the raw JSON argument map with typed accessors. JSON
// numbers arrive as float64 and arrays as []any; these helpers keep the
// per-handler extraction noise down.
type arguments map[string]any

func (a arguments) str(key string) string {
	s, _ := a[key].(string)
	return s
}

func (a arguments) requireStr(key string) (string, error) {
	s, ok := a[key].(string)
	if !ok || s == "" {
		return "", &InvalidOperationError{Message: fmt.Sprintf("%s parameter is required", key)}
	}
	return s, nil
}

func (a arguments) boolOr(key string, def bool) bool {
	if b, ok := a[key].(bool); ok {
		return b
	}
	return def
}

func (a arguments) floatOr(key string, def float64) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

func (a arguments) strOr(key, def string) string {
	if s, ok := a[key].(string); ok && s != "" {
		return s
	}
	return def
}

// strSlice extracts an optional array-of-strings argument. Non-string
// elements are an error rather than being skipped silently.
func (a arguments) strSlice(key string) ([]string, error) {
	raw, ok := a[key].([]any)
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, &InvalidOperationError{Message: fmt.Sprintf("%s must be an array of non-empty strings", key)}
		}
		out = append(out, s)
	}
	return out, nil
}

// rows extracts the required 2D data argument. A row that is a bare scalar
// is treated as a single-cell row.
func (a arguments) rows(key string) ([][]any, error) {
	raw, ok := a[key].([]any)
	if !ok || len(raw) == 0 {
		return nil, &InvalidOperationError{Message: fmt.Sprintf("%s parameter is required and must be a non-empty 2D array", key)}
	}
	out := make([][]any, 0, len(raw))
	for _, rowAny := range raw {
		row, ok := rowAny.([]any)
		if !ok {
			row = []any{rowAny}
		}
		out = append(out, row)
	}
	return out, nil
}
