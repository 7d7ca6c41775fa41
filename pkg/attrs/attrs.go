// Package attrs reads values back out of slog-style alternating key-value
// slices.
package attrs

// ExtractString returns the string value following the first occurrence of
// key in [key1, value1, key2, value2, ...]. Missing keys and non-string
// values read as "".
func ExtractString(attrs []any, key string) string {
	for i := 0; i+1 < len(attrs); i += 2 {
		k, ok := attrs[i].(string)
		if !ok || k != key {
			continue
		}
		if v, ok := attrs[i+1].(string); ok {
			return v
		}
	}
	return ""
}
