package decompose

// Defensive accessors for opaque probe payloads. Probe payload schemas have
// evolved over time, so every lookup tolerates missing or mistyped fields and
// yields nil instead of panicking.

// asMap converts a payload value to a map, or nil.
func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// dig walks nested maps along path and returns the terminal value, or nil.
func dig(m map[string]any, path ...string) any {
	cur := any(m)
	for _, key := range path {
		node := asMap(cur)
		if node == nil {
			return nil
		}
		var ok bool
		cur, ok = node[key]
		if !ok {
			return nil
		}
	}
	return cur
}

// digFloat returns a numeric value at path as *float64, or nil.
func digFloat(m map[string]any, path ...string) *float64 {
	switch v := dig(m, path...).(type) {
	case float64:
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	}
	return nil
}

// digBool returns a boolean value at path as *bool, or nil.
func digBool(m map[string]any, path ...string) *bool {
	if v, ok := dig(m, path...).(bool); ok {
		return &v
	}
	return nil
}

// digString returns a string value at path as *string, or nil.
func digString(m map[string]any, path ...string) *string {
	if v, ok := dig(m, path...).(string); ok && v != "" {
		return &v
	}
	return nil
}

// put stores a typed pointer into the metric map only when present.
func put[T any](metrics map[string]any, key string, v *T) {
	if v != nil {
		metrics[key] = *v
	}
}
