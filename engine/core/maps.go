package core

// CloneMap returns a copy of m. Nested maps and slices are copied
// recursively; other values are copied by assignment.
func CloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	clone := make(map[string]V, len(m))
	for k, v := range m {
		clone[k] = cloneValue(v)
	}
	return clone
}

func cloneValue[V any](v V) V {
	var out any = v
	switch typed := any(v).(type) {
	case map[string]any:
		out = CloneMap(typed)
	case []any:
		cloned := make([]any, len(typed))
		for i := range typed {
			cloned[i] = cloneValue(typed[i])
		}
		out = cloned
	case []string:
		out = append([]string(nil), typed...)
	}
	result, ok := out.(V)
	if !ok {
		return v
	}
	return result
}
