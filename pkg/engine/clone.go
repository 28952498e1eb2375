package engine

import "github.com/goliatone/go-formengine/pkg/controls"

// payloadValues copies the bag for a save callback. Unfinished json drafts go
// out as the raw text the user typed.
func payloadValues(src map[string]any) map[string]any {
	out := cloneValues(src)
	for k, v := range out {
		if d, ok := controls.AsDraft(v); ok {
			out[k] = d.Raw
		}
	}
	return out
}

func cloneValues(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	case []string:
		clone := make([]string, len(typed))
		copy(clone, typed)
		return clone
	default:
		return typed
	}
}
