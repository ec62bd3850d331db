package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Merge returns base overridden key by key with custom. When both sides
// hold a mapping at the same key the mappings are merged recursively;
// otherwise the custom value replaces the default one outright. Neither input
// is modified.
func Merge(base, custom map[string]any) map[string]any {
	result := DeepCopyMap(base)

	for k, v := range custom {
		if existing, ok := result[k].(map[string]any); ok {
			if override, ok := v.(map[string]any); ok {
				result[k] = Merge(existing, override)
				continue
			}
		}
		result[k] = copyValue(v)
	}

	return result
}

// DeepCopyMap creates a deep copy of a configuration tree.
func DeepCopyMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = copyValue(v)
	}
	return dst
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}

// Flatten flattens a nested tree using dot notation.
func Flatten(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		if nested, ok := v.(map[string]any); ok {
			for nestedKey, nestedValue := range Flatten(nested, key) {
				result[nestedKey] = nestedValue
			}
		} else {
			result[key] = v
		}
	}

	return result
}

// SplitKey splits a dot-separated path into its segments.
func SplitKey(key string) []string {
	return strings.Split(key, ".")
}

// JoinKey joins path segments with dots.
func JoinKey(parts ...string) string {
	return strings.Join(parts, ".")
}

var variablePattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// ExpandVariables expands ${VAR} and ${VAR:-default} placeholders from the
// process environment. Unknown variables without a default stay unchanged.
func ExpandVariables(value string) string {
	return variablePattern.ReplaceAllStringFunc(value, func(match string) string {
		parts := variablePattern.FindStringSubmatch(match)
		if env, ok := os.LookupEnv(parts[1]); ok && env != "" {
			return env
		}
		if strings.Contains(match, ":-") {
			return parts[2]
		}
		return match
	})
}

// normalize converts decoded documents into the canonical tree shape:
// map[string]any for mappings, []any for sequences, with placeholders expanded.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case string:
		return ExpandVariables(val)
	default:
		return v
	}
}

func getNested(root map[string]any, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	keys := SplitKey(key)
	current := root

	for i, k := range keys {
		value, ok := current[k]
		if !ok {
			return nil, false
		}
		if i == len(keys)-1 {
			return value, true
		}

		next, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}

	return nil, false
}

func setNested(root map[string]any, key string, value any) {
	keys := SplitKey(key)
	current := root

	for i, k := range keys {
		if i == len(keys)-1 {
			current[k] = value
			return
		}

		next, ok := current[k].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[k] = next
		}
		current = next
	}
}
