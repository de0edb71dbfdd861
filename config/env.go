package config

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// envTree turns PREFIX_SECTION_FIELD=value pairs into a nested map. The
// section is the first segment after the prefix; the rest, lowercased, is the
// field key, so APP_SERVER_ALLOWED_ORIGINS sets server.allowed_origins.
// Values are typed after the base value for the same key: lists are comma
// separated, strings are kept verbatim, anything else is parsed as a YAML
// scalar.
func envTree(prefix string, environ []string, base map[string]any) map[string]any {
	out := map[string]any{}
	lead := prefix + "_"
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, lead) {
			continue
		}
		section, field, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(name, lead)), "_")
		if !ok || section == "" || field == "" {
			continue
		}

		var current any
		if sec, ok := base[section].(map[string]any); ok {
			current = sec[field]
		}
		v := convert(value, current)

		sec, _ := out[section].(map[string]any)
		if sec == nil {
			sec = map[string]any{}
			out[section] = sec
		}
		sec[field] = v
	}
	return out
}

func convert(value string, current any) any {
	switch current.(type) {
	case []any:
		return splitList(value)
	case string:
		return value
	default:
		return scalar(value)
	}
}

func splitList(value string) []any {
	var out []any
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func scalar(value string) any {
	var v any
	if err := yaml.Unmarshal([]byte(value), &v); err != nil {
		return value
	}
	switch v.(type) {
	case map[string]any, []any, nil:
		return value
	}
	return v
}
