package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "go.yaml.in/yaml/v3"
)

// coerceToJSONBytes converts YAML or TOML config to JSON bytes so we can re-use
// the strict JSON decoder (DisallowUnknownFields) for every format.
//
// Returns (jsonBytes, format, err) where format is "json", "yaml" or "toml".
func coerceToJSONBytes(path string, data []byte) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var (
		v      any
		format string
	)
	switch ext {
	case ".yaml", ".yml":
		format = "yaml"
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, format, fmt.Errorf("yaml unmarshal: %w", err)
		}
	case ".toml":
		format = "toml"
		if err := toml.Unmarshal(data, &v); err != nil {
			return nil, format, fmt.Errorf("toml unmarshal: %w", err)
		}
	default:
		return data, "json", nil
	}

	// An empty document decodes to nil; treat it as an empty object.
	if v == nil {
		return []byte("{}"), format, nil
	}
	v = normalizeMap(v)

	j, err := json.Marshal(v)
	if err != nil {
		return nil, format, fmt.Errorf("%s->json marshal: %w", format, err)
	}
	return j, format, nil
}

// normalizeMap ensures all map keys are strings so the result can be JSON-marshaled.
func normalizeMap(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeMap(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeMap(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeMap(x[i])
		}
		return x
	default:
		return in
	}
}
