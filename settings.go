package stencil

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is a nested key/value configuration document passed to codegen
// plugin invocations. Option groups live under namespaced top-level keys;
// codegen options live under "codegen".
type Settings map[string]any

// Settings keys recognized under the "codegen" group.
const (
	// SettingsCodegenKey is the top-level key for codegen options.
	SettingsCodegenKey = "codegen"

	// DebugCommentsKey enables per-shape debug comments in generated source.
	DebugCommentsKey = "debug-comments-enabled"

	// PublicConstrainedTypesKey exports constrained wrapper types from
	// generated code instead of keeping them package-private.
	PublicConstrainedTypesKey = "public-constrained-types-enabled"
)

// Merge returns a new Settings value combining s with other. Nested maps
// merge recursively so overlapping groups keep the keys of both operands;
// scalar values are replaced by the right operand. Neither operand is
// mutated. Merge is associative over the documented option groups.
func (s Settings) Merge(other Settings) Settings {
	merged := make(Settings, len(s)+len(other))
	for k, v := range s {
		merged[k] = v
	}
	for k, v := range other {
		prev, ok := merged[k]
		if !ok {
			merged[k] = v
			continue
		}
		pm, pok := asMap(prev)
		vm, vok := asMap(v)
		if pok && vok {
			merged[k] = pm.Merge(vm)
			continue
		}
		merged[k] = v
	}
	return merged
}

// asMap normalizes the map representations produced by literals, YAML
// decoding, and Merge itself.
func asMap(v any) (Settings, bool) {
	switch m := v.(type) {
	case Settings:
		return m, true
	case map[string]any:
		return Settings(m), true
	default:
		return nil, false
	}
}

// Codegen returns the "codegen" option group, or an empty group when absent.
func (s Settings) Codegen() Settings {
	if m, ok := asMap(s[SettingsCodegenKey]); ok {
		return m
	}
	return Settings{}
}

// Bool reads a boolean option from the group, returning false when the key
// is absent or not a boolean.
func (s Settings) Bool(key string) bool {
	b, _ := s[key].(bool)
	return b
}

// SettingOption configures a single codegen option group entry.
type SettingOption func(group map[string]any)

// WithDebugComments toggles debug comments in generated source.
func WithDebugComments(enabled bool) SettingOption {
	return func(group map[string]any) {
		group[DebugCommentsKey] = enabled
	}
}

// WithPublicConstrainedTypes toggles exporting constrained wrapper types.
func WithPublicConstrainedTypes(enabled bool) SettingOption {
	return func(group map[string]any) {
		group[PublicConstrainedTypesKey] = enabled
	}
}

// WithFlag sets an arbitrary codegen option.
func WithFlag(key string, v any) SettingOption {
	return func(group map[string]any) {
		group[key] = v
	}
}

// CodegenSettings builds a Settings document with the given options grouped
// under the "codegen" key.
func CodegenSettings(opts ...SettingOption) Settings {
	group := make(map[string]any)
	for _, opt := range opts {
		opt(group)
	}
	return Settings{SettingsCodegenKey: group}
}

// LoadSettingsFile reads a YAML settings document from disk.
func LoadSettingsFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if s == nil {
		s = Settings{}
	}
	return s, nil
}
