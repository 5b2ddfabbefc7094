// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package masking

import (
	"encoding/json"
	"fmt"
)

// SentinelValue is the fixed token substituted for secret values.  Round
// tripping it through an update is how Merge recognizes an unchanged secret.
const SentinelValue = "********"

// Mask returns a copy of cfg with every schema-flagged secret redacted:
// values of "sensitive" properties are replaced whole by SentinelValue,
// values of "sensitive-uri" properties get only their uri password segment
// replaced.  Non-sensitive properties and properties absent from the schema
// are returned untouched.  cfg itself is never mutated.
//
// A nil schema means the plugin type is unknown and no property can be
// classified; Mask fails closed and returns an empty configuration.
func Mask(s *Schema, cfg map[string]any) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	if cfg == nil {
		return map[string]any{}
	}
	return maskProperties(s.Properties, cfg)
}

func maskProperties(props map[string]*Property, cfg map[string]any) map[string]any {
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		p := props[k]
		switch {
		case p == nil:
			out[k] = v
		case p.Sensitive && v != nil:
			out[k] = SentinelValue
		case p.SensitiveURI:
			if str, ok := v.(string); ok {
				out[k] = replaceURIPassword(str, SentinelValue)
			} else {
				out[k] = v
			}
		case len(p.Properties) > 0:
			if nested, ok := v.(map[string]any); ok {
				out[k] = maskProperties(p.Properties, nested)
			} else {
				out[k] = v
			}
		default:
			out[k] = v
		}
	}
	return out
}

// MaskConfiguration is the opaque-string form of Mask, for callers working
// with a Record's raw configuration.  An empty configuration and a nil schema
// both yield "{}" (the latter is the fail-closed default for unknown plugin
// types).
func MaskConfiguration(s *Schema, configuration string) (string, error) {
	const op = "masking.MaskConfiguration"
	if s == nil {
		return "{}", nil
	}
	cfg, err := decodeConfiguration(configuration)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	masked, err := json.Marshal(Mask(s, cfg))
	if err != nil {
		return "", fmt.Errorf("%s: unable to encode masked configuration: %w", op, err)
	}
	return string(masked), nil
}

func decodeConfiguration(configuration string) (map[string]any, error) {
	const op = "masking.decodeConfiguration"
	if configuration == "" {
		return map[string]any{}, nil
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(configuration), &cfg); err != nil {
		return nil, fmt.Errorf("%s: unable to decode configuration: %w", op, err)
	}
	return cfg, nil
}
