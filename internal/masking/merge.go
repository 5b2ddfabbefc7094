// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package masking

import (
	"encoding/json"
	"fmt"
)

// Merge reconciles an incoming configuration against the stored one before
// persisting an update.  Clients edit masked views, so a secret coming back
// as SentinelValue means "unchanged": for "sensitive" properties the stored
// value is restored whole, for "sensitive-uri" properties the stored uri's
// password segment is spliced into the incoming uri (which may have changed
// hosts or options).  Any other incoming value, sentinel or not, wins as a
// rotation.  Properties omitted from newCfg stay omitted; the incoming shape
// is authoritative.  Neither input map is mutated.
//
// A nil schema classifies nothing as secret and Merge fails closed by
// returning an empty configuration, mirroring Mask.
func Merge(s *Schema, oldCfg, newCfg map[string]any) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	if newCfg == nil {
		return map[string]any{}
	}
	return mergeProperties(s.Properties, oldCfg, newCfg)
}

func mergeProperties(props map[string]*Property, oldCfg, newCfg map[string]any) map[string]any {
	out := make(map[string]any, len(newCfg))
	for k, v := range newCfg {
		p := props[k]
		switch {
		case p == nil:
			out[k] = v
		case p.Sensitive:
			if v == SentinelValue {
				if old, ok := oldCfg[k]; ok {
					out[k] = old
					continue
				}
			}
			out[k] = v
		case p.SensitiveURI:
			out[k] = mergeURI(oldCfg[k], v)
		case len(p.Properties) > 0:
			newNested, newOk := v.(map[string]any)
			if !newOk {
				out[k] = v
				continue
			}
			oldNested, _ := oldCfg[k].(map[string]any)
			out[k] = mergeProperties(p.Properties, oldNested, newNested)
		default:
			out[k] = v
		}
	}
	return out
}

// mergeURI resolves a sensitive-uri property: when the incoming uri's
// password segment is the sentinel, the stored uri's password is carried
// over into the incoming uri so host or option edits survive without the
// client ever resubmitting the secret.
func mergeURI(oldVal, newVal any) any {
	newURI, ok := newVal.(string)
	if !ok {
		return newVal
	}
	pw, ok := uriPassword(newURI)
	if !ok || pw != SentinelValue {
		return newVal
	}
	oldURI, ok := oldVal.(string)
	if !ok {
		return newVal
	}
	oldPw, ok := uriPassword(oldURI)
	if !ok {
		return newVal
	}
	return replaceURIPassword(newURI, oldPw)
}

// MergeConfiguration is the opaque-string form of Merge.  A nil schema yields
// "{}", failing closed the same way MaskConfiguration does.
func MergeConfiguration(s *Schema, oldConfiguration, newConfiguration string) (string, error) {
	const op = "masking.MergeConfiguration"
	if s == nil {
		return "{}", nil
	}
	oldCfg, err := decodeConfiguration(oldConfiguration)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	newCfg, err := decodeConfiguration(newConfiguration)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	merged, err := json.Marshal(Merge(s, oldCfg, newCfg))
	if err != nil {
		return "", fmt.Errorf("%s: unable to encode merged configuration: %w", op, err)
	}
	return string(merged), nil
}
