// Package sanitize strips sensitive fields from recorded entity state before
// it is served to callers. Stored audit records are never redacted; this runs
// on the read path only.
package sanitize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// idAlias is the host's secondary document identifier.
const idAlias = "documentId"

// actorFields hold embedded admin users whose credentials must not leak.
var actorFields = []string{"createdBy", "updatedBy"}

var actorSecrets = []string{
	idAlias,
	"password",
	"resetPasswordToken",
	"registrationToken",
	"preferedLanguage",
	"preferredLanguage",
	"locale",
}

// Value returns a sanitized copy of v, which is expected to be in the generic
// form produced by encoding/json: map[string]any, []any or a scalar. The input
// is never modified.
func Value(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Value(item)
		}
		return out
	case map[string]any:
		return object(t)
	default:
		return v
	}
}

func object(in map[string]any) map[string]any {
	out := maps.Clone(in)
	if out == nil {
		return nil
	}
	delete(out, idAlias)
	for _, field := range actorFields {
		actor, ok := out[field].(map[string]any)
		if !ok {
			continue
		}
		scrubbed := maps.Clone(actor)
		for _, secret := range actorSecrets {
			delete(scrubbed, secret)
		}
		out[field] = scrubbed
	}
	return out
}

// JSON decodes raw, sanitizes it and encodes the result. Numbers keep their
// original textual form.
func JSON(raw json.RawMessage) (json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return raw, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	out, err := json.Marshal(Value(v))
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return out, nil
}
