package caption

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Normalize turns a raw model reply into a Result. The reply may wrap the JSON
// object in prose or markdown fences. A decoded object is kept as the model
// sent it: only altText and description are required, analysis keys that are
// missing or unusable get placeholders one by one, and unknown keys are
// carried in Extra. When no object can be decoded the result is synthesized
// from the raw text and fallback is true.
func Normalize(raw string) (res Result, fallback bool, err error) {
	if strings.TrimSpace(raw) == "" {
		return Result{}, false, ErrEmptyCompletion
	}

	candidate, ok := ExtractJSON(raw)
	if !ok {
		return Fallback(raw), true, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return Fallback(raw), true, nil
	}

	alt, okAlt := textField(obj["altText"])
	desc, okDesc := textField(obj["description"])
	if !okAlt || !okDesc {
		return Result{}, false, fmt.Errorf("%w: altText and description are required", ErrInvalidStructure)
	}
	return Result{
		AltText:     alt,
		Description: desc,
		Analysis:    decodeAnalysis(obj["analysis"]),
		Extra:       extraKeys(obj, resultKeys),
	}, false, nil
}

// ExtractJSON returns the greedy substring from the first '{' to the last '}'.
func ExtractJSON(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// Fallback builds a Result from plain text.
func Fallback(raw string) Result {
	return Result{
		AltText:     Truncate(raw, AltTextLimit),
		Description: raw,
		Analysis:    PlaceholderAnalysis(),
	}
}

// Truncate keeps the first n runes of s and appends "..." when anything was cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// decodeAnalysis fills placeholders per key; a bad key never discards the
// others.
func decodeAnalysis(raw json.RawMessage) Analysis {
	out := PlaceholderAnalysis()
	var obj map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &obj) != nil || obj == nil {
		return out
	}
	if v, ok := listField(obj["colors"]); ok {
		out.Colors = v
	}
	if v, ok := listField(obj["objects"]); ok {
		out.Objects = v
	}
	if v, ok := scalarField(obj["mood"]); ok {
		out.Mood = v
	}
	if v, ok := scalarField(obj["composition"]); ok {
		out.Composition = v
	}
	out.Extra = extraKeys(obj, analysisKeys)
	return out
}

func decodeAny(raw json.RawMessage) (any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// textField accepts any truthy JSON value for a required text field.
// Numbers and booleans keep their literal form, objects and arrays their
// compact JSON.
func textField(raw json.RawMessage) (string, bool) {
	v, ok := decodeAny(raw)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, strings.TrimSpace(t) != ""
	case json.Number:
		f, err := t.Float64()
		return t.String(), err == nil && f != 0
	case bool:
		return "true", t
	case map[string]any, []any:
		var b bytes.Buffer
		if err := json.Compact(&b, raw); err != nil {
			return "", false
		}
		return b.String(), true
	default:
		return "", false
	}
}

// scalarField reads mood and composition: strings as is, numbers and
// booleans as their literal text.
func scalarField(raw json.RawMessage) (string, bool) {
	v, ok := decodeAny(raw)
	if !ok {
		return "", false
	}
	return scalarText(v)
}

func scalarText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, strings.TrimSpace(t) != ""
	case json.Number:
		return t.String(), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}

// listField reads colors and objects. An array keeps its scalar elements;
// a lone string becomes a one-element list.
func listField(raw json.RawMessage) ([]string, bool) {
	v, ok := decodeAny(raw)
	if !ok {
		return nil, false
	}
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, el := range t {
			if s, ok := scalarText(el); ok {
				out = append(out, s)
			}
		}
		return out, true
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, false
		}
		return []string{t}, true
	default:
		return nil, false
	}
}
