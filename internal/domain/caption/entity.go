package caption

import (
	"encoding/json"
	"slices"
)

// Upload limits.
const (
	MaxImageBytes = int64(10 << 20) // 10 MB
	AltTextLimit  = 125
)

// Placeholder values used when the model reply cannot be turned into an analysis.
const (
	PlaceholderColor       = "Various"
	PlaceholderObject      = "Multiple objects"
	PlaceholderMood        = "Neutral"
	PlaceholderComposition = "Standard"
)

// Analysis is the tag-set part of a caption. Extra holds any keys the model
// added beyond the four known ones; they are passed through to clients.
type Analysis struct {
	Colors      []string `json:"colors"`
	Objects     []string `json:"objects"`
	Mood        string   `json:"mood"`
	Composition string   `json:"composition"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Result is the structured caption returned to clients. Extra carries
// unknown top-level keys from the model reply.
type Result struct {
	AltText     string   `json:"altText"`
	Description string   `json:"description"`
	Analysis    Analysis `json:"analysis"`

	Extra map[string]json.RawMessage `json:"-"`
}

var (
	resultKeys   = []string{"altText", "description", "analysis"}
	analysisKeys = []string{"colors", "objects", "mood", "composition"}
)

func (r Result) MarshalJSON() ([]byte, error) {
	out := withExtra(r.Extra, len(resultKeys))
	out["altText"] = r.AltText
	out["description"] = r.Description
	out["analysis"] = r.Analysis
	return json.Marshal(out)
}

func (r *Result) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var known struct {
		AltText     string   `json:"altText"`
		Description string   `json:"description"`
		Analysis    Analysis `json:"analysis"`
	}
	if err := json.Unmarshal(b, &known); err != nil {
		return err
	}
	*r = Result{
		AltText:     known.AltText,
		Description: known.Description,
		Analysis:    known.Analysis,
		Extra:       extraKeys(raw, resultKeys),
	}
	return nil
}

func (a Analysis) MarshalJSON() ([]byte, error) {
	out := withExtra(a.Extra, len(analysisKeys))
	out["colors"] = a.Colors
	out["objects"] = a.Objects
	out["mood"] = a.Mood
	out["composition"] = a.Composition
	return json.Marshal(out)
}

func (a *Analysis) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var known struct {
		Colors      []string `json:"colors"`
		Objects     []string `json:"objects"`
		Mood        string   `json:"mood"`
		Composition string   `json:"composition"`
	}
	if err := json.Unmarshal(b, &known); err != nil {
		return err
	}
	*a = Analysis{
		Colors:      known.Colors,
		Objects:     known.Objects,
		Mood:        known.Mood,
		Composition: known.Composition,
		Extra:       extraKeys(raw, analysisKeys),
	}
	return nil
}

func withExtra(extra map[string]json.RawMessage, known int) map[string]any {
	out := make(map[string]any, len(extra)+known)
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// extraKeys returns the entries of obj not named in known, or nil.
func extraKeys(obj map[string]json.RawMessage, known []string) map[string]json.RawMessage {
	var out map[string]json.RawMessage
	for k, v := range obj {
		if slices.Contains(known, k) {
			continue
		}
		if out == nil {
			out = make(map[string]json.RawMessage)
		}
		out[k] = v
	}
	return out
}

// Image is one uploaded image held in memory for the duration of a request.
type Image struct {
	Data     []byte
	MimeType string
	Size     int64
	Filename string
}

// PlaceholderAnalysis returns the analysis used by the fallback path.
func PlaceholderAnalysis() Analysis {
	return Analysis{
		Colors:      []string{PlaceholderColor},
		Objects:     []string{PlaceholderObject},
		Mood:        PlaceholderMood,
		Composition: PlaceholderComposition,
	}
}
