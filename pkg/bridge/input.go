package bridge

import (
	"encoding/json"
	"strings"
)

// Input is the structured record passed with --input. Fields an operation
// does not use are ignored, as are unrecognized keys.
type Input struct {
	URL      string `json:"url"`
	Action   string `json:"action"`
	Selector string `json:"selector"`
	Ref      string `json:"ref"`
	Value    string `json:"value"`
	Key      string `json:"key"`
	// Ms is nil when absent so an explicit 0 can be told apart
	Ms       *float64 `json:"ms"`
	Code     string   `json:"code"`
	Script   string   `json:"script"`
	Headed   bool     `json:"headed"`
	FullPage bool     `json:"full_page"`
	Pattern  string   `json:"pattern"`
}

// ParseInput decodes the --input JSON. Empty input yields an empty record.
func ParseInput(raw string) (*Input, error) {
	in := &Input{}
	if strings.TrimSpace(raw) == "" {
		return in, nil
	}
	if err := json.Unmarshal([]byte(raw), in); err != nil {
		return nil, NewUsageError("Invalid JSON input: %v", err)
	}
	return in, nil
}

// source returns the script to evaluate; code takes precedence.
func (in *Input) source() string {
	if in.Code != "" {
		return in.Code
	}
	return in.Script
}
