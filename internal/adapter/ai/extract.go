package ai

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/govguard/govguard/internal/domain"
)

const (
	jsonFenceOpen  = "```json"
	jsonFenceClose = "```"
)

// StripJSONFence removes a leading "```json" marker and a trailing "```" marker.
// Only those exact markers are stripped; anything between them is kept verbatim.
func StripJSONFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, jsonFenceOpen) {
		s = s[len(jsonFenceOpen):]
	}
	if strings.HasSuffix(s, jsonFenceClose) {
		s = s[:len(s)-len(jsonFenceClose)]
	}
	return s
}

// errNotJSONObject rejects payloads such as "null" that decode without error
var errNotJSONObject = errors.New("analysis payload is not a JSON object")

// ParseAnalysis extracts an AnalysisResult from raw model output
func ParseAnalysis(raw string) (*domain.AnalysisResult, error) {
	payload := StripJSONFence(raw)
	if !strings.HasPrefix(strings.TrimSpace(payload), "{") {
		return nil, errNotJSONObject
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
