package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSONObject extracts a JSON object from text that may contain markdown
// code blocks or other formatting. Returns the extracted JSON string or an error.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", text)
	}
	return text[start : end+1], nil
}

// ParseFashionItem decodes a model response into a FashionItem.
// Unknown fields and type mismatches are rejected rather than coerced, and
// item_type must be present. Unknown markers in size and brand become nil.
func ParseFashionItem(text string) (*FashionItem, error) {
	jsonStr, err := extractJSONObject(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	var raw struct {
		ItemType *string `json:"item_type"`
		Size     *string `json:"size"`
		Brand    *string `json:"brand"`
	}
	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w (response: %s)", err, jsonStr)
	}

	if raw.ItemType == nil {
		return nil, fmt.Errorf("response is missing item_type (response: %s)", jsonStr)
	}
	if strings.TrimSpace(*raw.ItemType) == "" {
		return nil, fmt.Errorf("response has empty item_type (response: %s)", jsonStr)
	}

	return &FashionItem{
		ItemType: *raw.ItemType,
		Size:     normalizeOptional(raw.Size),
		Brand:    normalizeOptional(raw.Brand),
	}, nil
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(*s)) {
	case "", "null", "unknown", "n/a":
		return nil
	}
	return s
}
