package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	jsonSpan = regexp.MustCompile(`(?s)\{.*\}|\[.*\]`)

	ErrNoJSONObject = errors.New("model answer does not contain a JSON object")
)

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	if span := jsonSpan.FindString(raw); span != "" {
		return span
	}
	return raw
}

// parseObject decodes the first JSON object in a model answer. A list whose first
// element is an object is accepted too.
func parseObject(raw string) (map[string]any, error) {
	var data any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, fmt.Errorf("parse model answer: %w", err)
	}

	switch v := data.(type) {
	case map[string]any:
		return v, nil
	case []any:
		if len(v) > 0 {
			if obj, ok := v[0].(map[string]any); ok {
				return obj, nil
			}
		}
	}
	return nil, ErrNoJSONObject
}
