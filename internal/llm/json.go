package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFences removes a surrounding ``` or ```json fence.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	return s
}

// DecodeJSON sanitizes a model response and unmarshals the first JSON object in it.
func DecodeJSON(raw string, out any) error {
	clean := StripCodeFences(raw)
	if clean == "" {
		return fmt.Errorf("decode response: empty")
	}
	if err := json.Unmarshal([]byte(clean), out); err == nil {
		return nil
	}
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("decode response: no json object found")
	}
	if err := json.Unmarshal([]byte(clean[start:end+1]), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
