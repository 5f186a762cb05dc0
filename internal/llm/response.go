package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"
)

// ExtractJSON pulls JSON content out of a mixed text response. Models often
// wrap their payload in prose or markdown code fences.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		return raw
	}

	// Code-fenced block first.
	if strings.Contains(raw, "```") {
		lines := strings.Split(raw, "\n")
		var jsonLines []string
		inBlock := false
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				inBlock = !inBlock
				continue
			}
			if inBlock {
				jsonLines = append(jsonLines, line)
			}
		}
		if len(jsonLines) > 0 {
			return strings.Join(jsonLines, "\n")
		}
	}

	// Otherwise scan for the first balanced object or array.
	start := strings.Index(raw, "{")
	if start == -1 {
		start = strings.Index(raw, "[")
		if start == -1 {
			return ""
		}
	}

	open := raw[start]
	var closeChar byte = '}'
	if open == '[' {
		closeChar = ']'
	}

	depth := 0
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case open:
			depth++
		case closeChar:
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return raw[start:]
}

// ParseStructured extracts, repairs, and unmarshals a structured response
// into target. Payloads that survive neither a direct parse nor repair fail
// fast with ErrParse; the engine never silently defaults a whole document.
func ParseStructured(raw string, target interface{}) error {
	jsonStr := ExtractJSON(raw)
	if jsonStr == "" {
		return fmt.Errorf("%w: no JSON found in response", ErrParse)
	}

	if err := json.Unmarshal([]byte(jsonStr), target); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(jsonStr)
	if err != nil {
		return fmt.Errorf("%w: repair failed: %v", ErrParse, err)
	}

	log.Debug().
		Int("original_bytes", len(jsonStr)).
		Int("repaired_bytes", len(repaired)).
		Msg("Repaired malformed generation payload")

	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil
}

// TruncateForLog shortens text for log fields.
func TruncateForLog(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
