// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// responsePayload mirrors the JSON object the prompt asks the model for. The
// singular "place" field tolerates an older response shape where a single
// object was returned instead of a list.
type responsePayload struct {
	Found  bool           `json:"found"`
	Places []placePayload `json:"places"`
	Place  *placePayload  `json:"place"`
	Notes  string         `json:"notes"`
}

type placePayload struct {
	Name           string   `json:"name"`
	NameEN         string   `json:"name_en"`
	City           string   `json:"city"`
	Country        string   `json:"country"`
	Address        string   `json:"address"`
	PlaceTypes     []string `json:"place_types"`
	Highlights     []string `json:"highlights"`
	PriceRange     string   `json:"price_range"`
	Recommendation string   `json:"recommendation"`
	Confidence     string   `json:"confidence"`
	Tags           []string `json:"tags"`
	SearchKeywords []string `json:"search_keywords"`
}

var (
	codeFencePattern     = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	braceSpanPattern     = regexp.MustCompile(`(?s)\{.*\}`)
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
	lineCommentPattern   = regexp.MustCompile(`(?m)^\s*//.*$`)
	foundAnchorPattern   = regexp.MustCompile(`(?s)\{\s*"found".*`)
)

// parseResponse decodes the model's reply into a payload, applying repair
// transforms in order of increasing aggressiveness and stopping at the first
// strict parse success. Returns the last parse error when nothing works.
func parseResponse(raw string) (responsePayload, error) {
	candidates := repairCandidates(raw)

	var lastErr error
	for _, candidate := range candidates {
		var payload responsePayload
		if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
			lastErr = err
			continue
		}
		return payload, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("empty model response")
	}
	return responsePayload{}, lastErr
}

// repairCandidates produces the ordered list of repaired texts to try. Each
// step builds on the previous one's output, so later candidates accumulate
// all earlier transforms.
func repairCandidates(raw string) []string {
	var candidates []string
	add := func(s string) {
		if s != "" {
			candidates = append(candidates, s)
		}
	}

	text := strings.TrimSpace(raw)
	add(text)

	// Strip markdown code fences.
	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
		add(text)
	}

	// Cut down to the outermost brace span, dropping prose around the
	// object.
	if m := braceSpanPattern.FindString(text); m != "" {
		text = m
		add(text)
	}

	// Remove trailing commas and line comments, both common model tics.
	cleaned := trailingCommaPattern.ReplaceAllString(text, "$1")
	cleaned = lineCommentPattern.ReplaceAllString(cleaned, "")
	if cleaned != text {
		text = cleaned
		add(text)
	}

	// Last resort: re-anchor at the "found" key and pad unbalanced braces,
	// recovering truncated responses.
	if m := foundAnchorPattern.FindString(text); m != "" {
		add(padBraces(m))
	}

	return candidates
}

// padBraces appends closing brackets for every unbalanced opener, ignoring
// brackets inside string literals.
func padBraces(s string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, c)
			}
		case '}', ']':
			if !inString && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(s)
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}
