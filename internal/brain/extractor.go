package brain

import (
	"encoding/json"
	"fmt"
	"regexp"

	"opschat/internal/domain"
)

// callArrayPattern finds the first span that looks like a JSON array of
// objects. Deliberately permissive: the model's output is prose with an
// embedded array at best, so this is a structural scan, not a grammar. The
// strict decode below decides whether the span is actually usable.
var callArrayPattern = regexp.MustCompile(`(?s)\[\s*\{.*?\}\s*\]`)

// ExtractCalls parses raw model output into zero or more tool calls.
//
// No array-of-objects span in the text means the model answered directly;
// that is the common case and returns (nil, nil). A span that fails strict
// decoding returns domain.ErrExtractionFailed so the caller can fall back to
// treating the raw text as a plain answer. The full extracted list is
// returned even when it holds more than one call; the at-most-one rule
// belongs to the Dispatcher.
//
// Escapes inside the span are preserved as-is; the decode is strict JSON.
func ExtractCalls(raw string) ([]domain.ToolCall, error) {
	span := callArrayPattern.FindString(raw)
	if span == "" {
		return nil, nil
	}

	var calls []domain.ToolCall
	if err := json.Unmarshal([]byte(span), &calls); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	for i := range calls {
		if calls[i].Name == "" {
			return nil, fmt.Errorf("%w: call %d has no name", domain.ErrExtractionFailed, i)
		}
		// Tools without parameters may arrive with no arguments key at all.
		if len(calls[i].Arguments) == 0 {
			calls[i].Arguments = json.RawMessage("{}")
		}
	}
	return calls, nil
}
