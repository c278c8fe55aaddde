package brain

import (
	"encoding/json"
	"errors"
	"testing"

	"opschat/internal/domain"
)

func TestExtractCalls_ShouldParseEmbeddedArray(t *testing.T) {
	raw := `Sure, let me check that for you.
[TOOL_CALLS][{"name": "get_current_weather", "arguments": {"latitude": 48.85, "longitude": 2.35}}]`

	calls, err := ExtractCalls(raw)
	if err != nil {
		t.Fatalf("ExtractCalls failed: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("Expected 1 call, got %d", len(calls))
	}
	if calls[0].Name != "get_current_weather" {
		t.Errorf("Expected get_current_weather, got %q", calls[0].Name)
	}
	if string(calls[0].Arguments) != `{"latitude": 48.85, "longitude": 2.35}` {
		t.Errorf("Arguments not preserved: %s", calls[0].Arguments)
	}
}

func TestExtractCalls_ShouldReturnNilForPlainText(t *testing.T) {
	calls, err := ExtractCalls("The capital of France is Paris.")
	if err != nil {
		t.Fatalf("Expected no error for plain text, got: %v", err)
	}
	if calls != nil {
		t.Errorf("Expected nil calls, got %v", calls)
	}
}

func TestExtractCalls_ShouldReturnNilForTruncatedArray(t *testing.T) {
	// A cut-off stream never closes the array, so no span matches.
	calls, err := ExtractCalls(`[{"name": "check_ip_reputation", "arguments": {"ip_add`)
	if err != nil {
		t.Fatalf("Expected no error for truncated output, got: %v", err)
	}
	if calls != nil {
		t.Errorf("Expected nil calls, got %v", calls)
	}
}

func TestExtractCalls_ShouldFailOnMalformedSpan(t *testing.T) {
	_, err := ExtractCalls(`[{name: get_forecast, arguments: {}}]`)
	if err == nil {
		t.Fatal("Expected error for unquoted JSON")
	}
	if !errors.Is(err, domain.ErrExtractionFailed) {
		t.Errorf("Expected ErrExtractionFailed, got: %v", err)
	}
}

func TestExtractCalls_ShouldFailOnMissingName(t *testing.T) {
	_, err := ExtractCalls(`[{"arguments": {"city": "Oslo"}}]`)
	if err == nil {
		t.Fatal("Expected error for nameless call")
	}
	if !errors.Is(err, domain.ErrExtractionFailed) {
		t.Errorf("Expected ErrExtractionFailed, got: %v", err)
	}
}

func TestExtractCalls_ShouldReturnAllCallsInOrder(t *testing.T) {
	raw := `[{"name": "check_ip_reputation", "arguments": {"ip_address": "1.2.3.4"}},
{"name": "send_slack_message", "arguments": {"channel": "#alerts", "message": "abusive IP"}}]`

	calls, err := ExtractCalls(raw)
	if err != nil {
		t.Fatalf("ExtractCalls failed: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("Expected 2 calls, got %d", len(calls))
	}
	if calls[0].Name != "check_ip_reputation" || calls[1].Name != "send_slack_message" {
		t.Errorf("Call order not preserved: %q, %q", calls[0].Name, calls[1].Name)
	}
}

func TestExtractCalls_ShouldDefaultMissingArgumentsToEmptyObject(t *testing.T) {
	calls, err := ExtractCalls(`[{"name": "list_slack_channels"}]`)
	if err != nil {
		t.Fatalf("ExtractCalls failed: %v", err)
	}
	if string(calls[0].Arguments) != "{}" {
		t.Errorf("Expected empty-object arguments, got %s", calls[0].Arguments)
	}
}

func TestExtractCalls_ShouldPreserveEscapesInArguments(t *testing.T) {
	calls, err := ExtractCalls(`[{"name": "send_slack_message", "arguments": {"channel": "#ops", "message": "path is C:\\logs\\app \"today\""}}]`)
	if err != nil {
		t.Fatalf("ExtractCalls failed: %v", err)
	}

	var args struct {
		Message string `json:"message"`
	}
	if uErr := json.Unmarshal(calls[0].Arguments, &args); uErr != nil {
		t.Fatalf("Arguments not decodable: %v", uErr)
	}
	if args.Message != `path is C:\logs\app "today"` {
		t.Errorf("Escapes mangled: %q", args.Message)
	}
}

func TestExtractCalls_ShouldHandleNestedObjectArguments(t *testing.T) {
	calls, err := ExtractCalls(`[{"name": "custom_tool", "arguments": {"filter": {"field": "score", "op": ">=", "value": 85}}}]`)
	if err != nil {
		t.Fatalf("ExtractCalls failed: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("Expected 1 call, got %d", len(calls))
	}
}
