package brain

import (
	"encoding/json"
	"strings"
	"testing"

	"opschat/internal/domain"
)

func sampleSpecs(t *testing.T) []domain.FunctionSpec {
	t.Helper()
	def := domain.ToolDefinition{
		Name:        "get_forecast",
		Description: "Get 5-day weather forecast for a city",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`),
	}
	return []domain.FunctionSpec{def.Spec()}
}

func TestComposer_BuildSelectionPrompt_ShouldEmbedToolSnapshotVerbatim(t *testing.T) {
	c := NewComposer()
	specs := sampleSpecs(t)

	prompt, err := c.BuildSelectionPrompt(nil, "Forecast for Oslo?", specs)
	if err != nil {
		t.Fatalf("BuildSelectionPrompt failed: %v", err)
	}

	defs, _ := json.Marshal(specs)
	if !strings.Contains(prompt, "[AVAILABLE_TOOLS]"+string(defs)+"[/AVAILABLE_TOOLS]") {
		t.Error("Expected the exact serialized tool snapshot inside the AVAILABLE_TOOLS block")
	}
	if !strings.Contains(prompt, "User: Forecast for Oslo?") {
		t.Error("Expected question at the end of the conversation block")
	}
	if strings.Contains(prompt, "%%") {
		t.Error("Expected all placeholders to be substituted")
	}
}

func TestComposer_BuildSelectionPrompt_ShouldBeDeterministic(t *testing.T) {
	c := NewComposer()
	specs := sampleSpecs(t)
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "hello"},
		{Role: domain.RoleAssistant, Content: "hi there"},
	}

	a, err := c.BuildSelectionPrompt(history, "Forecast for Oslo?", specs)
	if err != nil {
		t.Fatalf("BuildSelectionPrompt failed: %v", err)
	}
	b, err := c.BuildSelectionPrompt(history, "Forecast for Oslo?", specs)
	if err != nil {
		t.Fatalf("BuildSelectionPrompt failed: %v", err)
	}
	if a != b {
		t.Error("Expected identical prompts for identical inputs")
	}
}

func TestComposer_BuildSelectionPrompt_ShouldRenderHistory(t *testing.T) {
	c := NewComposer()
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "check 1.2.3.4"},
		{Role: domain.RoleTool, ToolName: "check_ip_reputation", Content: `{"score":97}`},
		{Role: domain.RoleAssistant, Content: "that IP looks abusive"},
	}

	prompt, err := c.BuildSelectionPrompt(history, "notify the team", sampleSpecs(t))
	if err != nil {
		t.Fatalf("BuildSelectionPrompt failed: %v", err)
	}

	for _, want := range []string{
		"User: check 1.2.3.4",
		`Tool [check_ip_reputation]: {"score":97}`,
		"Assistant: that IP looks abusive",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected %q in prompt", want)
		}
	}
}

func TestComposer_BuildAnswerPrompt_ShouldCarryToolPayloadVerbatim(t *testing.T) {
	c := NewComposer()
	payload := `{"data":{"abuseConfidenceScore":97,"ipAddress":"203.0.113.9"}}`
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "check 203.0.113.9"},
		{Role: domain.RoleTool, ToolName: "check_ip_reputation", Content: payload},
	}

	prompt := c.BuildAnswerPrompt(history, "check 203.0.113.9")
	if !strings.Contains(prompt, payload) {
		t.Error("Expected tool payload to appear byte-for-byte in the answer prompt")
	}
	if !strings.Contains(prompt, "User: check 203.0.113.9") {
		t.Error("Expected question in the answer prompt")
	}
	if !strings.Contains(prompt, "answer the user's question in clear natural language") {
		t.Error("Expected the answer-mode instruction block")
	}
}

func TestFormatMessages_ShouldLabelRoles(t *testing.T) {
	out := FormatMessages([]domain.Message{
		{Role: domain.RoleSystem, Content: "be brief"},
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
		{Role: domain.RoleTool, ToolName: "get_forecast", Content: "sunny"},
	})

	want := "System: be brief\nUser: hi\nAssistant: hello\nTool [get_forecast]: sunny\n"
	if out != want {
		t.Errorf("FormatMessages:\n got: %q\nwant: %q", out, want)
	}
}

func TestFormatMessages_ShouldReturnEmptyForNoMessages(t *testing.T) {
	if out := FormatMessages(nil); out != "" {
		t.Errorf("Expected empty string, got %q", out)
	}
}
