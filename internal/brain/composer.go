package brain

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"opschat/internal/domain"
)

// Composer builds the two prompts of a turn. Both builders are pure: the same
// history, question, and tool snapshot always produce the same prompt string.
type Composer struct {
	tokenizer domain.Tokenizer // optional; nil disables prompt-size logging
	logger    *slog.Logger     // optional; nil uses slog.Default()
}

// ComposerOption is a functional option for configuring Composer.
type ComposerOption func(*Composer)

// WithTokenizer enables prompt token counting for debug logging. If t is nil
// it is ignored.
func WithTokenizer(t domain.Tokenizer) ComposerOption {
	return func(c *Composer) {
		if t != nil {
			c.tokenizer = t
		}
	}
}

// WithComposerLogger sets a structured logger. If l is nil it is ignored.
func WithComposerLogger(l *slog.Logger) ComposerOption {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewComposer returns a Composer.
func NewComposer(opts ...ComposerOption) *Composer {
	c := &Composer{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Composer) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// FormatMessages renders a message sequence as prompt text, one line per
// message. Tool messages carry the producing tool's name.
func FormatMessages(msgs []domain.Message) string {
	var sb strings.Builder
	for _, msg := range msgs {
		switch msg.Role {
		case domain.RoleTool:
			fmt.Fprintf(&sb, "Tool [%s]: %s\n", msg.ToolName, msg.Content)
		case domain.RoleSystem:
			fmt.Fprintf(&sb, "System: %s\n", msg.Content)
		default:
			fmt.Fprintf(&sb, "%s: %s\n", capitalize(string(msg.Role)), msg.Content)
		}
	}
	return sb.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// BuildSelectionPrompt renders the truncated history view, the instruction
// block with the exact tool-definition snapshot, and the current question.
// The caller supplies the already-truncated history view.
func (c *Composer) BuildSelectionPrompt(history []domain.Message, question string, specs []domain.FunctionSpec) (string, error) {
	defs, err := json.Marshal(specs)
	if err != nil {
		return "", fmt.Errorf("composer: marshal tool definitions: %w", err)
	}

	prompt := selectionTemplate
	prompt = strings.ReplaceAll(prompt, "%%tool_definitions%%", string(defs))
	prompt = strings.ReplaceAll(prompt, "%%conversation%%", FormatMessages(history))
	prompt = strings.ReplaceAll(prompt, "%%question%%", question)

	c.logPromptSize("selection", prompt)
	return prompt, nil
}

// BuildAnswerPrompt renders system guidance, interpretation hints, the
// truncated history (including any appended tool result), and the original
// question. Tool result payloads pass through FormatMessages verbatim.
func (c *Composer) BuildAnswerPrompt(history []domain.Message, question string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(answerSystemPrompt))
	sb.WriteString("\n\n")
	sb.WriteString(strings.TrimSpace(notifyPrompt))
	sb.WriteString("\n\n")
	sb.WriteString(FormatMessages(history))
	sb.WriteString(switchToAnswerPrompt)
	sb.WriteString("User: ")
	sb.WriteString(question)
	sb.WriteString("\n")

	prompt := sb.String()
	c.logPromptSize("answer", prompt)
	return prompt
}

// logPromptSize emits a debug record with the prompt's token count when a
// tokenizer is configured. Counting failures are ignored; this is advisory.
func (c *Composer) logPromptSize(stage, prompt string) {
	if c.tokenizer == nil {
		return
	}
	n, err := c.tokenizer.CountTokens(prompt)
	if err != nil {
		return
	}
	c.log().Debug("prompt built", "stage", stage, "tokens", n, "chars", len(prompt))
}
