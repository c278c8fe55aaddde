package brain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"opschat/internal/domain"
	"opschat/internal/session"
)

// turnPhase names the states of the per-turn state machine, for logging.
type turnPhase string

const (
	phaseExtracting     turnPhase = "extracting"
	phaseDisambiguating turnPhase = "disambiguating"
	phaseDispatching    turnPhase = "dispatching"
	phaseSynthesizing   turnPhase = "synthesizing"
)

// Engine runs one conversational turn: selection call, extraction, at most one
// tool execution, streamed answer call. Every turn terminates with exactly one
// assistant message appended to the conversation — internal failures are
// converted into that message, never raised to the caller.
type Engine struct {
	provider   domain.LLMProvider
	composer   *Composer
	dispatcher *Dispatcher
	logger     *slog.Logger

	window           int
	selectionTimeout time.Duration
	toolTimeout      time.Duration
	answerTimeout    time.Duration
}

// Option is a functional option for configuring Engine.
type Option func(*Engine)

// WithLogger sets a structured logger. If l is nil it is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithWindow sets the truncation window: how many recent messages each prompt
// includes. Non-positive values are ignored.
func WithWindow(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.window = k
		}
	}
}

// WithTimeouts bounds the three outbound stages of a turn. Non-positive values
// leave the corresponding default in place.
func WithTimeouts(selection, tool, answer time.Duration) Option {
	return func(e *Engine) {
		if selection > 0 {
			e.selectionTimeout = selection
		}
		if tool > 0 {
			e.toolTimeout = tool
		}
		if answer > 0 {
			e.answerTimeout = answer
		}
	}
}

// DefaultWindow is the truncation window used when none is configured.
const DefaultWindow = 12

// NewEngine returns an Engine. Provider, composer, and dispatcher must not be nil.
func NewEngine(provider domain.LLMProvider, composer *Composer, dispatcher *Dispatcher, opts ...Option) *Engine {
	if provider == nil {
		panic("engine: provider must not be nil")
	}
	if composer == nil {
		panic("engine: composer must not be nil")
	}
	if dispatcher == nil {
		panic("engine: dispatcher must not be nil")
	}
	e := &Engine{
		provider:         provider,
		composer:         composer,
		dispatcher:       dispatcher,
		window:           DefaultWindow,
		selectionTimeout: 60 * time.Second,
		toolTimeout:      30 * time.Second,
		answerTimeout:    120 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}

// Window returns the configured truncation window.
func (e *Engine) Window() int { return e.window }

// Turn processes one user message through the full loop and returns the
// assistant reply that was appended. The returned error is non-nil only for
// caller misuse (nil conversation, blank message); upstream, extraction, and
// tool failures all still produce an appended reply and a nil error.
func (e *Engine) Turn(ctx context.Context, conv *session.Conversation, userMessage string) (string, error) {
	if conv == nil {
		return "", errors.New("engine: conversation must not be nil")
	}
	if strings.TrimSpace(userMessage) == "" {
		return "", errors.New("engine: user message must not be empty")
	}

	// The selection prompt sees the history before this turn's user message;
	// the question travels separately in the instruction block.
	prior := conv.Window(e.window)
	conv.Append(domain.Message{Role: domain.RoleUser, Content: userMessage})

	selStart := time.Now()
	e.log().Debug("turn phase", "phase", phaseExtracting)

	selPrompt, err := e.composer.BuildSelectionPrompt(prior, userMessage, e.dispatcher.FunctionSpecs())
	if err != nil {
		return e.finish(conv, fmt.Sprintf("Error: %v", err)), nil
	}

	selCtx, cancelSel := context.WithTimeout(ctx, e.selectionTimeout)
	raw, err := e.provider.Generate(selCtx, selPrompt)
	cancelSel()
	selDur := time.Since(selStart)
	if err != nil {
		e.log().Warn("selection call failed", "error", err)
		return e.finish(conv, fmt.Sprintf("Error: %v\nRaw: %s\n\nTook %.2fs", err, raw, selDur.Seconds())), nil
	}

	calls, exErr := ExtractCalls(raw)
	if exErr != nil {
		e.log().Warn("extraction failed", "error", exErr)
		return e.finish(conv, fmt.Sprintf("Error: %v\nRaw: %s\n\nTook %.2fs", exErr, raw, selDur.Seconds())), nil
	}

	if len(calls) == 0 {
		// No tool needed; the selection output is the answer.
		e.log().Debug("turn phase", "phase", phaseDisambiguating)
		return e.finish(conv, fmt.Sprintf("%s\n\nTook %.2fs", raw, selDur.Seconds())), nil
	}

	e.log().Debug("turn phase", "phase", phaseDispatching, "tool", calls[0].Name, "calls", len(calls))
	toolCtx, cancelTool := context.WithTimeout(ctx, e.toolTimeout)
	result, toolName, advisory := e.dispatcher.Dispatch(toolCtx, calls)
	cancelTool()

	content := result.Payload
	if result.IsError() {
		content = "error: " + result.Payload
	}
	conv.Append(domain.Message{Role: domain.RoleTool, ToolName: toolName, Content: content})

	e.log().Debug("turn phase", "phase", phaseSynthesizing)
	ansStart := time.Now()
	ansPrompt := e.composer.BuildAnswerPrompt(conv.Window(e.window), userMessage)

	ansCtx, cancelAns := context.WithTimeout(ctx, e.answerTimeout)
	answer, err := e.provider.GenerateStream(ansCtx, ansPrompt, nil)
	cancelAns()
	ansDur := time.Since(ansStart)
	if err != nil {
		e.log().Warn("answer call failed", "error", err)
		return e.finish(conv, fmt.Sprintf("Error: %v\n\nTook %.2fs", err, (selDur + ansDur).Seconds())), nil
	}

	reply := fmt.Sprintf("%s\n\nFn call: %.2fs | Answer: %.2fs%s",
		answer, selDur.Seconds(), ansDur.Seconds(), advisory)
	return e.finish(conv, reply), nil
}

// finish appends the assistant reply that terminates the turn. Every path
// through Turn ends here exactly once.
func (e *Engine) finish(conv *session.Conversation, reply string) string {
	conv.Append(domain.Message{Role: domain.RoleAssistant, Content: reply})
	return reply
}
