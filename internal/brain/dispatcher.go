package brain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"opschat/internal/domain"
	"opschat/internal/tooling"
)

// deferredActionNote is appended to the reply when the model proposed more
// than one call. Calls after the first are never executed automatically.
const deferredActionNote = "\n\nNote: You requested multiple actions. " +
	"I will only perform the first one per turn. " +
	"Please specify the next action after this is complete."

// Dispatcher validates extracted calls against the registry and executes at
// most the first one. Every failure mode — unknown tool, bad arguments, a
// fault in the underlying external call — is converted to an error ToolResult;
// nothing propagates out of Dispatch as an error or panic.
type Dispatcher struct {
	registry *tooling.ToolRegistry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher backed by the given registry.
// Panics if registry is nil.
func NewDispatcher(registry *tooling.ToolRegistry, logger *slog.Logger) *Dispatcher {
	if registry == nil {
		panic("dispatcher: registry must not be nil")
	}
	return &Dispatcher{registry: registry, logger: logger}
}

func (d *Dispatcher) log() *slog.Logger {
	if d.logger != nil {
		return d.logger
	}
	return slog.Default()
}

// FunctionSpecs returns the registry's tool snapshot in prompt wire shape,
// in registration order.
func (d *Dispatcher) FunctionSpecs() []domain.FunctionSpec {
	return d.registry.FunctionSpecs()
}

// Dispatch executes at most calls[0]. The returned advisory is non-empty when
// additional calls were proposed and deferred. With no calls at all, result is
// nil and toolName empty.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []domain.ToolCall) (result *domain.ToolResult, toolName string, advisory string) {
	if len(calls) == 0 {
		return nil, "", ""
	}
	if len(calls) > 1 {
		advisory = deferredActionNote
		d.log().Info("deferring extra tool calls", "deferred", len(calls)-1)
	}

	call := calls[0]
	toolName = call.Name

	tool, err := d.registry.Get(call.Name)
	if err != nil {
		d.log().Warn("unknown tool requested", "tool", call.Name)
		return domain.NewErrorResult(fmt.Sprintf("unknown tool: %s", call.Name)), toolName, advisory
	}

	if err := tooling.CheckArguments(call.Arguments, tool.Definition()); err != nil {
		d.log().Warn("argument validation failed", "tool", call.Name, "error", err)
		return domain.NewErrorResult(argumentFailure(err)), toolName, advisory
	}

	res := d.invoke(ctx, tool, call)
	return res, toolName, advisory
}

// invoke runs the tool and normalizes every outcome — error return, panic,
// nil result — into a ToolResult.
func (d *Dispatcher) invoke(ctx context.Context, tool tooling.SchemaTool, call domain.ToolCall) (res *domain.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			d.log().Error("tool panicked", "tool", call.Name, "panic", r)
			res = domain.NewErrorResult(fmt.Sprintf("tool %s panicked: %v", call.Name, r))
		}
	}()

	out, err := tool.Call(ctx, call.Arguments)
	if err != nil {
		d.log().Warn("tool execution failed", "tool", call.Name, "error", err)
		return domain.NewErrorResult(err.Error())
	}
	if out == nil {
		return domain.NewErrorResult(fmt.Sprintf("tool %s returned no result", call.Name))
	}
	return out
}

// argumentFailure strips the error-kind prefix so the user-visible payload
// reads "missing argument: channel" rather than the wrapped chain.
func argumentFailure(err error) string {
	msg := err.Error()
	prefix := domain.ErrInvalidArguments.Error() + ": "
	if strings.HasPrefix(msg, prefix) {
		return strings.TrimPrefix(msg, prefix)
	}
	return msg
}
