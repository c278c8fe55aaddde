package domain

import (
	"encoding/json"
	"time"
)

// =============================================================================
// Core Configuration
// =============================================================================

type Config struct {
	Ollama  OllamaConfig  `json:"ollama" yaml:"ollama"`
	Chat    ChatConfig    `json:"chat" yaml:"chat"`
	Gateway GatewayConfig `json:"gateway" yaml:"gateway"`
	Infra   InfraConfig   `json:"infra" yaml:"infra"`
	Retry   RetryConfig   `json:"retry" yaml:"retry"`
}

type OllamaConfig struct {
	BaseURL string `json:"baseUrl" yaml:"baseUrl"` // e.g. http://localhost:11434
	Model   string `json:"model" yaml:"model"`     // e.g. qwen2.5:latest
}

// ChatConfig controls the per-turn loop. Timeouts are in milliseconds.
type ChatConfig struct {
	HistoryWindow    int `json:"historyWindow" yaml:"historyWindow"`       // messages included in each prompt
	SelectionTimeout int `json:"selectionTimeout" yaml:"selectionTimeout"` // tool-selection model call
	ToolTimeout      int `json:"toolTimeout" yaml:"toolTimeout"`           // single tool execution
	AnswerTimeout    int `json:"answerTimeout" yaml:"answerTimeout"`       // streamed answer model call
}

type GatewayConfig struct {
	Port      int    `json:"port" yaml:"port"`
	AuthToken string `json:"authToken,omitempty" yaml:"authToken,omitempty"` // When set, gateway requires Authorization: Bearer <authToken>
}

type InfraConfig struct {
	LogFormat string `json:"logFormat" yaml:"logFormat"` // "json" | "text"
	LogLevel  string `json:"logLevel" yaml:"logLevel"`
}

// RetryConfig controls retry behaviour for calls to the generation service.
type RetryConfig struct {
	MaxRetries     int `json:"maxRetries" yaml:"maxRetries"`         // Maximum retry attempts (0 = no retries)
	InitialBackoff int `json:"initialBackoff" yaml:"initialBackoff"` // Initial backoff in milliseconds
	MaxBackoff     int `json:"maxBackoff" yaml:"maxBackoff"`         // Maximum backoff in milliseconds
	Multiplier     int `json:"multiplier" yaml:"multiplier"`         // Backoff multiplier (e.g. 2 for exponential doubling)
}

// =============================================================================
// Messaging Protocol
// =============================================================================

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
	RoleTool      MessageRole = "tool"
)

// Message is one entry in a conversation. Messages are immutable once
// appended; ToolName is set only on RoleTool messages and names the tool that
// produced the content.
type Message struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	ToolName  string      `json:"toolName,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// =============================================================================
// Tooling
// =============================================================================

// ToolDefinition describes a registered tool: its unique name, a description
// for the model, and the JSON Schema of its input object.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// FunctionSpec is the wire shape embedded verbatim into the selection prompt:
// {"type":"function","function":{"name":...,"description":...,"parameters":{...}}}
type FunctionSpec struct {
	Type     string       `json:"type"`
	Function FunctionInfo `json:"function"`
}

type FunctionInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Spec converts a ToolDefinition to its prompt wire shape.
func (d ToolDefinition) Spec() FunctionSpec {
	return FunctionSpec{
		Type: "function",
		Function: FunctionInfo{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.InputSchema,
		},
	}
}

// ToolCall is a tool invocation extracted from model output. It is untrusted:
// Name may not exist in the registry and Arguments may violate the schema.
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type ToolStatus string

const (
	ToolStatusSuccess ToolStatus = "success"
	ToolStatusError   ToolStatus = "error"
)

// ToolResult is the normalized return shape of every tool execution. Payload
// holds the serialized value on success or a plain error message on failure.
type ToolResult struct {
	Status   ToolStatus        `json:"status"`
	Payload  string            `json:"payload"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewSuccessResult wraps a serialized tool return value.
func NewSuccessResult(payload string) *ToolResult {
	return &ToolResult{Status: ToolStatusSuccess, Payload: payload}
}

// NewErrorResult wraps a tool-level failure description. Tool faults never
// propagate past the dispatcher; they travel as error results.
func NewErrorResult(msg string) *ToolResult {
	return &ToolResult{Status: ToolStatusError, Payload: msg}
}

// IsError reports whether the result carries a failure.
func (r *ToolResult) IsError() bool { return r.Status == ToolStatusError }
