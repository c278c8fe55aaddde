package domain

import "errors"

// Error kinds for the turn loop. Every one of these is caught at the boundary
// where it occurs and converted into a user-visible message; none terminates a
// turn without an appended assistant reply.
var (
	// ErrUpstreamHTTP: the generation service was unreachable or returned non-2xx.
	ErrUpstreamHTTP = errors.New("upstream http error")

	// ErrExtractionFailed: a span that looked like a tool-call array was found
	// but could not be decoded.
	ErrExtractionFailed = errors.New("tool call extraction failed")

	// ErrUnknownTool: an extracted call named a tool absent from the registry.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArguments: extracted arguments violated the tool's schema.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrToolExecution: the underlying external API call itself failed.
	ErrToolExecution = errors.New("tool execution failed")
)
