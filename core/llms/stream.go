package llms

import "context"

type Stream interface {
	Chunks(context.Context) func(func(StreamChunk, error) bool)
}

type StreamChunk interface {
	FinishReason() *string
}

type StreamContentChunk interface {
	StreamChunk
	Content() string
}

type StreamToolCallChunk interface {
	StreamChunk
	ToolCall() ToolCallDelta
}

type StreamUsageChunk interface {
	StreamChunk
	Usage() Usage
}

// Usage reports token accounting for a completed stream.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
