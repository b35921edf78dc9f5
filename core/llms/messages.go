package llms

// Message is a single entry of a conversation transcript, in the
// role/content shape shared by the completion and rendering services.
type Message struct {
	Role    MessageRole
	Content string

	// ToolName and ToolArguments are set on tool-call records, where
	// Content is empty.
	ToolName      string
	ToolArguments string
	// ToolCallID correlates a tool result with the call that produced it.
	ToolCallID string

	// ID is an optional caller-supplied identifier.
	ID string
}

// MessageRole describes who a transcript entry is from.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleTool      MessageRole = "tool"
)

// ToolCall is a completed tool invocation: the request made by the model
// and, once executed, the textual response.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
	Response  string
}

// ToolCallDelta is one streamed fragment of an in-progress tool call. The
// name usually arrives whole in the first fragment; arguments accumulate
// over many fragments. Index distinguishes parallel calls within a single
// response.
type ToolCallDelta struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}
