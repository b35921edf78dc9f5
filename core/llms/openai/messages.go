package openai

import "github.com/adaeng/enhance-core/core/llms"

type message struct {
	Role       messageRole `json:"role"`
	Content    string      `json:"content"`
	Name       string      `json:"name,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	ToolCalls  []toolCall  `json:"tool_calls,omitempty"`
}

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
	messageRoleTool      messageRole = "tool"
)

type toolCall struct {
	Index    int              `json:"index,omitempty"`
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type tool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

func toMessages(transcript []llms.Message) []message {
	messages := []message{}
	for _, entry := range transcript {
		switch {
		case entry.Role == llms.MessageRoleAssistant && entry.ToolName != "":
			messages = append(messages, message{
				Role: messageRoleAssistant,
				ToolCalls: []toolCall{{
					ID:   entry.ToolCallID,
					Type: "function",
					Function: toolCallFunction{
						Name:      entry.ToolName,
						Arguments: entry.ToolArguments,
					},
				}},
			})

		case entry.Role == llms.MessageRoleTool:
			messages = append(messages, message{
				Role:       messageRoleTool,
				Content:    entry.Content,
				Name:       entry.ToolName,
				ToolCallID: entry.ToolCallID,
			})

		default:
			messages = append(messages, message{
				Role:    messageRole(entry.Role),
				Content: entry.Content,
			})
		}
	}
	return messages
}

func toTools(tools []llms.Tool) []tool {
	wireTools := make([]tool, 0, len(tools))
	for _, t := range tools {
		var parameters any
		if len(t.Parameters) > 0 {
			parameters = t.Parameters
		}
		wireTools = append(wireTools, tool{
			Type: "function",
			Function: toolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  parameters,
			},
		})
	}
	return wireTools
}
