package openai

import (
	"testing"

	"github.com/adaeng/enhance-core/core/llms"
)

func TestToMessagesPreservesToolCallRecords(t *testing.T) {
	transcript := []llms.Message{
		{Role: llms.MessageRoleSystem, Content: "instructions"},
		{Role: llms.MessageRoleUser, Content: "first prompt"},
		{
			Role:          llms.MessageRoleAssistant,
			ToolName:      "lookup_weather",
			ToolArguments: `{"city":"Prague"}`,
			ToolCallID:    "tool_1",
		},
		{
			Role:       llms.MessageRoleTool,
			Content:    `{"temp":21}`,
			ToolName:   "lookup_weather",
			ToolCallID: "tool_1",
		},
		{Role: llms.MessageRoleAssistant, Content: "It is 21C in Prague."},
	}

	messages := toMessages(transcript)

	if len(messages) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(messages))
	}

	if messages[0].Role != messageRoleSystem || messages[0].Content != "instructions" {
		t.Fatalf("unexpected system message: %+v", messages[0])
	}

	if messages[2].Role != messageRoleAssistant || len(messages[2].ToolCalls) != 1 {
		t.Fatalf("unexpected tool call message: %+v", messages[2])
	}
	if messages[2].ToolCalls[0].ID != "tool_1" || messages[2].ToolCalls[0].Function.Name != "lookup_weather" {
		t.Fatalf("tool call lost identity: %+v", messages[2].ToolCalls[0])
	}
	if messages[2].Content != "" {
		t.Fatalf("expected empty content on tool call record, got %q", messages[2].Content)
	}

	if messages[3].Role != messageRoleTool || messages[3].ToolCallID != "tool_1" {
		t.Fatalf("unexpected tool result message: %+v", messages[3])
	}

	if messages[4].Role != messageRoleAssistant || messages[4].Content != "It is 21C in Prague." {
		t.Fatalf("unexpected final assistant message: %+v", messages[4])
	}
}

func TestToToolsWrapsFunctionDeclarations(t *testing.T) {
	tools := toTools([]llms.Tool{{
		Name:        "lookup_weather",
		Description: "Look up current weather",
		Parameters:  []byte(`{"type":"object"}`),
	}})

	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	if tools[0].Type != "function" {
		t.Fatalf("expected function tool type, got %q", tools[0].Type)
	}
	if tools[0].Function.Name != "lookup_weather" {
		t.Fatalf("expected tool name to survive conversion, got %q", tools[0].Function.Name)
	}
}
