package enhancement

import (
	"fmt"
	"strings"

	"github.com/adaeng/enhance-core/core/llms"
)

const decisionSystemPrompt = `You are an enhancement agent for a voice assistant. You analyze spoken assistant responses and decide whether a rich visual representation would improve them.

You may call the available tools to gather additional information before deciding. The following tools are available:
%s

When you have everything you need, call the process_enhancement_decision function with your final decision. Set displayEnhancement to true only when a visual representation genuinely adds value over the spoken answer. displayEnhancedText is the text to render, and may incorporate tool results and markdown formatting. voiceOverText is short narration spoken while the visual is shown; leave it empty when nothing extra needs to be said.`

const decisionUserPrompt = `Analyze this voice assistant response and make an enhancement decision:

Original Response: %q%s

Instructions:
1. If tools would help improve this response, call them first
2. Once you have all the information you need, call the process_enhancement_decision function to provide your final decision
3. Always end by calling process_enhancement_decision`

const visualizationSystemPrompt = `You are a UI generation assistant. Convert assistant responses into appropriate visual components for web display. Use Cards, Callouts, and TextContent components as needed.`

// decisionTranscript builds the system and user messages that open a
// decision negotiation. The last few history entries are inlined as
// context rather than sent as separate turns.
func decisionTranscript(turn RawTurn, tools []llms.Tool) []llms.Message {
	lines := make([]string, 0, len(tools))
	for _, tool := range tools {
		if tool.Name == decisionToolName {
			continue
		}
		lines = append(lines, fmt.Sprintf("- **%s**: %s", tool.Name, tool.Description))
	}
	catalog := strings.Join(lines, "\n")
	if catalog == "" {
		catalog = "No tools currently available."
	}

	var context strings.Builder
	if recent := tailMessages(turn.History, 3); len(recent) > 0 {
		context.WriteString("\n\nConversation Context:\n")
		for _, message := range recent {
			fmt.Fprintf(&context, "%s: %s\n", message.Role, message.Content)
		}
	}

	return []llms.Message{
		{Role: llms.MessageRoleSystem, Content: fmt.Sprintf(decisionSystemPrompt, catalog)},
		{Role: llms.MessageRoleUser, Content: fmt.Sprintf(decisionUserPrompt, turn.AssistantResponse, context.String())},
	}
}

// renderTranscript builds the message list for the rendering service:
// the visualization system prompt with the live tool catalog, the user and
// assistant turns of the conversation, and the display text to visualize
// as the final assistant message.
func renderTranscript(turn RawTurn, displayText string, tools []llms.Tool) []llms.Message {
	var catalog strings.Builder
	for _, tool := range tools {
		if tool.Name == decisionToolName {
			continue
		}
		fmt.Fprintf(&catalog, "- **%s**: %s\n", tool.Name, tool.Description)
	}

	systemPrompt := visualizationSystemPrompt
	if catalog.Len() > 0 {
		systemPrompt += "\n\nAvailable server-side tools for interactivity:\n" + catalog.String()
	}

	transcript := []llms.Message{{Role: llms.MessageRoleSystem, Content: systemPrompt}}
	for _, message := range turn.History {
		if message.Role == llms.MessageRoleUser || message.Role == llms.MessageRoleAssistant {
			if message.Content == "" {
				continue
			}
			transcript = append(transcript, llms.Message{Role: message.Role, Content: message.Content})
		}
	}
	return append(transcript, llms.Message{Role: llms.MessageRoleAssistant, Content: displayText})
}

func tailMessages(history []llms.Message, n int) []llms.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
