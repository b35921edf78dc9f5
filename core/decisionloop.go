package enhancement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/adaeng/enhance-core/core/conversations"
	"github.com/adaeng/enhance-core/core/llms"
)

const (
	defaultDecisionRounds  = 5
	defaultToolCallTimeout = 20 * time.Second

	// Narrated when the loop falls back after tools were attempted, so the
	// user hears an explanation for the pause.
	fallbackAckNarration = "I used tools to help answer your question."
)

// CompletionStreamer is the completion service consumed by the decision
// loop: an opaque token-streaming source that may also request tool calls.
type CompletionStreamer interface {
	StreamCompletion(ctx context.Context, transcript []llms.Message, tools []llms.Tool) llms.Stream
}

// DecisionEngine negotiates one enhancement decision per turn with the
// completion service, executing any tool calls the model requests along
// the way and narrating eagerly through the sink registry.
type DecisionEngine struct {
	completions CompletionStreamer
	tools       llms.ToolSource
	store       *conversations.Store
	registry    *SinkRegistry

	rounds          int
	toolCallTimeout time.Duration
}

type DecisionEngineOption func(*DecisionEngine)

// WithDecisionRounds bounds the number of negotiation rounds per turn.
func WithDecisionRounds(rounds int) DecisionEngineOption {
	return func(e *DecisionEngine) {
		if rounds > 0 {
			e.rounds = rounds
		}
	}
}

// WithToolCallTimeout bounds each individual tool execution.
func WithToolCallTimeout(timeout time.Duration) DecisionEngineOption {
	return func(e *DecisionEngine) {
		if timeout > 0 {
			e.toolCallTimeout = timeout
		}
	}
}

// NewDecisionEngine creates an engine. tools and store may be nil when no
// tool catalog or history recording is wanted.
func NewDecisionEngine(completions CompletionStreamer, tools llms.ToolSource, store *conversations.Store, registry *SinkRegistry, opts ...DecisionEngineOption) *DecisionEngine {
	engine := &DecisionEngine{
		completions:     completions,
		tools:           tools,
		store:           store,
		registry:        registry,
		rounds:          defaultDecisionRounds,
		toolCallTimeout: defaultToolCallTimeout,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Decide negotiates the enhancement decision for turn. It never returns
// an error: every failure path degrades to a usable fallback decision.
// Narration extracted from the stream is broadcast to registered sinks as
// it decodes, word by word.
func (e *DecisionEngine) Decide(ctx context.Context, turn RawTurn) Decision {
	ctx, span := tracer.Start(ctx, "Decide", trace.WithAttributes(
		attribute.String("turn.origin", string(turn.Metadata.Origin)),
		attribute.String("turn.thread_id", turn.Metadata.ThreadID),
	))
	defer span.End()

	parser := NewStreamParser(func(word string) {
		e.registry.Broadcast(ctx, word)
	})

	var catalog []llms.Tool
	if e.tools != nil {
		tools, err := e.tools.Tools(ctx)
		if err != nil {
			span.RecordError(err)
			logger.WarnContext(ctx, "Failed to query tool catalog, negotiating without tools", "error", err)
		} else {
			catalog = tools
		}
	}
	toolset := append(append([]llms.Tool{}, catalog...), decisionTool())

	transcript := decisionTranscript(turn, catalog)
	toolsUsed := 0

	for round := 0; round < e.rounds; round++ {
		stream := e.completions.StreamCompletion(ctx, transcript, toolset)

		var (
			toolName    string
			toolCallID  string
			arguments   strings.Builder
			sawToolCall bool
			content     strings.Builder
			streamErr   error
		)

		for chunk, err := range stream.Chunks(ctx) {
			if err != nil {
				streamErr = err
				break
			}

			switch chunk := chunk.(type) {
			case llms.StreamToolCallChunk:
				delta := chunk.ToolCall()
				// Exactly one call is honored per round.
				if delta.Index != 0 {
					continue
				}
				sawToolCall = true
				if delta.ID != "" {
					toolCallID = delta.ID
				}
				if delta.Name != "" {
					toolName = delta.Name
				}
				if delta.Arguments != "" {
					arguments.WriteString(delta.Arguments)
					if toolName == decisionToolName {
						parser.Feed(delta.Arguments)
					}
				}
			case llms.StreamContentChunk:
				content.WriteString(chunk.Content())
				if !sawToolCall {
					parser.Feed(chunk.Content())
				}
			}
		}

		if streamErr != nil {
			span.RecordError(streamErr)
			span.SetStatus(codes.Error, streamErr.Error())
			logger.ErrorContext(ctx, "Completion stream failed, falling back",
				"error", streamErr, "round", round+1)
			break
		}

		if !sawToolCall {
			// The model answered in free text. The stream may have been the
			// decision object itself; trust the parser when it resolved the
			// enhancement flag, otherwise force a terminal fallback.
			if parser.FlagResolved() {
				span.SetAttributes(attribute.Bool("decision.from_free_text", true))
				return e.finishDecision(parser.Finalize(), turn)
			}

			logger.WarnContext(ctx, "Completion ended without a finalize call, forcing fallback")
			displayText := strings.TrimSpace(content.String())
			if displayText == "" {
				displayText = turn.AssistantResponse
			}
			return fallbackDecision(toolsUsed > 0, displayText)
		}

		if toolName == decisionToolName {
			decision, err := decodeDecision(arguments.String())
			if err != nil {
				span.RecordError(err)
				logger.WarnContext(ctx, "Finalize arguments failed validation, using streamed fields",
					"error", err)
				decision = parser.Finalize()
			}
			span.SetAttributes(
				attribute.Bool("decision.display_enhancement", decision.DisplayEnhancement),
				attribute.Int("decision.tools_used", toolsUsed),
			)
			return e.finishDecision(decision, turn)
		}

		toolsUsed++
		e.registry.Broadcast(ctx, toolInterjection(toolName))

		// The completion wire rejects a tool result that does not name the
		// call it answers, so an id is minted when the stream omitted one.
		if toolCallID == "" {
			toolCallID = uuid.NewString()
		}

		callArguments := arguments.String()
		result := e.executeTool(ctx, catalog, toolName, callArguments)

		transcript = append(transcript,
			llms.Message{Role: llms.MessageRoleAssistant, ToolName: toolName, ToolArguments: callArguments, ToolCallID: toolCallID},
			llms.Message{Role: llms.MessageRoleTool, ToolName: toolName, Content: result, ToolCallID: toolCallID},
		)
		if e.store != nil && turn.Metadata.ThreadID != "" {
			e.store.AddToolCall(turn.Metadata.ThreadID, toolCallID, toolName, callArguments)
			e.store.AddToolResult(turn.Metadata.ThreadID, toolCallID, toolName, result)
		}
	}

	span.SetAttributes(attribute.Bool("decision.fallback", true))
	return fallbackDecision(toolsUsed > 0, turn.AssistantResponse)
}

// DecideBypass skips negotiation for turns already known not to need it,
// such as pre-rendered text-origin turns.
func (e *DecisionEngine) DecideBypass(turn RawTurn) Decision {
	return Decision{DisplayEnhancement: true, DisplayEnhancedText: turn.AssistantResponse}
}

func (e *DecisionEngine) finishDecision(decision Decision, turn RawTurn) Decision {
	if decision.DisplayEnhancedText == "" {
		decision.DisplayEnhancedText = turn.AssistantResponse
	}
	return decision
}

func (e *DecisionEngine) executeTool(ctx context.Context, catalog []llms.Tool, name, arguments string) string {
	var tool *llms.Tool
	for i := range catalog {
		if catalog[i].Name == name {
			tool = &catalog[i]
			break
		}
	}
	if tool == nil || tool.Execute == nil {
		return fmt.Sprintf("Error: tool %s is not available", name)
	}

	ctx, cancel := context.WithTimeout(ctx, e.toolCallTimeout)
	defer cancel()

	result, err := tool.Execute(ctx, arguments)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Sprintf("Error: tool call timed out after %s", e.toolCallTimeout)
		}
		return fmt.Sprintf("Error calling tool: %s", err)
	}
	if result == "" {
		return "No result"
	}
	return result
}

func fallbackDecision(toolsUsed bool, displayText string) Decision {
	decision := Decision{
		DisplayEnhancement:  toolsUsed,
		DisplayEnhancedText: displayText,
	}
	if toolsUsed {
		decision.VoiceOverText = fallbackAckNarration
	}
	return decision
}

// toolInterjection is narrated right before a tool call so the pause
// reads as deliberate. Tool names are often namespaced with underscores;
// only the last segment is spoken.
func toolInterjection(name string) string {
	parts := strings.Split(name, "_")
	return fmt.Sprintf("I'm using the %s tool. ", parts[len(parts)-1])
}
