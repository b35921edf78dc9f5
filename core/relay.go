package enhancement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/adaeng/enhance-core/core/llms"
	"github.com/adaeng/enhance-core/core/messages"
	"github.com/adaeng/enhance-core/core/stagebus"
)

// Renderer is the external rendering service: it turns a transcript into
// a stream of visual payload fragments.
type Renderer interface {
	StreamVisualization(ctx context.Context, transcript []llms.Message) func(yield func(string, error) bool)
}

// Relay turns a final decision into outbound UI messages: a streamed rich
// rendering when one is wanted and available, a minimal static card
// otherwise. Clients always receive something renderable for a turn that
// reaches the relay, except the deliberate voice-origin early exit.
type Relay struct {
	renderer Renderer
	tools    llms.ToolSource
	outbound *stagebus.Queue[messages.Message]

	chunkDelay time.Duration
}

type RelayOption func(*Relay)

// WithChunkDelay inserts a pause between render chunks to smooth
// client-side rendering.
func WithChunkDelay(delay time.Duration) RelayOption {
	return func(r *Relay) {
		if delay > 0 {
			r.chunkDelay = delay
		}
	}
}

// NewRelay creates a relay. renderer and tools may be nil; without a
// renderer every enhanced turn falls back to the static card.
func NewRelay(renderer Renderer, tools llms.ToolSource, outbound *stagebus.Queue[messages.Message], opts ...RelayOption) *Relay {
	relay := &Relay{
		renderer: renderer,
		tools:    tools,
		outbound: outbound,
	}
	for _, opt := range opts {
		opt(relay)
	}
	return relay
}

// Deliver emits the outbound messages for one decided turn.
func (r *Relay) Deliver(ctx context.Context, turn RawTurn, decision Decision) error {
	ctx, span := tracer.Start(ctx, "Deliver", trace.WithAttributes(
		attribute.String("turn.origin", string(turn.Metadata.Origin)),
		attribute.Bool("decision.display_enhancement", decision.DisplayEnhancement),
	))
	defer span.End()

	if !decision.DisplayEnhancement {
		if turn.Metadata.Origin == OriginVoice {
			// The fast path already delivered the spoken answer and its
			// acknowledgment bubble. Anything more would duplicate output.
			return nil
		}
		return r.deliverStatic(ctx, turn, simpleCardPayload(decision.DisplayEnhancedText))
	}

	if r.renderer == nil {
		logger.InfoContext(ctx, "No renderer available, delivering static card")
		return r.deliverStatic(ctx, turn, simpleCardPayload(decision.DisplayEnhancedText))
	}

	return r.streamRendering(ctx, turn, decision)
}

func (r *Relay) streamRendering(ctx context.Context, turn RawTurn, decision Decision) error {
	span := trace.SpanFromContext(ctx)

	correlationID := turn.Metadata.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("render.correlation_id", correlationID))

	var catalog []llms.Tool
	if r.tools != nil {
		if tools, err := r.tools.Tools(ctx); err == nil {
			catalog = tools
		}
	}
	transcript := renderTranscript(turn, decision.DisplayEnhancedText, catalog)

	chunks := 0
	for fragment, err := range r.renderer.StreamVisualization(ctx, transcript) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.ErrorContext(ctx, "Rendering stream failed, delivering error card", "error", err)
			return r.deliverStatic(ctx, turn, errorCalloutPayload(
				"Visualization Error",
				"Failed to generate UI: "+err.Error(),
			))
		}

		chunks++
		if err := r.outbound.Put(ctx, messages.NewRenderChunk(correlationID, fragment)); err != nil {
			return err
		}

		if r.chunkDelay > 0 {
			select {
			case <-time.After(r.chunkDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	span.SetAttributes(attribute.Int("render.chunks", chunks))
	return r.outbound.Put(ctx, messages.NewRenderDone(correlationID, ""))
}

// deliverStatic emits the uniform terminal fallback, addressed by origin.
func (r *Relay) deliverStatic(ctx context.Context, turn RawTurn, payload string) error {
	if turn.Metadata.Origin == OriginText {
		return r.outbound.Put(ctx, messages.NewTextResponse(payload, turn.Metadata.ThreadID))
	}
	return r.outbound.Put(ctx, messages.NewVoiceResponse(payload, ""))
}
