package enhancement

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/adaeng/enhance-core/core/messages"
)

// State is the pipeline worker's observable processing stage.
type State string

const (
	StateIdle      State = "idle"
	StateDeciding  State = "deciding"
	StateNotifying State = "notifying"
	StateRendering State = "rendering"
	StateDelivered State = "delivered"
	StateStopped   State = "stopped"
)

// Pipeline is the single serialized consumer of the inbound turn queue:
// dequeue, decide, notify, render, deliver, repeat. Turns are processed
// strictly one at a time, which is what makes the one-decision-per-turn
// guarantee hold without further coordination.
type Pipeline struct {
	bus    *Bus
	engine *DecisionEngine
	relay  *Relay

	state atomic.Value
}

// NewPipeline wires the worker. The bus queues must be created before the
// pipeline starts and torn down only after it stops.
func NewPipeline(bus *Bus, engine *DecisionEngine, relay *Relay) *Pipeline {
	pipeline := &Pipeline{
		bus:    bus,
		engine: engine,
		relay:  relay,
	}
	pipeline.state.Store(StateIdle)
	return pipeline
}

// State reports the worker's current processing stage.
func (p *Pipeline) State() State {
	return p.state.Load().(State)
}

// Run consumes turns until ctx is cancelled. A failing turn is converted
// into a generic error card and the loop continues; only cancellation
// stops it. The inbound item is acknowledged if and only if it was
// actually dequeued this iteration, even when processing failed.
func (p *Pipeline) Run(ctx context.Context) error {
	defer p.state.Store(StateStopped)

	for {
		p.state.Store(StateIdle)
		if err := ctx.Err(); err != nil {
			return err
		}

		turn, err := p.bus.Inbound.Get(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("failed to dequeue turn: %w", err)
		}

		if err := p.processTurn(ctx, turn); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				// The turn was interrupted, not processed. Acknowledging it
				// here would falsely mark it complete.
				return ctxErr
			}

			logger.ErrorContext(ctx, "Turn processing failed, delivering error card", "error", err)
			p.deliverErrorCard(ctx, turn)
		}

		if err := p.bus.Inbound.Done(); err != nil {
			return fmt.Errorf("failed to acknowledge turn: %w", err)
		}
	}
}

// processTurn runs one turn through decide, notify, and render. Panics
// are converted into errors so a single bad turn never halts the worker.
func (p *Pipeline) processTurn(ctx context.Context, turn RawTurn) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("turn processing panicked: %v", recovered)
		}
	}()

	ctx, span := tracer.Start(ctx, "ProcessTurn", trace.WithAttributes(
		attribute.String("turn.origin", string(turn.Metadata.Origin)),
		attribute.String("turn.thread_id", turn.Metadata.ThreadID),
	))
	defer span.End()

	p.state.Store(StateDeciding)
	var decision Decision
	if turn.Metadata.BypassDecision {
		decision = p.engine.DecideBypass(turn)
	} else {
		decision = p.engine.Decide(ctx, turn)
	}

	if decision.DisplayEnhancement {
		p.state.Store(StateNotifying)
		if err := p.bus.Outbound.Put(ctx, messages.NewEnhancementStarted("")); err != nil {
			return fmt.Errorf("failed to emit enhancement indicator: %w", err)
		}
	}

	p.state.Store(StateRendering)
	if err := p.relay.Deliver(ctx, turn, decision); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to deliver turn output: %w", err)
	}

	p.state.Store(StateDelivered)
	return nil
}

// deliverErrorCard emits the generic failure payload addressed by the
// turn's origin. A delivery failure here is logged and dropped; there is
// nothing further to fall back to.
func (p *Pipeline) deliverErrorCard(ctx context.Context, turn RawTurn) {
	payload := errorCalloutPayload(
		"System Error",
		"A system error occurred while generating UI for this response.",
	)

	var message messages.Message
	if turn.Metadata.Origin == OriginText {
		message = messages.NewTextResponse(payload, turn.Metadata.ThreadID)
	} else {
		message = messages.NewVoiceResponse(payload, "")
	}

	if err := p.bus.Outbound.Put(ctx, message); err != nil {
		logger.ErrorContext(ctx, "Failed to enqueue error card", "error", err)
	}
}
