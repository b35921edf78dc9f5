package enhancement

import "github.com/adaeng/enhance-core/core/llms"

// Origin tags where a turn entered the system from.
type Origin string

const (
	OriginVoice Origin = "voice"
	OriginText  Origin = "text"
)

// TurnMetadata carries routing information alongside a raw turn.
type TurnMetadata struct {
	Origin Origin
	// ThreadID addresses the conversation the turn belongs to.
	ThreadID string
	// CorrelationID ties incremental render output to one turn. Optional;
	// a fresh id is minted when absent.
	CorrelationID string
	// BypassDecision skips the negotiation for turns already known not to
	// need it. The text endpoint sets it for responses it rendered itself.
	BypassDecision bool
}

// RawTurn is the unit handed from the fast path to the enhancement
// pipeline: the already-spoken (or already-shown) assistant response plus
// a snapshot of recent history. Ownership transfers to the pipeline on
// dequeue; nothing mutates a turn after it is enqueued.
type RawTurn struct {
	AssistantResponse string
	History           []llms.Message
	Metadata          TurnMetadata
}
