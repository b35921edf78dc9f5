package messages

// KindEnhancementStarted identifies the interim in-progress indicator.
const KindEnhancementStarted Kind = "enhancement_started"

const defaultEnhancementNote = "Generating enhanced display…"

// EnhancementStarted tells the client that an enhanced display has been
// approved for the current turn and is being generated.
type EnhancementStarted struct {
	Base
	Content string `json:"content"`
}

// NewEnhancementStarted creates the in-progress indicator. An empty note
// falls back to a friendly default.
func NewEnhancementStarted(note string) EnhancementStarted {
	if note == "" {
		note = defaultEnhancementNote
	}
	return EnhancementStarted{Base: NewBase(KindEnhancementStarted, ""), Content: note}
}
