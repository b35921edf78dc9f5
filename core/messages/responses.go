package messages

// Kinds for terminal turn payloads, split by the origin of the turn.
const (
	KindVoiceResponse Kind = "voice_response"
	KindTextResponse  Kind = "text_response"
)

// VoiceResponse is the terminal payload for a voice-origin turn. VoiceText
// carries narration that differs from the displayed content; when set, the
// client speaks it instead of showing it.
type VoiceResponse struct {
	Base
	Content         string `json:"content"`
	VoiceText       string `json:"voiceText,omitempty"`
	IsVoiceOverOnly bool   `json:"isVoiceOverOnly"`
}

// NewVoiceResponse creates a terminal voice payload. IsVoiceOverOnly is
// derived from whether separate narration text is present.
func NewVoiceResponse(content, voiceText string) VoiceResponse {
	return VoiceResponse{
		Base:            NewBase(KindVoiceResponse, ""),
		Content:         content,
		VoiceText:       voiceText,
		IsVoiceOverOnly: voiceText != "",
	}
}

// TextResponse is the terminal payload for a text-origin turn.
type TextResponse struct {
	Base
	Content  string `json:"content"`
	ThreadID string `json:"threadId,omitempty"`
}

// NewTextResponse creates a terminal text payload addressed to threadID.
func NewTextResponse(content, threadID string) TextResponse {
	return TextResponse{Base: NewBase(KindTextResponse, ""), Content: content, ThreadID: threadID}
}
