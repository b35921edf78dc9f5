package messages

// KindUserTranscript identifies an echoed user utterance transcription.
const KindUserTranscript Kind = "user_transcript"

// UserTranscript echoes a transcribed user utterance to the UI.
type UserTranscript struct {
	Base
	Content string `json:"content"`
}

// NewUserTranscript creates a user transcript echo message.
func NewUserTranscript(content string) UserTranscript {
	return UserTranscript{Base: NewBase(KindUserTranscript, ""), Content: content}
}
