// Package messages defines the tagged outbound message contract consumed by
// UI clients.
//
// Every message carries a stable id, an assistant role, and a type
// discriminant. Kinds in use:
//
//   - UserTranscript (user_transcript): echo of a transcribed user
//     utterance.
//   - EnhancementStarted (enhancement_started): interim indicator that an
//     enhanced display is being generated for the current turn.
//   - RenderChunk (render_chunk): incremental fragment of a streamed visual
//     payload; the id correlates all fragments of one rendering.
//   - RenderDone (render_done): terminal marker for a streamed rendering,
//     sharing the id of its chunks.
//   - VoiceResponse (voice_response): terminal payload for a voice-origin
//     turn, optionally carrying separate narration text.
//   - TextResponse (text_response): terminal payload for a text-origin
//     turn, optionally addressed to a conversation thread.
package messages
