package messages

// Kinds for streamed renderings. All chunks of one rendering share an id
// with their terminal marker.
const (
	KindRenderChunk Kind = "render_chunk"
	KindRenderDone  Kind = "render_done"
)

// RenderChunk is one incremental fragment of a streamed visual payload.
type RenderChunk struct {
	Base
	Content string `json:"content"`
}

// NewRenderChunk creates a fragment of the rendering identified by id.
func NewRenderChunk(id, content string) RenderChunk {
	return RenderChunk{Base: NewBase(KindRenderChunk, id), Content: content}
}

// RenderDone marks the end of a streamed rendering. Content optionally
// carries the complete assembled payload.
type RenderDone struct {
	Base
	Content string `json:"content,omitempty"`
}

// NewRenderDone creates the terminal marker for the rendering identified
// by id.
func NewRenderDone(id, content string) RenderDone {
	return RenderDone{Base: NewBase(KindRenderDone, id), Content: content}
}
