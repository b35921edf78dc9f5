package enhancement

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// VoiceSink is a live audio session able to inject narration text into
// its output stream. Inject must tolerate short fragments at high
// frequency. Closed reports whether the backing session has ended.
type VoiceSink interface {
	Inject(ctx context.Context, text string) error
	Closed() bool
}

// SinkRegistry is a non-owning directory of live narration sinks. The
// registry never controls a sink's lifecycle: sessions register on start,
// unregister on teardown, and Sweep catches the ones that forgot.
type SinkRegistry struct {
	mu    sync.Mutex
	sinks map[VoiceSink]struct{}
}

// NewSinkRegistry creates an empty registry.
func NewSinkRegistry() *SinkRegistry {
	return &SinkRegistry{sinks: map[VoiceSink]struct{}{}}
}

// Register adds a sink. Registering the same sink twice is a no-op.
func (r *SinkRegistry) Register(sink VoiceSink) {
	if sink == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[sink] = struct{}{}
}

// Unregister removes a sink. Unknown sinks are ignored.
func (r *SinkRegistry) Unregister(sink VoiceSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sinks, sink)
}

// Broadcast delivers text to every registered sink concurrently. Blank
// text and an empty registry are no-ops. A failing sink is logged and
// skipped; it never blocks delivery to the others.
func (r *SinkRegistry) Broadcast(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	r.mu.Lock()
	sinks := make([]VoiceSink, 0, len(r.sinks))
	for sink := range r.sinks {
		sinks = append(sinks, sink)
	}
	r.mu.Unlock()

	if len(sinks) == 0 {
		return
	}

	group, ctx := errgroup.WithContext(ctx)
	for _, sink := range sinks {
		group.Go(func() error {
			if err := sink.Inject(ctx, text); err != nil {
				logger.ErrorContext(ctx, "Failed to inject narration into sink", "error", err)
			}
			return nil
		})
	}
	_ = group.Wait()
}

// Sweep drops sinks whose backing session reports closed and returns how
// many were removed.
func (r *SinkRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for sink := range r.sinks {
		if sink.Closed() {
			delete(r.sinks, sink)
			removed++
		}
	}
	return removed
}

// Len reports the number of registered sinks.
func (r *SinkRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sinks)
}
