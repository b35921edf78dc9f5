// Package conversations keeps per-thread transcript history for the
// enhancement pipeline, in the shape completion providers consume.
package conversations

import (
	"sync"
	"time"

	"github.com/jinzhu/copier"

	"github.com/adaeng/enhance-core/core/llms"
)

const (
	defaultMaxHistory       = 50
	defaultInactivityWindow = time.Hour
)

type thread struct {
	messages     []llms.Message
	createdAt    time.Time
	lastActivity time.Time
}

// Store holds conversation transcripts keyed by thread id. All methods
// are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	threads map[string]*thread

	maxHistory       int
	inactivityWindow time.Duration
	now              func() time.Time
}

type StoreOption func(*Store)

// WithMaxHistory caps the number of messages retained per thread. When
// the cap is exceeded the oldest messages are dropped first.
func WithMaxHistory(limit int) StoreOption {
	return func(s *Store) {
		if limit > 0 {
			s.maxHistory = limit
		}
	}
}

// WithInactivityWindow sets how long a thread may stay idle before
// CleanupInactive removes it.
func WithInactivityWindow(window time.Duration) StoreOption {
	return func(s *Store) {
		if window > 0 {
			s.inactivityWindow = window
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	store := &Store{
		threads:          make(map[string]*thread),
		maxHistory:       defaultMaxHistory,
		inactivityWindow: defaultInactivityWindow,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) append(threadID string, message llms.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.threads[threadID]
	if !ok {
		entry = &thread{createdAt: s.now()}
		s.threads[threadID] = entry
	}
	entry.messages = append(entry.messages, message)
	entry.lastActivity = s.now()

	if overflow := len(entry.messages) - s.maxHistory; overflow > 0 {
		entry.messages = entry.messages[overflow:]
	}
}

// AddUser records a user message on the thread.
func (s *Store) AddUser(threadID, content string) {
	s.append(threadID, llms.Message{Role: llms.MessageRoleUser, Content: content})
}

// AddAssistant records an assistant message on the thread.
func (s *Store) AddAssistant(threadID, content string) {
	s.append(threadID, llms.Message{Role: llms.MessageRoleAssistant, Content: content})
}

// AddSystem records a system message on the thread.
func (s *Store) AddSystem(threadID, content string) {
	s.append(threadID, llms.Message{Role: llms.MessageRoleSystem, Content: content})
}

// AddToolCall records an assistant tool invocation on the thread. callID
// ties the invocation to its result on the provider wire.
func (s *Store) AddToolCall(threadID, callID, name, arguments string) {
	s.append(threadID, llms.Message{
		Role:          llms.MessageRoleAssistant,
		ToolName:      name,
		ToolArguments: arguments,
		ToolCallID:    callID,
	})
}

// AddToolResult records the textual result of a tool invocation.
func (s *Store) AddToolResult(threadID, callID, name, result string) {
	s.append(threadID, llms.Message{
		Role:       llms.MessageRoleTool,
		ToolName:   name,
		Content:    result,
		ToolCallID: callID,
	})
}

// GetRecent returns up to limit most recent messages of the thread,
// oldest first. The returned slice is a deep copy; callers may mutate
// it freely. A limit of zero or less returns the full retained history.
func (s *Store) GetRecent(threadID string, limit int) []llms.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.threads[threadID]
	if !ok {
		return nil
	}

	messages := entry.messages
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	snapshot := make([]llms.Message, 0, len(messages))
	if err := copier.CopyWithOption(&snapshot, messages, copier.Option{DeepCopy: true}); err != nil {
		snapshot = append(snapshot[:0], messages...)
	}
	return snapshot
}

// CleanupInactive removes threads idle for longer than the inactivity
// window and reports how many were removed.
func (s *Store) CleanupInactive() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.inactivityWindow)
	removed := 0
	for id, entry := range s.threads {
		if entry.lastActivity.Before(cutoff) {
			delete(s.threads, id)
			removed++
		}
	}
	return removed
}

// Delete removes a single thread.
func (s *Store) Delete(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, threadID)
}

// Clear removes all threads.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads = make(map[string]*thread)
}

// Threads lists the ids of all retained threads.
func (s *Store) Threads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.threads))
	for id := range s.threads {
		ids = append(ids, id)
	}
	return ids
}

// ThreadInfo describes one retained thread.
type ThreadInfo struct {
	ID           string
	MessageCount int
	CreatedAt    time.Time
	LastActivity time.Time
}

// Info returns metadata about a thread, or false when it is unknown.
func (s *Store) Info(threadID string) (ThreadInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.threads[threadID]
	if !ok {
		return ThreadInfo{}, false
	}
	return ThreadInfo{
		ID:           threadID,
		MessageCount: len(entry.messages),
		CreatedAt:    entry.createdAt,
		LastActivity: entry.lastActivity,
	}, true
}
