package conversations

import (
	"testing"
	"time"

	"github.com/adaeng/enhance-core/core/llms"
)

func TestHistoryTrimsOldestBeyondLimit(t *testing.T) {
	store := NewStore(WithMaxHistory(3))

	store.AddUser("thread-1", "first")
	store.AddAssistant("thread-1", "second")
	store.AddUser("thread-1", "third")
	store.AddAssistant("thread-1", "fourth")

	recent := store.GetRecent("thread-1", 0)
	if len(recent) != 3 {
		t.Fatalf("expected 3 retained messages, got %d", len(recent))
	}
	if recent[0].Content != "second" {
		t.Fatalf("expected oldest retained message %q, got %q", "second", recent[0].Content)
	}
	if recent[2].Content != "fourth" {
		t.Fatalf("expected newest retained message %q, got %q", "fourth", recent[2].Content)
	}
}

func TestGetRecentRespectsLimitAndOrder(t *testing.T) {
	store := NewStore()

	store.AddUser("thread-1", "a")
	store.AddAssistant("thread-1", "b")
	store.AddUser("thread-1", "c")

	recent := store.GetRecent("thread-1", 2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(recent))
	}
	if recent[0].Content != "b" || recent[1].Content != "c" {
		t.Fatalf("expected [b c] oldest first, got [%s %s]", recent[0].Content, recent[1].Content)
	}
}

func TestSnapshotIsIndependentOfStore(t *testing.T) {
	store := NewStore()
	store.AddUser("thread-1", "original")

	recent := store.GetRecent("thread-1", 0)
	recent[0].Content = "mutated"

	again := store.GetRecent("thread-1", 0)
	if again[0].Content != "original" {
		t.Fatalf("expected stored content to stay %q, got %q", "original", again[0].Content)
	}
}

func TestToolCallAndResultRecords(t *testing.T) {
	store := NewStore()
	store.AddToolCall("thread-1", "call_7", "get_weather", `{"city":"Paris"}`)
	store.AddToolResult("thread-1", "call_7", "get_weather", "sunny")

	recent := store.GetRecent("thread-1", 0)
	if len(recent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(recent))
	}
	if recent[0].Role != llms.MessageRoleAssistant || recent[0].ToolName != "get_weather" {
		t.Fatalf("expected assistant tool call record, got role %q tool %q", recent[0].Role, recent[0].ToolName)
	}
	if recent[1].Role != llms.MessageRoleTool || recent[1].Content != "sunny" {
		t.Fatalf("expected tool result record, got role %q content %q", recent[1].Role, recent[1].Content)
	}
	if recent[0].ToolCallID != "call_7" || recent[1].ToolCallID != "call_7" {
		t.Fatalf("expected both records to carry call id %q, got %q and %q",
			"call_7", recent[0].ToolCallID, recent[1].ToolCallID)
	}
}

func TestCleanupInactiveRemovesIdleThreads(t *testing.T) {
	store := NewStore(WithInactivityWindow(time.Minute))

	current := time.Now()
	store.now = func() time.Time { return current }

	store.AddUser("idle", "hello")
	current = current.Add(2 * time.Minute)
	store.AddUser("active", "hello")

	removed := store.CleanupInactive()
	if removed != 1 {
		t.Fatalf("expected 1 removed thread, got %d", removed)
	}
	if got := store.GetRecent("idle", 0); got != nil {
		t.Fatalf("expected idle thread to be gone, got %d messages", len(got))
	}
	if got := store.GetRecent("active", 0); len(got) != 1 {
		t.Fatalf("expected active thread to survive, got %d messages", len(got))
	}
}

func TestUnknownThreadYieldsNoHistory(t *testing.T) {
	store := NewStore()

	if got := store.GetRecent("missing", 5); got != nil {
		t.Fatalf("expected nil history for unknown thread, got %d messages", len(got))
	}
	if _, ok := store.Info("missing"); ok {
		t.Fatalf("expected no info for unknown thread")
	}
}
