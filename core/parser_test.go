package enhancement

import (
	"strings"
	"testing"
)

func feedAll(parser *StreamParser, chunks []string) []Fragment {
	var fragments []Fragment
	for _, chunk := range chunks {
		fragments = append(fragments, parser.Feed(chunk)...)
	}
	return fragments
}

func TestNarrationDeltasConcatenateToFinalValue(t *testing.T) {
	parser := NewStreamParser(nil)

	chunks := []string{
		`{"displayEnhancement": true, "voiceOverText": "Here `,
		`is the `,
		`weather `,
		`chart", "displayEnhancedText": "# Weather"}`,
	}
	fragments := feedAll(parser, chunks)

	var narration strings.Builder
	for _, fragment := range fragments {
		if fragment.Kind == FragmentNarration {
			narration.WriteString(fragment.Content)
		}
	}

	if got := narration.String(); got != "Here is the weather chart" {
		t.Fatalf("expected concatenated deltas to equal the final field value, got %q", got)
	}

	decision := parser.Finalize()
	if decision.VoiceOverText != "Here is the weather chart" {
		t.Fatalf("expected finalized narration %q, got %q", "Here is the weather chart", decision.VoiceOverText)
	}
}

func TestWordsFlushImmediately(t *testing.T) {
	var words []string
	parser := NewStreamParser(func(word string) { words = append(words, word) })

	parser.Feed(`{"voiceOverText": "Here is `)
	if len(words) != 2 {
		t.Fatalf("expected 2 words flushed before the stream completed, got %d", len(words))
	}

	parser.Feed(`the chart"}`)
	expected := []string{"Here ", "is ", "the ", "chart "}
	if len(words) != len(expected) {
		t.Fatalf("expected %d flushed words, got %d", len(expected), len(words))
	}
	for i, word := range expected {
		if words[i] != word {
			t.Fatalf("expected word %d to be %q, got %q", i, word, words[i])
		}
	}
}

func TestFalseFlagDisablesNarration(t *testing.T) {
	var words []string
	parser := NewStreamParser(func(word string) { words = append(words, word) })

	fragments := feedAll(parser, []string{
		`{"displayEnhancement": false, `,
		`"voiceOverText": "should not be spoken"}`,
	})

	if len(words) != 0 {
		t.Fatalf("expected no narration after the flag resolved false, got %v", words)
	}
	for _, fragment := range fragments {
		if fragment.Kind == FragmentNarration {
			t.Fatalf("expected no narration fragments, got %q", fragment.Content)
		}
	}
}

func TestFlagResolution(t *testing.T) {
	parser := NewStreamParser(nil)

	if parser.FlagResolved() {
		t.Fatalf("expected flag to be unresolved before any input")
	}

	parser.Feed(`{"displayEnhancement": tru`)
	if parser.FlagResolved() {
		t.Fatalf("expected flag to stay unresolved on a partial literal")
	}

	fragments := parser.Feed(`e, `)
	if !parser.FlagResolved() {
		t.Fatalf("expected flag to resolve once the literal completed")
	}
	if len(fragments) != 1 || fragments[0].Kind != FragmentFlag || !fragments[0].Flag {
		t.Fatalf("expected a single true flag fragment, got %+v", fragments)
	}
}

func TestFinalizeNeverFailsOnTruncation(t *testing.T) {
	parser := NewStreamParser(nil)
	parser.Feed(`{"displayEnhancement": true, "voiceOverText": "cut off mid`)

	decision := parser.Finalize()
	if !decision.DisplayEnhancement {
		t.Fatalf("expected the captured flag to survive truncation")
	}
	if decision.VoiceOverText != "cut off mid" {
		t.Fatalf("expected captured narration %q, got %q", "cut off mid", decision.VoiceOverText)
	}
}

func TestFinalizeOnEmptyBufferYieldsConservativeDecision(t *testing.T) {
	parser := NewStreamParser(nil)

	decision := parser.Finalize()
	if decision.DisplayEnhancement {
		t.Fatalf("expected the flag to default to false")
	}
	if decision.DisplayEnhancedText != "" || decision.VoiceOverText != "" {
		t.Fatalf("expected empty text fields, got %+v", decision)
	}
}

func TestFinalizeStripsCodeFences(t *testing.T) {
	parser := NewStreamParser(nil)
	parser.Feed("```json\n{\"displayEnhancement\": true, \"displayEnhancedText\": \"fenced\"}\n```")

	decision := parser.Finalize()
	if !decision.DisplayEnhancement || decision.DisplayEnhancedText != "fenced" {
		t.Fatalf("expected fenced object to parse, got %+v", decision)
	}
}

func TestEscapeSequencesDecode(t *testing.T) {
	parser := NewStreamParser(nil)

	fragments := parser.Feed(`{"voiceOverText": "line one\nline two"}`)
	if len(fragments) != 1 {
		t.Fatalf("expected one narration fragment, got %d", len(fragments))
	}
	if fragments[0].Content != "line one\nline two" {
		t.Fatalf("expected decoded newline, got %q", fragments[0].Content)
	}
}

func TestResetAllowsReuse(t *testing.T) {
	parser := NewStreamParser(nil)
	parser.Feed(`{"displayEnhancement": false, "voiceOverText": "first session"}`)
	parser.Reset()

	fragments := parser.Feed(`{"voiceOverText": "second session"}`)
	var narration strings.Builder
	for _, fragment := range fragments {
		if fragment.Kind == FragmentNarration {
			narration.WriteString(fragment.Content)
		}
	}
	if narration.String() != "second session" {
		t.Fatalf("expected narration after reset, got %q", narration.String())
	}
}
