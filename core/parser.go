package enhancement

import (
	"encoding/json"
	"regexp"
	"strings"
)

// FragmentKind tags an incremental parse result.
type FragmentKind string

const (
	// FragmentNarration is a newly decoded suffix of the narration field.
	FragmentNarration FragmentKind = "narration"
	// FragmentFlag is the resolved enhancement boolean.
	FragmentFlag FragmentKind = "flag"
	// FragmentDisplay is a newly decoded suffix of the display text field.
	FragmentDisplay FragmentKind = "display"
)

// Fragment is one unit of incremental parse output. Content carries the
// newly appended suffix only, never the cumulative field value.
type Fragment struct {
	Kind    FragmentKind
	Content string
	Flag    bool
}

// Field patterns tolerate an unterminated trailing quote since a field's
// closing quote may not have streamed yet.
var (
	voiceOverPattern   = regexp.MustCompile(`"voiceOverText"\s*:\s*"((?:[^"\\]|\\.)*)"?`)
	displayTextPattern = regexp.MustCompile(`"displayEnhancedText"\s*:\s*"((?:[^"\\]|\\.)*)"?`)
	flagPattern        = regexp.MustCompile(`"displayEnhancement"\s*:\s*(true|false)`)
	codeFencePattern   = regexp.MustCompile("(?m)^```(?:json)?\n?|\n?```$")
)

// StreamParser incrementally extracts decision fields from a partially
// streamed JSON object. Narration suffixes are tokenized on whitespace and
// every word is handed to the flush callback immediately, trailing space
// included, so spoken playback can start before the sentence is complete.
//
// The moment the enhancement flag resolves to false, narration flushing is
// disabled for the rest of the parse session: the fast path has already
// spoken the unenhanced answer and further narration would duplicate audio.
type StreamParser struct {
	flush func(word string)

	buffer        strings.Builder
	emitted       map[string]string
	flag          *bool
	voiceDisabled bool
}

// NewStreamParser creates a parser. flush may be nil when no live
// narration consumer exists.
func NewStreamParser(flush func(word string)) *StreamParser {
	return &StreamParser{
		flush:   flush,
		emitted: map[string]string{},
	}
}

// Feed appends chunk to the buffer and returns whatever new field content
// became decodable, one fragment per advanced field.
func (p *StreamParser) Feed(chunk string) []Fragment {
	if p == nil || chunk == "" {
		return nil
	}
	p.buffer.WriteString(chunk)
	buffer := p.buffer.String()

	var fragments []Fragment

	if delta, ok := p.fieldDelta(voiceOverPattern, "voiceOverText", buffer); ok {
		if !p.voiceDisabled {
			p.flushWords(delta)
			fragments = append(fragments, Fragment{Kind: FragmentNarration, Content: delta})
		}
	}

	if p.flag == nil {
		if match := flagPattern.FindStringSubmatch(buffer); match != nil {
			flag := match[1] == "true"
			p.flag = &flag
			if !flag {
				p.voiceDisabled = true
			}
			fragments = append(fragments, Fragment{Kind: FragmentFlag, Flag: flag})
		}
	}

	if delta, ok := p.fieldDelta(displayTextPattern, "displayEnhancedText", buffer); ok {
		fragments = append(fragments, Fragment{Kind: FragmentDisplay, Content: delta})
	}

	return fragments
}

// fieldDelta reports the not-yet-emitted suffix of a field's raw value.
func (p *StreamParser) fieldDelta(pattern *regexp.Regexp, field, buffer string) (string, bool) {
	match := pattern.FindStringSubmatch(buffer)
	if match == nil {
		return "", false
	}

	current := match[1]
	previous := p.emitted[field]
	if len(current) <= len(previous) {
		return "", false
	}
	p.emitted[field] = current

	return decodeEscapes(current[len(previous):]), true
}

func (p *StreamParser) flushWords(delta string) {
	if p.flush == nil {
		return
	}
	for _, word := range strings.Fields(delta) {
		p.flush(word + " ")
	}
}

// decodeEscapes resolves JSON escape sequences in a raw field suffix. A
// suffix that splits an escape sequence fails to decode and is passed
// through raw rather than dropped.
func decodeEscapes(raw string) string {
	var decoded string
	if err := json.Unmarshal([]byte(`"`+raw+`"`), &decoded); err != nil {
		return raw
	}
	return decoded
}

// FlagResolved reports whether the enhancement boolean has streamed in
// full yet.
func (p *StreamParser) FlagResolved() bool {
	return p != nil && p.flag != nil
}

// Finalize turns the accumulated stream into a decision. It first tries
// to parse the whole buffer as one JSON object, stripping any code-fence
// markup; when that fails it reconstructs the decision from the fields
// captured along the way. It never fails: a truncated or garbled stream
// yields a conservative decision instead of an error.
func (p *StreamParser) Finalize() Decision {
	buffer := strings.TrimSpace(p.buffer.String())

	if strings.HasSuffix(buffer, "}") {
		clean := codeFencePattern.ReplaceAllString(buffer, "")
		var decision Decision
		if err := json.Unmarshal([]byte(clean), &decision); err == nil {
			return decision
		}
	}

	decision := Decision{
		DisplayEnhancedText: decodeEscapes(p.emitted["displayEnhancedText"]),
		VoiceOverText:       decodeEscapes(p.emitted["voiceOverText"]),
	}
	if p.flag != nil {
		decision.DisplayEnhancement = *p.flag
	}
	return decision
}

// Reset restores zero state so the instance can parse another stream.
func (p *StreamParser) Reset() {
	p.buffer.Reset()
	p.emitted = map[string]string{}
	p.flag = nil
	p.voiceDisabled = false
}
