package llm

import (
	"strings"
	"testing"
)

type decoderRecorder struct {
	texts  []string
	deltas []ToolCallDelta
}

func newRecordingDecoder() (*FrameDecoder, *decoderRecorder) {
	rec := &decoderRecorder{}
	d := NewFrameDecoder(
		func(text string) { rec.texts = append(rec.texts, text) },
		func(delta ToolCallDelta) { rec.deltas = append(rec.deltas, delta) },
	)
	return d, rec
}

func TestFrameDecoder_TextDeltas(t *testing.T) {
	d, rec := newRecordingDecoder()

	d.Feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n"))
	d.Feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n"))
	d.Feed([]byte("data: [DONE]\n"))

	if got := strings.Join(rec.texts, ""); got != "Hello" {
		t.Errorf("expected accumulated text 'Hello', got %q", got)
	}
	if !d.Done() {
		t.Error("expected decoder to be done after [DONE]")
	}
}

func TestFrameDecoder_FrameSplitAcrossFeeds(t *testing.T) {
	d, rec := newRecordingDecoder()

	// One frame arrives in three chunks that do not align with the line.
	d.Feed([]byte("data: {\"choices\":[{\"del"))
	d.Feed([]byte("ta\":{\"content\":\"chunked\"}"))
	d.Feed([]byte("}]}\ndata: [DONE]\n"))

	if got := strings.Join(rec.texts, ""); got != "chunked" {
		t.Errorf("expected reassembled text 'chunked', got %q", got)
	}
}

func TestFrameDecoder_DoneSentinelStopsActingOnBufferedBytes(t *testing.T) {
	d, rec := newRecordingDecoder()

	// Everything after the sentinel is already buffered in the same read
	// and must be ignored.
	d.Feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"before\"}}]}\n" +
		"data: [DONE]\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"after\"}}]}\n"))

	if got := strings.Join(rec.texts, ""); got != "before" {
		t.Errorf("expected only text before sentinel, got %q", got)
	}
	if !d.Done() {
		t.Error("expected decoder done after sentinel")
	}
}

func TestFrameDecoder_FinishReasonTerminates(t *testing.T) {
	tests := []struct {
		name   string
		reason string
		done   bool
	}{
		{name: "stop", reason: "stop", done: true},
		{name: "tool_calls", reason: "tool_calls", done: true},
		{name: "length is not terminal", reason: "length", done: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newRecordingDecoder()
			d.Feed([]byte("data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"" + tt.reason + "\"}]}\n"))
			if d.Done() != tt.done {
				t.Errorf("finish_reason %q: done = %v, want %v", tt.reason, d.Done(), tt.done)
			}
		})
	}
}

func TestFrameDecoder_FinishReasonFrameStillDeliversItsDelta(t *testing.T) {
	d, rec := newRecordingDecoder()

	d.Feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"tail\"},\"finish_reason\":\"stop\"}]}\n"))

	if got := strings.Join(rec.texts, ""); got != "tail" {
		t.Errorf("expected delta from terminal frame, got %q", got)
	}
	if !d.Done() {
		t.Error("expected decoder done")
	}
}

func TestFrameDecoder_MalformedFramesAreSkipped(t *testing.T) {
	d, rec := newRecordingDecoder()

	d.Feed([]byte("data: {not json at all\n"))
	d.Feed([]byte(": keep-alive comment\n"))
	d.Feed([]byte("event: something\n"))
	d.Feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n"))

	if d.Done() {
		t.Error("malformed frames must not terminate the round")
	}
	if got := strings.Join(rec.texts, ""); got != "ok" {
		t.Errorf("expected 'ok' after skipping noise, got %q", got)
	}
}

func TestFrameDecoder_ToolCallDeltas(t *testing.T) {
	d, rec := newRecordingDecoder()

	d.Feed([]byte(`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"list_directory","arguments":""}}]}}]}` + "\n"))
	d.Feed([]byte(`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"path\":"}}]}}]}` + "\n"))
	d.Feed([]byte(`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"/tmp\"}"}}]},"finish_reason":"tool_calls"}]}` + "\n"))

	if len(rec.deltas) != 3 {
		t.Fatalf("expected 3 tool-call deltas, got %d", len(rec.deltas))
	}
	if rec.deltas[0].Name != "list_directory" || rec.deltas[0].ID != "call_1" {
		t.Errorf("unexpected first delta: %+v", rec.deltas[0])
	}

	acc := NewToolCallAccumulator()
	for _, delta := range rec.deltas {
		acc.Apply(delta)
	}
	resolved := acc.Resolve()
	if len(resolved) != 1 {
		t.Fatalf("expected 1 resolved call, got %d", len(resolved))
	}
	if resolved[0].Arguments["path"] != "/tmp" {
		t.Errorf("expected path argument '/tmp', got %v", resolved[0].Arguments["path"])
	}
}

func TestFrameDecoder_FlushHandlesMissingTrailingNewline(t *testing.T) {
	d, rec := newRecordingDecoder()

	d.Feed([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"end\"}}]}"))
	if len(rec.texts) != 0 {
		t.Fatal("unterminated line must not be decoded before flush")
	}
	d.Flush()

	if got := strings.Join(rec.texts, ""); got != "end" {
		t.Errorf("expected flushed text 'end', got %q", got)
	}
}

func TestFrameDecoder_DrainReadsWholeStream(t *testing.T) {
	d, rec := newRecordingDecoder()

	stream := "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n" +
		"data: [DONE]\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"ignored\"}}]}\n"

	if err := d.Drain(strings.NewReader(stream)); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if got := strings.Join(rec.texts, ""); got != "ab" {
		t.Errorf("expected text 'ab', got %q", got)
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name     string
		content  interface{}
		expected string
	}{
		{name: "nil", content: nil, expected: ""},
		{name: "string", content: "plain", expected: "plain"},
		{
			name: "content parts",
			content: []interface{}{
				map[string]interface{}{"type": "text", "text": "a"},
				map[string]interface{}{"type": "text", "text": "b"},
			},
			expected: "ab",
		},
		{
			name:     "nested content",
			content:  map[string]interface{}{"content": "inner"},
			expected: "inner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractText(tt.content); got != tt.expected {
				t.Errorf("extractText(%v) = %q, want %q", tt.content, got, tt.expected)
			}
		})
	}
}
