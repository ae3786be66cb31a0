package llm

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/byteatatime/flare-assist/internal/consts"
	"github.com/byteatatime/flare-assist/internal/logger"
)

const (
	framePrefix  = "data:"
	doneSentinel = "[DONE]"
)

// ToolCallDelta is one incremental piece of a tool call streamed by the
// provider, keyed by its position within the round.
type ToolCallDelta struct {
	Index             int
	ID                string
	Name              string
	ArgumentsFragment string
}

// FrameDecoder turns the raw byte stream of a streaming chat-completion
// response into text and tool-call deltas. Bytes arrive in arbitrarily sized
// chunks that do not align with frame boundaries; the decoder buffers the
// trailing partial line between feeds.
//
// The round is terminal when the literal [DONE] sentinel arrives or a frame
// carries finish_reason "stop" or "tool_calls". After that the decoder keeps
// accepting bytes but stops acting on them.
type FrameDecoder struct {
	onText     func(text string)
	onToolCall func(delta ToolCallDelta)

	partial []byte
	done    bool
}

// NewFrameDecoder creates a decoder dispatching to the given callbacks.
// Either callback may be nil.
func NewFrameDecoder(onText func(string), onToolCall func(ToolCallDelta)) *FrameDecoder {
	return &FrameDecoder{onText: onText, onToolCall: onToolCall}
}

// Done reports whether a terminal condition has been seen.
func (d *FrameDecoder) Done() bool {
	return d.done
}

// Feed consumes one chunk of response bytes. Complete lines are decoded
// immediately; an unterminated trailing line waits for the next feed.
func (d *FrameDecoder) Feed(p []byte) {
	if len(p) == 0 {
		return
	}

	data := p
	if len(d.partial) > 0 {
		data = append(d.partial, p...)
		d.partial = nil
	}

	for {
		nl := bytes.IndexByte(data, '\n')
		if nl < 0 {
			break
		}
		d.decodeLine(data[:nl])
		data = data[nl+1:]
	}

	if len(data) > 0 && !d.done {
		d.partial = append(d.partial, data...)
	}
}

// Flush decodes any buffered trailing line. Call once at end of stream; some
// servers omit the final newline.
func (d *FrameDecoder) Flush() {
	if len(d.partial) == 0 {
		return
	}
	line := d.partial
	d.partial = nil
	d.decodeLine(line)
}

// Drain reads r to completion, feeding every chunk through the decoder. The
// remainder of the stream is still consumed after the terminal condition so
// the connection can be reused. Read errors after terminal are ignored.
func (d *FrameDecoder) Drain(r io.Reader) error {
	buf := make([]byte, consts.BufferSize256KB)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			d.Feed(buf[:n])
		}
		if err == io.EOF {
			d.Flush()
			return nil
		}
		if err != nil {
			if d.done {
				return nil
			}
			return &TransportError{Err: err}
		}
	}
}

type streamFrame struct {
	Choices []streamChoice `json:"choices"`
}

type streamChoice struct {
	Index        int          `json:"index"`
	FinishReason string       `json:"finish_reason"`
	Delta        *streamDelta `json:"delta"`
}

type streamDelta struct {
	Content   interface{}     `json:"content"`
	ToolCalls []wireToolDelta `json:"tool_calls"`
}

type wireToolDelta struct {
	Index    int               `json:"index"`
	ID       string            `json:"id"`
	Function *wireFunctionPart `json:"function"`
}

type wireFunctionPart struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func (d *FrameDecoder) decodeLine(raw []byte) {
	if d.done {
		return
	}

	line := strings.TrimSpace(string(raw))
	if line == "" || !strings.HasPrefix(line, framePrefix) {
		return
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, framePrefix))
	if payload == "" {
		return
	}
	if payload == doneSentinel {
		logger.Debug("llm: received stream sentinel")
		d.done = true
		return
	}

	var frame streamFrame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		// Garbled or partial payloads show up at chunk boundaries; skip
		// them rather than killing the round.
		logger.Debug("llm: skipping undecodable frame: %v", err)
		return
	}

	if len(frame.Choices) == 0 {
		return
	}
	choice := frame.Choices[0]

	if choice.Delta != nil {
		if text := extractText(choice.Delta.Content); text != "" && d.onText != nil {
			d.onText(text)
		}
		if d.onToolCall != nil {
			for _, tc := range choice.Delta.ToolCalls {
				delta := ToolCallDelta{Index: tc.Index, ID: tc.ID}
				if tc.Function != nil {
					delta.Name = tc.Function.Name
					delta.ArgumentsFragment = tc.Function.Arguments
				}
				d.onToolCall(delta)
			}
		}
	}

	if choice.FinishReason == "stop" || choice.FinishReason == "tool_calls" {
		logger.Debug("llm: stream finished, reason=%s", choice.FinishReason)
		d.done = true
	}
}

// extractText pulls the text out of a delta content value, which providers
// send as a string, null, or a list of content parts.
func extractText(content interface{}) string {
	switch value := content.(type) {
	case string:
		return value
	case []interface{}:
		var sb strings.Builder
		for _, part := range value {
			sb.WriteString(extractText(part))
		}
		return sb.String()
	case map[string]interface{}:
		if text, ok := value["text"].(string); ok {
			return text
		}
		if inner, ok := value["content"]; ok {
			return extractText(inner)
		}
	}
	return ""
}
