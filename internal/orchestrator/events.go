package orchestrator

import "github.com/byteatatime/flare-assist/internal/tools"

// Event names emitted during an ask. Every payload carries the RequestID of
// the ask it belongs to so subscribers can demultiplex concurrent requests.
const (
	EventStreamChunk = "ai-stream-chunk"
	EventToolCall    = "ai-tool-call"
	EventToolResult  = "ai-tool-result"
	EventStreamEnd   = "ai-stream-end"
)

// Emitter delivers orchestration events to the frontend. Implementations
// must tolerate being called from the goroutine running the ask.
type Emitter interface {
	Emit(event string, payload interface{}) error
}

// StreamChunk is emitted for every text delta as it arrives.
type StreamChunk struct {
	RequestID string `json:"requestId"`
	Text      string `json:"text"`
}

// ToolCallRequest announces that the model asked for a tool, before the tool
// runs (or is refused).
type ToolCallRequest struct {
	RequestID  string                 `json:"requestId"`
	ToolCallID string                 `json:"toolCallId"`
	ToolName   string                 `json:"toolName"`
	Arguments  map[string]interface{} `json:"arguments"`
	Safety     tools.Safety           `json:"safety"`
}

// ToolCallResult reports the outcome of a single tool execution.
type ToolCallResult struct {
	RequestID  string `json:"requestId"`
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`
	Success    bool   `json:"success"`
	Output     string `json:"output,omitempty"`
	Error      string `json:"error,omitempty"`
}

// StreamEnd closes an ask. FullText is the concatenation of every chunk of
// the final round.
type StreamEnd struct {
	RequestID string `json:"requestId"`
	FullText  string `json:"fullText"`
}
