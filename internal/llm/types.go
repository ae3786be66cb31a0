package llm

// Message is one turn of the conversation in OpenAI-compatible wire format.
// Content is interface{} because assistant turns that only carry tool calls
// must serialize content as an explicit null, not an empty string.
type Message struct {
	Role       string      `json:"role"`
	Content    interface{} `json:"content"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
}

// ToolCall is a completed tool invocation as replayed back to the provider.
// Arguments stays the raw accumulated string; the provider echoes whatever
// it streamed, valid JSON or not.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the function part of a ToolCall.
type ToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatRequest is the body of a streaming chat-completion request.
type ChatRequest struct {
	Model       string      `json:"model"`
	Messages    []Message   `json:"messages"`
	Stream      bool        `json:"stream"`
	Temperature float64     `json:"temperature"`
	Tools       interface{} `json:"tools,omitempty"`
}

// UserMessage builds a plain user turn.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// AssistantMessage builds an assistant turn carrying streamed text and the
// round's tool calls. Empty text becomes a null content marker.
func AssistantMessage(text string, toolCalls []ToolCall) Message {
	msg := Message{Role: "assistant", ToolCalls: toolCalls}
	if text != "" {
		msg.Content = text
	}
	return msg
}

// ToolMessage builds a tool-role turn carrying the execution output for the
// tool call identified by id.
func ToolMessage(id, content string) Message {
	return Message{Role: "tool", Content: content, ToolCallID: id}
}
