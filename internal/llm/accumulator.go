package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// ResolvedToolCall is a complete tool invocation reconstructed from streamed
// deltas, produced once the round reaches a terminal condition.
type ResolvedToolCall struct {
	ID   string
	Name string
	// Arguments is the parsed argument object; an unparsable accumulated
	// string resolves to an empty object rather than failing the round.
	Arguments map[string]interface{}
	// RawArguments is the accumulated argument string exactly as streamed,
	// replayed verbatim in the assistant turn.
	RawArguments string
}

// ToolCall converts the resolved call into its wire form for the assistant
// turn that is appended back to the conversation.
func (r ResolvedToolCall) ToolCall() ToolCall {
	return ToolCall{
		ID:   r.ID,
		Type: "function",
		Function: ToolFunction{
			Name:      r.Name,
			Arguments: r.RawArguments,
		},
	}
}

type toolCallSlot struct {
	id   string
	name string
	args strings.Builder
}

// ToolCallAccumulator reconstructs complete tool calls from deltas that
// arrive fragmented across many frames. Slots are keyed by the delta index;
// sparse or out-of-order indices are back-filled with empty placeholders so
// they never panic.
type ToolCallAccumulator struct {
	slots []*toolCallSlot
}

// NewToolCallAccumulator creates an empty accumulator for one round.
func NewToolCallAccumulator() *ToolCallAccumulator {
	return &ToolCallAccumulator{}
}

// Len returns the number of slots seen so far.
func (a *ToolCallAccumulator) Len() int {
	return len(a.slots)
}

// Apply folds one delta into the accumulator. ID and name are set once and
// only overwritten by a non-empty value; argument fragments are always
// appended, never replaced.
func (a *ToolCallAccumulator) Apply(delta ToolCallDelta) {
	if delta.Index < 0 {
		return
	}

	for len(a.slots) <= delta.Index {
		a.slots = append(a.slots, &toolCallSlot{})
	}

	slot := a.slots[delta.Index]
	if delta.ID != "" {
		slot.id = delta.ID
	}
	if delta.Name != "" {
		slot.name = delta.Name
	}
	slot.args.WriteString(delta.ArgumentsFragment)
}

// Resolve yields one ResolvedToolCall per slot in index order. Placeholder
// slots that never received a delta resolve with empty name and {} arguments;
// the sandbox rejects them as unknown tools, which feeds back to the model as
// an ordinary failure. Missing IDs are synthesized so tool-role turns always
// carry a tool_call_id.
func (a *ToolCallAccumulator) Resolve() []ResolvedToolCall {
	if len(a.slots) == 0 {
		return nil
	}

	resolved := make([]ResolvedToolCall, 0, len(a.slots))
	for i, slot := range a.slots {
		raw := slot.args.String()

		args := map[string]interface{}{}
		if strings.TrimSpace(raw) != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				args = map[string]interface{}{}
			}
		}

		id := slot.id
		if strings.TrimSpace(id) == "" {
			id = synthesizeCallID(slot.name, i)
		}

		resolved = append(resolved, ResolvedToolCall{
			ID:           id,
			Name:         slot.name,
			Arguments:    args,
			RawArguments: raw,
		})
	}
	return resolved
}

// synthesizeCallID builds a stable identifier for providers that omit call
// IDs, which would otherwise break the tool_call_id linkage on tool messages.
func synthesizeCallID(name string, index int) string {
	if sanitized := sanitizeToolName(name); sanitized != "" {
		return fmt.Sprintf("call_%s_%d", sanitized, index+1)
	}
	return fmt.Sprintf("call_%d", index+1)
}

func sanitizeToolName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
