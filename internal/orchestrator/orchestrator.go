package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/byteatatime/flare-assist/internal/consts"
	"github.com/byteatatime/flare-assist/internal/llm"
	"github.com/byteatatime/flare-assist/internal/logger"
	"github.com/byteatatime/flare-assist/internal/settings"
	"github.com/byteatatime/flare-assist/internal/tools"
)

// CredentialSource supplies the API key for hosted providers.
type CredentialSource interface {
	Get() (string, error)
}

// GenerationRecorder receives generation ids for detached usage lookups.
type GenerationRecorder interface {
	RecordAsync(generationID, apiKey string)
}

// Orchestrator drives the ask round loop: stream a completion, execute the
// tool calls the model requested, feed the results back, repeat until the
// model answers in plain text or the round budget runs out.
type Orchestrator struct {
	settings *settings.Settings
	client   *llm.Client
	creds    CredentialSource
	recorder GenerationRecorder
	emitter  Emitter
}

func New(s *settings.Settings, client *llm.Client, creds CredentialSource, recorder GenerationRecorder, emitter Emitter) *Orchestrator {
	return &Orchestrator{
		settings: s,
		client:   client,
		creds:    creds,
		recorder: recorder,
		emitter:  emitter,
	}
}

// AskOptions carries per-request overrides on top of the stored settings.
type AskOptions struct {
	// Model is either a concrete model id or an association key to resolve
	// through settings. Empty means the provider default.
	Model string
	// Creativity maps to a temperature: none, low, medium, high. Empty uses
	// the configured temperature.
	Creativity string
	// EnableTools requests the agentic loop; it still requires tools to be
	// enabled in settings and supported by the model.
	EnableTools bool
}

var creativityTemperatures = map[string]float64{
	"none":   0.0,
	"low":    0.4,
	"medium": 0.7,
	"high":   1.0,
}

// AskStream runs one ask to completion, emitting stream and tool events as
// it goes. It returns the final round's full text. Transport and
// configuration failures abort the ask; tool failures do not.
func (o *Orchestrator) AskStream(ctx context.Context, prompt string, opts AskOptions) (string, error) {
	if !o.settings.Enabled {
		return "", fmt.Errorf("AI assistant is disabled")
	}

	apiKey := ""
	if o.settings.Provider != settings.ProviderOllama {
		key, err := o.creds.Get()
		if err != nil {
			return "", fmt.Errorf("no API key configured: %w", err)
		}
		apiKey = key
	}
	endpoint := llm.ResolveEndpoint(o.settings.Provider, o.settings.BaseURL, apiKey)

	model := o.resolveModel(opts.Model)
	temperature := o.resolveTemperature(opts.Creativity)

	toolsActive := opts.EnableTools && o.settings.ToolsEnabled
	if toolsActive && !tools.ModelSupportsTools(model) {
		logger.Info("orchestrator: model %s does not support tool calling, continuing without tools", model)
		toolsActive = false
	}

	requestID := uuid.NewString()
	logger.Debug("orchestrator: ask %s model=%s temperature=%.1f tools=%v", requestID, model, temperature, toolsActive)

	messages := []llm.Message{llm.UserMessage(prompt)}

	var fullText string
	for round := 0; round < consts.MaxToolRounds; round++ {
		text, calls, err := o.streamRound(ctx, endpoint, apiKey, model, temperature, toolsActive, requestID, messages)
		if err != nil {
			return "", err
		}
		fullText = text

		if len(calls) == 0 {
			o.emit(EventStreamEnd, StreamEnd{RequestID: requestID, FullText: fullText})
			return fullText, nil
		}

		wireCalls := make([]llm.ToolCall, 0, len(calls))
		for _, call := range calls {
			wireCalls = append(wireCalls, call.ToolCall())
		}
		messages = append(messages, llm.AssistantMessage(fullText, wireCalls))

		for _, call := range calls {
			messages = append(messages, o.runToolCall(ctx, requestID, call))
		}
	}

	// No stream-end here: the round limit stops the loop without fabricating
	// events beyond what the rounds already emitted.
	logger.Warn("orchestrator: ask %s hit the %d round limit", requestID, consts.MaxToolRounds)
	return fullText, nil
}

// streamRound performs one chat-completion request, forwarding text deltas
// as chunk events and collecting tool-call deltas.
func (o *Orchestrator) streamRound(ctx context.Context, endpoint llm.Endpoint, apiKey, model string, temperature float64, toolsActive bool, requestID string, messages []llm.Message) (string, []llm.ResolvedToolCall, error) {
	req := &llm.ChatRequest{
		Model:       model,
		Messages:    messages,
		Stream:      true,
		Temperature: temperature,
	}
	if toolsActive {
		req.Tools = tools.Definitions()
	}

	resp, err := o.client.StartStream(ctx, endpoint, req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	var text strings.Builder
	acc := llm.NewToolCallAccumulator()
	decoder := llm.NewFrameDecoder(
		func(delta string) {
			text.WriteString(delta)
			o.emit(EventStreamChunk, StreamChunk{RequestID: requestID, Text: delta})
		},
		acc.Apply,
	)
	if err := decoder.Drain(resp.Body); err != nil {
		return "", nil, fmt.Errorf("stream read failed: %w", err)
	}

	if resp.GenerationID != "" && endpoint.Provider == settings.ProviderOpenRouter && o.recorder != nil {
		o.recorder.RecordAsync(resp.GenerationID, apiKey)
	}

	return text.String(), acc.Resolve(), nil
}

// runToolCall announces, gates, executes and reports one tool call, and
// folds the outcome into the conversation as a tool turn.
func (o *Orchestrator) runToolCall(ctx context.Context, requestID string, call llm.ResolvedToolCall) llm.Message {
	safety := tools.SafetyOf(call.Name)
	o.emit(EventToolCall, ToolCallRequest{
		RequestID:  requestID,
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Arguments:  call.Arguments,
		Safety:     safety,
	})

	output, err := o.executeIfApproved(ctx, call.Name, call.Arguments, safety)

	result := ToolCallResult{
		RequestID:  requestID,
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Success:    err == nil,
		Output:     output,
	}
	content := output
	if err != nil {
		result.Error = err.Error()
		content = fmt.Sprintf("Error: %v", err)
		logger.Warn("orchestrator: tool %s failed: %v", call.Name, err)
	}
	o.emit(EventToolResult, result)

	return llm.ToolMessage(call.ID, content)
}

func (o *Orchestrator) executeIfApproved(ctx context.Context, name string, args map[string]interface{}, safety tools.Safety) (string, error) {
	approved := o.settings.AutoApproveAllTools ||
		(o.settings.AutoApproveSafeTools && safety == tools.SafetySafe)
	if !approved {
		return "", fmt.Errorf("tool '%s' requires user confirmation", name)
	}
	return tools.Execute(ctx, name, args, o.settings.AllowedDirectories)
}

func (o *Orchestrator) resolveModel(requested string) string {
	if llm.IsQualifiedModelID(requested) {
		return requested
	}
	if requested != "" {
		if model, ok := o.settings.ModelAssociations[requested]; ok && model != "" {
			return model
		}
	}
	return llm.DefaultModel(o.settings.Provider)
}

func (o *Orchestrator) resolveTemperature(creativity string) float64 {
	if temp, ok := creativityTemperatures[creativity]; ok {
		return temp
	}
	return o.settings.Temperature
}

func (o *Orchestrator) emit(event string, payload interface{}) {
	if o.emitter == nil {
		return
	}
	if err := o.emitter.Emit(event, payload); err != nil {
		logger.Warn("orchestrator: failed to emit %s: %v", event, err)
	}
}
