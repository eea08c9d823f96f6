// Package chat routes chat-completion calls to the configured providers.
// Every adapter returns the same 4-field response record, so callers never
// see provider-specific shapes.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/AFlo59/CompareModelPoc-sub000/internal/providers"
	"github.com/AFlo59/CompareModelPoc-sub000/internal/registry"
	apperrors "github.com/AFlo59/CompareModelPoc-sub000/pkg/errors"
	"github.com/AFlo59/CompareModelPoc-sub000/pkg/logger"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultSystemPrompt is used when an Anthropic request carries no system
// message.
const DefaultSystemPrompt = "You are a helpful assistant."

// defaultOpeningTurn is injected when an Anthropic request contains system
// messages only, since the API requires at least one user turn.
const defaultOpeningTurn = "Begin."

// callTimeout bounds every provider round trip.
const callTimeout = 30 * time.Second

// Message is one turn handed to the router. Ordering is preserved exactly
// as supplied.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response is the uniform result of a routed chat call.
type Response struct {
	Content   string `json:"content"`
	TokensIn  int    `json:"tokens_in"`
	TokensOut int    `json:"tokens_out"`
	// Model is the display name that actually served the call
	Model string `json:"model"`
}

// Router dispatches chat calls by model display name.
type Router struct {
	clients *providers.Factory
	log     *logger.Logger
}

// NewRouter creates a router over the given provider factory.
func NewRouter(clients *providers.Factory, log *logger.Logger) *Router {
	return &Router{clients: clients, log: log}
}

// Availability reports which providers have credentials configured.
func (r *Router) Availability() map[string]bool {
	return r.clients.ValidateKeys()
}

// Call resolves the model, dispatches to its provider and normalizes the
// response. A nil temperature uses the model's default. Provider failures
// come back classified; quota-class failures additionally latch the primary
// image model off for this process.
func (r *Router) Call(ctx context.Context, modelName string, messages []Message, temperature *float32) (*Response, error) {
	if len(messages) == 0 {
		return nil, apperrors.NewInvalidInputError("messages must not be empty")
	}

	resolved := registry.Resolve(modelName)
	info := registry.Get(modelName)

	resp, err := r.dispatch(ctx, info, resolved, messages, temperature, true)
	if err != nil {
		return nil, r.classify(err, resolved)
	}
	return resp, nil
}

// dispatch routes one call. allowFallback permits a single retry on the
// default model when the provider tag is unrecognized; the fallback itself
// runs with allowFallback=false, so there is never a second hop.
func (r *Router) dispatch(ctx context.Context, info registry.ModelInfo, resolved string, messages []Message, temperature *float32, allowFallback bool) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	temp := info.Temperature
	if temperature != nil {
		temp = *temperature
	}

	switch info.Provider {
	case registry.ProviderOpenAI:
		return r.callOpenAI(ctx, r.clients.OpenAI(), info, resolved, messages, temp)
	case registry.ProviderAnthropic:
		return r.callAnthropic(ctx, info, resolved, messages, temp)
	case registry.ProviderDeepSeek:
		client := r.clients.DeepSeek()
		if client == nil {
			return nil, apperrors.NewUnavailableError("DeepSeek provider is not configured")
		}
		return r.callOpenAI(ctx, client, info, resolved, messages, temp)
	default:
		if !allowFallback || resolved == registry.DefaultModel {
			return nil, apperrors.NewProviderError("unrecognized provider: " + info.Provider)
		}
		r.log.Warn("unrecognized provider, falling back to default model",
			"provider", info.Provider,
			"model", resolved,
		)
		fallback := registry.Get(registry.DefaultModel)
		return r.dispatch(ctx, fallback, registry.DefaultModel, messages, temperature, false)
	}
}

// callOpenAI serves both OpenAI and DeepSeek, which share the
// chat-completions wire protocol.
func (r *Router) callOpenAI(ctx context.Context, client *openai.Client, info registry.ModelInfo, resolved string, messages []Message, temperature float32) (*Response, error) {
	if client == nil {
		return nil, apperrors.NewUnavailableError("no client available for provider " + info.Provider)
	}

	wireMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		wireMessages = append(wireMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       info.WireName,
		Messages:    wireMessages,
		Temperature: temperature,
		MaxTokens:   info.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, apperrors.NewProviderError("provider returned no choices")
	}

	recordModelCall(resolved, info.Provider, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return &Response{
		Content:   resp.Choices[0].Message.Content,
		TokensIn:  resp.Usage.PromptTokens,
		TokensOut: resp.Usage.CompletionTokens,
		Model:     resolved,
	}, nil
}

// callAnthropic partitions the history into one concatenated system string
// and a non-empty list of user/assistant turns, per the Messages API shape.
func (r *Router) callAnthropic(ctx context.Context, info registry.ModelInfo, resolved string, messages []Message, temperature float32) (*Response, error) {
	client := r.clients.Anthropic()
	if client == nil {
		return nil, apperrors.NewUnavailableError("Anthropic provider is not configured")
	}

	system, turns := partitionForAnthropic(messages)

	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(info.WireName),
		System:      system,
		Messages:    turns,
		MaxTokens:   info.MaxTokens,
		Temperature: &temperature,
	}

	resp, err := client.CreateMessages(ctx, req)
	if err != nil {
		return nil, err
	}

	recordModelCall(resolved, info.Provider, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	return &Response{
		Content:   resp.GetFirstContentText(),
		TokensIn:  resp.Usage.InputTokens,
		TokensOut: resp.Usage.OutputTokens,
		Model:     resolved,
	}, nil
}

// partitionForAnthropic concatenates system messages into a single string
// and converts the rest. When no system message exists a default one is
// used; when no non-system turns remain, an opening user turn is
// synthesized so the messages list is never empty.
func partitionForAnthropic(messages []Message) (string, []anthropic.Message) {
	var systemParts []string
	var turns []anthropic.Message

	for _, m := range messages {
		switch m.Role {
		case "system":
			systemParts = append(systemParts, m.Content)
		case "assistant":
			turns = append(turns, anthropic.NewAssistantTextMessage(m.Content))
		default:
			turns = append(turns, anthropic.NewUserTextMessage(m.Content))
		}
	}

	system := DefaultSystemPrompt
	if len(systemParts) > 0 {
		system = strings.Join(systemParts, "\n\n")
	}

	if len(turns) == 0 {
		turns = append(turns, anthropic.NewUserTextMessage(defaultOpeningTurn))
	}

	return system, turns
}

// classify maps a provider error onto the application taxonomy and latches
// the primary image model off on quota exhaustion.
func (r *Router) classify(err error, resolved string) error {
	classified := apperrors.ClassifyProvider(err)
	if classified.Code == apperrors.CodeQuotaExceeded {
		r.clients.DisablePrimaryImage()
		r.log.Warn("quota exhausted, primary image model disabled for this process",
			"model", resolved,
		)
	}
	recordModelError(resolved, classified.Code)
	return classified
}
