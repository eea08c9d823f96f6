// Package providers owns the process-global clients for the external chat
// and image providers. Clients are created lazily, at most once per
// provider; a missing credential yields a nil client rather than an error so
// the rest of the system can degrade gracefully.
package providers

import (
	"sync"
	"sync/atomic"

	"github.com/AFlo59/CompareModelPoc-sub000/pkg/config"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"
)

// DeepSeekBaseURL is the OpenAI-compatible endpoint for DeepSeek chat.
const DeepSeekBaseURL = "https://api.deepseek.com/v1"

// Credentials carries the provider API keys, read from the environment at
// construction time only.
type Credentials struct {
	OpenAIKey    string
	AnthropicKey string
	DeepSeekKey  string

	// Test hooks: override the provider endpoints.
	OpenAIBaseURL    string
	AnthropicBaseURL string
	DeepSeekBaseURL  string
}

// Factory hands out cached provider clients. It also hosts the
// process-lifetime suppression latch for the primary image model: once a
// quota-class error is observed, the primary model is skipped for the rest
// of the process.
type Factory struct {
	mu    sync.Mutex
	creds Credentials

	openaiClient    *openai.Client
	anthropicClient *anthropic.Client
	deepseekClient  *openai.Client

	primaryImageDisabled atomic.Bool
}

// NewFactory creates a factory over the given credentials.
func NewFactory(creds Credentials) *Factory {
	return &Factory{creds: creds}
}

// NewFactoryFromConfig creates a factory from the application configuration.
func NewFactoryFromConfig() *Factory {
	cfg := config.Get()
	return NewFactory(Credentials{
		OpenAIKey:    cfg.Providers.OpenAIKey,
		AnthropicKey: cfg.Providers.AnthropicKey,
		DeepSeekKey:  cfg.Providers.DeepSeekKey,
	})
}

// OpenAI returns the cached OpenAI client, or nil when no credential is set.
func (f *Factory) OpenAI() *openai.Client {
	if f.creds.OpenAIKey == "" {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.openaiClient == nil {
		clientConfig := openai.DefaultConfig(f.creds.OpenAIKey)
		if f.creds.OpenAIBaseURL != "" {
			clientConfig.BaseURL = f.creds.OpenAIBaseURL
		}
		f.openaiClient = openai.NewClientWithConfig(clientConfig)
	}
	return f.openaiClient
}

// Anthropic returns the cached Anthropic client, or nil when no credential
// is set.
func (f *Factory) Anthropic() *anthropic.Client {
	if f.creds.AnthropicKey == "" {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.anthropicClient == nil {
		var opts []anthropic.ClientOption
		if f.creds.AnthropicBaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(f.creds.AnthropicBaseURL))
		}
		f.anthropicClient = anthropic.NewClient(f.creds.AnthropicKey, opts...)
	}
	return f.anthropicClient
}

// DeepSeek returns the cached DeepSeek client, or nil when no credential is
// set. DeepSeek speaks the OpenAI chat-completions protocol, so the client
// is an OpenAI client pointed at the DeepSeek endpoint.
func (f *Factory) DeepSeek() *openai.Client {
	if f.creds.DeepSeekKey == "" {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deepseekClient == nil {
		clientConfig := openai.DefaultConfig(f.creds.DeepSeekKey)
		clientConfig.BaseURL = DeepSeekBaseURL
		if f.creds.DeepSeekBaseURL != "" {
			clientConfig.BaseURL = f.creds.DeepSeekBaseURL
		}
		f.deepseekClient = openai.NewClientWithConfig(clientConfig)
	}
	return f.deepseekClient
}

// ValidateKeys reports which providers have a credential configured.
func (f *Factory) ValidateKeys() map[string]bool {
	return map[string]bool{
		"openai":    f.creds.OpenAIKey != "",
		"anthropic": f.creds.AnthropicKey != "",
		"deepseek":  f.creds.DeepSeekKey != "",
	}
}

// DisablePrimaryImage latches the primary image model off for the remainder
// of the process. One-way; races on set are benign.
func (f *Factory) DisablePrimaryImage() {
	f.primaryImageDisabled.Store(true)
}

// PrimaryImageDisabled reports whether the primary image model has been
// latched off.
func (f *Factory) PrimaryImageDisabled() bool {
	return f.primaryImageDisabled.Load()
}
