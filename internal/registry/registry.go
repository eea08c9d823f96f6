// Package registry holds the static catalog of chat models available to the
// game master, keyed by display name. Pricing lives here and nowhere else.
package registry

// Provider tags
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderDeepSeek  = "deepseek"
)

// DefaultModel is the display name callers fall back to when a requested
// model is unknown.
const DefaultModel = "GPT-4"

// ModelInfo contains the configuration for one chat model.
type ModelInfo struct {
	// DisplayName is the stable name shown to players and stored in
	// campaigns and performance logs
	DisplayName string `json:"display_name"`

	// Provider identifies which client dispatches this model
	Provider string `json:"provider"`

	// WireName is the provider-specific model identifier used in API calls
	WireName string `json:"wire_name"`

	// MaxTokens is the default maximum output tokens per response
	MaxTokens int `json:"max_tokens"`

	// Temperature is the default sampling temperature
	Temperature float32 `json:"temperature"`

	// PriceIn and PriceOut are dollars per 1000 tokens
	PriceIn  float64 `json:"price_in"`
	PriceOut float64 `json:"price_out"`

	// Description is a brief explanation of the model's strengths
	Description string `json:"description"`

	// SupportsSystem indicates the provider accepts a distinct system message
	SupportsSystem bool `json:"supports_system"`
}

// order fixes the enumeration returned by Names.
var order = []string{"GPT-4", "GPT-4o", "Claude 3.5 Sonnet", "DeepSeek"}

var models = map[string]ModelInfo{
	"GPT-4": {
		DisplayName:    "GPT-4",
		Provider:       ProviderOpenAI,
		WireName:       "gpt-4",
		MaxTokens:      1000,
		Temperature:    0.7,
		PriceIn:        0.03,
		PriceOut:       0.06,
		Description:    "Strong general reasoning, the dependable default GM",
		SupportsSystem: true,
	},
	"GPT-4o": {
		DisplayName:    "GPT-4o",
		Provider:       ProviderOpenAI,
		WireName:       "gpt-4o",
		MaxTokens:      1000,
		Temperature:    0.7,
		PriceIn:        0.0025,
		PriceOut:       0.01,
		Description:    "Fast multimodal model, cheap enough for long sessions",
		SupportsSystem: true,
	},
	"Claude 3.5 Sonnet": {
		DisplayName:    "Claude 3.5 Sonnet",
		Provider:       ProviderAnthropic,
		WireName:       "claude-3-5-sonnet-20241022",
		MaxTokens:      1000,
		Temperature:    0.7,
		PriceIn:        0.003,
		PriceOut:       0.015,
		Description:    "Evocative narration with a long context window",
		SupportsSystem: true,
	},
	"DeepSeek": {
		DisplayName:    "DeepSeek",
		Provider:       ProviderDeepSeek,
		WireName:       "deepseek-chat",
		MaxTokens:      1000,
		Temperature:    0.7,
		PriceIn:        0.00014,
		PriceOut:       0.00028,
		Description:    "Budget option with solid storytelling",
		SupportsSystem: true,
	},
}

// Get returns the record for the given display name. Unknown names return
// the default model's record so callers always receive a usable
// configuration.
func Get(name string) ModelInfo {
	if info, ok := models[name]; ok {
		return info
	}
	return models[DefaultModel]
}

// Resolve returns the display name actually in effect for the given name:
// the name itself when registered, the default otherwise.
func Resolve(name string) string {
	if _, ok := models[name]; ok {
		return name
	}
	return DefaultModel
}

// Known reports whether the display name is registered.
func Known(name string) bool {
	_, ok := models[name]
	return ok
}

// Names returns the stable, ordered list of registered display names.
func Names() []string {
	return append([]string(nil), order...)
}

// EstimateCost computes the dollar cost for a call with the given token
// counts, using the default model's pricing for unknown names.
func EstimateCost(name string, tokensIn, tokensOut int) float64 {
	info := Get(name)
	return float64(tokensIn)/1000*info.PriceIn + float64(tokensOut)/1000*info.PriceOut
}

// AvailableAlternatives returns the other registered models whose provider
// is present in the given availability map.
func AvailableAlternatives(name string, available map[string]bool) []string {
	current := Resolve(name)
	var result []string
	for _, n := range order {
		if n == current {
			continue
		}
		if available[models[n].Provider] {
			result = append(result, n)
		}
	}
	return result
}
