package almond

import "strings"

// Provider identifies a text-generation backend.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	ProviderQwen       Provider = "qwen"
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderGemini     Provider = "gemini"
	ProviderVertex     Provider = "vertex"
	ProviderDeepSeek   Provider = "deepseek"
	ProviderKimi       Provider = "kimi"
	ProviderCompatible Provider = "compatible"
	ProviderMock       Provider = "mock"
)

var providerAliases = map[string]Provider{
	"qwen":       ProviderQwen,
	"dashscope":  ProviderQwen,
	"openai":     ProviderOpenAI,
	"anthropic":  ProviderAnthropic,
	"claude":     ProviderAnthropic,
	"gemini":     ProviderGemini,
	"google":     ProviderGemini,
	"vertex":     ProviderVertex,
	"deepseek":   ProviderDeepSeek,
	"kimi":       ProviderKimi,
	"moonshot":   ProviderKimi,
	"compatible": ProviderCompatible,
	"mock":       ProviderMock,
}

// Providers returns every supported provider in a stable order.
func Providers() []Provider {
	return []Provider{
		ProviderQwen,
		ProviderOpenAI,
		ProviderAnthropic,
		ProviderGemini,
		ProviderVertex,
		ProviderDeepSeek,
		ProviderKimi,
		ProviderCompatible,
		ProviderMock,
	}
}

// ParseProvider normalizes a provider name, accepting common aliases.
func ParseProvider(name string) (Provider, error) {
	p, ok := providerAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", &UnsupportedProviderError{Name: name}
	}
	return p, nil
}

// DefaultModel returns the model used when no override is configured.
// The compatible provider has no default; its model must be configured.
func (p Provider) DefaultModel() string {
	switch p {
	case ProviderQwen:
		return "qwen-plus"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	case ProviderGemini, ProviderVertex:
		return "gemini-2.0-flash"
	case ProviderDeepSeek:
		return "deepseek-chat"
	case ProviderKimi:
		return "moonshot-v1-8k"
	case ProviderMock:
		return "mock-model"
	default:
		return ""
	}
}

// DefaultBaseURL returns the OpenAI-compatible endpoint of vendors that
// expose one. It is empty for providers with a native SDK.
func (p Provider) DefaultBaseURL() string {
	switch p {
	case ProviderQwen:
		return "https://dashscope.aliyuncs.com/compatible-mode/v1"
	case ProviderDeepSeek:
		return "https://api.deepseek.com/v1"
	case ProviderKimi:
		return "https://api.moonshot.cn/v1"
	default:
		return ""
	}
}

// OpenAICompatible reports whether the provider is served through an
// OpenAI-compatible HTTP endpoint rather than a vendor SDK.
func (p Provider) OpenAICompatible() bool {
	switch p {
	case ProviderQwen, ProviderDeepSeek, ProviderKimi, ProviderCompatible:
		return true
	default:
		return false
	}
}
