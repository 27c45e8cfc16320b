package providers

import (
	"fmt"
	"strings"
)

type ProviderSpec struct {
	Name           string
	Keywords       []string // model name keywords for matching
	EnvKey         string   // environment variable for API key
	DefaultAPIBase string   // default base URL
	DefaultModel   string
	IsLocal        bool     // local inference (Ollama), no API key needed
	ModelPrefix    string   // prefix to add to model name
	SkipPrefixes   []string // prefixes to skip when adding ModelPrefix
}

// Providers is the registry of text generation backends.
var Providers = []ProviderSpec{
	{Name: "openrouter", Keywords: []string{"openrouter"}, EnvKey: "OPENROUTER_API_KEY", DefaultAPIBase: "https://openrouter.ai/api/v1", DefaultModel: "openai/gpt-4o-mini"},
	{Name: "anthropic", Keywords: []string{"claude", "anthropic"}, EnvKey: "ANTHROPIC_API_KEY", DefaultModel: defaultAnthropicModel},
	{Name: "openai", Keywords: []string{"gpt", "o1", "o3", "chatgpt"}, EnvKey: "OPENAI_API_KEY", DefaultModel: "gpt-4o-mini"},
	{Name: "deepseek", Keywords: []string{"deepseek"}, EnvKey: "DEEPSEEK_API_KEY", DefaultAPIBase: "https://api.deepseek.com/v1", DefaultModel: "deepseek-chat"},
	{Name: "groq", Keywords: []string{"groq"}, EnvKey: "GROQ_API_KEY", DefaultAPIBase: "https://api.groq.com/openai/v1", DefaultModel: "llama-3.1-8b-instant"},
	{Name: "ollama", Keywords: []string{"ollama"}, DefaultAPIBase: "http://localhost:11434/v1", DefaultModel: "llama3.2", IsLocal: true},
}

// FindByModel matches model name against Keywords, returns first match.
func FindByModel(model string) *ProviderSpec {
	lower := strings.ToLower(model)
	for i := range Providers {
		for _, kw := range Providers[i].Keywords {
			if strings.Contains(lower, kw) {
				return &Providers[i]
			}
		}
	}
	return nil
}

// FindByName returns the provider spec with an exact name match.
func FindByName(name string) *ProviderSpec {
	for i := range Providers {
		if Providers[i].Name == name {
			return &Providers[i]
		}
	}
	return nil
}

// New builds a provider by name. An empty name is resolved from the model.
func New(name, apiKey, baseURL, model string) (Provider, error) {
	var spec *ProviderSpec
	if name == "" {
		spec = FindByModel(model)
	} else {
		spec = FindByName(name)
	}
	if spec == nil {
		return nil, fmt.Errorf("unknown provider %q (model %q)", name, model)
	}
	if apiKey == "" && !spec.IsLocal {
		return nil, fmt.Errorf("provider %q requires an API key (%s)", spec.Name, spec.EnvKey)
	}
	if spec.Name == "anthropic" {
		return NewAnthropicProvider(apiKey, baseURL, model), nil
	}
	return NewOpenAICompatProviderFromSpec(spec, apiKey, baseURL, model), nil
}
