package llm

import (
	"fmt"
	"sort"

	"maitred/internal/config"
)

// Factory builds a Completer from the service configuration
type Factory func(cfg *config.Config) (Completer, error)

var factories = map[string]Factory{
	config.ProviderDashScope: func(cfg *config.Config) (Completer, error) {
		return NewDashScopeClient(cfg.LLM.Endpoint, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout), nil
	},
	config.ProviderProxy: func(cfg *config.Config) (Completer, error) {
		endpoint := cfg.Endpoints.BaseURL(cfg.Menu.Host) + "/api/qwen"
		return NewProxyClient(endpoint, cfg.LLM.Model, cfg.LLM.Timeout), nil
	},
	config.ProviderOpenAI: func(cfg *config.Config) (Completer, error) {
		return NewLangChainClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model)
	},
}

// NewCompleter selects the provider named in cfg.LLM.Provider
func NewCompleter(cfg *config.Config) (Completer, error) {
	f, ok := factories[cfg.LLM.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %q (known: %v)", cfg.LLM.Provider, Providers())
	}
	return f(cfg)
}

// Providers lists the registered provider names
func Providers() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
