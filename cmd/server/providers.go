package main

import (
	"fmt"

	"passport-iam/internal/identity/verification/providers"
	"passport-iam/internal/identity/verification/providers/adapters"
	"passport-iam/internal/identity/verification/providers/allowlist"
	"passport-iam/internal/identity/verification/providers/simple"
	"passport-iam/internal/platform/config"
)

// buildRegistry registers the built-in providers and every remote plugin
// listed in configuration.
func buildRegistry(environment string, cfg config.Providers, members allowlist.MembershipChecker) (*providers.Registry, error) {
	registry := providers.NewRegistry()
	if environment != "production" {
		if err := registry.Register(simple.Type, simple.New()); err != nil {
			return nil, err
		}
	}
	if err := registry.Register(providers.AllowListType, allowlist.New(members)); err != nil {
		return nil, err
	}
	for _, p := range cfg.HTTP {
		timeout := p.Timeout
		if timeout == 0 {
			timeout = cfg.Timeout
		}
		var opts []providers.RegisterOption
		if p.EVM {
			opts = append(opts, providers.AsEVM())
		}
		provider := adapters.NewHTTPProvider(adapters.HTTPProviderConfig{Type: p.ID, URL: p.URL, Timeout: timeout})
		if err := registry.Register(p.Platform, provider, opts...); err != nil {
			return nil, fmt.Errorf("provider %s: %w", p.ID, err)
		}
	}
	return registry, nil
}
