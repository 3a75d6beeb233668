package providers

import (
	"context"
	"fmt"
	"sort"

	"passport-iam/internal/identity/models"
)

// GenericPlatform collects types no registered platform claims.
const GenericPlatform = "generic"

// Provider is the contract every verification plugin implements.
//
// Verify must not modify payload.Address. It may read and write pctx, which is
// shared with the other providers of the same platform for one request.
// Returning an error means the provider itself failed; a failed verification is
// reported as VerifiedPayload{Valid: false, Errors: ...}.
type Provider interface {
	// Type is the provider id requested by clients, e.g. "githubContributionActivityGte#30".
	Type() string
	Verify(ctx context.Context, payload models.Payload, pctx models.ProviderContext) (models.VerifiedPayload, error)
}

type entry struct {
	provider Provider
	platform string
	evm      bool
}

type RegisterOption func(*entry)

// AsEVM marks a provider as verifiable from on-chain data alone, making it
// eligible for auto-verification.
func AsEVM() RegisterOption {
	return func(e *entry) { e.evm = true }
}

// Registry maps provider types to implementations and owning platforms.
// Register everything at startup; lookups are read-only afterwards.
type Registry struct {
	entries map[string]entry
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds p under platform. Returns an error if the type is already taken.
func (r *Registry) Register(platform string, p Provider, opts ...RegisterOption) error {
	t := p.Type()
	if t == "" || platform == "" {
		return fmt.Errorf("provider type and platform are required")
	}
	if _, exists := r.entries[t]; exists {
		return fmt.Errorf("provider %s already registered", t)
	}
	e := entry{provider: p, platform: platform}
	for _, opt := range opts {
		opt(&e)
	}
	r.entries[t] = e
	r.order = append(r.order, t)
	return nil
}

func (r *Registry) Get(providerType string) (Provider, bool) {
	e, ok := r.entries[providerType]
	return e.provider, ok
}

// PlatformOf resolves the platform of a requested type, composite forms
// included. Unknown types belong to GenericPlatform.
func (r *Registry) PlatformOf(requested string) string {
	ref := ParseTypeRef(requested)
	if e, ok := r.entries[ref.Provider()]; ok {
		return e.platform
	}
	return GenericPlatform
}

// EVMTypes lists the auto-verifiable provider types in registration order.
func (r *Registry) EVMTypes() []string {
	var out []string
	for _, t := range r.order {
		if r.entries[t].evm {
			out = append(out, t)
		}
	}
	return out
}

// Platforms returns the sorted set of registered platforms.
func (r *Registry) Platforms() []string {
	seen := map[string]struct{}{}
	for _, e := range r.entries {
		seen[e.platform] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
