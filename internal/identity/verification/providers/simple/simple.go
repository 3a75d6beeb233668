// Package simple is a proof-in-payload provider used for local development and
// pipeline tests.
package simple

import (
	"context"

	"passport-iam/internal/identity/models"
)

const Type = "Simple"

type Provider struct{}

func New() *Provider { return &Provider{} }

func (p *Provider) Type() string { return Type }

// Verify accepts proofs.valid == "true" and records proofs.username.
func (p *Provider) Verify(_ context.Context, payload models.Payload, _ models.ProviderContext) (models.VerifiedPayload, error) {
	if payload.Proofs["valid"] != "true" {
		return models.VerifiedPayload{Valid: false, Errors: []string{"Proof is not valid"}}, nil
	}
	return models.VerifiedPayload{
		Valid:  true,
		Record: map[string]string{"username": payload.Proofs["username"]},
	}, nil
}
