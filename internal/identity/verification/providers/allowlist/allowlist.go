// Package allowlist verifies membership of a Scorer-managed address list. The
// list name arrives in proofs.allowList from an "AllowList#<list>" type.
package allowlist

import (
	"context"
	"errors"
	"fmt"

	"passport-iam/internal/identity/models"
	"passport-iam/internal/identity/verification/providers"
)

// MembershipChecker is implemented by the Scorer client.
type MembershipChecker interface {
	IsAllowListMember(ctx context.Context, list, address string) (bool, error)
}

type Provider struct {
	checker MembershipChecker
}

func New(checker MembershipChecker) *Provider {
	return &Provider{checker: checker}
}

func (p *Provider) Type() string { return providers.AllowListType }

func (p *Provider) Verify(ctx context.Context, payload models.Payload, _ models.ProviderContext) (models.VerifiedPayload, error) {
	list := payload.Proofs["allowList"]
	if list == "" {
		return models.VerifiedPayload{Valid: false, Errors: []string{"Missing allow list name"}}, nil
	}

	member, err := p.checker.IsAllowListMember(ctx, list, payload.Address)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.VerifiedPayload{
				Valid:  false,
				Errors: []string{providers.TimeoutMessage(providers.AllowListType)},
			}, nil
		}
		return models.VerifiedPayload{}, providers.NewProviderError(providers.ErrorProviderOutage, providers.AllowListType, "allow list lookup failed", err)
	}
	if !member {
		return models.VerifiedPayload{
			Valid:  false,
			Errors: []string{fmt.Sprintf("Address is not on the %s allow list", list)},
		}, nil
	}
	return models.VerifiedPayload{Valid: true, Record: map[string]string{"allowList": list}}, nil
}
