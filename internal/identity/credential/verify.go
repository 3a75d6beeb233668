package credential

import (
	"context"
	"log/slog"

	"github.com/benbjohnson/clock"

	"passport-iam/internal/identity/models"
)

// Verifier checks credentials presented back to the service.
type Verifier struct {
	proofs  ProofVerifier
	clock   clock.Clock
	trusted map[string]struct{}
	logger  *slog.Logger
}

type VerifierOption func(*Verifier)

func WithProofVerifier(p ProofVerifier) VerifierOption {
	return func(v *Verifier) { v.proofs = p }
}

func WithVerifierClock(c clock.Clock) VerifierOption {
	return func(v *Verifier) { v.clock = c }
}

func WithVerifierLogger(l *slog.Logger) VerifierOption {
	return func(v *Verifier) { v.logger = l }
}

// NewVerifier trusts the given issuer DIDs, normally the service's own DIDs
// plus any configured extras.
func NewVerifier(trustedIssuers []string, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		proofs:  DIDProofVerifier{},
		clock:   clock.New(),
		trusted: make(map[string]struct{}, len(trustedIssuers)),
		logger:  slog.Default(),
	}
	for _, iss := range trustedIssuers {
		if iss != "" {
			v.trusted[iss] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyCredential is true only for an unexpired credential whose proof
// verifies without errors. Expired credentials never reach the proof check.
func (v *Verifier) VerifyCredential(ctx context.Context, vc *models.VerifiableCredential) bool {
	if vc == nil || !vc.ExpirationDate.After(v.clock.Now()) {
		return false
	}
	problems, err := v.proofs.VerifyProof(vc)
	if err != nil {
		v.logger.DebugContext(ctx, "credential proof check failed", "issuer", vc.Issuer, "error", err)
		return false
	}
	return len(problems) == 0
}

func (v *Verifier) HasValidIssuer(issuer string) bool {
	_, ok := v.trusted[issuer]
	return ok
}
