// Package httptransport exposes the identity and attestation pipeline over
// HTTP. Handlers decode, delegate and encode; no business rules live here.
package httptransport

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/go-chi/chi/v5"

	"passport-iam/internal/attestation"
	"passport-iam/internal/identity/auth"
	"passport-iam/internal/identity/autoverify"
	"passport-iam/internal/identity/models"
)

// APIPrefix is the versioned path every pipeline route lives under.
const APIPrefix = "/api/v0.0.0"

type Authenticator interface {
	Resolve(ctx context.Context, in auth.Input) (auth.Result, error)
}

type CredentialIssuer interface {
	IssueChallenge(ctx context.Context, payload models.Payload) (models.CredentialResponse, error)
	VerifyAdditionalSigner(ctx context.Context, signer models.SignerPayload) (string, error)
	IssueCredentials(ctx context.Context, types []string, address string, payload models.Payload) ([]models.CredentialResponse, error)
	IssueSingle(ctx context.Context, address string, payload models.Payload) (models.CredentialResponse, error)
}

type TypeChecker interface {
	VerifyTypes(ctx context.Context, types []string, payload models.Payload) ([]models.VerifyTypeResult, error)
}

type Attester interface {
	SignedScoreAttestation(ctx context.Context, recipient, chainIDHex string, nonce *big.Int, scorerID *int64) (*attestation.EasPayload, error)
	PassportAttestation(ctx context.Context, creds []models.VerifiableCredential, recipient, chainIDHex string, nonce *big.Int, scorerID *int64) (*attestation.EasPayload, error)
	ComputeBadgeUpgrade(ctx context.Context, creds []models.VerifiableCredential, nonce *big.Int, chainIDHex string) (*attestation.EasPayload, error)
}

type AutoVerifier interface {
	AutoVerify(ctx context.Context, address string, scorerID *int64) (*autoverify.Result, error)
	EmbedVerify(ctx context.Context, address string, payload models.Payload, scorerID *int64) (*autoverify.EmbedResult, error)
}

type Handler struct {
	auth     Authenticator
	issuer   CredentialIssuer
	checker  TypeChecker
	attester Attester
	auto     AutoVerifier
	logger   *slog.Logger
}

func NewHandler(authn Authenticator, issuer CredentialIssuer, checker TypeChecker, attester Attester, auto AutoVerifier, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		auth:     authn,
		issuer:   issuer,
		checker:  checker,
		attester: attester,
		auto:     auto,
		logger:   logger,
	}
}

// Register mounts the pipeline routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/challenge", h.HandleChallenge)
	r.Post("/verify", h.HandleVerify)
	r.Post("/check", h.HandleCheck)
	r.Post("/auto-verification", h.HandleAutoVerification)
	r.Post("/embed/verify", h.HandleEmbedVerify)
	r.Post("/eas/score", h.HandleScoreAttestation)
	r.Post("/eas/passport", h.HandlePassportAttestation)
	r.Post("/scroll/dev", h.HandleBadgeUpgrade)
}
