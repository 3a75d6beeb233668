package jwttoken

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"passport-iam/internal/identity/models"
	dErrors "passport-iam/pkg/domain-errors"
	"passport-iam/pkg/requestcontext"
)

// DefaultIssuer is the issuer claim of tokens minted by the Scorer.
const DefaultIssuer = "passport-scorer"

// ScorerClaims are the claims of a Scorer-issued access token. DID has the form
// did:pkh:eip155:1:<address>.
type ScorerClaims struct {
	DID string `json:"did"`
	jwt.RegisteredClaims
}

// Address returns the lower-cased address embedded in the did claim.
func (c *ScorerClaims) Address() (string, error) {
	addr, ok := strings.CutPrefix(c.DID, models.DIDPrefix)
	if !ok || addr == "" || strings.Contains(addr, ":") {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid did claim")
	}
	return strings.ToLower(addr), nil
}

// Verifier validates RS256 Scorer tokens against a public key.
type Verifier struct {
	publicKey *rsa.PublicKey
	issuer    string
	now       func() time.Time
}

type VerifierOption func(*Verifier)

// WithTimeFunc overrides the clock used for exp and nbf checks.
func WithTimeFunc(now func() time.Time) VerifierOption {
	return func(v *Verifier) { v.now = now }
}

func NewVerifier(publicKey *rsa.PublicKey, issuer string, opts ...VerifierOption) *Verifier {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	v := &Verifier{publicKey: publicKey, issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// NewVerifierFromPEM parses a PKIX or PKCS#1 RSA public key.
func NewVerifierFromPEM(publicKeyPEM, issuer string, opts ...VerifierOption) (*Verifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse scorer jwt public key: %w", err)
	}
	return NewVerifier(key, issuer, opts...), nil
}

func (v *Verifier) ValidateToken(tokenString string) (*ScorerClaims, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "empty token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &ScorerClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.publicKey, nil
	},
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		if errors.Is(err, jwt.ErrTokenInvalidIssuer) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token issuer")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*ScorerClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// AddressFromToken validates the token and returns its address.
func (v *Verifier) AddressFromToken(tokenString string) (string, error) {
	claims, err := v.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Address()
}

// Signer mints Scorer-style tokens. Only local tooling and tests use it.
type Signer struct {
	privateKey *rsa.PrivateKey
	issuer     string
	ttl        time.Duration
}

func NewSigner(privateKey *rsa.PrivateKey, issuer string, ttl time.Duration) *Signer {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &Signer{privateKey: privateKey, issuer: issuer, ttl: ttl}
}

func (s *Signer) GenerateToken(ctx context.Context, address string) (string, error) {
	if address == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "address is required")
	}
	now := requestcontext.Now(ctx)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, ScorerClaims{
		DID: models.SubjectDID(address),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.privateKey)
}
