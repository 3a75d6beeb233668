// Package auth decides which address a verify request acts for.
//
// Resolution runs as a small state machine:
//
//	NoAuth -> JWTAttempt -> Authenticated
//	                     -> ChallengeAttempt -> Authenticated | Unauthenticated
//	NoAuth -> ChallengeAttempt -> ...
package auth

import (
	"context"
	"log/slog"
	"strings"

	"passport-iam/internal/identity/credential"
	"passport-iam/internal/identity/models"
	dErrors "passport-iam/pkg/domain-errors"
)

const (
	ErrMissingChallenge = "Missing challenge - provide either JWT token or challenge credential"
	ErrInvalidIssuer    = "Invalid issuer"
	ErrInvalidChallenge = "Invalid challenge"
)

type State string

const (
	StateNoAuth           State = "no_auth"
	StateJWTAttempt       State = "jwt_attempt"
	StateChallengeAttempt State = "challenge_attempt"
	StateAuthenticated    State = "authenticated"
	StateUnauthenticated  State = "unauthenticated"
)

type Method string

const (
	MethodJWT       Method = "jwt"
	MethodChallenge Method = "challenge"
)

// Input is everything a request offers as proof of address control.
type Input struct {
	BearerToken string
	Challenge   *models.VerifiableCredential
	// SignedChallenge is the legacy top-level signature field; proofs.signature
	// in the payload takes precedence.
	SignedChallenge string
	Payload         models.Payload
}

// Result is the address the request acts for and how it was established.
type Result struct {
	Address string
	Method  Method
	Trace   []State
}

// TokenVerifier extracts the address from a Scorer access token.
type TokenVerifier interface {
	AddressFromToken(token string) (string, error)
}

// CredentialChecker verifies challenge credentials.
type CredentialChecker interface {
	VerifyCredential(ctx context.Context, vc *models.VerifiableCredential) bool
	HasValidIssuer(issuer string) bool
}

type Metrics interface {
	IncrementAuthFailure(reason string)
}

type Resolver struct {
	tokens  TokenVerifier
	creds   CredentialChecker
	logger  *slog.Logger
	metrics Metrics
}

type Option func(*Resolver)

// WithTokenVerifier enables the bearer token path. Without it every request
// must carry a challenge.
func WithTokenVerifier(v TokenVerifier) Option {
	return func(r *Resolver) { r.tokens = v }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

func WithMetrics(m Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

func NewResolver(creds CredentialChecker, opts ...Option) *Resolver {
	r := &Resolver{creds: creds, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type machine struct {
	state State
	trace []State
}

func (m *machine) to(s State) {
	m.state = s
	m.trace = append(m.trace, s)
}

// Resolve returns the authenticated address or a 401 domain error.
func (r *Resolver) Resolve(ctx context.Context, in Input) (Result, error) {
	m := &machine{}
	m.to(StateNoAuth)

	if in.BearerToken != "" && r.tokens != nil {
		m.to(StateJWTAttempt)
		address, err := r.tokens.AddressFromToken(in.BearerToken)
		if err == nil {
			m.to(StateAuthenticated)
			r.logger.InfoContext(ctx, "request authenticated", "method", string(MethodJWT))
			return Result{Address: address, Method: MethodJWT, Trace: m.trace}, nil
		}
		r.logger.WarnContext(ctx, "jwt verification failed, falling back to challenge", "error", err)
	}

	m.to(StateChallengeAttempt)
	address, err := r.challenge(ctx, in)
	if err != nil {
		m.to(StateUnauthenticated)
		if r.metrics != nil {
			r.metrics.IncrementAuthFailure(failureReason(err))
		}
		return Result{Trace: m.trace}, err
	}
	m.to(StateAuthenticated)
	r.logger.InfoContext(ctx, "request authenticated", "method", string(MethodChallenge))
	return Result{Address: address, Method: MethodChallenge, Trace: m.trace}, nil
}

func (r *Resolver) challenge(ctx context.Context, in Input) (string, error) {
	challenge := in.Challenge
	if challenge == nil {
		return "", unauthorized(ErrMissingChallenge)
	}

	verified := r.creds.VerifyCredential(ctx, challenge)
	if !r.creds.HasValidIssuer(challenge.Issuer) {
		return "", unauthorized(ErrInvalidIssuer)
	}
	if !verified {
		return "", unauthorized(ErrInvalidChallenge)
	}

	signature := in.Payload.Proofs["signature"]
	if signature == "" {
		signature = in.SignedChallenge
	}
	address, err := credential.RecoverPersonalSigner(challenge.CredentialSubject.Challenge, signature)
	if err != nil {
		r.logger.DebugContext(ctx, "challenge signature recovery failed", "error", err)
	}

	isSigner := err == nil && challenge.CredentialSubject.ID == models.SubjectDID(address)
	isType := challenge.CredentialSubject.Provider == "challenge-"+in.Payload.Type
	if !isSigner || !isType {
		var failed []string
		if !isSigner {
			failed = append(failed, "signer")
		}
		if !isType {
			failed = append(failed, "provider")
		}
		return "", unauthorized(ErrInvalidChallenge + " '" + strings.Join(failed, "' and '") + "'")
	}
	return address, nil
}

func unauthorized(msg string) error {
	return dErrors.New(dErrors.CodeUnauthorized, msg)
}

func failureReason(err error) string {
	switch msg := err.Error(); {
	case msg == ErrMissingChallenge:
		return "missing_challenge"
	case msg == ErrInvalidIssuer:
		return "invalid_issuer"
	case msg == ErrInvalidChallenge:
		return "invalid_challenge"
	default:
		return "challenge_mismatch"
	}
}
