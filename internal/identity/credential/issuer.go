package credential

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"passport-iam/internal/audit"
	"passport-iam/internal/identity/models"
	"passport-iam/internal/platform/tracer"
	dErrors "passport-iam/pkg/domain-errors"
)

const (
	ErrInvalidPayload       = "Invalid payload"
	ErrUnableToProduce      = "Unable to produce a verifiable credential"
	ErrUnableToVerifySigner = "Unable to verify payload signer"

	challengePrefix = "challenge-"
	schemaText      = "https://schema.org/Text"
)

var (
	credentialContext = []string{"https://www.w3.org/2018/credentials/v1"}
	credentialType    = []string{"VerifiableCredential"}
)

// TypeVerifier runs providers for a list of requested types.
type TypeVerifier interface {
	VerifyTypes(ctx context.Context, types []string, payload models.Payload) ([]models.VerifyTypeResult, error)
}

// Metrics is the subset of service metrics the issuer records.
type Metrics interface {
	IncrementCredentialIssued(provider, signatureType string)
	IncrementCredentialFailed(code string)
	IncrementBanned(provider string)
}

// Issuer turns provider verdicts into signed credentials.
type Issuer struct {
	types        TypeVerifier
	keys         *Keys
	ed25519      *Ed25519Signer
	eip712       *EIP712Signer
	verifier     *Verifier
	bans         *BanFilter
	clock        clock.Clock
	ttl          time.Duration
	challengeTTL time.Duration
	nonce        func() (string, error)
	logger       *slog.Logger
	tracer       tracer.Tracer
	metrics      Metrics
	audit        *audit.Publisher
}

type IssuerOption func(*Issuer)

func WithBanFilter(f *BanFilter) IssuerOption {
	return func(i *Issuer) { i.bans = f }
}

func WithClock(c clock.Clock) IssuerOption {
	return func(i *Issuer) { i.clock = c }
}

// WithTTL sets the default credential lifetime used when a provider does not
// supply one.
func WithTTL(d time.Duration) IssuerOption {
	return func(i *Issuer) { i.ttl = d }
}

func WithChallengeTTL(d time.Duration) IssuerOption {
	return func(i *Issuer) { i.challengeTTL = d }
}

func WithNonce(fn func() (string, error)) IssuerOption {
	return func(i *Issuer) { i.nonce = fn }
}

func WithLogger(l *slog.Logger) IssuerOption {
	return func(i *Issuer) { i.logger = l }
}

func WithTracer(t tracer.Tracer) IssuerOption {
	return func(i *Issuer) { i.tracer = t }
}

func WithMetrics(m Metrics) IssuerOption {
	return func(i *Issuer) { i.metrics = m }
}

func WithAudit(p *audit.Publisher) IssuerOption {
	return func(i *Issuer) { i.audit = p }
}

func NewIssuer(types TypeVerifier, keys *Keys, verifier *Verifier, opts ...IssuerOption) (*Issuer, error) {
	ed, err := NewEd25519Signer(keys.Ed25519)
	if err != nil {
		return nil, fmt.Errorf("ed25519 issuer: %w", err)
	}
	i := &Issuer{
		types:        types,
		keys:         keys,
		ed25519:      ed,
		verifier:     verifier,
		clock:        clock.New(),
		ttl:          90 * 24 * time.Hour,
		challengeTTL: 60 * time.Second,
		nonce:        randomNonce,
		logger:       slog.Default(),
		tracer:       tracer.NewNoop(),
	}
	if keys.EIP712 != nil {
		i.eip712 = NewEIP712Signer(keys.EIP712)
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func randomNonce() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// ChallengeMessage is the text the wallet signs to prove control of address.
func ChallengeMessage(providerType, nonce string) string {
	return fmt.Sprintf("I commit that this wallet is under my control and that I wish to verify my %s account.\n\nNonce: %s", providerType, nonce)
}

func (i *Issuer) signerFor(t models.SignatureType) (Signer, error) {
	if t == models.SignatureEIP712 {
		if i.eip712 == nil {
			return nil, errors.New("EIP712 issuer key not configured")
		}
		return i.eip712, nil
	}
	return i.ed25519, nil
}

// IssueChallenge issues the short-lived credential a wallet signs before
// calling verify.
func (i *Issuer) IssueChallenge(ctx context.Context, payload models.Payload) (models.CredentialResponse, error) {
	if payload.Address == "" || payload.Type == "" {
		return models.CredentialResponse{}, dErrors.New(dErrors.CodeBadRequest, ErrInvalidPayload)
	}
	nonce, err := i.nonce()
	if err != nil {
		return models.CredentialResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "generate challenge nonce")
	}
	address := strings.ToLower(payload.Address)
	subject := models.CredentialSubject{
		Context: map[string]string{
			"provider":  schemaText,
			"challenge": schemaText,
			"address":   schemaText,
		},
		ID:        models.SubjectDID(address),
		Provider:  challengePrefix + payload.Type,
		Challenge: ChallengeMessage(payload.Type, nonce),
		Address:   address,
	}
	vc, err := i.sign(ctx, payload.SignatureType, subject, i.challengeTTL)
	if err != nil {
		i.logger.ErrorContext(ctx, "challenge issuance failed", "error", err, "type", payload.Type)
		return models.CredentialResponse{}, dErrors.New(dErrors.CodeBadRequest, ErrUnableToProduce)
	}
	return models.CredentialResponse{Credential: vc}, nil
}

// VerifyAdditionalSigner checks the signer's challenge credential and that
// signature was produced by signer.Address. It returns the recovered address.
func (i *Issuer) VerifyAdditionalSigner(ctx context.Context, signer models.SignerPayload) (string, error) {
	if signer.Challenge == nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, ErrUnableToVerifySigner)
	}
	valid := i.verifier.VerifyCredential(ctx, signer.Challenge)
	recovered, err := RecoverPersonalSigner(signer.Challenge.CredentialSubject.Challenge, signer.Signature)
	if err != nil || !valid || recovered != strings.ToLower(signer.Address) {
		i.logger.WarnContext(ctx, "additional signer rejected", "credential_valid", valid, "error", err)
		return "", dErrors.New(dErrors.CodeUnauthorized, ErrUnableToVerifySigner)
	}
	return recovered, nil
}

// IssueCredentials verifies every type and issues one credential per valid
// result. The response order matches types.
func (i *Issuer) IssueCredentials(ctx context.Context, types []string, address string, payload models.Payload) ([]models.CredentialResponse, error) {
	ctx, span := i.tracer.Start(ctx, tracer.SpanIssueCredentials,
		tracer.Int(tracer.AttrTypeCount, len(types)),
		tracer.String(tracer.AttrAddressHash, tracer.HashAddress(address)),
	)
	var spanErr error
	defer func() { span.End(spanErr) }()

	results, err := i.types.VerifyTypes(ctx, types, payload)
	if err != nil {
		spanErr = err
		return nil, err
	}

	responses := make([]models.CredentialResponse, len(results))
	for n, r := range results {
		if !r.Result.Valid {
			responses[n] = models.CredentialResponse{Error: r.Error, Code: r.Code}
			continue
		}
		responses[n] = i.issue(ctx, r, address, payload.SignatureType)
	}

	if i.bans != nil {
		filtered, err := i.bans.Filter(ctx, responses)
		if err != nil {
			spanErr = err
			return nil, err
		}
		for n := range responses {
			if responses[n].OK() && !filtered[n].OK() && i.metrics != nil {
				i.metrics.IncrementBanned(responses[n].Credential.CredentialSubject.Provider)
			}
		}
		responses = filtered
	}

	i.record(ctx, types, address, payload.SignatureType, responses)
	return responses, nil
}

// IssueSingle handles a request naming one type. A failed verification is
// returned as a *models.ResponseError carrying the provider's code.
func (i *Issuer) IssueSingle(ctx context.Context, address string, payload models.Payload) (models.CredentialResponse, error) {
	if payload.Type == "" {
		return models.CredentialResponse{}, dErrors.New(dErrors.CodeBadRequest, ErrInvalidPayload)
	}
	responses, err := i.IssueCredentials(ctx, []string{payload.Type}, address, payload)
	if err != nil {
		return models.CredentialResponse{}, err
	}
	resp := responses[0]
	if resp.Error != "" {
		code := resp.Code
		if code == 0 {
			code = http.StatusInternalServerError
		}
		return models.CredentialResponse{}, &models.ResponseError{Code: code, Message: resp.Error}
	}
	return resp, nil
}

func (i *Issuer) issue(ctx context.Context, result models.VerifyTypeResult, address string, sigType models.SignatureType) models.CredentialResponse {
	record := BuildRecord(result.Type, result.Result.Record)

	hashes, err := i.hashes(ctx, record, result.Result.Nullifier)
	if err != nil {
		i.logger.ErrorContext(ctx, "credential hashing failed", "error", err, "type", result.Type)
		return models.CredentialResponse{Error: ErrUnableToProduce, Code: http.StatusInternalServerError}
	}

	subject := models.CredentialSubject{
		Context: map[string]string{
			"hash":     schemaText,
			"provider": schemaText,
		},
		ID:       models.SubjectDID(address),
		Provider: record["type"],
		Hash:     hashes[0],
	}
	if len(hashes) > 1 {
		subject.Context["nullifiers"] = schemaText
		subject.Nullifiers = hashes
	}

	ttl := i.ttl
	if result.Result.ExpiresInSeconds > 0 {
		ttl = time.Duration(result.Result.ExpiresInSeconds) * time.Second
	}

	vc, err := i.sign(ctx, sigType, subject, ttl)
	if err != nil {
		i.logger.ErrorContext(ctx, "credential signing failed", "error", err, "type", result.Type)
		return models.CredentialResponse{Error: ErrUnableToProduce, Code: http.StatusInternalServerError}
	}
	return models.CredentialResponse{Credential: vc, Record: record}
}

// hashes returns one hash per configured key, followed by the provider's
// external nullifier when it has one.
func (i *Issuer) hashes(ctx context.Context, record ProofRecord, external models.NullifierFunc) ([]string, error) {
	out := make([]string, 0, len(i.keys.HashKeys)+1)
	for _, key := range i.keys.HashKeys {
		h, err := Hash(key, record)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if external != nil {
		n, err := external(ctx, record)
		if err != nil {
			return nil, fmt.Errorf("external nullifier: %w", err)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, errors.New("no hash keys configured")
	}
	return out, nil
}

func (i *Issuer) sign(ctx context.Context, sigType models.SignatureType, subject models.CredentialSubject, ttl time.Duration) (*models.VerifiableCredential, error) {
	signer, err := i.signerFor(sigType)
	if err != nil {
		return nil, err
	}
	now := i.clock.Now().UTC().Truncate(time.Millisecond)
	vc := &models.VerifiableCredential{
		Context:           credentialContext,
		Type:              credentialType,
		ID:                "urn:uuid:" + uuid.NewString(),
		Issuer:            signer.DID(),
		IssuanceDate:      now,
		ExpirationDate:    now.Add(ttl),
		CredentialSubject: subject,
	}
	if err := signer.Sign(vc, now); err != nil {
		return nil, err
	}
	if i.verifier != nil && !i.verifier.VerifyCredential(ctx, vc) {
		return nil, errors.New("issued credential failed verification")
	}
	return vc, nil
}

func (i *Issuer) record(ctx context.Context, types []string, address string, sigType models.SignatureType, responses []models.CredentialResponse) {
	if sigType != models.SignatureEIP712 {
		sigType = models.SignatureEd25519
	}
	addrHash := tracer.HashAddress(address)
	for n, r := range responses {
		event := audit.Event{AddressHash: addrHash, Provider: types[n]}
		if r.OK() {
			event.Action = audit.ActionCredentialIssued
			if i.metrics != nil {
				i.metrics.IncrementCredentialIssued(r.Credential.CredentialSubject.Provider, string(sigType))
			}
		} else {
			event.Action = audit.ActionCredentialFailed
			event.Code = r.Code
			event.Reason = r.Error
			if i.metrics != nil {
				i.metrics.IncrementCredentialFailed(fmt.Sprint(r.Code))
			}
		}
		i.audit.Emit(ctx, event)
	}
	i.logger.InfoContext(ctx, "credentials issued", "address_hash", addrHash, "requested", len(types))
}
