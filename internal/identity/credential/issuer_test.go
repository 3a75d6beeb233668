package credential

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"

	"passport-iam/internal/audit"
	"passport-iam/internal/identity/models"
	"passport-iam/internal/identity/verification/orchestrator"
	"passport-iam/internal/identity/verification/providers"
	"passport-iam/internal/platform/config"
	"passport-iam/internal/scorer"
	dErrors "passport-iam/pkg/domain-errors"
)

const testAddress = "0xAbC0000000000000000000000000000000000001"

type IssuerSuite struct {
	suite.Suite
	clock    *clock.Mock
	keys     *Keys
	verifier *Verifier
	types    *fakeTypes
	events   *audit.InMemoryStore
	issuer   *Issuer
}

func TestIssuerSuite(t *testing.T) {
	suite.Run(t, new(IssuerSuite))
}

func (s *IssuerSuite) SetupTest() {
	s.clock = clock.NewMock()
	s.clock.Set(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	s.keys = testKeys(s.T())
	dids, err := s.keys.DIDs()
	s.Require().NoError(err)
	s.verifier = NewVerifier(dids, WithVerifierClock(s.clock))
	s.types = &fakeTypes{}
	s.events = audit.NewInMemoryStore()
	s.issuer = s.newIssuer()
}

func (s *IssuerSuite) newIssuer(opts ...IssuerOption) *Issuer {
	base := []IssuerOption{
		WithClock(s.clock),
		WithNonce(func() (string, error) { return "c0ffee", nil }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAudit(audit.NewPublisher(s.events)),
	}
	issuer, err := NewIssuer(s.types, s.keys, s.verifier, append(base, opts...)...)
	s.Require().NoError(err)
	return issuer
}

func valid(providerType string, record map[string]string) models.VerifyTypeResult {
	return models.VerifyTypeResult{Type: providerType, Result: models.VerifiedPayload{Valid: true, Record: record}}
}

func (s *IssuerSuite) TestIssueCredentials() {
	s.types.results = []models.VerifyTypeResult{
		valid("Simple", map[string]string{"username": "alice"}),
		{Type: "Github", Code: 403, Error: "bad"},
	}
	payload := models.Payload{Address: testAddress, Types: []string{"Simple", "Github"}}

	out, err := s.issuer.IssueCredentials(context.Background(), payload.Types, testAddress, payload)
	s.Require().NoError(err)
	s.Require().Len(out, 2)

	vc := out[0].Credential
	s.Require().NotNil(vc)
	s.Equal("did:pkh:eip155:1:0xabc0000000000000000000000000000000000001", vc.CredentialSubject.ID)
	s.Equal("Simple", vc.CredentialSubject.Provider)
	s.True(strings.HasPrefix(vc.Issuer, "did:key:"))
	s.Equal(s.clock.Now(), vc.IssuanceDate)
	s.Equal(s.clock.Now().Add(90*24*time.Hour), vc.ExpirationDate)
	s.Empty(vc.CredentialSubject.Nullifiers)

	wantHash, err := Hash(s.keys.HashKeys[0], ProofRecord{"type": "Simple", "version": "0.0.0", "username": "alice"})
	s.Require().NoError(err)
	s.Equal(wantHash, vc.CredentialSubject.Hash)
	s.Equal(map[string]string{"type": "Simple", "version": "0.0.0", "username": "alice"}, out[0].Record)
	s.True(s.verifier.VerifyCredential(context.Background(), vc))

	s.Equal(models.CredentialResponse{Error: "bad", Code: 403}, out[1])

	s.Len(s.events.ByAction(audit.ActionCredentialIssued), 1)
	failed := s.events.ByAction(audit.ActionCredentialFailed)
	s.Require().Len(failed, 1)
	s.Equal("Github", failed[0].Provider)
}

func (s *IssuerSuite) TestIdenticalProofsShareHash() {
	s.types.results = []models.VerifyTypeResult{valid("Simple", map[string]string{"username": "alice"})}
	payload := models.Payload{Address: testAddress, Type: "Simple"}

	first, err := s.issuer.IssueSingle(context.Background(), testAddress, payload)
	s.Require().NoError(err)
	s.clock.Add(time.Hour)
	second, err := s.issuer.IssueSingle(context.Background(), testAddress, payload)
	s.Require().NoError(err)

	s.NotEqual(first.Credential.ID, second.Credential.ID)
	s.Equal(first.Credential.CredentialSubject.Hash, second.Credential.CredentialSubject.Hash)
}

func (s *IssuerSuite) TestNullifiers() {
	s.Run("one per hash key", func() {
		s.keys.HashKeys = []config.HashKey{{Version: "0.0.0", Secret: "old"}, {Version: "1.0.0", Secret: "new"}}
		s.types.results = []models.VerifyTypeResult{valid("Simple", nil)}

		out, err := s.issuer.IssueCredentials(context.Background(), []string{"Simple"}, testAddress, models.Payload{})
		s.Require().NoError(err)
		sub := out[0].Credential.CredentialSubject
		s.Require().Len(sub.Nullifiers, 2)
		s.Equal(sub.Hash, sub.Nullifiers[0])
		s.True(strings.HasPrefix(sub.Nullifiers[1], "v1.0.0:"))
	})

	s.Run("external nullifier appended", func() {
		s.keys.HashKeys = s.keys.HashKeys[:1]
		result := valid("Simple", nil)
		result.Result.Nullifier = func(_ context.Context, record map[string]string) (string, error) {
			return "v0.0.0:external-" + record["type"], nil
		}
		s.types.results = []models.VerifyTypeResult{result}

		out, err := s.issuer.IssueCredentials(context.Background(), []string{"Simple"}, testAddress, models.Payload{})
		s.Require().NoError(err)
		s.Equal([]string{out[0].Credential.CredentialSubject.Hash, "v0.0.0:external-Simple"}, out[0].Credential.CredentialSubject.Nullifiers)
	})

	s.Run("external nullifier failure", func() {
		result := valid("Simple", nil)
		result.Result.Nullifier = func(context.Context, map[string]string) (string, error) {
			return "", errors.New("network unavailable")
		}
		s.types.results = []models.VerifyTypeResult{result}

		out, err := s.issuer.IssueCredentials(context.Background(), []string{"Simple"}, testAddress, models.Payload{})
		s.Require().NoError(err)
		s.Equal(models.CredentialResponse{Error: ErrUnableToProduce, Code: 500}, out[0])
	})
}

func (s *IssuerSuite) TestSignatureTypeAndTTL() {
	result := valid("Simple", nil)
	result.Result.ExpiresInSeconds = 3600
	s.types.results = []models.VerifyTypeResult{result}
	payload := models.Payload{SignatureType: models.SignatureEIP712}

	out, err := s.issuer.IssueCredentials(context.Background(), []string{"Simple"}, testAddress, payload)
	s.Require().NoError(err)
	vc := out[0].Credential
	s.True(strings.HasPrefix(vc.Issuer, "did:ethr:0x"))
	s.Equal(ProofTypeEIP712, vc.Proof.Type)
	s.Equal(s.clock.Now().Add(time.Hour), vc.ExpirationDate)

	s.keys.EIP712 = nil
	withoutKey := s.newIssuer()
	out, err = withoutKey.IssueCredentials(context.Background(), []string{"Simple"}, testAddress, payload)
	s.Require().NoError(err)
	s.Equal(500, out[0].Code)
}

func (s *IssuerSuite) TestIssueCredentialsPropagatesCancellation() {
	s.types.err = context.Canceled
	_, err := s.issuer.IssueCredentials(context.Background(), []string{"Simple"}, testAddress, models.Payload{})
	s.ErrorIs(err, context.Canceled)
}

func (s *IssuerSuite) TestIssueSingle() {
	s.Run("missing type", func() {
		_, err := s.issuer.IssueSingle(context.Background(), testAddress, models.Payload{Address: testAddress})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.EqualError(err, "Invalid payload")
	})

	s.Run("failure carries the provider code", func() {
		s.types.results = []models.VerifyTypeResult{{Type: "Simple", Code: 403, Error: "Proof is not valid"}}
		_, err := s.issuer.IssueSingle(context.Background(), testAddress, models.Payload{Type: "Simple"})
		var respErr *models.ResponseError
		s.Require().ErrorAs(err, &respErr)
		s.Equal(403, respErr.Code)
		s.Equal("Proof is not valid", respErr.Message)
	})
}

func (s *IssuerSuite) TestIssueChallenge() {
	out, err := s.issuer.IssueChallenge(context.Background(), models.Payload{Address: testAddress, Type: "Simple"})
	s.Require().NoError(err)

	vc := out.Credential
	s.Equal("challenge-Simple", vc.CredentialSubject.Provider)
	s.Equal(strings.ToLower(testAddress), vc.CredentialSubject.Address)
	s.Equal(ChallengeMessage("Simple", "c0ffee"), vc.CredentialSubject.Challenge)
	s.Equal(s.clock.Now().Add(60*time.Second), vc.ExpirationDate)
	s.True(s.verifier.VerifyCredential(context.Background(), vc))

	s.clock.Add(61 * time.Second)
	s.False(s.verifier.VerifyCredential(context.Background(), vc))

	for _, p := range []models.Payload{{Address: testAddress}, {Type: "Simple"}} {
		_, err := s.issuer.IssueChallenge(context.Background(), p)
		s.EqualError(err, "Invalid payload")
	}
}

func (s *IssuerSuite) TestVerifyAdditionalSigner() {
	w, signerAddress := newWallet(s.T())
	challenge, err := s.issuer.IssueChallenge(context.Background(), models.Payload{Address: signerAddress, Type: "any"})
	s.Require().NoError(err)
	signature := w.sign(challenge.Credential.CredentialSubject.Challenge)

	s.Run("accepts the signing wallet", func() {
		got, err := s.issuer.VerifyAdditionalSigner(context.Background(), models.SignerPayload{
			Address:   signerAddress,
			Signature: signature,
			Challenge: challenge.Credential,
		})
		s.Require().NoError(err)
		s.Equal(strings.ToLower(signerAddress), got)
	})

	s.Run("rejects another address", func() {
		_, err := s.issuer.VerifyAdditionalSigner(context.Background(), models.SignerPayload{
			Address:   testAddress,
			Signature: signature,
			Challenge: challenge.Credential,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.EqualError(err, "Unable to verify payload signer")
	})

	s.Run("rejects an expired challenge", func() {
		s.clock.Add(2 * time.Minute)
		_, err := s.issuer.VerifyAdditionalSigner(context.Background(), models.SignerPayload{
			Address:   signerAddress,
			Signature: signature,
			Challenge: challenge.Credential,
		})
		s.EqualError(err, "Unable to verify payload signer")
	})
}

func (s *IssuerSuite) TestBannedCredentialsReplaced() {
	s.types.results = []models.VerifyTypeResult{valid("Simple", map[string]string{"username": "alice"})}
	hash, err := Hash(s.keys.HashKeys[0], ProofRecord{"type": "Simple", "version": "0.0.0", "username": "alice"})
	s.Require().NoError(err)

	source := &fakeBanSource{bans: map[string]scorer.Ban{hash: {Hash: hash, IsBanned: true, BanType: "account"}}}
	issuer := s.newIssuer(WithBanFilter(NewBanFilter(source)))

	out, err := issuer.IssueCredentials(context.Background(), []string{"Simple"}, testAddress, models.Payload{})
	s.Require().NoError(err)
	s.Equal(models.CredentialResponse{Error: "Credential is banned. Type=account, End=indefinite,", Code: 403}, out[0])
}

type scriptedProvider struct {
	providerType string
	result       models.VerifiedPayload
	panicWith    any
}

func (p scriptedProvider) Type() string { return p.providerType }

func (p scriptedProvider) Verify(context.Context, models.Payload, models.ProviderContext) (models.VerifiedPayload, error) {
	if p.panicWith != nil {
		panic(p.panicWith)
	}
	return p.result, nil
}

func (s *IssuerSuite) TestEndToEndMixedResults() {
	registry := providers.NewRegistry()
	s.Require().NoError(registry.Register("P", scriptedProvider{providerType: "p1", result: models.VerifiedPayload{Valid: true, Record: map[string]string{"id": "1"}}}))
	s.Require().NoError(registry.Register("P", scriptedProvider{providerType: "p2", result: models.VerifiedPayload{Valid: false, Errors: []string{"bad"}}}))
	s.Require().NoError(registry.Register("Q", scriptedProvider{providerType: "p3", panicWith: "boom"}))

	issuer, err := NewIssuer(orchestrator.New(registry), s.keys, s.verifier, WithClock(s.clock))
	s.Require().NoError(err)

	types := []string{"p1", "p2", "p3"}
	out, err := issuer.IssueCredentials(context.Background(), types, testAddress, models.Payload{Address: testAddress, Types: types})
	s.Require().NoError(err)
	s.Require().Len(out, 3)

	s.True(out[0].OK())
	s.Equal("p1", out[0].Credential.CredentialSubject.Provider)
	s.Equal(models.CredentialResponse{Error: "bad", Code: 403}, out[1])
	s.Equal(models.CredentialResponse{Error: "Unable to verify provider", Code: 400}, out[2])
}
