package attestation

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"

	"passport-iam/internal/audit"
	"passport-iam/internal/identity/models"
	"passport-iam/internal/platform/config"
	"passport-iam/internal/platform/tracer"
	dErrors "passport-iam/pkg/domain-errors"
)

// CredentialChecker validates credentials submitted for on-chain attestation.
type CredentialChecker interface {
	VerifyCredential(ctx context.Context, vc *models.VerifiableCredential) bool
	HasValidIssuer(issuer string) bool
}

// Metrics is the subset of service metrics the attestation paths record.
type Metrics interface {
	IncrementAttestationSigned(kind, chain string)
	IncrementAttestationError(kind string)
}

type badgeProvider struct {
	contract common.Address
	level    int64
}

// Service builds and signs EAS attestation requests.
type Service struct {
	chains       *ChainRegistry
	scores       ScoreSource
	levels       LevelReader
	signer       Signer
	checker      CredentialChecker
	scorerID     int64
	badges       map[string]badgeProvider
	badgeSchema  common.Hash
	maxContracts int
	bitMap       map[string]config.StampBit
	mapVersion   uint16
	clock        clock.Clock
	logger       *slog.Logger
	tracer       tracer.Tracer
	metrics      Metrics
	audit        *audit.Publisher
}

// Config carries the static attestation settings.
type Config struct {
	ScorerID int64
	Badges   config.Badges
	Passport config.Passport
}

type Option func(*Service)

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAudit(p *audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

func NewService(chains *ChainRegistry, scores ScoreSource, levels LevelReader, signer Signer, checker CredentialChecker, cfg Config, opts ...Option) (*Service, error) {
	s := &Service{
		chains:       chains,
		scores:       scores,
		levels:       levels,
		signer:       signer,
		checker:      checker,
		scorerID:     cfg.ScorerID,
		badges:       make(map[string]badgeProvider, len(cfg.Badges.Providers)),
		badgeSchema:  common.HexToHash(cfg.Badges.SchemaUID),
		maxContracts: cfg.Badges.MaxContracts,
		bitMap:       make(map[string]config.StampBit, len(cfg.Passport.ProviderBitMap)),
		mapVersion:   cfg.Passport.ProviderMapVersion,
		clock:        clock.New(),
		logger:       slog.Default(),
		tracer:       tracer.NewNoop(),
	}
	for name, b := range cfg.Badges.Providers {
		if !common.IsHexAddress(b.ContractAddress) {
			return nil, fmt.Errorf("badge provider %s: invalid contract address %q", name, b.ContractAddress)
		}
		s.badges[name] = badgeProvider{contract: common.HexToAddress(b.ContractAddress), level: b.Level}
	}
	for _, bit := range cfg.Passport.ProviderBitMap {
		if bit.Bit < 0 || bit.Bit > 255 || bit.Index < 0 {
			return nil, fmt.Errorf("provider bit map %s: bit %d index %d out of range", bit.Name, bit.Bit, bit.Index)
		}
		s.bitMap[bit.Name] = bit
	}
	if s.maxContracts <= 0 {
		s.maxContracts = 10
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// recipientAddress validates a recipient given as a bare 0x address.
func recipientAddress(raw string) (common.Address, error) {
	if len(raw) != 42 || !strings.HasPrefix(raw, "0x") || !common.IsHexAddress(raw) {
		return common.Address{}, dErrors.New(dErrors.CodeBadRequest, "Invalid recipient")
	}
	return common.HexToAddress(raw), nil
}

// sign wraps requests into a PassportAttestation and signs it for chain.
func (s *Service) sign(ctx context.Context, kind string, chain *Chain, reqs []MultiAttestationRequest, nonce *big.Int, invalid []models.VerifiableCredential) (*EasPayload, error) {
	att := PassportAttestation{
		MultiAttestationRequest: reqs,
		Nonce:                   orZero(nonce),
		Fee:                     new(big.Int).Set(chain.Fee),
	}
	sig, err := s.signer.Sign(ctx, chain, att)
	if err != nil {
		s.fail(kind)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "sign attestation")
	}
	if s.metrics != nil {
		s.metrics.IncrementAttestationSigned(kind, chain.IDHex)
	}
	if invalid == nil {
		invalid = []models.VerifiableCredential{}
	}
	return &EasPayload{Passport: att, Signature: sig, InvalidCredentials: invalid}, nil
}

func (s *Service) fail(kind string) {
	if s.metrics != nil {
		s.metrics.IncrementAttestationError(kind)
	}
}

// partition splits credentials into those that verify and those that do not.
func (s *Service) partition(ctx context.Context, creds []models.VerifiableCredential, accept func(models.VerifiableCredential) bool) (valid, invalid []models.VerifiableCredential) {
	for i := range creds {
		vc := creds[i]
		if s.checker.HasValidIssuer(vc.Issuer) && s.checker.VerifyCredential(ctx, &vc) && accept(vc) {
			valid = append(valid, vc)
			continue
		}
		invalid = append(invalid, vc)
	}
	return valid, invalid
}

// stampHash decodes the 32-byte digest carried in a credential hash of the
// form "v0.0.0:<base64>".
func stampHash(hash string) ([32]byte, error) {
	var out [32]byte
	_, encoded, ok := strings.Cut(hash, ":")
	if !ok {
		return out, fmt.Errorf("credential hash %q has no version prefix", hash)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return out, fmt.Errorf("decode credential hash: %w", err)
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("credential hash is %d bytes, want %d", len(raw), len(out))
	}
	copy(out[:], raw)
	return out, nil
}
