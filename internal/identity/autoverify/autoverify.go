// Package autoverify checks every EVM provider for an address without user
// interaction and pushes the passing stamps to the Scorer.
package autoverify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"passport-iam/internal/audit"
	"passport-iam/internal/identity/models"
	"passport-iam/internal/platform/tracer"
	"passport-iam/internal/scorer"
	dErrors "passport-iam/pkg/domain-errors"
)

const (
	bulkType    = "EVMBulkVerify"
	bulkVersion = "0.0.0"
)

// TypeLister lists the provider types that only need an address.
type TypeLister interface {
	EVMTypes() []string
}

type CredentialIssuer interface {
	IssueCredentials(ctx context.Context, types []string, address string, payload models.Payload) ([]models.CredentialResponse, error)
}

type StampSubmitter interface {
	SubmitStamps(ctx context.Context, address string, req scorer.SubmitStampsRequest) (*scorer.PassportScore, error)
}

// Result is the auto-verification body: the refreshed score next to the
// credentials that were submitted and the providers that failed.
type Result struct {
	Score     string `json:"score"`
	Threshold string `json:"threshold"`
	models.CredentialSet
}

// EmbedResult is the embed verification body.
type EmbedResult struct {
	Score *scorer.PassportScore `json:"score"`
	models.CredentialSet
}

type Service struct {
	types     TypeLister
	issuer    CredentialIssuer
	submitter StampSubmitter
	scorerID  int64
	logger    *slog.Logger
	audit     *audit.Publisher
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithAudit(p *audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

func New(types TypeLister, issuer CredentialIssuer, submitter StampSubmitter, scorerID int64, opts ...Option) *Service {
	s := &Service{
		types:     types,
		issuer:    issuer,
		submitter: submitter,
		scorerID:  scorerID,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AutoVerify issues EIP-712 credentials for every passing EVM provider and
// submits them under scorerID, or the default scorer when nil.
func (s *Service) AutoVerify(ctx context.Context, address string, scorerID *int64) (*Result, error) {
	if !common.IsHexAddress(address) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "Invalid address")
	}
	address = strings.ToLower(address)

	types := s.types.EVMTypes()
	set, score, err := s.issueAndSubmit(ctx, address, models.Payload{
		Address: address,
		Type:    bulkType,
		Types:   types,
		Version: bulkVersion,
	}, s.resolveScorer(scorerID))
	if err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, audit.Event{
		Action:      audit.ActionAutoVerification,
		AddressHash: tracer.HashAddress(address),
	})
	return &Result{Score: score.Score, Threshold: score.Threshold, CredentialSet: set}, nil
}

// EmbedVerify issues the types named by an authenticated embed request,
// submits the passing credentials and reports the rest per provider.
func (s *Service) EmbedVerify(ctx context.Context, address string, payload models.Payload, scorerID *int64) (*EmbedResult, error) {
	if !common.IsHexAddress(address) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "Invalid address")
	}
	address = strings.ToLower(address)
	payload.Address = address
	payload.Types = payload.RequestedTypes()
	if len(payload.Types) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "Invalid payload")
	}

	set, score, err := s.issueAndSubmit(ctx, address, payload, s.resolveScorer(scorerID))
	if err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, audit.Event{
		Action:      audit.ActionEmbedVerification,
		AddressHash: tracer.HashAddress(address),
	})
	return &EmbedResult{Score: score, CredentialSet: set}, nil
}

func (s *Service) resolveScorer(scorerID *int64) int64 {
	if scorerID != nil {
		return *scorerID
	}
	return s.scorerID
}

// issueAndSubmit issues payload.Types as EIP-712 credentials and stores the
// passing ones with the Scorer, even when none passed.
func (s *Service) issueAndSubmit(ctx context.Context, address string, payload models.Payload, scorerID int64) (models.CredentialSet, *scorer.PassportScore, error) {
	set := models.SplitResponses(nil, nil)
	if len(payload.Types) > 0 {
		payload.SignatureType = models.SignatureEIP712
		responses, err := s.issuer.IssueCredentials(ctx, payload.Types, address, payload)
		if err != nil {
			return set, nil, err
		}
		set = models.SplitResponses(payload.Types, responses)
	}

	score, err := s.submitter.SubmitStamps(ctx, address, scorer.SubmitStampsRequest{Stamps: set.Credentials, ScorerID: scorerID})
	if err != nil {
		return set, nil, err
	}
	s.logger.InfoContext(ctx, "stamps submitted",
		"address_hash", tracer.HashAddress(address),
		"checked", len(payload.Types),
		"stamps", len(set.Credentials),
		"failed", len(set.CredentialErrors),
	)
	return set, score, nil
}
