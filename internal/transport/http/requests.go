package httptransport

import (
	"bytes"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"passport-iam/internal/identity/models"
	dErrors "passport-iam/pkg/domain-errors"
	"passport-iam/pkg/platform/validation"
)

// Nonce accepts a JSON number or a decimal/hex string.
type Nonce struct {
	*big.Int
}

func (n *Nonce) UnmarshalJSON(data []byte) error {
	raw := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if raw == "" || raw == "null" {
		n.Int = nil
		return nil
	}
	v, ok := new(big.Int).SetString(raw, 0)
	if !ok || v.Sign() < 0 {
		return fmt.Errorf("invalid nonce %q", raw)
	}
	n.Int = v
	return nil
}

func (n Nonce) value() *big.Int {
	if n.Int == nil {
		return big.NewInt(0)
	}
	return n.Int
}

type ChallengeRequest struct {
	Payload models.Payload `json:"payload"`
}

type VerifyRequest struct {
	Challenge       *models.VerifiableCredential `json:"challenge"`
	SignedChallenge string                       `json:"signedChallenge"`
	Payload         models.Payload               `json:"payload"`
}

func (r *VerifyRequest) Normalize() {
	r.Payload.Types = nonEmpty(r.Payload.Types)
}

func (r *VerifyRequest) Validate() error {
	if r.Payload.Type == "" && len(r.Payload.Types) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "Invalid payload")
	}
	return checkPayloadLimits(r.Payload)
}

type CheckRequest struct {
	Payload models.Payload `json:"payload"`
}

func (r *CheckRequest) Normalize() {
	r.Payload.Types = nonEmpty(r.Payload.Types)
}

func (r *CheckRequest) Validate() error {
	if len(r.Payload.RequestedTypes()) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "Invalid payload")
	}
	return checkPayloadLimits(r.Payload)
}

func checkPayloadLimits(p models.Payload) error {
	types := p.RequestedTypes()
	if err := validation.CheckSliceCount("types", len(types), validation.MaxTypes); err != nil {
		return err
	}
	if err := validation.CheckEachStringLength("types", types, validation.MaxTypeLength); err != nil {
		return err
	}
	return validation.CheckMapValueLength("proofs", p.Proofs, validation.MaxProofLength)
}

// CheckResult is one entry of the check response.
type CheckResult struct {
	Type  string `json:"type"`
	Valid bool   `json:"valid"`
	Code  int    `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

type ScoreAttestationRequest struct {
	Recipient      string `json:"recipient" validate:"required,eth_addr"`
	ChainIDHex     string `json:"chainIdHex" validate:"required,startswith=0x"`
	Nonce          Nonce  `json:"nonce"`
	CustomScorerID *int64 `json:"customScorerId,omitempty"`
}

type PassportAttestationRequest struct {
	Credentials    []models.VerifiableCredential `json:"credentials"`
	Recipient      string                        `json:"recipient" validate:"required,eth_addr"`
	ChainIDHex     string                        `json:"chainIdHex" validate:"required,startswith=0x"`
	Nonce          Nonce                         `json:"nonce"`
	CustomScorerID *int64                        `json:"customScorerId,omitempty"`
}

func (r *PassportAttestationRequest) Validate() error {
	return validation.CheckSliceCount("credentials", len(r.Credentials), validation.MaxCredentials)
}

type BadgeUpgradeRequest struct {
	Credentials []models.VerifiableCredential `json:"credentials"`
	Nonce       Nonce                         `json:"nonce"`
	ChainIDHex  string                        `json:"chainIdHex" validate:"required,startswith=0x"`
}

func (r *BadgeUpgradeRequest) Validate() error {
	return validation.CheckSliceCount("credentials", len(r.Credentials), validation.MaxCredentials)
}

// EmbedVerifyRequest is a verify request from an embedded widget. The
// passing credentials go straight to the Scorer.
type EmbedVerifyRequest struct {
	Challenge       *models.VerifiableCredential `json:"challenge"`
	SignedChallenge string                       `json:"signedChallenge"`
	Payload         models.Payload               `json:"payload"`
	ScorerID        string                       `json:"scorerId"`
}

func (r *EmbedVerifyRequest) Normalize() {
	r.Payload.Types = nonEmpty(r.Payload.Types)
	r.ScorerID = strings.TrimSpace(r.ScorerID)
}

func (r *EmbedVerifyRequest) Validate() error {
	if len(r.Payload.RequestedTypes()) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "Invalid payload")
	}
	return checkPayloadLimits(r.Payload)
}

type AutoVerificationRequest struct {
	Address  string `json:"address"`
	ScorerID string `json:"scorerId"`
}

func (r *AutoVerificationRequest) Normalize() {
	r.Address = strings.TrimSpace(r.Address)
	r.ScorerID = strings.TrimSpace(r.ScorerID)
}

func (r *AutoVerificationRequest) scorerID() (*int64, error) {
	return parseScorerID(r.ScorerID)
}

func parseScorerID(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "Invalid scorerId")
	}
	return &id, nil
}

func nonEmpty(types []string) []string {
	if types == nil {
		return nil
	}
	out := make([]string, 0, len(types))
	for _, t := range types {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
