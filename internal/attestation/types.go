// Package attestation packages scores and credentials into signed EAS
// attestation requests for the on-chain verifier.
package attestation

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"passport-iam/internal/identity/models"
)

// NoExpiration is EAS's "never expires" marker.
const NoExpiration uint64 = 0

// AttestationRequestData is one EAS attestation.
type AttestationRequestData struct {
	Recipient      common.Address `json:"recipient"`
	ExpirationTime uint64         `json:"expirationTime"`
	Revocable      bool           `json:"revocable"`
	RefUID         common.Hash    `json:"refUID"`
	Data           hexutil.Bytes  `json:"data"`
	Value          *big.Int       `json:"value"`
}

type MultiAttestationRequest struct {
	Schema common.Hash              `json:"schema"`
	Data   []AttestationRequestData `json:"data"`
}

// PassportAttestation is the message the attester signs for the verifier
// contract.
type PassportAttestation struct {
	MultiAttestationRequest []MultiAttestationRequest `json:"multiAttestationRequest"`
	Nonce                   *big.Int                  `json:"nonce"`
	Fee                     *big.Int                  `json:"fee"`
}

type Signature struct {
	V uint8       `json:"v"`
	R common.Hash `json:"r"`
	S common.Hash `json:"s"`
}

// EasPayload is returned to the client, which submits it on chain.
type EasPayload struct {
	Passport           PassportAttestation           `json:"passport"`
	Signature          Signature                     `json:"signature"`
	InvalidCredentials []models.VerifiableCredential `json:"invalidCredentials"`
}

// ScoreAttestationData is the decoded form of a score attestation.
type ScoreAttestationData struct {
	PassingScore  bool
	ScoreDecimals uint8
	ScorerID      *big.Int
	Score         uint32
	Threshold     uint32
	Stamps        []StampData
}

type StampData struct {
	Provider string
	Score    *big.Int
}

// BadgeRequestData is the payload of one badge contract upgrade.
type BadgeRequestData struct {
	Level  *big.Int
	Hashes [][32]byte
}

// InvalidCredentialsError is returned when no submitted credential survives
// verification. Transports render the credentials alongside the message.
type InvalidCredentialsError struct {
	Credentials []models.VerifiableCredential
}

func (e *InvalidCredentialsError) Error() string { return "No valid credentials provided" }

func defaultRequestData(recipient common.Address, expiration uint64, data []byte) AttestationRequestData {
	return AttestationRequestData{
		Recipient:      recipient,
		ExpirationTime: expiration,
		Revocable:      true,
		RefUID:         common.Hash{},
		Data:           data,
		Value:          big.NewInt(0),
	}
}
