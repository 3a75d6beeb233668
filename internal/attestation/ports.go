package attestation

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"passport-iam/internal/scorer"
)

// Signer produces the attester signature over a passport attestation.
type Signer interface {
	Sign(ctx context.Context, chain *Chain, att PassportAttestation) (Signature, error)
}

// ScoreSource fetches the v2 score summary for an address.
type ScoreSource interface {
	FetchScoreV2(ctx context.Context, scorerID int64, address string) (*scorer.PassportScore, error)
}

// LevelReader reads a user's current level from a badge contract.
type LevelReader interface {
	BadgeLevel(ctx context.Context, chainIDHex string, contract, user common.Address) (*big.Int, error)
}
