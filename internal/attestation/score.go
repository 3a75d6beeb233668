package attestation

import (
	"context"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"passport-iam/internal/audit"
	"passport-iam/internal/platform/tracer"
	"passport-iam/internal/scorer"
	dErrors "passport-iam/pkg/domain-errors"
)

// ScoreAttestationTTL is the fixed lifetime of a score attestation.
const ScoreAttestationTTL = 90 * 24 * time.Hour

const kindScore = "score"

var scoreArguments = mustArguments(
	argument{"passing_score", "bool", nil},
	argument{"score_decimals", "uint8", nil},
	argument{"scorer_id", "uint128", nil},
	argument{"score", "uint32", nil},
	argument{"threshold", "uint32", nil},
	argument{"stamps", "tuple[]", []abi.ArgumentMarshaling{
		{Name: "provider", Type: "string"},
		{Name: "score", Type: "uint256"},
	}},
)

// abiStamp mirrors the (string provider, uint256 score) tuple.
type abiStamp struct {
	Provider string
	Score    *big.Int
}

// BuildScoreAttestation converts a Scorer summary into the attestation tuple.
// Stamps with a zero score or a dedup flag are dropped; order is kept.
func BuildScoreAttestation(score *scorer.PassportScore, scorerID int64) (*ScoreAttestationData, error) {
	value, err := parseUint32("score", score.Score)
	if err != nil {
		return nil, err
	}
	threshold, err := parseUint32("threshold", score.Threshold)
	if err != nil {
		return nil, err
	}
	out := &ScoreAttestationData{
		PassingScore:  score.PassingScore,
		ScoreDecimals: ScoreDecimals,
		ScorerID:      big.NewInt(scorerID),
		Score:         value,
		Threshold:     threshold,
		Stamps:        []StampData{},
	}
	for _, st := range score.Stamps {
		if st.Dedup {
			continue
		}
		v, err := ParseDecimal(st.Score)
		if err != nil {
			return nil, err
		}
		if v.Sign() <= 0 {
			continue
		}
		out.Stamps = append(out.Stamps, StampData{Provider: st.Provider, Score: v})
	}
	return out, nil
}

func parseUint32(field, s string) (uint32, error) {
	v, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() || v.Uint64() > math.MaxUint32 {
		return 0, dErrors.New(dErrors.CodeValidation, field+" out of range")
	}
	return uint32(v.Uint64()), nil
}

// EncodeScore ABI-encodes the score tuple.
func EncodeScore(d *ScoreAttestationData) ([]byte, error) {
	stamps := make([]abiStamp, len(d.Stamps))
	for i, st := range d.Stamps {
		stamps[i] = abiStamp{Provider: st.Provider, Score: st.Score}
	}
	data, err := scoreArguments.Pack(d.PassingScore, d.ScoreDecimals, d.ScorerID, d.Score, d.Threshold, stamps)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode score attestation")
	}
	return data, nil
}

// DecodeScore reverses EncodeScore.
func DecodeScore(data []byte) (*ScoreAttestationData, error) {
	values, err := scoreArguments.Unpack(data)
	if err != nil {
		return nil, err
	}
	out := &ScoreAttestationData{
		PassingScore:  values[0].(bool),
		ScoreDecimals: values[1].(uint8),
		ScorerID:      values[2].(*big.Int),
		Score:         values[3].(uint32),
		Threshold:     values[4].(uint32),
	}
	stamps := *abi.ConvertType(values[5], new([]abiStamp)).(*[]abiStamp)
	out.Stamps = make([]StampData, len(stamps))
	for i, st := range stamps {
		out.Stamps[i] = StampData{Provider: st.Provider, Score: st.Score}
	}
	return out, nil
}

// GetScoreAttestation fetches the recipient's score and returns the unsigned
// score attestation request for chainIDHex. A nil scorerID uses the default.
func (s *Service) GetScoreAttestation(ctx context.Context, recipient, chainIDHex string, scorerID *int64) ([]MultiAttestationRequest, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanScoreAttestation,
		tracer.String(tracer.AttrChainID, chainIDHex),
		tracer.String(tracer.AttrAddressHash, tracer.HashAddress(recipient)),
	)
	reqs, err := s.scoreRequests(ctx, recipient, chainIDHex, scorerID)
	span.End(err)
	if err != nil {
		s.fail(kindScore)
		return nil, err
	}
	return reqs, nil
}

func (s *Service) scoreRequests(ctx context.Context, recipient, chainIDHex string, scorerID *int64) ([]MultiAttestationRequest, error) {
	chain, err := s.chains.Get(chainIDHex)
	if err != nil {
		return nil, err
	}
	to, err := recipientAddress(recipient)
	if err != nil {
		return nil, err
	}
	data, err := s.scoreData(ctx, recipient, scorerID)
	if err != nil {
		return nil, err
	}
	return []MultiAttestationRequest{{Schema: chain.ScoreSchema, Data: []AttestationRequestData{data(to)}}}, nil
}

// scoreData fetches and encodes the score, returning a builder for the
// request entry.
func (s *Service) scoreData(ctx context.Context, recipient string, scorerID *int64) (func(common.Address) AttestationRequestData, error) {
	id := s.scorerID
	if scorerID != nil {
		id = *scorerID
	}
	summary, err := s.scores.FetchScoreV2(ctx, id, recipient)
	if err != nil {
		return nil, err
	}
	tuple, err := BuildScoreAttestation(summary, id)
	if err != nil {
		return nil, err
	}
	encoded, err := EncodeScore(tuple)
	if err != nil {
		return nil, err
	}
	expires := uint64(s.clock.Now().Add(ScoreAttestationTTL).Unix())
	return func(to common.Address) AttestationRequestData {
		return defaultRequestData(to, expires, encoded)
	}, nil
}

// SignedScoreAttestation returns the score attestation signed for submission
// through the verifier contract.
func (s *Service) SignedScoreAttestation(ctx context.Context, recipient, chainIDHex string, nonce *big.Int, scorerID *int64) (*EasPayload, error) {
	reqs, err := s.GetScoreAttestation(ctx, recipient, chainIDHex, scorerID)
	if err != nil {
		return nil, err
	}
	chain, err := s.chains.Get(chainIDHex)
	if err != nil {
		return nil, err
	}
	payload, err := s.sign(ctx, kindScore, chain, reqs, nonce, nil)
	if err != nil {
		return nil, err
	}
	s.audit.Emit(ctx, audit.Event{
		Action:      audit.ActionAttestationScore,
		AddressHash: tracer.HashAddress(recipient),
		Chain:       chainIDHex,
	})
	return payload, nil
}
