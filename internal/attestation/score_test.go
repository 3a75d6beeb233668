package attestation_test

import (
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/mock/gomock"

	"passport-iam/internal/attestation"
	"passport-iam/internal/scorer"
	dErrors "passport-iam/pkg/domain-errors"
)

func summary() *scorer.PassportScore {
	return &scorer.PassportScore{
		Address:      recipient,
		Score:        "30.10011",
		Threshold:    "20",
		PassingScore: true,
		Stamps: scorer.Stamps{
			{Provider: "Google", Score: "1.99999"},
			{Provider: "Ens", Score: "0"},
			{Provider: "Github", Score: "2.5", Dedup: true},
			{Provider: "Discord", Score: "0.5"},
		},
	}
}

func (s *AttestationSuite) TestBuildScoreAttestation() {
	s.Run("filters zero and dedup stamps keeping order", func() {
		got, err := attestation.BuildScoreAttestation(summary(), 335)
		s.Require().NoError(err)

		s.True(got.PassingScore)
		s.Equal(uint8(4), got.ScoreDecimals)
		s.Equal(uint32(301001), got.Score)
		s.Equal(uint32(200000), got.Threshold)
		s.Equal(int64(335), got.ScorerID.Int64())
		s.Require().Len(got.Stamps, 2)
		s.Equal("Google", got.Stamps[0].Provider)
		s.Equal(int64(19999), got.Stamps[0].Score.Int64())
		s.Equal("Discord", got.Stamps[1].Provider)
		s.Equal(int64(5000), got.Stamps[1].Score.Int64())
	})

	s.Run("score beyond uint32 is rejected", func() {
		in := summary()
		in.Score = "500000.0"
		_, err := attestation.BuildScoreAttestation(in, 1)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("malformed stamp score is rejected", func() {
		in := summary()
		in.Stamps[0].Score = "1e3"
		_, err := attestation.BuildScoreAttestation(in, 1)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *AttestationSuite) TestEncodeScoreDecodes() {
	in, err := attestation.BuildScoreAttestation(summary(), 335)
	s.Require().NoError(err)

	data, err := attestation.EncodeScore(in)
	s.Require().NoError(err)
	out, err := attestation.DecodeScore(data)
	s.Require().NoError(err)

	s.Equal(in.Score, out.Score)
	s.Equal(in.Threshold, out.Threshold)
	s.Equal(0, in.ScorerID.Cmp(out.ScorerID))
	s.Require().Len(out.Stamps, 2)
	s.Equal("Google", out.Stamps[0].Provider)
	s.Equal(int64(19999), out.Stamps[0].Score.Int64())
}

func (s *AttestationSuite) TestGetScoreAttestation() {
	s.Run("builds one request under the score schema", func() {
		s.scores.EXPECT().FetchScoreV2(gomock.Any(), int64(335), recipient).Return(summary(), nil)

		reqs, err := s.service.GetScoreAttestation(s.T().Context(), recipient, chainID, nil)
		s.Require().NoError(err)
		s.Require().Len(reqs, 1)
		s.Equal(common.HexToHash(scoreSchema), reqs[0].Schema)
		s.Require().Len(reqs[0].Data, 1)

		d := reqs[0].Data[0]
		s.Equal(common.HexToAddress(recipient), d.Recipient)
		s.Equal(uint64(s.clock.Now().Add(90*24*time.Hour).Unix()), d.ExpirationTime)
		s.True(d.Revocable)
		s.Equal(common.Hash{}, d.RefUID)
		s.Equal(int64(0), d.Value.Int64())

		decoded, err := attestation.DecodeScore(d.Data)
		s.Require().NoError(err)
		s.Equal(uint32(301001), decoded.Score)
	})

	s.Run("custom scorer id overrides the default", func() {
		custom := int64(7)
		s.scores.EXPECT().FetchScoreV2(gomock.Any(), custom, recipient).Return(summary(), nil)

		reqs, err := s.service.GetScoreAttestation(s.T().Context(), recipient, chainID, &custom)
		s.Require().NoError(err)
		decoded, err := attestation.DecodeScore(reqs[0].Data[0].Data)
		s.Require().NoError(err)
		s.Equal(int64(7), decoded.ScorerID.Int64())
	})

	s.Run("unknown chain is not found", func() {
		_, err := s.service.GetScoreAttestation(s.T().Context(), recipient, "0x1", nil)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.EqualError(err, "No onchainInfo found for chainId 0x1")
	})

	s.Run("scorer failure propagates", func() {
		upstream := dErrors.External(errors.New("502"), "scorer unavailable")
		s.scores.EXPECT().FetchScoreV2(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, upstream)

		_, err := s.service.GetScoreAttestation(s.T().Context(), recipient, chainID, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeExternalService))
	})
}

func (s *AttestationSuite) TestSignedScoreAttestation() {
	s.scores.EXPECT().FetchScoreV2(gomock.Any(), gomock.Any(), gomock.Any()).Return(summary(), nil)

	payload, err := s.service.SignedScoreAttestation(s.T().Context(), recipient, chainID, big.NewInt(4), nil)
	s.Require().NoError(err)

	s.Equal(int64(4), payload.Passport.Nonce.Int64())
	s.Equal(int64(25000), payload.Passport.Fee.Int64())
	s.Empty(payload.InvalidCredentials)

	chain, err := s.chains.Get(chainID)
	s.Require().NoError(err)
	signer, err := attestation.RecoverAttester(chain, payload.Passport, payload.Signature)
	s.Require().NoError(err)
	s.Equal(crypto.PubkeyToAddress(s.key.PublicKey), signer)
}
