package attestation_test

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/mock/gomock"

	"passport-iam/internal/attestation"
	"passport-iam/internal/identity/models"
	dErrors "passport-iam/pkg/domain-errors"
)

func (s *AttestationSuite) expectLevel(contract string, level int64) {
	s.levels.EXPECT().
		BadgeLevel(gomock.Any(), chainID, common.HexToAddress(contract), common.HexToAddress(recipient)).
		Return(big.NewInt(level), nil)
}

func (s *AttestationSuite) TestComputeBadgeUpgrade() {
	s.Run("claims every level above the on-chain one", func() {
		s.expectLevel(devBadge, 1)
		creds := []models.VerifiableCredential{
			s.credential("l1", "DevL1"),
			s.credential("l3", "DevL3"),
			s.credential("l2", "DevL2"),
		}

		payload, err := s.service.ComputeBadgeUpgrade(s.T().Context(), creds, big.NewInt(9), chainID)
		s.Require().NoError(err)

		reqs := payload.Passport.MultiAttestationRequest
		s.Require().Len(reqs, 1)
		s.Equal(common.HexToHash(badgeSchema), reqs[0].Schema)
		s.Require().Len(reqs[0].Data, 1)
		s.Equal(common.HexToAddress(recipient), reqs[0].Data[0].Recipient)
		s.Equal(attestation.NoExpiration, reqs[0].Data[0].ExpirationTime)

		contract, data, err := attestation.DecodeBadge(reqs[0].Data[0].Data)
		s.Require().NoError(err)
		s.Equal(common.HexToAddress(devBadge), contract)
		s.Equal(int64(3), data.Level.Int64())
		s.Equal([][32]byte{digest("l2"), digest("l3")}, data.Hashes)

		s.Equal(int64(9), payload.Passport.Nonce.Int64())
		s.Empty(payload.InvalidCredentials)
		chain, err := s.chains.Get(chainID)
		s.Require().NoError(err)
		signer, err := attestation.RecoverAttester(chain, payload.Passport, payload.Signature)
		s.Require().NoError(err)
		s.Equal(crypto.PubkeyToAddress(s.key.PublicKey), signer)
	})

	s.Run("a gap in held levels fails the whole request", func() {
		s.expectLevel(devBadge, 1)
		creds := []models.VerifiableCredential{s.credential("l1", "DevL1"), s.credential("l3", "DevL3")}

		_, err := s.service.ComputeBadgeUpgrade(s.T().Context(), creds, big.NewInt(1), chainID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.EqualError(err, "missing credential for level 2, contract "+common.HexToAddress(devBadge).Hex())
	})

	s.Run("contracts already at the held level are skipped", func() {
		s.expectLevel(devBadge, 2)
		s.expectLevel(otherBadge, 0)
		creds := []models.VerifiableCredential{
			s.credential("l1", "DevL1"),
			s.credential("l2", "DevL2"),
			s.credential("o1", "OtherL1"),
		}

		payload, err := s.service.ComputeBadgeUpgrade(s.T().Context(), creds, big.NewInt(1), chainID)
		s.Require().NoError(err)
		s.Require().Len(payload.Passport.MultiAttestationRequest[0].Data, 1)
		contract, data, err := attestation.DecodeBadge(payload.Passport.MultiAttestationRequest[0].Data[0].Data)
		s.Require().NoError(err)
		s.Equal(common.HexToAddress(otherBadge), contract)
		s.Equal([][32]byte{digest("o1")}, data.Hashes)
	})

	s.Run("everything already claimed", func() {
		s.expectLevel(devBadge, 3)
		creds := []models.VerifiableCredential{s.credential("l1", "DevL1")}

		_, err := s.service.ComputeBadgeUpgrade(s.T().Context(), creds, big.NewInt(1), chainID)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.EqualError(err, "All badges already claimed")
	})

	s.Run("invalid and unregistered credentials are reported", func() {
		s.expectLevel(devBadge, 0)
		s.checker.bad["forged"] = true
		defer delete(s.checker.bad, "forged")
		creds := []models.VerifiableCredential{
			s.credential("l1", "DevL1"),
			s.credential("forged", "DevL2"),
			s.credential("github", "Github"),
		}

		payload, err := s.service.ComputeBadgeUpgrade(s.T().Context(), creds, big.NewInt(1), chainID)
		s.Require().NoError(err)
		s.Require().Len(payload.InvalidCredentials, 2)
		s.Equal("forged", payload.InvalidCredentials[0].ID)
		s.Equal("github", payload.InvalidCredentials[1].ID)
	})

	s.Run("no valid credential", func() {
		vc := s.credential("l1", "DevL1")
		vc.Issuer = "did:key:z6MkStranger"

		_, err := s.service.ComputeBadgeUpgrade(s.T().Context(), []models.VerifiableCredential{vc}, big.NewInt(1), chainID)
		var invalid *attestation.InvalidCredentialsError
		s.True(errors.As(err, &invalid))
	})

	s.Run("recipient must be an address", func() {
		vc := s.credential("l1", "DevL1")
		vc.CredentialSubject.ID = "did:pkh:eip155:1:0x1234"

		_, err := s.service.ComputeBadgeUpgrade(s.T().Context(), []models.VerifiableCredential{vc}, big.NewInt(1), chainID)
		s.EqualError(err, "Invalid recipient")
	})

	s.Run("credentials must share a subject", func() {
		other := s.credential("l2", "DevL2")
		other.CredentialSubject.ID = "did:pkh:eip155:1:0x0000000000000000000000000000000000000001"

		_, err := s.service.ComputeBadgeUpgrade(s.T().Context(),
			[]models.VerifiableCredential{s.credential("l1", "DevL1"), other}, big.NewInt(1), chainID)
		s.EqualError(err, "Every credential's id must be equivalent")
	})

	s.Run("subjects are compared by address", func() {
		s.expectLevel(devBadge, 0)
		other := s.credential("l2", "DevL2")
		other.CredentialSubject.ID = "did:pkh:eip155:10:" + recipient

		payload, err := s.service.ComputeBadgeUpgrade(s.T().Context(),
			[]models.VerifiableCredential{s.credential("l1", "DevL1"), other}, big.NewInt(1), chainID)
		s.Require().NoError(err)
		s.Equal(common.HexToAddress(recipient), payload.Passport.MultiAttestationRequest[0].Data[0].Recipient)
	})

	s.Run("a malformed later subject is rejected", func() {
		other := s.credential("l2", "DevL2")
		other.CredentialSubject.ID = "did:pkh:eip155"

		_, err := s.service.ComputeBadgeUpgrade(s.T().Context(),
			[]models.VerifiableCredential{s.credential("l1", "DevL1"), other}, big.NewInt(1), chainID)
		s.EqualError(err, "Every credential's id must be equivalent")
	})

	s.Run("contract limit", func() {
		creds := []models.VerifiableCredential{
			s.credential("l1", "DevL1"),
			s.credential("o1", "OtherL1"),
			s.credential("t1", "ThirdL1"),
		}

		_, err := s.service.ComputeBadgeUpgrade(s.T().Context(), creds, big.NewInt(1), chainID)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("chain read failure propagates", func() {
		s.levels.EXPECT().BadgeLevel(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.External(errors.New("rpc down"), "chain read failed"))

		_, err := s.service.ComputeBadgeUpgrade(s.T().Context(),
			[]models.VerifiableCredential{s.credential("l1", "DevL1")}, big.NewInt(1), chainID)
		s.True(dErrors.HasCode(err, dErrors.CodeExternalService))
	})

	s.Run("unknown chain", func() {
		_, err := s.service.ComputeBadgeUpgrade(s.T().Context(),
			[]models.VerifiableCredential{s.credential("l1", "DevL1")}, big.NewInt(1), "0x1")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
