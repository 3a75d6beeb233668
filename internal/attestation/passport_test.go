package attestation_test

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/mock/gomock"

	"passport-iam/internal/attestation"
	"passport-iam/internal/identity/models"
	"passport-iam/internal/platform/config"
	dErrors "passport-iam/pkg/domain-errors"
)

func bitMap() map[string]config.StampBit {
	return map[string]config.StampBit{
		"Github": {Name: "Github", Index: 0, Bit: 3},
		"Google": {Name: "Google", Index: 0, Bit: 1},
		"Ens":    {Name: "Ens", Index: 1, Bit: 0},
	}
}

func (s *AttestationSuite) TestBuildPassportAttestation() {
	s.Run("sets provider bits and sorts by index then bit", func() {
		creds := []models.VerifiableCredential{
			s.credential("ens", "Ens"),
			s.credential("github", "Github"),
			s.credential("google", "Google"),
		}
		got, err := attestation.BuildPassportAttestation(creds, bitMap(), 2)
		s.Require().NoError(err)

		s.Require().Len(got.Providers, 2)
		s.Equal(int64(0b1010), got.Providers[0].Int64())
		s.Equal(int64(1), got.Providers[1].Int64())
		s.Equal([][32]byte{digest("google"), digest("github"), digest("ens")}, got.Hashes)
		s.Equal(uint64(creds[0].IssuanceDate.Unix()), got.IssuanceDates[0])
		s.Equal(uint64(creds[0].ExpirationDate.Unix()), got.ExpirationDates[2])
		s.Equal(uint16(2), got.ProviderMapVersion)
	})

	s.Run("unknown provider fails the request", func() {
		_, err := attestation.BuildPassportAttestation(
			[]models.VerifiableCredential{s.credential("x", "Twitter")}, bitMap(), 0)
		s.EqualError(err, "Provider Twitter not supported. Please contact support.")
	})

	s.Run("hash without version prefix is rejected", func() {
		vc := s.credential("google", "Google")
		vc.CredentialSubject.Hash = "not-a-hash"
		_, err := attestation.BuildPassportAttestation([]models.VerifiableCredential{vc}, bitMap(), 0)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *AttestationSuite) TestEncodePassportDecodes() {
	in, err := attestation.BuildPassportAttestation(
		[]models.VerifiableCredential{s.credential("google", "Google"), s.credential("ens", "Ens")}, bitMap(), 2)
	s.Require().NoError(err)

	data, err := attestation.EncodePassport(in)
	s.Require().NoError(err)
	out, err := attestation.DecodePassport(data)
	s.Require().NoError(err)

	s.Equal(in.Hashes, out.Hashes)
	s.Equal(in.IssuanceDates, out.IssuanceDates)
	s.Equal(uint16(2), out.ProviderMapVersion)
	s.Require().Len(out.Providers, 2)
	s.Equal(0, in.Providers[0].Cmp(out.Providers[0]))
}

func (s *AttestationSuite) TestPassportAttestation() {
	s.Run("returns passport then score requests", func() {
		s.checker.bad["github"] = true
		defer delete(s.checker.bad, "github")
		s.scores.EXPECT().FetchScoreV2(gomock.Any(), int64(335), recipient).Return(summary(), nil)

		creds := []models.VerifiableCredential{s.credential("google", "Google"), s.credential("github", "Github")}
		payload, err := s.service.PassportAttestation(s.T().Context(), creds, recipient, chainID, big.NewInt(1), nil)
		s.Require().NoError(err)

		reqs := payload.Passport.MultiAttestationRequest
		s.Require().Len(reqs, 2)
		s.Equal(common.HexToHash(passportSchema), reqs[0].Schema)
		s.Equal(common.HexToHash(scoreSchema), reqs[1].Schema)
		s.Equal(attestation.NoExpiration, reqs[0].Data[0].ExpirationTime)

		stamps, err := attestation.DecodePassport(reqs[0].Data[0].Data)
		s.Require().NoError(err)
		s.Equal([][32]byte{digest("google")}, stamps.Hashes)

		s.Require().Len(payload.InvalidCredentials, 1)
		s.Equal("github", payload.InvalidCredentials[0].ID)
	})

	s.Run("no valid credential", func() {
		vc := s.credential("google", "Google")
		vc.Issuer = "did:key:z6MkStranger"

		_, err := s.service.PassportAttestation(s.T().Context(), []models.VerifiableCredential{vc}, recipient, chainID, nil, nil)
		var invalid *attestation.InvalidCredentialsError
		s.Require().True(errors.As(err, &invalid))
		s.Len(invalid.Credentials, 1)
	})

	s.Run("empty credentials", func() {
		_, err := s.service.PassportAttestation(s.T().Context(), nil, recipient, chainID, nil, nil)
		s.EqualError(err, "No stamps provided")
	})

	s.Run("invalid recipient", func() {
		_, err := s.service.PassportAttestation(s.T().Context(),
			[]models.VerifiableCredential{s.credential("google", "Google")}, "0x123", chainID, nil, nil)
		s.EqualError(err, "Invalid recipient")
	})
}
