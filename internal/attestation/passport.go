package attestation

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"passport-iam/internal/audit"
	"passport-iam/internal/identity/models"
	"passport-iam/internal/platform/config"
	"passport-iam/internal/platform/tracer"
	dErrors "passport-iam/pkg/domain-errors"
)

const kindPassport = "passport"

var passportArguments = mustArguments(
	argument{"providers", "uint256[]", nil},
	argument{"hashes", "bytes32[]", nil},
	argument{"issuanceDates", "uint64[]", nil},
	argument{"expirationDates", "uint64[]", nil},
	argument{"providerMapVersion", "uint16", nil},
)

// PassportAttestationData is the stamp bitmap and the per-stamp columns,
// ordered by (index, bit).
type PassportAttestationData struct {
	Providers          []*big.Int
	Hashes             [][32]byte
	IssuanceDates      []uint64
	ExpirationDates    []uint64
	ProviderMapVersion uint16
}

type stampEntry struct {
	bit        config.StampBit
	hash       [32]byte
	issuance   uint64
	expiration uint64
}

// BuildPassportAttestation places every credential's provider in the bitmap.
// A provider missing from the map fails the whole request.
func BuildPassportAttestation(creds []models.VerifiableCredential, bitMap map[string]config.StampBit, version uint16) (*PassportAttestationData, error) {
	out := &PassportAttestationData{ProviderMapVersion: version}
	entries := make([]stampEntry, 0, len(creds))
	for _, vc := range creds {
		provider := vc.CredentialSubject.Provider
		bit, ok := bitMap[provider]
		if !ok {
			return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("Provider %s not supported. Please contact support.", provider))
		}
		for len(out.Providers) <= bit.Index {
			out.Providers = append(out.Providers, big.NewInt(0))
		}
		out.Providers[bit.Index].SetBit(out.Providers[bit.Index], bit.Bit, 1)

		hash, err := stampHash(vc.CredentialSubject.Hash)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid credential hash")
		}
		entries = append(entries, stampEntry{
			bit:        bit,
			hash:       hash,
			issuance:   uint64(vc.IssuanceDate.Unix()),
			expiration: uint64(vc.ExpirationDate.Unix()),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].bit.Index != entries[j].bit.Index {
			return entries[i].bit.Index < entries[j].bit.Index
		}
		return entries[i].bit.Bit < entries[j].bit.Bit
	})
	for _, e := range entries {
		out.Hashes = append(out.Hashes, e.hash)
		out.IssuanceDates = append(out.IssuanceDates, e.issuance)
		out.ExpirationDates = append(out.ExpirationDates, e.expiration)
	}
	return out, nil
}

func EncodePassport(d *PassportAttestationData) ([]byte, error) {
	providers := d.Providers
	if providers == nil {
		providers = []*big.Int{}
	}
	hashes := d.Hashes
	if hashes == nil {
		hashes = [][32]byte{}
	}
	issued := d.IssuanceDates
	if issued == nil {
		issued = []uint64{}
	}
	expires := d.ExpirationDates
	if expires == nil {
		expires = []uint64{}
	}
	data, err := passportArguments.Pack(providers, hashes, issued, expires, d.ProviderMapVersion)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode passport attestation")
	}
	return data, nil
}

func DecodePassport(data []byte) (*PassportAttestationData, error) {
	values, err := passportArguments.Unpack(data)
	if err != nil {
		return nil, err
	}
	return &PassportAttestationData{
		Providers:          values[0].([]*big.Int),
		Hashes:             values[1].([][32]byte),
		IssuanceDates:      values[2].([]uint64),
		ExpirationDates:    values[3].([]uint64),
		ProviderMapVersion: values[4].(uint16),
	}, nil
}

// PassportAttestation signs a stamp bitmap attestation together with the
// recipient's score. Credentials that do not verify are reported back and
// left out of the bitmap.
func (s *Service) PassportAttestation(ctx context.Context, creds []models.VerifiableCredential, recipient, chainIDHex string, nonce *big.Int, scorerID *int64) (*EasPayload, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanPassport,
		tracer.String(tracer.AttrChainID, chainIDHex),
		tracer.Int(tracer.AttrTypeCount, len(creds)),
	)
	payload, err := s.passportAttestation(ctx, creds, recipient, chainIDHex, nonce, scorerID)
	span.End(err)
	if err != nil {
		s.fail(kindPassport)
		return nil, err
	}
	s.audit.Emit(ctx, audit.Event{
		Action:      audit.ActionAttestationStamps,
		AddressHash: tracer.HashAddress(recipient),
		Chain:       chainIDHex,
	})
	return payload, nil
}

func (s *Service) passportAttestation(ctx context.Context, creds []models.VerifiableCredential, recipient, chainIDHex string, nonce *big.Int, scorerID *int64) (*EasPayload, error) {
	chain, err := s.chains.Get(chainIDHex)
	if err != nil {
		return nil, err
	}
	if len(creds) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "No stamps provided")
	}
	to, err := recipientAddress(recipient)
	if err != nil {
		return nil, err
	}
	valid, invalid := s.partition(ctx, creds, func(models.VerifiableCredential) bool { return true })
	if len(valid) == 0 {
		return nil, &InvalidCredentialsError{Credentials: invalid}
	}
	bitmap, err := BuildPassportAttestation(valid, s.bitMap, s.mapVersion)
	if err != nil {
		return nil, err
	}
	stamps, err := EncodePassport(bitmap)
	if err != nil {
		return nil, err
	}
	score, err := s.scoreData(ctx, recipient, scorerID)
	if err != nil {
		return nil, err
	}
	reqs := []MultiAttestationRequest{
		{Schema: chain.PassportSchema, Data: []AttestationRequestData{defaultRequestData(to, NoExpiration, stamps)}},
		{Schema: chain.ScoreSchema, Data: []AttestationRequestData{score(to)}},
	}
	return s.sign(ctx, kindPassport, chain, reqs, nonce, invalid)
}
