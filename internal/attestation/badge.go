package attestation

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"passport-iam/internal/audit"
	"passport-iam/internal/identity/models"
	"passport-iam/internal/platform/tracer"
	dErrors "passport-iam/pkg/domain-errors"
)

const kindBadge = "badge"

var (
	badgeArguments = mustArguments(
		argument{"badge", "address", nil},
		argument{"payload", "bytes", nil},
	)
	badgePayloadArguments = mustArguments(
		argument{"level", "uint256", nil},
		argument{"hashes", "bytes32[]", nil},
	)
)

// badgeClaim collects the held levels of one badge contract.
type badgeClaim struct {
	contract common.Address
	hashes   map[int64][32]byte
	maxHeld  int64
	onchain  *big.Int
}

// EncodeBadge ABI-encodes the attestation data of one contract upgrade.
func EncodeBadge(contract common.Address, d BadgeRequestData) ([]byte, error) {
	hashes := d.Hashes
	if hashes == nil {
		hashes = [][32]byte{}
	}
	payload, err := badgePayloadArguments.Pack(d.Level, hashes)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode badge payload")
	}
	data, err := badgeArguments.Pack(contract, payload)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode badge attestation")
	}
	return data, nil
}

func DecodeBadge(data []byte) (common.Address, *BadgeRequestData, error) {
	outer, err := badgeArguments.Unpack(data)
	if err != nil {
		return common.Address{}, nil, err
	}
	inner, err := badgePayloadArguments.Unpack(outer[1].([]byte))
	if err != nil {
		return common.Address{}, nil, err
	}
	return outer[0].(common.Address), &BadgeRequestData{
		Level:  inner[0].(*big.Int),
		Hashes: inner[1].([][32]byte),
	}, nil
}

// badgeRecipient extracts the address from a did:pkh:eip155:1:<address>
// subject id.
func badgeRecipient(subjectID string) (string, error) {
	parts := strings.Split(subjectID, ":")
	if len(parts) < 5 {
		return "", dErrors.New(dErrors.CodeBadRequest, "Invalid recipient")
	}
	recipient := parts[4]
	if len(recipient) != 42 || !strings.HasPrefix(recipient, "0x") || !common.IsHexAddress(recipient) {
		return "", dErrors.New(dErrors.CodeBadRequest, "Invalid recipient")
	}
	return recipient, nil
}

// ComputeBadgeUpgrade signs the badge level upgrades the credentials entitle
// their holder to. Levels must be claimed contiguously from the on-chain
// level: a gap fails the whole request.
func (s *Service) ComputeBadgeUpgrade(ctx context.Context, creds []models.VerifiableCredential, nonce *big.Int, chainIDHex string) (*EasPayload, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanBadgeUpgrade,
		tracer.String(tracer.AttrChainID, chainIDHex),
		tracer.Int(tracer.AttrTypeCount, len(creds)),
	)
	payload, recipient, err := s.computeBadgeUpgrade(ctx, creds, nonce, chainIDHex)
	span.End(err)
	if err != nil {
		s.fail(kindBadge)
		s.logger.WarnContext(ctx, "badge upgrade rejected", "chain", chainIDHex, "error", err)
		return nil, err
	}
	s.audit.Emit(ctx, audit.Event{
		Action:      audit.ActionAttestationBadge,
		AddressHash: tracer.HashAddress(recipient),
		Chain:       chainIDHex,
	})
	return payload, nil
}

func (s *Service) computeBadgeUpgrade(ctx context.Context, creds []models.VerifiableCredential, nonce *big.Int, chainIDHex string) (*EasPayload, string, error) {
	chain, err := s.chains.Get(chainIDHex)
	if err != nil {
		return nil, "", err
	}
	if len(creds) == 0 {
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "No stamps provided")
	}
	recipient, err := badgeRecipient(creds[0].CredentialSubject.ID)
	if err != nil {
		return nil, "", err
	}
	for _, vc := range creds[1:] {
		if other, err := badgeRecipient(vc.CredentialSubject.ID); err != nil || other != recipient {
			return nil, "", dErrors.New(dErrors.CodeBadRequest, "Every credential's id must be equivalent")
		}
	}

	valid, invalid := s.partition(ctx, creds, func(vc models.VerifiableCredential) bool {
		_, ok := s.badges[vc.CredentialSubject.Provider]
		return ok
	})
	if len(valid) == 0 {
		return nil, "", &InvalidCredentialsError{Credentials: invalid}
	}

	claims, err := s.groupClaims(valid)
	if err != nil {
		return nil, "", err
	}
	if len(claims) > s.maxContracts {
		return nil, "", dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("Too many badge contracts: %d, at most %d per request", len(claims), s.maxContracts))
	}
	user := common.HexToAddress(recipient)
	if err := s.readLevels(ctx, chainIDHex, user, claims); err != nil {
		return nil, "", err
	}

	var data []AttestationRequestData
	for _, c := range claims {
		req, ok, err := upgradeRequest(c)
		if err != nil {
			return nil, "", err
		}
		if !ok {
			continue
		}
		encoded, err := EncodeBadge(c.contract, req)
		if err != nil {
			return nil, "", err
		}
		data = append(data, defaultRequestData(user, NoExpiration, encoded))
	}
	if len(data) == 0 {
		return nil, "", dErrors.New(dErrors.CodeBadRequest, "All badges already claimed")
	}

	reqs := []MultiAttestationRequest{{Schema: s.badgeSchema, Data: data}}
	payload, err := s.sign(ctx, kindBadge, chain, reqs, nonce, invalid)
	if err != nil {
		return nil, "", err
	}
	return payload, recipient, nil
}

// groupClaims groups credentials by contract in order of first appearance.
// A repeated level keeps the first credential's hash.
func (s *Service) groupClaims(creds []models.VerifiableCredential) ([]*badgeClaim, error) {
	var claims []*badgeClaim
	byContract := map[common.Address]*badgeClaim{}
	for _, vc := range creds {
		info := s.badges[vc.CredentialSubject.Provider]
		hash, err := stampHash(vc.CredentialSubject.Hash)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid credential hash")
		}
		c, ok := byContract[info.contract]
		if !ok {
			c = &badgeClaim{contract: info.contract, hashes: map[int64][32]byte{}}
			byContract[info.contract] = c
			claims = append(claims, c)
		}
		if _, seen := c.hashes[info.level]; !seen {
			c.hashes[info.level] = hash
		}
		if info.level > c.maxHeld {
			c.maxHeld = info.level
		}
	}
	return claims, nil
}

func (s *Service) readLevels(ctx context.Context, chainIDHex string, user common.Address, claims []*badgeClaim) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range claims {
		g.Go(func() error {
			level, err := s.levels.BadgeLevel(gctx, chainIDHex, c.contract, user)
			if err != nil {
				return err
			}
			c.onchain = level
			return nil
		})
	}
	return g.Wait()
}

// upgradeRequest returns the levels above the on-chain level that the held
// credentials cover. ok is false when there is nothing to claim.
func upgradeRequest(c *badgeClaim) (BadgeRequestData, bool, error) {
	maxHeld := big.NewInt(c.maxHeld)
	if c.onchain == nil || c.onchain.Cmp(maxHeld) >= 0 {
		return BadgeRequestData{}, false, nil
	}
	var hashes [][32]byte
	for n := c.onchain.Int64() + 1; n <= c.maxHeld; n++ {
		hash, ok := c.hashes[n]
		if !ok {
			return BadgeRequestData{}, false, dErrors.New(dErrors.CodeInvariantViolation,
				fmt.Sprintf("missing credential for level %d, contract %s", n, c.contract.Hex()))
		}
		hashes = append(hashes, hash)
	}
	return BadgeRequestData{Level: maxHeld, Hashes: hashes}, true, nil
}
