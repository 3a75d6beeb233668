package attestation

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"passport-iam/internal/platform/config"
	dErrors "passport-iam/pkg/domain-errors"
)

// Chain is the deployment record of one chain, keyed by chainIdHex.
type Chain struct {
	IDHex          string
	ChainID        *big.Int
	ScoreSchema    common.Hash
	PassportSchema common.Hash
	Fee            *big.Int
	Verifier       common.Address
	DomainName     string
	DomainVersion  string
	// SignerKey overrides the service-wide attester key on this chain.
	SignerKey *ecdsa.PrivateKey
}

type ChainRegistry struct {
	chains map[string]*Chain
}

func NewChainRegistry(cfg map[string]config.Chain) (*ChainRegistry, error) {
	r := &ChainRegistry{chains: make(map[string]*Chain, len(cfg))}
	var errs []error
	for id, c := range cfg {
		fee, ok := new(big.Int).SetString(c.Fee, 10)
		if !ok {
			errs = append(errs, fmt.Errorf("chain %s: invalid fee %q", id, c.Fee))
			continue
		}
		if c.Attester.VerifyingContract != "" && !common.IsHexAddress(c.Attester.VerifyingContract) {
			errs = append(errs, fmt.Errorf("chain %s: invalid verifying contract", id))
			continue
		}
		var key *ecdsa.PrivateKey
		if c.Attester.SignerKey != "" {
			k, err := crypto.HexToECDSA(strings.TrimPrefix(c.Attester.SignerKey, "0x"))
			if err != nil {
				errs = append(errs, fmt.Errorf("chain %s: invalid signer key: %w", id, err))
				continue
			}
			key = k
		}
		r.chains[id] = &Chain{
			IDHex:          id,
			ChainID:        big.NewInt(c.Attester.ChainID),
			ScoreSchema:    common.HexToHash(c.Schemas.ScoreV2),
			PassportSchema: common.HexToHash(c.Schemas.Passport),
			Fee:            fee,
			Verifier:       common.HexToAddress(c.Attester.VerifyingContract),
			DomainName:     c.Attester.Name,
			DomainVersion:  c.Attester.Version,
			SignerKey:      key,
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns a not-found domain error for unknown chains.
func (r *ChainRegistry) Get(chainIDHex string) (*Chain, error) {
	c, ok := r.chains[chainIDHex]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "No onchainInfo found for chainId "+chainIDHex)
	}
	return c, nil
}

func (r *ChainRegistry) IDs() []string {
	out := make([]string, 0, len(r.chains))
	for id := range r.chains {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
