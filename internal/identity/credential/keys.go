package credential

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"passport-iam/internal/platform/config"
)

// Keys are the process-wide issuer secrets, loaded once and read-only after.
type Keys struct {
	Ed25519  ed25519.PrivateKey
	EIP712   *ecdsa.PrivateKey
	HashKeys []config.HashKey
}

// LoadKeys parses the issuer configuration. The EIP-712 key is optional.
func LoadKeys(cfg config.Issuer) (*Keys, error) {
	if len(cfg.HashKeys) == 0 {
		return nil, errors.New("at least one hash key is required")
	}
	edKey, err := parseEd25519JWK(cfg.Ed25519JWK)
	if err != nil {
		return nil, err
	}
	keys := &Keys{Ed25519: edKey, HashKeys: append([]config.HashKey(nil), cfg.HashKeys...)}

	if cfg.EIP712PrivateKey != "" {
		ecKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.EIP712PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("parse eip712 issuer key: %w", err)
		}
		keys.EIP712 = ecKey
	}
	return keys, nil
}

func parseEd25519JWK(raw string) (ed25519.PrivateKey, error) {
	key, err := jwk.ParseKey([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("parse issuer jwk: %w", err)
	}
	var out any
	if err := key.Raw(&out); err != nil {
		return nil, fmt.Errorf("extract issuer jwk: %w", err)
	}
	priv, ok := out.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("issuer jwk must be an Ed25519 private key, got %T", out)
	}
	return priv, nil
}

// DIDs returns the issuer DIDs derived from the loaded keys, did:key first.
func (k *Keys) DIDs() ([]string, error) {
	edDID, err := KeyDID(k.Ed25519.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	out := []string{edDID}
	if k.EIP712 != nil {
		out = append(out, EthrDID(crypto.PubkeyToAddress(k.EIP712.PublicKey)))
	}
	return out, nil
}
