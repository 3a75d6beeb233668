package attestation

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

var ErrNoSignerKey = errors.New("no attester key configured")

// attesterTypes matches the GitcoinVerifier contract's typed data.
var attesterTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"AttestationRequestData": {
		{Name: "recipient", Type: "address"},
		{Name: "expirationTime", Type: "uint64"},
		{Name: "revocable", Type: "bool"},
		{Name: "refUID", Type: "bytes32"},
		{Name: "data", Type: "bytes"},
		{Name: "value", Type: "uint256"},
	},
	"MultiAttestationRequest": {
		{Name: "schema", Type: "bytes32"},
		{Name: "data", Type: "AttestationRequestData[]"},
	},
	"PassportAttestationRequest": {
		{Name: "multiAttestationRequest", Type: "MultiAttestationRequest[]"},
		{Name: "nonce", Type: "uint256"},
		{Name: "fee", Type: "uint256"},
	},
}

// KeySigner signs with the chain's own key, falling back to a shared one.
type KeySigner struct {
	fallback *ecdsa.PrivateKey
}

func NewKeySigner(fallback *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{fallback: fallback}
}

func (s *KeySigner) Sign(_ context.Context, chain *Chain, att PassportAttestation) (Signature, error) {
	key := chain.SignerKey
	if key == nil {
		key = s.fallback
	}
	if key == nil {
		return Signature{}, ErrNoSignerKey
	}
	hash, err := AttestationHash(chain, att)
	if err != nil {
		return Signature{}, err
	}
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return Signature{}, fmt.Errorf("sign attestation: %w", err)
	}
	return Signature{
		V: sig[crypto.RecoveryIDOffset] + 27,
		R: common.BytesToHash(sig[:32]),
		S: common.BytesToHash(sig[32:64]),
	}, nil
}

// AttestationHash is the EIP-712 digest the verifier contract recovers from.
func AttestationHash(chain *Chain, att PassportAttestation) ([]byte, error) {
	td := apitypes.TypedData{
		Types:       attesterTypes,
		PrimaryType: "PassportAttestationRequest",
		Domain: apitypes.TypedDataDomain{
			Name:              chain.DomainName,
			Version:           chain.DomainVersion,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(chain.ChainID)),
			VerifyingContract: chain.Verifier.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"multiAttestationRequest": multiRequestsMessage(att.MultiAttestationRequest),
			"nonce":                   orZero(att.Nonce),
			"fee":                     orZero(att.Fee),
		},
	}
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, fmt.Errorf("hash attestation: %w", err)
	}
	return hash, nil
}

// RecoverAttester returns the address that produced sig over att.
func RecoverAttester(chain *Chain, att PassportAttestation, sig Signature) (common.Address, error) {
	hash, err := AttestationHash(chain, att)
	if err != nil {
		return common.Address{}, err
	}
	raw := make([]byte, crypto.SignatureLength)
	copy(raw[:32], sig.R[:])
	copy(raw[32:64], sig.S[:])
	raw[crypto.RecoveryIDOffset] = sig.V - 27
	pub, err := crypto.SigToPub(hash, raw)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func multiRequestsMessage(reqs []MultiAttestationRequest) []interface{} {
	out := make([]interface{}, len(reqs))
	for i, r := range reqs {
		data := make([]interface{}, len(r.Data))
		for j, d := range r.Data {
			data[j] = map[string]interface{}{
				"recipient":      d.Recipient.Hex(),
				"expirationTime": new(big.Int).SetUint64(d.ExpirationTime),
				"revocable":      d.Revocable,
				"refUID":         d.RefUID.Hex(),
				"data":           hexutil.Encode(d.Data),
				"value":          orZero(d.Value),
			}
		}
		out[i] = map[string]interface{}{
			"schema": r.Schema.Hex(),
			"data":   data,
		}
	}
	return out
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
