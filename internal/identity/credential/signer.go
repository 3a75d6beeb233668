package credential

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	json "github.com/goccy/go-json"
	"github.com/multiformats/go-multibase"

	"passport-iam/internal/identity/models"
)

const (
	ProofTypeEd25519 = "Ed25519Signature2020"
	ProofTypeEIP712  = "EthereumEip712Signature2021"

	proofPurpose = "assertionMethod"
)

// Signer attaches an issuer proof to a credential whose Issuer is DID().
type Signer interface {
	DID() string
	Sign(vc *models.VerifiableCredential, created time.Time) error
}

type Ed25519Signer struct {
	key ed25519.PrivateKey
	did string
}

func NewEd25519Signer(key ed25519.PrivateKey) (*Ed25519Signer, error) {
	did, err := KeyDID(key.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &Ed25519Signer{key: key, did: did}, nil
}

func (s *Ed25519Signer) DID() string { return s.did }

func (s *Ed25519Signer) Sign(vc *models.VerifiableCredential, created time.Time) error {
	msg, err := ed25519SigningInput(vc)
	if err != nil {
		return err
	}
	value, err := multibase.Encode(multibase.Base58BTC, ed25519.Sign(s.key, msg))
	if err != nil {
		return fmt.Errorf("encode proof: %w", err)
	}
	vc.Proof = &models.Proof{
		Type:               ProofTypeEd25519,
		Created:            created.UTC(),
		ProofPurpose:       proofPurpose,
		VerificationMethod: s.did + "#" + strings.TrimPrefix(s.did, "did:key:"),
		ProofValue:         value,
	}
	return nil
}

func ed25519SigningInput(vc *models.VerifiableCredential) ([]byte, error) {
	msg, err := json.MarshalNoEscape(vc.Unsigned())
	if err != nil {
		return nil, fmt.Errorf("marshal credential: %w", err)
	}
	return msg, nil
}

type EIP712Signer struct {
	key  *ecdsa.PrivateKey
	addr common.Address
	did  string
}

func NewEIP712Signer(key *ecdsa.PrivateKey) *EIP712Signer {
	addr := crypto.PubkeyToAddress(key.PublicKey)
	return &EIP712Signer{key: key, addr: addr, did: EthrDID(addr)}
}

func (s *EIP712Signer) DID() string { return s.did }

func (s *EIP712Signer) Sign(vc *models.VerifiableCredential, created time.Time) error {
	hash, err := credentialTypedDataHash(vc)
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return fmt.Errorf("sign credential: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	vc.Proof = &models.Proof{
		Type:               ProofTypeEIP712,
		Created:            created.UTC(),
		ProofPurpose:       proofPurpose,
		VerificationMethod: s.did + "#controller",
		ProofValue:         hexutil.Encode(sig),
	}
	return nil
}

// credentialTypes describes a credential as EIP-712 typed data. JSON-LD keys
// such as "@context" are not valid EIP-712 field names and are renamed.
var credentialTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
	},
	"Document": {
		{Name: "context", Type: "string[]"},
		{Name: "type", Type: "string[]"},
		{Name: "id", Type: "string"},
		{Name: "issuer", Type: "string"},
		{Name: "issuanceDate", Type: "string"},
		{Name: "expirationDate", Type: "string"},
		{Name: "credentialSubject", Type: "CredentialSubject"},
	},
	"CredentialSubject": {
		{Name: "id", Type: "string"},
		{Name: "provider", Type: "string"},
		{Name: "hash", Type: "string"},
		{Name: "nullifiers", Type: "string[]"},
		{Name: "challenge", Type: "string"},
		{Name: "address", Type: "string"},
	},
}

func credentialTypedDataHash(vc *models.VerifiableCredential) ([]byte, error) {
	sub := vc.CredentialSubject
	td := apitypes.TypedData{
		Types:       credentialTypes,
		PrimaryType: "Document",
		Domain:      apitypes.TypedDataDomain{Name: "VerifiableCredential"},
		Message: apitypes.TypedDataMessage{
			"context":        stringSlice(vc.Context),
			"type":           stringSlice(vc.Type),
			"id":             vc.ID,
			"issuer":         vc.Issuer,
			"issuanceDate":   vc.IssuanceDate.UTC().Format(time.RFC3339Nano),
			"expirationDate": vc.ExpirationDate.UTC().Format(time.RFC3339Nano),
			"credentialSubject": map[string]interface{}{
				"id":         sub.ID,
				"provider":   sub.Provider,
				"hash":       sub.Hash,
				"nullifiers": stringSlice(sub.Nullifiers),
				"challenge":  sub.Challenge,
				"address":    sub.Address,
			},
		},
	}
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, fmt.Errorf("hash typed credential: %w", err)
	}
	return hash, nil
}

func stringSlice(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// ProofVerifier checks a credential proof against its issuer DID. Problems
// with the proof are returned as messages; err is for unusable input.
type ProofVerifier interface {
	VerifyProof(vc *models.VerifiableCredential) ([]string, error)
}

// DIDProofVerifier verifies did:key Ed25519 and did:ethr EIP-712 proofs.
type DIDProofVerifier struct{}

func (DIDProofVerifier) VerifyProof(vc *models.VerifiableCredential) ([]string, error) {
	if vc.Proof == nil {
		return []string{"missing proof"}, nil
	}
	switch {
	case strings.HasPrefix(vc.Issuer, "did:key:"):
		return verifyEd25519(vc)
	case strings.HasPrefix(vc.Issuer, "did:ethr:"):
		return verifyEIP712(vc)
	default:
		return nil, fmt.Errorf("unsupported issuer %q", vc.Issuer)
	}
}

func verifyEd25519(vc *models.VerifiableCredential) ([]string, error) {
	if vc.Proof.Type != ProofTypeEd25519 {
		return []string{"unexpected proof type " + vc.Proof.Type}, nil
	}
	pub, err := KeyFromDID(vc.Issuer)
	if err != nil {
		return nil, err
	}
	_, sig, err := multibase.Decode(vc.Proof.ProofValue)
	if err != nil {
		return []string{"malformed proof value"}, nil
	}
	msg, err := ed25519SigningInput(vc)
	if err != nil {
		return nil, err
	}
	if !ed25519.Verify(pub, msg, sig) {
		return []string{"signature does not match issuer"}, nil
	}
	return nil, nil
}

func verifyEIP712(vc *models.VerifiableCredential) ([]string, error) {
	if vc.Proof.Type != ProofTypeEIP712 {
		return []string{"unexpected proof type " + vc.Proof.Type}, nil
	}
	want, err := AddressFromEthrDID(vc.Issuer)
	if err != nil {
		return nil, err
	}
	sig, err := hexutil.Decode(vc.Proof.ProofValue)
	if err != nil || len(sig) != crypto.SignatureLength {
		return []string{"malformed proof value"}, nil
	}
	hash, err := credentialTypedDataHash(vc)
	if err != nil {
		return nil, err
	}
	got, err := recoverAddress(hash, sig)
	if err != nil {
		return []string{"signature recovery failed"}, nil
	}
	if got != want {
		return []string{"signature does not match issuer"}, nil
	}
	return nil, nil
}

func recoverAddress(hash, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, errors.New("invalid signature length")
	}
	s := append([]byte{}, sig...)
	if s[crypto.RecoveryIDOffset] >= 27 {
		s[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(hash, s)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}
