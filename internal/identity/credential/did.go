package credential

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/multiformats/go-multibase"
)

// ed25519Multicodec is the varint multicodec prefix of an Ed25519 public key.
var ed25519Multicodec = []byte{0xed, 0x01}

// KeyDID derives did:key from an Ed25519 public key.
func KeyDID(pub ed25519.PublicKey) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", fmt.Errorf("invalid Ed25519 public key length %d", len(pub))
	}
	prefixed := append(append([]byte{}, ed25519Multicodec...), pub...)
	encoded, err := multibase.Encode(multibase.Base58BTC, prefixed)
	if err != nil {
		return "", fmt.Errorf("multibase encode: %w", err)
	}
	return "did:key:" + encoded, nil
}

// KeyFromDID extracts the Ed25519 public key embedded in a did:key.
func KeyFromDID(did string) (ed25519.PublicKey, error) {
	encoded, ok := strings.CutPrefix(did, "did:key:")
	if !ok {
		return nil, fmt.Errorf("%q is not a did:key", did)
	}
	encoded, _, _ = strings.Cut(encoded, "#")
	_, decoded, err := multibase.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("multibase decode: %w", err)
	}
	if len(decoded) != len(ed25519Multicodec)+ed25519.PublicKeySize ||
		decoded[0] != ed25519Multicodec[0] || decoded[1] != ed25519Multicodec[1] {
		return nil, fmt.Errorf("%q does not carry an Ed25519 key", did)
	}
	return ed25519.PublicKey(decoded[len(ed25519Multicodec):]), nil
}

// EthrDID is the did:ethr form of an address, lower-cased.
func EthrDID(addr common.Address) string {
	return "did:ethr:" + strings.ToLower(addr.Hex())
}

// AddressFromEthrDID parses did:ethr:<address>.
func AddressFromEthrDID(did string) (common.Address, error) {
	hex, ok := strings.CutPrefix(did, "did:ethr:")
	if !ok || !common.IsHexAddress(hex) {
		return common.Address{}, fmt.Errorf("%q is not a did:ethr address", did)
	}
	return common.HexToAddress(hex), nil
}

// AddressFromSubject returns the address part of did:pkh:eip155:<chain>:<address>.
func AddressFromSubject(id string) string {
	parts := strings.Split(id, ":")
	if len(parts) < 5 {
		return ""
	}
	return parts[4]
}
