package credential

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"
)

// PersonalMessageHash is the EIP-191 version 0x45 hash of msg.
func PersonalMessageHash(msg string) []byte {
	h := sha3.NewLegacyKeccak256()
	fmt.Fprintf(h, "\x19Ethereum Signed Message:\n%d%s", len(msg), msg)
	return h.Sum(nil)
}

// RecoverPersonalSigner returns the lower-cased address that produced the
// hex signature over msg with personal_sign.
func RecoverPersonalSigner(msg, signature string) (string, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return "", fmt.Errorf("decode signature: %w", err)
	}
	addr, err := recoverAddress(PersonalMessageHash(msg), sig)
	if err != nil {
		return "", fmt.Errorf("recover signer: %w", err)
	}
	return strings.ToLower(addr.Hex()), nil
}
