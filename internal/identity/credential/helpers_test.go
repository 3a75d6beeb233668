package credential

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"passport-iam/internal/identity/models"
	"passport-iam/internal/platform/config"
)

func testKeys(t *testing.T, hashKeys ...config.HashKey) *Keys {
	t.Helper()
	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	ecKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	if len(hashKeys) == 0 {
		hashKeys = []config.HashKey{{Version: "0.0.0", Secret: "primary-secret"}}
	}
	return &Keys{Ed25519: edKey, EIP712: ecKey, HashKeys: hashKeys}
}

// wallet signs personal messages the way a browser wallet does.
type wallet struct {
	t   *testing.T
	key *ecdsa.PrivateKey
}

func newWallet(t *testing.T) (*wallet, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &wallet{t: t, key: key}, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func (w *wallet) sign(msg string) string {
	w.t.Helper()
	sig, err := crypto.Sign(PersonalMessageHash(msg), w.key)
	require.NoError(w.t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

type fakeTypes struct {
	results []models.VerifyTypeResult
	err     error
	got     models.Payload
}

func (f *fakeTypes) VerifyTypes(_ context.Context, types []string, payload models.Payload) ([]models.VerifyTypeResult, error) {
	f.got = payload
	if f.err != nil {
		return nil, f.err
	}
	return f.results[:len(types)], nil
}
