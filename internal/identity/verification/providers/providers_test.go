package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passport-iam/internal/identity/models"
)

type fakeProvider struct{ typ string }

func (f fakeProvider) Type() string { return f.typ }

func (f fakeProvider) Verify(context.Context, models.Payload, models.ProviderContext) (models.VerifiedPayload, error) {
	return models.VerifiedPayload{Valid: true}, nil
}

func TestParseTypeRef(t *testing.T) {
	tests := []struct {
		raw      string
		want     TypeRef
		provider string
		proofs   map[string]string
	}{
		{
			raw:      "Google",
			want:     TypeRef{Raw: "Google", Kind: KindPlain},
			provider: "Google",
			proofs:   map[string]string{},
		},
		{
			raw:      "AllowList#testList",
			want:     TypeRef{Raw: "AllowList#testList", Kind: KindAllowList, List: "testList"},
			provider: "AllowList",
			proofs:   map[string]string{"allowList": "testList"},
		},
		{
			raw:      "DeveloperList#repoCount#0xabc",
			want:     TypeRef{Raw: "DeveloperList#repoCount#0xabc", Kind: KindDeveloperList, Condition: "repoCount", Hash: "0xabc"},
			provider: "DeveloperList",
			proofs:   map[string]string{"conditionName": "repoCount", "conditionHash": "0xabc"},
		},
		{
			raw:      "DeveloperList#onlyCondition",
			want:     TypeRef{Raw: "DeveloperList#onlyCondition", Kind: KindDeveloperList, Condition: "onlyCondition"},
			provider: "DeveloperList",
			proofs:   map[string]string{"conditionName": "onlyCondition", "conditionHash": ""},
		},
		{
			raw:      "AllowListed",
			want:     TypeRef{Raw: "AllowListed", Kind: KindPlain},
			provider: "AllowListed",
			proofs:   map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ref := ParseTypeRef(tt.raw)
			assert.Equal(t, tt.want, ref)
			assert.Equal(t, tt.provider, ref.Provider())

			proofs := map[string]string{}
			ref.Apply(proofs)
			assert.Equal(t, tt.proofs, proofs)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("Google", fakeProvider{"Google"}))
	require.NoError(t, r.Register("AllowList", fakeProvider{"AllowList"}))
	require.NoError(t, r.Register("ETH", fakeProvider{"ETHDaysActive#50"}, AsEVM()))
	require.NoError(t, r.Register("ETH", fakeProvider{"ETHGasSpent#0.25"}, AsEVM()))

	assert.Error(t, r.Register("Other", fakeProvider{"Google"}), "duplicate type")

	assert.Equal(t, "Google", r.PlatformOf("Google"))
	assert.Equal(t, "AllowList", r.PlatformOf("AllowList#x"))
	assert.Equal(t, GenericPlatform, r.PlatformOf("Unknown"))
	assert.Equal(t, []string{"ETHDaysActive#50", "ETHGasSpent#0.25"}, r.EVMTypes())
	assert.Equal(t, []string{"AllowList", "ETH", "Google"}, r.Platforms())

	p, ok := r.Get("Google")
	require.True(t, ok)
	assert.Equal(t, "Google", p.Type())
}

func TestProviderErrorClassification(t *testing.T) {
	timeout := NewProviderError(ErrorTimeout, "Github", "request timeout", context.DeadlineExceeded)
	assert.True(t, IsRetryable(timeout))
	assert.ErrorIs(t, timeout, context.DeadlineExceeded)
	assert.Equal(t, ErrorTimeout, GetCategory(timeout))

	assert.False(t, IsRetryable(NewProviderError(ErrorBadData, "Github", "bad", nil)))
	assert.Equal(t, ErrorInternal, GetCategory(errors.New("plain")))

	assert.True(t, IsTimeout("Github", "", timeout))
	assert.True(t, IsTimeout("Github", "a, Request timeout while verifying Github., b", nil))
	assert.False(t, IsTimeout("Github", "Request timeout while verifying Google.", nil))
}
