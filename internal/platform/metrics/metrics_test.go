package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveProvider("Github", "githubContributionActivityGte#30", true, 120*time.Millisecond)
	m.ObserveProvider("Github", "githubContributionActivityGte#60", false, 80*time.Millisecond)
	m.IncrementCredentialIssued("Google", "Ed25519")
	m.IncrementCredentialIssued("Google", "Ed25519")
	m.IncrementBanned("Google")
	m.IncrementAttestationSigned("score", "0xa")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderVerifications.WithLabelValues("githubContributionActivityGte#30", "valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderVerifications.WithLabelValues("githubContributionActivityGte#60", "invalid")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CredentialsIssued.WithLabelValues("Google", "Ed25519")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BannedCredentials.WithLabelValues("Google")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttestationsSigned.WithLabelValues("score", "0xa")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ProviderLatency))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveProvider("p", "t", true, time.Second)
		m.IncrementProviderTimeout("p")
		m.IncrementCredentialIssued("t", "Ed25519")
		m.IncrementCredentialFailed("403")
		m.IncrementBanned("t")
		m.IncrementAuthFailure("jwt")
		m.IncrementAttestationSigned("badge", "0x1")
		m.IncrementAttestationError("badge")
	})
}
