package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service level Prometheus metrics.
type Metrics struct {
	// Verification
	ProviderVerifications *prometheus.CounterVec
	ProviderLatency       *prometheus.HistogramVec
	ProviderTimeouts      *prometheus.CounterVec

	// Issuance
	CredentialsIssued *prometheus.CounterVec
	CredentialsFailed *prometheus.CounterVec
	BannedCredentials *prometheus.CounterVec

	// Auth
	AuthFailures *prometheus.CounterVec

	// Attestations
	AttestationsSigned *prometheus.CounterVec
	AttestationErrors  *prometheus.CounterVec
}

// New registers all metrics on reg; nil means the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ProviderVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_iam_provider_verifications_total",
			Help: "Provider verifications, labeled by provider type and outcome",
		}, []string{"provider", "outcome"}),
		ProviderLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "passport_iam_provider_verification_seconds",
			Help:    "Latency of a single provider verification",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"platform"}),
		ProviderTimeouts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_iam_provider_timeouts_total",
			Help: "Platform buckets cut short by a provider timeout",
		}, []string{"platform"}),
		CredentialsIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_iam_credentials_issued_total",
			Help: "Verifiable credentials issued, labeled by provider and signature type",
		}, []string{"provider", "signature_type"}),
		CredentialsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_iam_credentials_failed_total",
			Help: "Credential responses carrying an error, labeled by HTTP code",
		}, []string{"code"}),
		BannedCredentials: f.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_iam_banned_credentials_total",
			Help: "Credentials suppressed by the ban check, labeled by provider",
		}, []string{"provider"}),
		AuthFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_iam_auth_failures_total",
			Help: "Rejected verification requests, labeled by reason",
		}, []string{"reason"}),
		AttestationsSigned: f.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_iam_attestations_signed_total",
			Help: "Signed attestation payloads, labeled by kind and chain",
		}, []string{"kind", "chain"}),
		AttestationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "passport_iam_attestation_errors_total",
			Help: "Attestation requests that failed, labeled by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) ObserveProvider(platform, provider string, valid bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	m.ProviderVerifications.WithLabelValues(provider, outcome).Inc()
	m.ProviderLatency.WithLabelValues(platform).Observe(d.Seconds())
}

func (m *Metrics) IncrementProviderTimeout(platform string) {
	if m == nil {
		return
	}
	m.ProviderTimeouts.WithLabelValues(platform).Inc()
}

func (m *Metrics) IncrementCredentialIssued(provider, signatureType string) {
	if m == nil {
		return
	}
	m.CredentialsIssued.WithLabelValues(provider, signatureType).Inc()
}

func (m *Metrics) IncrementCredentialFailed(code string) {
	if m == nil {
		return
	}
	m.CredentialsFailed.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementBanned(provider string) {
	if m == nil {
		return
	}
	m.BannedCredentials.WithLabelValues(provider).Inc()
}

func (m *Metrics) IncrementAuthFailure(reason string) {
	if m == nil {
		return
	}
	m.AuthFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementAttestationSigned(kind, chain string) {
	if m == nil {
		return
	}
	m.AttestationsSigned.WithLabelValues(kind, chain).Inc()
}

func (m *Metrics) IncrementAttestationError(kind string) {
	if m == nil {
		return
	}
	m.AttestationErrors.WithLabelValues(kind).Inc()
}
