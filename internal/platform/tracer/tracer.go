// Package tracer is a small tracing facade over OpenTelemetry so that the
// verification pipeline does not import OTel APIs directly.
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }

func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }

func Int(key string, value int) Attribute { return Attribute{Key: key, Value: int64(value)} }

// HashAddress shortens a wallet address to a stable pseudonym for span
// attributes; raw addresses never go to the trace backend.
func HashAddress(address string) string {
	if address == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.ToLower(address)))
	return hex.EncodeToString(sum[:8])
}

// Span names.
const (
	SpanVerifyTypes      = "iam.verify_types"
	SpanVerifyPlatform   = "iam.verify_platform"
	SpanIssueCredentials = "iam.issue_credentials"
	SpanBanCheck         = "iam.ban_check"
	SpanScoreAttestation = "iam.attestation.score"
	SpanBadgeUpgrade     = "iam.attestation.badge"
	SpanPassport         = "iam.attestation.passport"
)

// Attribute keys.
const (
	AttrAddressHash = "address_hash"
	AttrPlatform    = "platform"
	AttrProvider    = "provider"
	AttrTypeCount   = "type_count"
	AttrValid       = "valid"
	AttrChainID     = "chain_id"
	AttrTimedOut    = "timed_out"
)

// NoopTracer does nothing; used in tests and when tracing is off.
type NoopTracer struct{}

func NewNoop() *NoopTracer { return &NoopTracer{} }

func (t *NoopTracer) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}
func (noopSpan) SetAttributes(...Attribute) {}
func (noopSpan) AddEvent(string, ...Attribute) {}

var (
	_ Tracer = (*NoopTracer)(nil)
	_ Span   = noopSpan{}
)
