package tracer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"

	"passport-iam/internal/platform/tracer"
)

func TestNoopTracerReturnsSameContext(t *testing.T) {
	ctx := context.Background()
	got, span := tracer.NewNoop().Start(ctx, tracer.SpanVerifyTypes, tracer.Int(tracer.AttrTypeCount, 3))

	assert.Equal(t, ctx, got)
	assert.NotPanics(t, func() {
		span.AddEvent("bucket.timeout", tracer.String(tracer.AttrPlatform, "Github"))
		span.End(errors.New("boom"))
	})
}

func TestOTelTracerWithNoopProvider(t *testing.T) {
	tr := tracer.NewOTel(noop.NewTracerProvider().Tracer("test"))
	_, span := tr.Start(context.Background(), tracer.SpanBanCheck,
		tracer.String(tracer.AttrProvider, "Google"),
		tracer.Bool(tracer.AttrValid, true),
	)
	assert.NotPanics(t, func() {
		span.SetAttributes(tracer.Int(tracer.AttrTypeCount, 1))
		span.End(nil)
	})
}

func TestHashAddress(t *testing.T) {
	assert.Empty(t, tracer.HashAddress(""))
	assert.Len(t, tracer.HashAddress("0xabc"), 16)
	assert.Equal(t, tracer.HashAddress("0xABC"), tracer.HashAddress("0xabc"))
	assert.NotEqual(t, tracer.HashAddress("0xabc"), tracer.HashAddress("0xabd"))
}
