// Package orchestrator runs the requested providers for one verification
// request. Providers are grouped by platform; platforms run concurrently while
// the providers of one platform run in order and share a ProviderContext.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"passport-iam/internal/identity/models"
	"passport-iam/internal/identity/verification/providers"
	"passport-iam/internal/platform/tracer"
)

const (
	// MaxErrorLength caps the joined provider error message.
	MaxErrorLength = 1000

	ErrUnableToVerify = "Unable to verify provider"
)

// Metrics is the subset of service metrics recorded per provider call.
type Metrics interface {
	ObserveProvider(platform, provider string, valid bool, d time.Duration)
	IncrementProviderTimeout(platform string)
}

type Orchestrator struct {
	registry        *providers.Registry
	logger          *slog.Logger
	tracer          tracer.Tracer
	metrics         Metrics
	providerTimeout time.Duration
}

type Option func(*Orchestrator)

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func WithTracer(t tracer.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithProviderTimeout bounds a single provider call. A call that runs out of
// time fails like any other provider error; the rest of its platform still runs.
func WithProviderTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.providerTimeout = d }
}

func New(registry *providers.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:        registry,
		logger:          slog.Default(),
		tracer:          tracer.NewNoop(),
		providerTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type slot struct {
	index int
	ref   providers.TypeRef
}

type bucket struct {
	platform string
	slots    []slot
}

// partition groups types by platform in first-seen order, keeping each type's
// position in the request.
func (o *Orchestrator) partition(types []string) []*bucket {
	byPlatform := map[string]*bucket{}
	var out []*bucket
	for i, t := range types {
		platform := o.registry.PlatformOf(t)
		b, ok := byPlatform[platform]
		if !ok {
			b = &bucket{platform: platform}
			byPlatform[platform] = b
			out = append(out, b)
		}
		b.slots = append(b.slots, slot{index: i, ref: providers.ParseTypeRef(t)})
	}
	return out
}

// VerifyTypes returns one result per requested type, in request order.
// Provider failures are reported in the results; the error is only set when
// the request context is done.
func (o *Orchestrator) VerifyTypes(ctx context.Context, types []string, payload models.Payload) ([]models.VerifyTypeResult, error) {
	ctx, span := o.tracer.Start(ctx, tracer.SpanVerifyTypes,
		tracer.Int(tracer.AttrTypeCount, len(types)),
		tracer.String(tracer.AttrAddressHash, tracer.HashAddress(payload.Address)),
	)

	results := make([]models.VerifyTypeResult, len(types))
	var g errgroup.Group
	for _, b := range o.partition(types) {
		g.Go(func() error {
			o.runBucket(ctx, b, payload, results)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.End(err)
		return nil, fmt.Errorf("verify types: %w", err)
	}
	span.End(nil)
	return results, nil
}

func (o *Orchestrator) runBucket(ctx context.Context, b *bucket, payload models.Payload, results []models.VerifyTypeResult) {
	ctx, span := o.tracer.Start(ctx, tracer.SpanVerifyPlatform,
		tracer.String(tracer.AttrPlatform, b.platform),
		tracer.Int(tracer.AttrTypeCount, len(b.slots)),
	)
	defer span.End(nil)

	pctx := models.ProviderContext{}
	for i, s := range b.slots {
		res, timedOut := o.verifyOne(ctx, b.platform, s.ref, payload, pctx)
		results[s.index] = res
		if !timedOut {
			continue
		}

		o.logger.WarnContext(ctx, "provider timed out, skipping rest of platform",
			"platform", b.platform,
			"provider", s.ref.Raw,
			"skipped", len(b.slots)-i-1,
		)
		span.AddEvent("platform.timeout", tracer.String(tracer.AttrProvider, s.ref.Raw))
		if o.metrics != nil {
			o.metrics.IncrementProviderTimeout(b.platform)
		}
		for _, rest := range b.slots[i+1:] {
			results[rest.index] = models.VerifyTypeResult{
				Type:  rest.ref.Raw,
				Code:  403,
				Error: fmt.Sprintf("Verification skipped: request timeout while verifying %s", b.platform),
			}
		}
		return
	}
}

// verifyOne runs a single provider and wraps its outcome. The bool is true
// when the provider reported a request timeout in its errors and the platform
// must stop after this type.
func (o *Orchestrator) verifyOne(ctx context.Context, platform string, ref providers.TypeRef, payload models.Payload, pctx models.ProviderContext) (models.VerifyTypeResult, bool) {
	out := models.VerifyTypeResult{Type: ref.Raw}
	dispatched := ref.Provider()

	perType := payload.Clone()
	ref.Apply(perType.Proofs)

	start := time.Now()
	res, err := o.call(ctx, dispatched, perType, pctx)
	if o.metrics != nil {
		o.metrics.ObserveProvider(platform, ref.Raw, err == nil && res.Valid, time.Since(start))
	}

	if err != nil {
		if providers.GetCategory(err) == providers.ErrorTimeout && o.metrics != nil {
			o.metrics.IncrementProviderTimeout(platform)
		}
		o.logger.WarnContext(ctx, "provider failed",
			"provider", ref.Raw,
			"platform", platform,
			"category", string(providers.GetCategory(err)),
			"error", err,
		)
		out.Code = 400
		out.Error = ErrUnableToVerify
		return out, false
	}

	out.Result = res
	if res.Valid {
		return out, false
	}

	out.Code = 403
	out.Error = joinErrors(res.Errors)
	return out, providers.IsTimeout(dispatched, out.Error, nil)
}

// call invokes the provider, turning a panic into an internal ProviderError.
func (o *Orchestrator) call(ctx context.Context, providerType string, payload models.Payload, pctx models.ProviderContext) (res models.VerifiedPayload, err error) {
	p, ok := o.registry.Get(providerType)
	if !ok {
		return res, providers.NewProviderError(providers.ErrorNotFound, providerType, "not registered", providers.ErrProviderNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, o.providerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = providers.NewProviderError(providers.ErrorInternal, providerType, fmt.Sprintf("panic: %v", r), nil)
		}
	}()

	res, err = p.Verify(ctx, payload, pctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && providers.GetCategory(err) != providers.ErrorTimeout {
		err = providers.NewProviderError(providers.ErrorTimeout, providerType, "deadline exceeded", err)
	}
	if err == nil && ctx.Err() == context.DeadlineExceeded && !res.Valid {
		err = providers.NewProviderError(providers.ErrorTimeout, providerType, "deadline exceeded", ctx.Err())
	}
	return res, err
}

func joinErrors(errs []string) string {
	msg := strings.Join(errs, ", ")
	if len(msg) > MaxErrorLength {
		cut := MaxErrorLength
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	if msg == "" {
		return ErrUnableToVerify
	}
	return msg
}
