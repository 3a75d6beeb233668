package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"passport-iam/internal/attestation"
	"passport-iam/internal/audit"
	"passport-iam/internal/chain"
	"passport-iam/internal/identity/auth"
	"passport-iam/internal/identity/autoverify"
	"passport-iam/internal/identity/credential"
	"passport-iam/internal/identity/verification/orchestrator"
	jwttoken "passport-iam/internal/jwt_token"
	"passport-iam/internal/platform/config"
	"passport-iam/internal/platform/health"
	"passport-iam/internal/platform/kafka/producer"
	"passport-iam/internal/platform/logger"
	"passport-iam/internal/platform/metrics"
	"passport-iam/internal/platform/redis"
	"passport-iam/internal/platform/tracer"
	"passport-iam/internal/scorer"
	httptransport "passport-iam/internal/transport/http"
	"passport-iam/pkg/platform/circuit"
	"passport-iam/pkg/platform/middleware/request"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)

	log.Info("initializing passport-iam",
		"addr", cfg.Server.Addr,
		"environment", cfg.Server.Environment,
		"chains", len(cfg.Chains),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	trc := tracer.NewOTel(nil)
	clk := clock.New()

	keys, err := credential.LoadKeys(cfg.Issuer)
	if err != nil {
		return err
	}
	trusted := cfg.Issuer.TrustedIssuers
	if len(trusted) == 0 {
		if trusted, err = keys.DIDs(); err != nil {
			return err
		}
	}

	chains, err := attestation.NewChainRegistry(cfg.Chains)
	if err != nil {
		return err
	}
	probes := health.New(cfg.Server.Environment, chains.IDs())

	scorerClient := scorer.New(cfg.Scorer,
		scorer.WithLogger(log),
		scorer.WithBreaker(circuit.New("scorer", circuit.WithStateChange(func(name string, from, to circuit.State) {
			log.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		}))),
	)
	probes.RegisterCheck("scorer", scorerClient.Health)

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close() //nolint:errcheck // shutdown path
		probes.RegisterCheck("redis", rdb.Health)
		go rdb.ReportPoolStats(ctx, 15*time.Second)
	}

	store, closeStore, err := auditStore(cfg.Kafka, log, probes)
	if err != nil {
		return err
	}
	defer closeStore()
	publisher := audit.NewPublisher(store, audit.WithAsyncBuffer(512), audit.WithPublisherLogger(log))
	defer publisher.Close()

	registry, err := buildRegistry(cfg.Server.Environment, cfg.Providers, scorerClient)
	if err != nil {
		return err
	}
	orch := orchestrator.New(registry,
		orchestrator.WithLogger(log),
		orchestrator.WithTracer(trc),
		orchestrator.WithMetrics(m),
		orchestrator.WithProviderTimeout(cfg.Providers.Timeout),
	)

	verifier := credential.NewVerifier(trusted,
		credential.WithVerifierClock(clk),
		credential.WithVerifierLogger(log),
	)

	banOpts := []credential.BanFilterOption{credential.WithBanLogger(log)}
	if rdb != nil {
		banOpts = append(banOpts, credential.WithBanCache(rdb.Client, cfg.Scorer.BanCacheTTL))
	}
	issuer, err := credential.NewIssuer(orch, keys, verifier,
		credential.WithBanFilter(credential.NewBanFilter(scorerClient, banOpts...)),
		credential.WithClock(clk),
		credential.WithTTL(cfg.Issuer.CredentialTTL),
		credential.WithChallengeTTL(cfg.Issuer.ChallengeTTL),
		credential.WithLogger(log),
		credential.WithTracer(trc),
		credential.WithMetrics(m),
		credential.WithAudit(publisher),
	)
	if err != nil {
		return err
	}

	authOpts := []auth.Option{auth.WithLogger(log), auth.WithMetrics(m)}
	if cfg.Auth.JWTPublicKeyPEM != "" {
		tokens, err := jwttoken.NewVerifierFromPEM(cfg.Auth.JWTPublicKeyPEM, cfg.Auth.JWTIssuer)
		if err != nil {
			return err
		}
		authOpts = append(authOpts, auth.WithTokenVerifier(tokens))
	} else {
		log.Warn("scorer JWT public key not configured, bearer tokens are ignored")
	}
	resolver := auth.NewResolver(verifier, authOpts...)

	reader := chain.NewReader(cfg.Chains, chain.WithLogger(log))
	defer reader.Close()

	attester, err := attestation.NewService(chains, scorerClient, reader, attestation.NewKeySigner(keys.EIP712), verifier,
		attestation.Config{ScorerID: cfg.Scorer.ScorerID, Badges: cfg.Badges, Passport: cfg.Passport},
		attestation.WithClock(clk),
		attestation.WithLogger(log),
		attestation.WithTracer(trc),
		attestation.WithMetrics(m),
		attestation.WithAudit(publisher),
	)
	if err != nil {
		return err
	}

	auto := autoverify.New(registry, issuer, scorerClient, cfg.Scorer.ScorerID,
		autoverify.WithLogger(log),
		autoverify.WithAudit(publisher),
	)

	handler := httptransport.NewHandler(resolver, issuer, orch, attester, auto, log)
	router := httptransport.NewRouter(httptransport.RouterConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Clock:          clk,
		Gatherer:       prometheus.Gatherers{reg, prometheus.DefaultGatherer},
		RequestMetrics: request.NewMetrics(reg),
	}, handler, probes, log)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// auditStore publishes to Kafka when brokers are configured and logs otherwise.
func auditStore(cfg config.Kafka, log *slog.Logger, probes *health.Handler) (audit.Store, func(), error) {
	if cfg.Brokers == "" {
		return audit.NewLogStore(log), func() {}, nil
	}
	p, err := producer.New(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	probes.RegisterCheck("kafka", p.Health)
	closeFn := func() {
		if err := p.Close(); err != nil {
			log.Warn("kafka producer close failed", "error", err)
		}
	}
	return audit.NewKafkaStore(p, cfg.Topic), closeFn, nil
}
