package credential

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"passport-iam/internal/identity/models"
	"passport-iam/internal/scorer"
	dErrors "passport-iam/pkg/domain-errors"
)

// BanSource is implemented by the Scorer client.
type BanSource interface {
	CheckBans(ctx context.Context, queries []scorer.BanQuery) ([]scorer.Ban, error)
}

// BanFilter replaces credentials whose nullifiers are banned with a 403 error.
type BanFilter struct {
	source BanSource
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

type BanFilterOption func(*BanFilter)

// WithBanCache keeps Scorer verdicts in Redis for ttl per subject, provider
// and nullifier.
func WithBanCache(client *redis.Client, ttl time.Duration) BanFilterOption {
	return func(f *BanFilter) {
		f.cache = client
		f.ttl = ttl
	}
}

func WithBanLogger(l *slog.Logger) BanFilterOption {
	return func(f *BanFilter) { f.logger = l }
}

func NewBanFilter(source BanSource, opts ...BanFilterOption) *BanFilter {
	f := &BanFilter{source: source, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// banKey identifies one verdict. Account and provider bans depend on the
// subject and provider, so the nullifier alone is not enough.
type banKey struct {
	id       string
	provider string
	hash     string
}

func keyOf(q scorer.BanQuery) banKey {
	return banKey{id: q.CredentialSubject.ID, provider: q.CredentialSubject.Provider, hash: q.CredentialSubject.Hash}
}

func (k banKey) cacheKey() string {
	return "passport-iam:ban:" + k.id + ":" + k.provider + ":" + k.hash
}

// nullifiersOf falls back to the single hash for credentials without nullifiers.
func nullifiersOf(sub models.CredentialSubject) []string {
	if len(sub.Nullifiers) > 0 {
		return sub.Nullifiers
	}
	return []string{sub.Hash}
}

// Filter returns responses in the same order. Error responses pass through.
func (f *BanFilter) Filter(ctx context.Context, responses []models.CredentialResponse) ([]models.CredentialResponse, error) {
	var queries []scorer.BanQuery
	for _, r := range responses {
		if r.Credential == nil {
			continue
		}
		sub := r.Credential.CredentialSubject
		for _, n := range nullifiersOf(sub) {
			queries = append(queries, scorer.BanQuery{CredentialSubject: scorer.BanSubject{
				Provider: sub.Provider,
				ID:       sub.ID,
				Hash:     n,
			}})
		}
	}
	if len(queries) == 0 {
		return responses, nil
	}

	bans, err := f.lookup(ctx, queries)
	if err != nil {
		return nil, err
	}

	out := make([]models.CredentialResponse, len(responses))
	for i, r := range responses {
		out[i] = r
		if r.Credential == nil {
			continue
		}
		sub := r.Credential.CredentialSubject
		for _, n := range nullifiersOf(sub) {
			ban, ok := bans[banKey{id: sub.ID, provider: sub.Provider, hash: n}]
			if !ok {
				return nil, dErrors.External(fmt.Errorf("ban not found for nullifier %s", n), "ban check incomplete")
			}
			if ban.IsBanned {
				out[i] = models.CredentialResponse{Error: banMessage(ban), Code: 403}
				break
			}
		}
	}
	return out, nil
}

func banMessage(b scorer.Ban) string {
	end := b.EndTime
	if end == "" {
		end = "indefinite"
	}
	msg := fmt.Sprintf("Credential is banned. Type=%s, End=%s,", b.BanType, end)
	if b.Reason != "" {
		msg += " Reason=" + b.Reason
	}
	return msg
}

// lookup resolves every query, from the cache where possible.
func (f *BanFilter) lookup(ctx context.Context, queries []scorer.BanQuery) (map[banKey]scorer.Ban, error) {
	found := f.cached(ctx, queries)

	var missing []scorer.BanQuery
	for _, q := range queries {
		if _, ok := found[keyOf(q)]; !ok {
			missing = append(missing, q)
		}
	}
	if len(missing) == 0 {
		return found, nil
	}

	fetched, err := f.source.CheckBans(ctx, missing)
	if err != nil {
		return nil, err
	}
	byHash := make(map[string]scorer.Ban, len(fetched))
	for _, b := range fetched {
		byHash[b.Hash] = b
	}
	resolved := make(map[banKey]scorer.Ban, len(missing))
	for _, q := range missing {
		if b, ok := byHash[q.CredentialSubject.Hash]; ok {
			resolved[keyOf(q)] = b
			found[keyOf(q)] = b
		}
	}
	f.store(ctx, resolved)
	return found, nil
}

func (f *BanFilter) cached(ctx context.Context, queries []scorer.BanQuery) map[banKey]scorer.Ban {
	found := make(map[banKey]scorer.Ban, len(queries))
	if f.cache == nil {
		return found
	}
	keys := make([]string, len(queries))
	for i, q := range queries {
		keys[i] = keyOf(q).cacheKey()
	}
	values, err := f.cache.MGet(ctx, keys...).Result()
	if err != nil {
		f.logger.WarnContext(ctx, "ban cache read failed", "error", err)
		return found
	}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var b scorer.Ban
		if err := json.Unmarshal([]byte(s), &b); err == nil && b.Hash == queries[i].CredentialSubject.Hash {
			found[keyOf(queries[i])] = b
		}
	}
	return found
}

func (f *BanFilter) store(ctx context.Context, bans map[banKey]scorer.Ban) {
	if f.cache == nil || len(bans) == 0 {
		return
	}
	pipe := f.cache.Pipeline()
	for k, b := range bans {
		raw, err := json.Marshal(b)
		if err != nil {
			continue
		}
		pipe.Set(ctx, k.cacheKey(), raw, f.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		f.logger.WarnContext(ctx, "ban cache write failed", "error", err)
	}
}
