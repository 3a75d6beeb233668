// Package chain reads badge state from EVM chains over JSON-RPC.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"passport-iam/internal/platform/config"
	dErrors "passport-iam/pkg/domain-errors"
)

const badgeLevelABI = `[{"inputs":[{"internalType":"address","name":"user","type":"address"}],"name":"badgeLevel","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

var badgeABI = mustParseABI(badgeLevelABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Caller is the read-only part of an RPC client.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Dialer opens a Caller for an RPC endpoint.
type Dialer func(ctx context.Context, rpcURL string) (Caller, error)

func dialEthclient(ctx context.Context, rpcURL string) (Caller, error) {
	return ethclient.DialContext(ctx, rpcURL)
}

// Reader caches one client per chain, dialled on first use.
type Reader struct {
	rpcURLs    map[string]string
	dial       Dialer
	maxRetries uint64
	newBackOff func() backoff.BackOff
	logger     *slog.Logger

	mu      sync.Mutex
	clients map[string]Caller
}

type Option func(*Reader)

func WithDialer(d Dialer) Option {
	return func(r *Reader) { r.dial = d }
}

func WithBackOff(fn func() backoff.BackOff) Option {
	return func(r *Reader) { r.newBackOff = fn }
}

func WithMaxRetries(n uint64) Option {
	return func(r *Reader) { r.maxRetries = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) { r.logger = l }
}

func NewReader(chains map[string]config.Chain, opts ...Option) *Reader {
	r := &Reader{
		rpcURLs:    make(map[string]string, len(chains)),
		dial:       dialEthclient,
		maxRetries: 3,
		logger:     slog.Default(),
		clients:    map[string]Caller{},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			b.MaxElapsedTime = 10 * time.Second
			return b
		},
	}
	for id, c := range chains {
		if c.RPCURL != "" {
			r.rpcURLs[id] = c.RPCURL
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reader) client(ctx context.Context, chainIDHex string) (Caller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[chainIDHex]; ok {
		return c, nil
	}
	url, ok := r.rpcURLs[chainIDHex]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "No rpc url configured for chainId "+chainIDHex)
	}
	c, err := r.dial(ctx, url)
	if err != nil {
		return nil, err
	}
	r.clients[chainIDHex] = c
	return c, nil
}

// BadgeLevel calls badgeLevel(user) on contract at the latest block.
func (r *Reader) BadgeLevel(ctx context.Context, chainIDHex string, contract, user common.Address) (*big.Int, error) {
	input, err := badgeABI.Pack("badgeLevel", user)
	if err != nil {
		return nil, fmt.Errorf("pack badgeLevel: %w", err)
	}
	msg := ethereum.CallMsg{To: &contract, Data: input}

	var level *big.Int
	op := func() error {
		c, err := r.client(ctx, chainIDHex)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		out, err := c.CallContract(ctx, msg, nil)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		values, err := badgeABI.Unpack("badgeLevel", out)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("unpack badgeLevel: %w", err))
		}
		level = abi.ConvertType(values[0], new(big.Int)).(*big.Int)
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), r.maxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, err
		}
		r.logger.WarnContext(ctx, "badge level read failed", "chain", chainIDHex, "contract", contract.Hex(), "error", err)
		return nil, dErrors.External(fmt.Errorf("badgeLevel %s on %s: %w", contract.Hex(), chainIDHex, err), "chain read failed")
	}
	return level, nil
}

// Close releases dialled clients.
func (r *Reader) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.clients {
		if closer, ok := c.(interface{ Close() }); ok {
			closer.Close()
		}
		delete(r.clients, id)
	}
}
