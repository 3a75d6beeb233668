package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	json "github.com/goccy/go-json"
)

// Config is the full service configuration. It is read once at startup from an
// optional TOML file and then overlaid with environment variables.
type Config struct {
	Server    Server           `toml:"server"`
	Issuer    Issuer           `toml:"issuer"`
	Auth      Auth             `toml:"auth"`
	Scorer    Scorer           `toml:"scorer"`
	Redis     RedisConfig      `toml:"redis"`
	Kafka     Kafka            `toml:"kafka"`
	Chains    map[string]Chain `toml:"chains"`
	Badges    Badges           `toml:"badges"`
	Providers Providers        `toml:"providers"`
	Passport  Passport         `toml:"passport"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string        `toml:"addr"`
	Environment    string        `toml:"environment"`
	LogLevel       string        `toml:"log_level"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	MaxBodyBytes   int64         `toml:"max_body_bytes"`
}

// HashKey is one secret used to derive credential hashes. The first key is the
// primary one; further keys produce additional nullifiers during rotation.
type HashKey struct {
	Version string `toml:"version"`
	Secret  string `toml:"secret"`
}

type Issuer struct {
	// Ed25519JWK is an OKP JWK holding the did:key issuer private key.
	Ed25519JWK string `toml:"ed25519_jwk"`
	// EIP712PrivateKey is the hex secp256k1 key of the did:ethr issuer.
	EIP712PrivateKey string        `toml:"eip712_private_key"`
	HashKeys         []HashKey     `toml:"hash_keys"`
	CredentialTTL    time.Duration `toml:"credential_ttl"`
	ChallengeTTL     time.Duration `toml:"challenge_ttl"`
	TrustedIssuers   []string      `toml:"trusted_issuers"`
}

type Auth struct {
	JWTPublicKeyPEM string `toml:"jwt_public_key"`
	JWTIssuer       string `toml:"jwt_issuer"`
}

type Scorer struct {
	Endpoint    string        `toml:"endpoint"`
	APIKey      string        `toml:"api_key"`
	ScorerID    int64         `toml:"scorer_id"`
	Timeout     time.Duration `toml:"timeout"`
	MaxRetries  uint64        `toml:"max_retries"`
	BanCacheTTL time.Duration `toml:"ban_cache_ttl"`
}

// RedisConfig is optional; an empty URL disables the ban cache.
type RedisConfig struct {
	URL          string        `toml:"url"`
	PoolSize     int           `toml:"pool_size"`
	MinIdleConns int           `toml:"min_idle_conns"`
	DialTimeout  time.Duration `toml:"dial_timeout"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// Kafka is optional; without brokers audit events go to the log.
type Kafka struct {
	Brokers         string        `toml:"brokers"`
	Acks            string        `toml:"acks"`
	Retries         int           `toml:"retries"`
	DeliveryTimeout time.Duration `toml:"delivery_timeout"`
	Topic           string        `toml:"topic"`
}

// Chain is the per-chain deployment record keyed by chainIdHex (e.g. "0xa").
type Chain struct {
	RPCURL   string   `toml:"rpc_url"`
	Schemas  Schemas  `toml:"schemas"`
	Attester Attester `toml:"attester"`
	// Fee is the attestation fee in wei, as a decimal string.
	Fee string `toml:"fee"`
}

type Schemas struct {
	ScoreV2  string `toml:"score_v2"`
	Passport string `toml:"passport"`
}

// Attester describes the EIP-712 domain and signer of the on-chain verifier.
type Attester struct {
	Name              string `toml:"name"`
	Version           string `toml:"version"`
	ChainID           int64  `toml:"chain_id"`
	VerifyingContract string `toml:"verifying_contract"`
	SignerKey         string `toml:"signer_key"`
}

type BadgeProvider struct {
	ContractAddress string `toml:"contract_address" json:"contractAddress"`
	Level           int64  `toml:"level" json:"level"`
}

type Badges struct {
	Providers    map[string]BadgeProvider `toml:"providers"`
	SchemaUID    string                   `toml:"schema_uid"`
	MaxContracts int                      `toml:"max_contracts"`
}

type HTTPProvider struct {
	ID       string        `toml:"id"`
	Platform string        `toml:"platform"`
	URL      string        `toml:"url"`
	Timeout  time.Duration `toml:"timeout"`
	EVM      bool          `toml:"evm"`
}

type Providers struct {
	HTTP    []HTTPProvider `toml:"http"`
	Timeout time.Duration  `toml:"timeout"`
}

type StampBit struct {
	Name  string `toml:"name"`
	Index int    `toml:"index"`
	Bit   int    `toml:"bit"`
}

type Passport struct {
	ProviderBitMap     []StampBit `toml:"provider_bit_map"`
	ProviderMapVersion uint16     `toml:"provider_map_version"`
}

// Load reads path (when non-empty) and applies env overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv loads the file named by PASSPORT_IAM_CONFIG, if any, plus the environment.
func FromEnv() (*Config, error) {
	return Load(os.Getenv("PASSPORT_IAM_CONFIG"))
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "PASSPORT_IAM_ADDR")
	setString(&c.Server.Environment, "ENVIRONMENT")
	setString(&c.Server.LogLevel, "LOG_LEVEL")
	setString(&c.Issuer.Ed25519JWK, "IAM_JWK")
	setString(&c.Issuer.EIP712PrivateKey, "IAM_JWK_EIP712")
	setString(&c.Auth.JWTPublicKeyPEM, "SCORER_JWT_PUBLIC_KEY")
	setString(&c.Scorer.Endpoint, "SCORER_ENDPOINT")
	setString(&c.Scorer.APIKey, "SCORER_API_KEY")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Kafka.Brokers, "KAFKA_BROKERS")
	setString(&c.Badges.SchemaUID, "SCROLL_BADGE_ATTESTATION_SCHEMA_UID")

	if secret := os.Getenv("HASH_KEY"); secret != "" {
		if len(c.Issuer.HashKeys) == 0 {
			c.Issuer.HashKeys = []HashKey{{Secret: secret}}
		} else {
			c.Issuer.HashKeys[0].Secret = secret
		}
	}
	if v := os.Getenv("ALLO_SCORER_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ALLO_SCORER_ID: %w", err)
		}
		c.Scorer.ScorerID = id
	}
	if v := os.Getenv("CREDENTIAL_EXPIRES_AFTER_SECONDS"); v != "" {
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("CREDENTIAL_EXPIRES_AFTER_SECONDS: %w", err)
		}
		c.Issuer.CredentialTTL = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("TRUSTED_IAM_ISSUERS"); v != "" {
		var issuers []string
		if err := json.Unmarshal([]byte(v), &issuers); err != nil {
			return fmt.Errorf("TRUSTED_IAM_ISSUERS: %w", err)
		}
		c.Issuer.TrustedIssuers = issuers
	}
	if v := os.Getenv("SCROLL_BADGE_PROVIDER_INFO"); v != "" {
		providers := map[string]BadgeProvider{}
		if err := json.Unmarshal([]byte(v), &providers); err != nil {
			return fmt.Errorf("SCROLL_BADGE_PROVIDER_INFO: %w", err)
		}
		c.Badges.Providers = providers
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8003"
	}
	if c.Server.Environment == "" {
		c.Server.Environment = "development"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 60 * time.Second
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}
	if c.Issuer.CredentialTTL == 0 {
		c.Issuer.CredentialTTL = 90 * 24 * time.Hour
	}
	if c.Issuer.ChallengeTTL == 0 {
		c.Issuer.ChallengeTTL = 60 * time.Second
	}
	for i := range c.Issuer.HashKeys {
		if c.Issuer.HashKeys[i].Version == "" {
			c.Issuer.HashKeys[i].Version = "0.0.0"
		}
	}
	if c.Auth.JWTIssuer == "" {
		c.Auth.JWTIssuer = "passport-scorer"
	}
	if c.Scorer.Timeout == 0 {
		c.Scorer.Timeout = 10 * time.Second
	}
	if c.Scorer.MaxRetries == 0 {
		c.Scorer.MaxRetries = 3
	}
	if c.Scorer.BanCacheTTL == 0 {
		c.Scorer.BanCacheTTL = 30 * time.Second
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "passport.iam.audit"
	}
	if c.Kafka.DeliveryTimeout == 0 {
		c.Kafka.DeliveryTimeout = 10 * time.Second
	}
	if c.Badges.MaxContracts == 0 {
		c.Badges.MaxContracts = 10
	}
	if c.Providers.Timeout == 0 {
		c.Providers.Timeout = 30 * time.Second
	}
	for id, chain := range c.Chains {
		if chain.Attester.Name == "" {
			chain.Attester.Name = "GitcoinVerifier"
		}
		if chain.Attester.Version == "" {
			chain.Attester.Version = "1"
		}
		if chain.Fee == "" {
			chain.Fee = "0"
		}
		if chain.Attester.ChainID == 0 {
			if n, err := strconv.ParseInt(strings.TrimPrefix(id, "0x"), 16, 64); err == nil {
				chain.Attester.ChainID = n
			}
		}
		c.Chains[id] = chain
	}
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Issuer.Ed25519JWK == "" {
		errs = append(errs, errors.New("issuer.ed25519_jwk (IAM_JWK) is required"))
	}
	if len(c.Issuer.HashKeys) == 0 || c.Issuer.HashKeys[0].Secret == "" {
		errs = append(errs, errors.New("issuer.hash_keys (HASH_KEY) is required"))
	}
	for id := range c.Chains {
		if !strings.HasPrefix(id, "0x") {
			errs = append(errs, fmt.Errorf("chain key %q must be a 0x-prefixed chain id", id))
		}
	}
	for name, b := range c.Badges.Providers {
		if b.Level < 1 {
			errs = append(errs, fmt.Errorf("badge provider %s: level must be >= 1", name))
		}
	}
	return errors.Join(errs...)
}
