// Package config defines the top-level configuration for the arbitrage
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBSCAN_* environment variables.
type Config struct {
	Scanner  ScannerConfig          `toml:"scanner"`
	Pairs    []PairConfig           `toml:"pairs"`
	Venues   map[string]VenueConfig `toml:"venues"`
	Redis    RedisConfig            `toml:"redis"`
	Postgres PostgresConfig         `toml:"postgres"`
	Notify   NotifyConfig           `toml:"notify"`
	Mode     string                 `toml:"mode"`
	LogLevel string                 `toml:"log_level"`
}

// ScannerConfig holds the engine parameters.
type ScannerConfig struct {
	// ScanInterval is the polling cadence of the timer-driven loop.
	ScanInterval duration `toml:"scan_interval"`
	// RateLimitMs is the minimum spacing between calls to the same venue.
	RateLimitMs int `toml:"rate_limit_ms"`
	// HalfSpread is the synthetic half-spread applied around a pool mid price.
	HalfSpread float64 `toml:"half_spread"`
	// DefaultFee is the per-trade fee fraction used when a venue has no
	// configured or resolvable fee.
	DefaultFee float64 `toml:"default_fee"`
	// MinProfitPct suppresses opportunity alerts below this net percentage.
	MinProfitPct float64 `toml:"min_profit_pct"`
	// MarketUpdateInterval caps how often a non-profitable market update is
	// sent per pair.
	MarketUpdateInterval duration `toml:"market_update_interval"`
}

// PairConfig describes one monitored pair. Decimal scales are static
// configuration for reserve-based venues, not auto-detected.
type PairConfig struct {
	Symbol        string `toml:"symbol"`
	BaseDecimals  int    `toml:"base_decimals"`
	QuoteDecimals int    `toml:"quote_decimals"`
}

// VenueKind selects how a venue is queried.
type VenueKind string

const (
	VenueKindOrderBook VenueKind = "orderbook"
	VenueKindPool      VenueKind = "pool"
)

// VenueConfig describes one liquidity venue. Orderbook venues use RestHost
// plus the Symbols table; pool venues use RpcURL plus the Pools table.
type VenueConfig struct {
	Kind     VenueKind `toml:"kind"`
	RestHost string    `toml:"rest_host"`
	WsHost   string    `toml:"ws_host"`
	RpcURL   string    `toml:"rpc_url"`
	// TakerFee overrides the default fee fraction for orderbook venues.
	TakerFee float64 `toml:"taker_fee"`
	// FeeAPI is an optional fee-registry endpoint for pool venues.
	FeeAPI string `toml:"fee_api"`
	// Symbols maps pair symbol -> venue market symbol (e.g. "ETH/USDT" -> "ETHUSDT").
	Symbols map[string]string `toml:"symbols"`
	// Pools maps pair symbol -> pool binding.
	Pools map[string]PoolConfig `toml:"pools"`
	// Events enables the venue's change-event feed (swap logs / trade prints).
	Events bool `toml:"events"`
}

// PoolConfig binds a pair to one liquidity-pool contract.
type PoolConfig struct {
	Address string `toml:"address"`
	// BaseIsToken0 records which side of the pool holds the base token.
	BaseIsToken0 bool `toml:"base_is_token0"`
}

// RedisConfig holds Redis connection parameters for the optional quote cache.
// An empty Addr disables the cache.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	// QuoteTTLSeconds bounds how long a cached quote stays readable.
	QuoteTTLSeconds int `toml:"quote_ttl_seconds"`
}

// PostgresConfig holds connection parameters for the optional opportunity
// history store. An empty DSN (and Host) disables it.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5s", "15m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5s" or "15m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Scanner: ScannerConfig{
			ScanInterval:         duration{5 * time.Second},
			RateLimitMs:          1000,
			HalfSpread:           0.002,
			DefaultFee:           0.003,
			MinProfitPct:         0,
			MarketUpdateInterval: duration{15 * time.Minute},
		},
		Venues: map[string]VenueConfig{},
		Redis: RedisConfig{
			DB:              0,
			PoolSize:        20,
			MaxRetries:      3,
			QuoteTTLSeconds: 300,
		},
		Postgres: PostgresConfig{
			Port:          5432,
			Database:      "arbscan",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity", "market_update", "no_data", "lifecycle", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":  true,
	"watch": true,
	"full":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found. The venue tables are checked
// against the pair list here so a misconfigured handle fails at startup rather
// than at fetch time.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, watch, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Scanner
	if c.Scanner.ScanInterval.Duration <= 0 {
		errs = append(errs, "scanner: scan_interval must be > 0")
	}
	if c.Scanner.RateLimitMs <= 0 {
		errs = append(errs, "scanner: rate_limit_ms must be > 0")
	}
	if c.Scanner.HalfSpread < 0 || c.Scanner.HalfSpread >= 1 {
		errs = append(errs, "scanner: half_spread must be in [0, 1)")
	}
	if c.Scanner.DefaultFee < 0 || c.Scanner.DefaultFee >= 1 {
		errs = append(errs, "scanner: default_fee must be in [0, 1)")
	}

	// Pairs
	if len(c.Pairs) == 0 {
		errs = append(errs, "pairs: at least one pair must be configured")
	}
	pairSet := make(map[string]bool, len(c.Pairs))
	for i, p := range c.Pairs {
		if !strings.Contains(p.Symbol, "/") {
			errs = append(errs, fmt.Sprintf("pairs[%d]: symbol %q must be BASE/QUOTE", i, p.Symbol))
		}
		if pairSet[p.Symbol] {
			errs = append(errs, fmt.Sprintf("pairs[%d]: duplicate symbol %q", i, p.Symbol))
		}
		pairSet[p.Symbol] = true
		if p.BaseDecimals < 0 || p.QuoteDecimals < 0 {
			errs = append(errs, fmt.Sprintf("pairs[%d]: decimals must be >= 0", i))
		}
	}

	// Venues
	if len(c.Venues) == 0 {
		errs = append(errs, "venues: at least one venue must be configured")
	}
	for name, v := range c.Venues {
		switch v.Kind {
		case VenueKindOrderBook:
			if v.RestHost == "" {
				errs = append(errs, fmt.Sprintf("venues.%s: rest_host must not be empty", name))
			}
			if len(v.Symbols) == 0 {
				errs = append(errs, fmt.Sprintf("venues.%s: symbols table must not be empty", name))
			}
			for pair := range v.Symbols {
				if !pairSet[pair] {
					errs = append(errs, fmt.Sprintf("venues.%s: symbols references unknown pair %q", name, pair))
				}
			}
			if v.TakerFee < 0 || v.TakerFee >= 1 {
				errs = append(errs, fmt.Sprintf("venues.%s: taker_fee must be in [0, 1)", name))
			}
		case VenueKindPool:
			if v.RpcURL == "" {
				errs = append(errs, fmt.Sprintf("venues.%s: rpc_url must not be empty", name))
			}
			if len(v.Pools) == 0 {
				errs = append(errs, fmt.Sprintf("venues.%s: pools table must not be empty", name))
			}
			for pair, pool := range v.Pools {
				if !pairSet[pair] {
					errs = append(errs, fmt.Sprintf("venues.%s: pools references unknown pair %q", name, pair))
				}
				if !isHexAddress(pool.Address) {
					errs = append(errs, fmt.Sprintf("venues.%s: pool address %q for %s is not a hex address", name, pool.Address, pair))
				}
			}
		default:
			errs = append(errs, fmt.Sprintf("venues.%s: unknown kind %q (valid: orderbook, pool)", name, v.Kind))
		}
	}

	// Redis (only when enabled)
	if c.Redis.Addr != "" {
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.QuoteTTLSeconds < 0 {
			errs = append(errs, "redis: quote_ttl_seconds must be >= 0")
		}
	}

	// Postgres (only when enabled)
	if c.PostgresEnabled() {
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Notify — token and chat ID must be set together.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// RedisEnabled reports whether the optional quote cache is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

// PostgresEnabled reports whether the optional opportunity store is configured.
func (c *Config) PostgresEnabled() bool {
	return strings.TrimSpace(c.Postgres.DSN) != "" || c.Postgres.Host != ""
}

// isHexAddress reports whether s looks like a 0x-prefixed 20-byte hex address.
func isHexAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
