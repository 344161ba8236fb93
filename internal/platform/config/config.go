// Package config builds runtime configuration from environment variables so
// main stays lean. Every behavioral knob (quotas, ban duration, page
// capacity, trusted proxies) lives here, not in code.
package config

import (
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	DatabaseURL string
	AutoMigrate bool
	Redis       RedisConfig
	Kafka       KafkaConfig

	// TrustedProxies are the only peers whose forwarded headers are honored
	// when resolving caller addresses. Empty means headers are ignored.
	TrustedProxies []netip.Prefix

	Sequence  SequenceConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional audit fanout producer.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// SequenceConfig configures the ledger coordinate allocator.
type SequenceConfig struct {
	Series       string
	PageCapacity int
}

// RateLimitConfig configures admission control.
type RateLimitConfig struct {
	Disabled bool
	// Window is the sliding window length shared by all traffic classes.
	Window time.Duration
	// Quotas per traffic class within one window.
	UploadQuota  int
	PrivateQuota int
	ReadQuota    int
	// BanDuration is the dynamic blacklist TTL applied on the first quota
	// violation (single-strike policy).
	BanDuration time.Duration
}

// AuditConfig configures the audit trail.
type AuditConfig struct {
	// HistoryPageSize bounds getHistory results so long-lived entities cannot
	// exhaust memory at the boundary.
	HistoryPageSize int
	// InboxSize is the buffer of the async audit worker channel.
	InboxSize int
}

// FromEnv builds a Server config from environment variables.
// Defaults suit local development: memory stores when URLs are unset.
func FromEnv() Server {
	return Server{
		Addr:        envString("UNIREG_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AutoMigrate: os.Getenv("AUTO_MIGRATE") == "true",
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    envList("AUDIT_KAFKA_BROKERS"),
			AuditTopic: envString("AUDIT_KAFKA_TOPIC", "unireg.audit"),
		},
		TrustedProxies: envPrefixes("TRUSTED_PROXIES"),
		Sequence: SequenceConfig{
			Series:       envString("SEQUENCE_SERIES", "declarations"),
			PageCapacity: envInt("SEQUENCE_PAGE_CAPACITY", 300),
		},
		RateLimit: RateLimitConfig{
			Disabled:     os.Getenv("RATE_LIMIT_DISABLED") == "true",
			Window:       envDuration("RATE_LIMIT_WINDOW", 60*time.Second),
			UploadQuota:  envInt("RATE_LIMIT_UPLOAD_QUOTA", 200),
			PrivateQuota: envInt("RATE_LIMIT_PRIVATE_QUOTA", 30),
			ReadQuota:    envInt("RATE_LIMIT_READ_QUOTA", 120),
			BanDuration:  envDuration("RATE_LIMIT_BAN_DURATION", 10*time.Minute),
		},
		Audit: AuditConfig{
			HistoryPageSize: envInt("AUDIT_HISTORY_PAGE_SIZE", 200),
			InboxSize:       envInt("AUDIT_INBOX_SIZE", 256),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envPrefixes parses a comma-separated list of CIDRs; bare addresses are
// treated as single-host prefixes.
func envPrefixes(key string) []netip.Prefix {
	var out []netip.Prefix
	for _, raw := range envList(key) {
		if p, err := netip.ParsePrefix(raw); err == nil {
			out = append(out, p)
			continue
		}
		if a, err := netip.ParseAddr(raw); err == nil {
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return out
}
