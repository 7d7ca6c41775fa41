// Package config builds process configuration from the environment once at
// startup. Services never read environment variables directly; they receive
// either the Config or a policy Snapshot at construction.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultComplianceDeadline applies when no deadline is configured. Records
// classified after this instant are General; on or before it, Legacy.
var DefaultComplianceDeadline = time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultChecksumAsyncThreshold is the file size above which checksum
// computation is deferred to the work queue instead of running inline.
const DefaultChecksumAsyncThreshold = int64(50 * 1024 * 1024)

// Config captures process-level configuration for the server binary.
type Config struct {
	Addr          string
	LogFormat     string // "text" or "json"
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// ResolveAPIKeyHash is the bcrypt hash of the API key presented by the
	// content-delivery boundary. Empty disables the resolve endpoint.
	ResolveAPIKeyHash string

	PostgresDSN string
	AutoMigrate bool

	// ContentRoot is the filesystem root of managed content.
	ContentRoot string

	Redis RedisConfig

	KafkaBrokers []string
	AuditTopic   string

	// SweepInterval drives the background reconciliation sweeper. Zero
	// disables it; cooperative reconciliation on reads still runs.
	SweepInterval time.Duration

	// ChecksumWorkers is the number of deferred-checksum consumers.
	ChecksumWorkers int

	Archive Snapshot
}

// RedisConfig captures Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Snapshot is the immutable per-operation view of archive policy settings.
// Each façade operation takes exactly one snapshot at its boundary and
// evaluates every rule against it, so a concurrent reconfiguration can never
// split one operation across two policies.
type Snapshot struct {
	// FeatureEnabled is the primary switch for link routing at the
	// content-delivery boundary.
	FeatureEnabled bool

	// AllowWhileReferenced permits archiving and visibility raises for assets
	// that are still referenced by live content. Doubles as the legacy
	// enablement switch for migration safety.
	AllowWhileReferenced bool

	// ComplianceDeadline separates Legacy (on or before) from General (after)
	// classification at execution time.
	ComplianceDeadline time.Time

	ShowArchivedLabel bool
	ArchivedLabelText string

	// ChecksumAsyncThreshold is the file size in bytes above which hashing is
	// deferred to the work queue.
	ChecksumAsyncThreshold int64
}

// Provider yields the policy snapshot for one operation. The static provider
// covers envs where settings change only at process restart; tests swap in
// their own to flip switches mid-scenario.
type Provider interface {
	Snapshot() Snapshot
}

// StaticProvider returns the same snapshot on every call.
type StaticProvider struct {
	S Snapshot
}

func (p StaticProvider) Snapshot() Snapshot { return p.S }

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:              envOr("CUSTODIA_ADDR", ":8080"),
		LogFormat:         envOr("CUSTODIA_LOG_FORMAT", "text"),
		JWTSigningKey:     envOr("CUSTODIA_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:         envOr("CUSTODIA_JWT_ISSUER", "custodia"),
		JWTAudience:       envOr("CUSTODIA_JWT_AUDIENCE", "custodia-admin"),
		ResolveAPIKeyHash: os.Getenv("CUSTODIA_RESOLVE_API_KEY_HASH"),
		PostgresDSN:       os.Getenv("CUSTODIA_DB_DSN"),
		AutoMigrate:       envBool("CUSTODIA_DB_AUTOMIGRATE", false),
		ContentRoot:       envOr("CUSTODIA_CONTENT_ROOT", "./data/content"),
		Redis: RedisConfig{
			URL:          os.Getenv("CUSTODIA_REDIS_URL"),
			PoolSize:     envInt("CUSTODIA_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CUSTODIA_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("CUSTODIA_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("CUSTODIA_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("CUSTODIA_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		KafkaBrokers:    envList("CUSTODIA_KAFKA_BROKERS"),
		AuditTopic:      envOr("CUSTODIA_AUDIT_TOPIC", "custodia.audit.v1"),
		SweepInterval:   envDuration("CUSTODIA_SWEEP_INTERVAL", 0),
		ChecksumWorkers: envInt("CUSTODIA_CHECKSUM_WORKERS", 2),
		Archive: Snapshot{
			FeatureEnabled:         envBool("CUSTODIA_ARCHIVE_ENABLED", true),
			AllowWhileReferenced:   envBool("CUSTODIA_ALLOW_WHILE_REFERENCED", false),
			ComplianceDeadline:     envTime("CUSTODIA_COMPLIANCE_DEADLINE", DefaultComplianceDeadline),
			ShowArchivedLabel:      envBool("CUSTODIA_SHOW_ARCHIVED_LABEL", true),
			ArchivedLabelText:      envOr("CUSTODIA_ARCHIVED_LABEL_TEXT", "Archived"),
			ChecksumAsyncThreshold: envInt64("CUSTODIA_CHECKSUM_ASYNC_THRESHOLD", DefaultChecksumAsyncThreshold),
		},
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envTime(key string, fallback time.Time) time.Time {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
