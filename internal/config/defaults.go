package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost            = "0.0.0.0"
	DefaultServerPort            = 8080
	DefaultServerMode            = "release"
	DefaultReadTimeout           = 15 * time.Second
	DefaultWriteTimeout          = 30 * time.Second
	DefaultShutdownTimeout       = 10 * time.Second
	DefaultMaxBodySize     int64 = 4 << 20
	DefaultRateLimitBurst        = 20

	DefaultLogLevel  = logging.LevelInfo
	DefaultLogFormat = "json"

	DefaultAtomRadius        = 0.2
	DefaultHydrogenRadius    = 0.1
	DefaultBondRadius        = 0.03
	DefaultBondColor         = "#ffffff"
	DefaultFallbackColor     = "#808080"
	DefaultDoubleBondOffset  = 0.05
	DefaultTripleBondOffset  = 0.1
	DefaultParallelEpsilon   = 1e-9
	DefaultDegenerateEpsilon = 1e-12
	DefaultFOV               = 75.0
	DefaultPadding           = 1.5
	DefaultMinExtent         = 0.0
	DefaultMinDimension      = 1e-6

	DefaultCacheTTL       = 24 * time.Hour
	DefaultCacheKeyPrefix = "molscope:scene:"

	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisPoolSize = 10

	DefaultStorageEndpoint = "localhost:9000"
	DefaultStorageBucket   = "molscope-scenes"
	DefaultPresignExpiry   = 15 * time.Minute

	DefaultKafkaBroker  = "localhost:9092"
	DefaultSceneTopic   = "molscope.scene.built"
	DefaultRejectTopic  = "molscope.record.rejected"
	DefaultBatchSize    = 100
	DefaultBatchTimeout = 10 * time.Millisecond
	DefaultMaxAttempts  = 3

	DefaultConverterTimeout     = 10 * time.Second
	DefaultConverterRetries     = 2
	DefaultConverterRetryWait   = 200 * time.Millisecond
	DefaultMetricsNamespace     = "molscope"
	DefaultMetricsPath          = "/metrics"
	DefaultMaxSessions          = 1024
	DefaultSessionIdleTimeout   = 30 * time.Minute
	DefaultSessionSweepInterval = time.Minute
)

// ApplyDefaults fills every zero-value field in cfg with the default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.RateLimitRPS > 0 && cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = DefaultRateLimitBurst
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Render ────────────────────────────────────────────────────────────────
	r := &cfg.Render
	setFloat(&r.AtomRadius, DefaultAtomRadius)
	setFloat(&r.HydrogenRadius, DefaultHydrogenRadius)
	setFloat(&r.BondRadius, DefaultBondRadius)
	setFloat(&r.DoubleBondOffset, DefaultDoubleBondOffset)
	setFloat(&r.TripleBondOffset, DefaultTripleBondOffset)
	setFloat(&r.ParallelEpsilon, DefaultParallelEpsilon)
	setFloat(&r.DegenerateEpsilon, DefaultDegenerateEpsilon)
	setFloat(&r.FOV, DefaultFOV)
	setFloat(&r.Padding, DefaultPadding)
	setFloat(&r.MinDimension, DefaultMinDimension)
	if r.BondColor == "" {
		r.BondColor = DefaultBondColor
	}
	if r.FallbackColor == "" {
		r.FallbackColor = DefaultFallbackColor
	}

	// ── Cache / Redis ─────────────────────────────────────────────────────────
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	// DB is an int; 0 is a valid explicit value and also the default.

	// ── Storage ───────────────────────────────────────────────────────────────
	if cfg.Storage.Endpoint == "" {
		cfg.Storage.Endpoint = DefaultStorageEndpoint
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = DefaultStorageBucket
	}
	if cfg.Storage.PresignExpiry == 0 {
		cfg.Storage.PresignExpiry = DefaultPresignExpiry
	}

	// ── Messaging ─────────────────────────────────────────────────────────────
	if len(cfg.Messaging.Brokers) == 0 {
		cfg.Messaging.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Messaging.SceneTopic == "" {
		cfg.Messaging.SceneTopic = DefaultSceneTopic
	}
	if cfg.Messaging.RejectTopic == "" {
		cfg.Messaging.RejectTopic = DefaultRejectTopic
	}
	if cfg.Messaging.BatchSize == 0 {
		cfg.Messaging.BatchSize = DefaultBatchSize
	}
	if cfg.Messaging.BatchTimeout == 0 {
		cfg.Messaging.BatchTimeout = DefaultBatchTimeout
	}
	if cfg.Messaging.MaxAttempts == 0 {
		cfg.Messaging.MaxAttempts = DefaultMaxAttempts
	}

	// ── Converter ─────────────────────────────────────────────────────────────
	if cfg.Converter.Timeout == 0 {
		cfg.Converter.Timeout = DefaultConverterTimeout
	}
	if cfg.Converter.MaxRetries == 0 {
		cfg.Converter.MaxRetries = DefaultConverterRetries
	}
	if cfg.Converter.RetryWait == 0 {
		cfg.Converter.RetryWait = DefaultConverterRetryWait
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Session ───────────────────────────────────────────────────────────────
	if cfg.Session.MaxSessions == 0 {
		cfg.Session.MaxSessions = DefaultMaxSessions
	}
	if cfg.Session.IdleTimeout == 0 {
		cfg.Session.IdleTimeout = DefaultSessionIdleTimeout
	}
	if cfg.Session.SweepInterval == 0 {
		cfg.Session.SweepInterval = DefaultSessionSweepInterval
	}
}

func setFloat(dst *float64, def float64) {
	if *dst == 0 {
		*dst = def
	}
}

// envKeys lists every leaf key so AutomaticEnv can resolve MOLSCOPE_*
// variables for keys absent from the config file.
var envKeys = []string{
	"server.host", "server.port", "server.mode", "server.read_timeout",
	"server.write_timeout", "server.max_body_size", "server.shutdown_timeout",
	"server.cors_allowed_origins", "server.rate_limit_rps", "server.rate_limit_burst",
	"log.level", "log.format", "log.output_paths", "log.error_output_paths",
	"render.atom_radius", "render.hydrogen_radius", "render.bond_radius",
	"render.bond_color", "render.fallback_color", "render.double_bond_offset",
	"render.triple_bond_offset", "render.parallel_epsilon",
	"render.degenerate_epsilon", "render.fov", "render.padding", "render.min_extent",
	"render.min_dimension",
	"cache.ttl", "cache.key_prefix",
	"redis.addr", "redis.password", "redis.db", "redis.pool_size",
	"redis.min_idle_conns", "redis.dial_timeout", "redis.read_timeout",
	"redis.write_timeout", "redis.max_retries",
	"storage.endpoint", "storage.access_key", "storage.secret_key",
	"storage.bucket", "storage.region", "storage.use_ssl", "storage.presign_expiry",
	"messaging.brokers", "messaging.scene_topic", "messaging.reject_topic",
	"messaging.batch_size", "messaging.batch_timeout", "messaging.max_attempts",
	"messaging.required_acks", "messaging.async", "messaging.write_deadline",
	"converter.base_url", "converter.timeout", "converter.max_retries",
	"converter.retry_wait",
	"metrics.namespace", "metrics.path", "metrics.enable_process_metrics",
	"metrics.enable_go_metrics",
	"session.max_sessions", "session.idle_timeout", "session.sweep_interval",
	"cache.enabled", "storage.enabled", "messaging.enabled", "converter.enabled",
	"metrics.enabled",
}

// registerKeys binds envKeys and seeds the boolean defaults that
// ApplyDefaults cannot tell apart from an explicit false.
func registerKeys(v *viper.Viper) {
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.enable_go_metrics", true)
	v.SetDefault("metrics.enable_process_metrics", true)
}

//Personal.AI order the ending
