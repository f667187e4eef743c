// Package config defines all configuration structures for molscope. No I/O or
// parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// CORSAllowedOrigins lists browser origins allowed to call the API.
	// Empty disables CORS headers.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	// RateLimitRPS is the per-client token refill rate; 0 disables limiting.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RenderConfig carries every tunable visual constant of the scene builder.
// Colours are "#rrggbb" strings; element keys are chemical symbols.
type RenderConfig struct {
	AtomRadius        float64           `mapstructure:"atom_radius"`
	HydrogenRadius    float64           `mapstructure:"hydrogen_radius"`
	BondRadius        float64           `mapstructure:"bond_radius"`
	BondColor         string            `mapstructure:"bond_color"`
	FallbackColor     string            `mapstructure:"fallback_color"`
	ElementColors     map[string]string `mapstructure:"element_colors"`
	DoubleBondOffset  float64           `mapstructure:"double_bond_offset"`
	TripleBondOffset  float64           `mapstructure:"triple_bond_offset"`
	ParallelEpsilon   float64           `mapstructure:"parallel_epsilon"`
	DegenerateEpsilon float64           `mapstructure:"degenerate_epsilon"`
	FOV               float64           `mapstructure:"fov"`
	Padding           float64           `mapstructure:"padding"`
	MinExtent         float64           `mapstructure:"min_extent"`
	MinDimension      float64           `mapstructure:"min_dimension"`
}

// CacheConfig controls the scene cache in front of the builder.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// StorageConfig holds MinIO / S3-compatible object-storage parameters for
// the scene archive.
type StorageConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	Region        string        `mapstructure:"region"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// MessagingConfig holds Kafka producer parameters for scene events.
type MessagingConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Brokers       []string      `mapstructure:"brokers"`
	SceneTopic    string        `mapstructure:"scene_topic"`
	RejectTopic   string        `mapstructure:"reject_topic"`
	BatchSize     int           `mapstructure:"batch_size"`
	BatchTimeout  time.Duration `mapstructure:"batch_timeout"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	RequiredAcks  int           `mapstructure:"required_acks"`
	Async         bool          `mapstructure:"async"`
	WriteDeadline time.Duration `mapstructure:"write_deadline"`
}

// ConverterConfig points at the remote SMILES → record conversion service.
type ConverterConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryWait  time.Duration `mapstructure:"retry_wait"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Namespace            string `mapstructure:"namespace"`
	Path                 string `mapstructure:"path"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics"`
}

// SessionConfig bounds the in-memory viewer session registry.
type SessionConfig struct {
	MaxSessions   int           `mapstructure:"max_sessions"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure. Every infrastructure component
// and application service reads its settings from the relevant sub-struct.
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Log       logging.LogConfig `mapstructure:"log"`
	Render    RenderConfig      `mapstructure:"render"`
	Cache     CacheConfig       `mapstructure:"cache"`
	Redis     RedisConfig       `mapstructure:"redis"`
	Storage   StorageConfig     `mapstructure:"storage"`
	Messaging MessagingConfig   `mapstructure:"messaging"`
	Converter ConverterConfig   `mapstructure:"converter"`
	Metrics   MetricsConfig     `mapstructure:"metrics"`
	Session   SessionConfig     `mapstructure:"session"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

var hexColor = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.MaxBodySize < 1 {
		return fmt.Errorf("config: server.max_body_size must be ≥ 1, got %d", c.Server.MaxBodySize)
	}
	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("config: server.rate_limit_rps must be ≥ 0, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("config: server.rate_limit_burst must be ≥ 1 when rate limiting is on, got %d", c.Server.RateLimitBurst)
	}

	// Log
	if _, err := logging.ParseLevel(string(c.Log.Level)); err != nil {
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	if err := c.Render.validate(); err != nil {
		return err
	}

	// Cache
	if c.Cache.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when cache.enabled")
		}
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("config: cache.ttl must be positive, got %s", c.Cache.TTL)
		}
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Storage
	if c.Storage.Enabled {
		if c.Storage.Endpoint == "" {
			return fmt.Errorf("config: storage.endpoint is required when storage.enabled")
		}
		if c.Storage.Bucket == "" {
			return fmt.Errorf("config: storage.bucket is required when storage.enabled")
		}
	}

	// Messaging
	if c.Messaging.Enabled {
		if len(c.Messaging.Brokers) == 0 {
			return fmt.Errorf("config: messaging.brokers must contain at least one broker address")
		}
		if c.Messaging.SceneTopic == "" || c.Messaging.RejectTopic == "" {
			return fmt.Errorf("config: messaging.scene_topic and messaging.reject_topic are required")
		}
	}

	// Converter
	if c.Converter.Enabled && c.Converter.BaseURL == "" {
		return fmt.Errorf("config: converter.base_url is required when converter.enabled")
	}
	if c.Converter.MaxRetries < 0 {
		return fmt.Errorf("config: converter.max_retries must be ≥ 0, got %d", c.Converter.MaxRetries)
	}

	// Session
	if c.Session.MaxSessions < 1 {
		return fmt.Errorf("config: session.max_sessions must be ≥ 1, got %d", c.Session.MaxSessions)
	}
	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("config: session.idle_timeout must be positive, got %s", c.Session.IdleTimeout)
	}

	return nil
}

func (r *RenderConfig) validate() error {
	positive := map[string]float64{
		"render.atom_radius":        r.AtomRadius,
		"render.hydrogen_radius":    r.HydrogenRadius,
		"render.bond_radius":        r.BondRadius,
		"render.double_bond_offset": r.DoubleBondOffset,
		"render.triple_bond_offset": r.TripleBondOffset,
		"render.min_dimension":      r.MinDimension,
	}
	for key, v := range positive {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("config: %s must be a positive finite number, got %v", key, v)
		}
	}
	if !(r.MinExtent >= 0) || math.IsInf(r.MinExtent, 0) {
		return fmt.Errorf("config: render.min_extent must be zero or a positive finite number, got %v", r.MinExtent)
	}
	if !(r.FOV > 0 && r.FOV < 180) {
		return fmt.Errorf("config: render.fov %v is out of range (0, 180)", r.FOV)
	}
	if !(r.Padding > 1) || math.IsInf(r.Padding, 0) {
		return fmt.Errorf("config: render.padding must exceed 1, got %v", r.Padding)
	}
	for key, v := range map[string]string{"render.bond_color": r.BondColor, "render.fallback_color": r.FallbackColor} {
		if !hexColor.MatchString(v) {
			return fmt.Errorf("config: %s %q is not a #rrggbb colour", key, v)
		}
	}
	for sym, v := range r.ElementColors {
		if !hexColor.MatchString(v) {
			return fmt.Errorf("config: render.element_colors.%s %q is not a #rrggbb colour", sym, v)
		}
	}
	return nil
}

//Personal.AI order the ending
