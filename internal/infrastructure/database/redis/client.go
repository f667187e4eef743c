// Package redis holds the scene cache: a go-redis client wrapper and a
// JSON cache with singleflight-collapsed loads.
package redis

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/pkg/errors"
)

var (
	ErrClientClosed     = errors.New(errors.ErrCodeInternal, "scene cache connection is closed")
	ErrConnectionFailed = errors.New(errors.ErrCodeServiceUnavailable, "scene cache unreachable")
)

// ClientConfig is the connection part of the redis section. Mode "cluster"
// treats Addr plus ClusterAddrs as seed nodes.
type ClientConfig struct {
	Mode            string        `mapstructure:"mode"`
	Addr            string        `mapstructure:"addr"`
	ClusterAddrs    []string      `mapstructure:"cluster_addrs"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	TLSEnabled      bool          `mapstructure:"tls_enabled"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

// withDefaults returns a copy with zero fields filled in.
func (c ClientConfig) withDefaults() ClientConfig {
	setDur := func(d *time.Duration, v time.Duration) {
		if *d == 0 {
			*d = v
		}
	}
	if c.Mode == "" {
		c.Mode = "standalone"
	}
	if c.PoolSize == 0 {
		c.PoolSize = 10
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	setDur(&c.DialTimeout, 5*time.Second)
	setDur(&c.ReadTimeout, 3*time.Second)
	setDur(&c.WriteTimeout, 3*time.Second)
	setDur(&c.MinRetryBackoff, 8*time.Millisecond)
	setDur(&c.MaxRetryBackoff, 512*time.Millisecond)
	setDur(&c.PingTimeout, 5*time.Second)
	return c
}

func (c ClientConfig) universal() *redis.UniversalOptions {
	addrs := append([]string{}, c.ClusterAddrs...)
	if c.Addr != "" {
		addrs = append([]string{c.Addr}, addrs...)
	}
	u := &redis.UniversalOptions{
		Addrs:           addrs,
		Password:        c.Password,
		DB:              c.DB,
		PoolSize:        c.PoolSize,
		MinIdleConns:    c.MinIdleConns,
		DialTimeout:     c.DialTimeout,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		MaxRetries:      c.MaxRetries,
		MinRetryBackoff: c.MinRetryBackoff,
		MaxRetryBackoff: c.MaxRetryBackoff,
	}
	if c.TLSEnabled {
		u.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return u
}

// Client guards a go-redis client against use after Close.
type Client struct {
	rdb    redis.UniversalClient
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewClient connects and pings; a failed ping closes the client and returns
// ErrConnectionFailed.
func NewClient(cfg *ClientConfig, log logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := cfg.withDefaults()
	opts := c.universal()

	var rdb redis.UniversalClient
	switch c.Mode {
	case "cluster":
		rdb = redis.NewClusterClient(opts.Cluster())
	case "standalone":
		rdb = redis.NewClient(opts.Simple())
	default:
		log.Warn("unknown redis mode, using standalone", logging.String("mode", c.Mode))
		rdb = redis.NewClient(opts.Simple())
	}
	client := NewClientFromUniversal(rdb, log)

	ctx, cancel := context.WithTimeout(context.Background(), c.PingTimeout)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, ErrConnectionFailed.WithCause(err)
	}

	log.Info("scene cache connected",
		logging.String("mode", c.Mode),
		logging.Any("addrs", opts.Addrs))
	return client, nil
}

// NewClientFromUniversal wraps an already-built client (tests pass a
// redismock client here).
func NewClientFromUniversal(rdb redis.UniversalClient, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{rdb: rdb, logger: log}
}

func (c *Client) Ping(ctx context.Context) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	return c.rdb.Ping(ctx).Err()
}

// Close is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.rdb.Close(); err != nil {
		c.logger.Error("scene cache close failed", logging.Err(err))
		return err
	}
	c.logger.Info("scene cache disconnected")
	return nil
}

func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	if c.isClosed() {
		return failed(redis.NewStringCmd(ctx))
	}
	return c.rdb.Get(ctx, key)
}

func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if c.isClosed() {
		return failed(redis.NewStatusCmd(ctx))
	}
	return c.rdb.Set(ctx, key, value, expiration)
}

func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if c.isClosed() {
		return failed(redis.NewIntCmd(ctx))
	}
	return c.rdb.Del(ctx, keys...)
}

func (c *Client) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	if c.isClosed() {
		return failed(redis.NewIntCmd(ctx))
	}
	return c.rdb.Exists(ctx, keys...)
}

func (c *Client) TTL(ctx context.Context, key string) *redis.DurationCmd {
	if c.isClosed() {
		return failed(redis.NewDurationCmd(ctx, time.Second))
	}
	return c.rdb.TTL(ctx, key)
}

func (c *Client) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	if c.isClosed() {
		return failed(redis.NewScanCmd(ctx, nil))
	}
	return c.rdb.Scan(ctx, cursor, match, count)
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// failed marks cmd with ErrClientClosed.
func failed[T redis.Cmder](cmd T) T {
	cmd.SetErr(ErrClientClosed)
	return cmd
}

//Personal.AI order the ending
