package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all molscope settings.
const envPrefix = "MOLSCOPE"

// configName is the base name looked up in search paths (molscope.yaml).
const configName = "molscope"

// Sentinel errors; Load wraps the underlying cause with one of these.
var (
	ErrConfigFileNotFound = errors.New("config: file not found")
	ErrConfigParseError   = errors.New("config: parse error")
	ErrConfigValidation   = errors.New("config: validation failed")
)

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// Get returns the Config produced by the most recent successful Load, or nil.
func Get() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCfg
}

func setGlobal(cfg *Config) {
	globalMu.Lock()
	globalCfg = cfg
	globalMu.Unlock()
}

// ─────────────────────────────────────────────────────────────────────────────
// Load options
// ─────────────────────────────────────────────────────────────────────────────

type loadOptions struct {
	configPath  string
	searchPaths []string
	overrides   map[string]interface{}
}

// LoadOption customises Load.
type LoadOption func(*loadOptions)

// WithConfigPath reads exactly this file.
func WithConfigPath(path string) LoadOption {
	return func(o *loadOptions) { o.configPath = path }
}

// WithSearchPaths looks for molscope.yaml in each directory, in order.
func WithSearchPaths(paths ...string) LoadOption {
	return func(o *loadOptions) { o.searchPaths = append(o.searchPaths, paths...) }
}

// WithOverrides sets keys after file and env, e.g. CLI flags.
func WithOverrides(kv map[string]interface{}) LoadOption {
	return func(o *loadOptions) {
		if o.overrides == nil {
			o.overrides = make(map[string]interface{}, len(kv))
		}
		for k, v := range kv {
			o.overrides[k] = v
		}
	}
}

// newViper builds a pre-configured Viper instance: YAML file type, MOLSCOPE_
// env prefix, automatic env binding, and a key replacer that maps "." → "_" so
// that nested keys like "render.fov" resolve to "MOLSCOPE_RENDER_FOV".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerKeys(v)
	return v
}

// Load reads the configured file (if any), merges MOLSCOPE_* environment
// overrides and explicit overrides, applies defaults for unset fields, and
// validates the result. With neither a path nor search paths it behaves like
// LoadFromEnv.
func Load(opts ...LoadOption) (*Config, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	v := newViper()
	switch {
	case o.configPath != "":
		v.SetConfigFile(o.configPath)
	case len(o.searchPaths) > 0:
		v.SetConfigName(configName)
		for _, p := range o.searchPaths {
			v.AddConfigPath(p)
		}
	}

	if o.configPath != "" || len(o.searchPaths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			return nil, classifyReadError(err)
		}
	}

	for k, val := range o.overrides {
		v.Set(k, val)
	}

	cfg, err := unmarshalAndFinalize(v)
	if err != nil {
		return nil, err
	}
	setGlobal(cfg)
	return cfg, nil
}

// LoadFromFile is Load(WithConfigPath(path)).
func LoadFromFile(path string) (*Config, error) {
	return Load(WithConfigPath(path))
}

// LoadFromEnv builds a Config entirely from MOLSCOPE_* environment variables,
// with no config file required.
//
//	MOLSCOPE_<SECTION>_<FIELD>   e.g.  MOLSCOPE_SERVER_PORT, MOLSCOPE_RENDER_FOV
func LoadFromEnv() (*Config, error) {
	return Load()
}

func classifyReadError(err error) error {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrConfigFileNotFound, err)
	}
	return fmt.Errorf("%w: %v", ErrConfigParseError, err)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", ErrConfigParseError, err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}

	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the newly parsed Config
// whenever the file is written. The server only applies the render section at
// runtime; everything else requires a restart.
//
// Watch is non-blocking; viper owns the watcher goroutine. A change that fails
// to parse or validate is reported to onError (when non-nil) and onChange is
// not called.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return classifyReadError(err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		setGlobal(cfg)
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// It is intended for use in main() where a config-load failure is always fatal.
func MustLoad(opts ...LoadOption) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
