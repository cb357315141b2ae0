// Package config loads tuning for the codealloc CLI and the engine layer
// it drives: block size, the total-size cap, and which unwind strategy to
// install. The core codegen package never reads a file or an environment
// variable itself — it only ever takes explicit constructor arguments, as
// the allocator's "Persisted state: None" contract requires.
package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const envPrefix = "CODEALLOC"

// Unwind selects which UnwindHook codegen.NewAllocator should be
// constructed with.
type Unwind string

const (
	UnwindNone Unwind = "none"
	UnwindAuto Unwind = "auto" // platform default: SEH on Windows, DWARF on POSIX
)

// Config is the tunable surface of an engine.Engine.
type Config struct {
	BlockSize    int    `toml:"block_size" mapstructure:"block_size"`
	MaxTotalSize int    `toml:"max_total_size" mapstructure:"max_total_size"`
	Unwind       Unwind `toml:"unwind" mapstructure:"unwind"`
	MetricsAddr  string `toml:"metrics_addr" mapstructure:"metrics_addr"`
}

// Default returns the configuration the CLI uses when no file or
// environment override is present.
func Default() Config {
	return Config{
		BlockSize:    1 << 20, // 1 MiB
		MaxTotalSize: 256 << 20,
		Unwind:       UnwindAuto,
		MetricsAddr:  "",
	}
}

// Load reads path (a TOML file) if non-empty, then overlays any
// CODEALLOC_-prefixed environment variables (e.g. CODEALLOC_BLOCK_SIZE),
// on top of Default().
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := v.Unmarshal(&cfg); err != nil {
			return cfg, fmt.Errorf("config: decoding %s: %w", path, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	for _, key := range []string{"block_size", "max_total_size", "unwind", "metrics_addr"} {
		if v.IsSet(key) {
			if err := v.UnmarshalKey(key, fieldPtr(&cfg, key)); err != nil {
				return cfg, fmt.Errorf("config: env override %s: %w", key, err)
			}
		}
	}

	return cfg, nil
}

func fieldPtr(cfg *Config, key string) interface{} {
	switch key {
	case "block_size":
		return &cfg.BlockSize
	case "max_total_size":
		return &cfg.MaxTotalSize
	case "unwind":
		return &cfg.Unwind
	case "metrics_addr":
		return &cfg.MetricsAddr
	default:
		panic("config: unknown key " + key)
	}
}

// Marshal renders cfg back to TOML, used by `codealloc info --show-config`.
func Marshal(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}
