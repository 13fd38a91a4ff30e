package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nstehr/bastion/bastion-core/rules"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Sidecar  SidecarConfig  `mapstructure:"sidecar"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Store    StoreConfig    `mapstructure:"store"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type SidecarConfig struct {
	Socket string `mapstructure:"socket"`
}

type StrategyConfig struct {
	Doctrine     string `mapstructure:"doctrine"`      // built-in profile name
	DoctrineFile string `mapstructure:"doctrine_file"` // YAML profile, overrides Doctrine
	Fatigue      string `mapstructure:"fatigue"`       // profile once fatigue starts
	Duel         string `mapstructure:"duel"`          // profile with one opponent left
}

type StoreConfig struct {
	Driver    string `mapstructure:"driver"` // memory or sqlite
	Path      string `mapstructure:"path"`
	Retention string `mapstructure:"retention"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}

	if cfg.Sidecar.Socket == "" {
		cfg.Sidecar.Socket = "/tmp/bastion.sock"
	}

	if cfg.Strategy.Doctrine == "" {
		cfg.Strategy.Doctrine = "balanced"
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "memory"
	}

	if cfg.Store.Driver == "sqlite" && cfg.Store.Path == "" {
		cfg.Store.Path = "bastion.sqlite"
	}

	if cfg.Store.Retention == "" {
		cfg.Store.Retention = "24h"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	if c.Strategy.DoctrineFile == "" {
		if _, ok := rules.Lookup(c.Strategy.Doctrine); !ok {
			return fmt.Errorf("unknown doctrine: %s (must be one of %s)", c.Strategy.Doctrine, strings.Join(rules.ProfileNames(), ", "))
		}
	}
	for phase, name := range map[string]string{"fatigue": c.Strategy.Fatigue, "duel": c.Strategy.Duel} {
		if name == "" {
			continue
		}
		if _, ok := rules.Lookup(name); !ok {
			return fmt.Errorf("unknown %s doctrine: %s", phase, name)
		}
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store path is required for sqlite")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be memory or sqlite)", c.Store.Driver)
	}

	if _, err := time.ParseDuration(c.Store.Retention); err != nil {
		return fmt.Errorf("invalid store retention: %w", err)
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Log.Format)
	}

	return nil
}

// BaseDoctrine resolves the doctrine used outside special phases.
func (c StrategyConfig) BaseDoctrine() (rules.Doctrine, error) {
	if c.DoctrineFile != "" {
		return rules.LoadDoctrineFile(c.DoctrineFile)
	}
	d, ok := rules.Lookup(c.Doctrine)
	if !ok {
		return rules.Doctrine{}, fmt.Errorf("unknown doctrine: %s", c.Doctrine)
	}
	return d, nil
}

// RetentionDuration is how long idle agent memory is kept.
func (c StoreConfig) RetentionDuration() time.Duration {
	d, _ := time.ParseDuration(c.Retention)
	return d
}

// SlogLevel converts the configured level; invalid values fall back to info.
func (c LogConfig) SlogLevel() slog.Level {
	l, err := parseLevel(c.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level: %s (must be debug, info, warn or error)", s)
	}
	return l, nil
}
