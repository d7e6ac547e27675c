// Package config loads blobmover settings: logging plus a set of named
// storage slots, each a tagged storage.Config.
//
// Files may be YAML, JSON or TOML. Any key present in the file, plus the log
// settings, can be overridden from the environment with the BLOBMOVER_
// prefix, dots becoming underscores (BLOBMOVER_LOG_LEVEL,
// BLOBMOVER_STORAGE_IMAGES_SOURCE_BUCKET).
package config

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/koustreak/blobmover/internal/errs"
	"github.com/koustreak/blobmover/internal/logger"
	"github.com/koustreak/blobmover/internal/storage"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BLOBMOVER"

// legacyKindKey is the discriminator name used by older config files.
const legacyKindKey = "backend"

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level"`
	Format string `mapstructure:"format" json:"format" yaml:"format"`
}

// Config is the root of a blobmover configuration file.
type Config struct {
	Log     LogConfig                 `mapstructure:"log" json:"log" yaml:"log"`
	Storage map[string]storage.Config `mapstructure:"storage" json:"storage" yaml:"storage"`
}

// Load reads the file at path and applies environment overrides.
// A missing or unparsable file is a configuration error; slots are not
// validated here (see Validate).
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errs.New(errs.ErrKindConfiguration, "config file path is required")
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.Wrap(errs.ErrKindConfiguration, "config file not found: "+path, err)
		}
		return nil, errs.Wrap(errs.ErrKindConfiguration, "cannot access config file "+path, err)
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "failed to read config file "+path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "failed to decode configuration", err)
	}
	if cfg.Storage == nil {
		cfg.Storage = map[string]storage.Config{}
	}

	for name, slot := range cfg.Storage {
		if slot.Kind != "" {
			continue
		}
		if legacy := v.GetString("storage." + name + "." + legacyKindKey); legacy != "" {
			slot.Kind = storage.Kind(strings.ToLower(legacy))
			cfg.Storage[name] = slot
		}
	}
	return cfg, nil
}

// Backend returns the storage slot called name.
func (c *Config) Backend(name string) (storage.Config, error) {
	slot, ok := c.Storage[strings.ToLower(name)]
	if !ok {
		return storage.Config{}, errs.Newf(errs.ErrKindConfiguration,
			"missing storage slot %q (configured: %s)", name, strings.Join(c.SlotNames(), ", "))
	}
	return slot, nil
}

// SlotNames returns the configured slot names, sorted.
func (c *Config) SlotNames() []string {
	names := make([]string, 0, len(c.Storage))
	for name := range c.Storage {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every slot, reporting the first invalid one by name.
func (c *Config) Validate() error {
	for _, name := range c.SlotNames() {
		if err := c.Storage[name].Validate(); err != nil {
			return errs.Wrap(errs.KindOf(err), "storage slot "+name, err)
		}
	}
	return nil
}

// Logger returns the logger settings for output.
func (c *Config) Logger() *logger.Config {
	lc := logger.DefaultConfig()
	if c.Log.Level != "" {
		lc.Level = c.Log.Level
	}
	if c.Log.Format != "" {
		lc.Format = c.Log.Format
	}
	return lc
}
