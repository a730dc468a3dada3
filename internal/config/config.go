// Package config loads the recordctl configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tarantool/go-record/marshaller"
	"github.com/tarantool/go-record/namer"
	"github.com/tarantool/go-record/record"
)

// Driver names accepted in Config.Driver.
const (
	DriverDummy  = "dummy"
	DriverPebble = "pebble"
	DriverSQLite = "sqlite"
	DriverEtcd   = "etcd"
	DriverTKV    = "tkv"
)

// Drivers lists every supported driver name.
var Drivers = []string{DriverDummy, DriverPebble, DriverSQLite, DriverEtcd, DriverTKV} //nolint:gochecknoglobals

var (
	// ErrUnknownDriver is returned for a driver name outside Drivers.
	ErrUnknownDriver = errors.New("unknown driver")
	// ErrMissingSetting is returned when the selected driver lacks a required setting.
	ErrMissingSetting = errors.New("missing setting")
	// ErrInvalidSetting is returned for a malformed value.
	ErrInvalidSetting = errors.New("invalid setting")
)

// Config is the top-level configuration.
type Config struct {
	Driver     string            `yaml:"driver"`
	Prefix     string            `yaml:"prefix"`
	Format     marshaller.Format `yaml:"format"`
	MaxRetries int               `yaml:"max_retries"`
	Log        Log               `yaml:"log"`
	Pebble     Pebble            `yaml:"pebble"`
	SQLite     SQLite            `yaml:"sqlite"`
	Etcd       Etcd              `yaml:"etcd"`
	Tarantool  Tarantool         `yaml:"tarantool"`
}

// Log configures the CLI logger.
type Log struct {
	Level string `yaml:"level"`
	// Color is one of auto, always, never.
	Color string `yaml:"color"`
}

// Pebble configures the pebble driver.
type Pebble struct {
	DataDir string `yaml:"data_dir"`
	Sync    bool   `yaml:"sync"`
}

// SQLite configures the sqlite driver.
type SQLite struct {
	Path string `yaml:"path"`
}

// Etcd configures the etcd driver.
type Etcd struct {
	Endpoints   []string      `yaml:"endpoints"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
}

// Tarantool configures the tkv driver.
type Tarantool struct {
	Addresses []string      `yaml:"addresses"`
	User      string        `yaml:"user"`
	Password  string        `yaml:"password"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Driver:     DriverPebble,
		Prefix:     namer.DefaultPrefix,
		Format:     marshaller.FormatMsgpack,
		MaxRetries: record.DefaultMaxRetries,
		Log: Log{
			Level: "info",
			Color: "auto",
		},
		Pebble: Pebble{
			DataDir: "./data",
			Sync:    true,
		},
		SQLite: SQLite{
			Path: "./records.db",
		},
		Etcd: Etcd{
			Endpoints:   []string{"localhost:2379"},
			DialTimeout: 5 * time.Second, //nolint:mnd
			Username:    "",
			Password:    "",
		},
		Tarantool: Tarantool{
			Addresses: []string{"localhost:3301"},
			User:      "guest",
			Password:  "",
			Timeout:   5 * time.Second, //nolint:mnd
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown fields are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the settings of the selected driver.
func (c Config) Validate() error {
	if !slices.Contains(Drivers, c.Driver) {
		return fmt.Errorf("%w %q, want one of %s", ErrUnknownDriver, c.Driver, strings.Join(Drivers, ", "))
	}

	if err := c.Format.Validate(); err != nil {
		return fmt.Errorf("%w: format: %w", ErrInvalidSetting, err)
	}

	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: max_retries must be positive, got %d", ErrInvalidSetting, c.MaxRetries)
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}

	switch c.Log.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("%w: log.color %q, want auto, always or never", ErrInvalidSetting, c.Log.Color)
	}

	switch c.Driver {
	case DriverPebble:
		if c.Pebble.DataDir == "" {
			return fmt.Errorf("%w: pebble.data_dir", ErrMissingSetting)
		}
	case DriverSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("%w: sqlite.path", ErrMissingSetting)
		}
	case DriverEtcd:
		if len(c.Etcd.Endpoints) == 0 {
			return fmt.Errorf("%w: etcd.endpoints", ErrMissingSetting)
		}
	case DriverTKV:
		if len(c.Tarantool.Addresses) == 0 {
			return fmt.Errorf("%w: tarantool.addresses", ErrMissingSetting)
		}
	}

	return nil
}

// LogLevel parses Log.Level.
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("%w: log.level: %w", ErrInvalidSetting, err)
	}

	return level, nil
}
