// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenDiary Contributors

// Package config loads server configuration from defaults, an optional YAML
// file, and command-line flags, in increasing order of precedence.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/opendiary/opendiary/internal/auth"
	"github.com/opendiary/opendiary/internal/logging"
)

// DatabaseURLEnv is read when neither the file nor a flag sets database-url.
const DatabaseURLEnv = "DATABASE_URL"

// Config is the resolved server configuration.
type Config struct {
	HTTPAddr         string        `koanf:"http-addr"`
	MetricsAddr      string        `koanf:"metrics-addr"`
	DatabaseURL      string        `koanf:"database-url"`
	LogFormat        string        `koanf:"log-format"`
	LogLevel         string        `koanf:"log-level"`
	SessionLifetime  time.Duration `koanf:"session-lifetime"`
	ReportExpired    bool          `koanf:"report-expired"`
	Argon2Time       uint32        `koanf:"argon2-time"`
	Argon2MemoryKiB  uint32        `koanf:"argon2-memory-kib"`
	Argon2Threads    uint8         `koanf:"argon2-threads"`
	DBConnectRetries uint64        `koanf:"db-connect-retries"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPAddr:         "127.0.0.1:3000",
		MetricsAddr:      "127.0.0.1:9100",
		LogFormat:        "json",
		LogLevel:         "info",
		SessionLifetime:  auth.SessionLifetime,
		Argon2Time:       auth.DefaultArgon2Params.Time,
		Argon2MemoryKiB:  auth.DefaultArgon2Params.MemoryKiB,
		Argon2Threads:    auth.DefaultArgon2Params.Threads,
		DBConnectRetries: 5,
	}
}

// RegisterFlags adds one flag per configuration key to fs, with the built-in
// defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("http-addr", d.HTTPAddr, "HTTP API listen address")
	fs.String("metrics-addr", d.MetricsAddr, "metrics and health listen address (empty disables)")
	fs.String("database-url", "", "PostgreSQL connection string (default $"+DatabaseURLEnv+")")
	fs.String("log-format", d.LogFormat, "log format (json, text)")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.Duration("session-lifetime", d.SessionLifetime, "lifetime of a newly issued session")
	fs.Bool("report-expired", d.ReportExpired, "report SessionExpired instead of InvalidSession for expired tokens")
	fs.Uint32("argon2-time", d.Argon2Time, "argon2id iterations for new password hashes")
	fs.Uint32("argon2-memory-kib", d.Argon2MemoryKiB, "argon2id memory in KiB for new password hashes")
	fs.Uint8("argon2-threads", d.Argon2Threads, "argon2id parallelism for new password hashes")
	fs.Uint64("db-connect-retries", d.DBConnectRetries, "extra attempts when the database is unreachable at startup")
}

// Load resolves the configuration. path may be empty; flags may be nil.
// Flags win over the file only when they were set explicitly.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_FILE_INVALID").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv(DatabaseURLEnv)
	}

	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return invalid("database-url", "database URL is required (flag, config file, or $%s)", DatabaseURLEnv)
	}
	if c.HTTPAddr == "" {
		return invalid("http-addr", "HTTP listen address is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return invalid("log-format", "log format must be json or text, got %q", c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return invalid("log-level", "%v", err)
	}
	if c.SessionLifetime <= 0 {
		return invalid("session-lifetime", "session lifetime must be positive, got %s", c.SessionLifetime)
	}
	if c.Argon2Time == 0 {
		return invalid("argon2-time", "argon2 iterations must be at least 1")
	}
	if c.Argon2Threads == 0 {
		return invalid("argon2-threads", "argon2 threads must be at least 1")
	}
	if c.Argon2MemoryKiB < 8*uint32(c.Argon2Threads) {
		return invalid("argon2-memory-kib", "argon2 memory must be at least 8 KiB per thread, got %d", c.Argon2MemoryKiB)
	}
	return nil
}

// Argon2Params returns the hashing cost parameters.
func (c Config) Argon2Params() auth.Argon2Params {
	return auth.Argon2Params{
		Time:      c.Argon2Time,
		MemoryKiB: c.Argon2MemoryKiB,
		Threads:   c.Argon2Threads,
	}
}

// AuthOptions returns the session options implied by the configuration.
func (c Config) AuthOptions() []auth.Option {
	opts := []auth.Option{auth.WithSessionLifetime(c.SessionLifetime)}
	if c.ReportExpired {
		opts = append(opts, auth.WithDistinctExpiry())
	}
	return opts
}

func invalid(key, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
}
