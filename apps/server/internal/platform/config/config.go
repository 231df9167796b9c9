// Package config loads server settings from defaults, an optional .env file
// and the process environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config is the server configuration. Each field is set by the upper-cased
// form of its koanf key (PORT, DATABASE_URL, ...).
type Config struct {
	Port string `koanf:"port" validate:"required"`

	// DatabaseURL selects Postgres; empty runs on the in-memory store.
	DatabaseURL string `koanf:"database_url"`
	// RedisURL enables the dashboard cache.
	RedisURL string        `koanf:"redis_url"`
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gte=0"`

	UploadDir   string   `koanf:"upload_dir"   validate:"required"`
	CORSOrigins []string `koanf:"cors_origins"`

	OTELEnabled     bool   `koanf:"otel_enabled"`
	OTELServiceName string `koanf:"otel_service_name" validate:"required"`

	LogFormat string `koanf:"log_format" validate:"oneof=json text console"`
	LogLevel  string `koanf:"log_level"  validate:"oneof=debug info warn warning error"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Port:            "8000",
		CacheTTL:        60 * time.Second,
		UploadDir:       "uploads",
		CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		OTELServiceName: "hgraph-server",
		LogFormat:       "json",
		LogLevel:        "info",
	}
}

// Load builds a Config. dotenv names an optional .env file whose values are
// exported before the environment is read; variables already set win.
func Load(dotenv string) (*Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	known := make(map[string]bool)
	for _, key := range k.Keys() {
		known[key] = true
	}
	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(key)
			if !known[key] {
				return "", nil
			}
			return key, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
