package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "GUARDIAN_"
	envFileVar = "GUARDIAN_CONFIG"
)

// Load layers defaults, an optional YAML file named by GUARDIAN_CONFIG and
// GUARDIAN_* env vars (low to high precedence), then validates the result.
func Load(_ context.Context) (ServerConfig, error) {
	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return ServerConfig{}, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// GUARDIAN_MONITOR_INTERVAL -> monitor_interval
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		if s == envFileVar {
			return ""
		}
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return ServerConfig{}, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := defaultServerConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return ServerConfig{}, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.KafkaBrokers = splitAndTrim(cfg.KafkaBrokers)
	cfg.SafeWords = splitAndTrim(cfg.SafeWords)
	cfg.TrustedContacts = splitAndTrim(cfg.TrustedContacts)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func splitAndTrim(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		for _, r := range strings.Split(v, ",") {
			r = strings.TrimSpace(r)
			if r == "" {
				continue
			}
			out = append(out, r)
		}
	}
	return out
}
