package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces environment variable overrides,
// e.g. SN102_EVALUATOR.ROUND_INTERVAL or SN102_LOG_LEVEL.
const envPrefix = "SN102_"

// Load builds a Config by layering defaults, an optional YAML file, and
// environment variables. Precedence, low to high:
//  1. Default()
//  2. YAML file at path (skipped when path is empty)
//  3. SN102_-prefixed environment variables
func Load(path string) (*Config, error) {
	cfg := Default()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// SN102_EVALUATOR__JUDGE -> evaluator.judge. Double underscore separates
	// nesting levels so single underscores survive inside key names.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
