package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment conventions.
const (
	EnvPrefix     = "COHORT_"
	EnvConfigPath = "COHORT_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) at path, or at COHORT_CONFIG when path is empty
//  3. env (prefix COHORT_, "__" separates nested keys)
//
// Lists present in a layer replace the defaults instead of merging into them.
// column_types is merged per column, so declaring one column keeps the default
// declarations of the others. Callers apply their own overrides and then call Validate.
func Load(ctx context.Context, path string) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// COHORT_BASE_PATH -> base_path, COHORT_EVENTS__BASELINE -> events.baseline.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		if s == EnvConfigPath {
			return ""
		}
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	conf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
			Result:           &cfg,
			WeaklyTypedInput: true,
			ZeroFields:       true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, conf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.ColumnTypes = mergeKinds(New().ColumnTypes, cfg.ColumnTypes)
	return &cfg, nil
}

// mergeKinds overlays declared column kinds onto the defaults.
func mergeKinds(defaults, declared map[string]string) map[string]string {
	out := make(map[string]string, len(defaults)+len(declared))
	for name, kind := range defaults {
		out[name] = kind
	}
	for name, kind := range declared {
		out[name] = kind
	}
	return out
}
