package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/AnotherFullstackDev/deployctl/internal/lib"
	"github.com/spf13/viper"
)

const environmentsKey = "environments"

// Source resolves configuration variables by name. Process environment wins
// over the optional YAML file, which in turn may carry per-environment
// overrides under the "environments" key.
type Source struct {
	v *viper.Viper
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

func NewSource() *Source {
	return &Source{v: newViper()}
}

func NewSourceFromPath(path string) (*Source, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &Source{v: v}, nil
}

func NewSourceFromReader(reader io.Reader) (*Source, error) {
	v := newViper()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(reader); err != nil {
		return nil, fmt.Errorf("reading config from reader: %w", err)
	}

	return &Source{v: v}, nil
}

// WithEnvironment returns a copy of the source where the values declared
// under environments.<env> override the top level ones.
func (s *Source) WithEnvironment(env string) (*Source, error) {
	newV := newViper()

	if err := newV.MergeConfigMap(s.v.AllSettings()); err != nil {
		return nil, fmt.Errorf("merging config map from global config instance: %w", err)
	}

	environments := s.v.GetStringMap(environmentsKey)
	envPart, ok := environments[strings.ToLower(env)]
	if !ok {
		return nil, fmt.Errorf("%w - environment '%s' not found in config", lib.BadUserInputError, env)
	}
	envConfig, ok := envPart.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w - environment '%s' must be a mapping", lib.BadUserInputError, env)
	}
	if err := newV.MergeConfigMap(envConfig); err != nil {
		return nil, fmt.Errorf("merging environment config map: %w", err)
	}

	return &Source{v: newV}, nil
}

// Lookup returns the value of the named variable, or the fallback when the
// variable is unset or empty. Without a fallback a missing variable is an
// error wrapping lib.MissingConfigurationError.
func (s *Source) Lookup(name string, fallback ...string) (string, error) {
	key := strings.ToLower(name)
	if s.v.IsSet(key) {
		if value := s.v.GetString(key); value != "" {
			return value, nil
		}
	}

	if len(fallback) > 0 {
		return fallback[0], nil
	}

	return "", fmt.Errorf("%w - environment variable '%s' is not set and no default was provided", lib.MissingConfigurationError, name)
}
