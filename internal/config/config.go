// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves the pipeline configuration from defaults, a YAML
// config file, and ANSWER_ENGINE_* environment variables, then validates it.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// EnvPrefix is prepended to every environment override, e.g.
// ANSWER_ENGINE_COMPLETION_MODEL.
const EnvPrefix = "ANSWER_ENGINE"

var validate = validator.New(validator.WithRequiredStructEnabled())

// SetDefaults registers the values of types.DefaultConfig with v so that
// environment variables can override keys that never appear in a file.
// Limits are registered as a generic map so that a file overriding one kind
// keeps the defaults of the others.
func SetDefaults(v *viper.Viper) {
	d := types.DefaultConfig()

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.console", d.Logging.Console)

	v.SetDefault("completion.backend", string(d.Completion.Backend))
	v.SetDefault("completion.model", d.Completion.Model)
	v.SetDefault("completion.base_url", d.Completion.BaseURL)
	v.SetDefault("completion.api_key", "")
	v.SetDefault("completion.timeout", d.Completion.Timeout)
	v.SetDefault("completion.max_retries", d.Completion.MaxRetries)
	v.SetDefault("completion.max_tokens", d.Completion.MaxTokens)

	v.SetDefault("retrieval.timeout", d.Retrieval.Timeout)
	v.SetDefault("retrieval.user_agent", d.Retrieval.UserAgent)
	v.SetDefault("retrieval.kinds", d.Retrieval.Kinds)
	limits := make(map[string]any, len(d.Retrieval.Limits))
	for k, n := range d.Retrieval.Limits {
		limits[k] = n
	}
	v.SetDefault("retrieval.limits", limits)
	v.SetDefault("retrieval.margin", d.Retrieval.Margin)
	v.SetDefault("retrieval.web_provider", d.Retrieval.WebProvider)
	v.SetDefault("retrieval.brave_api_key", "")
	v.SetDefault("retrieval.encyclopedia_domain", d.Retrieval.EncyclopediaDomain)
	v.SetDefault("retrieval.requests_per_second", d.Retrieval.RequestsPerSecond)

	v.SetDefault("acquisition.timeout", d.Acquisition.Timeout)
	v.SetDefault("acquisition.user_agent", d.Acquisition.UserAgent)
	v.SetDefault("acquisition.fetcher", string(d.Acquisition.Fetcher))
	v.SetDefault("acquisition.concurrency", d.Acquisition.Concurrency)
	v.SetDefault("acquisition.settle_min", d.Acquisition.SettleMin)
	v.SetDefault("acquisition.settle_max", d.Acquisition.SettleMax)
	v.SetDefault("acquisition.headless", d.Acquisition.Headless)
	v.SetDefault("acquisition.max_body_bytes", d.Acquisition.MaxBodyBytes)
	v.SetDefault("acquisition.cache_path", d.Acquisition.CachePath)
	v.SetDefault("acquisition.cache_ttl", d.Acquisition.CacheTTL)

	v.SetDefault("extraction.enabled", d.Extraction.Enabled)
	v.SetDefault("extraction.max_input_chars", d.Extraction.MaxInputChars)

	v.SetDefault("synthesis.skip_when_empty", d.Synthesis.SkipWhenEmpty)
	v.SetDefault("synthesis.normalize_citations", d.Synthesis.NormalizeCitations)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.run_timeout", d.Server.RunTimeout)
}

// BindEnv configures v to read ANSWER_ENGINE_* variables, mapping nested
// keys with underscores (completion.model → ANSWER_ENGINE_COMPLETION_MODEL).
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load registers defaults, unmarshals v into a Config, and validates it.
// Decoding starts from a zero Config so that list values from a file
// replace the defaults instead of being merged into them.
func Load(v *viper.Viper) (types.Config, error) {
	SetDefaults(v)

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against its struct tags and returns one error listing
// every invalid field.
func Validate(cfg types.Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating configuration: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
