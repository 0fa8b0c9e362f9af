package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config file and environment
// variables. Environment variables take precedence over values from the
// config file; both override the built-in defaults. Variables use the
// CLIPFLOW_ prefix with underscores for nesting, e.g. CLIPFLOW_SERVER_PORT.
// Returns a populated Config struct or an error if loading or validation
// fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; defaults and env vars still apply.
	}

	v.SetEnvPrefix("CLIPFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the documented default for every key so that a
// bare environment still yields a runnable configuration (except for
// values that have no sensible default, like secrets).
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("queue.capacity", 10)
	v.SetDefault("queue.operation_timeout_seconds", 300)
	v.SetDefault("queue.cleanup_interval_seconds", 60)
	v.SetDefault("queue.retention_minutes", 30)

	v.SetDefault("executor.bridge_url", "http://localhost:9222")
	v.SetDefault("executor.poll_interval_seconds", 2)
	v.SetDefault("executor.request_timeout_seconds", 30)

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.prompt_template_path", "prompts/edit_plan.tmpl")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)

	v.SetDefault("auth.token_secret", "")
}
