package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue"    validate:"required"`
	Executor ExecutorConfig `mapstructure:"executor" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// QueueConfig contains the operation queue and scheduler settings.
type QueueConfig struct {
	// Capacity is the maximum number of queued plus processing operations.
	Capacity int `mapstructure:"capacity" validate:"required,gt=0"`

	// OperationTimeoutSeconds bounds a single render before it is failed.
	OperationTimeoutSeconds int `mapstructure:"operation_timeout_seconds" validate:"required,gt=0"`

	// CleanupIntervalSeconds is how often expired records are swept.
	CleanupIntervalSeconds int `mapstructure:"cleanup_interval_seconds" validate:"required,gt=0"`

	// RetentionMinutes is how long terminal records are kept before the
	// sweep deletes them.
	RetentionMinutes int `mapstructure:"retention_minutes" validate:"required,gt=0"`
}

// ExecutorConfig contains the render-bridge executor settings.
type ExecutorConfig struct {
	// BridgeURL is the base URL of the render bridge sidecar.
	BridgeURL string `mapstructure:"bridge_url" validate:"required,url"`

	// PollIntervalSeconds is how often an in-flight bridge job is polled.
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" validate:"required,gt=0"`

	// RequestTimeoutSeconds bounds each individual bridge HTTP request.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
}

// LLMConfig contains all LLM integration related settings. The whole
// group is optional: with no API key the server runs without a planner
// and forwards raw instructions to the bridge.
type LLMConfig struct {
	GeminiAPIKey       string `mapstructure:"gemini_api_key"`
	ModelName          string `mapstructure:"model_name"           validate:"required_with=GeminiAPIKey"`
	PromptTemplatePath string `mapstructure:"prompt_template_path" validate:"required_with=GeminiAPIKey"`
	MaxRetries         int    `mapstructure:"max_retries"          validate:"gte=0"`
	RetryDelaySeconds  int    `mapstructure:"retry_delay_seconds"  validate:"gte=0"`
}

// AuthConfig contains authentication settings. When TokenSecret is empty
// the mutating endpoints are open; when set it must be long enough to be
// a usable HMAC key.
type AuthConfig struct {
	TokenSecret string `mapstructure:"token_secret" validate:"omitempty,min=32"`
}
