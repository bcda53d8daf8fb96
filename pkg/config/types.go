package config

import "time"

// StreamingConfig configures the client-facing WebSocket transport (spec C4).
type StreamingConfig struct {
	Host                      string        `yaml:"host,omitempty"`
	Port                      int           `yaml:"port,omitempty"`
	AuthTokenEnv              string        `yaml:"auth_token_env,omitempty"`
	HeartbeatInterval         time.Duration `yaml:"heartbeat_interval,omitempty"`
	RateLimitPerSecond        float64       `yaml:"rate_limit_per_second,omitempty"`
	RateLimitBurst            int           `yaml:"rate_limit_burst,omitempty"`
	MaxQueueSize              int           `yaml:"max_queue_size,omitempty"`
	BatchWindow               time.Duration `yaml:"batch_window,omitempty"`
	MaxMessageBytes           int           `yaml:"max_message_bytes,omitempty"`
	ConnectionDescriptorPath  string        `yaml:"connection_descriptor_path,omitempty"`
	AllowedOrigins            []string      `yaml:"allowed_origins,omitempty"`
}

// StateStoreConfig configures the filesystem task snapshot store (spec C5).
type StateStoreConfig struct {
	BaseDir      string `yaml:"base_dir,omitempty"`
	MaxAgeDays   int    `yaml:"max_age_days,omitempty"`
	StateVersion int    `yaml:"state_version,omitempty"`
}

// RetryConfig configures the orchestrator's retries (spec §7). MaxAttempts
// bounds both the implementation loop and each external call; the
// backoff intervals apply to external-call retries only.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts,omitempty"`
	InitialInterval time.Duration `yaml:"initial_interval,omitempty"`
	MaxInterval     time.Duration `yaml:"max_interval,omitempty"`
	Multiplier      float64       `yaml:"multiplier,omitempty"`
}

// RetentionConfig configures the periodic eviction of stale task
// directories, independent of the one-shot eviction the state store
// performs at startup.
type RetentionConfig struct {
	MaxAge          time.Duration `yaml:"max_age,omitempty"`
	CleanupInterval time.Duration `yaml:"cleanup_interval,omitempty"`
}

// ValidationConfig configures the lint/type-check/test/mutation pipeline
// (spec C9).
type ValidationConfig struct {
	LintCommand            []string      `yaml:"lint_command,omitempty"`
	TypeCheckCommand       []string      `yaml:"type_check_command,omitempty"`
	TestCommand            []string      `yaml:"test_command,omitempty"`
	MutationCommand        []string      `yaml:"mutation_command,omitempty"`
	LintTimeout            time.Duration `yaml:"lint_timeout,omitempty"`
	TypeCheckTimeout       time.Duration `yaml:"type_check_timeout,omitempty"`
	TestTimeout            time.Duration `yaml:"test_timeout,omitempty"`
	MutationTimeout        time.Duration `yaml:"mutation_timeout,omitempty"`
	CoverageThreshold      float64       `yaml:"coverage_threshold,omitempty"`
	MutationScoreThreshold float64       `yaml:"mutation_score_threshold,omitempty"`
}

// ApplicatorConfig configures the change-application stage (spec C8),
// in particular the dependency install step triggered by a
// requirements.txt update.
type ApplicatorConfig struct {
	PipTimeout time.Duration `yaml:"pip_timeout,omitempty"`
	PipCommand []string      `yaml:"pip_command,omitempty"`
}

// NotifyConfig configures terminal-state Slack notifications.
type NotifyConfig struct {
	Enabled      bool   `yaml:"enabled,omitempty"`
	TokenEnv     string `yaml:"token_env,omitempty"`
	Channel      string `yaml:"channel,omitempty"`
	DashboardURL string `yaml:"dashboard_url,omitempty"`
}

// AuditConfig configures the optional durable message log.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	DSNEnv  string `yaml:"dsn_env,omitempty"`
}
