package config

import "time"

// CurrentStateVersion is the state_version written into new task
// snapshots. pkg/statestore refuses to load snapshots with a version
// higher than this and migrates snapshots with a lower one.
const CurrentStateVersion = 1

// DefaultStreamingConfig returns the built-in streaming defaults, applied
// before any user-provided orchestrator.yaml values are merged on top.
func DefaultStreamingConfig() *StreamingConfig {
	return &StreamingConfig{
		Host:                     "0.0.0.0",
		Port:                     8765,
		AuthTokenEnv:             "ORCHESTRATOR_AUTH_TOKEN",
		HeartbeatInterval:        15 * time.Second,
		RateLimitPerSecond:       20,
		RateLimitBurst:           40,
		MaxQueueSize:             1000,
		BatchWindow:              0,
		MaxMessageBytes:          1 << 20,
		ConnectionDescriptorPath: "/tmp/orchestratord/connection.json",
	}
}

// DefaultStateStoreConfig returns the built-in state store defaults.
func DefaultStateStoreConfig() *StateStoreConfig {
	return &StateStoreConfig{
		BaseDir:      "/var/lib/orchestratord/tasks",
		MaxAgeDays:   7,
		StateVersion: CurrentStateVersion,
	}
}

// DefaultRetryConfig returns the built-in retry defaults.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     3,
		InitialInterval: 2 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	}
}

// DefaultRetentionConfig returns the built-in periodic cleanup defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		MaxAge:          7 * 24 * time.Hour,
		CleanupInterval: time.Hour,
	}
}

// DefaultValidationConfig returns the built-in validation pipeline defaults.
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		LintCommand:      []string{"ruff", "check", "."},
		TypeCheckCommand: []string{"mypy", "."},
		TestCommand:      []string{"pytest", "--cov"},
		MutationCommand:  nil,
		LintTimeout:      2 * time.Minute,
		TypeCheckTimeout: 2 * time.Minute,
		TestTimeout:      5 * time.Minute,
		MutationTimeout:  10 * time.Minute,
	}
}

// DefaultApplicatorConfig returns the built-in change applicator defaults.
func DefaultApplicatorConfig() *ApplicatorConfig {
	return &ApplicatorConfig{
		PipTimeout: 5 * time.Minute,
		PipCommand: []string{"pip", "install", "-r", "requirements.txt"},
	}
}

// DefaultNotifyConfig returns the built-in notification defaults.
func DefaultNotifyConfig() *NotifyConfig {
	return &NotifyConfig{
		Enabled:      false,
		TokenEnv:     "SLACK_BOT_TOKEN",
		DashboardURL: "http://localhost:5173",
	}
}

// DefaultAuditConfig returns the built-in audit log defaults.
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		Enabled: false,
		DSNEnv:  "AUDIT_DATABASE_URL",
	}
}
