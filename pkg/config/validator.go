package config

import (
	"fmt"
	"os"
)

// Validator validates configuration comprehensively with clear error
// messages, section by section.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast — stops at the
// first error).
func (v *Validator) ValidateAll() error {
	if err := v.validateStreaming(); err != nil {
		return fmt.Errorf("streaming validation failed: %w", err)
	}
	if err := v.validateStateStore(); err != nil {
		return fmt.Errorf("state_store validation failed: %w", err)
	}
	if err := v.validateRetry(); err != nil {
		return fmt.Errorf("retry validation failed: %w", err)
	}
	if err := v.validateRetention(); err != nil {
		return fmt.Errorf("retention validation failed: %w", err)
	}
	if err := v.validateValidation(); err != nil {
		return fmt.Errorf("validation pipeline validation failed: %w", err)
	}
	if err := v.validateApplicator(); err != nil {
		return fmt.Errorf("applicator validation failed: %w", err)
	}
	if err := v.validateNotify(); err != nil {
		return fmt.Errorf("notify validation failed: %w", err)
	}
	if err := v.validateAudit(); err != nil {
		return fmt.Errorf("audit validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateStreaming() error {
	s := v.cfg.Streaming
	if s.Port < 1 || s.Port > 65535 {
		return NewValidationError("streaming", "port", fmt.Errorf("must be between 1 and 65535, got %d", s.Port))
	}
	if s.HeartbeatInterval <= 0 {
		return NewValidationError("streaming", "heartbeat_interval", fmt.Errorf("must be positive, got %v", s.HeartbeatInterval))
	}
	if s.RateLimitPerSecond <= 0 {
		return NewValidationError("streaming", "rate_limit_per_second", fmt.Errorf("must be positive, got %v", s.RateLimitPerSecond))
	}
	if s.RateLimitBurst < 1 {
		return NewValidationError("streaming", "rate_limit_burst", fmt.Errorf("must be at least 1, got %d", s.RateLimitBurst))
	}
	if s.MaxQueueSize < 1 {
		return NewValidationError("streaming", "max_queue_size", fmt.Errorf("must be at least 1, got %d", s.MaxQueueSize))
	}
	if s.BatchWindow < 0 {
		return NewValidationError("streaming", "batch_window", fmt.Errorf("must be non-negative, got %v", s.BatchWindow))
	}
	if s.MaxMessageBytes < 1024 {
		return NewValidationError("streaming", "max_message_bytes", fmt.Errorf("must be at least 1024, got %d", s.MaxMessageBytes))
	}
	if s.ConnectionDescriptorPath == "" {
		return NewValidationError("streaming", "connection_descriptor_path", ErrMissingRequiredField)
	}
	return nil
}

func (v *Validator) validateStateStore() error {
	ss := v.cfg.StateStore
	if ss.BaseDir == "" {
		return NewValidationError("state_store", "base_dir", ErrMissingRequiredField)
	}
	if ss.MaxAgeDays < 1 {
		return NewValidationError("state_store", "max_age_days", fmt.Errorf("must be at least 1, got %d", ss.MaxAgeDays))
	}
	if ss.StateVersion < 1 || ss.StateVersion > CurrentStateVersion {
		return NewValidationError("state_store", "state_version", fmt.Errorf("must be between 1 and %d, got %d", CurrentStateVersion, ss.StateVersion))
	}
	return nil
}

func (v *Validator) validateRetry() error {
	r := v.cfg.Retry
	if r.MaxAttempts < 1 {
		return NewValidationError("retry", "max_attempts", fmt.Errorf("must be at least 1, got %d", r.MaxAttempts))
	}
	if r.InitialInterval <= 0 {
		return NewValidationError("retry", "initial_interval", fmt.Errorf("must be positive, got %v", r.InitialInterval))
	}
	if r.MaxInterval < r.InitialInterval {
		return NewValidationError("retry", "max_interval", fmt.Errorf("must be >= initial_interval, got max=%v initial=%v", r.MaxInterval, r.InitialInterval))
	}
	if r.Multiplier <= 1 {
		return NewValidationError("retry", "multiplier", fmt.Errorf("must be greater than 1, got %v", r.Multiplier))
	}
	return nil
}

func (v *Validator) validateRetention() error {
	rt := v.cfg.Retention
	if rt.MaxAge <= 0 {
		return NewValidationError("retention", "max_age", fmt.Errorf("must be positive, got %v", rt.MaxAge))
	}
	if rt.CleanupInterval <= 0 {
		return NewValidationError("retention", "cleanup_interval", fmt.Errorf("must be positive, got %v", rt.CleanupInterval))
	}
	return nil
}

func (v *Validator) validateValidation() error {
	vc := v.cfg.Validation
	if len(vc.LintCommand) == 0 {
		return NewValidationError("validation", "lint_command", ErrMissingRequiredField)
	}
	if len(vc.TypeCheckCommand) == 0 {
		return NewValidationError("validation", "type_check_command", ErrMissingRequiredField)
	}
	if len(vc.TestCommand) == 0 {
		return NewValidationError("validation", "test_command", ErrMissingRequiredField)
	}
	if vc.LintTimeout <= 0 {
		return NewValidationError("validation", "lint_timeout", fmt.Errorf("must be positive, got %v", vc.LintTimeout))
	}
	if vc.TypeCheckTimeout <= 0 {
		return NewValidationError("validation", "type_check_timeout", fmt.Errorf("must be positive, got %v", vc.TypeCheckTimeout))
	}
	if vc.TestTimeout <= 0 {
		return NewValidationError("validation", "test_timeout", fmt.Errorf("must be positive, got %v", vc.TestTimeout))
	}
	if len(vc.MutationCommand) > 0 && vc.MutationTimeout <= 0 {
		return NewValidationError("validation", "mutation_timeout", fmt.Errorf("must be positive when mutation_command is set, got %v", vc.MutationTimeout))
	}
	if vc.CoverageThreshold < 0 || vc.CoverageThreshold > 1 {
		return NewValidationError("validation", "coverage_threshold", fmt.Errorf("must be between 0 and 1, got %v", vc.CoverageThreshold))
	}
	if vc.MutationScoreThreshold < 0 || vc.MutationScoreThreshold > 1 {
		return NewValidationError("validation", "mutation_score_threshold", fmt.Errorf("must be between 0 and 1, got %v", vc.MutationScoreThreshold))
	}
	return nil
}

func (v *Validator) validateApplicator() error {
	a := v.cfg.Applicator
	if a.PipTimeout <= 0 {
		return NewValidationError("applicator", "pip_timeout", fmt.Errorf("must be positive, got %v", a.PipTimeout))
	}
	if len(a.PipCommand) == 0 {
		return NewValidationError("applicator", "pip_command", ErrMissingRequiredField)
	}
	return nil
}

func (v *Validator) validateNotify() error {
	n := v.cfg.Notify
	if !n.Enabled {
		return nil
	}
	if n.Channel == "" {
		return NewValidationError("notify", "channel", fmt.Errorf("required when notify is enabled"))
	}
	if n.TokenEnv == "" {
		return NewValidationError("notify", "token_env", fmt.Errorf("required when notify is enabled"))
	}
	if os.Getenv(n.TokenEnv) == "" {
		return NewValidationError("notify", "token_env", fmt.Errorf("environment variable %s is not set", n.TokenEnv))
	}
	return nil
}

func (v *Validator) validateAudit() error {
	a := v.cfg.Audit
	if !a.Enabled {
		return nil
	}
	if a.DSNEnv == "" {
		return NewValidationError("audit", "dsn_env", fmt.Errorf("required when audit is enabled"))
	}
	if os.Getenv(a.DSNEnv) == "" {
		return NewValidationError("audit", "dsn_env", fmt.Errorf("environment variable %s is not set", a.DSNEnv))
	}
	return nil
}
