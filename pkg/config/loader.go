package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OrchestratorYAMLConfig represents the complete orchestrator.yaml file
// structure. Every section is optional; omitted sections fall back to
// the built-in defaults untouched.
type OrchestratorYAMLConfig struct {
	Streaming  *StreamingConfig  `yaml:"streaming"`
	StateStore *StateStoreConfig `yaml:"state_store"`
	Retry      *RetryConfig      `yaml:"retry"`
	Retention  *RetentionConfig  `yaml:"retention"`
	Validation *ValidationConfig `yaml:"validation"`
	Applicator *ApplicatorConfig `yaml:"applicator"`
	Notify     *NotifyConfig     `yaml:"notify"`
	Audit      *AuditConfig      `yaml:"audit"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load orchestrator.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge user-defined sections onto built-in defaults
//  5. Validate all configuration
//  6. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized successfully",
		"streaming_port", cfg.Streaming.Port,
		"state_store_dir", cfg.StateStore.BaseDir,
		"retry_max_attempts", cfg.Retry.MaxAttempts)

	return cfg, nil
}

// load is the internal loader (not exported).
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	userConfig, err := loader.loadOrchestratorYAML()
	if err != nil {
		return nil, NewLoadError("orchestrator.yaml", err)
	}

	streaming := DefaultStreamingConfig()
	if err := mergeStreaming(streaming, userConfig.Streaming); err != nil {
		return nil, fmt.Errorf("failed to merge streaming config: %w", err)
	}

	stateStore := DefaultStateStoreConfig()
	if err := mergeStateStore(stateStore, userConfig.StateStore); err != nil {
		return nil, fmt.Errorf("failed to merge state_store config: %w", err)
	}

	retry := DefaultRetryConfig()
	if err := mergeRetry(retry, userConfig.Retry); err != nil {
		return nil, fmt.Errorf("failed to merge retry config: %w", err)
	}

	retention := DefaultRetentionConfig()
	if err := mergeRetention(retention, userConfig.Retention); err != nil {
		return nil, fmt.Errorf("failed to merge retention config: %w", err)
	}

	validation := DefaultValidationConfig()
	if err := mergeValidation(validation, userConfig.Validation); err != nil {
		return nil, fmt.Errorf("failed to merge validation config: %w", err)
	}

	applicator := DefaultApplicatorConfig()
	if err := mergeApplicator(applicator, userConfig.Applicator); err != nil {
		return nil, fmt.Errorf("failed to merge applicator config: %w", err)
	}

	notify := DefaultNotifyConfig()
	if err := mergeNotify(notify, userConfig.Notify); err != nil {
		return nil, fmt.Errorf("failed to merge notify config: %w", err)
	}

	audit := DefaultAuditConfig()
	if err := mergeAudit(audit, userConfig.Audit); err != nil {
		return nil, fmt.Errorf("failed to merge audit config: %w", err)
	}

	return &Config{
		configDir:  configDir,
		Streaming:  streaming,
		StateStore: stateStore,
		Retry:      retry,
		Retention:  retention,
		Validation: validation,
		Applicator: applicator,
		Notify:     notify,
		Audit:      audit,
	}, nil
}

// validate performs comprehensive validation on loaded configuration.
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	if err := validator.ValidateAll(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return nil
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

// loadOrchestratorYAML loads orchestrator.yaml if present. A missing file
// is not an error: every section simply falls back to its default.
func (l *configLoader) loadOrchestratorYAML() (*OrchestratorYAMLConfig, error) {
	var cfg OrchestratorYAMLConfig

	path := filepath.Join(l.configDir, "orchestrator.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &cfg, nil
	}

	if err := l.loadYAML("orchestrator.yaml", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
