package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Streaming:  DefaultStreamingConfig(),
		StateStore: DefaultStateStoreConfig(),
		Retry:      DefaultRetryConfig(),
		Retention:  DefaultRetentionConfig(),
		Validation: DefaultValidationConfig(),
		Applicator: DefaultApplicatorConfig(),
		Notify:     DefaultNotifyConfig(),
		Audit:      DefaultAuditConfig(),
	}
}

func TestValidateAllAcceptsDefaults(t *testing.T) {
	require.NoError(t, NewValidator(validConfig()).ValidateAll())
}

func TestValidateStreamingRejectsBadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Streaming.Port = 70000

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "streaming", verr.Component)
}

func TestValidateRetryRejectsMaxIntervalBelowInitial(t *testing.T) {
	cfg := validConfig()
	cfg.Retry.InitialInterval = 10_000_000_000
	cfg.Retry.MaxInterval = 1_000_000_000

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
}

func TestValidateNotifyRequiresChannelAndTokenWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Notify.Enabled = true

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
}

func TestValidateNotifyPassesWhenTokenEnvSet(t *testing.T) {
	cfg := validConfig()
	cfg.Notify.Enabled = true
	cfg.Notify.Channel = "#alerts"
	cfg.Notify.TokenEnv = "TEST_SLACK_TOKEN"
	t.Setenv("TEST_SLACK_TOKEN", "xoxb-abc")

	require.NoError(t, NewValidator(cfg).ValidateAll())
}

func TestValidateAuditRequiresDSNEnvWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.DSNEnv = ""

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
}

func TestValidateStateStoreRejectsFutureVersion(t *testing.T) {
	cfg := validConfig()
	cfg.StateStore.StateVersion = CurrentStateVersion + 1

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
}
