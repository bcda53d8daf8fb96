package config

import "dario.cat/mergo"

// mergeStreaming merges a user-supplied streaming section onto the
// built-in defaults. Zero-value fields in src are left untouched.
func mergeStreaming(dst *StreamingConfig, src *StreamingConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}

func mergeStateStore(dst *StateStoreConfig, src *StateStoreConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}

func mergeRetry(dst *RetryConfig, src *RetryConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}

func mergeRetention(dst *RetentionConfig, src *RetentionConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}

func mergeValidation(dst *ValidationConfig, src *ValidationConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}

func mergeApplicator(dst *ApplicatorConfig, src *ApplicatorConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}

func mergeNotify(dst *NotifyConfig, src *NotifyConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}

func mergeAudit(dst *AuditConfig, src *AuditConfig) error {
	if src == nil {
		return nil
	}
	return mergo.Merge(dst, src, mergo.WithOverride)
}
