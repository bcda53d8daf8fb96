// Package masking redacts secret-shaped substrings from message content
// before it is streamed to clients or persisted to the audit log.
package masking

import (
	"log/slog"
)

// Service applies pattern-based redaction to arbitrary text content.
// Created once at startup; safe for concurrent use since patterns are
// compiled eagerly and never mutated afterward.
type Service struct {
	patterns []*CompiledPattern
	maskers  []Masker
}

// NewService creates a masking service with the built-in pattern set plus
// any extra Maskers supplied by the caller. Invalid built-in patterns are
// logged and skipped rather than failing startup.
func NewService(extra ...Masker) *Service {
	patterns, errs := compileBuiltinPatterns()
	for _, err := range errs {
		slog.Error("failed to compile built-in masking pattern, skipping", "error", err)
	}
	return &Service{patterns: patterns, maskers: extra}
}

// Mask applies every registered masker and pattern to data and returns the
// redacted result. Order: code-based maskers first (they may restructure
// the text), then regex patterns.
func (s *Service) Mask(data string) string {
	out := data
	for _, m := range s.maskers {
		if m.AppliesTo(out) {
			out = m.Mask(out)
		}
	}
	for _, p := range s.patterns {
		out = p.Regex.ReplaceAllString(out, p.Replacement)
	}
	return out
}

// PatternCount returns the number of compiled built-in patterns, for
// health/diagnostics reporting.
func (s *Service) PatternCount() int {
	return len(s.patterns)
}
