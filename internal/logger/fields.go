package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// Field keys attached to every log line about an external similarity lookup.
const (
	FieldProvider = "similarity_provider"
	FieldTarget   = "similarity_target"
	FieldTimeout  = "similarity_timeout"
)

// Similarity describes the lookup a logger reports on. Target is the model name for
// LLM providers and the base URL for the HTTP service.
type Similarity struct {
	Provider string
	Target   string
	Timeout  time.Duration
}

// Fields returns only the parts of s that are set.
func (s Similarity) Fields() []zap.Field {
	fields := make([]zap.Field, 0, 3)

	if provider := strings.TrimSpace(s.Provider); provider != "" {
		fields = append(fields, zap.String(FieldProvider, provider))
	}
	if target := strings.TrimSpace(s.Target); target != "" {
		fields = append(fields, zap.String(FieldTarget, target))
	}
	if s.Timeout > 0 {
		fields = append(fields, zap.Duration(FieldTimeout, s.Timeout))
	}

	return fields
}

// ForSimilarity returns l annotated with the similarity fields. A nil l yields a no-op logger.
func ForSimilarity(l *zap.Logger, s Similarity) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}

	fields := s.Fields()
	if len(fields) == 0 {
		return l
	}

	return l.With(fields...)
}
