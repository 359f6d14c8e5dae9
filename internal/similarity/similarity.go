// Package similarity obtains an external semantic-similarity signal for a resume and a
// job description. Every provider is best-effort: callers go through Lookup, which turns
// any failure into an absent signal.
package similarity

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/nilesh-r/jobsense/internal/logger"
)

// DefaultTimeout bounds a single provider call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// ErrInvalidSignal is returned for similarity values that are not finite numbers.
var ErrInvalidSignal = errors.New("similarity is not a finite number")

// Request is the payload sent to a provider.
type Request struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
}

// Signal is the provider answer. Similarity is expected in [0,1].
type Signal struct {
	Similarity    float64  `json:"similarity"`
	Suggestions   []string `json:"suggestions"`
	MatchedSkills []string `json:"matched_skills,omitempty"`
	MissingSkills []string `json:"missing_skills,omitempty"`
}

// Provider computes a similarity signal.
type Provider interface {
	Score(ctx context.Context, req Request) (*Signal, error)
}

// Validate reports whether the signal can be blended.
func (s *Signal) Validate() error {
	if s == nil {
		return errors.New("empty signal")
	}
	if math.IsNaN(s.Similarity) || math.IsInf(s.Similarity, 0) {
		return ErrInvalidSignal
	}
	return nil
}

// Lookup calls the provider within timeout and returns nil when the provider is
// missing, fails, times out or answers with an invalid signal. Failures are logged
// and never returned. No retries are made.
func Lookup(ctx context.Context, provider Provider, req Request, timeout time.Duration, l *zap.Logger) *Signal {
	if l == nil {
		l = zap.NewNop()
	}
	if provider == nil {
		l.Debug("similarity provider is not configured; using basic scoring only")
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	l = logger.ForSimilarity(l, logger.Similarity{Timeout: timeout})

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	signal, err := provider.Score(callCtx, req)
	if err == nil {
		err = signal.Validate()
	}
	if err != nil {
		l.Warn("similarity service unavailable, using basic scoring only",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(started)),
		)
		return nil
	}

	l.Debug("similarity signal received",
		zap.Float64("similarity", signal.Similarity),
		zap.Int("suggestions", len(signal.Suggestions)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return signal
}
