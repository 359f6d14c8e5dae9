package shortlist

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nilesh-r/jobsense/internal/analysis"
)

const (
	ExcludeFileName     = "exclude_file"
	AnalyzedHistoryName = "analyzed_history"
	MinimumScoreName    = "minimum_score"

	forceFlagSetMsg = "include-analyzed flag is set"
)

type excludeFileFilter struct {
	toggle
	path   string
	logger *zap.Logger
}

// NewExcludeFile creates a filter that removes jobs listed in the exclude file.
func NewExcludeFile(path string, logger *zap.Logger) Filter {
	return &excludeFileFilter{path: strings.TrimSpace(path), logger: nopIfNil(logger)}
}

func (f *excludeFileFilter) Name() string { return ExcludeFileName }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	if f.path == "" {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	excluded, err := LoadExcluded(f.path)
	if err != nil {
		return c, Step{}, fmt.Errorf("getting excluded jobs from file: %w", err)
	}

	removed := c.Exclude(excluded.IDs())
	if len(removed) > 0 {
		f.logger.Info("excluding jobs based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_jobs", removed),
			zap.Int("jobs_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(removed), Left: c.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

// HistoryLister lists already stored analyses.
type HistoryLister interface {
	List(ctx context.Context) ([]*analysis.Analysis, error)
}

type analyzedHistoryFilter struct {
	toggle
	history  HistoryLister
	resumeID string
	ignore   bool
	logger   *zap.Logger
}

// NewAnalyzedHistory creates a filter that removes jobs already analysed for the resume.
func NewAnalyzedHistory(history HistoryLister, resumeID string, ignore bool, logger *zap.Logger) Filter {
	return &analyzedHistoryFilter{
		history:  history,
		resumeID: resumeID,
		ignore:   ignore,
		logger:   nopIfNil(logger),
	}
}

func (f *analyzedHistoryFilter) Name() string { return AnalyzedHistoryName }

func (f *analyzedHistoryFilter) Validate() error {
	if f.ignore {
		return nil
	}
	if f.history == nil {
		return errors.New("analysis store is required")
	}
	if strings.TrimSpace(f.resumeID) == "" {
		return errors.New("resume id is required")
	}
	return nil
}

func (f *analyzedHistoryFilter) Apply(ctx context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	if f.ignore {
		f.logger.Info("ignoring already analyzed jobs", zap.String("reason", forceFlagSetMsg))
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	stored, err := f.history.List(ctx)
	if err != nil {
		return c, Step{}, fmt.Errorf("list analysis history: %w", err)
	}

	var ids []string
	for _, a := range stored {
		if a.ResumeID == f.resumeID {
			ids = append(ids, a.JobID)
		}
	}

	excluded := c.Exclude(ids)
	if len(excluded) > 0 {
		f.logger.Info("excluding jobs based on analysis history",
			zap.Strings("excluded_jobs", excluded),
			zap.Int("jobs_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *analyzedHistoryFilter) Status() Status {
	details := map[string]string{
		"exclude_analyzed": strconv.FormatBool(!f.ignore),
	}
	reason := f.reason
	if reason == "" && f.ignore {
		reason = "skip requested via flag"
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: reason, Details: details}
}

type minimumScoreFilter struct {
	toggle
	minimum int
	logger  *zap.Logger
}

// NewMinimumScore creates a filter that removes candidates scoring below minimum.
func NewMinimumScore(minimum int, logger *zap.Logger) Filter {
	return &minimumScoreFilter{minimum: minimum, logger: nopIfNil(logger)}
}

func (f *minimumScoreFilter) Name() string { return MinimumScoreName }

func (f *minimumScoreFilter) Validate() error {
	if f.minimum < 0 || f.minimum > 100 {
		return fmt.Errorf("minimum score must be between 0 and 100, got %d", f.minimum)
	}
	return nil
}

func (f *minimumScoreFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()

	removed := c.excludeFunc(func(item *Candidate) bool {
		return item.Analysis == nil || item.Analysis.ATSScore < f.minimum
	})
	if len(removed) > 0 {
		f.logger.Info("excluding jobs below minimum score",
			zap.Int("minimum_score", f.minimum),
			zap.Strings("excluded_jobs", removed),
			zap.Int("jobs_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(removed), Left: c.Len()}, nil
}

func (f *minimumScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"minimum_score": strconv.Itoa(f.minimum)},
	}
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
