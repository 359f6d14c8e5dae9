package shortlist

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nilesh-r/jobsense/internal/analysis"
)

// DefaultConcurrency is the number of analyses run in parallel.
const DefaultConcurrency = 4

// Analyzer produces an analysis for one resume and job description.
type Analyzer interface {
	Analyze(ctx context.Context, in analysis.Input) (*analysis.Analysis, error)
}

// Evaluate analyses resumeText against every job with at most concurrency analyses
// in flight. The result keeps the order of jobs. The first error cancels the rest.
func Evaluate(ctx context.Context, analyzer Analyzer, resumeID, resumeText string, jobs []*Job, concurrency int, logger *zap.Logger) (*Candidates, error) {
	logger = nopIfNil(logger)
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	items := make([]*Candidate, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			result, err := analyzer.Analyze(gctx, analysis.Input{
				ResumeID:       resumeID,
				JobID:          job.ID,
				JobTitle:       job.Title,
				ResumeText:     resumeText,
				JobDescription: job.Description,
			})
			if err != nil {
				return fmt.Errorf("analyze %q: %w", job.Title, err)
			}

			logger.Debug("job analyzed",
				zap.String("job_id", job.ID),
				zap.String("title", job.Title),
				zap.Int("ats_score", result.ATSScore),
			)

			items[i] = &Candidate{Job: job, Analysis: result}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Candidates{Items: items}, nil
}

// EvaluateName is the pipeline step that analyses every candidate still in the list.
const EvaluateName = "evaluate"

type evaluateFilter struct {
	toggle
	analyzer    Analyzer
	resumeID    string
	resumeText  string
	concurrency int
	logger      *zap.Logger
}

// NewEvaluate creates the step that runs the analyses. It belongs after the cheap
// ID based filters so excluded jobs never reach the similarity provider.
func NewEvaluate(analyzer Analyzer, resumeID, resumeText string, concurrency int, logger *zap.Logger) Filter {
	return &evaluateFilter{
		analyzer:    analyzer,
		resumeID:    resumeID,
		resumeText:  resumeText,
		concurrency: concurrency,
		logger:      nopIfNil(logger),
	}
}

func (f *evaluateFilter) Name() string { return EvaluateName }

func (f *evaluateFilter) Validate() error {
	if f.analyzer == nil {
		return errors.New("analyzer is not configured")
	}
	return nil
}

func (f *evaluateFilter) Apply(ctx context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()

	jobs := make([]*Job, 0, initial)
	for _, item := range c.Items {
		jobs = append(jobs, item.Job)
	}

	evaluated, err := Evaluate(ctx, f.analyzer, f.resumeID, f.resumeText, jobs, f.concurrency, f.logger)
	if err != nil {
		return c, Step{}, err
	}

	return evaluated, Step{Initial: initial, Dropped: 0, Left: evaluated.Len()}, nil
}

func (f *evaluateFilter) Status() Status {
	concurrency := f.concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"concurrency": strconv.Itoa(concurrency)},
	}
}
