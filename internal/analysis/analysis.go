// Package analysis runs the full scoring workflow for one resume and one job
// description and produces the record that is stored and served.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nilesh-r/jobsense/internal/scoring"
	"github.com/nilesh-r/jobsense/internal/similarity"
)

var (
	ErrEmptyResume         = errors.New("resume text is empty")
	ErrEmptyJobDescription = errors.New("job description is empty")
)

// Analysis is the persisted outcome of one analysis.
type Analysis struct {
	ID                   string    `json:"id"`
	ResumeID             string    `json:"resumeId"`
	JobID                string    `json:"jobId"`
	JobTitle             string    `json:"jobTitle"`
	ATSScore             int       `json:"atsScore"`
	KeywordMatchScore    int       `json:"keywordMatchScore"`
	SkillsMatchScore     int       `json:"skillsMatchScore"`
	ExperienceMatchScore int       `json:"experienceMatchScore"`
	EmbeddingSimilarity  *float64  `json:"embeddingSimilarity"`
	MissingKeywords      []string  `json:"missingKeywords"`
	PartialMatchKeywords []string  `json:"partialMatchKeywords"`
	Suggestions          []string  `json:"suggestions"`
	CreatedAt            time.Time `json:"createdAt"`
}

// Input is what Analyze needs. Empty IDs are derived from the texts.
type Input struct {
	ResumeID       string
	JobID          string
	JobTitle       string
	ResumeText     string
	JobDescription string
}

// Repository persists analyses.
type Repository interface {
	Save(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, id string) (*Analysis, error)
	List(ctx context.Context) ([]*Analysis, error)
}

// Service ties the scorer, the optional similarity provider and the optional store together.
type Service struct {
	Scorer   *scoring.Scorer
	Provider similarity.Provider
	Store    Repository
	Timeout  time.Duration
	Logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a service. provider and store may be nil.
func NewService(scorer *scoring.Scorer, provider similarity.Provider, store Repository, timeout time.Duration, logger *zap.Logger) *Service {
	if scorer == nil {
		scorer = scoring.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Scorer:   scorer,
		Provider: provider,
		Store:    store,
		Timeout:  timeout,
		Logger:   logger,
	}
}

// Analyze scores the input, blends in the similarity signal when one is available
// and saves the record. Similarity failures are never returned.
func (s *Service) Analyze(ctx context.Context, in Input) (*Analysis, error) {
	if strings.TrimSpace(in.ResumeText) == "" {
		return nil, ErrEmptyResume
	}
	if strings.TrimSpace(in.JobDescription) == "" {
		return nil, ErrEmptyJobDescription
	}

	scorer := s.Scorer
	if scorer == nil {
		scorer = scoring.New(nil)
	}
	log := s.logger()

	basic := scorer.Score(scoring.Input{
		ResumeText:         in.ResumeText,
		JobDescriptionText: in.JobDescription,
	})

	signal := similarity.Lookup(ctx, s.Provider, similarity.Request{
		ResumeText:     in.ResumeText,
		JobDescription: in.JobDescription,
	}, s.Timeout, log)

	var (
		sim      *float64
		external []string
	)
	if signal != nil {
		value := signal.Similarity
		sim = &value
		external = signal.Suggestions
	}
	blended := scoring.Blend(basic, sim, external)

	record := &Analysis{
		ID:                   s.id(),
		ResumeID:             firstNonEmpty(in.ResumeID, ContentID(in.ResumeText)),
		JobID:                firstNonEmpty(in.JobID, ContentID(in.JobDescription)),
		JobTitle:             strings.TrimSpace(in.JobTitle),
		ATSScore:             blended.FinalATSScore,
		KeywordMatchScore:    blended.KeywordScore,
		SkillsMatchScore:     blended.SkillsScore,
		ExperienceMatchScore: blended.ExperienceScore,
		EmbeddingSimilarity:  blended.EmbeddingSimilarity,
		MissingKeywords:      blended.MissingKeywords,
		PartialMatchKeywords: blended.PartialMatchKeywords,
		Suggestions:          blended.Suggestions,
		CreatedAt:            s.timestamp(),
	}

	log.Debug("analysis scored",
		zap.String("analysis_id", record.ID),
		zap.String("job_id", record.JobID),
		zap.Int("basic_score", basic.OverallScore),
		zap.Int("ats_score", record.ATSScore),
		zap.Bool("similarity", signal != nil),
	)

	if s.Store != nil {
		if err := s.Store.Save(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to create analysis: %w", err)
		}
	}

	return record, nil
}

// Get returns a stored analysis.
func (s *Service) Get(ctx context.Context, id string) (*Analysis, error) {
	if s.Store == nil {
		return nil, errors.New("analysis store is not configured")
	}
	return s.Store.Get(ctx, id)
}

// List returns stored analyses, newest first.
func (s *Service) List(ctx context.Context) ([]*Analysis, error) {
	if s.Store == nil {
		return []*Analysis{}, nil
	}
	return s.Store.List(ctx)
}

// ContentID is a short stable identifier of a text: the first 12 hex characters
// of its sha256.
func ContentID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:12]
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) id() string {
	if s.newID != nil {
		return s.newID()
	}
	return uuid.NewString()
}

func (s *Service) timestamp() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
