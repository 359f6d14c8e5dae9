package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nilesh-r/jobsense/internal/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id                     UUID PRIMARY KEY,
	resume_id              TEXT NOT NULL,
	job_id                 TEXT NOT NULL,
	job_title              TEXT NOT NULL DEFAULT '',
	ats_score              INTEGER NOT NULL,
	keyword_match_score    INTEGER NOT NULL,
	skills_match_score     INTEGER NOT NULL,
	experience_match_score INTEGER NOT NULL,
	embedding_similarity   DOUBLE PRECISION,
	missing_keywords       JSONB NOT NULL DEFAULT '[]',
	partial_match_keywords JSONB NOT NULL DEFAULT '[]',
	suggestions            JSONB NOT NULL DEFAULT '[]',
	created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS analyses_created_at_idx ON analyses (created_at DESC);
`

const selectColumns = `id, resume_id, job_id, job_title, ats_score, keyword_match_score,
	skills_match_score, experience_match_score, embedding_similarity,
	missing_keywords, partial_match_keywords, suggestions, created_at`

// Postgres stores analyses in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, errors.New("database url is required for the postgres store")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Migrate creates the analyses table when it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, a *analysis.Analysis) error {
	if a == nil {
		return errors.New("analysis is nil")
	}

	id, err := uuid.Parse(a.ID)
	if err != nil {
		return fmt.Errorf("invalid analysis id %q: %w", a.ID, err)
	}

	missing, err := json.Marshal(nonNil(a.MissingKeywords))
	if err != nil {
		return err
	}
	partial, err := json.Marshal(nonNil(a.PartialMatchKeywords))
	if err != nil {
		return err
	}
	suggestions, err := json.Marshal(nonNil(a.Suggestions))
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO analyses (id, resume_id, job_id, job_title, ats_score, keyword_match_score,
			skills_match_score, experience_match_score, embedding_similarity,
			missing_keywords, partial_match_keywords, suggestions, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE SET
			ats_score = EXCLUDED.ats_score,
			keyword_match_score = EXCLUDED.keyword_match_score,
			skills_match_score = EXCLUDED.skills_match_score,
			experience_match_score = EXCLUDED.experience_match_score,
			embedding_similarity = EXCLUDED.embedding_similarity,
			missing_keywords = EXCLUDED.missing_keywords,
			partial_match_keywords = EXCLUDED.partial_match_keywords,
			suggestions = EXCLUDED.suggestions`,
		id, a.ResumeID, a.JobID, a.JobTitle, a.ATSScore, a.KeywordMatchScore,
		a.SkillsMatchScore, a.ExperienceMatchScore, a.EmbeddingSimilarity,
		missing, partial, suggestions, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*analysis.Analysis, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	row := p.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM analyses WHERE id = $1`, parsed)
	a, err := scanAnalysis(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

func (p *Postgres) List(ctx context.Context) ([]*analysis.Analysis, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+selectColumns+` FROM analyses ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	items := []*analysis.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	return items, nil
}

func scanAnalysis(row pgx.Row) (*analysis.Analysis, error) {
	var (
		a                             analysis.Analysis
		id                            uuid.UUID
		missing, partial, suggestions []byte
	)

	err := row.Scan(&id, &a.ResumeID, &a.JobID, &a.JobTitle, &a.ATSScore, &a.KeywordMatchScore,
		&a.SkillsMatchScore, &a.ExperienceMatchScore, &a.EmbeddingSimilarity,
		&missing, &partial, &suggestions, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	a.ID = id.String()
	a.CreatedAt = a.CreatedAt.UTC()
	for _, col := range []struct {
		raw []byte
		dst *[]string
	}{
		{missing, &a.MissingKeywords},
		{partial, &a.PartialMatchKeywords},
		{suggestions, &a.Suggestions},
	} {
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, err
		}
		*col.dst = nonNil(*col.dst)
	}

	return &a, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
