package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nilesh-r/jobsense/internal/analysis"
	"github.com/nilesh-r/jobsense/internal/extract"
	"github.com/nilesh-r/jobsense/internal/similarity"
	"github.com/nilesh-r/jobsense/internal/store"
)

func TestConfigDefaults(t *testing.T) {
	cfg, err := getConfig()
	require.NoError(t, err)

	assert.True(t, cfg.Similarity.Enabled)
	assert.Equal(t, providerHTTP, cfg.Similarity.Provider)
	assert.Equal(t, similarity.DefaultTimeout, cfg.Similarity.Timeout)
	assert.Equal(t, similarity.DefaultCacheTTL, cfg.Similarity.Cache.TTL)
	assert.Equal(t, store.DriverFile, cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Server.MaxUploadMB)
	assert.Equal(t, 4, cfg.Shortlist.Concurrency)
}

func TestConfigEnvironment(t *testing.T) {
	t.Setenv("AI_SERVICE_URL", "http://ai:9000")
	t.Setenv("DATABASE_URL", "postgres://localhost/jobsense")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JOBSENSE_SIMILARITY_TIMEOUT", "2s")
	t.Setenv("JOBSENSE_SHORTLIST_MINIMUM_SCORE", "60")
	t.Setenv("JOBSENSE_STORE_DRIVER", "postgres")

	cfg, err := getConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://ai:9000", cfg.Similarity.BaseURL)
	assert.Equal(t, "postgres://localhost/jobsense", cfg.Store.DatabaseURL)
	assert.Equal(t, "redis:6379", cfg.Similarity.Cache.Addr)
	assert.Equal(t, 2*time.Second, cfg.Similarity.Timeout)
	assert.Equal(t, 60, cfg.Shortlist.MinimumScore)
	assert.Equal(t, store.DriverPostgres, cfg.Store.Driver)
}

func TestConfigPrefixedEnvWinsOverLegacyName(t *testing.T) {
	t.Setenv("AI_SERVICE_URL", "http://legacy:8000")
	t.Setenv("JOBSENSE_SIMILARITY_BASE_URL", "http://prefixed:8000")

	cfg, err := getConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://prefixed:8000", cfg.Similarity.BaseURL)
}

func TestBuildProvider(t *testing.T) {
	ctx := context.Background()
	l := zap.NewNop()

	p, closer, err := buildProvider(ctx, &SimilarityConfig{Enabled: false}, l)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Nil(t, closer)

	p, _, err = buildProvider(ctx, &SimilarityConfig{Enabled: true, Provider: "HTTP", BaseURL: "http://ai:9000"}, l)
	require.NoError(t, err)
	httpProvider, ok := p.(*similarity.HTTP)
	require.True(t, ok)
	assert.Equal(t, "http://ai:9000", httpProvider.BaseURL)

	_, _, err = buildProvider(ctx, &SimilarityConfig{Enabled: true, Provider: "openai"}, l)
	assert.ErrorContains(t, err, "unsupported similarity provider")

	t.Setenv("GEMINI_API_KEY", "")
	_, _, err = buildProvider(ctx, &SimilarityConfig{Enabled: true, Provider: "gemini", Gemini: &GeminiConfig{}}, l)
	assert.ErrorContains(t, err, "gemini api key")

	p, closer, err = buildProvider(ctx, &SimilarityConfig{
		Enabled: true,
		Cache:   &CacheConfig{Enabled: true, Addr: "127.0.0.1:1"},
	}, l)
	require.NoError(t, err)
	assert.IsType(t, &similarity.Cached{}, p)
	require.NotNil(t, closer)
	closer()
}

func TestBuildVocabulary(t *testing.T) {
	v := buildVocabulary(&VocabularyConfig{TechnicalTerms: []string{" Rust ", "golang"}})
	assert.True(t, v.IsTechnical("rust"))
	assert.False(t, v.IsTechnical("python"))
	assert.NotEmpty(t, v.ExperienceIndicators())

	assert.True(t, buildVocabulary(nil).IsTechnical("python"))
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.md")
	require.NoError(t, os.WriteFile(path, []byte("# Python developer"), 0o644))

	text, err := readDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "# Python developer", text)

	_, err = readDocument(filepath.Join(dir, "resume.odt"))
	assert.ErrorIs(t, err, extract.ErrUnsupportedType)

	_, err = readDocument(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	printHistory(&buf, []*analysis.Analysis{
		{ID: "a1", JobTitle: "Backend", ATSScore: 64, KeywordMatchScore: 50, ExperienceMatchScore: 80, CreatedAt: time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)},
		{ID: "a2", JobID: "abc123", ATSScore: 12},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "ATS")
	assert.Contains(t, lines[1], "2026-05-01 09:30")
	assert.Contains(t, lines[1], "Backend")
	assert.Contains(t, lines[2], "abc123")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	assert.Equal(t, "jobsense version: unknown\n", buf.String())
}
