package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nilesh-r/jobsense/internal/analysis"
	"github.com/nilesh-r/jobsense/internal/extract"
	"github.com/nilesh-r/jobsense/internal/logger"
	"github.com/nilesh-r/jobsense/internal/scoring"
	"github.com/nilesh-r/jobsense/internal/secrets"
	"github.com/nilesh-r/jobsense/internal/similarity"
	"github.com/nilesh-r/jobsense/internal/similarity/gemini"
	"github.com/nilesh-r/jobsense/internal/store"
	"github.com/nilesh-r/jobsense/internal/vocabulary"
)

const (
	providerHTTP   = "http"
	providerGemini = "gemini"
)

// runtime holds everything a command needs. close releases connections.
type runtime struct {
	config  *Config
	logger  *zap.Logger
	service *analysis.Service
	store   store.Store
	closers []func()
}

func (r *runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	_ = r.logger.Sync()
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// setup builds the analysis service. withStore controls whether the configured
// store is opened.
func setup(ctx context.Context, withStore bool) *runtime {
	l := newLogger()

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	rt := &runtime{config: config, logger: l}

	scorer := scoring.New(buildVocabulary(config.Vocabulary))

	provider, closeProvider, err := buildProvider(ctx, config.Similarity, l)
	if err != nil {
		l.Warn("similarity provider disabled, using basic scoring only", zap.Error(err))
		provider = nil
	}
	if closeProvider != nil {
		rt.closers = append(rt.closers, closeProvider)
	}

	if withStore {
		s, err := store.Open(ctx, config.Store, l)
		if err != nil {
			l.Fatal("opening analysis store",
				zap.Error(err),
				zap.String("hint", "check store.driver and store.database-url (DATABASE_URL) in the configuration"),
			)
		}
		if s != nil {
			rt.store = s
			rt.closers = append(rt.closers, func() { _ = s.Close() })
		}
	}

	var repo analysis.Repository
	if rt.store != nil {
		repo = rt.store
	}
	rt.service = analysis.NewService(scorer, provider, repo, config.Similarity.Timeout, l)

	return rt
}

func buildVocabulary(cfg *VocabularyConfig) *vocabulary.Vocabulary {
	if cfg == nil {
		return vocabulary.Default()
	}
	return vocabulary.Default().WithOverrides(cfg.TechnicalTerms, cfg.ExperienceIndicators)
}

// buildProvider returns nil when similarity is disabled.
func buildProvider(ctx context.Context, cfg *SimilarityConfig, l *zap.Logger) (similarity.Provider, func(), error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil, nil
	}

	var provider similarity.Provider
	switch name := strings.ToLower(strings.TrimSpace(cfg.Provider)); name {
	case "", providerHTTP:
		provider = similarity.NewHTTP(cfg.BaseURL, logger.ForSimilarity(l, logger.Similarity{
			Provider: providerHTTP,
			Target:   cfg.BaseURL,
			Timeout:  cfg.Timeout,
		}))
	case providerGemini:
		p, err := newGeminiProvider(ctx, cfg.Gemini, l)
		if err != nil {
			return nil, nil, err
		}
		provider = p
	default:
		return nil, nil, fmt.Errorf("unsupported similarity provider: %s", cfg.Provider)
	}

	if cfg.Cache == nil || !cfg.Cache.Enabled {
		return provider, nil, nil
	}

	cache := similarity.NewRedisCache(ctx, similarity.RedisOptions{
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	}, l)

	return similarity.NewCached(provider, cache, cfg.Cache.TTL, l), func() { _ = cache.Close() }, nil
}

func newGeminiProvider(ctx context.Context, cfg *GeminiConfig, l *zap.Logger) (similarity.Provider, error) {
	if cfg == nil {
		cfg = &GeminiConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.APIKeyFile,
		Value: cfg.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set similarity.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model)
	if err != nil {
		return nil, err
	}

	return gemini.NewProvider(generator, l, cfg.MaxLogLength), nil
}

// readDocument extracts the text of a resume or job description file.
func readDocument(path string) (string, error) {
	mime := extract.MIMEFromPath(path)
	if mime == "" {
		return "", fmt.Errorf("%w: %s", extract.ErrUnsupportedType, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return extract.Text(mime, data)
}
