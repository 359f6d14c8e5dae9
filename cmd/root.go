package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nilesh-r/jobsense/internal/server"
	"github.com/nilesh-r/jobsense/internal/shortlist"
	"github.com/nilesh-r/jobsense/internal/similarity"
	"github.com/nilesh-r/jobsense/internal/store"
)

const (
	app       = "jobsense"
	envPrefix = "JOBSENSE"
)

type Config struct {
	Vocabulary *VocabularyConfig `mapstructure:"vocabulary"`
	Similarity *SimilarityConfig `mapstructure:"similarity"`
	Store      store.Config      `mapstructure:"store"`
	Server     server.Options    `mapstructure:"server"`
	Shortlist  *ShortlistConfig  `mapstructure:"shortlist"`
}

type VocabularyConfig struct {
	TechnicalTerms       []string `mapstructure:"technical-terms"`
	ExperienceIndicators []string `mapstructure:"experience-indicators"`
}

type SimilarityConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	BaseURL  string        `mapstructure:"base-url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
	Cache    *CacheConfig  `mapstructure:"cache"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key" json:"-"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password" json:"-"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type ShortlistConfig struct {
	MinimumScore int    `mapstructure:"minimum-score"`
	ExcludeFile  string `mapstructure:"exclude-file"`
	Concurrency  int    `mapstructure:"concurrency"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobsense scores resumes against job descriptions the way an applicant tracking system would",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := configureViper(); err != nil {
		log.Fatalf("configuring environment bindings: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobsense.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// configureViper registers defaults and environment bindings. Every config key has
// a default so that AutomaticEnv can override it.
func configureViper() error {
	viper.SetDefault("vocabulary.technical-terms", []string{})
	viper.SetDefault("vocabulary.experience-indicators", []string{})

	viper.SetDefault("similarity.enabled", true)
	viper.SetDefault("similarity.provider", "http")
	viper.SetDefault("similarity.base-url", similarity.DefaultBaseURL)
	viper.SetDefault("similarity.timeout", similarity.DefaultTimeout)
	viper.SetDefault("similarity.gemini.api-key", "")
	viper.SetDefault("similarity.gemini.api-key-file", "")
	viper.SetDefault("similarity.gemini.model", "")
	viper.SetDefault("similarity.gemini.max-log-length", 200)
	viper.SetDefault("similarity.cache.enabled", false)
	viper.SetDefault("similarity.cache.addr", "localhost:6379")
	viper.SetDefault("similarity.cache.password", "")
	viper.SetDefault("similarity.cache.db", 0)
	viper.SetDefault("similarity.cache.ttl", similarity.DefaultCacheTTL)

	viper.SetDefault("store.driver", store.DriverFile)
	viper.SetDefault("store.path", store.DefaultFilePath)
	viper.SetDefault("store.database-url", "")

	viper.SetDefault("server.addr", server.DefaultAddr)
	viper.SetDefault("server.max-upload-mb", server.DefaultMaxUploadMB)

	viper.SetDefault("shortlist.minimum-score", 0)
	viper.SetDefault("shortlist.exclude-file", "")
	viper.SetDefault("shortlist.concurrency", shortlist.DefaultConcurrency)

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindings := map[string]string{
		"similarity.base-url":            "AI_SERVICE_URL",
		"store.database-url":             "DATABASE_URL",
		"similarity.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"similarity.cache.addr":          "REDIS_ADDR",
	}
	for key, env := range bindings {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
		if err := viper.BindEnv(key, prefixed, env); err != nil {
			return err
		}
	}

	return nil
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// A missing default config file is fine, defaults and env apply.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Similarity == nil {
		config.Similarity = &SimilarityConfig{}
	}
	if config.Similarity.Gemini == nil {
		config.Similarity.Gemini = &GeminiConfig{}
	}
	if config.Similarity.Cache == nil {
		config.Similarity.Cache = &CacheConfig{}
	}
	if config.Shortlist == nil {
		config.Shortlist = &ShortlistConfig{}
	}
	if config.Vocabulary == nil {
		config.Vocabulary = &VocabularyConfig{}
	}

	return config, nil
}
