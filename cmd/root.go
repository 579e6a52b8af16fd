package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/job-recommender/internal/pipeline"
	"github.com/spigell/job-recommender/internal/ranking"
)

const (
	app = "job-recommender"
)

type Config struct {
	Resume      string          `mapstructure:"resume"`
	ExcludeFile string          `mapstructure:"exclude-file"`
	UserAgent   string          `mapstructure:"user-agent"`
	Pipeline    pipeline.Config `mapstructure:"pipeline"`
	Ranking     ranking.Options `mapstructure:"ranking"`
	Filters     FiltersConfig   `mapstructure:"filters"`
	Embedding   EmbeddingConfig `mapstructure:"embedding"`
	JSearch     JSearchConfig   `mapstructure:"jsearch"`
	AI          AIConfig        `mapstructure:"ai"`
}

type FiltersConfig struct {
	ExcludeCompanies     []string `mapstructure:"exclude-companies"`
	ExcludeTitleKeywords []string `mapstructure:"exclude-title-keywords"`
	DisableDuplicates    bool     `mapstructure:"disable-duplicates"`
}

type EmbeddingConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	APIURL     string `mapstructure:"api-url" validate:"omitempty,url"`
	// CacheSize bounds the in-memory embedding cache. Zero means unbounded.
	CacheSize    int  `mapstructure:"cache-size" validate:"gte=0"`
	DisableCache bool `mapstructure:"disable-cache"`
}

type JSearchConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Host       string `mapstructure:"host" validate:"omitempty,hostname"`
}

type AIConfig struct {
	Provider     string        `mapstructure:"provider" validate:"omitempty,oneof=groq gemini"`
	MaxLogLength int           `mapstructure:"max-log-length" validate:"gte=0"`
	Groq         *GroqConfig   `mapstructure:"groq"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
}

type GroqConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url" validate:"omitempty,url"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries" validate:"gte=0"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries" validate:"gte=0"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-recommender ranks job postings against a resume and explains the best matches",
	}

	envBindings = map[string]string{
		"embedding.api-key": "HF_API_KEY",
		"jsearch.api-key":   "RAPIDAPI_KEY",
		"jsearch.host":      "JSEARCH_HOST",
		"ai.groq.api-key":   "GROQ_API_KEY",
		"ai.gemini.api-key": "GEMINI_API_KEY",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A missing .env file is fine, the variables may come from the environment itself.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("loading .env file: %v", err)
	}

	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-recommender.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Only run and rank need a config file.
	if runCmd.CalledAs() == "" && rankCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// An explicit config must parse. The default one may be absent.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	config := defaultConfig()
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	config.AI.Provider = strings.ToLower(strings.TrimSpace(config.AI.Provider))
	if config.AI.Provider == "" {
		config.AI.Provider = "groq"
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Pipeline: pipeline.DefaultConfig(),
		Ranking:  ranking.DefaultOptions(),
		AI: AIConfig{
			Groq:   &GroqConfig{},
			Gemini: &GeminiConfig{},
		},
	}
}

func validateConfig(config *Config) error {
	return validator.New().Struct(config)
}
