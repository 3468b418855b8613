package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spigell/job-assistant/internal/filtering"
	"github.com/spigell/job-assistant/internal/secrets"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "job-assistant"
)

type Config struct {
	Google      *GoogleConfig       `mapstructure:"google"`
	Resume      *ResumeConfig       `mapstructure:"resume"`
	Preferences []string            `mapstructure:"preferences"`
	Location    string              `mapstructure:"location"`
	Thresholds  *ThresholdsConfig   `mapstructure:"thresholds"`
	AI          *AIConfig           `mapstructure:"ai"`
	Mail        *MailConfig         `mapstructure:"mail"`
	Storage     *StorageConfig      `mapstructure:"storage"`
	Output      *OutputConfig       `mapstructure:"output"`
	Research    *ResearchConfig     `mapstructure:"research"`
	Filters     filtering.Config    `mapstructure:"filters"`
	Metrics     MetricsConfig       `mapstructure:"metrics"`
	Vault       secrets.VaultConfig `mapstructure:"vault"`
}

type GoogleConfig struct {
	CredentialsFile string `mapstructure:"credentials-file"`
	TokenFile       string `mapstructure:"token-file"`
}

type ResumeConfig struct {
	DocumentID string        `mapstructure:"document-id"`
	File       string        `mapstructure:"file"`
	CacheTTL   time.Duration `mapstructure:"cache-ttl"`
}

type ThresholdsConfig struct {
	Research     float64 `mapstructure:"research"`
	Notification float64 `mapstructure:"notification"`
}

type AIConfig struct {
	Provider     string         `mapstructure:"provider"`
	MaxLogLength int            `mapstructure:"max-log-length"`
	Ollama       *OllamaConfig  `mapstructure:"ollama"`
	Gemini       *GeminiConfig  `mapstructure:"gemini"`
	Breaker      *BreakerConfig `mapstructure:"breaker"`
}

type OllamaConfig struct {
	BaseURL string `mapstructure:"base-url"`
	Model   string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKeyFile  string `mapstructure:"api-key-file"`
	APIKeyVault string `mapstructure:"api-key-vault-path"`
	Model       string `mapstructure:"model"`
	MaxRetries  int    `mapstructure:"max-retries"`
}

type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max-failures"`
	OpenTimeout time.Duration `mapstructure:"open-timeout"`
}

type MailConfig struct {
	MaxResults      int      `mapstructure:"max-results"`
	Senders         []string `mapstructure:"senders"`
	SubjectKeywords []string `mapstructure:"subject-keywords"`
}

type StorageConfig struct {
	Driver           string `mapstructure:"driver"`
	DataDir          string `mapstructure:"data-dir"`
	DatabaseURL      string `mapstructure:"database-url"`
	DatabaseURLFile  string `mapstructure:"database-url-file"`
	DatabaseURLVault string `mapstructure:"database-url-vault-path"`
}

type OutputConfig struct {
	CoverLettersDir string `mapstructure:"cover-letters-dir"`
	HighlightsDir   string `mapstructure:"highlights-dir"`
}

type ResearchConfig struct {
	MaxURLs           int           `mapstructure:"max-urls"`
	RequestsPerSecond float64       `mapstructure:"requests-per-second"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RedisURL          string        `mapstructure:"redis-url"`
	CacheTTL          time.Duration `mapstructure:"cache-ttl"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-assistant turns job alert emails into scored, researched job postings",
	}
)

// envBindings keeps the environment variable names users already rely on.
var envBindings = map[string]string{
	"google.credentials-file":         "GMAIL_CREDENTIALS_PATH",
	"google.token-file":               "GOOGLE_TOKEN_FILE",
	"resume.document-id":              "GOOGLE_DRIVE_RESUME_ID",
	"resume.file":                     "RESUME_FILE",
	"resume.cache-ttl":                "RESUME_CACHE_TTL",
	"preferences":                     "USER_PREFERENCES",
	"location":                        "USER_LOCATION",
	"thresholds.research":             "MIN_SCORE_FOR_RESEARCH",
	"thresholds.notification":         "MIN_SCORE_FOR_NOTIFICATION",
	"ai.provider":                     "AI_PROVIDER",
	"ai.ollama.base-url":              "OLLAMA_BASE_URL",
	"ai.ollama.model":                 "OLLAMA_MODEL",
	"ai.gemini.api-key-file":          "GEMINI_API_KEY_FILE",
	"ai.gemini.model":                 "GEMINI_MODEL",
	"storage.driver":                  "STORAGE_DRIVER",
	"storage.data-dir":                "DATA_DIR",
	"storage.database-url":            "DATABASE_URL",
	"storage.database-url-file":       "DATABASE_URL_FILE",
	"storage.database-url-vault-path": "DATABASE_URL_VAULT_PATH",
	"research.redis-url":              "REDIS_URL",
	"metrics.textfile":                "METRICS_TEXTFILE",
	"vault.address":                   "VAULT_ADDR",
	"vault.token-file":                "VAULT_TOKEN_FILE",
	"vault.token":                     "VAULT_TOKEN",
	"vault.namespace":                 "VAULT_NAMESPACE",
}

var defaults = map[string]any{
	"google.credentials-file":      "credentials.json",
	"google.token-file":            "token.json",
	"resume.cache-ttl":             24 * time.Hour,
	"thresholds.research":          70.0,
	"thresholds.notification":      80.0,
	"ai.provider":                  "ollama",
	"ai.max-log-length":            200,
	"ai.ollama.base-url":           "http://localhost:11434",
	"ai.ollama.model":              "llama3.1:8b",
	"ai.gemini.model":              "gemini-2.5-pro",
	"ai.gemini.max-retries":        3,
	"ai.breaker.max-failures":      5,
	"ai.breaker.open-timeout":      time.Minute,
	"mail.max-results":             50,
	"storage.driver":               "file",
	"storage.data-dir":             "data",
	"output.cover-letters-dir":     "data/cover_letters",
	"output.highlights-dir":        "data/resume_highlights",
	"research.max-urls":            5,
	"research.requests-per-second": 1.0,
	"research.timeout":             15 * time.Second,
	"research.cache-ttl":           7 * 24 * time.Hour,
	"metrics.textfile":             "",
	"vault.mount":                  secrets.DefaultMount,
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-assistant.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The file is optional: environment variables alone are a valid setup.
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

	return config, nil
}
