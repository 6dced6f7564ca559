package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	domainErrors "github.com/thomas-vilte/matereview/internal/errors"
)

type EstimateMode string

const (
	EstimateOff   EstimateMode = "off"
	EstimateAPI   EstimateMode = "api"
	EstimateLocal EstimateMode = "local"
)

// Config is built once at start-up and handed to every component that needs
// it. Nothing else in the program reads the environment.
type Config struct {
	GitHubToken       string
	GeminiAPIKey      string
	Model             string
	Language          string
	GitHubAPIURL      string
	GeminiAPIURL      string
	CompletionTimeout time.Duration
	MaxAttempts       int
	InitialBackoff    time.Duration
	Estimate          EstimateMode

	// PathFile is the TOML file that was read, empty when none was found.
	PathFile string
}

// LoadOptions carries the values given on the command line. Empty fields
// leave the loaded value untouched.
type LoadOptions struct {
	ConfigFile string
	EnvFile    string
	Language   string
	Model      string
	Estimate   string
}

const (
	KeyGitHubToken       = "github_token"
	KeyGeminiAPIKey      = "gemini_api_key"
	KeyModel             = "model"
	KeyLanguage          = "language"
	KeyGitHubAPIURL      = "github_api_url"
	KeyGeminiAPIURL      = "gemini_api_url"
	KeyCompletionTimeout = "completion_timeout"
	KeyEstimate          = "estimate"
)

const (
	defaultModel             = "gemini-2.5-flash"
	defaultLang              = LangEN
	defaultGitHubAPIURL      = "https://api.github.com/"
	defaultGeminiAPIURL      = "https://generativelanguage.googleapis.com"
	defaultCompletionTimeout = 180 * time.Second
	defaultEnvFile           = ".env"

	// The retry policy for generation calls is fixed and not read from env or file.
	defaultMaxAttempts    = 5
	defaultInitialBackoff = 2 * time.Second

	// MinCompletionTimeout is the lowest timeout accepted for a generation call.
	MinCompletionTimeout = 180 * time.Second
)

// Load resolves the configuration from flags, process env, a .env file, a TOML
// file and defaults, in that order of precedence.
func Load(opts LoadOptions) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	configPath := opts.ConfigFile
	if configPath == "" {
		configPath = DefaultConfigPath()
	}

	var pathFile string
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			v.SetConfigType("toml")
			if err := v.ReadInConfig(); err != nil {
				return nil, domainErrors.ErrConfigFile.WithError(err).WithContext("path", configPath)
			}
			pathFile = configPath
		} else if opts.ConfigFile != "" {
			return nil, domainErrors.ErrConfigFile.WithError(err).WithContext("path", configPath)
		}
	}

	cfg := &Config{
		GitHubToken:       strings.TrimSpace(v.GetString(KeyGitHubToken)),
		GeminiAPIKey:      strings.TrimSpace(v.GetString(KeyGeminiAPIKey)),
		Model:             v.GetString(KeyModel),
		Language:          v.GetString(KeyLanguage),
		GitHubAPIURL:      v.GetString(KeyGitHubAPIURL),
		GeminiAPIURL:      v.GetString(KeyGeminiAPIURL),
		CompletionTimeout: v.GetDuration(KeyCompletionTimeout),
		MaxAttempts:       defaultMaxAttempts,
		InitialBackoff:    defaultInitialBackoff,
		Estimate:          EstimateMode(strings.ToLower(v.GetString(KeyEstimate))),
		PathFile:          pathFile,
	}

	if opts.Language != "" {
		cfg.Language = opts.Language
	}
	if opts.Model != "" {
		cfg.Model = opts.Model
	}
	if opts.Estimate != "" {
		cfg.Estimate = EstimateMode(strings.ToLower(opts.Estimate))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a configuration holding only the default values.
func Default() *Config {
	return &Config{
		Model:             defaultModel,
		Language:          defaultLang,
		GitHubAPIURL:      defaultGitHubAPIURL,
		GeminiAPIURL:      defaultGeminiAPIURL,
		CompletionTimeout: defaultCompletionTimeout,
		MaxAttempts:       defaultMaxAttempts,
		InitialBackoff:    defaultInitialBackoff,
		Estimate:          EstimateOff,
	}
}

// DefaultConfigPath returns ~/.mate-review/config.toml, or "" when the home
// directory cannot be resolved.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".mate-review", "config.toml")
}

func (c *Config) Validate() error {
	if c.Model == "" {
		return domainErrors.ErrInvalidConfig.WithContext("field", KeyModel).
			WithSuggestion("Set MATE_REVIEW_MODEL, e.g. gemini-2.5-flash")
	}
	if !IsSupportedLanguage(c.Language) {
		return domainErrors.ErrInvalidConfig.WithContext("field", KeyLanguage).
			WithSuggestion(fmt.Sprintf("Supported languages: %s", strings.Join(SupportedLanguages(), ", ")))
	}
	if c.CompletionTimeout < MinCompletionTimeout {
		return domainErrors.ErrInvalidConfig.WithContext("field", KeyCompletionTimeout).
			WithSuggestion(fmt.Sprintf("Generation is slow, use at least %s", MinCompletionTimeout))
	}
	if c.MaxAttempts < 1 {
		return domainErrors.ErrInvalidConfig.WithContext("field", "max_attempts").
			WithSuggestion("max_attempts must be at least 1")
	}
	if c.InitialBackoff <= 0 {
		return domainErrors.ErrInvalidConfig.WithContext("field", "initial_backoff").
			WithSuggestion("initial_backoff must be a positive duration, e.g. 2s")
	}
	switch c.Estimate {
	case EstimateOff, EstimateAPI, EstimateLocal:
	default:
		return domainErrors.ErrInvalidConfig.WithContext("field", KeyEstimate).
			WithSuggestion("estimate must be one of: off, api, local")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyModel, d.Model)
	v.SetDefault(KeyLanguage, d.Language)
	v.SetDefault(KeyGitHubAPIURL, d.GitHubAPIURL)
	v.SetDefault(KeyGeminiAPIURL, d.GeminiAPIURL)
	v.SetDefault(KeyCompletionTimeout, d.CompletionTimeout)
	v.SetDefault(KeyEstimate, string(d.Estimate))
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv(KeyGitHubToken, "GITHUB_TOKEN", "MATE_REVIEW_GITHUB_TOKEN")
	_ = v.BindEnv(KeyGeminiAPIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv(KeyModel, "MATE_REVIEW_MODEL")
	_ = v.BindEnv(KeyLanguage, "MATE_REVIEW_LANGUAGE")
	_ = v.BindEnv(KeyGitHubAPIURL, "MATE_REVIEW_GITHUB_API_URL")
	_ = v.BindEnv(KeyGeminiAPIURL, "MATE_REVIEW_GEMINI_API_URL")
	_ = v.BindEnv(KeyCompletionTimeout, "MATE_REVIEW_COMPLETION_TIMEOUT")
	_ = v.BindEnv(KeyEstimate, "MATE_REVIEW_ESTIMATE")
}

// loadEnvFile populates the process env from a dotenv file without overriding
// variables that are already set. A missing default file is not an error.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return domainErrors.ErrConfigFile.WithError(err).
			WithContext("path", path).
			WithSuggestion("Check the path passed to --env-file")
	}
	return nil
}
