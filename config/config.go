package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported model providers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderMock      = "mock"
)

// Config is the root configuration.
type Config struct {
	AppName string        `yaml:"app_name"`
	Model   ModelConfig   `yaml:"model"`
	Runner  RunnerConfig  `yaml:"runner"`
	Search  SearchConfig  `yaml:"search"`
	Archive ArchiveConfig `yaml:"archive"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// ModelConfig selects and tunes the inference provider.
type ModelConfig struct {
	Provider          string  `yaml:"provider"`
	Name              string  `yaml:"name"`
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	RequestsPerMinute int     `yaml:"requests_per_minute"` // 0 = unlimited
}

// RunnerConfig bounds a single agent run.
type RunnerConfig struct {
	MaxModelCalls      int `yaml:"max_model_calls"`
	MaxHistoryMessages int `yaml:"max_history_messages"`
	MaxHistoryTokens   int `yaml:"max_history_tokens"`
}

// SearchConfig configures the web search tool.
type SearchConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	Timeout        time.Duration `yaml:"timeout"`
	FetchTopResult bool          `yaml:"fetch_top_result"`
}

// ArchiveConfig points at the sqlite artifact archive. An empty path keeps
// artifacts in memory.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := newConfig()
	applyDefaults(cfg)
	return cfg
}

// newConfig presets fields whose zero value is a valid setting, so a YAML
// file only overrides them when the key is present.
func newConfig() *Config {
	return &Config{Model: ModelConfig{Temperature: defaultTemperature}}
}

const defaultTemperature = 0.7

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads the YAML file at path (optional when empty), substitutes
// ${VAR} placeholders, applies environment overrides and defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := newConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		expanded := envVarRegex.ReplaceAllStringFunc(string(data), func(match string) string {
			if value := os.Getenv(match[2 : len(match)-1]); value != "" {
				return value
			}
			return match
		})

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads .env files with override semantics. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Overload(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}

	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FITTELLIGENCE_PROVIDER"); v != "" {
		cfg.Model.Provider = v
	}
	if v := os.Getenv("FITTELLIGENCE_MODEL"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("FITTELLIGENCE_ARCHIVE"); v != "" {
		cfg.Archive.Path = v
	}
	if v := os.Getenv("FITTELLIGENCE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("FITTELLIGENCE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.AppName == "" {
		cfg.AppName = "fittelligence"
	}

	if cfg.Model.Provider == "" {
		cfg.Model.Provider = ProviderGemini
	}
	if cfg.Model.Name == "" {
		cfg.Model.Name = defaultModelName(cfg.Model.Provider)
	}
	if cfg.Model.MaxTokens == 0 {
		cfg.Model.MaxTokens = 4096
	}

	if cfg.Runner.MaxModelCalls == 0 {
		cfg.Runner.MaxModelCalls = 25
	}
	if cfg.Runner.MaxHistoryMessages == 0 {
		cfg.Runner.MaxHistoryMessages = 20
	}
	if cfg.Runner.MaxHistoryTokens == 0 {
		cfg.Runner.MaxHistoryTokens = 16000
	}

	if cfg.Search.Endpoint == "" {
		cfg.Search.Endpoint = "https://api.duckduckgo.com/"
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 10 * time.Second
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func defaultModelName(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	case ProviderOllama:
		return "llama3.2"
	case ProviderMock:
		return "mock-model"
	default:
		return "gemini-2.5-flash"
	}
}

// Validate checks the configuration for unsupported values.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderMock:
	default:
		return fmt.Errorf("unsupported model provider %q", c.Model.Provider)
	}

	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range [0, 2]", c.Model.Temperature)
	}
	if c.Model.RequestsPerMinute < 0 {
		return errors.New("requests_per_minute must not be negative")
	}
	if c.Runner.MaxModelCalls < 0 || c.Runner.MaxHistoryMessages < 0 || c.Runner.MaxHistoryTokens < 0 {
		return errors.New("runner limits must not be negative")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.Logging.Format)
	}

	return nil
}

// APIKeyEnv names the environment variable holding the provider key.
func (m ModelConfig) APIKeyEnv() string {
	switch m.Provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOllama, ProviderMock:
		return ""
	default:
		return "GOOGLE_API_KEY"
	}
}

// ResolvedAPIKey returns the configured key or the provider's env var.
func (m ModelConfig) ResolvedAPIKey() string {
	if m.APIKey != "" {
		return m.APIKey
	}
	if env := m.APIKeyEnv(); env != "" {
		return os.Getenv(env)
	}
	return ""
}

// placeholderKeys are template values shipped in example .env files.
var placeholderKeys = map[string]bool{
	"":                  true,
	"your-api-key-here": true,
	"your-api-key":      true,
}

// HasCredentials reports whether a usable API key is configured. Providers
// without keys always report true.
func (m ModelConfig) HasCredentials() bool {
	if m.APIKeyEnv() == "" && m.APIKey == "" {
		return true
	}
	return !placeholderKeys[strings.TrimSpace(m.ResolvedAPIKey())]
}
