package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string
	WebhookURL      string
	DatabasePath    string
	Tuning          *Tuning
	ConfigDir       string
	Debug           bool
}

// FileConfig represents the structure of ~/.lexgate/config.yaml
type FileConfig struct {
	APIKeys      APIKeysConfig `yaml:"api_keys"`
	WebhookURL   string        `yaml:"webhook_url"`
	DatabasePath string        `yaml:"database_path"`
	Debug        bool          `yaml:"debug"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	Anthropic string `yaml:"anthropic"`
	OpenAI    string `yaml:"openai"`
	Google    string `yaml:"google"`
}

// Load reads configuration from config files and environment variables.
// Environment variables take precedence over file configuration.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	cfg := &Config{
		AnthropicAPIKey: getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		OpenAIAPIKey:    getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		GoogleAPIKey:    getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),
		WebhookURL:      getEnvOrDefault("LEXGATE_WEBHOOK_URL", fileConfig.WebhookURL),
		DatabasePath:    getEnvOrDefault("LEXGATE_DB_PATH", fileConfig.DatabasePath),
		ConfigDir:       configDir,
		Debug:           fileConfig.Debug,
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(configDir, "quality.db")
	}

	tuningPath := filepath.Join(configDir, "tuning.yaml")
	if _, err := os.Stat(tuningPath); err == nil {
		tuning, err := LoadTuning(tuningPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load tuning config: %w", err)
		}
		cfg.Tuning = tuning
	} else {
		cfg.Tuning = DefaultTuning()
	}

	return cfg, nil
}

// LoadWithTuningFile loads config with a specific tuning file.
func LoadWithTuningFile(tuningPath string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	tuning, err := LoadTuning(tuningPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tuning config from %s: %w", tuningPath, err)
	}
	cfg.Tuning = tuning
	return cfg, nil
}

// HasProvider returns true if the API key for the given provider is configured.
func (c *Config) HasProvider(name string) bool {
	switch name {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "google":
		return c.GoogleAPIKey != ""
	case "local":
		return true
	default:
		return false
	}
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg // Return empty config if file doesn't exist
	}

	_ = yaml.Unmarshal(data, cfg) // Ignore parse errors, use defaults
	return cfg
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".lexgate")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
