// Package config loads service configuration from defaults, an optional
// YAML file, a .env file and the environment, in that order of precedence
// (later sources win).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mfateev/tradvisor-agent/internal/llm"
	"github.com/mfateev/tradvisor-agent/internal/models"
)

// APIConfig configures access to the remote reasoning service.
type APIConfig struct {
	APIKey         string             `yaml:"api_key"`
	BaseURL        string             `yaml:"base_url"`
	Model          models.ModelConfig `yaml:"model"`
	RequestTimeout time.Duration      `yaml:"request_timeout"`
}

// AgentConfig configures the loop.
type AgentConfig struct {
	Limits models.LimitsConfig `yaml:"limits"`

	// InstructionsFile replaces the built-in system prompt when set.
	InstructionsFile string `yaml:"instructions_file"`
}

// ServerConfig configures the HTTP chat service.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	HistoryLimit   int      `yaml:"history_limit"`
	TitleLimit     int      `yaml:"title_limit"`
	// RetitleLimit bounds the title set once the first exchange is saved.
	RetitleLimit  int           `yaml:"retitle_limit"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
}

// StoreConfig selects the session store.
type StoreConfig struct {
	// Path is the SQLite database file. Empty keeps sessions in memory.
	Path string `yaml:"path"`
}

// Config is the complete service configuration. It is loaded once at
// startup and read-only afterwards.
type Config struct {
	API    APIConfig    `yaml:"api"`
	Agent  AgentConfig  `yaml:"agent"`
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:        llm.DefaultBaseURL,
			Model:          models.DefaultModelConfig(),
			RequestTimeout: 2 * time.Minute,
		},
		Agent: AgentConfig{
			Limits: models.DefaultLimitsConfig(),
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			HistoryLimit:   20,
			TitleLimit:     50,
			RetitleLimit:   60,
			ShutdownGrace:  10 * time.Second,
		},
	}
}

// Load builds the configuration. path names an optional YAML file; a
// missing file is not an error. envFile names an optional dotenv file
// whose variables never override ones already set in the environment.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := loadConfigFromEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadConfigFromEnv(cfg *Config) error {
	if v := os.Getenv("XAI_API_KEY"); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv("XAI_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("XAI_MODEL"); v != "" {
		cfg.API.Model.Model = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("REQUEST_TIMEOUT: %w", err)
		}
		cfg.API.RequestTimeout = d
	}
	if v := os.Getenv("MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_ITERATIONS: %w", err)
		}
		cfg.Agent.Limits.MaxIterations = n
	}
	if v := os.Getenv("TRADVISOR_INSTRUCTIONS_FILE"); v != "" {
		cfg.Agent.InstructionsFile = v
	}
	if v := os.Getenv("TRADVISOR_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TRADVISOR_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("TRADVISOR_DB"); v != "" {
		cfg.Store.Path = v
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.API.APIKey == "" {
		return errors.New("XAI_API_KEY is not set")
	}
	if c.API.Model.Model == "" {
		return errors.New("model must not be empty")
	}
	if c.Agent.Limits.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be >= 1, got %d", c.Agent.Limits.MaxIterations)
	}
	if c.API.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.API.RequestTimeout)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
