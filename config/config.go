// Package config loads daemon configuration from an optional YAML file, a
// .env file and the process environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mrsingh-rishi/brahmastra/logger"
)

// Config represents the complete daemon configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Live      LiveConfig      `yaml:"live"`
	Search    SearchConfig    `yaml:"search"`
	Audio     AudioConfig     `yaml:"audio"`
	Store     StoreConfig     `yaml:"store"`
	Assistant AssistantConfig `yaml:"assistant"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains the HUD control surface settings
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LiveConfig contains the realtime session settings
type LiveConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
	Voice  string `yaml:"voice"`
}

// SearchConfig selects the scripture search backend
type SearchConfig struct {
	Provider     string `yaml:"provider"` // gemini | openai
	Model        string `yaml:"model"`
	OpenAIAPIKey string `yaml:"openai_api_key"`
}

// AudioConfig contains device and pipeline parameters
type AudioConfig struct {
	Backend      string        `yaml:"backend"` // portaudio | wav | null
	InputWAV     string        `yaml:"input_wav"`
	InputRate    int           `yaml:"input_rate"`
	OutputRate   int           `yaml:"output_rate"`
	ChunkFrames  int           `yaml:"chunk_frames"`
	OutputFrames int           `yaml:"output_frames"`
	GainRamp     time.Duration `yaml:"gain_ramp"`
	RecordDir    string        `yaml:"record_dir"`
}

// StoreConfig selects where protocols, memories and history live
type StoreConfig struct {
	Backend   string `yaml:"backend"` // file | redis
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redis_addr"`
	Prefix    string `yaml:"prefix"`
}

// AssistantConfig tunes the dispatcher
type AssistantConfig struct {
	ResponseClearDelay time.Duration `yaml:"response_clear_delay"`
	LogCapacity        int           `yaml:"log_capacity"`
	HistoryLimit       int           `yaml:"history_limit"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Address: ":3000"},
		Live: LiveConfig{
			Model: "gemini-2.5-flash-native-audio-preview-12-2025",
			Voice: "Puck",
		},
		Search: SearchConfig{
			Provider: "gemini",
			Model:    "gemini-3-flash-preview",
		},
		Audio: AudioConfig{
			Backend:      "portaudio",
			InputRate:    16000,
			OutputRate:   24000,
			ChunkFrames:  4096,
			OutputFrames: 960,
			GainRamp:     50 * time.Millisecond,
		},
		Store: StoreConfig{
			Backend: "file",
			Path:    "brahmastra.json",
			Prefix:  "brahmastra",
		},
		Assistant: AssistantConfig{
			ResponseClearDelay: 4 * time.Second,
			LogCapacity:        16,
			HistoryLimit:       500,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path (if path is non-empty), the .env file in
// the working directory (if present), applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, falling back to environment variables")
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Live.APIKey, "API_KEY")
	setString(&c.Live.APIKey, "GEMINI_API_KEY")
	setString(&c.Live.Model, "BRAHMASTRA_LIVE_MODEL")
	setString(&c.Live.Voice, "BRAHMASTRA_VOICE")
	setString(&c.Search.Provider, "BRAHMASTRA_SEARCH_PROVIDER")
	setString(&c.Search.Model, "BRAHMASTRA_SEARCH_MODEL")
	setString(&c.Search.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.Server.Address, "BRAHMASTRA_LISTEN")
	setString(&c.Store.Backend, "BRAHMASTRA_STORE")
	setString(&c.Store.Path, "BRAHMASTRA_STORE_PATH")
	setString(&c.Store.RedisAddr, "REDIS_ADDR")
	setString(&c.Audio.Backend, "BRAHMASTRA_AUDIO")
	setString(&c.Audio.InputWAV, "BRAHMASTRA_INPUT_WAV")
	setString(&c.Audio.RecordDir, "BRAHMASTRA_RECORD_DIR")
	setString(&c.Logging.Level, "LOG_LEVEL")

	if v := os.Getenv("BRAHMASTRA_HISTORY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BRAHMASTRA_HISTORY_LIMIT: %w", err)
		}
		c.Assistant.HistoryLimit = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate performs validation of the configuration
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server address is required")
	}
	if err := c.Live.Validate(); err != nil {
		return fmt.Errorf("live config: %w", err)
	}
	if err := c.Search.Validate(c.Live); err != nil {
		return fmt.Errorf("search config: %w", err)
	}
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}
	if err := c.Assistant.Validate(); err != nil {
		return fmt.Errorf("assistant config: %w", err)
	}
	return nil
}

// Validate validates live session configuration
func (l *LiveConfig) Validate() error {
	if l.APIKey == "" {
		return errors.New("GEMINI_API_KEY is required")
	}
	if l.Model == "" {
		return errors.New("model is required")
	}
	if l.Voice == "" {
		return errors.New("voice is required")
	}
	return nil
}

// Validate validates search configuration
func (s *SearchConfig) Validate(live LiveConfig) error {
	switch s.Provider {
	case "gemini":
	case "openai":
		if s.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required when search provider is openai")
		}
	default:
		return fmt.Errorf("unknown search provider %q", s.Provider)
	}
	if s.Model == "" {
		return errors.New("search model is required")
	}
	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	switch a.Backend {
	case "portaudio", "null":
	case "wav":
		if a.InputWAV == "" {
			return errors.New("input_wav is required for the wav backend")
		}
	default:
		return fmt.Errorf("unknown audio backend %q", a.Backend)
	}
	if a.InputRate <= 0 || a.OutputRate <= 0 {
		return fmt.Errorf("sample rates must be positive, got %d/%d", a.InputRate, a.OutputRate)
	}
	if a.ChunkFrames <= 0 {
		return fmt.Errorf("chunk_frames must be positive, got %d", a.ChunkFrames)
	}
	if a.OutputFrames <= 0 {
		return fmt.Errorf("output_frames must be positive, got %d", a.OutputFrames)
	}
	if a.GainRamp < 0 {
		return errors.New("gain_ramp cannot be negative")
	}
	return nil
}

// Validate validates store configuration
func (s *StoreConfig) Validate() error {
	switch s.Backend {
	case "file":
		if s.Path == "" {
			return errors.New("path is required for the file store")
		}
	case "redis":
		if s.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store backend %q", s.Backend)
	}
	return nil
}

// Validate validates dispatcher tuning
func (a *AssistantConfig) Validate() error {
	if a.ResponseClearDelay < 0 {
		return errors.New("response_clear_delay cannot be negative")
	}
	if a.LogCapacity <= 0 {
		return fmt.Errorf("log_capacity must be positive, got %d", a.LogCapacity)
	}
	if a.HistoryLimit < 0 {
		return fmt.Errorf("history_limit cannot be negative, got %d", a.HistoryLimit)
	}
	return nil
}
