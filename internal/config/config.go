package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ajramos/maildraft/internal/compose"
	"github.com/ajramos/maildraft/internal/llm"
)

// CompletionConfig holds all completion provider settings
type CompletionConfig struct {
	// Core provider settings
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Provider string `json:"provider" yaml:"provider"` // ollama, bedrock, remote
	Model    string `json:"model" yaml:"model"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Region   string `json:"region" yaml:"region"` // For AWS Bedrock
	APIKey   string `json:"api_key" yaml:"api_key"`
	Timeout  string `json:"timeout" yaml:"timeout"`

	// Template file path (relative to config dir or absolute)
	PromptTemplate string `json:"prompt_template" yaml:"prompt_template"`

	// Inline prompt override (optional - takes precedence over file)
	Prompt string `json:"prompt,omitempty" yaml:"prompt,omitempty"`
}

// EditorConfig tunes the compose editor timings
type EditorConfig struct {
	// CheckpointInterval is the quiet period before an edit run is
	// committed to undo history (e.g. "500ms")
	CheckpointInterval string `json:"checkpoint_interval" yaml:"checkpoint_interval"`

	// SuggestDebounce is the idle delay before a completion request
	// fires (e.g. "150ms")
	SuggestDebounce string `json:"suggest_debounce" yaml:"suggest_debounce"`

	// MinSuggestChars is the minimum draft length before suggestions
	// are requested
	MinSuggestChars int `json:"min_suggest_chars" yaml:"min_suggest_chars"`
}

// CacheConfig controls the local suggestion cache
type CacheConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path overrides the database location (empty = default)
	Path string `json:"path" yaml:"path"`

	// MaxAgeDays prunes cached suggestions older than this on startup
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`
}

// KeyBindings defines the remappable shortcuts. The editing chords
// (undo, redo, accept, dismiss) are a fixed part of the editor and are
// not listed here.
type KeyBindings struct {
	Send string `json:"send" yaml:"send"`
	Quit string `json:"quit" yaml:"quit"`
}

// Config holds all configuration for the maildraft application
type Config struct {
	Credentials string `json:"credentials" yaml:"credentials"`
	Token       string `json:"token" yaml:"token"`

	// Completion provider configuration
	Completion CompletionConfig `json:"completion" yaml:"completion"`

	// Editor timings
	Editor EditorConfig `json:"editor" yaml:"editor"`

	// Suggestion cache
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// Keyboard shortcuts
	Keys KeyBindings `json:"keys" yaml:"keys"`

	// Logging
	LogFile string `json:"log_file" yaml:"log_file"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Completion: DefaultCompletionConfig(),
		Editor:     DefaultEditorConfig(),
		Cache:      DefaultCacheConfig(),
		Keys:       DefaultKeyBindings(),
		LogFile:    "",
	}
}

// DefaultCompletionConfig returns default completion provider configuration
func DefaultCompletionConfig() CompletionConfig {
	return CompletionConfig{
		Enabled:        true,
		Provider:       "ollama",
		Model:          "llama3.2:latest",
		Endpoint:       llm.DefaultOllamaEndpoint,
		Timeout:        "20s",
		PromptTemplate: "templates/complete.md",
		Prompt:         "",
	}
}

// DefaultEditorConfig returns default editor timings
func DefaultEditorConfig() EditorConfig {
	return EditorConfig{
		CheckpointInterval: "500ms",
		SuggestDebounce:    "150ms",
		MinSuggestChars:    5,
	}
}

// DefaultCacheConfig returns default suggestion cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:    true,
		Path:       "",
		MaxAgeDays: 30,
	}
}

// DefaultKeyBindings returns default keyboard shortcuts
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Send: "ctrl+j",
		Quit: "ctrl+q",
	}
}

// LoadConfig loads configuration from a file, falling back to defaults.
// YAML files are detected by extension; everything else is parsed as JSON.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			switch strings.ToLower(filepath.Ext(configPath)) {
			case ".yaml", ".yml":
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
				}
			default:
				if err := json.Unmarshal(data, cfg); err != nil {
					return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
				}
			}
		}
	}

	return cfg, nil
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "maildraft", "config.json")
}

// DefaultCredentialPaths returns the default paths for credentials and token
func DefaultCredentialPaths() (string, string) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}

	configDir := filepath.Join(home, ".config", "maildraft")
	credentialsPath := filepath.Join(configDir, "credentials.json")
	tokenPath := filepath.Join(configDir, "token.json")

	return credentialsPath, tokenPath
}

// DefaultCachePath returns the default suggestion database path
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "maildraft", "cache", "suggestions.db")
}

// DefaultLogDir returns the default log directory path
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "maildraft")
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetCompletionTimeout returns the parsed provider timeout
func (c *Config) GetCompletionTimeout() time.Duration {
	if c.Completion.Timeout != "" {
		if d, err := time.ParseDuration(c.Completion.Timeout); err == nil {
			return d
		}
	}
	return 20 * time.Second
}

// GetCheckpointInterval returns the parsed undo checkpoint interval
func (c *Config) GetCheckpointInterval() time.Duration {
	if c.Editor.CheckpointInterval != "" {
		if d, err := time.ParseDuration(c.Editor.CheckpointInterval); err == nil {
			return d
		}
	}
	return compose.DefaultCheckpointInterval
}

// GetSuggestDebounce returns the parsed suggestion debounce delay
func (c *Config) GetSuggestDebounce() time.Duration {
	if c.Editor.SuggestDebounce != "" {
		if d, err := time.ParseDuration(c.Editor.SuggestDebounce); err == nil {
			return d
		}
	}
	return compose.DefaultSuggestDebounce
}

// GetCachePath returns the suggestion database path, falling back to the default
func (c *Config) GetCachePath() string {
	if strings.TrimSpace(c.Cache.Path) != "" {
		return c.Cache.Path
	}
	return DefaultCachePath()
}

// LoadTemplate loads a prompt with proper priority: file first, then inline, then fallback
func LoadTemplate(templatePath, inlinePrompt, fallbackPrompt string) string {
	// First priority: Try to load from template file if path is specified
	if strings.TrimSpace(templatePath) != "" {
		// Make path relative to config directory if not absolute
		var fullPath string
		if filepath.IsAbs(templatePath) {
			fullPath = templatePath
		} else {
			configDir := filepath.Dir(DefaultConfigPath())
			fullPath = filepath.Join(configDir, templatePath)
		}

		if content, err := os.ReadFile(fullPath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	// Second priority: Use inline prompt if provided
	if strings.TrimSpace(inlinePrompt) != "" {
		return inlinePrompt
	}

	// Final fallback: Use provided fallback prompt
	return fallbackPrompt
}

// GetCompletionPrompt returns the completion prompt, loading from template file if needed
func (c *CompletionConfig) GetCompletionPrompt() string {
	return LoadTemplate(c.PromptTemplate, c.Prompt, llm.DefaultPromptTemplate)
}
