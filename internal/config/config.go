package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	exeDirCache string
)

// getExecutableDir returns the directory where the executable is located
func getExecutableDir() string {
	if exeDirCache != "" {
		return exeDirCache
	}
	execPath, err := os.Executable()
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	exeDirCache = filepath.Dir(execPath)
	return exeDirCache
}

type Config struct {
	AI      AIConfig      `yaml:"ai,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Prompt  PromptConfig  `yaml:"prompt,omitempty"`
	Audit   AuditConfig   `yaml:"audit,omitempty"`
}

type AIConfig struct {
	Provider string `yaml:"provider,omitempty"` // "gemini" or "openai"
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
	Model    string `yaml:"model,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// PromptConfig configures prompt assembly.
type PromptConfig struct {
	// ExamplesDir holds extra few-shot example files (*.json with
	// {"user": ..., "assistant": ...}), appended after the built-in
	// library in sorted file-name order.
	ExamplesDir string `yaml:"examples_dir,omitempty"`
	// PreamblePath overrides the built-in instruction preamble.
	PreamblePath string `yaml:"preamble_path,omitempty"`
}

type AuditConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir,omitempty"`
	RetentionDays int    `yaml:"retention_days,omitempty"`
	FilePrefix    string `yaml:"file_prefix,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		AI: AIConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Audit: AuditConfig{
			Enabled:       false,
			Dir:           ".cadforge/audit",
			RetentionDays: 7,
			FilePrefix:    "generate",
		},
	}
}

func ConfigDir() string {
	exeDir := getExecutableDir()
	return filepath.Join(exeDir, ".cadforge")
}

func ConfigPath() string {
	if p := os.Getenv("CADFORGE_CONFIG"); p != "" {
		return p
	}
	exeDir := getExecutableDir()
	return filepath.Join(exeDir, ".cadforge.yaml")
}

func Load() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overlays environment variables onto the config.
// Precedence is flag > env > file; flags are applied by the caller.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CADFORGE_PROVIDER"); v != "" {
		cfg.AI.Provider = v
	}
	if v := os.Getenv("CADFORGE_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("CADFORGE_BASE_URL"); v != "" {
		cfg.AI.BaseURL = v
	}
	if v := os.Getenv("CADFORGE_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if cfg.AI.APIKey == "" {
		switch cfg.AI.Provider {
		case "openai":
			cfg.AI.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			cfg.AI.APIKey = os.Getenv("GOOGLE_API_KEY")
		}
	}
}

func (c *Config) Save() error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(ConfigPath(), data, 0600)
}
