package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"opschat/internal/domain"
)

// Default returns the baseline configuration.
func Default() *domain.Config {
	return &domain.Config{
		Ollama: domain.OllamaConfig{
			BaseURL: "http://localhost:11434",
			Model:   "qwen2.5:latest",
		},
		Chat: domain.ChatConfig{
			HistoryWindow:    12,
			SelectionTimeout: 60000,
			ToolTimeout:      30000,
			AnswerTimeout:    120000,
		},
		Gateway: domain.GatewayConfig{Port: 8080},
		Infra:   domain.InfraConfig{LogFormat: "text", LogLevel: "info"},
		Retry: domain.RetryConfig{
			MaxRetries:     3,
			InitialBackoff: 500,
			MaxBackoff:     30000,
			Multiplier:     2,
		},
	}
}

// WriteDefault writes a default config to path. The format follows the file
// extension (.json, .yaml, .yml); parent directories are not created.
func WriteDefault(path string) error {
	cfg := Default()
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads path, unmarshals into domain.Config (JSON or YAML by extension),
// fills unset fields from defaults, and validates. Returns an error if the
// file is missing or invalid.
func Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	c := Default()
	if isYAML(path) {
		err = yaml.Unmarshal(data, c)
	} else {
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return nil, fmt.Errorf("config parse: %w", err)
	}

	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks field ranges that would otherwise fail at request time.
func Validate(c *domain.Config) error {
	if c == nil {
		return fmt.Errorf("config: nil config")
	}
	if c.Ollama.BaseURL == "" {
		return fmt.Errorf("config: ollama.baseUrl must not be empty")
	}
	if c.Ollama.Model == "" {
		return fmt.Errorf("config: ollama.model must not be empty")
	}
	if c.Chat.HistoryWindow <= 0 {
		return fmt.Errorf("config: chat.historyWindow must be > 0")
	}
	if c.Gateway.Port < 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("config: gateway.port must be 0-65535")
	}
	return nil
}

// Save writes cfg to path in the format matching the extension.
func Save(path string, cfg *domain.Config) error {
	if cfg == nil {
		return fmt.Errorf("config save: nil config")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config save mkdir: %w", err)
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("config save marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config save write: %w", err)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
