package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Assistant describes one configured assistant: which remote agent backs it,
// how it is presented in the chat UI, and (optionally) where its knowledge-base
// manifest lives.
type Assistant struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Icon        string `yaml:"icon"`
	Description string `yaml:"description"`
	LLMTxtURL   string `yaml:"llm_txt_url"`
}

// Config is the full assistants catalogue, keyed by the type slug used in URLs.
type Config struct {
	Assistants map[string]Assistant `yaml:"assistants"`
}

// Load reads and validates the assistants catalogue from a YAML file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(cfg.Assistants) == 0 {
		return nil, fmt.Errorf("config %s: no assistants defined", path)
	}
	for key, a := range cfg.Assistants {
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("config %s: empty assistant type key", path)
		}
		if err := a.validate(); err != nil {
			return nil, fmt.Errorf("config %s: assistant %q: %w", path, key, err)
		}
	}
	return &cfg, nil
}

func (a Assistant) validate() error {
	if !strings.HasPrefix(a.ID, "asst_") {
		return fmt.Errorf("id %q must start with \"asst_\"", a.ID)
	}
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

// Get returns the assistant for a type slug.
func (c *Config) Get(typ string) (Assistant, bool) {
	a, ok := c.Assistants[typ]
	return a, ok
}
