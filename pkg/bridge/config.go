package bridge

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/epetousis/BirdBridge/pkg/twitter"
)

//go:embed example-config.yaml
var ExampleConfig string

// SessionConfig binds one bearer token to a set of upstream credentials.
type SessionConfig struct {
	Token               string `yaml:"token"`
	twitter.Credentials `yaml:",inline"`
}

// BackfillConfig bounds the home-timeline gap filler.
type BackfillConfig struct {
	// MaxPages caps how many upstream batches one refresh may issue.
	MaxPages int `yaml:"max_pages"`
}

// Config holds the bridge configuration.
type Config struct {
	// Root is the public origin clients reach the bridge at, e.g.
	// "https://bird.example.com". Appears in rewritten permalinks.
	Root string `yaml:"root"`
	// Domain is the bare hostname, reported as the instance URI and used
	// to match local account handles.
	Domain        string `yaml:"domain"`
	ListenAddress string `yaml:"listen_address"`
	// StaticDir serves /static/ assets (badge emoji images).
	StaticDir string `yaml:"static_dir"`

	// APIBase overrides the upstream origin; used in tests.
	APIBase string `yaml:"api_base"`
	// ExtraHeaders are sent verbatim on every upstream request.
	ExtraHeaders map[string]string `yaml:"extra_headers"`

	// MaxContextPages caps the extra conversation pages fetched per
	// context request. Raising it makes threads complete but slow.
	MaxContextPages int `yaml:"max_context_pages"`
	// PaginationSafetyBufferMS delays account-statuses responses, working
	// around clients that fire paging requests back to back.
	PaginationSafetyBufferMS int `yaml:"pagination_safety_buffer_ms"`

	Backfill BackfillConfig  `yaml:"backfill"`
	Sessions []SessionConfig `yaml:"sessions"`
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	if err := node.Decode((*rawConfig)(c)); err != nil {
		return err
	}
	return c.applyDefaults()
}

func (c *Config) applyDefaults() error {
	if c.Root == "" {
		return fmt.Errorf("config: root is required")
	}
	if c.Domain == "" {
		return fmt.Errorf("config: domain is required")
	}
	if c.ListenAddress == "" {
		c.ListenAddress = ":8000"
	}
	if c.APIBase == "" {
		c.APIBase = twitter.DefaultBaseURL
	}
	if c.MaxContextPages <= 0 {
		c.MaxContextPages = 1
	}
	if c.Backfill.MaxPages <= 0 {
		c.Backfill.MaxPages = 10
	}
	for i, s := range c.Sessions {
		if s.Token == "" {
			return fmt.Errorf("config: session %d has no token", i)
		}
		if s.UserID() == "" {
			return fmt.Errorf("config: session %d access token carries no user id", i)
		}
	}
	return nil
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
