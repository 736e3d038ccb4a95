// Package config provides YAML-based configuration loading for Signoff.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Signoff configuration, loaded from signoff.yaml.
type Config struct {
	Program   string          `yaml:"program"`
	Database  DatabaseConfig  `yaml:"database"`
	Submit    SubmitConfig    `yaml:"submit"`
	Roles     RolesConfig     `yaml:"roles"`
	SLA       SLAConfig       `yaml:"sla"`
	Notify    NotifyConfig    `yaml:"notify"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// DatabaseConfig holds connection settings for the backing database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "mysql" or "sqlite"
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Name   string `yaml:"name"`
	Path   string `yaml:"path"` // sqlite file path
}

// SubmitConfig controls what a draft needs before it may be submitted.
type SubmitConfig struct {
	// RequireDecisions rejects submission of a draft with no decided items.
	// Defaults to true; set explicitly to false to allow empty submissions.
	RequireDecisions *bool `yaml:"require_decisions"`
}

// DecisionsRequired reports the effective submit policy.
func (s SubmitConfig) DecisionsRequired() bool {
	return s.RequireDecisions == nil || *s.RequireDecisions
}

// RolesConfig carries the transition gate overrides and the static
// user → roles bindings for the built-in oracle.
type RolesConfig struct {
	Gates    map[string]string   `yaml:"gates"`
	Bindings map[string][]string `yaml:"bindings"`
}

// SLAConfig declares the time budgets for cross-role handoffs.
type SLAConfig struct {
	DefaultHours int               `yaml:"default_hours"`
	Policies     []SLAPolicyConfig `yaml:"policies"`
}

// SLAPolicyConfig is one (transition, from_role, to_role) time budget with
// its escalation chain.
type SLAPolicyConfig struct {
	Transition string                  `yaml:"transition"`
	FromRole   string                  `yaml:"from_role"`
	ToRole     string                  `yaml:"to_role"`
	Hours      int                     `yaml:"hours"`
	Escalation bool                    `yaml:"escalation"`
	Levels     []EscalationLevelConfig `yaml:"levels"`
}

// EscalationLevelConfig is one step of an escalation chain. Hours counts
// from the assignment's creation.
type EscalationLevelConfig struct {
	Level  int    `yaml:"level"`
	Hours  int    `yaml:"hours"`
	ToRole string `yaml:"to_role"`
}

// NotifyConfig selects the notification channels.
type NotifyConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

// SlackConfig holds the bot token and target channel for Slack delivery.
type SlackConfig struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

// DiscordConfig holds the bot token and target channel for Discord delivery.
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// DashboardConfig holds settings for the read-only dashboard server.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" && c.Program != "" {
		c.Database.Name = "signoff_" + sanitize(c.Program)
	}
	if c.Database.Path == "" {
		c.Database.Path = "signoff.db"
	}
	if c.SLA.DefaultHours == 0 {
		c.SLA.DefaultHours = 24
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8377
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Program == "" {
		errs = append(errs, "program is required")
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not mysql or sqlite", c.Database.Driver))
	}
	if c.SLA.DefaultHours <= 0 {
		errs = append(errs, "sla.default_hours must be positive")
	}
	for i, p := range c.SLA.Policies {
		if p.Transition == "" {
			errs = append(errs, fmt.Sprintf("sla.policies[%d].transition is required", i))
		}
		if p.FromRole == "" {
			errs = append(errs, fmt.Sprintf("sla.policies[%d].from_role is required", i))
		}
		if p.ToRole == "" {
			errs = append(errs, fmt.Sprintf("sla.policies[%d].to_role is required", i))
		}
		if p.Hours <= 0 {
			errs = append(errs, fmt.Sprintf("sla.policies[%d].hours must be positive", i))
		}
		seen := make(map[int]bool)
		for j, lv := range p.Levels {
			if lv.Level < 1 {
				errs = append(errs, fmt.Sprintf("sla.policies[%d].levels[%d].level must be >= 1", i, j))
			}
			if seen[lv.Level] {
				errs = append(errs, fmt.Sprintf("sla.policies[%d] declares level %d twice", i, lv.Level))
			}
			seen[lv.Level] = true
			if lv.Hours <= 0 {
				errs = append(errs, fmt.Sprintf("sla.policies[%d].levels[%d].hours must be positive", i, j))
			}
			if lv.ToRole == "" {
				errs = append(errs, fmt.Sprintf("sla.policies[%d].levels[%d].to_role is required", i, j))
			}
		}
	}
	for user, bound := range c.Roles.Bindings {
		if len(bound) == 0 {
			errs = append(errs, fmt.Sprintf("roles.bindings[%s] lists no roles", user))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// sanitize converts a program name to a safe database-name suffix.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, s)
}
