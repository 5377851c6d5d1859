package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aman-churiwal/assistant-gateway/internal/usage"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Session  SessionConfig  `json:"session"`
	Redis    RedisConfig    `json:"redis"`
	Postgres PostgresConfig `json:"postgres"`
	Governor GovernorConfig `json:"governor"`
	Tiers    []TierConfig   `json:"tiers"`
}

type ServerConfig struct {
	Port        string `json:"port"`
	Environment string `json:"environment"`
}

type SessionConfig struct {
	Secret string `json:"secret"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

func (r RedisConfig) GetRedisAddr() string {
	return r.Host + ":" + r.Port
}

type PostgresConfig struct {
	Enabled bool   `json:"enabled"`
	DSN     string `json:"dsn"`
}

type GovernorConfig struct {
	// Backend is "memory" (default) or "redis".
	Backend string `json:"backend"`
	// LegacyTokenSums switches token accounting to the old running-sum
	// mode, which never ages usage out. Compatibility only.
	LegacyTokenSums bool `json:"legacy_token_sums"`
}

// TierConfig is one policy table entry. Provider and Model are optional;
// when set, the entry only applies to that provider+model combination.
// Token limits are optional: omitted means unlimited on that dimension.
type TierConfig struct {
	Name            string `json:"name"`
	Provider        string `json:"provider,omitempty"`
	Model           string `json:"model,omitempty"`
	RequestsPerMin  int    `json:"requests_per_minute"`
	RequestsPerDay  int    `json:"requests_per_day"`
	TokensPerMinute *int64 `json:"tokens_per_minute,omitempty"`
	TokensPerDay    *int64 `json:"tokens_per_day,omitempty"`
}

// Load reads the JSON config at path. A missing file yields defaults so
// the gateway runs out of the box; a malformed file is an error.
func Load(path string) (*Config, error) {
	config := &Config{}

	file, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	config.applyDefaults()
	config.applyEnv()
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.Environment == "" {
		c.Server.Environment = "development"
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == "" {
		c.Redis.Port = "6379"
	}
	if c.Governor.Backend == "" {
		c.Governor.Backend = "memory"
	}
}

// Secrets come from the environment when set there.
func (c *Config) applyEnv() {
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.Session.Secret = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
}

// PolicyTable builds the tier policy table from config, falling back to
// the stock tiers when none are configured.
func (c *Config) PolicyTable() *usage.PolicyTable {
	if len(c.Tiers) == 0 {
		return usage.DefaultPolicyTable()
	}

	table := usage.NewPolicyTable()
	for _, tier := range c.Tiers {
		table.Set(
			usage.PolicyKey{Tier: tier.Name, Provider: tier.Provider, Model: tier.Model},
			usage.TierLimits{
				RequestsPerMinute: tier.RequestsPerMin,
				RequestsPerDay:    tier.RequestsPerDay,
				TokensPerMinute:   tier.TokensPerMinute,
				TokensPerDay:      tier.TokensPerDay,
			},
		)
	}
	return table
}
