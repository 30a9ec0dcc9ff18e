package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	Bot      BotConfig      `json:"bot"`
	Database DatabaseConfig `json:"database"`
	Internal InternalConfig `json:"internal"`
	Logging  LoggingConfig  `json:"logging"`
	MassRole MassRoleConfig `json:"massrole"`
}

type BotConfig struct {
	Token    string `json:"token"`
	ClientID string `json:"client_id"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

// InternalConfig configures the private HTTP API used by the web console
// backend to trigger bulk role jobs.
type InternalConfig struct {
	Addr   string `json:"addr"`
	Secret string `json:"secret"`
}

type LoggingConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

type MassRoleConfig struct {
	// DelayMS is the fixed pause between role grants, keeping the job under
	// the platform rate limit.
	DelayMS int `json:"delay_ms"`
	// UpdateEvery controls how often the progress message is edited.
	UpdateEvery int `json:"update_every"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		cfg = DefaultConfig()
		cfg.applyEnv()
	}
	return cfg
}

func DefaultConfig() *Config {
	cfg := &Config{
		Database: DatabaseConfig{Path: "xerl.db"},
		Internal: InternalConfig{Addr: "127.0.0.1:3002"},
		Logging:  LoggingConfig{Level: "info", File: "xerl.log"},
		MassRole: MassRoleConfig{DelayMS: 250, UpdateEvery: 10},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyEnv() {
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		c.Bot.Token = token
	}
	if clientID := os.Getenv("CLIENT_ID"); clientID != "" {
		c.Bot.ClientID = clientID
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		c.Database.Path = dbPath
	}
	if secret := os.Getenv("BOT_INTERNAL_SECRET"); secret != "" {
		c.Internal.Secret = secret
	}
	if addr := os.Getenv("BOT_INTERNAL_ADDR"); addr != "" {
		c.Internal.Addr = addr
	}
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "xerl.db"
	}
	if c.Internal.Addr == "" {
		c.Internal.Addr = "127.0.0.1:3002"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.File == "" {
		c.Logging.File = "xerl.log"
	}
	if c.MassRole.DelayMS <= 0 {
		c.MassRole.DelayMS = 250
	}
	if c.MassRole.UpdateEvery <= 0 {
		c.MassRole.UpdateEvery = 10
	}
}
