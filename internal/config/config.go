// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Database DatabaseConfig `mapstructure:"database"`
	AI       AIConfig       `mapstructure:"ai"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Referral ReferralConfig `mapstructure:"referral"`
}

// BotConfig holds Telegram bot configuration.
// Username is the bot's public handle, used to build referral links.
type BotConfig struct {
	Token    string `mapstructure:"token"`
	Username string `mapstructure:"username"`
}

// AdminConfig holds the administrator chat configuration.
// Every new pending request is forwarded to ChatID for a decision.
type AdminConfig struct {
	ChatID int64 `mapstructure:"chat_id"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AIConfig holds the completion service configuration.
type AIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// HTTPConfig holds the health endpoint listener configuration.
type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

// ReferralConfig holds the referral bonus configuration.
type ReferralConfig struct {
	Bonus int64 `mapstructure:"bonus"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, ADMIN_CHAT_ID, AI_API_KEY, DATABASE_HOST
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "utilitybot")
	v.SetDefault("database.name", "utilitybot")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Completion service defaults
	v.SetDefault("ai.base_url", "https://api.openrouter.ai/v1")
	v.SetDefault("ai.model", "gpt-3.5-turbo")
	v.SetDefault("ai.timeout", "30s")

	// Health endpoint default
	v.SetDefault("http.port", 3000)

	// Referral bonus default
	v.SetDefault("referral.bonus", 100)
}

// IsAdmin checks if a user ID is the configured administrator chat.
func (c *Config) IsAdmin(userID int64) bool {
	return c.Admin.ChatID != 0 && userID == c.Admin.ChatID
}
