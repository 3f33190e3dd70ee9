// Package config loads configuration from config.yaml and environment
// variables (MAILFLOW_ prefix).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Minimum floors for the cart scanner knobs. Values below these are clamped
// so a misconfigured deployment cannot hammer the scan loop.
const (
	MinCartIdleThreshold = 5 * time.Minute
	MinCartScanInterval  = 10 * time.Second
)

// Config holds all configuration for the automation engine.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Cart      CartConfig      `mapstructure:"cart"`
	Providers ProvidersConfig `mapstructure:"providers"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds PostgreSQL configuration for the durable tracking
// store. When Enabled is false the engine runs on the in-memory store.
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration for the shared daily quota counter.
// When Enabled is false the quota is a process-local counter.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EngineConfig holds scheduler and sweep configuration.
type EngineConfig struct {
	DailySendCap  int           `mapstructure:"daily_send_cap"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	RetentionDays int           `mapstructure:"retention_days"`
}

// CartConfig holds abandoned-cart scanner configuration.
type CartConfig struct {
	IdleThreshold time.Duration `mapstructure:"idle_threshold"`
	ScanInterval  time.Duration `mapstructure:"scan_interval"`
}

// ProvidersConfig holds the transactional-email provider chain. Priority
// lists provider names in failover order; a provider only joins the chain
// when its credentials are present.
type ProvidersConfig struct {
	Priority []string       `mapstructure:"priority"`
	Gmail    GmailConfig    `mapstructure:"gmail"`
	Mailgun  MailgunConfig  `mapstructure:"mailgun"`
	Postmark PostmarkConfig `mapstructure:"postmark"`
}

// GmailConfig holds Gmail API credentials.
type GmailConfig struct {
	CredentialsJSON string `mapstructure:"credentials_json"`
	SenderAddress   string `mapstructure:"sender_address"`
	SenderName      string `mapstructure:"sender_name"`
}

// MailgunConfig holds Mailgun API credentials.
type MailgunConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Domain        string `mapstructure:"domain"`
	SenderAddress string `mapstructure:"sender_address"`
	SenderName    string `mapstructure:"sender_name"`
	BaseURL       string `mapstructure:"base_url"`
}

// PostmarkConfig holds Postmark API credentials.
type PostmarkConfig struct {
	ServerToken   string `mapstructure:"server_token"`
	SenderAddress string `mapstructure:"sender_address"`
	BaseURL       string `mapstructure:"base_url"`
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/mailflow")

	setDefaults(v)

	// Config file not found is OK, we'll use defaults and env vars
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("MAILFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyFloors()
	return &cfg, nil
}

// applyFloors clamps knobs with enforced minimums.
func (c *Config) applyFloors() {
	if c.Cart.IdleThreshold < MinCartIdleThreshold {
		c.Cart.IdleThreshold = MinCartIdleThreshold
	}
	if c.Cart.ScanInterval < MinCartScanInterval {
		c.Cart.ScanInterval = MinCartScanInterval
	}
	if c.Engine.DailySendCap <= 0 {
		c.Engine.DailySendCap = 300
	}
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "mailflow")
	v.SetDefault("database.user", "mailflow")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 25)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Engine defaults
	v.SetDefault("engine.daily_send_cap", 300)
	v.SetDefault("engine.sweep_interval", 1*time.Minute)
	v.SetDefault("engine.retention_days", 30)

	// Cart defaults
	v.SetDefault("cart.idle_threshold", 30*time.Minute)
	v.SetDefault("cart.scan_interval", 60*time.Second)

	// Provider defaults
	v.SetDefault("providers.priority", []string{"postmark", "mailgun", "gmail"})
	v.SetDefault("providers.mailgun.base_url", "https://api.mailgun.net")
	v.SetDefault("providers.postmark.base_url", "https://api.postmarkapp.com")
}
