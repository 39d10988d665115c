package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the main config struct
type Config struct {
	Environment string           `yaml:"environment" env:"ENVIRONMENT" env-default:"production" env-description:"Environment name"`
	Secret      string           `yaml:"secret" env:"SECRET" env-default:"" env-description:"Secret key for JWT token signing and validation"`
	Verbose     string           `yaml:"verbose" env:"VERBOSE" env-default:"info" env-description:"Verbose mode for debug output"`
	LogFormat   string           `yaml:"log_format" env:"LOG_FORMAT" env-default:"json" env-description:"Log output format: json or text"`
	Database    DatabaseConfig   `yaml:"database"`
	API         APIConfig        `yaml:"api"`
	Auth        AuthConfig       `yaml:"auth"`
	Moderation  ModerationConfig `yaml:"moderation"`
	Email       EmailConfig      `yaml:"email"`
	Telegram    TelegramConfig   `yaml:"telegram"`
	Proxy       ProxyConfig      `yaml:"proxy"`
	Metrics     MetricsConfig    `yaml:"metrics"`
}

// API config
type APIConfig struct {
	Host         string        `yaml:"host" env:"API_HOST" env-default:"localhost" env-description:"API host address to bind to"`
	Port         int           `yaml:"port" env:"API_PORT" env-default:"8080" env-description:"API port to bind to"`
	Timeout      time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"15s" env-description:"Request handling timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"API_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"API_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"API_IDLE_TIMEOUT" env-default:"15s"`
}

// SQLite, PostgreSQL or MySQL config
type DatabaseConfig struct {
	// Driver is the database driver to use. Supported drivers are "sqlite3", "postgres" and "mysql".
	Driver     string `yaml:"driver" env:"DATABASE_DRIVER" env-default:"sqlite3" env-description:"Database driver to use"`
	Connection string `yaml:"connection" env:"DATABASE_CONNECTION" env-default:":memory:" env-description:"Database connection string"`
}

// Auth config
type AuthConfig struct {
	TokenTTL          time.Duration `yaml:"token_ttl" env:"AUTH_TOKEN_TTL" env-default:"24h" env-description:"Lifetime of issued access tokens"`
	MaxFailedAttempts int           `yaml:"max_failed_attempts" env:"AUTH_MAX_FAILED_ATTEMPTS" env-default:"5" env-description:"Failed logins allowed per username within the lockout window, 0 disables throttling"`
	LockoutWindow     time.Duration `yaml:"lockout_window" env:"AUTH_LOCKOUT_WINDOW" env-default:"15m" env-description:"Window for counting failed logins"`
}

// Moderation config
type ModerationConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval" env:"MODERATION_SWEEP_INTERVAL" env-default:"0s" env-description:"Interval of the expired ban sweep, 0 disables the in-process sweeper"`
	BanListLimit  int           `yaml:"banlist_limit" env:"MODERATION_BANLIST_LIMIT" env-default:"50" env-description:"Maximum number of records printed by banlist"`
}

// Email config, the Resend API is used for delivery
type EmailConfig struct {
	APIKey  string `yaml:"api_key" env:"EMAIL_API_KEY" env-default:"" env-description:"Resend API key, empty disables outgoing mail"`
	From    string `yaml:"from" env:"EMAIL_FROM" env-default:"noreply@localhost" env-description:"Sender address for replies"`
	Support string `yaml:"support" env:"EMAIL_SUPPORT" env-default:"" env-description:"Address receiving a copy of every staff reply, empty disables"`
}

// Telegram config, used for staff notifications only
type TelegramConfig struct {
	Token    string        `yaml:"token" env:"TELEGRAM_TOKEN" env-default:"" env-description:"Telegram bot token, empty disables notifications"`
	APIURL   string        `yaml:"api_url" env:"TELEGRAM_API_URL" env-default:"" env-description:"Bot API server, the public one when empty"`
	Admins   []int64       `yaml:"admins" env:"TELEGRAM_ADMINS" env-description:"Chat IDs receiving moderation notifications"`
	Commands bool          `yaml:"commands" env:"TELEGRAM_COMMANDS" env-default:"false" env-description:"Accept console commands from the admin chats"`
	Timeout  time.Duration `yaml:"timeout" env:"TELEGRAM_TIMEOUT" env-default:"10s" env-description:"Telegram API request timeout"`
}

// Proxy config
type ProxyConfig struct {
	Address  string `yaml:"address" env:"PROXY_ADDRESS" env-default:"" env-description:"SOCKS5 proxy address"`
	Port     int    `yaml:"port" env:"PROXY_PORT" env-default:"0" env-description:"SOCKS5 proxy port"`
	Username string `yaml:"username" env:"PROXY_USERNAME" env-default:"" env-description:"SOCKS5 proxy username"`
	Password string `yaml:"password" env:"PROXY_PASSWORD" env-default:"" env-description:"SOCKS5 proxy password"`
}

// InfluxDB metrics config
type MetricsConfig struct {
	URL    string `yaml:"url" env:"METRICS_URL" env-default:"" env-description:"InfluxDB URL, empty disables metrics"`
	Token  string `yaml:"token" env:"METRICS_TOKEN" env-default:"" env-description:"InfluxDB token"`
	Org    string `yaml:"org" env:"METRICS_ORG" env-default:"" env-description:"InfluxDB organization"`
	Bucket string `yaml:"bucket" env:"METRICS_BUCKET" env-default:"" env-description:"InfluxDB bucket"`
}

// ConfigError - config loading error
type ConfigError struct {
	Message string
}

// Error - implementation of the error interface
func (e *ConfigError) Error() string {
	return e.Message
}

// MustLoadConfig - read the config file from CONFIG_PATH (config.yml by default)
// and overlay environment variables. Without a config file only the environment is used.
func MustLoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yml"
	}

	var config Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if os.Getenv("CONFIG_PATH") != "" {
			return nil, &ConfigError{
				Message: fmt.Sprintf("Config file does not exist: %s", configPath),
			}
		}

		if err := cleanenv.ReadEnv(&config); err != nil {
			return nil, &ConfigError{
				Message: fmt.Sprintf("Cannot read environment: %s", err),
			}
		}

		return &config, nil
	}

	if err := cleanenv.ReadConfig(configPath, &config); err != nil {
		return nil, &ConfigError{
			Message: fmt.Sprintf("Cannot read config file: %s", err),
		}
	}

	return &config, nil
}
