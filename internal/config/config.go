package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Scraper    ScraperConfig    `mapstructure:"scraper"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// ScraperConfig holds source connector configuration
type ScraperConfig struct {
	URL            string        `mapstructure:"url"`
	ReliefWebURL   string        `mapstructure:"reliefweb_url"`
	ReliefWebLimit int           `mapstructure:"reliefweb_limit"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
}

// ClassifierConfig holds LLM classifier configuration
type ClassifierConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Criterion      string        `mapstructure:"criterion"`
}

// TelegramConfig holds notifier channel configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	APIBase        string        `mapstructure:"api_base"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	IntervalMinutes int `mapstructure:"interval_minutes"`
}

// DefaultCriterion is the qualification criterion used when none is
// configured.
const DefaultCriterion = `Find tenders related to Technology services.

TECH FOCUS:
- Software development/implementation
- Enterprise systems (ERP, CRM)
- AI solutions
- Digital transformation services
- Management systems

Exclusion Criteria:
- Non-tech related services
- Hardware-only procurement
- Basic IT support
- Below minimum budget threshold`

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	setDefaults()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	viper.AutomaticEnv()

	// Bind environment variables
	bindEnvVars()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)

	viper.SetDefault("scraper.url", "https://www.globaltenders.com/free-global-tenders/")
	viper.SetDefault("scraper.reliefweb_url", "https://api.reliefweb.int/v1/jobs")
	viper.SetDefault("scraper.reliefweb_limit", 20)
	viper.SetDefault("scraper.request_timeout", "60s")
	viper.SetDefault("scraper.max_retries", 3)
	viper.SetDefault("scraper.requests_per_sec", 1.0)

	viper.SetDefault("classifier.model", "gpt-4o")
	viper.SetDefault("classifier.base_url", "https://api.openai.com/v1")
	viper.SetDefault("classifier.request_timeout", "120s")
	viper.SetDefault("classifier.criterion", DefaultCriterion)

	viper.SetDefault("telegram.api_base", "https://api.telegram.org")
	viper.SetDefault("telegram.request_timeout", "30s")
	viper.SetDefault("telegram.max_retries", 3)

	viper.SetDefault("scheduler.interval_minutes", 60)
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	// Database
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")

	// Scraper
	viper.BindEnv("scraper.url", "SCRAPER_URL")
	viper.BindEnv("scraper.reliefweb_url", "SCRAPER_RELIEFWEB_URL")
	viper.BindEnv("scraper.reliefweb_limit", "SCRAPER_RELIEFWEB_LIMIT")
	viper.BindEnv("scraper.request_timeout", "SCRAPER_REQUEST_TIMEOUT")
	viper.BindEnv("scraper.max_retries", "SCRAPER_MAX_RETRIES")
	viper.BindEnv("scraper.requests_per_sec", "SCRAPER_REQUESTS_PER_SEC")

	// Classifier
	viper.BindEnv("classifier.api_key", "OPENAI_API_KEY")
	viper.BindEnv("classifier.model", "CLASSIFIER_MODEL")
	viper.BindEnv("classifier.base_url", "CLASSIFIER_BASE_URL")
	viper.BindEnv("classifier.request_timeout", "CLASSIFIER_REQUEST_TIMEOUT")
	viper.BindEnv("classifier.criterion", "CLASSIFIER_CRITERION")

	// Telegram
	viper.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	viper.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID")
	viper.BindEnv("telegram.api_base", "TELEGRAM_API_BASE")
	viper.BindEnv("telegram.request_timeout", "TELEGRAM_REQUEST_TIMEOUT")
	viper.BindEnv("telegram.max_retries", "TELEGRAM_MAX_RETRIES")

	// Scheduler
	viper.BindEnv("scheduler.interval_minutes", "SCHEDULER_INTERVAL_MINUTES")
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Validate validates the configuration. Missing notifier or classifier
// credentials are fatal: a run must not begin without them.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host, user, and dbname are required")
	}

	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("TELEGRAM_CHAT_ID is required")
	}

	if c.Classifier.APIKey == "" {
		return fmt.Errorf("classifier API key is required")
	}
	if c.Classifier.Model == "" {
		return fmt.Errorf("classifier model is required")
	}

	if c.Scraper.URL == "" {
		return fmt.Errorf("scraper URL is required")
	}

	if c.Scheduler.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler interval must be greater than 0")
	}

	return nil
}
