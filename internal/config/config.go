package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"villabook/internal/models"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Booking    BookingConfig    `yaml:"booking"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Google     GoogleConfig     `yaml:"google"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port      int             `yaml:"port"`
	PIN       string          `yaml:"pin"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type BookingConfig struct {
	// RequireSameClient enforces that morning and evening bookings on one
	// date belong to the same client.
	RequireSameClient bool `yaml:"require_same_client"`
	MaxBookingDays    int  `yaml:"max_booking_days"`
	SessionTTLSeconds int  `yaml:"session_ttl_seconds"`
	PinAttemptLimit   int  `yaml:"pin_attempt_limit"`
	PinAttemptWindow  int  `yaml:"pin_attempt_window_seconds"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	OwnerChatID int64  `yaml:"owner_chat_id"`
	Debug       bool   `yaml:"debug"`
}

type GoogleConfig struct {
	CredentialsFile   string `yaml:"credentials_file"`
	SpreadsheetID     string `yaml:"spreadsheet_id"`
	BookingsSheetName string `yaml:"bookings_sheet_name"`
	ExpensesSheetName string `yaml:"expenses_sheet_name"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

var pinPattern = regexp.MustCompile(`^\d{4}$`)

func Load(configPath string) (*Config, error) {
	// .env файл необязателен
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Server.PIN == "" {
		return errors.New("server pin is required")
	}
	if !pinPattern.MatchString(c.Server.PIN) {
		return errors.New("server pin must be exactly four digits")
	}
	if c.Telegram.BotToken != "" && c.Telegram.OwnerChatID == 0 {
		return errors.New("telegram owner_chat_id is required when bot_token is set")
	}
	if c.Google.CredentialsFile != "" && c.Google.SpreadsheetID == "" {
		return errors.New("google spreadsheet_id is required when credentials_file is set")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "villabook"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Booking.MaxBookingDays == 0 {
		c.Booking.MaxBookingDays = models.MaxBookingDays
	}
	if c.Booking.SessionTTLSeconds == 0 {
		c.Booking.SessionTTLSeconds = models.DefaultSessionTTL
	}
	if c.Booking.PinAttemptLimit == 0 {
		c.Booking.PinAttemptLimit = models.PinAttemptLimit
	}
	if c.Booking.PinAttemptWindow == 0 {
		c.Booking.PinAttemptWindow = models.PinAttemptWindow
	}
	if c.Google.BookingsSheetName == "" {
		c.Google.BookingsSheetName = "Bookings"
	}
	if c.Google.ExpensesSheetName == "" {
		c.Google.ExpensesSheetName = "Expenses"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
