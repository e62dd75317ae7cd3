package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"printcalc/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App         AppConfig        `yaml:"app"`
	Telegram    TelegramConfig   `yaml:"telegram"`
	Database    DatabaseConfig   `yaml:"database"`
	Redis       RedisConfig      `yaml:"redis"`
	Backup      BackupConfig     `yaml:"backup"`
	Monitoring  MonitoringConfig `yaml:"monitoring"`
	Logging     LoggingConfig    `yaml:"logging"`
	API         APIConfig        `yaml:"api"`
	Access      AccessConfig     `yaml:"access"`
	Exports     ExportConfig     `yaml:"exports"`
	Bot         BotConfig        `yaml:"bot"`
	CatalogPath string           `yaml:"catalog_path"`
}

type BotConfig struct {
	MaxQuantity       int  `yaml:"max_quantity"`
	RateLimitMessages int  `yaml:"rate_limit_messages"`
	RateLimitWindow   int  `yaml:"rate_limit_window"`
	NotifyOperators   bool `yaml:"notify_operators"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// AccessConfig lists operators allowed to run /order and /export.
type AccessConfig struct {
	AllowedUserIDs []int64 `yaml:"allowed_user_ids"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	Timezone    string `yaml:"timezone"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
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

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; variables may come from the environment directly
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.Access.AllowedUserIDs = append(config.Access.AllowedUserIDs, ParseUserIDs(os.Getenv("ALLOWED_USER_IDS"))...)
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// ParseUserIDs parses a comma separated list like "123, 456". Entries that are
// not plain digits are skipped.
func ParseUserIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.TrimLeft(part, "0123456789") != "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Bot.MaxQuantity < 0 {
		return fmt.Errorf("bot.max_quantity must not be negative, got %d", c.Bot.MaxQuantity)
	}

	if c.Backup.Enabled && c.Backup.StoragePath == "" {
		return errors.New("backup.storage_path is required when backup is enabled")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "printcalc"
	}
	if c.App.Timezone == "" {
		c.App.Timezone = "UTC"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.RateLimit.RPS <= 0 {
		c.API.RateLimit.RPS = 5
	}
	if c.API.RateLimit.Burst <= 0 {
		c.API.RateLimit.Burst = 10
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.CatalogPath == "" {
		c.CatalogPath = "configs/catalog.yaml"
	}

	// Bot defaults
	if c.Bot.MaxQuantity == 0 {
		c.Bot.MaxQuantity = models.DefaultMaxQuantity
	}
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = models.RateLimitMessages
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = models.RateLimitWindow
	}
}

// LoadCatalog reads the reference data file that seeds the store.
func LoadCatalog(path string) (*models.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var catalog models.Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	if err := ValidateCatalog(&catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// ValidateCatalog rejects duplicate codes and inverted bands. Non-positive
// multipliers are left alone: the pricing engine reports them per request.
func ValidateCatalog(catalog *models.Catalog) error {
	productCodes := make(map[string]bool)
	for _, p := range catalog.Products {
		if p.Code == "" {
			return fmt.Errorf("product '%s' has empty code", p.Name)
		}
		if productCodes[p.Code] {
			return fmt.Errorf("duplicate product code found: %s", p.Code)
		}
		productCodes[p.Code] = true

		for _, r := range p.PriceRanges {
			if r.RangeFrom > r.RangeTo {
				return fmt.Errorf("product %s: range %d-%d is inverted", p.Code, r.RangeFrom, r.RangeTo)
			}
		}
	}

	materialCodes := make(map[string]bool)
	for _, m := range catalog.Materials {
		if m.Code == "" {
			return fmt.Errorf("material '%s' has empty code", m.Name)
		}
		if materialCodes[m.Code] {
			return fmt.Errorf("duplicate material code found: %s", m.Code)
		}
		materialCodes[m.Code] = true
	}

	modifierCodes := make(map[string]bool)
	for _, m := range catalog.Modifiers {
		if m.Code == "" {
			return fmt.Errorf("modifier '%s' has empty code", m.Name)
		}
		if modifierCodes[m.Code] {
			return fmt.Errorf("duplicate modifier code found: %s", m.Code)
		}
		modifierCodes[m.Code] = true
	}
	return nil
}
