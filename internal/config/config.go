package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	Log       LogConfig       `yaml:"log"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Profit    ProfitConfig    `yaml:"profit"`
	Funding   FundingConfig   `yaml:"funding"`
	Review    ReviewConfig    `yaml:"review"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// SendGridConfig contains outbound notification settings. An empty APIKey
// disables delivery.
type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// PricingConfig contains pricing engine parameters. Rates are annualized
// fractions, e.g. "0.08" for 8%.
type PricingConfig struct {
	ReferenceRate    string `yaml:"reference_rate"`
	VIPAdjustment    string `yaml:"vip_adjustment"`
	AdminFeeFlat     string `yaml:"admin_fee_flat"`
	AdminFeePct      string `yaml:"admin_fee_pct"`
	OfferExpiryHours int    `yaml:"offer_expiry_hours"`
}

// ProfitConfig selects the deal profit formula: "net_minus_charges" or
// "margin_based".
type ProfitConfig struct {
	Formula string `yaml:"formula"`
}

// FundingConfig contains batch creation settings
type FundingConfig struct {
	BatchSizeLimit int `yaml:"batch_size_limit"`
}

// ReviewConfig contains review queue settings
type ReviewConfig struct {
	ExclusiveClaims bool `yaml:"exclusive_claims"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ExpireOffers         string `yaml:"expire_offers"`
	MarkOverdueRepayments string `yaml:"mark_overdue_repayments"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// SendGrid
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("SENDGRID_FROM_EMAIL"); val != "" {
		c.SendGrid.FromEmail = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Pricing
	if val := os.Getenv("PRICING_REFERENCE_RATE"); val != "" {
		c.Pricing.ReferenceRate = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry <= 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	// Pricing validation and defaults
	if c.Pricing.ReferenceRate == "" {
		return fmt.Errorf("pricing reference rate is required")
	}
	for name, val := range map[string]string{
		"reference_rate": c.Pricing.ReferenceRate,
		"vip_adjustment": c.Pricing.VIPAdjustment,
		"admin_fee_flat": c.Pricing.AdminFeeFlat,
		"admin_fee_pct":  c.Pricing.AdminFeePct,
	} {
		if val == "" {
			continue
		}
		if _, err := decimal.NewFromString(val); err != nil {
			return fmt.Errorf("invalid pricing %s: %q", name, val)
		}
	}
	if c.Pricing.OfferExpiryHours <= 0 {
		c.Pricing.OfferExpiryHours = 72
	}

	// Profit defaults
	if c.Profit.Formula == "" {
		c.Profit.Formula = "net_minus_charges"
	}
	if c.Profit.Formula != "net_minus_charges" && c.Profit.Formula != "margin_based" {
		return fmt.Errorf("unknown profit formula: %q", c.Profit.Formula)
	}

	// Funding defaults
	if c.Funding.BatchSizeLimit <= 0 {
		c.Funding.BatchSizeLimit = 100
	}

	// Scheduler defaults
	if c.Scheduler.ExpireOffers == "" {
		c.Scheduler.ExpireOffers = "0 */15 * * * *" // every 15 minutes
	}
	if c.Scheduler.MarkOverdueRepayments == "" {
		c.Scheduler.MarkOverdueRepayments = "0 0 2 * * *" // 2 AM UTC
	}

	return nil
}

// PricingDecimal parses one of the pricing rate fields, defaulting to zero
// when unset. Validate has already checked the format.
func PricingDecimal(val string) decimal.Decimal {
	if val == "" {
		return decimal.Zero
	}
	d, _ := decimal.NewFromString(val)
	return d
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
