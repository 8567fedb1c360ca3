// Package config handles loading and managing application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds all configuration for the application. It is constructed once
// at startup and passed into every component that needs it; nothing reads the
// environment mid-operation.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Pesapal gateway configuration
	Pesapal PesapalConfig

	// Database connection settings
	Database DatabaseConfig

	// Donation defaults
	Donation DonationConfig

	// SMTP settings for donor receipts
	SMTP SMTPConfig

	// Admin API settings
	Admin AdminConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port    string
	GinMode string // "debug", "release", or "test"
}

// PesapalConfig holds the payment gateway credentials and endpoints.
type PesapalConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	Environment    string // "sandbox" or "live"
	IPNURL         string // public URL of the IPN endpoint
	CallbackURL    string // public URL the donor's browser returns to
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

// DSN builds the GORM connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone)
}

// DonationConfig holds deployment-wide donation defaults.
type DonationConfig struct {
	Currency string
}

// SMTPConfig holds the mail settings for donor receipts. An empty Host
// disables receipt delivery entirely.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// AdminConfig holds settings for the admin endpoints.
type AdminConfig struct {
	APIKey string
}

// Load reads configuration from environment variables.
// Returns a Config struct with all settings populated.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Pesapal: PesapalConfig{
			ConsumerKey:    getEnv("PESAPAL_CONSUMER_KEY", ""),
			ConsumerSecret: getEnv("PESAPAL_CONSUMER_SECRET", ""),
			Environment:    getEnv("PESAPAL_ENVIRONMENT", "sandbox"),
			IPNURL:         getEnv("PESAPAL_IPN_URL", ""),
			CallbackURL:    getEnv("PESAPAL_CALLBACK_URL", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnv("DATABASE_PORT", "5432"),
			User:     getEnv("DATABASE_USER", "postgres"),
			Password: getEnv("DATABASE_PASSWORD", ""),
			Name:     getEnv("DATABASE_NAME", "donations"),
			SSLMode:  getEnv("DATABASE_SSLMODE", "disable"),
			TimeZone: getEnv("DATABASE_TIMEZONE", "Africa/Nairobi"),
		},
		Donation: DonationConfig{
			Currency: getEnv("DONATION_CURRENCY", "KES"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
			FromName: getEnv("SMTP_FROM_NAME", "Donations"),
		},
		Admin: AdminConfig{
			APIKey: getEnv("ADMIN_API_KEY", ""),
		},
	}
}

// getEnv retrieves an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer with a fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
