package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Addr              string
	DatabaseURL       string
	JWTSecret         string
	DataEncryptionKey string
	Environment       string
	RunMigrations     bool
	RunSeed           bool
	MigrationsDir     string
	MaxBodyBytes      int64
	ShutdownTimeout   time.Duration
	LogLevel          string
	LogFormat         string
	PayrollWorkers    int
	TaxTableFile      string
	SSFRate           decimal.Decimal
	SSFFloor          decimal.Decimal
	SSFCap            decimal.Decimal
	StandardDeduction decimal.Decimal
	PersonalAllowance decimal.Decimal
}

// Load reads the process environment, after merging a local .env file when
// one exists.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Addr:              getEnv("APP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		DataEncryptionKey: getEnv("DATA_ENCRYPTION_KEY", ""),
		Environment:       getEnv("APP_ENV", "development"),
		RunMigrations:     getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:           getEnvBool("RUN_SEED", true),
		MigrationsDir:     getEnv("MIGRATIONS_DIR", "migrations"),
		MaxBodyBytes:      int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		ShutdownTimeout:   getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		PayrollWorkers:    getEnvInt("PAYROLL_WORKERS", 8),
		TaxTableFile:      getEnv("TAX_TABLE_FILE", ""),
		SSFRate:           getEnvDecimal("SSF_RATE", "0.05"),
		SSFFloor:          getEnvDecimal("SSF_FLOOR", "1650"),
		SSFCap:            getEnvDecimal("SSF_CAP", "15000"),
		StandardDeduction: getEnvDecimal("STANDARD_DEDUCTION", "100000"),
		PersonalAllowance: getEnvDecimal("PERSONAL_ALLOWANCE", "60000"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDecimal(key, fallback string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if parsed, err := decimal.NewFromString(value); err == nil {
			return parsed
		}
	}
	return decimal.RequireFromString(fallback)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.PayrollWorkers <= 0 {
		return fmt.Errorf("PAYROLL_WORKERS must be positive")
	}
	if c.SSFRate.IsNegative() || c.SSFRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("SSF_RATE must be a fraction between 0 and 1")
	}
	if c.SSFFloor.GreaterThan(c.SSFCap) {
		return fmt.Errorf("SSF_FLOOR must not exceed SSF_CAP")
	}
	if c.StandardDeduction.IsNegative() || c.PersonalAllowance.IsNegative() {
		return fmt.Errorf("STANDARD_DEDUCTION and PERSONAL_ALLOWANCE must not be negative")
	}
	return nil
}
