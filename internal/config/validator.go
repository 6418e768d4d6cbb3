package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"salesrecon/address"
	"salesrecon/database"
	"salesrecon/reconciliation"
)

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	var errors []string

	// Валидация порта
	if c.Port == "" {
		errors = append(errors, "port is required")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid port: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("port must be between 1 and 65535, got %d", port))
		}
	}

	if c.DatabasePath == "" {
		errors = append(errors, "database path is required")
	}

	// Валидация connection pooling
	if c.MaxOpenConns < 1 {
		errors = append(errors, "max open connections must be at least 1")
	}
	if c.MaxIdleConns < 1 {
		errors = append(errors, "max idle connections must be at least 1")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		errors = append(errors, "max idle connections cannot be greater than max open connections")
	}
	if c.ConnMaxLifetime < time.Second {
		errors = append(errors, "connection max lifetime must be at least 1 second")
	}
	if c.FetchPageSize < 1 {
		errors = append(errors, "fetch page size must be at least 1")
	}

	// Валидация уровня логирования
	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	if c.LogLevel != "" {
		valid := false
		logLevelUpper := strings.ToUpper(c.LogLevel)
		for _, level := range validLogLevels {
			if logLevelUpper == level {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, fmt.Sprintf("invalid log level: %s (valid: %s)",
				c.LogLevel, strings.Join(validLogLevels, ", ")))
		}
	}

	if c.RegistryTTL < time.Second {
		errors = append(errors, "registry TTL must be at least 1 second")
	}

	thresholds := []struct {
		name  string
		value float64
	}{
		{"settlement threshold", c.SettlementThreshold},
		{"settlement strict threshold", c.SettlementStrictThreshold},
		{"street threshold", c.StreetThreshold},
	}
	for _, threshold := range thresholds {
		if threshold.value <= 0 || threshold.value > 100 {
			errors = append(errors, fmt.Sprintf("%s must be in (0, 100], got %v", threshold.name, threshold.value))
		}
	}

	if _, err := reconciliation.ParseDuplicatePolicy(c.DuplicatePolicy); err != nil {
		errors = append(errors, err.Error())
	}
	if c.ReconcileWorkers < 1 {
		errors = append(errors, "reconcile workers must be at least 1")
	}

	if c.RateLimitRPS < 0 {
		errors = append(errors, "rate limit rps cannot be negative")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errors = append(errors, "rate limit burst must be at least 1")
	}
	if c.MaxUploadSize < 1 {
		errors = append(errors, "max upload size must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// GetDefaults возвращает конфигурацию со значениями по умолчанию
func GetDefaults() *Config {
	return &Config{
		Port:                      "9999",
		ShutdownTimeout:           10 * time.Second,
		DatabasePath:              "sales.db",
		MaxOpenConns:              10,
		MaxIdleConns:              3,
		ConnMaxLifetime:           5 * time.Minute,
		FetchPageSize:             database.DefaultPageSize,
		LogLevel:                  "INFO",
		RegistryTTL:               address.DefaultRegistryTTL,
		SettlementThreshold:       address.DefaultSettlementThreshold,
		SettlementStrictThreshold: address.DefaultSettlementStrictThreshold,
		StreetThreshold:           address.DefaultStreetThreshold,
		DuplicatePolicy:           string(reconciliation.DuplicateSum),
		ReconcileWorkers:          4,
		RateLimitRPS:              20,
		RateLimitBurst:            40,
		MaxUploadSize:             32 << 20,
	}
}
