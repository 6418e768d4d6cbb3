package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"salesrecon/address"
	"salesrecon/database"
	"salesrecon/reconciliation"
)

// Config конфигурация сервиса сверки
type Config struct {
	// Сервер
	Port            string        `json:"port"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`

	// База данных
	DatabasePath    string        `json:"database_path"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	FetchPageSize   int           `json:"fetch_page_size"`

	// Логирование
	LogLevel string `json:"log_level"`

	// Адреса
	RegistryTTL               time.Duration `json:"registry_ttl"`
	ReferencePath             string        `json:"reference_path"`
	SettlementThreshold       float64       `json:"settlement_threshold"`
	SettlementStrictThreshold float64       `json:"settlement_strict_threshold"`
	StreetThreshold           float64       `json:"street_threshold"`

	// Сверка
	DuplicatePolicy  string `json:"duplicate_policy"`
	ReconcileWorkers int    `json:"reconcile_workers"`

	// Ограничение частоты запросов на клиента
	RateLimitRPS   float64 `json:"rate_limit_rps"`
	RateLimitBurst int     `json:"rate_limit_burst"`

	// Максимальный размер загружаемого отчета
	MaxUploadSize int64 `json:"max_upload_size"`
}

// LoadConfig загружает конфигурацию из файла CONFIG_FILE (если задан) или из переменных окружения
func LoadConfig() (*Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		config, err := LoadConfigFile(path)
		if err == nil {
			log.Printf("Config loaded from %s", path)
			return config, nil
		}
		log.Printf("Failed to load config from %s, falling back to env: %v", path, err)
	}

	defaults := GetDefaults()
	config := &Config{
		// Сервер
		Port:            getEnv("SERVER_PORT", defaults.Port),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", defaults.ShutdownTimeout),

		// База данных
		DatabasePath:    getEnv("DATABASE_PATH", defaults.DatabasePath),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", defaults.MaxOpenConns),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", defaults.MaxIdleConns),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", defaults.ConnMaxLifetime),
		FetchPageSize:   getEnvInt("FETCH_PAGE_SIZE", defaults.FetchPageSize),

		// Логирование
		LogLevel: getEnv("LOG_LEVEL", defaults.LogLevel),

		// Адреса
		RegistryTTL:               getEnvDuration("REGISTRY_TTL", defaults.RegistryTTL),
		ReferencePath:             os.Getenv("REFERENCE_PATH"),
		SettlementThreshold:       getEnvFloat("SETTLEMENT_THRESHOLD", defaults.SettlementThreshold),
		SettlementStrictThreshold: getEnvFloat("SETTLEMENT_STRICT_THRESHOLD", defaults.SettlementStrictThreshold),
		StreetThreshold:           getEnvFloat("STREET_THRESHOLD", defaults.StreetThreshold),

		// Сверка
		DuplicatePolicy:  getEnv("DUPLICATE_POLICY", defaults.DuplicatePolicy),
		ReconcileWorkers: getEnvInt("RECONCILE_WORKERS", defaults.ReconcileWorkers),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", defaults.RateLimitRPS),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", defaults.RateLimitBurst),
		MaxUploadSize:  int64(getEnvInt("MAX_UPLOAD_SIZE", int(defaults.MaxUploadSize))),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// configJSON структура для сериализации конфигурации в JSON
type configJSON struct {
	Port                      string  `json:"port"`
	ShutdownTimeout           string  `json:"shutdown_timeout"` // time.Duration как строка
	DatabasePath              string  `json:"database_path"`
	MaxOpenConns              int     `json:"max_open_conns"`
	MaxIdleConns              int     `json:"max_idle_conns"`
	ConnMaxLifetime           string  `json:"conn_max_lifetime"` // time.Duration как строка
	FetchPageSize             int     `json:"fetch_page_size"`
	LogLevel                  string  `json:"log_level"`
	RegistryTTL               string  `json:"registry_ttl"` // time.Duration как строка
	ReferencePath             string  `json:"reference_path"`
	SettlementThreshold       float64 `json:"settlement_threshold"`
	SettlementStrictThreshold float64 `json:"settlement_strict_threshold"`
	StreetThreshold           float64 `json:"street_threshold"`
	DuplicatePolicy           string  `json:"duplicate_policy"`
	ReconcileWorkers          int     `json:"reconcile_workers"`
	RateLimitRPS              float64 `json:"rate_limit_rps"`
	RateLimitBurst            int     `json:"rate_limit_burst"`
	MaxUploadSize             int64   `json:"max_upload_size"`
}

// LoadConfigFile читает конфигурацию из JSON-файла. Незаданные поля получают значения по умолчанию.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfgJSON configJSON
	if err := json.Unmarshal(data, &cfgJSON); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config := GetDefaults()
	setString(&config.Port, cfgJSON.Port)
	setString(&config.DatabasePath, cfgJSON.DatabasePath)
	setString(&config.LogLevel, cfgJSON.LogLevel)
	setString(&config.ReferencePath, cfgJSON.ReferencePath)
	setString(&config.DuplicatePolicy, cfgJSON.DuplicatePolicy)
	setInt(&config.MaxOpenConns, cfgJSON.MaxOpenConns)
	setInt(&config.MaxIdleConns, cfgJSON.MaxIdleConns)
	setInt(&config.FetchPageSize, cfgJSON.FetchPageSize)
	setInt(&config.ReconcileWorkers, cfgJSON.ReconcileWorkers)
	setInt(&config.RateLimitBurst, cfgJSON.RateLimitBurst)
	setFloat(&config.SettlementThreshold, cfgJSON.SettlementThreshold)
	setFloat(&config.SettlementStrictThreshold, cfgJSON.SettlementStrictThreshold)
	setFloat(&config.StreetThreshold, cfgJSON.StreetThreshold)
	setFloat(&config.RateLimitRPS, cfgJSON.RateLimitRPS)
	if cfgJSON.MaxUploadSize > 0 {
		config.MaxUploadSize = cfgJSON.MaxUploadSize
	}

	durations := []struct {
		target *time.Duration
		value  string
		name   string
	}{
		{&config.ShutdownTimeout, cfgJSON.ShutdownTimeout, "shutdown_timeout"},
		{&config.ConnMaxLifetime, cfgJSON.ConnMaxLifetime, "conn_max_lifetime"},
		{&config.RegistryTTL, cfgJSON.RegistryTTL, "registry_ttl"},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.target = parsed
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// DBConfig параметры подключения к хранилищу
func (c *Config) DBConfig() database.DBConfig {
	return database.DBConfig{
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		PageSize:        c.FetchPageSize,
	}
}

// Thresholds пороги нечеткого сопоставления адресов
func (c *Config) Thresholds() address.Thresholds {
	return address.Thresholds{
		Settlement:       c.SettlementThreshold,
		SettlementStrict: c.SettlementStrictThreshold,
		Street:           c.StreetThreshold,
	}
}

// DefaultDuplicatePolicy политика объединения дублей из конфигурации; некорректное значение означает sum
func (c *Config) DefaultDuplicatePolicy() reconciliation.DuplicatePolicy {
	policy, err := reconciliation.ParseDuplicatePolicy(c.DuplicatePolicy)
	if err != nil {
		return reconciliation.DuplicateSum
	}
	return policy
}

// ReconcileOptions параметры сверки по умолчанию
func (c *Config) ReconcileOptions() []reconciliation.Option {
	return []reconciliation.Option{
		reconciliation.WithDuplicatePolicy(c.DefaultDuplicatePolicy()),
		reconciliation.WithWorkers(c.ReconcileWorkers),
	}
}

func setString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func setInt(target *int, value int) {
	if value != 0 {
		*target = value
	}
}

func setFloat(target *float64, value float64) {
	if value != 0 {
		*target = value
	}
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает переменную окружения как float64 или возвращает значение по умолчанию
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как Duration или возвращает значение по умолчанию
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
