package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Mongo      MongoConfig      `yaml:"mongo"`
	Redis      RedisConfig      `yaml:"redis"`
	Generation GenerationConfig `yaml:"generation"`
	Log        LogConfig        `yaml:"log"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
}

type ServerConfig struct {
	Port           string  `yaml:"port"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DBName          string        `yaml:"dbname"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	DB      int           `yaml:"db"`
	LockTTL time.Duration `yaml:"lock_ttl"`
}

// GenerationConfig controla o disparo externo (cron) e a execução dos lotes.
type GenerationConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Schedule         string        `yaml:"schedule"`
	IncludeOverdue   bool          `yaml:"include_overdue"`
	Workers          int           `yaml:"workers"`
	Timezone         string        `yaml:"timezone"`
	BreakerFailures  uint32        `yaml:"breaker_failures"`
	BreakerOpenDelay time.Duration `yaml:"breaker_open_delay"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "recurra"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			RateLimitRPS:   getEnvFloat("SERVER_RATE_LIMIT_RPS", 10),
			RateLimitBurst: getEnvInt("SERVER_RATE_LIMIT_BURST", 20),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			DBName:          getEnv("DB_NAME", "recurra"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			QueryTimeout:    getEnvDuration("DB_QUERY_TIMEOUT", 10*time.Second),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DB", "recurra"),
		},
		Redis: RedisConfig{
			Enabled: getEnvBool("REDIS_ENABLED", false),
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
			DB:      getEnvInt("REDIS_DB", 0),
			LockTTL: getEnvDuration("REDIS_LOCK_TTL", 30*time.Second),
		},
		Generation: GenerationConfig{
			Enabled:          getEnvBool("GENERATION_ENABLED", true),
			Schedule:         getEnv("GENERATION_SCHEDULE", "0 6 * * *"),
			IncludeOverdue:   getEnvBool("GENERATION_INCLUDE_OVERDUE", true),
			Workers:          getEnvInt("GENERATION_WORKERS", 4),
			Timezone:         getEnv("GENERATION_TIMEZONE", "UTC"),
			BreakerFailures:  uint32(getEnvInt("GENERATION_BREAKER_FAILURES", 5)),
			BreakerOpenDelay: getEnvDuration("GENERATION_BREAKER_OPEN_DELAY", 30*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	cfg.Database.DSN = getEnv("DATABASE_URL", fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		cfg.Database.DBName,
		getEnv("DB_SSLMODE", "disable"),
	))

	if path := os.Getenv("RECURRA_CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// overlayFile sobrescreve apenas os campos presentes no YAML.
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	return nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("database driver %q is not supported", c.Database.Driver)
	}

	if c.Generation.Workers < 1 {
		return fmt.Errorf("generation workers must be positive, got %d", c.Generation.Workers)
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid generation timezone %q: %w", c.Generation.Timezone, err)
	}

	if c.Redis.Enabled && c.Redis.LockTTL <= 0 {
		return fmt.Errorf("redis lock ttl must be positive")
	}

	return nil
}

// Location devolve o fuso usado para decidir qual é o dia "hoje".
func (c *Config) Location() (*time.Location, error) {
	if c.Generation.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Generation.Timezone)
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
