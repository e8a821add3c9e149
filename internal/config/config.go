package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type AuthServiceConfig struct {
	Port          string
	LogDir        string
	StorageDriver string
	AutoMigrate   bool
	PostgresCfg   PostgresConfig
	RedisCfg      RedisConfig
	RabbitMQCfg   RabbitMQConfig
	AuthCfg       AuthConfig
	CookieCfg     CookieConfig
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
	SSLMode  string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	GrantTTL time.Duration
}

type RabbitMQConfig struct {
	Enabled  bool
	Host     string
	Username string
	Password string
	Port     string
}

type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	AdminUsername string
	AdminPWD      string
}

type CookieConfig struct {
	Secure bool
	Domain string
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

func New() *AuthServiceConfig {
	return &AuthServiceConfig{
		Port:          getEnvOrDefault("PORT", "8080"),
		LogDir:        getEnvOrDefault("LOG_DIR", "/htech/log/admin_service"),
		StorageDriver: getEnvOrDefault("STORAGE_DRIVER", StorageDriverPostgres),
		AutoMigrate:   getBoolOrDefault("AUTO_MIGRATE", true),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("DB_NAME", "admin_service"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PWD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
			SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		},
		RedisCfg: RedisConfig{
			Enabled:  getBoolOrDefault("REDIS_ENABLED", false),
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			GrantTTL: getDurationOrDefault("REDIS_GRANT_TTL", 5*time.Minute),
		},
		RabbitMQCfg: RabbitMQConfig{
			Enabled:  getBoolOrDefault("RABBITMQ_ENABLED", false),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Username: getEnvOrDefault("RABBITMQ_USER", "guest"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "guest"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		AuthCfg: AuthConfig{
			AccessSecret:  os.Getenv("JWT_ACCESS_SECRET"),
			RefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
			AccessTTL:     getDurationOrDefault("JWT_ACCESS_TTL", 15*time.Minute),
			RefreshTTL:    getDurationOrDefault("JWT_REFRESH_TTL", 7*24*time.Hour),
			Issuer:        getEnvOrDefault("JWT_ISSUER", "htech-admin"),
			AdminUsername: getEnvOrDefault("ADMIN_USERNAME", "admin"),
			AdminPWD:      os.Getenv("ADMIN_PWD"),
		},
		CookieCfg: CookieConfig{
			Secure: getBoolOrDefault("COOKIE_SECURE", true),
			Domain: getEnvOrDefault("COOKIE_DOMAIN", ""),
		},
	}
}

// Validate reports configuration that would make the service unsafe to start.
func (c *AuthServiceConfig) Validate() error {
	if strings.TrimSpace(c.AuthCfg.AccessSecret) == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if strings.TrimSpace(c.AuthCfg.RefreshSecret) == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}
	if c.AuthCfg.AccessSecret == c.AuthCfg.RefreshSecret {
		return fmt.Errorf("access and refresh secrets must differ")
	}
	if c.AuthCfg.AccessTTL <= 0 || c.AuthCfg.RefreshTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.AuthCfg.AccessTTL >= c.AuthCfg.RefreshTTL {
		return fmt.Errorf("access TTL (%s) must be shorter than refresh TTL (%s)", c.AuthCfg.AccessTTL, c.AuthCfg.RefreshTTL)
	}
	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	return nil
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.Username, p.Password, p.DBname, p.SSLMode)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("invalid boolean for %s=%q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid integer for %s=%q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid duration for %s=%q, using default %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
