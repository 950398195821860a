package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreDriverPostgres  = "postgres"
	StoreDriverFirestore = "firestore"
)

// Config holds all configuration for the application.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Firestore FirestoreConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Maps      MapsConfig
	NewRelic  NewRelicConfig
}

// AppConfig holds process-wide settings.
type AppConfig struct {
	Env      string // "local" switches to the development logger
	LogLevel string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int // 0 disables rate limiting
	CORSOrigins     []string
}

// StoreConfig selects the backing document store.
type StoreConfig struct {
	Driver string // postgres or firestore
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrateOnStart bool
	MaxOpenConns   int
	MaxIdleConns   int
	ConnMaxLife    time.Duration
}

// FirestoreConfig holds Firestore configuration.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string // Empty uses application default credentials
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int // 0 keeps the client default
	DialTimeout time.Duration
}

// KafkaConfig holds the event stream configuration.
type KafkaConfig struct {
	Brokers []string // Empty disables publishing
	Topic   string
}

// MapsConfig holds the geocoding provider configuration.
type MapsConfig struct {
	APIKey string // Empty disables geocoding
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		App: AppConfig{
			Env:      getEnv("APP_ENV", "production"),
			LogLevel: getEnv("LOG_LEVEL", ""),
		},
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
			RateLimitRPS:    getIntEnv("RATE_LIMIT_RPS", 20),
			CORSOrigins:     getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "dispatch"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MigrateOnStart: getBoolEnv("DB_MIGRATE_ON_START", true),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLife:    getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Firestore: FirestoreConfig{
			ProjectID:       getEnv("FIRESTORE_PROJECT_ID", ""),
			CredentialsFile: getEnv("FIRESTORE_CREDENTIALS_FILE", ""),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", "localhost:6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getIntEnv("REDIS_DB", 0),
			PoolSize:    getIntEnv("REDIS_POOL_SIZE", 0),
			DialTimeout: getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: getListEnv("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "dispatch.events"),
		},
		Maps: MapsConfig{
			APIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "dispatch-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
	}
}

// Validate reports configuration that cannot start the service.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres:
	case StoreDriverFirestore:
		if c.Firestore.ProjectID == "" && c.Firestore.CredentialsFile == "" {
			return fmt.Errorf("firestore store requires FIRESTORE_PROJECT_ID or FIRESTORE_CREDENTIALS_FILE")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated value, dropping empty items.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
