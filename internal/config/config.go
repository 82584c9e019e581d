package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Disclosures DisclosuresConfig
	Market      MarketConfig
	Ingest      IngestConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the quote cache configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	QuoteTTL time.Duration
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers      []string
	TradesTopic  string
	FilingsTopic string
	GroupID      string
}

// DisclosuresConfig holds the clerk disclosure site configuration
type DisclosuresConfig struct {
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// MarketConfig holds the market data provider configuration
type MarketConfig struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// IngestConfig holds pipeline tuning knobs
type IngestConfig struct {
	StartYear       int
	DocumentBatch   int
	BatchPause      time.Duration
	InsertBatch     int
	EligibilityDays int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "congresstrades"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			QuoteTTL: getEnvDuration("REDIS_QUOTE_TTL", 30*24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:      []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			TradesTopic:  getEnv("KAFKA_TRADES_TOPIC", "congress-trades"),
			FilingsTopic: getEnv("KAFKA_FILINGS_TOPIC", "filing-requests"),
			GroupID:      getEnv("KAFKA_GROUP_ID", "congress-trades-service"),
		},
		Disclosures: DisclosuresConfig{
			BaseURL:           getEnv("DISCLOSURES_BASE_URL", "https://disclosures-clerk.house.gov/public_disc"),
			RequestsPerSecond: getEnvFloat("DISCLOSURES_RPS", 2),
			Timeout:           getEnvDuration("DISCLOSURES_TIMEOUT", 30*time.Second),
		},
		Market: MarketConfig{
			BaseURL:           getEnv("MARKET_BASE_URL", "https://eodhd.com"),
			APIKey:            getEnv("MARKET_API_KEY", "demo"),
			RequestsPerSecond: getEnvFloat("MARKET_RPS", 5),
			Timeout:           getEnvDuration("MARKET_TIMEOUT", 15*time.Second),
		},
		Ingest: IngestConfig{
			StartYear:       getEnvInt("INGEST_START_YEAR", 2014),
			DocumentBatch:   getEnvInt("INGEST_DOCUMENT_BATCH", 10),
			BatchPause:      getEnvDuration("INGEST_BATCH_PAUSE", time.Second),
			InsertBatch:     getEnvInt("INGEST_INSERT_BATCH", 500),
			EligibilityDays: getEnvInt("INGEST_ELIGIBILITY_DAYS", 200),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
