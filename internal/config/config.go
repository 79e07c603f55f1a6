package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"smartval/internal/model"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Redis      RedisConfig
	Server     ServerConfig
	Geocoder   GeocoderConfig
	Model      ModelConfig
	Valuation  ValuationConfig
	Import     ImportConfig
	Logging    LoggingConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, takes precedence
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// RedisConfig holds the task-store Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TaskTTL  time.Duration
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// GeocoderConfig holds the Nominatim client configuration
type GeocoderConfig struct {
	BaseURL   string
	UserAgent string
	Country   string
	Timeout   time.Duration
}

// ModelConfig points at the trained valuation model artifact
type ModelConfig struct {
	Path string
}

// ValuationConfig holds the comparable-search tolerances and worker sizing.
// The bands were tuned empirically against the transaction table, so they are
// environment-tunable rather than hard-coded.
type ValuationConfig struct {
	AgeBand          float64
	TotalFloorsBand  int
	FloorNumberBand  int
	FloorAreaBand    float64
	LandAreaBand     float64
	RelaxedAgeBand   float64
	MinStrictMatches int
	NearbyLimit      int
	Workers          int
	QueueSize        int
}

// ImportConfig holds Excel import settings
type ImportConfig struct {
	BatchSize    int
	MaxFileBytes int64
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "smartval"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TaskTTL:  time.Duration(getEnvAsInt("TASK_TTL_SECONDS", 3600)) * time.Second,
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Geocoder: GeocoderConfig{
			BaseURL:   getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getEnv("GEOCODER_USER_AGENT", "smartval_app"),
			Country:   getEnv("GEOCODER_COUNTRY", "Taiwan"),
			Timeout:   time.Duration(getEnvAsInt("GEOCODER_TIMEOUT_SECONDS", 3)) * time.Second,
		},
		Model: ModelConfig{
			Path: getEnv("MODEL_PATH", "ml_models/smartval_model.json"),
		},
		Valuation: ValuationConfig{
			AgeBand:          getEnvAsFloat("VAL_AGE_BAND", 5),
			TotalFloorsBand:  getEnvAsInt("VAL_TOTAL_FLOORS_BAND", 5),
			FloorNumberBand:  getEnvAsInt("VAL_FLOOR_NUMBER_BAND", 5),
			FloorAreaBand:    getEnvAsFloat("VAL_FLOOR_AREA_BAND", 10),
			LandAreaBand:     getEnvAsFloat("VAL_LAND_AREA_BAND", 5),
			RelaxedAgeBand:   getEnvAsFloat("VAL_RELAXED_AGE_BAND", 10),
			MinStrictMatches: getEnvAsInt("VAL_MIN_STRICT_MATCHES", 5),
			NearbyLimit:      getEnvAsInt("VAL_NEARBY_LIMIT", 10),
			Workers:          getEnvAsInt("VAL_WORKERS", 4),
			QueueSize:        getEnvAsInt("VAL_QUEUE_SIZE", 64),
		},
		Import: ImportConfig{
			BatchSize:    getEnvAsInt("IMPORT_BATCH_SIZE", 1000),
			MaxFileBytes: int64(getEnvAsInt("IMPORT_MAX_FILE_BYTES", 20<<20)),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// ToleranceBands returns the comparable-search tolerances as a value object.
func (c *Config) ToleranceBands() model.ToleranceBands {
	return model.ToleranceBands{
		HouseAge:         c.Valuation.AgeBand,
		TotalFloors:      c.Valuation.TotalFloorsBand,
		FloorNumber:      c.Valuation.FloorNumberBand,
		FloorArea:        c.Valuation.FloorAreaBand,
		LandArea:         c.Valuation.LandAreaBand,
		RelaxedHouseAge:  c.Valuation.RelaxedAgeBand,
		MinStrictMatches: c.Valuation.MinStrictMatches,
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}
