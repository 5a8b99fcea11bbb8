package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	ServicePort int
	Database    DatabaseConfig
	Vision      VisionConfig
	Staging     StagingConfig
	RabbitMQ    RabbitMQConfig
	Anomaly     AnomalyConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL          string
	MaxConns     int
	QueryTimeout time.Duration
}

// VisionConfig holds Google Cloud Vision settings
type VisionConfig struct {
	CredentialsFile string
	MaxResults      int
	Timeout         time.Duration
}

// StagingConfig holds settings for the transient image staging area
type StagingConfig struct {
	Dir string
}

// RabbitMQConfig holds RabbitMQ connection and routing settings. The broker
// is optional; leave URL empty to disable event publishing.
type RabbitMQConfig struct {
	URL                 string
	EventsExchange      string
	CapturedRoutingKey  string
	ConfirmedRoutingKey string
}

// AnomalyConfig holds anomaly detection settings
type AnomalyConfig struct {
	SpikeThreshold            float64
	MinDataPointsForDetection int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "meter-reading-service"),
		ServicePort: getEnvAsInt("SERVICE_PORT", 8080),
		Database: DatabaseConfig{
			URL:          getEnv("DATABASE_URL", ""),
			MaxConns:     getEnvAsInt("DATABASE_MAX_CONNS", 10),
			QueryTimeout: time.Duration(getEnvAsInt("DATABASE_QUERY_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		Vision: VisionConfig{
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			MaxResults:      getEnvAsInt("OCR_MAX_RESULTS", 50),
			Timeout:         time.Duration(getEnvAsInt("OCR_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Staging: StagingConfig{
			Dir: getEnv("STAGING_DIR", os.TempDir()),
		},
		RabbitMQ: RabbitMQConfig{
			URL:                 getEnv("RABBITMQ_URL", ""),
			EventsExchange:      getEnv("RABBITMQ_EVENTS_EXCHANGE", "meter-reading.events.exchange"),
			CapturedRoutingKey:  getEnv("RABBITMQ_CAPTURED_ROUTING_KEY", "meter.reading.captured"),
			ConfirmedRoutingKey: getEnv("RABBITMQ_CONFIRMED_ROUTING_KEY", "meter.reading.confirmed"),
		},
		Anomaly: AnomalyConfig{
			SpikeThreshold:            getEnvAsFloat("ANOMALY_SPIKE_THRESHOLD", 3.0),
			MinDataPointsForDetection: getEnvAsInt("ANOMALY_MIN_DATA_POINTS", 3),
		},
	}

	// Validate required fields
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set in environment variables")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
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
		return defaultValue
	}
	return value
}
