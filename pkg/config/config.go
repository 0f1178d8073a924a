package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	HTTP      HTTPConfig
	Auth      AuthConfig
	SMTP      SMTPConfig
	Threshold ThresholdConfig
	Dashboard DashboardConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled     bool
	Brokers     []string
	TopicAlerts string
}

type HTTPConfig struct {
	Port            int
	StaticDir       string
	ShutdownTimeout time.Duration
}

type AuthConfig struct {
	AdminUser         string
	AdminPassword     string
	AdminPasswordHash string
	SessionTTL        time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// ThresholdConfig holds the alert tier boundaries for each metric.
// Danger tiers are checked before warning tiers.
type ThresholdConfig struct {
	MQ4Warn      float64
	MQ4Danger    float64
	MQ7Warn      float64
	MQ7Danger    float64
	MQ135Warn    float64
	MQ135Danger  float64
	WaterWarn    float64
	WaterDanger  float64
	HealthDanger int
	HealthWarn   int
}

type DashboardConfig struct {
	HistoryLimit int
	AlertsLimit  int
	OfflineAfter time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "sewer_user"),
			Password: getEnv("DB_PASSWORD", "sewer_pass"),
			DBName:   getEnv("DB_NAME", "sewer_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled:     getEnvAsBool("KAFKA_ENABLED", false),
			Brokers:     strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicAlerts: getEnv("KAFKA_TOPIC_ALERTS", "sewer.alerts"),
		},
		HTTP: HTTPConfig{
			Port:            getEnvAsInt("HTTP_PORT", 3000),
			StaticDir:       getEnv("HTTP_STATIC_DIR", "public"),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			AdminUser:         getEnv("ADMIN_USER", "admin"),
			AdminPassword:     getEnv("ADMIN_PASSWORD", "admin123"),
			AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			SessionTTL:        getEnvAsDuration("SESSION_TTL", 12*time.Hour),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "sewer-server@example.com"),
			To:       getEnv("SMTP_TO", "operator@example.com"),
		},
		Threshold: ThresholdConfig{
			MQ4Warn:      getEnvAsFloat("MQ4_WARN", 500),
			MQ4Danger:    getEnvAsFloat("MQ4_DANGER", 2000),
			MQ7Warn:      getEnvAsFloat("MQ7_WARN", 30),
			MQ7Danger:    getEnvAsFloat("MQ7_DANGER", 100),
			MQ135Warn:    getEnvAsFloat("MQ135_WARN", 5),
			MQ135Danger:  getEnvAsFloat("MQ135_DANGER", 20),
			WaterWarn:    getEnvAsFloat("WATER_LEVEL_WARN", 70),
			WaterDanger:  getEnvAsFloat("WATER_LEVEL_DANGER", 90),
			HealthDanger: getEnvAsInt("HEALTH_SCORE_DANGER", 50),
			HealthWarn:   getEnvAsInt("HEALTH_SCORE_WARN", 70),
		},
		Dashboard: DashboardConfig{
			HistoryLimit: getEnvAsInt("DASHBOARD_HISTORY_LIMIT", 200),
			AlertsLimit:  getEnvAsInt("DASHBOARD_ALERTS_LIMIT", 50),
			OfflineAfter: getEnvAsDuration("NODE_OFFLINE_AFTER", 5*time.Minute),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
