package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/NextMind-AI/chatviewer-go/conversation"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	Port              string
	FixtureSource     string
	RefreshInterval   time.Duration
	SendDelay         time.Duration
	DefaultTimeFilter conversation.TimeFilter
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	S3Region          string
	AMQPURL           string
	AMQPExchange      string
	CORSOrigins       []string
	LogLevel          string
	LogPretty         bool
}

// Load reads the optional .env file and then the environment.
func Load() *Config {
	godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", "8080"),
		FixtureSource:     getEnv("FIXTURE_SOURCE", "embedded"),
		RefreshInterval:   getEnvDuration("REFRESH_INTERVAL", 30*time.Second),
		SendDelay:         getEnvDuration("SEND_DELAY", time.Second),
		DefaultTimeFilter: conversation.TimeFilter(getEnv("DEFAULT_TIME_FILTER", string(conversation.TimeFilterWeek))),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		AMQPURL:           getEnv("AMQP_URL", ""),
		AMQPExchange:      getEnv("AMQP_EXCHANGE", "chatviewer"),
		CORSOrigins:       getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:8080"}),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvBool("LOG_PRETTY", false),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.RefreshInterval < time.Second {
		errs = append(errs, fmt.Errorf("REFRESH_INTERVAL must be at least 1s, got %s", c.RefreshInterval))
	}
	if c.SendDelay < 0 {
		errs = append(errs, fmt.Errorf("SEND_DELAY must not be negative, got %s", c.SendDelay))
	}
	if _, err := conversation.ParseTimeFilter(string(c.DefaultTimeFilter)); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_TIME_FILTER: %w", err))
	}
	if c.FixtureSource == "" {
		errs = append(errs, errors.New("FIXTURE_SOURCE must not be empty"))
	}
	if c.FixtureSource == "redis" && c.RedisAddr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required when FIXTURE_SOURCE=redis"))
	}
	if c.AMQPURL != "" && c.AMQPExchange == "" {
		errs = append(errs, errors.New("AMQP_EXCHANGE is required when AMQP_URL is set"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
