package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the service configuration, read from the environment.
type Config struct {
	Port string

	// AI provider name; "none" disables remote generation and scoring
	Provider  string
	AITimeout time.Duration

	DBDriver    string // "postgres" | "sqlite"
	PostgresDSN string
	SQLitePath  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
	SessionTTL    time.Duration
	SyncChannel   string

	JWTSecret      string
	AllowedOrigins []string

	TimerInterval      time.Duration
	FreezeTimerOnPause bool

	ExportEnabled   bool
	ExportSchedule  string
	ExportDir       string
	ExportBatchSize int
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	config := &Config{
		Port:               getEnv("PORT", "8080"),
		Provider:           getEnv("AI_PROVIDER", "gemini"),
		AITimeout:          getEnvDuration("AI_TIMEOUT", 20*time.Second),
		DBDriver:           getEnv("DB_DRIVER", "postgres"),
		PostgresDSN:        postgresDSN(),
		SQLitePath:         getEnv("SQLITE_PATH", "interview.db"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		KeyPrefix:          getEnv("REDIS_KEY_PREFIX", "swipe-interview"),
		SessionTTL:         getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		SyncChannel:        getEnv("SYNC_CHANNEL", "swipe-interview-sync"),
		JWTSecret:          getEnv("INTERVIEWER_JWT_SECRET", ""),
		AllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		TimerInterval:      getEnvDuration("TIMER_INTERVAL", time.Second),
		FreezeTimerOnPause: getEnvBool("FREEZE_TIMER_ON_PAUSE", true),
		ExportEnabled:      getEnvBool("RESULTS_EXPORT_ENABLED", false),
		ExportSchedule:     getEnv("RESULTS_EXPORT_SCHEDULE", "0 2 * * *"),
		ExportDir:          getEnv("RESULTS_EXPORT_DIR", "./exports"),
		ExportBatchSize:    getEnvInt("RESULTS_EXPORT_BATCH_SIZE", 0),
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	switch config.Provider {
	case "gemini", "none":
	default:
		return errors.New("unsupported AI provider: " + config.Provider + ". Currently supported: gemini, none")
	}
	switch config.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", config.DBDriver)
	}
	if config.TimerInterval <= 0 {
		return errors.New("TIMER_INTERVAL must be positive")
	}
	if config.AITimeout <= 0 {
		return errors.New("AI_TIMEOUT must be positive")
	}
	if config.ExportEnabled && config.ExportDir == "" {
		return errors.New("RESULTS_EXPORT_DIR is required when export is enabled")
	}
	return nil
}

func postgresDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_USER", "postgres"),
		getEnv("POSTGRES_PASSWORD", "postgres"),
		getEnv("POSTGRES_DB", "interview"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_SSLMODE", "disable"))
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
