package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	JobStorePostgres = "postgres"
	JobStoreSQLite   = "sqlite"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	JobStore    string
	DatabaseURL string
	DBMaxConns  int32
	SQLitePath  string

	StoragePath    string
	StorageBaseURL string

	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIOrg      string
	OpenAITTSModel string

	AvatarAPIKey       string
	AvatarBaseURL      string
	AvatarPollInterval time.Duration

	NATSURL string

	InlineWorkers bool
	WorkerCount   int
	QueueSize     int
	JobTimeout    time.Duration
	SweepInterval time.Duration
	StaleAfter    time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               port,
		LogLevel:           os.Getenv("LOG_LEVEL"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         int32(getEnvInt("DB_MAX_CONNS", 10)),
		SQLitePath:         getEnv("SQLITE_PATH", "./data/reelmate.db"),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:     getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:          os.Getenv("OPENAI_ORG"),
		OpenAITTSModel:     getEnv("OPENAI_TTS_MODEL", "tts-1"),
		AvatarAPIKey:       os.Getenv("AVATAR_API_KEY"),
		AvatarBaseURL:      getEnv("AVATAR_BASE_URL", "https://api.heygen.com"),
		AvatarPollInterval: time.Second * time.Duration(getEnvInt("AVATAR_POLL_INTERVAL_SECONDS", 5)),
		NATSURL:            os.Getenv("NATS_URL"),
		InlineWorkers:      getEnvBool("INLINE_WORKERS", true),
		WorkerCount:        getEnvInt("WORKER_COUNT", 4),
		QueueSize:          getEnvInt("QUEUE_SIZE", 64),
		JobTimeout:         time.Second * time.Duration(getEnvInt("JOB_TIMEOUT_SECONDS", 600)),
		SweepInterval:      time.Second * time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 15)),
		StaleAfter:         time.Second * time.Duration(getEnvInt("STALE_AFTER_SECONDS", 1800)),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CORSOrigins:        splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	cfg.JobStore = strings.ToLower(strings.TrimSpace(os.Getenv("JOB_STORE")))
	if cfg.JobStore == "" {
		cfg.JobStore = JobStoreSQLite
		if cfg.DatabaseURL != "" {
			cfg.JobStore = JobStorePostgres
		}
	}

	switch cfg.JobStore {
	case JobStorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when JOB_STORE=postgres")
		}
	case JobStoreSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required when JOB_STORE=sqlite")
		}
	default:
		return nil, fmt.Errorf("unsupported JOB_STORE %q", cfg.JobStore)
	}

	if cfg.WorkerCount <= 0 {
		return nil, fmt.Errorf("WORKER_COUNT must be positive")
	}
	if cfg.QueueSize <= 0 {
		return nil, fmt.Errorf("QUEUE_SIZE must be positive")
	}
	// A stale cutoff inside the job timeout would reclaim jobs that are still running.
	if cfg.StaleAfter > 0 && cfg.StaleAfter <= cfg.JobTimeout {
		return nil, fmt.Errorf("STALE_AFTER_SECONDS (%s) must exceed JOB_TIMEOUT_SECONDS (%s)", cfg.StaleAfter, cfg.JobTimeout)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
