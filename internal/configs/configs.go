package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppURL                 string
	Environment            string
	EnvironmentsFile       string
	Workers                int
	QueueSize              int
	DownloadSlots          int
	PollIntervalSeconds    int
	PollBatchSize          int
	DatabaseDSN            string
	RateLimit              int
	RedisAddr              string
	RedisSlotKey           string
	ShutdownTimeoutSeconds int
}

func Load() Config {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "127.0.0.1")
	redisPort := getEnv("REDIS_PORT", "6379")

	cfg := Config{
		AppURL:                 fmt.Sprintf("%s:%s", appHost, appPort),
		Environment:            getEnv("TASKHUB_ENV", "playground"),
		EnvironmentsFile:       getEnv("TASKHUB_ENVIRONMENTS_FILE", ""),
		Workers:                getEnvAsInt("TASK_WORKERS", 5),
		QueueSize:              getEnvAsInt("TASK_QUEUE_SIZE", 10),
		DownloadSlots:          getEnvAsInt("DOWNLOAD_SLOTS", 10),
		PollIntervalSeconds:    getEnvAsInt("TASK_POLL_INTERVAL_SECONDS", 5),
		PollBatchSize:          getEnvAsInt("TASK_POLL_BATCH_SIZE", 10),
		DatabaseDSN:            getEnv("DATABASE_DSN", "tasks.db"),
		RateLimit:              getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		RedisAddr:              fmt.Sprintf("%s:%s", redisHost, redisPort),
		RedisSlotKey:           getEnv("REDIS_SLOT_KEY", "taskhub_download_slots"),
		ShutdownTimeoutSeconds: getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 20),
	}

	validate(cfg)
	return cfg
}

func validate(cfg Config) {
	if cfg.AppURL == "" {
		log.Fatal().Msg("APP_URL must not be empty (e.g. 127.0.0.1:8080)")
	}
	if cfg.Environment == "" {
		log.Fatal().Msg("TASKHUB_ENV must not be empty")
	}
	if cfg.Workers <= 0 {
		log.Fatal().Msg("TASK_WORKERS must be greater than 0")
	}
	if cfg.QueueSize <= 0 {
		log.Fatal().Msg("TASK_QUEUE_SIZE must be greater than 0")
	}
	if cfg.DownloadSlots <= 0 {
		log.Fatal().Msg("DOWNLOAD_SLOTS must be greater than 0")
	}
	if cfg.PollIntervalSeconds <= 0 {
		log.Fatal().Msg("TASK_POLL_INTERVAL_SECONDS must be greater than 0")
	}
	if cfg.PollBatchSize <= 0 {
		log.Fatal().Msg("TASK_POLL_BATCH_SIZE must be greater than 0")
	}
	if cfg.DatabaseDSN == "" {
		log.Fatal().Msg("DATABASE_DSN must not be empty")
	}
	if cfg.RateLimit <= 0 {
		log.Fatal().Msg("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Fatal().Str("key", key).Msg("invalid integer value")
		}
		return i
	}
	return defaultVal
}
