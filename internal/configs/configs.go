package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

type Config struct {
	AppURL          string
	BaseURL         string
	DatabaseDSN     string
	RedisAddr       string
	StashTTLSeconds int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	DefaultPageSize        int
	RateLimit              int
	ShutdownTimeoutSeconds int
}

func Load() Config {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "127.0.0.1")
	redisPort := getEnv("REDIS_PORT", "6379")

	cfg := Config{
		AppURL:          fmt.Sprintf("%s:%s", appHost, appPort),
		BaseURL:         getEnv("BASE_URL", fmt.Sprintf("http://%s:%s", appHost, appPort)),
		DatabaseDSN:     getEnv("DATABASE_DSN", "techtrack.db"),
		RedisAddr:       fmt.Sprintf("%s:%s", redisHost, redisPort),
		StashTTLSeconds: getEnvAsInt("VISTA_STASH_TTL_SECONDS", 300),

		SMTPHost:     getEnv("SMTP_HOST", "127.0.0.1"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 25),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailFrom:     getEnv("MAIL_FROM", "techtrack@localhost"),

		DefaultPageSize:        getEnvAsInt("DEFAULT_PAGE_SIZE", 30),
		RateLimit:              getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		ShutdownTimeoutSeconds: getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 20),
	}

	validate(cfg)
	return cfg
}

func validate(cfg Config) {
	if cfg.AppURL == "" {
		log.Fatal("APP_URL must not be empty (e.g. 127.0.0.1:8080)")
	}
	if cfg.DatabaseDSN == "" {
		log.Fatal("DATABASE_DSN must not be empty")
	}
	if cfg.DefaultPageSize <= 0 {
		log.Fatal("DEFAULT_PAGE_SIZE must be greater than 0")
	}
	if cfg.StashTTLSeconds <= 0 {
		log.Fatal("VISTA_STASH_TTL_SECONDS must be greater than 0")
	}
	if cfg.RateLimit <= 0 {
		log.Fatal("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if cfg.MailFrom == "" {
		log.Fatal("MAIL_FROM must not be empty")
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
			log.Fatalf("invalid integer value for %s", key)
		}
		return i
	}
	return defaultVal
}
