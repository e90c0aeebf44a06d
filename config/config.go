package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process settings. It is read once at boot and treated as immutable.
type Config struct {
	Port    string
	BaseURL string

	MongoURI string
	MongoDB  string

	JWTSecret []byte
	TokenTTL  time.Duration

	OpenAIKey     string
	OpenAIBaseURL string
	AIModels      []string
	AITimeout     time.Duration

	RedisAddr     string
	RedisPassword string

	CORSOrigins        []string
	GenerateRatePerMin int
	UploadDir          string
	LogLevel           slog.Level
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; using system environment")
	}

	cfg := &Config{}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("required environment variables are not set: [JWT_SECRET]")
	}
	cfg.JWTSecret = []byte(secret)

	cfg.Port = getEnvString("PORT", "8080")
	if !strings.HasPrefix(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}
	cfg.BaseURL = strings.TrimRight(getEnvString("BASE_URL", "http://localhost:8080"), "/")
	cfg.MongoURI = getEnvString("MONGO_URI", "mongodb://localhost:27017")
	cfg.MongoDB = getEnvString("MONGO_DB", "wanderplan")
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 12*time.Hour)
	cfg.OpenAIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	cfg.AIModels = getEnvList("AI_MODELS", []string{"gpt-4o-mini", "gpt-4.1-mini", "gpt-3.5-turbo"})
	cfg.AITimeout = getEnvDuration("AI_TIMEOUT", 60*time.Second)
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.CORSOrigins = getEnvList("CORS_ORIGINS", []string{"*"})
	cfg.GenerateRatePerMin = getEnvInt("GENERATE_RATE_PER_MIN", 5)
	cfg.UploadDir = getEnvString("UPLOAD_DIR", "static/uploads")
	cfg.LogLevel = parseLevel(getEnvString("LOG_LEVEL", "info"))

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
