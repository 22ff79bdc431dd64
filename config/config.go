package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port             string
	JWTSecret        string
	JWTExpiry        int // in hours
	LogLevel         string
	LogFormat        string
	MaxMessageLength int

	DBDriver string // sqlite, mysql or memory
	DBDSN    string

	RedisAddr          string // empty disables the membership cache
	RedisPassword      string
	RedisDB            int
	MembershipCacheTTL time.Duration

	HistoryDefaultLimit int
	HistoryMaxLimit     int

	WS              WSConfig
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// WSConfig tunes the per-connection websocket pumps.
type WSConfig struct {
	SendBuffer     int
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
	RateLimit      float64 // inbound events per second
	RateBurst      int
}

const defaultPongWait = 60 * time.Second

// PingPeriod must stay below PongWait so the peer has time to answer. It is
// always positive, since it drives a time.Ticker.
func (c WSConfig) PingPeriod() time.Duration {
	if p := (c.PongWait * 9) / 10; p > 0 {
		return p
	}
	return (defaultPongWait * 9) / 10
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file loaded, using process environment")
	}

	return Config{
		Port:             getEnv("PORT", "8081"),
		JWTSecret:        getEnv("JWT_SECRET", "dev-super-secret-change-me"),
		JWTExpiry:        getEnvAsInt("JWT_EXPIRY", 24),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		MaxMessageLength: getEnvAsInt("MAX_MESSAGE_LENGTH", 1000),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBDSN:    getEnv("DB_DSN", "chat.db"),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		MembershipCacheTTL: getEnvAsPositiveSeconds("MEMBERSHIP_CACHE_TTL", 30),

		HistoryDefaultLimit: getEnvAsInt("HISTORY_DEFAULT_LIMIT", 50),
		HistoryMaxLimit:     getEnvAsInt("HISTORY_MAX_LIMIT", 100),

		WS: WSConfig{
			SendBuffer:     getEnvAsInt("WS_SEND_BUFFER", 256),
			PongWait:       getEnvAsPositiveSeconds("WS_PONG_WAIT", int(defaultPongWait/time.Second)),
			WriteWait:      getEnvAsPositiveSeconds("WS_WRITE_WAIT", 10),
			MaxMessageSize: int64(getEnvAsInt("WS_MAX_MESSAGE_SIZE", 4096)),
			RateLimit:      getEnvAsFloat("WS_RATE_LIMIT", 10),
			RateBurst:      getEnvAsInt("WS_RATE_BURST", 20),
		},
		AllowedOrigins:  getEnvAsList("ALLOWED_ORIGINS"),
		ShutdownTimeout: getEnvAsPositiveSeconds("SHUTDOWN_TIMEOUT", 15),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithField("key", key).Warnf("invalid integer %q, using default %d", value, defaultValue)
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		logrus.WithField("key", key).Warnf("invalid number %q, using default %v", value, defaultValue)
	}
	return defaultValue
}

func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}

// getEnvAsPositiveSeconds is for timeouts where zero or less would disable
// the timer or panic a ticker.
func getEnvAsPositiveSeconds(key string, defaultSeconds int) time.Duration {
	d := getEnvAsSeconds(key, defaultSeconds)
	if d <= 0 {
		logrus.WithField("key", key).Warnf("non-positive duration %v, using default %ds", d, defaultSeconds)
		return time.Duration(defaultSeconds) * time.Second
	}
	return d
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
