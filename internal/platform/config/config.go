package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort        string
	RequestTimeout time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string
	DBTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	QueuePushTimeout time.Duration
	JudgeResultQueue string
	JudgeToken       string

	SessionSecret       []byte
	SessionCookieName   string
	SessionTTL          time.Duration
	SessionCookieSecure bool
	SessionSameSite     string

	LogLevel  string
	LogPretty bool

	BcryptCost int
}

var AppConfig *Config

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:        getEnv("API_PORT", "8080"),
		RequestTimeout: time.Duration(getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "judge"),
		DBPassword: getEnv("DB_PASSWORD", "judge"),
		DBName:     getEnv("DB_NAME", "online_judge"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),
		DBTimeout:  time.Duration(getEnvAsInt("DB_TIMEOUT_SECONDS", 5)) * time.Second,

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		QueuePushTimeout: time.Duration(getEnvAsInt("QUEUE_PUSH_TIMEOUT_SECONDS", 3)) * time.Second,
		JudgeResultQueue: getEnv("JUDGE_RESULT_QUEUE", "judge_results"),
		JudgeToken:       getEnv("JUDGE_TOKEN", ""),

		SessionSecret:       []byte(getEnv("SESSION_SECRET", "change-me")),
		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "login_data"),
		SessionTTL:          time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 72)) * time.Hour,
		SessionCookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", false),
		SessionSameSite:     strings.ToLower(getEnv("SESSION_COOKIE_SAMESITE", "lax")),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),

		BcryptCost: getEnvAsInt("BCRYPT_COST", 12),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode

	return AppConfig
}

// ServerWriteTimeout outlives the per-request handler deadline so a handler cut
// short by it can still write its response.
func (c *Config) ServerWriteTimeout() time.Duration {
	return c.RequestTimeout + 5*time.Second
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
