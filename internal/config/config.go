package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort      string
	DBDriver        string
	DatabaseDSN     string
	RedisAddr       string
	RedisDB         int
	RedisPass       string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Timezone        *time.Location
	CORSOrigins     []string
	SwaggerHost     string
	ResetDB         bool
}

var defaultDSNs = map[string]string{
	"mysql":    "user:password@tcp(localhost:3306)/jobtrackr?charset=utf8mb4&parseTime=True&loc=UTC",
	"postgres": "host=localhost user=postgres password=password dbname=jobtrackr port=5432 sslmode=disable",
	"sqlite":   "jobtrackr.db",
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	driver := strings.ToLower(getEnv("DB_DRIVER", "mysql"))

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" && driver == "mysql" {
		dsn = os.Getenv("MYSQL_DSN")
	}
	if dsn == "" {
		dsn = defaultDSNs[driver]
	}

	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		DBDriver:        driver,
		DatabaseDSN:     dsn,
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		RedisPass:       os.Getenv("REDIS_PASSWORD"),
		JWTSecret:       getEnv("JWT_SECRET", "change-me"),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 7*24*time.Hour),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		Timezone:        getEnvLocation("APP_TIMEZONE", time.UTC),
		CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"*"}),
		SwaggerHost:     os.Getenv("SWAGGER_HOST"),
		ResetDB:         os.Getenv("RESET_DB") == "true",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

func getEnvLocation(key string, def *time.Location) *time.Location {
	if v := os.Getenv(key); v != "" {
		if loc, err := time.LoadLocation(v); err == nil {
			return loc
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
