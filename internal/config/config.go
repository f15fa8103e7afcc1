package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr        string
	JWTSecret   string
	JWTTTLMin   int
	DBDriver    string
	SQLITEDsn   string
	PostgresDsn string
	RedisURL    string
	TypingTTL   time.Duration
	LogLevel    string
}

// Client is the configuration of the command line client.
type Client struct {
	Server string
	Token  string
	UserID string
	OrgID  string
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val != "" {
		return val
	}
	return def
}

func getint(key string, def int) int {
	n, err := strconv.Atoi(getenv(key, ""))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func MustLoad() Config {
	cfg := Config{
		Addr:        getenv("HTTP_ADDR", ":8080"),
		JWTSecret:   getenv("JWT_SECRET", ""),
		JWTTTLMin:   getint("JWT_TTL_MIN", 1440),
		DBDriver:    getenv("DB_DRIVER", "sqlite"),
		SQLITEDsn:   getenv("SQLITE_DSN", "file:gigchat.db?_pragma=foreign_keys(ON)"),
		PostgresDsn: getenv("POSTGRES_DSN", ""),
		RedisURL:    getenv("REDIS_URL", ""),
		TypingTTL:   time.Duration(getint("TYPING_TTL_SEC", 5)) * time.Second,
		LogLevel:    getenv("LOG_LEVEL", "info"),
	}
	return cfg
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.PostgresDsn == "" {
			return fmt.Errorf("POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

func LoadClient() Client {
	return Client{
		Server: getenv("GIGCHAT_SERVER", "http://localhost:8080"),
		Token:  getenv("GIGCHAT_TOKEN", ""),
		UserID: getenv("GIGCHAT_USER", ""),
		OrgID:  getenv("GIGCHAT_ORG", ""),
	}
}
