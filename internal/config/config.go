package config

import (
	"os"
	"strconv"
	"time"
)

// Config 服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig

	// Sonos 上游 API 配置
	Sonos struct {
		OAuthBase    string // OAuth 基地址，如 "https://api.sonos.com"
		APIBase      string // 控制 API 基地址，如 "https://api.ws.sonos.com/control/api/v1"
		ClientID     string
		ClientSecret string
		RedirectURI  string // OAuth 回调地址
	}

	// 出站 HTTP 配置
	Transport struct {
		Timeout     time.Duration // 单次请求超时，默认 8s
		Retries     int           // 重试次数，默认 2
		BackoffBase time.Duration // 线性退避基数（attempt * base），默认 200ms
	}

	// 调度配置
	Scheduler struct {
		PollInterval  time.Duration // 批处理轮询间隔，默认 60s
		AlarmCacheTTL time.Duration // 报警列表缓存有效期，默认 8h
	}

	HTTP struct {
		Addr string // 监听地址，如 ":8080"
	}

	Store struct {
		Backend string // "redis" 或 "memory"
	}

	Log struct {
		Level  string
		Format string
	}
}

// DatabaseConfig Postgres 配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "sonosalarm")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.Sonos.OAuthBase = getEnv("SONOS_OAUTH_BASE", "https://api.sonos.com")
	cfg.Sonos.APIBase = getEnv("SONOS_API_BASE", "https://api.ws.sonos.com/control/api/v1")
	cfg.Sonos.ClientID = os.Getenv("SONOS_CLIENT_ID")
	cfg.Sonos.ClientSecret = os.Getenv("SONOS_CLIENT_SECRET")
	cfg.Sonos.RedirectURI = getEnv("SONOS_REDIRECT_URI", "")

	cfg.Transport.Timeout = getEnvDuration("HTTP_TIMEOUT", 8*time.Second)
	cfg.Transport.Retries = getEnvInt("HTTP_RETRIES", 2)
	cfg.Transport.BackoffBase = getEnvDuration("HTTP_BACKOFF_BASE", 200*time.Millisecond)

	cfg.Scheduler.PollInterval = getEnvDuration("POLL_INTERVAL", 60*time.Second)
	cfg.Scheduler.AlarmCacheTTL = getEnvDuration("ALARM_CACHE_TTL", 8*time.Hour)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Store.Backend = getEnv("STORE_BACKEND", "redis")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// getEnv 读取环境变量（带默认值）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt 读取整型环境变量（带默认值）
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration 读取时长环境变量（带默认值），如 "30s"、"5m"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
