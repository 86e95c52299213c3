package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// 验证默认值
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "sonosalarm", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "", cfg.Redis.Password)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, "https://api.sonos.com", cfg.Sonos.OAuthBase)
	assert.Equal(t, "https://api.ws.sonos.com/control/api/v1", cfg.Sonos.APIBase)

	assert.Equal(t, 8*time.Second, cfg.Transport.Timeout)
	assert.Equal(t, 2, cfg.Transport.Retries)
	assert.Equal(t, 200*time.Millisecond, cfg.Transport.BackoffBase)

	assert.Equal(t, 60*time.Second, cfg.Scheduler.PollInterval)
	assert.Equal(t, 8*time.Hour, cfg.Scheduler.AlarmCacheTTL)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "redis", cfg.Store.Backend)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	// 设置环境变量
	os.Setenv("SONOS_CLIENT_ID", "client-123")
	os.Setenv("SONOS_CLIENT_SECRET", "secret-456")
	os.Setenv("HTTP_TIMEOUT", "3s")
	os.Setenv("HTTP_RETRIES", "5")
	os.Setenv("POLL_INTERVAL", "30s")
	os.Setenv("STORE_BACKEND", "memory")
	defer os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "client-123", cfg.Sonos.ClientID)
	assert.Equal(t, "secret-456", cfg.Sonos.ClientSecret)
	assert.Equal(t, 3*time.Second, cfg.Transport.Timeout)
	assert.Equal(t, 5, cfg.Transport.Retries)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.PollInterval)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	os.Setenv("HTTP_RETRIES", "not-a-number")
	os.Setenv("HTTP_TIMEOUT", "not-a-duration")
	defer os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	// 无法解析时回退到默认值
	assert.Equal(t, 2, cfg.Transport.Retries)
	assert.Equal(t, 8*time.Second, cfg.Transport.Timeout)
}
