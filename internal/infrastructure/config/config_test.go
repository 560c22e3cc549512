package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	keys := []string{
		"STOCKDASH_APP_NAME",
		"STOCKDASH_APP_ENV",
		"STOCKDASH_APP_PORT",
		"STOCKDASH_API_BASE_URL",
		"STOCKDASH_API_TIMEOUT",
		"STOCKDASH_API_PAGE_SIZE",
		"STOCKDASH_SESSION_STORE",
		"STOCKDASH_STORAGE_TYPE",
		"STOCKDASH_STORAGE_BUCKET",
		"STOCKDASH_EXPORT_PREFIX",
		"STOCKDASH_DASHBOARD_REFRESH_INTERVAL",
		"STOCKDASH_DASHBOARD_TIMEZONE",
		"STOCKDASH_DASHBOARD_PRECHECK_STOCK_OUT",
		"STOCKDASH_TELEMETRY_SAMPLING_RATIO",
	}
	originalEnv := make(map[string]string, len(keys))
	for _, k := range keys {
		originalEnv[k] = os.Getenv(k)
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "stock-dashboard", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "http://localhost:8000/api/v1", cfg.API.BaseURL)
		assert.Equal(t, 30*time.Second, cfg.API.Timeout)
		assert.Equal(t, 100, cfg.API.PageSize)
		assert.Equal(t, "file", cfg.Session.Store)
		assert.Equal(t, "filesystem", cfg.Storage.Type)
		assert.Equal(t, "inventory_report", cfg.Export.Prefix)
		assert.Equal(t, 30*time.Second, cfg.Dashboard.RefreshInterval)
		assert.Equal(t, 30, cfg.Dashboard.TrendDays)
		assert.False(t, cfg.Dashboard.PrecheckStockOut)
		assert.True(t, cfg.PDF.Headless)
		assert.Equal(t, "/metrics", cfg.Metrics.Path)
		assert.Equal(t, "stock-dashboard", cfg.Telemetry.ServiceName)
	})

	t.Run("loads values from environment variables with STOCKDASH prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("STOCKDASH_APP_NAME", "test-app")
		os.Setenv("STOCKDASH_APP_PORT", "9000")
		os.Setenv("STOCKDASH_API_BASE_URL", "https://inventory.example.com/api/v1")
		os.Setenv("STOCKDASH_API_TIMEOUT", "5s")
		os.Setenv("STOCKDASH_SESSION_STORE", "redis")
		os.Setenv("STOCKDASH_EXPORT_PREFIX", "weekly")
		os.Setenv("STOCKDASH_DASHBOARD_REFRESH_INTERVAL", "1m")
		os.Setenv("STOCKDASH_DASHBOARD_TIMEZONE", "Europe/Berlin")
		os.Setenv("STOCKDASH_DASHBOARD_PRECHECK_STOCK_OUT", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "https://inventory.example.com/api/v1", cfg.API.BaseURL)
		assert.Equal(t, 5*time.Second, cfg.API.Timeout)
		assert.Equal(t, "redis", cfg.Session.Store)
		assert.Equal(t, "weekly", cfg.Export.Prefix)
		assert.Equal(t, time.Minute, cfg.Dashboard.RefreshInterval)
		assert.True(t, cfg.Dashboard.PrecheckStockOut)
		assert.Equal(t, "Europe/Berlin", cfg.Dashboard.Location().String())
	})

	t.Run("rejects a relative base url", func(t *testing.T) {
		clearEnv()
		os.Setenv("STOCKDASH_API_BASE_URL", "/api/v1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api.base_url")
	})

	t.Run("rejects unknown session store", func(t *testing.T) {
		clearEnv()
		os.Setenv("STOCKDASH_SESSION_STORE", "cookie")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "session.store")
	})

	t.Run("s3 storage requires a bucket", func(t *testing.T) {
		clearEnv()
		os.Setenv("STOCKDASH_STORAGE_TYPE", "s3")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")

		os.Setenv("STOCKDASH_STORAGE_BUCKET", "exports")
		_, err = Load()
		require.NoError(t, err)
	})

	t.Run("page size above backend maximum", func(t *testing.T) {
		clearEnv()
		os.Setenv("STOCKDASH_API_PAGE_SIZE", "500")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api.page_size")
	})

	t.Run("production requires https backend", func(t *testing.T) {
		clearEnv()
		os.Setenv("STOCKDASH_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "https")
	})

	t.Run("invalid sampling ratio", func(t *testing.T) {
		clearEnv()
		os.Setenv("STOCKDASH_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})

	t.Run("invalid timezone", func(t *testing.T) {
		clearEnv()
		os.Setenv("STOCKDASH_DASHBOARD_TIMEZONE", "Mars/Olympus")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dashboard.timezone")
	})
}

func TestDashboardConfig_Location(t *testing.T) {
	assert.Equal(t, time.UTC, DashboardConfig{}.Location())
	assert.Equal(t, time.UTC, DashboardConfig{Timezone: "Nowhere/Land"}.Location())
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
