package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSupabaseEnv(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_URL_ANON_KEY", "anon")
	t.Setenv("MONGODB_URI", "mongodb+srv://app:<password>@cluster.example.net")
	t.Setenv("MONGODB_PASSWORD", "secret")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setSupabaseEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreSupabase, cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.LockTTL)
	assert.Equal(t, "nearby.app", cfg.ProductDomain)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.True(t, cfg.EnableMetrics)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.PubNubEnabled())
	assert.False(t, cfg.CloudinaryEnabled())
}

func TestLoadConfig_SupabaseRequired(t *testing.T) {
	t.Setenv("STORE_DRIVER", "supabase")
	t.Setenv("SUPABASE_URL", "")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "SUPABASE_URL")
}

func TestLoadConfig_MemoryDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("ATTENDANCE_LOCK_TTL", "250ms")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, 250*time.Millisecond, cfg.LockTTL)
}

func TestLoadConfig_SqliteDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SUPABASE_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StoreSqlite, cfg.StoreDriver)
	assert.Equal(t, "nearby.db", cfg.SQLitePath)

	t.Setenv("SQLITE_PATH", " ")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "SQLITE_PATH")
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("driver", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "postgres")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "STORE_DRIVER")
	})
	t.Run("lock ttl", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("ATTENDANCE_LOCK_TTL", "soon")
		_, err := LoadConfig()
		assert.Error(t, err)

		t.Setenv("ATTENDANCE_LOCK_TTL", "0s")
		_, err = LoadConfig()
		assert.ErrorContains(t, err, "ATTENDANCE_LOCK_TTL")
	})
	t.Run("metrics flag", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("ENABLE_METRICS", "maybe")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Config{LogLevel: "DEBUG"}).SlogLevel())
	assert.Equal(t, slog.LevelWarn, (&Config{LogLevel: "warning"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: "chatty"}).SlogLevel())
}
