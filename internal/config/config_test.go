package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jhyun-dev/todoboard/internal/auth"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_ACCESS_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
}

func TestLoadDefaults(t *testing.T) {
	setSecrets(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":3001", cfg.Addr)
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
	require.Equal(t, auth.DefaultAccessTTL, cfg.AccessTTL)
	require.Equal(t, auth.DefaultRefreshTTL, cfg.RefreshTTL)
	require.False(t, cfg.CookieSecure)
}

func TestLoadRequiresBothSecrets(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	setSecrets(t)
	t.Setenv("ADDR", ":9000")
	t.Setenv("ACCESS_TTL", "5m")
	t.Setenv("REFRESH_TTL", "48h")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Addr)
	require.Equal(t, 5*time.Minute, cfg.AccessTTL)
	require.Equal(t, 48*time.Hour, cfg.RefreshTTL)
	require.True(t, cfg.CookieSecure)
	require.Equal(t, 3, cfg.RedisDB)
}

func TestLoadRejectsBadValues(t *testing.T) {
	setSecrets(t)

	t.Run("unparseable duration", func(t *testing.T) {
		t.Setenv("ACCESS_TTL", "soon")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("non-positive duration", func(t *testing.T) {
		t.Setenv("ACCESS_TTL", "-1m")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("bad redis db", func(t *testing.T) {
		t.Setenv("REDIS_DB", "many")
		_, err := Load()
		require.Error(t, err)
	})
}
