package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("process environment", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("CHATTER_SECRET_KEY", "from-env")
		t.Setenv("CHATTER_REDIS_DB", "4")
		t.Setenv("CHATTER_ACCESS_TOKEN_TTL", "45s")
		t.Setenv("CHATTER_SESSION_REAP_INTERVAL", "0s")

		cfg := &Config{}
		cfg.LoadDefaults()
		parseEnv(cfg)

		assert.Equal(t, "from-env", cfg.SecretKey)
		assert.Equal(t, 4, cfg.RedisDB)
		assert.Equal(t, 45*time.Second, cfg.AccessTokenValidityDuration)
		assert.Equal(t, time.Duration(0), cfg.SessionReapInterval)
		assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
	})

	t.Run("dotenv file named by flag", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "test.env")
		require.NoError(t, os.WriteFile(path, []byte("CHATTER_GRPC_ADDR=:7000\nCHATTER_LOG_LEVEL=debug\n"), 0o600))
		t.Setenv("CHATTER_GRPC_ADDR", "")
		t.Setenv("CHATTER_LOG_LEVEL", "")
		require.NoError(t, os.Unsetenv("CHATTER_GRPC_ADDR"))
		require.NoError(t, os.Unsetenv("CHATTER_LOG_LEVEL"))
		os.Args = []string{"testbin", "-env", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseEnv(cfg)

		assert.Equal(t, ":7000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("bad duration panics", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("CHATTER_REFRESH_TOKEN_TTL", "a week")
		require.Panics(t, func() { parseEnv(&Config{}) })
	})

	t.Run("missing explicit file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-env", filepath.Join(t.TempDir(), "absent.env")}
		require.Panics(t, func() { parseEnv(&Config{}) })
	})
}
