package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		name        string
		args        []string
		start       *Config
		expected    *Config
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret",
				"-t", "1", "-r", "3", "-x", "5", "-i", "0",
				"-R", "127.0.0.1:6380", "-P", "pw", "-D", "2", "-n", "presence", "-l", "debug",
			},
			start: &Config{},
			expected: &Config{
				EndpointAddrGRPC:             "127.0.0.1:9090",
				DatabaseDSN:                  "db",
				RedisAddr:                    "127.0.0.1:6380",
				RedisPassword:                "pw",
				RedisDB:                      2,
				SecretKey:                    "secret",
				AccessTokenValidityDuration:  1 * time.Minute,
				RefreshTokenValidityDuration: 3 * time.Minute,
				ExchangeCodeValidityDuration: 5 * time.Minute,
				SessionReapInterval:          0,
				PresenceChannel:              "presence",
				LogLevel:                     "debug",
			},
		},
		{
			name:  "unset duration flags keep sub-minute values",
			args:  []string{"cmd", "-c", "cfg.json", "-s", "other"},
			start: &Config{AccessTokenValidityDuration: 30 * time.Second, SecretKey: "k"},
			expected: &Config{
				AccessTokenValidityDuration: 30 * time.Second,
				SecretKey:                   "other",
			},
		},
		{
			name:        "bad int panics",
			args:        []string{"cmd", "-t", "soon"},
			start:       &Config{},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := tt.start

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
