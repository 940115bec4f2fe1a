package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "CHATTER_"

// defaultEnvFile is loaded when no -env flag is given; a missing file is not an error.
const defaultEnvFile = ".env"

// parseEnv overlays Config with CHATTER_* environment variables.
//
// Before reading the environment, a dotenv file is loaded: the one named by
// -env / -envfile, or ./.env when present. Variables already set in the
// process environment take precedence over the file. A malformed value or an
// unreadable explicitly requested file panics, matching parseJson.
//
// Recognised variables: CHATTER_GRPC_ADDR, CHATTER_DATABASE_DSN,
// CHATTER_REDIS_ADDR, CHATTER_REDIS_PASSWORD, CHATTER_REDIS_DB,
// CHATTER_SECRET_KEY, CHATTER_ACCESS_TOKEN_TTL, CHATTER_REFRESH_TOKEN_TTL,
// CHATTER_EXCHANGE_CODE_TTL, CHATTER_SESSION_REAP_INTERVAL,
// CHATTER_PRESENCE_CHANNEL, CHATTER_LOG_LEVEL. Durations use
// time.ParseDuration syntax.
func parseEnv(config *Config) {
	if path := flagx.EnvFilePath(os.Args[1:]); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	envString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.RedisAddr, "REDIS_ADDR")
	envString(&config.RedisPassword, "REDIS_PASSWORD")
	envInt(&config.RedisDB, "REDIS_DB")
	envString(&config.SecretKey, "SECRET_KEY")
	envDuration(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_TTL")
	envDuration(&config.RefreshTokenValidityDuration, "REFRESH_TOKEN_TTL")
	envDuration(&config.ExchangeCodeValidityDuration, "EXCHANGE_CODE_TTL")
	envDuration(&config.SessionReapInterval, "SESSION_REAP_INTERVAL")
	envString(&config.PresenceChannel, "PRESENCE_CHANNEL")
	envString(&config.LogLevel, "LOG_LEVEL")
}

func envString(dst *string, name string) {
	if v, ok := os.LookupEnv(envPrefix + name); ok {
		*dst = v
	}
}

func envInt(dst *int, name string) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func envDuration(dst *time.Duration, name string) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
