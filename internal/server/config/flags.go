package config

import (
	"flag"
	"os"
	"time"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/flagx"
)

// serverFlags lists the short flags owned by parseFlags.
var serverFlags = []string{"-a", "-d", "-s", "-t", "-r", "-x", "-i", "-R", "-P", "-D", "-n", "-l"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-x int      exchange code validity, minutes
//	-i int      expired session reap interval, minutes (0 disables)
//	-R string   Redis address
//	-P string   Redis password
//	-D int      Redis database number
//	-n string   presence pub/sub channel
//	-l string   log level
//
// os.Args is filtered to these flags first, so -c/-env and flags owned by
// other components do not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidity := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")
	exchangeCodeValidity := fs.Int("x", int(config.ExchangeCodeValidityDuration.Minutes()), "exchange_code_validity_duration (in minutes)")
	reapInterval := fs.Int("i", int(config.SessionReapInterval.Minutes()), "session_reap_interval (in minutes, 0 disables)")

	fs.StringVar(&config.RedisAddr, "R", config.RedisAddr, "redis address")
	fs.StringVar(&config.RedisPassword, "P", config.RedisPassword, "redis password")
	fs.IntVar(&config.RedisDB, "D", config.RedisDB, "redis database")
	fs.StringVar(&config.PresenceChannel, "n", config.PresenceChannel, "presence channel")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Minute-granular flags only replace values that were actually passed,
	// so sub-minute durations from env or JSON survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidity) * time.Minute
		case "x":
			config.ExchangeCodeValidityDuration = time.Duration(*exchangeCodeValidity) * time.Minute
		case "i":
			config.SessionReapInterval = time.Duration(*reapInterval) * time.Minute
		}
	})
}
