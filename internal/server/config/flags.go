package config

import (
	"flag"
	"os"
	"time"

	"github.com/ordermeow/ordermeow/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-i string   token issuer
//	-u string   token audience
//	-t int      access token validity, minutes
//	-r int      refresh token validity, days
//	-l string   log level
//	-redis string  Redis address for the order cache
//	-amqp string   RabbitMQ URL for order events
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-i", "-u", "-t", "-r", "-l", "-redis", "-amqp"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port of the HTTP API")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port of the gRPC health endpoint")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.Issuer, "i", config.Issuer, "token issuer")
	fs.StringVar(&config.Audience, "u", config.Audience, "token audience")

	accessTokenMinutes := fs.Int("t", int(config.AccessTokenValidityDuration/time.Minute), "access token validity (in minutes)")
	refreshTokenDays := fs.Int("r", int(config.RefreshTokenValidityDuration/day), "refresh token validity (in days)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")
	fs.StringVar(&config.AMQPURL, "amqp", config.AMQPURL, "rabbitmq url")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only overwrite durations that were given, so sub-unit values survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenMinutes) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenDays) * day
		}
	})
}
