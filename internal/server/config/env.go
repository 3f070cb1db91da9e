package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "ORDERMEOW_"

// parseEnv loads envFile into the process environment, never overriding
// variables that are already set, and then applies ORDERMEOW_* variables.
// A missing envFile is not an error.
//
// Token lifetimes are given in whole minutes (ACCESS_TOKEN_MINUTES) and whole
// days (REFRESH_TOKEN_DAYS); other durations use Go syntax ("500ms").
func parseEnv(config *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var errs []error
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	scaled := func(name string, unit time.Duration, dst *time.Duration) {
		n := -1
		num(name, &n)
		if n != -1 {
			*dst = time.Duration(n) * unit
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("HTTP_ADDR", &config.EndpointAddrHTTP)
	str("GRPC_ADDR", &config.EndpointAddrGRPC)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	str("ISSUER", &config.Issuer)
	str("AUDIENCE", &config.Audience)
	scaled("ACCESS_TOKEN_MINUTES", time.Minute, &config.AccessTokenValidityDuration)
	scaled("REFRESH_TOKEN_DAYS", day, &config.RefreshTokenValidityDuration)
	num("BCRYPT_COST", &config.BcryptCost)
	dur("LOGIN_MIN_DURATION", &config.LoginMinDuration)
	str("REDIS_ADDR", &config.RedisAddr)
	str("REDIS_PASSWORD", &config.RedisPassword)
	num("REDIS_DB", &config.RedisDB)
	dur("ORDER_CACHE_TTL", &config.OrderCacheTTL)
	str("AMQP_URL", &config.AMQPURL)
	str("ORDER_QUEUE", &config.OrderQueue)
	str("LOG_LEVEL", &config.LogLevel)

	return errors.Join(errs...)
}
