package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/ordermeow/ordermeow/internal/flagx"
	"github.com/ordermeow/ordermeow/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration, so both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	Issuer                       string         `json:"issuer"`
	Audience                     string         `json:"audience"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	LoginMinDuration             timex.Duration `json:"login_min_duration"`
	RedisAddr                    string         `json:"redis_addr"`
	RedisPassword                string         `json:"redis_password"`
	RedisDB                      int            `json:"redis_db"`
	OrderCacheTTL                timex.Duration `json:"order_cache_ttl"`
	AMQPURL                      string         `json:"amqp_url"`
	OrderQueue                   string         `json:"order_queue"`
	LogLevel                     string         `json:"log_level"`
}

// parseJson overlays the file named by -c/-config onto config. Keys absent
// from the file keep their current value. An unreadable or malformed file
// panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.ConfigFileFlag()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Issuer, c.Issuer)
	setString(&config.Audience, c.Audience)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	setDuration(&config.LoginMinDuration, c.LoginMinDuration)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	if c.RedisDB != 0 {
		config.RedisDB = c.RedisDB
	}
	setDuration(&config.OrderCacheTTL, c.OrderCacheTTL)
	setString(&config.AMQPURL, c.AMQPURL)
	setString(&config.OrderQueue, c.OrderQueue)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
