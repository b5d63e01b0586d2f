package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables understood by parseEnv.
const (
	EnvSecretKey          = "SECRET_KEY"
	EnvAlgorithm          = "ALGORITHM"
	EnvAccessExpireMinute = "ACCESS_TOKEN_EXPIRE_MINUTES"
	EnvRefreshExpireDays  = "REFRESH_TOKEN_EXPIRE_DAYS"
	EnvDatabaseURL        = "DATABASE_URL"
	EnvCookieSecure       = "COOKIE_SECURE"
)

// parseEnv overlays set environment variables onto config. A value that
// does not parse panics, like a malformed flag would.
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv(EnvSecretKey); ok {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv(EnvAlgorithm); ok {
		config.Algorithm = v
	}
	if v, ok := os.LookupEnv(EnvDatabaseURL); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv(EnvAccessExpireMinute); ok {
		config.AccessTokenTTL = time.Duration(mustAtoi(EnvAccessExpireMinute, v)) * time.Minute
	}
	if v, ok := os.LookupEnv(EnvRefreshExpireDays); ok {
		config.RefreshTokenTTL = time.Duration(mustAtoi(EnvRefreshExpireDays, v)) * 24 * time.Hour
	}
	if v, ok := os.LookupEnv(EnvCookieSecure); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("%s: %w", EnvCookieSecure, err))
		}
		config.CookieSecure = b
	}
}

func mustAtoi(name, v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", name, err))
	}
	return n
}
