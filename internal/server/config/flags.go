package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/interviewkit/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g., ":8000")
//	-grpc string       gRPC bind address (e.g., ":50051")
//	-storage string    storage backend: postgres, bolt or memory
//	-d string          PostgreSQL DSN
//	-bolt string       bbolt database file
//	-s string          signing secret (literal, file:// or s3://)
//	-t int             access token validity, minutes
//	-r int             refresh token validity, minutes
//	-cost int          bcrypt cost
//	-secure-cookie     set Secure on the refresh cookie (use -secure-cookie=false to clear)
//	-revoke-on-logout  enable the refresh-token deny-list
//	-l string          log level
//	-u string          S3 access key
//	-p string          S3 secret key
//	-g string          S3 region
//	-e string          S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Boolean flags take their value with "=", never as a separate argument.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-grpc", "-storage", "-d", "-bolt", "-s", "-t", "-r", "-cost",
		"-secure-cookie", "-revoke-on-logout", "-l", "-u", "-p", "-g", "-e",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port of the HTTP server")
	fs.StringVar(&config.GRPCAddr, "grpc", config.GRPCAddr, "address and port of the gRPC server")
	fs.StringVar(&config.StorageBackend, "storage", config.StorageBackend, "storage backend (postgres, bolt, memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BoltPath, "bolt", config.BoltPath, "bbolt database file")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTTL := fs.Int("t", int(config.AccessTokenTTL.Minutes()), "access token validity (in minutes)")
	refreshTTL := fs.Int("r", int(config.RefreshTokenTTL.Minutes()), "refresh token validity (in minutes)")

	fs.IntVar(&config.BcryptCost, "cost", config.BcryptCost, "bcrypt cost")
	fs.BoolVar(&config.CookieSecure, "secure-cookie", config.CookieSecure, "mark the refresh cookie Secure")
	fs.BoolVar(&config.RevokeOnLogout, "revoke-on-logout", config.RevokeOnLogout, "deny-list refresh tokens on logout and rotation")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 access key")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 secret key")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// minutes are only applied when given, so sub-minute values from a file survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenTTL = time.Duration(*accessTTL) * time.Minute
		case "r":
			config.RefreshTokenTTL = time.Duration(*refreshTTL) * time.Minute
		}
	})
}
