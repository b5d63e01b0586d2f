package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/interviewkit/internal/flagx"
	"github.com/dmitrijs2005/interviewkit/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the config file, JSON or YAML.
// Durations accept "15m" style strings or integer nanoseconds. Pointer
// fields distinguish "absent" from an explicit false.
type FileConfig struct {
	HTTPAddr        string         `json:"http_addr" yaml:"http_addr"`
	GRPCAddr        string         `json:"grpc_addr" yaml:"grpc_addr"`
	LogLevel        string         `json:"log_level" yaml:"log_level"`
	StorageBackend  string         `json:"storage_backend" yaml:"storage_backend"`
	DatabaseDSN     string         `json:"database_dsn" yaml:"database_dsn"`
	BoltPath        string         `json:"bolt_path" yaml:"bolt_path"`
	SecretKey       string         `json:"secret_key" yaml:"secret_key"`
	Algorithm       string         `json:"algorithm" yaml:"algorithm"`
	AccessTokenTTL  timex.Duration `json:"access_token_ttl" yaml:"access_token_ttl"`
	RefreshTokenTTL timex.Duration `json:"refresh_token_ttl" yaml:"refresh_token_ttl"`
	BcryptCost      int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	CookieSecure    *bool          `json:"cookie_secure" yaml:"cookie_secure"`
	RevokeOnLogout  *bool          `json:"revoke_on_logout" yaml:"revoke_on_logout"`
	S3RootUser      string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword  string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Region        string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

// parseFile loads the file named by -c / -config, if any, and overlays its
// non-empty values onto config. Files ending in .yaml or .yml are YAML,
// anything else is JSON. A missing or malformed file panics.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag(os.Args[1:])

	// nothing to load
	if path == "" {
		return
	}

	if err := readFile(config, path); err != nil {
		panic(err)
	}
}

// readFile overlays the JSON or YAML file at path onto config.
func readFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.BoltPath, c.BoltPath)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Algorithm, c.Algorithm)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.AccessTokenTTL.Duration != 0 {
		config.AccessTokenTTL = c.AccessTokenTTL.Duration
	}
	if c.RefreshTokenTTL.Duration != 0 {
		config.RefreshTokenTTL = c.RefreshTokenTTL.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	if c.RevokeOnLogout != nil {
		config.RevokeOnLogout = *c.RevokeOnLogout
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
