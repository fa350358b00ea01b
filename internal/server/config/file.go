package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/nomina/internal/flagx"
	"github.com/dmitrijs2005/nomina/internal/timex"
)

// FileConfig is the on-disk shape of the configuration. Durations use
// timex.Duration so files may say "30m" as well as integer nanoseconds.
// Pointer fields distinguish "absent" from an explicit zero value.
type FileConfig struct {
	HTTPAddr           string         `json:"http_addr" toml:"http_addr"`
	GRPCAddr           string         `json:"grpc_addr" toml:"grpc_addr"`
	DatabaseDSN        *string        `json:"database_dsn" toml:"database_dsn"`
	SecretKey          string         `json:"secret_key" toml:"secret_key"`
	SessionIdleTimeout timex.Duration `json:"session_idle_timeout" toml:"session_idle_timeout"`
	SessionMaxLifetime timex.Duration `json:"session_max_lifetime" toml:"session_max_lifetime"`
	SessionCookieName  string         `json:"session_cookie_name" toml:"session_cookie_name"`
	CookieSecure       *bool          `json:"cookie_secure" toml:"cookie_secure"`
	LoginPath          string         `json:"login_path" toml:"login_path"`
	LogoutPath         string         `json:"logout_path" toml:"logout_path"`
	LandingPath        string         `json:"landing_path" toml:"landing_path"`
	BcryptCost         int            `json:"bcrypt_cost" toml:"bcrypt_cost"`
	SeedAdminEmail     *string        `json:"seed_admin_email" toml:"seed_admin_email"`
	SeedAdminPassword  string         `json:"seed_admin_password" toml:"seed_admin_password"`
	SeedAdminRole      string         `json:"seed_admin_role" toml:"seed_admin_role"`
}

// parseFile loads the file named by -c/-config and overlays every value it
// sets onto config. Files ending in .toml are decoded as TOML, everything
// else as JSON. A missing or malformed file panics: a server must not start
// with half of its configuration.
func parseFile(config *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	fc := &FileConfig{}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, fc); err != nil {
			panic(err)
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			panic(err)
		}
		if err := json.Unmarshal(data, fc); err != nil {
			panic(err)
		}
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, fc.HTTPAddr)
	setString(&config.GRPCAddr, fc.GRPCAddr)
	if fc.DatabaseDSN != nil {
		config.DatabaseDSN = *fc.DatabaseDSN
	}
	setString(&config.SecretKey, fc.SecretKey)
	if fc.SessionIdleTimeout.Duration > 0 {
		config.SessionIdleTimeout = fc.SessionIdleTimeout.Duration
	}
	if fc.SessionMaxLifetime.Duration > 0 {
		config.SessionMaxLifetime = fc.SessionMaxLifetime.Duration
	}
	setString(&config.SessionCookieName, fc.SessionCookieName)
	if fc.CookieSecure != nil {
		config.CookieSecure = *fc.CookieSecure
	}
	setString(&config.LoginPath, fc.LoginPath)
	setString(&config.LogoutPath, fc.LogoutPath)
	setString(&config.LandingPath, fc.LandingPath)
	if fc.BcryptCost > 0 {
		config.BcryptCost = fc.BcryptCost
	}
	if fc.SeedAdminEmail != nil {
		config.SeedAdminEmail = *fc.SeedAdminEmail
	}
	setString(&config.SeedAdminPassword, fc.SeedAdminPassword)
	setString(&config.SeedAdminRole, fc.SeedAdminRole)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
