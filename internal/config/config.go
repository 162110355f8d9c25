// config.go
//
// An intern management service: role-gated interns, tasks, attendance, reviews and messaging
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of internportal.
// internportal is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// internportal is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with internportal.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Identity providers
const (
	ProviderLocal      = "local"
	ProviderAuthorizer = "authorizer"
)

// LogConfig holds logger settings
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port        string `yaml:"port"`
	CORSOrigins string `yaml:"cors_origins"`

	// Database configuration
	DBType            string `yaml:"db_type"` // mysql, mariadb, postgres, sqlite, sqlite3, sqlserver
	DBHost            string `yaml:"db_host"`
	DBPort            string `yaml:"db_port"`
	DBDatabase        string `yaml:"db_database"`
	DBUser            string `yaml:"db_user"`
	DBPassword        string `yaml:"db_password"`
	DBConnectionLimit int    `yaml:"db_connection_limit"`

	// Identity configuration
	IdentityProvider string `yaml:"identity_provider"` // local, authorizer
	AuthzURL         string `yaml:"authz_url"`
	AuthzClientID    string `yaml:"authz_client_id"`
	AuthzRedirectURL string `yaml:"authz_redirect_url"`
	JWTSecret        string `yaml:"jwt_secret"`
	TokenTTLHours    int    `yaml:"token_ttl_hours"`

	// Administrator and onboarding
	AdminEmail            string `yaml:"admin_email"`
	AdminName             string `yaml:"admin_name"`
	AdminPassword         string `yaml:"admin_password"`
	DefaultInternPassword string `yaml:"default_intern_password"`

	Log LogConfig `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:                  "3000",
		CORSOrigins:           "*",
		DBType:                "sqlite",
		DBHost:                "localhost",
		DBPort:                "3306",
		DBDatabase:            "internportal.db",
		DBConnectionLimit:     5,
		IdentityProvider:      ProviderLocal,
		TokenTTLHours:         24,
		AdminEmail:            "admin@internportal.local",
		AdminName:             "Administrator",
		DefaultInternPassword: "intern123",
		Log:                   LogConfig{Level: "info", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
	}
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and the environment, in that order of precedence.
// An empty configFile tries config.yaml in the working directory.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	path := configFile
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case configFile != "":
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.CORSOrigins = getEnv("CORS_ORIGINS", c.CORSOrigins)
	c.DBType = strings.ToLower(getEnv("DB_TYPE", c.DBType))
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBPort = getEnv("DB_PORT", c.DBPort)
	c.DBDatabase = getEnv("DB_DATABASE", c.DBDatabase)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBConnectionLimit = getEnvAsInt("DB_CONNECTION_LIMIT", c.DBConnectionLimit)
	c.IdentityProvider = strings.ToLower(getEnv("IDENTITY_PROVIDER", c.IdentityProvider))
	c.AuthzURL = getEnv("AUTHZ_URL", c.AuthzURL)
	c.AuthzClientID = getEnv("AUTHZ_CLIENT_ID", c.AuthzClientID)
	c.AuthzRedirectURL = getEnv("AUTHZ_REDIRECT_URL", c.AuthzRedirectURL)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.TokenTTLHours = getEnvAsInt("TOKEN_TTL_HOURS", c.TokenTTLHours)
	c.AdminEmail = getEnv("ADMIN_EMAIL", c.AdminEmail)
	c.AdminName = getEnv("ADMIN_NAME", c.AdminName)
	c.AdminPassword = getEnv("ADMIN_PASSWORD", c.AdminPassword)
	c.DefaultInternPassword = getEnv("DEFAULT_INTERN_PASSWORD", c.DefaultInternPassword)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.DBDatabase == "" {
		return fmt.Errorf("DB_DATABASE is required")
	}
	switch c.DBType {
	case "sqlite", "sqlite3":
	case "mysql", "mariadb", "postgres", "postgresql", "sqlserver", "mssql":
		if c.DBUser == "" {
			return fmt.Errorf("DB_USER is required for %s", c.DBType)
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE: %s", c.DBType)
	}

	switch c.IdentityProvider {
	case ProviderLocal:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for the local identity provider")
		}
		if c.TokenTTLHours <= 0 {
			return fmt.Errorf("TOKEN_TTL_HOURS must be positive")
		}
	case ProviderAuthorizer:
		if c.AuthzURL == "" {
			return fmt.Errorf("AUTHZ_URL is required")
		}
		if c.AuthzClientID == "" {
			return fmt.Errorf("AUTHZ_CLIENT_ID is required")
		}
	default:
		return fmt.Errorf("unsupported IDENTITY_PROVIDER: %s", c.IdentityProvider)
	}

	if c.AdminEmail == "" {
		return fmt.Errorf("ADMIN_EMAIL is required")
	}
	if len(c.DefaultInternPassword) < 6 {
		return fmt.Errorf("DEFAULT_INTERN_PASSWORD must be at least 6 characters")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
