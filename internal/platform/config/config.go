// Copyright (c) 2025 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// TurnstileSection is the name of the configuration section holding
// the Cloudflare Turnstile settings in config files.
const TurnstileSection = "cloudflareTurnstile"

const defaultTurnstileTimeout = 10 * time.Second

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Turnstile TurnstileConfig `json:"cloudflareTurnstile"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string `json:"host" mapstructure:"host"`
	Port         int    `json:"port" mapstructure:"port"`
	Debug        bool   `json:"debug" mapstructure:"debug"`
	CookieSecure bool   `json:"cookieSecure" mapstructure:"cookieSecure"`
}

// TurnstileConfig holds the Cloudflare Turnstile settings as read from
// configuration. Presence of the values is checked by turnstile.Register.
type TurnstileConfig struct {
	BaseURL   string        `json:"baseUrl" mapstructure:"baseUrl"`
	SiteKey   string        `json:"siteKey" mapstructure:"siteKey"`
	SecretKey string        `json:"-" mapstructure:"secretKey"`
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Address returns the listen address of the HTTP server
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadFromEnv loads configuration from the environment.
// Explicit environment variables win over values from a .env file,
// which win over the hardcoded defaults.
func LoadFromEnv() (*Config, error) {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	var loadErr error
	for _, envPath := range envPaths {
		loadErr = godotenv.Load(envPath)
		if loadErr == nil {
			break
		}
	}
	if loadErr != nil {
		fmt.Println("INFO: .env file not found, using environment variables and defaults.")
	}

	return LoadFromMap(environ())
}

// LoadFromMap loads configuration from an in-memory map.
// This is the primary helper for testing configuration logic in isolation
// without manipulating global environment variables.
func LoadFromMap(envMap map[string]string) (*Config, error) {
	get := func(key, defaultValue string) string {
		if value, exists := envMap[key]; exists && value != "" {
			return value
		}
		return defaultValue
	}

	getInt := func(key string, defaultValue int) int {
		if value, exists := envMap[key]; exists {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		return defaultValue
	}

	getBool := func(key string, defaultValue bool) bool {
		if value, exists := envMap[key]; exists {
			if boolValue, err := strconv.ParseBool(value); err == nil {
				return boolValue
			}
		}
		return defaultValue
	}

	getDuration := func(key string, defaultValue time.Duration) time.Duration {
		if value, exists := envMap[key]; exists {
			if duration, err := time.ParseDuration(value); err == nil {
				return duration
			}
		}
		return defaultValue
	}

	config := &Config{
		Server: ServerConfig{
			Host:         get("HOST", "localhost"),
			Port:         getInt("SERVER_PORT", 8080),
			Debug:        getBool("DEBUG", false),
			CookieSecure: getBool("COOKIE_SECURE", false),
		},
		Turnstile: TurnstileConfig{
			BaseURL:   get("TURNSTILE_BASE_URL", ""),
			SiteKey:   get("TURNSTILE_SITE_KEY", ""),
			SecretKey: get("TURNSTILE_SECRET_KEY", ""),
			Timeout:   getDuration("TURNSTILE_TIMEOUT", defaultTurnstileTimeout),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// LoadFromFile loads configuration from a YAML, JSON or TOML file. The
// Turnstile settings are read from the cloudflareTurnstile section and the
// server settings from the server section.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := &Config{}
	if err := v.UnmarshalKey("server", &config.Server); err != nil {
		return nil, fmt.Errorf("failed to decode server section: %w", err)
	}
	if err := v.UnmarshalKey(TurnstileSection, &config.Turnstile); err != nil {
		return nil, fmt.Errorf("failed to decode %s section: %w", TurnstileSection, err)
	}

	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Turnstile.Timeout == 0 {
		config.Turnstile.Timeout = defaultTurnstileTimeout
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration values that have a fixed range
func (c *Config) Validate() error {
	var errors []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, fmt.Sprintf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Turnstile.Timeout <= 0 {
		errors = append(errors, "TURNSTILE_TIMEOUT must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if key, value, ok := strings.Cut(kv, "="); ok {
			env[key] = value
		}
	}
	return env
}
