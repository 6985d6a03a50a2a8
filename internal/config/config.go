// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"parcel-owners/internal/owners"
	"parcel-owners/internal/paths"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidNameOrder is returned for a name_order other than auto, last_first or first_last.
	ErrInvalidNameOrder = errors.New("invalid name order")
	// ErrInvalidFormat is returned for an output format no formatter provides.
	ErrInvalidFormat = errors.New("invalid output format")
	// ErrInvalidSinkDriver is returned for a sink driver other than sqlite or oracle.
	ErrInvalidSinkDriver = errors.New("invalid sink driver")
	// ErrUnknownProfile is returned when a requested profile is not defined.
	ErrUnknownProfile = errors.New("unknown profile")
)

// Formats lists the output formats a configuration may name.
var Formats = []string{"json", "yaml", "text", "csv"}

// Drivers lists the sink drivers a configuration may name.
var Drivers = []string{"sqlite", "oracle"}

// Config represents the application configuration
type Config struct {
	// Default settings
	Defaults Defaults `yaml:"defaults" toml:"defaults"`

	// Persistence sink used by `timeline --sink`
	Sink SinkConfig `yaml:"sink" toml:"sink"`

	// Profiles for different county record conventions
	Profiles map[string]Profile `yaml:"profiles" toml:"profiles"`
}

// Defaults apply when neither a flag nor a profile says otherwise.
type Defaults struct {
	Format     string `yaml:"format" toml:"format"`
	Verbose    bool   `yaml:"verbose" toml:"verbose"`
	Debug      bool   `yaml:"debug" toml:"debug"`
	NoColor    bool   `yaml:"no_color" toml:"no_color"`
	NameOrder  string `yaml:"name_order" toml:"name_order"`
	Vocabulary string `yaml:"vocabulary" toml:"vocabulary"` // Path of a vocabulary extension file
	Workers    int    `yaml:"workers" toml:"workers"`
}

// SinkConfig holds database connection settings. DSN wins over the
// individual oracle fields when both are given.
type SinkConfig struct {
	Driver         string `yaml:"driver" toml:"driver"`
	DSN            string `yaml:"dsn" toml:"dsn"`
	Host           string `yaml:"host" toml:"host"`
	Port           string `yaml:"port" toml:"port"`
	Service        string `yaml:"service" toml:"service"`
	Username       string `yaml:"username" toml:"username"`
	Password       string `yaml:"password" toml:"password"`
	WalletLocation string `yaml:"wallet_location" toml:"wallet_location"`
	MaxRetries     int    `yaml:"max_retries" toml:"max_retries"`
}

// Profile represents a county profile with specific settings
type Profile struct {
	Description string             `yaml:"description" toml:"description"`
	Format      string             `yaml:"format" toml:"format"`
	NameOrder   string             `yaml:"name_order" toml:"name_order"`
	Vocabulary  string             `yaml:"vocabulary" toml:"vocabulary"`
	Extend      *owners.Vocabulary `yaml:"extend,omitempty" toml:"extend,omitempty"`
}

// builtinProfiles are available without a config file. A profile of the
// same name in a config file replaces them.
func builtinProfiles() map[string]Profile {
	return map[string]Profile{
		"assessor_roll": {
			Description: "Assessor rolls: comma-less names read surname first",
			NameOrder:   string(owners.NameOrderLastFirst),
		},
		"deed_index": {
			Description: "Deed indexes: comma-less names read given name first",
			NameOrder:   string(owners.NameOrderFirstLast),
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	config := &Config{Profiles: builtinProfiles()}
	config.Defaults.Format = "json"
	config.Defaults.NameOrder = string(owners.NameOrderAuto)
	config.Sink.Driver = "sqlite"
	config.Sink.Port = "1521"
	config.Sink.MaxRetries = 5
	return config
}

// LoadConfig loads configuration from the specified file path. YAML and
// TOML are chosen by extension; anything else is read as YAML.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	// If no config file specified, return default config
	if configPath == "" {
		applyEnv(config)
		return config, nil
	}

	cleanPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Profiles decode into a fresh map so built-ins survive unless replaced.
	loaded := Default()
	loaded.Profiles = nil
	if strings.EqualFold(filepath.Ext(cleanPath), ".toml") {
		err = toml.Unmarshal(data, loaded)
	} else {
		err = yaml.Unmarshal(data, loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	for name, profile := range loaded.Profiles {
		config.Profiles[name] = profile
	}
	loaded.Profiles = config.Profiles
	config = loaded

	// Relative vocabulary paths are relative to the config file.
	baseDir := filepath.Dir(cleanPath)
	config.Defaults.Vocabulary = resolvePath(baseDir, config.Defaults.Vocabulary)
	for name, profile := range config.Profiles {
		profile.Vocabulary = resolvePath(baseDir, profile.Vocabulary)
		config.Profiles[name] = profile
	}

	applyEnv(config)

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// applyEnv lets the environment supply sink credentials so they need not
// live in the config file.
func applyEnv(config *Config) {
	s := &config.Sink
	s.Driver = getEnvOrDefault("PARCEL_OWNERS_SINK_DRIVER", s.Driver)
	s.DSN = getEnvOrDefault("PARCEL_OWNERS_SINK_DSN", s.DSN)
	s.Host = getEnvOrDefault("PARCEL_OWNERS_DB_HOST", s.Host)
	s.Port = getEnvOrDefault("PARCEL_OWNERS_DB_PORT", s.Port)
	s.Service = getEnvOrDefault("PARCEL_OWNERS_DB_SERVICE", s.Service)
	s.Username = getEnvOrDefault("PARCEL_OWNERS_DB_USERNAME", s.Username)
	s.Password = getEnvOrDefault("PARCEL_OWNERS_DB_PASSWORD", s.Password)
	s.WalletLocation = getEnvOrDefault("PARCEL_OWNERS_DB_WALLET_LOCATION", s.WalletLocation)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FindConfigFile looks for a configuration file in standard locations
func FindConfigFile() string {
	for _, name := range []string{
		"parcel-owners.yaml", "parcel-owners.yml", "parcel-owners.toml",
		".parcel-owners.yaml", ".parcel-owners.yml",
	} {
		if fileExists(name) {
			return name
		}
	}

	if standardConfig := paths.GetConfigFile(); fileExists(standardConfig) {
		return standardConfig
	}
	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ListProfiles returns the available profile names, sorted
func (c *Config) ListProfiles() []string {
	profiles := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		profiles = append(profiles, name)
	}
	sort.Strings(profiles)
	return profiles
}

// GetProfile returns a profile by name, or nil if not found
func (c *Config) GetProfile(name string) *Profile {
	if profile, exists := c.Profiles[name]; exists {
		return &profile
	}
	return nil
}

// ValidateConfig rejects unknown formats, name orders and sink drivers.
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateFormat(config.Defaults.Format); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if err := validateNameOrder(config.Defaults.NameOrder); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if config.Defaults.Workers < 0 {
		return fmt.Errorf("defaults: workers must not be negative, got %d", config.Defaults.Workers)
	}

	if config.Sink.Driver != "" && !contains(Drivers, config.Sink.Driver) {
		return fmt.Errorf("sink: %w %q (valid: %s)", ErrInvalidSinkDriver, config.Sink.Driver, strings.Join(Drivers, ", "))
	}

	for _, name := range config.ListProfiles() {
		profile := config.Profiles[name]
		if profile.Format != "" {
			if err := validateFormat(profile.Format); err != nil {
				return fmt.Errorf("profile %s: %w", name, err)
			}
		}
		if err := validateNameOrder(profile.NameOrder); err != nil {
			return fmt.Errorf("profile %s: %w", name, err)
		}
	}

	return nil
}

func validateFormat(format string) error {
	if !contains(Formats, format) {
		return fmt.Errorf("%w %q (valid: %s)", ErrInvalidFormat, format, strings.Join(Formats, ", "))
	}
	return nil
}

func validateNameOrder(order string) error {
	if _, err := owners.ParseNameOrder(order); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNameOrder, err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// LoadConfigOrDefault loads configuration from configFile (or searches standard locations
// when configFile is empty). If loading fails, it returns the default configuration
// together with the error so the caller can warn about it.
func LoadConfigOrDefault(configFile string) (*Config, error) {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		cfg, _ = LoadConfig("")
		return cfg, err
	}
	return cfg, nil
}
