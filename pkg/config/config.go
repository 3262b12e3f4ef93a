package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store"
)

const (
	DefaultConfigPath = "/etc/secrets-in-go"
	ConfigFileName    = "secrets.yml"

	DefaultSocketPath     = "/run/secrets-in-go/secrets.socket"
	DefaultDBPath         = "/var/lib/secrets-in-go/db"
	DefaultRequestTimeout = 15
)

// Attribute sources
const (
	SourceDefault     = "default"
	SourceFile        = "file"
	SourceEnvironment = "environment"
)

// ValidLogFormats is the list of supported log encoders
var ValidLogFormats = []string{"json", "console"}

// SecretsConfig holds all daemon configuration settings
type SecretsConfig struct {
	// SocketPath is the Unix socket the daemon listens on
	SocketPath string `json:"socket_path"`

	// DBPath is the directory holding the namespace files
	DBPath string `json:"db_path"`

	// MaxSecrets is the number of secrets a principal may hold, -1 for no limit
	MaxSecrets int `json:"max_secrets"`

	// MaxPayloadSize is the largest secret value in bytes
	MaxPayloadSize int64 `json:"max_payload_size"`

	// MaxNestLevel is the deepest level a container may sit at
	MaxNestLevel int `json:"max_nest_level"`

	// RequestTimeout is the per-request timeout in seconds
	RequestTimeout int `json:"request_timeout"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	MetricsEnabled bool `json:"metrics_enabled"`
	AuditEnabled   bool `json:"audit_enabled"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// fileConfig is the on-disk form. Pointers tell an explicit zero from an
// absent key.
type fileConfig struct {
	SocketPath     *string `yaml:"socket_path"`
	DBPath         *string `yaml:"db_path"`
	MaxSecrets     *int    `yaml:"max_secrets"`
	MaxPayloadSize *string `yaml:"max_payload_size"`
	MaxNestLevel   *int    `yaml:"max_nest_level"`
	RequestTimeout *int    `yaml:"request_timeout"`
	LogLevel       *string `yaml:"log_level"`
	LogFormat      *string `yaml:"log_format"`
	MetricsEnabled *bool   `yaml:"metrics_enabled"`
	AuditEnabled   *bool   `yaml:"audit_enabled"`
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *SecretsConfig
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *SecretsConfig {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			// Return defaults on error
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment and returns it.
// The previous configuration is kept when loading or validation fails.
func Reload() (*SecretsConfig, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return cfg, nil
}

// Default returns the built-in configuration. Neither the config file nor
// the environment is consulted.
func Default() *SecretsConfig {
	return newDefault()
}

// newDefault returns a config with default values
func newDefault() *SecretsConfig {
	c := &SecretsConfig{
		SocketPath:     DefaultSocketPath,
		DBPath:         DefaultDBPath,
		MaxSecrets:     store.DefaultLimits().MaxSecrets,
		MaxPayloadSize: store.DefaultMaxPayloadSize,
		MaxNestLevel:   store.DefaultMaxNestLevel,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       "info",
		LogFormat:      "json",
		MetricsEnabled: true,
		AuditEnabled:   true,
		sources:        make(map[string]string),
	}
	for _, name := range attributeNames() {
		c.sources[name] = SourceDefault
	}
	return c
}

// FilePath returns the config file location derived from SECRETS_CONFIG_PATH.
func FilePath() string {
	configPath := os.Getenv("SECRETS_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	return filepath.Join(configPath, ConfigFileName)
}

// Load loads configuration from file and environment variables
// Environment variables take precedence over file values
func Load() (*SecretsConfig, error) {
	config := newDefault()
	config.configFilePath = FilePath()

	data, err := os.ReadFile(config.configFilePath)
	switch {
	case err == nil:
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		if err := config.applyFileConfig(&file); err != nil {
			return nil, fmt.Errorf("config file %s: %w", config.configFilePath, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read config file %s: %w", config.configFilePath, err)
	}

	if err := config.applyEnvConfig(); err != nil {
		return nil, err
	}
	return config, nil
}

func attributeNames() []string {
	return []string{
		"socket_path", "db_path", "max_secrets", "max_payload_size",
		"max_nest_level", "request_timeout", "log_level", "log_format",
		"metrics_enabled", "audit_enabled",
	}
}

func (c *SecretsConfig) applyFileConfig(file *fileConfig) error {
	if file.SocketPath != nil {
		c.SocketPath = *file.SocketPath
		c.sources["socket_path"] = SourceFile
	}
	if file.DBPath != nil {
		c.DBPath = *file.DBPath
		c.sources["db_path"] = SourceFile
	}
	if file.MaxSecrets != nil {
		c.MaxSecrets = *file.MaxSecrets
		c.sources["max_secrets"] = SourceFile
	}
	if file.MaxPayloadSize != nil {
		size, err := ParseSize(*file.MaxPayloadSize)
		if err != nil {
			return fmt.Errorf("invalid max_payload_size: %w", err)
		}
		c.MaxPayloadSize = size
		c.sources["max_payload_size"] = SourceFile
	}
	if file.MaxNestLevel != nil {
		c.MaxNestLevel = *file.MaxNestLevel
		c.sources["max_nest_level"] = SourceFile
	}
	if file.RequestTimeout != nil {
		c.RequestTimeout = *file.RequestTimeout
		c.sources["request_timeout"] = SourceFile
	}
	if file.LogLevel != nil {
		c.LogLevel = *file.LogLevel
		c.sources["log_level"] = SourceFile
	}
	if file.LogFormat != nil {
		c.LogFormat = *file.LogFormat
		c.sources["log_format"] = SourceFile
	}
	if file.MetricsEnabled != nil {
		c.MetricsEnabled = *file.MetricsEnabled
		c.sources["metrics_enabled"] = SourceFile
	}
	if file.AuditEnabled != nil {
		c.AuditEnabled = *file.AuditEnabled
		c.sources["audit_enabled"] = SourceFile
	}
	return nil
}

func (c *SecretsConfig) applyEnvConfig() error {
	if val := os.Getenv("SECRETS_SOCKET_PATH"); val != "" {
		c.SocketPath = val
		c.sources["socket_path"] = SourceEnvironment
	}
	if val := os.Getenv("SECRETS_DB_PATH"); val != "" {
		c.DBPath = val
		c.sources["db_path"] = SourceEnvironment
	}
	if val := os.Getenv("SECRETS_MAX_SECRETS"); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid SECRETS_MAX_SECRETS: %w", err)
		}
		c.MaxSecrets = i
		c.sources["max_secrets"] = SourceEnvironment
	}
	if val := os.Getenv("SECRETS_MAX_PAYLOAD_SIZE"); val != "" {
		size, err := ParseSize(val)
		if err != nil {
			return fmt.Errorf("invalid SECRETS_MAX_PAYLOAD_SIZE: %w", err)
		}
		c.MaxPayloadSize = size
		c.sources["max_payload_size"] = SourceEnvironment
	}
	if val := os.Getenv("SECRETS_MAX_NEST_LEVEL"); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid SECRETS_MAX_NEST_LEVEL: %w", err)
		}
		c.MaxNestLevel = i
		c.sources["max_nest_level"] = SourceEnvironment
	}
	if val := os.Getenv("SECRETS_REQUEST_TIMEOUT"); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid SECRETS_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = i
		c.sources["request_timeout"] = SourceEnvironment
	}
	if val := os.Getenv("SECRETS_LOG_LEVEL"); val != "" {
		c.LogLevel = val
		c.sources["log_level"] = SourceEnvironment
	}
	if val := os.Getenv("SECRETS_LOG_FORMAT"); val != "" {
		c.LogFormat = val
		c.sources["log_format"] = SourceEnvironment
	}
	if val := os.Getenv("SECRETS_METRICS_ENABLED"); val != "" {
		c.MetricsEnabled = val == "true" || val == "1"
		c.sources["metrics_enabled"] = SourceEnvironment
	}
	if val := os.Getenv("SECRETS_AUDIT_ENABLED"); val != "" {
		c.AuditEnabled = val == "true" || val == "1"
		c.sources["audit_enabled"] = SourceEnvironment
	}
	return nil
}

// ParseSize parses a size such as "2KiB" or "2048". Units are binary and a
// bare number is a count of bytes.
func ParseSize(s string) (int64, error) {
	return units.RAMInBytes(strings.TrimSpace(s))
}

// ConfigFilePath returns the path to the config file
func (c *SecretsConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *SecretsConfig) Source(name string) string {
	if c.sources == nil {
		return SourceDefault
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return SourceDefault
}

// Timeout returns the request timeout as a duration
func (c *SecretsConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Limits returns the limits the namespaces enforce
func (c *SecretsConfig) Limits() store.Limits {
	return store.Limits{
		MaxSecrets:     c.MaxSecrets,
		MaxPayloadSize: c.MaxPayloadSize,
		MaxNestLevel:   c.MaxNestLevel,
	}
}

// Validate validates the configuration
func (c *SecretsConfig) Validate() error {
	if !filepath.IsAbs(c.SocketPath) {
		return fmt.Errorf("socket_path must be absolute: %q", c.SocketPath)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path must be set")
	}
	if c.MaxSecrets < -1 {
		return fmt.Errorf("invalid max_secrets value: %d", c.MaxSecrets)
	}
	if c.MaxPayloadSize <= 0 {
		return fmt.Errorf("max_payload_size must be positive: %d", c.MaxPayloadSize)
	}
	if c.MaxNestLevel < 0 {
		return fmt.Errorf("max_nest_level must not be negative: %d", c.MaxNestLevel)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive: %d", c.RequestTimeout)
	}

	validFormat := false
	for _, f := range ValidLogFormats {
		if c.LogFormat == f {
			validFormat = true
		}
	}
	if !validFormat {
		return fmt.Errorf("invalid log_format: %s", c.LogFormat)
	}
	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *SecretsConfig) Attributes() []Attribute {
	return []Attribute{
		{Name: "socket_path", Value: c.SocketPath, Source: c.Source("socket_path")},
		{Name: "db_path", Value: c.DBPath, Source: c.Source("db_path")},
		{Name: "max_secrets", Value: strconv.Itoa(c.MaxSecrets), Source: c.Source("max_secrets")},
		{Name: "max_payload_size", Value: units.BytesSize(float64(c.MaxPayloadSize)), Source: c.Source("max_payload_size")},
		{Name: "max_nest_level", Value: strconv.Itoa(c.MaxNestLevel), Source: c.Source("max_nest_level")},
		{Name: "request_timeout", Value: strconv.Itoa(c.RequestTimeout), Source: c.Source("request_timeout")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
		{Name: "log_format", Value: c.LogFormat, Source: c.Source("log_format")},
		{Name: "metrics_enabled", Value: strconv.FormatBool(c.MetricsEnabled), Source: c.Source("metrics_enabled")},
		{Name: "audit_enabled", Value: strconv.FormatBool(c.AuditEnabled), Source: c.Source("audit_enabled")},
	}
}

// FormatText returns a text representation of the configuration
func (c *SecretsConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-20s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *SecretsConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
