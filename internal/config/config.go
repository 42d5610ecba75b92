package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/rcarmo/go-utf16/internal/codec/utf16"
)

// globalConfig stores the configuration loaded with command-line overrides
// This allows other packages to access the same configuration that was loaded by the server
var (
	globalConfig *Config
	configMutex  sync.Mutex
)

// ErrConfigFile is returned when the configuration file cannot be read or parsed
var ErrConfigFile = errors.New("config file")

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `json:"server" toml:"server"`
	Encoder  EncoderConfig  `json:"encoder" toml:"encoder"`
	Security SecurityConfig `json:"security" toml:"security"`
	Logging  LoggingConfig  `json:"logging" toml:"logging"`
}

// LoadOptions holds command-line override options
type LoadOptions struct {
	Host       string
	Port       string
	LogLevel   string
	ConfigFile string
	ByteOrder  string
	// Fatal and PrependBOM override the file and environment when non-nil.
	Fatal      *bool
	PrependBOM *bool
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string        `json:"host" env:"SERVER_HOST" default:"0.0.0.0"`
	Port         string        `json:"port" env:"SERVER_PORT" default:"8080"`
	ReadTimeout  time.Duration `json:"readTimeout" env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `json:"writeTimeout" env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `json:"idleTimeout" env:"SERVER_IDLE_TIMEOUT" default:"120s"`
}

// EncoderConfig holds the defaults applied to encode requests
type EncoderConfig struct {
	ByteOrder    string `json:"byteOrder" env:"ENCODER_BYTE_ORDER" default:"be"`
	Fatal        bool   `json:"fatal" env:"ENCODER_FATAL" default:"false"`
	PrependBOM   bool   `json:"prependBOM" env:"ENCODER_PREPEND_BOM" default:"false"`
	Replacement  string `json:"replacement" env:"ENCODER_REPLACEMENT" default:""`
	BufferSize   int    `json:"bufferSize" env:"ENCODER_BUFFER_SIZE" default:"4096"`
	MaxBodyBytes int64  `json:"maxBodyBytes" env:"ENCODER_MAX_BODY_BYTES" default:"1048576"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string `json:"allowedOrigins" env:"ALLOWED_ORIGINS" default:""`
	EnableTLS      bool     `json:"enableTLS" env:"ENABLE_TLS" default:"false"`
	TLSCertFile    string   `json:"tlsCertFile" env:"TLS_CERT_FILE" default:""`
	TLSKeyFile     string   `json:"tlsKeyFile" env:"TLS_KEY_FILE" default:""`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level" env:"LOG_LEVEL" default:"info"`
	Format string `json:"format" env:"LOG_FORMAT" default:"text"`
	File   string `json:"file" env:"LOG_FILE" default:""`
}

// fileConfig mirrors Config as it appears in a TOML file. Pointers tell
// absent keys from zero values.
type fileConfig struct {
	Server struct {
		Host         *string `toml:"host"`
		Port         *string `toml:"port"`
		ReadTimeout  *string `toml:"read_timeout"`
		WriteTimeout *string `toml:"write_timeout"`
		IdleTimeout  *string `toml:"idle_timeout"`
	} `toml:"server"`
	Encoder struct {
		ByteOrder    *string `toml:"byte_order"`
		Fatal        *bool   `toml:"fatal"`
		PrependBOM   *bool   `toml:"prepend_bom"`
		Replacement  *string `toml:"replacement"`
		BufferSize   *int    `toml:"buffer_size"`
		MaxBodyBytes *int64  `toml:"max_body_bytes"`
	} `toml:"encoder"`
	Security struct {
		AllowedOrigins []string `toml:"allowed_origins"`
		EnableTLS      *bool    `toml:"enable_tls"`
		TLSCertFile    *string  `toml:"tls_cert_file"`
		TLSKeyFile     *string  `toml:"tls_key_file"`
	} `toml:"security"`
	Logging struct {
		Level  *string `toml:"level"`
		Format *string `toml:"format"`
		File   *string `toml:"file"`
	} `toml:"logging"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Encoder: EncoderConfig{
			ByteOrder:    "be",
			BufferSize:   4096,
			MaxBodyBytes: 1 << 20,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	return LoadWithOverrides(LoadOptions{})
}

// LoadWithOverrides loads configuration with command-line overrides.
// Precedence, lowest first: defaults, config file, environment, overrides.
func LoadWithOverrides(opts LoadOptions) (*Config, error) {
	config := Default()

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}
	if configFile != "" {
		if err := config.applyFile(configFile); err != nil {
			return nil, err
		}
	}

	// Server config
	config.Server.Host = getOverrideOrEnv(opts.Host, "SERVER_HOST", config.Server.Host)
	config.Server.Port = getOverrideOrEnv(opts.Port, "SERVER_PORT", config.Server.Port)
	config.Server.ReadTimeout = getDurationWithDefault("SERVER_READ_TIMEOUT", config.Server.ReadTimeout)
	config.Server.WriteTimeout = getDurationWithDefault("SERVER_WRITE_TIMEOUT", config.Server.WriteTimeout)
	config.Server.IdleTimeout = getDurationWithDefault("SERVER_IDLE_TIMEOUT", config.Server.IdleTimeout)

	// Encoder config
	config.Encoder.ByteOrder = getOverrideOrEnv(opts.ByteOrder, "ENCODER_BYTE_ORDER", config.Encoder.ByteOrder)
	config.Encoder.Fatal = getBoolOverrideOrEnv(opts.Fatal, "ENCODER_FATAL", config.Encoder.Fatal)
	config.Encoder.PrependBOM = getBoolOverrideOrEnv(opts.PrependBOM, "ENCODER_PREPEND_BOM", config.Encoder.PrependBOM)
	config.Encoder.Replacement = getEnvWithDefault("ENCODER_REPLACEMENT", config.Encoder.Replacement)
	config.Encoder.BufferSize = getIntWithDefault("ENCODER_BUFFER_SIZE", config.Encoder.BufferSize)
	config.Encoder.MaxBodyBytes = getInt64WithDefault("ENCODER_MAX_BODY_BYTES", config.Encoder.MaxBodyBytes)

	// Security config
	config.Security.AllowedOrigins = getStringSliceWithDefault("ALLOWED_ORIGINS", config.Security.AllowedOrigins)
	config.Security.EnableTLS = getBoolWithDefault("ENABLE_TLS", config.Security.EnableTLS)
	config.Security.TLSCertFile = getEnvWithDefault("TLS_CERT_FILE", config.Security.TLSCertFile)
	config.Security.TLSKeyFile = getEnvWithDefault("TLS_KEY_FILE", config.Security.TLSKeyFile)

	// Logging config
	config.Logging.Level = getOverrideOrEnv(opts.LogLevel, "LOG_LEVEL", config.Logging.Level)
	config.Logging.Format = getEnvWithDefault("LOG_FORMAT", config.Logging.Format)
	config.Logging.File = getEnvWithDefault("LOG_FILE", config.Logging.File)

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Store the configuration globally so other packages can access it
	configMutex.Lock()
	globalConfig = config
	configMutex.Unlock()

	return config, nil
}

// GetGlobalConfig returns the globally stored configuration
// This should be used by packages that need access to the configuration
// loaded by the server with command-line overrides
func GetGlobalConfig() *Config {
	configMutex.Lock()
	defer configMutex.Unlock()
	return globalConfig
}

func (c *Config) applyFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfigFile, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(content, &fc); err != nil {
		return fmt.Errorf("%w %s: %w", ErrConfigFile, path, err)
	}

	setString(&c.Server.Host, fc.Server.Host)
	setString(&c.Server.Port, fc.Server.Port)
	for _, d := range []struct {
		dst *time.Duration
		src *string
		key string
	}{
		{&c.Server.ReadTimeout, fc.Server.ReadTimeout, "server.read_timeout"},
		{&c.Server.WriteTimeout, fc.Server.WriteTimeout, "server.write_timeout"},
		{&c.Server.IdleTimeout, fc.Server.IdleTimeout, "server.idle_timeout"},
	} {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("%w %s: %s: %w", ErrConfigFile, path, d.key, err)
		}
		*d.dst = v
	}

	setString(&c.Encoder.ByteOrder, fc.Encoder.ByteOrder)
	setBool(&c.Encoder.Fatal, fc.Encoder.Fatal)
	setBool(&c.Encoder.PrependBOM, fc.Encoder.PrependBOM)
	setString(&c.Encoder.Replacement, fc.Encoder.Replacement)
	if fc.Encoder.BufferSize != nil {
		c.Encoder.BufferSize = *fc.Encoder.BufferSize
	}
	if fc.Encoder.MaxBodyBytes != nil {
		c.Encoder.MaxBodyBytes = *fc.Encoder.MaxBodyBytes
	}

	if fc.Security.AllowedOrigins != nil {
		c.Security.AllowedOrigins = fc.Security.AllowedOrigins
	}
	setBool(&c.Security.EnableTLS, fc.Security.EnableTLS)
	setString(&c.Security.TLSCertFile, fc.Security.TLSCertFile)
	setString(&c.Security.TLSKeyFile, fc.Security.TLSKeyFile)

	setString(&c.Logging.Level, fc.Logging.Level)
	setString(&c.Logging.Format, fc.Logging.Format)
	setString(&c.Logging.File, fc.Logging.File)

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}

	// Validate encoder config
	if _, err := utf16.ParseByteOrder(c.Encoder.ByteOrder); err != nil {
		return err
	}

	if err := utf16.ValidateReplacement(c.Encoder.Replacement); err != nil {
		return err
	}

	if c.Encoder.BufferSize < utf16.MaxBytesPerRune {
		return fmt.Errorf("encoder buffer size must be at least %d", utf16.MaxBytesPerRune)
	}

	if c.Encoder.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive")
	}

	// Validate security config
	if c.Security.EnableTLS {
		if c.Security.TLSCertFile == "" || c.Security.TLSKeyFile == "" {
			return fmt.Errorf("TLS certificate and key files must be specified when TLS is enabled")
		}

		if _, err := os.Stat(c.Security.TLSCertFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS certificate file does not exist: %s", c.Security.TLSCertFile)
		}

		if _, err := os.Stat(c.Security.TLSKeyFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS key file does not exist: %s", c.Security.TLSKeyFile)
		}
	}

	// Validate logging config
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}

	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceWithDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return splitString(value, ",")
	}
	return defaultValue
}

// getOverrideOrEnv returns command-line override value, env value, or default
func getOverrideOrEnv(override, envKey, defaultValue string) string {
	if override != "" {
		return override
	}
	return getEnvWithDefault(envKey, defaultValue)
}

func getBoolOverrideOrEnv(override *bool, envKey string, defaultValue bool) bool {
	if override != nil {
		return *override
	}
	return getBoolWithDefault(envKey, defaultValue)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func splitString(s, sep string) []string {
	if s == "" {
		return []string{}
	}

	var result []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
