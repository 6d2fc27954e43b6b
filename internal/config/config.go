// ABOUTME: Configuration loading and parsing for campus-gateway
// ABOUTME: Supports YAML or TOML files with environment variable expansion, defaults and validation

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/2389/campus-gateway/internal/store"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "CAMPUS_CONFIG"

// Defaults applied by Load when a field is omitted.
const (
	DefaultIssuer            = "campus-gateway"
	DefaultTokenTTL          = 2 * time.Hour
	DefaultRequestsPerMinute = 10
	DefaultBurst             = 5
	DefaultMaxClients        = 10000
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

// minSecretLength mirrors auth.MinSecretLength so a short secret fails at load time.
const minSecretLength = 32

// Config represents the complete campus-gateway configuration
type Config struct {
	Server        ServerConfig        `yaml:"server" toml:"server"`
	Database      DatabaseConfig      `yaml:"database" toml:"database"`
	Auth          AuthConfig          `yaml:"auth" toml:"auth"`
	CORS          CORSConfig          `yaml:"cors" toml:"cors"`
	Authorization AuthorizationConfig `yaml:"authorization" toml:"authorization"`
	Logging       LoggingConfig       `yaml:"logging" toml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// AuthConfig holds token and credential configuration
type AuthConfig struct {
	JWTSecret      Secret               `yaml:"jwt_secret" toml:"jwt_secret"`
	Issuer         string               `yaml:"issuer" toml:"issuer"`
	BcryptCost     int                  `yaml:"bcrypt_cost" toml:"bcrypt_cost"`
	LoginRateLimit LoginRateLimitConfig `yaml:"login_rate_limit" toml:"login_rate_limit"`

	TokenTTL time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	TokenTTLRaw string `yaml:"token_ttl" toml:"token_ttl"`
}

// LoginRateLimitConfig throttles /auth/login and /auth/register per client address
type LoginRateLimitConfig struct {
	Disabled          bool `yaml:"disabled" toml:"disabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" toml:"requests_per_minute"`
	Burst             int  `yaml:"burst" toml:"burst"`
	MaxClients        int  `yaml:"max_clients" toml:"max_clients"`
}

// CORSConfig enables cross-origin requests from browser clients.
// An empty AllowedOrigins list disables CORS handling.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
}

// AuthorizationConfig holds route rules evaluated after the built-in table
type AuthorizationConfig struct {
	Rules []RuleConfig `yaml:"rules" toml:"rules"`
}

// RuleConfig is one authorization rule. A rule that is not public and lists no
// roles admits any authenticated caller.
type RuleConfig struct {
	Method  string       `yaml:"method" toml:"method"`
	Pattern string       `yaml:"pattern" toml:"pattern"`
	Public  bool         `yaml:"public" toml:"public"`
	Roles   []store.Role `yaml:"roles" toml:"roles"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data, formatFor(path))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Format identifies a config file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes, defaults and validates raw configuration content.
func Parse(data []byte, format Format) (*Config, error) {
	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	var cfg Config
	switch format {
	case FormatTOML:
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Auth.TokenTTLRaw != "" {
		ttl, err := time.ParseDuration(cfg.Auth.TokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing token_ttl %q: %w", cfg.Auth.TokenTTLRaw, err)
		}
		cfg.Auth.TokenTTL = ttl
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = DefaultIssuer
	}
	if cfg.Auth.TokenTTLRaw == "" {
		cfg.Auth.TokenTTL = DefaultTokenTTL
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}

	rl := &cfg.Auth.LoginRateLimit
	if rl.RequestsPerMinute == 0 {
		rl.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if rl.Burst == 0 {
		rl.Burst = DefaultBurst
	}
	if rl.MaxClients == 0 {
		rl.MaxClients = DefaultMaxClients
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.JWTSecret.Value() == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if len(c.Auth.JWTSecret.Value()) < minSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", minSecretLength)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	rl := c.Auth.LoginRateLimit
	if rl.RequestsPerMinute < 0 || rl.Burst < 0 || rl.MaxClients < 0 {
		return fmt.Errorf("auth.login_rate_limit values must not be negative")
	}

	for i, rule := range c.Authorization.Rules {
		if strings.TrimSpace(rule.Pattern) == "" {
			return fmt.Errorf("authorization.rules[%d].pattern is required", i)
		}
		if rule.Public && len(rule.Roles) > 0 {
			return fmt.Errorf("authorization.rules[%d] cannot be public and list roles", i)
		}
		for _, role := range rule.Roles {
			if !role.Valid() {
				return fmt.Errorf("authorization.rules[%d]: %w: %q", i, store.ErrUnknownRole, role)
			}
		}
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// ResolvePath picks the config file: the explicit flag value, then $CAMPUS_CONFIG,
// then $XDG_CONFIG_HOME/campus/gateway.yaml (~/.config when XDG_CONFIG_HOME is unset).
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}

	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "campus", "gateway.yaml")
}
