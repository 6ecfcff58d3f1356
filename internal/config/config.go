// ABOUTME: Configuration loading and parsing for chaos-portal
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete chaos-portal configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Login    LoginConfig    `yaml:"login"`
	Session  SessionConfig  `yaml:"session"`
	Database DatabaseConfig `yaml:"database"`
	Pages    PagesConfig    `yaml:"pages"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// BasePath is the deployment path prefix, preserved in redirects.
	// Empty means the portal is mounted at the root.
	BasePath string `yaml:"base_path"`
}

// LoginConfig holds the single configured principal.
type LoginConfig struct {
	Username string `yaml:"username"`
	// PasswordHash is a bcrypt hash of the password, generated offline
	// via `chaos-portal hash`. The plaintext password is never configured.
	PasswordHash string `yaml:"password_hash"`
}

// SessionConfig holds session and cookie configuration.
type SessionConfig struct {
	CookieName     string `yaml:"cookie_name"`
	AuthCookieName string `yaml:"auth_cookie_name"`
	// InsecureCookies drops the Secure cookie attribute for plain-HTTP
	// development setups. Leave off in production.
	InsecureCookies bool `yaml:"insecure_cookies"`

	IdleTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	IdleTimeoutRaw string `yaml:"idle_timeout"`
}

// DatabaseConfig holds session store configuration.
type DatabaseConfig struct {
	Path string `yaml:"path"`
	// Ephemeral keeps sessions in memory only; Path is ignored.
	Ephemeral bool `yaml:"ephemeral"`
}

// PagesConfig holds the public-page policy sets. Empty slices fall back to
// the policy package defaults.
type PagesConfig struct {
	Public             []string `yaml:"public"`
	ProtectedOverrides []string `yaml:"protected_overrides"`
	ResourcePrefixes   []string `yaml:"resource_prefixes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultIdleTimeout applies when session.idle_timeout is not configured.
const DefaultIdleTimeout = 30 * time.Minute

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in values that may be omitted from the config file.
func (c *Config) applyDefaults() {
	if c.Session.CookieName == "" {
		c.Session.CookieName = "chaos_session"
	}
	if c.Session.AuthCookieName == "" {
		c.Session.AuthCookieName = "chaos_auth"
	}
	if c.Session.IdleTimeout == 0 {
		c.Session.IdleTimeout = DefaultIdleTimeout
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.base_path must start with /")
	}
	if strings.HasSuffix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.base_path must not end with /")
	}

	if c.Login.Username == "" {
		return fmt.Errorf("login.username is required")
	}
	if c.Login.PasswordHash == "" {
		return fmt.Errorf("login.password_hash is required (generate one with: chaos-portal hash)")
	}

	if !c.Database.Ephemeral && c.Database.Path == "" {
		return fmt.Errorf("database.path is required (or set database.ephemeral)")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	if cfg.Session.IdleTimeoutRaw != "" {
		var err error
		cfg.Session.IdleTimeout, err = time.ParseDuration(cfg.Session.IdleTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing idle_timeout %q: %w", cfg.Session.IdleTimeoutRaw, err)
		}
	}
	return nil
}
