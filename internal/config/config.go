package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
)

// Supported cache backends
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config represents the application configuration
type Config struct {
	Server ServerConfig `koanf:"server"`
	Admin  AdminConfig  `koanf:"admin"`
	Cache  CacheConfig  `koanf:"cache"`
	Rules  RulesConfig  `koanf:"rules"`
	Log    LogConfig    `koanf:"log"`
}

// ServerConfig contains proxy server configuration
type ServerConfig struct {
	Port  int         `koanf:"port" env:"PROXIMATE_PORT"`
	HTTPS HTTPSConfig `koanf:"https"`
}

// HTTPSConfig contains TLS interception configuration
type HTTPSConfig struct {
	Enabled         bool   `koanf:"enabled" env:"PROXIMATE_HTTPS_ENABLED"`
	CACertFile      string `koanf:"ca_cert_file" env:"PROXIMATE_CA_CERT_FILE"`
	CAKeyFile       string `koanf:"ca_key_file" env:"PROXIMATE_CA_KEY_FILE"`
	TransparentAddr string `koanf:"transparent_addr" env:"PROXIMATE_TRANSPARENT_ADDR"`
}

// AdminConfig contains the cache inspection API configuration
type AdminConfig struct {
	Port int `koanf:"port" env:"PROXIMATE_ADMIN_PORT"`
}

// CacheConfig contains cache storage configuration
type CacheConfig struct {
	Backend string       `koanf:"backend" env:"PROXIMATE_CACHE_BACKEND"`
	Path    string       `koanf:"path" env:"PROXIMATE_CACHE_PATH"`
	Redis   RedisConfig  `koanf:"redis"`
	SQLite  SQLiteConfig `koanf:"sqlite"`
}

// RedisConfig contains the redis backend configuration
type RedisConfig struct {
	Addr   string `koanf:"addr" env:"PROXIMATE_REDIS_ADDR"`
	DB     int    `koanf:"db" env:"PROXIMATE_REDIS_DB"`
	Prefix string `koanf:"prefix" env:"PROXIMATE_REDIS_PREFIX"`
}

// SQLiteConfig contains the sqlite backend configuration
type SQLiteConfig struct {
	Path string `koanf:"path" env:"PROXIMATE_SQLITE_PATH"`
}

// RulesConfig contains caching rules configuration
type RulesConfig struct {
	Mode  string      `koanf:"mode" env:"PROXIMATE_RULES_MODE"` // "whitelist" or "blacklist"
	Rules []CacheRule `koanf:"rules"`
}

// CacheRule defines a caching rule
type CacheRule struct {
	BaseURI     string   `koanf:"base_uri"`
	Methods     []string `koanf:"methods"`
	StatusCodes []string `koanf:"status_codes"` // "200", "4xx"
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string `koanf:"level" env:"PROXIMATE_LOG_LEVEL"`
}

// Default returns the configuration used for keys missing from the file
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Admin:  AdminConfig{Port: 8081},
		Cache: CacheConfig{
			Backend: BackendFile,
			Path:    "./cache/storage",
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "proximate"},
			SQLite:  SQLiteConfig{Path: "./cache/proximate.db"},
		},
		Rules: RulesConfig{Mode: "blacklist"},
		Log:   LogConfig{Level: "info"},
	}
}

// Load loads configuration from a YAML file, then applies PROXIMATE_* environment overrides
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading default config: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	logrus.Debugf("Loaded config from %s", path)
	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Admin.Port < 0 || c.Admin.Port > 65535 {
		return fmt.Errorf("invalid admin port: %d", c.Admin.Port)
	}

	if err := c.Cache.Validate(); err != nil {
		return err
	}

	if c.Rules.Mode != "whitelist" && c.Rules.Mode != "blacklist" {
		return fmt.Errorf("rules mode must be 'whitelist' or 'blacklist', got: %s", c.Rules.Mode)
	}

	for _, rule := range c.Rules.Rules {
		for _, pattern := range rule.StatusCodes {
			if !statusPattern.MatchString(strings.ToLower(pattern)) {
				return fmt.Errorf("invalid status code pattern %q for %s", pattern, rule.BaseURI)
			}
		}
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	return nil
}

// Validate validates the cache storage configuration
func (c *CacheConfig) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.Path == "" {
			return fmt.Errorf("cache path is required")
		}
		if filepath.Base(filepath.Clean(c.Path)) == string(filepath.Separator) {
			return fmt.Errorf("cache path %q needs a leaf directory name", c.Path)
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required")
		}
		if c.Redis.Prefix == "" {
			return fmt.Errorf("redis prefix is required")
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("cache backend must be '%s', '%s' or '%s', got: %s", BackendFile, BackendRedis, BackendSQLite, c.Backend)
	}
	return nil
}

var statusPattern = regexp.MustCompile(`^[1-5]([0-9]{2}|xx|[0-9]x)$`)

// MatchesStatusCode reports whether code matches a pattern such as "200", "4xx" or "50x"
func MatchesStatusCode(code int, pattern string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if !statusPattern.MatchString(pattern) {
		return false
	}

	digits := strconv.Itoa(code)
	if len(digits) != 3 {
		return false
	}
	for i := range 3 {
		if pattern[i] != 'x' && pattern[i] != digits[i] {
			return false
		}
	}
	return true
}
