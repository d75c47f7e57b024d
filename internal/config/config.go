// Package config loads service configuration from flags, the environment,
// .env files and defaults, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/anditianred/ao3-api/internal/cache"
	"github.com/anditianred/ao3-api/internal/catalog"
	"github.com/anditianred/ao3-api/internal/logger"
	"github.com/anditianred/ao3-api/internal/validation"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Cache    CacheConfig
	Catalog  CatalogConfig
	Runner   RunnerConfig
	TagIndex TagIndexConfig
	Server   ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// CacheConfig holds page cache configuration.
type CacheConfig struct {
	Dir     string        // Cache root (default: ~/.cache/ao3-api)
	Backend cache.Backend // sqlite (default, multi-process) or badger (single process)
	MaxAge  time.Duration // Zero keeps pages forever
}

// CatalogConfig holds the remote catalog client configuration.
type CatalogConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RPS       float64
	Burst     int
	UserAgent string
}

// RunnerConfig holds background search configuration.
type RunnerConfig struct {
	Workers int
}

// TagIndexConfig holds local tag index configuration.
type TagIndexConfig struct {
	Enabled bool
	Path    string // default: {cache dir}/tags
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
	// Per-client request limit for search endpoints; zero disables it.
	ClientRPS   float64
	ClientBurst int
	// Keepalive interval of the job event stream.
	EventHeartbeat time.Duration
}

// Load reads configuration with precedence:
// 1. Command-line flags in args (highest priority).
// 2. Environment variables.
// 3. .env file (see -env-file).
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("ao3-api", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	cacheDir := fs.String("cache-dir", "", "Cache directory")
	cacheBackend := fs.String("cache-backend", "", "Cache index backend: sqlite (default) or badger (single process only)")
	cacheMaxAge := fs.String("cache-max-age", "", "Expire cached pages after this long (0 = never)")

	baseURL := fs.String("catalog-url", "", "Catalog base URL")
	catalogTimeout := fs.String("catalog-timeout", "", "Catalog request timeout (default: 30s)")
	catalogRPS := fs.String("catalog-rps", "", "Catalog requests per second (default: 0.5)")
	catalogBurst := fs.String("catalog-burst", "", "Catalog request burst (default: 2)")
	userAgent := fs.String("user-agent", "", "User-Agent sent to the catalog")

	workers := fs.String("workers", "", "Concurrent background searches (default: 4)")
	tagIndex := fs.String("tag-index", "", "Index works from search results (default: true)")
	tagIndexPath := fs.String("tag-index-path", "", "Tag index directory")

	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 60s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins (default: *)")
	clientRPS := fs.String("client-rps", "", "Search requests per second per client (default: 0, unlimited)")
	clientBurst := fs.String("client-burst", "", "Search request burst per client (default: 5)")
	eventHeartbeat := fs.String("event-heartbeat", "", "Job event stream keepalive interval (default: 30s)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// godotenv never overrides variables already set in the environment.
	if _, err := os.Stat(*envFile); err == nil {
		if err := godotenv.Load(*envFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", *envFile, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Cache: CacheConfig{
			Dir:     getConfigValue(*cacheDir, "CACHE_DIR", ""),
			Backend: cache.Backend(getConfigValue(*cacheBackend, "CACHE_INDEX_BACKEND", string(cache.BackendSQLite))),
		},
		Catalog: CatalogConfig{
			BaseURL:   strings.TrimRight(getConfigValue(*baseURL, "CATALOG_BASE_URL", catalog.DefaultBaseURL), "/"),
			UserAgent: getConfigValue(*userAgent, "CATALOG_USER_AGENT", ""),
		},
		TagIndex: TagIndexConfig{
			Path: getConfigValue(*tagIndexPath, "TAG_INDEX_PATH", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*port, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "SERVER_CORS_ORIGINS", "*")),
		},
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg.Cache.MaxAge = parseDuration(getConfigValue(*cacheMaxAge, "CACHE_MAX_AGE", "0"), "cache max age", collect)
	cfg.Catalog.Timeout = parseDuration(getConfigValue(*catalogTimeout, "CATALOG_TIMEOUT", "30s"), "catalog timeout", collect)
	cfg.Server.ReadTimeout = parseDuration(getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"), "read timeout", collect)
	cfg.Server.WriteTimeout = parseDuration(getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "60s"), "write timeout", collect)
	cfg.Server.IdleTimeout = parseDuration(getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"), "idle timeout", collect)
	cfg.Server.EventHeartbeat = parseDuration(getConfigValue(*eventHeartbeat, "SERVER_EVENT_HEARTBEAT", "30s"), "event heartbeat", collect)

	rps, err := strconv.ParseFloat(getConfigValue(*catalogRPS, "CATALOG_RPS", "0.5"), 64)
	if err != nil {
		collect(fmt.Errorf("invalid catalog rps: %w", err))
	}
	cfg.Catalog.RPS = rps

	clientLimit, err := strconv.ParseFloat(getConfigValue(*clientRPS, "SERVER_CLIENT_RPS", "0"), 64)
	if err != nil {
		collect(fmt.Errorf("invalid client rps: %w", err))
	}
	cfg.Server.ClientRPS = clientLimit
	cfg.Server.ClientBurst = getIntConfigValue(*clientBurst, "SERVER_CLIENT_BURST", 5, "client burst", collect)

	cfg.Catalog.Burst = getIntConfigValue(*catalogBurst, "CATALOG_BURST", 2, "catalog burst", collect)
	cfg.Runner.Workers = getIntConfigValue(*workers, "RUNNER_WORKERS", 4, "runner workers", collect)
	cfg.TagIndex.Enabled = getBoolConfigValue(*tagIndex, "TAG_INDEX_ENABLED", true)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := cfg.ExpandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ExpandPaths resolves ~ and relative paths and fills path defaults.
func (c *Config) ExpandPaths() error {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}

	dir, err := expandPath(c.Cache.Dir, filepath.Join(home, ".cache", "ao3-api"))
	if err != nil {
		return fmt.Errorf("invalid cache dir: %w", err)
	}
	c.Cache.Dir = dir

	tags, err := expandPath(c.TagIndex.Path, filepath.Join(c.Cache.Dir, "tags"))
	if err != nil {
		return fmt.Errorf("invalid tag index path: %w", err)
	}
	c.TagIndex.Path = tags

	return nil
}

// Validate checks that all config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	if _, err := logger.ParseLevel(c.Logger.Level); err != nil || c.Logger.Level == "" {
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Cache.Backend {
	case cache.BackendBadger, cache.BackendSQLite:
	default:
		return fmt.Errorf("invalid cache backend: %q (must be badger or sqlite)", c.Cache.Backend)
	}
	if c.Cache.Dir == "" {
		return errors.New("cache dir cannot be empty after expansion")
	}
	if c.Cache.MaxAge < 0 {
		return errors.New("cache max age cannot be negative")
	}

	if err := validation.New().Var("catalog_url", c.Catalog.BaseURL, "required,http_url"); err != nil {
		return fmt.Errorf("invalid catalog url %q: %w", c.Catalog.BaseURL, err)
	}
	if c.Catalog.RPS <= 0 {
		return errors.New("catalog rps must be positive")
	}
	if c.Catalog.Burst < 1 {
		return errors.New("catalog burst must be at least 1")
	}
	if c.Catalog.Timeout <= 0 {
		return errors.New("catalog timeout must be positive")
	}

	if c.Runner.Workers < 1 {
		return errors.New("runner workers must be at least 1")
	}

	if c.TagIndex.Enabled && c.TagIndex.Path == "" {
		return errors.New("tag index path cannot be empty when the index is enabled")
	}

	if c.Server.EventHeartbeat < 0 {
		return errors.New("event heartbeat cannot be negative")
	}
	if c.Server.ClientRPS < 0 {
		return errors.New("client rps cannot be negative")
	}

	if n, err := strconv.Atoi(c.Server.Port); err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}

	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is used as is.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

func getIntConfigValue(flagValue, envKey string, defaultValue int, name string, collect func(error)) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strValue)
	if err != nil {
		collect(fmt.Errorf("invalid %s %q: %w", name, strValue, err))
		return defaultValue
	}
	return n
}

func parseDuration(s, name string, collect func(error)) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		collect(fmt.Errorf("invalid %s %q: %w", name, s, err))
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
