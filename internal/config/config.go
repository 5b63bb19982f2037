// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Catalog CatalogConfig
	Engine  EngineConfig
	Server  ServerConfig
	Watch   WatchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // json or pretty; empty picks by environment
}

// CatalogConfig locates the raw catalog sources.
type CatalogConfig struct {
	DataPath      string // Directory holding the CSV exports (default: ./data)
	GoodreadsFile string // Goodreads export, relative to DataPath (default: books.csv)
	KindleFile    string // Kindle export, relative to DataPath (default: kindle_data-v2.csv)
	SQLitePath    string // Optional SQLite database of raw rows, loaded after the CSVs
}

// EngineConfig tunes the recommendation engine and query limits.
type EngineConfig struct {
	MaxFeatures     int // Vocabulary cap, 0 = unlimited
	DefaultK        int // Recommendations returned when k is not given (default: 5)
	MaxK            int // Largest k accepted by the API (default: 50)
	SuggestionLimit int // Default number of title suggestions (default: 10)
	PageSize        int // Default browse page size (default: 10)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string        // Server port (default: 8080)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins []string      // CORS origins (default: *)
	RateLimitRPS   float64       // Per-client requests per second, 0 disables (default: 20)
	RateLimitBurst int           // Per-client burst (default: 40)
}

// WatchConfig controls automatic rebuilds when source files change.
type WatchConfig struct {
	Enabled  bool          // Watch the data directory (default: true)
	Debounce time.Duration // Quiet period before rebuilding (default: 2s)
}

// LoadConfig loads configuration from the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags in args (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("bookwise", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (json, pretty; default: by environment)")

	dataPath := fs.String("data-path", "", "Directory holding the catalog CSV exports")
	goodreadsFile := fs.String("goodreads-file", "", "Goodreads export file (default: books.csv)")
	kindleFile := fs.String("kindle-file", "", "Kindle export file (default: kindle_data-v2.csv)")
	sqlitePath := fs.String("sqlite-path", "", "SQLite database of raw catalog rows")

	maxFeatures := fs.String("max-features", "", "Vocabulary size cap, 0 = unlimited")
	defaultK := fs.String("default-k", "", "Default number of recommendations (default: 5)")
	maxK := fs.String("max-k", "", "Largest accepted k (default: 50)")
	suggestionLimit := fs.String("suggestion-limit", "", "Default number of title suggestions (default: 10)")
	pageSize := fs.String("page-size", "", "Default browse page size (default: 10)")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := fs.String("allowed-origins", "", "Comma-separated CORS origins (default: *)")
	rateLimitRPS := fs.String("rate-limit-rps", "", "Per-client requests per second, 0 disables (default: 20)")
	rateLimitBurst := fs.String("rate-limit-burst", "", "Per-client burst (default: 40)")

	watchEnabled := fs.String("watch", "", "Rebuild when catalog files change (default: true)")
	watchDebounce := fs.String("watch-debounce", "", "Quiet period before a rebuild (default: 2s)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(*logLevel, "LOG_LEVEL", "info"),
			Format: strings.ToLower(getConfigValue(*logFormat, "LOG_FORMAT", "")),
		},
		Catalog: CatalogConfig{
			DataPath:      getConfigValue(*dataPath, "DATA_PATH", "data"),
			GoodreadsFile: getConfigValue(*goodreadsFile, "GOODREADS_FILE", "books.csv"),
			KindleFile:    getConfigValue(*kindleFile, "KINDLE_FILE", "kindle_data-v2.csv"),
			SQLitePath:    getConfigValue(*sqlitePath, "SQLITE_PATH", ""),
		},
		Engine: EngineConfig{
			MaxFeatures:     getIntConfigValue(*maxFeatures, "MAX_FEATURES", 0),
			DefaultK:        getIntConfigValue(*defaultK, "DEFAULT_K", 5),
			MaxK:            getIntConfigValue(*maxK, "MAX_K", 50),
			SuggestionLimit: getIntConfigValue(*suggestionLimit, "SUGGESTION_LIMIT", 10),
			PageSize:        getIntConfigValue(*pageSize, "PAGE_SIZE", 10),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*allowedOrigins, "ALLOWED_ORIGINS", "*")),
			RateLimitRPS:   getFloatConfigValue(*rateLimitRPS, "RATE_LIMIT_RPS", 20),
			RateLimitBurst: getIntConfigValue(*rateLimitBurst, "RATE_LIMIT_BURST", 40),
		},
		Watch: WatchConfig{
			Enabled: getBoolConfigValue(*watchEnabled, "WATCH_ENABLED", true),
		},
	}

	durations := []struct {
		dst       *time.Duration
		flagValue string
		envKey    string
		def       string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Watch.Debounce, *watchDebounce, "WATCH_DEBOUNCE", "2s"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(d.envKey), raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Logger.Format {
	case "", "json", "pretty":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", c.Logger.Format)
	}

	if c.Catalog.DataPath == "" && c.Catalog.SQLitePath == "" {
		return errors.New("either a data path or a sqlite path is required")
	}

	e := c.Engine
	switch {
	case e.MaxFeatures < 0:
		return fmt.Errorf("max features must not be negative, got %d", e.MaxFeatures)
	case e.MaxK < 1:
		return fmt.Errorf("max k must be at least 1, got %d", e.MaxK)
	case e.DefaultK < 1 || e.DefaultK > e.MaxK:
		return fmt.Errorf("default k must be between 1 and %d, got %d", e.MaxK, e.DefaultK)
	case e.SuggestionLimit < 1:
		return fmt.Errorf("suggestion limit must be at least 1, got %d", e.SuggestionLimit)
	case e.PageSize < 1:
		return fmt.Errorf("page size must be at least 1, got %d", e.PageSize)
	}

	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit must not be negative, got %v", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1, got %d", c.Server.RateLimitBurst)
	}

	if c.Watch.Enabled && c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch debounce must be positive, got %s", c.Watch.Debounce)
	}

	return nil
}

// GoodreadsPath returns the resolved path of the Goodreads export.
func (c *CatalogConfig) GoodreadsPath() string {
	return resolveIn(c.DataPath, c.GoodreadsFile)
}

// KindlePath returns the resolved path of the Kindle export.
func (c *CatalogConfig) KindlePath() string {
	return resolveIn(c.DataPath, c.KindleFile)
}

func resolveIn(dir, name string) string {
	if name == "" || filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// expandPaths makes the catalog paths absolute.
func (c *Config) expandPaths() error {
	var err error
	if c.Catalog.DataPath, err = expandPath(c.Catalog.DataPath); err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	if c.Catalog.SQLitePath, err = expandPath(c.Catalog.SQLitePath); err != nil {
		return fmt.Errorf("invalid sqlite path: %w", err)
	}
	return nil
}

// expandPath expands ~ and makes the path absolute. Empty stays empty.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
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

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strings.TrimSpace(strValue), 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
