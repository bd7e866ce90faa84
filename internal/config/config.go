package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Session backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds the client configuration loaded from environment variables.
type Config struct {
	API     APIConfig
	Session SessionConfig
	Redis   RedisConfig
	Log     LogConfig
}

// APIConfig holds remote API settings.
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables
	RateBurst int
}

// SessionConfig selects where the auth session and preferences are kept.
type SessionConfig struct {
	Backend string
	Path    string
	Key     string //nolint:gosec // G117: hex sealing key config
}

// RedisConfig holds Redis connection settings for the redis session backend.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
	Prefix   string
}

type LogConfig struct {
	Level  string
	Format string
}

// StubConfig holds the development API server configuration.
type StubConfig struct {
	Server    ServerConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	// LogOTP writes issued one-time passwords to the log, since the stub
	// has no SMS or mail delivery.
	LogOTP bool
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret   string //nolint:gosec // G117: JWT signing secret config
	TokenTTL time.Duration
}

// RateLimitConfig bounds requests per client (per IP for public routes, per
// user for authenticated ones).
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads the client configuration from environment variables.
func Load() (*Config, error) {
	timeout, err := getEnvDuration("GARAGE_API_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateLimit, err := getEnvFloat("GARAGE_API_RATE_LIMIT", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateBurst, err := getEnvInt("GARAGE_API_RATE_BURST", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("GARAGE_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:   strings.TrimRight(getEnv("GARAGE_API_BASE_URL", "http://localhost:8080/api/v1"), "/"),
			Timeout:   timeout,
			RateLimit: rateLimit,
			RateBurst: rateBurst,
		},
		Session: SessionConfig{
			Backend: strings.ToLower(getEnv("GARAGE_SESSION_BACKEND", BackendFile)),
			Path:    getEnv("GARAGE_SESSION_PATH", defaultSessionPath()),
			Key:     getEnv("GARAGE_SESSION_KEY", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("GARAGE_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("GARAGE_REDIS_PASSWORD", ""),
			DB:       redisDB,
			Prefix:   getEnv("GARAGE_REDIS_PREFIX", "garagedesk:session"),
		},
		Log: loadLog(),
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("GARAGE_API_BASE_URL must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if u.Scheme == "http" && !isLocalHost(u.Hostname()) {
		log.Warn().Str("host", u.Hostname()).Msg("GARAGE_API_BASE_URL uses plain http for a remote host; tokens travel unencrypted")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("GARAGE_API_TIMEOUT must be positive, got %s", c.API.Timeout)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("GARAGE_API_RATE_LIMIT must be >= 0, got %g", c.API.RateLimit)
	}
	if c.API.RateLimit > 0 && c.API.RateBurst < 1 {
		return fmt.Errorf("GARAGE_API_RATE_BURST must be >= 1, got %d", c.API.RateBurst)
	}

	switch c.Session.Backend {
	case BackendFile:
		if c.Session.Path == "" {
			return errors.New("GARAGE_SESSION_PATH is required for the file backend")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("GARAGE_REDIS_ADDR is required for the redis backend")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("GARAGE_REDIS_DB must be >= 0, got %d", c.Redis.DB)
		}
	case BackendMemory:
		log.Warn().Msg("GARAGE_SESSION_BACKEND=memory keeps no session between runs")
	default:
		return fmt.Errorf("GARAGE_SESSION_BACKEND must be file, redis or memory, got %q", c.Session.Backend)
	}

	if c.Session.Key != "" {
		if len(c.Session.Key) != 64 {
			return fmt.Errorf("GARAGE_SESSION_KEY must be 64 hex characters, got %d", len(c.Session.Key))
		}
		if _, err := hex.DecodeString(c.Session.Key); err != nil {
			return fmt.Errorf("GARAGE_SESSION_KEY must be hex: %w", err)
		}
	}

	return c.Log.validate()
}

// LoadStub reads the development server configuration.
// Defaults are safe for local development only.
func LoadStub() (*StubConfig, error) {
	tokenTTL, err := getEnvDuration("GARAGE_STUB_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.LoadStub: %w", err)
	}

	readTimeout, err := getEnvDuration("GARAGE_STUB_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.LoadStub: %w", err)
	}

	writeTimeout, err := getEnvDuration("GARAGE_STUB_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.LoadStub: %w", err)
	}

	rps, err := getEnvFloat("GARAGE_STUB_RATE_LIMIT", 10)
	if err != nil {
		return nil, fmt.Errorf("config.LoadStub: %w", err)
	}

	burst, err := getEnvInt("GARAGE_STUB_RATE_BURST", 20)
	if err != nil {
		return nil, fmt.Errorf("config.LoadStub: %w", err)
	}

	logOTP, err := getEnvBool("GARAGE_STUB_LOG_OTP", true)
	if err != nil {
		return nil, fmt.Errorf("config.LoadStub: %w", err)
	}

	cfg := &StubConfig{
		Server: ServerConfig{
			Addr:         getEnv("GARAGE_STUB_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  getEnvList("GARAGE_STUB_CORS_ORIGINS", []string{"http://localhost:8081"}),
		},
		JWT: JWTConfig{
			Secret:   getEnv("GARAGE_STUB_JWT_SECRET", ""),
			TokenTTL: tokenTTL,
		},
		RateLimit: RateLimitConfig{RPS: rps, Burst: burst},
		Log:       loadLog(),
		LogOTP:    logOTP,
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.LoadStub: %w", err)
	}

	return cfg, nil
}

func (c *StubConfig) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("GARAGE_STUB_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("GARAGE_STUB_JWT_SECRET must be at least 32 characters")
	}

	if c.JWT.TokenTTL <= 0 {
		return fmt.Errorf("GARAGE_STUB_TOKEN_TTL must be positive, got %s", c.JWT.TokenTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("GARAGE_STUB_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("GARAGE_STUB_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("GARAGE_STUB_RATE_LIMIT must be positive, got %g", c.RateLimit.RPS)
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("GARAGE_STUB_RATE_BURST must be >= 1, got %d", c.RateLimit.Burst)
	}

	return c.Log.validate()
}

func loadLog() LogConfig {
	return LogConfig{
		Level:  strings.ToLower(getEnv("GARAGE_LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnv("GARAGE_LOG_FORMAT", "console")),
	}
}

func (l LogConfig) validate() error {
	if _, err := zerolog.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("GARAGE_LOG_LEVEL: %w", err)
	}
	if l.Format != "console" && l.Format != "json" {
		return fmt.Errorf("GARAGE_LOG_FORMAT must be console or json, got %q", l.Format)
	}
	return nil
}

// ZerologLevel returns the parsed level. Call after Load has validated it.
func (l LogConfig) ZerologLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".garagedesk", "session.json")
	}
	return filepath.Join(dir, "garagedesk", "session.json")
}

func isLocalHost(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
