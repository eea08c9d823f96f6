package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
	}

	// Database configuration
	Database struct {
		Path     string
		MmapSize int64
		CacheKB  int
		MaxConns int
		BusyWait time.Duration
	}

	// JWT configuration
	JWT struct {
		Secret string
		Expiry time.Duration
	}

	// Provider credentials, read from environment at construction time only
	Providers struct {
		OpenAIKey    string
		AnthropicKey string
		DeepSeekKey  string
		Timeout      time.Duration
	}

	// Portrait generation settings
	Portrait struct {
		PrimaryModel     string
		FallbackModel    string
		Fallback         bool
		StrictLastResort bool
		BlobHostPattern  string
		ContentRoot      string
		DownloadTimeout  time.Duration
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Cache settings
	Cache struct {
		Enabled     bool
		ListTTL     time.Duration
		StatsTTL    time.Duration
		MaxSize     int
		PurgeWindow time.Duration
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables.
// Uses singleton pattern to ensure only one instance exists.
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8080")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)

		// Database config
		instance.Database.Path = getEnvString("DATABASE_PATH", "database.db")
		instance.Database.MmapSize = getEnvInt64("DB_MMAP_SIZE", 256<<20) // 256MB
		instance.Database.CacheKB = getEnvInt("DB_CACHE_KB", 40000)       // ~40MB page cache
		instance.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 4)
		instance.Database.BusyWait = getEnvDuration("DB_BUSY_WAIT", 5*time.Second)

		// JWT config
		instance.JWT.Secret = getEnvString("JWT_SECRET", "default-jwt-secret-do-not-use-in-production")
		instance.JWT.Expiry = getEnvDuration("JWT_EXPIRY", 24*time.Hour)

		// Provider credentials
		instance.Providers.OpenAIKey = getEnvString("OPENAI_API_KEY", "")
		instance.Providers.AnthropicKey = getEnvString("ANTHROPIC_API_KEY", "")
		instance.Providers.DeepSeekKey = getEnvString("DEEPSEEK_API_KEY", "")
		instance.Providers.Timeout = getEnvDuration("PROVIDER_TIMEOUT", 30*time.Second)

		// Portrait settings
		instance.Portrait.PrimaryModel = getEnvString("PORTRAIT_PRIMARY_IMAGE_MODEL", "dall-e-3")
		instance.Portrait.FallbackModel = getEnvString("PORTRAIT_FALLBACK_IMAGE_MODEL", "dall-e-2")
		instance.Portrait.Fallback = getEnvFlag("PORTRAIT_FALLBACK", false)
		instance.Portrait.StrictLastResort = getEnvFlag("PORTRAIT_STRICT_LAST_RESORT", false)
		instance.Portrait.BlobHostPattern = getEnvString("PORTRAIT_BLOB_HOST_PATTERN", `oaidalleapiprodscus\.blob\.core\.windows\.net`)
		instance.Portrait.ContentRoot = getEnvString("PORTRAIT_CONTENT_ROOT", "static/portraits")
		instance.Portrait.DownloadTimeout = getEnvDuration("PORTRAIT_DOWNLOAD_TIMEOUT", 30*time.Second)

		// Security config
		instance.Security.RateLimit = float64(getEnvInt("RATE_LIMIT", 10))
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 20)
		instance.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")

		// Cache settings
		instance.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
		instance.Cache.ListTTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
		instance.Cache.StatsTTL = getEnvDuration("STATS_CACHE_TTL", 2*time.Minute)
		instance.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)
		instance.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Reset clears the singleton so tests can rebuild it from a fresh environment.
func Reset() {
	instance = nil
	once = sync.Once{}
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvFlag treats 1/true/on/yes (any case) as truthy, everything else as false.
func getEnvFlag(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
