package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const defaultJWTSecret = "your-secret-key-change-this"

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret             string
	JWTExpirationDuration time.Duration

	// Auth cookies. Both flags must be true in production.
	CookieHTTPOnly bool
	CookieSecure   bool
	CookieDomain   string

	// Redis (rate limit store). Empty host keeps the in-memory store.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Rate Limiting
	RateLimitMaxRequests          int
	RateLimitTimeWindowSeconds    int
	RateLimitBlockDurationMinutes int

	// Login Rate Limiting
	LoginRateLimitMaxAttempts   int
	LoginRateLimitWindowSeconds int
	LoginRateLimitBlockMinutes  int

	// Register Rate Limiting
	RegisterRateLimitMaxAttempts int
	RegisterRateLimitWindowHours int
	RegisterRateLimitBlockHours  int

	// Frontend URL (CORS origin)
	FrontendURL string

	// Service URLs
	APIGatewayURL  string
	AuthServiceURL string
	CoreServiceURL string

	// Pokemon catalog
	PokemonAPI          string
	PokemonImageBaseURL string
	PokemonImageSource  string // "url" or "minio"

	// MinIO sprite mirror
	MinIOServerURL    string
	MinIORootUser     string
	MinIORootPassword string
	MinIOUseSSL       bool
	MinIOBucketName   string
	MinIOPresignTTL   time.Duration

	// Seeder
	SeedOrganizations   int
	SeedUsersPerOrg     int
	SeedUserPassword    string
	SeedMaxPokemonPages int
	SeedMirrorSprites   bool

	// Logging
	LogLevel  string
	LogFormat string // "json" or "console"
}

var cfg *Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	envLoaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Info().Str("path", path).Msg("environment loaded")
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Warn().Msg(".env file not found, using system environment variables")
	}

	cfg = &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "pokedex"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret:             getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpirationDuration: getEnvAsDuration("JWT_EXPIRATION_DURATION", 3*time.Hour),

		// Cookies
		CookieHTTPOnly: getEnvAsBool("COOKIE_HTTP_ONLY", false),
		CookieSecure:   getEnvAsBool("COOKIE_SECURE", false),
		CookieDomain:   getEnv("COOKIE_DOMAIN", ""),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Rate Limiting - general
		RateLimitMaxRequests:          getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitTimeWindowSeconds:    getEnvAsInt("RATE_LIMIT_TIME_WINDOW_SECONDS", 60),
		RateLimitBlockDurationMinutes: getEnvAsInt("RATE_LIMIT_BLOCK_DURATION_MINUTES", 15),

		// Login Rate Limiting
		LoginRateLimitMaxAttempts:   getEnvAsInt("LOGIN_RATE_LIMIT_MAX_ATTEMPTS", 5),
		LoginRateLimitWindowSeconds: getEnvAsInt("LOGIN_RATE_LIMIT_WINDOW_SECONDS", 300),
		LoginRateLimitBlockMinutes:  getEnvAsInt("LOGIN_RATE_LIMIT_BLOCK_MINUTES", 30),

		// Register Rate Limiting
		RegisterRateLimitMaxAttempts: getEnvAsInt("REGISTER_RATE_LIMIT_MAX_ATTEMPTS", 3),
		RegisterRateLimitWindowHours: getEnvAsInt("REGISTER_RATE_LIMIT_WINDOW_HOURS", 24),
		RegisterRateLimitBlockHours:  getEnvAsInt("REGISTER_RATE_LIMIT_BLOCK_HOURS", 48),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		APIGatewayURL:  getEnv("API_GATEWAY_URL", "http://localhost:8000"),
		AuthServiceURL: getEnv("AUTH_SERVICE_URL", "http://localhost:8001"),
		CoreServiceURL: getEnv("CORE_SERVICE_URL", "http://localhost:8003"),

		// Pokemon catalog
		PokemonAPI:          getEnv("POKEMON_API", "https://pokeapi.co/api/v2/pokemon?limit=100"),
		PokemonImageBaseURL: getEnv("POKEMON_IMAGE_BASE_URL", "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/other/official-artwork"),
		PokemonImageSource:  getEnv("POKEMON_IMAGE_SOURCE", "url"),

		// MinIO
		MinIOServerURL:    getEnv("MINIO_SERVER_URL", "http://localhost:9000"),
		MinIORootUser:     getEnv("MINIO_ROOT_USER", "minioadmin"),
		MinIORootPassword: getEnv("MINIO_ROOT_PASSWORD", "minioadmin"),
		MinIOUseSSL:       getEnvAsBool("MINIO_USE_SSL", false),
		MinIOBucketName:   getEnv("MINIO_BUCKET_NAME", "pokemon-sprites"),
		MinIOPresignTTL:   getEnvAsDuration("MINIO_PRESIGN_TTL", time.Hour),

		// Seeder
		SeedOrganizations:   getEnvAsInt("SEED_ORGANIZATIONS", 10),
		SeedUsersPerOrg:     getEnvAsInt("SEED_USERS_PER_ORG", 10),
		SeedUserPassword:    getEnv("SEED_USER_PASSWORD", "Str0ngP@ss!"),
		SeedMaxPokemonPages: getEnvAsInt("SEED_MAX_POKEMON_PAGES", 0),
		SeedMirrorSprites:   getEnvAsBool("SEED_MIRROR_SPRITES", false),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if cfg.JWTSecret == defaultJWTSecret {
		log.Warn().Msg("JWT_SECRET is not set, using the development default")
	}

	log.Info().Msg("configuration loaded")
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	if cfg == nil {
		LoadConfig()
	}
	return cfg
}

// LoginRateLimitWindow returns the login rate limit window
func (c *Config) LoginRateLimitWindow() time.Duration {
	return time.Duration(c.LoginRateLimitWindowSeconds) * time.Second
}

// LoginRateLimitBlock returns how long a client stays blocked after too many logins
func (c *Config) LoginRateLimitBlock() time.Duration {
	return time.Duration(c.LoginRateLimitBlockMinutes) * time.Minute
}

// RegisterRateLimitWindow returns the registration rate limit window
func (c *Config) RegisterRateLimitWindow() time.Duration {
	return time.Duration(c.RegisterRateLimitWindowHours) * time.Hour
}

// RegisterRateLimitBlock returns how long a client stays blocked after too many registrations
func (c *Config) RegisterRateLimitBlock() time.Duration {
	return time.Duration(c.RegisterRateLimitBlockHours) * time.Hour
}

// RateLimitTimeWindow returns the general rate limit window
func (c *Config) RateLimitTimeWindow() time.Duration {
	return time.Duration(c.RateLimitTimeWindowSeconds) * time.Second
}

// RateLimitBlockDuration returns the general block duration
func (c *Config) RateLimitBlockDuration() time.Duration {
	return time.Duration(c.RateLimitBlockDurationMinutes) * time.Minute
}

// ServicePort parses the port out of a service URL such as http://localhost:8001
func ServicePort(serviceURL, fallback string) string {
	parts := strings.Split(serviceURL, ":")
	if len(parts) < 3 || parts[2] == "" {
		return fallback
	}
	return strings.TrimSuffix(parts[2], "/")
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Int("default", defaultValue).Msg("invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90m") and bare seconds ("3600")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Warn().Str("key", key).Str("value", value).Dur("default", defaultValue).Msg("invalid duration, using default")
	return defaultValue
}
