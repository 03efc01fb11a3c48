package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultTokenSecret is only acceptable outside production.
const DefaultTokenSecret = "your-secret-key-change-in-production"

type Config struct {
	Port           string
	Environment    string   // ENV: production, development, etc.
	Host           string   // Raw HOST env (e.g. https://api.travelstory.app)
	AllowedHost    string   // Hostname only for strict host check (production only)
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)

	StoreDriver   string // mongo, postgres or sqlite
	MongoURI      string
	MongoDatabase string
	PostgresURI   string
	SQLitePath    string
	RedisURI      string // empty disables Redis

	TokenSecret string
	TokenTTL    time.Duration

	PublicBaseURL       string
	UploadDir           string
	AssetsDir           string
	PlaceholderImageURL string
	MaxUploadBytes      int64
	MediaBackend        string // local, cloudinary or s3

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	S3 S3Config

	AuthRateLimit     int
	AuthRateWindow    time.Duration
	EnableDebugRoutes bool
}

type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	port := getEnv("PORT", "8000")
	host := getEnv("HOST", "http://localhost:"+port)

	var allowedHost string
	if env == "production" {
		allowedHost = hostname(host)
	}

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:5173"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" && !containsOrigin(allowedOrigins, u) {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}

	publicBaseURL := strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/")

	return &Config{
		Port:           port,
		Environment:    env,
		Host:           host,
		AllowedHost:    allowedHost,
		AllowedOrigins: allowedOrigins,

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", "mongo")),
		MongoURI:      getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017")),
		MongoDatabase: getEnv("MONGODB_DATABASE", "travel_story"),
		PostgresURI:   getEnv("POSTGRES_URI", "postgres://localhost:5432/travel_story?sslmode=disable"),
		SQLitePath:    getEnv("SQLITE_PATH", "travel_story.db"),
		RedisURI:      getEnv("REDIS_URI", ""),

		TokenSecret: getEnv("ACCESS_TOKEN_SECRET", getEnv("JWT_SECRET", DefaultTokenSecret)),
		TokenTTL:    getEnvDuration("TOKEN_TTL", 72*time.Hour),

		PublicBaseURL:       publicBaseURL,
		UploadDir:           getEnv("UPLOAD_DIR", "uploads"),
		AssetsDir:           getEnv("ASSETS_DIR", "assets"),
		PlaceholderImageURL: getEnv("PLACEHOLDER_IMAGE_URL", publicBaseURL+"/assets/placeholder.png"),
		MaxUploadBytes:      int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		MediaBackend:        strings.ToLower(getEnv("MEDIA_BACKEND", "local")),

		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "travel-stories"),

		S3: S3Config{
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "auto"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			PublicBaseURL:   strings.TrimRight(getEnv("S3_PUBLIC_BASE_URL", ""), "/"),
		},

		AuthRateLimit:     getEnvInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindow:    getEnvDuration("AUTH_RATE_WINDOW", time.Minute),
		EnableDebugRoutes: getEnvBool("ENABLE_DEBUG_ROUTES", false),
	}
}

// Validate reports configuration that would make the server unusable or unsafe.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "mongo", "postgres", "sqlite":
	default:
		return errors.New("STORE_DRIVER must be one of mongo, postgres, sqlite")
	}
	switch c.MediaBackend {
	case "local":
	case "cloudinary":
		if c.CloudinaryName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			return errors.New("MEDIA_BACKEND=cloudinary requires CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
	case "s3":
		if c.S3.Bucket == "" || c.S3.PublicBaseURL == "" {
			return errors.New("MEDIA_BACKEND=s3 requires S3_BUCKET and S3_PUBLIC_BASE_URL")
		}
	default:
		return errors.New("MEDIA_BACKEND must be one of local, cloudinary, s3")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.IsProduction() && c.TokenSecret == DefaultTokenSecret {
		return errors.New("ACCESS_TOKEN_SECRET must be set in production")
	}
	return nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// hostname strips scheme, path and port from a URL-ish HOST value.
func hostname(raw string) string {
	h := raw
	for _, prefix := range []string{"https://", "http://"} {
		h = strings.TrimPrefix(h, prefix)
	}
	if idx := strings.Index(h, "/"); idx != -1 {
		h = h[:idx]
	}
	if idx := strings.Index(h, ":"); idx != -1 {
		h = h[:idx]
	}
	return strings.TrimSpace(h)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
