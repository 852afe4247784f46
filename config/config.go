package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	StoreBackend string

	MongoURI      string
	MongoDatabase string

	FirestoreProjectID string
	GoogleCredentials  string

	RedisURL      string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	CORSOrigins       []string
	SummaryWindowDays int
	RequestTimeout    time.Duration
	MetricsAllowedIPs []string
	// TrustedProxies lists the proxies whose X-Forwarded-For is believed.
	// Empty means the peer address is always the client address.
	TrustedProxies []string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string
	S3UseSSL    bool

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	LowStockThreshold int
	CronTimezone      string
}

// Load reads .env when present and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded (%v), using process environment", err)
	}
	return FromEnv()
}

func FromEnv() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", "mongo")),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "inventory"),

		FirestoreProjectID: getEnv("FIRESTORE_PROJECT_ID", ""),
		GoogleCredentials:  getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvAsInt("CACHE_DEFAULT_TIMEOUT", 300)) * time.Second,

		JWTSecret:  getEnv("JWT_SECRET_KEY", "dev-secret"),
		AccessTTL:  time.Duration(getEnvAsInt("JWT_ACCESS_MINUTES", 30)) * time.Minute,
		RefreshTTL: time.Duration(getEnvAsInt("JWT_REFRESH_DAYS", 7)) * 24 * time.Hour,

		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:3000"), true),
		SummaryWindowDays: getEnvAsInt("SUMMARY_WINDOW_DAYS", 0),
		RequestTimeout:    getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		MetricsAllowedIPs: splitList(getEnv("METRICS_ALLOWED_IPS", ""), false),
		TrustedProxies:    splitList(getEnv("TRUSTED_PROXIES", ""), false),

		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3PublicURL: strings.TrimRight(getEnv("S3_PUBLIC_URL", ""), "/"),
		S3UseSSL:    getEnvAsBool("S3_USE_SSL", true),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 465),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),

		LowStockThreshold: getEnvAsInt("LOW_STOCK_THRESHOLD", 5),
		CronTimezone:      getEnv("CRON_TIMEZONE", "UTC"),
	}
}

func (c *Config) S3Enabled() bool {
	return c.S3Endpoint != "" && c.S3Bucket != ""
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("Invalid integer for %s=%q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("15s") or a bare number of seconds.
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
	log.Printf("Invalid duration for %s=%q, using %s", key, value, defaultValue)
	return defaultValue
}

func splitList(value string, trimSlash bool) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if trimSlash {
			part = strings.TrimRight(part, "/")
		}
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
