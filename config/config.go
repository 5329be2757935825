package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Cloudinary CloudinaryConfig
	Firebase   FirebaseConfig
	Booking    BookingConfig
	Uploads    UploadConfig
	Agents     AgentConfig
	CORS       CORSConfig
	Admin      AdminConfig
	Telemetry  TelemetryConfig
	Geocoding  GeocodingConfig
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type DatabaseConfig struct {
	Driver string // postgres or sqlite
	URL    string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type FirebaseConfig struct {
	CredentialsFile string
}

type BookingConfig struct {
	BasePrice          float64
	MaxImages          int
	ScheduleWindowDays int
	Timezone           string
}

type UploadConfig struct {
	OrphanTTL       time.Duration
	CleanupInterval time.Duration
}

type AgentConfig struct {
	PresenceTimeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// GeocodingConfig controls shop address lookup when applications are approved.
type GeocodingConfig struct {
	Enabled     bool
	CountryCode string
}

// TelemetryConfig enables OTLP trace export when Endpoint is set.
type TelemetryConfig struct {
	ServiceName string
	Endpoint    string
	Insecure    bool
}

type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

var AppConfig *Config

// Load reads configuration from the environment into AppConfig and returns it.
func Load() *Config {
	AppConfig = &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "postgres"),
			URL:    os.Getenv("DB_URL"),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-this-secret-in-production"),
			ExpiryHours: getEnvAsInt("JWT_EXPIRY_HOURS", 24),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    getEnv("CLOUDINARY_FOLDER", "repairhub"),
		},
		Firebase: FirebaseConfig{
			CredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		},
		Booking: BookingConfig{
			BasePrice:          getEnvAsFloat("BOOKING_BASE_PRICE", 2000),
			MaxImages:          getEnvAsInt("BOOKING_MAX_IMAGES", 5),
			ScheduleWindowDays: getEnvAsInt("BOOKING_SCHEDULE_WINDOW_DAYS", 2),
			Timezone:           getEnv("BOOKING_TIMEZONE", "Asia/Kolkata"),
		},
		Uploads: UploadConfig{
			OrphanTTL:       time.Duration(getEnvAsInt("UPLOAD_ORPHAN_TTL_HOURS", 24)) * time.Hour,
			CleanupInterval: time.Duration(getEnvAsInt("UPLOAD_CLEANUP_INTERVAL_MINUTES", 60)) * time.Minute,
		},
		Agents: AgentConfig{
			PresenceTimeout: time.Duration(getEnvAsInt("AGENT_PRESENCE_TIMEOUT_MINUTES", 15)) * time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		},
		Admin: AdminConfig{
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
			Name:     getEnv("ADMIN_NAME", "Administrator"),
		},
		Geocoding: GeocodingConfig{
			Enabled:     getEnv("GEOCODING_ENABLED", "true") == "true",
			CountryCode: getEnv("GEOCODING_COUNTRY", "in"),
		},
		Telemetry: TelemetryConfig{
			ServiceName: getEnv("OTEL_SERVICE_NAME", "repairhub-server"),
			Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Insecure:    os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true",
		},
	}
	return AppConfig
}

// Location returns the booking timezone, falling back to UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
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
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
