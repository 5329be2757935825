package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOOKING_BASE_PRICE", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	cfg := Load()

	if cfg.Booking.BasePrice != 2000 {
		t.Fatalf("base price = %v, want 2000", cfg.Booking.BasePrice)
	}
	if cfg.Booking.MaxImages != 5 {
		t.Fatalf("max images = %d, want 5", cfg.Booking.MaxImages)
	}
	if cfg.Booking.ScheduleWindowDays != 2 {
		t.Fatalf("window = %d, want 2", cfg.Booking.ScheduleWindowDays)
	}
	if cfg.Uploads.OrphanTTL != 24*time.Hour {
		t.Fatalf("orphan ttl = %v", cfg.Uploads.OrphanTTL)
	}
	if AppConfig != cfg {
		t.Fatal("Load must set AppConfig")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOOKING_BASE_PRICE", "1500.5")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("BOOKING_TIMEZONE", "Not/AZone")
	cfg := Load()

	if cfg.Booking.BasePrice != 1500.5 {
		t.Fatalf("base price = %v", cfg.Booking.BasePrice)
	}
	if cfg.JWT.ExpiryHours != 2 {
		t.Fatalf("expiry = %d", cfg.JWT.ExpiryHours)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Location() != time.UTC {
		t.Fatal("unknown timezone should fall back to UTC")
	}
}
