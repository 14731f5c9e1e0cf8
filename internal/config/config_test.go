package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.OTPTTL != 10*time.Minute {
		t.Errorf("OTPTTL: got %v, want %v", cfg.Auth.OTPTTL, 10*time.Minute)
	}
	if cfg.Upload.MaxFileSize != int64(50<<20) {
		t.Errorf("MaxFileSize: got %d, want %d", cfg.Upload.MaxFileSize, int64(50<<20))
	}
	if cfg.Upload.Dir != "uploads" {
		t.Errorf("Upload.Dir: got %q, want %q", cfg.Upload.Dir, "uploads")
	}
	if cfg.Database.MaxConns != 25 {
		t.Errorf("MaxConns: got %d, want 25", cfg.Database.MaxConns)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("OTP_TTL", "5m")
	os.Setenv("MAX_FILE_SIZE", "1048576")
	os.Setenv("UPLOAD_DIR", "/var/lib/crld/uploads")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.OTPTTL != 5*time.Minute {
		t.Errorf("OTPTTL: got %v, want %v", cfg.Auth.OTPTTL, 5*time.Minute)
	}
	if cfg.Upload.MaxFileSize != 1048576 {
		t.Errorf("MaxFileSize: got %d, want 1048576", cfg.Upload.MaxFileSize)
	}
	if cfg.Upload.Dir != "/var/lib/crld/uploads" {
		t.Errorf("Upload.Dir: got %q", cfg.Upload.Dir)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing JWT_SECRET")
	}
}

func TestLoad_WeakJWTSecretInProduction(t *testing.T) {
	os.Setenv("JWT_SECRET", "short")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("ENV", "production")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for short secret in production")
	}
}

func TestLoad_MissingDBPassword(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing DB_PASSWORD")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: 5433, User: "crld", Password: "pw", Name: "filing", SSLMode: "require",
	}

	want := "host=db port=5433 user=crld password=pw dbname=filing sslmode=require"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
