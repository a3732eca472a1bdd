package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения и возвращает функцию для их очистки.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"VT_DB_HOST":      "localhost",
		"VT_DB_NAME":      "videoteka",
		"VT_DB_USER":      "videoteka",
		"VT_DB_PASSWORD":  "secret",
		"VT_SUPABASE_URL": "https://abc.supabase.co",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	// Проверяем значения по умолчанию
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, ожидается 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q, ожидается http://localhost:8080", cfg.BaseURL)
	}
	if cfg.DBHost != "localhost" {
		t.Errorf("DBHost = %q, ожидается localhost", cfg.DBHost)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидается 5432", cfg.DBPort)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, ожидается disable", cfg.DBSSLMode)
	}
	if cfg.JWTLeeway != 30*time.Second {
		t.Errorf("JWTLeeway = %v, ожидается 30s", cfg.JWTLeeway)
	}
	if cfg.JWKSRefreshInterval != time.Hour {
		t.Errorf("JWKSRefreshInterval = %v, ожидается 1h", cfg.JWKSRefreshInterval)
	}
	if cfg.PendingTTL != 24*time.Hour {
		t.Errorf("PendingTTL = %v, ожидается 24h", cfg.PendingTTL)
	}
	if cfg.PendingPurgeInterval != time.Hour {
		t.Errorf("PendingPurgeInterval = %v, ожидается 1h", cfg.PendingPurgeInterval)
	}
	if cfg.CatalogCacheSize != 24 {
		t.Errorf("CatalogCacheSize = %d, ожидается 24", cfg.CatalogCacheSize)
	}
	if cfg.CatalogCacheTTL != 10*time.Minute {
		t.Errorf("CatalogCacheTTL = %v, ожидается 10m", cfg.CatalogCacheTTL)
	}
	if cfg.ThumbnailDir != "./data/thumbnails" {
		t.Errorf("ThumbnailDir = %q, ожидается ./data/thumbnails", cfg.ThumbnailDir)
	}
	if cfg.MailEnabled() {
		t.Error("MailEnabled() = true без VT_SMTP_HOST")
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_JWTAutoDerive(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	expectedIssuer := "https://abc.supabase.co/auth/v1"
	if cfg.JWTIssuer != expectedIssuer {
		t.Errorf("JWTIssuer = %q, ожидается %q", cfg.JWTIssuer, expectedIssuer)
	}

	expectedJWKS := "https://abc.supabase.co/auth/v1/.well-known/jwks.json"
	if cfg.JWTJWKSURL != expectedJWKS {
		t.Errorf("JWTJWKSURL = %q, ожидается %q", cfg.JWTJWKSURL, expectedJWKS)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	envs := minimalEnvs()
	envs["VT_PORT"] = "9090"
	envs["VT_LOG_LEVEL"] = "debug"
	envs["VT_LOG_FORMAT"] = "text"
	envs["VT_BASE_URL"] = "https://videoteka.example.com/"
	envs["VT_DB_PORT"] = "5433"
	envs["VT_DB_SSL_MODE"] = "require"
	envs["VT_JWT_LEEWAY"] = "1m"
	envs["VT_PENDING_TTL"] = "48h"
	envs["VT_PENDING_PURGE_INTERVAL"] = "30m"
	envs["VT_CATALOG_CACHE_SIZE"] = "12"
	envs["VT_CATALOG_CACHE_TTL"] = "5m"
	envs["VT_THUMBNAIL_DIR"] = "/var/lib/videoteka/thumbs"
	envs["VT_SHUTDOWN_TIMEOUT"] = "10s"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, ожидается 9090", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if cfg.BaseURL != "https://videoteka.example.com" {
		t.Errorf("BaseURL = %q, ожидается без trailing slash", cfg.BaseURL)
	}
	if cfg.DBPort != 5433 {
		t.Errorf("DBPort = %d, ожидается 5433", cfg.DBPort)
	}
	if cfg.DBSSLMode != "require" {
		t.Errorf("DBSSLMode = %q, ожидается require", cfg.DBSSLMode)
	}
	if cfg.JWTLeeway != time.Minute {
		t.Errorf("JWTLeeway = %v, ожидается 1m", cfg.JWTLeeway)
	}
	if cfg.PendingTTL != 48*time.Hour {
		t.Errorf("PendingTTL = %v, ожидается 48h", cfg.PendingTTL)
	}
	if cfg.PendingPurgeInterval != 30*time.Minute {
		t.Errorf("PendingPurgeInterval = %v, ожидается 30m", cfg.PendingPurgeInterval)
	}
	if cfg.CatalogCacheSize != 12 {
		t.Errorf("CatalogCacheSize = %d, ожидается 12", cfg.CatalogCacheSize)
	}
	if cfg.CatalogCacheTTL != 5*time.Minute {
		t.Errorf("CatalogCacheTTL = %v, ожидается 5m", cfg.CatalogCacheTTL)
	}
	if cfg.ThumbnailDir != "/var/lib/videoteka/thumbs" {
		t.Errorf("ThumbnailDir = %q, ожидается /var/lib/videoteka/thumbs", cfg.ThumbnailDir)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	requiredVars := []string{
		"VT_DB_HOST", "VT_DB_NAME", "VT_DB_USER", "VT_DB_PASSWORD",
		"VT_SUPABASE_URL",
	}

	for _, missing := range requiredVars {
		t.Run(missing, func(t *testing.T) {
			envs := minimalEnvs()
			delete(envs, missing)
			// Очищаем все переменные окружения
			for k := range minimalEnvs() {
				os.Unsetenv(k)
			}
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Errorf("Load() не вернул ошибку при отсутствии %s", missing)
			}
		})
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"ноль", "0"},
		{"выше диапазона", "70000"},
		{"не число", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs["VT_PORT"] = tt.value
			for k := range minimalEnvs() {
				os.Unsetenv(k)
			}
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Errorf("Load() не вернул ошибку при VT_PORT=%q", tt.value)
			}
		})
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	envs := minimalEnvs()
	envs["VT_LOG_LEVEL"] = "verbose"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при VT_LOG_LEVEL=verbose")
	}
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	envs := minimalEnvs()
	envs["VT_LOG_FORMAT"] = "xml"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при VT_LOG_FORMAT=xml")
	}
}

func TestLoad_InvalidSSLMode(t *testing.T) {
	envs := minimalEnvs()
	envs["VT_DB_SSL_MODE"] = "prefer"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при VT_DB_SSL_MODE=prefer")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	envs := minimalEnvs()
	envs["VT_PENDING_TTL"] = "abc"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при VT_PENDING_TTL=abc")
	}
}

func TestLoad_PendingTTLTooSmall(t *testing.T) {
	envs := minimalEnvs()
	envs["VT_PENDING_TTL"] = "10s"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при VT_PENDING_TTL=10s")
	}
}

func TestLoad_InvalidCatalogCacheSize(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"слишком маленький", "0"},
		{"слишком большой", "1001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs["VT_CATALOG_CACHE_SIZE"] = tt.value
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Errorf("Load() не вернул ошибку при VT_CATALOG_CACHE_SIZE=%q", tt.value)
			}
		})
	}
}

func TestLoad_SupabaseURLTrailingSlash(t *testing.T) {
	envs := minimalEnvs()
	envs["VT_SUPABASE_URL"] = "https://abc.supabase.co/"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.SupabaseURL != "https://abc.supabase.co" {
		t.Errorf("SupabaseURL = %q, ожидается без trailing slash", cfg.SupabaseURL)
	}
}

func TestLoad_SMTPRequiresFromAndRecipients(t *testing.T) {
	t.Run("без отправителя", func(t *testing.T) {
		envs := minimalEnvs()
		envs["VT_SMTP_HOST"] = "smtp.example.com"
		envs["VT_NOTIFY_EMAILS"] = "staff@example.com"
		setEnvs(t, envs)

		_, err := Load()
		if err == nil {
			t.Error("Load() не вернул ошибку при VT_SMTP_HOST без VT_MAIL_FROM")
		}
	})

	t.Run("без получателей", func(t *testing.T) {
		envs := minimalEnvs()
		envs["VT_SMTP_HOST"] = "smtp.example.com"
		envs["VT_MAIL_FROM"] = "noreply@example.com"
		setEnvs(t, envs)

		_, err := Load()
		if err == nil {
			t.Error("Load() не вернул ошибку при VT_SMTP_HOST без VT_NOTIFY_EMAILS")
		}
	})

	t.Run("полный набор", func(t *testing.T) {
		envs := minimalEnvs()
		envs["VT_SMTP_HOST"] = "smtp.example.com"
		envs["VT_MAIL_FROM"] = "noreply@example.com"
		envs["VT_NOTIFY_EMAILS"] = "staff@example.com, manager@example.com"
		setEnvs(t, envs)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() вернул ошибку: %v", err)
		}
		if !cfg.MailEnabled() {
			t.Error("MailEnabled() = false при заданном VT_SMTP_HOST")
		}
		if len(cfg.NotifyEmails) != 2 {
			t.Errorf("NotifyEmails = %v, ожидается 2 адреса", cfg.NotifyEmails)
		}
	})
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.example.com",
		DBPort:     5432,
		DBName:     "videoteka",
		DBUser:     "user",
		DBPassword: "pass",
		DBSSLMode:  "disable",
	}
	expected := "host=db.example.com port=5432 dbname=videoteka user=user password=pass sslmode=disable"
	if dsn := cfg.DatabaseDSN(); dsn != expected {
		t.Errorf("DatabaseDSN() = %q, ожидается %q", dsn, expected)
	}
}

func TestThumbnailBaseURL(t *testing.T) {
	cfg := &Config{BaseURL: "https://videoteka.example.com"}
	expected := "https://videoteka.example.com/thumbnails"
	if url := cfg.ThumbnailBaseURL(); url != expected {
		t.Errorf("ThumbnailBaseURL() = %q, ожидается %q", url, expected)
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"json", "json"},
		{"text", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LogLevel:  slog.LevelInfo,
				LogFormat: tt.format,
			}
			logger := SetupLogger(cfg)
			if logger == nil {
				t.Error("SetupLogger() вернул nil")
			}
		})
	}
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"staff@example.com", []string{"staff@example.com"}},
		{"a@x.ru, b@x.ru", []string{"a@x.ru", "b@x.ru"}},
		{"a@x.ru,,b@x.ru,", []string{"a@x.ru", "b@x.ru"}},
		{" a@x.ru , b@x.ru , c@x.ru ", []string{"a@x.ru", "b@x.ru", "c@x.ru"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseCSV(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("parseCSV(%q) = %v (len %d), ожидается %v (len %d)",
					tt.input, result, len(result), tt.expected, len(tt.expected))
			}
			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("parseCSV(%q)[%d] = %q, ожидается %q", tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}
