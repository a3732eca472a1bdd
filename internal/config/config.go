// Пакет config — загрузка и валидация конфигурации Видеотеки
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Видеотеки.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Базовый URL сервиса — используется при построении URL миниатюр
	BaseURL string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Supabase Auth ---

	// URL проекта Supabase (например, https://abc.supabase.co)
	SupabaseURL string
	// Issuer JWT (авто-вычисляется из SupabaseURL, если не задан)
	JWTIssuer string
	// URL JWKS endpoint (авто-вычисляется из SupabaseURL, если не задан)
	JWTJWKSURL string
	// Допуск рассинхронизации часов при проверке exp/nbf
	JWTLeeway time.Duration
	// Таймаут HTTP-клиента JWKS
	JWKSClientTimeout time.Duration
	// Интервал обновления JWKS
	JWKSRefreshInterval time.Duration

	// --- Отложенные изменения ---

	// Время жизни отложенных изменений клиента
	PendingTTL time.Duration
	// Интервал фоновой чистки просроченного staging
	PendingPurgeInterval time.Duration

	// --- Каталоги ---

	// Размер LRU-кэша каталогов (в месяцах)
	CatalogCacheSize int
	// Время жизни записи кэша каталогов
	CatalogCacheTTL time.Duration
	// Каталог для миниатюр видео на диске
	ThumbnailDir string

	// --- Почтовые уведомления ---

	// Хост SMTP-сервера; пустое значение отключает уведомления
	SMTPHost string
	// Порт SMTP-сервера
	SMTPPort int
	// Имя пользователя SMTP
	SMTPUsername string
	// Пароль SMTP
	SMTPPassword string
	// Адрес отправителя
	MailFrom string
	// Адреса получателей уведомлений о заявках (через запятую)
	NotifyEmails []string

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// VT_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("VT_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("VT_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("VT_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// VT_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("VT_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("VT_LOG_LEVEL: %w", err)
	}

	// VT_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("VT_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("VT_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// VT_BASE_URL — базовый URL сервиса (по умолчанию http://localhost:<port>)
	cfg.BaseURL = getEnvDefault("VT_BASE_URL", fmt.Sprintf("http://localhost:%d", cfg.Port))
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	// --- PostgreSQL ---

	// VT_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("VT_DB_HOST")
	if err != nil {
		return nil, err
	}

	// VT_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("VT_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("VT_DB_PORT: %w", err)
	}

	// VT_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("VT_DB_NAME")
	if err != nil {
		return nil, err
	}

	// VT_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("VT_DB_USER")
	if err != nil {
		return nil, err
	}

	// VT_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("VT_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// VT_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("VT_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("VT_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Supabase Auth ---

	// VT_SUPABASE_URL — обязательный
	cfg.SupabaseURL, err = getEnvRequired("VT_SUPABASE_URL")
	if err != nil {
		return nil, err
	}
	// Убираем trailing slash
	cfg.SupabaseURL = strings.TrimRight(cfg.SupabaseURL, "/")

	// VT_JWT_ISSUER — авто-вычисляется из SupabaseURL, если не задан
	cfg.JWTIssuer = getEnvDefault("VT_JWT_ISSUER",
		fmt.Sprintf("%s/auth/v1", cfg.SupabaseURL))

	// VT_JWT_JWKS_URL — авто-вычисляется из SupabaseURL, если не задан
	cfg.JWTJWKSURL = getEnvDefault("VT_JWT_JWKS_URL",
		fmt.Sprintf("%s/auth/v1/.well-known/jwks.json", cfg.SupabaseURL))

	// VT_JWT_LEEWAY — допуск часов (по умолчанию 30s)
	cfg.JWTLeeway, err = getEnvDuration("VT_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VT_JWT_LEEWAY: %w", err)
	}

	// VT_JWKS_CLIENT_TIMEOUT — таймаут HTTP-клиента JWKS (по умолчанию 10s)
	cfg.JWKSClientTimeout, err = getEnvDuration("VT_JWKS_CLIENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VT_JWKS_CLIENT_TIMEOUT: %w", err)
	}

	// VT_JWKS_REFRESH_INTERVAL — интервал обновления JWKS (по умолчанию 1h)
	cfg.JWKSRefreshInterval, err = getEnvDuration("VT_JWKS_REFRESH_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("VT_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// --- Отложенные изменения ---

	// VT_PENDING_TTL — время жизни staging (по умолчанию 24h)
	cfg.PendingTTL, err = getEnvDuration("VT_PENDING_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("VT_PENDING_TTL: %w", err)
	}
	if cfg.PendingTTL < time.Minute {
		return nil, fmt.Errorf("VT_PENDING_TTL: значение %s меньше минимального 1m", cfg.PendingTTL)
	}

	// VT_PENDING_PURGE_INTERVAL — интервал чистки staging (по умолчанию 1h)
	cfg.PendingPurgeInterval, err = getEnvDuration("VT_PENDING_PURGE_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("VT_PENDING_PURGE_INTERVAL: %w", err)
	}

	// --- Каталоги ---

	// VT_CATALOG_CACHE_SIZE — размер кэша каталогов (по умолчанию 24)
	cfg.CatalogCacheSize, err = getEnvInt("VT_CATALOG_CACHE_SIZE", 24)
	if err != nil {
		return nil, fmt.Errorf("VT_CATALOG_CACHE_SIZE: %w", err)
	}
	if cfg.CatalogCacheSize < 1 || cfg.CatalogCacheSize > 1000 {
		return nil, fmt.Errorf("VT_CATALOG_CACHE_SIZE: значение %d вне допустимого диапазона 1-1000", cfg.CatalogCacheSize)
	}

	// VT_CATALOG_CACHE_TTL — TTL кэша каталогов (по умолчанию 10m)
	cfg.CatalogCacheTTL, err = getEnvDuration("VT_CATALOG_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("VT_CATALOG_CACHE_TTL: %w", err)
	}

	// VT_THUMBNAIL_DIR — каталог миниатюр (по умолчанию ./data/thumbnails)
	cfg.ThumbnailDir = getEnvDefault("VT_THUMBNAIL_DIR", "./data/thumbnails")

	// --- Почтовые уведомления ---

	// VT_SMTP_HOST — пустое значение отключает уведомления
	cfg.SMTPHost = getEnvDefault("VT_SMTP_HOST", "")

	// VT_SMTP_PORT — порт SMTP (по умолчанию 587)
	cfg.SMTPPort, err = getEnvInt("VT_SMTP_PORT", 587)
	if err != nil {
		return nil, fmt.Errorf("VT_SMTP_PORT: %w", err)
	}

	// VT_SMTP_USERNAME, VT_SMTP_PASSWORD — учётные данные SMTP
	cfg.SMTPUsername = getEnvDefault("VT_SMTP_USERNAME", "")
	cfg.SMTPPassword = getEnvDefault("VT_SMTP_PASSWORD", "")

	// VT_MAIL_FROM — адрес отправителя
	cfg.MailFrom = getEnvDefault("VT_MAIL_FROM", "")

	// VT_NOTIFY_EMAILS — получатели уведомлений (через запятую)
	cfg.NotifyEmails = parseCSV(getEnvDefault("VT_NOTIFY_EMAILS", ""))

	// SMTP задан — отправитель и получатели обязательны
	if cfg.SMTPHost != "" {
		if cfg.MailFrom == "" {
			return nil, fmt.Errorf("VT_MAIL_FROM: обязателен при заданном VT_SMTP_HOST")
		}
		if len(cfg.NotifyEmails) == 0 {
			return nil, fmt.Errorf("VT_NOTIFY_EMAILS: обязателен при заданном VT_SMTP_HOST")
		}
	}

	// --- Graceful shutdown ---

	// VT_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("VT_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("VT_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// ThumbnailBaseURL возвращает базовый URL раздачи миниатюр.
func (c *Config) ThumbnailBaseURL() string {
	return c.BaseURL + "/thumbnails"
}

// MailEnabled сообщает, настроена ли отправка почтовых уведомлений.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
