package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config - настройки сервера
type Config struct {
	Environment    string
	AppName        string
	HTTPAddr       string
	StorageDriver  string
	DBDSN          string
	MigrationsPath string

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr         string
	PrincipalCacheTTL time.Duration

	// Учётная запись, создаваемая при старте, если заданы оба поля
	AdminEmail    string
	AdminPassword string

	TelegramToken  string
	SendGridAPIKey string
	MailFrom       string

	MidtransServerKey  string
	MidtransProduction bool

	NotifyInterval    time.Duration
	NotifyBatchSize   int
	NotifyMaxAttempts int
}

// ClientConfig - настройки adminctl
type ClientConfig struct {
	APIURL      string
	TokenFile   string
	HTTPTimeout time.Duration
}

// loadDotEnv загружает .env, если он есть
func loadDotEnv() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}
}

func Load() (*Config, error) {
	loadDotEnv()

	var err error
	cfg := &Config{
		Environment:       getEnv("ENV", "development"),
		AppName:           getEnv("APP_NAME", "Schedule Registrations"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		StorageDriver:     getEnv("STORAGE_DRIVER", StorageDriverPostgres),
		DBDSN:             os.Getenv("DB_DSN"),
		MigrationsPath:    getEnv("MIGRATIONS_PATH", "migrations"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		MailFrom:          getEnv("MAIL_FROM", "noreply@localhost"),
		MidtransServerKey: os.Getenv("MIDTRANS_SERVER_KEY"),
	}

	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.PrincipalCacheTTL, err = getDuration("PRINCIPAL_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.NotifyInterval, err = getDuration("NOTIFY_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.NotifyBatchSize, err = getInt("NOTIFY_BATCH_SIZE", 50); err != nil {
		return nil, err
	}
	if cfg.NotifyMaxAttempts, err = getInt("NOTIFY_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.MidtransProduction, err = getBool("MIDTRANS_PRODUCTION", false); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Printf("Config loaded (env=%s, storage=%s)\n", cfg.Environment, cfg.StorageDriver)
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.StorageDriver)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if c.NotifyInterval <= 0 {
		return fmt.Errorf("NOTIFY_INTERVAL must be positive")
	}
	return nil
}

// LoadDB читает только то, что нужно для миграций и управления учётными записями
func LoadDB() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		Environment:    getEnv("ENV", "development"),
		AppName:        getEnv("APP_NAME", "Schedule Registrations"),
		DBDSN:          os.Getenv("DB_DSN"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	return cfg, nil
}

func LoadClient() (*ClientConfig, error) {
	loadDotEnv()

	cfg := &ClientConfig{
		APIURL:    getEnv("ADMIN_API_URL", "http://localhost:8080"),
		TokenFile: os.Getenv("ADMIN_TOKEN_FILE"),
	}

	if cfg.TokenFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.TokenFile = filepath.Join(home, ".schedule_registrations", "admin_token.json")
	}

	var err error
	if cfg.HTTPTimeout, err = getDuration("ADMIN_HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid bool %q: %w", key, v, err)
	}
	return b, nil
}
