package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// DefaultBaseURL — адрес локального демона по умолчанию.
const DefaultBaseURL = "localhost:8081"

type Config struct {
	// Storage
	DatabaseDSN   string `env:"DATABASE_URI"`
	BlobMaxSizeMB int64  `env:"BLOB_MAX_MB"`

	// HTTP daemon
	BaseURL        string   `env:"BASE_URL"`
	EnableHTTPS    bool     `env:"ENABLE_HTTPS"`
	AuthSecret     string   `env:"AUTH_SECRET"`
	AllowedOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
	ServerURL      string   `env:"-"`

	// Remote AI functions
	AIBaseURL string `env:"AI_BASE_URL"`

	Version bool `env:"-"` // show version and exit (flag only)
}

var hostPortRe = regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "путь к файлу SQLite или postgres:// DSN")
	flag.Int64Var(&cfg.BlobMaxSizeMB, "blob-max-mb", cfg.BlobMaxSizeMB, "максимальный размер одного медиафайла, МБ")
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "address of the gallery daemon (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "advertise https scheme for BaseURL")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для проверки JWT; пусто — без авторизации")
	flag.StringVar(&cfg.AIBaseURL, "ai-url", cfg.AIBaseURL, "base URL of the remote AI functions")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show version and exit")

	flag.Parse()

	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.DatabaseDSN == "" {
		home, _ := os.UserHomeDir()
		cfg.DatabaseDSN = filepath.Join(home, ".memo-gallery", "gallery.db")
	}
	if cfg.BlobMaxSizeMB <= 0 {
		cfg.BlobMaxSizeMB = 50
	}
	// BaseURL только в виде "address:port" (без схемы и пути), иначе default
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
}

// BlobMaxBytes — лимит размера содержимого в байтах.
func (c *Config) BlobMaxBytes() int64 {
	return c.BlobMaxSizeMB << 20
}
