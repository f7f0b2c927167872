// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds every runtime setting.
type Config struct {
	Addr       string
	StaticPath string
	PublicURL  string

	// StoreBackend is "sqlite" or "redis".
	StoreBackend string
	DBPath       string
	RedisAddr    string
	RedisPrefix  string

	AdminPasscode string
	SessionSecret string
	SessionTTL    time.Duration

	// GeminiAPIKey is the server-held key behind /api/analyze-menu.
	GeminiAPIKey string
	// ClientGeminiAPIKey enables the direct fallback when the analysis
	// endpoint is unreachable.
	ClientGeminiAPIKey string
	GeminiModel        string
	// AnalyzeEndpoint points ingestion at a remote analysis endpoint.
	// Empty means analyze in-process with GeminiAPIKey.
	AnalyzeEndpoint string
	// Per-request timeouts for the two analyzer kinds.
	GeminiTimeout          time.Duration
	AnalyzeEndpointTimeout time.Duration

	ImageMaxWidth int
	ImageQuality  int

	ClockTick time.Duration
	Location  *time.Location

	KafkaBrokers []string
	KafkaTopic   string
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, raw)
	}
	return d, nil
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:               getEnv("ADDR", ":8080"),
		StaticPath:         getEnv("STATIC_PATH", "./static"),
		PublicURL:          getEnv("PUBLIC_URL", "http://localhost:8080"),
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", "sqlite")),
		DBPath:             getEnv("DB_PATH", "./data/lunchtab.db"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPrefix:        getEnv("REDIS_PREFIX", "lunchtab"),
		AdminPasscode:      getEnv("ADMIN_PASSCODE", "8888"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		ClientGeminiAPIKey: os.Getenv("CLIENT_GEMINI_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		AnalyzeEndpoint:    os.Getenv("ANALYZE_ENDPOINT"),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "lunchtab.ledger"),
	}

	var err error
	if cfg.SessionTTL, err = getEnvDuration("SESSION_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ClockTick, err = getEnvDuration("CLOCK_TICK", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.GeminiTimeout, err = getEnvDuration("GEMINI_TIMEOUT", 90*time.Second); err != nil {
		return nil, err
	}
	if cfg.AnalyzeEndpointTimeout, err = getEnvDuration("ANALYZE_ENDPOINT_TIMEOUT", 90*time.Second); err != nil {
		return nil, err
	}
	if cfg.ImageMaxWidth, err = getEnvInt("IMAGE_MAX_WIDTH", 1200); err != nil {
		return nil, err
	}
	if cfg.ImageQuality, err = getEnvInt("IMAGE_QUALITY", 80); err != nil {
		return nil, err
	}
	if cfg.ImageQuality < 1 || cfg.ImageQuality > 100 {
		return nil, fmt.Errorf("IMAGE_QUALITY: must be between 1 and 100, got %d", cfg.ImageQuality)
	}

	if cfg.Location, err = time.LoadLocation(getEnv("TIMEZONE", "Local")); err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	switch cfg.StoreBackend {
	case "sqlite", "redis":
	default:
		return nil, fmt.Errorf("STORE_BACKEND: unknown backend %q", cfg.StoreBackend)
	}

	// Sessions issued with a generated secret do not survive a restart.
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = uuid.New().String()
	}
	return cfg, nil
}

// HasAnalysisPath reports whether menu ingestion can run at all.
func (c *Config) HasAnalysisPath() bool {
	return c.AnalyzeEndpoint != "" || c.GeminiAPIKey != "" || c.ClientGeminiAPIKey != ""
}
