package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the service configuration.
// Values are layered: built-in defaults, then an optional TOML file
// (CONFIG_FILE), then environment variables (including a local .env).
type Config struct {
	Port    string `toml:"port"`
	AppEnv  string `toml:"app_env"`
	LogFile string `toml:"log_file"`

	DBDriver    string `toml:"db_driver"`
	DBPath      string `toml:"db_path"`
	DatabaseURL string `toml:"database_url"`
	SeedPath    string `toml:"seed_path"`

	Routing RoutingConfig `toml:"routing"`
	Cache   CacheConfig   `toml:"cache"`
	Kafka   KafkaConfig   `toml:"kafka"`
}

type RoutingConfig struct {
	APIKey  string   `toml:"api_key"`
	BaseURL string   `toml:"base_url"`
	Timeout Duration `toml:"timeout"`
}

type CacheConfig struct {
	Size      int      `toml:"size"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
}

type KafkaConfig struct {
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

// Duration decodes TOML strings such as "15s".
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func defaults() Config {
	return Config{
		Port:     "8080",
		AppEnv:   "development",
		DBDriver: "sqlite",
		DBPath:   "data/app.db",
		SeedPath: "data/seeds/routes.json",
		Routing: RoutingConfig{
			BaseURL: "https://api.openrouteservice.org",
			Timeout: Duration{15 * time.Second},
		},
		Cache: CacheConfig{
			Size: 256,
			TTL:  Duration{24 * time.Hour},
		},
		Kafka: KafkaConfig{
			Topic: "route.events",
		},
	}
}

// Load resolves the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("load config: decode %q: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = Get("PORT", cfg.Port)
	cfg.AppEnv = Get("APP_ENV", cfg.AppEnv)
	cfg.LogFile = Get("LOG_FILE", cfg.LogFile)

	cfg.DBDriver = strings.ToLower(Get("DB_DRIVER", cfg.DBDriver))
	cfg.DBPath = Get("DB_PATH", cfg.DBPath)
	cfg.DatabaseURL = Get("DATABASE_URL", cfg.DatabaseURL)
	cfg.SeedPath = Get("SEED_PATH", cfg.SeedPath)

	cfg.Routing.APIKey = strings.TrimSpace(Get("ORS_API_KEY", cfg.Routing.APIKey))
	cfg.Routing.BaseURL = Get("ORS_BASE_URL", cfg.Routing.BaseURL)
	if v := os.Getenv("ROUTING_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ROUTING_TIMEOUT: %w", err)
		}
		cfg.Routing.Timeout = Duration{d}
	}

	if v := os.Getenv("CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CACHE_SIZE: %w", err)
		}
		cfg.Cache.Size = n
	}
	cfg.Cache.RedisAddr = Get("REDIS_ADDR", cfg.Cache.RedisAddr)
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		cfg.Cache.TTL = Duration{d}
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	cfg.Kafka.Topic = Get("KAFKA_TOPIC", cfg.Kafka.Topic)

	return nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "memory":
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if c.Cache.Size <= 0 {
		return fmt.Errorf("CACHE_SIZE must be positive, got %d", c.Cache.Size)
	}

	return nil
}

// RoutingConfigured reports whether a routing-service credential is present.
func (c *Config) RoutingConfigured() bool {
	return c.Routing.APIKey != ""
}

// Get returns the environment value for key or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
