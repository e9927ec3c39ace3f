package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the gateway settings. Values come from the environment,
// an optional config.yaml and the defaults below, in that order of precedence.
type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	APIBaseURL  string `mapstructure:"API_BASE_URL"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	// Telegram
	BotToken       string        `mapstructure:"TELEGRAM_BOT_TOKEN"`
	InitDataMaxAge time.Duration `mapstructure:"INIT_DATA_MAX_AGE"`

	TokenSealingKey string        `mapstructure:"TOKEN_SEALING_KEY"`
	SessionTTL      time.Duration `mapstructure:"SESSION_TTL"`
	SessionIdle     time.Duration `mapstructure:"SESSION_IDLE"`

	// Upstream booking API. Zero timeout means none.
	UpstreamTimeout time.Duration `mapstructure:"UPSTREAM_TIMEOUT"`
	LoginAttempts   int           `mapstructure:"LOGIN_ATTEMPTS"`
	LoginBackoff    time.Duration `mapstructure:"LOGIN_BACKOFF"`
	BusinessTZ      string        `mapstructure:"BUSINESS_TIMEZONE"`

	// Redis save guard; empty address selects the in-process guard.
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	SaveLockTTL   time.Duration `mapstructure:"SAVE_LOCK_TTL"`

	RateLimitRequests int           `mapstructure:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow   time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`

	FirebaseBucket string `mapstructure:"FIREBASE_STORAGE_BUCKET"`
}

var AppConfig Config

func LoadEnv() error {
	// A missing .env is fine; production sets variables directly.
	_ = godotenv.Load()
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("API_BASE_URL", "")
	v.SetDefault("FRONTEND_URL", "")
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("INIT_DATA_MAX_AGE", 24*time.Hour)
	v.SetDefault("TOKEN_SEALING_KEY", "")
	v.SetDefault("SESSION_TTL", 7*24*time.Hour)
	v.SetDefault("SESSION_IDLE", 30*time.Minute)
	v.SetDefault("UPSTREAM_TIMEOUT", time.Duration(0))
	v.SetDefault("LOGIN_ATTEMPTS", 3)
	v.SetDefault("LOGIN_BACKOFF", time.Second)
	v.SetDefault("BUSINESS_TIMEZONE", "UTC")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SAVE_LOCK_TTL", 30*time.Second)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Minute)
	v.SetDefault("FIREBASE_STORAGE_BUCKET", "")
}

// Load reads config.yaml (if any) from "." or "./config" and the environment.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	AppConfig = cfg
	return cfg, nil
}

// ValidateEnv checks that critical environment variables are set.
// Returns an error if any critical variable is missing.
func ValidateEnv() error {
	var missing []string

	if os.Getenv("JWT_SECRET") == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if os.Getenv("API_BASE_URL") == "" {
		missing = append(missing, "API_BASE_URL")
	}
	if os.Getenv("DATABASE_URL") == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return fmt.Errorf("critical environment variables not set: %v", missing)
	}

	if os.Getenv("TELEGRAM_BOT_TOKEN") == "" {
		log.Println("WARNING: TELEGRAM_BOT_TOKEN not set - initData signatures will not be verified")
	}
	if os.Getenv("TOKEN_SEALING_KEY") == "" {
		log.Println("WARNING: TOKEN_SEALING_KEY not set - deriving the sealing key from JWT_SECRET")
	}
	if os.Getenv("FIREBASE_STORAGE_BUCKET") == "" {
		log.Println("WARNING: FIREBASE_STORAGE_BUCKET not set - avatar uploads will fail")
	}
	if os.Getenv("FRONTEND_URL") == "" {
		log.Println("WARNING: FRONTEND_URL not set - CORS may not work correctly")
	}

	return nil
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func IsProduction() bool {
	return AppConfig.Env == "production"
}
