package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port       string        `yaml:"port"`
	DBDSN      string        `yaml:"db_dsn"`
	JWTSecret  string        `yaml:"jwt_secret"`
	CORSOrigin string        `yaml:"cors_origin"`
	MediaDir   string        `yaml:"media_dir"`
	LogFile    string        `yaml:"log_file"`
	RedisAddr  string        `yaml:"redis_addr"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	// StrictTransitions restricts farmer status updates to the next step
	// of the order state machine.
	StrictTransitions bool `yaml:"strict_order_transitions"`
	SeedDemo          bool `yaml:"seed_demo"`
}

const defaultTokenTTL = 30 * 24 * time.Hour

// Load reads CONFIG_FILE (if set) and then applies environment overrides.
// Call Validate before using the result to serve traffic.
func Load() (Config, error) {
	cfg := Config{
		MediaDir: "./uploads",
		TokenTTL: defaultTokenTTL,
		SeedDemo: true,
	}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("PORT", &cfg.Port)
	str("DB_DSN", &cfg.DBDSN)
	str("JWT_SECRET", &cfg.JWTSecret)
	str("CORS_ORIGIN", &cfg.CORSOrigin)
	str("MEDIA_DIR", &cfg.MediaDir)
	str("LOG_FILE", &cfg.LogFile)
	str("REDIS_ADDR", &cfg.RedisAddr)

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}
	if v := os.Getenv("STRICT_ORDER_TRANSITIONS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("STRICT_ORDER_TRANSITIONS: %w", err)
		}
		cfg.StrictTransitions = b
	}
	if v := os.Getenv("SEED_DEMO"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("SEED_DEMO: %w", err)
		}
		cfg.SeedDemo = b
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	log.Printf("[config] PORT=%s DB_DSN=%s CORS_ORIGIN=%s MEDIA_DIR=%s LOG_FILE=%s REDIS_ADDR=%s STRICT=%t",
		cfg.Port, cfg.DBDSN, cfg.CORSOrigin, cfg.MediaDir, cfg.LogFile, cfg.RedisAddr, cfg.StrictTransitions)
	return cfg, nil
}

// Validate reports every required setting that is missing.
func (c Config) Validate() error {
	var missing []string
	if c.DBDSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.CORSOrigin == "" {
		missing = append(missing, "CORS_ORIGIN")
	}
	if c.Port == "" {
		missing = append(missing, "PORT")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
