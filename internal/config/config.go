// Package config assembles runtime settings from defaults, an optional JSON
// file and environment variables, in that order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
	Version           string `json:"version"`
	BaseURL           string `json:"base_url"`
}

type Database struct {
	URL string `json:"url"`
}

type Supabase struct {
	URL            string `json:"url"`
	AnonKey        string `json:"anon_key"`
	ServiceRoleKey string `json:"service_role_key"`
	JWTSecret      string `json:"jwt_secret"`
}

type Redis struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// Auth.Mode is "supabase" (default), which asks the auth server about every
// token, or "local", which checks the HS256 signature with the JWT secret and
// cannot see sign-outs before the token expires.
type Auth struct {
	Mode        string `json:"mode"`
	CacheTTLSec int    `json:"cache_ttl_sec"`
}

const (
	AuthModeSupabase = "supabase"
	AuthModeLocal    = "local"
)

type Quotes struct {
	CacheTTLSec     int `json:"cache_ttl_sec"`
	CacheMaxItems   int `json:"cache_max_items"`
	PollIntervalSec int `json:"poll_interval_sec"`
}

type Razorpay struct {
	KeyID     string `json:"key_id"`
	KeySecret string `json:"key_secret"`
}

type Config struct {
	Server   Server   `json:"server"`
	Database Database `json:"database"`
	Supabase Supabase `json:"supabase"`
	Redis    Redis    `json:"redis"`
	Auth     Auth     `json:"auth"`
	Quotes   Quotes   `json:"quotes"`
	Razorpay Razorpay `json:"razorpay"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10, Version: "1.0.0", BaseURL: "http://localhost:3000"},
		Redis:  Redis{Port: "6379"},
		Auth:   Auth{Mode: AuthModeSupabase, CacheTTLSec: 60},
		Quotes: Quotes{CacheMaxItems: 5000, PollIntervalSec: 60},
	}
}

// Load reads JSON config from path. If path is empty or the file does not
// exist, it returns defaults. Environment variables override the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.Version, "APP_VERSION")
	setString(&cfg.Server.BaseURL, "NEXT_PUBLIC_BASE_URL")
	setString(&cfg.Server.BaseURL, "BASE_URL")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Supabase.URL, "SUPABASE_URL")
	setString(&cfg.Supabase.AnonKey, "SUPABASE_ANON_KEY")
	setString(&cfg.Supabase.ServiceRoleKey, "SUPABASE_SERVICE_ROLE_KEY")
	setString(&cfg.Supabase.JWTSecret, "SUPABASE_JWT_SECRET")
	setString(&cfg.Redis.Host, "REDIS_HOST")
	setString(&cfg.Redis.Port, "REDIS_PORT")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Razorpay.KeyID, "RAZORPAY_KEY_ID")
	setString(&cfg.Razorpay.KeySecret, "RAZORPAY_KEY_SECRET")
	setString(&cfg.Auth.Mode, "AUTH_MODE")

	cfg.Auth.Mode = strings.ToLower(strings.TrimSpace(cfg.Auth.Mode))
	switch cfg.Auth.Mode {
	case "":
		cfg.Auth.Mode = AuthModeSupabase
	case AuthModeSupabase, AuthModeLocal:
	default:
		return fmt.Errorf("invalid AUTH_MODE value %q", cfg.Auth.Mode)
	}

	ints := []struct {
		key string
		dst *int
		min int
	}{
		{"REQUEST_TIMEOUT_SEC", &cfg.Server.RequestTimeoutSec, 1},
		{"REDIS_DB", &cfg.Redis.DB, 0},
		{"AUTH_CACHE_TTL_SEC", &cfg.Auth.CacheTTLSec, 0},
		{"QUOTE_CACHE_TTL_SEC", &cfg.Quotes.CacheTTLSec, 0},
		{"QUOTE_CACHE_MAX_ITEMS", &cfg.Quotes.CacheMaxItems, 0},
		{"POLL_INTERVAL_SEC", &cfg.Quotes.PollIntervalSec, 0},
	}
	for _, it := range ints {
		v := strings.TrimSpace(os.Getenv(it.key))
		if v == "" {
			continue
		}
		x, err := strconv.Atoi(v)
		if err != nil || x < it.min {
			return fmt.Errorf("invalid %s value %q", it.key, v)
		}
		*it.dst = x
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// SupabaseKey is the key sent as apikey to the auth server. The service role
// key is preferred when both are set.
func (c Config) SupabaseKey() string {
	if c.Supabase.ServiceRoleKey != "" {
		return c.Supabase.ServiceRoleKey
	}
	return c.Supabase.AnonKey
}

// LocalJWT reports whether tokens are checked locally instead of by Supabase.
func (c Config) LocalJWT() bool {
	return c.Auth.Mode == AuthModeLocal && c.Supabase.JWTSecret != ""
}

// AuthConfigured reports whether bearer tokens can be checked at all.
func (c Config) AuthConfigured() bool {
	return c.LocalJWT() || (c.Supabase.URL != "" && c.SupabaseKey() != "")
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Quotes.PollIntervalSec) * time.Second
}
