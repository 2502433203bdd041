package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
	LogLevel          string `json:"log_level"`
}

type Store struct {
	Endpoint             string `json:"endpoint"`
	CountryCode          string `json:"country_code"`
	MaxWorkers           int    `json:"max_workers"`
	RequestTimeoutSec    int    `json:"request_timeout_sec"`
	CacheTTLSeconds      int    `json:"cache_ttl_sec"`
	MaxRequestsPer5Min   int    `json:"max_requests_per_5min"`
	Burst                int    `json:"burst"`
	MinRequestIntervalMs int    `json:"min_request_interval_ms"`
}

type Config struct {
	Server Server `json:"server"`
	Store  Store  `json:"store"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10, LogLevel: "info"},
		Store: Store{
			Endpoint:           "https://store.steampowered.com/api",
			CountryCode:        "US",
			MaxWorkers:         8,
			RequestTimeoutSec:  10,
			CacheTTLSeconds:    1800,
			MaxRequestsPer5Min: 200,
			Burst:              8,
		},
	}
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields.
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
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		if x := atoi(v); x > 0 {
			cfg.Server.RequestTimeoutSec = x
		}
	}
	if v := os.Getenv("STORE_ENDPOINT"); v != "" {
		cfg.Store.Endpoint = v
	}
	if v := os.Getenv("STORE_COUNTRY_CODE"); v != "" {
		cfg.Store.CountryCode = v
	}
	if v := os.Getenv("STORE_MAX_WORKERS"); v != "" {
		if x := atoi(v); x > 0 {
			cfg.Store.MaxWorkers = x
		}
	}
	if v := os.Getenv("STORE_REQUEST_TIMEOUT_SEC"); v != "" {
		if x := atoi(v); x > 0 {
			cfg.Store.RequestTimeoutSec = x
		}
	}
	if v := os.Getenv("STORE_CACHE_TTL_SEC"); v != "" {
		if x := atoi(v); x >= 0 {
			cfg.Store.CacheTTLSeconds = x
		}
	}
	if v := os.Getenv("STORE_MAX_REQUESTS_PER_5MIN"); v != "" {
		if x := atoi(v); x >= 0 {
			cfg.Store.MaxRequestsPer5Min = x
		}
	}
	if v := os.Getenv("STORE_BURST"); v != "" {
		if x := atoi(v); x > 0 {
			cfg.Store.Burst = x
		}
	}
	if v := os.Getenv("STORE_MIN_REQUEST_INTERVAL_MS"); v != "" {
		if x := atoi(v); x >= 0 {
			cfg.Store.MinRequestIntervalMs = x
		}
	}
}

func atoi(s string) int {
	var x int
	_, _ = fmt.Sscanf(s, "%d", &x)
	return x
}
