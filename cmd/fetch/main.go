package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"dlcprices/internal/config"
	"dlcprices/internal/httpx"
	"dlcprices/internal/obs"
	"dlcprices/internal/pricing"
	"dlcprices/internal/ratelimit"
	"dlcprices/internal/steamstore"
	"dlcprices/internal/summary"
)

type output struct {
	Prices map[int]pricing.Record `json:"prices"`
	Totals []summary.Totals       `json:"totals"`
}

func main() {
	var appIDsCSV string
	var countryCode string
	var workers int
	var timeout int
	var configPath string
	var showProgress bool

	flag.StringVar(&appIDsCSV, "appids", getenv("APPIDS", ""), "comma-separated storefront app ids")
	flag.StringVar(&countryCode, "cc", getenv("STORE_COUNTRY_CODE", ""), "storefront country code (default from config)")
	flag.IntVar(&workers, "workers", getenvInt("STORE_MAX_WORKERS", 0), "max concurrent requests (default from config)")
	flag.IntVar(&timeout, "timeout", getenvInt("STORE_REQUEST_TIMEOUT_SEC", 0), "per-request timeout seconds (default from config)")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.BoolVar(&showProgress, "progress", true, "log fetch progress")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if countryCode != "" {
		cfg.Store.CountryCode = countryCode
	}
	if workers > 0 {
		cfg.Store.MaxWorkers = workers
	}
	if timeout > 0 {
		cfg.Store.RequestTimeoutSec = timeout
	}

	ids, err := parseAppIDs(appIDsCSV)
	if err != nil {
		log.Fatalf("appids: %v", err)
	}
	if len(ids) == 0 {
		log.Fatal("no appids provided; use -appids 570,730")
	}

	logger := obs.NewLogger(obs.ParseLevel(cfg.Server.LogLevel))

	httpClient := httpx.New(time.Duration(cfg.Store.RequestTimeoutSec) * time.Second)
	defer httpx.CloseIdle(httpClient)

	client := steamstore.NewClient(
		steamstore.WithBaseURL(cfg.Store.Endpoint),
		steamstore.WithHTTPClient(httpClient),
		steamstore.WithHeader(http.Header{"User-Agent": []string{"dlc-prices/1.0"}}),
	)

	fetcher := pricing.NewFetcher(pricing.FetcherConfig{
		CountryCode:    cfg.Store.CountryCode,
		MaxWorkers:     cfg.Store.MaxWorkers,
		RequestTimeout: time.Duration(cfg.Store.RequestTimeoutSec) * time.Second,
	}, client)
	fetcher.Logger = logger
	if cfg.Store.MaxRequestsPer5Min > 0 {
		fetcher.Limiter = ratelimit.PerWindow(cfg.Store.MaxRequestsPer5Min, 5*time.Minute, cfg.Store.Burst)
	} else if cfg.Store.MinRequestIntervalMs > 0 {
		fetcher.Limiter = &ratelimit.MinInterval{Interval: time.Duration(cfg.Store.MinRequestIntervalMs) * time.Millisecond}
	}

	var onProgress pricing.ProgressFunc
	if showProgress {
		onProgress = func(done, total int) { log.Printf("fetched %d/%d", done, total) }
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	prices := fetcher.FetchBatch(ctx, ids, onProgress)
	if len(prices) == 0 {
		log.Fatal("no prices fetched")
	}
	if len(prices) < len(ids) {
		log.Printf("warning: %d of %d ids had no price data", len(ids)-len(prices), len(ids))
	}

	b, _ := json.MarshalIndent(output{Prices: prices, Totals: summary.ByCurrency(prices)}, "", "  ")
	fmt.Println(string(b))
}

func parseAppIDs(csv string) ([]int, error) {
	parts := strings.Split(csv, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid appid %q", p)
		}
		out = append(out, id)
	}
	return out, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var x int
		_, _ = fmt.Sscanf(v, "%d", &x)
		if x != 0 {
			return x
		}
	}
	return def
}
