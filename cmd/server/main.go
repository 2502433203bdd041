package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"dlcprices/internal/config"
	"dlcprices/internal/httpx"
	"dlcprices/internal/obs"
	"dlcprices/internal/pricing"
	"dlcprices/internal/ratelimit"
	"dlcprices/internal/refresh"
	"dlcprices/internal/steamstore"
	"dlcprices/internal/summary"
)

const maxAppIDsPerRequest = 1000

type pricesResponse struct {
	Prices map[int]pricing.Record `json:"prices"`
	Totals []summary.Totals       `json:"totals"`
}

// priceSource is what the prices handler needs from the refresher.
type priceSource interface {
	Prices(ctx context.Context, ids []int, onProgress pricing.ProgressFunc) map[int]pricing.Record
}

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config: %v", err)
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

	cache := pricing.NewCache(time.Duration(cfg.Store.CacheTTLSeconds) * time.Second)
	refresher := refresh.New(cache, fetcher)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/prices", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleGetPrices(w, r, refresher)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withRequestID(withRequestLog(logger, withJSONHeaders(recoverPanic(mux)))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func handleGetPrices(w http.ResponseWriter, r *http.Request, src priceSource) {
	raw := strings.TrimSpace(r.URL.Query().Get("appids"))
	if raw == "" {
		http.Error(w, "missing appids query param", http.StatusBadRequest)
		return
	}
	ids, err := parseAppIDs(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(ids) > maxAppIDsPerRequest {
		http.Error(w, fmt.Sprintf("too many appids (max %d)", maxAppIDsPerRequest), http.StatusBadRequest)
		return
	}
	writePrices(w, r.Context(), src, ids)
}

func writePrices(w http.ResponseWriter, rctx context.Context, src priceSource, ids []int) {
	// A cold batch of many items can take a while at bounded concurrency.
	ctx, cancel := context.WithTimeout(rctx, 2*time.Minute)
	defer cancel()

	prices := src.Prices(ctx, ids, nil)
	resp := pricesResponse{Prices: prices, Totals: summary.ByCurrency(prices)}
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
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
