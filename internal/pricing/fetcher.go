package pricing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dlcprices/internal/ratelimit"
	"dlcprices/internal/steamstore"
)

// PriceGetter is the single-item lookup performed against the storefront.
type PriceGetter interface {
	GetAppPrice(ctx context.Context, appID int, countryCode string) (*steamstore.AppPrice, error)
}

// ProgressFunc receives (completed, total) after each item finishes,
// success or failure. Counts are non-decreasing and end at total; which
// item just finished is not reported.
type ProgressFunc func(done, total int)

// FetcherConfig controls batch fetch behavior.
type FetcherConfig struct {
	// CountryCode selects the storefront region for pricing. Default "US".
	CountryCode string
	// MaxWorkers bounds how many storefront requests may be in flight at
	// once, regardless of batch size. Default 8.
	MaxWorkers int
	// RequestTimeout bounds each individual request. Default 10s.
	RequestTimeout time.Duration
}

// Fetcher retrieves prices for many identifiers concurrently with a bounded
// worker count. Items that fail are dropped from the result; the batch
// itself never fails.
type Fetcher struct {
	cfg    FetcherConfig
	getter PriceGetter

	// Limiter, when set, gates each storefront request so fan-out stays
	// inside the remote's rate budget.
	Limiter ratelimit.Limiter
	// Logger, when set, records dropped items at debug level.
	Logger *slog.Logger
}

// NewFetcher creates a Fetcher over getter with defaults applied to cfg.
func NewFetcher(cfg FetcherConfig, getter PriceGetter) *Fetcher {
	if cfg.CountryCode == "" {
		cfg.CountryCode = "US"
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 8
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	return &Fetcher{cfg: cfg, getter: getter}
}

type fetchResult struct {
	appID int
	rec   Record
	err   error
}

// FetchBatch fetches the price of every identifier in ids and returns the
// records that succeeded, keyed by identifier. Duplicates are fetched
// independently; whichever completes last wins the key. An empty input
// returns an empty map without any network activity or progress calls.
func (f *Fetcher) FetchBatch(ctx context.Context, ids []int, onProgress ProgressFunc) map[int]Record {
	out := make(map[int]Record, len(ids))
	if len(ids) == 0 {
		return out
	}

	workers := f.cfg.MaxWorkers
	if workers > len(ids) {
		workers = len(ids)
	}

	jobs := make(chan int)
	results := make(chan fetchResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				rec, err := f.fetchOne(ctx, id)
				results <- fetchResult{appID: id, rec: rec, err: err}
			}
		}()
	}

	// Feed every id; once ctx is canceled the workers drain the queue
	// cheaply because each fetch fails immediately.
	go func() {
		for _, id := range ids {
			jobs <- id
		}
		close(jobs)
	}()

	// Aggregate on this goroutine so the result map has a single writer
	// and progress counts stay monotonic.
	total := len(ids)
	for done := 1; done <= total; done++ {
		r := <-results
		if r.err != nil {
			if f.Logger != nil {
				f.Logger.Debug("price fetch dropped", "app_id", r.appID, "err", r.err)
			}
		} else {
			out[r.appID] = r.rec
		}
		if onProgress != nil {
			onProgress(done, total)
		}
	}
	wg.Wait()
	return out
}

func (f *Fetcher) fetchOne(ctx context.Context, appID int) (Record, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return Record{}, err
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()

	price, err := f.getter.GetAppPrice(reqCtx, appID, f.cfg.CountryCode)
	if err != nil {
		return Record{}, err
	}
	if price.Free || price.Overview == nil {
		return FreeRecord(appID), nil
	}
	ov := price.Overview
	return NewRecord(appID, ov.Currency, ov.Initial, ov.Final, ov.DiscountPercent, ov.InitialFormatted, ov.FinalFormatted), nil
}
