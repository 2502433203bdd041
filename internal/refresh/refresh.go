// Package refresh owns the price cache lifecycle: it answers from the cache
// while fresh and repopulates it through a batch fetch when it is not.
package refresh

import (
	"context"

	"golang.org/x/sync/singleflight"

	"dlcprices/internal/pricing"
)

// BatchFetcher is the batch price lookup used to repopulate the cache.
type BatchFetcher interface {
	FetchBatch(ctx context.Context, ids []int, onProgress pricing.ProgressFunc) map[int]pricing.Record
}

// Refresher is the single owner of a price cache. Concurrent refresh
// triggers are coalesced so only one batch fetch runs at a time.
type Refresher struct {
	cache   *pricing.Cache
	fetcher BatchFetcher
	sf      singleflight.Group
}

// New creates a Refresher owning cache.
func New(cache *pricing.Cache, fetcher BatchFetcher) *Refresher {
	return &Refresher{cache: cache, fetcher: fetcher}
}

// Prices returns the cached records, refreshing them first when stale.
// A refresh in which every identifier fails leaves the cache untouched, so
// callers see whatever the cache still holds (possibly nothing).
func (r *Refresher) Prices(ctx context.Context, ids []int, onProgress pricing.ProgressFunc) map[int]pricing.Record {
	if r.cache.IsValid() {
		return r.cache.GetAll()
	}

	r.sf.Do("refresh", func() (any, error) {
		r.cache.SetFetching(true)
		defer r.cache.SetFetching(false)

		got := r.fetcher.FetchBatch(ctx, ids, onProgress)
		if len(got) > 0 {
			r.cache.Update(got)
		}
		return nil, nil
	})
	return r.cache.GetAll()
}

// Invalidate forces the next Prices call to refetch.
func (r *Refresher) Invalidate() { r.cache.Clear() }
