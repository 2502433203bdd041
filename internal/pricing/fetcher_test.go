package pricing_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dlcprices/internal/pricing"
	"dlcprices/internal/steamstore"
)

// stubGetter is an instrumented PriceGetter. It records how many requests
// are in flight at once and serves canned per-id outcomes.
type stubGetter struct {
	delay time.Duration
	fail  map[int]error
	free  map[int]bool

	mu          sync.Mutex
	calls       int
	inflight    int
	maxInflight int
	countryCode string
}

func (s *stubGetter) GetAppPrice(ctx context.Context, appID int, countryCode string) (*steamstore.AppPrice, error) {
	s.mu.Lock()
	s.calls++
	s.inflight++
	if s.inflight > s.maxInflight {
		s.maxInflight = s.inflight
	}
	s.countryCode = countryCode
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := s.fail[appID]; err != nil {
		return nil, err
	}
	if s.free[appID] {
		return &steamstore.AppPrice{AppID: appID, Free: true}, nil
	}
	return &steamstore.AppPrice{
		AppID: appID,
		Overview: &steamstore.PriceOverview{
			Currency:         "USD",
			Initial:          appID * 100,
			Final:            appID * 50,
			DiscountPercent:  50,
			InitialFormatted: "$1.00",
			FinalFormatted:   "$0.50",
		},
	}, nil
}

func TestFetchBatch_EmptyInput(t *testing.T) {
	t.Parallel()

	stub := &stubGetter{}
	f := pricing.NewFetcher(pricing.FetcherConfig{}, stub)

	progressCalls := 0
	got := f.FetchBatch(context.Background(), nil, func(done, total int) { progressCalls++ })

	require.Empty(t, got)
	require.Zero(t, progressCalls, "empty input must not report progress")
	require.Zero(t, stub.calls, "empty input must not hit the network")
}

func TestFetchBatch_PartialFailureKeepsSuccesses(t *testing.T) {
	t.Parallel()

	ids := []int{1, 2, 3, 4, 5, 6}
	stub := &stubGetter{fail: map[int]error{
		2: fmt.Errorf("connection reset"),
		5: steamstore.ErrNotListed,
	}}
	f := pricing.NewFetcher(pricing.FetcherConfig{MaxWorkers: 3}, stub)

	var progress [][2]int
	got := f.FetchBatch(context.Background(), ids, func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})

	// Failures are dropped, not propagated.
	require.Len(t, got, 4)
	for _, id := range []int{1, 3, 4, 6} {
		require.Contains(t, got, id)
		require.Equal(t, id*100, got[id].Initial)
		require.Equal(t, id*50, got[id].Final)
	}
	require.NotContains(t, got, 2)
	require.NotContains(t, got, 5)

	// Progress fires once per item with strictly increasing counts.
	require.Len(t, progress, len(ids))
	for i, p := range progress {
		require.Equal(t, i+1, p[0])
		require.Equal(t, len(ids), p[1])
	}
}

func TestFetchBatch_AllFailuresYieldEmptyMap(t *testing.T) {
	t.Parallel()

	stub := &stubGetter{fail: map[int]error{
		7: fmt.Errorf("boom"),
		8: fmt.Errorf("boom"),
	}}
	f := pricing.NewFetcher(pricing.FetcherConfig{}, stub)

	got := f.FetchBatch(context.Background(), []int{7, 8}, nil)
	require.Empty(t, got)
}

func TestFetchBatch_FreeItem(t *testing.T) {
	t.Parallel()

	stub := &stubGetter{free: map[int]bool{440: true}}
	f := pricing.NewFetcher(pricing.FetcherConfig{}, stub)

	got := f.FetchBatch(context.Background(), []int{440}, nil)

	require.Len(t, got, 1)
	r := got[440]
	require.True(t, r.IsFree)
	require.Zero(t, r.Initial)
	require.Zero(t, r.Final)
	require.Zero(t, r.DiscountPercent)
}

func TestFetchBatch_PricedItemInvariants(t *testing.T) {
	t.Parallel()

	stub := &stubGetter{}
	f := pricing.NewFetcher(pricing.FetcherConfig{}, stub)

	got := f.FetchBatch(context.Background(), []int{570}, nil)

	require.Len(t, got, 1)
	r := got[570]
	require.False(t, r.IsFree)
	require.GreaterOrEqual(t, r.DiscountPercent, 0)
	require.LessOrEqual(t, r.DiscountPercent, 100)
	if r.DiscountPercent > 0 {
		require.LessOrEqual(t, r.Final, r.Initial)
	}
}

func TestFetchBatch_ConcurrencyBound(t *testing.T) {
	t.Parallel()

	ids := make([]int, 40)
	for i := range ids {
		ids[i] = i + 1
	}
	stub := &stubGetter{delay: 10 * time.Millisecond}
	f := pricing.NewFetcher(pricing.FetcherConfig{MaxWorkers: 4}, stub)

	got := f.FetchBatch(context.Background(), ids, nil)

	require.Len(t, got, len(ids))
	require.Equal(t, len(ids), stub.calls)
	require.LessOrEqual(t, stub.maxInflight, 4, "worker bound exceeded")
	require.Greater(t, stub.maxInflight, 1, "expected some parallelism")
}

func TestFetchBatch_DuplicateIDsLastWriteWins(t *testing.T) {
	t.Parallel()

	stub := &stubGetter{}
	f := pricing.NewFetcher(pricing.FetcherConfig{}, stub)

	progressCalls := 0
	got := f.FetchBatch(context.Background(), []int{9, 9, 9}, func(done, total int) { progressCalls++ })

	// Each duplicate is fetched independently but lands on the same key.
	require.Equal(t, 3, stub.calls)
	require.Equal(t, 3, progressCalls)
	require.Len(t, got, 1)
}

func TestFetchBatch_CountryCodeDefault(t *testing.T) {
	t.Parallel()

	stub := &stubGetter{}
	f := pricing.NewFetcher(pricing.FetcherConfig{}, stub)
	f.FetchBatch(context.Background(), []int{1}, nil)
	require.Equal(t, "US", stub.countryCode)

	stub2 := &stubGetter{}
	f2 := pricing.NewFetcher(pricing.FetcherConfig{CountryCode: "DE"}, stub2)
	f2.FetchBatch(context.Background(), []int{1}, nil)
	require.Equal(t, "DE", stub2.countryCode)
}
