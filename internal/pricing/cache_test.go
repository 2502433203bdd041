package pricing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dlcprices/internal/pricing"
)

func TestCache_FreshCacheIsInvalid(t *testing.T) {
	t.Parallel()

	c := pricing.NewCache(time.Minute)

	require.False(t, c.IsValid())
	require.Empty(t, c.GetAll())
	_, ok := c.Get(570)
	require.False(t, ok)
}

func TestCache_UpdateMakesValidAndMerges(t *testing.T) {
	t.Parallel()

	c := pricing.NewCache(time.Minute)

	// Act: first update populates the store.
	first := map[int]pricing.Record{
		570: pricing.NewRecord(570, "USD", 999, 499, 50, "$9.99", "$4.99"),
		440: pricing.FreeRecord(440),
	}
	c.Update(first)

	require.True(t, c.IsValid())
	require.Equal(t, first, c.GetAll())

	got, ok := c.Get(570)
	require.True(t, ok)
	require.Equal(t, first[570], got)

	// Act: second update merges, overwriting existing keys.
	second := map[int]pricing.Record{
		440: pricing.NewRecord(440, "USD", 1999, 1999, 0, "$19.99", "$19.99"),
		730: pricing.FreeRecord(730),
	}
	c.Update(second)

	all := c.GetAll()
	require.Len(t, all, 3)
	require.Equal(t, first[570], all[570])
	require.Equal(t, second[440], all[440])
	require.Equal(t, second[730], all[730])
}

func TestCache_ClearResetsValidity(t *testing.T) {
	t.Parallel()

	c := pricing.NewCache(time.Minute)
	c.Update(map[int]pricing.Record{570: pricing.FreeRecord(570)})
	require.True(t, c.IsValid())

	c.Clear()

	require.False(t, c.IsValid())
	require.Empty(t, c.GetAll())
	_, ok := c.Get(570)
	require.False(t, ok)
}

func TestCache_TTLExpiryTreatsEntriesAsAbsent(t *testing.T) {
	t.Parallel()

	c := pricing.NewCache(30 * time.Millisecond)
	c.Update(map[int]pricing.Record{570: pricing.FreeRecord(570)})
	require.True(t, c.IsValid())

	time.Sleep(60 * time.Millisecond)

	require.False(t, c.IsValid())
	require.Empty(t, c.GetAll())
	_, ok := c.Get(570)
	require.False(t, ok, "stale data must behave as absent even when the key exists")

	// A fresh update restores validity.
	c.Update(map[int]pricing.Record{570: pricing.FreeRecord(570)})
	require.True(t, c.IsValid())
}

func TestCache_GetAllReturnsACopy(t *testing.T) {
	t.Parallel()

	c := pricing.NewCache(time.Minute)
	c.Update(map[int]pricing.Record{570: pricing.FreeRecord(570)})

	all := c.GetAll()
	delete(all, 570)
	all[999] = pricing.FreeRecord(999)

	fresh := c.GetAll()
	require.Len(t, fresh, 1)
	_, ok := fresh[570]
	require.True(t, ok)
}

func TestCache_FetchingFlagIsCooperative(t *testing.T) {
	t.Parallel()

	c := pricing.NewCache(time.Minute)
	require.False(t, c.IsFetching())

	c.SetFetching(true)
	require.True(t, c.IsFetching())

	c.SetFetching(false)
	require.False(t, c.IsFetching())
}
