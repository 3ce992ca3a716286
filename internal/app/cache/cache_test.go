package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *QueryCache {
	t.Helper()
	return NewQueryCache(0, zerolog.Nop())
}

func TestNewKey(t *testing.T) {
	assert.Equal(t, Key("missions:detail:42"), NewKey("missions", "detail", "42"))
	assert.Equal(t, Key("missions:list"), NewKey("missions", "list"))
}

func TestKeyHasPrefix(t *testing.T) {
	tests := []struct {
		name   string
		key    Key
		prefix Key
		want   bool
	}{
		{"exact match", "missions:list", "missions:list", true},
		{"parameterized under prefix", "missions:list:cleanup", "missions:list", true},
		{"different entity", "users:stats:7", "missions:list", false},
		{"prefix is not a segment boundary", "missions:listing", "missions:list", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.HasPrefix(tt.prefix))
		})
	}
}

func TestReadThroughFreshHitSkipsFetch(t *testing.T) {
	c := newTestCache(t)
	key := NewKey("missions", "list")

	var calls int32
	fetch := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return "fetched", nil
	}

	v, err := c.ReadThrough(context.Background(), key, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "fetched", v)

	v, err = c.ReadThrough(context.Background(), key, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "fetched", v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestReadThroughAlwaysStaleFetchesEveryRead(t *testing.T) {
	c := newTestCache(t)
	key := NewKey("missions", "detail", "1")

	var calls int32
	fetch := func(ctx context.Context) (interface{}, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	v, err := c.ReadThrough(context.Background(), key, 0, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)

	v, err = c.ReadThrough(context.Background(), key, 0, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}

func TestReadThroughFailedFetchKeepsLastGoodValue(t *testing.T) {
	c := newTestCache(t)
	key := NewKey("missions", "detail", "1")

	ok := func(ctx context.Context) (interface{}, error) { return "good", nil }
	boom := func(ctx context.Context) (interface{}, error) { return nil, errors.New("backend down") }

	_, err := c.ReadThrough(context.Background(), key, 0, ok)
	require.NoError(t, err)

	v, err := c.ReadThrough(context.Background(), key, 0, boom)
	require.Error(t, err)
	assert.Equal(t, "good", v)
	assert.True(t, c.Failed(key))

	// A later successful read clears the error flag
	_, err = c.ReadThrough(context.Background(), key, 0, ok)
	require.NoError(t, err)
	assert.False(t, c.Failed(key))
}

func TestReadThroughMissWithFailingFetchReturnsError(t *testing.T) {
	c := newTestCache(t)
	key := NewKey("users", "stats", "7")

	boom := func(ctx context.Context) (interface{}, error) { return nil, errors.New("backend down") }

	v, err := c.ReadThrough(context.Background(), key, time.Minute, boom)
	require.Error(t, err)
	assert.Nil(t, v)
}

func TestReadThroughRetriesFailedFetch(t *testing.T) {
	c := NewQueryCache(2, zerolog.Nop())
	key := NewKey("users", "stats", "7")

	var calls int32
	flaky := func(ctx context.Context) (interface{}, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	}

	v, err := c.ReadThrough(context.Background(), key, time.Minute, flaky)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestStaleWhileRevalidate(t *testing.T) {
	c := newTestCache(t)
	key := NewKey("missions", "list")

	c.Put(key, "old")
	c.Invalidate(NewKey("missions", "list"))

	var calls int32
	fetch := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return "new", nil
	}

	// The stale read serves the old value immediately
	v, err := c.ReadThrough(context.Background(), key, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "old", v)

	// The background revalidation eventually replaces it
	require.Eventually(t, func() bool {
		v, ok := c.Get(key)
		return ok && v == "new"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestInvalidateDuringRevalidateStaysStale(t *testing.T) {
	c := newTestCache(t)
	key := NewKey("missions", "list")

	c.Put(key, "cached")
	c.Invalidate(NewKey("missions", "list"))

	gate := make(chan struct{})
	var calls int32
	fetch := func(ctx context.Context) (interface{}, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			<-gate
			return "pre-mutation", nil
		}
		return "post-mutation", nil
	}

	// The stale read parks a background revalidation on the gate
	v, err := c.ReadThrough(context.Background(), key, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "cached", v)
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, time.Second, 5*time.Millisecond)

	// A mutation lands while the refetch is still in flight
	c.Invalidate(NewKey("missions", "list"))
	close(gate)

	// The parked refetch carries pre-mutation data and must not mark the
	// entry fresh; a later read revalidates again and sees the new value.
	require.Eventually(t, func() bool {
		_, err := c.ReadThrough(context.Background(), key, time.Minute, fetch)
		if err != nil {
			return false
		}
		v, _ := c.Get(key)
		return v == "post-mutation"
	}, time.Second, 5*time.Millisecond)
}

func TestOptimisticRestoreIsExact(t *testing.T) {
	c := newTestCache(t)
	key := NewKey("missions", "detail", "1", "u7")

	type detail struct {
		CurrentParticipants int
		IsUserRegistered    bool
	}

	c.Put(key, detail{CurrentParticipants: 3, IsUserRegistered: false})

	snap := c.Optimistic(key, func(v interface{}) interface{} {
		d := v.(detail)
		d.CurrentParticipants++
		d.IsUserRegistered = true
		return d
	})

	v, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, detail{CurrentParticipants: 4, IsUserRegistered: true}, v)

	snap.Restore()

	v, ok = c.Get(key)
	require.True(t, ok)
	assert.Equal(t, detail{CurrentParticipants: 3, IsUserRegistered: false}, v)
}

func TestOptimisticOnAbsentEntry(t *testing.T) {
	c := newTestCache(t)
	key := NewKey("missions", "detail", "9", "u7")

	snap := c.Optimistic(key, func(v interface{}) interface{} {
		t.Fatal("mutate must not run for an absent entry")
		return v
	})

	_, ok := c.Get(key)
	assert.False(t, ok)

	snap.Restore()
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestInvalidateByPrefix(t *testing.T) {
	c := newTestCache(t)

	c.Put(NewKey("missions", "list"), "a")
	c.Put(NewKey("missions", "list", "cleanup"), "b")
	c.Put(NewKey("users", "stats", "7"), "c")

	c.Invalidate(NewKey("missions", "list"))

	var calls int32
	fetch := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return "refetched", nil
	}

	// Untouched entry is still fresh
	v, err := c.ReadThrough(context.Background(), NewKey("users", "stats", "7"), time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "c", v)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	// Invalidated entries revalidate in the background
	_, err = c.ReadThrough(context.Background(), NewKey("missions", "list", "cleanup"), time.Minute, fetch)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		v, _ := c.Get(NewKey("missions", "list", "cleanup"))
		return v == "refetched"
	}, time.Second, 5*time.Millisecond)
}
