package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type counter struct {
	calls atomic.Int32
	value string
	err   error
}

func (f *counter) fetch(context.Context) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return f.value, nil
}

func TestQueryServesFreshValueFromCache(t *testing.T) {
	t.Parallel()

	clock := newClock()
	c := New(WithClock(clock.Now))
	key := NewKey("stats", "s1", nil)
	f := &counter{value: "v1"}
	opts := Options{StaleTime: 2 * time.Minute}

	for i := 0; i < 3; i++ {
		got, err := Query(context.Background(), c, key, opts, f.fetch)
		require.NoError(t, err)
		assert.Equal(t, "v1", got)
	}
	assert.Equal(t, int32(1), f.calls.Load())

	clock.Advance(2 * time.Minute)
	_, err := Query(context.Background(), c, key, opts, f.fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load(), "stale entry must refetch")
}

func TestZeroStaleTimeRefetchesEveryRead(t *testing.T) {
	t.Parallel()

	c := New()
	key := NewKey("list", "s1", map[string]int{"page": 1})
	f := &counter{value: "page"}

	for i := 0; i < 3; i++ {
		_, err := Query(context.Background(), c, key, Options{}, f.fetch)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestConcurrentQueriesShareOneFetch(t *testing.T) {
	t.Parallel()

	c := New()
	key := NewKey("requests", "s1", "PENDING")
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Query(context.Background(), c, key, Options{StaleTime: time.Minute}, fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "shared", r)
	}
}

func TestInvalidationDuringFetchDiscardsResult(t *testing.T) {
	t.Parallel()

	c := New()
	key := NewKey("stats", "s1", nil)
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(context.Context) (string, error) {
		close(started)
		<-release
		return "old", nil
	}

	done := make(chan string)
	go func() {
		v, _ := Query(context.Background(), c, key, Options{StaleTime: time.Hour}, fetch)
		done <- v
	}()

	<-started
	c.Invalidate(Exact(key))
	close(release)
	assert.Equal(t, "old", <-done, "the caller still receives its response")

	_, ok := c.Get(key)
	assert.False(t, ok, "a fetch started before the invalidation must not fill the cache")

	f := &counter{value: "new"}
	got, err := Query(context.Background(), c, key, Options{StaleTime: time.Hour}, f.fetch)
	require.NoError(t, err)
	assert.Equal(t, "new", got)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestFailedQueryKeepsLastGoodValue(t *testing.T) {
	t.Parallel()

	c := New()
	key := NewKey("list", "s1", nil)
	_, err := Query(context.Background(), c, key, Options{}, (&counter{value: "good"}).fetch)
	require.NoError(t, err)

	boom := errors.New("boom")
	got, err := Query(context.Background(), c, key, Options{}, (&counter{err: boom}).fetch)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "good", got)

	cached, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "good", cached)
}

func TestFailedQueryWithoutValue(t *testing.T) {
	t.Parallel()

	c := New()
	boom := errors.New("boom")
	got, err := Query(context.Background(), c, NewKey("list", "s1", nil), Options{}, (&counter{err: boom}).fetch)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, got)
}

func TestQueryTypeMismatch(t *testing.T) {
	t.Parallel()

	c := New()
	key := NewKey("x", "s1", nil)
	c.Set(key, 42)
	_, err := Query(context.Background(), c, key, Options{StaleTime: time.Hour}, (&counter{value: "s"}).fetch)
	require.Error(t, err)
}

func TestSetMakesEntryFresh(t *testing.T) {
	t.Parallel()

	c := New()
	key := NewKey("reward", "s1", "r1")
	c.Set(key, "direct")

	f := &counter{value: "fetched"}
	got, err := Query(context.Background(), c, key, Options{StaleTime: time.Minute}, f.fetch)
	require.NoError(t, err)
	assert.Equal(t, "direct", got)
	assert.Zero(t, f.calls.Load())
}

func TestInvalidateIsScopedByMatch(t *testing.T) {
	t.Parallel()

	c := New()
	a := NewKey("rewards", "s1", `{"page":1}`)
	b := NewKey("rewards", "s1", `{"page":2}`)
	other := NewKey("rewards", "s2", `{"page":1}`)
	stats := NewKey("stats", "s1", nil)
	for _, k := range []Key{a, b, other, stats} {
		c.Set(k, "v")
	}

	n := c.Invalidate(Match{Op: "rewards", Store: "s1"})
	assert.Equal(t, 2, n)

	for k, want := range map[Key]bool{a: true, b: true, other: false, stats: false} {
		st, ok := c.State(k)
		require.True(t, ok)
		assert.Equal(t, want, st.Invalidated, k.String())
		assert.True(t, st.HasValue, "invalidation keeps the value for display")
	}
}

func TestUpdateRewritesMatchingEntries(t *testing.T) {
	t.Parallel()

	c := New()
	c.Set(NewKey("list", "s1", "a"), []string{"x", "y"})
	c.Set(NewKey("list", "s1", "b"), []string{"z"})

	n := c.Update(Match{Op: "list"}, func(_ Key, old any) (any, bool) {
		list := old.([]string)
		for i, v := range list {
			if v == "y" {
				next := append([]string(nil), list...)
				next[i] = "Y"
				return next, true
			}
		}
		return old, false
	})
	assert.Equal(t, 1, n)

	got, _ := Peek[[]string](c, NewKey("list", "s1", "a"))
	assert.Equal(t, []string{"x", "Y"}, got)
}

func TestSnapshotRestore(t *testing.T) {
	t.Parallel()

	c := New()
	key := NewKey("requests", "s1", "")
	c.Set(key, []string{"PENDING"})

	snap := c.Snapshot(Match{Op: "requests", Store: "s1"})
	assert.Equal(t, 1, snap.Len())

	c.Update(Match{Op: "requests"}, func(Key, any) (any, bool) {
		return []string{"FULFILLED"}, true
	})
	got, _ := Peek[[]string](c, key)
	assert.Equal(t, []string{"FULFILLED"}, got)

	c.Restore(snap)
	got, _ = Peek[[]string](c, key)
	assert.Equal(t, []string{"PENDING"}, got)
}

func TestFocusInvalidatesRegisteredEntries(t *testing.T) {
	t.Parallel()

	c := New()
	focused := NewKey("requests", "s1", "")
	plain := NewKey("stats", "s1", nil)

	_, err := Query(context.Background(), c, focused, Options{StaleTime: time.Hour, RefetchOnFocus: true}, (&counter{value: "r"}).fetch)
	require.NoError(t, err)
	_, err = Query(context.Background(), c, plain, Options{StaleTime: time.Hour}, (&counter{value: "s"}).fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Focus())

	st, _ := c.State(focused)
	assert.True(t, st.Stale)
	st, _ = c.State(plain)
	assert.False(t, st.Stale)
}

func TestRemoveAndClear(t *testing.T) {
	t.Parallel()

	c := New()
	k1 := NewKey("reward", "s1", "r1")
	k2 := NewKey("reward", "s1", "r2")
	c.Set(k1, "a")
	c.Set(k2, "b")

	assert.Equal(t, 1, c.Remove(Exact(k1)))
	_, ok := c.Get(k1)
	assert.False(t, ok)

	c.Clear()
	assert.Empty(t, c.Keys(Match{Op: "reward"}))
}

func TestExactEmptyParamsTouchesOnlyThatKey(t *testing.T) {
	t.Parallel()

	c := New()
	c.Set(NewKey("reward", "s1", "r1"), "a")
	c.Set(NewKey("reward", "s1", "r2"), "b")

	assert.Equal(t, 0, c.Invalidate(Exact(NewKey("reward", "s1", ""))))
	assert.Equal(t, 0, c.Remove(Exact(NewKey("reward", "s1", ""))))
	assert.Len(t, c.Keys(Match{Op: "reward", Store: "s1"}), 2)
	st, _ := c.State(NewKey("reward", "s1", "r1"))
	assert.False(t, st.Invalidated)
}

func TestKeyOutlivesCallerBuffer(t *testing.T) {
	t.Parallel()

	c := New()
	buf := []byte("r-AAAA")
	id := unsafe.String(&buf[0], len(buf))
	c.Set(NewKey("details", "s1", id), "value")

	copy(buf, "r-BBBB")

	got, ok := c.Get(NewKey("details", "s1", "r-AAAA"))
	require.True(t, ok)
	assert.Equal(t, "value", got)
	assert.Equal(t, "r-AAAA", c.Keys(Match{Op: "details"})[0].Params)
}

func TestKeysAreSorted(t *testing.T) {
	t.Parallel()

	c := New()
	c.Set(NewKey("op", "s2", nil), 1)
	c.Set(NewKey("op", "s1", nil), 1)

	keys := c.Keys(Match{Op: "op"})
	require.Len(t, keys, 2)
	assert.Equal(t, "s1", keys[0].Store)
}
