package querycache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingFetch(n *atomic.Int32, v any) func(context.Context) (any, error) {
	return func(context.Context) (any, error) {
		n.Add(1)
		return v, nil
	}
}

func TestCacheFetch(t *testing.T) {
	t.Run("Hit", func(t *testing.T) {
		c := New(0)
		var n atomic.Int32

		for range 3 {
			v, err := c.Fetch(t.Context(), domain.TagProducts, "k", countingFetch(&n, "v"))
			require.NoError(t, err)
			assert.Equal(t, "v", v)
		}
		assert.EqualValues(t, 1, n.Load())
	})

	t.Run("ErrorNotCached", func(t *testing.T) {
		c := New(0)
		fetchErr := errors.New("unavailable")

		_, err := c.Fetch(t.Context(), domain.TagCart, "k",
			func(context.Context) (any, error) { return nil, fetchErr },
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, fetchErr)
		assert.Zero(t, c.Len(domain.TagCart))
	})

	t.Run("Expired", func(t *testing.T) {
		c := New(time.Minute)
		now := time.Unix(1000, 0)
		c.now = func() time.Time { return now }
		var n atomic.Int32

		_, err := c.Fetch(t.Context(), domain.TagProducts, "k", countingFetch(&n, 1))
		require.NoError(t, err)

		now = now.Add(59 * time.Second)
		_, err = c.Fetch(t.Context(), domain.TagProducts, "k", countingFetch(&n, 1))
		require.NoError(t, err)
		assert.EqualValues(t, 1, n.Load())

		now = now.Add(time.Second)
		_, err = c.Fetch(t.Context(), domain.TagProducts, "k", countingFetch(&n, 1))
		require.NoError(t, err)
		assert.EqualValues(t, 2, n.Load())
	})

	t.Run("SharedFetch", func(t *testing.T) {
		c := New(0)
		var n atomic.Int32
		release := make(chan struct{})

		fetch := func(context.Context) (any, error) {
			n.Add(1)
			<-release
			return "v", nil
		}

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := c.Fetch(context.Background(), domain.TagProducts, "k", fetch)
				assert.NoError(t, err)
				assert.Equal(t, "v", v)
			}()
		}

		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.EqualValues(t, 1, n.Load())
	})
}

func TestCacheInvalidate(t *testing.T) {
	t.Run("Refetch", func(t *testing.T) {
		c := New(0)
		var products, cart atomic.Int32

		_, _ = c.Fetch(t.Context(), domain.TagProducts, "a", countingFetch(&products, 1))
		_, _ = c.Fetch(t.Context(), domain.TagProducts, "b", countingFetch(&products, 2))
		_, _ = c.Fetch(t.Context(), domain.TagCart, "a", countingFetch(&cart, 3))
		require.Equal(t, 2, c.Len(domain.TagProducts))

		require.NoError(t, c.Invalidate(t.Context(), domain.TagProducts))
		assert.Zero(t, c.Len(domain.TagProducts))
		assert.Equal(t, 1, c.Len(domain.TagCart))

		_, _ = c.Fetch(t.Context(), domain.TagProducts, "a", countingFetch(&products, 1))
		_, _ = c.Fetch(t.Context(), domain.TagCart, "a", countingFetch(&cart, 3))
		assert.EqualValues(t, 3, products.Load())
		assert.EqualValues(t, 1, cart.Load())
	})

	t.Run("DuringFetch", func(t *testing.T) {
		c := New(0)
		started := make(chan struct{})
		release := make(chan struct{})

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, err := c.Fetch(context.Background(), domain.TagProducts, "k",
				func(context.Context) (any, error) {
					close(started)
					<-release
					return "stale", nil
				},
			)
			assert.NoError(t, err)
		}()

		<-started
		require.NoError(t, c.Invalidate(t.Context(), domain.TagProducts))

		v, err := c.Fetch(t.Context(), domain.TagProducts, "k",
			func(context.Context) (any, error) { return "fresh", nil },
		)
		require.NoError(t, err)
		assert.Equal(t, "fresh", v)

		close(release)
		<-done

		assert.Equal(t, 1, c.Len(domain.TagProducts))
		v, err = c.Fetch(t.Context(), domain.TagProducts, "k",
			func(context.Context) (any, error) { return "refetched", nil },
		)
		require.NoError(t, err)
		assert.Equal(t, "fresh", v)
	})
}

func TestCacheLimit(t *testing.T) {
	t.Run("ExpiredSwept", func(t *testing.T) {
		c := New(time.Millisecond)
		c.limit = 100
		now := time.Unix(1000, 0)
		c.now = func() time.Time { return now }

		for i := range 100 {
			_, err := c.Fetch(t.Context(), domain.TagProducts, strconv.Itoa(i),
				countingFetch(new(atomic.Int32), i))
			require.NoError(t, err)
		}
		require.Equal(t, 100, c.Len(domain.TagProducts))

		now = now.Add(time.Second)
		_, err := c.Fetch(t.Context(), domain.TagProducts, "new",
			countingFetch(new(atomic.Int32), "v"))
		require.NoError(t, err)
		assert.Equal(t, 1, c.Len(domain.TagProducts))
	})

	t.Run("Capped", func(t *testing.T) {
		c := New(0)
		c.limit = 10

		for i := range 10000 {
			_, err := c.Fetch(t.Context(), domain.TagProducts, strconv.Itoa(i),
				countingFetch(new(atomic.Int32), i))
			require.NoError(t, err)
		}
		assert.Equal(t, 10, c.Len(domain.TagProducts))
	})

	t.Run("ExpiredFirst", func(t *testing.T) {
		c := New(time.Minute)
		c.limit = 2
		now := time.Unix(1000, 0)
		c.now = func() time.Time { return now }

		for _, k := range []string{"a", "b"} {
			_, err := c.Fetch(t.Context(), domain.TagCart, k,
				countingFetch(new(atomic.Int32), k))
			require.NoError(t, err)
		}

		now = now.Add(2 * time.Minute)
		_, err := c.Fetch(t.Context(), domain.TagCart, "c",
			countingFetch(new(atomic.Int32), "c"))
		require.NoError(t, err)
		assert.Equal(t, 1, c.Len(domain.TagCart))
	})
}
