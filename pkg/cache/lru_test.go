package cache_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twitterkit/pkg/cache"
)

func TestLRU(t *testing.T) {
	t.Parallel()

	t.Run("evicts least recently used", func(t *testing.T) {
		c := cache.NewLRU[int64, string](2)
		require.True(t, c.PutIfAbsent(1, "a"))
		require.True(t, c.PutIfAbsent(2, "b"))
		_, ok := c.Get(1)
		require.True(t, ok)
		require.True(t, c.PutIfAbsent(3, "c"))

		_, ok = c.Get(2)
		assert.False(t, ok, "2 was least recently used")
		v, ok := c.Get(1)
		assert.True(t, ok)
		assert.Equal(t, "a", v)
		_, ok = c.Get(3)
		assert.True(t, ok)
	})

	t.Run("put if absent keeps the first value", func(t *testing.T) {
		c := cache.NewLRU[string, int](4)
		assert.True(t, c.PutIfAbsent("k", 1))
		assert.False(t, c.PutIfAbsent("k", 2))
		v, _ := c.Get("k")
		assert.Equal(t, 1, v)
	})

	t.Run("get or create calls create once", func(t *testing.T) {
		c := cache.NewLRU[string, int](4)
		calls := 0
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.GetOrCreate("k", func() int { calls++; return 7 })
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, calls)
		assert.Equal(t, 7, c.GetOrCreate("k", func() int { return 0 }))
	})

	t.Run("get or create never returns zero under eviction", func(t *testing.T) {
		c := cache.NewLRU[int, *int](1)
		var wg sync.WaitGroup
		for g := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range 1000 {
					key := (g + i) % 4
					v := c.GetOrCreate(key, func() *int { return &key })
					if !assert.NotNil(t, v) {
						return
					}
				}
			}()
		}
		wg.Wait()
	})

	t.Run("invalid capacity", func(t *testing.T) {
		assert.Panics(t, func() { cache.NewLRU[string, int](0) })
	})
}
