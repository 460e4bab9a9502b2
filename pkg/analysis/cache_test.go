package analysis

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(ttl time.Duration, max int) (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	c := NewCache(ttl, max)
	c.now = clock.Now
	return c, clock
}

func TestCacheTTL(t *testing.T) {
	c, clock := newTestCache(300*time.Second, 10)

	c.Set("k", []byte(`{"a":1}`))
	data, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(data))

	clock.Advance(299 * time.Second)
	_, ok = c.Get("k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCacheBoundEvictsOldest(t *testing.T) {
	c, clock := newTestCache(time.Hour, 3)

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), []byte("x"))
		clock.Advance(time.Second)
	}
	c.Set("k3", []byte("x"))

	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("k0")
	assert.False(t, ok)
	_, ok = c.Get("k3")
	assert.True(t, ok)

	// overwriting an existing key never evicts
	c.Set("k1", []byte("y"))
	assert.Equal(t, 3, c.Len())
}

func TestCacheEvictExpiredAndClear(t *testing.T) {
	c, clock := newTestCache(10*time.Second, 10)
	c.Set("old", []byte("x"))
	clock.Advance(6 * time.Second)
	c.Set("new", []byte("x"))
	clock.Advance(5 * time.Second)

	assert.Equal(t, 1, c.EvictExpired())
	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 5.0, stats.OldestAgeSeconds)

	assert.Equal(t, 1, c.Clear())
	assert.Equal(t, 0, c.Len())
}

func TestCacheKeyIsStable(t *testing.T) {
	a, err := cacheKey("comprehensive", ComprehensiveOptions{CategoryID: "tools", SalesPeriodDays: 30})
	require.NoError(t, err)
	b, err := cacheKey("comprehensive", ComprehensiveOptions{CategoryID: "tools", SalesPeriodDays: 30})
	require.NoError(t, err)
	other, err := cacheKey("comprehensive", ComprehensiveOptions{CategoryID: "paint", SalesPeriodDays: 30})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)

	_, err = cacheKey("bad", map[string]interface{}{"ch": make(chan int)})
	assert.Error(t, err)
}
