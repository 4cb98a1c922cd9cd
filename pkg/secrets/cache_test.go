package secrets

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleCreds() map[string]string {
	return map[string]string{"api_key": "abc123", "system_id": "42"}
}

func TestCache_PutAndGet(t *testing.T) {
	cache := NewCache[map[string]string](time.Minute)
	key := "dev|collective2"

	_, ok := cache.Get(key)
	assert.False(t, ok, "expected miss on empty cache")

	cache.Put(key, sampleCreds())

	creds, ok := cache.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "abc123", creds["api_key"])
}

func TestCache_Expiration(t *testing.T) {
	cache := NewCache[string](time.Minute)
	clock := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }

	cache.Put("k", "v")
	clock = clock.Add(59 * time.Second)
	_, ok := cache.Get("k")
	assert.True(t, ok)

	clock = clock.Add(2 * time.Second)
	_, ok = cache.Get("k")
	assert.False(t, ok, "expected expired entry")

	cache.cleanupExpired()
	assert.Empty(t, cache.data)
}

func TestCache_NoTTLNeverExpires(t *testing.T) {
	cache := NewCache[string](0)
	clock := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return clock }

	cache.Put("k", "v")
	clock = clock.Add(24 * 365 * time.Hour)

	v, ok := cache.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestCache_Bust(t *testing.T) {
	cache := NewCache[map[string]string](time.Minute)
	cache.Put("k", sampleCreds())
	cache.Bust("k")

	_, ok := cache.Get("k")
	assert.False(t, ok, "expected miss after bust")
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := NewCache[map[string]string](time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Put("k", sampleCreds())
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Get("k")
			}
		}()
	}
	wg.Wait()
}
