package auth

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

type attempts struct {
	count int
	first time.Time
}

// Throttle counts failed logins per username inside a window.
// Counters live in a ristretto cache and disappear with the window, a restart forgets them.
// Updates are serialized, but the cache may still refuse a write under memory pressure,
// so the count is a lower bound.
type Throttle struct {
	mu     sync.Mutex
	cache  *ristretto.Cache[string, attempts]
	max    int
	window time.Duration
	now    func() time.Time
}

// NewThrottle - max <= 0 disables throttling.
func NewThrottle(max int, window time.Duration) (*Throttle, error) {
	if max <= 0 || window <= 0 {
		return &Throttle{}, nil
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, attempts]{
		NumCounters: 100_000,
		MaxCost:     10_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create throttle cache: %w", err)
	}

	return &Throttle{cache: cache, max: max, window: window, now: time.Now}, nil
}

func throttleKey(username string) string {
	return strings.ToLower(username)
}

// Allowed - false when the username has used up its failed attempts.
func (t *Throttle) Allowed(username string) bool {
	if t.cache == nil {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	value, ok := t.cache.Get(throttleKey(username))
	if !ok || t.now().Sub(value.first) >= t.window {
		return true
	}
	return value.count < t.max
}

// Fail - remember one more failed attempt. Returns false when the cache dropped the write.
func (t *Throttle) Fail(username string) bool {
	if t.cache == nil {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := throttleKey(username)
	now := t.now()

	value, ok := t.cache.Get(key)
	if !ok || now.Sub(value.first) >= t.window {
		value = attempts{first: now}
	}
	value.count++

	ttl := t.window - now.Sub(value.first)
	if ttl <= 0 {
		ttl = t.window
	}
	if !t.cache.SetWithTTL(key, value, 1, ttl) {
		return false
	}
	t.cache.Wait()
	return true
}

// Reset - forget failures after a successful login.
func (t *Throttle) Reset(username string) {
	if t.cache == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache.Del(throttleKey(username))
}

// Close - release the cache.
func (t *Throttle) Close() {
	if t.cache != nil {
		t.cache.Close()
	}
}
