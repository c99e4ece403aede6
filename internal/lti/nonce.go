package lti

import (
	"sync"
	"time"
)

// NonceCache remembers recently seen oauth_nonce values so a captured launch
// cannot be replayed inside the timestamp window. Entries older than the
// window are pruned on the way through.
type NonceCache struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewNonceCache(ttl time.Duration) *NonceCache {
	return &NonceCache{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Remember records the nonce and reports whether it was fresh. A second call
// with the same value inside the ttl returns false.
func (c *NonceCache) Remember(nonce string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, at := range c.seen {
		if now.Sub(at) > c.ttl {
			delete(c.seen, key)
		}
	}

	if at, ok := c.seen[nonce]; ok && now.Sub(at) <= c.ttl {
		return false
	}
	c.seen[nonce] = now
	return true
}
