package cache

import (
	"sync"
	"time"
)

// TTLStore is an in-memory map whose entries expire after a fixed window
// unless refreshed. A background sweep runs when NewTTLStore is given a
// positive cleanup interval, and an eviction callback fires for every entry
// the sweep removes. Explicit Delete does not fire the callback.
type TTLStore struct {
	items   sync.Map
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.RWMutex
	onEvict func(key string)
}

type item struct {
	value      any
	expiration int64 // unix nano; 0 means no expiration
}

func NewTTLStore(cleanupInterval time.Duration) *TTLStore {
	s := &TTLStore{
		stop: make(chan struct{}),
	}
	if cleanupInterval > 0 {
		s.wg.Add(1)
		go func() {
			ticker := time.NewTicker(cleanupInterval)
			defer ticker.Stop()
			defer s.wg.Done()
			for {
				select {
				case <-ticker.C:
					s.sweep()
				case <-s.stop:
					return
				}
			}
		}()
	}
	return s
}

// SetOnEvict registers the callback invoked when the sweep removes an
// expired entry.
func (s *TTLStore) SetOnEvict(fn func(key string)) {
	s.mu.Lock()
	s.onEvict = fn
	s.mu.Unlock()
}

func (s *TTLStore) Set(key string, value any, ttl time.Duration) {
	var exp int64
	if ttl > 0 {
		exp = time.Now().Add(ttl).UnixNano()
	}
	s.items.Store(key, &item{
		value:      value,
		expiration: exp,
	})
}

func (s *TTLStore) Get(key string) (any, bool) {
	v, ok := s.items.Load(key)
	if !ok {
		return nil, false
	}
	it := v.(*item)
	if it.isExpired() {
		s.items.Delete(key)
		s.evict(key)
		return nil, false
	}
	return it.value, true
}

func (s *TTLStore) Delete(key string) {
	s.items.Delete(key)
}

func (s *TTLStore) Exists(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Keys returns all live keys, optionally filtered by prefix.
func (s *TTLStore) Keys(prefix string) []string {
	keys := make([]string, 0)
	now := time.Now().UnixNano()
	s.items.Range(func(k, v any) bool {
		it := v.(*item)
		if it.expiration != 0 && now > it.expiration {
			return true
		}
		ks, ok := k.(string)
		if !ok {
			return true
		}
		if prefix == "" || len(ks) >= len(prefix) && ks[:len(prefix)] == prefix {
			keys = append(keys, ks)
		}
		return true
	})
	return keys
}

func (s *TTLStore) Close() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.wg.Wait()
}

func (it *item) isExpired() bool {
	if it == nil || it.expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > it.expiration
}

func (s *TTLStore) evict(key string) {
	s.mu.RLock()
	fn := s.onEvict
	s.mu.RUnlock()
	if fn != nil {
		fn(key)
	}
}

func (s *TTLStore) sweep() {
	now := time.Now().UnixNano()
	s.items.Range(func(k, v any) bool {
		it := v.(*item)
		if it.expiration != 0 && now > it.expiration {
			s.items.Delete(k)
			if ks, ok := k.(string); ok {
				s.evict(ks)
			}
		}
		return true
	})
}
