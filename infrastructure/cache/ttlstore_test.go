package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetExpiry(t *testing.T) {
	s := NewTTLStore(0)
	defer s.Close()

	s.Set("k", "v", 20*time.Millisecond)

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	time.Sleep(30 * time.Millisecond)

	_, ok = s.Get("k")
	assert.False(t, ok)
}

func TestZeroTTLNeverExpires(t *testing.T) {
	s := NewTTLStore(5 * time.Millisecond)
	defer s.Close()

	s.Set("k", 1, 0)
	time.Sleep(30 * time.Millisecond)

	assert.True(t, s.Exists("k"))
}

func TestSweepFiresEvictCallback(t *testing.T) {
	s := NewTTLStore(5 * time.Millisecond)
	defer s.Close()

	var mu sync.Mutex
	var evicted []string
	s.SetOnEvict(func(key string) {
		mu.Lock()
		evicted = append(evicted, key)
		mu.Unlock()
	})

	s.Set("gone", 1, time.Millisecond)
	s.Set("stays", 1, time.Minute)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(evicted) == 1 && evicted[0] == "gone"
	}, time.Second, 5*time.Millisecond)

	assert.True(t, s.Exists("stays"))
}

func TestExplicitDeleteSkipsCallback(t *testing.T) {
	s := NewTTLStore(5 * time.Millisecond)
	defer s.Close()

	fired := make(chan string, 1)
	s.SetOnEvict(func(key string) {
		fired <- key
	})

	s.Set("k", 1, time.Minute)
	s.Delete("k")

	select {
	case key := <-fired:
		t.Fatalf("unexpected evict callback for %q", key)
	case <-time.After(30 * time.Millisecond):
	}
	assert.False(t, s.Exists("k"))
}

func TestKeysPrefix(t *testing.T) {
	s := NewTTLStore(0)
	defer s.Close()

	s.Set("chat1/alice", 1, time.Minute)
	s.Set("chat1/bob", 1, time.Minute)
	s.Set("chat2/carol", 1, time.Minute)
	s.Set("chat1/expired", 1, time.Nanosecond)

	time.Sleep(time.Millisecond)

	assert.ElementsMatch(t, []string{"chat1/alice", "chat1/bob"}, s.Keys("chat1/"))
	assert.Len(t, s.Keys(""), 3)
}
