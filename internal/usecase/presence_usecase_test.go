package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"huddle/infrastructure/cache"
	"huddle/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypingStartStop(t *testing.T) {
	store := cache.NewTTLStore(0)
	defer store.Close()
	uc := NewPresenceUsecase(newFakeUserRepo(), store)

	uc.StartTyping("c1", "u1")
	uc.StartTyping("c1", "u2")
	uc.StartTyping("c2", "u1")

	assert.ElementsMatch(t, []string{"u1", "u2"}, uc.TypingUsers("c1"))
	assert.Equal(t, []string{"u1"}, uc.TypingUsers("c2"))

	uc.StopTyping("c1", "u1")
	assert.Equal(t, []string{"u2"}, uc.TypingUsers("c1"))
}

func TestTypingExpiryFiresCallback(t *testing.T) {
	store := cache.NewTTLStore(5 * time.Millisecond)
	defer store.Close()
	uc := NewPresenceUsecase(newFakeUserRepo(), store)

	var mu sync.Mutex
	var gotChat, gotUser string
	uc.SetOnTypingExpired(func(chatId, userId string) {
		mu.Lock()
		gotChat, gotUser = chatId, userId
		mu.Unlock()
	})

	// Short-lived entry stands in for a start whose stop never arrived.
	store.Set("c1/u1", true, time.Millisecond)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotChat == "c1" && gotUser == "u1"
	}, time.Second, 5*time.Millisecond, "sweep should evict and report the ghost typist")

	assert.Empty(t, uc.TypingUsers("c1"))
}

func TestExplicitStopDoesNotFireCallback(t *testing.T) {
	store := cache.NewTTLStore(5 * time.Millisecond)
	defer store.Close()
	uc := NewPresenceUsecase(newFakeUserRepo(), store)

	fired := make(chan struct{}, 1)
	uc.SetOnTypingExpired(func(chatId, userId string) {
		fired <- struct{}{}
	})

	uc.StartTyping("c1", "u1")
	uc.StopTyping("c1", "u1")

	select {
	case <-fired:
		t.Fatal("explicit stop must not trigger the expiry broadcast")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		status  string
		wantErr bool
	}{
		{entity.StatusOnline, false},
		{entity.StatusAway, false},
		{entity.StatusBusy, false},
		{entity.StatusOffline, true},
		{"invisible", true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			store := cache.NewTTLStore(0)
			defer store.Close()
			userRepo := newFakeUserRepo(entity.User{Id: "u1", Status: entity.StatusOffline})
			uc := NewPresenceUsecase(userRepo, store)

			user, err := uc.UpdateStatus(context.Background(), "u1", tt.status)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, user.Status)
			assert.Equal(t, tt.status, userRepo.users["u1"].Status)
		})
	}
}

func TestMarkOfflineStampsLastSeen(t *testing.T) {
	store := cache.NewTTLStore(0)
	defer store.Close()
	userRepo := newFakeUserRepo(entity.User{Id: "u1", Status: entity.StatusOnline})
	uc := NewPresenceUsecase(userRepo, store)

	before := time.Now()
	user, err := uc.MarkOffline(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, entity.StatusOffline, user.Status)
	assert.False(t, user.LastSeen.Before(before))
	assert.False(t, userRepo.users["u1"].LastSeen.IsZero())
}

func TestMarkOnlineDoesNotTouchLastSeen(t *testing.T) {
	store := cache.NewTTLStore(0)
	defer store.Close()
	seen := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	userRepo := newFakeUserRepo(entity.User{Id: "u1", Status: entity.StatusOffline, LastSeen: seen})
	uc := NewPresenceUsecase(userRepo, store)

	user, err := uc.MarkOnline(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, entity.StatusOnline, user.Status)
	assert.Equal(t, seen, userRepo.users["u1"].LastSeen)
}
