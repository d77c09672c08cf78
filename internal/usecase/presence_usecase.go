package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"huddle/infrastructure/cache"
	"huddle/internal/entity"
	"huddle/internal/repository"
)

// Typing entries expire server-side after this window even if the client's
// stop signal never arrives, so a dropped packet cannot leave a permanent
// "is typing" ghost. Clients additionally debounce at 3s.
const typingTTL = 5 * time.Second

type PresenceUsecase interface {
	StartTyping(chatId, userId string)
	StopTyping(chatId, userId string)
	TypingUsers(chatId string) []string
	// SetOnTypingExpired registers the sweep callback fired when a typing
	// entry ages out without an explicit stop.
	SetOnTypingExpired(fn func(chatId, userId string))

	// UpdateStatus accepts only online/away/busy from clients; offline is
	// derived from disconnect, never client-asserted.
	UpdateStatus(ctx context.Context, userId, status string) (entity.User, error)
	MarkOnline(ctx context.Context, userId string) (entity.User, error)
	MarkOffline(ctx context.Context, userId string) (entity.User, error)
}

type presenceUsecase struct {
	userRepo repository.UserRepository
	typing   *cache.TTLStore
}

func NewPresenceUsecase(userRepo repository.UserRepository, typing *cache.TTLStore) PresenceUsecase {
	return &presenceUsecase{
		userRepo: userRepo,
		typing:   typing,
	}
}

func typingKey(chatId, userId string) string {
	return chatId + "/" + userId
}

func (p *presenceUsecase) StartTyping(chatId, userId string) {
	p.typing.Set(typingKey(chatId, userId), true, typingTTL)
}

func (p *presenceUsecase) StopTyping(chatId, userId string) {
	p.typing.Delete(typingKey(chatId, userId))
}

func (p *presenceUsecase) TypingUsers(chatId string) []string {
	keys := p.typing.Keys(chatId + "/")
	users := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, userId, ok := splitTypingKey(key); ok {
			users = append(users, userId)
		}
	}
	return users
}

func (p *presenceUsecase) SetOnTypingExpired(fn func(chatId, userId string)) {
	p.typing.SetOnEvict(func(key string) {
		if chatId, userId, ok := splitTypingKey(key); ok {
			fn(chatId, userId)
		}
	})
}

func (p *presenceUsecase) UpdateStatus(ctx context.Context, userId, status string) (entity.User, error) {
	switch status {
	case entity.StatusOnline, entity.StatusAway, entity.StatusBusy:
	default:
		return entity.User{}, fmt.Errorf("%w: status must be one of online, away, busy", ErrValidation)
	}

	if err := p.userRepo.UpdateStatus(ctx, userId, status, time.Time{}); err != nil {
		return entity.User{}, err
	}

	user, err := p.userRepo.Get(ctx, userId)
	if err != nil {
		return entity.User{}, err
	}
	user.Status = status
	return user, nil
}

func (p *presenceUsecase) MarkOnline(ctx context.Context, userId string) (entity.User, error) {
	if err := p.userRepo.UpdateStatus(ctx, userId, entity.StatusOnline, time.Time{}); err != nil {
		return entity.User{}, err
	}

	user, err := p.userRepo.Get(ctx, userId)
	if err != nil {
		return entity.User{}, err
	}
	user.Status = entity.StatusOnline
	return user, nil
}

func (p *presenceUsecase) MarkOffline(ctx context.Context, userId string) (entity.User, error) {
	lastSeen := time.Now()
	if err := p.userRepo.UpdateStatus(ctx, userId, entity.StatusOffline, lastSeen); err != nil {
		return entity.User{}, err
	}

	user, err := p.userRepo.Get(ctx, userId)
	if err != nil {
		return entity.User{}, err
	}
	user.Status = entity.StatusOffline
	user.LastSeen = lastSeen
	return user, nil
}

func splitTypingKey(key string) (chatId, userId string, ok bool) {
	idx := strings.IndexByte(key, '/')
	if idx < 0 {
		return "", "", false
	}
	return key[:idx], key[idx+1:], true
}
