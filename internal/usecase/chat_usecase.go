package usecase

import (
	"context"
	"errors"
	"fmt"

	"huddle/internal/entity"
	"huddle/internal/repository"
)

// Per-action error taxonomy. Delivery maps these onto scoped error events;
// they never tear down a connection.
var (
	ErrAccessDenied      = errors.New("access denied")
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrEditWindowExpired = errors.New("edit window expired")
)

type ChatUsecase interface {
	Index(ctx context.Context, userId string) ([]entity.Chat, error)
	Get(ctx context.Context, chatId string) (entity.Chat, error)
	Create(ctx context.Context, chatType, name, creatorId string, userIds []string) (string, error)
	GetParticipants(ctx context.Context, chatId string) ([]entity.ChatParticipant, error)
	// Authorize verifies the user is a current participant of the chat (or
	// holds the admin role on it). Returns ErrAccessDenied otherwise.
	Authorize(ctx context.Context, userId, chatId string) error
}

type chatUsecase struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
}

func NewChatUsecase(chatRepo repository.ChatRepository, userRepo repository.UserRepository) ChatUsecase {
	return &chatUsecase{
		chatRepo: chatRepo,
		userRepo: userRepo,
	}
}

func (c *chatUsecase) Index(ctx context.Context, userId string) ([]entity.Chat, error) {
	return c.chatRepo.Index(ctx, userId)
}

func (c *chatUsecase) Get(ctx context.Context, chatId string) (entity.Chat, error) {
	chat, err := c.chatRepo.Get(ctx, chatId)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return entity.Chat{}, ErrNotFound
		}
		return entity.Chat{}, err
	}
	return chat, nil
}

func (c *chatUsecase) Create(ctx context.Context, chatType, name, creatorId string, userIds []string) (string, error) {
	switch chatType {
	case entity.ChatTypeIndividual, entity.ChatTypeGroup, entity.ChatTypeDepartment:
	default:
		return "", fmt.Errorf("%w: unknown chat type %q", ErrValidation, chatType)
	}

	members := dedupe(append([]string{creatorId}, userIds...))

	// An individual chat has exactly two participants.
	if chatType == entity.ChatTypeIndividual && len(members) != 2 {
		return "", fmt.Errorf("%w: individual chat requires exactly two participants", ErrValidation)
	}
	if len(members) < 2 {
		return "", fmt.Errorf("%w: chat requires at least two participants", ErrValidation)
	}

	for _, userId := range members {
		if _, err := c.userRepo.Get(ctx, userId); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return "", fmt.Errorf("%w: user %s", ErrNotFound, userId)
			}
			return "", err
		}
	}

	chat := entity.Chat{
		Type:      chatType,
		Name:      name,
		CreatedBy: creatorId,
	}

	chatId, err := c.chatRepo.Create(ctx, chat)
	if err != nil {
		return "", err
	}

	participants := make([]entity.ChatParticipant, 0, len(members))
	for _, userId := range members {
		role := entity.RoleMember
		if userId == creatorId && chatType != entity.ChatTypeIndividual {
			role = entity.RoleAdmin
		}
		participants = append(participants, entity.ChatParticipant{
			ChatId: chatId,
			UserId: userId,
			Role:   role,
		})
	}

	if err := c.chatRepo.AddParticipants(ctx, participants); err != nil {
		return "", err
	}

	return chatId, nil
}

func (c *chatUsecase) GetParticipants(ctx context.Context, chatId string) ([]entity.ChatParticipant, error) {
	return c.chatRepo.GetParticipants(ctx, chatId)
}

func (c *chatUsecase) Authorize(ctx context.Context, userId, chatId string) error {
	isParticipant, err := c.chatRepo.IsParticipant(ctx, userId, chatId)
	if err != nil {
		return err
	}
	if isParticipant {
		return nil
	}

	isAdmin, err := c.chatRepo.IsAdmin(ctx, userId, chatId)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrAccessDenied
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
