package usecase

import (
	"context"
	"testing"

	"huddle/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChatValidation(t *testing.T) {
	tests := []struct {
		name     string
		chatType string
		userIds  []string
		wantErr  error
	}{
		{"unknown type", "broadcast", []string{"u2"}, ErrValidation},
		{"individual needs exactly two", entity.ChatTypeIndividual, []string{"u2", "u3"}, ErrValidation},
		{"individual with self only", entity.ChatTypeIndividual, []string{"u1"}, ErrValidation},
		{"group needs two members", entity.ChatTypeGroup, nil, ErrValidation},
		{"unknown member", entity.ChatTypeGroup, []string{"ghost"}, ErrNotFound},
		{"individual ok", entity.ChatTypeIndividual, []string{"u2"}, nil},
		{"group ok", entity.ChatTypeGroup, []string{"u2", "u3"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := newFakeUserRepo(
				entity.User{Id: "u1"},
				entity.User{Id: "u2"},
				entity.User{Id: "u3"},
			)
			uc := NewChatUsecase(newFakeChatRepo(), userRepo)

			_, err := uc.Create(context.Background(), tt.chatType, "room", "u1", tt.userIds)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateChatDedupesMembers(t *testing.T) {
	userRepo := newFakeUserRepo(entity.User{Id: "u1"}, entity.User{Id: "u2"})
	chatRepo := newFakeChatRepo()
	uc := NewChatUsecase(chatRepo, userRepo)

	// Creator repeated in the member list still counts once.
	chatId, err := uc.Create(context.Background(), entity.ChatTypeIndividual, "", "u1", []string{"u1", "u2", "u2"})

	require.NoError(t, err)
	participants, err := uc.GetParticipants(context.Background(), chatId)
	require.NoError(t, err)
	assert.Len(t, participants, 2)
}

func TestCreateGroupChatCreatorIsAdmin(t *testing.T) {
	userRepo := newFakeUserRepo(entity.User{Id: "u1"}, entity.User{Id: "u2"}, entity.User{Id: "u3"})
	chatRepo := newFakeChatRepo()
	uc := NewChatUsecase(chatRepo, userRepo)

	chatId, err := uc.Create(context.Background(), entity.ChatTypeGroup, "team", "u1", []string{"u2", "u3"})
	require.NoError(t, err)

	participants, err := uc.GetParticipants(context.Background(), chatId)
	require.NoError(t, err)

	roles := make(map[string]string)
	for _, p := range participants {
		roles[p.UserId] = p.Role
	}
	assert.Equal(t, entity.RoleAdmin, roles["u1"])
	assert.Equal(t, entity.RoleMember, roles["u2"])
	assert.Equal(t, entity.RoleMember, roles["u3"])
}

func TestCreateIndividualChatHasNoAdmin(t *testing.T) {
	userRepo := newFakeUserRepo(entity.User{Id: "u1"}, entity.User{Id: "u2"})
	chatRepo := newFakeChatRepo()
	uc := NewChatUsecase(chatRepo, userRepo)

	chatId, err := uc.Create(context.Background(), entity.ChatTypeIndividual, "", "u1", []string{"u2"})
	require.NoError(t, err)

	participants, err := uc.GetParticipants(context.Background(), chatId)
	require.NoError(t, err)
	for _, p := range participants {
		assert.Equal(t, entity.RoleMember, p.Role)
	}
}

func TestAuthorize(t *testing.T) {
	chatRepo := newFakeChatRepo()
	chatRepo.addChat("c1", entity.ChatTypeGroup,
		entity.ChatParticipant{UserId: "u1", Role: entity.RoleMember},
	)
	uc := NewChatUsecase(chatRepo, newFakeUserRepo())
	ctx := context.Background()

	assert.NoError(t, uc.Authorize(ctx, "u1", "c1"))
	assert.ErrorIs(t, uc.Authorize(ctx, "outsider", "c1"), ErrAccessDenied)
}

func TestGetUnknownChat(t *testing.T) {
	uc := NewChatUsecase(newFakeChatRepo(), newFakeUserRepo())

	_, err := uc.Get(context.Background(), "ghost")

	assert.ErrorIs(t, err, ErrNotFound)
}
