package usecase

import (
	"context"
	"fmt"
	"time"

	"huddle/internal/entity"
	"huddle/internal/repository"
)

// In-memory repository fakes shared by the usecase tests.

type fakeUserRepo struct {
	users map[string]entity.User
}

func newFakeUserRepo(users ...entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]entity.User)}
	for _, u := range users {
		r.users[u.Id] = u
	}
	return r
}

func (r *fakeUserRepo) Get(_ context.Context, userId string) (entity.User, error) {
	u, ok := r.users[userId]
	if !ok {
		return entity.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return entity.User{}, repository.ErrUserNotFound
}

func (r *fakeUserRepo) Index(_ context.Context, filter entity.UserIndexFilter) ([]entity.User, error) {
	var out []entity.User
	for _, u := range r.users {
		for _, id := range filter.Ids {
			if u.Id == id {
				out = append(out, u)
			}
		}
		for _, name := range filter.Usernames {
			if u.Username == name {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user entity.User) (string, error) {
	if user.Id == "" {
		user.Id = fmt.Sprintf("user-%d", len(r.users)+1)
	}
	r.users[user.Id] = user
	return user.Id, nil
}

func (r *fakeUserRepo) UpdateStatus(_ context.Context, userId, status string, lastSeen time.Time) error {
	u, ok := r.users[userId]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Status = status
	if !lastSeen.IsZero() {
		u.LastSeen = lastSeen
	}
	r.users[userId] = u
	return nil
}

func (r *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(context.Background(), email)
	return err == nil, nil
}

func (r *fakeUserRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

type fakeChatRepo struct {
	chats        map[string]entity.Chat
	participants map[string][]entity.ChatParticipant
	lastMessage  map[string]entity.LastMessage
	lastRead     map[string]time.Time // chatId/userId
	failLastMsg  bool
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		chats:        make(map[string]entity.Chat),
		participants: make(map[string][]entity.ChatParticipant),
		lastMessage:  make(map[string]entity.LastMessage),
		lastRead:     make(map[string]time.Time),
	}
}

func (r *fakeChatRepo) addChat(chatId, chatType string, members ...entity.ChatParticipant) {
	r.chats[chatId] = entity.Chat{Id: chatId, Type: chatType}
	for i := range members {
		members[i].ChatId = chatId
	}
	r.participants[chatId] = members
}

func (r *fakeChatRepo) Index(_ context.Context, userId string) ([]entity.Chat, error) {
	var out []entity.Chat
	for chatId, members := range r.participants {
		for _, p := range members {
			if p.UserId == userId {
				out = append(out, r.chats[chatId])
			}
		}
	}
	return out, nil
}

func (r *fakeChatRepo) Get(_ context.Context, chatId string) (entity.Chat, error) {
	c, ok := r.chats[chatId]
	if !ok {
		return entity.Chat{}, repository.ErrChatNotFound
	}
	return c, nil
}

func (r *fakeChatRepo) Create(_ context.Context, chat entity.Chat) (string, error) {
	chat.Id = fmt.Sprintf("chat-%d", len(r.chats)+1)
	r.chats[chat.Id] = chat
	return chat.Id, nil
}

func (r *fakeChatRepo) UpdateLastMessage(_ context.Context, chatId string, last entity.LastMessage) error {
	if r.failLastMsg {
		return fmt.Errorf("cache write failed")
	}
	r.lastMessage[chatId] = last
	return nil
}

func (r *fakeChatRepo) AddParticipants(_ context.Context, chatParticipants []entity.ChatParticipant) error {
	for _, p := range chatParticipants {
		r.participants[p.ChatId] = append(r.participants[p.ChatId], p)
	}
	return nil
}

func (r *fakeChatRepo) GetParticipants(_ context.Context, chatId string) ([]entity.ChatParticipant, error) {
	return r.participants[chatId], nil
}

func (r *fakeChatRepo) IsParticipant(_ context.Context, userId, chatId string) (bool, error) {
	for _, p := range r.participants[chatId] {
		if p.UserId == userId {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeChatRepo) IsAdmin(_ context.Context, userId, chatId string) (bool, error) {
	for _, p := range r.participants[chatId] {
		if p.UserId == userId && p.Role == entity.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeChatRepo) UpdateLastRead(_ context.Context, userId, chatId string, at time.Time) error {
	r.lastRead[chatId+"/"+userId] = at
	return nil
}

type fakeMessageRepo struct {
	messages map[string]entity.Message
	nextId   int
}

func newFakeMessageRepo(messages ...entity.Message) *fakeMessageRepo {
	r := &fakeMessageRepo{messages: make(map[string]entity.Message)}
	for _, m := range messages {
		r.messages[m.Id] = m
	}
	return r
}

func (r *fakeMessageRepo) Get(_ context.Context, messageId string) (entity.Message, error) {
	m, ok := r.messages[messageId]
	if !ok {
		return entity.Message{}, repository.ErrMessageNotFound
	}
	return m, nil
}

func (r *fakeMessageRepo) GetByIds(_ context.Context, messageIds []string) ([]entity.Message, error) {
	var out []entity.Message
	for _, id := range messageIds {
		if m, ok := r.messages[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) Create(_ context.Context, message entity.Message) (string, error) {
	r.nextId++
	message.Id = fmt.Sprintf("msg-%d", r.nextId)
	r.messages[message.Id] = message
	return message.Id, nil
}

func (r *fakeMessageRepo) UpdateText(_ context.Context, messageId, text string, editedAt time.Time) error {
	m, ok := r.messages[messageId]
	if !ok {
		return repository.ErrMessageNotFound
	}
	m.Content.Text = text
	m.Metadata.EditedAt = &editedAt
	r.messages[messageId] = m
	return nil
}

func (r *fakeMessageRepo) SoftDelete(_ context.Context, messageId string, at time.Time) error {
	m, ok := r.messages[messageId]
	if !ok {
		return repository.ErrMessageNotFound
	}
	m.IsDeleted = true
	m.DeletedAt = &at
	r.messages[messageId] = m
	return nil
}

func (r *fakeMessageRepo) AddReadReceipts(_ context.Context, messageIds []string, receipt entity.ReadReceipt) error {
	for _, id := range messageIds {
		m, ok := r.messages[id]
		if !ok {
			continue
		}
		already := false
		for _, rb := range m.ReadBy {
			if rb.UserId == receipt.UserId {
				already = true
			}
		}
		if !already {
			m.ReadBy = append(m.ReadBy, receipt)
			r.messages[id] = m
		}
	}
	return nil
}

func (r *fakeMessageRepo) UpdateReactions(_ context.Context, messageId string, reactions []entity.Reaction) error {
	m, ok := r.messages[messageId]
	if !ok {
		return repository.ErrMessageNotFound
	}
	m.Metadata.Reactions = reactions
	r.messages[messageId] = m
	return nil
}
