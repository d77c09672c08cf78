package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"huddle/internal/entity"
	"huddle/internal/repository"
)

const (
	maxTextLength = 4000
	previewLength = 80
	editWindow    = 15 * time.Minute
)

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_.-]+)`)

// SendInput carries one send_message action through the pipeline. The
// durable message id is assigned at the persistence step, never by the
// client.
type SendInput struct {
	ChatId   string
	SenderId string
	Type     string
	Content  entity.MessageContent
	ReplyTo  string
}

type MessageUsecase interface {
	Send(ctx context.Context, in SendInput) (entity.Message, error)
	Edit(ctx context.Context, userId, messageId, text string) (entity.Message, error)
	Delete(ctx context.Context, userId, messageId string) (entity.Message, error)
	// MarkRead returns the ids that were newly marked, so the caller can
	// skip the broadcast when the whole batch was a no-op.
	MarkRead(ctx context.Context, userId, chatId string, messageIds []string) ([]string, time.Time, error)
	// ToggleReaction returns the message, its full updated reaction list and
	// whether the toggle added (true) or removed (false) the reaction.
	ToggleReaction(ctx context.Context, userId, messageId, emoji string) (entity.Message, []entity.Reaction, bool, error)
}

type messageUsecase struct {
	messageRepo repository.MessageRepository
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
}

func NewMessageUsecase(messageRepo repository.MessageRepository, chatRepo repository.ChatRepository, userRepo repository.UserRepository) MessageUsecase {
	return &messageUsecase{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		userRepo:    userRepo,
	}
}

// Send runs the fan-out pipeline up to and including persistence and the
// lastMessage cache refresh. Broadcasting is the delivery layer's job, so
// observed order across clients is persistence-commit order.
func (m *messageUsecase) Send(ctx context.Context, in SendInput) (entity.Message, error) {
	isParticipant, err := m.chatRepo.IsParticipant(ctx, in.SenderId, in.ChatId)
	if err != nil {
		return entity.Message{}, err
	}
	if !isParticipant {
		return entity.Message{}, ErrAccessDenied
	}

	if err := validateContent(in.Type, in.Content); err != nil {
		return entity.Message{}, err
	}

	message := entity.Message{
		ChatId:    in.ChatId,
		SenderId:  in.SenderId,
		Type:      in.Type,
		Content:   in.Content,
		ReadBy:    []entity.ReadReceipt{},
		Status:    entity.MessageStatusSent,
		CreatedAt: time.Now(),
	}

	// A missing reply reference is tolerated: the message sends without
	// reply context rather than failing.
	if in.ReplyTo != "" {
		if preview, ok := m.resolveReply(ctx, in.ReplyTo); ok {
			message.Metadata.ReplyTo = preview
		}
	}

	if in.Type == entity.MessageTypeText {
		mentions, err := m.resolveMentions(ctx, in.ChatId, in.Content.Text)
		if err != nil {
			return entity.Message{}, err
		}
		message.Metadata.Mentions = mentions
	}

	messageId, err := m.messageRepo.Create(ctx, message)
	if err != nil {
		return entity.Message{}, err
	}
	message.Id = messageId

	last := entity.LastMessage{
		MessageId: messageId,
		SenderId:  in.SenderId,
		Preview:   truncate(previewText(message), previewLength),
		SentAt:    message.CreatedAt,
	}
	if err := m.chatRepo.UpdateLastMessage(ctx, in.ChatId, last); err != nil {
		// The message is durable; a stale summary cache is not worth
		// failing the send over.
		return message, nil
	}

	return message, nil
}

func (m *messageUsecase) Edit(ctx context.Context, userId, messageId, text string) (entity.Message, error) {
	message, err := m.messageRepo.Get(ctx, messageId)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return entity.Message{}, ErrNotFound
		}
		return entity.Message{}, err
	}

	if message.SenderId != userId {
		return entity.Message{}, ErrAccessDenied
	}
	if message.Type != entity.MessageTypeText {
		return entity.Message{}, fmt.Errorf("%w: only text messages can be edited", ErrValidation)
	}
	if time.Since(message.CreatedAt) > editWindow {
		return entity.Message{}, ErrEditWindowExpired
	}
	if text == "" || utf8.RuneCountInString(text) > maxTextLength {
		return entity.Message{}, fmt.Errorf("%w: text required, up to %d characters", ErrValidation, maxTextLength)
	}

	editedAt := time.Now()
	if err := m.messageRepo.UpdateText(ctx, messageId, text, editedAt); err != nil {
		return entity.Message{}, err
	}

	message.Content.Text = text
	message.Metadata.EditedAt = &editedAt
	return message, nil
}

func (m *messageUsecase) Delete(ctx context.Context, userId, messageId string) (entity.Message, error) {
	message, err := m.messageRepo.Get(ctx, messageId)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return entity.Message{}, ErrNotFound
		}
		return entity.Message{}, err
	}

	if message.SenderId != userId {
		isAdmin, err := m.chatRepo.IsAdmin(ctx, userId, message.ChatId)
		if err != nil {
			return entity.Message{}, err
		}
		if !isAdmin {
			return entity.Message{}, ErrAccessDenied
		}
	}

	deletedAt := time.Now()
	if err := m.messageRepo.SoftDelete(ctx, messageId, deletedAt); err != nil {
		return entity.Message{}, err
	}

	message.IsDeleted = true
	message.DeletedAt = &deletedAt
	return message, nil
}

func (m *messageUsecase) MarkRead(ctx context.Context, userId, chatId string, messageIds []string) ([]string, time.Time, error) {
	isParticipant, err := m.chatRepo.IsParticipant(ctx, userId, chatId)
	if err != nil {
		return nil, time.Time{}, err
	}
	if !isParticipant {
		return nil, time.Time{}, ErrAccessDenied
	}

	messages, err := m.messageRepo.GetByIds(ctx, messageIds)
	if err != nil {
		return nil, time.Time{}, err
	}

	readAt := time.Now()
	newlyRead := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.ChatId != chatId {
			continue
		}
		if hasRead(msg, userId) {
			continue
		}
		newlyRead = append(newlyRead, msg.Id)
	}

	if len(newlyRead) == 0 {
		return nil, readAt, nil
	}

	receipt := entity.ReadReceipt{UserId: userId, ReadAt: readAt}
	if err := m.messageRepo.AddReadReceipts(ctx, newlyRead, receipt); err != nil {
		return nil, time.Time{}, err
	}
	if err := m.chatRepo.UpdateLastRead(ctx, userId, chatId, readAt); err != nil {
		return nil, time.Time{}, err
	}

	return newlyRead, readAt, nil
}

func (m *messageUsecase) ToggleReaction(ctx context.Context, userId, messageId, emoji string) (entity.Message, []entity.Reaction, bool, error) {
	if emoji == "" {
		return entity.Message{}, nil, false, fmt.Errorf("%w: emoji required", ErrValidation)
	}

	message, err := m.messageRepo.Get(ctx, messageId)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return entity.Message{}, nil, false, ErrNotFound
		}
		return entity.Message{}, nil, false, err
	}

	isParticipant, err := m.chatRepo.IsParticipant(ctx, userId, message.ChatId)
	if err != nil {
		return entity.Message{}, nil, false, err
	}
	if !isParticipant {
		return entity.Message{}, nil, false, ErrAccessDenied
	}

	reactions, added := toggleReaction(message.Metadata.Reactions, emoji, userId)
	if err := m.messageRepo.UpdateReactions(ctx, messageId, reactions); err != nil {
		return entity.Message{}, nil, false, err
	}

	message.Metadata.Reactions = reactions
	return message, reactions, added, nil
}

func validateContent(msgType string, content entity.MessageContent) error {
	switch msgType {
	case entity.MessageTypeText:
		if content.Text == "" {
			return fmt.Errorf("%w: text content required", ErrValidation)
		}
		if utf8.RuneCountInString(content.Text) > maxTextLength {
			return fmt.Errorf("%w: text exceeds %d characters", ErrValidation, maxTextLength)
		}
	case entity.MessageTypeFile, entity.MessageTypeImage:
		if content.FileUrl == "" {
			return fmt.Errorf("%w: file url required", ErrValidation)
		}
	case entity.MessageTypeTask:
		if content.Title == "" {
			return fmt.Errorf("%w: task title required", ErrValidation)
		}
	default:
		// System messages are minted by the server only; everything else is
		// unknown.
		return fmt.Errorf("%w: unsupported message type %q", ErrValidation, msgType)
	}
	return nil
}

func (m *messageUsecase) resolveReply(ctx context.Context, replyTo string) (*entity.ReplyPreview, bool) {
	original, err := m.messageRepo.Get(ctx, replyTo)
	if err != nil {
		return nil, false
	}

	preview := &entity.ReplyPreview{
		MessageId: original.Id,
		SenderId:  original.SenderId,
		Preview:   truncate(previewText(original), previewLength),
	}
	if sender, err := m.userRepo.Get(ctx, original.SenderId); err == nil {
		preview.SenderName = sender.Name
	}
	return preview, true
}

// resolveMentions scans @name tokens and resolves each against the chat's
// participants. Unresolved tokens are dropped, not errors.
func (m *messageUsecase) resolveMentions(ctx context.Context, chatId, text string) ([]entity.Mention, error) {
	matches := mentionPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	participants, err := m.chatRepo.GetParticipants(ctx, chatId)
	if err != nil {
		return nil, err
	}

	userIds := make([]string, 0, len(participants))
	for _, p := range participants {
		userIds = append(userIds, p.UserId)
	}
	users, err := m.userRepo.Index(ctx, entity.UserIndexFilter{Ids: userIds})
	if err != nil {
		return nil, err
	}

	byUsername := make(map[string]string, len(users))
	for _, u := range users {
		byUsername[u.Username] = u.Id
	}

	var mentions []entity.Mention
	for _, match := range matches {
		token := text[match[2]:match[3]]
		userId, ok := byUsername[token]
		if !ok {
			continue
		}
		mentions = append(mentions, entity.Mention{
			UserId:   userId,
			Position: utf8.RuneCountInString(text[:match[0]]),
		})
	}
	return mentions, nil
}

func toggleReaction(reactions []entity.Reaction, emoji, userId string) ([]entity.Reaction, bool) {
	out := make([]entity.Reaction, 0, len(reactions))
	added := true

	found := false
	for _, r := range reactions {
		if r.Emoji != emoji {
			out = append(out, r)
			continue
		}
		found = true
		userIds := make([]string, 0, len(r.UserIds))
		for _, id := range r.UserIds {
			if id == userId {
				added = false
				continue
			}
			userIds = append(userIds, id)
		}
		if added {
			userIds = append(userIds, userId)
		}
		if len(userIds) > 0 {
			out = append(out, entity.Reaction{Emoji: emoji, UserIds: userIds})
		}
	}

	if !found {
		out = append(out, entity.Reaction{Emoji: emoji, UserIds: []string{userId}})
	}
	return out, added
}

func hasRead(msg entity.Message, userId string) bool {
	for _, r := range msg.ReadBy {
		if r.UserId == userId {
			return true
		}
	}
	return false
}

func previewText(msg entity.Message) string {
	switch msg.Type {
	case entity.MessageTypeText:
		return msg.Content.Text
	case entity.MessageTypeTask:
		return msg.Content.Title
	case entity.MessageTypeFile, entity.MessageTypeImage:
		return msg.Content.FileName
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}
