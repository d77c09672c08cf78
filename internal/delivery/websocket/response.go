package websocket

import (
	"time"

	"huddle/internal/entity"
)

type NewMessagePayload struct {
	Message entity.Message `json:"message"`
}

// MessageSentPayload is the delivery acknowledgment returned only to the
// originating session.
type MessageSentPayload struct {
	TempId    string    `json:"tempId"`
	MessageId string    `json:"messageId"`
	Timestamp time.Time `json:"timestamp"`
}

type MessageEditedPayload struct {
	Message entity.Message `json:"message"`
}

type MessageDeletedPayload struct {
	MessageId string `json:"messageId"`
	ChatId    string `json:"chatId"`
}

type UserTypingPayload struct {
	UserId   string `json:"userId"`
	UserName string `json:"userName"`
	ChatId   string `json:"chatId"`
	IsTyping bool   `json:"isTyping"`
}

type MessagesReadPayload struct {
	UserId     string    `json:"userId"`
	ChatId     string    `json:"chatId"`
	MessageIds []string  `json:"messageIds"`
	ReadAt     time.Time `json:"readAt"`
}

// ReactionPayload carries the full updated reaction list rather than a
// delta, so a lost event cannot leave clients with divergent counts.
type ReactionPayload struct {
	MessageId string            `json:"messageId"`
	ChatId    string            `json:"chatId"`
	UserId    string            `json:"userId"`
	Emoji     string            `json:"emoji"`
	Reactions []entity.Reaction `json:"reactions"`
}

// UserStatusPayload carries the user's broadcast projection so clients can
// render the change without a lookup.
type UserStatusPayload struct {
	User     entity.UserProjection `json:"user"`
	LastSeen time.Time             `json:"lastSeen,omitempty"`
}

type MentionPayload struct {
	MessageId  string `json:"messageId"`
	ChatId     string `json:"chatId"`
	SenderId   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Content    string `json:"content"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
