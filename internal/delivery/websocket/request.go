package websocket

import "huddle/internal/entity"

type JoinChatRequest struct {
	ChatId string `json:"chatId"`
}

type SendMessageRequest struct {
	ChatId  string                `json:"chatId"`
	Type    string                `json:"type"`
	Content entity.MessageContent `json:"content"`
	ReplyTo string                `json:"replyTo,omitempty"`
	// TempId is the client's optimistic id; echoed back in message_sent so
	// the client can reconcile its pending entry.
	TempId string `json:"tempId"`
}

type EditMessageRequest struct {
	MessageId string `json:"messageId"`
	Text      string `json:"text"`
}

type DeleteMessageRequest struct {
	MessageId string `json:"messageId"`
}

type TypingRequest struct {
	ChatId string `json:"chatId"`
}

type MarkReadRequest struct {
	ChatId     string   `json:"chatId"`
	MessageIds []string `json:"messageIds"`
}

type ReactionRequest struct {
	MessageId string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}
