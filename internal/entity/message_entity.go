package entity

import "time"

const (
	MessageTypeText   = "text"
	MessageTypeFile   = "file"
	MessageTypeImage  = "image"
	MessageTypeTask   = "task"
	MessageTypeSystem = "system"
)

const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusFailed    = "failed"
)

type Message struct {
	Id        string          `bson:"_id" json:"id"`
	ChatId    string          `bson:"chatId" json:"chatId"`
	SenderId  string          `bson:"senderId" json:"senderId"`
	Type      string          `bson:"type" json:"type"`
	Content   MessageContent  `bson:"content" json:"content"`
	Metadata  MessageMetadata `bson:"metadata" json:"metadata"`
	ReadBy    []ReadReceipt   `bson:"readBy" json:"readBy"`
	Status    string          `bson:"status" json:"status"`
	IsDeleted bool            `bson:"isDeleted" json:"isDeleted"`
	DeletedAt *time.Time      `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt time.Time       `bson:"createdAt" json:"createdAt"`
}

// MessageContent is a variant record; which fields are set depends on the
// message type.
type MessageContent struct {
	Text        string `bson:"text,omitempty" json:"text,omitempty"`
	FileUrl     string `bson:"fileUrl,omitempty" json:"fileUrl,omitempty"`
	FileName    string `bson:"fileName,omitempty" json:"fileName,omitempty"`
	FileSize    int64  `bson:"fileSize,omitempty" json:"fileSize,omitempty"`
	Title       string `bson:"title,omitempty" json:"title,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

type MessageMetadata struct {
	Mentions  []Mention     `bson:"mentions,omitempty" json:"mentions,omitempty"`
	Reactions []Reaction    `bson:"reactions,omitempty" json:"reactions,omitempty"`
	Pinned    bool          `bson:"pinned" json:"pinned"`
	EditedAt  *time.Time    `bson:"editedAt,omitempty" json:"editedAt,omitempty"`
	ReplyTo   *ReplyPreview `bson:"replyTo,omitempty" json:"replyTo,omitempty"`
}

// Mention records a resolved @name token and its rune offset in the text.
type Mention struct {
	UserId   string `bson:"userId" json:"userId"`
	Position int    `bson:"position" json:"position"`
}

type Reaction struct {
	Emoji   string   `bson:"emoji" json:"emoji"`
	UserIds []string `bson:"userIds" json:"userIds"`
}

type ReadReceipt struct {
	UserId string    `bson:"userId" json:"userId"`
	ReadAt time.Time `bson:"readAt" json:"readAt"`
}

// ReplyPreview is denormalized at send time so the original message can be
// soft-deleted without breaking the reference.
type ReplyPreview struct {
	MessageId  string `bson:"messageId" json:"messageId"`
	SenderId   string `bson:"senderId" json:"senderId"`
	SenderName string `bson:"senderName" json:"senderName"`
	Preview    string `bson:"preview" json:"preview"`
}
