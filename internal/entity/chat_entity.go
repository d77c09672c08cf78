package entity

import "time"

const (
	ChatTypeIndividual = "individual"
	ChatTypeGroup      = "group"
	ChatTypeDepartment = "department"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type Chat struct {
	Id          string       `bson:"_id" json:"id"`
	Type        string       `bson:"type" json:"type"`
	Name        string       `bson:"name" json:"name"`
	CreatedBy   string       `bson:"createdBy" json:"createdBy"`
	LastMessage *LastMessage `bson:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// LastMessage is a denormalized summary cache refreshed on every send.
type LastMessage struct {
	MessageId string    `bson:"messageId" json:"messageId"`
	SenderId  string    `bson:"senderId" json:"senderId"`
	Preview   string    `bson:"preview" json:"preview"`
	SentAt    time.Time `bson:"sentAt" json:"sentAt"`
}

type ChatParticipant struct {
	Id       string    `bson:"_id" json:"id"`
	ChatId   string    `bson:"chatId" json:"chatId"`
	UserId   string    `bson:"userId" json:"userId"`
	Role     string    `bson:"role" json:"role"`
	LastRead time.Time `bson:"lastRead,omitempty" json:"lastRead,omitempty"`
	JoinedAt time.Time `bson:"joinedAt" json:"joinedAt"`
	IsActive bool      `bson:"isActive" json:"isActive"`
}
