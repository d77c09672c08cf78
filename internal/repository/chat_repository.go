package repository

import (
	"context"
	"errors"
	"time"

	"huddle/internal/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrChatNotFound   = errors.New("chat not found")
	ErrNotParticipant = errors.New("user is not a participant")
)

type ChatRepository interface {
	// Chat operations
	Index(ctx context.Context, userId string) ([]entity.Chat, error)
	Get(ctx context.Context, chatId string) (entity.Chat, error)
	Create(ctx context.Context, chat entity.Chat) (string, error)
	UpdateLastMessage(ctx context.Context, chatId string, last entity.LastMessage) error

	// Participant operations
	AddParticipants(ctx context.Context, chatParticipants []entity.ChatParticipant) error
	GetParticipants(ctx context.Context, chatId string) ([]entity.ChatParticipant, error)
	IsParticipant(ctx context.Context, userId, chatId string) (bool, error)
	IsAdmin(ctx context.Context, userId, chatId string) (bool, error)
	UpdateLastRead(ctx context.Context, userId, chatId string, at time.Time) error
}

type chatRepository struct {
	db *mongo.Database
}

func NewChatRepository(db *mongo.Database) ChatRepository {
	return &chatRepository{
		db: db,
	}
}

// Index returns all chats that a user is participating in
func (r *chatRepository) Index(ctx context.Context, userId string) ([]entity.Chat, error) {
	collection := r.db.Collection("chats")

	lookupStage := bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: "chat_participants"},
		{Key: "localField", Value: "_id"},
		{Key: "foreignField", Value: "chatId"},
		{Key: "as", Value: "participants"},
	}}}
	matchStage := bson.D{{Key: "$match", Value: bson.D{
		{Key: "participants.userId", Value: userId},
		{Key: "participants.isActive", Value: true},
	}}}
	sortStage := bson.D{{Key: "$sort", Value: bson.D{{Key: "updatedAt", Value: -1}}}}

	cursor, err := collection.Aggregate(ctx, mongo.Pipeline{lookupStage, matchStage, sortStage})
	if err != nil {
		return nil, err
	}

	var chats []entity.Chat
	err = cursor.All(ctx, &chats)
	if err != nil {
		return nil, err
	}

	return chats, nil
}

// Get returns a chat by ID
func (r *chatRepository) Get(ctx context.Context, chatId string) (entity.Chat, error) {
	collection := r.db.Collection("chats")
	filter := bson.M{"_id": chatId}

	var chat entity.Chat
	err := collection.FindOne(ctx, filter).Decode(&chat)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.Chat{}, ErrChatNotFound
		}
		return entity.Chat{}, err
	}

	return chat, nil
}

// Create creates a new chat
func (r *chatRepository) Create(ctx context.Context, chat entity.Chat) (string, error) {
	collection := r.db.Collection("chats")
	chat.Id = uuid.New().String()
	chat.CreatedAt = time.Now()
	chat.UpdatedAt = time.Now()

	_, err := collection.InsertOne(ctx, chat)
	if err != nil {
		return "", err
	}

	return chat.Id, nil
}

// UpdateLastMessage refreshes the chat's denormalized last-message cache.
func (r *chatRepository) UpdateLastMessage(ctx context.Context, chatId string, last entity.LastMessage) error {
	collection := r.db.Collection("chats")
	filter := bson.M{"_id": chatId}

	update := bson.M{
		"$set": bson.M{
			"lastMessage": last,
			"updatedAt":   time.Now(),
		},
	}

	_, err := collection.UpdateOne(ctx, filter, update)
	return err
}

// AddParticipants adds participants to a chat
func (r *chatRepository) AddParticipants(ctx context.Context, chatParticipants []entity.ChatParticipant) error {
	collection := r.db.Collection("chat_participants")

	var participants []interface{}
	for _, participant := range chatParticipants {
		participant.Id = uuid.New().String()
		participant.JoinedAt = time.Now()
		participant.IsActive = true
		if participant.Role == "" {
			participant.Role = entity.RoleMember
		}
		participants = append(participants, participant)
	}

	_, err := collection.InsertMany(ctx, participants)
	if err != nil {
		return err
	}

	return nil
}

// GetParticipants returns all participants of a chat
func (r *chatRepository) GetParticipants(ctx context.Context, chatId string) ([]entity.ChatParticipant, error) {
	collection := r.db.Collection("chat_participants")
	filter := bson.M{
		"chatId":   chatId,
		"isActive": true,
	}

	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var participants []entity.ChatParticipant
	err = cursor.All(ctx, &participants)
	if err != nil {
		return nil, err
	}

	return participants, nil
}

// IsParticipant checks if a user is a participant in a chat
func (r *chatRepository) IsParticipant(ctx context.Context, userId, chatId string) (bool, error) {
	collection := r.db.Collection("chat_participants")
	filter := bson.M{
		"userId":   userId,
		"chatId":   chatId,
		"isActive": true,
	}

	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// IsAdmin checks if a user is an admin of a chat
func (r *chatRepository) IsAdmin(ctx context.Context, userId, chatId string) (bool, error) {
	collection := r.db.Collection("chat_participants")
	filter := bson.M{
		"userId":   userId,
		"chatId":   chatId,
		"isActive": true,
		"role":     entity.RoleAdmin,
	}

	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// UpdateLastRead stamps the participant's durable read mark.
func (r *chatRepository) UpdateLastRead(ctx context.Context, userId, chatId string, at time.Time) error {
	collection := r.db.Collection("chat_participants")
	filter := bson.M{
		"userId": userId,
		"chatId": chatId,
	}

	update := bson.M{
		"$set": bson.M{
			"lastRead": at,
		},
	}

	_, err := collection.UpdateOne(ctx, filter, update)
	return err
}
