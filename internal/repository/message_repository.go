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

var ErrMessageNotFound = errors.New("message not found")

type MessageRepository interface {
	Get(ctx context.Context, messageId string) (entity.Message, error)
	GetByIds(ctx context.Context, messageIds []string) ([]entity.Message, error)
	Create(ctx context.Context, message entity.Message) (string, error)
	UpdateText(ctx context.Context, messageId, text string, editedAt time.Time) error
	SoftDelete(ctx context.Context, messageId string, at time.Time) error
	AddReadReceipts(ctx context.Context, messageIds []string, receipt entity.ReadReceipt) error
	UpdateReactions(ctx context.Context, messageId string, reactions []entity.Reaction) error
}

type messageRepository struct {
	db *mongo.Database
}

func NewMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		db: db,
	}
}

func (r *messageRepository) Get(ctx context.Context, messageId string) (entity.Message, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{"_id": messageId}

	var message entity.Message
	err := collection.FindOne(ctx, filter).Decode(&message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return entity.Message{}, ErrMessageNotFound
		}
		return entity.Message{}, err
	}

	return message, nil
}

func (r *messageRepository) GetByIds(ctx context.Context, messageIds []string) ([]entity.Message, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{"_id": bson.M{"$in": messageIds}}

	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	var messages []entity.Message
	err = cursor.All(ctx, &messages)
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// Create persists the message and assigns the durable id. Client-side ids
// never reach this layer.
func (r *messageRepository) Create(ctx context.Context, message entity.Message) (string, error) {
	collection := r.db.Collection("messages")
	message.Id = uuid.New().String()

	_, err := collection.InsertOne(ctx, message)
	if err != nil {
		return "", err
	}

	return message.Id, nil
}

func (r *messageRepository) UpdateText(ctx context.Context, messageId, text string, editedAt time.Time) error {
	collection := r.db.Collection("messages")
	filter := bson.M{"_id": messageId}
	update := bson.M{
		"$set": bson.M{
			"content.text":      text,
			"metadata.editedAt": editedAt,
		},
	}
	_, err := collection.UpdateOne(ctx, filter, update)

	return err
}

// SoftDelete flags the message; the document stays for reply-reference
// integrity.
func (r *messageRepository) SoftDelete(ctx context.Context, messageId string, at time.Time) error {
	collection := r.db.Collection("messages")
	filter := bson.M{"_id": messageId}
	update := bson.M{
		"$set": bson.M{
			"isDeleted": true,
			"deletedAt": at,
		},
	}
	_, err := collection.UpdateOne(ctx, filter, update)

	return err
}

// AddReadReceipts appends the receipt to every listed message the user has
// not read yet. The $ne guard makes re-marking a no-op.
func (r *messageRepository) AddReadReceipts(ctx context.Context, messageIds []string, receipt entity.ReadReceipt) error {
	collection := r.db.Collection("messages")
	filter := bson.M{
		"_id":           bson.M{"$in": messageIds},
		"readBy.userId": bson.M{"$ne": receipt.UserId},
	}
	update := bson.M{
		"$push": bson.M{"readBy": receipt},
	}
	_, err := collection.UpdateMany(ctx, filter, update)

	return err
}

func (r *messageRepository) UpdateReactions(ctx context.Context, messageId string, reactions []entity.Reaction) error {
	collection := r.db.Collection("messages")
	filter := bson.M{"_id": messageId}
	update := bson.M{
		"$set": bson.M{"metadata.reactions": reactions},
	}
	_, err := collection.UpdateOne(ctx, filter, update)

	return err
}
