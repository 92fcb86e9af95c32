package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const contactCollection = "contact_messages"

// ErrMessageNotFound 留言不存在
var ErrMessageNotFound = errors.New("contact message not found")

type ContactMessageRepo interface {
	CreateMessage(ctx context.Context, msg *ContactMessageModel) error
	ListMessages(ctx context.Context, unreadOnly bool, limit, offset int64) ([]*ContactMessageModel, int64, error)
	MarkAsRead(ctx context.Context, id string) error
	GetUnreadCount(ctx context.Context) (int64, error)
}

type contactMessageRepoImpl struct {
	col *mongo.Collection
}

func NewContactMessageRepo(db *mongo.Database) ContactMessageRepo {
	return &contactMessageRepoImpl{
		col: db.Collection(contactCollection),
	}
}

func ensureContactIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(contactCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "is_read", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

// CreateMessage 插入留言并回填 ID
func (s *contactMessageRepoImpl) CreateMessage(ctx context.Context, msg *ContactMessageModel) error {
	res, err := s.col.InsertOne(ctx, msg)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = id
	}
	return nil
}

// ListMessages 按时间倒序分页
func (s *contactMessageRepoImpl) ListMessages(ctx context.Context, unreadOnly bool, limit, offset int64) ([]*ContactMessageModel, int64, error) {
	filter := bson.M{}
	if unreadOnly {
		filter["is_read"] = false
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*ContactMessageModel, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (s *contactMessageRepoImpl) MarkAsRead(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrMessageNotFound
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (s *contactMessageRepoImpl) GetUnreadCount(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"is_read": false})
}
