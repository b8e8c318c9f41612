package notification

import (
	"context"
	"time"

	"flowcrm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	ListByUser(ctx context.Context, tenantID, userID primitive.ObjectID, page, limit int64) ([]Notification, int64, error)
	CountUnread(ctx context.Context, tenantID, userID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, tenantID, userID primitive.ObjectID, id string) error
	MarkAllRead(ctx context.Context, tenantID, userID primitive.ObjectID) error
}

type NotificationRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewNotificationRepository(mongodb *database.MongodbDB) NotificationRepository {
	return &NotificationRepositoryImpl{
		Collection: mongodb.DB.Collection("notifications"),
	}
}

func (r *NotificationRepositoryImpl) Create(ctx context.Context, notification *Notification) error {
	if notification.ID.IsZero() {
		notification.ID = primitive.NewObjectID()
	}
	notification.CreatedAt = time.Now()

	_, err := r.Collection.InsertOne(ctx, notification)
	return err
}

func (r *NotificationRepositoryImpl) ListByUser(ctx context.Context, tenantID, userID primitive.ObjectID, page, limit int64) ([]Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	query := bson.M{"tenant_id": tenantID, "user_id": userID}

	total, err := r.Collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var notifications []Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *NotificationRepositoryImpl) CountUnread(ctx context.Context, tenantID, userID primitive.ObjectID) (int64, error) {
	return r.Collection.CountDocuments(ctx,
		bson.M{"tenant_id": tenantID, "user_id": userID, "is_read": false})
}

func (r *NotificationRepositoryImpl) MarkRead(ctx context.Context, tenantID, userID primitive.ObjectID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.Collection.UpdateOne(ctx,
		bson.M{"_id": oid, "tenant_id": tenantID, "user_id": userID},
		bson.M{"$set": bson.M{"is_read": true, "read_at": time.Now()}})
	return err
}

func (r *NotificationRepositoryImpl) MarkAllRead(ctx context.Context, tenantID, userID primitive.ObjectID) error {
	_, err := r.Collection.UpdateMany(ctx,
		bson.M{"tenant_id": tenantID, "user_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": time.Now()}})
	return err
}
