package meeting

import (
	"context"
	"time"

	"flowcrm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MeetingRepository interface {
	Create(ctx context.Context, meeting *Meeting) error
	GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*Meeting, error)
	List(ctx context.Context, tenantID primitive.ObjectID, from, to time.Time, page, limit int64) ([]Meeting, int64, error)
	UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error
}

type MeetingRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewMeetingRepository(mongodb *database.MongodbDB) MeetingRepository {
	return &MeetingRepositoryImpl{
		Collection: mongodb.DB.Collection("meetings"),
	}
}

func (r *MeetingRepositoryImpl) Create(ctx context.Context, meeting *Meeting) error {
	if meeting.ID.IsZero() {
		meeting.ID = primitive.NewObjectID()
	}
	now := time.Now()
	meeting.CreatedAt = now
	meeting.UpdatedAt = now
	if meeting.Status == "" {
		meeting.Status = MeetingStatusScheduled
	}

	_, err := r.Collection.InsertOne(ctx, meeting)
	return err
}

func (r *MeetingRepositoryImpl) GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*Meeting, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var meeting Meeting
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}).Decode(&meeting)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *MeetingRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID, from, to time.Time, page, limit int64) ([]Meeting, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := bson.M{"tenant_id": tenantID}
	window := bson.M{}
	if !from.IsZero() {
		window["$gte"] = from
	}
	if !to.IsZero() {
		window["$lte"] = to
	}
	if len(window) > 0 {
		query["starts_at"] = window
	}

	total, err := r.Collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"starts_at": 1}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var meetings []Meeting
	if err := cursor.All(ctx, &meetings); err != nil {
		return nil, 0, err
	}
	return meetings, total, nil
}

func (r *MeetingRepositoryImpl) UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	set := bson.M{"updated_at": time.Now()}
	for k, v := range fields {
		set[k] = v
	}

	_, err = r.Collection.UpdateOne(ctx,
		bson.M{"_id": oid, "tenant_id": tenantID},
		bson.M{"$set": set})
	return err
}

func (r *MeetingRepositoryImpl) Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID})
	return err
}
