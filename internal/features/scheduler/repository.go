package scheduler

import (
	"context"
	"time"

	"flowcrm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *Schedule) error
	GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*Schedule, error)
	List(ctx context.Context, tenantID primitive.ObjectID) ([]Schedule, error)
	Update(ctx context.Context, schedule *Schedule) error
	Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error
	// ListActive spans all tenants; the scheduler registers every active
	// schedule at startup.
	ListActive(ctx context.Context) ([]Schedule, error)
	UpdateRunTimes(ctx context.Context, id primitive.ObjectID, lastRun time.Time, nextRun *time.Time) error
}

type ScheduleRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewScheduleRepository(mongodb *database.MongodbDB) ScheduleRepository {
	return &ScheduleRepositoryImpl{
		Collection: mongodb.DB.Collection("schedules"),
	}
}

func (r *ScheduleRepositoryImpl) Create(ctx context.Context, schedule *Schedule) error {
	if schedule.ID.IsZero() {
		schedule.ID = primitive.NewObjectID()
	}
	now := time.Now()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	_, err := r.Collection.InsertOne(ctx, schedule)
	return err
}

func (r *ScheduleRepositoryImpl) GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*Schedule, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var schedule Schedule
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}).Decode(&schedule)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *ScheduleRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID) ([]Schedule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.Collection.Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var schedules []Schedule
	if err := cursor.All(ctx, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *ScheduleRepositoryImpl) Update(ctx context.Context, schedule *Schedule) error {
	schedule.UpdatedAt = time.Now()
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": schedule.ID, "tenant_id": schedule.TenantID},
		bson.M{"$set": schedule})
	return err
}

func (r *ScheduleRepositoryImpl) Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID})
	return err
}

func (r *ScheduleRepositoryImpl) ListActive(ctx context.Context) ([]Schedule, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var schedules []Schedule
	if err := cursor.All(ctx, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *ScheduleRepositoryImpl) UpdateRunTimes(ctx context.Context, id primitive.ObjectID, lastRun time.Time, nextRun *time.Time) error {
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"last_run_at": lastRun,
			"next_run_at": nextRun,
			"updated_at":  time.Now(),
		},
	})
	return err
}
