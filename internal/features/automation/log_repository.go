package automation

import (
	"context"
	"time"

	"flowcrm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ExecutionLogRepository is append-only on purpose: the interface has
// no update or delete so the audit trail stays immutable no matter
// what happens to the rule definitions.
type ExecutionLogRepository interface {
	Append(ctx context.Context, entry *ExecutionLog) error
	List(ctx context.Context, tenantID primitive.ObjectID, automationID string, limit int64) ([]ExecutionLog, error)
	ListAll(ctx context.Context, tenantID primitive.ObjectID, limit int64) ([]ExecutionLog, error)
}

type ExecutionLogRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewExecutionLogRepository(mongodb *database.MongodbDB) ExecutionLogRepository {
	return &ExecutionLogRepositoryImpl{
		Collection: mongodb.DB.Collection("automation_logs"),
	}
}

func (r *ExecutionLogRepositoryImpl) Append(ctx context.Context, entry *ExecutionLog) error {
	entry.ID = primitive.NewObjectID()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := r.Collection.InsertOne(ctx, entry)
	return err
}

func (r *ExecutionLogRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID, automationID string, limit int64) ([]ExecutionLog, error) {
	oid, err := primitive.ObjectIDFromHex(automationID)
	if err != nil {
		return nil, err
	}
	return r.find(ctx, bson.M{"tenant_id": tenantID, "automation_id": oid}, limit)
}

func (r *ExecutionLogRepositoryImpl) ListAll(ctx context.Context, tenantID primitive.ObjectID, limit int64) ([]ExecutionLog, error) {
	return r.find(ctx, bson.M{"tenant_id": tenantID}, limit)
}

func (r *ExecutionLogRepositoryImpl) find(ctx context.Context, filter bson.M, limit int64) ([]ExecutionLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var entries []ExecutionLog
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
