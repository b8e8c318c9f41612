package quote

import (
	"context"
	"time"

	"flowcrm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type QuoteRepository interface {
	Create(ctx context.Context, quote *Quote) error
	GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*Quote, error)
	List(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Quote, int64, error)
	UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error
}

type QuoteRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewQuoteRepository(mongodb *database.MongodbDB) QuoteRepository {
	return &QuoteRepositoryImpl{
		Collection: mongodb.DB.Collection("quotes"),
	}
}

func (r *QuoteRepositoryImpl) Create(ctx context.Context, quote *Quote) error {
	if quote.ID.IsZero() {
		quote.ID = primitive.NewObjectID()
	}
	now := time.Now()
	quote.CreatedAt = now
	quote.UpdatedAt = now
	if quote.Status == "" {
		quote.Status = QuoteStatusDraft
	}

	_, err := r.Collection.InsertOne(ctx, quote)
	return err
}

func (r *QuoteRepositoryImpl) GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*Quote, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var quote Quote
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}).Decode(&quote)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *QuoteRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Quote, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}

	query := bson.M{"tenant_id": tenantID}
	for k, v := range filters {
		if str, ok := v.(string); ok && str == "" {
			continue
		}
		query[k] = v
	}

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

	var quotes []Quote
	if err := cursor.All(ctx, &quotes); err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

func (r *QuoteRepositoryImpl) UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error {
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

func (r *QuoteRepositoryImpl) Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID})
	return err
}
