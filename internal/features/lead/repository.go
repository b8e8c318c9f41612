package lead

import (
	"context"
	"time"

	"flowcrm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *Lead) error
	GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*Lead, error)
	List(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Lead, int64, error)
	Update(ctx context.Context, lead *Lead) error
	UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error
	// LinkClient sets the converted-client reference, but only when no
	// client is linked yet. Returns false when the lead was already
	// linked (or does not exist), which makes conversion race safe.
	LinkClient(ctx context.Context, tenantID primitive.ObjectID, leadID string, clientID primitive.ObjectID) (bool, error)
}

type LeadRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewLeadRepository(mongodb *database.MongodbDB) LeadRepository {
	return &LeadRepositoryImpl{
		Collection: mongodb.DB.Collection("leads"),
	}
}

func (r *LeadRepositoryImpl) Create(ctx context.Context, lead *Lead) error {
	if lead.ID.IsZero() {
		lead.ID = primitive.NewObjectID()
	}
	now := time.Now()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	if lead.Status == "" {
		lead.Status = LeadStatusNew
	}

	_, err := r.Collection.InsertOne(ctx, lead)
	return err
}

func (r *LeadRepositoryImpl) GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*Lead, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var lead Lead
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}).Decode(&lead)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Lead, int64, error) {
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

	var leads []Lead
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

func (r *LeadRepositoryImpl) Update(ctx context.Context, lead *Lead) error {
	lead.UpdatedAt = time.Now()
	_, err := r.Collection.ReplaceOne(ctx,
		bson.M{"_id": lead.ID, "tenant_id": lead.TenantID}, lead)
	return err
}

func (r *LeadRepositoryImpl) UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error {
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

func (r *LeadRepositoryImpl) Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID})
	return err
}

func (r *LeadRepositoryImpl) LinkClient(ctx context.Context, tenantID primitive.ObjectID, leadID string, clientID primitive.ObjectID) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(leadID)
	if err != nil {
		return false, err
	}

	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": oid, "tenant_id": tenantID, "client_id": nil},
		bson.M{"$set": bson.M{
			"client_id":  clientID,
			"status":     LeadStatusConverted,
			"updated_at": time.Now(),
		}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
