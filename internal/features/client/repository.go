package client

import (
	"context"
	"time"

	"flowcrm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ClientRepository interface {
	Create(ctx context.Context, client *Client) error
	GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*Client, error)
	GetByLead(ctx context.Context, tenantID primitive.ObjectID, leadID primitive.ObjectID) (*Client, error)
	List(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Client, int64, error)
	Update(ctx context.Context, client *Client) error
	UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error
}

type ClientRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewClientRepository(mongodb *database.MongodbDB) ClientRepository {
	return &ClientRepositoryImpl{
		Collection: mongodb.DB.Collection("clients"),
	}
}

func (r *ClientRepositoryImpl) Create(ctx context.Context, client *Client) error {
	if client.ID.IsZero() {
		client.ID = primitive.NewObjectID()
	}
	now := time.Now()
	client.CreatedAt = now
	client.UpdatedAt = now
	if client.Status == "" {
		client.Status = ClientStatusActive
	}

	_, err := r.Collection.InsertOne(ctx, client)
	return err
}

func (r *ClientRepositoryImpl) GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*Client, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var client Client
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}).Decode(&client)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepositoryImpl) GetByLead(ctx context.Context, tenantID primitive.ObjectID, leadID primitive.ObjectID) (*Client, error) {
	var client Client
	err := r.Collection.FindOne(ctx, bson.M{"lead_id": leadID, "tenant_id": tenantID}).Decode(&client)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Client, int64, error) {
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

	var clients []Client
	if err := cursor.All(ctx, &clients); err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

func (r *ClientRepositoryImpl) Update(ctx context.Context, client *Client) error {
	client.UpdatedAt = time.Now()
	_, err := r.Collection.ReplaceOne(ctx,
		bson.M{"_id": client.ID, "tenant_id": client.TenantID}, client)
	return err
}

func (r *ClientRepositoryImpl) UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error {
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

func (r *ClientRepositoryImpl) Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID})
	return err
}
