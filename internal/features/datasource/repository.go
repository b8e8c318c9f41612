package datasource

import (
	"context"
	"time"

	"flowcrm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DataSourceRepository interface {
	Create(ctx context.Context, source *DataSource) error
	GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*DataSource, error)
	List(ctx context.Context, tenantID primitive.ObjectID) ([]DataSource, error)
	Update(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error
}

type DataSourceRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewDataSourceRepository(mongodb *database.MongodbDB) DataSourceRepository {
	return &DataSourceRepositoryImpl{
		Collection: mongodb.DB.Collection("data_sources"),
	}
}

func (r *DataSourceRepositoryImpl) Create(ctx context.Context, source *DataSource) error {
	if source.ID.IsZero() {
		source.ID = primitive.NewObjectID()
	}
	now := time.Now()
	source.CreatedAt = now
	source.UpdatedAt = now

	_, err := r.Collection.InsertOne(ctx, source)
	return err
}

func (r *DataSourceRepositoryImpl) GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*DataSource, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var source DataSource
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}).Decode(&source)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &source, nil
}

func (r *DataSourceRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID) ([]DataSource, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.Collection.Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sources []DataSource
	if err := cursor.All(ctx, &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

func (r *DataSourceRepositoryImpl) Update(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	delete(updates, "_id")
	delete(updates, "tenant_id")
	updates["updated_at"] = time.Now()

	_, err = r.Collection.UpdateOne(ctx,
		bson.M{"_id": oid, "tenant_id": tenantID},
		bson.M{"$set": updates})
	return err
}

func (r *DataSourceRepositoryImpl) Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID})
	return err
}
