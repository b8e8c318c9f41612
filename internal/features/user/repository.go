package user

import (
	"context"
	"time"

	"flowcrm/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*User, error)
	// FindByEmail is global: login has no tenant context yet.
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, tenantID primitive.ObjectID) ([]User, error)
	Update(ctx context.Context, user *User) error
	SetStatus(ctx context.Context, tenantID primitive.ObjectID, id string, status UserStatus) error
}

type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Tenant, error)
}

type UserRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewUserRepository(mongodb *database.MongodbDB) UserRepository {
	return &UserRepositoryImpl{
		Collection: mongodb.DB.Collection("users"),
	}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.Collection.InsertOne(ctx, user)
	return err
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var user User
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.Collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID) ([]User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.Collection.Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepositoryImpl) Update(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now()
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": user.ID, "tenant_id": user.TenantID},
		bson.M{"$set": user})
	return err
}

func (r *UserRepositoryImpl) SetStatus(ctx context.Context, tenantID primitive.ObjectID, id string, status UserStatus) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.UpdateOne(ctx,
		bson.M{"_id": oid, "tenant_id": tenantID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}})
	return err
}

type TenantRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewTenantRepository(mongodb *database.MongodbDB) TenantRepository {
	return &TenantRepositoryImpl{
		Collection: mongodb.DB.Collection("tenants"),
	}
}

func (r *TenantRepositoryImpl) Create(ctx context.Context, tenant *Tenant) error {
	if tenant.ID.IsZero() {
		tenant.ID = primitive.NewObjectID()
	}
	now := time.Now()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	_, err := r.Collection.InsertOne(ctx, tenant)
	return err
}

func (r *TenantRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*Tenant, error) {
	var tenant Tenant
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tenant)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}
