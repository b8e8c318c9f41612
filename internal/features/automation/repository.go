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

type AutomationRepository interface {
	Create(ctx context.Context, rule *AutomationRule) error
	GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*AutomationRule, error)
	List(ctx context.Context, tenantID primitive.ObjectID) ([]AutomationRule, error)
	// ListActive returns the active rules for one tenant and trigger
	// type in created_at ascending order, which is the documented
	// deterministic evaluation order when several rules share a trigger.
	ListActive(ctx context.Context, tenantID primitive.ObjectID, triggerType string) ([]AutomationRule, error)
	Update(ctx context.Context, rule *AutomationRule) error
	Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error
	SetActive(ctx context.Context, tenantID primitive.ObjectID, id string, active bool) error
}

type AutomationRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewAutomationRepository(mongodb *database.MongodbDB) AutomationRepository {
	return &AutomationRepositoryImpl{
		Collection: mongodb.DB.Collection("automation_rules"),
	}
}

func (r *AutomationRepositoryImpl) Create(ctx context.Context, rule *AutomationRule) error {
	rule.ID = primitive.NewObjectID()
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = time.Now()
	_, err := r.Collection.InsertOne(ctx, rule)
	return err
}

func (r *AutomationRepositoryImpl) GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*AutomationRule, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var rule AutomationRule
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID}).Decode(&rule)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *AutomationRepositoryImpl) List(ctx context.Context, tenantID primitive.ObjectID) ([]AutomationRule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.Collection.Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var rules []AutomationRule
	if err = cursor.All(ctx, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *AutomationRepositoryImpl) ListActive(ctx context.Context, tenantID primitive.ObjectID, triggerType string) ([]AutomationRule, error) {
	filter := bson.M{
		"tenant_id":    tenantID,
		"trigger_type": triggerType,
		"active":       true,
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var rules []AutomationRule
	if err = cursor.All(ctx, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *AutomationRepositoryImpl) Update(ctx context.Context, rule *AutomationRule) error {
	rule.UpdatedAt = time.Now()
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": rule.ID, "tenant_id": rule.TenantID}, bson.M{"$set": rule})
	return err
}

func (r *AutomationRepositoryImpl) Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid, "tenant_id": tenantID})
	return err
}

func (r *AutomationRepositoryImpl) SetActive(ctx context.Context, tenantID primitive.ObjectID, id string, active bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.UpdateOne(ctx,
		bson.M{"_id": oid, "tenant_id": tenantID},
		bson.M{"$set": bson.M{"active": active, "updated_at": time.Now()}})
	return err
}
