package webhook

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Webhook represents a tenant's URL subscription for trigger events
type Webhook struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID    primitive.ObjectID `json:"tenant_id" bson:"tenant_id"`
	URL         string             `json:"url" bson:"url"`
	Secret      string             `json:"secret,omitempty" bson:"secret,omitempty"` // for HMAC signature
	Events      []string           `json:"events" bson:"events"`
	Headers     map[string]string  `json:"headers,omitempty" bson:"headers,omitempty"`
	IsActive    bool               `json:"is_active" bson:"is_active"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`

	CreatedBy primitive.ObjectID `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// WebhookLog records one delivery attempt sequence for a subscription
type WebhookLog struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID   primitive.ObjectID `json:"tenant_id" bson:"tenant_id"`
	WebhookID  primitive.ObjectID `json:"webhook_id" bson:"webhook_id"`
	DeliveryID string             `json:"delivery_id" bson:"delivery_id"`
	URL        string             `json:"url" bson:"url"`
	Event      string             `json:"event" bson:"event"`
	Attempts   int                `json:"attempts" bson:"attempts"`
	Response   string             `json:"response,omitempty" bson:"response,omitempty"`
	StatusCode int                `json:"status_code" bson:"status_code"`
	Success    bool               `json:"success" bson:"success"`
	Duration   int64              `json:"duration" bson:"duration"` // milliseconds
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}
