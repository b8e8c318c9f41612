package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

const (
	TenantIDKey ContextKey = "tenant_id"
	UserIDKey   ContextKey = "user_id"
)

// TriggerType tags the kind of domain event that occurred. The set is
// open: producers may emit new trigger types without engine changes.
type TriggerType string

const (
	TriggerLeadCreated       TriggerType = "lead_created"
	TriggerLeadStatusChanged TriggerType = "lead_status_changed"
	TriggerLeadConverted     TriggerType = "lead_converted"
	TriggerClientCreated     TriggerType = "client_created"
	TriggerTaskCreated       TriggerType = "task_created"
	TriggerTaskCompleted     TriggerType = "task_completed"
	TriggerProjectCreated    TriggerType = "project_created"
	TriggerQuoteSent         TriggerType = "quote_sent"
	TriggerQuoteAccepted     TriggerType = "quote_accepted"
	TriggerMeetingScheduled  TriggerType = "meeting_scheduled"
	TriggerPaymentReceived   TriggerType = "payment_received"
	TriggerScheduled         TriggerType = "scheduled"
)

// EventEnvelope describes one domain occurrence. It is built once by
// the producing call site and treated as immutable by everything
// downstream. The engine never persists envelopes.
type EventEnvelope struct {
	TriggerType  TriggerType         `json:"trigger_type"`
	EntityType   string              `json:"entity_type"`
	EntityID     string              `json:"entity_id"`
	Payload      map[string]any      `json:"payload"`
	ActingUserID *primitive.ObjectID `json:"acting_user_id,omitempty"` // nil for system-initiated events
	TenantID     primitive.ObjectID  `json:"tenant_id"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

// NewEvent builds an envelope with the occurrence timestamp set.
func NewEvent(tenantID primitive.ObjectID, trigger TriggerType, entityType, entityID string, payload map[string]any, actingUser *primitive.ObjectID) EventEnvelope {
	return EventEnvelope{
		TriggerType:  trigger,
		EntityType:   entityType,
		EntityID:     entityID,
		Payload:      payload,
		ActingUserID: actingUser,
		TenantID:     tenantID,
		OccurredAt:   time.Now(),
	}
}

type AuditAction string

const (
	AuditActionCreate     AuditAction = "CREATE"
	AuditActionUpdate     AuditAction = "UPDATE"
	AuditActionDelete     AuditAction = "DELETE"
	AuditActionLogin      AuditAction = "LOGIN"
	AuditActionAutomation AuditAction = "AUTOMATION"
	AuditActionConvert    AuditAction = "CONVERT"
	AuditActionSchedule   AuditAction = "SCHEDULE"
	AuditActionImport     AuditAction = "IMPORT"
	AuditActionWebhook    AuditAction = "WEBHOOK"
)

type Change struct {
	Old interface{} `bson:"old" json:"old"`
	New interface{} `bson:"new" json:"new"`
}

type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID  primitive.ObjectID `bson:"tenant_id,omitempty" json:"tenant_id,omitempty"`
	Action    AuditAction        `bson:"action" json:"action"`
	Module    string             `bson:"module" json:"module"`
	RecordID  string             `bson:"record_id" json:"record_id"`
	ActorID   string             `bson:"actor_id" json:"actor_id"`
	Changes   map[string]Change  `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// Log is the persisted shape of system log lines mirrored to Mongo by
// the zap tee core.
type Log struct {
	Message      string    `bson:"message" json:"message"`
	Caller       string    `bson:"caller" json:"caller"`
	IpAddress    string    `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	AppId        string    `bson:"app_id" json:"app_id"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
