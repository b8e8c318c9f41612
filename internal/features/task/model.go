package task

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStatus represents the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskOrigin distinguishes operator-created tasks from ones opened by
// an automation rule.
type TaskOrigin string

const (
	TaskOriginManual     TaskOrigin = "manual"
	TaskOriginAutomation TaskOrigin = "automation"
)

// Task represents a unit of follow-up work
type Task struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID primitive.ObjectID `json:"tenant_id" bson:"tenant_id"`

	Subject     string `json:"subject" bson:"subject"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`

	Status TaskStatus `json:"status" bson:"status"`
	Origin TaskOrigin `json:"origin" bson:"origin"`

	AssignedTo *primitive.ObjectID `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
	DueDate    *time.Time          `json:"due_date,omitempty" bson:"due_date,omitempty"`

	// RelatedType/RelatedID optionally tie the task to a CRM entity.
	RelatedType string `json:"related_type,omitempty" bson:"related_type,omitempty"`
	RelatedID   string `json:"related_id,omitempty" bson:"related_id,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

func (t *Task) EventPayload() map[string]interface{} {
	payload := map[string]interface{}{
		"subject": t.Subject,
		"status":  string(t.Status),
		"origin":  string(t.Origin),
	}
	if t.AssignedTo != nil {
		payload["assigned_to"] = t.AssignedTo.Hex()
	}
	if t.DueDate != nil {
		payload["due_date"] = t.DueDate.Format(time.RFC3339)
	}
	if t.RelatedType != "" {
		payload["related_type"] = t.RelatedType
		payload["related_id"] = t.RelatedID
	}
	return payload
}
