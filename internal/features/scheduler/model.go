package scheduler

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Schedule fires a scheduled trigger event on a cron expression. The
// payload travels verbatim in the event envelope, so rules can match on
// it with regular conditions.
type Schedule struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID primitive.ObjectID `json:"tenant_id" bson:"tenant_id"`

	Name        string                 `json:"name" bson:"name"`
	Description string                 `json:"description,omitempty" bson:"description,omitempty"`
	CronExpr    string                 `json:"cron_expr" bson:"cron_expr"`
	Payload     map[string]interface{} `json:"payload,omitempty" bson:"payload,omitempty"`
	Active      bool                   `json:"active" bson:"active"`

	LastRunAt *time.Time         `json:"last_run_at,omitempty" bson:"last_run_at,omitempty"`
	NextRunAt *time.Time         `json:"next_run_at,omitempty" bson:"next_run_at,omitempty"`
	CreatedBy primitive.ObjectID `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
