package automation

import (
	"time"

	"flowcrm/pkg/condition"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActionKind discriminates the closed set of declarative actions a
// rule may run. New kinds are added here plus one handler registration
// in the executor; nothing else in the engine changes.
type ActionKind string

const (
	ActionSendEmail        ActionKind = "send_email"
	ActionSendNotification ActionKind = "send_notification"
	ActionCreateTask       ActionKind = "create_task"
	ActionUpdateField      ActionKind = "update_field"
	ActionUpdateStatus     ActionKind = "update_status"
	ActionCallWebhook      ActionKind = "call_webhook"
	ActionConvertLead      ActionKind = "convert_lead_to_client"
	ActionRunScript        ActionKind = "run_script"
	ActionSyncLeads        ActionKind = "sync_leads"
)

// RuleAction is one declarative side effect. Params are stored
// schemaless and decoded into the kind's typed parameter struct right
// before dispatch, so a malformed document fails one action, not the
// rule load.
type RuleAction struct {
	Kind   ActionKind             `json:"kind" bson:"kind"`
	Params map[string]interface{} `json:"params" bson:"params"`
}

// Typed parameter shapes, one per action kind.

type SendEmailParams struct {
	To      string `json:"to"`      // literal address or {{field}} reference
	Subject string `json:"subject"` // supports {{field}} placeholders
	Body    string `json:"body"`
}

type SendNotificationParams struct {
	UserID  string `json:"user_id"` // empty falls back to the acting user
	Title   string `json:"title"`
	Message string `json:"message"`
}

type CreateTaskParams struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	AssignedTo  string `json:"assigned_to"`
	DueInDays   int    `json:"due_in_days"`
}

type UpdateFieldParams struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

type UpdateStatusParams struct {
	Status string `json:"status"`
}

type CallWebhookParams struct {
	URL     string            `json:"url"`
	Secret  string            `json:"secret"`
	Headers map[string]string `json:"headers"`
}

type RunScriptParams struct {
	Script string `json:"script"`
}

type SyncLeadsParams struct {
	DataSourceID string `json:"data_source_id"`
}

// AutomationRule maps one trigger type plus a condition set onto an
// ordered action list. Rules are owned and edited by a tenant; the
// engine only ever reads them.
type AutomationRule struct {
	ID          primitive.ObjectID    `json:"id" bson:"_id,omitempty"`
	TenantID    primitive.ObjectID    `json:"tenant_id" bson:"tenant_id"`
	Name        string                `json:"name" bson:"name"`
	Description string                `json:"description" bson:"description"`
	TriggerType string                `json:"trigger_type" bson:"trigger_type"`
	Conditions  []condition.Condition `json:"conditions" bson:"conditions"`
	Actions     []RuleAction          `json:"actions" bson:"actions"`
	Active      bool                  `json:"active" bson:"active"`
	CreatedAt   time.Time             `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at" bson:"updated_at"`
}

type ExecutionStatus string

const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
)

// ExecutionLog is one append-only audit record per rule run. Only
// matched rules are logged; unmatched evaluations leave no trace so
// the trail reflects actual automation activity.
type ExecutionLog struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID     primitive.ObjectID `json:"tenant_id" bson:"tenant_id"`
	AutomationID primitive.ObjectID `json:"automation_id" bson:"automation_id"`
	RuleName     string             `json:"rule_name" bson:"rule_name"`
	TriggerType  string             `json:"trigger_type" bson:"trigger_type"`
	EntityType   string             `json:"entity_type" bson:"entity_type"`
	EntityID     string             `json:"entity_id" bson:"entity_id"`
	Status       ExecutionStatus    `json:"status" bson:"status"`
	Error        string             `json:"error,omitempty" bson:"error,omitempty"`
	DurationMs   int64              `json:"duration_ms" bson:"duration_ms"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

// ActionError captures one failed action without aborting its
// siblings.
type ActionError struct {
	Kind    ActionKind `json:"kind"`
	Message string     `json:"message"`
}

func (e *ActionError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// ActionResult is the per-action outcome surfaced to the orchestrator.
type ActionResult struct {
	Kind ActionKind
	Err  *ActionError
}
