package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	common_models "flowcrm/internal/common/models"
	"flowcrm/internal/config"
	"flowcrm/internal/metrics"
	"flowcrm/pkg/condition"

	"github.com/d5/tengo/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Collaborator interfaces. Declared here, implemented by sibling
// features and wired in cmd/api, so the engine stays free of feature
// imports.

type EmailSender interface {
	SendEmail(ctx context.Context, tenantID primitive.ObjectID, to []string, subject, body string) error
}

type NotificationSender interface {
	Send(ctx context.Context, tenantID, userID primitive.ObjectID, title, message string) error
}

// TaskSpec is the shape the create_task action hands to the task feature.
type TaskSpec struct {
	Subject     string
	Description string
	AssignedTo  string
	DueDate     time.Time
}

type TaskCreator interface {
	CreateFromAutomation(ctx context.Context, tenantID primitive.ObjectID, spec TaskSpec) error
}

// EntityStore fans update_field out to the repository owning the
// event's entity type (lead, client, task, project, quote).
type EntityStore interface {
	UpdateFields(ctx context.Context, tenantID primitive.ObjectID, entityType, entityID string, fields map[string]interface{}) error
}

type WebhookCaller interface {
	Post(ctx context.Context, url, secret string, headers map[string]string, body []byte) (int, error)
}

type LeadConverter interface {
	// ConvertToClient is idempotent: a lead that already has a linked
	// client is returned unchanged.
	ConvertToClient(ctx context.Context, tenantID primitive.ObjectID, leadID string, actingUser *primitive.ObjectID) (string, error)
}

type LeadImporter interface {
	ImportLeads(ctx context.Context, tenantID primitive.ObjectID, dataSourceID string) (int, error)
}

// ActionExecutor runs a rule's actions sequentially in declared
// order. Failures are captured per action and never abort siblings.
type ActionExecutor interface {
	ExecuteActions(ctx context.Context, actions []RuleAction, event common_models.EventEnvelope) []ActionResult
	ExecuteAction(ctx context.Context, action RuleAction, event common_models.EventEnvelope) *ActionError
}

type actionHandler func(ctx context.Context, action RuleAction, event common_models.EventEnvelope) error

type ActionExecutorImpl struct {
	handlers map[ActionKind]actionHandler
	timeout  time.Duration
	logger   *zap.Logger

	email    EmailSender
	notifier NotificationSender
	tasks    TaskCreator
	entities EntityStore
	webhooks WebhookCaller
	leads    LeadConverter
	importer LeadImporter
}

func NewActionExecutor(
	cfg *config.Config,
	logger *zap.Logger,
	email EmailSender,
	notifier NotificationSender,
	tasks TaskCreator,
	entities EntityStore,
	webhooks WebhookCaller,
	leads LeadConverter,
	importer LeadImporter,
) ActionExecutor {
	e := &ActionExecutorImpl{
		timeout:  cfg.ActionTimeout,
		logger:   logger,
		email:    email,
		notifier: notifier,
		tasks:    tasks,
		entities: entities,
		webhooks: webhooks,
		leads:    leads,
		importer: importer,
	}
	e.handlers = map[ActionKind]actionHandler{
		ActionSendEmail:        e.executeSendEmail,
		ActionSendNotification: e.executeSendNotification,
		ActionCreateTask:       e.executeCreateTask,
		ActionUpdateField:      e.executeUpdateField,
		ActionUpdateStatus:     e.executeUpdateStatus,
		ActionCallWebhook:      e.executeCallWebhook,
		ActionConvertLead:      e.executeConvertLead,
		ActionRunScript:        e.executeRunScript,
		ActionSyncLeads:        e.executeSyncLeads,
	}
	return e
}

func (e *ActionExecutorImpl) ExecuteActions(ctx context.Context, actions []RuleAction, event common_models.EventEnvelope) []ActionResult {
	results := make([]ActionResult, 0, len(actions))
	for _, action := range actions {
		err := e.ExecuteAction(ctx, action, event)
		if err != nil {
			metrics.ActionFailures.WithLabelValues(string(action.Kind)).Inc()
			e.logger.Warn("automation action failed",
				zap.String("kind", string(action.Kind)),
				zap.String("trigger", string(event.TriggerType)),
				zap.String("error", err.Message))
		}
		results = append(results, ActionResult{Kind: action.Kind, Err: err})
	}
	return results
}

// ExecuteAction dispatches one action under the configured timeout.
// A panicking handler is recovered into an ActionError.
func (e *ActionExecutorImpl) ExecuteAction(ctx context.Context, action RuleAction, event common_models.EventEnvelope) (actErr *ActionError) {
	defer func() {
		if r := recover(); r != nil {
			actErr = &ActionError{Kind: action.Kind, Message: fmt.Sprintf("panic: %v", r)}
		}
	}()

	handler, ok := e.handlers[action.Kind]
	if !ok {
		return &ActionError{Kind: action.Kind, Message: "unsupported action kind"}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := handler(ctx, action, event); err != nil {
		return &ActionError{Kind: action.Kind, Message: err.Error()}
	}
	return nil
}

func (e *ActionExecutorImpl) executeSendEmail(ctx context.Context, action RuleAction, event common_models.EventEnvelope) error {
	var params SendEmailParams
	if err := decodeParams(action.Params, &params); err != nil {
		return err
	}

	to := renderTemplate(params.To, event.Payload)
	if to == "" {
		return fmt.Errorf("email recipient (to) is required")
	}

	subject := renderTemplate(params.Subject, event.Payload)
	body := renderTemplate(params.Body, event.Payload)

	return e.email.SendEmail(ctx, event.TenantID, []string{to}, subject, body)
}

func (e *ActionExecutorImpl) executeSendNotification(ctx context.Context, action RuleAction, event common_models.EventEnvelope) error {
	var params SendNotificationParams
	if err := decodeParams(action.Params, &params); err != nil {
		return err
	}

	userID, err := resolveUser(params.UserID, event)
	if err != nil {
		return err
	}

	title := renderTemplate(params.Title, event.Payload)
	if title == "" {
		return fmt.Errorf("notification title is required")
	}
	message := renderTemplate(params.Message, event.Payload)

	return e.notifier.Send(ctx, event.TenantID, userID, title, message)
}

func (e *ActionExecutorImpl) executeCreateTask(ctx context.Context, action RuleAction, event common_models.EventEnvelope) error {
	var params CreateTaskParams
	if err := decodeParams(action.Params, &params); err != nil {
		return err
	}

	if params.Subject == "" {
		return fmt.Errorf("task subject is required")
	}

	spec := TaskSpec{
		Subject:     renderTemplate(params.Subject, event.Payload),
		Description: renderTemplate(params.Description, event.Payload),
		AssignedTo:  params.AssignedTo,
	}
	if spec.AssignedTo == "" && event.ActingUserID != nil {
		spec.AssignedTo = event.ActingUserID.Hex()
	}
	if params.DueInDays > 0 {
		spec.DueDate = time.Now().AddDate(0, 0, params.DueInDays)
	}

	return e.tasks.CreateFromAutomation(ctx, event.TenantID, spec)
}

func (e *ActionExecutorImpl) executeUpdateField(ctx context.Context, action RuleAction, event common_models.EventEnvelope) error {
	var params UpdateFieldParams
	if err := decodeParams(action.Params, &params); err != nil {
		return err
	}

	if params.Field == "" {
		return fmt.Errorf("field name is required for update_field action")
	}
	if event.EntityID == "" {
		return fmt.Errorf("event has no subject entity")
	}

	return e.entities.UpdateFields(ctx, event.TenantID, event.EntityType, event.EntityID,
		map[string]interface{}{params.Field: params.Value})
}

func (e *ActionExecutorImpl) executeUpdateStatus(ctx context.Context, action RuleAction, event common_models.EventEnvelope) error {
	var params UpdateStatusParams
	if err := decodeParams(action.Params, &params); err != nil {
		return err
	}

	if params.Status == "" {
		return fmt.Errorf("status value is required for update_status action")
	}
	if event.EntityID == "" {
		return fmt.Errorf("event has no subject entity")
	}

	return e.entities.UpdateFields(ctx, event.TenantID, event.EntityType, event.EntityID,
		map[string]interface{}{"status": params.Status})
}

func (e *ActionExecutorImpl) executeCallWebhook(ctx context.Context, action RuleAction, event common_models.EventEnvelope) error {
	var params CallWebhookParams
	if err := decodeParams(action.Params, &params); err != nil {
		return err
	}

	if params.URL == "" {
		return fmt.Errorf("webhook URL is required")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	status, err := e.webhooks.Post(ctx, params.URL, params.Secret, params.Headers, body)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("webhook returned status %d", status)
	}
	return nil
}

func (e *ActionExecutorImpl) executeConvertLead(ctx context.Context, _ RuleAction, event common_models.EventEnvelope) error {
	leadID := event.EntityID
	if event.EntityType != "lead" {
		// Quote/payment events carry the lead reference in the payload.
		if v, ok := condition.Lookup(event.Payload, "lead_id"); ok {
			leadID = fmt.Sprintf("%v", v)
		} else {
			return fmt.Errorf("convert_lead_to_client: no lead reference on %s event", event.EntityType)
		}
	}
	if leadID == "" {
		return fmt.Errorf("convert_lead_to_client: empty lead id")
	}

	_, err := e.leads.ConvertToClient(ctx, event.TenantID, leadID, event.ActingUserID)
	return err
}

func (e *ActionExecutorImpl) executeRunScript(ctx context.Context, action RuleAction, event common_models.EventEnvelope) error {
	var params RunScriptParams
	if err := decodeParams(action.Params, &params); err != nil {
		return err
	}

	if params.Script == "" {
		return fmt.Errorf("script content is required")
	}

	script := tengo.NewScript([]byte(params.Script))
	script.Add("trigger", string(event.TriggerType))
	script.Add("entity_type", event.EntityType)
	script.Add("entity_id", event.EntityID)
	script.Add("payload", event.Payload)

	compiled, err := script.Compile()
	if err != nil {
		return fmt.Errorf("failed to compile script: %w", err)
	}

	if err := compiled.RunContext(ctx); err != nil {
		return fmt.Errorf("failed to run script: %w", err)
	}
	return nil
}

func (e *ActionExecutorImpl) executeSyncLeads(ctx context.Context, action RuleAction, event common_models.EventEnvelope) error {
	var params SyncLeadsParams
	if err := decodeParams(action.Params, &params); err != nil {
		return err
	}

	if params.DataSourceID == "" {
		return fmt.Errorf("data_source_id is required for sync_leads action")
	}

	imported, err := e.importer.ImportLeads(ctx, event.TenantID, params.DataSourceID)
	if err != nil {
		return err
	}
	e.logger.Info("lead import completed",
		zap.String("data_source", params.DataSourceID),
		zap.Int("imported", imported))
	return nil
}

// decodeParams round-trips the schemaless params document into the
// kind's typed struct.
func decodeParams(params map[string]interface{}, out interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("invalid action params: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid action params: %w", err)
	}
	return nil
}

func resolveUser(configured string, event common_models.EventEnvelope) (primitive.ObjectID, error) {
	if configured != "" {
		oid, err := primitive.ObjectIDFromHex(configured)
		if err != nil {
			return primitive.NilObjectID, fmt.Errorf("invalid user_id %q", configured)
		}
		return oid, nil
	}
	if event.ActingUserID != nil {
		return *event.ActingUserID, nil
	}
	return primitive.NilObjectID, fmt.Errorf("no target user: action has no user_id and event has no acting user")
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([\w.]+)\s*\}\}`)

// renderTemplate substitutes {{field}} references with payload values,
// resolving dot-paths. Unknown references render empty.
func renderTemplate(text string, payload map[string]interface{}) string {
	if text == "" {
		return ""
	}
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		path := placeholderRe.FindStringSubmatch(match)[1]
		if val, ok := condition.Lookup(payload, path); ok {
			return fmt.Sprintf("%v", val)
		}
		return ""
	})
}
