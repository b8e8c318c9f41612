package automation

import (
	"context"
	"errors"
	"testing"
	"time"

	common_models "flowcrm/internal/common/models"
	"flowcrm/internal/config"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type emailCall struct {
	To      []string
	Subject string
	Body    string
}

type fakeEmailSender struct {
	calls []emailCall
	err   error
}

func (f *fakeEmailSender) SendEmail(ctx context.Context, tenantID primitive.ObjectID, to []string, subject, body string) error {
	f.calls = append(f.calls, emailCall{To: to, Subject: subject, Body: body})
	return f.err
}

type fakeNotifier struct {
	userID primitive.ObjectID
	title  string
	calls  int
}

func (f *fakeNotifier) Send(ctx context.Context, tenantID, userID primitive.ObjectID, title, message string) error {
	f.calls++
	f.userID = userID
	f.title = title
	return nil
}

type fakeTaskCreator struct {
	specs []TaskSpec
}

func (f *fakeTaskCreator) CreateFromAutomation(ctx context.Context, tenantID primitive.ObjectID, spec TaskSpec) error {
	f.specs = append(f.specs, spec)
	return nil
}

type entityUpdate struct {
	EntityType string
	EntityID   string
	Fields     map[string]interface{}
}

type fakeEntityStore struct {
	updates []entityUpdate
}

func (f *fakeEntityStore) UpdateFields(ctx context.Context, tenantID primitive.ObjectID, entityType, entityID string, fields map[string]interface{}) error {
	f.updates = append(f.updates, entityUpdate{EntityType: entityType, EntityID: entityID, Fields: fields})
	return nil
}

type fakeWebhookCaller struct {
	status int
	err    error
	url    string
	body   []byte
}

func (f *fakeWebhookCaller) Post(ctx context.Context, url, secret string, headers map[string]string, body []byte) (int, error) {
	f.url = url
	f.body = body
	return f.status, f.err
}

// fakeLeadConverter mimics the idempotence contract: converting the
// same lead twice yields the same client id and no second conversion.
type fakeLeadConverter struct {
	converted map[string]string
	calls     int
}

func (f *fakeLeadConverter) ConvertToClient(ctx context.Context, tenantID primitive.ObjectID, leadID string, actingUser *primitive.ObjectID) (string, error) {
	f.calls++
	if f.converted == nil {
		f.converted = make(map[string]string)
	}
	if clientID, ok := f.converted[leadID]; ok {
		return clientID, nil
	}
	clientID := primitive.NewObjectID().Hex()
	f.converted[leadID] = clientID
	return clientID, nil
}

type fakeLeadImporter struct {
	dataSourceID string
	imported     int
	err          error
}

func (f *fakeLeadImporter) ImportLeads(ctx context.Context, tenantID primitive.ObjectID, dataSourceID string) (int, error) {
	f.dataSourceID = dataSourceID
	return f.imported, f.err
}

type executorFakes struct {
	email    *fakeEmailSender
	notifier *fakeNotifier
	tasks    *fakeTaskCreator
	entities *fakeEntityStore
	webhooks *fakeWebhookCaller
	leads    *fakeLeadConverter
	importer *fakeLeadImporter
}

func newTestExecutor() (ActionExecutor, *executorFakes) {
	fakes := &executorFakes{
		email:    &fakeEmailSender{},
		notifier: &fakeNotifier{},
		tasks:    &fakeTaskCreator{},
		entities: &fakeEntityStore{},
		webhooks: &fakeWebhookCaller{status: 200},
		leads:    &fakeLeadConverter{},
		importer: &fakeLeadImporter{imported: 3},
	}
	cfg := &config.Config{ActionTimeout: 2 * time.Second}
	exec := NewActionExecutor(cfg, zap.NewNop(), fakes.email, fakes.notifier,
		fakes.tasks, fakes.entities, fakes.webhooks, fakes.leads, fakes.importer)
	return exec, fakes
}

func leadEvent(payload map[string]interface{}) common_models.EventEnvelope {
	return common_models.NewEvent(primitive.NewObjectID(), common_models.TriggerLeadCreated,
		"lead", primitive.NewObjectID().Hex(), payload, nil)
}

func TestExecuteActionsContinueAfterFailure(t *testing.T) {
	exec, fakes := newTestExecutor()
	fakes.webhooks.status = 503

	actions := []RuleAction{
		{Kind: ActionSendEmail, Params: map[string]interface{}{"to": "ops@example.com", "subject": "hi"}},
		{Kind: ActionCallWebhook, Params: map[string]interface{}{"url": "https://hooks.example.com/x"}},
		{Kind: ActionCreateTask, Params: map[string]interface{}{"subject": "Follow up", "assigned_to": primitive.NewObjectID().Hex()}},
	}

	results := exec.ExecuteActions(context.Background(), actions, leadEvent(nil))

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("surrounding actions must succeed: %+v", results)
	}
	if results[1].Err == nil {
		t.Fatal("webhook action must report the 5xx as failure")
	}
	if len(fakes.email.calls) != 1 || len(fakes.tasks.specs) != 1 {
		t.Error("actions after the failure must still execute")
	}
}

func TestExecuteActionUnsupportedKind(t *testing.T) {
	exec, _ := newTestExecutor()
	err := exec.ExecuteAction(context.Background(), RuleAction{Kind: ActionKind("launch_rocket")}, leadEvent(nil))
	if err == nil {
		t.Fatal("unknown kinds must fail, not panic")
	}
	if err.Kind != ActionKind("launch_rocket") {
		t.Errorf("error kind = %s", err.Kind)
	}
}

func TestSendEmailTemplating(t *testing.T) {
	exec, fakes := newTestExecutor()

	action := RuleAction{Kind: ActionSendEmail, Params: map[string]interface{}{
		"to":      "{{contact.email}}",
		"subject": "Welcome {{name}}",
		"body":    "Hi {{name}}, source: {{source}}, missing: {{nope}}",
	}}
	event := leadEvent(map[string]interface{}{
		"name":   "Asha",
		"source": "Facebook",
		"contact": map[string]interface{}{
			"email": "asha@example.com",
		},
	})

	if err := exec.ExecuteAction(context.Background(), action, event); err != nil {
		t.Fatalf("ExecuteAction: %v", err)
	}
	call := fakes.email.calls[0]
	if call.To[0] != "asha@example.com" {
		t.Errorf("to = %v", call.To)
	}
	if call.Subject != "Welcome Asha" {
		t.Errorf("subject = %q", call.Subject)
	}
	if call.Body != "Hi Asha, source: Facebook, missing: " {
		t.Errorf("body = %q", call.Body)
	}
}

func TestSendEmailMissingRecipient(t *testing.T) {
	exec, fakes := newTestExecutor()
	action := RuleAction{Kind: ActionSendEmail, Params: map[string]interface{}{
		"to": "{{contact.email}}", "subject": "x",
	}}
	if err := exec.ExecuteAction(context.Background(), action, leadEvent(nil)); err == nil {
		t.Fatal("empty rendered recipient must fail")
	}
	if len(fakes.email.calls) != 0 {
		t.Error("no email should be sent")
	}
}

func TestSendNotificationFallsBackToActingUser(t *testing.T) {
	exec, fakes := newTestExecutor()
	actor := primitive.NewObjectID()
	event := common_models.NewEvent(primitive.NewObjectID(), common_models.TriggerTaskCompleted,
		"task", "T1", nil, &actor)

	action := RuleAction{Kind: ActionSendNotification, Params: map[string]interface{}{"title": "Done"}}
	if err := exec.ExecuteAction(context.Background(), action, event); err != nil {
		t.Fatalf("ExecuteAction: %v", err)
	}
	if fakes.notifier.userID != actor {
		t.Errorf("notification went to %s, want acting user %s", fakes.notifier.userID.Hex(), actor.Hex())
	}
}

func TestSendNotificationNoTargetUser(t *testing.T) {
	exec, _ := newTestExecutor()
	// System-initiated event, no configured recipient either.
	action := RuleAction{Kind: ActionSendNotification, Params: map[string]interface{}{"title": "Done"}}
	if err := exec.ExecuteAction(context.Background(), action, leadEvent(nil)); err == nil {
		t.Fatal("expected error when no target user can be resolved")
	}
}

func TestCreateTaskDueDate(t *testing.T) {
	exec, fakes := newTestExecutor()
	action := RuleAction{Kind: ActionCreateTask, Params: map[string]interface{}{
		"subject":     "Call {{name}}",
		"assigned_to": primitive.NewObjectID().Hex(),
		"due_in_days": 3,
	}}
	event := leadEvent(map[string]interface{}{"name": "Asha"})

	if err := exec.ExecuteAction(context.Background(), action, event); err != nil {
		t.Fatalf("ExecuteAction: %v", err)
	}
	spec := fakes.tasks.specs[0]
	if spec.Subject != "Call Asha" {
		t.Errorf("subject = %q", spec.Subject)
	}
	wantDue := time.Now().AddDate(0, 0, 3)
	if spec.DueDate.Before(wantDue.Add(-time.Minute)) || spec.DueDate.After(wantDue.Add(time.Minute)) {
		t.Errorf("due date %v not ~3 days out", spec.DueDate)
	}
}

func TestUpdateFieldTargetsEventEntity(t *testing.T) {
	exec, fakes := newTestExecutor()
	event := leadEvent(nil)
	action := RuleAction{Kind: ActionUpdateField, Params: map[string]interface{}{
		"field": "priority", "value": "high",
	}}

	if err := exec.ExecuteAction(context.Background(), action, event); err != nil {
		t.Fatalf("ExecuteAction: %v", err)
	}
	upd := fakes.entities.updates[0]
	if upd.EntityType != "lead" || upd.EntityID != event.EntityID {
		t.Errorf("update targeted %s/%s, want the event entity", upd.EntityType, upd.EntityID)
	}
	if upd.Fields["priority"] != "high" {
		t.Errorf("fields = %v", upd.Fields)
	}
}

func TestUpdateStatusSetsStatusField(t *testing.T) {
	exec, fakes := newTestExecutor()
	action := RuleAction{Kind: ActionUpdateStatus, Params: map[string]interface{}{"status": "contacted"}}

	if err := exec.ExecuteAction(context.Background(), action, leadEvent(nil)); err != nil {
		t.Fatalf("ExecuteAction: %v", err)
	}
	if fakes.entities.updates[0].Fields["status"] != "contacted" {
		t.Errorf("fields = %v", fakes.entities.updates[0].Fields)
	}
}

func TestCallWebhookStatusHandling(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		err     error
		wantErr bool
	}{
		{"2xx ok", 204, nil, false},
		{"4xx fails", 404, nil, true},
		{"5xx fails", 500, nil, true},
		{"transport error fails", 0, errors.New("dial tcp: refused"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec, fakes := newTestExecutor()
			fakes.webhooks.status = tt.status
			fakes.webhooks.err = tt.err

			action := RuleAction{Kind: ActionCallWebhook, Params: map[string]interface{}{
				"url": "https://hooks.example.com/x",
			}}
			err := exec.ExecuteAction(context.Background(), action, leadEvent(nil))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(fakes.webhooks.body) == 0 {
				t.Error("delivery body must carry the serialized event")
			}
		})
	}
}

func TestConvertLeadIdempotent(t *testing.T) {
	exec, fakes := newTestExecutor()
	event := leadEvent(nil)
	action := RuleAction{Kind: ActionConvertLead}

	if err := exec.ExecuteAction(context.Background(), action, event); err != nil {
		t.Fatalf("first conversion: %v", err)
	}
	if err := exec.ExecuteAction(context.Background(), action, event); err != nil {
		t.Fatalf("second conversion: %v", err)
	}
	if len(fakes.leads.converted) != 1 {
		t.Errorf("lead converted into %d clients, want 1", len(fakes.leads.converted))
	}
}

func TestConvertLeadFromNonLeadEvent(t *testing.T) {
	exec, fakes := newTestExecutor()
	leadID := primitive.NewObjectID().Hex()
	event := common_models.NewEvent(primitive.NewObjectID(), common_models.TriggerQuoteAccepted,
		"quote", "Q1", map[string]interface{}{"lead_id": leadID, "amount": 900}, nil)

	if err := exec.ExecuteAction(context.Background(), RuleAction{Kind: ActionConvertLead}, event); err != nil {
		t.Fatalf("ExecuteAction: %v", err)
	}
	if _, ok := fakes.leads.converted[leadID]; !ok {
		t.Errorf("converted leads = %v, want %s", fakes.leads.converted, leadID)
	}

	// No lead reference anywhere: the action fails cleanly.
	bare := common_models.NewEvent(primitive.NewObjectID(), common_models.TriggerQuoteAccepted,
		"quote", "Q2", nil, nil)
	if err := exec.ExecuteAction(context.Background(), RuleAction{Kind: ActionConvertLead}, bare); err == nil {
		t.Fatal("expected missing lead reference error")
	}
}

func TestRunScript(t *testing.T) {
	exec, _ := newTestExecutor()
	event := leadEvent(map[string]interface{}{"amount": 250})

	ok := RuleAction{Kind: ActionRunScript, Params: map[string]interface{}{
		"script": `total := payload.amount * 2`,
	}}
	if err := exec.ExecuteAction(context.Background(), ok, event); err != nil {
		t.Fatalf("script should run: %v", err)
	}

	broken := RuleAction{Kind: ActionRunScript, Params: map[string]interface{}{
		"script": `if {`,
	}}
	if err := exec.ExecuteAction(context.Background(), broken, event); err == nil {
		t.Fatal("compile error must surface as action failure")
	}
}

func TestSyncLeadsRequiresDataSource(t *testing.T) {
	exec, fakes := newTestExecutor()

	if err := exec.ExecuteAction(context.Background(),
		RuleAction{Kind: ActionSyncLeads, Params: map[string]interface{}{}}, leadEvent(nil)); err == nil {
		t.Fatal("sync_leads without data_source_id must fail")
	}

	action := RuleAction{Kind: ActionSyncLeads, Params: map[string]interface{}{
		"data_source_id": "ds-1",
	}}
	if err := exec.ExecuteAction(context.Background(), action, leadEvent(nil)); err != nil {
		t.Fatalf("ExecuteAction: %v", err)
	}
	if fakes.importer.dataSourceID != "ds-1" {
		t.Errorf("importer called with %q", fakes.importer.dataSourceID)
	}
}

func TestDecodeParamsRejectsWrongTypes(t *testing.T) {
	exec, _ := newTestExecutor()
	action := RuleAction{Kind: ActionCreateTask, Params: map[string]interface{}{
		"subject":     "x",
		"due_in_days": "soon",
	}}
	if err := exec.ExecuteAction(context.Background(), action, leadEvent(nil)); err == nil {
		t.Fatal("malformed params must fail the action")
	}
}

func TestRenderTemplate(t *testing.T) {
	payload := map[string]interface{}{
		"name": "Asha",
		"lead": map[string]interface{}{"status": "new"},
	}
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"{{name}}", "Asha"},
		{"{{ name }}", "Asha"},
		{"status: {{lead.status}}", "status: new"},
		{"{{unknown}}", ""},
	}
	for _, tt := range tests {
		if got := renderTemplate(tt.in, payload); got != tt.want {
			t.Errorf("renderTemplate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
