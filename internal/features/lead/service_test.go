package lead

import (
	"context"
	"sync"
	"testing"
	"time"

	common_models "flowcrm/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeLeadRepo struct {
	mu    sync.Mutex
	leads map[string]*Lead
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: make(map[string]*Lead)}
}

func (f *fakeLeadRepo) Create(ctx context.Context, lead *Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lead.ID.IsZero() {
		lead.ID = primitive.NewObjectID()
	}
	if lead.Status == "" {
		lead.Status = LeadStatusNew
	}
	cp := *lead
	f.leads[lead.ID.Hex()] = &cp
	return nil
}

func (f *fakeLeadRepo) GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok || lead.TenantID != tenantID {
		return nil, nil
	}
	cp := *lead
	return &cp, nil
}

func (f *fakeLeadRepo) List(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Lead, int64, error) {
	return nil, 0, nil
}

func (f *fakeLeadRepo) Update(ctx context.Context, lead *Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *lead
	f.leads[lead.ID.Hex()] = &cp
	return nil
}

func (f *fakeLeadRepo) UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return nil
	}
	if status, ok := fields["status"]; ok {
		switch v := status.(type) {
		case LeadStatus:
			lead.Status = v
		case string:
			lead.Status = LeadStatus(v)
		}
	}
	return nil
}

func (f *fakeLeadRepo) Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.leads, id)
	return nil
}

func (f *fakeLeadRepo) LinkClient(ctx context.Context, tenantID primitive.ObjectID, leadID string, clientID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[leadID]
	if !ok || lead.TenantID != tenantID || lead.ClientID != nil {
		return false, nil
	}
	lead.ClientID = &clientID
	lead.Status = LeadStatusConverted
	return true, nil
}

type fakeClientCreator struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeClientCreator) CreateFromLead(ctx context.Context, tenantID primitive.ObjectID, spec ClientSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return primitive.NewObjectID().Hex(), nil
}

// fakeTrigger records emitted events on a buffered channel so tests
// can wait for the detached emit goroutine.
type fakeTrigger struct {
	events chan common_models.EventEnvelope
}

func newFakeTrigger() *fakeTrigger {
	return &fakeTrigger{events: make(chan common_models.EventEnvelope, 16)}
}

func (f *fakeTrigger) ProcessTrigger(ctx context.Context, event common_models.EventEnvelope) {
	f.events <- event
}

func (f *fakeTrigger) next(t *testing.T) common_models.EventEnvelope {
	t.Helper()
	select {
	case ev := <-f.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for automation event")
		return common_models.EventEnvelope{}
	}
}

type noopAudit struct{}

func (noopAudit) LogChange(ctx context.Context, tenantID primitive.ObjectID, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	return nil
}

func (noopAudit) ListLogs(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

func newTestService() (LeadService, *fakeLeadRepo, *fakeClientCreator, *fakeTrigger) {
	repo := newFakeLeadRepo()
	clients := &fakeClientCreator{}
	trigger := newFakeTrigger()
	svc := NewLeadService(repo, clients, trigger, noopAudit{})
	return svc, repo, clients, trigger
}

func TestCreateLeadEmitsEvent(t *testing.T) {
	svc, _, _, trigger := newTestService()
	tenant := primitive.NewObjectID()
	actor := primitive.NewObjectID()

	lead := &Lead{TenantID: tenant, Name: "Asha", Source: "Facebook"}
	if err := svc.CreateLead(context.Background(), lead, &actor); err != nil {
		t.Fatalf("CreateLead: %v", err)
	}

	ev := trigger.next(t)
	if ev.TriggerType != common_models.TriggerLeadCreated {
		t.Errorf("trigger = %s", ev.TriggerType)
	}
	if ev.TenantID != tenant || ev.EntityID != lead.ID.Hex() {
		t.Errorf("event scoping wrong: %+v", ev)
	}
	if ev.Payload["source"] != "Facebook" {
		t.Errorf("payload = %v", ev.Payload)
	}
	if ev.ActingUserID == nil || *ev.ActingUserID != actor {
		t.Errorf("acting user not carried: %v", ev.ActingUserID)
	}
}

func TestCreateLeadValidation(t *testing.T) {
	svc, _, _, _ := newTestService()
	if err := svc.CreateLead(context.Background(), &Lead{TenantID: primitive.NewObjectID()}, nil); err == nil {
		t.Error("nameless lead must be rejected")
	}
	if err := svc.CreateLead(context.Background(), &Lead{Name: "x"}, nil); err == nil {
		t.Error("tenantless lead must be rejected")
	}
}

func TestUpdateStatusCarriesTransition(t *testing.T) {
	svc, _, _, trigger := newTestService()
	tenant := primitive.NewObjectID()

	lead := &Lead{TenantID: tenant, Name: "Asha"}
	if err := svc.CreateLead(context.Background(), lead, nil); err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	trigger.next(t) // drain lead_created

	if err := svc.UpdateStatus(context.Background(), tenant, lead.ID.Hex(), LeadStatusQualified, nil); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	ev := trigger.next(t)
	if ev.TriggerType != common_models.TriggerLeadStatusChanged {
		t.Fatalf("trigger = %s", ev.TriggerType)
	}
	if ev.Payload["old_status"] != "new" || ev.Payload["new_status"] != "qualified" {
		t.Errorf("transition payload = %v", ev.Payload)
	}
}

func TestUpdateStatusNoopOnSameStatus(t *testing.T) {
	svc, _, _, trigger := newTestService()
	tenant := primitive.NewObjectID()

	lead := &Lead{TenantID: tenant, Name: "Asha"}
	if err := svc.CreateLead(context.Background(), lead, nil); err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	trigger.next(t)

	if err := svc.UpdateStatus(context.Background(), tenant, lead.ID.Hex(), LeadStatusNew, nil); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	select {
	case ev := <-trigger.events:
		t.Fatalf("no event expected for a no-op transition, got %s", ev.TriggerType)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConvertToClientIsIdempotent(t *testing.T) {
	svc, repo, clients, trigger := newTestService()
	tenant := primitive.NewObjectID()

	lead := &Lead{TenantID: tenant, Name: "Asha", Email: "asha@example.com"}
	if err := svc.CreateLead(context.Background(), lead, nil); err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	trigger.next(t)

	first, err := svc.ConvertToClient(context.Background(), tenant, lead.ID.Hex(), nil)
	if err != nil {
		t.Fatalf("first convert: %v", err)
	}
	ev := trigger.next(t)
	if ev.TriggerType != common_models.TriggerLeadConverted {
		t.Errorf("trigger = %s", ev.TriggerType)
	}
	if ev.Payload["client_id"] != first {
		t.Errorf("payload client_id = %v, want %s", ev.Payload["client_id"], first)
	}

	second, err := svc.ConvertToClient(context.Background(), tenant, lead.ID.Hex(), nil)
	if err != nil {
		t.Fatalf("second convert: %v", err)
	}
	if second != first {
		t.Errorf("second conversion returned %s, want the original client %s", second, first)
	}
	if clients.calls != 1 {
		t.Errorf("client created %d times, want 1", clients.calls)
	}

	stored, _ := repo.GetByID(context.Background(), tenant, lead.ID.Hex())
	if stored.Status != LeadStatusConverted {
		t.Errorf("lead status = %s, want converted", stored.Status)
	}

	// No second lead_converted event.
	select {
	case ev := <-trigger.events:
		t.Fatalf("unexpected event %s after idempotent re-convert", ev.TriggerType)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConvertToClientTenantScoped(t *testing.T) {
	svc, _, _, trigger := newTestService()
	tenant := primitive.NewObjectID()

	lead := &Lead{TenantID: tenant, Name: "Asha"}
	if err := svc.CreateLead(context.Background(), lead, nil); err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	trigger.next(t)

	if _, err := svc.ConvertToClient(context.Background(), primitive.NewObjectID(), lead.ID.Hex(), nil); err == nil {
		t.Fatal("conversion across tenants must fail")
	}
}
