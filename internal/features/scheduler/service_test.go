package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	common_models "flowcrm/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeScheduleRepo struct {
	mu        sync.Mutex
	schedules map[string]*Schedule
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: make(map[string]*Schedule)}
}

func (f *fakeScheduleRepo) Create(ctx context.Context, schedule *Schedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if schedule.ID.IsZero() {
		schedule.ID = primitive.NewObjectID()
	}
	cp := *schedule
	f.schedules[schedule.ID.Hex()] = &cp
	return nil
}

func (f *fakeScheduleRepo) GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	schedule, ok := f.schedules[id]
	if !ok || schedule.TenantID != tenantID {
		return nil, nil
	}
	cp := *schedule
	return &cp, nil
}

func (f *fakeScheduleRepo) List(ctx context.Context, tenantID primitive.ObjectID) ([]Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Schedule
	for _, s := range f.schedules {
		if s.TenantID == tenantID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) Update(ctx context.Context, schedule *Schedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *schedule
	f.schedules[schedule.ID.Hex()] = &cp
	return nil
}

func (f *fakeScheduleRepo) Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.schedules, id)
	return nil
}

func (f *fakeScheduleRepo) ListActive(ctx context.Context) ([]Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Schedule
	for _, s := range f.schedules {
		if s.Active {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) UpdateRunTimes(ctx context.Context, id primitive.ObjectID, lastRun time.Time, nextRun *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.schedules[id.Hex()]; ok {
		s.LastRunAt = &lastRun
		s.NextRunAt = nextRun
	}
	return nil
}

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
		t.Fatal("timed out waiting for scheduled event")
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

func newTestScheduler() (SchedulerService, *fakeScheduleRepo, *fakeTrigger) {
	repo := newFakeScheduleRepo()
	trigger := newFakeTrigger()
	svc := NewSchedulerService(repo, trigger, noopAudit{}, zap.NewNop())
	return svc, repo, trigger
}

func TestCreateScheduleRejectsBadCron(t *testing.T) {
	svc, _, _ := newTestScheduler()
	schedule := &Schedule{
		TenantID: primitive.NewObjectID(),
		Name:     "nightly digest",
		CronExpr: "not a cron line",
	}
	if err := svc.CreateSchedule(context.Background(), schedule); err == nil {
		t.Fatal("invalid cron expression must be rejected")
	}
}

func TestCreateScheduleComputesNextRun(t *testing.T) {
	svc, repo, _ := newTestScheduler()
	tenant := primitive.NewObjectID()

	schedule := &Schedule{TenantID: tenant, Name: "nightly digest", CronExpr: "0 2 * * *"}
	if err := svc.CreateSchedule(context.Background(), schedule); err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), tenant, schedule.ID.Hex())
	if stored == nil || stored.NextRunAt == nil {
		t.Fatal("next run not recorded")
	}
	if !stored.NextRunAt.After(time.Now()) {
		t.Errorf("next run %v is not in the future", stored.NextRunAt)
	}
}

func TestRunNowFiresScheduledEvent(t *testing.T) {
	svc, _, trigger := newTestScheduler()
	tenant := primitive.NewObjectID()

	schedule := &Schedule{
		TenantID: tenant,
		Name:     "stale lead sweep",
		CronExpr: "@hourly",
		Payload:  map[string]interface{}{"sweep": "stale_leads"},
	}
	if err := svc.CreateSchedule(context.Background(), schedule); err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}

	if err := svc.RunNow(context.Background(), tenant, schedule.ID.Hex()); err != nil {
		t.Fatalf("RunNow: %v", err)
	}

	ev := trigger.next(t)
	if ev.TriggerType != common_models.TriggerScheduled {
		t.Errorf("trigger = %s", ev.TriggerType)
	}
	if ev.TenantID != tenant || ev.EntityType != "schedule" || ev.EntityID != schedule.ID.Hex() {
		t.Errorf("event scoping wrong: %+v", ev)
	}
	if ev.Payload["sweep"] != "stale_leads" {
		t.Errorf("payload = %v", ev.Payload)
	}
	if ev.Payload["schedule_name"] != "stale lead sweep" {
		t.Errorf("schedule name missing from payload: %v", ev.Payload)
	}
	if ev.ActingUserID != nil {
		t.Errorf("scheduled events have no acting user, got %v", ev.ActingUserID)
	}
}

func TestRunNowTenantScoped(t *testing.T) {
	svc, _, _ := newTestScheduler()
	tenant := primitive.NewObjectID()

	schedule := &Schedule{TenantID: tenant, Name: "nightly digest", CronExpr: "@daily"}
	if err := svc.CreateSchedule(context.Background(), schedule); err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}

	if err := svc.RunNow(context.Background(), primitive.NewObjectID(), schedule.ID.Hex()); err == nil {
		t.Fatal("running another tenant's schedule must fail")
	}
}

func TestStartRegistersOnlyActiveSchedules(t *testing.T) {
	svc, repo, _ := newTestScheduler()
	tenant := primitive.NewObjectID()

	active := &Schedule{TenantID: tenant, Name: "active", CronExpr: "@hourly", Active: true}
	paused := &Schedule{TenantID: tenant, Name: "paused", CronExpr: "@hourly"}
	if err := repo.Create(context.Background(), active); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(context.Background(), paused); err != nil {
		t.Fatal(err)
	}

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop()

	impl := svc.(*SchedulerServiceImpl)
	impl.mu.Lock()
	defer impl.mu.Unlock()
	if _, ok := impl.entries[active.ID.Hex()]; !ok {
		t.Error("active schedule not registered")
	}
	if _, ok := impl.entries[paused.ID.Hex()]; ok {
		t.Error("paused schedule must not be registered")
	}
}
