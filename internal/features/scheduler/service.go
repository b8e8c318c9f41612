package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	common_models "flowcrm/internal/common/models"
	"flowcrm/internal/features/audit"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AutomationTrigger receives the scheduled events. Implemented by the
// automation engine, wired in cmd/api.
type AutomationTrigger interface {
	ProcessTrigger(ctx context.Context, event common_models.EventEnvelope)
}

type SchedulerService interface {
	CreateSchedule(ctx context.Context, schedule *Schedule) error
	GetSchedule(ctx context.Context, tenantID primitive.ObjectID, id string) (*Schedule, error)
	ListSchedules(ctx context.Context, tenantID primitive.ObjectID) ([]Schedule, error)
	UpdateSchedule(ctx context.Context, schedule *Schedule) error
	DeleteSchedule(ctx context.Context, tenantID primitive.ObjectID, id string) error
	// RunNow fires the schedule's event immediately, outside its cron
	// cadence. The schedule must exist but may be inactive.
	RunNow(ctx context.Context, tenantID primitive.ObjectID, id string) error

	// Start loads every active schedule into the cron runner. Stop
	// drains in-flight jobs. Both hang off the fx lifecycle.
	Start(ctx context.Context) error
	Stop() error
}

type SchedulerServiceImpl struct {
	Repo         ScheduleRepository
	Automation   AutomationTrigger
	AuditService audit.AuditService
	Logger       *zap.Logger

	runner  *cron.Cron
	entries map[string]cron.EntryID
	mu      sync.Mutex
}

func NewSchedulerService(repo ScheduleRepository, automation AutomationTrigger, auditService audit.AuditService, logger *zap.Logger) SchedulerService {
	return &SchedulerServiceImpl{
		Repo:         repo,
		Automation:   automation,
		AuditService: auditService,
		Logger:       logger,
		entries:      make(map[string]cron.EntryID),
	}
}

func (s *SchedulerServiceImpl) CreateSchedule(ctx context.Context, schedule *Schedule) error {
	if schedule.Name == "" {
		return fmt.Errorf("schedule name is required")
	}
	if schedule.TenantID.IsZero() {
		return fmt.Errorf("schedule tenant is required")
	}
	spec, err := cron.ParseStandard(schedule.CronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule.CronExpr, err)
	}

	nextRun := spec.Next(time.Now())
	schedule.NextRunAt = &nextRun

	if err := s.Repo.Create(ctx, schedule); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, schedule.TenantID, common_models.AuditActionSchedule, "schedules", schedule.ID.Hex(),
		map[string]common_models.Change{"schedule": {New: schedule.Name}})

	if schedule.Active {
		s.register(schedule)
	}
	return nil
}

func (s *SchedulerServiceImpl) GetSchedule(ctx context.Context, tenantID primitive.ObjectID, id string) (*Schedule, error) {
	return s.Repo.GetByID(ctx, tenantID, id)
}

func (s *SchedulerServiceImpl) ListSchedules(ctx context.Context, tenantID primitive.ObjectID) ([]Schedule, error) {
	return s.Repo.List(ctx, tenantID)
}

func (s *SchedulerServiceImpl) UpdateSchedule(ctx context.Context, schedule *Schedule) error {
	spec, err := cron.ParseStandard(schedule.CronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule.CronExpr, err)
	}

	old, err := s.Repo.GetByID(ctx, schedule.TenantID, schedule.ID.Hex())
	if err != nil {
		return err
	}
	if old == nil {
		return fmt.Errorf("schedule not found")
	}
	schedule.CreatedAt = old.CreatedAt
	schedule.CreatedBy = old.CreatedBy

	nextRun := spec.Next(time.Now())
	schedule.NextRunAt = &nextRun

	if err := s.Repo.Update(ctx, schedule); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, schedule.TenantID, common_models.AuditActionSchedule, "schedules", schedule.ID.Hex(),
		map[string]common_models.Change{"schedule": {Old: old.Name, New: schedule.Name}})

	s.unregister(schedule.ID.Hex())
	if schedule.Active {
		s.register(schedule)
	}
	return nil
}

func (s *SchedulerServiceImpl) DeleteSchedule(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	old, _ := s.Repo.GetByID(ctx, tenantID, id)

	s.unregister(id)
	err := s.Repo.Delete(ctx, tenantID, id)
	if err == nil && old != nil {
		_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionDelete, "schedules", id,
			map[string]common_models.Change{"schedule": {Old: old.Name, New: "DELETED"}})
	}
	return err
}

func (s *SchedulerServiceImpl) RunNow(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	schedule, err := s.Repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if schedule == nil {
		return fmt.Errorf("schedule not found")
	}
	s.fire(ctx, schedule)
	return nil
}

func (s *SchedulerServiceImpl) Start(ctx context.Context) error {
	s.mu.Lock()
	s.runner = cron.New()
	s.mu.Unlock()

	schedules, err := s.Repo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active schedules: %w", err)
	}
	for i := range schedules {
		s.register(&schedules[i])
	}

	s.runner.Start()
	s.Logger.Info("scheduler started", zap.Int("schedules", len(schedules)))
	return nil
}

func (s *SchedulerServiceImpl) Stop() error {
	s.mu.Lock()
	runner := s.runner
	s.mu.Unlock()
	if runner != nil {
		<-runner.Stop().Done()
	}
	return nil
}

// fire builds the scheduled event envelope and hands it to the engine.
// There is no acting user; the clock is the actor.
func (s *SchedulerServiceImpl) fire(ctx context.Context, schedule *Schedule) {
	payload := make(map[string]interface{}, len(schedule.Payload)+2)
	for k, v := range schedule.Payload {
		payload[k] = v
	}
	payload["schedule_id"] = schedule.ID.Hex()
	payload["schedule_name"] = schedule.Name

	s.Automation.ProcessTrigger(ctx, common_models.NewEvent(
		schedule.TenantID, common_models.TriggerScheduled,
		"schedule", schedule.ID.Hex(), payload, nil))
}

func (s *SchedulerServiceImpl) register(schedule *Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runner == nil {
		return
	}

	id := schedule.ID.Hex()
	entryID, err := s.runner.AddFunc(schedule.CronExpr, func() {
		ctx := context.Background()

		// Reload so pauses and edits made after registration are honored.
		current, err := s.Repo.GetByID(ctx, schedule.TenantID, id)
		if err != nil || current == nil || !current.Active {
			return
		}

		s.fire(ctx, current)

		var nextRun *time.Time
		if spec, err := cron.ParseStandard(current.CronExpr); err == nil {
			n := spec.Next(time.Now())
			nextRun = &n
		}
		if err := s.Repo.UpdateRunTimes(ctx, current.ID, time.Now(), nextRun); err != nil {
			s.Logger.Warn("failed to record schedule run", zap.String("schedule_id", id), zap.Error(err))
		}
	})
	if err != nil {
		s.Logger.Error("failed to register schedule", zap.String("schedule_id", id), zap.Error(err))
		return
	}
	s.entries[id] = entryID
}

func (s *SchedulerServiceImpl) unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.entries[id]; ok && s.runner != nil {
		s.runner.Remove(entryID)
		delete(s.entries, id)
	}
}
