package task

import (
	"context"
	"fmt"
	"time"

	common_models "flowcrm/internal/common/models"
	"flowcrm/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AutomationTrigger interface {
	ProcessTrigger(ctx context.Context, event common_models.EventEnvelope)
}

// AutomationSpec is what the engine's create_task action supplies.
type AutomationSpec struct {
	Subject     string
	Description string
	AssignedTo  string
	DueDate     time.Time
}

type TaskService interface {
	CreateTask(ctx context.Context, task *Task, actingUser *primitive.ObjectID) error
	// CreateFromAutomation opens a task on behalf of an automation
	// rule. It does not re-enter the trigger pipeline: rules reacting
	// to task_created cannot cascade off their own output.
	CreateFromAutomation(ctx context.Context, tenantID primitive.ObjectID, spec AutomationSpec) error
	GetTask(ctx context.Context, tenantID primitive.ObjectID, id string) (*Task, error)
	ListTasks(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Task, int64, error)
	UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error
	CompleteTask(ctx context.Context, tenantID primitive.ObjectID, id string, actingUser *primitive.ObjectID) error
	DeleteTask(ctx context.Context, tenantID primitive.ObjectID, id string) error
}

type TaskServiceImpl struct {
	Repo         TaskRepository
	Automation   AutomationTrigger
	AuditService audit.AuditService
}

func NewTaskService(repo TaskRepository, automation AutomationTrigger, auditService audit.AuditService) TaskService {
	return &TaskServiceImpl{
		Repo:         repo,
		Automation:   automation,
		AuditService: auditService,
	}
}

func (s *TaskServiceImpl) emit(event common_models.EventEnvelope) {
	go s.Automation.ProcessTrigger(context.Background(), event)
}

func (s *TaskServiceImpl) CreateTask(ctx context.Context, task *Task, actingUser *primitive.ObjectID) error {
	if task.Subject == "" {
		return fmt.Errorf("task subject is required")
	}
	if task.TenantID.IsZero() {
		return fmt.Errorf("task tenant is required")
	}
	task.Origin = TaskOriginManual

	if err := s.Repo.Create(ctx, task); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, task.TenantID, common_models.AuditActionCreate, "tasks", task.ID.Hex(),
		map[string]common_models.Change{"task": {New: task}})

	s.emit(common_models.NewEvent(task.TenantID, common_models.TriggerTaskCreated,
		"task", task.ID.Hex(), task.EventPayload(), actingUser))
	return nil
}

func (s *TaskServiceImpl) CreateFromAutomation(ctx context.Context, tenantID primitive.ObjectID, spec AutomationSpec) error {
	if spec.Subject == "" {
		return fmt.Errorf("task subject is required")
	}

	task := &Task{
		TenantID:    tenantID,
		Subject:     spec.Subject,
		Description: spec.Description,
		Origin:      TaskOriginAutomation,
	}
	if spec.AssignedTo != "" {
		oid, err := primitive.ObjectIDFromHex(spec.AssignedTo)
		if err != nil {
			return fmt.Errorf("invalid assignee %q", spec.AssignedTo)
		}
		task.AssignedTo = &oid
	}
	if !spec.DueDate.IsZero() {
		due := spec.DueDate
		task.DueDate = &due
	}

	if err := s.Repo.Create(ctx, task); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionAutomation, "tasks", task.ID.Hex(),
		map[string]common_models.Change{"task": {New: task}})
	return nil
}

func (s *TaskServiceImpl) GetTask(ctx context.Context, tenantID primitive.ObjectID, id string) (*Task, error) {
	return s.Repo.GetByID(ctx, tenantID, id)
}

func (s *TaskServiceImpl) ListTasks(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Task, int64, error) {
	return s.Repo.List(ctx, tenantID, filters, page, limit)
}

func (s *TaskServiceImpl) UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error {
	return s.Repo.UpdateFields(ctx, tenantID, id, fields)
}

// CompleteTask closes the task and fires task_completed.
func (s *TaskServiceImpl) CompleteTask(ctx context.Context, tenantID primitive.ObjectID, id string, actingUser *primitive.ObjectID) error {
	task, err := s.Repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("task not found")
	}
	if task.Status == TaskStatusCompleted {
		return nil
	}

	now := time.Now()
	if err := s.Repo.UpdateFields(ctx, tenantID, id, map[string]interface{}{
		"status":       TaskStatusCompleted,
		"completed_at": now,
	}); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionUpdate, "tasks", id,
		map[string]common_models.Change{"status": {Old: task.Status, New: TaskStatusCompleted}})

	task.Status = TaskStatusCompleted
	task.CompletedAt = &now
	s.emit(common_models.NewEvent(tenantID, common_models.TriggerTaskCompleted,
		"task", id, task.EventPayload(), actingUser))
	return nil
}

func (s *TaskServiceImpl) DeleteTask(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	old, _ := s.Repo.GetByID(ctx, tenantID, id)

	if err := s.Repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionDelete, "tasks", id,
		map[string]common_models.Change{"task": {Old: old, New: "DELETED"}})
	return nil
}
