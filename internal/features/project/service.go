package project

import (
	"context"
	"fmt"

	common_models "flowcrm/internal/common/models"
	"flowcrm/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AutomationTrigger interface {
	ProcessTrigger(ctx context.Context, event common_models.EventEnvelope)
}

type ProjectService interface {
	CreateProject(ctx context.Context, project *Project, actingUser *primitive.ObjectID) error
	GetProject(ctx context.Context, tenantID primitive.ObjectID, id string) (*Project, error)
	ListProjects(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Project, int64, error)
	UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error
	DeleteProject(ctx context.Context, tenantID primitive.ObjectID, id string) error
}

type ProjectServiceImpl struct {
	Repo         ProjectRepository
	Automation   AutomationTrigger
	AuditService audit.AuditService
}

func NewProjectService(repo ProjectRepository, automation AutomationTrigger, auditService audit.AuditService) ProjectService {
	return &ProjectServiceImpl{
		Repo:         repo,
		Automation:   automation,
		AuditService: auditService,
	}
}

func (s *ProjectServiceImpl) CreateProject(ctx context.Context, project *Project, actingUser *primitive.ObjectID) error {
	if project.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if project.TenantID.IsZero() {
		return fmt.Errorf("project tenant is required")
	}

	if err := s.Repo.Create(ctx, project); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, project.TenantID, common_models.AuditActionCreate, "projects", project.ID.Hex(),
		map[string]common_models.Change{"project": {New: project}})

	go s.Automation.ProcessTrigger(context.Background(),
		common_models.NewEvent(project.TenantID, common_models.TriggerProjectCreated,
			"project", project.ID.Hex(), project.EventPayload(), actingUser))
	return nil
}

func (s *ProjectServiceImpl) GetProject(ctx context.Context, tenantID primitive.ObjectID, id string) (*Project, error) {
	return s.Repo.GetByID(ctx, tenantID, id)
}

func (s *ProjectServiceImpl) ListProjects(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Project, int64, error) {
	return s.Repo.List(ctx, tenantID, filters, page, limit)
}

func (s *ProjectServiceImpl) UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error {
	if err := s.Repo.UpdateFields(ctx, tenantID, id, fields); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionUpdate, "projects", id,
		map[string]common_models.Change{"project": {New: fields}})
	return nil
}

func (s *ProjectServiceImpl) DeleteProject(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	old, _ := s.Repo.GetByID(ctx, tenantID, id)

	if err := s.Repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionDelete, "projects", id,
		map[string]common_models.Change{"project": {Old: old, New: "DELETED"}})
	return nil
}
