package automation

import (
	"context"
	"fmt"

	common_models "flowcrm/internal/common/models"
	"flowcrm/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AutomationService interface {
	CreateRule(ctx context.Context, rule *AutomationRule) error
	GetRule(ctx context.Context, tenantID primitive.ObjectID, id string) (*AutomationRule, error)
	ListRules(ctx context.Context, tenantID primitive.ObjectID) ([]AutomationRule, error)
	UpdateRule(ctx context.Context, rule *AutomationRule) error
	DeleteRule(ctx context.Context, tenantID primitive.ObjectID, id string) error
	SetActive(ctx context.Context, tenantID primitive.ObjectID, id string, active bool) error
	ListLogs(ctx context.Context, tenantID primitive.ObjectID, automationID string, limit int64) ([]ExecutionLog, error)

	// Core logic
	ProcessTrigger(ctx context.Context, event common_models.EventEnvelope)
	RunManual(ctx context.Context, tenantID primitive.ObjectID, automationID string, testPayload map[string]interface{}) (*ExecutionLog, error)
}

type AutomationServiceImpl struct {
	Repo         AutomationRepository
	LogRepo      ExecutionLogRepository
	Engine       *Engine
	AuditService audit.AuditService
}

func NewAutomationService(repo AutomationRepository, logRepo ExecutionLogRepository, engine *Engine, auditService audit.AuditService) AutomationService {
	return &AutomationServiceImpl{
		Repo:         repo,
		LogRepo:      logRepo,
		Engine:       engine,
		AuditService: auditService,
	}
}

func (s *AutomationServiceImpl) CreateRule(ctx context.Context, rule *AutomationRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}

	err := s.Repo.Create(ctx, rule)
	if err == nil {
		s.AuditService.LogChange(ctx, rule.TenantID, common_models.AuditActionAutomation, "automation", rule.ID.Hex(), map[string]common_models.Change{
			"rule": {New: rule},
		})
	}
	return err
}

func (s *AutomationServiceImpl) GetRule(ctx context.Context, tenantID primitive.ObjectID, id string) (*AutomationRule, error) {
	return s.Repo.GetByID(ctx, tenantID, id)
}

func (s *AutomationServiceImpl) ListRules(ctx context.Context, tenantID primitive.ObjectID) ([]AutomationRule, error) {
	return s.Repo.List(ctx, tenantID)
}

func (s *AutomationServiceImpl) UpdateRule(ctx context.Context, rule *AutomationRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}

	oldRule, _ := s.Repo.GetByID(ctx, rule.TenantID, rule.ID.Hex())

	err := s.Repo.Update(ctx, rule)
	if err == nil {
		s.AuditService.LogChange(ctx, rule.TenantID, common_models.AuditActionAutomation, "automation", rule.ID.Hex(), map[string]common_models.Change{
			"rule": {Old: oldRule, New: rule},
		})
	}
	return err
}

func (s *AutomationServiceImpl) DeleteRule(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	oldRule, _ := s.Repo.GetByID(ctx, tenantID, id)

	err := s.Repo.Delete(ctx, tenantID, id)
	if err == nil {
		name := id
		if oldRule != nil {
			name = oldRule.Name
		}
		s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionAutomation, "automation", name, map[string]common_models.Change{
			"rule": {Old: oldRule, New: "DELETED"},
		})
	}
	return err
}

func (s *AutomationServiceImpl) SetActive(ctx context.Context, tenantID primitive.ObjectID, id string, active bool) error {
	return s.Repo.SetActive(ctx, tenantID, id, active)
}

func (s *AutomationServiceImpl) ListLogs(ctx context.Context, tenantID primitive.ObjectID, automationID string, limit int64) ([]ExecutionLog, error) {
	if automationID != "" {
		return s.LogRepo.List(ctx, tenantID, automationID, limit)
	}
	return s.LogRepo.ListAll(ctx, tenantID, limit)
}

func (s *AutomationServiceImpl) ProcessTrigger(ctx context.Context, event common_models.EventEnvelope) {
	s.Engine.ProcessTrigger(ctx, event)
}

func (s *AutomationServiceImpl) RunManual(ctx context.Context, tenantID primitive.ObjectID, automationID string, testPayload map[string]interface{}) (*ExecutionLog, error) {
	return s.Engine.RunManual(ctx, tenantID, automationID, testPayload)
}

func validateRule(rule *AutomationRule) error {
	if rule.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if rule.TriggerType == "" {
		return fmt.Errorf("trigger type is required")
	}
	if len(rule.Actions) == 0 {
		return fmt.Errorf("rule must declare at least one action")
	}
	if rule.TenantID.IsZero() {
		return fmt.Errorf("rule must belong to a tenant")
	}
	return nil
}
