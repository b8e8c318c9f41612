package client

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

type ClientService interface {
	CreateClient(ctx context.Context, client *Client, actingUser *primitive.ObjectID) error
	// CreateFromLead opens a client account during lead conversion. If
	// the lead already has a client (a retried conversion), the
	// existing account is returned.
	CreateFromLead(ctx context.Context, tenantID primitive.ObjectID, name, email, phone, company, leadID string) (string, error)
	GetClient(ctx context.Context, tenantID primitive.ObjectID, id string) (*Client, error)
	ListClients(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Client, int64, error)
	UpdateClient(ctx context.Context, client *Client) error
	UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error
	DeleteClient(ctx context.Context, tenantID primitive.ObjectID, id string) error
}

type ClientServiceImpl struct {
	Repo         ClientRepository
	Automation   AutomationTrigger
	AuditService audit.AuditService
}

func NewClientService(repo ClientRepository, automation AutomationTrigger, auditService audit.AuditService) ClientService {
	return &ClientServiceImpl{
		Repo:         repo,
		Automation:   automation,
		AuditService: auditService,
	}
}

func (s *ClientServiceImpl) emit(event common_models.EventEnvelope) {
	go s.Automation.ProcessTrigger(context.Background(), event)
}

func (s *ClientServiceImpl) CreateClient(ctx context.Context, client *Client, actingUser *primitive.ObjectID) error {
	if client.Name == "" {
		return fmt.Errorf("client name is required")
	}
	if client.TenantID.IsZero() {
		return fmt.Errorf("client tenant is required")
	}

	if err := s.Repo.Create(ctx, client); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, client.TenantID, common_models.AuditActionCreate, "clients", client.ID.Hex(),
		map[string]common_models.Change{"client": {New: client}})

	s.emit(common_models.NewEvent(client.TenantID, common_models.TriggerClientCreated,
		"client", client.ID.Hex(), client.EventPayload(), actingUser))
	return nil
}

func (s *ClientServiceImpl) CreateFromLead(ctx context.Context, tenantID primitive.ObjectID, name, email, phone, company, leadID string) (string, error) {
	leadOID, err := primitive.ObjectIDFromHex(leadID)
	if err != nil {
		return "", fmt.Errorf("invalid lead id %q", leadID)
	}

	if existing, err := s.Repo.GetByLead(ctx, tenantID, leadOID); err != nil {
		return "", err
	} else if existing != nil {
		return existing.ID.Hex(), nil
	}

	client := &Client{
		TenantID: tenantID,
		Name:     name,
		Email:    email,
		Phone:    phone,
		Company:  company,
		LeadID:   &leadOID,
	}
	if err := s.CreateClient(ctx, client, nil); err != nil {
		return "", err
	}
	return client.ID.Hex(), nil
}

func (s *ClientServiceImpl) GetClient(ctx context.Context, tenantID primitive.ObjectID, id string) (*Client, error) {
	return s.Repo.GetByID(ctx, tenantID, id)
}

func (s *ClientServiceImpl) ListClients(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Client, int64, error) {
	return s.Repo.List(ctx, tenantID, filters, page, limit)
}

func (s *ClientServiceImpl) UpdateClient(ctx context.Context, client *Client) error {
	old, err := s.Repo.GetByID(ctx, client.TenantID, client.ID.Hex())
	if err != nil {
		return err
	}
	if old == nil {
		return fmt.Errorf("client not found")
	}

	client.LeadID = old.LeadID
	client.CreatedAt = old.CreatedAt

	if err := s.Repo.Update(ctx, client); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, client.TenantID, common_models.AuditActionUpdate, "clients", client.ID.Hex(),
		map[string]common_models.Change{"client": {Old: old, New: client}})
	return nil
}

func (s *ClientServiceImpl) UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error {
	return s.Repo.UpdateFields(ctx, tenantID, id, fields)
}

func (s *ClientServiceImpl) DeleteClient(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	old, _ := s.Repo.GetByID(ctx, tenantID, id)

	if err := s.Repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionDelete, "clients", id,
		map[string]common_models.Change{"client": {Old: old, New: "DELETED"}})
	return nil
}
