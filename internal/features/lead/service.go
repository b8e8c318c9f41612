package lead

import (
	"context"
	"fmt"

	common_models "flowcrm/internal/common/models"
	"flowcrm/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Internal interfaces to break circular dependencies. Implemented by
// the automation engine and the client feature, wired in cmd/api.
type AutomationTrigger interface {
	ProcessTrigger(ctx context.Context, event common_models.EventEnvelope)
}

// ClientSpec carries the lead fields the client feature needs to open
// a client record during conversion.
type ClientSpec struct {
	Name    string
	Email   string
	Phone   string
	Company string
	LeadID  string
}

type ClientCreator interface {
	CreateFromLead(ctx context.Context, tenantID primitive.ObjectID, spec ClientSpec) (string, error)
}

type LeadService interface {
	CreateLead(ctx context.Context, lead *Lead, actingUser *primitive.ObjectID) error
	GetLead(ctx context.Context, tenantID primitive.ObjectID, id string) (*Lead, error)
	ListLeads(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Lead, int64, error)
	UpdateLead(ctx context.Context, lead *Lead) error
	UpdateStatus(ctx context.Context, tenantID primitive.ObjectID, id string, status LeadStatus, actingUser *primitive.ObjectID) error
	UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error
	DeleteLead(ctx context.Context, tenantID primitive.ObjectID, id string) error
	ConvertToClient(ctx context.Context, tenantID primitive.ObjectID, leadID string, actingUser *primitive.ObjectID) (string, error)
	// ImportLead creates a lead from an external row, keyed by lead
	// field names. Used by data source imports; fires lead_created like
	// any other creation, with no acting user.
	ImportLead(ctx context.Context, tenantID primitive.ObjectID, fields map[string]interface{}) error
}

type LeadServiceImpl struct {
	Repo         LeadRepository
	Clients      ClientCreator
	Automation   AutomationTrigger
	AuditService audit.AuditService
}

func NewLeadService(repo LeadRepository, clients ClientCreator, automation AutomationTrigger, auditService audit.AuditService) LeadService {
	return &LeadServiceImpl{
		Repo:         repo,
		Clients:      clients,
		Automation:   automation,
		AuditService: auditService,
	}
}

// emit hands the event to the automation engine off the request path.
// The engine owns all failure handling.
func (s *LeadServiceImpl) emit(event common_models.EventEnvelope) {
	go s.Automation.ProcessTrigger(context.Background(), event)
}

func (s *LeadServiceImpl) CreateLead(ctx context.Context, lead *Lead, actingUser *primitive.ObjectID) error {
	if lead.Name == "" {
		return fmt.Errorf("lead name is required")
	}
	if lead.TenantID.IsZero() {
		return fmt.Errorf("lead tenant is required")
	}

	if err := s.Repo.Create(ctx, lead); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, lead.TenantID, common_models.AuditActionCreate, "leads", lead.ID.Hex(),
		map[string]common_models.Change{"lead": {New: lead}})

	s.emit(common_models.NewEvent(lead.TenantID, common_models.TriggerLeadCreated,
		"lead", lead.ID.Hex(), lead.EventPayload(), actingUser))
	return nil
}

func (s *LeadServiceImpl) GetLead(ctx context.Context, tenantID primitive.ObjectID, id string) (*Lead, error) {
	return s.Repo.GetByID(ctx, tenantID, id)
}

func (s *LeadServiceImpl) ListLeads(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Lead, int64, error) {
	return s.Repo.List(ctx, tenantID, filters, page, limit)
}

func (s *LeadServiceImpl) UpdateLead(ctx context.Context, lead *Lead) error {
	old, err := s.Repo.GetByID(ctx, lead.TenantID, lead.ID.Hex())
	if err != nil {
		return err
	}
	if old == nil {
		return fmt.Errorf("lead not found")
	}

	// Conversion linkage and creation time are immutable.
	lead.ClientID = old.ClientID
	lead.CreatedAt = old.CreatedAt

	if err := s.Repo.Update(ctx, lead); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, lead.TenantID, common_models.AuditActionUpdate, "leads", lead.ID.Hex(),
		map[string]common_models.Change{"lead": {Old: old, New: lead}})
	return nil
}

// UpdateStatus records a status transition and fires
// lead_status_changed carrying both sides of the transition.
func (s *LeadServiceImpl) UpdateStatus(ctx context.Context, tenantID primitive.ObjectID, id string, status LeadStatus, actingUser *primitive.ObjectID) error {
	lead, err := s.Repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if lead == nil {
		return fmt.Errorf("lead not found")
	}
	if lead.Status == status {
		return nil
	}

	oldStatus := lead.Status
	if err := s.Repo.UpdateFields(ctx, tenantID, id, map[string]interface{}{"status": status}); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionUpdate, "leads", id,
		map[string]common_models.Change{"status": {Old: oldStatus, New: status}})

	lead.Status = status
	payload := lead.EventPayload()
	payload["old_status"] = string(oldStatus)
	payload["new_status"] = string(status)

	s.emit(common_models.NewEvent(tenantID, common_models.TriggerLeadStatusChanged,
		"lead", id, payload, actingUser))
	return nil
}

func (s *LeadServiceImpl) UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error {
	return s.Repo.UpdateFields(ctx, tenantID, id, fields)
}

func (s *LeadServiceImpl) DeleteLead(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	old, _ := s.Repo.GetByID(ctx, tenantID, id)

	if err := s.Repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionDelete, "leads", id,
		map[string]common_models.Change{"lead": {Old: old, New: "DELETED"}})
	return nil
}

func (s *LeadServiceImpl) ImportLead(ctx context.Context, tenantID primitive.ObjectID, fields map[string]interface{}) error {
	str := func(key string) string {
		if v, ok := fields[key]; ok && v != nil {
			return fmt.Sprintf("%v", v)
		}
		return ""
	}

	lead := &Lead{
		TenantID: tenantID,
		Name:     str("name"),
		Email:    str("email"),
		Phone:    str("phone"),
		Company:  str("company"),
		Source:   str("source"),
		Notes:    str("notes"),
	}
	if lead.Source == "" {
		lead.Source = "import"
	}
	return s.CreateLead(ctx, lead, nil)
}

// ConvertToClient opens a client record from the lead and links it.
// Converting an already converted lead returns the existing client id
// without side effects; a concurrent double conversion is resolved by
// the conditional link in the repository.
func (s *LeadServiceImpl) ConvertToClient(ctx context.Context, tenantID primitive.ObjectID, leadID string, actingUser *primitive.ObjectID) (string, error) {
	lead, err := s.Repo.GetByID(ctx, tenantID, leadID)
	if err != nil {
		return "", err
	}
	if lead == nil {
		return "", fmt.Errorf("lead not found")
	}
	if lead.ClientID != nil {
		return lead.ClientID.Hex(), nil
	}

	clientID, err := s.Clients.CreateFromLead(ctx, tenantID, ClientSpec{
		Name:    lead.Name,
		Email:   lead.Email,
		Phone:   lead.Phone,
		Company: lead.Company,
		LeadID:  lead.ID.Hex(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create client from lead: %w", err)
	}

	clientOID, err := primitive.ObjectIDFromHex(clientID)
	if err != nil {
		return "", fmt.Errorf("client feature returned invalid id %q", clientID)
	}

	linked, err := s.Repo.LinkClient(ctx, tenantID, leadID, clientOID)
	if err != nil {
		return "", err
	}
	if !linked {
		// Lost the race: another conversion linked first. Report the
		// winner's client.
		current, err := s.Repo.GetByID(ctx, tenantID, leadID)
		if err != nil {
			return "", err
		}
		if current != nil && current.ClientID != nil {
			return current.ClientID.Hex(), nil
		}
		return "", fmt.Errorf("failed to link client to lead")
	}

	_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionConvert, "leads", leadID,
		map[string]common_models.Change{
			"status":    {Old: lead.Status, New: LeadStatusConverted},
			"client_id": {New: clientID},
		})

	payload := lead.EventPayload()
	payload["status"] = string(LeadStatusConverted)
	payload["client_id"] = clientID

	s.emit(common_models.NewEvent(tenantID, common_models.TriggerLeadConverted,
		"lead", leadID, payload, actingUser))
	return clientID, nil
}
