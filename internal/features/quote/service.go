package quote

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

type QuoteService interface {
	CreateQuote(ctx context.Context, quote *Quote) error
	GetQuote(ctx context.Context, tenantID primitive.ObjectID, id string) (*Quote, error)
	ListQuotes(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Quote, int64, error)
	UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error
	// SendQuote marks a draft as sent and fires quote_sent.
	SendQuote(ctx context.Context, tenantID primitive.ObjectID, id string, actingUser *primitive.ObjectID) error
	// AcceptQuote marks a sent quote accepted and fires quote_accepted.
	AcceptQuote(ctx context.Context, tenantID primitive.ObjectID, id string, actingUser *primitive.ObjectID) error
	// MarkPaid records payment and fires payment_received. Payments
	// arrive from a gateway callback, so there is no acting user.
	MarkPaid(ctx context.Context, tenantID primitive.ObjectID, id string) error
	DeleteQuote(ctx context.Context, tenantID primitive.ObjectID, id string) error
}

type QuoteServiceImpl struct {
	Repo         QuoteRepository
	Automation   AutomationTrigger
	AuditService audit.AuditService
}

func NewQuoteService(repo QuoteRepository, automation AutomationTrigger, auditService audit.AuditService) QuoteService {
	return &QuoteServiceImpl{
		Repo:         repo,
		Automation:   automation,
		AuditService: auditService,
	}
}

func (s *QuoteServiceImpl) emit(event common_models.EventEnvelope) {
	go s.Automation.ProcessTrigger(context.Background(), event)
}

func (s *QuoteServiceImpl) CreateQuote(ctx context.Context, quote *Quote) error {
	if quote.Title == "" {
		return fmt.Errorf("quote title is required")
	}
	if quote.TenantID.IsZero() {
		return fmt.Errorf("quote tenant is required")
	}
	if quote.Amount == 0 && len(quote.Items) > 0 {
		for _, item := range quote.Items {
			quote.Amount += float64(item.Quantity) * item.UnitPrice
		}
	}

	if err := s.Repo.Create(ctx, quote); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, quote.TenantID, common_models.AuditActionCreate, "quotes", quote.ID.Hex(),
		map[string]common_models.Change{"quote": {New: quote}})
	return nil
}

func (s *QuoteServiceImpl) GetQuote(ctx context.Context, tenantID primitive.ObjectID, id string) (*Quote, error) {
	return s.Repo.GetByID(ctx, tenantID, id)
}

func (s *QuoteServiceImpl) ListQuotes(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]Quote, int64, error) {
	return s.Repo.List(ctx, tenantID, filters, page, limit)
}

func (s *QuoteServiceImpl) UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error {
	return s.Repo.UpdateFields(ctx, tenantID, id, fields)
}

// transition moves a quote between lifecycle states, guarding the
// allowed source states, and returns the refreshed quote.
func (s *QuoteServiceImpl) transition(ctx context.Context, tenantID primitive.ObjectID, id string, from []QuoteStatus, to QuoteStatus, stampField string) (*Quote, error) {
	quote, err := s.Repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, fmt.Errorf("quote not found")
	}

	allowed := false
	for _, f := range from {
		if quote.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("cannot move quote from %s to %s", quote.Status, to)
	}

	now := time.Now()
	if err := s.Repo.UpdateFields(ctx, tenantID, id, map[string]interface{}{
		"status":   to,
		stampField: now,
	}); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionUpdate, "quotes", id,
		map[string]common_models.Change{"status": {Old: quote.Status, New: to}})

	quote.Status = to
	return quote, nil
}

func (s *QuoteServiceImpl) SendQuote(ctx context.Context, tenantID primitive.ObjectID, id string, actingUser *primitive.ObjectID) error {
	quote, err := s.transition(ctx, tenantID, id, []QuoteStatus{QuoteStatusDraft}, QuoteStatusSent, "sent_at")
	if err != nil {
		return err
	}

	s.emit(common_models.NewEvent(tenantID, common_models.TriggerQuoteSent,
		"quote", id, quote.EventPayload(), actingUser))
	return nil
}

func (s *QuoteServiceImpl) AcceptQuote(ctx context.Context, tenantID primitive.ObjectID, id string, actingUser *primitive.ObjectID) error {
	quote, err := s.transition(ctx, tenantID, id, []QuoteStatus{QuoteStatusSent}, QuoteStatusAccepted, "accepted_at")
	if err != nil {
		return err
	}

	s.emit(common_models.NewEvent(tenantID, common_models.TriggerQuoteAccepted,
		"quote", id, quote.EventPayload(), actingUser))
	return nil
}

func (s *QuoteServiceImpl) MarkPaid(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	quote, err := s.transition(ctx, tenantID, id, []QuoteStatus{QuoteStatusSent, QuoteStatusAccepted}, QuoteStatusPaid, "paid_at")
	if err != nil {
		return err
	}

	s.emit(common_models.NewEvent(tenantID, common_models.TriggerPaymentReceived,
		"quote", id, quote.EventPayload(), nil))
	return nil
}

func (s *QuoteServiceImpl) DeleteQuote(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	old, _ := s.Repo.GetByID(ctx, tenantID, id)

	if err := s.Repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionDelete, "quotes", id,
		map[string]common_models.Change{"quote": {Old: old, New: "DELETED"}})
	return nil
}
