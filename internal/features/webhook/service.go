package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	common_models "flowcrm/internal/common/models"
	"flowcrm/internal/config"
	"flowcrm/internal/features/audit"
	"flowcrm/internal/metrics"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type WebhookService interface {
	CreateWebhook(ctx context.Context, webhook *Webhook) error
	ListWebhooks(ctx context.Context, tenantID primitive.ObjectID) ([]Webhook, error)
	GetWebhook(ctx context.Context, tenantID primitive.ObjectID, id string) (*Webhook, error)
	UpdateWebhook(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error
	DeleteWebhook(ctx context.Context, tenantID primitive.ObjectID, id string) error
	ListLogs(ctx context.Context, tenantID primitive.ObjectID, webhookID string) ([]WebhookLog, error)

	// Dispatch fans an engine event out to every matching subscription
	// of the event's tenant, delivering each on its own goroutine.
	Dispatch(ctx context.Context, event common_models.EventEnvelope)

	// Post makes a single signed request without a subscription; the
	// call_webhook action goes through here. The returned status code
	// is the last response's.
	Post(ctx context.Context, url, secret string, headers map[string]string, body []byte) (int, error)
}

type WebhookServiceImpl struct {
	Repo         WebhookRepository
	LogRepo      WebhookLogRepository
	AuditService audit.AuditService
	Logger       *zap.Logger
	HttpClient   *http.Client
	maxRetries   int
	backoff      time.Duration
}

func NewWebhookService(cfg *config.Config, repo WebhookRepository, logRepo WebhookLogRepository, auditService audit.AuditService, logger *zap.Logger) WebhookService {
	retries := cfg.WebhookMaxRetries
	if retries < 1 {
		retries = 1
	}
	return &WebhookServiceImpl{
		Repo:         repo,
		LogRepo:      logRepo,
		AuditService: auditService,
		Logger:       logger,
		HttpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries: retries,
		backoff:    time.Second,
	}
}

func (s *WebhookServiceImpl) CreateWebhook(ctx context.Context, webhook *Webhook) error {
	if webhook.URL == "" {
		return fmt.Errorf("webhook URL is required")
	}
	if webhook.TenantID.IsZero() {
		return fmt.Errorf("webhook tenant is required")
	}

	err := s.Repo.Create(ctx, webhook)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, webhook.TenantID, common_models.AuditActionWebhook, "webhooks", webhook.ID.Hex(),
			map[string]common_models.Change{"webhook": {New: webhook}})
	}
	return err
}

func (s *WebhookServiceImpl) ListWebhooks(ctx context.Context, tenantID primitive.ObjectID) ([]Webhook, error) {
	return s.Repo.List(ctx, tenantID)
}

func (s *WebhookServiceImpl) GetWebhook(ctx context.Context, tenantID primitive.ObjectID, id string) (*Webhook, error) {
	return s.Repo.Get(ctx, tenantID, id)
}

func (s *WebhookServiceImpl) UpdateWebhook(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error {
	oldWebhook, _ := s.GetWebhook(ctx, tenantID, id)

	err := s.Repo.Update(ctx, tenantID, id, updates)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionWebhook, "webhooks", id,
			map[string]common_models.Change{"webhook": {Old: oldWebhook, New: updates}})
	}
	return err
}

func (s *WebhookServiceImpl) DeleteWebhook(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	oldWebhook, _ := s.GetWebhook(ctx, tenantID, id)

	err := s.Repo.Delete(ctx, tenantID, id)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionWebhook, "webhooks", id,
			map[string]common_models.Change{"webhook": {Old: oldWebhook, New: "DELETED"}})
	}
	return err
}

func (s *WebhookServiceImpl) ListLogs(ctx context.Context, tenantID primitive.ObjectID, webhookID string) ([]WebhookLog, error) {
	return s.LogRepo.ListByWebhookID(ctx, tenantID, webhookID)
}

func (s *WebhookServiceImpl) Dispatch(ctx context.Context, event common_models.EventEnvelope) {
	webhooks, err := s.Repo.ListByEvent(ctx, event.TenantID, string(event.TriggerType))
	if err != nil {
		s.Logger.Error("failed to fetch webhooks for event",
			zap.String("event", string(event.TriggerType)),
			zap.Error(err))
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		s.Logger.Error("failed to marshal webhook payload", zap.Error(err))
		return
	}

	for _, wh := range webhooks {
		go s.deliver(wh, string(event.TriggerType), body)
	}
}

// deliver posts to one subscription with bounded retries and records
// the outcome in an append-only delivery log.
func (s *WebhookServiceImpl) deliver(wh Webhook, event string, body []byte) {
	deliveryID := uuid.NewString()
	started := time.Now()

	var status int
	var lastErr error
	attempts := 0
	for attempts < s.maxRetries {
		attempts++
		status, lastErr = s.post(context.Background(), wh.URL, wh.Secret, wh.Headers, body, event, deliveryID)
		if lastErr == nil && status >= 200 && status < 300 {
			break
		}
		// Exponential backoff between attempts: 1s, 2s, 4s...
		if attempts < s.maxRetries {
			time.Sleep(s.backoff << (attempts - 1))
		}
	}

	success := lastErr == nil && status >= 200 && status < 300
	response := ""
	if lastErr != nil {
		response = lastErr.Error()
	}

	outcome := "success"
	if !success {
		outcome = "failed"
		s.Logger.Warn("webhook delivery failed",
			zap.String("url", wh.URL),
			zap.String("event", event),
			zap.Int("attempts", attempts),
			zap.Int("status", status))
	}
	metrics.WebhookDeliveries.WithLabelValues(outcome).Inc()

	_ = s.LogRepo.Create(context.Background(), &WebhookLog{
		TenantID:   wh.TenantID,
		WebhookID:  wh.ID,
		DeliveryID: deliveryID,
		URL:        wh.URL,
		Event:      event,
		Attempts:   attempts,
		Response:   response,
		StatusCode: status,
		Success:    success,
		Duration:   time.Since(started).Milliseconds(),
	})
}

func (s *WebhookServiceImpl) Post(ctx context.Context, url, secret string, headers map[string]string, body []byte) (int, error) {
	return s.post(ctx, url, secret, headers, body, "", uuid.NewString())
}

func (s *WebhookServiceImpl) post(ctx context.Context, url, secret string, headers map[string]string, body []byte, event, deliveryID string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "FlowCRM-Webhook")
	req.Header.Set("X-CRM-Delivery", deliveryID)
	if event != "" {
		req.Header.Set("X-CRM-Event", event)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		signature := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("X-CRM-Signature", "sha256="+signature)
	}

	resp, err := s.HttpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.StatusCode, nil
}
