package automation

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	common_models "flowcrm/internal/common/models"
	"flowcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeRuleService struct {
	created *AutomationRule
}

func (f *fakeRuleService) CreateRule(ctx context.Context, rule *AutomationRule) error {
	f.created = rule
	return nil
}
func (f *fakeRuleService) GetRule(ctx context.Context, tenantID primitive.ObjectID, id string) (*AutomationRule, error) {
	return nil, nil
}
func (f *fakeRuleService) ListRules(ctx context.Context, tenantID primitive.ObjectID) ([]AutomationRule, error) {
	return nil, nil
}
func (f *fakeRuleService) UpdateRule(ctx context.Context, rule *AutomationRule) error { return nil }
func (f *fakeRuleService) DeleteRule(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	return nil
}
func (f *fakeRuleService) SetActive(ctx context.Context, tenantID primitive.ObjectID, id string, active bool) error {
	return nil
}
func (f *fakeRuleService) ListLogs(ctx context.Context, tenantID primitive.ObjectID, automationID string, limit int64) ([]ExecutionLog, error) {
	return nil, nil
}
func (f *fakeRuleService) ProcessTrigger(ctx context.Context, event common_models.EventEnvelope) {}
func (f *fakeRuleService) RunManual(ctx context.Context, tenantID primitive.ObjectID, automationID string, testPayload map[string]interface{}) (*ExecutionLog, error) {
	return nil, nil
}

func newCreateRuleApp(svc AutomationService) *fiber.App {
	app := fiber.New()
	ctrl := NewAutomationController(svc)
	app.Post("/api/automation/rules", middleware.AuthMiddleware(true), ctrl.CreateRule)
	return app
}

func postRule(t *testing.T, app *fiber.App, body string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/automation/rules", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestCreateRuleDefaultsToActive(t *testing.T) {
	svc := &fakeRuleService{}
	app := newCreateRuleApp(svc)

	status := postRule(t, app, `{
		"name": "welcome email",
		"trigger_type": "lead_created",
		"actions": [{"kind": "send_email", "params": {"to": "{{email}}"}}]
	}`)
	if status != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", status)
	}
	if svc.created == nil {
		t.Fatal("rule never reached the service")
	}
	if !svc.created.Active {
		t.Error("rule without an active flag must default to active")
	}
}

func TestCreateRuleHonorsExplicitInactive(t *testing.T) {
	svc := &fakeRuleService{}
	app := newCreateRuleApp(svc)

	status := postRule(t, app, `{
		"name": "draft rule",
		"trigger_type": "lead_created",
		"active": false,
		"actions": [{"kind": "send_email", "params": {"to": "{{email}}"}}]
	}`)
	if status != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", status)
	}
	if svc.created == nil {
		t.Fatal("rule never reached the service")
	}
	if svc.created.Active {
		t.Error("explicit active:false was overridden")
	}
	if svc.created.Name != "draft rule" {
		t.Errorf("rule name = %q", svc.created.Name)
	}
}
