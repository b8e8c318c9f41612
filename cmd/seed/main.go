package main

import (
	"context"
	"time"

	"flowcrm/internal/config"
	"flowcrm/internal/database"
	"flowcrm/internal/features/automation"
	"flowcrm/internal/features/lead"
	"flowcrm/internal/features/user"
	"flowcrm/internal/features/webhook"
	"flowcrm/internal/logger"
	"flowcrm/pkg/condition"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Seed populates a demo workspace: an admin user, a handful of leads
// and two automation rules, so a fresh install has something to click
// through.
func Seed(
	lc fx.Lifecycle,
	tenantRepo user.TenantRepository,
	userRepo user.UserRepository,
	leadRepo lead.LeadRepository,
	ruleRepo automation.AutomationRepository,
	webhookRepo webhook.WebhookRepository,
	logger *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("failed to shutdown", zap.Error(err))
					}
				}()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				logger.Info("seeding demo workspace")

				adminID := primitive.NewObjectID()
				tenant := &user.Tenant{Name: "Demo Workspace", OwnerID: adminID}
				if err := tenantRepo.Create(ctx, tenant); err != nil {
					logger.Error("failed to create tenant", zap.Error(err))
					return
				}

				hash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
				admin := &user.User{
					ID:           adminID,
					TenantID:     tenant.ID,
					Name:         "Demo Admin",
					Email:        "admin@demo.local",
					PasswordHash: string(hash),
					Roles:        []string{"admin"},
					Status:       user.UserStatusActive,
				}
				if err := userRepo.Create(ctx, admin); err != nil {
					logger.Error("failed to create admin user", zap.Error(err))
					return
				}

				leads := []lead.Lead{
					{TenantID: tenant.ID, Name: "Ayla Kent", Email: "ayla@northwind.example", Company: "Northwind", Source: "website", Status: lead.LeadStatusNew},
					{TenantID: tenant.ID, Name: "Jon Brandt", Email: "jon@initech.example", Company: "Initech", Source: "referral", Status: lead.LeadStatusContacted},
					{TenantID: tenant.ID, Name: "Mira Solis", Email: "mira@globex.example", Company: "Globex", Source: "import", Status: lead.LeadStatusQualified},
				}
				for i := range leads {
					if err := leadRepo.Create(ctx, &leads[i]); err != nil {
						logger.Warn("failed to seed lead", zap.String("name", leads[i].Name), zap.Error(err))
					}
				}

				rules := []automation.AutomationRule{
					{
						TenantID:    tenant.ID,
						Name:        "Welcome new website leads",
						TriggerType: "lead_created",
						Conditions: []condition.Condition{
							{Field: "source", Operator: condition.OperatorEquals, Value: "website"},
						},
						Actions: []automation.RuleAction{
							{Kind: automation.ActionSendEmail, Params: map[string]interface{}{
								"to":      "{{email}}",
								"subject": "Welcome, {{name}}",
								"body":    "Thanks for reaching out. We'll be in touch shortly.",
							}},
							{Kind: automation.ActionCreateTask, Params: map[string]interface{}{
								"subject":     "Follow up with {{name}}",
								"due_in_days": float64(2),
							}},
						},
						Active: true,
					},
					{
						TenantID:    tenant.ID,
						Name:        "Notify on conversion",
						TriggerType: "lead_converted",
						Actions: []automation.RuleAction{
							{Kind: automation.ActionSendNotification, Params: map[string]interface{}{
								"title":   "Lead converted",
								"message": "{{name}} is now a client.",
							}},
						},
						Active: true,
					},
				}
				for i := range rules {
					if err := ruleRepo.Create(ctx, &rules[i]); err != nil {
						logger.Warn("failed to seed rule", zap.String("name", rules[i].Name), zap.Error(err))
					}
				}

				hook := &webhook.Webhook{
					TenantID:    tenant.ID,
					URL:         "https://webhook.site/demo",
					Events:      []string{"lead_created", "lead_converted"},
					Secret:      "demo-secret",
					Description: "Demo event sink",
					IsActive:    false,
					CreatedBy:   adminID,
				}
				if err := webhookRepo.Create(ctx, hook); err != nil {
					logger.Warn("failed to seed webhook", zap.Error(err))
				}

				logger.Info("seeding complete",
					zap.String("tenant_id", tenant.ID.Hex()),
					zap.String("admin", admin.Email))
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			user.NewTenantRepository,
			user.NewUserRepository,
			lead.NewLeadRepository,
			automation.NewAutomationRepository,
			webhook.NewWebhookRepository,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}
