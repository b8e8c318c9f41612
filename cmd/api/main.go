package main

import (
	"context"
	"fmt"
	"log"
	"sync"

	common_api "flowcrm/internal/common/api"
	common_models "flowcrm/internal/common/models"
	"flowcrm/internal/config"
	"flowcrm/internal/database"
	"flowcrm/internal/features/audit"
	"flowcrm/internal/features/auth"
	"flowcrm/internal/features/automation"
	"flowcrm/internal/features/client"
	"flowcrm/internal/features/datasource"
	"flowcrm/internal/features/email"
	"flowcrm/internal/features/lead"
	"flowcrm/internal/features/meeting"
	"flowcrm/internal/features/notification"
	"flowcrm/internal/features/project"
	"flowcrm/internal/features/quote"
	"flowcrm/internal/features/report"
	"flowcrm/internal/features/scheduler"
	"flowcrm/internal/features/system"
	"flowcrm/internal/features/task"
	"flowcrm/internal/features/user"
	"flowcrm/internal/features/webhook"
	"flowcrm/internal/logger"
	"flowcrm/internal/middleware"
	"flowcrm/pkg/utils"

	_ "flowcrm/docs" // swagger docs

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates the Fiber app instance.
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute tags a constructor so Fx adds its result to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer starts Fiber in a goroutine and shuts it down on exit.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// eventBus hands producer events to the automation engine and the
// webhook subscriptions. It is late-bound: producer services need a
// trigger at construction time, but the engine's executor in turn
// depends on those same services, so the bus starts empty and is bound
// once in an fx.Invoke. Events raised before binding (none in
// practice, the server is not listening yet) are dropped.
type eventBus struct {
	mu       sync.RWMutex
	engine   *automation.Engine
	webhooks webhook.WebhookService
}

func newEventBus() *eventBus {
	return &eventBus{}
}

func (b *eventBus) bind(engine *automation.Engine, webhooks webhook.WebhookService) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.engine = engine
	b.webhooks = webhooks
}

func (b *eventBus) ProcessTrigger(ctx context.Context, event common_models.EventEnvelope) {
	b.mu.RLock()
	engine, webhooks := b.engine, b.webhooks
	b.mu.RUnlock()
	if engine == nil {
		return
	}
	engine.ProcessTrigger(ctx, event)
	webhooks.Dispatch(ctx, event)
}

// clientCreatorAdapter narrows the client service to what lead
// conversion needs.
type clientCreatorAdapter struct {
	clients client.ClientService
}

func (a *clientCreatorAdapter) CreateFromLead(ctx context.Context, tenantID primitive.ObjectID, spec lead.ClientSpec) (string, error) {
	return a.clients.CreateFromLead(ctx, tenantID, spec.Name, spec.Email, spec.Phone, spec.Company, spec.LeadID)
}

// taskCreatorAdapter converts the executor's task spec into the task
// feature's shape.
type taskCreatorAdapter struct {
	tasks task.TaskService
}

func (a *taskCreatorAdapter) CreateFromAutomation(ctx context.Context, tenantID primitive.ObjectID, spec automation.TaskSpec) error {
	return a.tasks.CreateFromAutomation(ctx, tenantID, task.AutomationSpec{
		Subject:     spec.Subject,
		Description: spec.Description,
		AssignedTo:  spec.AssignedTo,
		DueDate:     spec.DueDate,
	})
}

// entityStoreMux routes update_field and update_status actions to the
// service owning the event's entity type.
type entityStoreMux struct {
	leads    lead.LeadService
	clients  client.ClientService
	tasks    task.TaskService
	projects project.ProjectService
	quotes   quote.QuoteService
}

func (m *entityStoreMux) UpdateFields(ctx context.Context, tenantID primitive.ObjectID, entityType, entityID string, fields map[string]interface{}) error {
	switch entityType {
	case "lead":
		return m.leads.UpdateFields(ctx, tenantID, entityID, fields)
	case "client":
		return m.clients.UpdateFields(ctx, tenantID, entityID, fields)
	case "task":
		return m.tasks.UpdateFields(ctx, tenantID, entityID, fields)
	case "project":
		return m.projects.UpdateFields(ctx, tenantID, entityID, fields)
	case "quote":
		return m.quotes.UpdateFields(ctx, tenantID, entityID, fields)
	default:
		return fmt.Errorf("no field store for entity type %q", entityType)
	}
}

// @title           FlowCRM API
// @version         1.0
// @description     Multi-tenant CRM with an event-driven automation engine.

// @host            localhost:8080
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			NewFiberServer,
			database.NewDatabase,

			// Repositories
			audit.NewAuditRepository,
			automation.NewAutomationRepository,
			automation.NewExecutionLogRepository,
			lead.NewLeadRepository,
			client.NewClientRepository,
			task.NewTaskRepository,
			project.NewProjectRepository,
			quote.NewQuoteRepository,
			meeting.NewMeetingRepository,
			notification.NewNotificationRepository,
			email.NewEmailRepository,
			webhook.NewWebhookRepository,
			webhook.NewWebhookLogRepository,
			datasource.NewDataSourceRepository,
			scheduler.NewScheduleRepository,
			user.NewUserRepository,
			user.NewTenantRepository,

			// Services
			audit.NewAuditService,
			auth.NewAuthService,
			user.NewUserService,
			lead.NewLeadService,
			client.NewClientService,
			task.NewTaskService,
			project.NewProjectService,
			quote.NewQuoteService,
			meeting.NewMeetingService,
			notification.NewNotificationService,
			email.NewEmailService,
			webhook.NewWebhookService,
			datasource.NewDataSourceService,
			scheduler.NewSchedulerService,
			report.NewReportService,
			automation.NewActionExecutor,
			automation.NewEngine,
			automation.NewAutomationService,

			// Event bus and interface adapters. Producer features each
			// declare their own trigger interface; the bus satisfies all
			// of them.
			newEventBus,
			func(b *eventBus) lead.AutomationTrigger { return b },
			func(b *eventBus) client.AutomationTrigger { return b },
			func(b *eventBus) task.AutomationTrigger { return b },
			func(b *eventBus) project.AutomationTrigger { return b },
			func(b *eventBus) quote.AutomationTrigger { return b },
			func(b *eventBus) meeting.AutomationTrigger { return b },
			func(b *eventBus) scheduler.AutomationTrigger { return b },

			func(s client.ClientService) lead.ClientCreator { return &clientCreatorAdapter{clients: s} },
			func(s email.EmailService) automation.EmailSender { return s },
			func(s notification.NotificationService) automation.NotificationSender { return s },
			func(s task.TaskService) automation.TaskCreator { return &taskCreatorAdapter{tasks: s} },
			func(s webhook.WebhookService) automation.WebhookCaller { return s },
			func(s lead.LeadService) automation.LeadConverter { return s },
			func(s datasource.DataSourceService) automation.LeadImporter { return s },
			func(s lead.LeadService) datasource.LeadSink { return s },
			func(s email.EmailService) report.Mailer { return s },
			func(leads lead.LeadService, clients client.ClientService, tasks task.TaskService, projects project.ProjectService, quotes quote.QuoteService) automation.EntityStore {
				return &entityStoreMux{leads: leads, clients: clients, tasks: tasks, projects: projects, quotes: quotes}
			},
			system.NewHub,
			func(h *system.Hub) notification.Pusher { return h },

			// Controllers
			auth.NewAuthController,
			user.NewUserController,
			lead.NewLeadController,
			client.NewClientController,
			task.NewTaskController,
			project.NewProjectController,
			quote.NewQuoteController,
			meeting.NewMeetingController,
			notification.NewNotificationController,
			webhook.NewWebhookController,
			datasource.NewDataSourceController,
			scheduler.NewSchedulerController,
			report.NewReportController,
			automation.NewAutomationController,
			audit.NewAuditController,
			system.NewWebSocketController,

			// Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(user.NewUserApi),
			AsRoute(lead.NewLeadApi),
			AsRoute(client.NewClientApi),
			AsRoute(task.NewTaskApi),
			AsRoute(project.NewProjectApi),
			AsRoute(quote.NewQuoteApi),
			AsRoute(meeting.NewMeetingApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(webhook.NewWebhookApi),
			AsRoute(datasource.NewDataSourceApi),
			AsRoute(scheduler.NewSchedulerApi),
			AsRoute(report.NewReportApi),
			AsRoute(automation.NewAutomationApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(system.NewWebSocketApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewMetricsApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },
			func(b *eventBus, engine *automation.Engine, webhooks webhook.WebhookService) {
				b.bind(engine, webhooks)
			},
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, schedules scheduler.SchedulerService) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return schedules.Start(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return schedules.Stop()
					},
				})
			},
		),
	)

	app.Run()
}
