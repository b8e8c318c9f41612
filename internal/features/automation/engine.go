package automation

import (
	"context"
	"fmt"
	"sync"
	"time"

	common_models "flowcrm/internal/common/models"
	"flowcrm/internal/config"
	"flowcrm/internal/metrics"
	"flowcrm/pkg/condition"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Engine is the trigger-matching orchestrator. It is stateless
// between events: rules are fetched and logs written per call through
// the injected repositories.
type Engine struct {
	rules    AutomationRepository
	logs     ExecutionLogRepository
	executor ActionExecutor
	logger   *zap.Logger
	workers  int
}

func NewEngine(cfg *config.Config, rules AutomationRepository, logs ExecutionLogRepository, executor ActionExecutor, logger *zap.Logger) *Engine {
	workers := cfg.AutomationWorkers
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		rules:    rules,
		logs:     logs,
		executor: executor,
		logger:   logger,
		workers:  workers,
	}
}

// ProcessTrigger evaluates and runs every active rule matching the
// event's tenant and trigger type. It never returns an error:
// automation is best effort and must not disturb the business
// operation that fired the event. Producers typically invoke it on a
// detached goroutine.
func (e *Engine) ProcessTrigger(ctx context.Context, event common_models.EventEnvelope) {
	if event.TenantID.IsZero() || event.TriggerType == "" {
		e.logger.Warn("dropping automation event without tenant or trigger",
			zap.String("trigger", string(event.TriggerType)),
			zap.String("entity", event.EntityType))
		return
	}

	metrics.EventsProcessed.WithLabelValues(string(event.TriggerType)).Inc()

	rules, err := e.rules.ListActive(ctx, event.TenantID, string(event.TriggerType))
	if err != nil {
		e.logger.Error("failed to load automation rules",
			zap.String("trigger", string(event.TriggerType)),
			zap.Error(err))
		return
	}
	if len(rules) == 0 {
		return
	}

	// Rules are independent, so they may run in parallel across a
	// bounded pool. Actions inside one rule stay sequential; each
	// rule's log write is order-insensitive.
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	for i := range rules {
		rule := rules[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			e.runRule(ctx, rule, event)
		}()
	}
	wg.Wait()
}

// runRule evaluates one rule and, when matched, executes it. Any
// panic is contained here so a broken rule never affects its siblings
// or the caller.
func (e *Engine) runRule(ctx context.Context, rule AutomationRule, event common_models.EventEnvelope) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("automation rule panicked",
				zap.String("rule", rule.Name),
				zap.Any("panic", r))
			e.appendLog(ctx, &ExecutionLog{
				TenantID:     rule.TenantID,
				AutomationID: rule.ID,
				RuleName:     rule.Name,
				TriggerType:  string(event.TriggerType),
				EntityType:   event.EntityType,
				EntityID:     event.EntityID,
				Status:       ExecutionFailed,
				Error:        fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	metrics.RulesEvaluated.Inc()
	if !condition.Evaluate(rule.Conditions, event.Payload) {
		// Unmatched rules are not logged; the trail records actual
		// automation activity only.
		return
	}
	metrics.RulesMatched.Inc()

	entry := e.executeMatched(ctx, rule, event)
	e.appendLog(ctx, entry)
}

// executeMatched runs a matched rule's actions in declared order and
// aggregates the per-action outcomes into one log entry: success iff
// every action succeeded, with the first failure as the error detail.
// Both the production and the manual-run path go through here.
func (e *Engine) executeMatched(ctx context.Context, rule AutomationRule, event common_models.EventEnvelope) *ExecutionLog {
	started := time.Now()
	results := e.executor.ExecuteActions(ctx, rule.Actions, event)
	elapsed := time.Since(started)
	metrics.ExecutionDuration.Observe(float64(elapsed.Milliseconds()))

	status := ExecutionSuccess
	errDetail := ""
	for _, res := range results {
		if res.Err != nil {
			status = ExecutionFailed
			if errDetail == "" {
				errDetail = res.Err.Error()
			}
		}
	}
	metrics.ExecutionsCompleted.WithLabelValues(string(status)).Inc()

	return &ExecutionLog{
		TenantID:     rule.TenantID,
		AutomationID: rule.ID,
		RuleName:     rule.Name,
		TriggerType:  string(event.TriggerType),
		EntityType:   event.EntityType,
		EntityID:     event.EntityID,
		Status:       status,
		Error:        errDetail,
		DurationMs:   elapsed.Milliseconds(),
	}
}

func (e *Engine) appendLog(ctx context.Context, entry *ExecutionLog) {
	if err := e.logs.Append(ctx, entry); err != nil {
		e.logger.Error("failed to append automation execution log",
			zap.String("rule", entry.RuleName),
			zap.Error(err))
	}
}

// RunManual triggers a single automation outside the normal event
// flow, for operator testing. It synthesizes a minimal envelope and
// routes through the same evaluate/execute/log path as production
// runs, then returns the resulting log entry synchronously. This is
// the one place automation failures surface to a user.
func (e *Engine) RunManual(ctx context.Context, tenantID primitive.ObjectID, automationID string, testPayload map[string]interface{}) (*ExecutionLog, error) {
	rule, err := e.rules.GetByID(ctx, tenantID, automationID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, fmt.Errorf("automation not found")
	}
	if !rule.Active {
		return nil, fmt.Errorf("automation %q is not active", rule.Name)
	}

	if testPayload == nil {
		testPayload = map[string]interface{}{"test": true}
	}

	event := common_models.NewEvent(tenantID, common_models.TriggerType(rule.TriggerType), "test", "", testPayload, nil)

	if !condition.Evaluate(rule.Conditions, event.Payload) {
		return nil, fmt.Errorf("conditions did not match the test payload")
	}

	entry := e.executeMatched(ctx, *rule, event)
	e.appendLog(ctx, entry)
	return entry, nil
}
