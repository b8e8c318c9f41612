package automation

import (
	"context"
	"errors"
	"sync"
	"testing"

	common_models "flowcrm/internal/common/models"
	"flowcrm/internal/config"
	"flowcrm/pkg/condition"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeRuleRepo keeps rules in memory and applies the same
// tenant/trigger/active filtering contract as the Mongo repository.
type fakeRuleRepo struct {
	rules   []AutomationRule
	listErr error
}

func (f *fakeRuleRepo) Create(ctx context.Context, rule *AutomationRule) error { return nil }

func (f *fakeRuleRepo) GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*AutomationRule, error) {
	for i := range f.rules {
		if f.rules[i].ID.Hex() == id && f.rules[i].TenantID == tenantID {
			return &f.rules[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRuleRepo) List(ctx context.Context, tenantID primitive.ObjectID) ([]AutomationRule, error) {
	return f.rules, nil
}

func (f *fakeRuleRepo) ListActive(ctx context.Context, tenantID primitive.ObjectID, triggerType string) ([]AutomationRule, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []AutomationRule
	for _, r := range f.rules {
		if r.TenantID == tenantID && r.TriggerType == triggerType && r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRuleRepo) Update(ctx context.Context, rule *AutomationRule) error { return nil }
func (f *fakeRuleRepo) Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	return nil
}
func (f *fakeRuleRepo) SetActive(ctx context.Context, tenantID primitive.ObjectID, id string, active bool) error {
	return nil
}

type fakeLogRepo struct {
	mu      sync.Mutex
	entries []ExecutionLog
}

func (f *fakeLogRepo) Append(ctx context.Context, entry *ExecutionLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLogRepo) List(ctx context.Context, tenantID primitive.ObjectID, automationID string, limit int64) ([]ExecutionLog, error) {
	return f.entries, nil
}

func (f *fakeLogRepo) ListAll(ctx context.Context, tenantID primitive.ObjectID, limit int64) ([]ExecutionLog, error) {
	return f.entries, nil
}

func (f *fakeLogRepo) byRule(id primitive.ObjectID) []ExecutionLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ExecutionLog
	for _, e := range f.entries {
		if e.AutomationID == id {
			out = append(out, e)
		}
	}
	return out
}

// scriptedExecutor lets a test decide each action's fate. It records
// executed kinds in order.
type scriptedExecutor struct {
	mu       sync.Mutex
	executed []ActionKind
	fail     map[ActionKind]string
	panicOn  ActionKind
}

func (s *scriptedExecutor) ExecuteActions(ctx context.Context, actions []RuleAction, event common_models.EventEnvelope) []ActionResult {
	results := make([]ActionResult, 0, len(actions))
	for _, a := range actions {
		results = append(results, ActionResult{Kind: a.Kind, Err: s.ExecuteAction(ctx, a, event)})
	}
	return results
}

func (s *scriptedExecutor) ExecuteAction(ctx context.Context, action RuleAction, event common_models.EventEnvelope) *ActionError {
	if action.Kind == s.panicOn {
		panic("scripted panic")
	}
	s.mu.Lock()
	s.executed = append(s.executed, action.Kind)
	s.mu.Unlock()
	if msg, ok := s.fail[action.Kind]; ok {
		return &ActionError{Kind: action.Kind, Message: msg}
	}
	return nil
}

func newTestEngine(rules *fakeRuleRepo, logs *fakeLogRepo, exec ActionExecutor) *Engine {
	cfg := &config.Config{AutomationWorkers: 2}
	return NewEngine(cfg, rules, logs, exec, zap.NewNop())
}

func ruleWith(tenant primitive.ObjectID, trigger string, conds []condition.Condition, actions ...RuleAction) AutomationRule {
	return AutomationRule{
		ID:          primitive.NewObjectID(),
		TenantID:    tenant,
		Name:        "rule-" + trigger,
		TriggerType: trigger,
		Conditions:  conds,
		Actions:     actions,
		Active:      true,
	}
}

func TestProcessTriggerMatchedRuleRunsAndLogsSuccess(t *testing.T) {
	tenant := primitive.NewObjectID()
	rule := ruleWith(tenant, "lead_created",
		[]condition.Condition{{Field: "source", Operator: condition.OperatorEquals, Value: "Facebook"}},
		RuleAction{Kind: ActionSendEmail})

	ruleRepo := &fakeRuleRepo{rules: []AutomationRule{rule}}
	logRepo := &fakeLogRepo{}
	exec := &scriptedExecutor{}
	engine := newTestEngine(ruleRepo, logRepo, exec)

	event := common_models.NewEvent(tenant, common_models.TriggerLeadCreated, "lead", "L1",
		map[string]interface{}{"source": "Facebook"}, nil)
	engine.ProcessTrigger(context.Background(), event)

	if len(exec.executed) != 1 || exec.executed[0] != ActionSendEmail {
		t.Fatalf("expected send_email to run, got %v", exec.executed)
	}
	entries := logRepo.byRule(rule.ID)
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Status != ExecutionSuccess {
		t.Errorf("log status = %s, want success", entries[0].Status)
	}
	if entries[0].EntityID != "L1" || entries[0].TriggerType != "lead_created" {
		t.Errorf("log entry missing trigger event reference: %+v", entries[0])
	}
}

func TestProcessTriggerUnmatchedRuleIsNotLogged(t *testing.T) {
	tenant := primitive.NewObjectID()
	rule := ruleWith(tenant, "lead_created",
		[]condition.Condition{{Field: "source", Operator: condition.OperatorEquals, Value: "Facebook"}},
		RuleAction{Kind: ActionSendEmail})

	ruleRepo := &fakeRuleRepo{rules: []AutomationRule{rule}}
	logRepo := &fakeLogRepo{}
	exec := &scriptedExecutor{}
	engine := newTestEngine(ruleRepo, logRepo, exec)

	event := common_models.NewEvent(tenant, common_models.TriggerLeadCreated, "lead", "L1",
		map[string]interface{}{"source": "Referral"}, nil)
	engine.ProcessTrigger(context.Background(), event)

	if len(exec.executed) != 0 {
		t.Fatalf("no actions should run, got %v", exec.executed)
	}
	if len(logRepo.entries) != 0 {
		t.Fatalf("unmatched rules must not be logged, got %d entries", len(logRepo.entries))
	}
}

func TestProcessTriggerEmptyConditionsAlwaysMatch(t *testing.T) {
	tenant := primitive.NewObjectID()
	rule := ruleWith(tenant, "task_completed", nil, RuleAction{Kind: ActionSendNotification})

	ruleRepo := &fakeRuleRepo{rules: []AutomationRule{rule}}
	logRepo := &fakeLogRepo{}
	exec := &scriptedExecutor{}
	engine := newTestEngine(ruleRepo, logRepo, exec)

	event := common_models.NewEvent(tenant, common_models.TriggerTaskCompleted, "task", "T1", nil, nil)
	engine.ProcessTrigger(context.Background(), event)

	if len(logRepo.entries) != 1 || logRepo.entries[0].Status != ExecutionSuccess {
		t.Fatalf("rule with empty conditions must always run, entries: %+v", logRepo.entries)
	}
}

func TestProcessTriggerActionFailureMarksRuleFailed(t *testing.T) {
	tenant := primitive.NewObjectID()
	rule := ruleWith(tenant, "lead_created", nil,
		RuleAction{Kind: ActionSendEmail},
		RuleAction{Kind: ActionCallWebhook},
		RuleAction{Kind: ActionCreateTask})

	ruleRepo := &fakeRuleRepo{rules: []AutomationRule{rule}}
	logRepo := &fakeLogRepo{}
	exec := &scriptedExecutor{fail: map[ActionKind]string{ActionCallWebhook: "connection refused"}}
	engine := newTestEngine(ruleRepo, logRepo, exec)

	event := common_models.NewEvent(tenant, common_models.TriggerLeadCreated, "lead", "L1", nil, nil)
	engine.ProcessTrigger(context.Background(), event)

	// A failing action must not abort its siblings.
	want := []ActionKind{ActionSendEmail, ActionCallWebhook, ActionCreateTask}
	if len(exec.executed) != len(want) {
		t.Fatalf("executed %v, want %v", exec.executed, want)
	}
	for i, k := range want {
		if exec.executed[i] != k {
			t.Fatalf("executed %v, want %v", exec.executed, want)
		}
	}

	entries := logRepo.byRule(rule.ID)
	if len(entries) != 1 || entries[0].Status != ExecutionFailed {
		t.Fatalf("expected one failed entry, got %+v", entries)
	}
	if entries[0].Error != "call_webhook: connection refused" {
		t.Errorf("error detail = %q, want the first failure", entries[0].Error)
	}
}

func TestProcessTriggerRuleIndependence(t *testing.T) {
	tenant := primitive.NewObjectID()
	bad := ruleWith(tenant, "lead_created", nil, RuleAction{Kind: ActionRunScript})
	good := ruleWith(tenant, "lead_created", nil, RuleAction{Kind: ActionSendEmail})

	ruleRepo := &fakeRuleRepo{rules: []AutomationRule{bad, good}}
	logRepo := &fakeLogRepo{}
	exec := &scriptedExecutor{panicOn: ActionRunScript}
	engine := newTestEngine(ruleRepo, logRepo, exec)

	event := common_models.NewEvent(tenant, common_models.TriggerLeadCreated, "lead", "L1", nil, nil)
	engine.ProcessTrigger(context.Background(), event)

	badEntries := logRepo.byRule(bad.ID)
	if len(badEntries) != 1 || badEntries[0].Status != ExecutionFailed {
		t.Fatalf("panicking rule must be logged failed, got %+v", badEntries)
	}

	goodEntries := logRepo.byRule(good.ID)
	if len(goodEntries) != 1 || goodEntries[0].Status != ExecutionSuccess {
		t.Fatalf("sibling rule must still run and log success, got %+v", goodEntries)
	}
}

func TestProcessTriggerTenantIsolation(t *testing.T) {
	tenantA := primitive.NewObjectID()
	tenantB := primitive.NewObjectID()
	ruleB := ruleWith(tenantB, "lead_created", nil, RuleAction{Kind: ActionSendEmail})

	ruleRepo := &fakeRuleRepo{rules: []AutomationRule{ruleB}}
	logRepo := &fakeLogRepo{}
	exec := &scriptedExecutor{}
	engine := newTestEngine(ruleRepo, logRepo, exec)

	event := common_models.NewEvent(tenantA, common_models.TriggerLeadCreated, "lead", "L1", nil, nil)
	engine.ProcessTrigger(context.Background(), event)

	if len(exec.executed) != 0 || len(logRepo.entries) != 0 {
		t.Fatal("a rule must never fire for another tenant's event")
	}
}

func TestProcessTriggerInactiveRulesSkipped(t *testing.T) {
	tenant := primitive.NewObjectID()
	rule := ruleWith(tenant, "lead_created", nil, RuleAction{Kind: ActionSendEmail})
	rule.Active = false

	ruleRepo := &fakeRuleRepo{rules: []AutomationRule{rule}}
	logRepo := &fakeLogRepo{}
	exec := &scriptedExecutor{}
	engine := newTestEngine(ruleRepo, logRepo, exec)

	event := common_models.NewEvent(tenant, common_models.TriggerLeadCreated, "lead", "L1", nil, nil)
	engine.ProcessTrigger(context.Background(), event)

	if len(exec.executed) != 0 {
		t.Fatal("inactive rules must never be candidates")
	}
}

func TestProcessTriggerSurvivesStoreFailure(t *testing.T) {
	ruleRepo := &fakeRuleRepo{listErr: errors.New("store unavailable")}
	logRepo := &fakeLogRepo{}
	engine := newTestEngine(ruleRepo, logRepo, &scriptedExecutor{})

	event := common_models.NewEvent(primitive.NewObjectID(), common_models.TriggerLeadCreated, "lead", "L1", nil, nil)
	// Must not panic or propagate; the caller's transaction is unaffected.
	engine.ProcessTrigger(context.Background(), event)
}

func TestRunManualRequiresActiveRule(t *testing.T) {
	tenant := primitive.NewObjectID()
	rule := ruleWith(tenant, "lead_created", nil, RuleAction{Kind: ActionSendEmail})
	rule.Active = false

	ruleRepo := &fakeRuleRepo{rules: []AutomationRule{rule}}
	engine := newTestEngine(ruleRepo, &fakeLogRepo{}, &scriptedExecutor{})

	if _, err := engine.RunManual(context.Background(), tenant, rule.ID.Hex(), nil); err == nil {
		t.Fatal("manual run of an inactive rule must fail")
	}
}

func TestRunManualRoutesThroughEnginePath(t *testing.T) {
	tenant := primitive.NewObjectID()
	rule := ruleWith(tenant, "quote_accepted",
		[]condition.Condition{{Field: "amount", Operator: condition.OperatorGreaterThan, Value: 100}},
		RuleAction{Kind: ActionSendEmail})

	ruleRepo := &fakeRuleRepo{rules: []AutomationRule{rule}}
	logRepo := &fakeLogRepo{}
	exec := &scriptedExecutor{}
	engine := newTestEngine(ruleRepo, logRepo, exec)

	entry, err := engine.RunManual(context.Background(), tenant, rule.ID.Hex(),
		map[string]interface{}{"amount": 500})
	if err != nil {
		t.Fatalf("RunManual: %v", err)
	}
	if entry.Status != ExecutionSuccess {
		t.Errorf("status = %s, want success", entry.Status)
	}
	if len(exec.executed) != 1 {
		t.Errorf("expected the action to run once, got %v", exec.executed)
	}
	if len(logRepo.entries) != 1 {
		t.Errorf("manual runs must be logged like production runs")
	}

	// Condition miss is an explicit error on the manual path.
	if _, err := engine.RunManual(context.Background(), tenant, rule.ID.Hex(),
		map[string]interface{}{"amount": 50}); err == nil {
		t.Fatal("expected condition mismatch error")
	}
}

func TestRunManualUnknownRule(t *testing.T) {
	engine := newTestEngine(&fakeRuleRepo{}, &fakeLogRepo{}, &scriptedExecutor{})
	if _, err := engine.RunManual(context.Background(), primitive.NewObjectID(), primitive.NewObjectID().Hex(), nil); err == nil {
		t.Fatal("expected not-found error")
	}
}
