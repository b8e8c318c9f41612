package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"flowcrm/internal/features/automation"
	"flowcrm/internal/features/lead"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeLeadLister struct {
	leads []lead.Lead
}

func (f *fakeLeadLister) Create(ctx context.Context, l *lead.Lead) error { return nil }
func (f *fakeLeadLister) GetByID(ctx context.Context, tenantID primitive.ObjectID, id string) (*lead.Lead, error) {
	return nil, nil
}
func (f *fakeLeadLister) List(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, page, limit int64) ([]lead.Lead, int64, error) {
	var out []lead.Lead
	for _, l := range f.leads {
		if l.TenantID != tenantID {
			continue
		}
		if status, ok := filters["status"]; ok && string(l.Status) != status {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}
func (f *fakeLeadLister) Update(ctx context.Context, l *lead.Lead) error { return nil }
func (f *fakeLeadLister) UpdateFields(ctx context.Context, tenantID primitive.ObjectID, id string, fields map[string]interface{}) error {
	return nil
}
func (f *fakeLeadLister) Delete(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	return nil
}
func (f *fakeLeadLister) LinkClient(ctx context.Context, tenantID primitive.ObjectID, leadID string, clientID primitive.ObjectID) (bool, error) {
	return false, nil
}

type fakeLogLister struct {
	logs []automation.ExecutionLog
}

func (f *fakeLogLister) Append(ctx context.Context, entry *automation.ExecutionLog) error { return nil }
func (f *fakeLogLister) List(ctx context.Context, tenantID primitive.ObjectID, automationID string, limit int64) ([]automation.ExecutionLog, error) {
	var out []automation.ExecutionLog
	for _, l := range f.logs {
		if l.TenantID == tenantID && l.AutomationID.Hex() == automationID {
			out = append(out, l)
		}
	}
	return out, nil
}
func (f *fakeLogLister) ListAll(ctx context.Context, tenantID primitive.ObjectID, limit int64) ([]automation.ExecutionLog, error) {
	var out []automation.ExecutionLog
	for _, l := range f.logs {
		if l.TenantID == tenantID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeMailer struct {
	to             []string
	subject        string
	attachmentName string
	attachmentData []byte
}

func (f *fakeMailer) SendEmailWithAttachment(ctx context.Context, tenantID primitive.ObjectID, to []string, subject, body string, attachmentName string, attachmentData []byte) error {
	f.to = to
	f.subject = subject
	f.attachmentName = attachmentName
	f.attachmentData = attachmentData
	return nil
}

func TestExportLeadsXLSX(t *testing.T) {
	tenant := primitive.NewObjectID()
	leads := &fakeLeadLister{leads: []lead.Lead{
		{ID: primitive.NewObjectID(), TenantID: tenant, Name: "Asha", Email: "asha@example.com", Status: lead.LeadStatusQualified, CreatedAt: time.Now()},
		{ID: primitive.NewObjectID(), TenantID: primitive.NewObjectID(), Name: "OtherTenant"},
	}}
	svc := NewReportService(leads, &fakeLogLister{}, &fakeMailer{}, zap.NewNop())

	data, filename, err := svc.ExportLeads(context.Background(), tenant, nil, "xlsx")
	if err != nil {
		t.Fatalf("ExportLeads: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("filename = %s", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Report")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1 lead", len(rows))
	}
	if rows[0][1] != "name" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "Asha" || rows[1][6] != "qualified" {
		t.Errorf("data row = %v", rows[1])
	}
}

func TestExportLeadsCSVWithFilter(t *testing.T) {
	tenant := primitive.NewObjectID()
	leads := &fakeLeadLister{leads: []lead.Lead{
		{ID: primitive.NewObjectID(), TenantID: tenant, Name: "Asha", Status: lead.LeadStatusQualified},
		{ID: primitive.NewObjectID(), TenantID: tenant, Name: "Bram", Status: lead.LeadStatusNew},
	}}
	svc := NewReportService(leads, &fakeLogLister{}, &fakeMailer{}, zap.NewNop())

	data, filename, err := svc.ExportLeads(context.Background(), tenant,
		map[string]interface{}{"status": "qualified"}, "csv")
	if err != nil {
		t.Fatalf("ExportLeads: %v", err)
	}
	if !strings.HasSuffix(filename, ".csv") {
		t.Errorf("filename = %s", filename)
	}

	out := string(data)
	if !strings.Contains(out, "Asha") {
		t.Errorf("filtered lead missing:\n%s", out)
	}
	if strings.Contains(out, "Bram") {
		t.Errorf("unfiltered lead leaked:\n%s", out)
	}
}

func TestExportExecutionLogsScopedToRule(t *testing.T) {
	tenant := primitive.NewObjectID()
	ruleA := primitive.NewObjectID()
	ruleB := primitive.NewObjectID()
	logs := &fakeLogLister{logs: []automation.ExecutionLog{
		{ID: primitive.NewObjectID(), TenantID: tenant, AutomationID: ruleA, RuleName: "welcome email", Status: automation.ExecutionSuccess},
		{ID: primitive.NewObjectID(), TenantID: tenant, AutomationID: ruleB, RuleName: "escalation", Status: automation.ExecutionFailed},
	}}
	svc := NewReportService(&fakeLeadLister{}, logs, &fakeMailer{}, zap.NewNop())

	data, _, err := svc.ExportExecutionLogs(context.Background(), tenant, ruleA.Hex(), "csv")
	if err != nil {
		t.Fatalf("ExportExecutionLogs: %v", err)
	}

	out := string(data)
	if !strings.Contains(out, "welcome email") {
		t.Errorf("rule log missing:\n%s", out)
	}
	if strings.Contains(out, "escalation") {
		t.Errorf("other rule's log leaked:\n%s", out)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := NewReportService(&fakeLeadLister{}, &fakeLogLister{}, &fakeMailer{}, zap.NewNop())
	if _, _, err := svc.ExportLeads(context.Background(), primitive.NewObjectID(), nil, "pdf"); err == nil {
		t.Fatal("unknown format must be rejected")
	}
}

func TestEmailLeadsSendsExportAsAttachment(t *testing.T) {
	tenant := primitive.NewObjectID()
	leads := &fakeLeadLister{leads: []lead.Lead{
		{ID: primitive.NewObjectID(), TenantID: tenant, Name: "Asha", Status: lead.LeadStatusQualified},
	}}
	mailer := &fakeMailer{}
	svc := NewReportService(leads, &fakeLogLister{}, mailer, zap.NewNop())

	err := svc.EmailLeads(context.Background(), tenant,
		[]string{"ops@example.com", "sales@example.com"}, nil, "xlsx")
	if err != nil {
		t.Fatalf("EmailLeads: %v", err)
	}

	if len(mailer.to) != 2 || mailer.to[0] != "ops@example.com" {
		t.Errorf("recipients = %v", mailer.to)
	}
	if !strings.HasSuffix(mailer.attachmentName, ".xlsx") {
		t.Errorf("attachment name = %s", mailer.attachmentName)
	}
	if mailer.subject == "" {
		t.Error("subject missing")
	}

	f, err := excelize.OpenReader(bytes.NewReader(mailer.attachmentData))
	if err != nil {
		t.Fatalf("attachment is not a workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Report")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "Asha" {
		t.Errorf("attachment rows = %v", rows)
	}
}

func TestEmailLeadsRequiresRecipients(t *testing.T) {
	svc := NewReportService(&fakeLeadLister{}, &fakeLogLister{}, &fakeMailer{}, zap.NewNop())
	if err := svc.EmailLeads(context.Background(), primitive.NewObjectID(), nil, nil, "xlsx"); err == nil {
		t.Fatal("empty recipient list must be rejected")
	}
}
