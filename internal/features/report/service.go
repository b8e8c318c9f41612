package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"flowcrm/internal/features/automation"
	"flowcrm/internal/features/lead"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const exportLimit = 10000

var leadColumns = []string{"id", "name", "email", "phone", "company", "source", "status", "client_id", "created_at"}

var logColumns = []string{"id", "rule_name", "trigger_type", "entity_type", "entity_id", "status", "error", "duration_ms", "created_at"}

// Mailer delivers a finished export to recipients. The email feature
// implements it; cmd/api wires the two together.
type Mailer interface {
	SendEmailWithAttachment(ctx context.Context, tenantID primitive.ObjectID, to []string, subject, body string, attachmentName string, attachmentData []byte) error
}

type ReportService interface {
	// ExportLeads renders the tenant's leads as a spreadsheet. Format is
	// "xlsx" or "csv"; filters pass through to the lead listing.
	ExportLeads(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, format string) ([]byte, string, error)
	// ExportExecutionLogs renders rule execution history. An empty
	// automationID exports logs across all rules.
	ExportExecutionLogs(ctx context.Context, tenantID primitive.ObjectID, automationID string, format string) ([]byte, string, error)
	// EmailLeads exports the tenant's leads and mails the file to the
	// given recipients.
	EmailLeads(ctx context.Context, tenantID primitive.ObjectID, to []string, filters map[string]interface{}, format string) error
}

type ReportServiceImpl struct {
	Leads  lead.LeadRepository
	Logs   automation.ExecutionLogRepository
	Mail   Mailer
	Logger *zap.Logger
}

func NewReportService(leads lead.LeadRepository, logs automation.ExecutionLogRepository, mail Mailer, logger *zap.Logger) ReportService {
	return &ReportServiceImpl{
		Leads:  leads,
		Logs:   logs,
		Mail:   mail,
		Logger: logger,
	}
}

func (s *ReportServiceImpl) ExportLeads(ctx context.Context, tenantID primitive.ObjectID, filters map[string]interface{}, format string) ([]byte, string, error) {
	leads, _, err := s.Leads.List(ctx, tenantID, filters, 1, exportLimit)
	if err != nil {
		return nil, "", err
	}

	rows := make([]map[string]interface{}, len(leads))
	for i, l := range leads {
		clientID := ""
		if l.ClientID != nil {
			clientID = l.ClientID.Hex()
		}
		rows[i] = map[string]interface{}{
			"id":         l.ID,
			"name":       l.Name,
			"email":      l.Email,
			"phone":      l.Phone,
			"company":    l.Company,
			"source":     l.Source,
			"status":     string(l.Status),
			"client_id":  clientID,
			"created_at": l.CreatedAt,
		}
	}

	s.Logger.Info("exporting leads", zap.String("tenant_id", tenantID.Hex()), zap.Int("rows", len(rows)))
	return s.render(rows, leadColumns, "leads", format)
}

func (s *ReportServiceImpl) ExportExecutionLogs(ctx context.Context, tenantID primitive.ObjectID, automationID string, format string) ([]byte, string, error) {
	var logs []automation.ExecutionLog
	var err error
	if automationID == "" {
		logs, err = s.Logs.ListAll(ctx, tenantID, exportLimit)
	} else {
		logs, err = s.Logs.List(ctx, tenantID, automationID, exportLimit)
	}
	if err != nil {
		return nil, "", err
	}

	rows := make([]map[string]interface{}, len(logs))
	for i, entry := range logs {
		rows[i] = map[string]interface{}{
			"id":           entry.ID,
			"rule_name":    entry.RuleName,
			"trigger_type": entry.TriggerType,
			"entity_type":  entry.EntityType,
			"entity_id":    entry.EntityID,
			"status":       string(entry.Status),
			"error":        entry.Error,
			"duration_ms":  entry.DurationMs,
			"created_at":   entry.CreatedAt,
		}
	}

	s.Logger.Info("exporting execution logs", zap.String("tenant_id", tenantID.Hex()), zap.Int("rows", len(rows)))
	return s.render(rows, logColumns, "automation_logs", format)
}

func (s *ReportServiceImpl) EmailLeads(ctx context.Context, tenantID primitive.ObjectID, to []string, filters map[string]interface{}, format string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	data, filename, err := s.ExportLeads(ctx, tenantID, filters, format)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Lead export %s", time.Now().Format("2006-01-02"))
	body := fmt.Sprintf("Attached: %s with %d bytes of lead data.", filename, len(data))

	if err := s.Mail.SendEmailWithAttachment(ctx, tenantID, to, subject, body, filename, data); err != nil {
		return fmt.Errorf("failed to email export: %w", err)
	}

	s.Logger.Info("emailed lead export",
		zap.String("tenant_id", tenantID.Hex()),
		zap.Strings("to", to),
		zap.String("filename", filename))
	return nil
}

func (s *ReportServiceImpl) render(rows []map[string]interface{}, columns []string, name, format string) ([]byte, string, error) {
	stamp := time.Now().Format("20060102_150405")
	switch format {
	case "", "xlsx":
		data, err := toExcel(rows, columns)
		if err != nil {
			return nil, "", err
		}
		return data, fmt.Sprintf("%s_%s.xlsx", name, stamp), nil
	case "csv":
		data, err := toCSV(rows, columns)
		if err != nil {
			return nil, "", err
		}
		return data, fmt.Sprintf("%s_%s.csv", name, stamp), nil
	default:
		return nil, "", fmt.Errorf("unsupported format: %s", format)
	}
}

func toExcel(rows []map[string]interface{}, columns []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Report"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, row := range rows {
		for colIdx, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, cellValue(row[col]))
		}
	}

	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func toCSV(rows []map[string]interface{}, columns []string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(columns); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = fmt.Sprintf("%v", cellValue(row[col]))
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellValue(val interface{}) interface{} {
	switch v := val.(type) {
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	case primitive.ObjectID:
		return v.Hex()
	case nil:
		return ""
	default:
		return v
	}
}

func sanitizeFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}
