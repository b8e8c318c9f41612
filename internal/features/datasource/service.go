package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	common_models "flowcrm/internal/common/models"
	"flowcrm/internal/features/audit"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// LeadSink receives rows mapped to lead fields. Implemented by the
// lead feature, wired in cmd/api.
type LeadSink interface {
	ImportLead(ctx context.Context, tenantID primitive.ObjectID, fields map[string]interface{}) error
}

type DataSourceService interface {
	CreateDataSource(ctx context.Context, source *DataSource) error
	GetDataSource(ctx context.Context, tenantID primitive.ObjectID, id string) (*DataSource, error)
	ListDataSources(ctx context.Context, tenantID primitive.ObjectID) ([]DataSource, error)
	UpdateDataSource(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error
	DeleteDataSource(ctx context.Context, tenantID primitive.ObjectID, id string) error
	TestConnection(ctx context.Context, tenantID primitive.ObjectID, id string) error
	// ImportLeads pulls mapped rows from the source table and feeds
	// them to the lead sink. Returns the number of imported rows. Also
	// serves the sync_leads engine action.
	ImportLeads(ctx context.Context, tenantID primitive.ObjectID, dataSourceID string) (int, error)
}

type DataSourceServiceImpl struct {
	Repo         DataSourceRepository
	Leads        LeadSink
	AuditService audit.AuditService
	Logger       *zap.Logger
}

func NewDataSourceService(repo DataSourceRepository, leads LeadSink, auditService audit.AuditService, logger *zap.Logger) DataSourceService {
	return &DataSourceServiceImpl{
		Repo:         repo,
		Leads:        leads,
		AuditService: auditService,
		Logger:       logger,
	}
}

func (s *DataSourceServiceImpl) CreateDataSource(ctx context.Context, source *DataSource) error {
	if source.Name == "" || source.Host == "" || source.Database == "" || source.Table == "" {
		return fmt.Errorf("data source name, host, database and table are required")
	}
	if source.TenantID.IsZero() {
		return fmt.Errorf("data source tenant is required")
	}
	if len(source.Mapping) == 0 {
		return fmt.Errorf("data source needs at least one column mapping")
	}

	err := s.Repo.Create(ctx, source)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, source.TenantID, common_models.AuditActionCreate, "data_sources", source.ID.Hex(),
			map[string]common_models.Change{"data_source": {New: source.Name}})
	}
	return err
}

func (s *DataSourceServiceImpl) GetDataSource(ctx context.Context, tenantID primitive.ObjectID, id string) (*DataSource, error) {
	return s.Repo.GetByID(ctx, tenantID, id)
}

func (s *DataSourceServiceImpl) ListDataSources(ctx context.Context, tenantID primitive.ObjectID) ([]DataSource, error) {
	return s.Repo.List(ctx, tenantID)
}

func (s *DataSourceServiceImpl) UpdateDataSource(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error {
	return s.Repo.Update(ctx, tenantID, id, updates)
}

func (s *DataSourceServiceImpl) DeleteDataSource(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	old, _ := s.Repo.GetByID(ctx, tenantID, id)

	err := s.Repo.Delete(ctx, tenantID, id)
	if err == nil && old != nil {
		_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionDelete, "data_sources", id,
			map[string]common_models.Change{"data_source": {Old: old.Name, New: "DELETED"}})
	}
	return err
}

func (s *DataSourceServiceImpl) TestConnection(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	source, err := s.Repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if source == nil {
		return fmt.Errorf("data source not found")
	}

	db, err := sql.Open("postgres", source.ConnString())
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer db.Close()

	return db.PingContext(ctx)
}

func (s *DataSourceServiceImpl) ImportLeads(ctx context.Context, tenantID primitive.ObjectID, dataSourceID string) (int, error) {
	source, err := s.Repo.GetByID(ctx, tenantID, dataSourceID)
	if err != nil {
		return 0, err
	}
	if source == nil {
		return 0, fmt.Errorf("data source not found")
	}

	db, err := sql.Open("postgres", source.ConnString())
	if err != nil {
		return 0, fmt.Errorf("failed to connect to %s: %w", source.Name, err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return 0, fmt.Errorf("failed to ping %s: %w", source.Name, err)
	}

	columns := make([]string, 0, len(source.Mapping))
	fields := make([]string, 0, len(source.Mapping))
	for col, field := range source.Mapping {
		columns = append(columns, col)
		fields = append(fields, field)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), source.Table)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to query %s: %w", source.Table, err)
	}
	defer rows.Close()

	imported := 0
	failed := 0
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			failed++
			continue
		}

		leadFields := make(map[string]interface{}, len(fields))
		for i, field := range fields {
			val := values[i]
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			leadFields[field] = val
		}

		if err := s.Leads.ImportLead(ctx, tenantID, leadFields); err != nil {
			failed++
			continue
		}
		imported++
	}
	if err := rows.Err(); err != nil {
		return imported, fmt.Errorf("row iteration failed: %w", err)
	}

	_ = s.Repo.Update(ctx, tenantID, dataSourceID, map[string]interface{}{"last_import_at": time.Now()})

	_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionImport, "data_sources", dataSourceID,
		map[string]common_models.Change{
			"imported": {New: imported},
			"failed":   {New: failed},
		})

	s.Logger.Info("lead import finished",
		zap.String("source", source.Name),
		zap.Int("imported", imported),
		zap.Int("failed", failed))
	return imported, nil
}
