package meeting

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

type MeetingService interface {
	ScheduleMeeting(ctx context.Context, meeting *Meeting, actingUser *primitive.ObjectID) error
	GetMeeting(ctx context.Context, tenantID primitive.ObjectID, id string) (*Meeting, error)
	ListMeetings(ctx context.Context, tenantID primitive.ObjectID, from, to time.Time, page, limit int64) ([]Meeting, int64, error)
	UpdateStatus(ctx context.Context, tenantID primitive.ObjectID, id string, status MeetingStatus) error
	DeleteMeeting(ctx context.Context, tenantID primitive.ObjectID, id string) error
}

type MeetingServiceImpl struct {
	Repo         MeetingRepository
	Automation   AutomationTrigger
	AuditService audit.AuditService
}

func NewMeetingService(repo MeetingRepository, automation AutomationTrigger, auditService audit.AuditService) MeetingService {
	return &MeetingServiceImpl{
		Repo:         repo,
		Automation:   automation,
		AuditService: auditService,
	}
}

func (s *MeetingServiceImpl) ScheduleMeeting(ctx context.Context, meeting *Meeting, actingUser *primitive.ObjectID) error {
	if meeting.Title == "" {
		return fmt.Errorf("meeting title is required")
	}
	if meeting.TenantID.IsZero() {
		return fmt.Errorf("meeting tenant is required")
	}
	if meeting.StartsAt.IsZero() {
		return fmt.Errorf("meeting start time is required")
	}

	if err := s.Repo.Create(ctx, meeting); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, meeting.TenantID, common_models.AuditActionSchedule, "meetings", meeting.ID.Hex(),
		map[string]common_models.Change{"meeting": {New: meeting}})

	go s.Automation.ProcessTrigger(context.Background(),
		common_models.NewEvent(meeting.TenantID, common_models.TriggerMeetingScheduled,
			"meeting", meeting.ID.Hex(), meeting.EventPayload(), actingUser))
	return nil
}

func (s *MeetingServiceImpl) GetMeeting(ctx context.Context, tenantID primitive.ObjectID, id string) (*Meeting, error) {
	return s.Repo.GetByID(ctx, tenantID, id)
}

func (s *MeetingServiceImpl) ListMeetings(ctx context.Context, tenantID primitive.ObjectID, from, to time.Time, page, limit int64) ([]Meeting, int64, error) {
	return s.Repo.List(ctx, tenantID, from, to, page, limit)
}

func (s *MeetingServiceImpl) UpdateStatus(ctx context.Context, tenantID primitive.ObjectID, id string, status MeetingStatus) error {
	meeting, err := s.Repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if meeting == nil {
		return fmt.Errorf("meeting not found")
	}

	if err := s.Repo.UpdateFields(ctx, tenantID, id, map[string]interface{}{"status": status}); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionUpdate, "meetings", id,
		map[string]common_models.Change{"status": {Old: meeting.Status, New: status}})
	return nil
}

func (s *MeetingServiceImpl) DeleteMeeting(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	old, _ := s.Repo.GetByID(ctx, tenantID, id)

	if err := s.Repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, tenantID, common_models.AuditActionDelete, "meetings", id,
		map[string]common_models.Change{"meeting": {Old: old, New: "DELETED"}})
	return nil
}
